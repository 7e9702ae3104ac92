package friends

import (
	"context"
	"errors"

	"social-service/internal/logging"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// Decisions accepted by UpdateStatus.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

var (
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrInvalidDecision = errors.New("invalid friend request decision")
	ErrNoSharedChat    = errors.New("no shared chat for pair")
)

// Notifier pushes events to live connections. Delivery is best-effort.
type Notifier interface {
	Notify(userID int, event models.Event) bool
	Broadcast(event models.Event)
}

// Result carries the records updated by a transition. Chat is set when an
// acceptance initiated (or reused) a chat.
type Result struct {
	User   models.UserView
	Friend models.UserView
	Chat   *models.Chat
}

// Service is the friend-request state machine. Transitions mutate the user
// directory and chat store, then push events to affected live connections.
type Service struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	notifier Notifier
	logger   logging.Logger
}

// NewService constructs the state machine.
func NewService(users repositories.UserRepository, chats repositories.ChatRepository, notifier Notifier, logger logging.Logger) *Service {
	return &Service{users: users, chats: chats, notifier: notifier, logger: logger}
}

// SendRequest records a pending request from the requester toward the user
// owning targetEmail. Sending twice is a no-op. If the target already has a
// pending request toward the requester, the two auto-resolve to friendship.
func (s *Service) SendRequest(ctx context.Context, requesterID int, targetEmail string) (Result, error) {
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return Result{}, err
	}
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return Result{}, err
	}
	if requester.ID == target.ID {
		return Result{}, ErrSelfRequest
	}

	alreadyFriends, err := s.users.AreFriends(ctx, requester.ID, target.ID)
	if err != nil {
		return Result{}, err
	}

	if alreadyFriends {
		s.logger.Warnf("friend request from %d to %s ignored: already friends", requester.ID, targetEmail)
		return s.result(ctx, requester.ID, target.ID, nil)
	}

	crossing, err := s.users.HasFriendRequest(ctx, target.ID, requester.ID)
	if err != nil {
		return Result{}, err
	}
	if crossing {
		// Both directions pending: collapse into an acceptance.
		chat, err := s.accept(ctx, requester.ID, target.ID)
		if err != nil {
			return Result{}, err
		}
		res, err := s.result(ctx, requester.ID, target.ID, &chat)
		if err != nil {
			return Result{}, err
		}
		s.notifyStatusChanged(res.User, res.Friend, DecisionAccept, res.Chat)
		return res, nil
	}

	if err := s.users.AddFriendRequest(ctx, requester.ID, target.ID); err != nil {
		return Result{}, err
	}
	res, err := s.result(ctx, requester.ID, target.ID, nil)
	if err != nil {
		return Result{}, err
	}
	s.notifier.Notify(target.ID, models.Event{
		Type:    models.EventFriendRequestReceived,
		Payload: models.FriendRequestPayload{From: res.User, To: res.Friend},
	})
	return res, nil
}

// UpdateStatus resolves the pending request from the user owning friendEmail
// toward userID. Reject clears the pending entries; accept additionally
// records the friendship and initializes the pair chat. Accepting an already
// accepted pair is a warned no-op.
func (s *Service) UpdateStatus(ctx context.Context, userID int, friendEmail, decision string) (Result, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return Result{}, ErrInvalidDecision
	}

	friend, err := s.users.GetByEmail(ctx, friendEmail)
	if err != nil {
		return Result{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	var chat *models.Chat
	if decision == DecisionReject {
		if err := s.users.RemoveFriendRequest(ctx, friend.ID, user.ID); err != nil {
			return Result{}, err
		}
	} else {
		alreadyFriends, err := s.users.AreFriends(ctx, user.ID, friend.ID)
		if err != nil {
			return Result{}, err
		}
		if alreadyFriends {
			s.logger.Warnf("accept for %d and %d ignored: already friends", user.ID, friend.ID)
		} else {
			accepted, err := s.accept(ctx, user.ID, friend.ID)
			if err != nil {
				return Result{}, err
			}
			chat = &accepted
		}
	}

	res, err := s.result(ctx, user.ID, friend.ID, chat)
	if err != nil {
		return Result{}, err
	}
	s.notifyStatusChanged(res.User, res.Friend, decision, res.Chat)
	return res, nil
}

// RemoveFriend deletes the pair's shared chat and the friendship itself.
func (s *Service) RemoveFriend(ctx context.Context, userEmail, friendEmail string) (Result, error) {
	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return Result{}, err
	}
	friend, err := s.users.GetByEmail(ctx, friendEmail)
	if err != nil {
		return Result{}, err
	}

	chat, err := s.chats.GetPairChat(ctx, user.ID, friend.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return Result{}, ErrNoSharedChat
		}
		return Result{}, err
	}
	if err := s.chats.DeleteChat(ctx, chat.ID); err != nil {
		return Result{}, err
	}
	if err := s.users.RemoveFriendship(ctx, user.ID, friend.ID); err != nil {
		return Result{}, err
	}

	return s.result(ctx, user.ID, friend.ID, nil)
}

// accept performs the shared acceptance transition: initialize (or reuse)
// the pair chat, clear pending entries in both directions, record the
// friendship. Each step is idempotent, so replays converge.
func (s *Service) accept(ctx context.Context, userID, friendID int) (models.Chat, error) {
	chat, err := s.chats.CreateOrGetChat(ctx, userID, friendID)
	if err != nil {
		return models.Chat{}, err
	}
	if err := s.users.RemoveFriendRequest(ctx, friendID, userID); err != nil {
		return models.Chat{}, err
	}
	if err := s.users.RemoveFriendRequest(ctx, userID, friendID); err != nil {
		return models.Chat{}, err
	}
	if err := s.users.AddFriendship(ctx, userID, friendID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

func (s *Service) result(ctx context.Context, userID, friendID int, chat *models.Chat) (Result, error) {
	userView, err := s.users.GetView(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	friendView, err := s.users.GetView(ctx, friendID)
	if err != nil {
		return Result{}, err
	}
	return Result{User: userView, Friend: friendView, Chat: chat}, nil
}

func (s *Service) notifyStatusChanged(user, friend models.UserView, decision string, chat *models.Chat) {
	event := models.Event{
		Type: models.EventFriendRequestStatusChanged,
		Payload: models.FriendRequestStatusPayload{
			To:       user,
			From:     friend,
			Decision: decision,
			Chat:     chat,
		},
	}
	s.notifier.Notify(user.ID, event)
	s.notifier.Notify(friend.ID, event)
}
