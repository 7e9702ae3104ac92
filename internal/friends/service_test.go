package friends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/logging"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func newTestService(users *mocks.UserRepositoryMock, chats *mocks.ChatRepositoryMock, notifier *mocks.NotifierMock) *Service {
	return NewService(users, chats, notifier, logging.NewConsoleSink())
}

func view(id int, email string) models.UserView {
	return models.UserView{User: models.User{ID: id, Email: email}}
}

func TestSendRequestRecordsPending(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, chats, notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()
	users.On("HasFriendRequest", mock.Anything, 2, 1).Return(false, nil).Once()
	users.On("AddFriendRequest", mock.Anything, 1, 2).Return(nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()
	notifier.On("Notify", 2, mock.Anything).Return(true).Once()

	res, err := svc.SendRequest(context.Background(), 1, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, res.User.ID)
	require.Equal(t, 2, res.Friend.ID)
	require.Nil(t, res.Chat)

	users.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSendRequestToSelf(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newTestService(users, new(mocks.ChatRepositoryMock), new(mocks.NotifierMock))

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()

	_, err := svc.SendRequest(context.Background(), 1, "alice@example.com")
	require.ErrorIs(t, err, ErrSelfRequest)
	users.AssertExpectations(t)
}

func TestSendRequestUnknownTarget(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newTestService(users, new(mocks.ChatRepositoryMock), new(mocks.NotifierMock))

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := svc.SendRequest(context.Background(), 1, "ghost@example.com")
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestSendRequestAlreadyFriendsIsNoOp(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, new(mocks.ChatRepositoryMock), notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()

	res, err := svc.SendRequest(context.Background(), 1, "bob@example.com")
	require.NoError(t, err)
	require.Nil(t, res.Chat)

	users.AssertNotCalled(t, "AddFriendRequest", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSendRequestCrossingAutoAccepts(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, chats, notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()
	users.On("HasFriendRequest", mock.Anything, 2, 1).Return(true, nil).Once()
	chats.On("CreateOrGetChat", mock.Anything, 1, 2).Return(models.Chat{ID: 9}, nil).Once()
	users.On("RemoveFriendRequest", mock.Anything, 2, 1).Return(nil).Once()
	users.On("RemoveFriendRequest", mock.Anything, 1, 2).Return(nil).Once()
	users.On("AddFriendship", mock.Anything, 1, 2).Return(nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()
	notifier.On("Notify", 1, mock.Anything).Return(true).Once()
	notifier.On("Notify", 2, mock.Anything).Return(true).Once()

	res, err := svc.SendRequest(context.Background(), 1, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Chat)
	require.Equal(t, 9, res.Chat.ID)

	users.AssertNotCalled(t, "AddFriendRequest", mock.Anything, mock.Anything, mock.Anything)
	users.AssertExpectations(t)
	chats.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUpdateStatusInvalidDecision(t *testing.T) {
	svc := newTestService(new(mocks.UserRepositoryMock), new(mocks.ChatRepositoryMock), new(mocks.NotifierMock))

	_, err := svc.UpdateStatus(context.Background(), 1, "bob@example.com", "maybe")
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestUpdateStatusAcceptInitiatesChat(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, chats, notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()
	chats.On("CreateOrGetChat", mock.Anything, 1, 2).Return(models.Chat{ID: 4}, nil).Once()
	users.On("RemoveFriendRequest", mock.Anything, 2, 1).Return(nil).Once()
	users.On("RemoveFriendRequest", mock.Anything, 1, 2).Return(nil).Once()
	users.On("AddFriendship", mock.Anything, 1, 2).Return(nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()
	notifier.On("Notify", 1, mock.Anything).Return(true).Once()
	notifier.On("Notify", 2, mock.Anything).Return(false).Once()

	res, err := svc.UpdateStatus(context.Background(), 1, "bob@example.com", DecisionAccept)
	require.NoError(t, err)
	require.NotNil(t, res.Chat)
	require.Equal(t, 4, res.Chat.ID)

	users.AssertExpectations(t)
	chats.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUpdateStatusDoubleAcceptIsNoOp(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, chats, notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()
	notifier.On("Notify", mock.Anything, mock.Anything).Return(true).Twice()

	res, err := svc.UpdateStatus(context.Background(), 1, "bob@example.com", DecisionAccept)
	require.NoError(t, err)
	require.Nil(t, res.Chat)

	chats.AssertNotCalled(t, "CreateOrGetChat", mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "AddFriendship", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusReject(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newTestService(users, chats, notifier)

	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("RemoveFriendRequest", mock.Anything, 2, 1).Return(nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()
	notifier.On("Notify", mock.Anything, mock.Anything).Return(true).Twice()

	res, err := svc.UpdateStatus(context.Background(), 1, "bob@example.com", DecisionReject)
	require.NoError(t, err)
	require.Nil(t, res.Chat)

	chats.AssertNotCalled(t, "CreateOrGetChat", mock.Anything, mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}

func TestRemoveFriendDeletesChatAndFriendship(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	svc := newTestService(users, chats, new(mocks.NotifierMock))

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	chats.On("GetPairChat", mock.Anything, 1, 2).Return(models.Chat{ID: 5}, nil).Once()
	chats.On("DeleteChat", mock.Anything, 5).Return(nil).Once()
	users.On("RemoveFriendship", mock.Anything, 1, 2).Return(nil).Once()
	users.On("GetView", mock.Anything, 1).Return(view(1, "alice@example.com"), nil).Once()
	users.On("GetView", mock.Anything, 2).Return(view(2, "bob@example.com"), nil).Once()

	res, err := svc.RemoveFriend(context.Background(), "alice@example.com", "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, res.User.ID)
	require.Equal(t, 2, res.Friend.ID)

	users.AssertExpectations(t)
	chats.AssertExpectations(t)
}

func TestRemoveFriendWithoutSharedChat(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	svc := newTestService(users, chats, new(mocks.NotifierMock))

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(models.User{ID: 1, Email: "alice@example.com"}, nil).Once()
	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(models.User{ID: 2, Email: "bob@example.com"}, nil).Once()
	chats.On("GetPairChat", mock.Anything, 1, 2).Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	_, err := svc.RemoveFriend(context.Background(), "alice@example.com", "bob@example.com")
	require.ErrorIs(t, err, ErrNoSharedChat)

	chats.AssertNotCalled(t, "DeleteChat", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "RemoveFriendship", mock.Anything, mock.Anything, mock.Anything)
}
