package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, email, username, passwordHash string) (models.User, error) {
	args := m.Called(ctx, email, username, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id int) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) List(ctx context.Context) ([]models.PublicUser, error) {
	args := m.Called(ctx)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) ListByEmails(ctx context.Context, emails []string) ([]models.PublicUser, error) {
	args := m.Called(ctx, emails)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetView(ctx context.Context, id int) (models.UserView, error) {
	args := m.Called(ctx, id)
	var view models.UserView
	if val := args.Get(0); val != nil {
		view = val.(models.UserView)
	}
	return view, args.Error(1)
}

func (m *UserRepositoryMock) AreFriends(ctx context.Context, a, b int) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) AddFriendship(ctx context.Context, a, b int) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *UserRepositoryMock) RemoveFriendship(ctx context.Context, a, b int) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *UserRepositoryMock) AddFriendRequest(ctx context.Context, requesterID, targetID int) error {
	args := m.Called(ctx, requesterID, targetID)
	return args.Error(0)
}

func (m *UserRepositoryMock) RemoveFriendRequest(ctx context.Context, requesterID, targetID int) error {
	args := m.Called(ctx, requesterID, targetID)
	return args.Error(0)
}

func (m *UserRepositoryMock) HasFriendRequest(ctx context.Context, requesterID, targetID int) (bool, error) {
	args := m.Called(ctx, requesterID, targetID)
	return args.Bool(0), args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) InitSelfChat(ctx context.Context, userID int) (models.Chat, error) {
	args := m.Called(ctx, userID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateOrGetChat(ctx context.Context, userID, friendID int) (models.Chat, error) {
	args := m.Called(ctx, userID, friendID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetPairChat(ctx context.Context, a, b int) (models.Chat, error) {
	args := m.Called(ctx, a, b)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, chatID, senderID int, content string, isSelfChat bool) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content, isSelfChat)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(userID int, event models.Event) bool {
	args := m.Called(userID, event)
	return args.Bool(0)
}

func (m *NotifierMock) Broadcast(event models.Event) {
	m.Called(event)
}

var (
	_ repositories.UserRepository    = (*UserRepositoryMock)(nil)
	_ repositories.ChatRepository    = (*ChatRepositoryMock)(nil)
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
)
