package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/logging"
	"social-service/internal/repositories"
)

// ChatHandler serves chat listing and message append endpoints.
type ChatHandler struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	logger   logging.Logger
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, logger logging.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages, logger: logger}
}

// GetUserChats returns every chat the user participates in, self chat first.
func (h *ChatHandler) GetUserChats(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if userID != c.GetInt("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only list your own chats"})
		return
	}

	chats, err := h.chats.ListUserChats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("list chats for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// PostMessage appends a message to a chat the authenticated user belongs to
// and returns the chat with its full message history.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	chat, err := h.chats.GetChat(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found!"})
			return
		}
		h.logger.Errorf("load chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}

	userID := c.GetInt("userID")
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this chat"})
		return
	}

	if _, err := h.messages.Append(c.Request.Context(), chatID, userID, req.Content, chat.IsSelfChat); err != nil {
		h.logger.Errorf("append message to chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	updated, err := h.chats.GetChat(c.Request.Context(), chatID)
	if err != nil {
		h.logger.Errorf("reload chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}
	updated.Messages, err = h.messages.ListChatMessages(c.Request.Context(), chatID)
	if err != nil {
		h.logger.Errorf("list messages for chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"updatedChat": updated})
}
