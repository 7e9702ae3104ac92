package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"social-service/internal/auth"
	"social-service/internal/friends"
	"social-service/internal/logging"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

// UserHandler manages registration, sessions and the friend graph endpoints.
type UserHandler struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	friends  *friends.Service
	jwt      *auth.JWTManager
	hub      *ws.Hub
	emitter  *telemetry.AuditEmitter
	logger   logging.Logger
	tokenTTL time.Duration
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(
	users repositories.UserRepository,
	chats repositories.ChatRepository,
	friendSvc *friends.Service,
	jwtManager *auth.JWTManager,
	hub *ws.Hub,
	emitter *telemetry.AuditEmitter,
	logger logging.Logger,
	tokenTTL time.Duration,
) *UserHandler {
	return &UserHandler{
		users:    users,
		chats:    chats,
		friends:  friendSvc,
		jwt:      jwtManager,
		hub:      hub,
		emitter:  emitter,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// Signup registers a user, initializes its self chat and announces the new
// user to every live connection.
func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Errorf("hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Email, req.Username, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account already exists with this email"})
			return
		}
		h.logger.Errorf("create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	if _, err := h.chats.InitSelfChat(c.Request.Context(), user.ID); err != nil {
		h.logger.Errorf("init self chat for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	view, err := h.users.GetView(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Errorf("load user view %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	h.hub.Broadcast(models.Event{Type: models.EventUserRegistered, Payload: view})
	h.audit(c, "INFO", "user registered", user.ID)

	c.JSON(http.StatusCreated, gin.H{"message": "Successful", "newUser": view})
}

// Signin validates credentials and sets the httpOnly session cookie.
func (h *UserHandler) Signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found!"})
			return
		}
		h.logger.Errorf("load user by email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.audit(c, "WARN", "failed signin attempt", user.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wrong Password"})
		return
	}

	token, _, err := h.jwt.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Errorf("issue token for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	view, err := h.users.GetView(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Errorf("load user view %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	friendRecords, err := h.users.ListByEmails(c.Request.Context(), view.Friends)
	if err != nil {
		h.logger.Errorf("load friends for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.SetCookie("token", token, int(h.tokenTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successful", "user": view, "friends": friendRecords})
}

// Signout clears the session cookie.
func (h *UserHandler) Signout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successful"})
}

// GetUser returns one user with its friend graph.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	view, err := h.users.GetView(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found!"})
			return
		}
		h.logger.Errorf("load user view %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// GetUserByIdentifier resolves a user by email or username query parameter.
func (h *UserHandler) GetUserByIdentifier(c *gin.Context) {
	var query struct {
		Email    string `form:"email" binding:"omitempty,email"`
		Username string `form:"username"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or username"})
		return
	}
	if query.Email == "" && query.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Request"})
		return
	}

	var (
		user models.User
		err  error
	)
	if query.Email != "" {
		user, err = h.users.GetByEmail(c.Request.Context(), query.Email)
	} else {
		user, err = h.users.GetByUsername(c.Request.Context(), query.Username)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found!"})
			return
		}
		h.logger.Errorf("load user by identifier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers returns every user in public projection.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Errorf("list users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found!"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UsersByEmail returns the public projection of the requested users.
func (h *UserHandler) UsersByEmail(c *gin.Context) {
	var req struct {
		Emails []string `json:"emails" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	users, err := h.users.ListByEmails(c.Request.Context(), req.Emails)
	if err != nil {
		h.logger.Errorf("list users by email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser removes the authenticated user; its chats (self and pair) and
// pending requests cascade.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if id != c.GetInt("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only delete your own account"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource does not exist"})
			return
		}
		h.logger.Errorf("delete user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	h.audit(c, "INFO", "user deleted", id)
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successful"})
}

// SendFriendRequest records a pending request toward the user owning the
// given email and notifies its live connection.
func (h *UserHandler) SendFriendRequest(c *gin.Context) {
	var req struct {
		FriendEmail string `json:"friendEmail" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetInt("userID")
	res, err := h.friends.SendRequest(c.Request.Context(), userID, req.FriendEmail)
	if err != nil {
		h.friendError(c, err, "send friend request")
		return
	}

	h.audit(c, "INFO", "friend request sent", userID)
	c.JSON(http.StatusCreated, gin.H{"message": "Successful", "user": res.User, "updatedFriend": res.Friend})
}

// UpdateFriendRequestStatus accepts or rejects a pending request.
func (h *UserHandler) UpdateFriendRequestStatus(c *gin.Context) {
	var req struct {
		FriendEmail           string `json:"friendEmail" binding:"required,email"`
		FriendRequestDecision string `json:"friendRequestDecision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetInt("userID")
	res, err := h.friends.UpdateStatus(c.Request.Context(), userID, req.FriendEmail, req.FriendRequestDecision)
	if err != nil {
		h.friendError(c, err, "update friend request")
		return
	}

	h.audit(c, "INFO", "friend request "+req.FriendRequestDecision+"ed", userID)
	resp := gin.H{"message": "Successful", "user": res.User, "friend": res.Friend}
	if res.Chat != nil {
		resp["initiatedChat"] = res.Chat
	}
	c.JSON(http.StatusCreated, resp)
}

// RemoveFriend deletes the friendship and the pair's shared chat.
func (h *UserHandler) RemoveFriend(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		FriendEmail string `json:"friendEmail" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Email != c.GetString("userEmail") {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only remove your own friends"})
		return
	}

	res, err := h.friends.RemoveFriend(c.Request.Context(), req.Email, req.FriendEmail)
	if err != nil {
		h.friendError(c, err, "remove friend")
		return
	}

	h.audit(c, "INFO", "friend removed", c.GetInt("userID"))
	c.JSON(http.StatusOK, gin.H{"updatedUser": res.User, "updatedFriend": res.Friend})
}

func (h *UserHandler) friendError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not find a user with this email"})
	case errors.Is(err, friends.ErrNoSharedChat):
		c.JSON(http.StatusNotFound, gin.H{"error": "no shared chat for this pair"})
	case errors.Is(err, friends.ErrSelfRequest), errors.Is(err, friends.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func (h *UserHandler) audit(c *gin.Context, level, text string, userID int) {
	id := int64(userID)
	h.emitter.Emit(c.Request.Context(), level, text, requestIDFromContext(c), &id)
}
