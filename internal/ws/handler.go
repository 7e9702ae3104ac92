package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/auth"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
)

// TokenVerifier validates a bearer credential and yields its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler upgrades authenticated clients onto the hub.
type Handler struct {
	hub       *Hub
	verifier  TokenVerifier
	publisher rabbitmq.Publisher
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, verifier TokenVerifier, publisher rabbitmq.Publisher) *Handler {
	return &Handler{hub: hub, verifier: verifier, publisher: publisher}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake with the same credential the HTTP
// surface uses, upgrades the connection, and registers it for the user.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	claims, err := h.verifier.Verify(credentialFromRequest(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication Error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      claims.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	epoch := h.hub.Register(claims.UserID, conn)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, "ws_connect", info, "")

	go h.readLoop(ctx, conn, info, epoch)
}

// readLoop keeps the connection alive until the peer closes it, then cleans
// up the registry entry it owns.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo, epoch uint64) {
	var closeReason string
	defer func() {
		h.hub.Unregister(info.UserID, epoch)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	if h.publisher == nil {
		return
	}
	envelope := observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":    info.UserID,
				"device_id":  info.DeviceID,
				"ip":         info.IP,
				"request_id": info.RequestID,
				"trace_id":   info.TraceID,
			},
		},
	}
	_ = h.publisher.Publish(ctx, "ws_events.social", envelope)
}

func credentialFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
