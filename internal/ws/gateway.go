package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"quickchat/internal/middleware"
	"quickchat/internal/models"
	"quickchat/internal/observability"
	"quickchat/internal/presence"
)

// Gateway accepts websocket connections, ties them to a verified identity and
// keeps the presence registry current.
type Gateway struct {
	registry *presence.Registry
	verifier middleware.TokenVerifier
}

// NewGateway constructs a Gateway.
func NewGateway(registry *presence.Registry, verifier middleware.TokenVerifier) *Gateway {
	return &Gateway{registry: registry, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client. The handshake must
// carry a verifiable bearer token; client-supplied identity is not trusted.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("quickchat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := middleware.ExtractToken(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}
	userID, err := g.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	cl := newClient(conn)
	g.registry.Register(userID, cl)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	g.publishConnEvent(ctx, "ws_connect", info, "")

	g.broadcastPresence()

	go g.readLoop(cl, userID, info)
}

// readLoop drains the connection until the terminal close, then tears down
// presence. The unregister is handle-guarded so a stale close cannot evict a
// newer connection from the same user. The request context dies with the
// handshake, so lifecycle events publish on a fresh one.
func (g *Gateway) readLoop(cl *client, userID int, info ConnInfo) {
	ctx := context.Background()
	var closeReason string
	defer func() {
		if g.registry.Unregister(userID, cl) {
			g.broadcastPresence()
		}
		observability.DecWSActive("chat")
		observability.IncWSEvent("chat", "ws_disconnect")
		g.publishConnEvent(ctx, "ws_disconnect", info, closeReason)
		cl.Close()
	}()

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("chat", "ws_error")
				g.publishConnEvent(ctx, "ws_error", info, closeReason)
			}
			return
		}
	}
}

// broadcastPresence sends the current snapshot to every connected client,
// including the one that just changed state. O(N) per presence change.
func (g *Gateway) broadcastPresence() {
	ids := g.registry.Snapshot()
	online := make([]string, 0, len(ids))
	for _, id := range ids {
		online = append(online, strconv.Itoa(id))
	}

	event := models.ChatEvent{Type: models.EventOnlineUsers, OnlineUsers: online}
	for _, conn := range g.registry.Connections() {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("presence broadcast write error: %v", err)
		}
	}
}

func (g *Gateway) publishConnEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	durationMS := int64(0)
	if name != "ws_connect" {
		durationMS = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "chat",
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
