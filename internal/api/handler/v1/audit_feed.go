package v1

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/class-treasury-api/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AuditFeed is the subscription side of events.Feed.
type AuditFeed interface {
	Subscribe() *events.Subscriber
	Unsubscribe(s *events.Subscriber)
}

// AuditFeedHandler streams committed audit records over a websocket.
type AuditFeedHandler struct {
	feed     AuditFeed
	upgrader websocket.Upgrader
}

func NewAuditFeedHandler(feed AuditFeed, allowedOrigins []string) *AuditFeedHandler {
	return &AuditFeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleAuditStream godoc
// @Summary      Live audit stream
// @Description  Upgrades to a websocket and pushes each audit record as JSON once its change has committed. Superadmin only.
// @Tags         audit
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /audit/stream [get]
// @Security BearerAuth
func (h *AuditFeedHandler) HandleAuditStream(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		zap.L().Warn("audit stream upgrade failed", zap.Error(err))
		return
	}

	sub := h.feed.Subscribe()
	if sub == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

func (h *AuditFeedHandler) writePump(conn *websocket.Conn, sub *events.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages. It exists to process pongs and notice
// when the client goes away.
func (h *AuditFeedHandler) readPump(conn *websocket.Conn, sub *events.Subscriber) {
	defer func() {
		h.feed.Unsubscribe(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("audit stream closed", zap.Error(err))
			}
			return
		}
	}
}
