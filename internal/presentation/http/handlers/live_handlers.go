package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// LiveHandlers serves the websocket event feed for admin dashboards.
type LiveHandlers struct {
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewLiveHandlers creates the live feed handlers.
func NewLiveHandlers(broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *LiveHandlers {
	return &LiveHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS policy is enforced by the HTTP middleware layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /api/live
func (h *LiveHandlers) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Live().Warn("Websocket upgrade failed", "error", err)
		return
	}

	events := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(events)
	defer conn.Close()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Live().Debug("Feed write failed, dropping client", "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
