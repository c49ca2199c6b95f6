package http

import (
	"net/http"
	"time"

	"knotquiz/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler streams a session to a display client: a snapshot after every
// mutation and an elapsed tick on a fixed interval. Ticks only read the
// timer.
type WSHandler struct {
	sessions *app.SessionService
	tick     time.Duration
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions *app.SessionService, tick time.Duration, logger *zap.Logger) *WSHandler {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		sessions: sessions,
		tick:     tick,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

// ServeSession upgrades GET /api/sessions/:id/ws.
func (h *WSHandler) ServeSession(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.sessions.Session(sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.sessions.Notifier().Subscribe(sessionID)
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// only this goroutine writes to conn
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()

		view := session.Snapshot()
		last := view.ElapsedMs
		if err := conn.WriteJSON(outboundMessage[app.SessionView]{Type: "snapshot", Payload: view}); err != nil {
			return
		}
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					// session discarded
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
					conn.Close()
					return
				}
				last = view.ElapsedMs
				if err := conn.WriteJSON(outboundMessage[app.SessionView]{Type: "snapshot", Payload: view}); err != nil {
					h.logger.Debug("ws write error", zap.Error(err))
					return
				}
			case <-ticker.C:
				ms := session.ElapsedMs()
				if ms == last {
					continue
				}
				last = ms
				if err := conn.WriteJSON(outboundMessage[tickPayload]{Type: "tick", Payload: tickPayload{ElapsedMs: ms}}); err != nil {
					h.logger.Debug("ws write error", zap.Error(err))
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(closeSignals)
	<-writerDone
}
