package realtime

import (
	"net/http"
	"time"

	"kantinku-be/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens in middleware before the upgrade; the dashboard origin is
	// not pinned here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ServeWS upgrades the connection and streams change pings for one cafeteria
// until the client goes away.
func ServeWS(hub *Hub, cafeteriaID uint, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// Buffered with coalescing: a burst of mutations becomes one pending
	// signal, which is enough since clients re-read everything anyway.
	changes := make(chan struct{}, 1)
	sub := hub.Subscribe(cafeteriaID, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})

	// Reader: only exists to notice the close.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			sub.Unsubscribe()
			conn.Close()
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-changes:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(map[string]string{"type": "changed"}); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
}
