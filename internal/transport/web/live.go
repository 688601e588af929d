package web

import (
	"net/http"
	"time"

	"github.com/abgdnv/gocommerce-inventory/internal/product/store"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveMessage is pushed to open pages after every store change.
type liveMessage struct {
	Version uint64 `json:"version"`
	Status  string `json:"status"`
}

// Live upgrades the connection to a websocket and pushes the store version after every change,
// so open pages can reload themselves.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Only the latest state matters, older pending ones are dropped.
	updates := make(chan store.State, 1)
	unsubscribe := h.store.Subscribe(func(st store.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readLive(conn, closed)

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	if err := writeLive(conn, h.store.State()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st := <-updates:
			if err := writeLive(conn, st); err != nil {
				h.logger.DebugContext(r.Context(), "Live update write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLive drains the connection so control frames are processed, and closes done when the peer goes away.
func (h *Handler) readLive(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLive(conn *websocket.Conn, st store.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(liveMessage{Version: st.Version, Status: st.Status.String()})
}
