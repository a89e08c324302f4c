package publisher

import (
	"net/http"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	xlogger "MacroPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 8
)

// Wire events pushed to subscribers.
const (
	eventInitialSnapshot = "initial-snapshot"
	eventSnapshotUpdated = "snapshot-updated"
)

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans refresh notices out to WebSocket subscribers. A new subscriber
// receives the current snapshot first so it can render without a REST call.
type Hub struct {
	store   drepo.SnapshotStore
	metrics drepo.Metrics
	logger  *xlogger.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

func NewHub(store drepo.SnapshotStore, metrics drepo.Metrics, logger *xlogger.Logger) *Hub {
	return &Hub{
		store:   store,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

var _ drepo.Broadcaster = (*Hub)(nil)

// ServeWS upgrades the connection and subscribes it to refresh notices.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan envelope, sendBuffer)}
	if snap, ok := h.store.Current(); ok {
		cl.send <- envelope{Event: eventInitialSnapshot, Data: snap}
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetSubscribers(n)
	h.logger.Debug("subscriber connected", xlogger.Int("subscribers", n))

	go cl.writePump()
	go h.readPump(cl)
	return nil
}

// Broadcast pushes a notice to every subscriber. A subscriber whose buffer is
// full is dropped rather than allowed to stall the refresh path.
func (h *Hub) Broadcast(n *models.UpdateNotice) {
	e := envelope{Event: eventSnapshotUpdated, Data: n}

	h.mu.Lock()
	for cl := range h.clients {
		select {
		case cl.send <- e:
		default:
			delete(h.clients, cl)
			close(cl.send)
			h.logger.Warn("dropping slow subscriber")
		}
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetSubscribers(count)
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetSubscribers(n)
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Subscribers never send application data; reads only detect closes.
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case e, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
