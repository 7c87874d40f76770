package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Outbound messages buffered per client before it is dropped
	sendBuffer = 256
)

// Progress event types
const (
	EventRunStarted  = "run_started"
	EventTaskDone    = "task_done"
	EventRunFinished = "run_finished"
)

// ProgressEvent is one message on /ws/progress
type ProgressEvent struct {
	Type     string    `json:"type"`
	RunID    string    `json:"run_id"`
	Time     time.Time `json:"time"`
	Tickers  []string  `json:"tickers,omitempty"`
	Ticker   string    `json:"ticker,omitempty"`
	Decision string    `json:"decision,omitempty"`
	Coverage *float64  `json:"coverage,omitempty"`
	CacheHit bool      `json:"cache_hit,omitempty"`
	Done     int       `json:"done,omitempty"`
	Total    int       `json:"total,omitempty"`
	Kept     int       `json:"kept,omitempty"`
	Rows     int       `json:"rows,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ProgressHub streams batch progress to websocket clients
// It implements batch.Observer.
type ProgressHub struct {
	upgrader websocket.Upgrader
	clients  map[*wsClient]struct{}
	mu       sync.Mutex
	logger   *logger.Logger
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewProgressHub creates an empty hub
func NewProgressHub(log *logger.Logger) *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		logger:  log.WithModule("progress"),
	}
}

// ServeWS upgrades the request and subscribes the connection
// GET /ws/progress
func (h *ProgressHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"client_id": client.id,
		"remote":    r.RemoteAddr,
	}).Debug("Progress client connected")

	go h.writePump(client)
	go h.readPump(client)
}

// ClientCount returns the number of subscribed connections
func (h *ProgressHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RunStarted implements batch.Observer
func (h *ProgressHub) RunStarted(runID string, tickers []string) {
	h.broadcast(ProgressEvent{
		Type:    EventRunStarted,
		RunID:   runID,
		Tickers: tickers,
		Total:   len(tickers),
	})
}

// TaskDone implements batch.Observer
func (h *ProgressHub) TaskDone(runID string, ev batch.TaskEvent) {
	rec := ev.Record
	coverage := rec.Coverage
	h.broadcast(ProgressEvent{
		Type:     EventTaskDone,
		RunID:    runID,
		Ticker:   rec.Ticker,
		Decision: string(rec.Decision),
		Coverage: &coverage,
		CacheHit: ev.CacheHit,
		Done:     ev.Done,
		Total:    ev.Total,
		Error:    rec.Error,
	})
}

// RunFinished implements batch.Observer
func (h *ProgressHub) RunFinished(runID string, res *contracts.Result, err error) {
	ev := ProgressEvent{Type: EventRunFinished, RunID: runID}
	if res != nil {
		ev.Total = len(res.Control)
		ev.Kept = len(res.KeptTickers())
		ev.Rows = len(res.Panel)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	h.broadcast(ev)
}

// broadcast never blocks the batch run; clients that fall behind are dropped
func (h *ProgressHub) broadcast(ev ProgressEvent) {
	ev.Time = time.Now().UTC()
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode progress event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.WithField("client_id", client.id).Warn("Progress client too slow, dropping")
			delete(h.clients, client)
			client.close()
		}
	}
}

func (h *ProgressHub) unregister(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	h.mu.Unlock()
}

// readPump discards inbound messages and notices disconnects
func (h *ProgressHub) readPump(client *wsClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
		h.logger.WithField("client_id", client.id).Debug("Progress client disconnected")
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
