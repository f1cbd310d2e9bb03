package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/services"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents one websocket subscriber to an estimate's countdown
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	estimateID string
}

// TickMessage is the JSON frame pushed on every countdown tick
type TickMessage struct {
	EstimateID string                   `json:"estimate_id"`
	Remaining  domain.RemainingDuration `json:"remaining"`
}

// Hub maintains the active countdown subscribers. Each estimate with at
// least one subscriber owns a single CountdownClock ticking at 1 Hz; its
// snapshots fan out to every subscriber of that estimate. The clock is
// stopped when the last subscriber leaves or when the estimate is reset, so
// no tick ever runs against a discarded target.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]bool
	clocks      map[string]*services.CountdownClock

	// onDisconnect fires once per removed subscriber; nil when unset
	onDisconnect func()
}

// NewHub creates an empty countdown hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]bool),
		clocks:      make(map[string]*services.CountdownClock),
	}
}

// OnDisconnect registers a callback invoked once per removed subscriber,
// whether the client hung up or the estimate was reset. Set before serving.
func (h *Hub) OnDisconnect(f func()) {
	h.onDisconnect = f
}

// Subscribe upgrades the HTTP connection and registers it as a subscriber to
// the estimate's countdown. The first subscriber transitions the estimate's
// clock from Idle to Running against the fixed target date.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, estimateID string, target time.Time) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		estimateID: estimateID,
	}

	h.mu.Lock()
	if h.subscribers[estimateID] == nil {
		h.subscribers[estimateID] = make(map[*Client]bool)
	}
	h.subscribers[estimateID][client] = true

	clock, ok := h.clocks[estimateID]
	if !ok {
		clock = services.NewCountdownClock()
		h.clocks[estimateID] = clock
		clock.Start(target, func(remaining domain.RemainingDuration) {
			h.broadcast(estimateID, remaining)
		})
		log.Printf("Countdown started for estimate %s", estimateID)
	}
	// Immediate snapshot so the client is not idle until the first tick.
	// Enqueued while still holding the lock: send channels are only closed
	// under the lock by unregister/StopEstimate, so a send never races a
	// close on a client that has already been torn down.
	client.queueTick(clock.Snapshot())
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	return client, nil
}

// broadcast fans a tick out to every subscriber of the estimate
func (h *Hub) broadcast(estimateID string, remaining domain.RemainingDuration) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.subscribers[estimateID] {
		client.queueTick(remaining)
	}
}

// queueTick marshals and enqueues a tick frame, dropping it when the client
// cannot keep up (the next tick supersedes it anyway)
func (c *Client) queueTick(remaining domain.RemainingDuration) {
	msg, err := json.Marshal(TickMessage{EstimateID: c.estimateID, Remaining: remaining})
	if err != nil {
		log.Printf("Failed to marshal tick message: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// unregister removes a client; the last subscriber stops the clock
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	clients, ok := h.subscribers[client.estimateID]
	var clock *services.CountdownClock
	removed := false
	if ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.subscribers, client.estimateID)
			clock = h.clocks[client.estimateID]
			delete(h.clocks, client.estimateID)
		}
	}
	h.mu.Unlock()

	if removed && h.onDisconnect != nil {
		h.onDisconnect()
	}
	if clock != nil {
		clock.Reset()
		log.Printf("Countdown stopped for estimate %s (no subscribers)", client.estimateID)
	}
}

// StopEstimate tears down the estimate's countdown on reset: the clock is
// cancelled deterministically and every subscriber's connection is closed
func (h *Hub) StopEstimate(estimateID string) {
	h.mu.Lock()
	clients := h.subscribers[estimateID]
	clock := h.clocks[estimateID]
	delete(h.subscribers, estimateID)
	delete(h.clocks, estimateID)
	for client := range clients {
		close(client.send)
	}
	h.mu.Unlock()

	if h.onDisconnect != nil {
		for range clients {
			h.onDisconnect()
		}
	}
	if clock != nil {
		clock.Reset()
		log.Printf("Countdown stopped for estimate %s (reset)", estimateID)
	}
}

// SubscriberCount returns the number of live subscribers for an estimate
func (h *Hub) SubscriberCount(estimateID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[estimateID])
}

// readPump drains the websocket connection until it closes
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps tick frames from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
