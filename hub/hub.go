// Package hub tracks connected display/admin channels and fans broadcast
// events out to all of them.
//
// Delivery philosophy follows the clip pipeline's real-time bias: drop,
// never queue. A channel whose outbound buffer is full loses the event;
// stale events are worth less than current ones to a live display.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kioskagent/config"
)

// InboundHandler receives every well-formed message read from a channel.
type InboundHandler func(ch *Channel, data []byte)

// ConnectHandler runs after a channel is registered, before its first read.
type ConnectHandler func(ch *Channel)

// Channel is one connected websocket peer.
type Channel struct {
	ID   string
	Role string

	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub owns the channel set. No per-channel session state is kept beyond
// membership itself.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel

	handler   InboundHandler
	onConnect ConnectHandler

	dropped atomic.Uint64
}

// New creates an empty hub.
func New(handler InboundHandler, onConnect ConnectHandler) *Hub {
	return &Hub{
		channels:  make(map[string]*Channel),
		handler:   handler,
		onConnect: onConnect,
	}
}

// Attach registers a websocket connection as a channel and starts its
// read/write pumps. The returned channel is owned by the hub.
func (h *Hub) Attach(conn *websocket.Conn, role string) *Channel {
	ch := &Channel{
		ID:   uuid.NewString(),
		Role: role,
		conn: conn,
		send: make(chan []byte, config.SendBufferSize),
	}

	h.mu.Lock()
	h.channels[ch.ID] = ch
	count := len(h.channels)
	h.mu.Unlock()

	log.Printf("🔌 Channel connected: id=%s role=%s (%d open)", ch.ID, role, count)

	go h.writePump(ch)
	if h.onConnect != nil {
		h.onConnect(ch)
	}
	go h.readPump(ch)

	return ch
}

// Count returns the number of open channels.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Dropped returns the number of events dropped due to full channel buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Broadcast serializes event once and writes it to every open channel.
// Channels that cannot keep up are skipped, never waited on.
func (h *Hub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  Broadcast marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.channels {
		select {
		case ch.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Send unicasts event to a single channel.
func (h *Hub) Send(ch *Channel, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  Send marshal failed: %v", err)
		return
	}

	select {
	case ch.send <- data:
	default:
		h.dropped.Add(1)
	}
}

// detach removes a channel from the set and releases its connection.
func (h *Hub) detach(ch *Channel) {
	h.mu.Lock()
	_, present := h.channels[ch.ID]
	delete(h.channels, ch.ID)
	count := len(h.channels)
	h.mu.Unlock()

	if present {
		log.Printf("🔌 Channel disconnected: id=%s (%d open)", ch.ID, count)
	}

	ch.once.Do(func() {
		close(ch.send)
		ch.conn.Close()
	})
}

// readPump delivers inbound messages to the handler. Messages that are not
// valid JSON are dropped with a warning; the channel stays open.
func (h *Hub) readPump(ch *Channel) {
	defer h.detach(ch)

	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			return
		}
		if !json.Valid(data) {
			log.Printf("⚠️  Dropping unparseable message from channel %s", ch.ID)
			continue
		}
		if h.handler != nil {
			h.handler(ch, data)
		}
	}
}

// writePump drains the outbound queue onto the wire. A write error detaches
// the channel immediately rather than leaving it to linger until the read
// side also fails.
func (h *Hub) writePump(ch *Channel) {
	for data := range ch.send {
		ch.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
		if err := ch.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.detach(ch)
			return
		}
	}
}
