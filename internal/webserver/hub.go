package webserver

import (
	"sync"
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"golang.org/x/net/websocket"
)

// outboxSize is the number of events buffered per subscriber. Events
// published to a full outbox are dropped for that subscriber.
const outboxSize = 32

// writeTimeout bounds a single push to a subscriber.
var writeTimeout = 5 * time.Second

type subscriber struct {
	conn   *websocket.Conn
	outbox chan common.StatusEvent
	done   chan struct{}
}

// Hub fans status events out to the connected /status websockets.
// Publish may be called from any goroutine and never waits on the network.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*websocket.Conn]*subscriber
	last    *common.StatusEvent
	dropped int
	log     logger.Logger
}

// NewHub creates an empty hub.
func NewHub(l logger.Logger) *Hub {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Hub{
		subs: make(map[*websocket.Conn]*subscriber),
		log:  l,
	}
}

// Register adds a subscriber and queues the latest event, if any, for it.
func (h *Hub) Register(conn *websocket.Conn) {
	s := &subscriber{
		conn:   conn,
		outbox: make(chan common.StatusEvent, outboxSize),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[conn] = s
	if h.last != nil {
		s.outbox <- *h.last
	}
	h.mu.Unlock()
	go h.write(s)
}

// write pushes queued events to one subscriber. A failed or timed out
// push closes the connection, which ends the reader in handleStatus.
func (h *Hub) write(s *subscriber) {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := websocket.JSON.Send(s.conn, ev); err != nil {
				h.log.Warning("status push failed: %v", err)
				h.Unregister(s.conn)
				s.conn.Close()
				return
			}
		}
	}
}

// Unregister removes a subscriber and stops its writer.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[conn]; ok {
		close(s.done)
		delete(h.subs, conn)
	}
}

// Publish queues ev for every subscriber.
func (h *Hub) Publish(ev common.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for _, s := range h.subs {
		select {
		case s.outbox <- ev:
		default:
			h.dropped++
			h.log.Debug("status subscriber lagging, dropped %s event", ev.Type)
		}
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the number of events dropped for lagging subscribers.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
