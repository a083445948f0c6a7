package telemetry

import (
	"sync"
	"time"

	"github.com/open-teleop/rovpilot/pkg/log"
)

// StatusTopic is the ZeroMQ topic snapshots are published on.
const StatusTopic = "rov.status"

// MsgTypeStatus tags published snapshots.
const MsgTypeStatus = "STATUS"

// Publisher is the outbound side of the ZeroMQ service.
type Publisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// Hub keeps the latest snapshot and forwards it, rate limited, to
// subscribers and an optional publisher. Render never blocks: a subscriber
// that is not keeping up misses snapshots.
type Hub struct {
	interval  time.Duration
	publisher Publisher
	logger    log.Logger

	mu          sync.Mutex
	latest      Snapshot
	lastFanout  time.Time
	subscribers map[int]chan Snapshot
	nextID      int
	publishErrs int
}

// NewHub creates a hub fanning out at most once per interval. publisher may
// be nil.
func NewHub(interval time.Duration, publisher Publisher, logger log.Logger) *Hub {
	return &Hub{
		interval:    interval,
		publisher:   publisher,
		logger:      logger,
		subscribers: make(map[int]chan Snapshot),
	}
}

// Render stores s and forwards it when the fan-out interval has elapsed.
func (h *Hub) Render(s Snapshot) {
	h.mu.Lock()
	h.latest = s
	if !h.lastFanout.IsZero() && s.Time.Sub(h.lastFanout) < h.interval {
		h.mu.Unlock()
		return
	}
	h.lastFanout = s.Time
	for _, ch := range h.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
	publisher := h.publisher
	h.mu.Unlock()

	if publisher == nil {
		return
	}
	if err := publisher.PublishJSON(StatusTopic, MsgTypeStatus, s); err != nil {
		h.mu.Lock()
		h.publishErrs++
		first := h.publishErrs == 1
		h.mu.Unlock()
		if first {
			h.logger.Warnf("Failed to publish status: %v", err)
		}
	}
}

// Latest returns the most recent snapshot.
func (h *Hub) Latest() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribe registers a receiver of rate-limited snapshots. Call the
// returned function to unsubscribe; it closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Snapshot, buffer)
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
