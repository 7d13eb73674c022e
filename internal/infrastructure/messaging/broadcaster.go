// Package messaging provides the live event feed for admin dashboards.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

// Event names pushed to connected dashboards.
const (
	EventVisitorRegistered = "visitorRegistered"
	EventVisitorDecision   = "visitorDecision"
)

// envelope is the wire format for a single feed message.
type envelope struct {
	Event string           `json:"event"`
	Data  *visitor.Request `json:"data"`
}

// Broadcaster fans visitor lifecycle events out to subscribed clients.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	logger  *logging.ChanneledLogger
}

// NewBroadcaster creates an event broadcaster.
func NewBroadcaster(logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
}

// Subscribe registers a new feed client and returns its delivery channel.
func (b *Broadcaster) Subscribe() chan []byte {
	ch := make(chan []byte, 16)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	count := len(b.clients)
	b.mu.Unlock()

	b.logger.Live().Debug("Feed client subscribed", "clients", count)
	return ch
}

// Unsubscribe removes a feed client and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
	count := len(b.clients)
	b.mu.Unlock()

	b.logger.Live().Debug("Feed client unsubscribed", "clients", count)
}

// Publish sends an event to every subscribed client. Slow clients have their
// message dropped rather than blocking the publisher.
func (b *Broadcaster) Publish(event string, req *visitor.Request) {
	payload, err := json.Marshal(envelope{Event: event, Data: req})
	if err != nil {
		b.logger.Live().Error("Failed to marshal feed event", "event", event, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			b.logger.Live().Warn("Dropping feed event for slow client", "event", event)
		}
	}
}

// ClientCount returns the number of connected feed clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
