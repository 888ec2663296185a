package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// DefaultMaxEvents is the history size used when none is configured
const DefaultMaxEvents = 1000

// Hub keeps a bounded history of analysis events and fans them out to live
// subscribers
type Hub struct {
	mu          sync.RWMutex
	events      []*models.Event
	maxEvents   int
	subscribers map[string]chan *models.Event
}

// NewHub creates a new event hub
func NewHub(maxEvents int) *Hub {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}

	return &Hub{
		events:      make([]*models.Event, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.Event),
	}
}

// Publish records an event and notifies subscribers
func (h *Hub) Publish(event *models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.events = append(h.events, event)
	if len(h.events) > h.maxEvents {
		h.events = h.events[len(h.events)-h.maxEvents:]
	}

	// Sends happen under the lock so Unsubscribe cannot close a channel
	// mid-send. Slow subscribers miss events rather than block publishers.
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Events returns events matching the filter, newest first
func (h *Hub) Events(filter *models.EventFilter) []*models.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]*models.Event, 0)

	for i := len(h.events) - 1; i >= 0; i-- {
		event := h.events[i]

		if filter != nil {
			if filter.Type != "" && event.Type != filter.Type {
				continue
			}
			if filter.AnalysisID != "" && event.AnalysisID != filter.AnalysisID {
				continue
			}
			if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
				continue
			}
		}

		result = append(result, event)

		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

// Clear removes all events
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = make([]*models.Event, 0)
}

// Subscribe creates a subscription for live events
func (h *Hub) Subscribe() (string, chan *models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Event, 100)
	h.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Stats returns hub statistics
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]any{
		"totalEvents":       len(h.events),
		"maxEvents":         h.maxEvents,
		"activeSubscribers": len(h.subscribers),
	}
}
