package api

import (
	"sync"
)

// EventType represents the type of event being broadcast.
type EventType string

const (
	// EventTypeProperty is emitted when an algebraic property check completes.
	EventTypeProperty EventType = "property"
	// EventTypeScenario is emitted when a concrete scenario check completes.
	EventTypeScenario EventType = "scenario"
	// EventTypeTiming is emitted when a timing-variance check completes.
	EventTypeTiming EventType = "timing"
	// EventTypeDone is emitted once a run's report has been finalized.
	EventTypeDone EventType = "done"
)

// BroadcastEvent represents a broadcast event sent to WebSocket clients.
type BroadcastEvent struct {
	Type  EventType              `json:"type"`
	RunID string                 `json:"runId"`
	Data  map[string]interface{} `json:"data"`
}

// Subscription represents a client's subscription to events.
type Subscription struct {
	RunID      string
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster manages event distribution to multiple WebSocket clients.
// It uses a fan-out pattern where events are broadcast to all subscribed clients.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}

	go b.run()
	return b
}

// run is the main event loop for the broadcaster.
func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.RunID != "" && sub.RunID != event.RunID {
					continue
				}
				if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
					continue
				}

				select {
				case sub.Channel <- event:
				default:
					// Client is too slow, skip this event.
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe creates a new subscription for events. runID filters events
// to a specific run (empty string = all runs); eventTypes filters by
// type (empty = all types).
func (b *Broadcaster) Subscribe(runID string, eventTypes []EventType) *Subscription {
	eventTypeMap := make(map[EventType]bool)
	for _, et := range eventTypes {
		eventTypeMap[et] = true
	}

	sub := &Subscription{
		RunID:      runID,
		EventTypes: eventTypeMap,
		Channel:    make(chan BroadcastEvent, 64),
	}

	b.register <- sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast sends an event to all matching subscriptions.
func (b *Broadcaster) Broadcast(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
		// Broadcast channel is full, drop event.
	}
}

// BroadcastProperty sends a property-check-completed event.
func (b *Broadcaster) BroadcastProperty(runID string, name string, passed bool, detail string) {
	b.Broadcast(BroadcastEvent{
		Type:  EventTypeProperty,
		RunID: runID,
		Data: map[string]interface{}{
			"name":   name,
			"passed": passed,
			"detail": detail,
		},
	})
}

// BroadcastScenario sends a scenario-check-completed event.
func (b *Broadcaster) BroadcastScenario(runID string, name string, passed bool, detail string) {
	b.Broadcast(BroadcastEvent{
		Type:  EventTypeScenario,
		RunID: runID,
		Data: map[string]interface{}{
			"name":   name,
			"passed": passed,
			"detail": detail,
		},
	})
}

// BroadcastDone sends a run-finished event.
func (b *Broadcaster) BroadcastDone(runID string, passed bool, failureCount int) {
	b.Broadcast(BroadcastEvent{
		Type:  EventTypeDone,
		RunID: runID,
		Data: map[string]interface{}{
			"passed":       passed,
			"failureCount": failureCount,
		},
	})
}

// Close shuts down the broadcaster and closes all subscriptions.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
