// Package events carries lifecycle notifications to the display/notification
// layer. Publishing is fire-and-forget: a slow or absent consumer must never
// block or fail a lifecycle transition.
package events

import (
	"sync"
	"time"

	"lockerhub-backend/internal/logger"
)

type EventType string

const (
	LockerClaimed        EventType = "LOCKER_CLAIMED"
	LockerReleased       EventType = "LOCKER_RELEASED"
	RentalCompleted      EventType = "RENTAL_COMPLETED"
	ReservationConfirmed EventType = "RESERVATION_CONFIRMED"
)

type Event struct {
	Type          EventType `json:"type"`
	LockerID      string    `json:"locker_id,omitempty"`
	LocationID    string    `json:"location_id,omitempty"`
	RentalID      string    `json:"rental_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Subscriber func(Event)

// Dispatcher fans events out to subscribers from a single goroutine.
// Publish never blocks: when the buffer is full the event is dropped with
// a warning, since consumers refresh from authoritative state anyway.
type Dispatcher struct {
	ch   chan Event
	subs []Subscriber
	mu   sync.RWMutex
	done chan struct{}
}

func NewDispatcher(bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Dispatcher{
		ch:   make(chan Event, bufferSize),
		done: make(chan struct{}),
	}
}

// Subscribe registers a consumer. Safe to call before or after Start.
func (d *Dispatcher) Subscribe(fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// Publish enqueues an event without blocking.
func (d *Dispatcher) Publish(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	select {
	case d.ch <- evt:
	default:
		logger.Warn("Event buffer full, dropping event", "type", evt.Type)
	}
}

// Start launches the fan-out loop.
func (d *Dispatcher) Start() {
	go func() {
		for evt := range d.ch {
			d.mu.RLock()
			subs := d.subs
			d.mu.RUnlock()
			for _, fn := range subs {
				fn(evt)
			}
		}
		close(d.done)
	}()
}

// Close stops the loop after draining buffered events.
func (d *Dispatcher) Close() {
	close(d.ch)
	<-d.done
}

// LoggingSubscriber writes every event to the application log. Attached by
// default so lifecycle activity is visible without any external consumer.
func LoggingSubscriber(evt Event) {
	logger.Info("Lifecycle event",
		"type", evt.Type,
		"locker_id", evt.LockerID,
		"location_id", evt.LocationID,
		"rental_id", evt.RentalID,
		"reservation_id", evt.ReservationID,
	)
}
