package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FansOutToAllSubscribers(t *testing.T) {
	d := NewDispatcher(8)

	var mu sync.Mutex
	var first, second []EventType
	d.Subscribe(func(evt Event) {
		mu.Lock()
		first = append(first, evt.Type)
		mu.Unlock()
	})
	d.Subscribe(func(evt Event) {
		mu.Lock()
		second = append(second, evt.Type)
		mu.Unlock()
	})
	d.Start()

	d.Publish(Event{Type: LockerClaimed, LockerID: "LK-001"})
	d.Publish(Event{Type: RentalCompleted, RentalID: "r-1"})
	d.Close()

	assert.Equal(t, []EventType{LockerClaimed, RentalCompleted}, first)
	assert.Equal(t, first, second)
}

func TestDispatcher_PublishNeverBlocksWhenFull(t *testing.T) {
	d := NewDispatcher(1)
	// No Start: the buffer fills and stays full.
	d.Publish(Event{Type: LockerClaimed})

	done := make(chan struct{})
	go func() {
		d.Publish(Event{Type: LockerReleased}) // dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestDispatcher_StampsOccurredAt(t *testing.T) {
	d := NewDispatcher(8)
	var got Event
	var wg sync.WaitGroup
	wg.Add(1)
	d.Subscribe(func(evt Event) {
		got = evt
		wg.Done()
	})
	d.Start()

	d.Publish(Event{Type: ReservationConfirmed})
	wg.Wait()
	d.Close()

	require.False(t, got.OccurredAt.IsZero())
}

func TestDispatcher_CloseDrainsBufferedEvents(t *testing.T) {
	d := NewDispatcher(16)
	var mu sync.Mutex
	count := 0
	d.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		d.Publish(Event{Type: LockerClaimed})
	}
	d.Start()
	d.Close()

	assert.Equal(t, 10, count)
}
