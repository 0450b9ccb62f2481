package tasks

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is anything published on an EventBus
type Event interface {
	EventName() string
}

// ScanResultsUpdated is published after a scan pass changed the snapshot's filters
type ScanResultsUpdated struct {
	PassID      ulid.ULID
	ResultCount uint64
	Time        time.Time
}

func (ScanResultsUpdated) EventName() string { return "scan_results_updated" }

// EventBus carries domain events to any number of observers
type EventBus struct {
	broadcaster *Broadcaster[Event]
}

func NewEventBus() *EventBus {
	return &EventBus{broadcaster: NewBroadcaster[Event]()}
}

func (b *EventBus) Subscribe() (<-chan Event, func()) {
	return b.broadcaster.Subscribe()
}

func (b *EventBus) Publish(e Event) {
	b.broadcaster.Publish(e)
}

func (b *EventBus) Close() {
	b.broadcaster.Close()
}
