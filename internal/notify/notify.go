// Package notify carries ingestion and settings events from the background
// pipeline to whoever presents them. Subscribers get their own buffered
// channel; a subscriber that stops draining loses events rather than
// blocking the pipeline.
package notify

import (
	"sync"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type EventKind string

const (
	EventNewRun  EventKind = "new_run"
	EventError   EventKind = "error"
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
)

type Event struct {
	Kind    EventKind         `json:"kind"`
	Message string            `json:"message"`
	Data    string            `json:"data,omitempty"`
	Run     *domain.ParsedRun `json:"run,omitempty"`
}

const subscriberBuffer = 16

type Bus struct {
	logger zerolog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   map[chan Event]struct{}{},
	}
}

// Subscribe registers a new listener. The returned cancel func must be
// called when the listener goes away.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans the event out to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.logger.Debug().Str("kind", string(event.Kind)).Str("message", event.Message).Msg("publishing event")

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn().Str("kind", string(event.Kind)).Msg("dropping event for slow subscriber")
		}
	}
}

func (b *Bus) NewRun(run *domain.ParsedRun) {
	b.Publish(Event{Kind: EventNewRun, Message: "New run was found", Run: run})
}

func (b *Bus) Error(message, detail string) {
	b.Publish(Event{Kind: EventError, Message: message, Data: detail})
}

func (b *Bus) Info(message, detail string) {
	b.Publish(Event{Kind: EventInfo, Message: message, Data: detail})
}

func (b *Bus) Warning(message, detail string) {
	b.Publish(Event{Kind: EventWarning, Message: message, Data: detail})
}
