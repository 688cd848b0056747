package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventKind names the wire event types emitted throughout a session (spec
// §4.I step 4: "progress.step_started, progress.step_completed|failed,
// action.applied or action.failed").
type EventKind string

const (
	EventProgressStepStarted   EventKind = "progress.step_started"
	EventProgressStepCompleted EventKind = "progress.step_completed"
	EventProgressStepFailed    EventKind = "progress.step_failed"
	EventActionApplied         EventKind = "action.applied"
	EventActionFailed          EventKind = "action.failed"
)

// Event is one fan-out message. Timestamp uses a monotonic source so
// per-step ordering within the log is preserved even under clock skew
// (spec §5 "Events are timestamped with a monotonic source").
type Event struct {
	Kind      EventKind
	Timestamp time.Time
	Sequence  uint64
	Payload   map[string]interface{}
}

// subscriber is one bounded fan-out target: a buffered channel plus a
// dropped-event counter surfaced at session close (spec §4.H "a bounded
// buffer per subscriber, oldest-dropped with a dropped counter").
type subscriber struct {
	name    string
	ch      chan Event
	dropped atomic.Uint64
}

// EventBus fans out Events to every registered subscriber synchronously
// but non-blockingly: a full subscriber channel drops its oldest buffered
// event rather than stalling the publisher (spec §4.H "one slow
// subscriber must not block others").
type EventBus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	seq         atomic.Uint64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus { return &EventBus{} }

// Subscribe registers a new bounded subscriber with the given buffer
// size, returning a receive-only channel of events.
func (b *EventBus) Subscribe(name string, bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &subscriber{name: name, ch: make(chan Event, bufferSize)}
	b.subscribers = append(b.subscribers, s)
	return s.ch
}

// Publish delivers ev to every subscriber. A full subscriber buffer has
// its oldest event dropped to make room, and the subscriber's dropped
// counter is incremented (never blocks the publisher).
func (b *EventBus) Publish(ev Event) {
	ev.Sequence = b.seq.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		for {
			select {
			case s.ch <- ev:
			default:
				select {
				case <-s.ch:
					s.dropped.Add(1)
					continue
				default:
				}
			}
			break
		}
	}
}

// DroppedCounts returns the per-subscriber dropped-event counts for the
// session outcome document.
func (b *EventBus) DroppedCounts() map[string]uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]uint64, len(b.subscribers))
	for _, s := range b.subscribers {
		out[s.name] = s.dropped.Load()
	}
	return out
}

// ProgressEmitter, FanoutEmitter, and SessionEmitter are typed wrappers
// over one EventBus (spec §4.H "typed emitters"), each scoping which
// event kinds it is allowed to publish so the executor and session layers
// cannot accidentally emit each other's event kinds.
type ProgressEmitter struct{ bus *EventBus }
type FanoutEmitter struct{ bus *EventBus }
type SessionEmitter struct{ bus *EventBus }

func NewProgressEmitter(bus *EventBus) ProgressEmitter { return ProgressEmitter{bus} }
func NewFanoutEmitter(bus *EventBus) FanoutEmitter     { return FanoutEmitter{bus} }
func NewSessionEmitter(bus *EventBus) SessionEmitter   { return SessionEmitter{bus} }

func (p ProgressEmitter) StepStarted(payload map[string]interface{}) {
	p.bus.Publish(Event{Kind: EventProgressStepStarted, Timestamp: time.Now(), Payload: payload})
}

func (p ProgressEmitter) StepCompleted(payload map[string]interface{}) {
	p.bus.Publish(Event{Kind: EventProgressStepCompleted, Timestamp: time.Now(), Payload: payload})
}

func (p ProgressEmitter) StepFailed(payload map[string]interface{}) {
	p.bus.Publish(Event{Kind: EventProgressStepFailed, Timestamp: time.Now(), Payload: payload})
}

func (f FanoutEmitter) ActionApplied(payload map[string]interface{}) {
	f.bus.Publish(Event{Kind: EventActionApplied, Timestamp: time.Now(), Payload: payload})
}

func (f FanoutEmitter) ActionFailed(payload map[string]interface{}) {
	f.bus.Publish(Event{Kind: EventActionFailed, Timestamp: time.Now(), Payload: payload})
}

func (s SessionEmitter) Publish(ev Event) { s.bus.Publish(ev) }
