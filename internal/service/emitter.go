package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from the agent transport
// ─────────────────────────────────────────────────────────────

// EventEmitter delivers editor and service events to whoever is listening.
// The MCP server implements it by sending notifications; editor.EventEmitter
// has the same method set.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the log at debug level.
type LogEmitter struct {
	Log zerolog.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Log.Debug().Str("event", event).Interface("data", data).Msg("event")
}

// FanOut forwards each event to every emitter in order. Nil entries are skipped.
type FanOut []EventEmitter

func (f FanOut) Emit(ctx context.Context, event string, data any) {
	for _, e := range f {
		if e != nil {
			e.Emit(ctx, event, data)
		}
	}
}

// Broadcaster forwards events to emitters attached after it was handed out,
// so the editor can be built before the MCP server that listens to it.
type Broadcaster struct {
	mu    sync.RWMutex
	sinks []EventEmitter
}

func (b *Broadcaster) Attach(e EventEmitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, e)
}

func (b *Broadcaster) Emit(ctx context.Context, event string, data any) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	FanOut(sinks).Emit(ctx, event, data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// It is safe to use from the persister goroutine.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
