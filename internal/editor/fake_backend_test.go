package editor_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"blockpad/internal/domain"
	"blockpad/internal/editor"
)

var errBoom = errors.New("backend unavailable")

// memBackend is an in-memory domain.BlockStore that can be told to fail.
type memBackend struct {
	mu     sync.Mutex
	blocks map[string]domain.Block
	calls  []string
	fail   map[string]bool
	onList func()
}

func newMemBackend() *memBackend {
	return &memBackend{blocks: make(map[string]domain.Block), fail: make(map[string]bool)}
}

func (m *memBackend) setFail(op string, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = on
}

func (m *memBackend) record(call string) error {
	m.calls = append(m.calls, call)
	for _, op := range []string{call, "*"} {
		if m.fail[op] {
			return errBoom
		}
	}
	return nil
}

func (m *memBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *memBackend) Get(id string) (domain.Block, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	return b.Clone(), ok
}

func (m *memBackend) seed(blocks ...domain.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range blocks {
		m.blocks[b.ID] = b.Clone()
	}
}

func (m *memBackend) CreateBlock(_ context.Context, b *domain.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return err
	}
	if _, ok := m.blocks[b.ID]; ok {
		return errors.New("duplicate id")
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	m.blocks[b.ID] = b.Clone()
	return nil
}

// onNextList runs fn once, inside the next ListBlocks call and before the
// listing is taken.
func (m *memBackend) onNextList(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onList = fn
}

func (m *memBackend) ListBlocks(_ context.Context, pageID string) ([]domain.Block, error) {
	m.mu.Lock()
	hook := m.onList
	m.onList = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("list"); err != nil {
		return nil, err
	}
	var out []domain.Block
	for _, b := range m.blocks {
		if b.PageID == pageID {
			out = append(out, b.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memBackend) UpdateBlock(_ context.Context, id string, patch domain.BlockPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update"); err != nil {
		return err
	}
	b, ok := m.blocks[id]
	if !ok {
		return domain.NotFound("block", id)
	}
	if patch.Type != nil {
		b.Type = *patch.Type
	}
	if patch.Content != nil {
		b.Content = b.Content.Merge(*patch.Content)
	}
	if patch.Order != nil {
		b.Order = *patch.Order
	}
	b.UpdatedAt = time.Now()
	m.blocks[id] = b
	return nil
}

func (m *memBackend) DeleteBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete"); err != nil {
		return err
	}
	delete(m.blocks, id)
	return nil
}

func (m *memBackend) DeleteBlocksByPage(_ context.Context, pageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.blocks {
		if b.PageID == pageID {
			delete(m.blocks, id)
		}
	}
	return nil
}

// recordingEmitter collects events from the persister goroutine.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (r *recordingEmitter) Emit(_ context.Context, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recordingEmitter) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingEmitter) Count(event string) int {
	n := 0
	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}
	return n
}

// newPersister starts a persister against backend and stops it with the test.
func newPersister(t *testing.T, backend domain.BlockStore, emitter editor.EventEmitter) *editor.Persister {
	t.Helper()
	p := editor.NewPersister(backend, zerolog.Nop(), editor.WithEmitter(emitter), editor.WithOpTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	t.Cleanup(func() {
		closeCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = p.Close(closeCtx)
		cancel()
	})
	return p
}

func waitIdle(t *testing.T, p *editor.Persister) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.WaitIdle(ctx))
}

func orders(blocks []domain.Block) []float64 {
	out := make([]float64, len(blocks))
	for i, b := range blocks {
		out[i] = b.Order
	}
	return out
}

func blockIDs(blocks []domain.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}
