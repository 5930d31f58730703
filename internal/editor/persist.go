package editor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"blockpad/internal/domain"
)

const defaultOpTimeout = 10 * time.Second

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

type op struct {
	kind   opKind
	pageID string
	id     string
	rev    uint64
	block  domain.Block
	patch  domain.BlockPatch
	// full is set on updates that carry the whole block state.
	full bool
}

// DirtyState describes a block whose latest local state never reached the
// backend.
type DirtyState struct {
	PageID      string
	Rev         uint64
	NeedsCreate bool
	Deleted     bool
}

// StampFunc receives backend timestamps for a created block together with the
// revision the create was issued at.
type StampFunc func(id string, rev uint64, createdAt, updatedAt time.Time)

// ─────────────────────────────────────────────────────────────
// Persister: write-behind queue between the store and a backend
// ─────────────────────────────────────────────────────────────

// Persister applies block writes to a backend in the order they were
// queued, on a single worker goroutine. Callers never wait for the backend.
// Completions never write block state back; failures only mark the block
// dirty so a later flush can resend the local state.
type Persister struct {
	backend   domain.BlockStore
	log       zerolog.Logger
	emitter   EventEmitter
	opTimeout time.Duration

	mu      sync.Mutex
	queue   []op
	dirty   map[string]DirtyState
	stamp   StampFunc
	started bool
	closed  bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	pending pendingGuard
}

type PersisterOption func(*Persister)

// WithOpTimeout bounds each backend call.
func WithOpTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) {
		if d > 0 {
			p.opTimeout = d
		}
	}
}

func WithEmitter(e EventEmitter) PersisterOption {
	return func(p *Persister) {
		if e != nil {
			p.emitter = e
		}
	}
}

func NewPersister(backend domain.BlockStore, logger zerolog.Logger, opts ...PersisterOption) *Persister {
	p := &Persister{
		backend:   backend,
		log:       logger.With().Str("component", "persister").Logger(),
		emitter:   nopEmitter{},
		opTimeout: defaultOpTimeout,
		dirty:     make(map[string]DirtyState),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the worker. ctx is used for backend calls and event emission.
func (p *Persister) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()
	go p.run(ctx)
}

// SetStampFunc registers the receiver of create timestamps.
func (p *Persister) SetStampFunc(fn StampFunc) {
	p.mu.Lock()
	p.stamp = fn
	p.mu.Unlock()
}

func (p *Persister) Create(b domain.Block, rev uint64) {
	p.enqueue(op{kind: opCreate, pageID: b.PageID, id: b.ID, rev: rev, block: b.Clone()})
}

func (p *Persister) Update(pageID, id string, patch domain.BlockPatch, rev uint64) {
	if patch.IsEmpty() {
		return
	}
	p.enqueue(op{kind: opUpdate, pageID: pageID, id: id, rev: rev, patch: clonePatch(patch)})
}

// Resend queues the complete local state of b, as a create when the backend
// never saw the block and as a full update otherwise.
func (p *Persister) Resend(b domain.Block, rev uint64, create bool) {
	if create {
		p.Create(b, rev)
		return
	}
	c := b.Content.Clone()
	t, o := b.Type, b.Order
	p.enqueue(op{
		kind:   opUpdate,
		pageID: b.PageID,
		id:     b.ID,
		rev:    rev,
		patch:  domain.BlockPatch{Type: &t, Content: &c, Order: &o},
		full:   true,
	})
}

func (p *Persister) Delete(pageID, id string, rev uint64) {
	p.enqueue(op{kind: opDelete, pageID: pageID, id: id, rev: rev})
}

func (p *Persister) enqueue(o op) {
	p.mu.Lock()
	if p.closed {
		p.markDirtyLocked(o)
		p.mu.Unlock()
		p.log.Warn().Str("block", o.id).Str("op", o.kind.String()).Msg("persister closed, write kept as dirty")
		return
	}
	p.queue = append(p.queue, o)
	p.pending.Add()
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run(ctx context.Context) {
	defer close(p.stopped)
	for {
		select {
		case <-p.stop:
			p.drain(ctx)
			return
		case <-ctx.Done():
			p.abandon()
			return
		case <-p.wake:
			p.drain(ctx)
		}
	}
}

func (p *Persister) drain(ctx context.Context) {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		o := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.apply(ctx, o)
		p.pending.Done()
	}
}

// abandon marks everything still queued as dirty once the worker context is gone.
func (p *Persister) abandon() {
	p.mu.Lock()
	left := p.queue
	p.queue = nil
	for _, o := range left {
		p.markDirtyLocked(o)
	}
	p.mu.Unlock()
	for range left {
		p.pending.Done()
	}
}

func (p *Persister) apply(ctx context.Context, o op) {
	callCtx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()

	var err error
	switch o.kind {
	case opCreate:
		b := o.block
		err = p.backend.CreateBlock(callCtx, &b)
		if err == nil {
			p.mu.Lock()
			stamp := p.stamp
			p.mu.Unlock()
			if stamp != nil {
				stamp(b.ID, o.rev, b.CreatedAt, b.UpdatedAt)
			}
		}
	case opUpdate:
		err = p.backend.UpdateBlock(callCtx, o.id, o.patch)
	case opDelete:
		err = p.backend.DeleteBlock(callCtx, o.id)
	}

	if err != nil {
		perr := &domain.PersistenceError{Op: o.kind.String(), BlockID: o.id, Err: err}
		p.mu.Lock()
		p.markDirtyLocked(o)
		p.mu.Unlock()
		p.log.Error().Err(perr).Str("block", o.id).Str("page", o.pageID).Str("op", o.kind.String()).Msg("persist failed")
		p.emitter.Emit(ctx, EventPersistFailed, PersistFailure{
			BlockID: o.id,
			PageID:  o.pageID,
			Op:      o.kind.String(),
			Error:   err.Error(),
		})
		return
	}

	p.mu.Lock()
	cleared := p.clearDirtyLocked(o)
	p.mu.Unlock()
	if cleared {
		p.log.Info().Str("block", o.id).Str("op", o.kind.String()).Msg("dirty block persisted")
		p.emitter.Emit(ctx, EventPersisted, map[string]string{"blockId": o.id, "pageId": o.pageID})
	}
}

func (p *Persister) markDirtyLocked(o op) {
	d := p.dirty[o.id]
	d.PageID = o.pageID
	if o.rev > d.Rev {
		d.Rev = o.rev
	}
	switch o.kind {
	case opCreate:
		d.NeedsCreate = true
	case opDelete:
		d.Deleted = true
	}
	p.dirty[o.id] = d
}

// clearDirtyLocked drops the dirty mark when a successful write covers it.
// Partial updates never do, and nothing but a create covers a block whose
// create never landed.
func (p *Persister) clearDirtyLocked(o op) bool {
	d, ok := p.dirty[o.id]
	if !ok {
		return false
	}
	switch {
	case o.kind == opDelete:
	case o.kind == opUpdate && !o.full:
		return false
	case o.rev < d.Rev:
		return false
	case d.NeedsCreate && o.kind != opCreate:
		return false
	case d.Deleted:
		return false
	}
	delete(p.dirty, o.id)
	return true
}

// Dirty returns a snapshot of blocks waiting to be re-sent.
func (p *Persister) Dirty() map[string]DirtyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]DirtyState, len(p.dirty))
	for id, d := range p.dirty {
		out[id] = d
	}
	return out
}

// DirtyCount counts dirty blocks on pageID, or on every page when pageID is empty.
func (p *Persister) DirtyCount(pageID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, d := range p.dirty {
		if pageID == "" || d.PageID == pageID {
			n++
		}
	}
	return n
}

// Forget drops dirty marks for pageID and reports how many were dropped.
func (p *Persister) Forget(pageID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, d := range p.dirty {
		if d.PageID == pageID {
			delete(p.dirty, id)
			n++
		}
	}
	return n
}

func (p *Persister) forgetBlock(id string) {
	p.mu.Lock()
	delete(p.dirty, id)
	p.mu.Unlock()
}

// Pending reports writes queued or in flight.
func (p *Persister) Pending() int {
	return p.pending.Pending()
}

// WaitIdle blocks until the queue is empty and no write is in flight.
func (p *Persister) WaitIdle(ctx context.Context) error {
	return p.pending.WaitAll(ctx)
}

// Close stops accepting writes, drains the queue and stops the worker.
// Writes arriving after Close are kept as dirty.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	if !started {
		p.abandon()
		return nil
	}
	close(p.stop)
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clonePatch(patch domain.BlockPatch) domain.BlockPatch {
	out := domain.BlockPatch{}
	if patch.Type != nil {
		t := *patch.Type
		out.Type = &t
	}
	if patch.Order != nil {
		o := *patch.Order
		out.Order = &o
	}
	if patch.Content != nil {
		c := patch.Content.Clone()
		out.Content = &c
	}
	return out
}
