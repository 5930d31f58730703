package editor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"blockpad/internal/domain"
	"blockpad/internal/schema"
)

// ─────────────────────────────────────────────────────────────
// Store: ordered in-memory blocks of one page
// ─────────────────────────────────────────────────────────────

// Store owns the authoritative block order of one page. Every mutation is
// applied locally first and then handed to the Persister; the local result
// is never rolled back. Operations on unknown ids are no-ops.
type Store struct {
	pageID    string
	persister *Persister
	log       zerolog.Logger

	mu     sync.Mutex
	blocks []domain.Block
	revs   map[string]uint64
	edits  uint64
}

func NewStore(pageID string, persister *Persister, logger zerolog.Logger) *Store {
	s := &Store{
		pageID:    pageID,
		persister: persister,
		log:       logger.With().Str("component", "store").Str("page", pageID).Logger(),
		revs:      make(map[string]uint64),
	}
	persister.SetStampFunc(s.stamp)
	return s
}

func (s *Store) PageID() string { return s.pageID }

// Load replaces the local blocks with a backend listing.
func (s *Store) Load(blocks []domain.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(blocks)
}

// LoadIfUnchanged is Load guarded by an Edits value read before the listing
// was fetched. It leaves the store alone and returns false when any mutation
// happened in between.
func (s *Store) LoadIfUnchanged(blocks []domain.Block, edits uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edits != edits {
		return false
	}
	s.loadLocked(blocks)
	return true
}

// Edits counts local mutations over the life of the store.
func (s *Store) Edits() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits
}

func (s *Store) loadLocked(blocks []domain.Block) {
	s.blocks = make([]domain.Block, 0, len(blocks))
	s.revs = make(map[string]uint64, len(blocks))
	for _, b := range blocks {
		if b.PageID != s.pageID {
			continue
		}
		s.blocks = append(s.blocks, b.Clone())
	}
	s.sortLocked()
}

// List returns the blocks sorted by order.
func (s *Store) List() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Block, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.Clone()
	}
	return out
}

func (s *Store) Get(id string) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.Block{}, false
	}
	return s.blocks[i].Clone(), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// Create appends a block of type t. A nil order places it after the current
// last block, or at 1 on an empty page. Content is laid over the type's
// defaults.
func (s *Store) Create(t domain.BlockType, order *float64, content *domain.Content) domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := 1.0
	if order != nil {
		o = *order
	} else if n := len(s.blocks); n > 0 {
		o = s.maxOrderLocked() + 1
	}
	c := schema.DefaultContent(t, 0)
	if content != nil {
		c = c.Merge(*content)
	}
	return s.insertLocked(t, o, c)
}

// InsertAfter creates a block of type t directly after id. The new order is
// order+1 unless that would reach or pass the next block, in which case the
// midpoint is used. A run of equal orders around id is spread first so the
// new block lands right after id, not after the whole run.
func (s *Store) InsertAfter(id string, t domain.BlockType) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Block{}, false
	}
	if i+1 < len(s.blocks) && s.blocks[i+1].Order == s.blocks[i].Order {
		s.spreadTieLocked(i)
	}
	cur := s.blocks[i].Order
	o := cur + 1
	if next := s.nextDistinctLocked(i); next != nil && *next <= o {
		o = cur + (*next-cur)/2
	}
	return s.insertLocked(t, o, schema.DefaultContent(t, 0)), true
}

func (s *Store) insertLocked(t domain.BlockType, order float64, c domain.Content) domain.Block {
	b := domain.Block{
		ID:      uuid.New().String(),
		PageID:  s.pageID,
		Type:    t,
		Order:   order,
		Content: c,
	}
	s.blocks = append(s.blocks, b)
	s.sortLocked()
	rev := s.bumpLocked(b.ID)
	s.persister.Create(b, rev)
	return b.Clone()
}

// Update merges patch.Content shallowly into the block and replaces its type
// when patch.Type is set. An order in the patch behaves like Reorder.
func (s *Store) Update(id string, patch domain.BlockPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	b := &s.blocks[i]
	if patch.Type != nil {
		b.Type = *patch.Type
	}
	if patch.Content != nil {
		b.Content = b.Content.Merge(*patch.Content)
	}
	if patch.Order != nil {
		b.Order = *patch.Order
		s.sortLocked()
	}
	rev := s.bumpLocked(id)
	s.persister.Update(s.pageID, id, patch, rev)
	return true
}

// Delete removes the block and returns the id of the block before it, or ""
// when it was first.
func (s *Store) Delete(id string) (focus string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return "", false
	}
	if i > 0 {
		focus = s.blocks[i-1].ID
	}
	s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	rev := s.bumpLocked(id)
	s.persister.Delete(s.pageID, id, rev)
	return focus, true
}

// Reorder sets the block's order and re-sorts. Other blocks keep their orders.
func (s *Store) Reorder(id string, order float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorderLocked(id, order)
}

func (s *Store) reorderLocked(id string, order float64) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.blocks[i].Order = order
	s.sortLocked()
	rev := s.bumpLocked(id)
	s.persister.Update(s.pageID, id, domain.BlockPatch{Order: &order}, rev)
	return true
}

// MoveUp swaps the block with its predecessor. No-op on the first block.
func (s *Store) MoveUp(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i <= 0 {
		return false
	}
	return s.swapLocked(i-1, i)
}

// MoveDown swaps the block with its successor. No-op on the last block.
func (s *Store) MoveDown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 || i >= len(s.blocks)-1 {
		return false
	}
	return s.swapLocked(i, i+1)
}

// swapLocked exchanges the ranks of adjacent blocks a < b. Equal orders
// cannot be swapped by value, so the pair trades places and the run of
// equal orders is spread out.
func (s *Store) swapLocked(a, b int) bool {
	upper, lower := s.blocks[a], s.blocks[b]
	if upper.Order != lower.Order {
		s.reorderLocked(upper.ID, lower.Order)
		s.reorderLocked(lower.ID, upper.Order)
		return true
	}
	s.blocks[a], s.blocks[b] = lower, upper
	s.spreadTieLocked(a)
	return true
}

// spreadTieLocked gives every block in the run of equal orders containing
// rank i a distinct order strictly between the run's neighbours, keeping
// the current rank order. Each changed block is persisted.
func (s *Store) spreadTieLocked(i int) {
	o := s.blocks[i].Order
	first, last := i, i
	for first > 0 && s.blocks[first-1].Order == o {
		first--
	}
	for last < len(s.blocks)-1 && s.blocks[last+1].Order == o {
		last++
	}
	lo, hi := o-1, o+1
	if first > 0 {
		lo = s.blocks[first-1].Order
	}
	if last < len(s.blocks)-1 {
		hi = s.blocks[last+1].Order
	}
	step := (hi - lo) / float64(last-first+2)
	for j := first; j <= last; j++ {
		order := lo + step*float64(j-first+1)
		s.blocks[j].Order = order
		rev := s.bumpLocked(s.blocks[j].ID)
		s.persister.Update(s.pageID, s.blocks[j].ID, domain.BlockPatch{Order: &order}, rev)
	}
}

// FlushDirty resends the current local state of every dirty block on this
// page and returns how many writes were queued.
func (s *Store) FlushDirty() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, d := range s.persister.Dirty() {
		if d.PageID != s.pageID {
			continue
		}
		if s.revs[id] < d.Rev {
			s.revs[id] = d.Rev
		}
		i := s.indexLocked(id)
		switch {
		case d.Deleted:
			rev := s.bumpLocked(id)
			s.persister.Delete(s.pageID, id, rev)
		case i < 0:
			s.persister.forgetBlock(id)
			continue
		default:
			rev := s.bumpLocked(id)
			s.persister.Resend(s.blocks[i], rev, d.NeedsCreate)
		}
		n++
	}
	if n > 0 {
		s.log.Debug().Int("blocks", n).Msg("resent dirty blocks")
	}
	return n
}

// stamp copies backend timestamps onto a created block. UpdatedAt is only
// taken when no local edit happened since the create was queued.
func (s *Store) stamp(id string, rev uint64, createdAt, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	b := &s.blocks[i]
	if b.CreatedAt.IsZero() {
		b.CreatedAt = createdAt
	}
	if s.revs[id] == rev {
		b.UpdatedAt = updatedAt
	}
}

// Rev returns the local edit counter of a block.
func (s *Store) Rev(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revs[id]
}

func (s *Store) bumpLocked(id string) uint64 {
	s.edits++
	s.revs[id]++
	return s.revs[id]
}

func (s *Store) indexLocked(id string) int {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) maxOrderLocked() float64 {
	m := s.blocks[0].Order
	for _, b := range s.blocks[1:] {
		if b.Order > m {
			m = b.Order
		}
	}
	return m
}

// nextDistinctLocked returns the first order after rank i that is greater
// than the order at rank i.
func (s *Store) nextDistinctLocked(i int) *float64 {
	cur := s.blocks[i].Order
	for _, b := range s.blocks[i+1:] {
		if b.Order > cur {
			o := b.Order
			return &o
		}
	}
	return nil
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.blocks, func(i, j int) bool {
		return s.blocks[i].Order < s.blocks[j].Order
	})
}
