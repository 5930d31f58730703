package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"blockpad/internal/domain"
	"blockpad/internal/schema"
)

// ErrNoPage is returned by page-scoped operations before Open.
var ErrNoPage = errors.New("no page open")

// ─────────────────────────────────────────────────────────────
// Controller: the open page: its Store, Session and Persister
// ─────────────────────────────────────────────────────────────

// Controller is the entry point used by the agent surface and the CLI. It
// validates input before anything reaches the Store.
type Controller struct {
	backend   domain.BlockStore
	persister *Persister
	log       zerolog.Logger
	emitter   EventEmitter
	sessOpts  []SessionOption

	mu      sync.Mutex
	store   *Store
	session *Session
}

func NewController(backend domain.BlockStore, persister *Persister, logger zerolog.Logger, emitter EventEmitter, opts ...SessionOption) *Controller {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Controller{
		backend:   backend,
		persister: persister,
		log:       logger.With().Str("component", "controller").Logger(),
		emitter:   emitter,
		sessOpts:  opts,
	}
}

// Open loads pageID from the backend and starts a fresh session on it.
// Pending writes of the previous page are flushed first; dirty blocks that
// still fail are dropped with a warning. Opening the page that is already
// open keeps its local blocks and only resets the session.
func (c *Controller) Open(ctx context.Context, pageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil && c.store.PageID() == pageID {
		c.session = NewSession(c.store, c.sessOpts...)
		c.emitter.Emit(ctx, EventPageOpened, map[string]any{"pageId": pageID, "blocks": c.store.Len()})
		return nil
	}

	if prev := c.store; prev != nil {
		prev.FlushDirty()
		if err := c.persister.WaitIdle(ctx); err != nil {
			return fmt.Errorf("wait for pending writes: %w", err)
		}
		if n := c.persister.Forget(prev.PageID()); n > 0 {
			c.log.Warn().Str("page", prev.PageID()).Int("blocks", n).Msg("leaving page with unpersisted blocks")
		}
	}

	blocks, err := c.backend.ListBlocks(ctx, pageID)
	if err != nil {
		return fmt.Errorf("list blocks: %w", err)
	}
	store := NewStore(pageID, c.persister, c.log)
	store.Load(blocks)
	c.store = store
	c.session = NewSession(store, c.sessOpts...)

	c.log.Info().Str("page", pageID).Int("blocks", len(blocks)).Msg("page opened")
	c.emitter.Emit(ctx, EventPageOpened, map[string]any{"pageId": pageID, "blocks": len(blocks)})
	return nil
}

// Reload re-reads the open page from the backend when nothing local could be
// lost: no dirty or pending writes and no focused block. The listing is
// fetched without holding the controller lock and dropped if the page was
// edited meanwhile. It reports whether the page was reloaded.
func (c *Controller) Reload(ctx context.Context) (bool, error) {
	c.mu.Lock()
	st := c.store
	if st == nil || !c.idleLocked() {
		c.mu.Unlock()
		return false, nil
	}
	edits := st.Edits()
	c.mu.Unlock()

	pageID := st.PageID()
	blocks, err := c.backend.ListBlocks(ctx, pageID)
	if err != nil {
		return false, fmt.Errorf("reload blocks: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != st || !c.idleLocked() || !st.LoadIfUnchanged(blocks, edits) {
		c.log.Debug().Str("page", pageID).Msg("reload skipped, page changed while listing")
		return false, nil
	}
	c.emitter.Emit(ctx, EventPageReloaded, map[string]any{"pageId": pageID, "blocks": len(blocks)})
	return true, nil
}

// Close detaches the controller from its page when that page is pageID.
func (c *Controller) Close(pageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil && c.store.PageID() == pageID {
		c.persister.Forget(pageID)
		c.store = nil
		c.session = nil
	}
}

// Discard detaches pageID if it is open, waits for queued writes to land and
// drops whatever of that page is still dirty. Callers use it before deleting
// a page so no later resend recreates its blocks.
func (c *Controller) Discard(ctx context.Context, pageID string) error {
	c.Close(pageID)
	if err := c.persister.WaitIdle(ctx); err != nil {
		return fmt.Errorf("wait for pending writes: %w", err)
	}
	c.persister.Forget(pageID)
	return nil
}

// Idle reports whether a reload would discard nothing.
func (c *Controller) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idleLocked()
}

func (c *Controller) idleLocked() bool {
	if c.persister.Pending() > 0 {
		return false
	}
	if c.store == nil {
		return true
	}
	if c.persister.DirtyCount(c.store.PageID()) > 0 {
		return false
	}
	return c.session.Focused() == ""
}

// PageID returns the open page, or "".
func (c *Controller) PageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return ""
	}
	return c.store.PageID()
}

func (c *Controller) open() (*Store, *Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil, nil, ErrNoPage
	}
	return c.store, c.session, nil
}

// FlushDirty resends dirty blocks of the open page.
func (c *Controller) FlushDirty() int {
	st, _, err := c.open()
	if err != nil {
		return 0
	}
	return st.FlushDirty()
}

// ── Blocks ──────────────────────────────────────────────────

func (c *Controller) Blocks() ([]domain.Block, error) {
	st, _, err := c.open()
	if err != nil {
		return nil, err
	}
	return st.List(), nil
}

func (c *Controller) Block(id string) (domain.Block, error) {
	st, _, err := c.open()
	if err != nil {
		return domain.Block{}, err
	}
	b, ok := st.Get(id)
	if !ok {
		return domain.Block{}, domain.NotFound("block", id)
	}
	return b, nil
}

// CreateBlock appends a block. order and content are optional.
func (c *Controller) CreateBlock(t domain.BlockType, order *float64, content *domain.Content) (domain.Block, error) {
	if err := schema.ValidateType(t); err != nil {
		return domain.Block{}, err
	}
	if content != nil {
		if err := schema.ValidateContent(*content); err != nil {
			return domain.Block{}, err
		}
	}
	st, _, err := c.open()
	if err != nil {
		return domain.Block{}, err
	}
	return st.Create(t, order, content), nil
}

// AppendParagraph adds an empty paragraph after the last block and focuses it.
func (c *Controller) AppendParagraph() (domain.Block, error) {
	st, sess, err := c.open()
	if err != nil {
		return domain.Block{}, err
	}
	b := st.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)
	return b, nil
}

// UpdateBlock applies a content or order patch after validating it. Block
// types only change through a slash command commit.
func (c *Controller) UpdateBlock(id string, patch domain.BlockPatch) error {
	if patch.Type != nil {
		return &domain.ValidationError{Field: "type", Err: errors.New("type changes go through a slash command")}
	}
	if patch.Content != nil {
		if err := schema.ValidateContent(*patch.Content); err != nil {
			return err
		}
	}
	st, _, err := c.open()
	if err != nil {
		return err
	}
	if !st.Update(id, patch) {
		return domain.NotFound("block", id)
	}
	return nil
}

// DeleteBlock removes a block and returns the block that should take focus.
func (c *Controller) DeleteBlock(id string) (string, error) {
	st, sess, err := c.open()
	if err != nil {
		return "", err
	}
	focus, ok := st.Delete(id)
	if !ok {
		return "", domain.NotFound("block", id)
	}
	if sess.Focused() == id {
		if focus == "" || !sess.Focus(focus) {
			sess.Blur()
		}
	}
	return focus, nil
}

func (c *Controller) Reorder(id string, order float64) error {
	st, _, err := c.open()
	if err != nil {
		return err
	}
	if !st.Reorder(id, order) {
		return domain.NotFound("block", id)
	}
	return nil
}

// Move shifts a block one rank up or down. It reports false when the block
// is already at that edge.
func (c *Controller) Move(id string, up bool) (bool, error) {
	st, _, err := c.open()
	if err != nil {
		return false, err
	}
	if _, ok := st.Get(id); !ok {
		return false, domain.NotFound("block", id)
	}
	if up {
		return st.MoveUp(id), nil
	}
	return st.MoveDown(id), nil
}

// ── Typed content ───────────────────────────────────────────

// patchTyped applies content to id after checking the block is of type t.
func (c *Controller) patchTyped(id string, t domain.BlockType, build func(domain.Block) (domain.Content, error)) error {
	st, _, err := c.open()
	if err != nil {
		return err
	}
	b, ok := st.Get(id)
	if !ok {
		return domain.NotFound("block", id)
	}
	if b.Type != t {
		return &domain.ValidationError{Field: "type", Err: fmt.Errorf("block %s is %s, not %s", id, b.Type, t)}
	}
	content, err := build(b)
	if err != nil {
		return err
	}
	st.Update(id, domain.BlockPatch{Content: &content})
	return nil
}

func (c *Controller) SetChecked(id string, checked bool) error {
	return c.patchTyped(id, domain.BlockTypeTodo, func(domain.Block) (domain.Content, error) {
		return domain.Content{Checked: domain.Bool(checked)}, nil
	})
}

// SetCode sets the code text and, when lang is not empty, the language.
func (c *Controller) SetCode(id, code, lang string) error {
	return c.patchTyped(id, domain.BlockTypeCode, func(domain.Block) (domain.Content, error) {
		out := domain.Content{Code: domain.Str(code)}
		if lang != "" {
			if err := schema.ValidateCodeLanguage(lang); err != nil {
				return domain.Content{}, err
			}
			out.Language = domain.Str(lang)
		}
		return out, nil
	})
}

// SetURL sets the source of an image or pdf block.
func (c *Controller) SetURL(id, url string) error {
	b, err := c.Block(id)
	if err != nil {
		return err
	}
	t := b.Type
	if t != domain.BlockTypeImage && t != domain.BlockTypePDF {
		t = domain.BlockTypeImage
	}
	return c.patchTyped(id, t, func(domain.Block) (domain.Content, error) {
		return domain.Content{URL: domain.Str(url)}, nil
	})
}

// SetVideo stores the embeddable form of url.
func (c *Controller) SetVideo(id, url string, autoplay bool) error {
	return c.patchTyped(id, domain.BlockTypeVideo, func(domain.Block) (domain.Content, error) {
		return domain.Content{VideoURL: domain.Str(schema.EmbedURL(url)), Autoplay: domain.Bool(autoplay)}, nil
	})
}

func (c *Controller) TableAddRow(id string) error {
	return c.patchTyped(id, domain.BlockTypeTable, func(b domain.Block) (domain.Content, error) {
		return domain.Content{Table: schema.AddRow(b.Content.Table)}, nil
	})
}

func (c *Controller) TableAddColumn(id string) error {
	return c.patchTyped(id, domain.BlockTypeTable, func(b domain.Block) (domain.Content, error) {
		grid := b.Content.Table
		if len(grid) == 0 {
			grid = schema.AddRow(grid)
		}
		return domain.Content{Table: schema.AddColumn(grid)}, nil
	})
}

func (c *Controller) TableSetCell(id string, row, col int, value string) error {
	return c.patchTyped(id, domain.BlockTypeTable, func(b domain.Block) (domain.Content, error) {
		grid, err := schema.SetCell(b.Content.Table, row, col, value)
		if err != nil {
			return domain.Content{}, err
		}
		return domain.Content{Table: grid}, nil
	})
}

// ── Session ─────────────────────────────────────────────────

func (c *Controller) Focus(id string) error {
	_, sess, err := c.open()
	if err != nil {
		return err
	}
	if !sess.Focus(id) {
		return domain.NotFound("block", id)
	}
	return nil
}

func (c *Controller) Blur() {
	if _, sess, err := c.open(); err == nil {
		sess.Blur()
	}
}

// Input feeds the full text of the focused block.
func (c *Controller) Input(text string) (Snapshot, error) {
	_, sess, err := c.open()
	if err != nil {
		return Snapshot{}, err
	}
	if !sess.Input(text) {
		snap := sess.Snapshot()
		if snap.Focused == "" {
			return snap, errNoFocus
		}
		return snap, errNoText
	}
	return sess.Snapshot(), nil
}

func (c *Controller) Key(ev KeyEvent) (Outcome, error) {
	_, sess, err := c.open()
	if err != nil {
		return Outcome{}, err
	}
	return sess.Key(ev), nil
}

func (c *Controller) Select(i int) (Outcome, error) {
	_, sess, err := c.open()
	if err != nil {
		return Outcome{}, err
	}
	out, ok := sess.Select(i)
	if !ok {
		return Outcome{}, &domain.ValidationError{Field: "index", Err: fmt.Errorf("no menu candidate %d", i)}
	}
	return out, nil
}

func (c *Controller) Session() (Snapshot, error) {
	_, sess, err := c.open()
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

var (
	errNoFocus = &domain.ValidationError{Field: "focus", Err: errors.New("no block focused")}
	errNoText  = &domain.ValidationError{Field: "focus", Err: errors.New("focused block has no text, use its content setter")}
)
