package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"blockpad/internal/domain"
	"blockpad/internal/schema"
)

// Event names emitted by PageService.
const (
	EventPageCreated = "page:created"
	EventPageRenamed = "page:renamed"
	EventPageDeleted = "page:deleted"
	EventPageUpdated = "page:updated"
)

// ─────────────────────────────────────────────────────────────
// Page Service: pages and their block lists
// ─────────────────────────────────────────────────────────────

// OpenPage is the part of editor.Controller the page service needs: the open
// page's optimistic block list and a way to drop it when the page is deleted.
type OpenPage interface {
	PageID() string
	Blocks() ([]domain.Block, error)
	Discard(ctx context.Context, pageID string) error
}

// PageService manages pages. Titles are validated here; block edits go
// through the editor.
type PageService struct {
	pages   domain.PageStore
	blocks  domain.BlockStore
	open    OpenPage
	emitter EventEmitter
	log     zerolog.Logger
}

func NewPageService(pages domain.PageStore, blocks domain.BlockStore, open OpenPage, emitter EventEmitter, logger zerolog.Logger) *PageService {
	if emitter == nil {
		emitter = FanOut{}
	}
	return &PageService{
		pages:   pages,
		blocks:  blocks,
		open:    open,
		emitter: emitter,
		log:     logger.With().Str("component", "pages").Logger(),
	}
}

func (s *PageService) ListPages(ctx context.Context) ([]domain.Page, error) {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	return pages, nil
}

func (s *PageService) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	return s.pages.GetPage(ctx, id)
}

// CreatePage stores a page with a trimmed, validated title. parentID is optional.
func (s *PageService) CreatePage(ctx context.Context, title string, parentID *string) (*domain.Page, error) {
	clean, err := schema.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, err := s.pages.GetPage(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("parent page: %w", err)
		}
	}
	p := &domain.Page{
		ID:       uuid.New().String(),
		Title:    clean,
		ParentID: parentID,
	}
	if err := s.pages.CreatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.log.Info().Str("page", p.ID).Str("title", p.Title).Msg("page created")
	s.emitter.Emit(ctx, EventPageCreated, p)
	return p, nil
}

func (s *PageService) RenamePage(ctx context.Context, id, title string) (*domain.Page, error) {
	clean, err := schema.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	p, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title = clean
	if err := s.pages.UpdatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("rename page: %w", err)
	}
	s.emitter.Emit(ctx, EventPageRenamed, p)
	return p, nil
}

// UpdateAppearance sets the icon and cover URLs of a page. A nil URL keeps
// the current value; an empty one clears it.
func (s *PageService) UpdateAppearance(ctx context.Context, id string, iconURL, coverURL *string) (*domain.Page, error) {
	p, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if iconURL != nil {
		p.IconURL = *iconURL
	}
	if coverURL != nil {
		p.CoverURL = *coverURL
	}
	if err := s.pages.UpdatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	s.emitter.Emit(ctx, EventPageUpdated, p)
	return p, nil
}

// DeletePage removes the page and all of its blocks. The editor lets go of
// the page first so no queued write recreates a block.
func (s *PageService) DeletePage(ctx context.Context, id string) error {
	if _, err := s.pages.GetPage(ctx, id); err != nil {
		return err
	}
	if s.open != nil {
		if err := s.open.Discard(ctx, id); err != nil {
			return err
		}
	}
	if err := s.blocks.DeleteBlocksByPage(ctx, id); err != nil {
		return fmt.Errorf("delete page blocks: %w", err)
	}
	if err := s.pages.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	s.log.Info().Str("page", id).Msg("page deleted")
	s.emitter.Emit(ctx, EventPageDeleted, id)
	return nil
}

// GetPageState returns the page with its blocks in display order. The open
// page's blocks come from the editor, which may be ahead of the backend.
func (s *PageService) GetPageState(ctx context.Context, id string) (*domain.PageState, error) {
	page, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	var blocks []domain.Block
	if s.open != nil && s.open.PageID() == id {
		blocks, err = s.open.Blocks()
	} else {
		blocks, err = s.blocks.ListBlocks(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return &domain.PageState{Page: *page, Blocks: blocks}, nil
}
