package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Event names emitted by SyncService.
const (
	EventDirtyFlushed = "sync:flushed"
)

const (
	defaultDebounce = 500 * time.Millisecond
)

// Syncable is the part of editor.Controller that SyncService drives.
type Syncable interface {
	FlushDirty() int
	Reload(ctx context.Context) (bool, error)
}

// ─────────────────────────────────────────────────────────────
// Sync Service: retry unsaved blocks, follow external writes
// ─────────────────────────────────────────────────────────────

// SyncService resends dirty blocks on a cron schedule and, when given a
// database file, reloads the open page after another process writes to it.
type SyncService struct {
	target   Syncable
	schedule string
	watch    string
	debounce time.Duration
	emitter  EventEmitter
	log      zerolog.Logger

	guard JobGuard

	mu          sync.Mutex
	cronSched   *cron.Cron
	watcher     *fsnotify.Watcher
	watchCancel context.CancelFunc
}

type SyncOption func(*SyncService)

// WithSchedule sets the cron spec for dirty re-flush. Empty disables it.
func WithSchedule(spec string) SyncOption {
	return func(s *SyncService) { s.schedule = spec }
}

// WithWatchFile reloads the open page when path (or its -wal/-shm siblings) changes.
func WithWatchFile(path string) SyncOption {
	return func(s *SyncService) { s.watch = path }
}

func WithDebounce(d time.Duration) SyncOption {
	return func(s *SyncService) { s.debounce = d }
}

func WithSyncEmitter(e EventEmitter) SyncOption {
	return func(s *SyncService) { s.emitter = e }
}

func NewSyncService(target Syncable, logger zerolog.Logger, opts ...SyncOption) *SyncService {
	s := &SyncService{
		target:   target,
		debounce: defaultDebounce,
		emitter:  FanOut{},
		log:      logger.With().Str("component", "sync").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the flush job and the file watcher. ctx bounds reloads.
func (s *SyncService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.schedule, func() { s.FlushNow(ctx) }); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
		}
		c.Start()
		s.cronSched = c
		s.log.Debug().Str("schedule", s.schedule).Msg("dirty flush scheduled")
	}

	if s.watch != "" {
		if err := s.startWatcherLocked(ctx); err != nil {
			s.stopLocked()
			return err
		}
	}
	return nil
}

// FlushNow resends dirty blocks unless a flush is already running. It
// reports how many blocks were resent.
func (s *SyncService) FlushNow(ctx context.Context) int {
	n := 0
	if !s.guard.Run(JobFlush, func() { n = s.target.FlushDirty() }) {
		s.log.Debug().Int("skipped", s.guard.Skipped(JobFlush)).Msg("flush still running, tick dropped")
		return 0
	}
	if n > 0 {
		s.log.Info().Int("blocks", n).Msg("resent unsaved blocks")
		s.emitter.Emit(ctx, EventDirtyFlushed, n)
	}
	return n
}

// ReloadNow reloads the open page if the editor is idle.
func (s *SyncService) ReloadNow(ctx context.Context) bool {
	var (
		ok  bool
		err error
	)
	if !s.guard.Run(JobReload, func() { ok, err = s.target.Reload(ctx) }) {
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("reload after external change failed")
		return false
	}
	if ok {
		s.log.Debug().Msg("page reloaded after external change")
	}
	return ok
}

func (s *SyncService) startWatcherLocked(ctx context.Context) error {
	absPath, err := filepath.Abs(s.watch)
	if err != nil {
		return fmt.Errorf("watch path %q: %w", s.watch, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(absPath), err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				name, _ := filepath.Abs(event.Name)
				if !strings.HasPrefix(name, absPath) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(s.debounce, func() {
					if watchCtx.Err() == nil {
						s.ReloadNow(watchCtx)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("watcher error")
			}
		}
	}()

	s.log.Debug().Str("path", absPath).Msg("watching database file")
	return nil
}

// Wait blocks until a running flush or reload finishes or ctx is cancelled.
func (s *SyncService) Wait(ctx context.Context) error {
	return s.guard.WaitAll(ctx)
}

// Stop tears down the scheduler and the watcher.
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SyncService) stopLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		<-s.cronSched.Stop().Done()
		s.cronSched = nil
	}
}
