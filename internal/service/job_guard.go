package service

import (
	"context"
	"sync"
)

// SyncJob names a background job run by SyncService.
type SyncJob string

const (
	JobFlush  SyncJob = "flush"
	JobReload SyncJob = "reload"
)

// ─────────────────────────────────────────────────────────────
// JobGuard: one flush or reload at a time
// ─────────────────────────────────────────────────────────────

// JobGuard runs at most one instance of each SyncJob. A trigger that
// arrives while the same job is running is dropped and counted, so a slow
// backend never stacks cron ticks or watcher callbacks. The zero value is
// ready to use.
type JobGuard struct {
	mu      sync.Mutex
	running map[SyncJob]bool
	skipped map[SyncJob]int
	active  sync.WaitGroup
}

// Run calls fn unless job is already running. It reports whether fn ran.
func (g *JobGuard) Run(job SyncJob, fn func()) bool {
	if !g.acquire(job) {
		return false
	}
	defer g.release(job)
	fn()
	return true
}

func (g *JobGuard) acquire(job SyncJob) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[SyncJob]bool)
		g.skipped = make(map[SyncJob]int)
	}
	if g.running[job] {
		g.skipped[job]++
		return false
	}
	g.running[job] = true
	g.active.Add(1)
	return true
}

func (g *JobGuard) release(job SyncJob) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, job)
	g.active.Done()
}

// Running reports whether job is in progress.
func (g *JobGuard) Running(job SyncJob) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[job]
}

// Skipped returns how many triggers of job were dropped so far.
func (g *JobGuard) Skipped(job SyncJob) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.skipped[job]
}

// WaitAll blocks until no job is running. It returns ctx.Err() when ctx
// ends first.
func (g *JobGuard) WaitAll(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
