package editor

import (
	"context"
	"sync"
)

// pendingGuard counts writes that have been queued but not yet answered by
// the backend, and lets callers wait for the count to reach zero.
type pendingGuard struct {
	mu sync.Mutex
	n  int
	wg sync.WaitGroup
}

func (g *pendingGuard) Add() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	g.wg.Add(1)
}

func (g *pendingGuard) Done() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n--
	g.wg.Done()
}

func (g *pendingGuard) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// WaitAll blocks until every pending write completes or ctx is cancelled.
func (g *pendingGuard) WaitAll(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
