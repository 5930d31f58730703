package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/service"
)

type fakeSyncable struct {
	flushes atomic.Int32
	reloads atomic.Int32
	dirty   int
	block   chan struct{}
}

func (f *fakeSyncable) FlushDirty() int {
	f.flushes.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.dirty
}

func (f *fakeSyncable) Reload(context.Context) (bool, error) {
	f.reloads.Add(1)
	return true, nil
}

// ─────────────────────────────────────────────────────────────
// Flush
// ─────────────────────────────────────────────────────────────

func TestSyncService_FlushNowEmits(t *testing.T) {
	target := &fakeSyncable{dirty: 2}
	events := &service.MockEmitter{}
	svc := service.NewSyncService(target, zerolog.Nop(), service.WithSyncEmitter(events))

	assert.Equal(t, 2, svc.FlushNow(context.Background()))
	assert.Equal(t, []string{service.EventDirtyFlushed}, events.Names())

	target.dirty = 0
	assert.Zero(t, svc.FlushNow(context.Background()))
	assert.Len(t, events.Names(), 1, "nothing resent, nothing emitted")
}

func TestSyncService_FlushDoesNotOverlap(t *testing.T) {
	target := &fakeSyncable{dirty: 1, block: make(chan struct{})}
	svc := service.NewSyncService(target, zerolog.Nop())

	go svc.FlushNow(context.Background())
	require.Eventually(t, func() bool { return target.flushes.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.Zero(t, svc.FlushNow(context.Background()), "second flush is skipped while the first runs")
	close(target.block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
	assert.EqualValues(t, 1, target.flushes.Load())
}

func TestSyncService_ScheduledFlush(t *testing.T) {
	target := &fakeSyncable{}
	svc := service.NewSyncService(target, zerolog.Nop(), service.WithSchedule("@every 1s"))
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	assert.Eventually(t, func() bool { return target.flushes.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSyncService_InvalidSchedule(t *testing.T) {
	svc := service.NewSyncService(&fakeSyncable{}, zerolog.Nop(), service.WithSchedule("every tuesday"))
	assert.Error(t, svc.Start(context.Background()))
	svc.Stop()
}

// ─────────────────────────────────────────────────────────────
// Watch
// ─────────────────────────────────────────────────────────────

func TestSyncService_ReloadsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "blockpad.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0644))

	target := &fakeSyncable{}
	svc := service.NewSyncService(target, zerolog.Nop(),
		service.WithWatchFile(dbPath), service.WithDebounce(20*time.Millisecond))
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, target.reloads.Load())

	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("v2"), 0644))
	assert.Eventually(t, func() bool { return target.reloads.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestSyncService_StopIsIdempotent(t *testing.T) {
	svc := service.NewSyncService(&fakeSyncable{}, zerolog.Nop())
	require.NoError(t, svc.Start(context.Background()))
	svc.Stop()
	svc.Stop()
}
