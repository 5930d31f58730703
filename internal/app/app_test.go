package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/app"
	"blockpad/internal/config"
	"blockpad/internal/domain"
	"blockpad/internal/editor"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SyncSchedule = ""
	return cfg
}

func newApp(t *testing.T, cfg config.Config) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func closeApp(t *testing.T, a *app.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))
}

// ─────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────

func TestApp_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = config.BackendPostgres
	_, err := app.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.SyncSchedule = "whenever"
	_, err = app.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestApp_WritesSurviveRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a := newApp(t, cfg)
	page, err := a.Pages().CreatePage(ctx, "Journal", nil)
	require.NoError(t, err)
	require.NoError(t, a.Editor().Open(ctx, page.ID))
	b, err := a.Editor().CreateBlock(domain.BlockTypeTodo, nil, &domain.Content{Text: domain.Str("water plants")})
	require.NoError(t, err)
	require.NoError(t, a.Editor().SetChecked(b.ID, true))
	closeApp(t, a)

	a = newApp(t, cfg)
	defer closeApp(t, a)
	state, err := a.Pages().GetPageState(ctx, page.ID)
	require.NoError(t, err)
	require.Len(t, state.Blocks, 1)
	assert.Equal(t, "water plants", state.Blocks[0].Content.GetText())
	assert.True(t, state.Blocks[0].Content.GetChecked())
}

func TestApp_CloseAfterContextCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	a, err := app.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	page, err := a.Pages().CreatePage(context.Background(), "Late", nil)
	require.NoError(t, err)
	require.NoError(t, a.Editor().Open(context.Background(), page.ID))
	cancel()

	_, err = a.Editor().CreateBlock(domain.BlockTypeParagraph, nil, nil)
	require.NoError(t, err)
	closeApp(t, a)

	a = newApp(t, cfg)
	defer closeApp(t, a)
	state, err := a.Pages().GetPageState(context.Background(), page.ID)
	require.NoError(t, err)
	assert.Len(t, state.Blocks, 1)
}

// ─────────────────────────────────────────────────────────────
// Replay
// ─────────────────────────────────────────────────────────────

func TestApp_Replay(t *testing.T) {
	a := newApp(t, testConfig(t))
	defer closeApp(t, a)
	ctx := context.Background()

	page, err := a.Pages().CreatePage(ctx, "Scripted", nil)
	require.NoError(t, err)

	script := `
# build a heading and a todo
append
type Agenda /heading 2
key Enter
key Enter
type Buy milk /todo
key Enter
`
	steps, err := a.Replay(ctx, page.ID, strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, steps, 6)
	assert.Equal(t, editor.StateMenu, steps[1].Session.State)
	assert.Equal(t, "heading2", steps[2].Outcome.Committed)
	assert.NotEmpty(t, steps[3].Outcome.Created)
	assert.Equal(t, "todo", steps[5].Outcome.Committed)

	blocks, err := a.Editor().Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, domain.BlockTypeHeading, blocks[0].Type)
	assert.Equal(t, 2, blocks[0].Content.GetHeadingLevel())
	assert.Equal(t, "Agenda ", blocks[0].Content.GetText())
	assert.Equal(t, domain.BlockTypeTodo, blocks[1].Type)
	assert.Equal(t, "Buy milk ", blocks[1].Content.GetText())

	require.NoError(t, a.Settle(ctx))
}

func TestApp_ReplayErrors(t *testing.T) {
	a := newApp(t, testConfig(t))
	defer closeApp(t, a)
	ctx := context.Background()

	_, err := a.Replay(ctx, "missing", strings.NewReader("append"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := a.Pages().CreatePage(ctx, "Bad", nil)
	require.NoError(t, err)

	steps, err := a.Replay(ctx, page.ID, strings.NewReader("append\ndance"))
	assert.ErrorContains(t, err, "line 2")
	assert.Len(t, steps, 1)

	_, err = a.Replay(ctx, page.ID, strings.NewReader("focus first\ntype x"))
	require.NoError(t, err)
	_, err = a.Replay(ctx, page.ID, strings.NewReader("select nope"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
