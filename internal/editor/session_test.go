package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/domain"
	"blockpad/internal/editor"
)

func newSession(t *testing.T, opts ...editor.SessionOption) (*editor.Session, *editor.Store) {
	t.Helper()
	s, _, _ := newStore(t)
	return editor.NewSession(s, opts...), s
}

// ─────────────────────────────────────────────────────────────
// Focus / Input
// ─────────────────────────────────────────────────────────────

func TestSession_FocusLoadsText(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, &domain.Content{Text: domain.Str("héllo")})

	assert.Equal(t, editor.StateIdle, sess.Snapshot().State)
	require.True(t, sess.Focus(b.ID))

	snap := sess.Snapshot()
	assert.Equal(t, editor.StateEditing, snap.State)
	assert.Equal(t, "héllo", snap.Buffer)
	assert.Equal(t, 5, snap.Cursor)

	assert.False(t, sess.Focus("missing"))
	assert.Equal(t, b.ID, sess.Focused())

	sess.Blur()
	assert.Equal(t, editor.StateIdle, sess.Snapshot().State)
}

func TestSession_InputWritesThroughAndOpensMenu(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	require.True(t, sess.Focus(b.ID))

	require.True(t, sess.Input("note /"))
	got, _ := store.Get(b.ID)
	assert.Equal(t, "note /", got.Content.GetText())

	snap := sess.Snapshot()
	assert.Equal(t, editor.StateMenu, snap.State)
	assert.Len(t, snap.Menu.Candidates, 10)

	sess.Input("note /zzz")
	assert.Equal(t, editor.StateEditing, sess.Snapshot().State)
}

func TestSession_NonTextBlocksIgnoreKeyboard(t *testing.T) {
	for _, typ := range []domain.BlockType{
		domain.BlockTypeCode, domain.BlockTypeImage, domain.BlockTypeVideo,
		domain.BlockTypePDF, domain.BlockTypeTable,
	} {
		t.Run(string(typ), func(t *testing.T) {
			sess, store := newSession(t)
			b := store.Create(typ, nil, nil)
			require.True(t, sess.Focus(b.ID))

			assert.False(t, sess.Input("x = 1 /"))
			snap := sess.Snapshot()
			assert.Equal(t, editor.StateEditing, snap.State)
			assert.False(t, snap.Menu.Visible)

			got, _ := store.Get(b.ID)
			assert.Nil(t, got.Content.Text)

			assert.False(t, sess.Key(editor.KeyEvent{Key: editor.KeyEnter}).Handled)
			assert.False(t, sess.Key(editor.KeyEvent{Key: editor.KeyBackspace}).Handled)
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestSession_InputWhenIdle(t *testing.T) {
	sess, _ := newSession(t)
	assert.False(t, sess.Input("text"))
	assert.Equal(t, editor.Outcome{}, sess.Key(editor.KeyEvent{Key: editor.KeyEnter}))
}

// ─────────────────────────────────────────────────────────────
// Commit / transmutation
// ─────────────────────────────────────────────────────────────

func TestSession_CommitCodeKeepsTextBeforeSlash(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	sess.Input("hello /code")
	out := sess.Key(editor.KeyEvent{Key: editor.KeyEnter})
	require.True(t, out.Handled)
	assert.Equal(t, "code", out.Committed)

	got, _ := store.Get(b.ID)
	assert.Equal(t, domain.BlockTypeCode, got.Type)
	assert.Equal(t, "hello ", got.Content.GetText())
	assert.Equal(t, "", got.Content.GetCode())
	assert.Equal(t, "javascript", got.Content.GetLanguage())

	snap := sess.Snapshot()
	assert.Equal(t, "hello ", snap.Buffer)
	assert.Equal(t, editor.StateEditing, snap.State)
	assert.Len(t, store.List(), 1, "commit must not create a block")
}

func TestSession_CommitHeadingLevelFromCommand(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	sess.Input("Intro /he")
	sess.Key(editor.KeyEvent{Key: editor.KeyArrowDown})
	sess.Key(editor.KeyEvent{Key: editor.KeyArrowDown})
	out := sess.Key(editor.KeyEvent{Key: editor.KeyEnter})
	assert.Equal(t, "heading3", out.Committed)

	got, _ := store.Get(b.ID)
	assert.Equal(t, domain.BlockTypeHeading, got.Type)
	assert.Equal(t, 3, got.Content.GetHeadingLevel())
	assert.Equal(t, "Intro ", got.Content.GetText())
}

func TestSession_SelectByIndex(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	sess.Input("/")
	out, ok := sess.Select(8)
	require.True(t, ok)
	assert.Equal(t, "table", out.Committed)

	got, _ := store.Get(b.ID)
	assert.Equal(t, domain.BlockTypeTable, got.Type)
	assert.Equal(t, [][]string{{"Header 1", "Header 2"}, {"", ""}}, got.Content.Table)

	_, ok = sess.Select(0)
	assert.False(t, ok, "menu is closed after commit")
}

func TestSession_TransmuteKeepsForeignFields(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeTodo, nil, &domain.Content{Checked: domain.Bool(true)})
	sess.Focus(b.ID)

	sess.Input("task /text")
	sess.Key(editor.KeyEvent{Key: editor.KeyEnter})

	got, _ := store.Get(b.ID)
	assert.Equal(t, domain.BlockTypeParagraph, got.Type)
	assert.True(t, got.Content.GetChecked())
	assert.Equal(t, "task ", got.Content.GetText())
}

// ─────────────────────────────────────────────────────────────
// Menu keys
// ─────────────────────────────────────────────────────────────

func TestSession_MenuNavigationWraps(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)
	sess.Input("/he")

	out := sess.Key(editor.KeyEvent{Key: editor.KeyArrowUp})
	assert.True(t, out.Handled)
	assert.Equal(t, 2, sess.Snapshot().Menu.Active)

	sess.Key(editor.KeyEvent{Key: editor.KeyArrowDown})
	assert.Equal(t, 0, sess.Snapshot().Menu.Active)
}

func TestSession_EscapeHidesMenuWithoutTouchingText(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)
	sess.Input("a /co")

	out := sess.Key(editor.KeyEvent{Key: editor.KeyEscape})
	assert.True(t, out.Handled)

	snap := sess.Snapshot()
	assert.Equal(t, editor.StateEditing, snap.State)
	assert.Equal(t, "a /co", snap.Buffer)
	got, _ := store.Get(b.ID)
	assert.Equal(t, domain.BlockTypeParagraph, got.Type)
	assert.Equal(t, "a /co", got.Content.GetText())
}

// ─────────────────────────────────────────────────────────────
// Enter / Backspace
// ─────────────────────────────────────────────────────────────

func TestSession_EnterCreatesParagraphAfter(t *testing.T) {
	sess, store := newSession(t)
	a := store.Create(domain.BlockTypeHeading, nil, nil)
	c := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(a.ID)
	sess.Input("Title")

	out := sess.Key(editor.KeyEvent{Key: editor.KeyEnter})
	require.True(t, out.Handled)
	require.NotEmpty(t, out.Created)
	assert.Equal(t, out.Created, out.FocusID)

	assert.Equal(t, []string{a.ID, out.Created, c.ID}, blockIDs(store.List()))
	created, _ := store.Get(out.Created)
	assert.Equal(t, domain.BlockTypeParagraph, created.Type)

	snap := sess.Snapshot()
	assert.Equal(t, out.Created, snap.Focused)
	assert.Equal(t, "", snap.Buffer)
}

func TestSession_ShiftEnterIsNotHandled(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	out := sess.Key(editor.KeyEvent{Key: editor.KeyEnter, Shift: true})
	assert.False(t, out.Handled)
	assert.Len(t, store.List(), 1)
}

func TestSession_BackspaceDeletesEmptyParagraph(t *testing.T) {
	sess, store := newSession(t)
	a := store.Create(domain.BlockTypeParagraph, nil, &domain.Content{Text: domain.Str("keep")})
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	out := sess.Key(editor.KeyEvent{Key: editor.KeyBackspace})
	require.True(t, out.Handled)
	assert.Equal(t, b.ID, out.Deleted)
	assert.Equal(t, a.ID, out.FocusID)

	_, ok := store.Get(b.ID)
	assert.False(t, ok)
	snap := sess.Snapshot()
	assert.Equal(t, a.ID, snap.Focused)
	assert.Equal(t, "keep", snap.Buffer)
}

func TestSession_BackspaceOnFirstBlockBlurs(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	out := sess.Key(editor.KeyEvent{Key: editor.KeyBackspace})
	require.True(t, out.Handled)
	assert.Empty(t, out.FocusID)
	assert.Equal(t, editor.StateIdle, sess.Snapshot().State)
}

func TestSession_BackspaceKeepsHeadingAndNonEmpty(t *testing.T) {
	sess, store := newSession(t)
	h := store.Create(domain.BlockTypeHeading, nil, nil)
	p := store.Create(domain.BlockTypeParagraph, nil, &domain.Content{Text: domain.Str("x")})

	sess.Focus(h.ID)
	assert.False(t, sess.Key(editor.KeyEvent{Key: editor.KeyBackspace}).Handled)

	sess.Focus(p.ID)
	assert.False(t, sess.Key(editor.KeyEvent{Key: editor.KeyBackspace}).Handled)

	assert.Len(t, store.List(), 2)
}

func TestSession_DeletedFocusBlurs(t *testing.T) {
	sess, store := newSession(t)
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)
	store.Delete(b.ID)

	assert.False(t, sess.Input("x"))
	assert.Equal(t, editor.StateIdle, sess.Snapshot().State)
}

func TestSession_DescriptionSearch(t *testing.T) {
	sess, store := newSession(t, editor.WithDescriptionSearch())
	b := store.Create(domain.BlockTypeParagraph, nil, nil)
	sess.Focus(b.ID)

	sess.Input("/snippet")
	snap := sess.Snapshot()
	require.Len(t, snap.Menu.Candidates, 1)
	assert.Equal(t, "code", snap.Menu.Candidates[0].ID)
}
