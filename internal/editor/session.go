package editor

import (
	"sync"
	"unicode/utf8"

	"blockpad/internal/commands"
	"blockpad/internal/domain"
	"blockpad/internal/schema"
)

// SessionState is the editing state of the focused block.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateEditing SessionState = "editing"
	StateMenu    SessionState = "menu"
)

// Key names understood by Session.Key.
const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
	KeyEscape    = "Escape"
)

type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift,omitempty"`
}

// Outcome reports what a key press did. Handled is false when the caller
// should apply the key's default text behaviour itself.
type Outcome struct {
	Handled   bool   `json:"handled"`
	Created   string `json:"created,omitempty"`
	Deleted   string `json:"deleted,omitempty"`
	Committed string `json:"committed,omitempty"`
	FocusID   string `json:"focusId,omitempty"`
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	State   SessionState  `json:"state"`
	Focused string        `json:"focused,omitempty"`
	Buffer  string        `json:"buffer"`
	Cursor  int           `json:"cursor"`
	Menu    commands.Menu `json:"menu"`
}

// ─────────────────────────────────────────────────────────────
// Session: keystroke state machine over one Store
// ─────────────────────────────────────────────────────────────

// Session holds the transient editing view of the focused block.
type Session struct {
	store   *Store
	catalog []domain.Command
	filter  func(string, []domain.Command) commands.Menu

	mu      sync.Mutex
	focused string
	buffer  string
	cursor  int
	menu    commands.Menu
}

type SessionOption func(*Session)

// WithDescriptionSearch makes the slash menu also match command descriptions.
func WithDescriptionSearch() SessionOption {
	return func(s *Session) { s.filter = commands.FilterWithDescriptions }
}

func NewSession(store *Store, opts ...SessionOption) *Session {
	s := &Session{
		store:   store,
		catalog: commands.Catalog(),
		filter:  commands.Filter,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Focus makes id the edited block. The buffer takes the block's text and the
// cursor goes to its end.
func (s *Session) Focus(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusLocked(id)
}

func (s *Session) focusLocked(id string) bool {
	b, ok := s.store.Get(id)
	if !ok {
		return false
	}
	s.focused = id
	s.buffer = b.Content.GetText()
	s.cursor = utf8.RuneCountInString(s.buffer)
	s.menu = commands.Menu{}
	return true
}

func (s *Session) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.focused = ""
	s.buffer = ""
	s.cursor = 0
	s.menu = commands.Menu{}
}

func (s *Session) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:   s.stateLocked(),
		Focused: s.focused,
		Buffer:  s.buffer,
		Cursor:  s.cursor,
		Menu:    s.menu.Clone(),
	}
}

func (s *Session) stateLocked() SessionState {
	switch {
	case s.focused == "":
		return StateIdle
	case s.menu.Visible:
		return StateMenu
	default:
		return StateEditing
	}
}

// Input replaces the buffer with text, writes it to the block and re-runs
// the slash filter. Blocks whose type has no text field refuse input.
func (s *Session) Input(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.editableLocked(); !ok {
		return false
	}
	s.buffer = text
	s.cursor = utf8.RuneCountInString(text)
	s.store.Update(s.focused, domain.BlockPatch{Content: &domain.Content{Text: domain.Str(text)}})
	s.menu = s.filter(text, s.catalog)
	return true
}

// Key interprets a key press in the current state.
func (s *Session) Key(ev KeyEvent) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.editableLocked()
	if !ok {
		return Outcome{}
	}
	if s.menu.Visible {
		return s.menuKeyLocked(ev)
	}

	switch ev.Key {
	case KeyEnter:
		if ev.Shift {
			return Outcome{}
		}
		b, ok := s.store.InsertAfter(s.focused, domain.BlockTypeParagraph)
		if !ok {
			return Outcome{}
		}
		s.focusLocked(b.ID)
		return Outcome{Handled: true, Created: b.ID, FocusID: b.ID}

	case KeyBackspace:
		if s.buffer != "" || !schema.Describe(b.Type).BackspaceDeletes {
			return Outcome{}
		}
		deleted := s.focused
		focus, _ := s.store.Delete(deleted)
		if focus == "" || !s.focusLocked(focus) {
			s.resetLocked()
			focus = ""
		}
		return Outcome{Handled: true, Deleted: deleted, FocusID: focus}
	}
	return Outcome{}
}

func (s *Session) menuKeyLocked(ev KeyEvent) Outcome {
	switch ev.Key {
	case KeyArrowDown:
		s.menu.Next()
	case KeyArrowUp:
		s.menu.Prev()
	case KeyEscape:
		s.menu.Hide()
	case KeyEnter:
		cmd, ok := s.menu.Selected()
		if !ok {
			return Outcome{}
		}
		s.commitLocked(cmd)
		return Outcome{Handled: true, Committed: cmd.ID, FocusID: s.focused}
	default:
		return Outcome{}
	}
	return Outcome{Handled: true, FocusID: s.focused}
}

// Select commits candidate i of the open menu.
func (s *Session) Select(i int) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.aliveLocked() {
		return Outcome{}, false
	}
	cmd, ok := s.menu.At(i)
	if !ok {
		return Outcome{}, false
	}
	s.commitLocked(cmd)
	return Outcome{Handled: true, Committed: cmd.ID, FocusID: s.focused}, true
}

// commitLocked turns the focused block into cmd's type, keeping the text
// typed before the slash.
func (s *Session) commitLocked(cmd domain.Command) {
	kept := commands.TextBeforeSlash(s.buffer)

	var content domain.Content
	if cmd.TargetType == domain.BlockTypeHeading {
		level := cmd.HeadingLevel
		if level == 0 {
			level = 1
		}
		content = domain.Content{Text: domain.Str(kept), HeadingLevel: domain.Int(level)}
	} else {
		content = schema.DefaultPatchForType(cmd.TargetType).Merge(domain.Content{Text: domain.Str(kept)})
	}
	t := cmd.TargetType
	s.store.Update(s.focused, domain.BlockPatch{Type: &t, Content: &content})

	s.buffer = kept
	s.cursor = utf8.RuneCountInString(kept)
	s.menu.Hide()
}

// editableLocked returns the focused block when its type takes keyboard
// text.
func (s *Session) editableLocked() (domain.Block, bool) {
	if !s.aliveLocked() {
		return domain.Block{}, false
	}
	b, _ := s.store.Get(s.focused)
	return b, schema.Describe(b.Type).EditsText
}

// aliveLocked reports whether a block is focused, blurring when the focused
// block has been removed from the store.
func (s *Session) aliveLocked() bool {
	if s.focused == "" {
		return false
	}
	if _, ok := s.store.Get(s.focused); !ok {
		s.resetLocked()
		return false
	}
	return true
}
