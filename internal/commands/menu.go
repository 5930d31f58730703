package commands

import "blockpad/internal/domain"

// Menu is the slash-command palette state. The zero value is a hidden menu.
type Menu struct {
	Visible    bool             `json:"visible"`
	Candidates []domain.Command `json:"candidates"`
	Active     int              `json:"activeIndex"`
}

func newMenu(cands []domain.Command) Menu {
	if len(cands) == 0 {
		return Menu{}
	}
	return Menu{Visible: true, Candidates: cands}
}

// Next moves the highlight down, wrapping to the top.
func (m *Menu) Next() {
	if n := len(m.Candidates); m.Visible && n > 0 {
		m.Active = (m.Active + 1) % n
	}
}

// Prev moves the highlight up, wrapping to the bottom.
func (m *Menu) Prev() {
	if n := len(m.Candidates); m.Visible && n > 0 {
		m.Active = (m.Active - 1 + n) % n
	}
}

// Hide closes the menu.
func (m *Menu) Hide() {
	*m = Menu{}
}

// Selected returns the highlighted command.
func (m Menu) Selected() (domain.Command, bool) {
	return m.At(m.Active)
}

// At returns candidate i when the menu is open and i is in range.
func (m Menu) At(i int) (domain.Command, bool) {
	if !m.Visible || i < 0 || i >= len(m.Candidates) {
		return domain.Command{}, false
	}
	return m.Candidates[i], true
}

// Clone copies the candidate slice.
func (m Menu) Clone() Menu {
	m.Candidates = append([]domain.Command(nil), m.Candidates...)
	return m
}
