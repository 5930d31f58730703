package commands

import (
	"strings"

	"blockpad/internal/domain"
)

// Filter evaluates text against cmds and returns the resulting menu.
// Matching is on label or id.
func Filter(text string, cmds []domain.Command) Menu {
	return filter(text, cmds, false)
}

// FilterWithDescriptions is Filter that also matches the description.
func FilterWithDescriptions(text string, cmds []domain.Command) Menu {
	return filter(text, cmds, true)
}

func filter(text string, cmds []domain.Command, withDesc bool) Menu {
	slash := strings.LastIndex(text, "/")
	if slash < 0 {
		return Menu{}
	}
	if slash == len(text)-1 {
		return newMenu(append([]domain.Command(nil), cmds...))
	}

	term := strings.ToLower(text[slash+1:])
	var matches []domain.Command
	for _, c := range cmds {
		if strings.Contains(strings.ToLower(c.Label), term) ||
			strings.Contains(strings.ToLower(c.ID), term) ||
			(withDesc && strings.Contains(strings.ToLower(c.Description), term)) {
			matches = append(matches, c)
		}
	}
	return newMenu(matches)
}

// TextBeforeSlash returns text up to, not including, its last slash.
// Text without a slash is returned unchanged.
func TextBeforeSlash(text string) string {
	if i := strings.LastIndex(text, "/"); i >= 0 {
		return text[:i]
	}
	return text
}
