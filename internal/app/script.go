package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"blockpad/internal/domain"
	"blockpad/internal/editor"
)

// StepResult is what one script line did to the session.
type StepResult struct {
	Line    int             `json:"line"`
	Command string          `json:"command"`
	Outcome *editor.Outcome `json:"outcome,omitempty"`
	Session editor.Snapshot `json:"session"`
}

// Replay opens pageID and feeds the script in r through the editing session,
// one command per line:
//
//	focus first|last|<blockId>
//	append
//	type <full text of the focused block>
//	key Enter|Backspace|ArrowUp|ArrowDown|Escape [shift]
//	select <index>
//	blur
//
// Blank lines and lines starting with # are skipped.
func (a *App) Replay(ctx context.Context, pageID string, r io.Reader) ([]StepResult, error) {
	if _, err := a.pages.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	if err := a.editor.Open(ctx, pageID); err != nil {
		return nil, err
	}

	var results []StepResult
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		out, err := a.step(cmd, arg)
		if err != nil {
			return results, fmt.Errorf("line %d (%s): %w", n, cmd, err)
		}
		snap, err := a.editor.Session()
		if err != nil {
			return results, err
		}
		results = append(results, StepResult{Line: n, Command: cmd, Outcome: out, Session: snap})
	}
	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("read script: %w", err)
	}
	return results, nil
}

func (a *App) step(cmd, arg string) (*editor.Outcome, error) {
	switch cmd {
	case "focus":
		id, err := a.resolveBlock(strings.TrimSpace(arg))
		if err != nil {
			return nil, err
		}
		return nil, a.editor.Focus(id)
	case "append":
		b, err := a.editor.AppendParagraph()
		if err != nil {
			return nil, err
		}
		return &editor.Outcome{Handled: true, Created: b.ID, FocusID: b.ID}, nil
	case "type":
		_, err := a.editor.Input(arg)
		return nil, err
	case "key":
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			return nil, fmt.Errorf("key name missing")
		}
		ev := editor.KeyEvent{Key: fields[0], Shift: len(fields) > 1 && fields[1] == "shift"}
		out, err := a.editor.Key(ev)
		return &out, err
	case "select":
		i, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, &domain.ValidationError{Field: "index", Err: err}
		}
		out, err := a.editor.Select(i)
		return &out, err
	case "blur":
		a.editor.Blur()
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func (a *App) resolveBlock(ref string) (string, error) {
	blocks, err := a.editor.Blocks()
	if err != nil {
		return "", err
	}
	switch ref {
	case "first", "last":
		if len(blocks) == 0 {
			return "", domain.NotFound("block", ref)
		}
		if ref == "first" {
			return blocks[0].ID, nil
		}
		return blocks[len(blocks)-1].ID, nil
	}
	return ref, nil
}
