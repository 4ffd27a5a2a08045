package spinner

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_ViewShowsTitle(t *testing.T) {
	m := New("Diagnosing leaf")
	if !strings.Contains(m.View(), "Diagnosing leaf") {
		t.Errorf("expected title in view, got %q", m.View())
	}
}

func TestModel_DoneQuits(t *testing.T) {
	m := New("Diagnosing leaf")
	next, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if next.View() != "" {
		t.Errorf("expected empty view after completion, got %q", next.View())
	}
}

func TestModel_CtrlCCancels(t *testing.T) {
	m := New("Diagnosing leaf")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !next.(Model).Cancelled() {
		t.Error("expected model to be cancelled")
	}
}

func TestModel_IgnoresOtherKeys(t *testing.T) {
	m := New("Diagnosing leaf")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Error("expected no command for unrelated key")
	}
	if next.(Model).Cancelled() {
		t.Error("expected model not cancelled")
	}
}
