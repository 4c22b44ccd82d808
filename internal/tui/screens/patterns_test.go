package screens

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/messages"
)

func TestPatternsSpeedClamps(t *testing.T) {
	m := NewPatternsModel()
	if m.Speed() != DefaultPatternSpeed {
		t.Fatalf("Speed() = %d, want %d", m.Speed(), DefaultPatternSpeed)
	}

	for range 10 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.Speed() != 100 {
		t.Errorf("Speed() = %d, want 100", m.Speed())
	}

	for range 12 {
		m, _ = m.Update(keyRunes("-"))
	}
	if m.Speed() != 0 {
		t.Errorf("Speed() = %d, want 0", m.Speed())
	}
}

func TestPatternsSelect(t *testing.T) {
	m := NewPatternsModel()
	all := models.PresetPatterns()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.Selected() != all[1] {
		t.Errorf("Selected() = %v, want %v", m.Selected(), all[1])
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	got, ok := cmd().(messages.PatternSelectedMsg)
	if !ok {
		t.Fatalf("command returned %T", cmd())
	}
	if got.Pattern != all[1] || got.Speed != 60 {
		t.Errorf("selected = %+v, want %v at 60", got, all[1])
	}
}

func TestPatternsSelectionStaysInRange(t *testing.T) {
	m := NewPatternsModel()
	all := models.PresetPatterns()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.Selected() != all[0] {
		t.Errorf("Selected() = %v, want %v", m.Selected(), all[0])
	}
	for range len(all) + 3 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.Selected() != all[len(all)-1] {
		t.Errorf("Selected() = %v, want %v", m.Selected(), all[len(all)-1])
	}
}

func TestPatternsClose(t *testing.T) {
	m := NewPatternsModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(messages.HidePatternsMsg); !ok {
		t.Errorf("esc returned %T, want HidePatternsMsg", cmd())
	}
}

func TestPatternsView(t *testing.T) {
	m := NewPatternsModel()
	m.SetSize(100, 40)
	m.SetTarget("Office")

	view := m.View()
	for _, want := range []string{"Office", models.SevenColorsCrossFade.String(), "Speed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}
