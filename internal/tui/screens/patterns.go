package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/components"
	"github.com/angristan/magichome/internal/tui/messages"
	"github.com/angristan/magichome/internal/tui/styles"
)

// DefaultPatternSpeed is the speed the picker opens with
const DefaultPatternSpeed = 50

// PatternsModel is the preset pattern picker modal
type PatternsModel struct {
	patterns []models.PresetPattern
	selected int
	speed    int

	// Shown in the title: a light or group name
	target string

	width  int
	height int
}

// NewPatternsModel creates a new pattern picker
func NewPatternsModel() PatternsModel {
	return PatternsModel{
		patterns: models.PresetPatterns(),
		speed:    DefaultPatternSpeed,
	}
}

// SetSize sets the terminal size
func (m *PatternsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetTarget sets what the picked pattern will be applied to
func (m *PatternsModel) SetTarget(target string) {
	m.target = target
}

// Selected returns the highlighted pattern
func (m PatternsModel) Selected() models.PresetPattern {
	return m.patterns[m.selected]
}

// Speed returns the chosen speed (0-100)
func (m PatternsModel) Speed() uint8 {
	return uint8(m.speed)
}

// Update handles messages
func (m PatternsModel) Update(msg tea.Msg) (PatternsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "p", "q":
			return m, func() tea.Msg { return messages.HidePatternsMsg{} }

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.patterns)-1 {
				m.selected++
			}

		case "left", "h", "-":
			m.speed = max(m.speed-10, 0)

		case "right", "l", "+", "=":
			m.speed = min(m.speed+10, 100)

		case "enter":
			selected := messages.PatternSelectedMsg{Pattern: m.Selected(), Speed: m.Speed()}
			return m, func() tea.Msg { return selected }
		}
	}

	return m, nil
}

// View renders the picker modal
func (m PatternsModel) View() string {
	var b strings.Builder

	title := "Preset Patterns"
	if m.target != "" {
		title = m.target + " Patterns"
	}
	b.WriteString(styles.StyleModalTitle.Render(title))
	b.WriteString("\n\n")

	// Keep the selection in view on short terminals
	visible := max(m.height-14, 5)
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := min(start+visible, len(m.patterns))

	for i := start; i < end; i++ {
		style := styles.StyleListItem
		cursor := "  "
		if i == m.selected {
			style = styles.StyleListItemSelected
			cursor = "> "
		}
		b.WriteString(cursor + style.Render(m.patterns[i].String()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("Speed: %3d%% ", m.speed)))
	b.WriteString(components.RenderBrightnessBar(m.speed, true, 20))
	b.WriteString("\n\n")
	b.WriteString(styles.StyleHelp.Render("↑/↓ navigate • ←/→ speed • enter apply • esc close"))

	modalWidth := min(max(m.width*70/100, 40), 60)
	modal := styles.StyleModal.Width(modalWidth).Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
