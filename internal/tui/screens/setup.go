package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/tui/messages"
	"github.com/angristan/magichome/internal/tui/styles"
)

// SetupState represents the current setup state
type SetupState int

const (
	StateDiscovering SetupState = iota
	StateLightList
	StateManualEntry
)

// SetupModel is the first-run screen: find controllers and pick which to keep
type SetupModel struct {
	state    SetupState
	opts     api.DiscoveryOptions
	lights   []api.DiscoveredLight
	checked  map[int]bool
	selected int
	input    textinput.Model
	spinner  spinner.Model
	err      error

	width  int
	height int
}

// NewSetupModel creates a new setup screen model
func NewSetupModel(opts api.DiscoveryOptions) SetupModel {
	ti := textinput.New()
	ti.Placeholder = "192.168.1.x"
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return SetupModel{
		state:   StateDiscovering,
		opts:    opts,
		checked: make(map[int]bool),
		input:   ti,
		spinner: sp,
	}
}

// Init initializes the setup screen
func (m SetupModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.discoverCmd(),
	)
}

// SetSize sets the terminal size
func (m *SetupModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case StateLightList:
			switch msg.String() {
			case "up", "k":
				if m.selected > 0 {
					m.selected--
				}
			case "down", "j":
				if m.selected < len(m.lights) {
					m.selected++
				}
			case " ":
				if m.selected < len(m.lights) {
					m.checked[m.selected] = !m.checked[m.selected]
				}
			case "a":
				if len(m.lights) > 0 {
					return m, m.addCmd(m.lights)
				}
			case "enter":
				if m.selected >= len(m.lights) {
					return m.startManualEntry()
				}
				return m, m.addCmd(m.chosen())
			case "m":
				return m.startManualEntry()
			case "r":
				m.state = StateDiscovering
				m.err = nil
				cmds = append(cmds, m.spinner.Tick, m.discoverCmd())
			case "q", "ctrl+c":
				return m, tea.Quit
			}

		case StateManualEntry:
			switch msg.String() {
			case "enter":
				host := strings.TrimSpace(m.input.Value())
				if host != "" {
					m.input.Blur()
					return m, m.addCmd([]api.DiscoveredLight{{Host: host, Source: "manual"}})
				}
			case "esc":
				m.state = StateLightList
				m.input.Blur()
				return m, nil
			}
		}

	case LightsDiscoveredMsg:
		m.lights = msg.Lights
		m.checked = make(map[int]bool)
		m.selected = 0
		m.err = msg.Err
		m.state = StateLightList

	case spinner.TickMsg:
		if m.state == StateDiscovering {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.state == StateManualEntry {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m SetupModel) startManualEntry() (SetupModel, tea.Cmd) {
	m.state = StateManualEntry
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

// chosen returns the checked lights, or the highlighted one if none are
func (m SetupModel) chosen() []api.DiscoveredLight {
	var out []api.DiscoveredLight
	for i, l := range m.lights {
		if m.checked[i] {
			out = append(out, l)
		}
	}
	if len(out) == 0 && m.selected < len(m.lights) {
		out = append(out, m.lights[m.selected])
	}
	return out
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	header := styles.StyleHeaderGradient.Render("  Magic Home Setup  ")
	b.WriteString(lipgloss.Place(m.width, 3, lipgloss.Center, lipgloss.Top, header))
	b.WriteString("\n\n")

	var content string
	switch m.state {
	case StateDiscovering:
		content = fmt.Sprintf("%s Searching for controllers...", m.spinner.View())
	case StateLightList:
		content = m.renderLightList()
	case StateManualEntry:
		content = m.renderManualEntry()
	}

	b.WriteString(lipgloss.Place(m.width, max(m.height-6, 1), lipgloss.Center, lipgloss.Center, content))

	return b.String()
}

func (m SetupModel) renderLightList() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.StyleError.Render("✗ " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.lights) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("No controllers found.\n\n"))
	} else {
		b.WriteString("Found controllers:\n\n")
		for i, light := range m.lights {
			cursor := "  "
			style := styles.StyleLightName
			if i == m.selected {
				cursor = "> "
				style = styles.StyleListItemSelected
			}
			check := "[ ] "
			if m.checked[i] {
				check = "[x] "
			}
			name := light.Address()
			if light.Model != "" {
				name = fmt.Sprintf("%s  %s", name, light.Model)
			}
			if light.ID != "" {
				name = fmt.Sprintf("%s (%s)", name, light.ID)
			}
			b.WriteString(cursor + check + style.Render(name) + "\n")
		}
	}

	cursor := "  "
	style := styles.StyleLightName
	if m.selected >= len(m.lights) {
		cursor = "> "
		style = styles.StyleListItemSelected
	}
	b.WriteString("\n" + cursor + style.Render("Enter address manually...") + "\n")

	b.WriteString("\n" + styles.StyleHelp.Render("↑/↓ navigate • space check • enter add • a add all • r rescan • m manual"))

	return b.String()
}

func (m SetupModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString("Enter controller address (host or host:port):\n\n")
	b.WriteString(styles.StyleInputFocused.Render(m.input.View()))
	b.WriteString("\n\n" + styles.StyleHelp.Render("enter confirm • esc back"))

	return b.String()
}

// Commands

func (m SetupModel) discoverCmd() tea.Cmd {
	opts := m.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
		defer cancel()

		lights, err := api.DiscoverAll(ctx, opts)
		return LightsDiscoveredMsg{Lights: lights, Err: err}
	}
}

func (m SetupModel) addCmd(lights []api.DiscoveredLight) tea.Cmd {
	return func() tea.Msg {
		return messages.LightsAddedMsg{Lights: lights}
	}
}

// Messages

// LightsDiscoveredMsg carries a discovery run's results
type LightsDiscoveredMsg struct {
	Lights []api.DiscoveredLight
	Err    error
}
