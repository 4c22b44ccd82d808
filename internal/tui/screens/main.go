package screens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/components"
	"github.com/angristan/magichome/internal/tui/messages"
	"github.com/angristan/magichome/internal/tui/styles"
)

// CommandTimeout bounds a single command issued from the dashboard
const CommandTimeout = 5 * time.Second

// Direction represents the direction of a change
type Direction int

const (
	DirExact Direction = iota // Exact match required
	DirUp                     // Value is increasing
	DirDown                   // Value is decreasing
)

// PendingAdder registers an optimistic update so a stale poll doesn't undo it
type PendingAdder func(address, field string, value any, dir Direction)

// Controllers maps a light's configured address to its session
type Controllers map[string]api.Controller

// Snapshot returns c's state keyed by the configured address, which may
// carry a port the session reports separately.
func Snapshot(key string, c api.Controller) models.Light {
	l := c.State()
	l.Address = key
	return l
}

// Color presets cycled with "n"
var colorPresets = []models.Color{
	models.ColorRed,
	models.ColorGreen,
	models.ColorBlue,
	models.ColorPurple,
	models.ColorCyan,
	models.ColorYellow,
	models.ColorWhite,
}

// listItem represents either a group header or a light in the unified list
type listItem struct {
	isGroup bool
	group   *models.Group
	light   *models.Light
}

// MainModel is the main dashboard screen model
type MainModel struct {
	groups        []*models.Group
	selectedIndex int
	scrollOffset  int
	items         []listItem

	showPanel   bool
	searchMode  bool
	searchInput textinput.Model
	searchQuery string

	// Hex color entry
	colorMode  bool
	colorInput textinput.Model

	presetIndex int

	loading bool
	spinner spinner.Model

	// Last error shown in the status bar
	notice string

	width  int
	height int
}

// NewMainModel creates a new main screen model
func NewMainModel() MainModel {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 50

	ci := textinput.New()
	ci.Placeholder = "#RRGGBB"
	ci.CharLimit = 7

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return MainModel{
		searchInput: ti,
		colorInput:  ci,
		showPanel:   true,
		loading:     true,
		spinner:     sp,
	}
}

// Init initializes the main screen
func (m MainModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *MainModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// visibleLines returns how many items fit in the viewport
func (m *MainModel) visibleLines() int {
	contentHeight := m.height - 5
	if m.searchMode || m.searchQuery != "" || m.colorMode {
		contentHeight--
	}
	contentHeight = max(contentHeight, 3)

	// Scroll indicators
	contentHeight -= 2

	// Group headers take 2 lines, lights 1
	return max(contentHeight*3/4, 2)
}

// ensureVisible adjusts scrollOffset so selectedIndex is visible
func (m *MainModel) ensureVisible() {
	visible := m.visibleLines()

	if m.selectedIndex < m.scrollOffset {
		m.scrollOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.scrollOffset+visible {
		m.scrollOffset = m.selectedIndex - visible + 1
	}

	maxScroll := max(len(m.items)-visible, 0)
	m.scrollOffset = min(max(m.scrollOffset, 0), maxScroll)
}

// SetData replaces the displayed lights
func (m *MainModel) SetData(lights []*models.Light) {
	m.groups = models.GroupLights(lights)
	m.loading = false
	m.rebuildLightList()
}

// UpdateLight replaces one light's state in place. It reports false when the
// address is not displayed.
func (m *MainModel) UpdateLight(l models.Light) bool {
	for _, g := range m.groups {
		if existing := g.LightByAddress(l.Address); existing != nil {
			*existing = l
			g.UpdateState()
			return true
		}
	}
	return false
}

// Light returns the displayed light for address
func (m *MainModel) Light(address string) *models.Light {
	for _, g := range m.groups {
		if l := g.LightByAddress(address); l != nil {
			return l
		}
	}
	return nil
}

func (m *MainModel) SetLoading(loading bool) {
	m.loading = loading
}

// SetNotice shows msg in the status bar until the next one
func (m *MainModel) SetNotice(msg string) {
	m.notice = msg
}

func (m *MainModel) rebuildLightList() {
	m.items = nil
	query := strings.ToLower(m.searchQuery)

	for _, group := range m.groups {
		var matching []*models.Light
		for _, light := range group.Lights {
			if query == "" ||
				strings.Contains(strings.ToLower(light.DisplayName()), query) ||
				strings.Contains(light.Address, query) {
				matching = append(matching, light)
			}
		}
		if len(matching) == 0 {
			continue
		}

		m.items = append(m.items, listItem{isGroup: true, group: group})
		for _, light := range matching {
			m.items = append(m.items, listItem{light: light, group: group})
		}
	}

	if m.selectedIndex >= len(m.items) {
		m.selectedIndex = max(0, len(m.items)-1)
	}
	m.ensureVisible()
}

func (m *MainModel) SelectedItem() *listItem {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.items) {
		return &m.items[m.selectedIndex]
	}
	return nil
}

func (m *MainModel) SelectedLight() *models.Light {
	if item := m.SelectedItem(); item != nil && !item.isGroup {
		return item.light
	}
	return nil
}

func (m *MainModel) SelectedGroup() *models.Group {
	if item := m.SelectedItem(); item != nil {
		return item.group
	}
	return nil
}

func (m *MainModel) IsGroupSelected() bool {
	if item := m.SelectedItem(); item != nil {
		return item.isGroup
	}
	return false
}

func (m MainModel) Update(msg tea.Msg, ctrls Controllers, addPending PendingAdder) (MainModel, tea.Cmd) {
	var cmds []tea.Cmd
	if addPending == nil {
		addPending = func(string, string, any, Direction) {}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}
		if m.colorMode {
			return m.updateColorEntry(msg, ctrls, addPending)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.ensureVisible()
			}

		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
				m.ensureVisible()
			}

		case "pgup":
			m.selectedIndex = max(m.selectedIndex-m.visibleLines(), 0)
			m.ensureVisible()

		case "pgdown":
			m.selectedIndex = max(min(m.selectedIndex+m.visibleLines(), len(m.items)-1), 0)
			m.ensureVisible()

		case "home":
			m.selectedIndex = 0
			m.ensureVisible()

		case "end":
			m.selectedIndex = max(len(m.items)-1, 0)
			m.ensureVisible()

		case "left", "h":
			if m.IsGroupSelected() {
				for _, light := range m.SelectedGroup().Lights {
					if light.On {
						cmds = append(cmds, m.stepBrightness(ctrls, light, -10, 10, addPending))
					}
				}
			} else if light := m.SelectedLight(); light != nil && light.On {
				cmds = append(cmds, m.stepBrightness(ctrls, light, -10, 0, addPending))
			}

		case "right", "l":
			if m.IsGroupSelected() {
				for _, light := range m.SelectedGroup().Lights {
					if light.On {
						cmds = append(cmds, m.stepBrightness(ctrls, light, 10, 10, addPending))
					}
				}
			} else if light := m.SelectedLight(); light != nil {
				cmds = append(cmds, m.stepBrightness(ctrls, light, 10, 0, addPending))
			}

		case " ":
			if m.IsGroupSelected() {
				group := m.SelectedGroup()
				cmds = append(cmds, m.setGroupPower(ctrls, group, !group.AnyOn, addPending))
			} else if light := m.SelectedLight(); light != nil {
				light.On = !light.On
				addPending(light.Address, "on", light.On, DirExact)
				on := light.On
				cmds = append(cmds, lightCmd(ctrls, light.Address, func(ctx context.Context, c api.Controller) error {
					return c.SetPower(ctx, on)
				}))
			}

		case "a":
			if group := m.SelectedGroup(); group != nil {
				cmds = append(cmds, m.setGroupPower(ctrls, group, true, addPending))
			}

		case "x":
			if group := m.SelectedGroup(); group != nil {
				cmds = append(cmds, m.setGroupPower(ctrls, group, false, addPending))
			}

		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if light := m.SelectedLight(); light != nil {
				pct := brightnessFromKey(msg.String())
				cmds = append(cmds, m.setBrightness(ctrls, light, pct, addPending))
			}

		case "[", "]":
			if light := m.SelectedLight(); light != nil {
				deg := 20
				if msg.String() == "[" {
					deg = -20
				}
				base := light.Color
				if light.Mode != models.ModeColor || base.IsEmpty() {
					base = models.ColorRed.Scale(100, max(light.Brightness(), 10))
				}
				cmds = append(cmds, m.setColor(ctrls, []*models.Light{light}, base.RotateHue(deg), addPending))
			}

		case "n":
			preset := colorPresets[m.presetIndex%len(colorPresets)]
			m.presetIndex++
			cmds = append(cmds, m.setColor(ctrls, m.targets(), preset, addPending))

		case "w":
			cmds = append(cmds, m.setWhite(ctrls, m.targets(), true, addPending))

		case "c":
			cmds = append(cmds, m.setWhite(ctrls, m.targets(), false, addPending))

		case "#":
			m.colorMode = true
			m.colorInput.SetValue("")
			m.colorInput.Focus()
			return m, textinput.Blink

		case "p":
			show := messages.ShowPatternsMsg{}
			if light := m.SelectedLight(); light != nil {
				show.Address = light.Address
			} else if group := m.SelectedGroup(); group != nil {
				show.Group = group.Name
			}
			return m, func() tea.Msg { return show }

		case "t":
			now := time.Now()
			cmds = append(cmds, targetsCmd(ctrls, m.targets(), func(ctx context.Context, c api.Controller) error {
				return c.SetClock(ctx, now)
			}))

		case "/":
			m.searchMode = true
			m.searchInput.Focus()
			return m, textinput.Blink

		case "tab":
			m.showPanel = !m.showPanel

		case "r":
			m.loading = true
			return m, tea.Batch(func() tea.Msg { return messages.RefreshMsg{} }, m.spinner.Tick)
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m MainModel) updateSearch(msg tea.KeyMsg) (MainModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchQuery = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.rebuildLightList()
		return m, nil
	case "enter":
		m.searchMode = false
		m.searchQuery = m.searchInput.Value()
		m.searchInput.Blur()
		m.rebuildLightList()
		return m, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.searchQuery = m.searchInput.Value()
		m.rebuildLightList()
		return m, cmd
	}
}

func (m MainModel) updateColorEntry(msg tea.KeyMsg, ctrls Controllers, addPending PendingAdder) (MainModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.colorMode = false
		m.colorInput.Blur()
		return m, nil
	case "enter":
		m.colorMode = false
		m.colorInput.Blur()
		color, err := models.ParseHex(m.colorInput.Value())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		return m, m.setColor(ctrls, m.targets(), color, addPending)
	default:
		var cmd tea.Cmd
		m.colorInput, cmd = m.colorInput.Update(msg)
		return m, cmd
	}
}

// targets returns the selected light, or every light of the selected group
func (m *MainModel) targets() []*models.Light {
	if light := m.SelectedLight(); light != nil {
		return []*models.Light{light}
	}
	if group := m.SelectedGroup(); group != nil {
		return group.Lights
	}
	return nil
}

// stepBrightness moves a light's brightness by delta percent, never below
// floor. Reaching zero turns the light off; stepping up from off turns it on
// at 10%.
func (m *MainModel) stepBrightness(ctrls Controllers, light *models.Light, delta, floor int, addPending PendingAdder) tea.Cmd {
	if !light.On {
		if delta <= 0 {
			return nil
		}
		return m.setBrightness(ctrls, light, 10, addPending)
	}

	pct := min(max(int(light.Brightness())+delta, floor), 100)
	if pct <= 0 {
		light.On = false
		addPending(light.Address, "on", false, DirExact)
		return lightCmd(ctrls, light.Address, func(ctx context.Context, c api.Controller) error {
			return c.SetPower(ctx, false)
		})
	}
	return m.setBrightness(ctrls, light, uint8(pct), addPending)
}

// setBrightness turns the light on if needed and rescales its output to pct
func (m *MainModel) setBrightness(ctrls Controllers, light *models.Light, pct uint8, addPending PendingAdder) tea.Cmd {
	wasOn := light.On
	old := light.Brightness()

	if !applyBrightness(light, pct) {
		m.notice = fmt.Sprintf("%s: brightness needs a color or white mode", light.DisplayName())
		return nil
	}
	if !wasOn {
		light.On = true
		addPending(light.Address, "on", true, DirExact)
	}
	dir := DirExact
	if pct > old {
		dir = DirUp
	} else if pct < old {
		dir = DirDown
	}
	addPending(light.Address, "brightness", light.Brightness(), dir)

	return lightCmd(ctrls, light.Address, func(ctx context.Context, c api.Controller) error {
		if !wasOn {
			if err := c.SetPower(ctx, true); err != nil {
				return err
			}
		}
		return c.SetBrightness(ctx, pct)
	})
}

func (m *MainModel) setColor(ctrls Controllers, lights []*models.Light, color models.Color, addPending PendingAdder) tea.Cmd {
	for _, light := range lights {
		light.Mode = models.ModeColor
		light.Color = color
		light.WarmWhite = 0
		addPending(light.Address, "color", color, DirExact)
	}
	return targetsCmd(ctrls, lights, func(ctx context.Context, c api.Controller) error {
		return c.SetColor(ctx, color)
	})
}

// setWhite switches lights to warm (or cold) white, keeping their brightness
func (m *MainModel) setWhite(ctrls Controllers, lights []*models.Light, warm bool, addPending PendingAdder) tea.Cmd {
	var cmds []tea.Cmd
	for _, light := range lights {
		pct := light.Brightness()
		if pct == 0 {
			pct = 100
		}
		level := models.LevelOf(pct)

		if warm && light.Protocol != models.ProtocolLEDENETOriginal {
			light.Mode = models.ModeWarmWhite
			light.Color = models.ColorEmpty
			light.WarmWhite = level
			addPending(light.Address, "color", models.ColorEmpty, DirExact)
		} else {
			light.Mode = models.ModeColor
			light.Color = models.NewColor(level, level, level)
			light.WarmWhite = 0
			addPending(light.Address, "color", light.Color, DirExact)
		}

		cmds = append(cmds, lightCmd(ctrls, light.Address, func(ctx context.Context, c api.Controller) error {
			if warm {
				return c.SetWarmWhite(ctx, level)
			}
			return c.SetColdWhite(ctx, level)
		}))
	}
	return tea.Batch(cmds...)
}

func (m *MainModel) setGroupPower(ctrls Controllers, group *models.Group, on bool, addPending PendingAdder) tea.Cmd {
	for _, l := range group.Lights {
		l.On = on
		addPending(l.Address, "on", on, DirExact)
	}
	group.UpdateState()
	return targetsCmd(ctrls, group.Lights, func(ctx context.Context, c api.Controller) error {
		return c.SetPower(ctx, on)
	})
}

// applyBrightness rescales light's output to pct the way the device does.
// It reports false for modes that have no brightness of their own.
func applyBrightness(light *models.Light, pct uint8) bool {
	current := light.Brightness()
	switch light.Mode {
	case models.ModeColor:
		light.Color = light.Color.Scale(current, pct)
	case models.ModeWarmWhite:
		light.WarmWhite = models.ScaleLevel(light.WarmWhite, current, pct)
	default:
		return false
	}
	return true
}

// lightCmd runs fn against one light's session and reports its new state
func lightCmd(ctrls Controllers, key string, fn func(ctx context.Context, c api.Controller) error) tea.Cmd {
	c, ok := ctrls[key]
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
		defer cancel()

		err := fn(ctx, c)
		if err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return messages.LightUpdatedMsg{Lights: []models.Light{Snapshot(key, c)}, Err: err}
	}
}

// targetsCmd runs fn against several lights through an api.Group
func targetsCmd(ctrls Controllers, lights []*models.Light, fn func(ctx context.Context, c api.Controller) error) tea.Cmd {
	var keys []string
	group := api.NewGroup("")
	for _, l := range lights {
		if c, ok := ctrls[l.Address]; ok {
			keys = append(keys, l.Address)
			group.Add(c)
		}
	}
	if group.Len() == 0 {
		return nil
	}
	if group.Len() == 1 {
		return lightCmd(ctrls, keys[0], fn)
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
		defer cancel()

		err := group.Each(ctx, fn)
		states := make([]models.Light, len(keys))
		for i, c := range group.Members() {
			states[i] = Snapshot(keys[i], c)
		}
		return messages.LightUpdatedMsg{Lights: states, Err: err}
	}
}

func (m MainModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderHeader(m.width, m.headerStatus(), m.loading))
	b.WriteString("\n")

	switch {
	case m.searchMode:
		b.WriteString(styles.StyleSearch.Render("/ ") + m.searchInput.View())
		b.WriteString("\n")
	case m.colorMode:
		b.WriteString(styles.StyleSearch.Render("color ") + m.colorInput.View())
		b.WriteString("\n")
	case m.searchQuery != "":
		b.WriteString(styles.StyleSearch.Render("/ " + m.searchQuery + " "))
		b.WriteString(styles.StyleTextMuted.Render("(esc to clear)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	contentWidth := m.width
	panelWidth := 0
	showPanelNow := m.showPanel && m.width >= 80
	if showPanelNow {
		panelWidth = min(max(m.width*30/100, 30), 45)
		contentWidth = m.width - panelWidth - 3
	}

	var content strings.Builder
	visible := m.visibleLines()
	endIdx := min(m.scrollOffset+visible, len(m.items))

	if m.scrollOffset > 0 {
		content.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("  ↑ %d more above", m.scrollOffset)))
		content.WriteString("\n")
	}

	for idx := m.scrollOffset; idx < endIdx; idx++ {
		item := m.items[idx]
		selected := idx == m.selectedIndex

		if item.isGroup {
			if idx > m.scrollOffset {
				content.WriteString("\n")
			}
			content.WriteString(components.RenderGroupHeader(item.group, selected))
		} else {
			content.WriteString(components.RenderLightRow(item.light, selected, contentWidth))
		}
		content.WriteString("\n")
	}

	if endIdx < len(m.items) {
		content.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("  ↓ %d more below", len(m.items)-endIdx)))
		content.WriteString("\n")
	}

	if len(m.items) == 0 {
		if m.loading {
			content.WriteString(fmt.Sprintf("  %s Connecting to lights...", m.spinner.View()))
		} else {
			content.WriteString(styles.StyleTextMuted.Render("  No lights found"))
		}
		content.WriteString("\n")
	}

	contentHeight := m.height - 5
	if m.searchMode || m.searchQuery != "" || m.colorMode {
		contentHeight--
	}
	contentHeight = max(contentHeight, 3)
	contentStyle := lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight)

	if showPanelNow {
		contentStyle = contentStyle.Width(contentWidth)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, contentStyle.Render(content.String()), "  ", m.renderPanel(panelWidth)))
	} else {
		b.WriteString(contentStyle.Render(content.String()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m MainModel) headerStatus() string {
	if m.loading {
		return ""
	}
	total, connected := 0, 0
	for _, g := range m.groups {
		total += len(g.Lights)
		connected += len(g.ConnectedLights())
	}
	if total > 0 && connected == 0 {
		return ""
	}
	return fmt.Sprintf("● %d/%d connected", connected, total)
}

func (m MainModel) renderPanel(panelWidth int) string {
	panel := styles.StyleSidePanel.Width(panelWidth - 4)

	if m.loading && len(m.items) == 0 {
		return panel.Render(m.spinner.View() + " Loading...")
	}
	if m.IsGroupSelected() {
		return panel.Render(components.RenderGroupDetails(m.SelectedGroup(), panelWidth))
	}
	light := m.SelectedLight()
	if light == nil {
		return panel.Render(styles.StyleTextMuted.Render("No selection"))
	}

	barWidth := min(max(panelWidth-10, 10), 25)
	return panel.Render(components.RenderLightDetails(light, barWidth))
}

func (m MainModel) renderStatusBar() string {
	if m.notice != "" {
		return styles.StyleError.Render(m.notice)
	}

	lightsOn, total := 0, 0
	groupsActive := 0
	for _, g := range m.groups {
		total += len(g.Lights)
		for _, l := range g.Lights {
			if l.On {
				lightsOn++
			}
		}
		if g.AnyOn {
			groupsActive++
		}
	}

	status := fmt.Sprintf("%d/%d lights on", lightsOn, total)
	if len(m.groups) > 1 {
		status += fmt.Sprintf(" • %d/%d groups active", groupsActive, len(m.groups))
	}
	return styles.StyleTextMuted.Render(status)
}

func (m MainModel) renderHelp() string {
	keys := []string{
		styles.StyleHelpKey.Render("↑↓") + " nav",
		styles.StyleHelpKey.Render("←→") + " dim",
		styles.StyleHelpKey.Render("space") + " toggle",
		styles.StyleHelpKey.Render("[]") + " hue",
		styles.StyleHelpKey.Render("n") + " color",
		styles.StyleHelpKey.Render("#") + " hex",
		styles.StyleHelpKey.Render("w/c") + " white",
		styles.StyleHelpKey.Render("p") + " patterns",
		styles.StyleHelpKey.Render("t") + " clock",
		styles.StyleHelpKey.Render("a/x") + " group",
		styles.StyleHelpKey.Render("q") + " quit",
	}

	if m.width < 60 {
		keys = []string{
			styles.StyleHelpKey.Render("↑↓") + " nav",
			styles.StyleHelpKey.Render("space") + " toggle",
			styles.StyleHelpKey.Render("q") + " quit",
		}
	} else if m.width < 100 {
		keys = []string{
			styles.StyleHelpKey.Render("↑↓") + " nav",
			styles.StyleHelpKey.Render("←→") + " dim",
			styles.StyleHelpKey.Render("space") + " toggle",
			styles.StyleHelpKey.Render("n") + " color",
			styles.StyleHelpKey.Render("p") + " patterns",
			styles.StyleHelpKey.Render("q") + " quit",
		}
	}

	return styles.StyleHelp.Render(strings.Join(keys, "  "))
}

func brightnessFromKey(key string) uint8 {
	if key == "0" {
		return 100
	}
	return uint8(key[0]-'0') * 10
}
