package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/config"
	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/messages"
	"github.com/angristan/magichome/internal/tui/screens"
)

// DefaultPollInterval is how often light state is refreshed
const DefaultPollInterval = 5 * time.Second

// Screen represents the current screen state
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenMain
	ScreenPatterns
)

// Options tunes the application
type Options struct {
	// Applied to every session the app creates
	DeviceOptions []api.DeviceOption
	// Used by the setup screen
	Discovery api.DiscoveryOptions
	// Zero means DefaultPollInterval
	PollInterval time.Duration
	// Keep config changes in memory only
	ReadOnly bool
	// Builds a session for a configured light, NewDevice by default
	NewController func(cfg *config.Config, light config.LightConfig) api.Controller
	Logger        *slog.Logger
}

// Model is the main application model
type Model struct {
	config *config.Config
	opts   Options
	logger *slog.Logger

	// Sessions keyed by configured address, in config order
	controllers screens.Controllers
	order       []string
	pending     *PendingTracker
	polling     bool

	screen Screen

	setupScreen    screens.SetupModel
	mainScreen     screens.MainModel
	patternsScreen screens.PatternsModel
	patternTarget  messages.ShowPatternsMsg

	width  int
	height int

	err error

	ctx    context.Context
	cancel context.CancelFunc
}

// pollTickMsg triggers a periodic refresh
type pollTickMsg struct{}

// NewModel creates a new application model
func NewModel(cfg *config.Config, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.NewController == nil {
		opts.NewController = newDevice(opts.DeviceOptions)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	m := Model{
		config:      cfg,
		opts:        opts,
		logger:      opts.Logger,
		controllers: make(screens.Controllers),
		pending:     NewPendingTracker(),
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.HasLights() {
		m.screen = ScreenMain
		for _, light := range cfg.Lights {
			m.addController(light)
		}
	} else {
		m.screen = ScreenSetup
	}

	m.setupScreen = screens.NewSetupModel(opts.Discovery)
	m.mainScreen = screens.NewMainModel()
	m.patternsScreen = screens.NewPatternsModel()

	return m
}

func newDevice(extra []api.DeviceOption) func(*config.Config, config.LightConfig) api.Controller {
	return func(cfg *config.Config, light config.LightConfig) api.Controller {
		opts := append(cfg.DeviceOptions(light), extra...)
		return api.NewDevice(light.Host, opts...)
	}
}

func (m *Model) addController(light config.LightConfig) {
	if _, exists := m.controllers[light.Host]; !exists {
		m.order = append(m.order, light.Host)
	}
	m.controllers[light.Host] = m.opts.NewController(m.config, light)
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("Magic Home"),
	}

	switch m.screen {
	case ScreenSetup:
		cmds = append(cmds, m.setupScreen.Init())
	case ScreenMain:
		cmds = append(cmds, m.mainScreen.Init(), m.connectCmd())
	}

	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.mainScreen.SetSize(msg.Width, msg.Height)
		m.setupScreen.SetSize(msg.Width, msg.Height)
		m.patternsScreen.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case messages.LightsAddedMsg:
		for _, found := range msg.Lights {
			light := config.LightConfig{Host: found.Address()}
			if existing, err := m.config.GetLight(light.Host); err == nil {
				light = *existing
			}
			m.config.AddLight(light)
			m.addController(light)
		}
		if len(msg.Lights) > 0 {
			m.config.LastLight = msg.Lights[0].Address()
		}
		m.saveConfig()

		m.screen = ScreenMain
		m.mainScreen.SetLoading(true)
		cmds = append(cmds, m.mainScreen.Init(), m.connectCmd())

	case messages.LightsConnectedMsg:
		lights := make([]*models.Light, len(msg.Lights))
		for i := range msg.Lights {
			lights[i] = &msg.Lights[i]
		}
		m.mainScreen.SetData(lights)
		m.reportError(msg.Err)
		if !m.polling {
			m.polling = true
			cmds = append(cmds, m.pollCmd())
		}

	case messages.LightsRefreshedMsg:
		for key, c := range msg.Reconnected {
			if old, ok := m.controllers[key]; ok && old != c {
				_ = old.Close()
			}
			m.controllers[key] = c
		}
		for _, polled := range msg.Lights {
			if local := m.mainScreen.Light(polled.Address); local != nil {
				m.mainScreen.UpdateLight(m.pending.Merge(*local, polled))
			}
		}
		m.mainScreen.SetLoading(false)
		m.reportError(msg.Err)

	case messages.LightUpdatedMsg:
		for _, l := range msg.Lights {
			m.pending.Clear(l.Address)
			m.mainScreen.UpdateLight(l)
		}
		m.reportError(msg.Err)

	case pollTickMsg:
		m.pending.Cleanup()
		cmds = append(cmds, m.refreshCmd(), m.pollCmd())

	case messages.ErrorMsg:
		m.reportError(msg.Err)

	case messages.ShowPatternsMsg:
		m.screen = ScreenPatterns
		m.patternTarget = msg
		target := msg.Group
		if msg.Address != "" {
			target = msg.Address
			if l := m.mainScreen.Light(msg.Address); l != nil {
				target = l.DisplayName()
			}
		}
		m.patternsScreen.SetTarget(target)
		return m, nil

	case messages.HidePatternsMsg:
		m.screen = ScreenMain
		return m, nil

	case messages.PatternSelectedMsg:
		m.screen = ScreenMain
		cmds = append(cmds, m.applyPatternCmd(msg))
		return m, tea.Batch(cmds...)

	case messages.RefreshMsg:
		m.mainScreen.SetLoading(true)
		cmds = append(cmds, m.refreshCmd())
	}

	switch m.screen {
	case ScreenSetup:
		var cmd tea.Cmd
		m.setupScreen, cmd = m.setupScreen.Update(msg)
		cmds = append(cmds, cmd)

	case ScreenMain:
		var cmd tea.Cmd
		m.mainScreen, cmd = m.mainScreen.Update(msg, m.controllers, m.addPending)
		cmds = append(cmds, cmd)

	case ScreenPatterns:
		var cmd tea.Cmd
		m.patternsScreen, cmd = m.patternsScreen.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case ScreenSetup:
		return m.setupScreen.View()
	case ScreenMain:
		return m.mainScreen.View()
	case ScreenPatterns:
		return m.patternsScreen.View()
	default:
		return "Unknown screen"
	}
}

// Err returns the last error reported
func (m Model) Err() error {
	return m.err
}

func (m *Model) addPending(address, field string, value any, dir screens.Direction) {
	m.pending.AddWithDirection(address, field, value, dir)
}

func (m *Model) reportError(err error) {
	if err == nil {
		return
	}
	m.err = err
	m.logger.Warn("light operation failed", "error", err)
	m.mainScreen.SetNotice(err.Error())
}

func (m *Model) saveConfig() {
	if m.opts.ReadOnly {
		return
	}
	if err := m.config.Save(); err != nil {
		m.reportError(fmt.Errorf("save config: %w", err))
	}
}

// Close cancels in-flight commands and closes every session
func (m Model) Close() error {
	m.cancel()
	var errs []error
	for _, c := range m.controllers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// sessions returns the current sessions in config order
func (m Model) sessions() ([]string, []api.Controller) {
	keys := make([]string, 0, len(m.order))
	ctrls := make([]api.Controller, 0, len(m.order))
	for _, key := range m.order {
		if c, ok := m.controllers[key]; ok {
			keys = append(keys, key)
			ctrls = append(ctrls, c)
		}
	}
	return keys, ctrls
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

// connectCmd dials every configured light concurrently
func (m Model) connectCmd() tea.Cmd {
	keys, ctrls := m.sessions()
	ctx := m.ctx
	return func() tea.Msg {
		err := api.NewGroup("", ctrls...).Connect(ctx)

		lights := make([]models.Light, len(ctrls))
		for i, c := range ctrls {
			lights[i] = screens.Snapshot(keys[i], c)
		}
		return messages.LightsConnectedMsg{Lights: lights, Err: err}
	}
}

// refreshCmd polls connected lights and replaces sessions that dropped
func (m Model) refreshCmd() tea.Cmd {
	keys, ctrls := m.sessions()
	ctx := m.ctx
	cfg := m.config
	newController := m.opts.NewController

	return func() tea.Msg {
		live := api.NewGroup("")
		var liveKeys []string
		reconnected := make(map[string]api.Controller)

		var errs []error
		for i, c := range ctrls {
			if c.State().Connected {
				live.Add(c)
				liveKeys = append(liveKeys, keys[i])
				continue
			}

			light, err := cfg.GetLight(keys[i])
			if err != nil {
				continue
			}
			fresh := newController(cfg, *light)
			if err := fresh.Connect(ctx); err != nil {
				_ = fresh.Close()
				errs = append(errs, fmt.Errorf("%s: %w", keys[i], err))
				continue
			}
			reconnected[keys[i]] = fresh
		}

		errs = append(errs, live.Refresh(ctx))

		var lights []models.Light
		for i, c := range live.Members() {
			lights = append(lights, screens.Snapshot(liveKeys[i], c))
		}
		for key, c := range reconnected {
			lights = append(lights, screens.Snapshot(key, c))
		}
		return messages.LightsRefreshedMsg{Lights: lights, Reconnected: reconnected, Err: errors.Join(errs...)}
	}
}

// applyPatternCmd runs the picked preset on a light or a group
func (m Model) applyPatternCmd(msg messages.PatternSelectedMsg) tea.Cmd {
	var keys []string
	if m.patternTarget.Address != "" {
		keys = []string{m.patternTarget.Address}
	} else {
		for _, key := range m.order {
			if l := m.mainScreen.Light(key); l != nil && groupName(l) == m.patternTarget.Group {
				keys = append(keys, key)
			}
		}
	}

	group := api.NewGroup(m.patternTarget.Group)
	var members []string
	for _, key := range keys {
		if c, ok := m.controllers[key]; ok {
			group.Add(c)
			members = append(members, key)
		}
	}
	if group.Len() == 0 {
		return nil
	}

	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, screens.CommandTimeout)
		defer cancel()

		err := group.SetPresetPattern(ctx, msg.Pattern, msg.Speed)
		lights := make([]models.Light, len(members))
		for i, c := range group.Members() {
			lights[i] = screens.Snapshot(members[i], c)
		}
		return messages.LightUpdatedMsg{Lights: lights, Err: err}
	}
}

func groupName(l *models.Light) string {
	if l.Group == "" {
		return models.DefaultGroup
	}
	return l.Group
}
