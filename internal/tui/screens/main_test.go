package screens

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/messages"
)

// recorder is a session that records the commands it receives
type recorder struct {
	mu    sync.Mutex
	light models.Light
	calls []string
}

func (r *recorder) record(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) Connect(context.Context) error { return r.record("connect") }
func (r *recorder) Refresh(context.Context) error { return r.record("refresh") }
func (r *recorder) SetPower(_ context.Context, on bool) error {
	return r.record("power %v", on)
}
func (r *recorder) SetColor(_ context.Context, c models.Color) error {
	return r.record("color %s", c.Hex())
}
func (r *recorder) SetWarmWhite(_ context.Context, level uint8) error {
	return r.record("warm %d", level)
}
func (r *recorder) SetColdWhite(_ context.Context, level uint8) error {
	return r.record("cold %d", level)
}
func (r *recorder) SetBrightness(_ context.Context, pct uint8) error {
	return r.record("brightness %d", pct)
}
func (r *recorder) SetPresetPattern(_ context.Context, p models.PresetPattern, speed uint8) error {
	return r.record("preset %s %d", p, speed)
}
func (r *recorder) SetCustomPattern(context.Context, []models.Color, models.TransitionType, uint8) error {
	return r.record("custom")
}
func (r *recorder) SetClock(context.Context, time.Time) error { return r.record("set clock") }
func (r *recorder) Clock(context.Context) (time.Time, error)  { return time.Time{}, nil }
func (r *recorder) Address() string                           { return r.light.Address }
func (r *recorder) State() models.Light {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.light
}
func (r *recorder) Close() error { return nil }

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type pendingCall struct {
	address, field string
	value          any
	dir            Direction
}

type pendingLog []pendingCall

func (p *pendingLog) add(address, field string, value any, dir Direction) {
	*p = append(*p, pendingCall{address, field, value, dir})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// testDashboard shows two lights in one group: a red strip that is on and
// a warm white bulb that is off.
func testDashboard() (MainModel, Controllers, map[string]*recorder) {
	lights := []*models.Light{
		{Address: "10.0.0.1", Name: "Desk", Group: "Office", Connected: true, On: true, Mode: models.ModeColor, Color: models.ColorRed},
		{Address: "10.0.0.2", Name: "Shelf", Group: "Office", Connected: true, Mode: models.ModeWarmWhite, WarmWhite: 255},
	}

	recs := make(map[string]*recorder)
	ctrls := make(Controllers)
	for _, l := range lights {
		r := &recorder{light: *l}
		recs[l.Address] = r
		ctrls[l.Address] = r
	}

	m := NewMainModel()
	m.SetSize(120, 40)
	m.SetData(lights)
	return m, ctrls, recs
}

func runUpdate(t *testing.T, cmd tea.Cmd) messages.LightUpdatedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(messages.LightUpdatedMsg)
	if !ok {
		t.Fatalf("command returned %T, want LightUpdatedMsg", cmd())
	}
	return msg
}

func TestMainNavigation(t *testing.T) {
	m, ctrls, _ := testDashboard()

	if !m.IsGroupSelected() {
		t.Fatal("group header should be selected first")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	if l := m.SelectedLight(); l == nil || l.Name != "Desk" {
		t.Errorf("selected = %v, want Desk", l)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd}, ctrls, nil)
	if l := m.SelectedLight(); l == nil || l.Name != "Shelf" {
		t.Errorf("selected = %v, want Shelf", l)
	}

	// Can't move past the last item
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	if l := m.SelectedLight(); l == nil || l.Name != "Shelf" {
		t.Errorf("selected = %v, want Shelf", l)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyHome}, ctrls, nil)
	if !m.IsGroupSelected() {
		t.Error("home should select the group header")
	}
}

func TestToggleLight(t *testing.T) {
	m, ctrls, recs := testDashboard()
	var pending pendingLog

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	m, cmd := m.Update(keyRunes(" "), ctrls, pending.add)

	if m.SelectedLight().On {
		t.Error("light should be off locally right away")
	}
	if len(pending) != 1 || pending[0] != (pendingCall{"10.0.0.1", "on", false, DirExact}) {
		t.Errorf("pending = %+v", pending)
	}

	msg := runUpdate(t, cmd)
	if msg.Err != nil {
		t.Errorf("Err = %v", msg.Err)
	}
	if calls := recs["10.0.0.1"].Calls(); len(calls) != 1 || calls[0] != "power false" {
		t.Errorf("calls = %v", calls)
	}
}

func TestBrightnessKeyScalesColor(t *testing.T) {
	m, ctrls, recs := testDashboard()
	var pending pendingLog

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	m, cmd := m.Update(keyRunes("5"), ctrls, pending.add)

	light := m.SelectedLight()
	if light.Color != models.NewColor(128, 0, 0) {
		t.Errorf("color = %v, want 128,0,0", light.Color)
	}
	if len(pending) != 1 || pending[0].field != "brightness" || pending[0].dir != DirDown {
		t.Errorf("pending = %+v", pending)
	}

	runUpdate(t, cmd)
	if calls := recs["10.0.0.1"].Calls(); len(calls) != 1 || calls[0] != "brightness 50" {
		t.Errorf("calls = %v", calls)
	}
}

func TestBrightnessTurnsLightOn(t *testing.T) {
	m, ctrls, recs := testDashboard()
	var pending pendingLog

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd}, ctrls, nil)
	m, cmd := m.Update(keyRunes("3"), ctrls, pending.add)

	light := m.SelectedLight()
	if !light.On {
		t.Error("setting brightness should turn the light on")
	}
	if light.WarmWhite != models.LevelOf(30) {
		t.Errorf("warm white = %d, want %d", light.WarmWhite, models.LevelOf(30))
	}

	runUpdate(t, cmd)
	calls := recs["10.0.0.2"].Calls()
	if len(calls) != 2 || calls[0] != "power true" || calls[1] != "brightness 30" {
		t.Errorf("calls = %v", calls)
	}
}

func TestBrightnessNeedsColorOrWhite(t *testing.T) {
	m, ctrls, recs := testDashboard()
	m.Light("10.0.0.1").Mode = models.ModePreset

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	m, cmd := m.Update(keyRunes("5"), ctrls, nil)

	if cmd != nil {
		if _, ok := cmd().(messages.LightUpdatedMsg); ok {
			t.Error("no command should be sent in preset mode")
		}
	}
	if len(recs["10.0.0.1"].Calls()) != 0 {
		t.Errorf("calls = %v", recs["10.0.0.1"].Calls())
	}
	if m.notice == "" {
		t.Error("expected a notice")
	}
}

func TestGroupPowerOff(t *testing.T) {
	m, ctrls, recs := testDashboard()
	var pending pendingLog

	m, cmd := m.Update(keyRunes("x"), ctrls, pending.add)

	group := m.SelectedGroup()
	if group.AnyOn {
		t.Error("group should be off locally")
	}
	if len(pending) != 2 {
		t.Errorf("pending = %+v, want one per light", pending)
	}

	msg := runUpdate(t, cmd)
	if len(msg.Lights) != 2 {
		t.Errorf("updated lights = %d, want 2", len(msg.Lights))
	}
	for addr, r := range recs {
		if calls := r.Calls(); len(calls) != 1 || calls[0] != "power false" {
			t.Errorf("%s calls = %v", addr, calls)
		}
	}
}

func TestHexColorEntry(t *testing.T) {
	m, ctrls, recs := testDashboard()
	var pending pendingLog

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	m, _ = m.Update(keyRunes("#"), ctrls, nil)
	if !m.colorMode {
		t.Fatal("expected color entry mode")
	}
	m, _ = m.Update(keyRunes("00ff00"), ctrls, nil)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}, ctrls, pending.add)

	if m.colorMode {
		t.Error("enter should leave color entry mode")
	}
	if got := m.SelectedLight().Color; got != models.ColorGreen {
		t.Errorf("color = %v, want green", got)
	}

	runUpdate(t, cmd)
	if calls := recs["10.0.0.1"].Calls(); len(calls) != 1 || calls[0] != "color #00FF00" {
		t.Errorf("calls = %v", calls)
	}
}

func TestHexColorEntryRejectsGarbage(t *testing.T) {
	m, ctrls, _ := testDashboard()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	m, _ = m.Update(keyRunes("#"), ctrls, nil)
	m, _ = m.Update(keyRunes("zz"), ctrls, nil)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}, ctrls, nil)

	if cmd != nil {
		t.Error("invalid hex should not send a command")
	}
	if m.notice == "" {
		t.Error("expected a notice")
	}
}

func TestWarmWhiteOnGroup(t *testing.T) {
	m, ctrls, recs := testDashboard()

	m, cmd := m.Update(keyRunes("w"), ctrls, nil)
	if cmd == nil {
		t.Fatal("expected a command")
	}
	for _, l := range m.SelectedGroup().Lights {
		if l.Mode != models.ModeWarmWhite {
			t.Errorf("%s mode = %v, want WarmWhite", l.Name, l.Mode)
		}
	}

	// One command per light, batched
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch, got %T", cmd())
	}
	for _, c := range batch {
		c()
	}
	if calls := recs["10.0.0.1"].Calls(); len(calls) != 1 || calls[0] != "warm 255" {
		t.Errorf("desk calls = %v", calls)
	}
}

func TestSearchFiltersList(t *testing.T) {
	m, ctrls, _ := testDashboard()

	m, _ = m.Update(keyRunes("/"), ctrls, nil)
	m, _ = m.Update(keyRunes("shelf"), ctrls, nil)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}, ctrls, nil)

	if len(m.items) != 2 {
		t.Fatalf("items = %d, want group header plus one light", len(m.items))
	}
	if m.items[1].light.Name != "Shelf" {
		t.Errorf("filtered light = %s", m.items[1].light.Name)
	}

	m, _ = m.Update(keyRunes("/"), ctrls, nil)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc}, ctrls, nil)
	if len(m.items) != 3 {
		t.Errorf("items = %d after clearing search, want 3", len(m.items))
	}
}

func TestPatternsKeyTargetsSelection(t *testing.T) {
	m, ctrls, _ := testDashboard()

	_, cmd := m.Update(keyRunes("p"), ctrls, nil)
	if got := cmd().(messages.ShowPatternsMsg); got.Group != "Office" || got.Address != "" {
		t.Errorf("group selection = %+v", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, ctrls, nil)
	_, cmd = m.Update(keyRunes("p"), ctrls, nil)
	if got := cmd().(messages.ShowPatternsMsg); got.Address != "10.0.0.1" {
		t.Errorf("light selection = %+v", got)
	}
}

func TestCommandWithoutSession(t *testing.T) {
	m, _, _ := testDashboard()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, Controllers{}, nil)
	_, cmd := m.Update(keyRunes(" "), Controllers{}, nil)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Errorf("expected no message, got %T", msg)
		}
	}
}

func TestUpdateLight(t *testing.T) {
	m, _, _ := testDashboard()

	if !m.UpdateLight(models.Light{Address: "10.0.0.2", Name: "Shelf", Group: "Office", On: true}) {
		t.Fatal("UpdateLight should find the light")
	}
	if !m.Light("10.0.0.2").On {
		t.Error("light should be on")
	}
	if !m.groups[0].AllOn {
		t.Error("group state should be recalculated")
	}
	if m.UpdateLight(models.Light{Address: "10.0.0.9"}) {
		t.Error("unknown light should not be updated")
	}
}

func TestBrightnessFromKey(t *testing.T) {
	tests := map[string]uint8{"1": 10, "5": 50, "9": 90, "0": 100}
	for key, want := range tests {
		if got := brightnessFromKey(key); got != want {
			t.Errorf("brightnessFromKey(%q) = %d, want %d", key, got, want)
		}
	}
}
