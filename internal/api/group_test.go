package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/magichome/internal/models"
)

// fakeController records calls and can be told to fail
type fakeController struct {
	addr string
	fail error

	mu    sync.Mutex
	calls []string
	light models.Light
}

func newFake(addr string) *fakeController {
	return &fakeController{addr: addr, light: models.Light{Address: addr}}
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeController) Connect(context.Context) error { return f.record("connect") }
func (f *fakeController) Refresh(context.Context) error { return f.record("refresh") }
func (f *fakeController) SetPower(_ context.Context, on bool) error {
	f.mu.Lock()
	f.light.On = on
	f.mu.Unlock()
	return f.record("power")
}
func (f *fakeController) SetColor(_ context.Context, c models.Color) error {
	f.mu.Lock()
	f.light.Color = c
	f.mu.Unlock()
	return f.record("color")
}
func (f *fakeController) SetWarmWhite(context.Context, uint8) error { return f.record("warm") }
func (f *fakeController) SetColdWhite(context.Context, uint8) error { return f.record("cold") }
func (f *fakeController) SetBrightness(context.Context, uint8) error {
	return f.record("brightness")
}
func (f *fakeController) SetPresetPattern(context.Context, models.PresetPattern, uint8) error {
	return f.record("preset")
}
func (f *fakeController) SetCustomPattern(context.Context, []models.Color, models.TransitionType, uint8) error {
	return f.record("custom")
}
func (f *fakeController) SetClock(context.Context, time.Time) error { return f.record("set clock") }
func (f *fakeController) Clock(context.Context) (time.Time, error) {
	return time.Time{}, f.record("clock")
}
func (f *fakeController) Address() string { return f.addr }
func (f *fakeController) State() models.Light {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.light
}
func (f *fakeController) Close() error { return f.record("close") }

func (f *fakeController) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestGroupFanOut(t *testing.T) {
	a, b, c := newFake("10.0.0.1"), newFake("10.0.0.2"), newFake("10.0.0.3")
	g := NewGroup("Living room", a, b)
	g.Add(c)
	require.Equal(t, 3, g.Len())

	ctx := context.Background()
	require.NoError(t, g.Connect(ctx))
	require.NoError(t, g.TurnOn(ctx))
	require.NoError(t, g.SetColor(ctx, models.ColorPurple))
	require.NoError(t, g.SetWarmWhite(ctx, 10))
	require.NoError(t, g.SetColdWhite(ctx, 10))
	require.NoError(t, g.SetBrightness(ctx, 10))
	require.NoError(t, g.SetPresetPattern(ctx, models.RedBlueCrossFade, 10))
	require.NoError(t, g.SetCustomPattern(ctx, []models.Color{models.ColorRed}, models.TransitionStrobe, 10))
	require.NoError(t, g.SetClock(ctx, time.Time{}))
	require.NoError(t, g.Refresh(ctx))
	require.NoError(t, g.TurnOff(ctx))

	for _, f := range []*fakeController{a, b, c} {
		assert.Equal(t, 11, f.callCount(), f.addr)
	}

	states := g.States()
	require.Len(t, states, 3)
	assert.Equal(t, "10.0.0.1", states[0].Address)
	assert.Equal(t, models.ColorPurple, states[2].Color)
	assert.False(t, states[1].On)

	require.NoError(t, g.Close())
}

func TestGroupJoinsErrors(t *testing.T) {
	ok := newFake("10.0.0.1")
	bad := newFake("10.0.0.2")
	bad.fail = ErrTimeout
	worse := newFake("10.0.0.3")
	worse.fail = ErrFaulted

	g := NewGroup("Mixed", ok, bad, worse)
	g.SetLimit(1)

	err := g.SetColor(context.Background(), models.ColorRed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrFaulted)
	assert.Contains(t, err.Error(), "10.0.0.2")
	assert.Contains(t, err.Error(), "10.0.0.3")
	assert.NotContains(t, err.Error(), "10.0.0.1")

	// Healthy members still got the command
	assert.Equal(t, models.ColorRed, ok.State().Color)

	closeErr := g.Close()
	assert.True(t, errors.Is(closeErr, ErrTimeout))
}

func TestGroupOverDemoServers(t *testing.T) {
	s1 := newTestServer(t, DemoConfig{})
	s2 := newTestServer(t, DemoConfig{Protocol: models.ProtocolLEDENETOriginal})

	g := NewGroup("Demo", newTestDevice(t, s1), newTestDevice(t, s2))
	ctx := context.Background()

	require.NoError(t, g.Connect(ctx))
	require.NoError(t, g.TurnOn(ctx))
	require.NoError(t, g.SetColor(ctx, models.ColorGreen))

	// The refresh round trip guarantees both servers handled the commands
	require.NoError(t, g.Refresh(ctx))
	assert.Equal(t, models.ColorGreen, s1.State().Color)
	assert.Equal(t, models.ColorGreen, s2.State().Color)
	assert.True(t, s1.State().On)
	assert.True(t, s2.State().On)

	for _, st := range g.States() {
		assert.True(t, st.Connected)
		assert.Equal(t, models.ColorGreen, st.Color)
	}
}
