package api

import (
	"context"
	"time"

	"github.com/angristan/magichome/internal/models"
)

// Controller is the public surface of a light session. Groups and the TUI
// work against it so they can be driven by fakes in tests.
type Controller interface {
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error

	SetPower(ctx context.Context, on bool) error
	SetColor(ctx context.Context, c models.Color) error
	SetWarmWhite(ctx context.Context, level uint8) error
	SetColdWhite(ctx context.Context, level uint8) error
	SetBrightness(ctx context.Context, pct uint8) error
	SetPresetPattern(ctx context.Context, pattern models.PresetPattern, speed uint8) error
	SetCustomPattern(ctx context.Context, colors []models.Color, transition models.TransitionType, speed uint8) error

	SetClock(ctx context.Context, t time.Time) error
	Clock(ctx context.Context) (time.Time, error)

	Address() string
	State() models.Light
	Close() error
}

// Compile-time check that Device implements Controller
var _ Controller = (*Device)(nil)
