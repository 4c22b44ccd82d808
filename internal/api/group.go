package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angristan/magichome/internal/models"
)

// DefaultGroupConcurrency caps how many sessions a group drives at once
const DefaultGroupConcurrency = 8

// Group applies an operation to several lights concurrently. It knows
// nothing about the wire protocol; each light serializes its own I/O.
type Group struct {
	Name    string
	members []Controller
	limit   int
}

// NewGroup creates a group over the given controllers
func NewGroup(name string, members ...Controller) *Group {
	return &Group{Name: name, members: members, limit: DefaultGroupConcurrency}
}

// Add appends controllers to the group
func (g *Group) Add(members ...Controller) {
	g.members = append(g.members, members...)
}

// Members returns the controllers in insertion order
func (g *Group) Members() []Controller {
	return g.members
}

// Len returns the number of controllers
func (g *Group) Len() int {
	return len(g.members)
}

// SetLimit caps concurrent operations. n <= 0 means no limit.
func (g *Group) SetLimit(n int) {
	g.limit = n
}

// Each runs fn on every member and joins the failures, each prefixed with
// the member's address.
func (g *Group) Each(ctx context.Context, fn func(ctx context.Context, c Controller) error) error {
	errs := make([]error, len(g.members))

	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}
	for i, c := range g.members {
		eg.Go(func() error {
			if err := fn(ctx, c); err != nil {
				errs[i] = fmt.Errorf("%s: %w", c.Address(), err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return errors.Join(errs...)
}

func (g *Group) Connect(ctx context.Context) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.Connect(ctx) })
}

func (g *Group) Refresh(ctx context.Context) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.Refresh(ctx) })
}

func (g *Group) SetPower(ctx context.Context, on bool) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetPower(ctx, on) })
}

func (g *Group) TurnOn(ctx context.Context) error {
	return g.SetPower(ctx, true)
}

func (g *Group) TurnOff(ctx context.Context) error {
	return g.SetPower(ctx, false)
}

func (g *Group) SetColor(ctx context.Context, color models.Color) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetColor(ctx, color) })
}

func (g *Group) SetWarmWhite(ctx context.Context, level uint8) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetWarmWhite(ctx, level) })
}

func (g *Group) SetColdWhite(ctx context.Context, level uint8) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetColdWhite(ctx, level) })
}

func (g *Group) SetBrightness(ctx context.Context, pct uint8) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetBrightness(ctx, pct) })
}

func (g *Group) SetPresetPattern(ctx context.Context, pattern models.PresetPattern, speed uint8) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error {
		return c.SetPresetPattern(ctx, pattern, speed)
	})
}

func (g *Group) SetCustomPattern(ctx context.Context, colors []models.Color, transition models.TransitionType, speed uint8) error {
	return g.Each(ctx, func(ctx context.Context, c Controller) error {
		return c.SetCustomPattern(ctx, colors, transition, speed)
	})
}

// SetClock sets every member to the same instant. A zero t is resolved once
// so all lights agree.
func (g *Group) SetClock(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		t = time.Now()
	}
	return g.Each(ctx, func(ctx context.Context, c Controller) error { return c.SetClock(ctx, t) })
}

// States returns a snapshot of every member in insertion order
func (g *Group) States() []models.Light {
	states := make([]models.Light, len(g.members))
	for i, c := range g.members {
		states[i] = c.State()
	}
	return states
}

// Close closes every member
func (g *Group) Close() error {
	var errs []error
	for _, c := range g.members {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Address(), err))
		}
	}
	return errors.Join(errs...)
}

// ConnectAll creates and connects a Device for every discovered light. It
// returns the sessions that connected, in input order, and the joined
// errors of the rest. Failed sessions are closed.
func ConnectAll(ctx context.Context, found []DiscoveredLight, opts ...DeviceOption) ([]*Device, error) {
	devices := make([]*Device, len(found))
	errs := make([]error, len(found))

	var eg errgroup.Group
	eg.SetLimit(DefaultGroupConcurrency)
	for i, f := range found {
		eg.Go(func() error {
			d := NewDevice(f.Address(), opts...)
			if err := d.Connect(ctx); err != nil {
				_ = d.Close()
				errs[i] = fmt.Errorf("%s: %w", f.Host, err)
				return nil
			}
			devices[i] = d
			return nil
		})
	}
	_ = eg.Wait()

	connected := make([]*Device, 0, len(found))
	for _, d := range devices {
		if d != nil {
			connected = append(connected, d)
		}
	}
	return connected, errors.Join(errs...)
}
