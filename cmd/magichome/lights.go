package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/config"
	"github.com/angristan/magichome/internal/models"
)

// targetFlags selects the lights a command acts on
type targetFlags struct {
	lights []string
	group  string
	last   bool
}

func (t *targetFlags) register(c *cobra.Command) {
	c.Flags().StringSliceVarP(&t.lights, "light", "l", nil, "light name or address (repeatable, default all configured lights)")
	c.Flags().StringVarP(&t.group, "group", "g", "", "only lights in this group")
	c.Flags().BoolVar(&t.last, "last", false, "only the most recently added light")
}

// resolve turns the flags into light configs. Unknown names are taken as
// addresses so unconfigured controllers can be driven directly.
func (t *targetFlags) resolve(cfg *config.Config) ([]config.LightConfig, error) {
	var out []config.LightConfig

	switch {
	case t.last:
		light, err := cfg.GetLastLight()
		if err != nil {
			return nil, err
		}
		out = append(out, *light)
	case len(t.lights) > 0:
		for _, key := range t.lights {
			if light, err := cfg.GetLight(key); err == nil {
				out = append(out, *light)
			} else {
				out = append(out, config.LightConfig{Host: key})
			}
		}
	default:
		out = append(out, cfg.Lights...)
	}

	if t.group != "" {
		filtered := out[:0]
		for _, l := range out {
			if l.Group == t.group {
				filtered = append(filtered, l)
			}
		}
		out = filtered
	}

	if len(out) == 0 {
		return nil, config.ErrNoLights
	}
	return out, nil
}

// connect opens a session to every target as one group. Lights that fail
// to connect are left out and their errors returned alongside.
func (app *cli) connect(ctx context.Context, t *targetFlags) (*api.Group, error) {
	lights, err := t.resolve(app.config)
	if err != nil {
		return nil, err
	}

	all := api.NewGroup(t.group)
	for _, light := range lights {
		opts := append(app.config.DeviceOptions(light), app.deviceOptions()...)
		all.Add(api.NewDevice(light.Host, opts...))
	}
	connectErr := all.Connect(ctx)

	live := api.NewGroup(t.group)
	for _, c := range all.Members() {
		if c.State().Connected {
			live.Add(c)
		} else {
			_ = c.Close()
		}
	}
	if live.Len() == 0 {
		return nil, connectErr
	}
	return live, connectErr
}

// withGroup connects to the targets, runs fn and prints each light's state
func (app *cli) withGroup(c *cobra.Command, t *targetFlags, fn func(ctx context.Context, g *api.Group) error) error {
	ctx := c.Context()
	g, connectErr := app.connect(ctx, t)
	if g == nil {
		return connectErr
	}
	defer g.Close()

	err := fn(ctx, g)
	for _, light := range g.States() {
		fmt.Fprintln(c.OutOrStdout(), light.String())
	}
	return errors.Join(connectErr, err)
}

func (app *cli) statusCmd() *cobra.Command {
	var t targetFlags
	c := &cobra.Command{
		Use:   "status",
		Short: "Show the state of each light",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return app.withGroup(c, &t, func(context.Context, *api.Group) error { return nil })
		},
	}
	t.register(c)
	return c
}

func (app *cli) powerCmd(name string, on bool) *cobra.Command {
	var t targetFlags
	c := &cobra.Command{
		Use:   name,
		Short: "Turn lights " + name,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				return g.SetPower(ctx, on)
			})
		},
	}
	t.register(c)
	return c
}

func (app *cli) colorCmd() *cobra.Command {
	var t targetFlags
	c := &cobra.Command{
		Use:   "color <name|#RRGGBB>",
		Short: "Set an RGB color",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			color, err := models.ParseColor(args[0])
			if err != nil {
				return err
			}
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				return g.SetColor(ctx, color)
			})
		},
	}
	t.register(c)
	return c
}

func (app *cli) whiteCmd(name string, warm bool) *cobra.Command {
	var t targetFlags
	kind := "cold"
	if warm {
		kind = "warm"
	}
	c := &cobra.Command{
		Use:   name + " <percent>",
		Short: "Switch to " + kind + " white at the given brightness",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			pct, err := parsePercent(args[0])
			if err != nil {
				return err
			}
			level := models.LevelOf(pct)
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				if warm {
					return g.SetWarmWhite(ctx, level)
				}
				return g.SetColdWhite(ctx, level)
			})
		},
	}
	t.register(c)
	return c
}

func (app *cli) brightnessCmd() *cobra.Command {
	var t targetFlags
	c := &cobra.Command{
		Use:   "brightness <percent>",
		Short: "Rescale the current color or white to a brightness",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			pct, err := parsePercent(args[0])
			if err != nil {
				return err
			}
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				return g.SetBrightness(ctx, pct)
			})
		},
	}
	t.register(c)
	return c
}

func (app *cli) presetCmd() *cobra.Command {
	var t targetFlags
	var speed uint8
	c := &cobra.Command{
		Use:   "preset <pattern>",
		Short: "Run a built-in pattern (see 'patterns')",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			pattern, err := models.ParsePresetPattern(args[0])
			if err != nil {
				return err
			}
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				return g.SetPresetPattern(ctx, pattern, speed)
			})
		},
	}
	t.register(c)
	c.Flags().Uint8VarP(&speed, "speed", "s", 50, "pattern speed, 0-100")
	return c
}

func (app *cli) patternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List built-in patterns and transitions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			fmt.Fprintln(out, "Presets:")
			for _, p := range models.PresetPatterns() {
				fmt.Fprintf(out, "  0x%02x  %s\n", uint8(p), p)
			}
			fmt.Fprintln(out, "Transitions:")
			for _, tr := range []models.TransitionType{models.TransitionGradual, models.TransitionJump, models.TransitionStrobe} {
				fmt.Fprintf(out, "  %s\n", tr)
			}
			return nil
		},
	}
}

func (app *cli) customCmd() *cobra.Command {
	var t targetFlags
	var speed uint8
	c := &cobra.Command{
		Use:   "custom <gradual|jump|strobe> <color>...",
		Short: "Run a custom pattern of up to 16 colors",
		Args:  cobra.RangeArgs(2, 17),
		RunE: func(c *cobra.Command, args []string) error {
			transition, err := models.ParseTransitionType(args[0])
			if err != nil {
				return err
			}
			colors := make([]models.Color, 0, len(args)-1)
			for _, arg := range args[1:] {
				color, err := models.ParseColor(arg)
				if err != nil {
					return err
				}
				colors = append(colors, color)
			}
			return app.withGroup(c, &t, func(ctx context.Context, g *api.Group) error {
				return g.SetCustomPattern(ctx, colors, transition, speed)
			})
		},
	}
	t.register(c)
	c.Flags().Uint8VarP(&speed, "speed", "s", 50, "pattern speed, 0-100")
	return c
}

func (app *cli) clockCmd() *cobra.Command {
	var t targetFlags
	var set bool
	c := &cobra.Command{
		Use:   "clock",
		Short: "Show each light's clock, or set it to this host's time",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			g, connectErr := app.connect(ctx, &t)
			if g == nil {
				return connectErr
			}
			defer g.Close()

			if set {
				if err := g.SetClock(ctx, time.Now()); err != nil {
					return errors.Join(connectErr, err)
				}
			}

			var mu sync.Mutex
			clocks := make(map[api.Controller]time.Time)
			err := g.Each(ctx, func(ctx context.Context, ctrl api.Controller) error {
				clock, err := ctrl.Clock(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", ctrl.Address(), err)
				}
				mu.Lock()
				clocks[ctrl] = clock
				mu.Unlock()
				return nil
			})

			for _, ctrl := range g.Members() {
				if clock, ok := clocks[ctrl]; ok {
					fmt.Fprintf(c.OutOrStdout(), "[%s]: %s\n", ctrl.Address(), clock.Format(time.DateTime))
				}
			}
			return errors.Join(connectErr, err)
		},
	}
	t.register(c)
	c.Flags().BoolVar(&set, "set", false, "set the clock to the current time first")
	return c
}

func parsePercent(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: percentage must be 0-100, got %q", api.ErrInvalidArgument, s)
	}
	return uint8(n), nil
}
