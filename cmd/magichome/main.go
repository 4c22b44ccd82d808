// Command magichome controls Magic Home (LEDENET) Wi-Fi LED controllers from
// the command line or an interactive dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/config"
	"github.com/angristan/magichome/internal/eventlog"
)

// cli holds the state shared by every command
type cli struct {
	flagTimeout  time.Duration
	flagLogLevel string
	flagDemo     bool
	flagEventLog string

	stderr io.Writer

	logger    *slog.Logger
	config    *config.Config
	discovery api.DiscoveryOptions
	sink      eventlog.Sink
	fileSink  *eventlog.FileSink
	fleet     *api.DemoFleet
	// Config changes are not written back in demo mode
	readOnly bool
}

// newRootCmd builds the command tree. The caller must call teardown on the
// returned cli once the command has run.
func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *cli) {
	app := &cli{stderr: stderr}

	root := &cobra.Command{
		Use:           "magichome",
		Short:         "Control Magic Home LED controllers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return app.setup(c)
		},
		RunE: func(c *cobra.Command, args []string) error {
			return app.runTUI(c.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().DurationVarP(&app.flagTimeout, "timeout", "t", api.DefaultTimeout, "read timeout for each reply")
	root.PersistentFlags().StringVarP(&app.flagLogLevel, "log-level", "L", "warn", "log level, one of: [debug,info,warn,error]")
	root.PersistentFlags().BoolVar(&app.flagDemo, "demo", false, "run against simulated controllers on loopback")
	root.PersistentFlags().StringVar(&app.flagEventLog, "event-log", "", "write session events to a daily log file in this directory")

	root.AddCommand(
		app.tuiCmd(),
		app.discoverCmd(),
		app.addCmd(),
		app.removeCmd(),
		app.statusCmd(),
		app.powerCmd("on", true),
		app.powerCmd("off", false),
		app.colorCmd(),
		app.whiteCmd("white", true),
		app.whiteCmd("coldwhite", false),
		app.brightnessCmd(),
		app.presetCmd(),
		app.patternsCmd(),
		app.customCmd(),
		app.clockCmd(),
		app.logCmd(),
	)

	return root, app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root, app := newRootCmd(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	err = errors.Join(err, app.teardown())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (app *cli) setup(c *cobra.Command) error {
	app.logger = newLogger(app.stderr, app.flagLogLevel)

	if app.flagDemo {
		if err := app.setupDemo(); err != nil {
			return err
		}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.config = cfg
		app.discovery = cfg.DiscoveryOptions()
	}

	if c.Flags().Changed("timeout") {
		app.config.Timeout = app.flagTimeout
	}

	sinks := []eventlog.Sink{eventlog.NewSlogSink(app.logger)}
	logDir := app.flagEventLog
	if logDir == "" {
		logDir = app.config.LogDir
	}
	if logDir != "" {
		fs, err := eventlog.NewFileSink(eventlog.DailyPath(logDir, time.Now()))
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		app.fileSink = fs
		sinks = append(sinks, fs)
	}
	app.sink = eventlog.NewMultiSink(sinks...)

	return nil
}

// setupDemo starts a simulated fleet and an in-memory config pointing at it
func (app *cli) setupDemo() error {
	fleet, err := api.NewDemoFleet()
	if err != nil {
		return fmt.Errorf("start demo: %w", err)
	}
	app.fleet = fleet
	app.readOnly = true
	app.discovery = fleet.DiscoveryOptions()

	names := []string{"Strip", "Bulb", "Legacy"}
	cfg := &config.Config{}
	for i, addr := range fleet.Addresses() {
		cfg.AddLight(config.LightConfig{Host: addr, Name: names[i%len(names)], Group: "Demo"})
	}
	app.config = cfg

	app.logger.Info("demo mode enabled", "lights", len(cfg.Lights))
	return nil
}

func (app *cli) teardown() error {
	var errs []error
	if app.fileSink != nil {
		errs = append(errs, app.fileSink.Close())
	}
	if app.fleet != nil {
		errs = append(errs, app.fleet.Close())
	}
	return errors.Join(errs...)
}

// saveConfig persists the config unless running in demo mode
func (app *cli) saveConfig() error {
	if app.readOnly {
		return nil
	}
	return app.config.Save()
}

// deviceOptions are applied to every session the CLI opens
func (app *cli) deviceOptions() []api.DeviceOption {
	return []api.DeviceOption{
		api.WithLogger(app.logger),
		api.WithSink(app.sink),
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
