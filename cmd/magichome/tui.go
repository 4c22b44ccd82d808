package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/angristan/magichome/internal/tui"
)

func (app *cli) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return app.runTUI(c.Context())
		},
	}
}

func (app *cli) runTUI(ctx context.Context) error {
	model := tui.NewModel(app.config, tui.Options{
		DeviceOptions: app.deviceOptions(),
		Discovery:     app.discovery,
		ReadOnly:      app.readOnly,
		Logger:        app.logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		err = errors.Join(err, m.Close())
	} else {
		_ = model.Close()
	}
	return err
}
