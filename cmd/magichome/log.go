package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/angristan/magichome/internal/eventlog"
)

func (app *cli) logCmd() *cobra.Command {
	var filter eventlog.Filter
	var kinds []string
	var since time.Duration
	c := &cobra.Command{
		Use:   "log [file]",
		Short: "Print a session event log (default: today's log in --event-log or the config log dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			path, err := app.logPath(args)
			if err != nil {
				return err
			}

			for _, k := range kinds {
				filter.Kinds = append(filter.Kinds, eventlog.Kind(k))
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			events, err := eventlog.ReadFile(path, filter)
			for _, e := range events {
				fmt.Fprintln(c.OutOrStdout(), e.String())
			}
			return err
		},
	}
	c.Flags().StringVarP(&filter.Address, "address", "a", "", "only events for this address")
	c.Flags().StringVar(&filter.SessionID, "session", "", "only events from this session")
	c.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "only these kinds (connect, command, refresh, fault, ...)")
	c.Flags().DurationVar(&since, "since", 0, "only events newer than this, e.g. 1h")
	return c
}

func (app *cli) logPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	dir := app.flagEventLog
	if dir == "" {
		var err error
		if dir, err = app.config.EventLogDir(); err != nil {
			return "", err
		}
	}
	return eventlog.DailyPath(dir, time.Now()), nil
}
