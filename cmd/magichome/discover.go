package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/config"
)

func (app *cli) discoverCmd() *cobra.Command {
	var save, status bool
	var mdnsService string
	c := &cobra.Command{
		Use:   "discover",
		Short: "Find controllers on the local network",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts := app.discovery
			if c.Flags().Changed("mdns") {
				opts.MDNSService = mdnsService
			}

			found, err := api.DiscoverAll(c.Context(), opts)
			if err != nil && len(found) == 0 {
				return err
			}

			out := c.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No controllers found")
				return nil
			}
			for _, l := range found {
				fmt.Fprintf(out, "%-21s %-14s %-14s %s\n", l.Address(), l.ID, l.Model, l.Source)
				if save {
					app.config.AddLight(config.LightConfig{Host: l.Address()})
				}
			}

			if save {
				if err := app.saveConfig(); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(out, "Saved %d lights\n", len(found))
			}

			if status {
				devices, connErr := api.ConnectAll(c.Context(), found, app.deviceOptions()...)
				fmt.Fprintln(out)
				for _, d := range devices {
					light := d.State()
					fmt.Fprintln(out, light.String())
					_ = d.Close()
				}
				err = errors.Join(err, connErr)
			}
			return err
		},
	}
	c.Flags().BoolVar(&save, "save", false, "add every controller found to the config")
	c.Flags().BoolVar(&status, "status", false, "connect to every controller found and show its state")
	c.Flags().StringVar(&mdnsService, "mdns", "", "also browse this mDNS service, e.g. _magichome._tcp")
	return c
}

func (app *cli) addCmd() *cobra.Command {
	var light config.LightConfig
	c := &cobra.Command{
		Use:   "add <host[:port]>",
		Short: "Add or update a light in the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := checkAddress(args[0]); err != nil {
				return err
			}
			light.Host = args[0]

			app.config.AddLight(light)
			app.config.LastLight = light.Host
			if err := app.saveConfig(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "Added %s\n", args[0])
			return nil
		},
	}
	c.Flags().StringVarP(&light.Name, "name", "n", "", "display name")
	c.Flags().StringVarP(&light.Group, "group", "g", "", "group shown together in the dashboard")
	c.Flags().IntVarP(&light.Port, "port", "p", 0, "TCP port if not 5577")
	return c
}

func (app *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name|host>",
		Short: "Remove a light from the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := app.config.RemoveLight(args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := app.saveConfig(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

// checkAddress accepts "host" or "host:port"
func checkAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address", api.ErrInvalidArgument)
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil
	}
	if port, err := strconv.Atoi(portStr); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: bad port in %q", api.ErrInvalidArgument, addr)
	}
	return nil
}
