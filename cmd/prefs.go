package main

import (
	"fmt"
	"unreadwatch/internal/control"
	"unreadwatch/internal/preferences"

	"github.com/spf13/cobra"
)

func newPrefsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print every preference",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := preferences.Open(a.cfg.PreferencesPath, a.log)
				if err != nil {
					return err
				}

				settings, err := store.Settings()
				if err != nil {
					return err
				}

				for _, key := range preferences.Keys() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", key, settings[key])
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one preference",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := preferences.Open(a.cfg.PreferencesPath, a.log)
				if err != nil {
					return err
				}

				if err = store.Set(args[0], args[1]); err != nil {
					return err
				}

				// The file watcher also picks this up, the request only
				// makes the running monitor react sooner.
				if err = control.NewClient(a.cfg.ControlAddr).SettingsChanged(cmd.Context()); err != nil {
					a.log.DebugContext(cmd.Context(), "Monitor is not reachable",
						"error", err,
						"controlAddr", a.cfg.ControlAddr)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])

				return nil
			},
		},
	)

	return cmd
}
