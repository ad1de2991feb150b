package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"unreadwatch/internal/config"

	"github.com/spf13/cobra"
)

type app struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "unreadwatch",
		Short:         "Watch mail accounts for unread messages",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// The daemon logs to stdout, one-shot commands keep stdout for
			// their own output.
			var w io.Writer = os.Stderr
			if cmd.Name() == "run" {
				w = os.Stdout
			}

			a.cfg = cfg
			a.log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			slog.SetDefault(a.log)

			return nil
		},
	}

	root.AddCommand(
		newRunCommand(a),
		newRefreshCommand(a),
		newStatusCommand(a),
		newPrefsCommand(a),
		newLoginCommand(a),
	)

	return root
}
