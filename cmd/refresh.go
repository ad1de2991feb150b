package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"unreadwatch/internal/control"

	"github.com/spf13/cobra"
)

func newRefreshCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the running monitor to check mail now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := control.NewClient(a.cfg.ControlAddr).Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("request refresh: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Refresh requested")

			open, err := cmd.Flags().GetBool("open")
			if err != nil {
				return err
			}

			if !open {
				return nil
			}

			if err = openBrowser(a.cfg.MailURL); err != nil {
				return fmt.Errorf("open %s: %w", a.cfg.MailURL, err)
			}

			return nil
		},
	}

	cmd.Flags().Bool("open", false, "also open the mail page in a browser")

	return cmd
}

func openBrowser(url string) error {
	var command *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		command = exec.Command("open", url)
	case "windows":
		command = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		command = exec.Command("xdg-open", url)
	}

	if err := command.Start(); err != nil {
		return err
	}

	return command.Process.Release()
}
