package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unreadwatch/internal/control"
	"unreadwatch/internal/database"
	"unreadwatch/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show unread counts per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			status, err := control.NewClient(a.cfg.ControlAddr).Status(ctx)
			if err != nil {
				a.log.DebugContext(ctx, "Monitor is not reachable, reading db",
					"error", err,
					"controlAddr", a.cfg.ControlAddr)

				if status, err = a.storedStatus(ctx); err != nil {
					return err
				}
			}

			renderStatus(cmd.OutOrStdout(), status)

			return nil
		},
	}
}

func (a *app) storedStatus(ctx context.Context) (domain.Status, error) {
	db, err := database.New(ctx, a.cfg.DBPath, a.log)
	if err != nil {
		return domain.Status{}, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	counts, err := db.ListCounts(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	status := domain.Status{Accounts: counts}
	for _, count := range counts {
		status.Total += count.Count
	}

	cycle, ok, err := db.LastCycle(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	if ok {
		status.LastCycle = &cycle
	}

	return status, nil
}

func renderStatus(w io.Writer, status domain.Status) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	key := r.NewStyle().Width(40)
	faint := r.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("%d unread", status.Total)))
	b.WriteString("\n")

	if len(status.Accounts) == 0 {
		b.WriteString(faint.Render("no accounts seen yet"))
		b.WriteString("\n")
	}

	for _, account := range status.Accounts {
		b.WriteString(key.Render(account.AccountKey))
		b.WriteString(strconv.Itoa(account.Count))
		b.WriteString("\n")
	}

	if c := status.LastCycle; c != nil {
		finished := time.Unix(c.FinishedAtUnix, 0).Format(time.DateTime)
		b.WriteString(faint.Render(fmt.Sprintf("last check %s (%s), %d ok, %d failed",
			finished, c.Trigger, c.AccountsOK, c.AccountsFailed)))
		b.WriteString("\n")
	}

	if !status.NextPoll.IsZero() {
		b.WriteString(faint.Render(fmt.Sprintf("next check %s, every %s",
			status.NextPoll.Format(time.DateTime), status.Interval)))
		b.WriteString("\n")
	}

	fmt.Fprint(w, b.String())
}
