package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unreadwatch/internal/domain"
)

const pollCyclesKept = 500

type unreadCountRow struct {
	AccountKey string `db:"account_key"`
	Count      int    `db:"count"`
	UpdatedAt  int64  `db:"updated_at"`
}

type pollCycleRow struct {
	ID             string `db:"id"`
	Trigger        string `db:"trigger"`
	Total          int    `db:"total"`
	AccountsOK     int    `db:"accounts_ok"`
	AccountsFailed int    `db:"accounts_failed"`
	FinishedAt     int64  `db:"finished_at"`
}

// LoadSnapshot returns the persisted counts, or an empty snapshot when
// nothing was saved yet.
func (d *Database) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var rows []unreadCountRow

	query := "select account_key, count, updated_at from unread_counts"

	if err := d.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select unread counts: %w", err)
	}

	snapshot := make(domain.Snapshot, len(rows))
	for _, row := range rows {
		snapshot[row.AccountKey] = row.Count
	}

	return snapshot, nil
}

// SaveSnapshot replaces the persisted snapshot. Accounts missing from
// snapshot are dropped.
func (d *Database) SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}

		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback transaction",
				"error", rollbackErr,
				"operation", "SaveSnapshot")
		}
	}()

	if _, err = tx.ExecContext(ctx, "delete from unread_counts"); err != nil {
		return fmt.Errorf("delete unread counts: %w", err)
	}

	query := `insert into unread_counts (account_key, count, updated_at)
	values (?, ?, ?)`
	now := time.Now().Unix()

	for key, count := range snapshot {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		if _, err = tx.ExecContext(ctx, query, key, max(count, 0), now); err != nil {
			return fmt.Errorf("insert unread count (accountKey = %s): %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (d *Database) ListCounts(ctx context.Context) ([]domain.AccountCount, error) {
	var rows []unreadCountRow

	query := `select account_key, count, updated_at
	from unread_counts
	order by account_key`

	if err := d.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select unread counts: %w", err)
	}

	counts := make([]domain.AccountCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, domain.AccountCount{AccountKey: row.AccountKey, Count: row.Count})
	}

	return counts, nil
}

func (d *Database) RecordCycle(ctx context.Context, cycle domain.PollCycle) error {
	query := `insert into poll_cycles (id, trigger, total, accounts_ok, accounts_failed, finished_at)
	values (?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		cycle.ID,
		cycle.Trigger,
		cycle.Total,
		cycle.AccountsOK,
		cycle.AccountsFailed,
		cycle.FinishedAtUnix)
	if err != nil {
		return fmt.Errorf("insert poll cycle: %w", err)
	}

	pruneQuery := `delete from poll_cycles
	where id not in (
		select id from poll_cycles order by finished_at desc, rowid desc limit ?
	)`

	if _, err = d.db.ExecContext(ctx, pruneQuery, pollCyclesKept); err != nil {
		return fmt.Errorf("prune poll cycles: %w", err)
	}

	return nil
}

// LastCycle returns the most recent poll cycle. ok is false when no cycle
// was recorded yet.
func (d *Database) LastCycle(ctx context.Context) (domain.PollCycle, bool, error) {
	var row pollCycleRow

	query := `select id, trigger, total, accounts_ok, accounts_failed, finished_at
	from poll_cycles
	order by finished_at desc, rowid desc
	limit 1`

	if err := d.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PollCycle{}, false, nil
		}

		return domain.PollCycle{}, false, fmt.Errorf("select last poll cycle: %w", err)
	}

	return domain.PollCycle{
		ID:             row.ID,
		Trigger:        row.Trigger,
		Total:          row.Total,
		AccountsOK:     row.AccountsOK,
		AccountsFailed: row.AccountsFailed,
		FinishedAtUnix: row.FinishedAt,
	}, true, nil
}
