package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/notify"
	"unreadwatch/internal/policy"
	"unreadwatch/internal/scheduler"
	"unreadwatch/internal/summarizer"

	"github.com/google/uuid"
)

const (
	digestTimeout = 15 * time.Second
	stepTimeout   = 10 * time.Second
)

type pollResult struct {
	feedURL string
	sample  domain.UnreadSample
	err     error
}

func (m *Monitor) runCycle(ctx context.Context, trigger Trigger, plan transition) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	cycleID := uuid.NewString()
	log := m.log.With("cycleID", cycleID, "trigger", string(trigger))
	started := m.deps.Now()

	prefs := m.currentPreferences(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Poll cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))

			m.clearBadge(ctx, log, prefs)
			m.rearm(log, prefs)
		}
	}()

	if plan.invalidateCache {
		m.deps.Fetcher.InvalidateCache()
	}

	accounts, prune := m.ensureAccounts(ctx, log, plan.rediscover)

	results := m.pollAll(ctx, accounts)

	var samples []domain.UnreadSample
	failed := 0
	for _, result := range results {
		if result.err != nil {
			failed++
			log.WarnContext(ctx, "Failed to fetch account",
				"error", result.err,
				"feedURL", result.feedURL)

			continue
		}

		samples = append(samples, result.sample)
	}

	cycle := domain.PollCycle{
		ID:             cycleID,
		Trigger:        string(trigger),
		AccountsOK:     len(samples),
		AccountsFailed: failed,
	}

	if len(samples) == 0 {
		log.WarnContext(ctx, "No account answered, clearing badge",
			"accounts", len(accounts),
			"accountsFailed", failed)

		m.mu.Lock()
		m.lastTotal = 0
		m.mu.Unlock()

		m.clearBadge(ctx, log, prefs)
		m.finishCycle(ctx, log, prefs, cycle)

		return
	}

	m.mu.Lock()
	for _, sample := range samples {
		m.keysByURL[sample.FeedURL] = sample.AccountKey
	}
	previous := m.snapshot.Clone()
	if prune {
		previous = m.pruneLocked(log, previous, accounts)
	}
	m.mu.Unlock()

	decision := policy.Evaluate(samples, previous, prefs, m.deps.Now())

	m.applyEffects(ctx, log, prefs, decision)

	m.mu.Lock()
	m.snapshot = decision.Snapshot
	m.lastTotal = decision.CurrentTotal
	m.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stepTimeout)
	defer cancel()

	if err := m.deps.Store.SaveSnapshot(saveCtx, decision.Snapshot); err != nil {
		log.ErrorContext(ctx, "Failed to save snapshot",
			"error", err)
	}

	cycle.Total = decision.CurrentTotal
	m.finishCycle(ctx, log, prefs, cycle)

	log.InfoContext(ctx, "Poll cycle is finished",
		"total", decision.CurrentTotal,
		"previousTotal", decision.PreviousTotal,
		"quietHours", decision.QuietHours,
		"effects", len(decision.Effects),
		"accountsOk", len(samples),
		"accountsFailed", failed,
		"took", m.deps.Now().Sub(started).String())
}

// ensureAccounts returns the account list, rebuilding it when asked to or
// when it was never built. prune reports whether the rebuilt list is
// complete enough to drop accounts that disappeared.
func (m *Monitor) ensureAccounts(ctx context.Context, log *slog.Logger, rediscover bool) ([]string, bool) {
	m.mu.Lock()
	accounts := slices.Clone(m.accounts)
	discovered := m.discovered
	m.mu.Unlock()

	if discovered && !rediscover {
		return accounts, false
	}

	found, err := m.deps.Discoverer.DiscoverAccounts(ctx, m.deps.MaxSlots)
	if err != nil {
		log.WarnContext(ctx, "Account discovery stopped early",
			"error", err,
			"accountsFound", len(found))
	} else {
		log.InfoContext(ctx, "Accounts are discovered",
			"accounts", len(found))
	}

	// A failed discovery that found nothing keeps the previous list.
	if err != nil && len(found) == 0 && discovered {
		return accounts, false
	}

	// An empty list is rebuilt again on the next cycle.
	m.mu.Lock()
	m.accounts = slices.Clone(found)
	m.discovered = len(found) > 0
	m.mu.Unlock()

	return found, err == nil && len(found) > 0
}

// pollAll fetches every account concurrently and waits for all of them.
// Each fetch is bounded by the fetcher's own timeout.
func (m *Monitor) pollAll(ctx context.Context, accounts []string) []pollResult {
	results := make([]pollResult, len(accounts))

	var wg sync.WaitGroup
	for i, feedURL := range accounts {
		wg.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					results[i] = pollResult{feedURL: feedURL, err: fmt.Errorf("fetch panicked: %v", r)}
				}
			}()

			sample, err := m.deps.Fetcher.FetchUnread(ctx, feedURL)
			if sample.FeedURL == "" {
				sample.FeedURL = feedURL
			}

			results[i] = pollResult{feedURL: feedURL, sample: sample, err: err}
		})
	}
	wg.Wait()

	return results
}

// pruneLocked drops snapshot keys that belong to feeds no longer
// discovered. Keys never seen in this process are kept.
func (m *Monitor) pruneLocked(log *slog.Logger, snapshot domain.Snapshot, accounts []string) domain.Snapshot {
	for feedURL, key := range m.keysByURL {
		if slices.Contains(accounts, feedURL) {
			continue
		}

		delete(m.keysByURL, feedURL)

		if _, ok := snapshot[key]; !ok || m.keyStillServedLocked(key) {
			continue
		}

		delete(snapshot, key)

		log.Info("Account is removed from snapshot",
			"accountKey", key,
			"feedURL", feedURL)
	}

	return snapshot
}

func (m *Monitor) keyStillServedLocked(key string) bool {
	for _, served := range m.keysByURL {
		if served == key {
			return true
		}
	}

	return false
}

func (m *Monitor) applyEffects(ctx context.Context, log *slog.Logger, prefs domain.Preferences, decision policy.Decision) {
	for _, effect := range decision.Effects {
		switch e := effect.(type) {
		case policy.Notify:
			m.notify(ctx, log, prefs, e)

		case policy.PlaySound:
			if m.deps.Sound != nil && !m.deps.Sound.Dispatch(e.Source, e.Volume) {
				log.WarnContext(ctx, "Sound is dropped",
					"source", e.Source)
			}

		case policy.Animate:
			m.animations.Go(func() {
				if err := m.deps.Badge.Animate(context.WithoutCancel(ctx), e.Kind, e.Badge); err != nil {
					log.WarnContext(ctx, "Failed to animate badge",
						"error", err,
						"animation", e.Kind)
				}
			})

		case policy.RenderBadge:
			if err := m.deps.Badge.Render(e); err != nil {
				log.ErrorContext(ctx, "Failed to render badge",
					"error", err)
			}
		}
	}
}

func (m *Monitor) notify(ctx context.Context, log *slog.Logger, prefs domain.Preferences, effect policy.Notify) {
	if !prefs.NotificationsEnabled || m.deps.Notifier == nil {
		log.DebugContext(ctx, "Notifications are disabled",
			"total", effect.Total)

		return
	}

	message := notify.Compose(effect.Total, effect.Previous, effect.Latest, m.digest(ctx, log, effect.Latest))

	notifyCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()

	if err := m.deps.Notifier.Notify(notifyCtx, message); err != nil {
		log.WarnContext(ctx, "Failed to deliver notification",
			"error", err,
			"total", effect.Total)

		return
	}

	log.InfoContext(ctx, "Notification is sent",
		"total", effect.Total,
		"previousTotal", effect.Previous)
}

func (m *Monitor) digest(ctx context.Context, log *slog.Logger, latest []domain.Message) string {
	if m.deps.Summarizer == nil || len(latest) == 0 {
		return ""
	}

	input := summarizer.BuildInput(latest)
	if input.Text == "" {
		return ""
	}

	digestCtx, cancel := context.WithTimeout(ctx, digestTimeout)
	defer cancel()

	digest, err := m.deps.Summarizer.Summarize(digestCtx, input)
	if err != nil {
		log.WarnContext(ctx, "Failed to summarize messages",
			"error", err)

		return ""
	}

	return digest
}

func (m *Monitor) clearBadge(ctx context.Context, log *slog.Logger, prefs domain.Preferences) {
	if err := m.deps.Badge.Render(policy.ClearedBadge(prefs)); err != nil {
		log.ErrorContext(ctx, "Failed to clear badge",
			"error", err)
	}
}

func (m *Monitor) finishCycle(ctx context.Context, log *slog.Logger, prefs domain.Preferences, cycle domain.PollCycle) {
	cycle.FinishedAtUnix = m.deps.Now().Unix()

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stepTimeout)
	defer cancel()

	if err := m.deps.Store.RecordCycle(recordCtx, cycle); err != nil {
		log.ErrorContext(ctx, "Failed to record poll cycle",
			"error", err)
	}

	m.rearm(log, prefs)
}

func (m *Monitor) rearm(log *slog.Logger, prefs domain.Preferences) {
	interval := scheduler.NextInterval(prefs, m.deps.Now())

	m.deps.Timer.Arm(TimerName, interval, func() {
		m.Fire(TriggerTimer)
	})

	log.Debug("Next poll is scheduled",
		"interval", interval.String())
}
