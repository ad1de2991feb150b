// Package monitor runs poll cycles: discover accounts, fetch their unread
// counts, decide what to surface, persist the snapshot and re-arm the
// polling timer.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
	"unreadwatch/internal/domain"
	"unreadwatch/internal/notify"
	"unreadwatch/internal/policy"
	"unreadwatch/internal/summarizer"
)

// TimerName is the recurring timer owned by the monitor.
const TimerName = "check-mail"

type Trigger string

const (
	TriggerInstall         Trigger = "install"
	TriggerStartup         Trigger = "startup"
	TriggerTimer           Trigger = "timer"
	TriggerUserRefresh     Trigger = "user-refresh"
	TriggerSettingsChanged Trigger = "settings-changed"
)

type transition struct {
	rediscover      bool
	invalidateCache bool
}

// Every trigger drives the same cycle. They differ only in whether the
// account list is rebuilt first.
var dispatch = map[Trigger]transition{
	TriggerInstall:         {rediscover: true},
	TriggerStartup:         {rediscover: true},
	TriggerTimer:           {},
	TriggerUserRefresh:     {},
	TriggerSettingsChanged: {rediscover: true, invalidateCache: true},
}

func (t transition) merge(other transition) transition {
	return transition{
		rediscover:      t.rediscover || other.rediscover,
		invalidateCache: t.invalidateCache || other.invalidateCache,
	}
}

type Fetcher interface {
	FetchUnread(ctx context.Context, feedURL string) (domain.UnreadSample, error)
	InvalidateCache()
}

type Discoverer interface {
	DiscoverAccounts(ctx context.Context, maxSlots int) ([]string, error)
}

type Store interface {
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error
	RecordCycle(ctx context.Context, cycle domain.PollCycle) error
	LastCycle(ctx context.Context) (domain.PollCycle, bool, error)
}

type PreferencesSource interface {
	Load() (domain.Preferences, error)
}

type Badge interface {
	Render(b policy.RenderBadge) error
	Animate(ctx context.Context, kind string, b policy.RenderBadge) error
}

type Timer interface {
	Arm(name string, interval time.Duration, job func())
	Interval(name string) (time.Duration, bool)
	NextRun(name string) (time.Time, bool)
}

type SoundDispatcher interface {
	Dispatch(source string, volume float64) bool
}

// Deps are the collaborators of a Monitor. Notifier, Sound and Summarizer
// are optional.
type Deps struct {
	Fetcher     Fetcher
	Discoverer  Discoverer
	Store       Store
	Preferences PreferencesSource
	Badge       Badge
	Timer       Timer
	Notifier    notify.Notifier
	Sound       SoundDispatcher
	Summarizer  summarizer.Summarizer
	MaxSlots    int
	Now         func() time.Time
}

type Monitor struct {
	deps Deps
	log  *slog.Logger

	// cycleMu keeps a single cycle in flight.
	cycleMu sync.Mutex

	mu          sync.Mutex
	accounts    []string
	discovered  bool
	keysByURL   map[string]string
	snapshot    domain.Snapshot
	prefs       domain.Preferences
	lastTotal   int
	pending     bool
	pendingPlan transition
	pendingFrom Trigger

	wake       chan struct{}
	animations sync.WaitGroup
}

func New(deps Deps, log *slog.Logger) *Monitor {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Monitor{
		deps:      deps,
		log:       log,
		keysByURL: make(map[string]string),
		snapshot:  domain.Snapshot{},
		prefs:     domain.DefaultPreferences(),
		wake:      make(chan struct{}, 1),
	}
}

// Initialize loads the persisted snapshot and the preferences. It must run
// before the first cycle so the first comparison has a real baseline.
func (m *Monitor) Initialize(ctx context.Context) error {
	snapshot, err := m.deps.Store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	prefs, err := m.deps.Preferences.Load()
	if err != nil {
		m.log.WarnContext(ctx, "Failed to load preferences, using defaults",
			"error", err)
	}

	total := snapshot.SumOver(slices.Collect(maps.Keys(snapshot)))

	m.mu.Lock()
	m.snapshot = snapshot.Clone()
	m.prefs = prefs
	m.lastTotal = total
	m.mu.Unlock()

	m.log.InfoContext(ctx, "Monitor is initialized",
		"accounts", len(snapshot),
		"total", total)

	return nil
}

// Fire requests a cycle. Triggers arriving while a cycle runs are merged
// into one follow-up cycle.
func (m *Monitor) Fire(trigger Trigger) {
	plan, ok := dispatch[trigger]
	if !ok {
		m.log.Warn("Unknown trigger",
			"trigger", trigger)

		return
	}

	m.mu.Lock()
	if !m.pending || (plan.rediscover && !m.pendingPlan.rediscover) {
		m.pendingFrom = trigger
	}
	m.pendingPlan = m.pendingPlan.merge(plan)
	m.pending = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Monitor) RequestRefresh() {
	m.Fire(TriggerUserRefresh)
}

func (m *Monitor) RequestSettingsChanged() {
	m.Fire(TriggerSettingsChanged)
}

// Run processes fired triggers until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.InfoContext(ctx, "Monitor context is done",
				"error", ctx.Err())
			m.animations.Wait()

			return
		case <-m.wake:
		}

		m.mu.Lock()
		if !m.pending {
			m.mu.Unlock()
			continue
		}
		trigger, plan := m.pendingFrom, m.pendingPlan
		m.pending, m.pendingPlan, m.pendingFrom = false, transition{}, ""
		m.mu.Unlock()

		m.runCycle(ctx, trigger, plan)
	}
}

// RunCycle runs one cycle for trigger and returns when it is done.
func (m *Monitor) RunCycle(ctx context.Context, trigger Trigger) {
	plan, ok := dispatch[trigger]
	if !ok {
		m.log.WarnContext(ctx, "Unknown trigger",
			"trigger", trigger)

		return
	}

	m.runCycle(ctx, trigger, plan)
}

// Wait blocks until running animations finish.
func (m *Monitor) Wait() {
	m.animations.Wait()
}

// Status reports the last known counts and the polling schedule.
func (m *Monitor) Status(ctx context.Context) (domain.Status, error) {
	m.mu.Lock()
	snapshot := m.snapshot.Clone()
	total := m.lastTotal
	m.mu.Unlock()

	keys := slices.Sorted(maps.Keys(snapshot))
	accounts := make([]domain.AccountCount, 0, len(keys))
	for _, key := range keys {
		accounts = append(accounts, domain.AccountCount{AccountKey: key, Count: snapshot[key]})
	}

	status := domain.Status{Total: total, Accounts: accounts}

	cycle, ok, err := m.deps.Store.LastCycle(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	if ok {
		status.LastCycle = &cycle
	}

	if interval, ok := m.deps.Timer.Interval(TimerName); ok {
		status.Interval = interval.String()
	}

	if next, ok := m.deps.Timer.NextRun(TimerName); ok && !next.IsZero() {
		status.NextPoll = next
	}

	return status, nil
}

func (m *Monitor) currentPreferences(ctx context.Context, log *slog.Logger) domain.Preferences {
	prefs, err := m.deps.Preferences.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		log.WarnContext(ctx, "Failed to reload preferences, keeping previous",
			"error", err)

		return m.prefs
	}

	m.prefs = prefs

	return prefs
}
