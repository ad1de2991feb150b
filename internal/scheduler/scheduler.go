package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
	"unreadwatch/internal/domain"

	"github.com/robfig/cron/v3"
)

const (
	// OffHoursFloor is the shortest interval used inside the off-hours window.
	OffHoursFloor = 5 * time.Minute

	minInterval = time.Second
)

// NextInterval returns the polling interval for the given moment.
func NextInterval(prefs domain.Preferences, now time.Time) time.Duration {
	base := baseInterval(prefs.PollIntervalMinutes)

	if prefs.OffHours().Contains(now) {
		return max(base, OffHoursFloor)
	}

	return base
}

func baseInterval(minutes float64) time.Duration {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		minutes = domain.DefaultPreferences().PollIntervalMinutes
	}

	return max(time.Duration(minutes*float64(time.Minute)).Round(time.Second), minInterval)
}

// Scheduler owns named recurring timers. Arming a name that is already
// armed replaces its schedule.
type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]armedEntry
	log     *slog.Logger
}

type armedEntry struct {
	id       cron.EntryID
	interval time.Duration
}

func New(ctx context.Context, log *slog.Logger) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.Local),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		ctx:     ctx,
		cron:    c,
		entries: make(map[string]armedEntry),
		log:     log,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Arm schedules job every interval under name.
func (s *Scheduler) Arm(name string, interval time.Duration, job func()) {
	interval = max(interval, minInterval)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[name]; ok {
		s.cron.Remove(existing.id)
	}

	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if s.ctx.Err() != nil {
			s.log.InfoContext(s.ctx, "Scheduler context is done",
				"error", s.ctx.Err(),
				"timer", name)
			return
		}

		job()
	}))

	s.entries[name] = armedEntry{id: id, interval: interval}

	s.log.DebugContext(s.ctx, "Timer is armed",
		"timer", name,
		"interval", interval.String())
}

func (s *Scheduler) Disarm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[name]; ok {
		s.cron.Remove(existing.id)
		delete(s.entries, name)
	}
}

// Interval reports the armed interval of name.
func (s *Scheduler) Interval(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]

	return entry.interval, ok
}

// NextRun reports when name fires next. The zero time is returned until
// the scheduler is started.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	entry, ok := s.entries[name]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	return s.cron.Entry(entry.id).Next, true
}

func (s *Scheduler) entryCount() int {
	return len(s.cron.Entries())
}
