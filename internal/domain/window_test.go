package domain_test

import (
	"testing"
	"time"
	"unreadwatch/internal/domain"
)

func at(hour int, minute int) time.Time {
	return time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestTimeWindowOvernightWraps(t *testing.T) {
	w, err := domain.ParseWindow("22:00", "07:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		when time.Time
		want bool
	}{
		{"late evening", at(23, 30), true},
		{"early morning", at(6, 0), true},
		{"noon", at(12, 0), false},
		{"start is inclusive", at(22, 0), true},
		{"end is exclusive", at(7, 0), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := w.Contains(test.when); got != test.want {
				t.Fatalf("Contains(%s) = %v, want %v", test.when.Format("15:04"), got, test.want)
			}
		})
	}
}

func TestTimeWindowSameDay(t *testing.T) {
	w, err := domain.ParseWindow("09:00", "17:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !w.Contains(at(9, 0)) {
		t.Fatalf("expected 09:00 to be inside")
	}

	if !w.Contains(at(17, 29)) {
		t.Fatalf("expected 17:29 to be inside")
	}

	if w.Contains(at(17, 30)) {
		t.Fatalf("expected 17:30 to be outside")
	}

	if w.Contains(at(8, 59)) {
		t.Fatalf("expected 08:59 to be outside")
	}
}

func TestTimeWindowEqualBoundsCoverWholeDay(t *testing.T) {
	w, err := domain.ParseWindow("08:00", "08:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, when := range []time.Time{at(0, 0), at(8, 0), at(7, 59), at(23, 59)} {
		if !w.Contains(when) {
			t.Fatalf("expected %s to be inside", when.Format("15:04"))
		}
	}
}

func TestParseWindowEmptyDisables(t *testing.T) {
	w, err := domain.ParseWindow("", "07:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Enabled || w.Contains(at(3, 0)) {
		t.Fatalf("expected disabled window, got %+v", w)
	}
}

func TestParseClockRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"7", "24:00", "12:60", "ab:cd", "-1:00"} {
		if _, err := domain.ParseClock(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestPreferencesMalformedQuietHoursDisabled(t *testing.T) {
	prefs := domain.DefaultPreferences()
	prefs.QuietHoursStart = "late"
	prefs.QuietHoursEnd = "07:00"

	if prefs.QuietHours().Enabled {
		t.Fatalf("expected malformed quiet hours to be disabled")
	}
}

func TestSnapshotSumOverIgnoresMissingKeys(t *testing.T) {
	s := domain.Snapshot{"a": 2, "b": 3}

	if got := s.SumOver([]string{"a", "c"}); got != 2 {
		t.Fatalf("unexpected sum: %d", got)
	}
}
