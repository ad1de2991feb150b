package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeWindow is a daily minute-of-day range. A window whose start is not
// before its end wraps across midnight.
type TimeWindow struct {
	Start   int
	End     int
	Enabled bool
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)

	hoursStr, minutesStr, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("parse clock %q: missing colon", raw)
	}

	hours, err := strconv.Atoi(hoursStr)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("parse clock %q: invalid hours", raw)
	}

	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("parse clock %q: invalid minutes", raw)
	}

	return hours*60 + minutes, nil
}

// ParseWindow builds a window from two clock strings. Either side empty
// yields a disabled window.
func ParseWindow(start string, end string) (TimeWindow, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return TimeWindow{}, nil
	}

	startMinute, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("parse window start: %w", err)
	}

	endMinute, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("parse window end: %w", err)
	}

	return TimeWindow{Start: startMinute, End: endMinute, Enabled: true}, nil
}

func (w TimeWindow) ContainsMinute(minute int) bool {
	if !w.Enabled {
		return false
	}

	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay

	if w.Start < w.End {
		return minute >= w.Start && minute < w.End
	}

	return minute >= w.Start || minute < w.End
}

func (w TimeWindow) Contains(t time.Time) bool {
	return w.ContainsMinute(t.Hour()*60 + t.Minute())
}
