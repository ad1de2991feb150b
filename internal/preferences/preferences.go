// Package preferences keeps the user settings in a YAML file and reports
// edits made to it.
package preferences

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unreadwatch/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

const configType = "yaml"

var ErrUnknownKey = errors.New("unknown preference key")

type Store struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	watcher *viper.Viper
}

func Open(path string, log *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("preferences path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preferences directory %s: %w", dir, err)
	}

	return &Store{path: path, log: log}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Keys lists every preference key in file order.
func Keys() []string {
	return slices.Clone(keys)
}

var keys = []string{
	"badge_color",
	"dynamic_color_enabled",
	"text_color",
	"shape",
	"sound",
	"sound_enabled",
	"volume",
	"animation",
	"poll_interval_minutes",
	"quiet_hours_start",
	"quiet_hours_end",
	"off_hours_start",
	"off_hours_end",
	"notifications_enabled",
	"custom_icon_enabled",
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType)

	defaults := domain.DefaultPreferences()
	v.SetDefault("badge_color", defaults.BadgeColor)
	v.SetDefault("dynamic_color_enabled", defaults.DynamicColorEnabled)
	v.SetDefault("text_color", defaults.TextColor)
	v.SetDefault("shape", defaults.Shape)
	v.SetDefault("sound", defaults.Sound)
	v.SetDefault("sound_enabled", defaults.SoundEnabled)
	v.SetDefault("volume", defaults.Volume)
	v.SetDefault("animation", defaults.Animation)
	v.SetDefault("poll_interval_minutes", defaults.PollIntervalMinutes)
	v.SetDefault("quiet_hours_start", defaults.QuietHoursStart)
	v.SetDefault("quiet_hours_end", defaults.QuietHoursEnd)
	v.SetDefault("off_hours_start", defaults.OffHoursStart)
	v.SetDefault("off_hours_end", defaults.OffHoursEnd)
	v.SetDefault("notifications_enabled", defaults.NotificationsEnabled)
	v.SetDefault("custom_icon_enabled", defaults.CustomIconEnabled)

	return v
}

func readInConfig(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Load reads the preferences file. A missing file yields the defaults and
// invalid values are replaced by their defaults.
func (s *Store) Load() (domain.Preferences, error) {
	v := newViper(s.path)

	if _, err := readInConfig(v); err != nil {
		return domain.DefaultPreferences(), fmt.Errorf("read preferences %s: %w", s.path, err)
	}

	prefs := domain.DefaultPreferences()
	if err := v.Unmarshal(&prefs); err != nil {
		s.log.Warn("Failed to decode preferences, using defaults",
			"error", err,
			"path", s.path)

		return domain.DefaultPreferences(), nil
	}

	return s.normalize(prefs), nil
}

// Settings returns the raw value of every key, defaults included.
func (s *Store) Settings() (map[string]any, error) {
	v := newViper(s.path)

	if _, err := readInConfig(v); err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", s.path, err)
	}

	return v.AllSettings(), nil
}

// Set validates and writes one preference to the file.
func (s *Store) Set(key string, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !slices.Contains(keys, key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	typed, err := parseValue(key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := newViper(s.path)
	if _, err = readInConfig(v); err != nil {
		return fmt.Errorf("read preferences %s: %w", s.path, err)
	}

	// Persist every key so the file documents the full set.
	for _, k := range keys {
		v.Set(k, v.Get(k))
	}
	v.Set(key, typed)

	if err = v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write preferences %s: %w", s.path, err)
	}

	s.log.Info("Preference is updated",
		"key", key,
		"value", typed)

	return nil
}

// Watch calls onChange with the reloaded preferences after every edit of
// the file.
func (s *Store) Watch(onChange func(domain.Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return
	}

	v := newViper(s.path)
	v.OnConfigChange(func(event fsnotify.Event) {
		prefs, err := s.Load()
		if err != nil {
			s.log.Error("Failed to reload preferences",
				"error", err,
				"event", event.Op.String())

			return
		}

		s.log.Info("Preferences file changed",
			"path", event.Name,
			"event", event.Op.String())

		onChange(prefs)
	})
	v.WatchConfig()

	s.watcher = v
}

func parseValue(key string, value string) (any, error) {
	switch key {
	case "dynamic_color_enabled", "sound_enabled", "notifications_enabled", "custom_icon_enabled":
		return strconv.ParseBool(value)
	case "volume", "poll_interval_minutes":
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}

		if key == "volume" && !validVolume(number) {
			return nil, fmt.Errorf("volume %s is outside 0..1", value)
		}

		if key == "poll_interval_minutes" && !validInterval(number) {
			return nil, fmt.Errorf("interval %s must be positive", value)
		}

		return number, nil
	case "badge_color", "text_color":
		if _, err := colorful.Hex(value); err != nil {
			return nil, fmt.Errorf("color %q: %w", value, err)
		}

		return value, nil
	case "shape":
		if !validShape(value) {
			return nil, fmt.Errorf("shape %q is not supported", value)
		}

		return value, nil
	case "animation":
		if value != domain.AnimationNone && value != domain.AnimationPulse {
			return nil, fmt.Errorf("animation %q is not supported", value)
		}

		return value, nil
	case "quiet_hours_start", "quiet_hours_end", "off_hours_start", "off_hours_end":
		if value == "" {
			return value, nil
		}

		if _, err := domain.ParseClock(value); err != nil {
			return nil, err
		}

		return value, nil
	default:
		return value, nil
	}
}

func (s *Store) normalize(prefs domain.Preferences) domain.Preferences {
	defaults := domain.DefaultPreferences()

	fallback := func(key string, got any, want any) {
		s.log.Warn("Invalid preference, using default",
			"key", key,
			"value", got,
			"default", want)
	}

	if _, err := colorful.Hex(prefs.BadgeColor); err != nil {
		fallback("badge_color", prefs.BadgeColor, defaults.BadgeColor)
		prefs.BadgeColor = defaults.BadgeColor
	}

	if _, err := colorful.Hex(prefs.TextColor); err != nil {
		fallback("text_color", prefs.TextColor, defaults.TextColor)
		prefs.TextColor = defaults.TextColor
	}

	prefs.Shape = strings.ToLower(strings.TrimSpace(prefs.Shape))
	if !validShape(prefs.Shape) {
		fallback("shape", prefs.Shape, defaults.Shape)
		prefs.Shape = defaults.Shape
	}

	prefs.Sound = strings.TrimSpace(prefs.Sound)
	if prefs.Sound == "" {
		prefs.Sound = domain.SoundNone
	}

	if !validVolume(prefs.Volume) {
		fallback("volume", prefs.Volume, defaults.Volume)
		prefs.Volume = defaults.Volume
	}

	prefs.Animation = strings.ToLower(strings.TrimSpace(prefs.Animation))
	if prefs.Animation != domain.AnimationNone && prefs.Animation != domain.AnimationPulse {
		fallback("animation", prefs.Animation, defaults.Animation)
		prefs.Animation = defaults.Animation
	}

	if !validInterval(prefs.PollIntervalMinutes) {
		fallback("poll_interval_minutes", prefs.PollIntervalMinutes, defaults.PollIntervalMinutes)
		prefs.PollIntervalMinutes = defaults.PollIntervalMinutes
	}

	if _, err := domain.ParseWindow(prefs.QuietHoursStart, prefs.QuietHoursEnd); err != nil {
		fallback("quiet_hours", prefs.QuietHoursStart+"-"+prefs.QuietHoursEnd, "disabled")
		prefs.QuietHoursStart, prefs.QuietHoursEnd = "", ""
	}

	if _, err := domain.ParseWindow(prefs.OffHoursStart, prefs.OffHoursEnd); err != nil {
		fallback("off_hours", prefs.OffHoursStart+"-"+prefs.OffHoursEnd, "disabled")
		prefs.OffHoursStart, prefs.OffHoursEnd = "", ""
	}

	return prefs
}

func validShape(shape string) bool {
	switch shape {
	case domain.ShapeRound, domain.ShapeCircle, domain.ShapeSquare, domain.ShapeHexagon:
		return true
	default:
		return false
	}
}

func validVolume(volume float64) bool {
	return !math.IsNaN(volume) && volume >= 0 && volume <= 1
}

func validInterval(minutes float64) bool {
	return !math.IsNaN(minutes) && !math.IsInf(minutes, 0) && minutes > 0
}
