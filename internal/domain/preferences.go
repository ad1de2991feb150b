package domain

const (
	ShapeRound   = "round"
	ShapeCircle  = "circle"
	ShapeSquare  = "square"
	ShapeHexagon = "hexagon"

	SoundNone = "none"
	SoundBeep = "beep"

	AnimationNone  = "none"
	AnimationPulse = "pulse"
)

// Preferences are the user settings. The engine only reads them.
type Preferences struct {
	BadgeColor           string  `mapstructure:"badge_color"`
	DynamicColorEnabled  bool    `mapstructure:"dynamic_color_enabled"`
	TextColor            string  `mapstructure:"text_color"`
	Shape                string  `mapstructure:"shape"`
	Sound                string  `mapstructure:"sound"`
	SoundEnabled         bool    `mapstructure:"sound_enabled"`
	Volume               float64 `mapstructure:"volume"`
	Animation            string  `mapstructure:"animation"`
	PollIntervalMinutes  float64 `mapstructure:"poll_interval_minutes"`
	QuietHoursStart      string  `mapstructure:"quiet_hours_start"`
	QuietHoursEnd        string  `mapstructure:"quiet_hours_end"`
	OffHoursStart        string  `mapstructure:"off_hours_start"`
	OffHoursEnd          string  `mapstructure:"off_hours_end"`
	NotificationsEnabled bool    `mapstructure:"notifications_enabled"`
	CustomIconEnabled    bool    `mapstructure:"custom_icon_enabled"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		BadgeColor:           "#D93025",
		DynamicColorEnabled:  false,
		TextColor:            "#FFFFFF",
		Shape:                ShapeRound,
		Sound:                SoundNone,
		SoundEnabled:         true,
		Volume:               1,
		Animation:            AnimationNone,
		PollIntervalMinutes:  1,
		NotificationsEnabled: true,
		CustomIconEnabled:    false,
	}
}

// QuietHours is the do-not-disturb window. A malformed value disables it.
func (p Preferences) QuietHours() TimeWindow {
	w, err := ParseWindow(p.QuietHoursStart, p.QuietHoursEnd)
	if err != nil {
		return TimeWindow{}
	}

	return w
}

// OffHours is the reduced-polling window. A malformed value disables it.
func (p Preferences) OffHours() TimeWindow {
	w, err := ParseWindow(p.OffHoursStart, p.OffHoursEnd)
	if err != nil {
		return TimeWindow{}
	}

	return w
}
