package policy

import "unreadwatch/internal/domain"

type Tier string

const (
	TierNeutral   Tier = "neutral"
	TierAttention Tier = "attention"
	TierElevated  Tier = "elevated"
	TierCritical  Tier = "critical"
)

const (
	elevatedThreshold = 6
	criticalThreshold = 16
)

var tierColors = map[Tier]string{
	TierAttention: "#1A73E8",
	TierElevated:  "#F29900",
	TierCritical:  "#B00020",
}

func TierFor(count int) Tier {
	switch {
	case count >= criticalThreshold:
		return TierCritical
	case count >= elevatedThreshold:
		return TierElevated
	case count >= 1:
		return TierAttention
	default:
		return TierNeutral
	}
}

// ResolveColor picks the badge background. Without dynamic colors the
// configured color is used for every count.
func ResolveColor(prefs domain.Preferences, count int) string {
	if !prefs.DynamicColorEnabled {
		return prefs.BadgeColor
	}

	if color, ok := tierColors[TierFor(count)]; ok {
		return color
	}

	return prefs.BadgeColor
}
