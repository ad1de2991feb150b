// Package policy decides how a change in unread counts is surfaced.
//
// Accounts that failed in the current cycle keep their previous value in
// the snapshot but are left out of both totals, so a stale figure can never
// produce a notification on its own.
package policy

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unreadwatch/internal/domain"
)

type Effect interface {
	isEffect()
}

type RenderBadge struct {
	Total      int
	Text       string
	Color      string
	TextColor  string
	Shape      string
	CustomIcon bool
}

type Notify struct {
	Total    int
	Previous int
	Latest   []domain.Message
}

type PlaySound struct {
	Source string
	Volume float64
}

type Animate struct {
	Kind  string
	Badge RenderBadge
}

func (RenderBadge) isEffect() {}
func (Notify) isEffect()      {}
func (PlaySound) isEffect()   {}
func (Animate) isEffect()     {}

type Decision struct {
	Effects       []Effect
	Snapshot      domain.Snapshot
	CurrentTotal  int
	PreviousTotal int
	QuietHours    bool
}

// Evaluate compares the successful samples of this cycle against the
// previous snapshot and returns the effects to apply.
func Evaluate(
	samples []domain.UnreadSample,
	previous domain.Snapshot,
	prefs domain.Preferences,
	now time.Time,
) Decision {
	snapshot := previous.Clone()

	var answered []string
	for _, sample := range samples {
		key := strings.TrimSpace(sample.AccountKey)
		if key == "" {
			key = sample.FeedURL
		}

		snapshot[key] = max(sample.Count, 0)

		if !slices.Contains(answered, key) {
			answered = append(answered, key)
		}
	}

	currentTotal := snapshot.SumOver(answered)
	previousTotal := previous.SumOver(answered)
	quiet := prefs.QuietHours().Contains(now)

	badge := RenderBadge{
		Total:      currentTotal,
		Text:       BadgeText(currentTotal),
		Color:      ResolveColor(prefs, currentTotal),
		TextColor:  prefs.TextColor,
		Shape:      prefs.Shape,
		CustomIcon: prefs.CustomIconEnabled,
	}

	var effects []Effect

	if currentTotal > previousTotal && !quiet {
		effects = append(effects, Notify{
			Total:    currentTotal,
			Previous: previousTotal,
			Latest:   latestMessages(samples),
		})

		if prefs.SoundEnabled && prefs.Sound != "" && prefs.Sound != domain.SoundNone {
			effects = append(effects, PlaySound{
				Source: prefs.Sound,
				Volume: min(max(prefs.Volume, 0), 1),
			})
		}

		if prefs.Animation == domain.AnimationPulse {
			effects = append(effects, Animate{Kind: domain.AnimationPulse, Badge: badge})
		}
	}

	effects = append(effects, badge)

	return Decision{
		Effects:       effects,
		Snapshot:      snapshot,
		CurrentTotal:  currentTotal,
		PreviousTotal: previousTotal,
		QuietHours:    quiet,
	}
}

// ClearedBadge is rendered when a cycle fails as a whole.
func ClearedBadge(prefs domain.Preferences) RenderBadge {
	return RenderBadge{
		Color:      prefs.BadgeColor,
		TextColor:  prefs.TextColor,
		Shape:      prefs.Shape,
		CustomIcon: prefs.CustomIconEnabled,
	}
}

func BadgeText(total int) string {
	if total <= 0 {
		return ""
	}

	return strconv.Itoa(total)
}

func latestMessages(samples []domain.UnreadSample) []domain.Message {
	var messages []domain.Message
	for _, sample := range samples {
		for _, message := range sample.Latest {
			if message.Account == "" {
				message.Account = sample.AccountKey
			}

			messages = append(messages, message)
		}
	}

	return messages
}
