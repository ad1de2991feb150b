package domain

import (
	"maps"
	"time"
)

type Message struct {
	Subject string
	Author  string
	// Account is the key of the mailbox the message arrived in.
	Account string
}

// UnreadSample is the result of one successful poll of one account.
type UnreadSample struct {
	AccountKey string
	FeedURL    string
	Count      int
	Latest     []Message
}

// Snapshot maps an account key to its last observed unread count.
type Snapshot map[string]int

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}

	return maps.Clone(s)
}

// SumOver adds up the counts of the given keys. Keys missing from s count as zero.
func (s Snapshot) SumOver(keys []string) int {
	total := 0
	for _, key := range keys {
		total += s[key]
	}

	return total
}

type AccountCount struct {
	AccountKey string `json:"accountKey"`
	Count      int    `json:"count"`
}

type PollCycle struct {
	ID             string `json:"id"`
	Trigger        string `json:"trigger"`
	Total          int    `json:"total"`
	AccountsOK     int    `json:"accountsOk"`
	AccountsFailed int    `json:"accountsFailed"`
	FinishedAtUnix int64  `json:"finishedAt"`
}

// Status is the monitor state reported to the CLI and chat commands.
type Status struct {
	Total     int            `json:"total"`
	Accounts  []AccountCount `json:"accounts"`
	LastCycle *PollCycle     `json:"lastCycle,omitempty"`
	Interval  string         `json:"interval,omitempty"`
	NextPoll  time.Time      `json:"nextPoll,omitzero"`
}
