package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyTeam        = errors.New("team name cannot be empty")
	ErrInvalidSelection = errors.New("selection does not belong to market")
)

// SlipEntry is one match-level selection of a betting slip.
// Build it with NewSlipEntry; a zero SlipEntry is not a valid entry.
type SlipEntry struct {
	EventID   string     `json:"event_id,omitempty"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	StartTime time.Time  `json:"start_time"` // disambiguation hint only
	Market    MarketKind `json:"-"`
	Selection Selection  `json:"selection"`
	Odds      OddsQuote  `json:"-"`
}

// NewSlipEntry validates and builds an entry.
func NewSlipEntry(eventID, home, away string, start time.Time, market MarketKind, sel Selection, odds OddsQuote) (SlipEntry, error) {
	home = strings.TrimSpace(home)
	away = strings.TrimSpace(away)
	if home == "" || away == "" {
		return SlipEntry{}, ErrEmptyTeam
	}
	if !market.Allows(sel) {
		return SlipEntry{}, fmt.Errorf("%w: %q for %s", ErrInvalidSelection, sel, market)
	}
	if odds == nil {
		odds = OddsQuote{}
	}
	return SlipEntry{
		EventID:   eventID,
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: start,
		Market:    market,
		Selection: sel,
		Odds:      odds,
	}, nil
}

// Name returns "Home vs Away".
func (e SlipEntry) Name() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}

// Slip is an ordered list of entries; order is the source feed order and is never changed.
type Slip struct {
	BookingCode string
	Entries     []SlipEntry
}

func (s Slip) Len() int { return len(s.Entries) }

// TranslatedEntry is a SlipEntry whose team names are in the target vocabulary.
type TranslatedEntry struct {
	SlipEntry

	SourceHomeTeam string
	SourceAwayTeam string
	// Unmapped lists source names the translator passed through unchanged.
	Unmapped []string
}

// Query is the search string typed into the target site.
func (e TranslatedEntry) Query() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}

// ReplicationOutcome is the per-entry result of replaying a selection on the target.
type ReplicationOutcome string

const (
	OutcomeApplied          ReplicationOutcome = "applied"
	OutcomeNotFound         ReplicationOutcome = "not_found"
	OutcomeAmbiguousMarket  ReplicationOutcome = "ambiguous_market"
	OutcomeTransientFailure ReplicationOutcome = "transient_failure"
)

func (o ReplicationOutcome) String() string { return string(o) }
