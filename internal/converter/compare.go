package converter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
)

// StartWindow is how far apart two kickoff times may be and still name the same match.
const StartWindow = 60 * time.Second

// EntryMatch pairs a source entry with the target entry for the same match.
type EntryMatch struct {
	Source        models.SlipEntry
	Target        models.SlipEntry
	SameMarket    bool
	SameSelection bool
	// Odds of the picked selection on each side; zero when unknown.
	SourceOdds decimal.Decimal
	TargetOdds decimal.Decimal
}

// Agrees reports whether both sides back the same outcome.
func (m EntryMatch) Agrees() bool {
	return m.SameMarket && m.SameSelection
}

// Comparison is the entry-by-entry view of a source slip against a target slip.
type Comparison struct {
	SourceCode      string
	TargetCode      string
	Matches         []EntryMatch
	UnmatchedSource []models.SlipEntry
	UnmatchedTarget []models.SlipEntry
}

// Verified reports whether every source entry is on the target slip with the
// same market and selection.
func (c Comparison) Verified() bool {
	if len(c.UnmatchedSource) > 0 || len(c.Matches) == 0 {
		return false
	}
	for _, m := range c.Matches {
		if !m.Agrees() {
			return false
		}
	}
	return true
}

// Disagreements counts the paired entries whose market or selection differ.
func (c Comparison) Disagreements() int {
	n := 0
	for _, m := range c.Matches {
		if !m.Agrees() {
			n++
		}
	}
	return n
}

// Compare pairs source entries with target entries. Team names match
// case-insensitively as they are, or through the team table in either
// direction. When both sides carry a start time they must be within
// StartWindow. Each target entry is used at most once, in slip order.
func Compare(source, target models.Slip, teams *translate.TeamTable) Comparison {
	names := teamMatcher{forward: teams, back: teams.Reverse()}
	cmp := Comparison{SourceCode: source.BookingCode, TargetCode: target.BookingCode}
	used := make([]bool, len(target.Entries))

	for _, s := range source.Entries {
		found := -1
		for i, t := range target.Entries {
			if !used[i] && names.sameMatch(s, t) {
				found = i
				break
			}
		}
		if found < 0 {
			cmp.UnmatchedSource = append(cmp.UnmatchedSource, s)
			continue
		}
		used[found] = true
		t := target.Entries[found]
		m := EntryMatch{
			Source:        s,
			Target:        t,
			SameMarket:    s.Market.Equal(t.Market),
			SameSelection: s.Selection == t.Selection,
		}
		m.SourceOdds, _ = s.Odds.Price(s.Selection)
		m.TargetOdds, _ = t.Odds.Price(t.Selection)
		cmp.Matches = append(cmp.Matches, m)
	}
	for i, t := range target.Entries {
		if !used[i] {
			cmp.UnmatchedTarget = append(cmp.UnmatchedTarget, t)
		}
	}
	return cmp
}

type teamMatcher struct {
	forward *translate.TeamTable
	back    *translate.TeamTable
}

func (n teamMatcher) sameMatch(s, t models.SlipEntry) bool {
	if !n.sameTeam(s.HomeTeam, t.HomeTeam) || !n.sameTeam(s.AwayTeam, t.AwayTeam) {
		return false
	}
	if s.StartTime.IsZero() || t.StartTime.IsZero() {
		return true
	}
	d := s.StartTime.Sub(t.StartTime)
	if d < 0 {
		d = -d
	}
	return d < StartWindow
}

func (n teamMatcher) sameTeam(source, target string) bool {
	if strings.EqualFold(source, target) {
		return true
	}
	if name, ok := n.back.Lookup(target); ok && strings.EqualFold(source, name) {
		return true
	}
	name, ok := n.forward.Lookup(source)
	return ok && strings.EqualFold(name, target)
}
