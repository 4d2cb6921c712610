package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketType is the closed set of markets a slip entry can carry.
type MarketType int

const (
	MarketUnknown MarketType = iota
	HeadToHead               // 1X2
	TotalGoals               // Over/Under with a goal threshold
	BothTeamsScore           // GG/NG
)

// String returns string representation
func (t MarketType) String() string {
	switch t {
	case HeadToHead:
		return "head_to_head"
	case TotalGoals:
		return "total_goals"
	case BothTeamsScore:
		return "both_teams_score"
	default:
		return "unknown"
	}
}

// MarketKind is a market type plus its parameter. Threshold is only meaningful for TotalGoals.
type MarketKind struct {
	Type      MarketType
	Threshold decimal.Decimal
}

func NewHeadToHead() MarketKind     { return MarketKind{Type: HeadToHead} }
func NewBothTeamsScore() MarketKind { return MarketKind{Type: BothTeamsScore} }

// NewTotalGoals builds a TotalGoals market. The threshold must be positive.
func NewTotalGoals(threshold decimal.Decimal) (MarketKind, error) {
	if !threshold.IsPositive() {
		return MarketKind{}, fmt.Errorf("total goals threshold must be positive, got %s", threshold)
	}
	return MarketKind{Type: TotalGoals, Threshold: threshold}, nil
}

// Selections returns the valid selections for the market in the positional
// order the target site renders their buttons.
func (k MarketKind) Selections() []Selection {
	switch k.Type {
	case HeadToHead:
		return []Selection{SelectionHome, SelectionDraw, SelectionAway}
	case TotalGoals:
		return []Selection{SelectionOver, SelectionUnder}
	case BothTeamsScore:
		return []Selection{SelectionYes, SelectionNo}
	default:
		return nil
	}
}

// Allows reports whether sel belongs to the market's valid set.
func (k MarketKind) Allows(sel Selection) bool {
	for _, s := range k.Selections() {
		if s == sel {
			return true
		}
	}
	return false
}

// Equal compares type and, for totals, the threshold by value (2.5 == 2.50).
func (k MarketKind) Equal(other MarketKind) bool {
	if k.Type != other.Type {
		return false
	}
	if k.Type == TotalGoals {
		return k.Threshold.Equal(other.Threshold)
	}
	return true
}

func (k MarketKind) String() string {
	if k.Type == TotalGoals {
		return fmt.Sprintf("%s(%s)", k.Type, k.Threshold.String())
	}
	return k.Type.String()
}

// Selection is one concrete choice within a market.
type Selection string

const (
	SelectionHome  Selection = "Home"
	SelectionDraw  Selection = "Draw"
	SelectionAway  Selection = "Away"
	SelectionOver  Selection = "Over"
	SelectionUnder Selection = "Under"
	SelectionYes   Selection = "Yes"
	SelectionNo    Selection = "No"
)

// Position returns the index of sel within the market's positional order, or -1.
func (k MarketKind) Position(sel Selection) int {
	for i, s := range k.Selections() {
		if s == sel {
			return i
		}
	}
	return -1
}

// OddsQuote maps a selection to its decimal price. Missing selections mean the price is unknown.
type OddsQuote map[Selection]decimal.Decimal

// Price returns the quoted price for sel.
func (q OddsQuote) Price(sel Selection) (decimal.Decimal, bool) {
	p, ok := q[sel]
	return p, ok
}
