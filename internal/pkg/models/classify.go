package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Source market descriptors recognized by ClassifyMarket. Matching is case-sensitive.
const (
	DescriptorHeadToHead     = "1X2"
	DescriptorTotalGoals     = "Over/Under"
	DescriptorBothTeamsScore = "GG/NG"
)

// Field is a value read from a loosely typed document together with whether it was present.
type Field[T any] struct {
	Value   T
	Present bool
}

func Present[T any](v T) Field[T] { return Field[T]{Value: v, Present: true} }

func Absent[T any]() Field[T] { return Field[T]{} }

func (f Field[T]) Get() (T, bool) { return f.Value, f.Present }

// Or returns the value, or def when absent.
func (f Field[T]) Or(def T) T {
	if f.Present {
		return f.Value
	}
	return def
}

// MarketBlock is a raw market as found in a source slip document.
type MarketBlock struct {
	Descriptor Field[string]
	Specifier  Field[string] // e.g. "total=2.5"
	Outcomes   []OutcomeBlock
}

// OutcomeBlock is one raw outcome inside a MarketBlock.
type OutcomeBlock struct {
	Label    Field[string]
	Price    Field[decimal.Decimal]
	Selected Field[bool]
}

// Classification is a fully resolved market/selection/odds triple.
type Classification struct {
	Market    MarketKind
	Selection Selection
	Odds      OddsQuote
}

// ClassifyMarket resolves a raw market block. It returns false for unknown
// descriptors, a missing Over/Under threshold, unknown outcome labels on the
// chosen outcome, and blocks where the chosen selection cannot be determined.
//
// The chosen outcome is the one flagged as selected. Without any flag, a block
// with exactly one recognizable outcome selects it implicitly.
func ClassifyMarket(block MarketBlock) (Classification, bool) {
	desc, ok := block.Descriptor.Get()
	if !ok {
		return Classification{}, false
	}

	var market MarketKind
	switch desc {
	case DescriptorHeadToHead:
		market = NewHeadToHead()
	case DescriptorBothTeamsScore:
		market = NewBothTeamsScore()
	case DescriptorTotalGoals:
		threshold, ok := ParseThreshold(block.Specifier.Or(""))
		if !ok {
			return Classification{}, false
		}
		m, err := NewTotalGoals(threshold)
		if err != nil {
			return Classification{}, false
		}
		market = m
	default:
		return Classification{}, false
	}

	odds := OddsQuote{}
	var (
		chosen     Selection
		flagged    int
		anyFlag    bool
		recognized []Selection
	)
	for _, o := range block.Outcomes {
		label, _ := o.Label.Get()
		sel, known := parseOutcomeLabel(market, label)

		selected, hasFlag := o.Selected.Get()
		anyFlag = anyFlag || hasFlag
		if selected {
			if !known {
				return Classification{}, false
			}
			flagged++
			chosen = sel
		}
		if !known {
			continue
		}
		recognized = append(recognized, sel)
		if price, ok := o.Price.Get(); ok && price.IsPositive() {
			odds[sel] = price
		}
	}

	switch {
	case flagged == 1:
	case flagged == 0 && !anyFlag && len(recognized) == 1:
		chosen = recognized[0]
	default:
		return Classification{}, false
	}

	return Classification{Market: market, Selection: chosen, Odds: odds}, true
}

// ParseThreshold extracts the goal line from a specifier such as "total=2.5".
// Pairs may be pipe separated; the "total" key wins, otherwise a lone pair's value is used.
func ParseThreshold(specifier string) (decimal.Decimal, bool) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return decimal.Decimal{}, false
	}

	pairs := strings.Split(specifier, "|")
	var raw string
	found := false
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == "total" {
			raw, found = value, true
			break
		}
		if len(pairs) == 1 {
			raw, found = value, true
		}
	}
	if !found {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseOutcomeLabel maps a source outcome label to a Selection.
// Totals labels look like "Over 2.5"; a line that disagrees with the market threshold is rejected.
func parseOutcomeLabel(market MarketKind, label string) (Selection, bool) {
	label = strings.TrimSpace(label)
	switch market.Type {
	case HeadToHead:
		switch label {
		case "Home":
			return SelectionHome, true
		case "Draw":
			return SelectionDraw, true
		case "Away":
			return SelectionAway, true
		}
	case BothTeamsScore:
		switch label {
		case "Yes":
			return SelectionYes, true
		case "No":
			return SelectionNo, true
		}
	case TotalGoals:
		fields := strings.Fields(label)
		if len(fields) == 0 || len(fields) > 2 {
			return "", false
		}
		var sel Selection
		switch fields[0] {
		case "Over":
			sel = SelectionOver
		case "Under":
			sel = SelectionUnder
		default:
			return "", false
		}
		if len(fields) == 2 {
			line, err := decimal.NewFromString(fields[1])
			if err != nil || !line.Equal(market.Threshold) {
				return "", false
			}
		}
		return sel, true
	}
	return "", false
}
