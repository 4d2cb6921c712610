package translate

import (
	"fmt"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

// Market group headings on the target site.
const (
	LabelHeadToHead     = "1X2 | Full Time"
	LabelTotalGoals     = "Over/Under | Full Time"
	LabelBothTeamsScore = "Both Teams To Score | Full Time"
)

// MarketLabel returns the heading the target site groups a market under.
// Every MarketType has a label; reaching the default branch is a programming error.
func MarketLabel(kind models.MarketKind) string {
	switch kind.Type {
	case models.HeadToHead:
		return LabelHeadToHead
	case models.TotalGoals:
		return LabelTotalGoals
	case models.BothTeamsScore:
		return LabelBothTeamsScore
	default:
		panic(fmt.Sprintf("translate: no target label for market %s", kind))
	}
}

// TotalsButtonLabel is the text a totals button renders, e.g. "Over (2.5)".
func TotalsButtonLabel(kind models.MarketKind, sel models.Selection) string {
	return fmt.Sprintf("%s (%s)", sel, kind.Threshold.String())
}
