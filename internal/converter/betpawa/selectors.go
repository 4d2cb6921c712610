package betpawa

import (
	"strings"
)

// Page selectors of www.betpawa.co.* (desktop layout).
const (
	searchIconSel   = `svg[data-test-id='headerIconSearch']`
	searchInputSel  = `input[type='text']`
	filledSlipSel   = `div.betslip-main:not(.empty-betslip)`
	bookingLinkXP   = `//a[contains(@class,'underline') and contains(@class,'booking-code-link') and .//span[contains(text(),'Booking code')]]`
	bookingCodeXP   = `//h2`
	priceButtonPath = `//span[contains(@class,'event-bet-wrapper') and contains(@class,'bet-price')]`
)

// offeringXPath matches the prematch search result showing both team names.
func offeringXPath(home, away string) string {
	return "//div[contains(@class,'events-container prematch')]" +
		"//div[contains(@class,'teams') and .//p[contains(text()," + xpathLiteral(home) + ")]" +
		" and .//p[contains(text()," + xpathLiteral(away) + ")]]"
}

// marketXPath matches the first market group whose heading equals label after
// whitespace normalization. "Home Team Over/Under | Full Time" is not "Over/Under | Full Time".
// Each heading resolves to its nearest enclosing container only.
func marketXPath(label string) string {
	return "(//div[contains(@class,'events-container')]//h4[normalize-space(.)=" + xpathLiteral(label) +
		"]/ancestor::div[contains(@class,'events-container')][1])[1]"
}

func buttonsXPath(label string) string {
	return marketXPath(label) + priceButtonPath
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
// "Brighton & Hove Albion" -> 'Brighton & Hove Albion'; names with both quote
// kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
