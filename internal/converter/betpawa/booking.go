package betpawa

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/validation"
)

var (
	// ErrBookingUnavailable covers transport errors, timeouts, non-200 responses and undecodable bodies.
	ErrBookingUnavailable = errors.New("target booking feed unavailable")
	// ErrBookingEmpty means the booking number resolved to no comparable entry.
	ErrBookingEmpty = errors.New("target slip has no comparable entries")
)

// Market type names of the booking-number document.
const (
	marketHeadToHead     = "1X2 - FT"
	marketTotalGoals     = "Over/Under - FT"
	marketBothTeamsScore = "Both Teams To Score - FT"
)

// BookingResponse is the envelope of /api/sportsbook/v2/booking-number/{code}.
// Items are kept raw so one malformed item cannot spoil the rest.
type BookingResponse struct {
	Items []json.RawMessage `json:"items"`
}

// BookingItem is one selection of a Betpawa slip.
type BookingItem struct {
	Event struct {
		ID        json.RawMessage `json:"id"`
		Name      json.RawMessage `json:"name"` // "Home - Away"
		StartTime json.RawMessage `json:"startTime"`
	} `json:"event"`
	Market struct {
		MarketType struct {
			ID   json.RawMessage `json:"id"`
			Name json.RawMessage `json:"name"`
		} `json:"marketType"`
		Prices []BookingPrice `json:"price"`
	} `json:"market"`
	// Price is the picked selection.
	Price *BookingPrice `json:"price"`
}

type BookingPrice struct {
	Name  json.RawMessage `json:"name"`
	Price json.RawMessage `json:"price"`
}

// ParseBooking parses a booking-number document into a slip in Betpawa's
// vocabulary. Items without an event name in "Home - Away" form, with an unknown
// market, or without a resolvable selection are skipped.
func ParseBooking(bookingCode string, body []byte) (models.Slip, error) {
	var resp BookingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Slip{}, fmt.Errorf("%w: decode booking document: %v", ErrBookingUnavailable, err)
	}

	slip := models.Slip{BookingCode: bookingCode}
	for i, raw := range resp.Items {
		var item BookingItem
		if err := json.Unmarshal(raw, &item); err != nil {
			slog.Warn("Skipping malformed booking item", "booking_code", bookingCode, "index", i, "error", err)
			continue
		}
		entry, ok := item.entry()
		if !ok {
			slog.Debug("Skipping unconvertible booking item", "booking_code", bookingCode, "index", i)
			continue
		}
		slip.Entries = append(slip.Entries, entry)
	}

	if slip.Len() == 0 {
		return models.Slip{}, ErrBookingEmpty
	}
	return slip, nil
}

func (it BookingItem) entry() (models.SlipEntry, bool) {
	name, ok := models.StringField(it.Event.Name).Get()
	if !ok {
		return models.SlipEntry{}, false
	}
	home, away, ok := splitEventName(name)
	if !ok {
		return models.SlipEntry{}, false
	}

	picked, ok := it.pickedLabel()
	if !ok {
		return models.SlipEntry{}, false
	}
	marketName := models.StringField(it.Market.MarketType.Name).Or("")
	market, sel, ok := classifyPrice(marketName, picked)
	if !ok {
		return models.SlipEntry{}, false
	}

	odds := models.OddsQuote{}
	for _, p := range it.Market.Prices {
		label, _ := models.StringField(p.Name).Get()
		m, s, known := classifyPrice(marketName, label)
		if !known || !m.Equal(market) {
			continue
		}
		if price, ok := models.DecimalField(p.Price).Get(); ok && price.IsPositive() {
			odds[s] = price
		}
	}
	if it.Price != nil {
		if price, ok := models.DecimalField(it.Price.Price).Get(); ok && price.IsPositive() {
			odds[sel] = price
		}
	}

	entry, err := models.NewSlipEntry(
		models.StringField(it.Event.ID).Or(""),
		home, away,
		models.TimeField(it.Event.StartTime).Or(time.Time{}),
		market, sel, odds,
	)
	if err != nil {
		return models.SlipEntry{}, false
	}
	return entry, true
}

// pickedLabel is the picked price name, or the only price of the market when the
// item carries no explicit pick.
func (it BookingItem) pickedLabel() (string, bool) {
	if it.Price != nil {
		return models.StringField(it.Price.Name).Get()
	}
	if len(it.Market.Prices) == 1 {
		return models.StringField(it.Market.Prices[0].Name).Get()
	}
	return "", false
}

func splitEventName(name string) (string, string, bool) {
	home, away, ok := strings.Cut(name, " - ")
	if !ok {
		return "", "", false
	}
	home, away = validation.TeamName(home), validation.TeamName(away)
	return home, away, home != "" && away != ""
}

// classifyPrice maps a market type name and a price name ("1", "X", "2", "Yes",
// "No", "Over 2.5", "Under 2.5") onto a market and selection.
func classifyPrice(marketName, label string) (models.MarketKind, models.Selection, bool) {
	label = strings.TrimSpace(label)
	var m models.MarketKind
	switch marketName {
	case marketHeadToHead:
		m = models.NewHeadToHead()
		switch label {
		case "1":
			return m, models.SelectionHome, true
		case "X":
			return m, models.SelectionDraw, true
		case "2":
			return m, models.SelectionAway, true
		}
	case marketBothTeamsScore:
		m = models.NewBothTeamsScore()
		switch label {
		case "Yes":
			return m, models.SelectionYes, true
		case "No":
			return m, models.SelectionNo, true
		}
	case marketTotalGoals:
		side, line, ok := strings.Cut(label, " ")
		if !ok {
			return m, "", false
		}
		var sel models.Selection
		switch side {
		case "Over":
			sel = models.SelectionOver
		case "Under":
			sel = models.SelectionUnder
		default:
			return m, "", false
		}
		threshold, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(line), "()"))
		if err != nil {
			return m, "", false
		}
		m, err = models.NewTotalGoals(threshold)
		if err != nil {
			return m, "", false
		}
		return m, sel, true
	}
	return m, "", false
}
