package sportybet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/validation"
)

var (
	// ErrFeedUnavailable covers transport errors, timeouts, non-200 responses and undecodable bodies.
	ErrFeedUnavailable = errors.New("source feed unavailable")
	// ErrFeedEmpty means the feed answered but no classifiable entry remained.
	ErrFeedEmpty = errors.New("source slip has no convertible entries")
)

// Fetcher is the transport the Feed reads share documents from.
type Fetcher interface {
	GetShare(ctx context.Context, bookingCode string) ([]byte, error)
}

// Feed turns booking codes into slips.
type Feed struct {
	fetcher Fetcher
	metrics *metrics.Recorder
}

func NewFeed(fetcher Fetcher, rec *metrics.Recorder) *Feed {
	return &Feed{fetcher: fetcher, metrics: rec}
}

// NewFeedFromConfig builds a Feed over the HTTP client.
func NewFeedFromConfig(cfg config.FeedConfig, rec *metrics.Recorder) *Feed {
	return NewFeed(NewClient(cfg), rec)
}

// FetchSlip fetches and parses the slip behind a booking code. Single attempt.
func (f *Feed) FetchSlip(ctx context.Context, bookingCode string) (models.Slip, error) {
	start := time.Now()
	body, err := f.fetcher.GetShare(ctx, bookingCode)
	f.metrics.Feed(time.Since(start))
	if err != nil {
		return models.Slip{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return ParseShare(bookingCode, body)
}

// ParseShare parses a share document. Events missing eventId or a team name are
// skipped, and each event contributes its first classifiable market.
func ParseShare(bookingCode string, body []byte) (models.Slip, error) {
	var resp ShareResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Slip{}, fmt.Errorf("%w: decode share document: %v", ErrFeedUnavailable, err)
	}

	if code, ok := models.IntField(resp.BizCode).Get(); ok && code != bizCodeOK {
		msg := models.StringField(resp.Message).Or("unknown")
		return models.Slip{}, fmt.Errorf("%w: bizCode %d: %s", ErrFeedEmpty, code, msg)
	}
	if resp.Data == nil {
		return models.Slip{}, fmt.Errorf("%w: no data", ErrFeedEmpty)
	}

	slip := models.Slip{BookingCode: bookingCode}
	for i, raw := range resp.Data.Outcomes {
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			slog.Warn("Skipping malformed event", "booking_code", bookingCode, "index", i, "error", err)
			continue
		}
		entry, ok := ev.entry()
		if !ok {
			slog.Debug("Skipping unconvertible event", "booking_code", bookingCode, "index", i)
			continue
		}
		slip.Entries = append(slip.Entries, entry)
	}

	if slip.Len() == 0 {
		return models.Slip{}, ErrFeedEmpty
	}
	return slip, nil
}

func (ev Event) entry() (models.SlipEntry, bool) {
	eventID, ok := models.StringField(ev.EventID).Get()
	if !ok {
		return models.SlipEntry{}, false
	}
	home := validation.TeamName(models.StringField(ev.HomeTeamName).Or(""))
	away := validation.TeamName(models.StringField(ev.AwayTeamName).Or(""))
	if home == "" || away == "" {
		return models.SlipEntry{}, false
	}
	start := models.MillisField(ev.EstimateStartTime).Or(time.Time{})

	for _, m := range ev.Markets {
		c, ok := models.ClassifyMarket(m.Block())
		if !ok {
			continue
		}
		entry, err := models.NewSlipEntry(eventID, home, away, start, c.Market, c.Selection, c.Odds)
		if err != nil {
			continue
		}
		return entry, true
	}
	return models.SlipEntry{}, false
}
