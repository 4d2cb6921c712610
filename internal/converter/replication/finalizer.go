package replication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

// ErrConversionFailed means no entry could be confirmed on the target, or the
// code could not be read back after some were.
var ErrConversionFailed = errors.New("conversion failed")

// Result is the report of a conversion run.
type Result struct {
	ConfirmedCount int           `json:"confirmed_count"`
	TotalEntries   int           `json:"total_entries"`
	Outcomes       []EntryReport `json:"outcomes"`
	// GeneratedCode is empty when no code was produced.
	GeneratedCode string `json:"converted_code,omitempty"`
}

// Counts returns the number of entries per outcome.
func (r Result) Counts() map[models.ReplicationOutcome]int {
	out := make(map[models.ReplicationOutcome]int)
	for _, o := range r.Outcomes {
		out[o.Outcome]++
	}
	return out
}

// Finalize reveals the target booking code when at least one entry was confirmed.
// With none confirmed it returns ErrConversionFailed without touching the surface.
// The Result is always populated, including on error.
func (e *Engine) Finalize(ctx context.Context, surface Surface, reports []EntryReport, total int) (Result, error) {
	res := Result{TotalEntries: total, Outcomes: reports, ConfirmedCount: countConfirmed(reports)}
	if res.ConfirmedCount == 0 {
		return res, fmt.Errorf("%w: none of %d entries confirmed", ErrConversionFailed, total)
	}

	var code string
	err := e.step(ctx, "reveal", e.timeouts.Reveal, func(c context.Context) error {
		var err error
		code, err = surface.RevealCode(c)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSessionLost) {
			return res, fmt.Errorf("reveal code: %w", err)
		}
		return res, fmt.Errorf("%w: reveal code: %v", ErrConversionFailed, err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return res, fmt.Errorf("%w: empty booking code", ErrConversionFailed)
	}
	res.GeneratedCode = code
	e.logger.Info("Booking code generated", "code", code, "confirmed", res.ConfirmedCount, "total", total)
	return res, nil
}

// Run replicates entries and finalizes the slip on one surface.
func (e *Engine) Run(ctx context.Context, surface Surface, entries []models.TranslatedEntry) (Result, error) {
	reports, err := e.Replicate(ctx, surface, entries)
	if err != nil {
		return Result{TotalEntries: len(entries), Outcomes: reports, ConfirmedCount: countConfirmed(reports)}, err
	}
	return e.Finalize(ctx, surface, reports, len(entries))
}

func countConfirmed(reports []EntryReport) int {
	n := 0
	for _, r := range reports {
		if r.Confirmed() {
			n++
		}
	}
	return n
}
