// Package replication replays translated slip entries on the target bookmaker and
// collects the generated booking code.
package replication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
)

// ErrSessionLost is returned by a Surface when the browser session itself is gone.
// It aborts the whole run.
var ErrSessionLost = errors.New("automation session lost")

// Surface is the target site as seen by the engine. Every call blocks until its
// context deadline at most; an expired wait comes back as an error.
type Surface interface {
	OpenSearch(ctx context.Context) error
	SubmitQuery(ctx context.Context, query string) error
	// LocateOffering opens the prematch offering that shows both team names.
	LocateOffering(ctx context.Context, home, away string) error
	// SelectionButtons returns the button texts of the market group headed by marketLabel, in page order.
	SelectionButtons(ctx context.Context, marketLabel string) ([]string, error)
	ClickSelection(ctx context.Context, index int) error
	// AwaitSlipUpdate waits for the betslip to show as non-empty.
	AwaitSlipUpdate(ctx context.Context) error
	RevealCode(ctx context.Context) (string, error)
}

// Timeouts are the bounded waits of each protocol step.
type Timeouts struct {
	SearchReady time.Duration
	Locate      time.Duration
	Market      time.Duration
	Confirm     time.Duration
	Reveal      time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		SearchReady: 10 * time.Second,
		Locate:      20 * time.Second,
		Market:      10 * time.Second,
		Confirm:     5 * time.Second,
		Reveal:      10 * time.Second,
	}
}

// TimeoutsFromConfig fills zero values from DefaultTimeouts.
func TimeoutsFromConfig(cfg config.TimeoutsConfig) Timeouts {
	t := DefaultTimeouts()
	if cfg.SearchReady > 0 {
		t.SearchReady = cfg.SearchReady
	}
	if cfg.Locate > 0 {
		t.Locate = cfg.Locate
	}
	if cfg.Market > 0 {
		t.Market = cfg.Market
	}
	if cfg.Confirm > 0 {
		t.Confirm = cfg.Confirm
	}
	if cfg.Reveal > 0 {
		t.Reveal = cfg.Reveal
	}
	return t
}

// State is a position in the per-entry protocol.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateLocated
	StateMarketFound
	StateSelectionFound
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateLocated:
		return "located"
	case StateMarketFound:
		return "market_found"
	case StateSelectionFound:
		return "selection_found"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// EntryReport is the outcome of one entry.
type EntryReport struct {
	Index   int                       `json:"index"`
	Entry   models.TranslatedEntry    `json:"-"`
	Outcome models.ReplicationOutcome `json:"outcome"`
	// Reached is the last state the entry got to.
	Reached State  `json:"-"`
	Reason  string `json:"reason,omitempty"`
}

// Confirmed reports whether the selection was registered on the target betslip.
func (r EntryReport) Confirmed() bool { return r.Outcome == models.OutcomeApplied }

// Engine drives the per-entry protocol. It holds no per-run state and is safe
// to share between runs that each use their own Surface.
type Engine struct {
	timeouts Timeouts
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func NewEngine(timeouts Timeouts, rec *metrics.Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{timeouts: timeouts, metrics: rec, logger: logger}
}

// Replicate processes entries strictly in order. Entry failures are recorded in
// the reports and never stop the run. The returned error is non-nil only when the
// session is lost or ctx is cancelled; ctx is checked between entries, an entry in
// progress always runs to its own terminal state.
func (e *Engine) Replicate(ctx context.Context, surface Surface, entries []models.TranslatedEntry) ([]EntryReport, error) {
	reports := make([]EntryReport, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return reports, fmt.Errorf("run abandoned before entry %d: %w", i, err)
		}

		report, err := e.replicateEntry(ctx, surface, i, entry)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		e.metrics.EntryOutcome(report.Outcome.String(), entry.Market.Type.String())

		log := e.logger.With("entry", i, "event", entry.Query(), "market", entry.Market.String(), "selection", entry.Selection)
		if report.Confirmed() {
			log.Info("Entry replicated")
		} else {
			log.Warn("Entry not replicated", "outcome", report.Outcome, "state", report.Reached, "reason", report.Reason)
		}
	}
	return reports, nil
}

func (e *Engine) replicateEntry(ctx context.Context, s Surface, index int, entry models.TranslatedEntry) (EntryReport, error) {
	r := EntryReport{Index: index, Entry: entry, Reached: StateIdle}
	fail := func(outcome models.ReplicationOutcome, step string, err error) (EntryReport, error) {
		if errors.Is(err, ErrSessionLost) {
			return r, fmt.Errorf("%s: %w", step, err)
		}
		r.Outcome = outcome
		r.Reason = fmt.Sprintf("%s: %v", step, err)
		return r, nil
	}

	// Idle -> Searching
	if err := e.step(ctx, "open_search", e.timeouts.SearchReady, s.OpenSearch); err != nil {
		return fail(models.OutcomeTransientFailure, "open search", err)
	}
	if err := e.step(ctx, "submit_query", e.timeouts.SearchReady, func(c context.Context) error {
		return s.SubmitQuery(c, entry.Query())
	}); err != nil {
		return fail(models.OutcomeTransientFailure, "submit query", err)
	}
	r.Reached = StateSearching

	// Searching -> Located
	if err := e.step(ctx, "locate", e.timeouts.Locate, func(c context.Context) error {
		return s.LocateOffering(c, entry.HomeTeam, entry.AwayTeam)
	}); err != nil {
		return fail(onTimeout(err, models.OutcomeNotFound), "locate offering", err)
	}
	r.Reached = StateLocated

	// Located -> MarketFound
	label := translate.MarketLabel(entry.Market)
	var buttons []string
	if err := e.step(ctx, "market", e.timeouts.Market, func(c context.Context) error {
		var err error
		buttons, err = s.SelectionButtons(c, label)
		return err
	}); err != nil {
		return fail(onTimeout(err, models.OutcomeAmbiguousMarket), fmt.Sprintf("market %q", label), err)
	}
	r.Reached = StateMarketFound

	// MarketFound -> SelectionFound
	index, err := ResolveButton(entry.Market, entry.Selection, buttons)
	if err != nil {
		return fail(models.OutcomeAmbiguousMarket, "resolve selection", err)
	}
	r.Reached = StateSelectionFound

	// SelectionFound -> Confirmed
	if err := e.step(ctx, "click", e.timeouts.Confirm, func(c context.Context) error {
		return s.ClickSelection(c, index)
	}); err != nil {
		return fail(models.OutcomeTransientFailure, "click selection", err)
	}
	if err := e.step(ctx, "confirm", e.timeouts.Confirm, s.AwaitSlipUpdate); err != nil {
		return fail(models.OutcomeTransientFailure, "confirm betslip", err)
	}
	r.Reached = StateConfirmed
	r.Outcome = models.OutcomeApplied
	return r, nil
}

// onTimeout maps an expired wait to outcome. Any other automation error is transient.
func onTimeout(err error, outcome models.ReplicationOutcome) models.ReplicationOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return outcome
	}
	return models.OutcomeTransientFailure
}

// step runs fn under its own deadline. The caller's cancellation is not
// propagated so a click is never cut in half.
func (e *Engine) step(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)
	e.metrics.Step(name, time.Since(start))
	return err
}

var (
	errTooFewButtons = errors.New("fewer selection buttons than the market needs")
	errNoTotalsLabel = errors.New("no button matches the totals line")
)

// ResolveButton picks the button to click for sel. Head-to-head and both-teams-to-score
// buttons are positional; totals buttons are matched by their "Over (2.5)" text,
// case-insensitively, since their order varies between lines.
func ResolveButton(market models.MarketKind, sel models.Selection, buttons []string) (int, error) {
	pos := market.Position(sel)
	if pos < 0 {
		return -1, fmt.Errorf("%w: %q for %s", models.ErrInvalidSelection, sel, market)
	}

	switch market.Type {
	case models.HeadToHead, models.BothTeamsScore:
		if need := len(market.Selections()); len(buttons) < need {
			return -1, fmt.Errorf("%w: got %d, need %d", errTooFewButtons, len(buttons), need)
		}
		return pos, nil
	case models.TotalGoals:
		if len(buttons) < len(market.Selections()) {
			return -1, fmt.Errorf("%w: got %d", errTooFewButtons, len(buttons))
		}
		fold := cases.Fold()
		want := fold.String(translate.TotalsButtonLabel(market, sel))
		for i, text := range buttons {
			if strings.Contains(fold.String(text), want) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %q", errNoTotalsLabel, translate.TotalsButtonLabel(market, sel))
	default:
		return -1, fmt.Errorf("unsupported market %s", market)
	}
}
