// Package converter runs a full booking-code conversion: fetch the source slip,
// translate it, replay it on the target site and read back the new code.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/slipconv/internal/converter/replication"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/performance"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
	"github.com/Vodeneev/slipconv/internal/pkg/validation"
)

// SlipSource fetches the source slip for a booking code.
type SlipSource interface {
	FetchSlip(ctx context.Context, bookingCode string) (models.Slip, error)
}

// SessionOpener hands out an exclusive target session and its release function.
type SessionOpener interface {
	OpenSurface(ctx context.Context) (replication.Surface, func(), error)
}

type Service struct {
	source     SlipSource
	target     SlipSource
	translator *translate.Translator
	sessions   SessionOpener
	engine     *replication.Engine
	metrics    *metrics.Recorder
	timings    *performance.Tracker
	logger     *slog.Logger
}

func NewService(source SlipSource, translator *translate.Translator, sessions SessionOpener, engine *replication.Engine, rec *metrics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:     source,
		translator: translator,
		sessions:   sessions,
		engine:     engine,
		metrics:    rec,
		timings:    performance.NewTracker(),
		logger:     logger,
	}
}

// Convert converts a source booking code into a target booking code.
// Every failure is an *Error. Feed problems abort before a browser is opened.
func (s *Service) Convert(ctx context.Context, bookingCode string) (replication.Result, error) {
	run := performance.StartRun()
	res, err := s.convert(ctx, bookingCode, run)
	run.Finish()
	s.timings.Record(run, err == nil)
	if err != nil {
		s.metrics.Conversion(string(KindOf(err)))
	} else {
		s.metrics.Conversion("ok")
	}
	return res, err
}

// WithTarget sets the feed that reads target booking codes back for Verify.
func (s *Service) WithTarget(target SlipSource) *Service {
	s.target = target
	return s
}

// Timings returns the phase timings aggregated over all runs so far.
func (s *Service) Timings() *performance.Tracker {
	return s.timings
}

func (s *Service) convert(ctx context.Context, rawCode string, run *performance.RunTiming) (replication.Result, error) {
	code, err := validation.BookingCode(rawCode)
	if err != nil {
		return replication.Result{}, &Error{Kind: KindRequestInvalid, Err: err}
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "booking_code", code)
	start := time.Now()
	log.Info("Conversion started")

	done := run.Phase(performance.PhaseFetch)
	slip, err := s.source.FetchSlip(ctx, code)
	done()
	if err != nil {
		log.Warn("Source slip unavailable", "error", err)
		return replication.Result{}, &Error{Kind: classify(err), Err: err}
	}
	entries := s.translator.Slip(slip)
	log.Info("Source slip fetched", "entries", len(entries))

	done = run.Phase(performance.PhaseSession)
	surface, closeSession, err := s.sessions.OpenSurface(ctx)
	done()
	if err != nil {
		log.Error("Failed to open target session", "error", err)
		return replication.Result{}, &Error{Kind: KindSessionError, Err: fmt.Errorf("open session: %w", err)}
	}
	defer closeSession()

	done = run.Phase(performance.PhaseReplicate)
	res, err := s.engine.Run(ctx, surface, entries)
	done()
	if err != nil {
		log.Error("Conversion failed", "error", err, "confirmed", res.ConfirmedCount, "total", res.TotalEntries)
		return res, &Error{Kind: classify(err), Err: err, Result: &res}
	}

	log.Info("Conversion finished",
		"converted_code", res.GeneratedCode,
		"confirmed", res.ConfirmedCount,
		"total", res.TotalEntries,
		"duration", time.Since(start),
		"fetch", run.Duration(performance.PhaseFetch),
		"replicate", run.Duration(performance.PhaseReplicate),
	)
	return res, nil
}

// Verify fetches a source slip and a target slip and pairs their entries.
// Failures are *Error, with target feed problems classified like source ones.
func (s *Service) Verify(ctx context.Context, rawSource, rawTarget string) (Comparison, error) {
	cmp, err := s.verify(ctx, rawSource, rawTarget)
	switch {
	case err != nil:
		s.metrics.Verification(string(KindOf(err)))
	case cmp.Verified():
		s.metrics.Verification("verified")
	default:
		s.metrics.Verification("mismatch")
	}
	return cmp, err
}

func (s *Service) verify(ctx context.Context, rawSource, rawTarget string) (Comparison, error) {
	if s.target == nil {
		return Comparison{}, &Error{Kind: KindSessionError, Err: errors.New("no target booking feed configured")}
	}
	sourceCode, err := validation.BookingCode(rawSource)
	if err != nil {
		return Comparison{}, &Error{Kind: KindRequestInvalid, Err: fmt.Errorf("source code: %w", err)}
	}
	targetCode, err := validation.BookingCode(rawTarget)
	if err != nil {
		return Comparison{}, &Error{Kind: KindRequestInvalid, Err: fmt.Errorf("target code: %w", err)}
	}

	log := s.logger.With("run_id", uuid.NewString(), "booking_code", sourceCode, "target_code", targetCode)

	source, err := s.source.FetchSlip(ctx, sourceCode)
	if err != nil {
		log.Warn("Source slip unavailable", "error", err)
		return Comparison{}, &Error{Kind: classify(err), Err: err}
	}
	target, err := s.target.FetchSlip(ctx, targetCode)
	if err != nil {
		log.Warn("Target slip unavailable", "error", err)
		return Comparison{}, &Error{Kind: classify(err), Err: err}
	}

	cmp := Compare(source, target, s.translator.Teams())
	log.Info("Slips compared",
		"matched", len(cmp.Matches),
		"disagreements", cmp.Disagreements(),
		"unmatched_source", len(cmp.UnmatchedSource),
		"unmatched_target", len(cmp.UnmatchedTarget),
		"verified", cmp.Verified(),
	)
	return cmp, nil
}
