// Package metrics provides Prometheus metrics for conversion runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects conversion metrics on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	ConversionsTotal *prometheus.CounterVec
	EntryOutcomes    *prometheus.CounterVec
	StepDuration     *prometheus.HistogramVec
	FeedDuration     prometheus.Histogram
	TargetFeed       prometheus.Histogram
	Verifications    *prometheus.CounterVec
	UnmappedTeams    prometheus.Counter
	ActiveSessions   prometheus.Gauge
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,

		ConversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipconv_conversions_total",
				Help: "Conversion runs by result kind",
			},
			[]string{"result"},
		),
		EntryOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipconv_entry_outcomes_total",
				Help: "Replicated slip entries by outcome and market",
			},
			[]string{"outcome", "market"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slipconv_step_duration_seconds",
				Help:    "Duration of replication protocol steps",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"step"},
		),
		FeedDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slipconv_feed_fetch_duration_seconds",
				Help:    "Source feed fetch latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		TargetFeed: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slipconv_target_booking_fetch_duration_seconds",
				Help:    "Betpawa booking-number fetch latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slipconv_verifications_total",
				Help: "Source/target slip comparisons by result",
			},
			[]string{"result"},
		),
		UnmappedTeams: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "slipconv_unmapped_teams_total",
				Help: "Team names passed through without a table entry",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "slipconv_active_sessions",
				Help: "Open target browser sessions",
			},
		),
	}

	registry.MustRegister(
		r.ConversionsTotal,
		r.EntryOutcomes,
		r.StepDuration,
		r.FeedDuration,
		r.TargetFeed,
		r.Verifications,
		r.UnmappedTeams,
		r.ActiveSessions,
		collectors.NewGoCollector(),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Conversion(result string) {
	if r == nil {
		return
	}
	r.ConversionsTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) EntryOutcome(outcome, market string) {
	if r == nil {
		return
	}
	r.EntryOutcomes.WithLabelValues(outcome, market).Inc()
}

func (r *Recorder) Step(step string, d time.Duration) {
	if r == nil {
		return
	}
	r.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (r *Recorder) Feed(d time.Duration) {
	if r == nil {
		return
	}
	r.FeedDuration.Observe(d.Seconds())
}

func (r *Recorder) TargetBooking(d time.Duration) {
	if r == nil {
		return
	}
	r.TargetFeed.Observe(d.Seconds())
}

func (r *Recorder) Verification(result string) {
	if r == nil {
		return
	}
	r.Verifications.WithLabelValues(result).Inc()
}

func (r *Recorder) UnmappedTeam() {
	if r == nil {
		return
	}
	r.UnmappedTeams.Inc()
}

func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.ActiveSessions.Inc()
}

func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.ActiveSessions.Dec()
}
