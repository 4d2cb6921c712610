package performance

import (
	"log/slog"
	"sync"
	"time"
)

// Phases of a conversion run, in the order they happen.
const (
	PhaseFetch     = "fetch"
	PhaseSession   = "session_open"
	PhaseReplicate = "replicate"
)

// RunTiming holds the phase durations of one conversion run.
type RunTiming struct {
	start  time.Time
	phases map[string]time.Duration
	order  []string
	Total  time.Duration
}

// StartRun begins timing a run.
func StartRun() *RunTiming {
	return &RunTiming{start: time.Now(), phases: make(map[string]time.Duration, 3)}
}

// Phase starts timing the named phase. Call the returned func when it ends.
func (r *RunTiming) Phase(name string) func() {
	t := time.Now()
	return func() {
		r.add(name, time.Since(t))
	}
}

func (r *RunTiming) add(name string, d time.Duration) {
	if _, ok := r.phases[name]; !ok {
		r.order = append(r.order, name)
	}
	r.phases[name] += d
}

// Finish stops the run clock.
func (r *RunTiming) Finish() {
	r.Total = time.Since(r.start)
}

// Duration returns the time spent in a phase.
func (r *RunTiming) Duration(name string) time.Duration {
	return r.phases[name]
}

// LogAttrs returns phase durations and their share of the total, for slog.
func (r *RunTiming) LogAttrs() []any {
	attrs := make([]any, 0, len(r.order)*4+2)
	for _, name := range r.order {
		d := r.phases[name]
		attrs = append(attrs, name, d, name+"_percent", percent(d, r.Total))
	}
	return append(attrs, "total", r.Total)
}

func percent(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Tracker aggregates run timings over the life of the process.
type Tracker struct {
	mu sync.RWMutex

	TotalRuns     int
	FailedRuns    int
	TotalDuration time.Duration
	phases        map[string]time.Duration
	order         []string
	slowest       time.Duration
}

func NewTracker() *Tracker {
	return &Tracker{phases: make(map[string]time.Duration)}
}

// Record adds a finished run.
func (t *Tracker) Record(run *RunTiming, success bool) {
	if t == nil || run == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalRuns++
	if !success {
		t.FailedRuns++
	}
	t.TotalDuration += run.Total
	if run.Total > t.slowest {
		t.slowest = run.Total
	}
	for _, name := range run.order {
		if _, ok := t.phases[name]; !ok {
			t.order = append(t.order, name)
		}
		t.phases[name] += run.phases[name]
	}
}

// Summary is the averaged view of all recorded runs.
type Summary struct {
	Runs        int
	Failed      int
	AvgTotal    time.Duration
	Slowest     time.Duration
	AvgPerPhase map[string]time.Duration
}

func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{Runs: t.TotalRuns, Failed: t.FailedRuns, Slowest: t.slowest, AvgPerPhase: make(map[string]time.Duration, len(t.phases))}
	if t.TotalRuns == 0 {
		return s
	}
	n := time.Duration(t.TotalRuns)
	s.AvgTotal = t.TotalDuration / n
	for name, d := range t.phases {
		s.AvgPerPhase[name] = d / n
	}
	return s
}

// LogSummary writes the averaged timing breakdown.
func (t *Tracker) LogSummary(logger *slog.Logger) {
	if t == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := t.Summary()
	if s.Runs == 0 {
		logger.Info("No conversion timings collected yet")
		return
	}

	t.mu.RLock()
	order := append([]string(nil), t.order...)
	t.mu.RUnlock()

	attrs := []any{"runs", s.Runs, "failed", s.Failed}
	for _, name := range order {
		d := s.AvgPerPhase[name]
		attrs = append(attrs, name, d, name+"_percent", percent(d, s.AvgTotal))
	}
	attrs = append(attrs, "avg_total", s.AvgTotal, "slowest", s.Slowest)
	logger.Info("Conversion timing breakdown (average per run)", attrs...)
}
