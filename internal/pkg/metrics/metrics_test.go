package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Conversion("success")
	r.Conversion("success")
	r.EntryOutcome("not_found", "head_to_head")
	r.UnmappedTeam()
	r.Step("locate", 1500*time.Millisecond)
	r.SessionOpened()
	r.SessionOpened()
	r.SessionClosed()
	r.Verification("match")
	r.TargetBooking(200 * time.Millisecond)

	if got := testutil.ToFloat64(r.ConversionsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("conversions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.Verifications.WithLabelValues("match")); got != 1 {
		t.Errorf("verifications = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ActiveSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"slipconv_entry_outcomes_total", "slipconv_unmapped_teams_total", "slipconv_step_duration_seconds", "slipconv_target_booking_fetch_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Conversion("x")
	r.EntryOutcome("a", "b")
	r.Step("s", time.Second)
	r.Feed(time.Second)
	r.TargetBooking(time.Second)
	r.Verification("x")
	r.UnmappedTeam()
	r.SessionOpened()
	r.SessionClosed()
	if r.Registry() != nil {
		t.Error("nil recorder should have nil registry")
	}
}
