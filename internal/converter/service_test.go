package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Vodeneev/slipconv/internal/converter/replication"
	"github.com/Vodeneev/slipconv/internal/converter/sportybet"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
)

type stubSource struct {
	slip  models.Slip
	err   error
	calls int
}

func (s *stubSource) FetchSlip(ctx context.Context, code string) (models.Slip, error) {
	s.calls++
	if s.err != nil {
		return models.Slip{}, s.err
	}
	s.slip.BookingCode = code
	return s.slip, nil
}

// scriptedSurface applies every entry whose query is listed in offered.
type scriptedSurface struct {
	offered map[string]bool
	query   string
	code    string
	actions int
}

func (s *scriptedSurface) OpenSearch(ctx context.Context) error { s.actions++; return nil }

func (s *scriptedSurface) SubmitQuery(ctx context.Context, q string) error {
	s.actions++
	s.query = q
	return nil
}

func (s *scriptedSurface) LocateOffering(ctx context.Context, home, away string) error {
	s.actions++
	if !s.offered[s.query] {
		return context.DeadlineExceeded
	}
	return nil
}

func (s *scriptedSurface) SelectionButtons(ctx context.Context, label string) ([]string, error) {
	s.actions++
	return []string{"1.5", "3.9", "6.0"}, nil
}

func (s *scriptedSurface) ClickSelection(ctx context.Context, index int) error { s.actions++; return nil }
func (s *scriptedSurface) AwaitSlipUpdate(ctx context.Context) error { s.actions++; return nil }

func (s *scriptedSurface) RevealCode(ctx context.Context) (string, error) {
	s.actions++
	return s.code, nil
}

type stubSessions struct {
	surface *scriptedSurface
	err     error
	opened  int
	closed  int
}

func (s *stubSessions) OpenSurface(ctx context.Context) (replication.Surface, func(), error) {
	s.opened++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.surface, func() { s.closed++ }, nil
}

func newTestService(t *testing.T, src SlipSource, sessions SessionOpener) *Service {
	t.Helper()
	teams, err := translate.NewTeamTable(translate.DefaultTeams)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := replication.NewEngine(replication.DefaultTimeouts(), nil, logger)
	return NewService(src, translate.NewTranslator(teams, func(string) {}), sessions, engine, nil, logger)
}

func h2hEntry(t *testing.T, home, away string, sel models.Selection) models.SlipEntry {
	t.Helper()
	e, err := models.NewSlipEntry("ev", home, away, time.Time{}, models.NewHeadToHead(), sel, nil)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestConvert_Success(t *testing.T) {
	src := &stubSource{slip: models.Slip{Entries: []models.SlipEntry{
		h2hEntry(t, "Man City", "Wolves", models.SelectionHome),
		h2hEntry(t, "Spurs", "Arsenal", models.SelectionDraw),
	}}}
	surface := &scriptedSurface{
		offered: map[string]bool{
			"Manchester City vs Wolverhampton Wanderers": true,
			"Tottenham Hotspur vs Arsenal FC":            true,
		},
		code: "BPX12Y",
	}
	sessions := &stubSessions{surface: surface}

	svc := newTestService(t, src, sessions)
	res, err := svc.Convert(context.Background(), " 51ggas ")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if s := svc.Timings().Summary(); s.Runs != 1 || s.Failed != 0 {
		t.Errorf("timings runs/failed = %d/%d, want 1/0", s.Runs, s.Failed)
	}
	if res.GeneratedCode != "BPX12Y" || res.ConfirmedCount != 2 || res.TotalEntries != 2 {
		t.Errorf("result = %+v", res)
	}
	if src.slip.BookingCode != "51GGAS" {
		t.Errorf("feed was asked for %q, want normalized 51GGAS", src.slip.BookingCode)
	}
	if sessions.opened != 1 || sessions.closed != 1 {
		t.Errorf("sessions opened/closed = %d/%d, want 1/1", sessions.opened, sessions.closed)
	}
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		source      *stubSource
		sessionErr  error
		offered     map[string]bool
		want        Kind
		wantFetches int
		wantOpened  int
		wantReport  bool
	}{
		{
			name:   "missing code",
			code:   "",
			source: &stubSource{},
			want:   KindRequestInvalid,
		},
		{
			name:   "malformed code",
			code:   "AB-?",
			source: &stubSource{},
			want:   KindRequestInvalid,
		},
		{
			name:        "feed timeout",
			code:        "51GGAS",
			source:      &stubSource{err: fmt.Errorf("%w: %v", sportybet.ErrFeedUnavailable, context.DeadlineExceeded)},
			want:        KindFeedUnavailable,
			wantFetches: 1,
		},
		{
			name:        "feed empty",
			code:        "51GGAS",
			source:      &stubSource{err: sportybet.ErrFeedEmpty},
			want:        KindFeedEmpty,
			wantFetches: 1,
		},
		{
			name:        "browser down",
			code:        "51GGAS",
			source:      &stubSource{slip: models.Slip{Entries: []models.SlipEntry{h2hEntry(t, "Man City", "Wolves", models.SelectionHome)}}},
			sessionErr:  replication.ErrSessionLost,
			want:        KindSessionError,
			wantFetches: 1,
			wantOpened:  1,
		},
		{
			name:        "nothing replicated",
			code:        "51GGAS",
			source:      &stubSource{slip: models.Slip{Entries: []models.SlipEntry{h2hEntry(t, "Man City", "Wolves", models.SelectionHome)}}},
			offered:     map[string]bool{},
			want:        KindConversionFailed,
			wantFetches: 1,
			wantOpened:  1,
			wantReport:  true,
		},
	}
	for _, tt := range tests {
		surface := &scriptedSurface{offered: tt.offered, code: "UNUSED"}
		sessions := &stubSessions{surface: surface, err: tt.sessionErr}

		_, err := newTestService(t, tt.source, sessions).Convert(context.Background(), tt.code)
		if got := KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q (%v), want %q", tt.name, got, err, tt.want)
			continue
		}
		if tt.source.calls != tt.wantFetches {
			t.Errorf("%s: feed calls = %d, want %d", tt.name, tt.source.calls, tt.wantFetches)
		}
		if sessions.opened != tt.wantOpened {
			t.Errorf("%s: sessions opened = %d, want %d", tt.name, sessions.opened, tt.wantOpened)
		}
		if sessions.opened > 0 && tt.sessionErr == nil && sessions.closed != 1 {
			t.Errorf("%s: session not released", tt.name)
		}
		if tt.wantOpened == 0 && surface.actions != 0 {
			t.Errorf("%s: %d automation actions before the feed succeeded", tt.name, surface.actions)
		}

		var ce *Error
		if !errors.As(err, &ce) {
			t.Fatalf("%s: error %T is not *Error", tt.name, err)
		}
		if (ce.Result != nil) != tt.wantReport {
			t.Errorf("%s: report present = %v, want %v", tt.name, ce.Result != nil, tt.wantReport)
		}
		if tt.wantReport && surface.actions == 0 {
			t.Errorf("%s: expected the entry to be attempted", tt.name)
		}
	}
}
