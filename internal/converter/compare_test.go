package converter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/slipconv/internal/converter/betpawa"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
)

var kickoff = time.Date(2025, 3, 12, 17, 45, 0, 0, time.UTC)

func timedEntry(t *testing.T, home, away string, start time.Time, market models.MarketKind, sel models.Selection, price string) models.SlipEntry {
	t.Helper()
	odds := models.OddsQuote{}
	if price != "" {
		odds[sel] = decimal.RequireFromString(price)
	}
	e, err := models.NewSlipEntry("", home, away, start, market, sel, odds)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func totals(t *testing.T, line string) models.MarketKind {
	t.Helper()
	m, err := models.NewTotalGoals(decimal.RequireFromString(line))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCompare(t *testing.T) {
	teams, err := translate.NewTeamTable(translate.DefaultTeams)
	if err != nil {
		t.Fatal(err)
	}
	h2h := models.NewHeadToHead()

	source := models.Slip{BookingCode: "51GGAS", Entries: []models.SlipEntry{
		timedEntry(t, "Man City", "Wolves", kickoff, h2h, models.SelectionHome, "1.50"),
		timedEntry(t, "Spurs", "Arsenal", kickoff, totals(t, "2.5"), models.SelectionOver, "1.80"),
		timedEntry(t, "Lille", "Dortmund", kickoff, h2h, models.SelectionAway, "2.40"),
		timedEntry(t, "Chelsea", "Everton", kickoff, h2h, models.SelectionDraw, ""),
	}}
	target := models.Slip{BookingCode: "73ULLFZ", Entries: []models.SlipEntry{
		// kickoff reported 30s later, still the same match
		timedEntry(t, "manchester city", "Wolverhampton Wanderers", kickoff.Add(30*time.Second), h2h, models.SelectionHome, "1.55"),
		timedEntry(t, "Tottenham Hotspur", "Arsenal FC", kickoff, totals(t, "3.5"), models.SelectionOver, "2.60"),
		// unmapped names pass through unchanged on both sides
		timedEntry(t, "LILLE", "Dortmund", kickoff, h2h, models.SelectionAway, "2.35"),
		// a day later is another fixture
		timedEntry(t, "Chelsea FC", "Everton FC", kickoff.Add(24*time.Hour), h2h, models.SelectionDraw, ""),
	}}

	cmp := Compare(source, target, teams)

	if cmp.SourceCode != "51GGAS" || cmp.TargetCode != "73ULLFZ" {
		t.Errorf("codes = %s/%s", cmp.SourceCode, cmp.TargetCode)
	}
	if len(cmp.Matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(cmp.Matches))
	}
	if m := cmp.Matches[0]; !m.Agrees() || !m.TargetOdds.Equal(decimal.RequireFromString("1.55")) || !m.SourceOdds.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("match 0 = %+v", m)
	}
	if m := cmp.Matches[1]; m.SameMarket || !m.SameSelection {
		t.Errorf("match 1: 2.5 and 3.5 lines must differ, got SameMarket=%v", m.SameMarket)
	}
	if m := cmp.Matches[2]; !m.Agrees() || m.Source.HomeTeam != "Lille" {
		t.Errorf("match 2 = %+v", m)
	}
	if len(cmp.UnmatchedSource) != 1 || cmp.UnmatchedSource[0].HomeTeam != "Chelsea" {
		t.Errorf("unmatched source = %+v", cmp.UnmatchedSource)
	}
	if len(cmp.UnmatchedTarget) != 1 || cmp.UnmatchedTarget[0].HomeTeam != "Chelsea FC" {
		t.Errorf("unmatched target = %+v", cmp.UnmatchedTarget)
	}
	if cmp.Disagreements() != 1 || cmp.Verified() {
		t.Errorf("disagreements = %d, verified = %v", cmp.Disagreements(), cmp.Verified())
	}
}

func TestCompare_Verified(t *testing.T) {
	teams, err := translate.NewTeamTable(translate.DefaultTeams)
	if err != nil {
		t.Fatal(err)
	}
	h2h := models.NewHeadToHead()

	tests := []struct {
		name   string
		source []models.SlipEntry
		target []models.SlipEntry
		want   bool
	}{
		{
			name:   "same picks, missing start time on one side",
			source: []models.SlipEntry{timedEntry(t, "Spurs", "Wolves", time.Time{}, h2h, models.SelectionDraw, "")},
			target: []models.SlipEntry{timedEntry(t, "Tottenham Hotspur", "Wolverhampton Wanderers", kickoff, h2h, models.SelectionDraw, "")},
			want:   true,
		},
		{
			name:   "selection differs",
			source: []models.SlipEntry{timedEntry(t, "Spurs", "Wolves", kickoff, h2h, models.SelectionDraw, "")},
			target: []models.SlipEntry{timedEntry(t, "Tottenham Hotspur", "Wolverhampton Wanderers", kickoff, h2h, models.SelectionHome, "")},
			want:   false,
		},
		{
			name:   "exactly one minute apart",
			source: []models.SlipEntry{timedEntry(t, "Spurs", "Wolves", kickoff, h2h, models.SelectionDraw, "")},
			target: []models.SlipEntry{timedEntry(t, "Tottenham Hotspur", "Wolverhampton Wanderers", kickoff.Add(StartWindow), h2h, models.SelectionDraw, "")},
			want:   false,
		},
		{
			name:   "home and away swapped",
			source: []models.SlipEntry{timedEntry(t, "Spurs", "Wolves", kickoff, h2h, models.SelectionDraw, "")},
			target: []models.SlipEntry{timedEntry(t, "Wolverhampton Wanderers", "Tottenham Hotspur", kickoff, h2h, models.SelectionDraw, "")},
			want:   false,
		},
		{
			name:   "extra target entries do not fail verification",
			source: []models.SlipEntry{timedEntry(t, "Spurs", "Wolves", kickoff, h2h, models.SelectionDraw, "")},
			target: []models.SlipEntry{
				timedEntry(t, "Arsenal FC", "Chelsea FC", kickoff, h2h, models.SelectionHome, ""),
				timedEntry(t, "Tottenham Hotspur", "Wolverhampton Wanderers", kickoff, h2h, models.SelectionDraw, ""),
			},
			want: true,
		},
		{
			name: "empty source",
			want: false,
		},
	}
	for _, tt := range tests {
		cmp := Compare(models.Slip{Entries: tt.source}, models.Slip{Entries: tt.target}, teams)
		if got := cmp.Verified(); got != tt.want {
			t.Errorf("%s: Verified() = %v, want %v (%+v)", tt.name, got, tt.want, cmp)
		}
	}
}

func TestVerify(t *testing.T) {
	src := &stubSource{slip: models.Slip{Entries: []models.SlipEntry{
		h2hEntry(t, "Man City", "Wolves", models.SelectionHome),
	}}}
	target := &stubSource{slip: models.Slip{Entries: []models.SlipEntry{
		h2hEntry(t, "Manchester City", "Wolverhampton Wanderers", models.SelectionHome),
	}}}
	svc := newTestService(t, src, &stubSessions{}).WithTarget(target)

	cmp, err := svc.Verify(context.Background(), "51ggas", " 73ullfz")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !cmp.Verified() {
		t.Errorf("comparison not verified: %+v", cmp)
	}
	if cmp.SourceCode != "51GGAS" || cmp.TargetCode != "73ULLFZ" {
		t.Errorf("codes = %s/%s", cmp.SourceCode, cmp.TargetCode)
	}
}

func TestVerify_Failures(t *testing.T) {
	ok := func() *stubSource {
		return &stubSource{slip: models.Slip{Entries: []models.SlipEntry{h2hEntry(t, "Man City", "Wolves", models.SelectionHome)}}}
	}
	tests := []struct {
		name       string
		sourceCode string
		targetCode string
		target     *stubSource
		want       Kind
	}{
		{"bad target code", "51GGAS", "??", ok(), KindRequestInvalid},
		{"missing source code", "", "73ULLFZ", ok(), KindRequestInvalid},
		{"target feed down", "51GGAS", "73ULLFZ", &stubSource{err: fmt.Errorf("%w: status 503", betpawa.ErrBookingUnavailable)}, KindFeedUnavailable},
		{"target slip empty", "51GGAS", "73ULLFZ", &stubSource{err: betpawa.ErrBookingEmpty}, KindFeedEmpty},
		{"no target feed", "51GGAS", "73ULLFZ", nil, KindSessionError},
	}
	for _, tt := range tests {
		svc := newTestService(t, ok(), &stubSessions{})
		if tt.target != nil {
			svc.WithTarget(tt.target)
		}
		_, err := svc.Verify(context.Background(), tt.sourceCode, tt.targetCode)
		if got := KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q (%v), want %q", tt.name, got, err, tt.want)
		}
	}
}
