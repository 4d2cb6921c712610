package api

import (
	"context"
	"time"

	"github.com/Vodeneev/slipconv/internal/converter"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

// Verifier compares a source slip with a target slip.
type Verifier interface {
	Verify(ctx context.Context, sourceCode, targetCode string) (converter.Comparison, error)
}

type verifyRequest struct {
	SourceCode string `json:"source_code"`
	TargetCode string `json:"target_code"`
}

type EntryView struct {
	Event     string `json:"event"`
	Market    string `json:"market"`
	Selection string `json:"selection"`
	Odds      string `json:"odds,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

type MatchView struct {
	Source        EntryView `json:"source"`
	Target        EntryView `json:"target"`
	SameMarket    bool      `json:"same_market"`
	SameSelection bool      `json:"same_selection"`
}

type VerifyResponse struct {
	SourceCode      string      `json:"source_code"`
	TargetCode      string      `json:"target_code"`
	Verified        bool        `json:"verified"`
	Matches         []MatchView `json:"matches"`
	UnmatchedSource []EntryView `json:"unmatched_source"`
	UnmatchedTarget []EntryView `json:"unmatched_target"`
}

func entryView(e models.SlipEntry) EntryView {
	v := EntryView{Event: e.Name(), Market: e.Market.String(), Selection: string(e.Selection)}
	if p, ok := e.Odds.Price(e.Selection); ok {
		v.Odds = p.String()
	}
	if !e.StartTime.IsZero() {
		v.StartTime = e.StartTime.UTC().Format(time.RFC3339)
	}
	return v
}

func entryViews(entries []models.SlipEntry) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryView(e))
	}
	return out
}

// NewVerifyResponse renders a comparison for JSON clients.
func NewVerifyResponse(cmp converter.Comparison) VerifyResponse {
	resp := VerifyResponse{
		SourceCode:      cmp.SourceCode,
		TargetCode:      cmp.TargetCode,
		Verified:        cmp.Verified(),
		Matches:         make([]MatchView, 0, len(cmp.Matches)),
		UnmatchedSource: entryViews(cmp.UnmatchedSource),
		UnmatchedTarget: entryViews(cmp.UnmatchedTarget),
	}
	for _, m := range cmp.Matches {
		resp.Matches = append(resp.Matches, MatchView{
			Source:        entryView(m.Source),
			Target:        entryView(m.Target),
			SameMarket:    m.SameMarket,
			SameSelection: m.SameSelection,
		})
	}
	return resp
}
