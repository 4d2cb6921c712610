package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Vodeneev/slipconv/internal/converter"
	"github.com/Vodeneev/slipconv/internal/converter/replication"
)

// maxRequestBody bounds a /convert body.
const maxRequestBody = 4 << 10

// Converter performs one conversion.
type Converter interface {
	Convert(ctx context.Context, bookingCode string) (replication.Result, error)
}

type convertRequest struct {
	BookingCode *string `json:"booking_code"`
	// bookingCode is accepted for clients following the camelCase contract
	BookingCodeCamel *string `json:"bookingCode"`
}

func (r convertRequest) code() (string, bool) {
	switch {
	case r.BookingCode != nil:
		return *r.BookingCode, true
	case r.BookingCodeCamel != nil:
		return *r.BookingCodeCamel, true
	default:
		return "", false
	}
}

type OutcomeView struct {
	Index       int      `json:"index"`
	Event       string   `json:"event"`
	SourceEvent string   `json:"source_event"`
	Market      string   `json:"market"`
	Selection   string   `json:"selection"`
	Outcome     string   `json:"outcome"`
	Reason      string   `json:"reason,omitempty"`
	Unmapped    []string `json:"unmapped,omitempty"`
}

type ConvertResponse struct {
	ConvertedCode  string         `json:"converted_code"`
	ConfirmedCount int            `json:"confirmed_count"`
	TotalEntries   int            `json:"total_entries"`
	Counts         map[string]int `json:"counts"`
	Outcomes       []OutcomeView  `json:"outcomes"`
}

type ErrorResponse struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind"`
	Outcomes []OutcomeView `json:"outcomes,omitempty"`
}

func outcomeViews(reports []replication.EntryReport) []OutcomeView {
	out := make([]OutcomeView, 0, len(reports))
	for _, r := range reports {
		out = append(out, OutcomeView{
			Index:       r.Index,
			Event:       r.Entry.Query(),
			SourceEvent: r.Entry.SourceHomeTeam + " vs " + r.Entry.SourceAwayTeam,
			Market:      r.Entry.Market.String(),
			Selection:   string(r.Entry.Selection),
			Outcome:     r.Outcome.String(),
			Reason:      r.Reason,
			Unmapped:    r.Entry.Unmapped,
		})
	}
	return out
}

func outcomeCounts(res replication.Result) map[string]int {
	out := make(map[string]int)
	for outcome, n := range res.Counts() {
		out[outcome.String()] = n
	}
	return out
}

// StatusFor maps a conversion error kind to an HTTP status.
func StatusFor(kind converter.Kind) int {
	switch kind {
	case converter.KindRequestInvalid:
		return http.StatusBadRequest
	case converter.KindFeedEmpty:
		return http.StatusNotFound
	case converter.KindConversionFailed:
		return http.StatusUnprocessableEntity
	case converter.KindFeedUnavailable:
		return http.StatusBadGateway
	case converter.KindSessionError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type handler struct {
	conv     Converter
	verifier Verifier
}

// HandleConvert handles POST /convert
func (h *handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON body",
			Kind:  string(converter.KindRequestInvalid),
		})
		return
	}
	code, ok := req.code()
	if !ok {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "Missing booking_code",
			Kind:  string(converter.KindRequestInvalid),
		})
		return
	}

	res, err := h.conv.Convert(r.Context(), code)
	if err != nil {
		var ce *converter.Error
		if !errors.As(err, &ce) {
			slog.Error("Unclassified conversion error", "error", err)
			respondError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		resp := ErrorResponse{Error: ce.Error(), Kind: string(ce.Kind)}
		if ce.Result != nil {
			resp.Outcomes = outcomeViews(ce.Result.Outcomes)
		}
		respondError(w, StatusFor(ce.Kind), resp)
		return
	}

	respondJSON(w, http.StatusOK, ConvertResponse{
		ConvertedCode:  res.GeneratedCode,
		ConfirmedCount: res.ConfirmedCount,
		TotalEntries:   res.TotalEntries,
		Counts:         outcomeCounts(res),
		Outcomes:       outcomeViews(res.Outcomes),
	})
}

// HandleVerify handles POST /verify
func (h *handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON body",
			Kind:  string(converter.KindRequestInvalid),
		})
		return
	}
	if req.SourceCode == "" || req.TargetCode == "" {
		respondError(w, http.StatusBadRequest, ErrorResponse{
			Error: "Missing source_code or target_code",
			Kind:  string(converter.KindRequestInvalid),
		})
		return
	}

	cmp, err := h.verifier.Verify(r.Context(), req.SourceCode, req.TargetCode)
	if err != nil {
		var ce *converter.Error
		if !errors.As(err, &ce) {
			slog.Error("Unclassified verification error", "error", err)
			respondError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
			return
		}
		respondError(w, StatusFor(ce.Kind), ErrorResponse{Error: ce.Error(), Kind: string(ce.Kind)})
		return
	}
	respondJSON(w, http.StatusOK, NewVerifyResponse(cmp))
}

// HandlePing handles /ping endpoint
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// HandleHealth handles /health endpoint
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, resp ErrorResponse) {
	respondJSON(w, status, resp)
}
