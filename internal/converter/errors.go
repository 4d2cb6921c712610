package converter

import (
	"errors"

	"github.com/Vodeneev/slipconv/internal/converter/betpawa"
	"github.com/Vodeneev/slipconv/internal/converter/replication"
	"github.com/Vodeneev/slipconv/internal/converter/sportybet"
	"github.com/Vodeneev/slipconv/internal/pkg/validation"
)

// Kind names the class of a failed conversion.
type Kind string

const (
	KindRequestInvalid   Kind = "RequestInvalid"
	KindFeedUnavailable  Kind = "FeedUnavailable"
	KindFeedEmpty        Kind = "FeedEmpty"
	KindConversionFailed Kind = "ConversionFailed"
	KindSessionError     Kind = "SessionError"
)

// Error is what Convert returns on failure. Result carries the per-entry report
// when replication got far enough to produce one.
type Error struct {
	Kind   Kind
	Err    error
	Result *replication.Result
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is nil or not a conversion error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// classify maps a lower-level error onto the taxonomy.
func classify(err error) Kind {
	switch {
	case errors.Is(err, validation.ErrEmptyBookingCode), errors.Is(err, validation.ErrInvalidBookingCode):
		return KindRequestInvalid
	case errors.Is(err, sportybet.ErrFeedEmpty), errors.Is(err, betpawa.ErrBookingEmpty):
		return KindFeedEmpty
	case errors.Is(err, sportybet.ErrFeedUnavailable), errors.Is(err, betpawa.ErrBookingUnavailable):
		return KindFeedUnavailable
	case errors.Is(err, replication.ErrConversionFailed):
		return KindConversionFailed
	default:
		// session loss, or the run abandoned by its caller
		return KindSessionError
	}
}
