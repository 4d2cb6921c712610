package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptyBookingCode   = errors.New("booking code cannot be empty")
	ErrInvalidBookingCode = errors.New("invalid booking code format")
)

var bookingCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{4,16}$`)

// BookingCode trims and validates a booking code and returns it upper-cased.
func BookingCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", ErrEmptyBookingCode
	}
	if !bookingCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBookingCode, code)
	}
	return strings.ToUpper(code), nil
}
