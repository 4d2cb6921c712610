package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Accessors over raw JSON values. A missing, null or mistyped value is Absent.

// StringField reads a JSON string; numbers are accepted as their literal text.
// Blank strings count as absent.
func StringField(raw json.RawMessage) Field[string] {
	if len(raw) == 0 || string(raw) == "null" {
		return Absent[string]()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return Absent[string]()
		}
		return Present(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return Present(n.String())
	}
	return Absent[string]()
}

func IntField(raw json.RawMessage) Field[int64] {
	s, ok := StringField(raw).Get()
	if !ok {
		return Absent[int64]()
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Absent[int64]()
	}
	return Present(n)
}

func BoolField(raw json.RawMessage) Field[bool] {
	if len(raw) == 0 || string(raw) == "null" {
		return Absent[bool]()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return Absent[bool]()
	}
	return Present(b)
}

// DecimalField accepts both "1.85" and 1.85.
func DecimalField(raw json.RawMessage) Field[decimal.Decimal] {
	s, ok := StringField(raw).Get()
	if !ok {
		return Absent[decimal.Decimal]()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Absent[decimal.Decimal]()
	}
	return Present(d)
}

// MillisField reads a unix-milliseconds timestamp.
func MillisField(raw json.RawMessage) Field[time.Time] {
	ms, ok := IntField(raw).Get()
	if !ok || ms <= 0 {
		return Absent[time.Time]()
	}
	return Present(time.UnixMilli(ms).UTC())
}

// TimeField reads an RFC 3339 timestamp such as "2025-03-12T17:45:00Z".
func TimeField(raw json.RawMessage) Field[time.Time] {
	s, ok := StringField(raw).Get()
	if !ok {
		return Absent[time.Time]()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Absent[time.Time]()
	}
	return Present(t.UTC())
}
