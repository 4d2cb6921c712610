package sportybet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

const shareDoc = `{
  "bizCode": 10000,
  "message": "0#0",
  "data": {
    "outcomes": [
      {
        "eventId": "sr:match:1",
        "homeTeamName": "Man City",
        "awayTeamName": "Wolves",
        "estimateStartTime": 1735822800000,
        "markets": [
          {"desc": "Double Chance", "outcomes": [{"desc": "Home or Draw", "odds": "1.10", "isSelected": true}]},
          {"desc": "1X2", "specifier": "", "outcomes": [
            {"desc": "Home", "odds": "1.45", "isSelected": true},
            {"desc": "Draw", "odds": "4.80", "isSelected": false},
            {"desc": "Away", "odds": "6.50", "isSelected": false}
          ]}
        ]
      },
      {
        "homeTeamName": "Spurs",
        "awayTeamName": "Chelsea",
        "markets": [{"desc": "1X2", "outcomes": [{"desc": "Away", "odds": "2.0", "isSelected": true}]}]
      },
      "not an event",
      {
        "eventId": 42,
        "homeTeamName": "Brentford",
        "awayTeamName": "Fulham",
        "estimateStartTime": "1735822800000",
        "markets": [{"desc": "Over/Under", "specifier": "total=2.5", "outcomes": [
          {"desc": "Over 2.5", "odds": 1.9, "isSelected": false},
          {"desc": "Under 2.5", "odds": 1.95, "isSelected": true}
        ]}]
      },
      {
        "eventId": "sr:match:4",
        "homeTeamName": "Everton",
        "awayTeamName": "Leicester",
        "markets": [{"desc": "Over/Under", "outcomes": [{"desc": "Over", "odds": "1.8", "isSelected": true}]}]
      }
    ]
  }
}`

func TestParseShare(t *testing.T) {
	slip, err := ParseShare("51GGAS", []byte(shareDoc))
	if err != nil {
		t.Fatalf("ParseShare() error = %v", err)
	}
	if slip.BookingCode != "51GGAS" {
		t.Errorf("BookingCode = %q", slip.BookingCode)
	}
	if slip.Len() != 2 {
		t.Fatalf("entries = %d, want 2 (missing eventId, malformed and thresholdless events skipped)", slip.Len())
	}

	first := slip.Entries[0]
	if first.EventID != "sr:match:1" || first.HomeTeam != "Man City" || first.AwayTeam != "Wolves" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Market.Type != models.HeadToHead || first.Selection != models.SelectionHome {
		t.Errorf("first entry market = %s/%s, want head_to_head/home", first.Market, first.Selection)
	}
	if want := time.UnixMilli(1735822800000).UTC(); !first.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", first.StartTime, want)
	}

	second := slip.Entries[1]
	if second.EventID != "42" {
		t.Errorf("numeric eventId = %q, want \"42\"", second.EventID)
	}
	if second.Market.Type != models.TotalGoals || second.Market.Threshold.String() != "2.5" {
		t.Errorf("second entry market = %s, want total_goals(2.5)", second.Market)
	}
	if second.Selection != models.SelectionUnder {
		t.Errorf("second entry selection = %s, want under", second.Selection)
	}
	if p, ok := second.Odds.Price(models.SelectionOver); !ok || p.String() != "1.9" {
		t.Errorf("over price = %v (%v), want 1.9", p, ok)
	}
}

func TestParseShare_Empty(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no outcomes", `{"bizCode":10000,"data":{"outcomes":[]}}`, ErrFeedEmpty},
		{"no data", `{"bizCode":10000}`, ErrFeedEmpty},
		{"unknown code", `{"bizCode":4200,"message":"Invalid booking code"}`, ErrFeedEmpty},
		{"nothing classifiable", `{"data":{"outcomes":[{"eventId":"1","homeTeamName":"A","awayTeamName":"B","markets":[{"desc":"Handicap"}]}]}}`, ErrFeedEmpty},
		{"not json", `<html>blocked</html>`, ErrFeedUnavailable},
	}
	for _, tt := range tests {
		_, err := ParseShare("ABCD", []byte(tt.body))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestClient_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(shareDoc))
	}))
	defer srv.Close()

	c := NewClient(config.FeedConfig{BaseURL: srv.URL, Country: "tz", Timeout: time.Second})
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }

	if _, err := c.GetShare(context.Background(), "51GGAS"); err != nil {
		t.Fatalf("GetShare() error = %v", err)
	}
	if got.URL.Path != "/api/tz/orders/share/51GGAS" {
		t.Errorf("path = %q", got.URL.Path)
	}
	if got.URL.Query().Get("_t") != "1700000000123" {
		t.Errorf("_t = %q", got.URL.Query().Get("_t"))
	}
	if got.Header.Get("User-Agent") != config.DefaultUserAgent {
		t.Errorf("User-Agent = %q", got.Header.Get("User-Agent"))
	}
	if got.Header.Get("Origin") != srv.URL || got.Header.Get("Referer") != srv.URL+"/" {
		t.Errorf("Origin/Referer = %q/%q", got.Header.Get("Origin"), got.Header.Get("Referer"))
	}
}

func TestClient_DecodesCompressedBodies(t *testing.T) {
	encode := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		},
		"zstd": func(b []byte) []byte {
			enc, _ := zstd.NewWriter(nil)
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		},
	}
	for name, fn := range encode {
		payload := fn([]byte(shareDoc))
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", name)
			_, _ = w.Write(payload)
		}))

		feed := NewFeedFromConfig(config.FeedConfig{BaseURL: srv.URL, Country: "tz", Timeout: time.Second}, nil)
		slip, err := feed.FetchSlip(context.Background(), "51GGAS")
		srv.Close()
		if err != nil {
			t.Errorf("%s: FetchSlip() error = %v", name, err)
			continue
		}
		if slip.Len() != 2 {
			t.Errorf("%s: entries = %d, want 2", name, slip.Len())
		}
	}
}

func TestFeed_Unavailable(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer broken.Close()

	for _, url := range []string{slow.URL, broken.URL} {
		feed := NewFeedFromConfig(config.FeedConfig{BaseURL: url, Country: "tz", Timeout: 50 * time.Millisecond}, nil)
		_, err := feed.FetchSlip(context.Background(), "51GGAS")
		if !errors.Is(err, ErrFeedUnavailable) {
			t.Errorf("FetchSlip(%s) error = %v, want ErrFeedUnavailable", url, err)
		}
	}
}
