// Package translate maps source bookmaker vocabulary (team names, markets) to the
// vocabulary rendered by the target bookmaker.
package translate

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

// DefaultTeams is the built-in Sportybet -> Betpawa table (English Premier League short names).
var DefaultTeams = map[string]string{
	"Man City":          "Manchester City",
	"Wolves":            "Wolverhampton Wanderers",
	"Man Utd":           "Manchester United",
	"Spurs":             "Tottenham Hotspur",
	"Arsenal":           "Arsenal FC",
	"Chelsea":           "Chelsea FC",
	"Liverpool":         "Liverpool FC",
	"Everton":           "Everton FC",
	"West Ham":          "West Ham United",
	"Ipswich Town":      "Ipswich Town FC",
	"Nottingham Forest": "Nottingham Forest FC",
	"Leicester":         "Leicester City",
	"Aston Villa":       "Aston Villa FC",
	"Brighton":          "Brighton & Hove Albion",
	"Southampton":       "Southampton FC",
	"Crystal Palace":    "Crystal Palace FC",
	"Newcastle":         "Newcastle United",
	"Bournemouth":       "AFC Bournemouth",
	"Brentford":         "Brentford FC",
	"Fulham":            "Fulham FC",
}

// TeamTable is an immutable source->target team name table with its reverse view.
type TeamTable struct {
	forward map[string]string
	reverse map[string]string
}

// NewTeamTable merges the given maps in order; later maps override earlier entries.
// Blank keys or values are ignored.
func NewTeamTable(sources ...map[string]string) (*TeamTable, error) {
	t := &TeamTable{
		forward: make(map[string]string),
		reverse: make(map[string]string),
	}
	for _, src := range sources {
		for from, to := range src {
			from, to = strings.TrimSpace(from), strings.TrimSpace(to)
			if from == "" || to == "" {
				continue
			}
			t.forward[from] = to
		}
	}
	for from, to := range t.forward {
		if prev, dup := t.reverse[to]; dup {
			return nil, fmt.Errorf("team %q is the target of both %q and %q", to, prev, from)
		}
		t.reverse[to] = from
	}
	return t, nil
}

// Lookup returns the target name for a source name.
func (t *TeamTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.forward[name]
	return v, ok
}

// Reverse returns the table seen from the target side.
func (t *TeamTable) Reverse() *TeamTable {
	if t == nil {
		return nil
	}
	return &TeamTable{forward: t.reverse, reverse: t.forward}
}

func (t *TeamTable) Len() int { return len(t.forward) }

type teamsFile struct {
	Teams map[string]string `yaml:"teams"`
}

// LoadTeamsFile reads a YAML file of the form:
//
//	teams:
//	  "Man City": "Manchester City"
func LoadTeamsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams file: %w", err)
	}
	var f teamsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse teams file: %w", err)
	}
	return f.Teams, nil
}

// UnmappedFunc observes names that had no table entry.
type UnmappedFunc func(name string)

// Translator rewrites slip entries into the target vocabulary.
type Translator struct {
	teams    *TeamTable
	unmapped UnmappedFunc
}

// NewTranslator creates a translator. A nil observer logs a warning.
func NewTranslator(teams *TeamTable, unmapped UnmappedFunc) *Translator {
	if unmapped == nil {
		unmapped = func(name string) {
			slog.Warn("No team mapping found, using original name", "team", name)
		}
	}
	return &Translator{teams: teams, unmapped: unmapped}
}

// Teams returns the table the translator maps with.
func (t *Translator) Teams() *TeamTable {
	return t.teams
}

// TeamName returns the target name for name. Unknown names come back unchanged
// with ok=false; the target site may still match them.
func (t *Translator) TeamName(name string) (string, bool) {
	if mapped, ok := t.teams.Lookup(name); ok {
		return mapped, true
	}
	t.unmapped(name)
	return name, false
}

// Entry translates both team names of an entry. Market and selection are vocabulary independent.
func (t *Translator) Entry(e models.SlipEntry) models.TranslatedEntry {
	out := models.TranslatedEntry{
		SlipEntry:      e,
		SourceHomeTeam: e.HomeTeam,
		SourceAwayTeam: e.AwayTeam,
	}
	var ok bool
	if out.HomeTeam, ok = t.TeamName(e.HomeTeam); !ok {
		out.Unmapped = append(out.Unmapped, e.HomeTeam)
	}
	if out.AwayTeam, ok = t.TeamName(e.AwayTeam); !ok {
		out.Unmapped = append(out.Unmapped, e.AwayTeam)
	}
	return out
}

// Slip translates every entry, keeping slip order.
func (t *Translator) Slip(s models.Slip) []models.TranslatedEntry {
	out := make([]models.TranslatedEntry, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, t.Entry(e))
	}
	return out
}
