package storage

import (
	"context"
)

// TeamAliasSource supplies source->target team names. It is read once when the
// team table is built; the table itself is never refreshed during a run.
type TeamAliasSource interface {
	// LoadTeamAliases returns source name -> target name
	LoadTeamAliases(ctx context.Context) (map[string]string, error)

	// Close closes the underlying connection
	Close() error
}
