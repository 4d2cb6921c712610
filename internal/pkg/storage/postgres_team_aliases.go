package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
)

// Ensure PostgresTeamAliases implements TeamAliasSource
var _ TeamAliasSource = (*PostgresTeamAliases)(nil)

// PostgresTeamAliases reads source->target team names from the team_aliases table.
type PostgresTeamAliases struct {
	db     *sql.DB
	source string
	target string
}

// NewPostgresTeamAliases opens the database and makes sure the table exists.
func NewPostgresTeamAliases(cfg *config.PostgresConfig, sourceBookmaker, targetBookmaker string) (*PostgresTeamAliases, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := NewTeamAliasesFromDB(db, sourceBookmaker, targetBookmaker)
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL team aliases initialized", "source", sourceBookmaker, "target", targetBookmaker)
	return s, nil
}

// NewTeamAliasesFromDB wraps an existing connection.
func NewTeamAliasesFromDB(db *sql.DB, sourceBookmaker, targetBookmaker string) *PostgresTeamAliases {
	return &PostgresTeamAliases{db: db, source: sourceBookmaker, target: targetBookmaker}
}

func (s *PostgresTeamAliases) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS team_aliases (
		id SERIAL PRIMARY KEY,
		source_bookmaker VARCHAR(100) NOT NULL,
		target_bookmaker VARCHAR(100) NOT NULL,
		source_name VARCHAR(255) NOT NULL,
		target_name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(source_bookmaker, target_bookmaker, source_name)
	);

	CREATE INDEX IF NOT EXISTS idx_team_aliases_pair ON team_aliases(source_bookmaker, target_bookmaker);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// LoadTeamAliases returns every alias for the configured bookmaker pair.
func (s *PostgresTeamAliases) LoadTeamAliases(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_name, target_name
		FROM team_aliases
		WHERE source_bookmaker = $1 AND target_bookmaker = $2
		ORDER BY source_name`, s.source, s.target)
	if err != nil {
		return nil, fmt.Errorf("failed to query team aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan team alias: %w", err)
		}
		out[from] = to
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team aliases: %w", err)
	}
	return out, nil
}

func (s *PostgresTeamAliases) Close() error {
	return s.db.Close()
}
