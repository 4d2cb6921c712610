package converter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/slipconv/internal/converter/betpawa"
	"github.com/Vodeneev/slipconv/internal/converter/replication"
	"github.com/Vodeneev/slipconv/internal/converter/sportybet"
	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
	"github.com/Vodeneev/slipconv/internal/pkg/storage"
	"github.com/Vodeneev/slipconv/internal/pkg/translate"
)

const (
	sourceBookmaker = "sportybet"
	targetBookmaker = "betpawa"
)

// LoadTeamTable merges the built-in table, the optional teams file and the
// optional Postgres team_aliases rows, in that order.
func LoadTeamTable(ctx context.Context, cfg *config.Config) (*translate.TeamTable, error) {
	sources := []map[string]string{translate.DefaultTeams}

	if cfg.TeamsFile != "" {
		fromFile, err := translate.LoadTeamsFile(cfg.TeamsFile)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded teams file", "path", cfg.TeamsFile, "teams", len(fromFile))
		sources = append(sources, fromFile)
	}

	if cfg.Postgres.DSN != "" {
		aliases, err := storage.NewPostgresTeamAliases(&cfg.Postgres, sourceBookmaker, targetBookmaker)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to team alias storage: %w", err)
		}
		defer aliases.Close()
		fromDB, err := aliases.LoadTeamAliases(ctx)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded team aliases from Postgres", "teams", len(fromDB))
		sources = append(sources, fromDB)
	}

	return translate.NewTeamTable(sources...)
}

// NewFromConfig wires the Sportybet feed, the team translator, the Betpawa
// browser launcher, the Betpawa booking feed and the replication engine into a Service.
func NewFromConfig(ctx context.Context, cfg *config.Config, rec *metrics.Recorder, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	teams, err := LoadTeamTable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Team table ready", "teams", teams.Len())

	translator := translate.NewTranslator(teams, func(name string) {
		rec.UnmappedTeam()
		logger.Warn("No team mapping found, using original name", "team", name)
	})
	feed := sportybet.NewFeedFromConfig(cfg.Feed, rec)
	launcher := betpawa.NewLauncher(cfg.Target, rec, logger)
	engine := replication.NewEngine(replication.TimeoutsFromConfig(cfg.Target.Timeouts), rec, logger)

	bookings := betpawa.NewBookingFeedFromConfig(cfg.Target, rec)

	return NewService(feed, translator, launcher, engine, rec, logger).WithTarget(bookings), nil
}
