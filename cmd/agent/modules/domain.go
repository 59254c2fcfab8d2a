package modules

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	migrations "github.com/kairoshq/kairos/db"
	"github.com/kairoshq/kairos/internal/calendar"
	"github.com/kairoshq/kairos/internal/config"
	"github.com/kairoshq/kairos/internal/db"
	"github.com/kairoshq/kairos/internal/directory"
	"github.com/kairoshq/kairos/internal/graph"
	"github.com/kairoshq/kairos/internal/people"
	"github.com/kairoshq/kairos/internal/scheduling"
	"go.uber.org/fx"
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		provideDirectoryStore,
		provideGateways,
		provideOracle,
		provideSearchCache,
		provideScorer,
		provideResolver,
		provideLocation,
		scheduling.NewTimelineBuilder,
		provideFindTime,
		provideViewSchedule,
		provideBriefingAction,
	),
)

// ---------------------------------------------------------------------------
// domain service providers (interface adapters)
// ---------------------------------------------------------------------------

// provideDirectoryStore builds the Postgres people store and migrates its
// schema on start. Returns nil when an external graph tenant is configured.
func provideDirectoryStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, pool *pgxpool.Pool) (*directory.Service, error) {
	if strings.TrimSpace(cfg.Graph.BaseURL) != "" {
		return nil, nil
	}
	store, err := directory.NewService(log, pool)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			src, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			if err := db.RunMigrate(log, cfg.Postgres, src, "up", nil); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return nil
		},
	})
	return store, nil
}

// provideGateways selects the directory searcher and calendar gateway. A
// configured graph base URL serves both from one client; otherwise lookups go
// to the local store and calendar calls report the tenant as unconfigured.
func provideGateways(log *slog.Logger, cfg config.Config, store *directory.Service) (people.DirectorySearcher, calendar.Gateway, error) {
	if strings.TrimSpace(cfg.Graph.BaseURL) == "" {
		return store, calendar.Unavailable{}, nil
	}
	client, err := graph.NewClient(log, cfg.Graph.BaseURL, cfg.Graph.Token, cfg.Graph.Timeout())
	if err != nil {
		return nil, nil, fmt.Errorf("graph client: %w", err)
	}
	return client, client, nil
}

// provideOracle builds the disambiguation client, or nil when no oracle
// endpoint is configured; the resolver then skips the oracle rung.
func provideOracle(log *slog.Logger, cfg config.Config) (people.Oracle, error) {
	if strings.TrimSpace(cfg.Oracle.BaseURL) == "" {
		return nil, nil
	}
	return people.NewOracleClient(log, cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.Timeout())
}

func provideSearchCache(cfg config.Config) *people.SearchCache {
	return people.NewSearchCache(cfg.Resolver.CacheSize, cfg.Resolver.CacheTTL())
}

func provideScorer() people.Scorer {
	return people.FuzzyScorer{}
}

func provideResolver(log *slog.Logger, dir people.DirectorySearcher, oracle people.Oracle, scorer people.Scorer, cache *people.SearchCache, cfg config.Config) (*people.Resolver, error) {
	return people.NewResolver(log, dir, oracle, scorer, cache, people.Options{
		ScoreThreshold: cfg.Resolver.ScoreThreshold,
		ScoreMargin:    cfg.Resolver.ScoreMargin,
	})
}

func provideLocation(cfg config.Config) *time.Location {
	return cfg.Scheduling.Location()
}

func provideFindTime(log *slog.Logger, resolver *people.Resolver, cal calendar.Gateway, cfg config.Config, loc *time.Location) (*scheduling.FindTime, error) {
	return scheduling.NewFindTime(log, resolver, cal, cfg.Scheduling.WindowDays, loc)
}

func provideViewSchedule(log *slog.Logger, resolver *people.Resolver, dir people.DirectorySearcher, cal calendar.Gateway, timeline *scheduling.TimelineBuilder, cfg config.Config, loc *time.Location) (*scheduling.ViewSchedule, error) {
	return scheduling.NewViewSchedule(log, resolver, dir, cal, timeline, cfg.Scheduling.SlotMinutes, loc)
}

func provideBriefingAction(log *slog.Logger, cal calendar.Gateway, loc *time.Location) (*scheduling.DailyBriefing, error) {
	return scheduling.NewDailyBriefing(log, cal, loc)
}
