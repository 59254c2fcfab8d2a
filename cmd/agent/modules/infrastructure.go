package modules

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kairoshq/kairos/internal/config"
	"github.com/kairoshq/kairos/internal/db"
	"github.com/kairoshq/kairos/internal/logger"
	"go.uber.org/fx"
)

// ConfigPath is the config file path supplied from the command line. An empty
// value falls back to the CONFIG_PATH environment variable.
type ConfigPath string

var InfraModule = fx.Module(
	"Infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		provideDBConn,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig(path ConfigPath) (config.Config, error) {
	cfgPath := string(path)
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}
