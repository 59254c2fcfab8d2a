package main

import (
	"flag"
	"log/slog"

	"github.com/kairoshq/kairos/cmd/agent/modules"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (overrides CONFIG_PATH)")
	flag.Parse()

	fx.New(
		fx.Supply(modules.ConfigPath(*configPath)),
		modules.InfraModule,
		modules.DomainModule,
		modules.HandlersModule,
		modules.ServerModule,
		modules.BriefingModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
			// l.UseLogLevel(slog.LevelInfo)
			return l
		}),
	).Run()
}
