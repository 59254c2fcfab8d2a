package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kairoshq/kairos/internal/config"
	"github.com/kairoshq/kairos/internal/handlers"
	"github.com/kairoshq/kairos/internal/server"
	"github.com/kairoshq/kairos/internal/version"
	"go.uber.org/fx"
)

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServer,
	),
	fx.Invoke(startServer),
)

// ---------------------------------------------------------------------------
// server
// ---------------------------------------------------------------------------

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`

	// PeopleHandler is nil when an external graph tenant serves the directory.
	PeopleHandler *handlers.PeopleHandler
}

func provideServer(params serverParams) *server.Server {
	allHandlers := make([]server.Handler, 0, len(params.ServerHandlers)+1)
	allHandlers = append(allHandlers, params.ServerHandlers...)
	if params.PeopleHandler != nil {
		allHandlers = append(allHandlers, params.PeopleHandler)
	}
	return server.NewServer(params.Logger, params.Config.Server.Addr, allHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting Kairos Agent %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
