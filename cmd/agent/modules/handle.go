package modules

import (
	"log/slog"

	"github.com/kairoshq/kairos/internal/directory"
	"github.com/kairoshq/kairos/internal/handlers"
	"github.com/kairoshq/kairos/internal/people"
	"github.com/kairoshq/kairos/internal/server"
	"go.uber.org/fx"
)

var HandlersModule = fx.Module(
	"handlers",
	fx.Provide(
		// Custom handlers with provide functions
		annotateHandler(provideResolveHandler),

		// Simple handlers from handlers package
		annotateHandler(handlers.NewScheduleHandler),
		annotateHandler(handlers.NewPingHandler),
		annotateHandler(handlers.NewSwaggerHandler),

		// People administration is mounted outside the handler group so the
		// server can skip it when the local directory store is inactive.
		providePeopleHandler,
	),
)

// annotateHandler wraps a handler provider function with fx.Annotate
// to register it as a server.Handler with the correct group tag
func annotateHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

// ---------------------------------------------------------------------------
// handler providers (interface adaptation / config extraction)
// ---------------------------------------------------------------------------

func provideResolveHandler(log *slog.Logger, resolver *people.Resolver) *handlers.ResolveHandler {
	return handlers.NewResolveHandler(resolver, log)
}

func providePeopleHandler(log *slog.Logger, store *directory.Service) *handlers.PeopleHandler {
	if store == nil {
		return nil
	}
	return handlers.NewPeopleHandler(store, log)
}
