package modules

import (
	"context"
	"log/slog"

	"github.com/kairoshq/kairos/internal/briefing"
	"github.com/kairoshq/kairos/internal/config"
	"github.com/kairoshq/kairos/internal/scheduling"
	"go.uber.org/fx"
)

var BriefingModule = fx.Module(
	"briefing",
	fx.Provide(
		provideBriefingSink,
		provideBriefingNotifier,
	),
	fx.Invoke(runBriefingNotifier),
)

// ---------------------------------------------------------------------------
// briefing dispatch
// ---------------------------------------------------------------------------

func provideBriefingSink(log *slog.Logger) briefing.Sink {
	return briefing.NewLogSink(log)
}

func provideBriefingNotifier(log *slog.Logger, action *scheduling.DailyBriefing, sink briefing.Sink, cfg config.Config) (*briefing.Notifier, error) {
	return briefing.NewNotifier(log, action, sink, cfg.Briefing)
}

func runBriefingNotifier(lc fx.Lifecycle, notifier *briefing.Notifier) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return notifier.Start()
		},
		OnStop: func(ctx context.Context) error {
			notifier.Stop()
			return nil
		},
	})
}
