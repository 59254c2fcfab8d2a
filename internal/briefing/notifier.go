// Package briefing schedules daily calendar briefings and hands the rendered
// text to a delivery sink.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/kairoshq/kairos/internal/config"
	"github.com/kairoshq/kairos/internal/scheduling"
)

// Sink receives one rendered briefing per recipient. Message delivery is the
// deployment's concern; the core ships a log sink only.
type Sink interface {
	Deliver(ctx context.Context, recipient, text string) error
}

// LogSink writes briefings to the log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{logger: log.With(slog.String("service", "briefing_sink"))}
}

func (s *LogSink) Deliver(ctx context.Context, recipient, text string) error {
	s.logger.Info("briefing ready", slog.String("recipient", recipient), slog.String("text", text))
	return nil
}

// Notifier runs the daily briefing on a cron schedule for each configured
// recipient.
type Notifier struct {
	action *scheduling.DailyBriefing
	sink   Sink
	cfg    config.BriefingConfig
	cron   *cron.Cron
	parser cron.Parser
	logger *slog.Logger
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
}

func NewNotifier(log *slog.Logger, action *scheduling.DailyBriefing, sink Sink, cfg config.BriefingConfig) (*Notifier, error) {
	if action == nil {
		return nil, fmt.Errorf("briefing notifier: action is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("briefing notifier: sink is required")
	}
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Notifier{
		action: action,
		sink:   sink,
		cfg:    cfg,
		cron:   cron.New(cron.WithParser(parser)),
		parser: parser,
		logger: log.With(slog.String("service", "briefing")),
		jobs:   map[string]cron.EntryID{},
	}, nil
}

// Start validates the pattern and registers one job per recipient, then starts
// the cron. A disabled config is a no-op.
func (n *Notifier) Start() error {
	if !n.cfg.Enabled {
		n.logger.Info("briefing dispatch disabled")
		return nil
	}
	pattern := strings.TrimSpace(n.cfg.Pattern)
	if pattern == "" {
		pattern = config.DefaultBriefingCron
	}
	if _, err := n.parser.Parse(pattern); err != nil {
		return fmt.Errorf("invalid briefing cron pattern: %w", err)
	}
	for _, recipient := range n.cfg.Recipients {
		if err := n.scheduleJob(pattern, strings.TrimSpace(recipient)); err != nil {
			return err
		}
	}
	n.cron.Start()
	n.logger.Info("briefing dispatch started",
		slog.String("pattern", pattern),
		slog.Int("recipients", len(n.cfg.Recipients)),
	)
	return nil
}

// Stop halts the cron and waits for running jobs to finish.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
}

func (n *Notifier) scheduleJob(pattern, recipient string) error {
	if recipient == "" {
		return nil
	}
	job := func() {
		n.dispatch(context.Background(), recipient)
	}
	entryID, err := n.cron.AddFunc(pattern, job)
	if err != nil {
		return err
	}
	n.mu.Lock()
	if old, ok := n.jobs[recipient]; ok {
		n.cron.Remove(old)
	}
	n.jobs[recipient] = entryID
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dispatch(ctx context.Context, recipient string) {
	result := n.action.Execute(ctx, scheduling.BriefingRequest{RequesterID: recipient})
	if !result.OK {
		n.logger.Error("briefing failed", slog.String("recipient", recipient), slog.String("message", result.Message))
		return
	}
	if err := n.sink.Deliver(ctx, recipient, renderText(result.Value)); err != nil {
		n.logger.Error("briefing delivery failed", slog.String("recipient", recipient), slog.Any("error", err))
	}
}

// renderText flattens a briefing into the plain text handed to sinks.
func renderText(resp scheduling.BriefingResponse) string {
	parts := []string{resp.Headline}
	if resp.Summary != "" {
		parts = append(parts, resp.Summary)
	}
	parts = append(parts, resp.Lines...)
	return strings.Join(parts, "\n")
}
