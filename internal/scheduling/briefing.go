package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
	"github.com/kairoshq/kairos/internal/dates"
)

// BriefingRequest asks for the requester's calendar summary on a date.
type BriefingRequest struct {
	RequesterID string `json:"requester_id"`
	Date        string `json:"date,omitempty"`
}

// BriefingResponse is the composed day summary. Lines are preformatted
// "15:04 - 15:04 subject" entries, one per meeting, with private subjects
// redacted. Summary is set when the day has no meetings.
type BriefingResponse struct {
	Date       string           `json:"date"`
	Headline   string           `json:"headline"`
	Lines      []string         `json:"lines,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	EventCount int              `json:"event_count"`
	Events     []calendar.Event `json:"events"`
}

// DailyBriefing is the action that summarizes one user's day.
type DailyBriefing struct {
	calendar calendar.Gateway
	loc      *time.Location
	logger   *slog.Logger
}

// NewDailyBriefing creates the daily briefing action.
func NewDailyBriefing(log *slog.Logger, cal calendar.Gateway, loc *time.Location) (*DailyBriefing, error) {
	if log == nil {
		log = slog.Default()
	}
	if cal == nil {
		return nil, fmt.Errorf("daily briefing action: calendar gateway is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyBriefing{
		calendar: cal,
		loc:      loc,
		logger:   log.With(slog.String("service", "briefing")),
	}, nil
}

// Execute fetches the requester's events for the full day and composes the
// briefing lines in chronological order.
func (a *DailyBriefing) Execute(ctx context.Context, req BriefingRequest) Result[BriefingResponse] {
	now := time.Now().In(a.loc)
	date := now
	if req.Date != "" {
		if parsed, err := dates.Parse(req.Date, now); err == nil {
			date = parsed
		} else {
			a.logger.Warn("unparseable date", slog.String("text", req.Date))
		}
	}
	local := date.In(a.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := a.calendar.ListEvents(ctx, req.RequesterID, dayStart, dayEnd)
	if err != nil {
		return Failure[BriefingResponse](err.Error())
	}

	meetings := make([]calendar.Event, 0, len(events))
	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		meetings = append(meetings, ev)
	}
	sort.SliceStable(meetings, func(i, j int) bool { return meetings[i].Start.Before(meetings[j].Start) })

	resp := BriefingResponse{
		Date:       date.Format(time.RFC3339),
		Headline:   "📅 Ваш календар на " + dayStart.Format("02.01.2006"),
		EventCount: len(meetings),
		Events:     meetings,
	}
	if len(meetings) == 0 {
		resp.Summary = "🎉 Зустрічей немає, день вільний."
		return Success(resp)
	}

	lines := make([]string, 0, len(meetings))
	for _, ev := range meetings {
		status, subject := classifyEvent(ev)
		line := formatRange(ev.Start.In(a.loc), ev.End.In(a.loc)) + " " + formatSubject(status, subject)
		lines = append(lines, line)
	}
	resp.Lines = lines
	return Success(resp)
}
