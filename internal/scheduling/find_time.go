package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
	"github.com/kairoshq/kairos/internal/dates"
	"github.com/kairoshq/kairos/internal/people"
)

// Defaults for the free-slot search.
const (
	DefaultDurationMinutes = 30
	DefaultWindowDays      = 7
)

// ParticipantResolver resolves free-text participant names to directory
// identities.
type ParticipantResolver interface {
	ResolveOne(ctx context.Context, name string) people.Outcome
	ResolveMany(ctx context.Context, refs []people.NameRef, requesterID string) (people.BatchResult, error)
}

// FindTimeRequest asks for meeting slots that fit the requester and every
// named participant.
type FindTimeRequest struct {
	RequesterID      string   `json:"requester_id"`
	ParticipantNames []string `json:"participant_names"`
	Subject          string   `json:"subject,omitempty"`
	DurationMinutes  int      `json:"duration_minutes,omitempty"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
}

// FindTimeResponse carries the suggested slots for a successful search.
type FindTimeResponse struct {
	Slots        []calendar.MeetingSuggestion `json:"slots"`
	Subject      string                       `json:"subject"`
	Duration     int                          `json:"duration"`
	Participants []people.Identity            `json:"participants"`
}

// FindTime is the action that finds common free time for a set of people.
type FindTime struct {
	resolver   ParticipantResolver
	calendar   calendar.Gateway
	windowDays int
	loc        *time.Location
	logger     *slog.Logger
}

// NewFindTime creates the find-time action. windowDays bounds the default
// search window; non-positive means a week.
func NewFindTime(log *slog.Logger, resolver ParticipantResolver, cal calendar.Gateway, windowDays int, loc *time.Location) (*FindTime, error) {
	if log == nil {
		log = slog.Default()
	}
	if resolver == nil {
		return nil, fmt.Errorf("find time action: resolver is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("find time action: calendar gateway is required")
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FindTime{
		resolver:   resolver,
		calendar:   cal,
		windowDays: windowDays,
		loc:        loc,
		logger:     log.With(slog.String("service", "find_time")),
	}, nil
}

// Execute resolves the participants, asks the calendar for common free slots
// inside the requested window and maps the raw suggestions for presentation.
// Names that matched several people come back on the result so the caller can
// ask the user to pick one.
func (a *FindTime) Execute(ctx context.Context, req FindTimeRequest) Result[FindTimeResponse] {
	start, end := a.searchWindow(req.StartDate, req.EndDate)

	batch, err := a.resolver.ResolveMany(ctx, people.Refs(req.ParticipantNames...), req.RequesterID)
	if err != nil {
		a.logger.Error("participant resolution aborted", slog.Any("error", err))
		return Failure[FindTimeResponse]("Системна помилка пошуку часу: " + err.Error())
	}
	if batch.Err != "" {
		res := Failure[FindTimeResponse](batch.Err)
		res.Participants = batch.Resolved
		return res
	}
	if len(batch.Ambiguous) > 0 {
		res := Failure[FindTimeResponse](fmt.Sprintf(
			"Для '%s' знайдено кілька співпадінь. Оберіть потрібного.", batch.Ambiguous[0].Term))
		res.Participants = batch.Resolved
		res.Ambiguous = batch.Ambiguous
		return res
	}

	emails := make([]string, 0, len(batch.Resolved))
	for _, p := range batch.Resolved {
		if email := p.Email(); email != "" {
			emails = append(emails, email)
		}
	}
	if len(emails) == 0 {
		res := Failure[FindTimeResponse]("Не вдалося знайти жодного учасника з валідною поштою.")
		res.Participants = batch.Resolved
		return res
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	a.logger.Info("searching meeting times",
		slog.Int("attendees", len(emails)),
		slog.Time("window_start", start),
		slog.Time("window_end", end),
		slog.Int("duration_minutes", duration))

	raw, err := a.calendar.FindMeetingTimes(ctx, req.RequesterID, emails, start, end, duration)
	if err != nil {
		res := Failure[FindTimeResponse](err.Error())
		res.Participants = batch.Resolved
		return res
	}

	slots := mapSuggestions(raw, batch.Resolved)
	if len(slots) == 0 {
		res := Failure[FindTimeResponse]("На жаль, не знайдено вільного часу для всіх учасників.")
		res.Participants = batch.Resolved
		return res
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Meeting"
	}

	res := Success(FindTimeResponse{
		Slots:        slots,
		Subject:      subject,
		Duration:     duration,
		Participants: batch.Resolved,
	})
	res.Participants = batch.Resolved
	return res
}

// searchWindow parses the fuzzy window bounds. A missing or unparseable start
// means now; a missing or unparseable end means start plus the configured
// window.
func (a *FindTime) searchWindow(startText, endText string) (time.Time, time.Time) {
	now := time.Now().In(a.loc)

	start := now
	if startText != "" {
		if parsed, err := dates.Parse(startText, now); err == nil {
			start = parsed
		} else {
			a.logger.Warn("unparseable start date", slog.String("text", startText))
		}
	}

	end := start.AddDate(0, 0, a.windowDays)
	if endText != "" {
		if parsed, err := dates.Parse(endText, now); err == nil {
			end = parsed
		} else {
			a.logger.Warn("unparseable end date", slog.String("text", endText))
		}
	}
	return start, end
}

// mapSuggestions turns raw gateway suggestions into presentation slots.
// Attendees reported as not free are matched back to resolved participants by
// email; an address nobody resolved to becomes a synthetic identity so the
// conflict is still visible.
func mapSuggestions(raw []calendar.RawSuggestion, resolved []people.Identity) []calendar.MeetingSuggestion {
	byEmail := make(map[string]people.Identity, len(resolved))
	for _, p := range resolved {
		if email := p.Email(); email != "" {
			byEmail[strings.ToLower(email)] = p
		}
	}

	suggestions := make([]calendar.MeetingSuggestion, 0, len(raw))
	for _, s := range raw {
		if s.Start.IsZero() || s.End.IsZero() {
			continue
		}
		var conflicts []people.Identity
		for _, att := range s.Attendees {
			switch att.Availability {
			case calendar.ShowAsBusy, calendar.ShowAsTentative, calendar.ShowAsOOF:
			default:
				continue
			}
			if p, ok := byEmail[strings.ToLower(att.Email)]; ok {
				conflicts = append(conflicts, p)
				continue
			}
			conflicts = append(conflicts, people.Identity{DisplayName: att.Email, Mail: att.Email})
		}
		confidence := s.Confidence
		if confidence == "" {
			confidence = "medium"
		}
		suggestions = append(suggestions, calendar.MeetingSuggestion{
			Start:      s.Start,
			End:        s.End,
			Confidence: confidence,
			Conflicts:  conflicts,
		})
	}
	return suggestions
}
