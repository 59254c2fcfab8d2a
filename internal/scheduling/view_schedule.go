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

// ViewScheduleRequest asks for one employee's day. The target is an explicit
// id, a free-text name, or the requester when neither is given.
type ViewScheduleRequest struct {
	RequesterID  string `json:"requester_id"`
	EmployeeID   string `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
	Date         string `json:"date,omitempty"`
	Detailed     bool   `json:"detailed,omitempty"`
}

// ViewScheduleResponse carries the day's events and, for detailed requests,
// the grouped timeline.
type ViewScheduleResponse struct {
	Events       []calendar.Event `json:"events"`
	Timeline     []Slot           `json:"timeline,omitempty"`
	Date         string           `json:"date"`
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name,omitempty"`
}

// ViewSchedule is the action that shows an employee's schedule for a day.
type ViewSchedule struct {
	resolver    ParticipantResolver
	directory   people.DirectorySearcher
	calendar    calendar.Gateway
	timeline    *TimelineBuilder
	slotMinutes int
	loc         *time.Location
	logger      *slog.Logger
}

// NewViewSchedule creates the view-schedule action.
func NewViewSchedule(log *slog.Logger, resolver ParticipantResolver, directory people.DirectorySearcher, cal calendar.Gateway, timeline *TimelineBuilder, slotMinutes int, loc *time.Location) (*ViewSchedule, error) {
	if log == nil {
		log = slog.Default()
	}
	if resolver == nil {
		return nil, fmt.Errorf("view schedule action: resolver is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("view schedule action: directory is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("view schedule action: calendar gateway is required")
	}
	if timeline == nil {
		return nil, fmt.Errorf("view schedule action: timeline builder is required")
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ViewSchedule{
		resolver:    resolver,
		directory:   directory,
		calendar:    cal,
		timeline:    timeline,
		slotMinutes: slotMinutes,
		loc:         loc,
		logger:      log.With(slog.String("service", "view_schedule")),
	}, nil
}

// Execute resolves the target, computes the full-day window for the requested
// date in the configured timezone and fetches the events. The timeline is
// built only for detailed requests; the event list always comes back.
func (a *ViewSchedule) Execute(ctx context.Context, req ViewScheduleRequest) Result[ViewScheduleResponse] {
	targetID := strings.TrimSpace(req.EmployeeID)
	name := strings.TrimSpace(req.EmployeeName)
	var target *people.Identity

	switch {
	case targetID != "":
	case name != "" && !people.IsSelfWord(name):
		out := a.resolver.ResolveOne(ctx, name)
		switch out.Status {
		case people.StatusResolved:
			identity := out.Identity
			target = &identity
			targetID = identity.ID
		case people.StatusAmbiguous:
			res := Failure[ViewScheduleResponse](fmt.Sprintf(
				"Found several users matching '%s'. Please clarify which one you mean.", name))
			res.Ambiguous = []people.AmbiguousName{{Term: name, Candidates: out.Candidates}}
			return res
		default:
			return Failure[ViewScheduleResponse](out.Reason)
		}
	default:
		targetID = req.RequesterID
		if req.RequesterID != "" {
			if identity, err := a.directory.GetByID(ctx, req.RequesterID); err != nil {
				a.logger.Warn("requester lookup failed", slog.Any("error", err))
			} else {
				target = &identity
			}
		}
	}

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

	events, err := a.calendar.ListEvents(ctx, targetID, dayStart, dayEnd)
	if err != nil {
		res := Failure[ViewScheduleResponse](err.Error())
		if target != nil {
			res.Participants = []people.Identity{*target}
		}
		return res
	}

	var timeline []Slot
	if req.Detailed {
		timeline = a.timeline.Build(events, dayStart, dayEnd, a.slotMinutes)
	}

	resp := ViewScheduleResponse{
		Events:     events,
		Timeline:   timeline,
		Date:       date.Format(time.RFC3339),
		EmployeeID: targetID,
	}
	if target != nil {
		resp.EmployeeName = target.Label()
	}

	res := Success(resp)
	if target != nil {
		res.Participants = []people.Identity{*target}
	}
	return res
}
