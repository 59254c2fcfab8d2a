package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
)

const (
	eventSelect       = "id,subject,start,end,showAs,sensitivity,isCancelled,organizer,attendees"
	eventPageSize     = 100
	maxSlotCandidates = 10
)

type graphEmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

// graphDateTime is the wire form of an instant: a zone-less timestamp plus a
// zone name. Requests and responses both use UTC.
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

func toGraphDateTime(t time.Time) graphDateTime {
	return graphDateTime{DateTime: t.UTC().Format(time.RFC3339), TimeZone: "UTC"}
}

var graphTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (d graphDateTime) parse() (time.Time, error) {
	for _, layout := range graphTimeLayouts {
		if t, err := time.ParseInLocation(layout, d.DateTime, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized graph timestamp %q", d.DateTime)
}

type graphEvent struct {
	ID          string           `json:"id"`
	Subject     string           `json:"subject"`
	Start       graphDateTime    `json:"start"`
	End         graphDateTime    `json:"end"`
	ShowAs      string           `json:"showAs"`
	Sensitivity string           `json:"sensitivity"`
	IsCancelled bool             `json:"isCancelled"`
	Organizer   *graphRecipient  `json:"organizer"`
	Attendees   []graphRecipient `json:"attendees"`
}

type eventPage struct {
	Value []graphEvent `json:"value"`
}

// ListEvents fetches the user's calendar view for [start, end) in UTC.
// Events whose timestamps fail to parse are logged and skipped; a broken
// entry must not take the whole day view down.
func (c *Client) ListEvents(ctx context.Context, userID string, start, end time.Time) ([]calendar.Event, error) {
	query := url.Values{}
	query.Set("startDateTime", start.UTC().Format(time.RFC3339))
	query.Set("endDateTime", end.UTC().Format(time.RFC3339))
	query.Set("$orderby", "start/dateTime")
	query.Set("$top", strconv.Itoa(eventPageSize))
	query.Set("$select", eventSelect)

	endpoint := c.baseURL + "/users/" + url.PathEscape(userID) + "/calendarView?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	var page eventPage
	if err := c.do(req, &page); err != nil {
		return nil, err
	}

	events := make([]calendar.Event, 0, len(page.Value))
	for _, raw := range page.Value {
		startAt, err := raw.Start.parse()
		if err != nil {
			c.logger.Warn("skipping malformed event", slog.String("event_id", raw.ID), slog.Any("error", err))
			continue
		}
		endAt, err := raw.End.parse()
		if err != nil {
			c.logger.Warn("skipping malformed event", slog.String("event_id", raw.ID), slog.Any("error", err))
			continue
		}
		ev := calendar.Event{
			ID:          raw.ID,
			Subject:     raw.Subject,
			Start:       startAt,
			End:         endAt,
			ShowAs:      raw.ShowAs,
			Sensitivity: raw.Sensitivity,
			Cancelled:   raw.IsCancelled,
		}
		if raw.Organizer != nil {
			ev.Organizer = raw.Organizer.EmailAddress.Address
		}
		for _, attendee := range raw.Attendees {
			if attendee.EmailAddress.Address != "" {
				ev.Attendees = append(ev.Attendees, attendee.EmailAddress.Address)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

type findTimesAttendee struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
	Type         string            `json:"type"`
}

type findTimesSlot struct {
	Start graphDateTime `json:"start"`
	End   graphDateTime `json:"end"`
}

type findTimesRequest struct {
	Attendees           []findTimesAttendee `json:"attendees"`
	TimeConstraint      findTimesConstraint `json:"timeConstraint"`
	MeetingDuration     string              `json:"meetingDuration"`
	MaxCandidates       int                 `json:"maxCandidates"`
	IsOrganizerOptional bool                `json:"isOrganizerOptional"`
}

type findTimesConstraint struct {
	Timeslots []findTimesSlot `json:"timeslots"`
}

type findTimesSuggestion struct {
	Confidence           *float64       `json:"confidence"`
	MeetingTimeSlot      *findTimesSlot `json:"meetingTimeSlot"`
	AttendeeAvailability []struct {
		Attendee     *graphRecipient `json:"attendee"`
		Availability string          `json:"availability"`
	} `json:"attendeeAvailability"`
}

type findTimesResponse struct {
	MeetingTimeSuggestions []findTimesSuggestion `json:"meetingTimeSuggestions"`
}

// FindMeetingTimes asks the upstream scheduler for slots where the organizer
// and every attendee can meet. Suggestions without a usable slot are skipped.
func (c *Client) FindMeetingTimes(ctx context.Context, organizerID string, attendees []string, start, end time.Time, durationMinutes int) ([]calendar.RawSuggestion, error) {
	if durationMinutes <= 0 {
		durationMinutes = 30
	}
	reqAttendees := make([]findTimesAttendee, 0, len(attendees))
	for _, email := range attendees {
		reqAttendees = append(reqAttendees, findTimesAttendee{
			EmailAddress: graphEmailAddress{Address: email},
			Type:         "required",
		})
	}
	body, err := json.Marshal(findTimesRequest{
		Attendees: reqAttendees,
		TimeConstraint: findTimesConstraint{
			Timeslots: []findTimesSlot{{
				Start: toGraphDateTime(start),
				End:   toGraphDateTime(end),
			}},
		},
		MeetingDuration:     fmt.Sprintf("PT%dM", durationMinutes),
		MaxCandidates:       maxSlotCandidates,
		IsOrganizerOptional: false,
	})
	if err != nil {
		return nil, err
	}

	var parsed findTimesResponse
	if err := c.post(ctx, "/users/"+url.PathEscape(organizerID)+"/findMeetingTimes", bytes.NewReader(body), &parsed); err != nil {
		return nil, err
	}

	suggestions := make([]calendar.RawSuggestion, 0, len(parsed.MeetingTimeSuggestions))
	for _, entry := range parsed.MeetingTimeSuggestions {
		if entry.MeetingTimeSlot == nil || entry.MeetingTimeSlot.Start.DateTime == "" || entry.MeetingTimeSlot.End.DateTime == "" {
			continue
		}
		slotStart, err := entry.MeetingTimeSlot.Start.parse()
		if err != nil {
			c.logger.Warn("skipping malformed suggestion", slog.Any("error", err))
			continue
		}
		slotEnd, err := entry.MeetingTimeSlot.End.parse()
		if err != nil {
			c.logger.Warn("skipping malformed suggestion", slog.Any("error", err))
			continue
		}
		suggestion := calendar.RawSuggestion{
			Start: slotStart,
			End:   slotEnd,
		}
		if entry.Confidence != nil {
			suggestion.Confidence = strconv.FormatFloat(*entry.Confidence, 'f', -1, 64)
		}
		for _, availability := range entry.AttendeeAvailability {
			if availability.Attendee == nil || availability.Attendee.EmailAddress.Address == "" {
				continue
			}
			suggestion.Attendees = append(suggestion.Attendees, calendar.AttendeeAvailability{
				Email:        availability.Attendee.EmailAddress.Address,
				Availability: availability.Availability,
			})
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}
