// Package calendar holds the calendar domain types shared by the gateway
// client and the scheduling engine.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/kairoshq/kairos/internal/people"
)

// ErrUnconfigured reports that no upstream calendar tenant is configured.
var ErrUnconfigured = errors.New("calendar gateway is not configured")

// ShowAs values as the upstream calendar reports them.
const (
	ShowAsFree      = "free"
	ShowAsTentative = "tentative"
	ShowAsBusy      = "busy"
	ShowAsOOF       = "oof"
)

// SensitivityPrivate marks events whose subject must not be shown.
const SensitivityPrivate = "private"

// Event is one calendar entry inside a queried window. Times carry their
// zone and compare as instants.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Subject     string    `json:"subject"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ShowAs      string    `json:"show_as,omitempty"`
	Sensitivity string    `json:"sensitivity,omitempty"`
	Cancelled   bool      `json:"cancelled,omitempty"`
	Organizer   string    `json:"organizer,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// AttendeeAvailability is one attendee's status inside a suggested slot.
type AttendeeAvailability struct {
	Email        string `json:"email"`
	Availability string `json:"availability"`
}

// RawSuggestion is a meeting-time suggestion as the gateway returns it.
// Confidence keeps the upstream's decimal rendering; empty means the upstream
// did not report one.
type RawSuggestion struct {
	Start      time.Time              `json:"start"`
	End        time.Time              `json:"end"`
	Confidence string                 `json:"confidence,omitempty"`
	Attendees  []AttendeeAvailability `json:"attendees,omitempty"`
}

// MeetingSuggestion is a suggestion mapped for presentation: attendees who are
// not free during the slot are resolved to identities.
type MeetingSuggestion struct {
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	Confidence string            `json:"confidence"`
	Conflicts  []people.Identity `json:"conflicts,omitempty"`
}

// Gateway fetches calendars and meeting-time suggestions from the upstream
// calendar service.
type Gateway interface {
	// ListEvents returns the events overlapping [start, end) for the user.
	ListEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error)
	// FindMeetingTimes asks the upstream for up to a handful of slots where
	// the organizer and all attendees can meet inside [start, end).
	FindMeetingTimes(ctx context.Context, organizerID string, attendees []string, start, end time.Time, durationMinutes int) ([]RawSuggestion, error)
}

// Unavailable is the Gateway used when no calendar tenant is configured
// (local directory deployments). Every call fails with ErrUnconfigured;
// the scheduling actions report it through their result envelope.
type Unavailable struct{}

// ListEvents implements Gateway.
func (Unavailable) ListEvents(ctx context.Context, userID string, start, end time.Time) ([]Event, error) {
	return nil, ErrUnconfigured
}

// FindMeetingTimes implements Gateway.
func (Unavailable) FindMeetingTimes(ctx context.Context, organizerID string, attendees []string, start, end time.Time, durationMinutes int) ([]RawSuggestion, error) {
	return nil, ErrUnconfigured
}
