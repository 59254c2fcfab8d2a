package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestListEvents(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotPrefer string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("startDateTime")
		gotEnd = r.URL.Query().Get("endDateTime")
		gotPrefer = r.Header.Get("Prefer")
		w.Write([]byte(`{"value": [
			{
				"id": "ev-1",
				"subject": "Standup",
				"start": {"dateTime": "2026-03-02T09:00:00.0000000", "timeZone": "UTC"},
				"end": {"dateTime": "2026-03-02T09:30:00.0000000", "timeZone": "UTC"},
				"showAs": "busy",
				"sensitivity": "normal",
				"organizer": {"emailAddress": {"name": "Olha", "address": "olha@corp.example"}},
				"attendees": [{"emailAddress": {"address": "ivan@corp.example"}}]
			},
			{
				"id": "ev-broken",
				"subject": "Broken",
				"start": {"dateTime": "not-a-time"},
				"end": {"dateTime": "2026-03-02T11:00:00.0000000"}
			},
			{
				"id": "ev-2",
				"subject": "Secret",
				"start": {"dateTime": "2026-03-02T12:00:00"},
				"end": {"dateTime": "2026-03-02T13:00:00"},
				"showAs": "oof",
				"sensitivity": "private",
				"isCancelled": true
			}
		]}`))
	})

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	events, err := client.ListEvents(context.Background(), "u-1", start, end)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if gotPath != "/users/u-1/calendarView" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotStart != "2026-03-02T00:00:00Z" || gotEnd != "2026-03-03T00:00:00Z" {
		t.Fatalf("unexpected window %q..%q", gotStart, gotEnd)
	}
	if gotPrefer != `outlook.timezone="UTC"` {
		t.Fatalf("expected UTC prefer header, got %q", gotPrefer)
	}
	if len(events) != 2 {
		t.Fatalf("expected the malformed event to be skipped, got %d events", len(events))
	}

	first := events[0]
	if first.Subject != "Standup" || first.ShowAs != "busy" {
		t.Fatalf("unexpected event %+v", first)
	}
	if !first.Start.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", first.Start)
	}
	if first.Organizer != "olha@corp.example" {
		t.Fatalf("unexpected organizer %q", first.Organizer)
	}
	if len(first.Attendees) != 1 || first.Attendees[0] != "ivan@corp.example" {
		t.Fatalf("unexpected attendees %v", first.Attendees)
	}

	second := events[1]
	if second.Sensitivity != "private" || !second.Cancelled {
		t.Fatalf("unexpected event %+v", second)
	}
}

func TestFindMeetingTimes(t *testing.T) {
	var gotPath string
	var gotBody findTimesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"meetingTimeSuggestions": [
			{
				"confidence": 100,
				"meetingTimeSlot": {
					"start": {"dateTime": "2026-03-02T10:00:00.0000000", "timeZone": "UTC"},
					"end": {"dateTime": "2026-03-02T10:45:00.0000000", "timeZone": "UTC"}
				},
				"attendeeAvailability": [
					{"attendee": {"emailAddress": {"address": "ivan@corp.example"}}, "availability": "free"},
					{"attendee": {"emailAddress": {"address": "olha@corp.example"}}, "availability": "busy"}
				]
			},
			{"confidence": 50},
			{
				"meetingTimeSlot": {
					"start": {"dateTime": "2026-03-02T15:00:00.0000000"},
					"end": {"dateTime": "2026-03-02T15:45:00.0000000"}
				}
			}
		]}`))
	})

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	suggestions, err := client.FindMeetingTimes(context.Background(), "org-1", []string{"ivan@corp.example", "olha@corp.example"}, start, end, 45)
	if err != nil {
		t.Fatalf("FindMeetingTimes: %v", err)
	}
	if gotPath != "/users/org-1/findMeetingTimes" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.MeetingDuration != "PT45M" {
		t.Fatalf("unexpected duration %q", gotBody.MeetingDuration)
	}
	if gotBody.MaxCandidates != 10 || gotBody.IsOrganizerOptional {
		t.Fatalf("unexpected request options %+v", gotBody)
	}
	if len(gotBody.Attendees) != 2 || gotBody.Attendees[0].Type != "required" {
		t.Fatalf("unexpected attendees %+v", gotBody.Attendees)
	}
	if len(gotBody.TimeConstraint.Timeslots) != 1 || gotBody.TimeConstraint.Timeslots[0].Start.TimeZone != "UTC" {
		t.Fatalf("unexpected time constraint %+v", gotBody.TimeConstraint)
	}

	// The suggestion without a slot is dropped; the slot without confidence
	// keeps an empty confidence string.
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 usable suggestions, got %d", len(suggestions))
	}
	first := suggestions[0]
	if first.Confidence != "100" {
		t.Fatalf("unexpected confidence %q", first.Confidence)
	}
	if !first.Start.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", first.Start)
	}
	if len(first.Attendees) != 2 || first.Attendees[1].Availability != "busy" {
		t.Fatalf("unexpected availability %+v", first.Attendees)
	}
	if suggestions[1].Confidence != "" {
		t.Fatalf("expected empty confidence, got %q", suggestions[1].Confidence)
	}
}

func TestFindMeetingTimesDefaultDuration(t *testing.T) {
	var gotBody findTimesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"meetingTimeSuggestions": []}`))
	})

	now := time.Now().UTC()
	if _, err := client.FindMeetingTimes(context.Background(), "org-1", nil, now, now.Add(time.Hour), 0); err != nil {
		t.Fatalf("FindMeetingTimes: %v", err)
	}
	if gotBody.MeetingDuration != "PT30M" {
		t.Fatalf("expected default 30 minute duration, got %q", gotBody.MeetingDuration)
	}
}
