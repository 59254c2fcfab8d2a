package scheduling

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
)

func day(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestBuildFreeDay(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)

	slots := builder.Build(nil, dayStart, dayEnd, 30)

	if len(slots) != 1 {
		t.Fatalf("expected one grouped slot, got %d", len(slots))
	}
	slot := slots[0]
	if slot.Status != StatusAvailable {
		t.Errorf("expected available, got %q", slot.Status)
	}
	if slot.Subject != "✅ Вільний" {
		t.Errorf("unexpected subject %q", slot.Subject)
	}
	if !slot.Start.Equal(dayStart) || !slot.End.Equal(dayEnd) {
		t.Errorf("slot does not span the day: %v - %v", slot.Start, slot.End)
	}
}

func TestBuildSingleMeeting(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Standup", Start: at(10, 0), End: at(10, 30), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	if len(slots) != 3 {
		t.Fatalf("expected 3 grouped slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Status != StatusAvailable || slots[2].Status != StatusAvailable {
		t.Errorf("expected available slots around the meeting")
	}
	busy := slots[1]
	if busy.Status != StatusBusy {
		t.Errorf("expected busy, got %q", busy.Status)
	}
	if busy.Subject != "📅 Standup" {
		t.Errorf("unexpected subject %q", busy.Subject)
	}
	if busy.Range != "10:00 - 10:30" {
		t.Errorf("unexpected range %q", busy.Range)
	}
}

func TestBuildMergesBackToBackMeetings(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Sync", Start: at(10, 0), End: at(10, 30), ShowAs: calendar.ShowAsBusy},
		{ID: "e-2", Subject: "Sync", Start: at(10, 30), End: at(11, 0), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	if len(slots) != 3 {
		t.Fatalf("expected 3 grouped slots, got %d: %+v", len(slots), slots)
	}
	busy := slots[1]
	if busy.Range != "10:00 - 11:00" {
		t.Errorf("back-to-back meetings not merged: %q", busy.Range)
	}
	if !busy.Start.Equal(at(10, 0)) || !busy.End.Equal(at(11, 0)) {
		t.Errorf("merged bounds wrong: %v - %v", busy.Start, busy.End)
	}
}

func TestBuildPartialOverlapClaimsBothSlots(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Review", Start: at(10, 15), End: at(10, 45), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	if len(slots) != 3 {
		t.Fatalf("expected 3 grouped slots, got %d: %+v", len(slots), slots)
	}
	if slots[1].Range != "10:00 - 11:00" {
		t.Errorf("expected both touched slots busy and merged, got %q", slots[1].Range)
	}
}

func TestBuildPrivateSubjectNeverLeaks(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Secret negotiation", Start: at(9, 0), End: at(10, 0), ShowAs: calendar.ShowAsBusy, Sensitivity: calendar.SensitivityPrivate},
		{ID: "e-2", Subject: "Hidden trip", Start: at(14, 0), End: at(15, 0), ShowAs: calendar.ShowAsOOF, Sensitivity: calendar.SensitivityPrivate},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	for _, slot := range slots {
		if strings.Contains(slot.Subject, "Secret") || strings.Contains(slot.Subject, "Hidden") {
			t.Fatalf("private subject leaked into %q", slot.Subject)
		}
	}
	var sawBusy, sawOOO bool
	for _, slot := range slots {
		switch slot.Subject {
		case "📅 Зустріч":
			sawBusy = true
		case "🏖️ Відпустка":
			sawOOO = true
		}
	}
	if !sawBusy || !sawOOO {
		t.Errorf("expected generic labels for private events, got %+v", slots)
	}
}

func TestBuildOutOfOfficeByKeyword(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Відпустка до кінця тижня", Start: at(8, 0), End: at(18, 0), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	var found bool
	for _, slot := range slots {
		if slot.Status == StatusOutOfOffice {
			found = true
			if slot.Subject != "🏖️ Відпустка до кінця тижня" {
				t.Errorf("unexpected subject %q", slot.Subject)
			}
		}
	}
	if !found {
		t.Fatal("vacation keyword did not mark the slot out of office")
	}
}

func TestBuildEarlierEventClaimsContestedSlot(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-2", Subject: "Standup", Start: at(10, 0), End: at(10, 30), ShowAs: calendar.ShowAsBusy},
		{ID: "e-1", Subject: "Planning", Start: at(9, 0), End: at(12, 0), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	for _, slot := range slots {
		if strings.Contains(slot.Subject, "Standup") {
			t.Fatalf("later event claimed a slot covered by an earlier one: %+v", slot)
		}
	}
	if len(slots) != 3 || slots[1].Range != "09:00 - 12:00" {
		t.Errorf("unexpected grouping: %+v", slots)
	}
}

func TestBuildSkipsCancelledAndMalformed(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart, dayEnd := day(t)
	events := []calendar.Event{
		{ID: "e-1", Subject: "Ghost", Start: at(10, 0), End: at(11, 0), ShowAs: calendar.ShowAsBusy, Cancelled: true},
		{ID: "e-2", Subject: "Broken", End: at(12, 0), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	if len(slots) != 1 || slots[0].Status != StatusAvailable {
		t.Fatalf("expected a fully free day, got %+v", slots)
	}
}

func TestBuildTruncatesFinalSlot(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	dayStart := at(10, 0)
	dayEnd := at(10, 45)

	slots := builder.Build(nil, dayStart, dayEnd, 30)

	if len(slots) != 1 {
		t.Fatalf("expected one grouped slot, got %d", len(slots))
	}
	if slots[0].Range != "10:00 - 10:45" {
		t.Errorf("final slot not truncated: %q", slots[0].Range)
	}
}

func TestBuildZeroBoundsReturnNothing(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())

	if slots := builder.Build(nil, time.Time{}, at(12, 0), 30); slots != nil {
		t.Errorf("expected no timeline for zero start, got %+v", slots)
	}
	if slots := builder.Build(nil, at(12, 0), time.Time{}, 30); slots != nil {
		t.Errorf("expected no timeline for zero end, got %+v", slots)
	}
}

func TestBuildRendersRangesInDayZone(t *testing.T) {
	builder := NewTimelineBuilder(slog.Default())
	kyiv := time.FixedZone("EET", 2*60*60)
	dayStart := time.Date(2026, 3, 2, 0, 0, 0, 0, kyiv)
	dayEnd := dayStart.AddDate(0, 0, 1)
	// 08:00 UTC is 10:00 in Kyiv.
	events := []calendar.Event{
		{ID: "e-1", Subject: "Sync", Start: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), ShowAs: calendar.ShowAsBusy},
	}

	slots := builder.Build(events, dayStart, dayEnd, 30)

	if len(slots) != 3 {
		t.Fatalf("expected 3 grouped slots, got %d: %+v", len(slots), slots)
	}
	if slots[1].Range != "10:00 - 10:30" {
		t.Errorf("expected local range for a UTC event, got %q", slots[1].Range)
	}
	if slots[1].Status != StatusBusy {
		t.Errorf("expected busy, got %q", slots[1].Status)
	}
}
