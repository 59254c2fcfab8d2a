package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
	"github.com/kairoshq/kairos/internal/people"
)

type stubIDDirectory struct {
	mu      sync.Mutex
	idCalls []string
	byID    map[string]people.Identity
	idErr   error
}

func (s *stubIDDirectory) SearchByName(context.Context, string, int) ([]people.Identity, error) {
	return nil, nil
}

func (s *stubIDDirectory) SearchByPrefix(context.Context, string, int) ([]people.Identity, error) {
	return nil, nil
}

func (s *stubIDDirectory) SearchBySurnameInitial(context.Context, string, int) ([]people.Identity, error) {
	return nil, nil
}

func (s *stubIDDirectory) GetByID(_ context.Context, id string) (people.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idCalls = append(s.idCalls, id)
	if s.idErr != nil {
		return people.Identity{}, s.idErr
	}
	if identity, ok := s.byID[id]; ok {
		return identity, nil
	}
	return people.Identity{}, people.ErrNotFound
}

func newViewSchedule(t *testing.T, resolver *stubResolver, directory *stubIDDirectory, cal *stubCalendar) *ViewSchedule {
	t.Helper()
	action, err := NewViewSchedule(slog.Default(), resolver, directory, cal, NewTimelineBuilder(slog.Default()), 30, time.UTC)
	if err != nil {
		t.Fatalf("NewViewSchedule: %v", err)
	}
	return action
}

func TestViewScheduleDefaultsToRequester(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{byID: map[string]people.Identity{
		"req-1": {ID: "req-1", DisplayName: "Ivan Petrenko", Mail: "ivan@corp.ua"},
	}}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", Date: "2026-03-10"})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(directory.idCalls) != 1 || directory.idCalls[0] != "req-1" {
		t.Errorf("expected one requester lookup, got %v", directory.idCalls)
	}
	if len(cal.listUsers) != 1 || cal.listUsers[0] != "req-1" {
		t.Errorf("expected events for the requester, got %v", cal.listUsers)
	}
	if res.Value.EmployeeName != "Ivan Petrenko" {
		t.Errorf("unexpected employee name %q", res.Value.EmployeeName)
	}
	if !cal.listStart.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected day start %v", cal.listStart)
	}
	if !cal.listEnd.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected day end %v", cal.listEnd)
	}
}

func TestViewScheduleSelfWordTargetsRequester(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{byID: map[string]people.Identity{
		"req-1": {ID: "req-1", DisplayName: "Ivan Petrenko"},
	}}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeName: "мене"})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(resolver.oneCalls) != 0 {
		t.Errorf("self word should not hit the resolver: %v", resolver.oneCalls)
	}
	if len(directory.idCalls) != 1 {
		t.Errorf("expected requester lookup, got %v", directory.idCalls)
	}
}

func TestViewScheduleResolvesName(t *testing.T) {
	olha := people.Identity{ID: "u-2", DisplayName: "Olha Bondar", Mail: "olha@corp.ua"}
	resolver := &stubResolver{outcomes: map[string]people.Outcome{
		"Olha": people.Resolved(olha),
	}}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeName: "Olha"})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(cal.listUsers) != 1 || cal.listUsers[0] != "u-2" {
		t.Errorf("expected events for the resolved employee, got %v", cal.listUsers)
	}
	if res.Value.EmployeeID != "u-2" || res.Value.EmployeeName != "Olha Bondar" {
		t.Errorf("unexpected target %q %q", res.Value.EmployeeID, res.Value.EmployeeName)
	}
	if len(directory.idCalls) != 0 {
		t.Errorf("requester lookup not needed when a name resolves: %v", directory.idCalls)
	}
	if len(res.Participants) != 1 || res.Participants[0].ID != "u-2" {
		t.Errorf("resolved employee not carried: %+v", res.Participants)
	}
}

func TestViewScheduleExplicitIDSkipsResolution(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeID: "u-9"})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(resolver.oneCalls) != 0 || len(directory.idCalls) != 0 {
		t.Errorf("explicit id should skip resolution")
	}
	if len(cal.listUsers) != 1 || cal.listUsers[0] != "u-9" {
		t.Errorf("expected events for u-9, got %v", cal.listUsers)
	}
	if res.Value.EmployeeName != "" {
		t.Errorf("no name expected for an unresolved id, got %q", res.Value.EmployeeName)
	}
}

func TestViewScheduleAmbiguousName(t *testing.T) {
	resolver := &stubResolver{outcomes: map[string]people.Outcome{
		"Олена": people.Ambiguous("Олена", []people.Identity{{ID: "u-2"}, {ID: "u-3"}}),
	}}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeName: "Олена"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Message, "Олена") {
		t.Errorf("unexpected message %q", res.Message)
	}
	if len(res.Ambiguous) != 1 || len(res.Ambiguous[0].Candidates) != 2 {
		t.Errorf("candidates not carried: %+v", res.Ambiguous)
	}
	if len(cal.listUsers) != 0 {
		t.Errorf("calendar consulted despite ambiguity")
	}
}

func TestViewScheduleNameNotFound(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeName: "Ghost Writer"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "Користувача 'Ghost Writer' не знайдено" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestViewScheduleDetailedBuildsTimeline(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{events: []calendar.Event{{
		ID:      "e-1",
		Subject: "Standup",
		Start:   time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
		ShowAs:  calendar.ShowAsBusy,
	}}}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{
		RequesterID: "req-1",
		EmployeeID:  "u-9",
		Date:        "2026-03-10",
		Detailed:    true,
	})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(res.Value.Timeline) != 3 {
		t.Fatalf("expected a grouped timeline, got %+v", res.Value.Timeline)
	}
	if len(res.Value.Events) != 1 {
		t.Errorf("events should come back too, got %+v", res.Value.Events)
	}

	plain := action.Execute(context.Background(), ViewScheduleRequest{
		RequesterID: "req-1",
		EmployeeID:  "u-9",
		Date:        "2026-03-10",
	})
	if len(plain.Value.Timeline) != 0 {
		t.Errorf("timeline built without the detailed flag: %+v", plain.Value.Timeline)
	}
	if len(plain.Value.Events) != 1 {
		t.Errorf("events missing from the plain view: %+v", plain.Value.Events)
	}
}

func TestViewScheduleGatewayError(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{}
	cal := &stubCalendar{listErr: errors.New("graph error: MailboxNotEnabledForRESTAPI")}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1", EmployeeID: "u-9"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "graph error: MailboxNotEnabledForRESTAPI" {
		t.Errorf("gateway error not propagated verbatim: %q", res.Message)
	}
}

func TestViewScheduleRequesterLookupFailureIsNotFatal(t *testing.T) {
	resolver := &stubResolver{}
	directory := &stubIDDirectory{idErr: errors.New("directory offline")}
	cal := &stubCalendar{}
	action := newViewSchedule(t, resolver, directory, cal)

	res := action.Execute(context.Background(), ViewScheduleRequest{RequesterID: "req-1"})

	if !res.OK {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Value.EmployeeID != "req-1" {
		t.Errorf("unexpected target %q", res.Value.EmployeeID)
	}
	if res.Value.EmployeeName != "" {
		t.Errorf("no name expected when the lookup fails, got %q", res.Value.EmployeeName)
	}
}
