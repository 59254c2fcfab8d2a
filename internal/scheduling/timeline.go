package scheduling

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kairoshq/kairos/internal/calendar"
)

// DefaultSlotMinutes is the timeline slot width used when none is configured.
const DefaultSlotMinutes = 30

// Timeline slot statuses.
const (
	StatusAvailable   = "available"
	StatusBusy        = "busy"
	StatusOutOfOffice = "ooo"
)

// Slot is one grouped segment of a day timeline.
type Slot struct {
	Range   string    `json:"time_range"`
	Status  string    `json:"status"`
	Subject string    `json:"subject"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Subjects containing any of these words mark the event as out of office.
var oooKeywords = []string{
	"vacation", "відпустка", "відпуску", "відпуск",
	"sick", "лікарняний", "лікарняне",
	"out of office", "ooo", "off",
}

type busyPeriod struct {
	start   time.Time
	end     time.Time
	subject string
	status  string
}

// TimelineBuilder splits a day into fixed-width slots, marks each slot against
// the calendar events that overlap it and merges adjacent slots that carry the
// same status and subject.
type TimelineBuilder struct {
	logger *slog.Logger
}

// NewTimelineBuilder creates a timeline builder.
func NewTimelineBuilder(log *slog.Logger) *TimelineBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &TimelineBuilder{logger: log.With(slog.String("service", "timeline"))}
}

// Build walks [dayStart, dayEnd) in slotMinutes steps and returns the grouped
// timeline. The final slot is truncated to dayEnd. Slots render their time
// range in dayStart's zone; overlap checks compare instants, so events may
// carry any zone. Zero day bounds return no timeline.
func (b *TimelineBuilder) Build(events []calendar.Event, dayStart, dayEnd time.Time, slotMinutes int) []Slot {
	if dayStart.IsZero() || dayEnd.IsZero() {
		b.logger.Error("invalid day bounds",
			slog.Time("day_start", dayStart),
			slog.Time("day_end", dayEnd))
		return nil
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	dayEnd = dayEnd.In(dayStart.Location())

	periods := b.busyPeriods(events)
	slotLen := time.Duration(slotMinutes) * time.Minute

	var slots []Slot
	for current := dayStart; current.Before(dayEnd); {
		slotEnd := current.Add(slotLen)
		if slotEnd.After(dayEnd) {
			slotEnd = dayEnd
		}
		status, subject := slotStatus(current, slotEnd, periods)
		slots = append(slots, Slot{
			Range:   formatRange(current, slotEnd),
			Status:  status,
			Subject: formatSubject(status, subject),
			Start:   current,
			End:     slotEnd,
		})
		current = slotEnd
	}
	return groupSlots(slots)
}

// busyPeriods turns events into sorted (start, end, subject, status) periods.
// Cancelled events and events without usable times are left out.
func (b *TimelineBuilder) busyPeriods(events []calendar.Event) []busyPeriod {
	periods := make([]busyPeriod, 0, len(events))
	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		if ev.Start.IsZero() || ev.End.IsZero() {
			b.logger.Warn("skipping event without usable times", slog.String("event_id", ev.ID))
			continue
		}
		status, subject := classifyEvent(ev)
		periods = append(periods, busyPeriod{
			start:   ev.Start,
			end:     ev.End,
			subject: subject,
			status:  status,
		})
	}
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].start.Before(periods[j].start) })
	return periods
}

// classifyEvent decides busy vs out-of-office and redacts private subjects.
// The raw subject of a private event never leaves this function.
func classifyEvent(ev calendar.Event) (status, subject string) {
	status = StatusBusy
	if strings.EqualFold(ev.ShowAs, calendar.ShowAsOOF) || containsOOOKeyword(ev.Subject) {
		status = StatusOutOfOffice
	}
	subject = ev.Subject
	if strings.EqualFold(ev.Sensitivity, calendar.SensitivityPrivate) {
		if status == StatusOutOfOffice {
			subject = "Out of Office"
		} else {
			subject = "Busy"
		}
	}
	return status, subject
}

func containsOOOKeyword(subject string) bool {
	if subject == "" {
		return false
	}
	lower := strings.ToLower(subject)
	for _, kw := range oooKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// slotStatus returns the status and subject of the first period overlapping
// the slot, or available with an empty subject when none does.
func slotStatus(slotStart, slotEnd time.Time, periods []busyPeriod) (string, string) {
	for _, p := range periods {
		if slotStart.Before(p.end) && slotEnd.After(p.start) {
			return p.status, p.subject
		}
	}
	return StatusAvailable, ""
}

// formatSubject renders the display subject for a slot, substituting defaults
// for empty or generic subjects.
func formatSubject(status, subject string) string {
	switch status {
	case StatusAvailable:
		return "✅ Вільний"
	case StatusOutOfOffice:
		if subject == "" || subject == "Out of Office" || subject == "Busy" {
			return "🏖️ Відпустка"
		}
		return "🏖️ " + subject
	default:
		if subject == "" || subject == "Busy" {
			return "📅 Зустріч"
		}
		return "📅 " + subject
	}
}

func formatRange(start, end time.Time) string {
	return start.Format("15:04") + " - " + end.Format("15:04")
}

// groupSlots merges runs of contiguous slots sharing status and formatted
// subject. Merged slots keep the earliest start and the latest end.
func groupSlots(slots []Slot) []Slot {
	if len(slots) == 0 {
		return nil
	}
	grouped := make([]Slot, 0, len(slots))
	current := slots[0]
	for _, next := range slots[1:] {
		if next.Status == current.Status && next.Subject == current.Subject && current.End.Equal(next.Start) {
			current.End = next.End
			current.Range = formatRange(current.Start, next.End)
			continue
		}
		grouped = append(grouped, current)
		current = next
	}
	return append(grouped, current)
}
