// Package dates parses fuzzy, bilingual (English/Ukrainian) date expressions
// into instants.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparseable reports that no strategy recognized the input.
var ErrUnparseable = errors.New("unparseable date expression")

// weekdays maps day names to Python-style weekday numbers (Monday=0).
// Ukrainian entries include the common accusative form of Wednesday.
var weekdays = map[string]int{
	"понеділок": 0,
	"вівторок":  1,
	"середа":    2,
	"середу":    2,
	"четвер":    3,
	"п'ятниця":  4,
	"субота":    5,
	"неділя":    6,

	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

var nextWeekdayRe = regexp.MustCompile(`^(?:next|наступний|наступну)\s+([\p{L}']+)`)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02",
}

// Parse turns a date expression into an instant. The reference time anchors
// relative terms and supplies the location for day boundaries and zone-less
// layouts.
//
// Recognized inputs, tried in order: "today"/"сьогодні" (midnight of the
// reference day), "tomorrow"/"завтра" (reference plus one day, keeping the
// time of day), "next <weekday>" (next occurrence at midnight; a week ahead
// when the reference already is that weekday), a bare weekday name matched on
// equality or suffix (today when the reference already is that weekday),
// explicit layouts, and finally a lenient free-form parse.
func Parse(text string, ref time.Time) (time.Time, error) {
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	loc := ref.Location()

	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)
	if lowered == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnparseable)
	}

	switch lowered {
	case "today", "сьогодні":
		return midnight(ref), nil
	case "tomorrow", "завтра":
		return ref.AddDate(0, 0, 1), nil
	}

	if m := nextWeekdayRe.FindStringSubmatch(lowered); m != nil {
		if target, ok := weekdays[m[1]]; ok {
			ahead := (target - pyWeekday(ref) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return midnight(ref.AddDate(0, 0, ahead)), nil
		}
	}

	for name, target := range weekdays {
		if lowered != name && !strings.HasSuffix(lowered, name) {
			continue
		}
		ahead := (target - pyWeekday(ref) + 7) % 7
		return midnight(ref.AddDate(0, 0, ahead)), nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, nil
		}
	}

	if t, err := dateparse.ParseIn(trimmed, loc); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
}

// midnight truncates to the start of t's day in its own location.
func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// pyWeekday numbers weekdays Monday=0 .. Sunday=6.
func pyWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
