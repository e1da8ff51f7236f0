package planner

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDay:
		return ModeDay, nil
	case ModeWeek, "":
		return ModeWeek, nil
	case ModeMonth:
		return ModeMonth, nil
	}
	return "", fmt.Errorf("unknown planner mode %q", s)
}

// Range is a visible span of whole days, [Start, End).
type Range struct {
	Mode  Mode      `json:"mode"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// RangeFor returns the display range containing anchor. Weeks start on
// Monday and months on the 1st.
func RangeFor(mode Mode, anchor time.Time) Range {
	day := StartOfDay(anchor)
	switch mode {
	case ModeDay:
		return Range{Mode: mode, Start: day, End: day.AddDate(0, 0, 1), Days: 1}
	case ModeMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		next := first.AddDate(0, 1, 0)
		return Range{Mode: mode, Start: first, End: next, Days: daysBetween(first, next)}
	default:
		offset := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -offset)
		return Range{Mode: ModeWeek, Start: monday, End: monday.AddDate(0, 0, 7), Days: 7}
	}
}

// DayLabels lists the calendar dates covered by the range.
func (r Range) DayLabels() []string {
	labels := make([]string, 0, r.Days)
	for i := 0; i < r.Days; i++ {
		labels = append(labels, r.Start.AddDate(0, 0, i).Format(DateLayout))
	}
	return labels
}

// Columns maps a window onto the range's day columns as [start, end),
// clipped to the range. Callers filter with Intersects first.
func (r Range) Columns(w Window) (int, int) {
	from := w.Start
	if from.Before(r.Start) {
		from = r.Start
	}
	to := w.End
	if to.After(r.End) {
		to = r.End
	}

	startCol := daysBetween(r.Start, StartOfDay(from))
	endCol := daysBetween(r.Start, StartOfDay(to))
	if !StartOfDay(to).Equal(to) {
		endCol++
	}
	if endCol <= startCol {
		endCol = startCol + 1
	}
	if endCol > r.Days {
		endCol = r.Days
	}
	return startCol, endCol
}

// daysBetween counts calendar days, so DST shifts do not skew columns.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
