package planner

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"asiops/pkg/model"
)

type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	defaultStartHour = 7
)

// Overrides above these limits are rejected on write and ignored on read.
// The validation tags on model.Booking and model.AllocationUpdate carry the
// same numbers.
const (
	MaxOverrideDays  = 90
	MaxOverrideHours = MaxOverrideDays * 24
)

// MaxWindowDays is how many calendar days past its scheduled date a resolved
// window can reach. An hour window may start late in its day, hence the +1.
const MaxWindowDays = MaxOverrideDays + 1

type durationDefault struct {
	unit  Unit
	value float64
}

var templateDefaults = map[model.DurationTemplate]durationDefault{
	model.DurationNA:     {unit: UnitHours, value: 1},
	model.DurationShort:  {unit: UnitDays, value: 1},
	model.DurationMedium: {unit: UnitDays, value: 3},
	model.DurationLong:   {unit: UnitDays, value: 5},
}

// Window is the span a booking occupies on a staff member's calendar.
// It is derived on every read and never stored.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Unit  Unit      `json:"unit"`
	Value float64   `json:"value"`
}

// Intersects uses half-open semantics: a window ending exactly at
// rangeStart does not overlap the range.
func (w Window) Intersects(rangeStart, rangeEnd time.Time) bool {
	return w.Start.Before(rangeEnd) && rangeStart.Before(w.End)
}

func (w Window) Midpoint() time.Time {
	return w.Start.Add(w.End.Sub(w.Start) / 2)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// UnitFor returns the unit class of a template. Unknown or empty
// templates behave as na.
func UnitFor(t model.DurationTemplate) Unit {
	return defaultFor(t).unit
}

func defaultFor(t model.DurationTemplate) durationDefault {
	if d, ok := templateDefaults[model.DurationTemplate(strings.ToLower(string(t)))]; ok {
		return d
	}
	return templateDefaults[model.DurationNA]
}

// ResolveWindow computes the allocation window of a booking in loc.
// It returns false when no start date can be derived; such bookings are
// left out of every view rather than failing the whole planner.
func ResolveWindow(b *model.Booking, loc *time.Location) (Window, bool) {
	if b == nil {
		return Window{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	startAt, ok := startOf(b.ScheduledDate, b.ScheduledTime, loc)
	if !ok {
		return Window{}, false
	}

	def := defaultFor(b.ResourceDurationTemplate)
	switch def.unit {
	case UnitHours:
		hours := def.value
		if usable(b.ResourceDurationOverrideHours, MaxOverrideHours) {
			hours = *b.ResourceDurationOverrideHours
		}
		return Window{
			Start: startAt,
			End:   startAt.Add(fractionOf(hours, time.Hour)),
			Unit:  UnitHours,
			Value: hours,
		}, true
	default:
		days := def.value
		if usable(b.ResourceDurationOverrideDays, MaxOverrideDays) {
			days = *b.ResourceDurationOverrideDays
		}
		start := StartOfDay(startAt)
		return Window{
			Start: start,
			End:   addDays(start, days),
			Unit:  UnitDays,
			Value: days,
		}, true
	}
}

func startOf(date, clock string, loc *time.Location) (time.Time, bool) {
	day, ok := parseDate(strings.TrimSpace(date), loc)
	if !ok {
		return time.Time{}, false
	}

	hour, minute := defaultStartHour, 0
	if t, err := time.Parse(TimeLayout, strings.TrimSpace(clock)); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), true
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// usable reports an override in (0, limit]. Anything else falls back to the
// template default so a stored value can never produce an empty window.
func usable(v *float64, limit float64) bool {
	return v != nil && !math.IsNaN(*v) && *v > 0 && *v <= limit
}

// fractionOf converts value*unit exactly, so 1.5 hours is 90 minutes
// without float drift.
func fractionOf(value float64, unit time.Duration) time.Duration {
	return time.Duration(decimal.NewFromFloat(value).Mul(decimal.NewFromInt(int64(unit))).Round(0).IntPart())
}

// addDays advances by whole calendar days, then by any fractional
// remainder as a share of 24 hours.
func addDays(start time.Time, days float64) time.Time {
	whole := math.Floor(days)
	end := start.AddDate(0, 0, int(whole))
	if rem := days - whole; rem > 0 {
		end = end.Add(fractionOf(rem, 24*time.Hour))
	}
	return end
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
