package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asiops/pkg/model"
)

func ptr(v float64) *float64 { return &v }

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func booking(id, date, clock string, tmpl model.DurationTemplate) model.Booking {
	return model.Booking{
		ID:                       id,
		ScheduledDate:            date,
		ScheduledTime:            clock,
		ResourceDurationTemplate: tmpl,
		Status:                   model.BookingScheduled,
	}
}

func TestResolveWindow_Templates(t *testing.T) {
	tests := []struct {
		name      string
		template  model.DurationTemplate
		wantStart string
		wantEnd   string
		wantUnit  Unit
		wantValue float64
	}{
		{"na keeps exact time", model.DurationNA, "2024-03-04 09:30", "2024-03-04 10:30", UnitHours, 1},
		{"empty template behaves as na", "", "2024-03-04 09:30", "2024-03-04 10:30", UnitHours, 1},
		{"unknown template behaves as na", "epic", "2024-03-04 09:30", "2024-03-04 10:30", UnitHours, 1},
		{"short snaps to midnight", model.DurationShort, "2024-03-04 00:00", "2024-03-05 00:00", UnitDays, 1},
		{"medium is three days", model.DurationMedium, "2024-03-04 00:00", "2024-03-07 00:00", UnitDays, 3},
		{"long is five calendar days", model.DurationLong, "2024-03-04 00:00", "2024-03-09 00:00", UnitDays, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := booking("b1", "2024-03-04", "09:30", tt.template)
			w, ok := ResolveWindow(&b, time.UTC)
			require.True(t, ok)
			assert.Equal(t, at(tt.wantStart), w.Start)
			assert.Equal(t, at(tt.wantEnd), w.End)
			assert.Equal(t, tt.wantUnit, w.Unit)
			assert.Equal(t, tt.wantValue, w.Value)
		})
	}
}

func TestResolveWindow_StartTime(t *testing.T) {
	t.Run("unparseable time defaults to 07:00", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "soon", model.DurationNA)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-04 07:00"), w.Start)
	})

	t.Run("missing time defaults to 07:00", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "", model.DurationNA)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-04 07:00"), w.Start)
	})

	t.Run("missing date excludes the booking", func(t *testing.T) {
		b := booking("b1", "", "09:00", model.DurationNA)
		_, ok := ResolveWindow(&b, time.UTC)
		assert.False(t, ok)
	})

	t.Run("garbage date excludes the booking", func(t *testing.T) {
		b := booking("b1", "next tuesday", "09:00", model.DurationNA)
		_, ok := ResolveWindow(&b, time.UTC)
		assert.False(t, ok)
	})

	t.Run("timestamp dates are accepted", func(t *testing.T) {
		b := booking("b1", "2024-03-04T00:00:00Z", "10:15", model.DurationNA)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-04 10:15"), w.Start)
	})

	t.Run("nil booking", func(t *testing.T) {
		_, ok := ResolveWindow(nil, time.UTC)
		assert.False(t, ok)
	})

	t.Run("location is honoured", func(t *testing.T) {
		loc := time.FixedZone("AEST", 10*60*60)
		b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
		w, ok := ResolveWindow(&b, loc)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC), w.Start.UTC())
	})
}

func TestResolveWindow_Overrides(t *testing.T) {
	t.Run("hours override wins for na", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
		b.ResourceDurationOverrideHours = ptr(3)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-04 12:00"), w.End)
		assert.Equal(t, 3.0, w.Value)
	})

	t.Run("fractional hours are exact", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
		b.ResourceDurationOverrideHours = ptr(1.5)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, 90*time.Minute, w.Duration())
	})

	t.Run("days override wins for medium", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationMedium)
		b.ResourceDurationOverrideDays = ptr(2)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-06 00:00"), w.End)
	})

	t.Run("days override ignored for na", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
		b.ResourceDurationOverrideDays = ptr(4)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, UnitHours, w.Unit)
		assert.Equal(t, time.Hour, w.Duration())
	})

	t.Run("hours override ignored for long", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationLong)
		b.ResourceDurationOverrideHours = ptr(2)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-03-09 00:00"), w.End)
	})

	t.Run("largest days override", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "09:00", model.DurationLong)
		b.ResourceDurationOverrideDays = ptr(MaxOverrideDays)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, at("2024-06-02 00:00"), w.End)
	})

	t.Run("out of range days fall back to default", func(t *testing.T) {
		for _, huge := range []float64{MaxOverrideDays + 0.5, 1e19} {
			b := booking("b1", "2024-03-04", "09:00", model.DurationLong)
			b.ResourceDurationOverrideDays = ptr(huge)
			w, ok := ResolveWindow(&b, time.UTC)
			require.True(t, ok)
			assert.Equal(t, at("2024-03-09 00:00"), w.End, "override %g", huge)
			assert.Equal(t, 5.0, w.Value)
		}
	})

	t.Run("out of range hours fall back to default", func(t *testing.T) {
		for _, huge := range []float64{MaxOverrideHours + 1, 1e20} {
			b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
			b.ResourceDurationOverrideHours = ptr(huge)
			w, ok := ResolveWindow(&b, time.UTC)
			require.True(t, ok)
			assert.Equal(t, time.Hour, w.Duration(), "override %g", huge)
		}
	})

	t.Run("largest hours override reaches within MaxWindowDays", func(t *testing.T) {
		b := booking("b1", "2024-03-04", "23:59", model.DurationNA)
		b.ResourceDurationOverrideHours = ptr(MaxOverrideHours)
		w, ok := ResolveWindow(&b, time.UTC)
		require.True(t, ok)
		assert.Equal(t, time.Duration(MaxOverrideHours)*time.Hour, w.Duration())
		assert.True(t, w.End.Before(at("2024-03-04 00:00").AddDate(0, 0, MaxWindowDays)))
	})

	for _, bad := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		t.Run("unusable override falls back to default", func(t *testing.T) {
			b := booking("b1", "2024-03-04", "09:00", model.DurationNA)
			b.ResourceDurationOverrideHours = ptr(bad)
			w, ok := ResolveWindow(&b, time.UTC)
			require.True(t, ok)
			assert.Equal(t, time.Hour, w.Duration())
			assert.True(t, w.End.After(w.Start))
		})
	}
}

func TestWindowIntersects(t *testing.T) {
	rangeStart := at("2024-03-04 00:00")
	rangeEnd := at("2024-03-11 00:00")

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"ends exactly at range start", "2024-03-03 00:00", "2024-03-04 00:00", false},
		{"starts exactly at range start", "2024-03-04 00:00", "2024-03-04 01:00", true},
		{"starts exactly at range end", "2024-03-11 00:00", "2024-03-12 00:00", false},
		{"straddles range start", "2024-03-02 00:00", "2024-03-05 00:00", true},
		{"covers whole range", "2024-03-01 00:00", "2024-03-20 00:00", true},
		{"entirely before", "2024-02-01 00:00", "2024-02-02 00:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Window{Start: at(tt.start), End: at(tt.end)}
			assert.Equal(t, tt.want, w.Intersects(rangeStart, rangeEnd))
		})
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(at("2024-03-04 09:00"))
	assert.Equal(t, at("2024-03-05 00:00").Add(-time.Nanosecond), got)
}
