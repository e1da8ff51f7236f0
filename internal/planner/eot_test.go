package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asiops/pkg/model"
)

func linked(id string, tmpl model.DurationTemplate, jobID string) model.Booking {
	b := booking(id, "2024-03-04", "09:00", tmpl)
	b.ConvertedJobID = jobID
	return b
}

func TestDetectEOT_Window(t *testing.T) {
	// medium: [03-04 00:00, 03-07 00:00), midpoint 03-05 12:00, cutoff end of 03-07.
	bookings := []model.Booking{linked("b1", model.DurationMedium, "j1")}
	jobs := []model.Job{{ID: "j1", Status: model.JobInProgress}}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before midpoint", at("2024-03-05 11:59"), false},
		{"at midpoint", at("2024-03-05 12:00"), true},
		{"at window end", at("2024-03-07 00:00"), true},
		{"late on end day", at("2024-03-07 23:59"), true},
		{"day after end", at("2024-03-08 00:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEOT(bookings, jobs, tt.now, time.UTC)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestDetectEOT_Eligibility(t *testing.T) {
	now := at("2024-03-06 08:00")
	prompted := at("2024-03-05 13:00")
	decided := at("2024-03-05 14:00")

	cancelled := linked("cancelled", model.DurationMedium, "j-open")
	cancelled.Status = model.BookingCancelled

	pending := linked("pending", model.DurationMedium, "j-open")
	pending.EOTCheck = &model.EOTCheck{Status: model.EOTStatusPending, PromptedAt: &prompted}

	notRequired := linked("not-required", model.DurationMedium, "j-open")
	notRequired.EOTCheck = &model.EOTCheck{Status: model.EOTStatusNotRequired, PromptedAt: &prompted, DecidedAt: &decided}

	requested := linked("requested", model.DurationMedium, "j-open")
	requested.EOTCheck = &model.EOTCheck{Status: model.EOTStatusRequested, PromptedAt: &prompted, DecidedAt: &decided}

	undated := linked("undated", model.DurationMedium, "j-open")
	undated.ScheduledDate = ""

	bookings := []model.Booking{
		linked("fresh", model.DurationMedium, "j-open"),
		pending,
		notRequired,
		requested,
		cancelled,
		undated,
		linked("no-job", model.DurationMedium, ""),
		linked("missing-job", model.DurationMedium, "j-gone"),
		linked("completed", model.DurationMedium, "j-completed"),
		linked("closed", model.DurationMedium, "j-closed"),
		linked("job-cancelled", model.DurationMedium, "j-cancelled"),
	}
	jobs := []model.Job{
		{ID: "j-open", Status: model.JobScheduled},
		{ID: "j-completed", Status: model.JobCompleted},
		{ID: "j-closed", Status: model.JobClosed},
		{ID: "j-cancelled", Status: model.JobCancelled},
	}

	got := DetectEOT(bookings, jobs, now, time.UTC)
	require.Len(t, got, 2)

	assert.Equal(t, "fresh", got[0].BookingID)
	assert.True(t, got[0].NeedsStamp)
	assert.Equal(t, "absent", got[0].State)
	assert.Equal(t, []model.EOTStatus{model.EOTStatusNotRequired, model.EOTStatusRequested}, got[0].SuggestedActions)

	got[0].SuggestedActions[0] = model.EOTStatusRequested
	assert.Equal(t, model.EOTStatusNotRequired, SuggestedActions[0], "candidates must not share the package slice")

	assert.Equal(t, "pending", got[1].BookingID)
	assert.False(t, got[1].NeedsStamp)
	assert.Equal(t, &prompted, got[1].PromptedAt)
}

func TestDetectEOT_RepeatedScanIsStable(t *testing.T) {
	now := at("2024-03-06 08:00")
	decided := at("2024-03-05 14:00")
	done := linked("done", model.DurationMedium, "j1")
	done.EOTCheck = &model.EOTCheck{Status: model.EOTStatusRequested, DecidedAt: &decided, DecidedBy: "ops"}

	bookings := []model.Booking{linked("fresh", model.DurationMedium, "j1"), done}
	jobs := []model.Job{{ID: "j1", Status: model.JobInProgress}}

	first := DetectEOT(bookings, jobs, now, time.UTC)
	second := DetectEOT(bookings, jobs, now, time.UTC)
	assert.Equal(t, first, second)
	assert.Nil(t, bookings[0].EOTCheck)
	assert.Equal(t, &decided, bookings[1].EOTCheck.DecidedAt)
}

func TestDetectEOT_HourWindow(t *testing.T) {
	b := linked("b1", model.DurationNA, "j1")
	b.ResourceDurationOverrideHours = ptr(4)
	jobs := []model.Job{{ID: "j1", Status: model.JobPending}}

	assert.Empty(t, DetectEOT([]model.Booking{b}, jobs, at("2024-03-04 10:59"), time.UTC))
	assert.Len(t, DetectEOT([]model.Booking{b}, jobs, at("2024-03-04 11:00"), time.UTC), 1)
	assert.Len(t, DetectEOT([]model.Booking{b}, jobs, at("2024-03-04 23:00"), time.UTC), 1)
	assert.Empty(t, DetectEOT([]model.Booking{b}, jobs, at("2024-03-05 00:00"), time.UTC))
}

func TestIsEOTCandidate(t *testing.T) {
	b := linked("b1", model.DurationShort, "j1")
	job := &model.Job{ID: "j1", Status: model.JobInProgress}

	assert.True(t, IsEOTCandidate(&b, job, at("2024-03-04 13:00"), time.UTC))
	assert.False(t, IsEOTCandidate(&b, nil, at("2024-03-04 13:00"), time.UTC))
	assert.False(t, IsEOTCandidate(&b, job, at("2024-03-04 11:00"), time.UTC))
}
