package planner

import (
	"time"

	"asiops/pkg/model"
)

// SuggestedActions are the decisions a planner user can take on a candidate.
var SuggestedActions = []model.EOTStatus{model.EOTStatusNotRequired, model.EOTStatusRequested}

type EOTCandidate struct {
	BookingID        string            `json:"bookingId"`
	ClientName       string            `json:"clientName,omitempty"`
	JobID            string            `json:"jobId"`
	JobStatus        model.JobStatus   `json:"jobStatus"`
	Window           Window            `json:"window"`
	Midpoint         time.Time         `json:"midpoint"`
	State            string            `json:"state"`
	PromptedAt       *time.Time        `json:"promptedAt,omitempty"`
	NeedsStamp       bool              `json:"-"`
	SuggestedActions []model.EOTStatus `json:"suggestedActions"`
}

// DetectEOT returns bookings past their window midpoint whose linked job is
// still open and whose extension-of-time check is undecided. It performs no
// writes; NeedsStamp tells the caller which candidates have never been seen.
func DetectEOT(bookings []model.Booking, jobs []model.Job, now time.Time, loc *time.Location) []EOTCandidate {
	if loc == nil {
		loc = time.UTC
	}
	byID := make(map[string]*model.Job, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	now = now.In(loc)
	var out []EOTCandidate
	for i := range bookings {
		b := &bookings[i]
		if c, ok := evaluate(b, byID[b.ConvertedJobID], now, loc); ok {
			out = append(out, c)
		}
	}
	return out
}

// IsEOTCandidate evaluates a single booking against its linked job.
func IsEOTCandidate(b *model.Booking, job *model.Job, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	_, ok := evaluate(b, job, now.In(loc), loc)
	return ok
}

func evaluate(b *model.Booking, job *model.Job, now time.Time, loc *time.Location) (EOTCandidate, bool) {
	if b.IsCancelled() || b.ConvertedJobID == "" {
		return EOTCandidate{}, false
	}
	if job == nil || job.Status.IsTerminal() {
		return EOTCandidate{}, false
	}

	state := b.EOTState()
	if state != model.EOTAbsent && state != model.EOTPending {
		return EOTCandidate{}, false
	}

	w, ok := ResolveWindow(b, loc)
	if !ok {
		return EOTCandidate{}, false
	}
	mid := w.Midpoint()
	if now.Before(mid) || now.After(EndOfDay(w.End)) {
		return EOTCandidate{}, false
	}

	c := EOTCandidate{
		BookingID:        b.ID,
		ClientName:       b.ClientName,
		JobID:            job.ID,
		JobStatus:        job.Status,
		Window:           w,
		Midpoint:         mid,
		State:            state.String(),
		SuggestedActions: append([]model.EOTStatus(nil), SuggestedActions...),
	}
	if b.EOTCheck != nil && b.EOTCheck.PromptedAt != nil {
		c.PromptedAt = b.EOTCheck.PromptedAt
	} else {
		c.NeedsStamp = true
	}
	return c, true
}
