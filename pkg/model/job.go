package model

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobScheduled  JobStatus = "scheduled"
	JobInProgress JobStatus = "in_progress"
	JobOnHold     JobStatus = "on_hold"
	JobCompleted  JobStatus = "completed"
	JobClosed     JobStatus = "closed"
	JobCancelled  JobStatus = "cancelled"
)

// Job is the read-only slice of a work order the planner needs.
type Job struct {
	ID        string    `json:"id" bson:"_id" yaml:"id"`
	Status    JobStatus `json:"status" bson:"status" yaml:"status"`
	BookingID string    `json:"bookingId,omitempty" bson:"booking_id,omitempty" yaml:"bookingId,omitempty"`
}

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobClosed, JobCancelled:
		return true
	}
	return false
}
