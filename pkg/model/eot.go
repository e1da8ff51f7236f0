package model

import "time"

type EOTStatus string

const (
	EOTStatusPending     EOTStatus = "pending"
	EOTStatusNotRequired EOTStatus = "not_required"
	EOTStatusRequested   EOTStatus = "requested"
)

// EOTCheck is the extension-of-time marker stored on a booking.
type EOTCheck struct {
	Status     EOTStatus  `json:"status" yaml:"status,omitempty" bson:"status"`
	PromptedAt *time.Time `json:"promptedAt,omitempty" yaml:"promptedAt,omitempty" bson:"prompted_at,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty" yaml:"decidedAt,omitempty" bson:"decided_at,omitempty"`
	DecidedBy  string     `json:"decidedBy,omitempty" yaml:"decidedBy,omitempty" bson:"decided_by,omitempty"`
	Note       string     `json:"note,omitempty" yaml:"note,omitempty" bson:"note,omitempty"`
}

// EOTState is the exhaustive view of a booking's optional EOTCheck.
type EOTState int

const (
	EOTAbsent EOTState = iota
	EOTPending
	EOTNotRequired
	EOTRequested
)

func (s EOTState) String() string {
	switch s {
	case EOTPending:
		return string(EOTStatusPending)
	case EOTNotRequired:
		return string(EOTStatusNotRequired)
	case EOTRequested:
		return string(EOTStatusRequested)
	default:
		return "absent"
	}
}

// Decided reports whether a human has already resolved the check.
func (s EOTState) Decided() bool {
	return s == EOTNotRequired || s == EOTRequested
}

func (b *Booking) EOTState() EOTState {
	if b.EOTCheck == nil {
		return EOTAbsent
	}
	switch b.EOTCheck.Status {
	case EOTStatusPending:
		return EOTPending
	case EOTStatusNotRequired:
		return EOTNotRequired
	case EOTStatusRequested:
		return EOTRequested
	}
	if b.EOTCheck.DecidedAt != nil {
		return EOTRequested
	}
	return EOTAbsent
}

type EOTDecision struct {
	Decision  EOTStatus `json:"decision" validate:"required,oneof=not_required requested"`
	DecidedBy string    `json:"decidedBy" validate:"required,min=1,max=100"`
	Note      string    `json:"note,omitempty" validate:"omitempty,max=1000"`
}
