package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DurationTemplate string

const (
	DurationNA     DurationTemplate = "na"
	DurationShort  DurationTemplate = "short"
	DurationMedium DurationTemplate = "medium"
	DurationLong   DurationTemplate = "long"
)

type BookingStatus string

const (
	BookingScheduled  BookingStatus = "scheduled"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type AllocatedStaff struct {
	ID   string    `json:"id" yaml:"id,omitempty" bson:"id" validate:"required,max=64"`
	Name string    `json:"name" yaml:"name,omitempty" bson:"name" validate:"required,min=1,max=100"`
	Type StaffType `json:"type" yaml:"type,omitempty" bson:"type" validate:"required,oneof=asi_staff subcontractor"`
}

type SiteContact struct {
	Name  string `json:"name" yaml:"name,omitempty" bson:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" yaml:"phone,omitempty" bson:"phone" validate:"omitempty,e164"`
}

type Booking struct {
	ID                            string           `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientName                    string           `json:"clientName" yaml:"clientName,omitempty" bson:"client_name" validate:"required,min=2,max=200"`
	SiteAddress                   string           `json:"siteAddress,omitempty" yaml:"siteAddress,omitempty" bson:"site_address,omitempty" validate:"omitempty,max=300"`
	SiteContact                   *SiteContact     `json:"siteContact,omitempty" yaml:"siteContact,omitempty" bson:"site_contact,omitempty" validate:"omitempty"`
	ScheduledDate                 string           `json:"scheduledDate" yaml:"scheduledDate,omitempty" bson:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime                 string           `json:"scheduledTime,omitempty" yaml:"scheduledTime,omitempty" bson:"scheduled_time,omitempty" validate:"omitempty,datetime=15:04"`
	ResourceDurationTemplate      DurationTemplate `json:"resourceDurationTemplate" yaml:"resourceDurationTemplate,omitempty" bson:"resource_duration_template" validate:"omitempty,oneof=na short medium long"`
	ResourceDurationOverrideHours *float64         `json:"resourceDurationOverrideHours,omitempty" yaml:"resourceDurationOverrideHours,omitempty" bson:"resource_duration_override_hours,omitempty" validate:"omitempty,gt=0,lte=2160"`
	ResourceDurationOverrideDays  *float64         `json:"resourceDurationOverrideDays,omitempty" yaml:"resourceDurationOverrideDays,omitempty" bson:"resource_duration_override_days,omitempty" validate:"omitempty,gt=0,lte=90"`
	AllocatedStaff                []AllocatedStaff `json:"allocatedStaff" yaml:"allocatedStaff,omitempty" bson:"allocated_staff" validate:"omitempty,max=50,dive"`
	ConvertedJobID                string           `json:"convertedJobId,omitempty" yaml:"convertedJobId,omitempty" bson:"converted_job_id,omitempty" validate:"omitempty,max=64"`
	Status                        BookingStatus    `json:"status" yaml:"status,omitempty" bson:"status" validate:"required,oneof=scheduled confirmed in_progress completed cancelled"`
	EOTCheck                      *EOTCheck        `json:"eotCheck,omitempty" yaml:"eotCheck,omitempty" bson:"eot_check,omitempty" validate:"-"`
	CreatedAt                     time.Time        `json:"createdAt" yaml:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
	UpdatedAt                     time.Time        `json:"updatedAt" yaml:"updatedAt,omitempty" bson:"updated_at" validate:"omitempty"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}

type BookingUpdate struct {
	ClientName     string            `json:"clientName,omitempty" validate:"omitempty,min=2,max=200"`
	SiteAddress    *string           `json:"siteAddress,omitempty" validate:"omitempty,max=300"`
	SiteContact    *SiteContact      `json:"siteContact,omitempty" validate:"omitempty"`
	ScheduledDate  string            `json:"scheduledDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime  *string           `json:"scheduledTime,omitempty" validate:"omitempty,datetime=15:04"`
	AllocatedStaff *[]AllocatedStaff `json:"allocatedStaff,omitempty" validate:"omitempty,max=50,dive"`
	ConvertedJobID *string           `json:"convertedJobId,omitempty" validate:"omitempty,max=64"`
	Status         BookingStatus     `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed in_progress completed cancelled"`
}

// AllocationUpdate is the planner's edit of a booking's duration settings.
// Overrides arrive as decimals so that both numbers and numeric strings are
// accepted from the client; anything else fails to decode.
type AllocationUpdate struct {
	Template      DurationTemplate `json:"resourceDurationTemplate" validate:"required,oneof=na short medium long"`
	OverrideHours *decimal.Decimal `json:"resourceDurationOverrideHours,omitempty" validate:"omitempty,gt=0,lte=2160"`
	OverrideDays  *decimal.Decimal `json:"resourceDurationOverrideDays,omitempty" validate:"omitempty,gt=0,lte=90"`
}
