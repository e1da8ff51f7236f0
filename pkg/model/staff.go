package model

import "time"

type StaffType string

const (
	StaffTypeASI           StaffType = "asi_staff"
	StaffTypeSubcontractor StaffType = "subcontractor"
)

type Staff struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" yaml:"name,omitempty" bson:"name" validate:"required,min=1,max=100"`
	Type      StaffType `json:"type" yaml:"type,omitempty" bson:"type" validate:"required,oneof=asi_staff subcontractor"`
	Active    bool      `json:"active" yaml:"active,omitempty" bson:"active"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}
