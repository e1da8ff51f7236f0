package validator

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"asiops/pkg/logger"
	"asiops/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	}))
}

func ptrFloat(f float64) *float64 { return &f }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validBooking() *model.Booking {
	return &model.Booking{
		ClientName:               "Acme Pty Ltd",
		ScheduledDate:            "2024-03-04",
		ScheduledTime:            "09:30",
		ResourceDurationTemplate: model.DurationShort,
		Status:                   model.BookingScheduled,
		AllocatedStaff: []model.AllocatedStaff{
			{ID: "s1", Name: "Jane", Type: model.StaffTypeASI},
		},
	}
}

func fields(err error) []string {
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	var out []string
	for _, e := range verrs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantField string
	}{
		{"valid", func(*model.Booking) {}, ""},
		{"missing client", func(b *model.Booking) { b.ClientName = "" }, "clientName"},
		{"bad date", func(b *model.Booking) { b.ScheduledDate = "04/03/2024" }, "scheduledDate"},
		{"bad time", func(b *model.Booking) { b.ScheduledTime = "9.30" }, "scheduledTime"},
		{"unknown template", func(b *model.Booking) { b.ResourceDurationTemplate = "huge" }, "resourceDurationTemplate"},
		{"unknown status", func(b *model.Booking) { b.Status = "pending" }, "status"},
		{"bad staff type", func(b *model.Booking) { b.AllocatedStaff[0].Type = "contractor" }, "type"},
		{"bad phone", func(b *model.Booking) { b.SiteContact = &model.SiteContact{Name: "Bob", Phone: "0412 345 678"} }, "phone"},
		{"zero override", func(b *model.Booking) { b.ResourceDurationOverrideDays = ptrFloat(0) }, "resourceDurationOverrideDays"},
		{"days override on short", func(b *model.Booking) { b.ResourceDurationOverrideDays = ptrFloat(2) }, ""},
		{"hours override on short", func(b *model.Booking) { b.ResourceDurationOverrideHours = ptrFloat(2) }, "resourceDurationOverrideHours"},
		{"days override at limit", func(b *model.Booking) { b.ResourceDurationOverrideDays = ptrFloat(90) }, ""},
		{"days override past limit", func(b *model.Booking) { b.ResourceDurationOverrideDays = ptrFloat(90.5) }, "resourceDurationOverrideDays"},
		{"huge days override", func(b *model.Booking) { b.ResourceDurationOverrideDays = ptrFloat(1e19) }, "resourceDurationOverrideDays"},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := v.Validate(b)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}
			if got := fields(err); !contains(got, tt.wantField) {
				t.Errorf("expected error on %s, got fields %v (%v)", tt.wantField, got, err)
			}
		})
	}
}

func TestValidateAllocation(t *testing.T) {
	tests := []struct {
		name      string
		update    model.AllocationUpdate
		wantField string
	}{
		{"hours on na", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("2.5")}, ""},
		{"days on long", model.AllocationUpdate{Template: model.DurationLong, OverrideDays: dec("7")}, ""},
		{"template only", model.AllocationUpdate{Template: model.DurationMedium}, ""},
		{"missing template", model.AllocationUpdate{}, "resourceDurationTemplate"},
		{"negative hours", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("-1")}, "resourceDurationOverrideHours"},
		{"zero days", model.AllocationUpdate{Template: model.DurationShort, OverrideDays: dec("0")}, "resourceDurationOverrideDays"},
		{"days on na", model.AllocationUpdate{Template: model.DurationNA, OverrideDays: dec("1")}, "resourceDurationOverrideDays"},
		{"hours on medium", model.AllocationUpdate{Template: model.DurationMedium, OverrideHours: dec("4")}, "resourceDurationOverrideHours"},
		{"both overrides", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("1"), OverrideDays: dec("1")}, "resourceDurationOverride"},
		{"hours at limit", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("2160")}, ""},
		{"hours past limit", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("2161")}, "resourceDurationOverrideHours"},
		{"huge hours", model.AllocationUpdate{Template: model.DurationNA, OverrideHours: dec("1e20")}, "resourceDurationOverrideHours"},
		{"huge days", model.AllocationUpdate{Template: model.DurationLong, OverrideDays: dec("1e19")}, "resourceDurationOverrideDays"},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAllocation(&tt.update)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if got := fields(err); !contains(got, tt.wantField) {
				t.Errorf("expected error on %s, got fields %v (%v)", tt.wantField, got, err)
			}
		})
	}
}

func TestValidateDecision(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateDecision(&model.EOTDecision{Decision: model.EOTStatusRequested, DecidedBy: "Jane"}); err != nil {
		t.Fatalf("expected valid decision, got %v", err)
	}

	err := v.ValidateDecision(&model.EOTDecision{Decision: model.EOTStatusPending, DecidedBy: "Jane"})
	if err == nil || !strings.Contains(err.Error(), "decision must be one of: not_required requested") {
		t.Errorf("pending must not be accepted as a decision, got %v", err)
	}

	err = v.ValidateDecision(&model.EOTDecision{Decision: model.EOTStatusNotRequired})
	if got := fields(err); !contains(got, "decidedBy") {
		t.Errorf("expected decidedBy error, got %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
