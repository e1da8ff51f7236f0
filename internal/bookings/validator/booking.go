package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"asiops/internal/planner"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// decimalValue lets numeric tags such as gt=0 apply to decimal overrides.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.structErrors(booking); err != nil {
		return err
	}
	return overrideErrors(booking.ResourceDurationTemplate, booking.ResourceDurationOverrideHours != nil, booking.ResourceDurationOverrideDays != nil)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	return v.structErrors(update)
}

// ValidateAllocation checks an allocation edit before anything is written:
// overrides must be positive and belong to the template's unit class.
func (v *BookingValidator) ValidateAllocation(update *model.AllocationUpdate) error {
	if err := v.structErrors(update); err != nil {
		return err
	}
	return overrideErrors(update.Template, update.OverrideHours != nil, update.OverrideDays != nil)
}

func (v *BookingValidator) ValidateDecision(decision *model.EOTDecision) error {
	return v.structErrors(decision)
}

func (v *BookingValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func overrideErrors(template model.DurationTemplate, hasHours, hasDays bool) error {
	var errs ValidationErrors
	unit := planner.UnitFor(template)

	if hasHours && hasDays {
		errs = append(errs, ValidationError{
			Field:   "resourceDurationOverride",
			Message: "only one of resourceDurationOverrideHours and resourceDurationOverrideDays may be set",
		})
	}
	if hasHours && unit != planner.UnitHours {
		errs = append(errs, ValidationError{
			Field:   "resourceDurationOverrideHours",
			Message: fmt.Sprintf("template %q is measured in days", template),
		})
	}
	if hasDays && unit != planner.UnitDays {
		errs = append(errs, ValidationError{
			Field:   "resourceDurationOverrideDays",
			Message: fmt.Sprintf("template %q is measured in hours", template),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number (e.g., +61412345678)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be a positive number", err.Field())
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must match the layout %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
