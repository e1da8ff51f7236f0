package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	stafferrors "asiops/internal/staff/errors"
	"asiops/internal/staff/repository"
	"asiops/pkg/config"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/model"
	"asiops/pkg/sanitizer"
)

type StaffService interface {
	Create(ctx context.Context, staff *model.Staff) error
	List(ctx context.Context, activeOnly bool) ([]model.Staff, error)
}

type staffService struct {
	repo     repository.StaffRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewStaffService(repo repository.StaffRepository, cfg *config.Config) StaffService {
	return &staffService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
	}
}

func (s *staffService) Create(ctx context.Context, staff *model.Staff) error {
	staff.Name = sanitizer.NormalizeName(staff.Name)

	if err := s.validate.Struct(staff); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := make(map[string]any, len(validationErrs))
			for _, fe := range validationErrs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
			s.cfg.Log.Warn("Staff validation failed", "name", staff.Name, "error", err)
			return apperrors.Validation("Staff validation failed", details)
		}
		return apperrors.Internal("Failed to validate staff member", err)
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		if errors.Is(err, stafferrors.ErrDuplicateName) {
			return apperrors.Conflict("A staff member named " + staff.Name + " already exists")
		}
		s.cfg.Log.Error("Failed to create staff member", "name", staff.Name, "error", err)
		return apperrors.Internal("Failed to create staff member", err)
	}

	s.cfg.Log.Info("Staff member created successfully", "id", staff.ID, "name", staff.Name, "type", staff.Type)
	return nil
}

func (s *staffService) List(ctx context.Context, activeOnly bool) ([]model.Staff, error) {
	staff, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to list staff", "error", err)
		return nil, apperrors.Internal("Failed to retrieve staff", err)
	}
	return staff, nil
}
