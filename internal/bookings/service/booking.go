package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "asiops/internal/bookings/errors"
	"asiops/internal/bookings/repository"
	"asiops/internal/bookings/validator"
	"asiops/pkg/config"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/events"
	"asiops/pkg/model"
	"asiops/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"scheduled_date", booking.ScheduledDate,
		"template", booking.ResourceDurationTemplate,
		"staff", len(booking.AllocatedStaff),
	)
	s.publish(ctx, events.BookingCreated, booking.ID, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Update merges the patch into the stored booking and validates the result
// before writing, so a patch can never leave a booking invalid.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	var updated *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to check booking existence")
		}
		if err := s.validate(mergeBookingUpdates(existing, updates)); err != nil {
			return err
		}
		updated, err = s.repo.Update(sessCtx, id, updates)
		if err != nil {
			return mapRepositoryError(err, id, "Failed to update booking")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	s.publish(ctx, events.BookingUpdated, id, updated)
	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, events.BookingDeleted, id, nil)
	return nil
}

// --- Helpers ---

func mapRepositoryError(err error, id, msg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal(msg, err)
	}
}

// publish runs after the write has committed; a failed publish is logged and
// never turns a successful write into an error.
func (s *bookingService) publish(ctx context.Context, eventType events.Type, id string, booking *model.Booking) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(eventType, id, booking)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "id", id, "event", eventType, "error", err)
	}
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.BookingScheduled
	}
	if b.ResourceDurationTemplate == "" {
		b.ResourceDurationTemplate = model.DurationNA
	}
	if b.AllocatedStaff == nil {
		b.AllocatedStaff = []model.AllocatedStaff{}
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.ClientName = sanitizer.NormalizeName(b.ClientName)
	b.SiteAddress = sanitizer.NormalizeAddress(b.SiteAddress)
	b.ScheduledDate = sanitizer.TrimAndNormalize(b.ScheduledDate)
	b.ScheduledTime = sanitizer.TrimAndNormalize(b.ScheduledTime)
	b.ConvertedJobID = sanitizer.TrimAndNormalize(b.ConvertedJobID)
	sanitizeContact(b.SiteContact)
	b.AllocatedStaff = sanitizeStaff(b.AllocatedStaff)
}

func (s *bookingService) sanitizeUpdate(u *model.BookingUpdate) {
	u.ClientName = sanitizer.NormalizeName(u.ClientName)
	u.ScheduledDate = sanitizer.TrimAndNormalize(u.ScheduledDate)
	if u.SiteAddress != nil {
		addr := sanitizer.NormalizeAddress(*u.SiteAddress)
		u.SiteAddress = &addr
	}
	if u.ScheduledTime != nil {
		t := sanitizer.TrimAndNormalize(*u.ScheduledTime)
		u.ScheduledTime = &t
	}
	if u.ConvertedJobID != nil {
		jobID := sanitizer.TrimAndNormalize(*u.ConvertedJobID)
		u.ConvertedJobID = &jobID
	}
	sanitizeContact(u.SiteContact)
	if u.AllocatedStaff != nil {
		staff := sanitizeStaff(*u.AllocatedStaff)
		u.AllocatedStaff = &staff
	}
}

// sanitizeContact leaves an unrecognised phone untouched so validation
// reports it instead of silently dropping it.
func sanitizeContact(c *model.SiteContact) {
	if c == nil {
		return
	}
	c.Name = sanitizer.NormalizeName(c.Name)
	if phone := sanitizer.NormalizePhone(c.Phone); phone != "" {
		c.Phone = phone
	} else {
		c.Phone = sanitizer.TrimAndNormalize(c.Phone)
	}
}

func sanitizeStaff(staff []model.AllocatedStaff) []model.AllocatedStaff {
	for i := range staff {
		staff[i].ID = sanitizer.TrimAndNormalize(staff[i].ID)
		staff[i].Name = sanitizer.NormalizeName(staff[i].Name)
	}
	return sanitizer.Dedupe(staff, func(a model.AllocatedStaff) string {
		if a.ID != "" {
			return a.ID
		}
		return "name:" + strings.ToLower(a.Name)
	})
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.ClientName != "" {
		merged.ClientName = updates.ClientName
	}
	if updates.SiteAddress != nil {
		merged.SiteAddress = *updates.SiteAddress
	}
	if updates.SiteContact != nil {
		merged.SiteContact = updates.SiteContact
	}
	if updates.ScheduledDate != "" {
		merged.ScheduledDate = updates.ScheduledDate
	}
	if updates.ScheduledTime != nil {
		merged.ScheduledTime = *updates.ScheduledTime
	}
	if updates.AllocatedStaff != nil {
		merged.AllocatedStaff = *updates.AllocatedStaff
	}
	if updates.ConvertedJobID != nil {
		merged.ConvertedJobID = *updates.ConvertedJobID
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "id", booking.ID, "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
