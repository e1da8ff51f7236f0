package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	bookingserrors "asiops/internal/bookings/errors"
	bookingsrepo "asiops/internal/bookings/repository"
	"asiops/internal/bookings/validator"
	jobsrepo "asiops/internal/jobs/repository"
	"asiops/internal/planner"
	staffrepo "asiops/internal/staff/repository"
	"asiops/pkg/config"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/events"
	"asiops/pkg/model"
)

type PlannerService interface {
	Snapshot(ctx context.Context, mode, anchor string) (planner.Snapshot, planner.Request, error)
	View(ctx context.Context, mode, anchor string) (*planner.View, error)
	ScanEOT(ctx context.Context) ([]planner.EOTCandidate, error)
	DecideEOT(ctx context.Context, bookingID string, decision *model.EOTDecision) (*model.Booking, error)
	UpdateAllocation(ctx context.Context, bookingID string, update *model.AllocationUpdate) (*model.Booking, error)
}

type plannerService struct {
	bookings  bookingsrepo.BookingRepository
	jobs      jobsrepo.JobRepository
	staff     staffrepo.StaffRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewPlannerService(
	bookings bookingsrepo.BookingRepository,
	jobs jobsrepo.JobRepository,
	staff staffrepo.StaffRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) PlannerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &plannerService{
		bookings:  bookings,
		jobs:      jobs,
		staff:     staff,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *plannerService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

// Snapshot loads everything a view of the given range can show. Bookings are
// fetched from PLANNER_LOOKBACK_DAYS before the range, widened to the longest
// window an override allows, so that long windows starting earlier still
// appear.
func (s *plannerService) Snapshot(ctx context.Context, mode, anchor string) (planner.Snapshot, planner.Request, error) {
	req, err := s.parseRequest(mode, anchor)
	if err != nil {
		return planner.Snapshot{}, planner.Request{}, err
	}
	r := planner.RangeFor(req.Mode, req.Anchor)
	from := r.Start.AddDate(0, 0, -max(s.cfg.PlannerLookbackDays, planner.MaxWindowDays)).Format(planner.DateLayout)
	to := r.End.Format(planner.DateLayout)

	var snap planner.Snapshot
	var errBookings, errStaff error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		snap.Bookings, errBookings = s.bookings.FindScheduledBetween(ctx, from, to)
		if errBookings != nil {
			s.cfg.Log.Error("Failed to load planner bookings", "from", from, "to", to, "error", errBookings)
			errBookings = apperrors.Internal("Failed to load bookings", errBookings)
		}
	}()

	go func() {
		defer wg.Done()
		snap.Staff, errStaff = s.staff.FindAll(ctx, false)
		if errStaff != nil {
			s.cfg.Log.Error("Failed to load staff directory", "error", errStaff)
			errStaff = apperrors.Internal("Failed to load staff", errStaff)
		}
	}()

	wg.Wait()
	if errBookings != nil {
		return planner.Snapshot{}, planner.Request{}, errBookings
	}
	if errStaff != nil {
		return planner.Snapshot{}, planner.Request{}, errStaff
	}

	snap.Jobs, err = s.jobsFor(ctx, snap.Bookings)
	if err != nil {
		return planner.Snapshot{}, planner.Request{}, err
	}
	return snap, req, nil
}

func (s *plannerService) View(ctx context.Context, mode, anchor string) (*planner.View, error) {
	snap, req, err := s.Snapshot(ctx, mode, anchor)
	if err != nil {
		return nil, err
	}

	view := planner.BuildView(snap, req, s.location())
	s.cfg.Log.Debug("Planner view built",
		"mode", req.Mode,
		"anchor", req.Anchor.Format(planner.DateLayout),
		"bookings", len(snap.Bookings),
		"rows", len(view.Rows),
	)
	return &view, nil
}

func (s *plannerService) parseRequest(mode, anchor string) (planner.Request, error) {
	m, err := planner.ParseMode(mode)
	if err != nil {
		return planner.Request{}, apperrors.InvalidInput("mode must be one of: day, week, month")
	}

	loc := s.location()
	if anchor == "" {
		return planner.Request{Mode: m, Anchor: planner.StartOfDay(s.now().In(loc))}, nil
	}
	t, err := time.ParseInLocation(planner.DateLayout, anchor, loc)
	if err != nil {
		return planner.Request{}, apperrors.InvalidInput("anchor must be a date in YYYY-MM-DD format")
	}
	return planner.Request{Mode: m, Anchor: t}, nil
}

func (s *plannerService) jobsFor(ctx context.Context, bookings []model.Booking) ([]model.Job, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for i := range bookings {
		id := bookings[i].ConvertedJobID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	jobs, err := s.jobs.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load jobs", "count", len(ids), "error", err)
		return nil, apperrors.Internal("Failed to load jobs", err)
	}
	return jobs, nil
}

// ScanEOT returns the current EOT candidates and stamps first sight on those
// never prompted before. Stamps are conditional writes; a candidate that was
// decided between the read and the stamp is dropped from the result.
func (s *plannerService) ScanEOT(ctx context.Context) ([]planner.EOTCandidate, error) {
	bookings, err := s.bookings.FindEOTScanSet(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load EOT scan set", "error", err)
		return nil, apperrors.Internal("Failed to load bookings", err)
	}
	jobs, err := s.jobsFor(ctx, bookings)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	candidates := planner.DetectEOT(bookings, jobs, now, s.location())

	out := make([]planner.EOTCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.NeedsStamp {
			out = append(out, c)
			continue
		}
		keep, err := s.stamp(ctx, &c, now)
		if err != nil {
			// Left unstamped; the next scan tries again.
			s.cfg.Log.Error("Failed to stamp EOT prompt", "booking_id", c.BookingID, "error", err)
		}
		if keep {
			out = append(out, c)
		}
	}

	s.cfg.Log.Debug("EOT scan completed", "scanned", len(bookings), "candidates", len(out))
	return out, nil
}

func (s *plannerService) stamp(ctx context.Context, c *planner.EOTCandidate, now time.Time) (bool, error) {
	stamped, err := s.bookings.StampEOTPrompt(ctx, c.BookingID, now)
	if err != nil {
		return true, err
	}
	if stamped {
		c.PromptedAt = &now
		c.State = model.EOTPending.String()
		c.NeedsStamp = false
		s.cfg.Log.Info("EOT prompt raised", "booking_id", c.BookingID, "job_id", c.JobID)
		s.publish(ctx, events.BookingEOTPrompted, c.BookingID, nil)
		return true, nil
	}

	// Someone else got there first: re-read to learn whether it was a stamp
	// or a decision.
	current, err := s.bookings.FindByID(ctx, c.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false, nil
		}
		return true, err
	}
	if current.EOTState().Decided() {
		return false, nil
	}
	if current.EOTCheck != nil {
		c.PromptedAt = current.EOTCheck.PromptedAt
		c.State = current.EOTState().String()
	}
	c.NeedsStamp = false
	return true, nil
}

// DecideEOT records the first decision on a booking's EOT check. A booking
// whose check was never raised may be decided only while it is a candidate;
// it is stamped first so the stored record always shows when it was prompted.
func (s *plannerService) DecideEOT(ctx context.Context, bookingID string, decision *model.EOTDecision) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateDecision(decision); err != nil {
		s.cfg.Log.Warn("EOT decision validation failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.Validation("Invalid EOT decision", map[string]any{"error": err.Error()})
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, mapBookingError(err, bookingID, "Failed to retrieve booking")
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	switch state := booking.EOTState(); {
	case state.Decided():
		return nil, mapBookingError(bookingserrors.ErrAlreadyDecided, bookingID, "")
	case state == model.EOTAbsent:
		if err := s.promptBeforeDecision(ctx, booking, now); err != nil {
			return nil, err
		}
	}

	updated, err := s.bookings.RecordEOTDecision(ctx, bookingID, *decision, now)
	if err != nil {
		return nil, mapBookingError(err, bookingID, "Failed to record EOT decision")
	}

	s.cfg.Log.Info("EOT decision recorded",
		"booking_id", bookingID,
		"decision", decision.Decision,
		"decided_by", decision.DecidedBy,
	)
	s.publish(ctx, events.BookingEOTDecided, bookingID, updated)
	return updated, nil
}

func (s *plannerService) promptBeforeDecision(ctx context.Context, booking *model.Booking, now time.Time) error {
	var job *model.Job
	if booking.ConvertedJobID != "" {
		jobs, err := s.jobsFor(ctx, []model.Booking{*booking})
		if err != nil {
			return err
		}
		for i := range jobs {
			if jobs[i].ID == booking.ConvertedJobID {
				job = &jobs[i]
			}
		}
	}
	if !planner.IsEOTCandidate(booking, job, now, s.location()) {
		return mapBookingError(bookingserrors.ErrNotEOTCandidate, booking.ID, "")
	}

	if _, err := s.bookings.StampEOTPrompt(ctx, booking.ID, now); err != nil {
		return mapBookingError(err, booking.ID, "Failed to stamp EOT prompt")
	}
	return nil
}

// UpdateAllocation applies a duration edit from the planner. The override
// must belong to the template's unit class; the other unit's override is
// cleared in the same write.
func (s *plannerService) UpdateAllocation(ctx context.Context, bookingID string, update *model.AllocationUpdate) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateAllocation(update); err != nil {
		s.cfg.Log.Warn("Allocation validation failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.Validation("Invalid allocation", map[string]any{"error": err.Error()})
	}

	write := bookingsrepo.AllocationWrite{Template: update.Template}
	if update.OverrideHours != nil {
		h := update.OverrideHours.InexactFloat64()
		write.OverrideHours = &h
	}
	if update.OverrideDays != nil {
		d := update.OverrideDays.InexactFloat64()
		write.OverrideDays = &d
	}

	updated, err := s.bookings.UpdateAllocation(ctx, bookingID, write)
	if err != nil {
		return nil, mapBookingError(err, bookingID, "Failed to update allocation")
	}

	s.cfg.Log.Info("Allocation updated",
		"booking_id", bookingID,
		"template", write.Template,
		"override_hours", write.OverrideHours,
		"override_days", write.OverrideDays,
	)
	s.publish(ctx, events.BookingAllocationUpdated, bookingID, updated)
	return updated, nil
}

func (s *plannerService) publish(ctx context.Context, eventType events.Type, id string, booking *model.Booking) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(eventType, id, booking)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "id", id, "event", eventType, "error", err)
	}
}

func mapBookingError(err error, id, msg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrAlreadyDecided):
		return apperrors.Conflict("EOT decision already recorded for this booking")
	case errors.Is(err, bookingserrors.ErrNotEOTCandidate):
		return apperrors.Conflict("Booking is not awaiting an EOT decision")
	default:
		return apperrors.Internal(msg, err)
	}
}
