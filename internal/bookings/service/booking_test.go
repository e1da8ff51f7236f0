package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "asiops/internal/bookings/errors"
	"asiops/internal/bookings/repository"
	"asiops/internal/bookings/validator"
	"asiops/pkg/config"
	mongotx "asiops/pkg/db/mongo"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/events"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc   func(ctx context.Context, b *model.Booking) error
	findByIDFunc func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	countFunc    func(ctx context.Context) (int64, error)
	updateFunc   func(ctx context.Context, id string, u *model.BookingUpdate) (*model.Booking, error)
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "65f000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, u *model.BookingUpdate) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, u)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) UpdateAllocation(ctx context.Context, id string, w repository.AllocationWrite) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindScheduledBetween(ctx context.Context, from, to string) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindEOTScanSet(ctx context.Context) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) StampEOTPrompt(ctx context.Context, id string, at time.Time) (bool, error) {
	return false, nil
}

func (m *mockBookingRepository) RecordEOTDecision(ctx context.Context, id string, d model.EOTDecision, at time.Time) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type recordingPublisher struct {
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(repo repository.BookingRepository, pub events.Publisher) BookingService {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	return NewBookingService(repo, validator.NewBookingValidator(log), pub, &config.Config{Log: log})
}

func validBooking() *model.Booking {
	return &model.Booking{
		ClientName:    "  Acme   Builders ",
		ScheduledDate: "2024-03-04",
		ScheduledTime: "09:30",
		SiteContact:   &model.SiteContact{Name: "Jo", Phone: "0412 345 678"},
		AllocatedStaff: []model.AllocatedStaff{
			{ID: "s1", Name: "Jane", Type: model.StaffTypeASI},
			{ID: "s1", Name: "Jane again", Type: model.StaffTypeASI},
			{ID: "s2", Name: "Bob", Type: model.StaffTypeSubcontractor},
		},
	}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if got := apperrors.AsAppError(err).StatusCode(); got != status {
		t.Fatalf("expected status %d, got %d (%v)", status, got, err)
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_AppliesDefaultsAndSanitizes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(&mockBookingRepository{}, pub)

	b := validBooking()
	if err := svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.Status != model.BookingScheduled {
		t.Errorf("Status = %q, want scheduled", b.Status)
	}
	if b.ResourceDurationTemplate != model.DurationNA {
		t.Errorf("template = %q, want na", b.ResourceDurationTemplate)
	}
	if b.ClientName != "Acme Builders" {
		t.Errorf("ClientName = %q", b.ClientName)
	}
	if b.SiteContact.Phone != "+61412345678" {
		t.Errorf("phone = %q, want E.164", b.SiteContact.Phone)
	}
	if len(b.AllocatedStaff) != 2 {
		t.Errorf("expected duplicate staff to be removed, got %d", len(b.AllocatedStaff))
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.BookingCreated || pub.events[0].BookingID != b.ID {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	hours := 4.0
	tests := []struct {
		name   string
		mutate func(b *model.Booking)
	}{
		{"missing client", func(b *model.Booking) { b.ClientName = "" }},
		{"bad date", func(b *model.Booking) { b.ScheduledDate = "04/03/2024" }},
		{"bad template", func(b *model.Booking) { b.ResourceDurationTemplate = "huge" }},
		{"hours override on day template", func(b *model.Booking) {
			b.ResourceDurationTemplate = model.DurationShort
			b.ResourceDurationOverrideHours = &hours
		}},
		{"unparseable phone", func(b *model.Booking) { b.SiteContact.Phone = "call me" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &mockBookingRepository{createFunc: func(context.Context, *model.Booking) error {
				created = true
				return nil
			}}
			pub := &recordingPublisher{}
			svc := newTestService(repo, pub)

			b := validBooking()
			tt.mutate(b)
			requireStatus(t, svc.Create(context.Background(), b), http.StatusUnprocessableEntity)
			if created {
				t.Error("repository should not be called for invalid booking")
			}
			if len(pub.events) != 0 {
				t.Error("no event should be published for invalid booking")
			}
		})
	}
}

func TestCreate_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &recordingPublisher{err: errors.New("broker down")})
	if err := svc.Create(context.Background(), validBooking()); err != nil {
		t.Fatalf("publish failure should not surface: %v", err)
	}
}

// ────────────────────────────────────────────────
// GetByID / GetAll / Delete
// ────────────────────────────────────────────────

func TestGetByID_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
	}{
		{"empty id", "", nil, http.StatusBadRequest},
		{"not found", "65f000000000000000000001", bookingserrors.ErrNotFound, http.StatusNotFound},
		{"invalid id", "nope", bookingserrors.ErrInvalidID, http.StatusBadRequest},
		{"storage failure", "65f000000000000000000001", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{findByIDFunc: func(context.Context, string) (*model.Booking, error) {
				return nil, tt.err
			}}
			_, err := newTestService(repo, nil).GetByID(context.Background(), tt.id)
			requireStatus(t, err, tt.status)
		})
	}
}

func TestGetAll_RunsCountAndFindConcurrently(t *testing.T) {
	var inFlight, peak int32
	track := func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	repo := &mockBookingRepository{
		countFunc: func(context.Context) (int64, error) {
			track()
			return 7, nil
		},
		findAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
			track()
			if limit != 5 || offset != 10 {
				t.Errorf("got limit=%d offset=%d", limit, offset)
			}
			return []*model.Booking{{ID: "a"}}, nil
		},
	}

	bookings, total, err := newTestService(repo, nil).GetAll(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 || len(bookings) != 1 {
		t.Errorf("got total=%d len=%d", total, len(bookings))
	}
	if atomic.LoadInt32(&peak) != 2 {
		t.Errorf("expected count and find to overlap, peak concurrency %d", peak)
	}
}

func TestGetAll_CountFailure(t *testing.T) {
	repo := &mockBookingRepository{countFunc: func(context.Context) (int64, error) {
		return 0, errors.New("boom")
	}}
	_, _, err := newTestService(repo, nil).GetAll(context.Background(), 10, 0)
	requireStatus(t, err, http.StatusInternalServerError)
}

func TestDelete_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	if err := newTestService(&mockBookingRepository{}, pub).Delete(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.BookingDeleted || pub.events[0].Booking != nil {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestDelete_NotFound(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &mockBookingRepository{deleteFunc: func(context.Context, string) error {
		return bookingserrors.ErrNotFound
	}}
	requireStatus(t, newTestService(repo, pub).Delete(context.Background(), "b1"), http.StatusNotFound)
	if len(pub.events) != 0 {
		t.Error("failed delete should not publish")
	}
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func existingBooking() *model.Booking {
	return &model.Booking{
		ID:                       "65f000000000000000000001",
		ClientName:               "Acme",
		ScheduledDate:            "2024-03-04",
		ResourceDurationTemplate: model.DurationShort,
		AllocatedStaff:           []model.AllocatedStaff{},
		Status:                   model.BookingScheduled,
	}
}

func TestUpdate_MergesValidatesAndWrites(t *testing.T) {
	var written *model.BookingUpdate
	pub := &recordingPublisher{}
	repo := &mockBookingRepository{
		findByIDFunc: func(context.Context, string) (*model.Booking, error) {
			return existingBooking(), nil
		},
		updateFunc: func(_ context.Context, id string, u *model.BookingUpdate) (*model.Booking, error) {
			written = u
			b := existingBooking()
			b.ScheduledDate = u.ScheduledDate
			return b, nil
		},
	}

	jobID := "  J-100 "
	updated, err := newTestService(repo, pub).Update(context.Background(), "65f000000000000000000001", &model.BookingUpdate{
		ScheduledDate:  "2024-03-06",
		ConvertedJobID: &jobID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ScheduledDate != "2024-03-06" {
		t.Errorf("ScheduledDate = %q", updated.ScheduledDate)
	}
	if written == nil || *written.ConvertedJobID != "J-100" {
		t.Errorf("expected trimmed job id to be written, got %+v", written)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.BookingUpdated {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestUpdate_RejectsInvalidPatch(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(context.Context, string) (*model.Booking, error) {
			return existingBooking(), nil
		},
		updateFunc: func(context.Context, string, *model.BookingUpdate) (*model.Booking, error) {
			t.Fatal("update should not be called")
			return nil, nil
		},
	}

	_, err := newTestService(repo, nil).Update(context.Background(), "65f000000000000000000001", &model.BookingUpdate{
		Status: "archived",
	})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func TestUpdate_NotFound(t *testing.T) {
	_, err := newTestService(&mockBookingRepository{}, nil).Update(context.Background(), "65f000000000000000000001", &model.BookingUpdate{
		ClientName: "New name",
	})
	requireStatus(t, err, http.StatusNotFound)
}
