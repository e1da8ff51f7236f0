package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	stafferrors "asiops/internal/staff/errors"
	"asiops/pkg/config"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

type mockStaffRepository struct {
	createFunc  func(ctx context.Context, s *model.Staff) error
	findAllFunc func(ctx context.Context, activeOnly bool) ([]model.Staff, error)
}

func (m *mockStaffRepository) Create(ctx context.Context, s *model.Staff) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	return nil
}

func (m *mockStaffRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Staff, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, activeOnly)
	}
	return []model.Staff{}, nil
}

func newTestService(repo *mockStaffRepository) StaffService {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	return NewStaffService(repo, &config.Config{Log: log})
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		staff      model.Staff
		repoErr    error
		wantStatus int
	}{
		{"valid", model.Staff{Name: "  Jane   Doe ", Type: model.StaffTypeASI}, nil, 0},
		{"missing name", model.Staff{Name: "   ", Type: model.StaffTypeASI}, nil, http.StatusUnprocessableEntity},
		{"bad type", model.Staff{Name: "Jane", Type: "contractor"}, nil, http.StatusUnprocessableEntity},
		{"duplicate", model.Staff{Name: "Jane", Type: model.StaffTypeSubcontractor}, fmt.Errorf("%w: Jane", stafferrors.ErrDuplicateName), http.StatusConflict},
		{"storage failure", model.Staff{Name: "Jane", Type: model.StaffTypeASI}, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored *model.Staff
			svc := newTestService(&mockStaffRepository{createFunc: func(_ context.Context, s *model.Staff) error {
				stored = s
				return tt.repoErr
			}})

			staff := tt.staff
			err := svc.Create(context.Background(), &staff)

			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if stored == nil || stored.Name != "Jane Doe" {
					t.Errorf("expected normalized name to be stored, got %+v", stored)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.AsAppError(err).StatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestList_PassesFilter(t *testing.T) {
	var gotActiveOnly bool
	svc := newTestService(&mockStaffRepository{findAllFunc: func(_ context.Context, activeOnly bool) ([]model.Staff, error) {
		gotActiveOnly = activeOnly
		return []model.Staff{{Name: "Jane"}}, nil
	}})

	staff, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotActiveOnly || len(staff) != 1 {
		t.Errorf("got activeOnly=%v len=%d", gotActiveOnly, len(staff))
	}
}
