package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"asiops/internal/planner"
	apperrors "asiops/pkg/errors"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

type mockPlannerService struct {
	snapshotFunc         func(ctx context.Context, mode, anchor string) (planner.Snapshot, planner.Request, error)
	viewFunc             func(ctx context.Context, mode, anchor string) (*planner.View, error)
	scanEOTFunc          func(ctx context.Context) ([]planner.EOTCandidate, error)
	decideEOTFunc        func(ctx context.Context, id string, d *model.EOTDecision) (*model.Booking, error)
	updateAllocationFunc func(ctx context.Context, id string, u *model.AllocationUpdate) (*model.Booking, error)
}

func (m *mockPlannerService) Snapshot(ctx context.Context, mode, anchor string) (planner.Snapshot, planner.Request, error) {
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx, mode, anchor)
	}
	return planner.Snapshot{}, planner.Request{}, nil
}

func (m *mockPlannerService) View(ctx context.Context, mode, anchor string) (*planner.View, error) {
	if m.viewFunc != nil {
		return m.viewFunc(ctx, mode, anchor)
	}
	return &planner.View{}, nil
}

func (m *mockPlannerService) ScanEOT(ctx context.Context) ([]planner.EOTCandidate, error) {
	if m.scanEOTFunc != nil {
		return m.scanEOTFunc(ctx)
	}
	return nil, nil
}

func (m *mockPlannerService) DecideEOT(ctx context.Context, id string, d *model.EOTDecision) (*model.Booking, error) {
	if m.decideEOTFunc != nil {
		return m.decideEOTFunc(ctx, id, d)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockPlannerService) UpdateAllocation(ctx context.Context, id string, u *model.AllocationUpdate) (*model.Booking, error) {
	if m.updateAllocationFunc != nil {
		return m.updateAllocationFunc(ctx, id, u)
	}
	return &model.Booking{ID: id}, nil
}

func newTestRouter(svc *mockPlannerService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	h := NewPlannerHandler(svc, "Australia/Sydney", log)
	h.now = func() time.Time { return time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC) }
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router *httprouter.Router, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestView_PassesQuery(t *testing.T) {
	var gotMode, gotAnchor string
	router := newTestRouter(&mockPlannerService{viewFunc: func(_ context.Context, mode, anchor string) (*planner.View, error) {
		gotMode, gotAnchor = mode, anchor
		return &planner.View{Days: []string{"2024-03-04"}}, nil
	}})

	w := serve(router, http.MethodGet, "/api/v1/planner?mode=day&anchor=2024-03-04", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotMode != "day" || gotAnchor != "2024-03-04" {
		t.Errorf("unexpected query: mode=%q anchor=%q", gotMode, gotAnchor)
	}
	if !strings.Contains(w.Body.String(), `"days":["2024-03-04"]`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestView_BadRequest(t *testing.T) {
	router := newTestRouter(&mockPlannerService{viewFunc: func(context.Context, string, string) (*planner.View, error) {
		return nil, apperrors.InvalidInput("mode must be one of: day, week, month")
	}})

	w := serve(router, http.MethodGet, "/api/v1/planner?mode=year", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGrid_PlainText(t *testing.T) {
	router := newTestRouter(&mockPlannerService{viewFunc: func(context.Context, string, string) (*planner.View, error) {
		start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		return &planner.View{
			Range: planner.Range{Mode: planner.ModeDay, Start: start, End: start.AddDate(0, 0, 1), Days: 1},
			Days:  []string{"2024-03-04"},
			Rows:  []planner.Row{{Staff: model.AllocatedStaff{Name: "Jane"}}},
		}, nil
	}})

	w := serve(router, http.MethodGet, "/api/v1/planner/grid?mode=day", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Jane") {
		t.Errorf("grid missing staff row: %s", w.Body.String())
	}
}

func TestEOT_EmptyListIsArray(t *testing.T) {
	router := newTestRouter(&mockPlannerService{})

	w := serve(router, http.MethodGet, "/api/v1/planner/eot", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"data":[]}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestSnapshot_YAML(t *testing.T) {
	router := newTestRouter(&mockPlannerService{snapshotFunc: func(context.Context, string, string) (planner.Snapshot, planner.Request, error) {
		return planner.Snapshot{Bookings: []model.Booking{{ID: "b1", ScheduledDate: "2024-03-04"}}}, planner.Request{}, nil
	}})

	w := serve(router, http.MethodGet, "/api/v1/planner/snapshot?mode=week", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"timeZone: Australia/Sydney", "2024-03-04T05:00:00Z", "bookings:", "id: b1"} {
		if !strings.Contains(body, want) {
			t.Errorf("snapshot missing %q:\n%s", want, body)
		}
	}
}

func TestDecideEOT(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"decided", `{"decision":"requested","decidedBy":"Jane","note":"rain"}`, nil, http.StatusOK},
		{"unknown field", `{"decision":"requested","by":"Jane"}`, nil, http.StatusBadRequest},
		{"already decided", `{"decision":"requested","decidedBy":"Jane"}`, apperrors.Conflict("EOT check already decided"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.EOTDecision
			var gotID string
			router := newTestRouter(&mockPlannerService{decideEOTFunc: func(_ context.Context, id string, d *model.EOTDecision) (*model.Booking, error) {
				gotID, got = id, d
				if tt.err != nil {
					return nil, tt.err
				}
				return &model.Booking{ID: id}, nil
			}})

			w := serve(router, http.MethodPost, "/api/v1/bookings/id/b1/eot", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && (gotID != "b1" || got.Decision != model.EOTStatusRequested || got.Note != "rain") {
				t.Errorf("unexpected decision for %q: %+v", gotID, got)
			}
		})
	}
}

func TestUpdateAllocation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantHours  string
	}{
		{"number", `{"resourceDurationTemplate":"na","resourceDurationOverrideHours":2.5}`, http.StatusOK, "2.5"},
		{"numeric string", `{"resourceDurationTemplate":"na","resourceDurationOverrideHours":"4"}`, http.StatusOK, "4"},
		{"not a number", `{"resourceDurationTemplate":"na","resourceDurationOverrideHours":"lots"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.AllocationUpdate
			router := newTestRouter(&mockPlannerService{updateAllocationFunc: func(_ context.Context, id string, u *model.AllocationUpdate) (*model.Booking, error) {
				got = u
				return &model.Booking{ID: id}, nil
			}})

			w := serve(router, http.MethodPatch, "/api/v1/bookings/id/b1/allocation", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantHours == "" {
				if got != nil {
					t.Error("service should not be called for an undecodable body")
				}
				return
			}
			if got == nil || got.OverrideHours == nil || got.OverrideHours.String() != tt.wantHours {
				t.Errorf("unexpected update: %+v", got)
			}
		})
	}
}
