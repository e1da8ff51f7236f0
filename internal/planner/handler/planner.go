package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"asiops/internal/planner"
	"asiops/internal/planner/render"
	"asiops/internal/planner/service"
	"asiops/internal/planner/snapshot"
	httputil "asiops/pkg/http"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

const gridCellWidth = 10

type PlannerHandler struct {
	service  service.PlannerService
	timeZone string
	log      *logger.Logger
	now      func() time.Time
}

func NewPlannerHandler(service service.PlannerService, timeZone string, log *logger.Logger) *PlannerHandler {
	return &PlannerHandler{
		service:  service,
		timeZone: timeZone,
		log:      log,
		now:      time.Now,
	}
}

func (h *PlannerHandler) View(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	view, err := h.service.View(r.Context(), q.Get("mode"), q.Get("anchor"))
	if err != nil {
		h.writeError(w, "View", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "View", "operation", "WriteSuccess", "error", err)
	}
}

// Grid serves the same view as plain text, for terminals and curl.
func (h *PlannerHandler) Grid(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	view, err := h.service.View(r.Context(), q.Get("mode"), q.Get("anchor"))
	if err != nil {
		h.writeError(w, "Grid", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(render.New(render.Options{CellWidth: gridCellWidth, Plain: true}).Grid(*view))); err != nil {
		h.log.Error("failed to write grid", "handler", "Grid", "operation", "Write", "error", err)
	}
}

// EOT lists the bookings currently awaiting an EOT decision. Candidates seen
// for the first time are stamped as prompted.
func (h *PlannerHandler) EOT(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	candidates, err := h.service.ScanEOT(r.Context())
	if err != nil {
		h.writeError(w, "EOT", err)
		return
	}
	if candidates == nil {
		candidates = []planner.EOTCandidate{}
	}

	if err := httputil.WriteSuccess(w, candidates); err != nil {
		h.log.Error("failed to write success response", "handler", "EOT", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PlannerHandler) Snapshot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	snap, _, err := h.service.Snapshot(r.Context(), q.Get("mode"), q.Get("anchor"))
	if err != nil {
		h.writeError(w, "Snapshot", err)
		return
	}

	now := h.now().UTC().Format(time.RFC3339)
	body, err := snapshot.Marshal(&snapshot.Document{
		GeneratedAt: now,
		TimeZone:    h.timeZone,
		Now:         now,
		Snapshot:    snap,
	})
	if err != nil {
		h.log.Error("Failed to marshal planner snapshot", "error", err)
		h.writeError(w, "Snapshot", err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log.Error("failed to write snapshot", "handler", "Snapshot", "operation", "Write", "error", err)
	}
}

func (h *PlannerHandler) DecideEOT(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var decision model.EOTDecision
	if err := httputil.DecodeJSON(r, &decision); err != nil {
		h.writeError(w, "DecideEOT", err)
		return
	}

	booking, err := h.service.DecideEOT(r.Context(), ps.ByName("id"), &decision)
	if err != nil {
		h.writeError(w, "DecideEOT", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "DecideEOT", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PlannerHandler) UpdateAllocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.AllocationUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateAllocation", err)
		return
	}

	booking, err := h.service.UpdateAllocation(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateAllocation", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateAllocation", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PlannerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PlannerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/planner", h.View)
	router.GET("/api/v1/planner/grid", h.Grid)
	router.GET("/api/v1/planner/eot", h.EOT)
	router.GET("/api/v1/planner/snapshot", h.Snapshot)
	router.POST("/api/v1/bookings/id/:id/eot", h.DecideEOT)
	router.PATCH("/api/v1/bookings/id/:id/allocation", h.UpdateAllocation)
}
