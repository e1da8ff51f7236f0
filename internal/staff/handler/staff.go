package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"asiops/internal/staff/service"
	apperrors "asiops/pkg/errors"
	httputil "asiops/pkg/http"
	"asiops/pkg/logger"
	"asiops/pkg/model"
)

type StaffHandler struct {
	service service.StaffService
	log     *logger.Logger
}

func NewStaffHandler(service service.StaffService, log *logger.Logger) *StaffHandler {
	return &StaffHandler{
		service: service,
		log:     log,
	}
}

type createStaffRequest struct {
	Name   string          `json:"name"`
	Type   model.StaffType `json:"type"`
	Active *bool           `json:"active,omitempty"`
}

// Create adds a directory entry. Staff are active unless stated otherwise.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createStaffRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	staff := model.Staff{Name: req.Name, Type: req.Type, Active: true}
	if req.Active != nil {
		staff.Active = *req.Active
	}

	if err := h.service.Create(r.Context(), &staff); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, staff); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	activeOnly := false
	if s := r.URL.Query().Get("active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			h.writeError(w, "List", apperrors.InvalidInput("invalid active parameter: "+s))
			return
		}
		activeOnly = v
	}

	staff, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, staff); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StaffHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *StaffHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/staff", h.List)
	router.POST("/api/v1/staff", h.Create)
}
