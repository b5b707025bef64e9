package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rollcall/rollcall-go/internal/middleware"
	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/service"
)

// AttendanceSubmitter is the slice of the attendance service the handler needs.
type AttendanceSubmitter interface {
	Submit(ctx context.Context, sub model.Submission, defaultLeader string) (model.AttendanceSummary, error)
	Get(ctx context.Context, classNumber, date string, service model.ServiceType) (model.AttendanceSummary, error)
}

// AttendanceHandler handles attendance submissions and lookups.
type AttendanceHandler struct {
	service AttendanceSubmitter
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(svc AttendanceSubmitter) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// HandleSubmit handles POST /api/v1/attendance requests.
func (h *AttendanceHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if !decodeBody(w, r, &sub) {
		return
	}

	summary, err := h.service.Submit(r.Context(), sub, middleware.LeaderNameFromContext(r.Context()))
	if err != nil {
		if service.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		slog.Error("attendance submit failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"device_id", r.Header.Get("X-Device-ID"),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// HandleGet handles GET /api/v1/attendance?class=&date=&service_type= requests.
func (h *AttendanceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	summary, err := h.service.Get(r.Context(), q.Get("class"), q.Get("date"), model.ServiceType(q.Get("service_type")))
	if err != nil {
		switch {
		case service.IsValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrAttendanceNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
