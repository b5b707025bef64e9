package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rollcall/rollcall-go/internal/middleware"
	"github.com/rollcall/rollcall-go/internal/model"
	"github.com/rollcall/rollcall-go/internal/service"
	"github.com/rollcall/rollcall-go/internal/syncer"
)

// LocalService is the device marking flow served to the UI shell.
type LocalService interface {
	Submit(ctx context.Context, sub model.Submission) (model.SubmitResult, error)
	Roster(ctx context.Context, classNumber string) (model.RosterResponse, error)
	Status(ctx context.Context) model.SyncStatus
	SyncNow(ctx context.Context) (syncer.Result, error)
	SetOnline(online bool) bool
}

// LocalHandler serves the agent's loopback API.
type LocalHandler struct {
	service LocalService
}

// NewLocalHandler creates a new LocalHandler.
func NewLocalHandler(svc LocalService) *LocalHandler {
	return &LocalHandler{service: svc}
}

// Routes mounts the local API on a fresh router.
func (h *LocalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Post("/local/v1/attendance", h.HandleSubmit)
	r.Get("/local/v1/classes/{class}/members", h.HandleRoster)
	r.Get("/local/v1/status", h.HandleStatus)
	r.Post("/local/v1/sync", h.HandleSync)
	r.Put("/local/v1/connectivity", h.HandleConnectivity)
	return r
}

// HandleSubmit handles POST /local/v1/attendance. 201 means the API stored
// it, 202 means it is queued on the device.
func (h *LocalHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if !decodeBody(w, r, &sub) {
		return
	}

	result, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		if service.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		slog.Error("local submit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("attendance could not be saved"))
		return
	}

	status := http.StatusCreated
	if result.Outcome != model.OutcomeSynced {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

// HandleRoster handles GET /local/v1/classes/{class}/members.
func (h *LocalHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Roster(r.Context(), chi.URLParam(r, "class"))
	if err != nil {
		if errors.Is(err, model.ErrClassRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /local/v1/status.
func (h *LocalHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status(r.Context()))
}

// HandleSync handles POST /local/v1/sync.
func (h *LocalHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncNow(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, syncer.ErrOffline):
			writeJSON(w, http.StatusServiceUnavailable, errorResponse(err.Error()))
		case errors.Is(err, syncer.ErrSyncInProgress):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleConnectivity handles PUT /local/v1/connectivity.
func (h *LocalHandler) HandleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req model.ConnectivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.service.SetOnline(req.Online)
	writeJSON(w, http.StatusOK, h.service.Status(r.Context()))
}
