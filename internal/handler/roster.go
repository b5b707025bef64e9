package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rollcall/rollcall-go/internal/model"
)

// RosterReader returns the members of a class.
type RosterReader interface {
	Roster(ctx context.Context, classNumber string) (model.RosterResponse, error)
}

// RosterHandler handles GET /api/v1/classes/{class}/members requests.
type RosterHandler struct {
	service RosterReader
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(svc RosterReader) *RosterHandler {
	return &RosterHandler{service: svc}
}

// HandleList writes the class roster.
func (h *RosterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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
