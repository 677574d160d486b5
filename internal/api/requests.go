package api

import (
	"net/http"

	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ContactCoach sends a contact request to the coach in the path.
func (h *Handler) ContactCoach(w http.ResponseWriter, r *http.Request) {
	var body domain.RequestFields
	if !decode(w, r, &body) {
		return
	}
	req, err := h.store.ContactCoach(r.Context(), chi.URLParam(r, "id"), body.UserEmail, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusCreated, req)
}

// ListRequests fetches and returns the requests addressed to the signed-in
// user.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if err := h.store.LoadRequests(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"requests": h.store.Requests(),
	})
}
