package api

import (
	"net/http"
	"strings"

	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListCoaches returns the coach directory, refreshing it when stale or when
// ?refresh=1 is given. Repeated or comma-separated ?area= values filter the
// result.
func (h *Handler) ListCoaches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	force := q.Get("refresh") == "1" || q.Get("refresh") == "true"
	if err := h.store.LoadCoaches(r.Context(), force); err != nil {
		writeError(w, err)
		return
	}

	var areas []domain.Area
	for _, v := range q["area"] {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				areas = append(areas, domain.Area(a))
			}
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"coaches": h.store.Coaches(areas...),
		"isCoach": h.store.IsCoach(),
	})
}

// GetCoach returns one coach from the directory.
func (h *Handler) GetCoach(w http.ResponseWriter, r *http.Request) {
	if err := h.store.LoadCoaches(r.Context(), false); err != nil {
		writeError(w, err)
		return
	}
	coach, ok := h.store.Coach(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "coach not found")
		return
	}
	JSON(w, http.StatusOK, coach)
}

// RegisterCoach registers the signed-in user as a coach.
func (h *Handler) RegisterCoach(w http.ResponseWriter, r *http.Request) {
	var fields domain.CoachFields
	if !decode(w, r, &fields) {
		return
	}
	coach, err := h.store.RegisterCoach(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusCreated, coach)
}
