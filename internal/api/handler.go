// Package api provides the JSON endpoints the coach finder UI talks to.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/coach-finder/internal/app"
	"github.com/ashureev/coach-finder/internal/cache"
	"github.com/ashureev/coach-finder/internal/coaches"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/requests"
	"github.com/ashureev/coach-finder/internal/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies accepted by the API.
const maxBodyBytes = 1 << 20

// Handler serves the API on top of an app.Store.
type Handler struct {
	store *app.Store
}

// NewHandler creates a new Handler.
func NewHandler(store *app.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the /api routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Post("/auth/signup", h.SignUp)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Get("/coaches", h.ListCoaches)
		r.Post("/coaches", h.RegisterCoach)
		r.Get("/coaches/{id}", h.GetCoach)
		r.Post("/coaches/{id}/requests", h.ContactCoach)

		r.Get("/requests", h.ListRequests)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		aerr *session.AuthError
		ferr *cache.FetchError
		rerr *coaches.RegistrationError
		serr *requests.RequestSendError
	)
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &aerr):
		Error(w, http.StatusUnauthorized, aerr.Message)
	case errors.Is(err, app.ErrNotAuthenticated):
		Error(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, session.ErrSuperseded):
		Error(w, http.StatusConflict, "session changed while the request was in flight")
	case errors.As(err, &ferr), errors.As(err, &rerr), errors.As(err, &serr):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("Unhandled API error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
