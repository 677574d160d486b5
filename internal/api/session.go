package api

import (
	"net/http"
	"time"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	AutoLoggedOut bool       `json:"autoLoggedOut"`
	IsCoach       bool       `json:"isCoach"`
	HasRequests   bool       `json:"hasRequests"`
}

func (h *Handler) currentSession() sessionView {
	snap := h.store.Session().Snapshot()
	v := sessionView{
		Authenticated: snap.Authenticated(),
		UserID:        snap.UserID,
		AutoLoggedOut: snap.AutoLoggedOut,
		IsCoach:       h.store.IsCoach(),
		HasRequests:   h.store.HasRequests(),
	}
	if !snap.ExpiresAt.IsZero() {
		exp := snap.ExpiresAt
		v.ExpiresAt = &exp
	}
	return v
}

// GetSession returns the current session and its derived flags.
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.currentSession())
}

// SignUp creates an account and signs it in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}
	if err := h.store.SignUp(r.Context(), body.Email, body.Password); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.currentSession())
}

// Login signs in an existing account.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}
	if err := h.store.SignIn(r.Context(), body.Email, body.Password); err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.currentSession())
}

// Logout ends the session. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut(r.Context())
	JSON(w, http.StatusOK, h.currentSession())
}
