package emulator

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func writeDenied(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errPermissionDenied.Error()})
}

func (e *Emulator) handleListCoaches(w http.ResponseWriter, _ *http.Request) {
	e.mu.Lock()
	body := e.coaches.marshal()
	e.mu.Unlock()
	writeRaw(w, http.StatusOK, body)
}

// handlePutCoach lets a user write only the coach document keyed by their
// own id.
func (e *Emulator) handlePutCoach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid, err := e.verifyToken(r.URL.Query().Get("auth"))
	if err != nil || uid != id {
		writeDenied(w)
		return
	}

	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	e.mu.Lock()
	e.coaches.put(id, doc)
	e.mu.Unlock()

	e.logger.Info("Emulator stored coach", "id", id)
	writeRaw(w, http.StatusOK, doc)
}

// handleListRequests returns the requests under owner; only the owner may
// read them.
func (e *Emulator) handleListRequests(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	uid, err := e.verifyToken(r.URL.Query().Get("auth"))
	if err != nil || uid != owner {
		writeDenied(w)
		return
	}

	e.mu.Lock()
	body := e.requests[owner].marshal()
	e.mu.Unlock()
	writeRaw(w, http.StatusOK, body)
}

func (e *Emulator) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	coach := chi.URLParam(r, "coach")
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	key := newKey()
	e.mu.Lock()
	e.requestsFor(coach).put(key, doc)
	e.mu.Unlock()

	e.logger.Info("Emulator stored request", "coach_id", coach, "key", key)
	writeJSON(w, http.StatusOK, map[string]string{"name": key})
}

func readDocument(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !json.Valid(data) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid data; couldn't parse JSON object."})
		return nil, false
	}
	return json.RawMessage(data), true
}
