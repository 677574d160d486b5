// Package emulator serves an in-memory stand-in for the identity provider and
// the document store, speaking the same HTTP contracts. It backs local
// development and the client tests.
package emulator

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Config controls the emulator.
type Config struct {
	APIKey    string
	JWTSecret string
	TokenTTL  time.Duration
	Clock     clock.Clock
	Logger    *slog.Logger
}

type account struct {
	localID      string
	email        string
	passwordHash []byte
}

// keyedDocs is an insertion-ordered key -> JSON document map.
type keyedDocs struct {
	keys []string
	docs map[string]json.RawMessage
}

func newKeyedDocs() *keyedDocs {
	return &keyedDocs{docs: make(map[string]json.RawMessage)}
}

func (k *keyedDocs) put(key string, doc json.RawMessage) {
	if _, exists := k.docs[key]; !exists {
		k.keys = append(k.keys, key)
	}
	k.docs[key] = doc
}

// marshal renders the documents as a JSON object in insertion order, or null
// when empty.
func (k *keyedDocs) marshal() []byte {
	if k == nil || len(k.keys) == 0 {
		return []byte("null")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range k.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(k.docs[key])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// Emulator holds all accounts and documents in memory.
type Emulator struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	accounts map[string]*account
	coaches  *keyedDocs
	requests map[string]*keyedDocs
}

// New creates an empty emulator.
func New(cfg Config) *Emulator {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "emulator-secret"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Emulator{
		cfg:      cfg,
		logger:   logger,
		accounts: make(map[string]*account),
		coaches:  newKeyedDocs(),
		requests: make(map[string]*keyedDocs),
	}
}

// Handler returns the HTTP routes of both services.
func (e *Emulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/{action}", e.handleAccounts)
	r.Get("/coaches.json", e.handleListCoaches)
	r.Put("/coaches/{id}.json", e.handlePutCoach)
	r.Get("/requests/{owner}.json", e.handleListRequests)
	r.Post("/requests/{coach}.json", e.handlePostRequest)
	return r
}

// SeedCoach stores a coach record directly, bypassing auth.
func (e *Emulator) SeedCoach(id string, fields domain.CoachFields) {
	doc, _ := json.Marshal(fields)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.coaches.put(id, doc)
}

// SeedRequest stores a request under coachID directly and returns its key.
func (e *Emulator) SeedRequest(coachID string, fields domain.RequestFields) string {
	doc, _ := json.Marshal(fields)
	key := newKey()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requestsFor(coachID).put(key, doc)
	return key
}

// CoachCount returns the number of stored coaches.
func (e *Emulator) CoachCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.coaches.keys)
}

func (e *Emulator) requestsFor(owner string) *keyedDocs {
	docs, ok := e.requests[owner]
	if !ok {
		docs = newKeyedDocs()
		e.requests[owner] = docs
	}
	return docs
}

func newKey() string {
	return "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("emulator: failed to encode response", "error", err)
	}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
