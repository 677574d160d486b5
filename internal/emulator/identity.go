package emulator

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider error codes, as the real identity toolkit reports them.
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD : Password should be at least 6 characters"
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeInvalidAPIKey      = "API key not valid. Please pass a valid API key."
	CodeInvalidBody        = "INVALID_REQUEST_BODY"
)

const minPasswordLength = 6

var errPermissionDenied = errors.New("Permission denied")

type authBody struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

func writeAuthError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": code,
		},
	})
}

func (e *Emulator) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if e.cfg.APIKey != "" && r.URL.Query().Get("key") != e.cfg.APIKey {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidAPIKey)
		return
	}

	var body authBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAuthError(w, http.StatusBadRequest, CodeInvalidBody)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var (
		acct *account
		code string
	)
	switch chi.URLParam(r, "action") {
	case "accounts:signUp":
		acct, code = e.signUp(email, body.Password)
	case "accounts:signInWithPassword":
		acct, code = e.signIn(email, body.Password)
	default:
		http.NotFound(w, r)
		return
	}
	if code != "" {
		e.logger.Info("Emulator auth rejected", "email", email, "reason", code)
		writeAuthError(w, http.StatusBadRequest, code)
		return
	}

	token, err := e.issueToken(acct.localID)
	if err != nil {
		e.logger.Error("Emulator failed to sign token", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"kind":         "identitytoolkit#VerifyPasswordResponse",
		"idToken":      token,
		"email":        acct.email,
		"refreshToken": newKey(),
		"expiresIn":    strconv.FormatInt(int64(e.cfg.TokenTTL.Seconds()), 10),
		"localId":      acct.localID,
	})
}

func (e *Emulator) signUp(email, password string) (*account, string) {
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, CodeInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, CodeWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, "INTERNAL_ERROR"
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.accounts[email]; exists {
		return nil, CodeEmailExists
	}
	acct := &account{
		localID:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		email:        email,
		passwordHash: hash,
	}
	e.accounts[email] = acct
	return acct, ""
}

func (e *Emulator) signIn(email, password string) (*account, string) {
	e.mu.Lock()
	acct, ok := e.accounts[email]
	e.mu.Unlock()
	if !ok {
		return nil, CodeInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, CodeInvalidCredentials
	}
	return acct, ""
}

func (e *Emulator) issueToken(localID string) (string, error) {
	now := e.cfg.Clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   localID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(e.cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e.cfg.JWTSecret))
}

// verifyToken returns the user id carried by a valid, unexpired token.
func (e *Emulator) verifyToken(token string) (string, error) {
	if token == "" {
		return "", errPermissionDenied
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errPermissionDenied
		}
		return []byte(e.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(e.cfg.Clock.Now))
	if err != nil || !parsed.Valid {
		return "", errPermissionDenied
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errPermissionDenied
	}
	return sub, nil
}
