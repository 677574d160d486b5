package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports a rejected form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the fields a coach registration form requires.
func (f CoachFields) Validate() error {
	if strings.TrimSpace(f.FirstName) == "" {
		return &ValidationError{Field: "firstName", Reason: "must not be empty"}
	}
	if strings.TrimSpace(f.LastName) == "" {
		return &ValidationError{Field: "lastName", Reason: "must not be empty"}
	}
	if strings.TrimSpace(f.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if f.HourlyRate <= 0 {
		return &ValidationError{Field: "hourlyRate", Reason: "must be greater than 0"}
	}
	if len(f.Areas) == 0 {
		return &ValidationError{Field: "areas", Reason: "at least one area is required"}
	}
	for _, a := range f.Areas {
		if !a.Valid() {
			return &ValidationError{Field: "areas", Reason: fmt.Sprintf("unknown area %q", a)}
		}
	}
	return nil
}

// Validate checks a contact form.
func (f RequestFields) Validate() error {
	if _, err := mail.ParseAddress(f.UserEmail); err != nil || !strings.Contains(f.UserEmail, "@") {
		return &ValidationError{Field: "userEmail", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(f.Message) == "" {
		return &ValidationError{Field: "message", Reason: "must not be empty"}
	}
	return nil
}
