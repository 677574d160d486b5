// Package domain contains core domain types for the coach finder client.
package domain

import "slices"

// Area is a field of expertise a coach can offer.
type Area string

const (
	AreaFrontend Area = "frontend"
	AreaBackend  Area = "backend"
	AreaCareer   Area = "career"
)

// Valid reports whether a is one of the known areas.
func (a Area) Valid() bool {
	switch a {
	case AreaFrontend, AreaBackend, AreaCareer:
		return true
	}
	return false
}

// Coach is a registered coach. ID equals the id of the user who registered it.
type Coach struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Description string  `json:"description"`
	HourlyRate  float64 `json:"hourlyRate"`
	Areas       []Area  `json:"areas"`
}

// FullName returns "First Last".
func (c Coach) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasArea returns true if the coach offers the given area.
func (c Coach) HasArea(a Area) bool {
	return slices.Contains(c.Areas, a)
}

// CoachFields is the record written to the document store when registering.
// The id is carried by the document path, not the body.
type CoachFields struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Description string  `json:"description"`
	HourlyRate  float64 `json:"hourlyRate"`
	Areas       []Area  `json:"areas"`
}

// WithID tags the fields with the owning user id.
func (f CoachFields) WithID(id string) Coach {
	return Coach{
		ID:          id,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Description: f.Description,
		HourlyRate:  f.HourlyRate,
		Areas:       slices.Clone(f.Areas),
	}
}
