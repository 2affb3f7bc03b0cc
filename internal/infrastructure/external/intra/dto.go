// Package intra implements the school intranet client.
// This package handles all communication with the intranet: signing in
// with an autologin link, reading the planning and event rosters, and
// uploading presences.
package intra

import (
	"bytes"
	"encoding/json"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIELD TYPES
// ══════════════════════════════════════════════════════════════════════════════

// OptString is a JSON field that may be absent, null, a string, or a scalar
// the intranet sometimes sends unquoted (scolaryear, is_rdv).
type OptString struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *OptString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = OptString{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = OptString{Value: v, Valid: true}
	case '{', '[':
		// Nested values are not scalars; treat as absent.
	default:
		// Numbers and booleans keep their literal text.
		*s = OptString{Value: string(data), Valid: true}
	}
	return nil
}

// String returns the value or "" if absent.
func (s OptString) String() string {
	return s.Value
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// ══════════════════════════════════════════════════════════════════════════════

// UserDTO is the subset of /user the client needs.
type UserDTO struct {
	// Login is the account's school email
	Login OptString `json:"login"`

	// Title is the display name
	Title OptString `json:"title"`
}

// PlanningEventDTO is one entry of /planning/load.
type PlanningEventDTO struct {
	// Identity components
	ScolarYear   OptString `json:"scolaryear"`
	CodeModule   OptString `json:"codemodule"`
	CodeInstance OptString `json:"codeinstance"`
	CodeActi     OptString `json:"codeacti"`
	CodeEvent    OptString `json:"codeevent"`

	// ActiTitle is the activity name
	ActiTitle OptString `json:"acti_title"`

	// TitleModule is the module name
	TitleModule OptString `json:"titlemodule"`

	// Start and End are "YYYY-MM-DD HH:MM:SS"
	Start OptString `json:"start"`
	End   OptString `json:"end"`

	// IsRdv is "1" for appointment slots, which have no tokens
	IsRdv OptString `json:"is_rdv"`
}

// RegisteredStudentDTO is one entry of <event>/registered.
type RegisteredStudentDTO struct {
	// Login is the student's school email
	Login OptString `json:"login"`

	// Title is the student's display name
	Title OptString `json:"title"`

	// Present is the current status, null when undecided
	Present OptString `json:"present"`
}
