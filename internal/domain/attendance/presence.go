package attendance

import (
	"fmt"
	"strings"

	"github.com/epitok/epitok/internal/domain/shared"
)

// Presence is a student's attendance status for one event.
type Presence int

const (
	// PresenceNone - no status recorded yet.
	PresenceNone Presence = iota
	// PresencePresent - the student attended.
	PresencePresent
	// PresenceMissing - the student did not attend.
	PresenceMissing
	// PresenceNotApplicable - excused or not expected.
	PresenceNotApplicable
	// PresenceFailed - the student tried to enter a token but it was not saved.
	PresenceFailed
)

// Wire values understood by the intranet. On the intranet an undecided
// student has a null "present" field, uploaded as an empty string.
const (
	wireNone          = ""
	wirePresent       = "present"
	wireMissing       = "absent"
	wireNotApplicable = "N/A"
	wireFailed        = "failed"
)

// AllPresences lists every variant in declaration order.
var AllPresences = []Presence{
	PresenceNone,
	PresencePresent,
	PresenceMissing,
	PresenceNotApplicable,
	PresenceFailed,
}

// DecodePresence maps an intranet wire value to a Presence.
// An empty value is PresenceNone; any other unknown value is rejected with
// shared.ErrInvalidPresence.
func DecodePresence(raw string) (Presence, error) {
	switch raw {
	case wireNone:
		return PresenceNone, nil
	case wirePresent:
		return PresencePresent, nil
	case wireMissing:
		return PresenceMissing, nil
	case wireNotApplicable:
		return PresenceNotApplicable, nil
	case wireFailed:
		return PresenceFailed, nil
	default:
		return PresenceNone, fmt.Errorf("%w: %q", shared.ErrInvalidPresence, raw)
	}
}

// Wire returns the value the intranet expects for p.
func (p Presence) Wire() string {
	switch p {
	case PresencePresent:
		return wirePresent
	case PresenceMissing:
		return wireMissing
	case PresenceNotApplicable:
		return wireNotApplicable
	case PresenceFailed:
		return wireFailed
	default:
		return wireNone
	}
}

// IsDecided returns true once a status other than PresenceNone is set.
func (p Presence) IsDecided() bool {
	return p != PresenceNone
}

// String returns a human readable label.
func (p Presence) String() string {
	switch p {
	case PresencePresent:
		return "present"
	case PresenceMissing:
		return "absent"
	case PresenceNotApplicable:
		return "n/a"
	case PresenceFailed:
		return "failed"
	default:
		return "none"
	}
}

// ParsePresenceLabel parses an operator supplied label such as "present",
// "absent", "missing", "na", "n/a" or "none". Matching is case-insensitive.
func ParsePresenceLabel(label string) (Presence, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "none", "":
		return PresenceNone, nil
	case "present", "p":
		return PresencePresent, nil
	case "absent", "missing", "a":
		return PresenceMissing, nil
	case "na", "n/a", "excused":
		return PresenceNotApplicable, nil
	case "failed":
		return PresenceFailed, nil
	default:
		return PresenceNone, fmt.Errorf("unknown presence %q", label)
	}
}
