package attendance

import (
	"fmt"
	"strings"

	"github.com/epitok/epitok/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student is one entry of an event roster. Students only exist inside the
// Event that fetched them; accessors hand out copies.
type Student struct {
	login    string
	name     string
	presence Presence
}

// Login returns the student's school email.
func (s Student) Login() string { return s.login }

// Name returns the display name.
func (s Student) Name() string { return s.name }

// Presence returns the current status.
func (s Student) Presence() Presence { return s.presence }

// setPresence replaces the status unconditionally.
func (s *Student) setPresence(p Presence) {
	s.presence = p
}

// StudentRecord is a roster entry as read from the intranet, before
// validation. Empty strings mean the field was absent; a nil Present means
// the "present" field was absent or null.
type StudentRecord struct {
	Login   string
	Name    string
	Present *string
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

// Roster is the ordered list of students registered to one event, indexed by
// login. Insertion order is the intranet's order and is the upload order.
type Roster struct {
	students []*Student
	byLogin  map[string]int
}

// BuildRoster validates records and builds a roster in the given order.
// It fails on the first record missing a login or a name, carrying an
// unknown presence code, or repeating a login.
func BuildRoster(records []StudentRecord) (*Roster, error) {
	r := &Roster{
		students: make([]*Student, 0, len(records)),
		byLogin:  make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if strings.TrimSpace(rec.Login) == "" {
			return nil, fmt.Errorf("roster entry %d: %w", i, shared.ErrStudentLogin)
		}
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("roster entry %d (%s): %w", i, rec.Login, shared.ErrStudentName)
		}

		presence := PresenceNone
		if rec.Present != nil {
			p, err := DecodePresence(*rec.Present)
			if err != nil {
				return nil, fmt.Errorf("roster entry %d (%s): %w", i, rec.Login, err)
			}
			presence = p
		}

		if _, dup := r.byLogin[rec.Login]; dup {
			return nil, fmt.Errorf("roster entry %d (%s): %w", i, rec.Login, shared.ErrDuplicateStudent)
		}

		r.byLogin[rec.Login] = len(r.students)
		r.students = append(r.students, &Student{
			login:    rec.Login,
			name:     rec.Name,
			presence: presence,
		})
	}

	return r, nil
}

func emptyRoster() *Roster {
	return &Roster{byLogin: map[string]int{}}
}

// Len returns the number of registered students.
func (r *Roster) Len() int {
	return len(r.students)
}

// Student returns a copy of the entry for login.
func (r *Roster) Student(login string) (Student, bool) {
	s, ok := r.find(login)
	if !ok {
		return Student{}, false
	}
	return *s, true
}

// Students returns a copy of the entries in roster order.
func (r *Roster) Students() []Student {
	return r.snapshot()
}

func (r *Roster) find(login string) (*Student, bool) {
	i, ok := r.byLogin[login]
	if !ok {
		return nil, false
	}
	return r.students[i], true
}

// snapshot copies the students out so callers cannot alias roster entries.
func (r *Roster) snapshot() []Student {
	out := make([]Student, len(r.students))
	for i, s := range r.students {
		out[i] = *s
	}
	return out
}
