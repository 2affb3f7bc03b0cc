package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RAW RECORD
// ══════════════════════════════════════════════════════════════════════════════

// EventRecord is a planning entry as read from the intranet, before
// validation. Empty strings mean the field was absent.
type EventRecord struct {
	// TokenEligible is the intranet's eligibility marker; nil when the
	// record does not carry one.
	TokenEligible *bool

	Year     string
	Module   string
	Instance string
	Activity string
	Event    string

	Title       string
	ModuleTitle string

	// Start and End are "YYYY-MM-DD HH:MM:SS".
	Start string
	End   string

	// ListedOn is the planning day the record was returned for. When zero,
	// the event's day is taken from Start.
	ListedOn time.Time
}

// Eligible reports whether the record can become an Event. Records without
// a marker are not token events.
func (r EventRecord) Eligible() bool {
	return r.TokenEligible != nil && *r.TokenEligible
}

// RosterFetcher loads the students registered to the event at code.
type RosterFetcher func(ctx context.Context, code Code) (*Roster, error)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT
// ══════════════════════════════════════════════════════════════════════════════

// Event is a scheduled activity session and the students registered to it.
// The event exclusively owns its roster.
type Event struct {
	code   Code
	title  string
	module string
	date   time.Time
	start  string
	end    string

	roster *Roster
}

// ParseEvent validates rec and, if it is a token event, fetches its roster.
//
// Checks run in this order and stop at the first failure: eligibility
// (ineligible records return ok=false and no error), the five code
// components, title, module, start time, end time, and finally the roster
// fetch. fetch is never called for a record that fails validation, and a
// failed fetch yields no Event. A nil fetch leaves the roster empty.
func ParseEvent(ctx context.Context, rec EventRecord, fetch RosterFetcher) (ev *Event, ok bool, err error) {
	if !rec.Eligible() {
		return nil, false, nil
	}

	code, err := NewCode(rec.Year, rec.Module, rec.Instance, rec.Activity, rec.Event)
	if err != nil {
		return nil, false, err
	}

	if strings.TrimSpace(rec.Title) == "" {
		return nil, false, shared.ErrTitle
	}
	if strings.TrimSpace(rec.ModuleTitle) == "" {
		return nil, false, shared.ErrModule
	}

	startAt, err := timeutil.ParseDateTime(rec.Start)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", shared.ErrTimeStart, err)
	}
	endAt, err := timeutil.ParseDateTime(rec.End)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", shared.ErrTimeEnd, err)
	}

	r := emptyRoster()
	if fetch != nil {
		r, err = fetch(ctx, code)
		if err != nil {
			return nil, false, err
		}
		if r == nil {
			r = emptyRoster()
		}
	}

	return &Event{
		code:   code,
		title:  rec.Title,
		module: rec.ModuleTitle,
		date:   calendarDay(rec.ListedOn, startAt),
		start:  startAt.Format(timeutil.ClockLayout),
		end:    endAt.Format(timeutil.ClockLayout),
		roster: r,
	}, true, nil
}

// calendarDay keeps the listed day when known, so an event running past
// midnight still belongs to the planning day it was listed under.
func calendarDay(listed, start time.Time) time.Time {
	day := start
	if !listed.IsZero() {
		day = listed
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Code returns the event identifier.
func (e *Event) Code() Code { return e.code }

// Title returns the activity title.
func (e *Event) Title() string { return e.title }

// Module returns the module label.
func (e *Event) Module() string { return e.module }

// Date returns the planning day the event was listed under.
func (e *Event) Date() time.Time { return e.date }

// Start returns the start time as "HH:MM".
func (e *Event) Start() string { return e.start }

// End returns the end time as "HH:MM".
func (e *Event) End() string { return e.end }

// PagePath returns the intranet page of the event's activity.
func (e *Event) PagePath() string { return e.code.PagePath() }

// Students returns a copy of the roster in intranet order.
func (e *Event) Students() []Student { return e.roster.Students() }

// Student returns a copy of the roster entry for login.
func (e *Event) Student(login string) (Student, bool) { return e.roster.Student(login) }

// Len returns the roster size.
func (e *Event) Len() int { return e.roster.Len() }

// WithRoster returns a copy of the event owning roster. Used to attach a
// roster fetched after listing.
func (e *Event) WithRoster(roster *Roster) *Event {
	if roster == nil {
		roster = emptyRoster()
	}
	cp := *e
	cp.roster = roster
	return &cp
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATORS
// Presence is a free assignment: any status may replace any other.
// ══════════════════════════════════════════════════════════════════════════════

// SetPresence sets the status of the student with login.
// Returns false if nobody with that login is registered.
func (e *Event) SetPresence(login string, p Presence) bool {
	s, ok := e.roster.find(login)
	if !ok {
		return false
	}
	s.setPresence(p)
	return true
}

// SetAll overwrites every student's status.
func (e *Event) SetAll(p Presence) {
	for _, s := range e.roster.students {
		s.setPresence(p)
	}
}

// SetRemaining sets p on students that have no status yet. Students already
// decided are untouched, so calling it again is a no-op.
func (e *Event) SetRemaining(p Presence) {
	for _, s := range e.roster.students {
		if !s.presence.IsDecided() {
			s.setPresence(p)
		}
	}
}

// Undecided returns the logins still at PresenceNone, in roster order.
func (e *Event) Undecided() []string {
	var logins []string
	for _, s := range e.roster.students {
		if !s.presence.IsDecided() {
			logins = append(logins, s.login)
		}
	}
	return logins
}

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// Summary counts students per status.
type Summary struct {
	Total  int
	Counts map[Presence]int
}

// Summary tallies the roster.
func (e *Event) Summary() Summary {
	sum := Summary{
		Total:  e.roster.Len(),
		Counts: make(map[Presence]int, len(AllPresences)),
	}
	for _, s := range e.roster.students {
		sum.Counts[s.presence]++
	}
	return sum
}

// String renders e.g. "12 students: 9 present, 2 absent, 1 none".
func (s Summary) String() string {
	out := fmt.Sprintf("%d students", s.Total)
	sep := ": "
	for _, p := range AllPresences {
		if n := s.Counts[p]; n > 0 {
			out += fmt.Sprintf("%s%d %s", sep, n, p)
			sep = ", "
		}
	}
	return out
}
