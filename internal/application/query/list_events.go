// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"strings"
	"time"

	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
	"github.com/epitok/epitok/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST EVENTS QUERY
// Lists the token events of one day, each with its registered students.
// ══════════════════════════════════════════════════════════════════════════════

// EventSource is the part of the intranet client the listing needs.
type EventSource interface {
	FetchPlanning(ctx context.Context, id account.Identity, day time.Time) ([]attendance.EventRecord, error)
	FetchRoster(ctx context.Context, id account.Identity, code attendance.Code) ([]attendance.StudentRecord, error)
}

// ListEventsQuery contains the listing parameters.
type ListEventsQuery struct {
	// Identity is the signed-in account.
	Identity account.Identity

	// Date is "YYYY-MM-DD". Empty means today in the handler's timezone.
	Date string

	// SkipRosters leaves every roster empty; LoadRoster fills it later.
	SkipRosters bool
}

// ListEventsResult is the listing outcome.
type ListEventsResult struct {
	// Day is the listed calendar day.
	Day time.Time

	// Events in the order the intranet returned them.
	Events []*attendance.Event

	// Skipped counts planning entries that carry no token.
	Skipped int
}

// ListEventsHandler handles event listing. It logs through the logger
// carried by the context.
type ListEventsHandler struct {
	source   EventSource
	location *time.Location
	now      func() time.Time
}

// NewListEventsHandler creates a new handler. location decides what
// "today" means and defaults to the school timezone.
func NewListEventsHandler(source EventSource, location *time.Location) *ListEventsHandler {
	if location == nil {
		location = timeutil.SchoolTZ
	}
	return &ListEventsHandler{
		source:   source,
		location: location,
		now:      time.Now,
	}
}

// Handle lists the token events of the requested day.
//
// The date is validated before any request. An empty planning is a normal
// outcome (weekends, holidays) and yields no events. Any other failure,
// including an invalid record or a failed roster fetch, aborts the listing.
func (h *ListEventsHandler) Handle(ctx context.Context, q ListEventsQuery) (*ListEventsResult, error) {
	day, err := h.resolveDay(q.Date)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With(
		logger.Component("list_events"),
		"date", timeutil.FormatDate(day),
	)

	records, err := h.source.FetchPlanning(ctx, q.Identity, day)
	if shared.IsEmpty(err) {
		log.DebugContext(ctx, "nothing scheduled")
		return &ListEventsResult{Day: day, Events: []*attendance.Event{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var fetch attendance.RosterFetcher
	if !q.SkipRosters {
		fetch = h.rosterFetcher(q.Identity)
	}

	result := &ListEventsResult{Day: day, Events: make([]*attendance.Event, 0, len(records))}
	for _, rec := range records {
		rec.ListedOn = day
		ev, ok, err := attendance.ParseEvent(ctx, rec, fetch)
		if shared.IsEventParse(err) {
			log.DebugContext(ctx, "invalid planning record", logger.EventCode(rec.Event), logger.Err(err))
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Skipped++
			continue
		}
		result.Events = append(result.Events, ev)
	}

	log.DebugContext(ctx, "events listed",
		"events", len(result.Events),
		"skipped", result.Skipped,
	)
	return result, nil
}

// LoadRoster fetches a roster for an event listed with SkipRosters.
// It returns a fresh Event; the original is left untouched.
func (h *ListEventsHandler) LoadRoster(ctx context.Context, id account.Identity, ev *attendance.Event) (*attendance.Event, error) {
	roster, err := h.rosterFetcher(id)(ctx, ev.Code())
	if err != nil {
		return nil, err
	}
	return ev.WithRoster(roster), nil
}

func (h *ListEventsHandler) resolveDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return timeutil.StartOfDay(h.now().In(h.location)), nil
	}
	day, err := timeutil.ParseDate(raw, h.location)
	if err != nil {
		return time.Time{}, shared.WrapError("query", "ListEvents", shared.ErrInvalidDay, shared.ErrInvalidDay.Message, err)
	}
	return day, nil
}

// rosterFetcher binds the source to an identity. An empty registration
// list is an empty roster, not a failure.
func (h *ListEventsHandler) rosterFetcher(id account.Identity) attendance.RosterFetcher {
	return func(ctx context.Context, code attendance.Code) (*attendance.Roster, error) {
		records, err := h.source.FetchRoster(ctx, id, code)
		if shared.IsEmpty(err) {
			records = nil
		} else if err != nil {
			return nil, err
		}
		return attendance.BuildRoster(records)
	}
}
