package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epitok/epitok/internal/domain/shared"
)

func ptr[T any](v T) *T { return &v }

func validRecord() EventRecord {
	return EventRecord{
		TokenEligible: ptr(true),
		Year:          "2020",
		Module:        "B-INN-000",
		Instance:      "PAR-0-1",
		Activity:      "acti-123456",
		Event:         "event-654321",
		Title:         "Hub Talk",
		ModuleTitle:   "Innovation",
		Start:         "2020-07-01 09:00:00",
		End:           "2020-07-01 18:30:00",
	}
}

// rosterOf builds a fetcher returning the given login/presence pairs.
func rosterOf(t *testing.T, entries ...[2]string) (RosterFetcher, *int) {
	t.Helper()
	calls := 0
	return func(_ context.Context, _ Code) (*Roster, error) {
		calls++
		records := make([]StudentRecord, 0, len(entries))
		for _, e := range entries {
			rec := StudentRecord{Login: e[0], Name: "Student " + e[0]}
			if e[1] != "" {
				rec.Present = ptr(e[1])
			}
			records = append(records, rec)
		}
		return BuildRoster(records)
	}, &calls
}

func mustEvent(t *testing.T, entries ...[2]string) *Event {
	t.Helper()
	fetch, _ := rosterOf(t, entries...)
	ev, ok, err := ParseEvent(context.Background(), validRecord(), fetch)
	require.NoError(t, err)
	require.True(t, ok)
	return ev
}

func TestParseEvent_Valid(t *testing.T) {
	fetch, calls := rosterOf(t, [2]string{"a@x", "present"}, [2]string{"b@x", ""})

	ev, ok, err := ParseEvent(context.Background(), validRecord(), fetch)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, "/module/2020/B-INN-000/PAR-0-1/acti-123456/event-654321", ev.Code().Path())
	assert.Equal(t, "/module/2020/B-INN-000/PAR-0-1/acti-123456", ev.PagePath())
	assert.Equal(t, "Hub Talk", ev.Title())
	assert.Equal(t, "Innovation", ev.Module())
	assert.Equal(t, "09:00", ev.Start())
	assert.Equal(t, "18:30", ev.End())
	assert.Equal(t, "2020-07-01", ev.Date().Format("2006-01-02"))

	students := ev.Students()
	require.Len(t, students, 2)
	assert.Equal(t, "a@x", students[0].Login())
	assert.Equal(t, PresencePresent, students[0].Presence())
	assert.Equal(t, "b@x", students[1].Login())
	assert.Equal(t, PresenceNone, students[1].Presence())
}

func TestParseEvent_SkipsIneligible(t *testing.T) {
	for name, marker := range map[string]*bool{"false": ptr(false), "absent": nil} {
		t.Run(name, func(t *testing.T) {
			rec := validRecord()
			rec.TokenEligible = marker
			fetch, calls := rosterOf(t)

			ev, ok, err := ParseEvent(context.Background(), rec, fetch)
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, ev)
			assert.Zero(t, *calls)
		})
	}
}

func TestParseEvent_MissingFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EventRecord)
		want   error
	}{
		{"year", func(r *EventRecord) { r.Year = "" }, shared.ErrEventURL},
		{"module code", func(r *EventRecord) { r.Module = "" }, shared.ErrEventURL},
		{"instance", func(r *EventRecord) { r.Instance = "" }, shared.ErrEventURL},
		{"activity", func(r *EventRecord) { r.Activity = "" }, shared.ErrEventURL},
		{"event code", func(r *EventRecord) { r.Event = "" }, shared.ErrEventURL},
		{"title", func(r *EventRecord) { r.Title = "" }, shared.ErrTitle},
		{"blank title", func(r *EventRecord) { r.Title = "   " }, shared.ErrTitle},
		{"module title", func(r *EventRecord) { r.ModuleTitle = "" }, shared.ErrModule},
		{"blank module title", func(r *EventRecord) { r.ModuleTitle = "\t" }, shared.ErrModule},
		{"start missing", func(r *EventRecord) { r.Start = "" }, shared.ErrTimeStart},
		{"start garbage", func(r *EventRecord) { r.Start = "tomorrow" }, shared.ErrTimeStart},
		{"end missing", func(r *EventRecord) { r.End = "" }, shared.ErrTimeEnd},
		{"end garbage", func(r *EventRecord) { r.End = "2020-07-01" }, shared.ErrTimeEnd},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mutate(&rec)
			fetch, calls := rosterOf(t, [2]string{"a@x", ""})

			ev, ok, err := ParseEvent(context.Background(), rec, fetch)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, ok)
			assert.Nil(t, ev)
			assert.Zero(t, *calls, "roster must not be fetched for an invalid record")
		})
	}
}

func TestParseEvent_ListedDay(t *testing.T) {
	rec := validRecord()
	rec.Start = "2020-07-01 23:00:00"
	rec.End = "2020-07-02 01:00:00"

	ev, ok, err := ParseEvent(context.Background(), rec, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2020-07-01", ev.Date().Format("2006-01-02"))

	rec.Start = "2020-07-02 00:30:00"
	rec.ListedOn = time.Date(2020, 7, 1, 0, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	ev, ok, err = ParseEvent(context.Background(), rec, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2020-07-01", ev.Date().Format("2006-01-02"))
	assert.Equal(t, "00:30", ev.Start())
}

func TestParseEvent_ValidationOrder(t *testing.T) {
	rec := validRecord()
	rec.Title = ""
	rec.End = ""

	_, _, err := ParseEvent(context.Background(), rec, nil)
	assert.ErrorIs(t, err, shared.ErrTitle)
}

func TestParseEvent_RosterFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(context.Context, Code) (*Roster, error) { return nil, boom }

	ev, ok, err := ParseEvent(context.Background(), validRecord(), fetch)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Nil(t, ev)
}

func TestParseEvent_NilFetchLeavesRosterEmpty(t *testing.T) {
	ev, ok, err := ParseEvent(context.Background(), validRecord(), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, ev.Len())
	assert.Empty(t, ev.Wire())
}

func TestEvent_SetPresence(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", ""}, [2]string{"b@x", "absent"})

	assert.True(t, ev.SetPresence("a@x", PresencePresent))
	assert.True(t, ev.SetPresence("b@x", PresenceNone))
	assert.False(t, ev.SetPresence("ghost@x", PresencePresent))

	a, ok := ev.Student("a@x")
	require.True(t, ok)
	assert.Equal(t, PresencePresent, a.Presence())

	b, _ := ev.Student("b@x")
	assert.Equal(t, PresenceNone, b.Presence())

	// idempotent
	assert.True(t, ev.SetPresence("a@x", PresencePresent))
	a, _ = ev.Student("a@x")
	assert.Equal(t, PresencePresent, a.Presence())
}

func TestEvent_StudentsAreCopies(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", ""})

	students := ev.Students()
	students[0].presence = PresencePresent

	a, _ := ev.Student("a@x")
	assert.Equal(t, PresenceNone, a.Presence())
}

func TestEvent_SetAll(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", "present"}, [2]string{"b@x", ""}, [2]string{"c@x", "failed"})

	ev.SetAll(PresenceNotApplicable)
	for _, s := range ev.Students() {
		assert.Equal(t, PresenceNotApplicable, s.Presence())
	}
}

func TestEvent_SetRemainingIsIdempotent(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", "present"}, [2]string{"b@x", ""}, [2]string{"c@x", "absent"})

	ev.SetRemaining(PresenceMissing)
	once := ev.Students()
	ev.SetRemaining(PresenceMissing)
	assert.Equal(t, once, ev.Students())

	assert.Equal(t, PresencePresent, once[0].Presence())
	assert.Equal(t, PresenceMissing, once[1].Presence())
	assert.Empty(t, ev.Undecided())
}

func TestEvent_SetAllThenRemaining(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", ""}, [2]string{"b@x", "absent"})

	ev.SetAll(PresencePresent)
	ev.SetRemaining(PresenceMissing)
	for _, s := range ev.Students() {
		assert.Equal(t, PresencePresent, s.Presence())
	}
}

func TestEvent_Summary(t *testing.T) {
	ev := mustEvent(t, [2]string{"a@x", "present"}, [2]string{"b@x", ""}, [2]string{"c@x", "present"})

	sum := ev.Summary()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Counts[PresencePresent])
	assert.Equal(t, 1, sum.Counts[PresenceNone])
	assert.Equal(t, "3 students: 1 none, 2 present", sum.String())
	assert.Equal(t, []string{"b@x"}, ev.Undecided())
}
