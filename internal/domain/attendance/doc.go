// Package attendance contains the token replacement model: an intranet
// event, the students registered to it and their presence status.
//
// The package owns three concerns:
//
//   - Presence: the five statuses and their intranet wire values.
//   - Event: validation of a raw planning record, the roster it owns and
//     the bulk mutators used by staff (SetPresence, SetAll, SetRemaining).
//   - Wire: the bracketed-index form the intranet's bulk update endpoint
//     accepts. This is the only place upload keys are built.
//
// A typical session:
//
//	ev, ok, err := attendance.ParseEvent(ctx, record, fetchRoster)
//	if err != nil || !ok {
//	    ...
//	}
//	ev.SetPresence("jane.doe@epitech.eu", attendance.PresencePresent)
//	ev.SetRemaining(attendance.PresenceMissing)
//	form := ev.Wire()
//
// Nothing here performs I/O; rosters arrive through a RosterFetcher.
package attendance
