// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK PRESENCES COMMAND
// Applies a batch of local presence changes to one event. Nothing is sent
// to the intranet; SavePresences does that.
// ══════════════════════════════════════════════════════════════════════════════

// Mark sets one student's status.
type Mark struct {
	Login    string
	Presence attendance.Presence
}

// MarkPresencesCommand contains the changes to apply.
// Changes run in field order: All, then Marks in slice order, then Remaining.
// nil values mean "don't change".
type MarkPresencesCommand struct {
	// Event is the event to modify.
	Event *attendance.Event

	// All overwrites every student first.
	All *attendance.Presence

	// Marks are per-student changes.
	Marks []Mark

	// Remaining fills students still undecided after the marks.
	Remaining *attendance.Presence
}

// Validate checks the command.
func (c *MarkPresencesCommand) Validate() error {
	if c.Event == nil {
		return shared.NewDomainError("command", "MarkPresences", shared.ErrValidation, "no event selected")
	}
	if c.Remaining != nil && !c.Remaining.IsDecided() {
		return shared.NewDomainError("command", "MarkPresences", shared.ErrValidation, "remaining students need a decided status")
	}
	return nil
}

// MarkPresencesResult reports what changed.
type MarkPresencesResult struct {
	// Applied counts marks that matched a registered student.
	Applied int

	// Unknown lists logins not registered to the event, in input order.
	Unknown []string

	// Summary is the roster tally after the changes.
	Summary attendance.Summary
}

// MarkPresencesHandler applies presence batches. It logs through the
// logger carried by the context.
type MarkPresencesHandler struct{}

// NewMarkPresencesHandler creates a new handler.
func NewMarkPresencesHandler() *MarkPresencesHandler {
	return &MarkPresencesHandler{}
}

// Handle applies cmd to its event. An unknown login is reported in the
// result and does not stop the batch.
func (h *MarkPresencesHandler) Handle(ctx context.Context, cmd MarkPresencesCommand) (*MarkPresencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	ev := cmd.Event

	if cmd.All != nil {
		ev.SetAll(*cmd.All)
	}

	result := &MarkPresencesResult{}
	for _, m := range cmd.Marks {
		if ev.SetPresence(m.Login, m.Presence) {
			result.Applied++
			continue
		}
		result.Unknown = append(result.Unknown, m.Login)
	}

	if cmd.Remaining != nil {
		ev.SetRemaining(*cmd.Remaining)
	}

	result.Summary = ev.Summary()

	logger.FromContext(ctx).DebugContext(ctx, "presences marked",
		logger.Component("mark_presences"),
		logger.EventCode(ev.Code().String()),
		"applied", result.Applied,
		"unknown", len(result.Unknown),
	)
	return result, nil
}
