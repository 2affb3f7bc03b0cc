package command

import (
	"context"

	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE PRESENCES COMMAND
// Closes out an event: every undecided student becomes absent, then the whole
// roster is uploaded in one request.
// ══════════════════════════════════════════════════════════════════════════════

// PresenceUploader sends an encoded roster to the intranet.
type PresenceUploader interface {
	UploadPresences(ctx context.Context, id account.Identity, code attendance.Code, form attendance.Form) error
}

// SavePresencesCommand contains the event to save.
type SavePresencesCommand struct {
	// Identity is the signed-in account.
	Identity account.Identity

	// Event is the event to save. It is modified in place.
	Event *attendance.Event

	// DryRun encodes without uploading.
	DryRun bool
}

// SavePresencesResult is the save outcome.
type SavePresencesResult struct {
	// Form is the body that was (or would have been) sent.
	Form attendance.Form

	// Summary is the roster tally that was saved.
	Summary attendance.Summary

	// Uploaded is false for dry runs.
	Uploaded bool
}

// SavePresencesHandler handles presence uploads.
type SavePresencesHandler struct {
	uploader PresenceUploader
}

// NewSavePresencesHandler creates a new handler.
func NewSavePresencesHandler(uploader PresenceUploader) *SavePresencesHandler {
	return &SavePresencesHandler{uploader: uploader}
}

// Handle marks remaining students absent, encodes the roster and uploads it.
// Upload errors are returned unchanged.
func (h *SavePresencesHandler) Handle(ctx context.Context, cmd SavePresencesCommand) (*SavePresencesResult, error) {
	if cmd.Event == nil {
		return nil, shared.NewDomainError("command", "SavePresences", shared.ErrValidation, "no event selected")
	}
	ev := cmd.Event

	ev.SetRemaining(attendance.PresenceMissing)

	result := &SavePresencesResult{
		Form:    ev.Wire(),
		Summary: ev.Summary(),
	}

	if cmd.DryRun {
		return result, nil
	}

	log := logger.FromContext(ctx).With(
		logger.Component("save_presences"),
		logger.EventCode(ev.Code().String()),
	)

	if err := h.uploader.UploadPresences(ctx, cmd.Identity, ev.Code(), result.Form); err != nil {
		log.DebugContext(ctx, "save failed", logger.Err(err))
		return nil, err
	}
	result.Uploaded = true

	log.InfoContext(ctx, "event saved",
		"summary", result.Summary.String(),
	)
	return result, nil
}
