package intra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

// ResolveIdentity checks the autologin link format and exchanges it for the
// account's login. Errors are one of shared.ErrBadCredentialFormat,
// ErrIntraNetwork, ErrIntraAccessDenied, ErrIntraUnavailable,
// ErrIntraMalformedResponse or ErrNoLoginField.
func (c *Client) ResolveIdentity(ctx context.Context, raw string) (account.Identity, error) {
	credential, err := account.ParseCredential(raw, c.credentialPattern)
	if err != nil {
		return account.Identity{}, err
	}

	obj, err := c.GetObject(ctx, UserURL(credential))
	if err != nil {
		if errors.Is(err, shared.ErrIntraNotFound) {
			// The profile endpoint always exists; a 404 means the intranet is off.
			return account.Identity{}, fmt.Errorf("%w: %w", shared.ErrIntraUnavailable, err)
		}
		return account.Identity{}, err
	}

	var user UserDTO
	if err := json.Unmarshal(obj, &user); err != nil {
		return account.Identity{}, fmt.Errorf("%w: %w", shared.ErrIntraMalformedResponse, err)
	}

	identity, err := account.NewIdentity(credential, user.Login.Value)
	if err != nil {
		return account.Identity{}, err
	}

	c.logger.InfoContext(ctx, "signed in",
		logger.Login(identity.Login()),
		logger.CredentialFingerprint(credential.Fingerprint()),
	)
	return identity, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PLANNING & ROSTERS
// ══════════════════════════════════════════════════════════════════════════════

// FetchPlanning returns the raw planning records of one day in intranet
// order. A day without activities yields shared.ErrIntraEmpty.
func (c *Client) FetchPlanning(ctx context.Context, id account.Identity, day time.Time) ([]attendance.EventRecord, error) {
	raw, err := c.GetArray(ctx, PlanningURL(id.Credential(), day))
	if err != nil {
		return nil, fmt.Errorf("fetch planning: %w", err)
	}
	return c.mapper.EventRecordsFromJSON(raw)
}

// FetchRoster returns the raw roster records of an event in intranet order.
// An event without registrations yields shared.ErrIntraEmpty.
func (c *Client) FetchRoster(ctx context.Context, id account.Identity, code attendance.Code) ([]attendance.StudentRecord, error) {
	raw, err := c.GetArray(ctx, RegisteredURL(id.Credential(), code))
	if err != nil {
		return nil, fmt.Errorf("fetch roster %s: %w", code, err)
	}
	return c.mapper.StudentRecordsFromJSON(raw)
}

// UploadPresences posts an encoded roster to the event's bulk update endpoint.
func (c *Client) UploadPresences(ctx context.Context, id account.Identity, code attendance.Code, form attendance.Form) error {
	if err := c.PostForm(ctx, UpdateRegisteredURL(id.Credential(), code), form); err != nil {
		return fmt.Errorf("upload presences %s: %w", code, err)
	}
	c.logger.InfoContext(ctx, "presences uploaded",
		logger.EventCode(code.String()),
		"students", len(form)/2,
	)
	return nil
}
