// Package account models who is talking to the intranet: the autologin
// credential and the identity it resolves to.
package account

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/epitok/epitok/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDENTIAL
// ══════════════════════════════════════════════════════════════════════════════

// Credential is an autologin link. It is a bearer secret: anyone holding it
// acts as the account, so it must never be logged verbatim.
type Credential string

// CredentialPattern builds the format check for autologin links issued by
// the intranet at baseURL, e.g. "https://intra.epitech.eu/auth-<40 hex>".
func CredentialPattern(baseURL string) *regexp.Regexp {
	base := strings.TrimRight(baseURL, "/")
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `/auth-[a-z0-9]{40}$`)
}

// ParseCredential trims raw and checks it against pattern.
func ParseCredential(raw string, pattern *regexp.Regexp) (Credential, error) {
	raw = strings.TrimSpace(raw)
	if pattern == nil || !pattern.MatchString(raw) {
		return "", shared.ErrBadCredentialFormat
	}
	return Credential(raw), nil
}

// URL appends an intranet path to the autologin link.
func (c Credential) URL(path string) string {
	return string(c) + path
}

// Fingerprint returns a short stable digest safe to put in logs.
func (c Credential) Fingerprint() string {
	sum := blake2b.Sum256([]byte(c))
	return hex.EncodeToString(sum[:6])
}

// String hides the secret part of the link.
func (c Credential) String() string {
	s := string(c)
	if i := strings.LastIndex(s, "/auth-"); i >= 0 {
		return s[:i] + "/auth-***"
	}
	return "***"
}

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Identity is a signed-in intranet account.
type Identity struct {
	credential Credential
	login      string
}

// NewIdentity creates an identity from a validated credential and the login
// reported by the intranet profile.
func NewIdentity(credential Credential, login string) (Identity, error) {
	if strings.TrimSpace(login) == "" {
		return Identity{}, shared.ErrNoLoginField
	}
	return Identity{credential: credential, login: login}, nil
}

// Credential returns the autologin link.
func (i Identity) Credential() Credential { return i.credential }

// Login returns the account's school email.
func (i Identity) Login() string { return i.login }
