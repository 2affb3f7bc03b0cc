// Package logger builds the structured logger used across epitok.
// It wraps log/slog with level parsing, a per-run correlation id, secret
// redaction, and context propagation.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseLevel parses a level name. Unknown names yield slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures the logger.
type Options struct {
	Output    io.Writer
	Level     slog.Level
	Format    string // "json" or "text"
	AddSource bool
}

// DefaultOptions returns sensible defaults for a CLI: warnings and up, as
// text, on stderr so stdout stays for command output.
func DefaultOptions() Options {
	return Options{
		Output: os.Stderr,
		Level:  slog.LevelWarn,
		Format: "text",
	}
}

// New creates a logger. Every string attribute goes through Redact.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}
	return slog.New(handler)
}

// ══════════════════════════════════════════════════════════════════════════════
// REDACTION
// ══════════════════════════════════════════════════════════════════════════════

var autologinSegment = regexp.MustCompile(`/auth-[A-Za-z0-9]+`)

// Redact hides autologin secrets in s.
func Redact(s string) string {
	return autologinSegment.ReplaceAllString(s, "/auth-***")
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); strings.Contains(s, "/auth-") {
			a.Value = slog.StringValue(Redact(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(Redact(err.Error()))
		}
	}
	return a
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

// Context key for logger.
type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RunIDKey is the field key correlating all lines of one invocation.
const RunIDKey = "run_id"

// WithRunID returns a logger tagged with a fresh run id, and the id.
func WithRunID(l *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return l.With(RunIDKey, id), id
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELDS
// ══════════════════════════════════════════════════════════════════════════════

func Component(name string) slog.Attr   { return slog.String("component", name) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }
func EventCode(code string) slog.Attr   { return slog.String("event", code) }
func Login(login string) slog.Attr      { return slog.String("login", login) }

// CredentialFingerprint logs a credential digest, never the credential.
func CredentialFingerprint(fp string) slog.Attr { return slog.String("credential", fp) }

// Err creates an error field.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", Redact(err.Error()))
}
