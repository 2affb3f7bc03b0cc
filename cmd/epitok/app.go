package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/term"

	"github.com/epitok/epitok/config"
	"github.com/epitok/epitok/internal/application/command"
	"github.com/epitok/epitok/internal/application/query"
	"github.com/epitok/epitok/internal/domain/account"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/internal/infrastructure/external/intra"
	"github.com/epitok/epitok/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds everything one command needs.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	autologinFile string

	registry *prometheus.Registry
	client   *intra.Client
	events   *query.ListEventsHandler
	marks    *command.MarkPresencesHandler
	saves    *command.SavePresencesHandler
	styles   styles
}

func newApp(cfg *config.Config, log *slog.Logger, autologinFile string, stdin io.Reader, stdout, stderr io.Writer) *app {
	registry := prometheus.NewRegistry()

	clientCfg := intra.DefaultClientConfig(cfg.Intra.BaseURL)
	clientCfg.Timeout = cfg.Intra.RequestTimeout
	clientCfg.UserAgent = cfg.Intra.UserAgent
	clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Intra.RateLimit
	clientCfg.RateLimiterConfig.BurstSize = cfg.Intra.RateLimitBurst
	clientCfg.Metrics = intra.NewMetrics(registry)
	clientCfg.Logger = log
	client := intra.NewClient(clientCfg)

	return &app{
		cfg:           cfg,
		log:           log,
		stdin:         stdin,
		stdout:        stdout,
		stderr:        stderr,
		autologinFile: autologinFile,
		registry:      registry,
		client:        client,
		events:        query.NewListEventsHandler(client, cfg.App.Location),
		marks:         command.NewMarkPresencesHandler(),
		saves:         command.NewSavePresencesHandler(client),
		styles:        newStyles(stdout),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SIGN IN
// ══════════════════════════════════════════════════════════════════════════════

var errNoAutologin = shared.NewDomainError("cli", "SignIn", shared.ErrMissingField,
	"no autologin link: use --autologin-file, set EPITOK_AUTOLOGIN, or run in a terminal")

func (a *app) signIn(ctx context.Context) (account.Identity, error) {
	raw, err := readAutologin(a.autologinFile, a.cfg.Intra.Autologin, a.stdin, a.stderr)
	if err != nil {
		return account.Identity{}, err
	}
	return a.client.ResolveIdentity(ctx, raw)
}

// readAutologin picks the credential source: file, then environment, then
// an echo-free terminal prompt.
func readAutologin(path, fromEnv string, stdin io.Reader, prompt io.Writer) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read autologin file: %w", err)
		}
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			return "", errNoAutologin
		}
		return raw, nil
	}

	if fromEnv != "" {
		return fromEnv, nil
	}

	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errNoAutologin
	}

	fmt.Fprint(prompt, "Autologin link: ")
	data, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read autologin: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", errNoAutologin
	}
	return raw, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// dumpMetrics logs the request metrics gathered during the run. It logs at
// info level whatever LOG_LEVEL says, since the dump was asked for.
func (a *app) dumpMetrics() {
	if !a.cfg.Observability.MetricsDump {
		return
	}
	log := logger.New(logger.Options{
		Output: a.stderr,
		Level:  slog.LevelInfo,
		Format: a.cfg.Observability.LogFormat,
	})
	writeMetrics(a.registry, log)
}

func writeMetrics(g prometheus.Gatherer, log *slog.Logger) {
	families, err := g.Gather()
	if err != nil {
		log.Warn("gather metrics", "error", err)
		return
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName(), "labels", labelString(m.GetLabel())}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				attrs = append(attrs, "count", h.GetSampleCount(), "sum", h.GetSampleSum())
			default:
				continue
			}
			log.Info("metric", attrs...)
		}
	}
}

func labelString(labels []*dto.LabelPair) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
