package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
)

const token = "abcdef0123456789abcdef0123456789abcdef01"

const planningJSON = `[
	{"scolaryear":"2024","codemodule":"B-CPE-100","codeinstance":"PAR-1-1","codeacti":"acti-1","codeevent":"event-1",
	 "acti_title":"Workshop","titlemodule":"C Pool","start":"2024-10-15 09:00:00","end":"2024-10-15 12:00:00","is_rdv":"0"},
	{"scolaryear":"2024","codemodule":"B-CPE-100","codeinstance":"PAR-1-1","codeacti":"acti-2","codeevent":"event-2",
	 "acti_title":"Follow-up","titlemodule":"C Pool","start":"2024-10-15 14:00:00","end":"2024-10-15 14:20:00","is_rdv":"1"}
]`

const rosterJSON = `[
	{"login":"a@x","title":"Alice","present":"present"},
	{"login":"b@x","title":"Bob","present":null},
	{"login":"c@x","title":"Carol","present":"absent"}
]`

// intranet is a fake intranet recording uploads.
type intranet struct {
	server *httptest.Server

	mu      sync.Mutex
	uploads []url.Values
	planned string
}

func newIntranet(t *testing.T) *intranet {
	t.Helper()
	in := &intranet{planned: planningJSON}
	prefix := "/auth-" + token
	event := "/module/2024/B-CPE-100/PAR-1-1/acti-1/event-1"

	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"login":"teacher@epitech.eu"}`)
	})
	mux.HandleFunc(prefix+"/planning/load", func(w http.ResponseWriter, r *http.Request) {
		in.mu.Lock()
		defer in.mu.Unlock()
		_, _ = io.WriteString(w, in.planned)
	})
	mux.HandleFunc(prefix+event+"/registered", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, rosterJSON)
	})
	mux.HandleFunc(prefix+event+"/updateregistered", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.mu.Lock()
		in.uploads = append(in.uploads, r.PostForm)
		in.mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	})

	in.server = httptest.NewServer(mux)
	t.Cleanup(in.server.Close)

	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("EPITOK_INTRA_URL", in.server.URL)
	t.Setenv("EPITOK_AUTOLOGIN", in.server.URL+prefix)
	t.Setenv("EPITOK_RATE_LIMIT", "0")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_DUMP", "false")
	return in
}

func (in *intranet) setPlanning(body string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.planned = body
}

func (in *intranet) recorded() []url.Values {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]url.Values(nil), in.uploads...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	err := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Whoami(t *testing.T) {
	newIntranet(t)

	out, _, err := runCLI(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "teacher@epitech.eu\n", out)
}

func TestRun_WhoamiBadCredential(t *testing.T) {
	newIntranet(t)
	t.Setenv("EPITOK_AUTOLOGIN", "https://elsewhere.example/auth-"+token)

	_, _, err := runCLI(t, "whoami")
	assert.ErrorIs(t, err, shared.ErrBadCredentialFormat)
}

func TestRun_NoCredential(t *testing.T) {
	newIntranet(t)
	t.Setenv("EPITOK_AUTOLOGIN", "")

	_, _, err := runCLI(t, "whoami")
	assert.ErrorIs(t, err, shared.ErrMissingField)
}

func TestRun_AutologinFile(t *testing.T) {
	in := newIntranet(t)
	t.Setenv("EPITOK_AUTOLOGIN", "")

	path := filepath.Join(t.TempDir(), "autologin")
	require.NoError(t, os.WriteFile(path, []byte(in.server.URL+"/auth-"+token+"\n"), 0o600))

	out, _, err := runCLI(t, "--autologin-file", path, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "teacher@epitech.eu\n", out)
}

func TestRun_List(t *testing.T) {
	newIntranet(t)

	out, _, err := runCLI(t, "list", "--date", "2024-10-15")
	require.NoError(t, err)

	assert.Contains(t, out, "Token events on 2024-10-15")
	assert.Contains(t, out, "C Pool - Workshop")
	assert.Contains(t, out, "09:00-12:00")
	assert.Contains(t, out, "/module/2024/B-CPE-100/PAR-1-1/acti-1")
	assert.Contains(t, out, "3 students")
	assert.Contains(t, out, "b@x")
	assert.NotContains(t, out, "Follow-up")
	assert.NotContains(t, out, token)
}

func TestRun_ListEmptyDay(t *testing.T) {
	in := newIntranet(t)
	in.setPlanning(`{}`)

	out, _, err := runCLI(t, "list", "--date", "2024-10-19")
	require.NoError(t, err)
	assert.Equal(t, "No token events on 2024-10-19.\n", out)
}

func TestRun_ListBadDate(t *testing.T) {
	newIntranet(t)

	_, _, err := runCLI(t, "list", "--date", "19/10/2024")
	assert.ErrorIs(t, err, shared.ErrInvalidDay)
}

func TestRun_Mark(t *testing.T) {
	in := newIntranet(t)

	out, _, err := runCLI(t, "mark", "--date", "2024-10-15", "--event", "1",
		"--present", "b@x,nobody@x", "--missing", "a@x")
	require.NoError(t, err)

	assert.Contains(t, out, "not registered: nobody@x")
	assert.Contains(t, out, "Saved Workshop")

	uploads := in.recorded()
	require.Len(t, uploads, 1)
	form := uploads[0]
	assert.Equal(t, "a@x", form.Get("items[0][login]"))
	assert.Equal(t, "absent", form.Get("items[0][present]"))
	assert.Equal(t, "b@x", form.Get("items[1][login]"))
	assert.Equal(t, "present", form.Get("items[1][present]"))
	assert.Equal(t, "c@x", form.Get("items[2][login]"))
	assert.Equal(t, "absent", form.Get("items[2][present]"))
	assert.Len(t, form, 6)
}

func TestRun_MarkDryRun(t *testing.T) {
	in := newIntranet(t)

	out, _, err := runCLI(t, "mark", "--date", "2024-10-15", "--event", "event-1", "--all", "na", "--dry-run")
	require.NoError(t, err)

	assert.Empty(t, in.recorded())
	assert.Contains(t, out, "items%5B0%5D%5Blogin%5D=a%40x&items%5B0%5D%5Bpresent%5D=N%2FA")
}

func TestRun_MarkErrors(t *testing.T) {
	newIntranet(t)

	_, _, err := runCLI(t, "mark", "--date", "2024-10-15")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, _, err = runCLI(t, "mark", "--date", "2024-10-15", "--event", "1", "--remaining", "none")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, _, err = runCLI(t, "mark", "--date", "2024-10-15", "--event", "1", "--all", "sometimes")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, _, err = runCLI(t, "mark", "--date", "2024-10-15", "--event", "2")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRun_UnknownCommand(t *testing.T) {
	newIntranet(t)

	_, stderr, err := runCLI(t, "dance")
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, stderr, "Usage: epitok")
}

func TestMarkOptions_Order(t *testing.T) {
	cmd, err := markOptions{
		event:     "1",
		present:   []string{"a@x", " "},
		missing:   []string{"b@x"},
		na:        []string{"c@x"},
		none:      []string{"d@x"},
		all:       "present",
		remaining: "absent",
	}.command()
	require.NoError(t, err)

	require.NotNil(t, cmd.All)
	assert.Equal(t, attendance.PresencePresent, *cmd.All)
	require.NotNil(t, cmd.Remaining)
	assert.Equal(t, attendance.PresenceMissing, *cmd.Remaining)

	var logins []string
	for _, m := range cmd.Marks {
		logins = append(logins, m.Login)
	}
	assert.Equal(t, []string{"a@x", "b@x", "c@x", "d@x"}, logins)
	assert.Equal(t, attendance.PresenceNone, cmd.Marks[3].Presence)
}

func TestWriteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_total", Help: "h"}, []string{"endpoint"})
	reg.MustRegister(counter)
	counter.WithLabelValues("user").Add(2)

	var buf bytes.Buffer
	writeMetrics(reg, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.Contains(t, buf.String(), "name=test_total")
	assert.Contains(t, buf.String(), "endpoint=user")
	assert.Contains(t, buf.String(), "value=2")
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, fmt.Errorf("fetch planning: %w", shared.ErrIntraAccessDenied))
	assert.Equal(t, "error: you do not have permission to access this resource\n", strings.SplitAfter(buf.String(), "\n")[0])
	assert.Contains(t, buf.String(), "hint: the autologin link may have been revoked")

	buf.Reset()
	reportError(&buf, shared.ErrIntraNetwork)
	assert.Equal(t, "error: no internet access\n", buf.String())

	buf.Reset()
	reportError(&buf, errors.New(`Get "https://intra.epitech.eu/auth-`+token+`/user": timeout`))
	assert.NotContains(t, buf.String(), token)
}
