package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/epitok/epitok/internal/application/command"
	"github.com/epitok/epitok/internal/application/query"
	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/timeutil"
)

func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func usageError(format string, args ...any) error {
	return shared.NewDomainError("cli", "Parse", shared.ErrValidation, fmt.Sprintf(format, args...))
}

// ══════════════════════════════════════════════════════════════════════════════
// WHOAMI
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) whoami(ctx context.Context, args []string) error {
	fs := a.flagSet("whoami")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.signIn(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, id.Login())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	date := fs.String("date", "", "day to list as YYYY-MM-DD (default: today)")
	brief := fs.Bool("brief", false, "print counts only, not every student")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.signIn(ctx)
	if err != nil {
		return err
	}

	res, err := a.events.Handle(ctx, query.ListEventsQuery{Identity: id, Date: *date})
	if err != nil {
		return err
	}

	if len(res.Events) == 0 {
		fmt.Fprintf(a.stdout, "No token events on %s.\n", timeutil.FormatDate(res.Day))
		return nil
	}

	fmt.Fprintf(a.stdout, "Token events on %s:\n", timeutil.FormatDate(res.Day))
	for i, ev := range res.Events {
		renderEvent(a.stdout, a.styles, a.cfg.Intra.BaseURL, i+1, ev, !*brief)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MARK
// ══════════════════════════════════════════════════════════════════════════════

type markOptions struct {
	event     string
	date      string
	present   []string
	missing   []string
	na        []string
	none      []string
	all       string
	remaining string
	dryRun    bool
}

func (a *app) mark(ctx context.Context, args []string) error {
	var opts markOptions

	fs := a.flagSet("mark")
	fs.StringVar(&opts.event, "event", "", "event number shown by list, or its event code")
	fs.StringVar(&opts.date, "date", "", "day of the event as YYYY-MM-DD (default: today)")
	fs.StringSliceVar(&opts.present, "present", nil, "logins to mark present")
	fs.StringSliceVar(&opts.missing, "missing", nil, "logins to mark absent")
	fs.StringSliceVar(&opts.na, "na", nil, "logins to mark not applicable")
	fs.StringSliceVar(&opts.none, "none", nil, "logins to reset to no status")
	fs.StringVar(&opts.all, "all", "", "first set everyone to present|absent|na|none")
	fs.StringVar(&opts.remaining, "remaining", "", "finally set undecided students to present|absent|na")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the upload body instead of sending it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd, err := opts.command()
	if err != nil {
		return err
	}

	id, err := a.signIn(ctx)
	if err != nil {
		return err
	}

	listed, err := a.events.Handle(ctx, query.ListEventsQuery{Identity: id, Date: opts.date, SkipRosters: true})
	if err != nil {
		return err
	}
	ev, err := selectEvent(listed.Events, opts.event)
	if err != nil {
		return err
	}
	ev, err = a.events.LoadRoster(ctx, id, ev)
	if err != nil {
		return err
	}

	cmd.Event = ev
	marked, err := a.marks.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	for _, login := range marked.Unknown {
		fmt.Fprintln(a.stdout, a.styles.warning.Render("not registered: "+login))
	}

	saved, err := a.saves.Handle(ctx, command.SavePresencesCommand{Identity: id, Event: ev, DryRun: opts.dryRun})
	if err != nil {
		return err
	}

	if !saved.Uploaded {
		fmt.Fprintln(a.stdout, saved.Form.Encode())
		return nil
	}
	fmt.Fprintf(a.stdout, "Saved %s: %s\n", ev.Title(), saved.Summary)
	return nil
}

// command turns the flags into a mark batch, checking labels before any
// request is made.
func (o markOptions) command() (command.MarkPresencesCommand, error) {
	var cmd command.MarkPresencesCommand

	if strings.TrimSpace(o.event) == "" {
		return cmd, usageError("--event is required")
	}

	if o.all != "" {
		p, err := attendance.ParsePresenceLabel(o.all)
		if err != nil {
			return cmd, usageError("--all: %v", shared.Message(err))
		}
		cmd.All = &p
	}

	groups := []struct {
		logins   []string
		presence attendance.Presence
	}{
		{o.present, attendance.PresencePresent},
		{o.missing, attendance.PresenceMissing},
		{o.na, attendance.PresenceNotApplicable},
		{o.none, attendance.PresenceNone},
	}
	for _, g := range groups {
		for _, login := range g.logins {
			if login = strings.TrimSpace(login); login != "" {
				cmd.Marks = append(cmd.Marks, command.Mark{Login: login, Presence: g.presence})
			}
		}
	}

	if o.remaining != "" {
		p, err := attendance.ParsePresenceLabel(o.remaining)
		if err != nil {
			return cmd, usageError("--remaining: %v", shared.Message(err))
		}
		if !p.IsDecided() {
			return cmd, usageError("--remaining needs present, absent or na")
		}
		cmd.Remaining = &p
	}

	return cmd, nil
}

// selectEvent finds an event by its 1-based list number, its event code,
// or its full code path.
func selectEvent(events []*attendance.Event, sel string) (*attendance.Event, error) {
	sel = strings.TrimSpace(sel)

	if n, err := strconv.Atoi(sel); err == nil {
		if n < 1 || n > len(events) {
			return nil, shared.NewDomainError("cli", "SelectEvent", shared.ErrNotFound,
				fmt.Sprintf("event %d does not exist, there are %d token events", n, len(events)))
		}
		return events[n-1], nil
	}

	path := "/" + strings.Trim(sel, "/")
	for _, ev := range events {
		if ev.Code().Event == sel || ev.Code().Path() == path {
			return ev, nil
		}
	}
	return nil, shared.NewDomainError("cli", "SelectEvent", shared.ErrNotFound,
		fmt.Sprintf("no token event matches %q", sel))
}
