// Package main is the epitok command line. It signs in with an intranet
// autologin link, lists the day's token events and uploads presences.
//
// Usage:
//
//	epitok [--autologin-file FILE] [--env-file FILE] <command> [flags]
//
// Commands:
//
//	whoami   print the signed-in login
//	list     list token events and their rosters
//	mark     change presences of one event and save them
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/epitok/epitok/config"
	"github.com/epitok/epitok/internal/domain/shared"
	"github.com/epitok/epitok/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err for the operator, with a hint when the intranet
// refused the autologin link.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", logger.Redact(shared.Message(err)))
	if shared.IsAccessDenied(err) {
		fmt.Fprintln(w, "hint: the autologin link may have been revoked, or this account cannot manage the event; generate a new link from the intranet administration page")
	}
}

// globalOptions are accepted before the command name.
type globalOptions struct {
	autologinFile string
	envFiles      []string
	logLevel      string
}

// run parses args, wires the application and executes one command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts globalOptions

	flagSet := pflag.NewFlagSet("epitok", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.autologinFile, "autologin-file", "", "read the autologin link from this file")
	flagSet.StringSliceVar(&opts.envFiles, "env-file", nil, "load settings from these .env files (default: .env)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return shared.NewDomainError("cli", "Run", shared.ErrValidation, "no command given")
	}

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return err
	}

	level := cfg.Observability.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logger.New(logger.Options{
		Output: stderr,
		Level:  logger.ParseLevel(level),
		Format: cfg.Observability.LogFormat,
	})
	log, _ = logger.WithRunID(log)
	ctx = logger.WithContext(ctx, log)

	a := newApp(cfg, log, opts.autologinFile, stdin, stdout, stderr)
	defer a.dumpMetrics()

	name, cmdArgs := rest[0], rest[1:]
	switch name {
	case "whoami":
		return a.whoami(ctx, cmdArgs)
	case "list":
		return a.list(ctx, cmdArgs)
	case "mark":
		return a.mark(ctx, cmdArgs)
	case "help":
		printUsage(stdout, flagSet)
		return nil
	default:
		printUsage(stderr, flagSet)
		return shared.NewDomainError("cli", "Run", shared.ErrValidation, fmt.Sprintf("unknown command %q", name))
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: epitok [flags] <command> [command flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  whoami   print the signed-in login")
	fmt.Fprintln(w, "  list     list token events and their rosters")
	fmt.Fprintln(w, "  mark     change presences of one event and save them")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, flagSet.FlagUsages())
}
