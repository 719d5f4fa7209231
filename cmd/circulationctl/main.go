// Command circulationctl is the operator front end of the circulation service.
//
// It keeps a local copy of the catalog and the active loans, checks every action against that
// copy, and forwards accepted actions to circulationd. Run a single command, or "shell" for an
// interactive session that survives failed actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/config"
	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "circulationctl: %v\n", err)
		return exitError
	}

	opts, err := parseFlags(args, cfg.Client, stderr)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return exitOK
		}
		return exitUsage
	}

	a, err := newApp(opts, stdout, stderr, time.Now)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "circulationctl: %v\n", err)
		return exitUsage
	}

	if opts.command[0] == cmdShell {
		a.shell(ctx, stdin, stdout)
		return exitOK
	}

	if n := a.execute(ctx, opts.command); n.Level == LevelError {
		_, _ = fmt.Fprintln(stderr, n)
		return exitError
	} else if n.Text != "" {
		_, _ = fmt.Fprintln(stdout, n)
	}

	return exitOK
}

// newApp wires the remote client and the lending service for opts.
func newApp(opts options, out, logOut io.Writer, now func() time.Time) (*app, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	client, err := remote.NewClient(opts.apiBase,
		remote.WithTimeout(opts.timeout),
		remote.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	service := lending.NewService(client,
		lending.WithDeletePolicy(opts.deletePolicy),
		lending.WithClock(now),
		lending.WithLogger(logger),
	)

	return &app{service: service, out: out, now: now}, nil
}
