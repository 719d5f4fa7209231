package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/config"
	"github.com/AntonStoeckl/library-circulation-go/lending"
)

var (
	errHelpRequested = errors.New("help requested")
	errNoCommand     = errors.New("no command given")
)

type options struct {
	apiBase      string
	timeout      time.Duration
	deletePolicy lending.DeletePolicy
	verbose      bool
	command      []string
}

// parseFlags parses the global flags. Their defaults come from the environment, see package config.
func parseFlags(args []string, defaults config.ClientConfig, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("circulationctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		apiBase      = fs.String("api", defaults.APIBase, "Base URL of the circulation API")
		timeout      = fs.Duration("timeout", defaults.HTTPTimeout, "Timeout of a single request")
		deletePolicy = fs.String("delete-policy", defaults.DeletePolicy, "Deleting issued books: force or require-returned")
		verbose      = fs.Bool("v", false, "Log requests to stderr")
	)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "usage: circulationctl [flags] <command> [args]\n\ncommands:\n%s\nflags:\n", usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, errHelpRequested
		}
		return options{}, err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return options{}, errNoCommand
	}

	policy, err := lending.ParseDeletePolicy(*deletePolicy)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "circulationctl: %v\n", err)
		return options{}, err
	}

	return options{
		apiBase:      *apiBase,
		timeout:      *timeout,
		deletePolicy: policy,
		verbose:      *verbose,
		command:      fs.Args(),
	}, nil
}
