package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const prompt = "circulation> "

var errUnterminatedInput = errors.New("unterminated quote or escape")

// shell reads commands from in until EOF, "exit" or a canceled ctx.
// A failed command is reported and the session continues.
func (a *app) shell(ctx context.Context, in io.Reader, out io.Writer) {
	if n := a.execute(ctx, []string{cmdRefresh}); n.Level == LevelError {
		_, _ = fmt.Fprintln(out, n)
	} else {
		stats := a.service.Stats(a.now())
		_, _ = fmt.Fprintf(out, "Loaded %s and %s. Type help for commands.\n",
			plural(stats.TotalBooks, "book"), plural(len(a.service.ActiveLoans()), "active loan"))
	}

	scanner := bufio.NewScanner(in)

	for {
		_, _ = fmt.Fprint(out, prompt)

		if ctx.Err() != nil || !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			_, _ = fmt.Fprintln(out, Notification{Level: LevelError, Text: err.Error()})
			continue
		}

		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return
		case cmdShell:
			continue
		}

		if n := a.execute(ctx, args); n.Text != "" {
			_, _ = fmt.Fprintln(out, n)
		}
	}
}

// splitArgs splits line at whitespace. Single or double quotes group words, a backslash
// escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedInput
	}

	if inArg {
		args = append(args, current.String())
	}

	return args, nil
}
