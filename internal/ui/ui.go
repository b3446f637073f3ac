// Package ui is the UI Boundary (C9): prompt, log, and print calls used
// by internal/cli. The transaction and query engines do not import this
// package and take no UI; Scripted stands in for a real terminal in
// tests of code written against the UI interface.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// UI is the abstract interface the engine-adjacent CLI layer depends on.
type UI interface {
	// Printf writes to the UI's normal output stream, unless Quiet.
	Printf(format string, args ...any)
	// Errorf writes to the UI's error stream, always.
	Errorf(format string, args ...any)
	// Confirm asks the user to approve prompt. Returns true immediately
	// without prompting if AssumeYes was set.
	Confirm(prompt string) (bool, error)
	// Quiet reports whether normal output is suppressed.
	Quiet() bool
}

// Terminal is the real UI, backed by stdout/stderr and stdin.
type Terminal struct {
	Out       io.Writer
	Err       io.Writer
	In        io.Reader
	AssumeYes bool
	quiet     bool
}

// NewTerminal builds a Terminal bound to os.Stdout/os.Stderr/os.Stdin.
// quiet is rejected unless assumeYes is also set, matching spec.md §6's
// "--quiet without --yes fails" rule.
func NewTerminal(assumeYes, quiet bool) (*Terminal, error) {
	if quiet && !assumeYes {
		return nil, fmt.Errorf("ui: --quiet requires --yes")
	}
	return &Terminal{
		Out:       os.Stdout,
		Err:       os.Stderr,
		In:        os.Stdin,
		AssumeYes: assumeYes,
		quiet:     quiet,
	}, nil
}

func (t *Terminal) Quiet() bool { return t.quiet }

func (t *Terminal) Printf(format string, args ...any) {
	if t.quiet {
		return
	}
	fmt.Fprintf(t.Out, format, args...)
}

func (t *Terminal) Errorf(format string, args ...any) {
	fmt.Fprintf(t.Err, format, args...)
}

// Confirm prompts "prompt [y/N] " on Err and reads a line from In. If
// AssumeYes is set, it returns true without touching either stream. If
// stdin is not a terminal and AssumeYes is unset, it fails closed:
// an unattended process must not block forever on an unreadable prompt.
func (t *Terminal) Confirm(prompt string) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	if f, ok := t.In.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		return false, fmt.Errorf("ui: confirmation required but stdin is not a terminal; rerun with --yes")
	}
	fmt.Fprintf(t.Err, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Scripted is a test double: it records every Printf/Errorf call and
// answers Confirm from a fixed queue of responses, so transaction- and
// cli-level tests can drive confirmation flows without a real terminal.
type Scripted struct {
	Responses []bool
	Out       []string
	Errs      []string
	IsQuiet   bool

	next int
}

func (s *Scripted) Quiet() bool { return s.IsQuiet }

func (s *Scripted) Printf(format string, args ...any) {
	if s.IsQuiet {
		return
	}
	s.Out = append(s.Out, fmt.Sprintf(format, args...))
}

func (s *Scripted) Errorf(format string, args ...any) {
	s.Errs = append(s.Errs, fmt.Sprintf(format, args...))
}

func (s *Scripted) Confirm(prompt string) (bool, error) {
	if s.next >= len(s.Responses) {
		return false, fmt.Errorf("ui: scripted confirm %q called with no response queued", prompt)
	}
	answer := s.Responses[s.next]
	s.next++
	return answer, nil
}
