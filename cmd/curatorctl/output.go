package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Exit codes. A parity mismatch is a normal, reportable outcome and uses
// ExitMismatch; anything that prevented the check from running is ExitError.
const (
	ExitSuccess  = 0
	ExitMismatch = 1
	ExitError    = 2
)

// exitError carries a specific exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// printer writes status lines, colored when enabled.
type printer struct {
	w      io.Writer
	ok     *color.Color
	warn   *color.Color
	fail   *color.Color
	faint  *color.Color
	header *color.Color
}

func newPrinter(w io.Writer, colors bool) *printer {
	p := &printer{
		w:      w,
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
		header: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.faint, p.header} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) Header(format string, args ...any) {
	p.header.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Success(format string, args ...any) {
	p.ok.Fprintf(p.w, "✓ "+format+"\n", args...)
}

func (p *printer) Mismatch(format string, args ...any) {
	p.warn.Fprintf(p.w, "✗ "+format+"\n", args...)
}

func (p *printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Detail(format string, args ...any) {
	p.faint.Fprintf(p.w, "  "+format+"\n", args...)
}

// Fail prints err and returns its exit code.
func (p *printer) Fail(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code == ExitMismatch {
			return ee.code
		}
		p.fail.Fprintf(p.w, "Error: %v\n", ee.err)
		return ee.code
	}
	p.fail.Fprintf(p.w, "Error: %v\n", err)
	return ExitError
}
