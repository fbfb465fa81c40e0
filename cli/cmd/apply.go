package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/splice/ast"
)

// Apply loads documents, performs every injection, and prints the resulting
// declarations.
type Apply struct {
	Input `embed:""`

	Implicit bool `                help:"Include implicit declarations."`
	Indent   int  `default:"2"     help:"Indent width of printed declarations." short:"i"`
	Quiet    bool `                help:"Print diagnostics only."              short:"q"`
}

// Run executes the apply command.
func (a *Apply) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	s := streamsFrom(ctx)

	l, lerr := a.load(ctx, s.Out)

	n, err := newReport(s.Err).all(l.Diagnostics(), lerr)
	if err != nil {
		return ErrWrite.Wrap(err)
	}

	if !a.Quiet {
		p := ast.Printer{Implicit: a.Implicit, Indent: indent(a.Indent)}
		if err := p.Fprint(s.Out, l.Unit().TU); err != nil {
			return ErrWrite.Wrap(err)
		}
	}

	if n > 0 {
		return ErrFailed.With(
			slog.String("command", "apply"),
			slog.Int("errors", n),
		)
	}

	return nil
}

// indent returns the indentation unit of width n. A width of zero or less
// indents with tabs.
func indent(n int) string {
	if n <= 0 {
		return "\t"
	}

	return strings.Repeat(" ", n)
}
