package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"

	"github.com/ardnew/splice/pkg"
	"github.com/ardnew/splice/sema"
)

// report renders diagnostics and load errors in the style of a compiler.
// Colors are used only when w is a terminal.
type report struct {
	w io.Writer

	loc, severity, fatal, message, note, attr lipgloss.Style
}

func newReport(w io.Writer) *report {
	r := lipgloss.NewRenderer(w)

	return &report{
		w:        w,
		loc:      r.NewStyle().Bold(true),
		severity: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		fatal:    r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		message:  r.NewStyle().Bold(true),
		note:     r.NewStyle().Foreground(lipgloss.Color("6")),
		attr:     r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r *report) line(loc, severity, msg string) error {
	var sb strings.Builder

	if loc != "" {
		sb.WriteString(r.loc.Render(loc + ":"))
		sb.WriteByte(' ')
	}

	sev := r.severity
	if severity == sema.SeverityFatal.String() {
		sev = r.fatal
	}

	sb.WriteString(sev.Render(severity + ":"))
	sb.WriteByte(' ')
	sb.WriteString(r.message.Render(msg))
	sb.WriteByte('\n')

	_, err := io.WriteString(r.w, sb.String())

	return err
}

func (r *report) diagnostic(d *sema.Diagnostic) error {
	err := r.line(d.Pos.String(), d.Severity.String(), d.Message())

	for _, n := range d.Notes {
		_, werr := fmt.Fprintf(r.w, "  %s %s\n", r.note.Render("note:"), n)
		err = multierr.Append(err, werr)
	}

	return err
}

// failure renders an error that is not a diagnostic. Its "loc" attribute,
// if any, becomes the location prefix.
func (r *report) failure(e error) error {
	var pe *pkg.Error
	if !errors.As(e, &pe) {
		return r.line("", sema.SeverityError.String(), e.Error())
	}

	var (
		loc   string
		extra []string
	)

	for _, a := range pe.Attrs() {
		if a.Key == "loc" {
			loc = a.Value.String()

			continue
		}

		extra = append(extra, a.Key+"="+a.Value.String())
	}

	msg := pe.Error()
	if len(extra) > 0 {
		msg += " " + r.attr.Render("["+strings.Join(extra, " ")+"]")
	}

	return r.line(loc, sema.SeverityError.String(), msg)
}

// all renders every diagnostic in ds followed by each error of err that is
// not one of them, and returns the number of problems rendered.
func (r *report) all(ds *sema.Diagnostics, err error) (int, error) {
	var werr error

	n := 0

	for _, d := range ds.All() {
		werr = multierr.Append(werr, r.diagnostic(d))
		n++
	}

	for _, e := range multierr.Errors(err) {
		if _, ok := sema.AsDiagnostic(e); ok {
			continue
		}

		werr = multierr.Append(werr, r.failure(e))
		n++
	}

	return n, werr
}
