package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/splice/ast"
)

// Dump loads documents, performs every injection, and encodes the resulting
// translation unit as a tree of maps.
type Dump struct {
	Input `embed:""`

	Format   string `default:"yaml" enum:"yaml,json" help:"Output format."                      short:"F"`
	Implicit bool   `                                help:"Include implicit declarations."`
	Indent   int    `default:"2"                     help:"Indent width (0 for compact output)." short:"i"`
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	s := streamsFrom(ctx)

	l, lerr := d.load(ctx, s.Err)

	n, err := newReport(s.Err).all(l.Diagnostics(), lerr)
	if err != nil {
		return ErrWrite.Wrap(err)
	}

	tree := ast.ToMap(l.Unit().TU, d.Implicit)

	var data []byte

	switch d.Format {
	case "json":
		if d.Indent > 0 {
			data, err = json.MarshalIndent(tree, "", strings.Repeat(" ", d.Indent))
		} else {
			data, err = json.Marshal(tree)
		}

		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		data = append(data, '\n')

	default:
		var opts []yaml.EncodeOption
		if d.Indent > 0 {
			opts = append(opts, yaml.Indent(d.Indent))
		} else {
			opts = append(opts, yaml.Flow(true))
		}

		data, err = yaml.MarshalContext(ctx, tree, opts...)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}
	}

	if _, err := fmt.Fprint(s.Out, string(data)); err != nil {
		return ErrWrite.Wrap(err)
	}

	if n > 0 {
		return ErrFailed.With(
			slog.String("command", "dump"),
			slog.Int("errors", n),
		)
	}

	return nil
}
