package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/consteval"
	"github.com/ardnew/splice/log"
	"github.com/ardnew/splice/sema"
	"github.com/ardnew/splice/unit"
)

// Input selects the documents loaded by a command.
type Input struct {
	Files []string `arg:"" default:"-" help:"Source document(s) or '-' for stdin." name:"file"`

	Name     string `help:"Translation unit name (default: first file's base name)."`
	MaxDepth int    `default:"1024" help:"Maximum nesting of injections."          name:"max-depth"`
	MaxCalls int    `default:"256"  help:"Maximum depth of constexpr calls."       name:"max-calls"`
}

// stdinName is the file name reported in source locations of stdin.
const stdinName = "<stdin>"

// load reads every input file into one translation unit. Output of print
// statements is written to out. A returned loader is never nil; its
// diagnostics are valid even when err is not.
func (in *Input) load(ctx context.Context, out io.Writer) (*unit.Loader, error) {
	s := streamsFrom(ctx)
	files := uniqueSources(in.Files)

	lg := log.Default()
	if ktx := kongContextFrom(ctx); ktx != nil {
		lg = lg.With(slog.String("command", ktx.Command()))
	}

	name := in.Name
	if name == "" && len(files) > 0 {
		name = unitName(files[0])
	}

	l := unit.New(
		unit.WithName(name),
		unit.WithLogger(lg),
		unit.WithSearchPath(searchPathFrom(ctx)...),
		unit.WithSemaOptions(
			sema.WithMaxInstantiationDepth(in.MaxDepth),
			sema.WithOutput(out),
		),
		unit.WithEvalOptions(consteval.WithMaxCallDepth(in.MaxCalls)),
	)

	lg.DebugContext(ctx, "load",
		slog.String("unit", name),
		slog.Int("files", len(files)),
		slog.String("search", strings.Join(searchPathFrom(ctx), string(os.PathListSeparator))),
	)

	var err error

	for _, f := range files {
		if ctx.Err() != nil {
			return l, multierr.Append(err, ctx.Err())
		}

		if f == stdinSource {
			err = multierr.Append(err, l.Read(ctx, s.In, stdinName))
		} else {
			err = multierr.Append(err, l.ReadFile(ctx, f))
		}

		if l.Sema().Err() != nil {
			break
		}
	}

	return l, err
}

// unitName returns the translation unit name derived from file.
func unitName(file string) string {
	if file == stdinSource {
		return "stdin"
	}

	base := filepath.Base(file)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
