package unit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/consteval"
	"github.com/ardnew/splice/log"
	"github.com/ardnew/splice/sema"
)

// Loader reads documents into one translation unit.
type Loader struct {
	unit   *ast.Unit
	sema   *sema.Sema
	eval   *consteval.Machine
	logger log.Logger
	cache  *Cache
	paths  []string

	name     string
	semaOpts []sema.Option
	evalOpts []consteval.Option

	// loading holds files being read; loaded holds files read completely.
	loading map[string]bool
	loaded  map[string]bool
	file    string
}

// Option configures a [Loader].
type Option func(*Loader)

// WithName sets the translation unit name.
func WithName(name string) Option {
	return func(l *Loader) { l.name = name }
}

// WithLogger sets the logger shared by the loader, the semantic analyzer,
// and the evaluator.
func WithLogger(lg log.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// WithSearchPath appends directories searched for included files.
func WithSearchPath(dirs ...string) Option {
	return func(l *Loader) {
		for _, d := range dirs {
			if d != "" {
				l.paths = append(l.paths, d)
			}
		}
	}
}

// WithCache sets the document cache.
func WithCache(c *Cache) Option {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithSemaOptions passes options to the semantic analyzer.
func WithSemaOptions(opts ...sema.Option) Option {
	return func(l *Loader) { l.semaOpts = append(l.semaOpts, opts...) }
}

// WithEvalOptions passes options to the constant evaluator.
func WithEvalOptions(opts ...consteval.Option) Option {
	return func(l *Loader) { l.evalOpts = append(l.evalOpts, opts...) }
}

// New returns a loader with an empty translation unit.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger:  log.Discard(),
		cache:   globalCache,
		name:    "unit",
		loading: make(map[string]bool),
		loaded:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.unit = ast.NewUnit(l.name)
	l.eval = consteval.New(l.unit,
		append([]consteval.Option{consteval.WithLogger(l.logger)}, l.evalOpts...)...)
	l.sema = sema.New(l.unit,
		append([]sema.Option{sema.WithLogger(l.logger), sema.WithEvaluator(l.eval)}, l.semaOpts...)...)
	l.logger = l.logger.With(slog.String("unit", l.sema.ID.String()))

	return l
}

// Load reads the document in r into a new translation unit.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Loader, error) {
	l := New(opts...)

	return l, l.Read(ctx, r, l.name)
}

// LoadFile reads the document at path into a new translation unit named
// after the file unless [WithName] is given.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Loader, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	l := New(append([]Option{WithName(name)}, opts...)...)

	return l, l.ReadFile(ctx, path)
}

// Unit returns the translation unit.
func (l *Loader) Unit() *ast.Unit { return l.unit }

// Sema returns the semantic analyzer.
func (l *Loader) Sema() *sema.Sema { return l.sema }

// Diagnostics returns the diagnostics emitted so far.
func (l *Loader) Diagnostics() *sema.Diagnostics { return l.sema.Diagnostics() }

// Read reads the document in r, naming it file in source locations.
// Declarations that fail are reported and skipped; the returned error
// combines every failure.
func (l *Loader) Read(ctx context.Context, r io.Reader, file string) error {
	doc, err := l.document(ctx, r, file)
	if err != nil {
		return err
	}

	return l.process(ctx, doc, file)
}

// ReadFile reads the document at path. A file already read is skipped.
func (l *Loader) ReadFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	if l.loaded[abs] {
		return nil
	}

	if l.loading[abs] {
		return ErrIncludeCycle.With(slog.String("file", path))
	}

	f, err := os.Open(abs)
	if err != nil {
		return ErrReadInput.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	l.loading[abs] = true
	defer delete(l.loading, abs)

	doc, err := l.document(ctx, f, path)
	if err != nil {
		return err
	}

	if err := l.process(ctx, doc, path); err != nil {
		return err
	}

	l.loaded[abs] = true

	return nil
}

func (l *Loader) process(ctx context.Context, doc *Document, file string) error {
	prev := l.file
	l.file = file

	defer func() { l.file = prev }()

	for _, inc := range doc.Include {
		path, err := l.resolve(inc, file)
		if err != nil {
			return err
		}

		l.logger.DebugContext(ctx, "include",
			slog.String("file", file),
			slog.String("path", path),
		)

		if err := l.ReadFile(ctx, path); err != nil {
			return err
		}
	}

	return l.decls(ctx, doc.Decls)
}

// decls processes ds in the current context. Processing stops early on
// cancellation or once the analyzer hit a fatal error.
func (l *Loader) decls(ctx context.Context, ds []*Decl) error {
	var errs error

	for _, d := range ds {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		if d == nil {
			continue
		}

		if err := l.decl(ctx, d); err != nil {
			l.logger.DebugContext(ctx, "declaration failed",
				slog.String("loc", d.Pos.String()),
				slog.Any("error", err),
			)

			errs = multierr.Append(errs, err)
		}

		if err := l.sema.Err(); err != nil {
			return errs
		}
	}

	return errs
}
