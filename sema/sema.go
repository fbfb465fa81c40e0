package sema

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/log"
)

// DefaultMaxInstantiationDepth bounds nested injections and instantiations.
const DefaultMaxInstantiationDepth = 1024

// Evaluator performs compile-time evaluation on behalf of [Sema].
type Evaluator interface {
	// Evaluate returns the constant value of e.
	Evaluate(ctx context.Context, e ast.Expr) (ast.Value, error)
	// Execute runs the body of a constexpr block and returns the effects it
	// recorded, in order.
	Execute(ctx context.Context, block *ast.ConstexprDecl) ([]ast.Effect, error)
}

// Sema holds the semantic state of one compilation unit.
type Sema struct {
	Unit *ast.Unit
	ID   uuid.UUID

	cur     ast.Context
	scope   *ast.Scope
	pushed  []ast.Context
	diags   Diagnostics
	inject  InjectionStack
	active  []instantiation
	pending map[*ast.RecordDecl][]pendingBody
	schemas map[*ast.RecordDecl]bool
	fatal   error

	eval     Evaluator
	logger   log.Logger
	out      io.Writer
	maxDepth int
}

type instantiation struct {
	pos    ast.Loc
	entity ast.Decl
}

// Option configures a [Sema].
type Option func(*Sema)

// WithLogger sets the logger. Records carry the compilation unit id.
func WithLogger(l log.Logger) Option {
	return func(s *Sema) { s.logger = l }
}

// WithEvaluator sets the constant evaluator.
func WithEvaluator(ev Evaluator) Option {
	return func(s *Sema) { s.eval = ev }
}

// WithMaxInstantiationDepth sets the nesting bound for injections. Values
// below one are ignored.
func WithMaxInstantiationDepth(n int) Option {
	return func(s *Sema) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithOutput sets the writer that diagnostic effects print to.
func WithOutput(w io.Writer) Option {
	return func(s *Sema) { s.out = w }
}

// WithDiagnosticHandler sets a function called with every diagnostic as it
// is emitted.
func WithDiagnosticHandler(fn func(*Diagnostic)) Option {
	return func(s *Sema) { s.diags.handler = fn }
}

// New returns the semantic state for u. The current context is the
// translation unit.
func New(u *ast.Unit, opts ...Option) *Sema {
	s := &Sema{
		Unit:     u,
		ID:       uuid.New(),
		cur:      u.TU,
		pending:  make(map[*ast.RecordDecl][]pendingBody),
		schemas:  make(map[*ast.RecordDecl]bool),
		logger:   log.Discard(),
		out:      io.Discard,
		maxDepth: DefaultMaxInstantiationDepth,
	}

	s.scope = ast.NewScope(nil, ast.ScopeNamespace, u.TU)

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(slog.String("unit", s.ID.String()))

	return s
}

// CurContext returns the current semantic context.
func (s *Sema) CurContext() ast.Context { return s.cur }

// CurScope returns the current lexical scope.
func (s *Sema) CurScope() *ast.Scope { return s.scope }

// Diagnostics returns the diagnostics emitted so far.
func (s *Sema) Diagnostics() *Diagnostics { return &s.diags }

// Injections returns the injection context stack.
func (s *Sema) Injections() *InjectionStack { return &s.inject }

// Err returns the fatal error that stopped processing, if any.
func (s *Sema) Err() error { return s.fatal }

// Logger returns the logger of s.
func (s *Sema) Logger() log.Logger { return s.logger }

// Diag records a diagnostic of kind k at pos and returns it.
func (s *Sema) Diag(pos ast.Loc, k DiagKind, args ...any) *Diagnostic {
	d := &Diagnostic{Pos: pos, Kind: k, Args: args}
	if k == DiagInstantiationDepthExceeded {
		d.Severity = SeverityFatal
	}

	s.diags.add(d)
	s.logger.Debug("diagnostic", slog.Any("diag", d))

	return d
}

// PushScope opens a lexical scope nested in the current one.
func (s *Sema) PushScope(flags ast.ScopeFlags, entity ast.Context) *ast.Scope {
	s.scope = ast.NewScope(s.scope, flags, entity)

	return s.scope
}

// PopScope closes the current lexical scope.
func (s *Sema) PopScope() {
	if s.scope.Parent != nil {
		s.scope = s.scope.Parent
	}
}

// PushDeclContext makes c the current context until the matching
// [Sema.PopDeclContext].
func (s *Sema) PushDeclContext(c ast.Context) {
	s.pushed = append(s.pushed, s.cur)
	s.cur = c
}

// PopDeclContext restores the context saved by [Sema.PushDeclContext].
func (s *Sema) PopDeclContext() {
	n := len(s.pushed)
	if n == 0 {
		return
	}

	s.cur = s.pushed[n-1]
	s.pushed = s.pushed[:n-1]
}

// EnterContext makes c the current context and, when c is a class, opens a
// class scope for it. The returned function restores the previous state.
func (s *Sema) EnterContext(c ast.Context) (restore func()) {
	cur, scope := s.cur, s.scope
	s.cur = c

	if ast.IsRecord(c) {
		s.scope = ast.NewScope(s.scope, ast.ScopeClass, c)
	}

	return func() { s.cur, s.scope = cur, scope }
}

// beginInstantiation records entry into a nested injection or instantiation
// of entity. Exceeding the depth bound is fatal: it emits a diagnostic and
// every later call fails with the same error.
func (s *Sema) beginInstantiation(pos ast.Loc, entity ast.Decl) (done func(), err error) {
	if s.fatal != nil {
		return nil, s.fatal
	}

	if len(s.active) >= s.maxDepth {
		diag := s.Diag(pos, DiagInstantiationDepthExceeded, s.maxDepth)
		s.fatal = ErrInstantiationDepth.Wrap(diag).With(
			slog.Int("depth", s.maxDepth),
			slog.String("loc", pos.String()),
		)
		s.logger.Error("instantiation stopped", slog.Any("error", s.fatal))

		return nil, s.fatal
	}

	s.active = append(s.active, instantiation{pos: pos, entity: entity})
	s.logger.Trace("instantiate",
		slog.String("entity", ast.QualifiedName(entity)),
		slog.Int("depth", len(s.active)),
	)

	return func() { s.active = s.active[:len(s.active)-1] }, nil
}

func (s *Sema) evaluate(ctx context.Context, e ast.Expr) (ast.Value, error) {
	if s.eval == nil {
		return ast.Value{}, ErrNoEvaluator
	}

	return s.eval.Evaluate(ctx, e)
}
