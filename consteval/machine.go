package consteval

import (
	"context"
	"log/slog"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/log"
)

// DefaultMaxCallDepth bounds nested calls during evaluation.
const DefaultMaxCallDepth = 256

// Machine evaluates expressions and constexpr blocks of one unit.
type Machine struct {
	unit     *ast.Unit
	logger   log.Logger
	ops      *operators
	maxDepth int

	globals map[*ast.VarDecl]ast.Value
	active  map[*ast.VarDecl]bool
}

// Option configures a [Machine].
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithMaxCallDepth sets the bound on nested calls. Values below one are
// ignored.
func WithMaxCallDepth(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// New returns a machine evaluating in u.
func New(u *ast.Unit, opts ...Option) *Machine {
	m := &Machine{
		unit:     u,
		logger:   log.Discard(),
		ops:      newOperators(),
		maxDepth: DefaultMaxCallDepth,
		globals:  make(map[*ast.VarDecl]ast.Value),
		active:   make(map[*ast.VarDecl]bool),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// run is the state shared by the frames of one evaluation.
type run struct {
	effects []ast.Effect
	depth   int
}

// frame binds the local variables and parameters of one call.
type frame struct {
	run  *run
	vars map[ast.Decl]*ast.Value
	this *ast.Value
}

func newFrame(r *run) *frame {
	return &frame{run: r, vars: make(map[ast.Decl]*ast.Value)}
}

// Evaluate returns the constant value of e.
func (m *Machine) Evaluate(ctx context.Context, e ast.Expr) (ast.Value, error) {
	return m.eval(ctx, newFrame(&run{}), e)
}

// Execute runs the body of block and returns the effects it recorded.
func (m *Machine) Execute(ctx context.Context, block *ast.ConstexprDecl) ([]ast.Effect, error) {
	r := &run{}

	if _, _, err := m.exec(ctx, newFrame(r), block.Body); err != nil {
		return nil, err
	}

	m.logger.TraceContext(ctx, "execute",
		slog.String("loc", block.Pos.String()),
		slog.Int("effects", len(r.effects)),
	)

	return r.effects, nil
}

// global returns the value of a variable evaluated outside any frame.
func (m *Machine) global(ctx context.Context, v *ast.VarDecl) (ast.Value, error) {
	if val, ok := m.globals[v]; ok {
		return val.Clone(), nil
	}

	if v.Init == nil || m.active[v] {
		return ast.Value{}, ErrUnbound.With(slog.String("name", v.Name))
	}

	m.active[v] = true
	defer delete(m.active, v)

	val, err := m.eval(ctx, newFrame(&run{}), v.Init)
	if err != nil {
		return ast.Value{}, err
	}

	if v.Constexpr {
		m.globals[v] = val
	}

	return val.Clone(), nil
}
