package consteval

import (
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/splice/ast"
)

// Operand names bound in operator programs.
const (
	lhsName = "a"
	rhsName = "b"
)

// operators compiles one expr-lang program per operator form and reuses it
// for every evaluation.
type operators struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

func newOperators() *operators {
	return &operators{programs: make(map[string]*vm.Program)}
}

func (o *operators) program(code string) (*vm.Program, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if p, ok := o.programs[code]; ok {
		return p, nil
	}

	p, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, ErrOperatorCompile.Wrap(err).With(slog.String("source", code))
	}

	o.programs[code] = p

	return p, nil
}

func (o *operators) run(code string, env map[string]any) (ast.Value, error) {
	p, err := o.program(code)
	if err != nil {
		return ast.Value{}, err
	}

	out, err := vm.Run(p, env)
	if err != nil {
		return ast.Value{}, ErrOperator.Wrap(err).With(slog.String("source", code))
	}

	return fromNative(out)
}

// binaryCode returns the program source for op applied to operands of
// kinds l and r.
func binaryCode(op string, l, r ast.ValueKind) string {
	switch op {
	case "and":
		op = "&&"
	case "or":
		op = "||"
	}

	code := lhsName + " " + op + " " + rhsName
	if op == "/" && l == ast.ValueInt && r == ast.ValueInt {
		code = "int(" + code + ")"
	}

	return code
}

func unaryCode(op string) string {
	switch op {
	case "not", "!":
		return "!" + lhsName
	default:
		return op + lhsName
	}
}

// binary applies op to l and r.
func (o *operators) binary(op string, l, r ast.Value) (ast.Value, error) {
	if l.Kind == ast.ValueStruct || r.Kind == ast.ValueStruct {
		switch op {
		case "==":
			return ast.BoolValue(l.Equal(r)), nil
		case "!=":
			return ast.BoolValue(!l.Equal(r)), nil
		}

		return ast.Value{}, ErrOperator.With(slog.String("op", op))
	}

	if (op == "/" || op == "%") && r.Kind == ast.ValueInt && r.Int == 0 {
		return ast.Value{}, ErrDivideByZero
	}

	a, err := operand(l)
	if err != nil {
		return ast.Value{}, err
	}

	b, err := operand(r)
	if err != nil {
		return ast.Value{}, err
	}

	return o.run(binaryCode(op, l.Kind, r.Kind), map[string]any{lhsName: a, rhsName: b})
}

// unary applies op to x.
func (o *operators) unary(op string, x ast.Value) (ast.Value, error) {
	a, err := operand(x)
	if err != nil {
		return ast.Value{}, err
	}

	return o.run(unaryCode(op), map[string]any{lhsName: a})
}

func operand(v ast.Value) (any, error) {
	switch v.Kind {
	case ast.ValueInt:
		return int(v.Int), nil
	case ast.ValueFloat:
		return v.Float, nil
	case ast.ValueBool:
		return v.Bool, nil
	case ast.ValueString:
		return v.Str, nil
	default:
		return nil, ErrOperator.With(slog.String("operand", v.String()))
	}
}

func fromNative(x any) (ast.Value, error) {
	switch v := x.(type) {
	case int:
		return ast.IntValue(int64(v)), nil
	case int64:
		return ast.IntValue(v), nil
	case int32:
		return ast.IntValue(int64(v)), nil
	case float64:
		return ast.FloatValue(v), nil
	case bool:
		return ast.BoolValue(v), nil
	case string:
		return ast.StringValue(v), nil
	default:
		return ast.Value{}, ErrNotConstant.With(slog.Any("result", x))
	}
}
