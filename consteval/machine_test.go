package consteval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/consteval"
)

func lit(v any) ast.Expr {
	switch x := v.(type) {
	case int:
		return &ast.IntLit{ExprBase: ast.ExprBase{Ty: ast.Int}, Value: int64(x)}
	case bool:
		return &ast.BoolLit{ExprBase: ast.ExprBase{Ty: ast.Bool}, Value: x}
	case float64:
		return &ast.FloatLit{ExprBase: ast.ExprBase{Ty: ast.Double}, Value: x}
	case string:
		return &ast.StringLit{ExprBase: ast.ExprBase{Ty: ast.String}, Value: x}
	}

	panic("unsupported literal")
}

func bin(op string, l, r ast.Expr) ast.Expr {
	return &ast.BinaryExpr{Op: op, LHS: l, RHS: r}
}

func ref(d ast.Decl, t ast.Type) ast.Expr {
	return &ast.DeclRefExpr{ExprBase: ast.ExprBase{Ty: t}, Decl: d}
}

func call(fn *ast.FunctionDecl, args ...ast.Expr) ast.Expr {
	return &ast.CallExpr{
		ExprBase: ast.ExprBase{Ty: fn.Result},
		Callee:   ref(fn, fn.Type()),
		Args:     args,
	}
}

func TestEvaluate_Operators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		e    ast.Expr
		want ast.Value
	}{
		{"add", bin("+", lit(2), lit(3)), ast.IntValue(5)},
		{"int division truncates", bin("/", lit(7), lit(2)), ast.IntValue(3)},
		{"float division", bin("/", lit(7.0), lit(2)), ast.FloatValue(3.5)},
		{"remainder", bin("%", lit(7), lit(4)), ast.IntValue(3)},
		{"compare", bin("<", lit(1), lit(2)), ast.BoolValue(true)},
		{"concatenate", bin("+", lit("ab"), lit("c")), ast.StringValue("abc")},
		{"and", bin("&&", lit(true), lit(false)), ast.BoolValue(false)},
		{"or word", bin("or", lit(false), lit(true)), ast.BoolValue(true)},
		{"negate", &ast.UnaryExpr{Op: "-", X: lit(4)}, ast.IntValue(-4)},
		{"not", &ast.UnaryExpr{Op: "!", X: lit(0)}, ast.BoolValue(true)},
	}

	m := consteval.New(ast.NewUnit("test"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := m.Evaluate(t.Context(), tt.e)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	t.Parallel()

	u := ast.NewUnit("test")

	ph := &ast.VarDecl{DeclBase: ast.DeclBase{Name: "p"}, Type: ast.Dependent, Placeholder: true}

	cycle := &ast.VarDecl{DeclBase: ast.DeclBase{Name: "c"}, Type: ast.Int, Constexpr: true}
	cycle.Init = ref(cycle, ast.Int)
	ast.Add(u.TU, cycle)

	undefined := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: "u"}, Result: ast.Int}
	ast.Add(u.TU, undefined)

	loop := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: "loop"}, Result: ast.Int}
	loop.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{X: call(loop)}}}
	ast.Add(u.TU, loop)

	one := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: "one"}, Result: ast.Int}
	one.Params = []*ast.ParmDecl{{DeclBase: ast.DeclBase{Name: "a", Owner: one}, Type: ast.Int}}
	one.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{X: ref(one.Params[0], ast.Int)}}}
	ast.Add(u.TU, one)

	tests := []struct {
		name string
		e    ast.Expr
		want error
	}{
		{"divide by zero", bin("/", lit(1), lit(0)), consteval.ErrDivideByZero},
		{"remainder by zero", bin("%", lit(1), lit(0)), consteval.ErrDivideByZero},
		{"placeholder", ref(ph, ast.Dependent), consteval.ErrPlaceholder},
		{"cycle", ref(cycle, ast.Int), consteval.ErrUnbound},
		{"undefined", call(undefined), consteval.ErrUndefined},
		{"call depth", call(loop), consteval.ErrCallDepth},
		{"missing argument", call(one), consteval.ErrArity},
		{"extra argument", call(one, lit(1), lit(2)), consteval.ErrArity},
		{"dependent fragment", &ast.FragmentExpr{ExprBase: ast.ExprBase{Ty: ast.Dependent}}, consteval.ErrDependent},
		{"invalid operands", bin("-", lit("a"), lit(true)), consteval.ErrOperator},
	}

	m := consteval.New(u, consteval.WithMaxCallDepth(8))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Evaluate(t.Context(), tt.e)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	t.Parallel()

	m := consteval.New(ast.NewUnit("test"))
	boom := bin("/", lit(1), lit(0))

	for _, e := range []ast.Expr{
		bin("&&", lit(false), boom),
		bin("||", lit(true), boom),
	} {
		if _, err := m.Evaluate(t.Context(), e); err != nil {
			t.Errorf("right operand evaluated: %v", err)
		}
	}
}

func TestEvaluate_DefaultArguments(t *testing.T) {
	t.Parallel()

	u := ast.NewUnit("test")

	add := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: "add"}, Result: ast.Int, Constexpr: true}
	add.Params = []*ast.ParmDecl{
		{DeclBase: ast.DeclBase{Name: "a", Owner: add}, Type: ast.Int},
		{DeclBase: ast.DeclBase{Name: "b", Owner: add}, Type: ast.Int, Default: lit(10), Index: 1},
	}
	add.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{
		X: bin("+", ref(add.Params[0], ast.Int), ref(add.Params[1], ast.Int)),
	}}}
	ast.Add(u.TU, add)

	got, err := consteval.New(u).Evaluate(t.Context(), call(add, lit(1)))
	if err != nil || got.Int != 11 {
		t.Errorf("add(1) = %v, %v", got, err)
	}
}

func TestEvaluate_ModifyCopiesReflection(t *testing.T) {
	t.Parallel()

	u := ast.NewUnit("test")

	x := &ast.VarDecl{DeclBase: ast.DeclBase{Name: "x"}, Type: ast.Int}
	ast.Add(u.TU, x)

	reflTy := u.Meta.ReflectionType(ast.DeclConstruct(x))
	r := &ast.VarDecl{
		DeclBase:  ast.DeclBase{Name: "r"},
		Type:      reflTy,
		Init:      u.Reflect(ast.Loc{}, ast.DeclConstruct(x)),
		Constexpr: true,
	}
	ast.Add(u.TU, r)

	m := consteval.New(u)

	modified, err := m.Evaluate(t.Context(), &ast.ModifyExpr{
		ExprBase: ast.ExprBase{Ty: reflTy},
		Trait:    ast.TraitStorage,
		Arg:      int64(ast.StorageModStatic),
		X:        ref(r, reflTy),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	storage := func(v ast.Value) int64 {
		t.Helper()

		mods, _, ok := v.Field(v.Record, ast.ModsMember)
		if !ok {
			t.Fatal("no mods")
		}

		s, _, _ := mods.Field(u.Meta.Mods, ast.ModsStorage)

		return s.Int
	}

	if got := storage(modified); got != int64(ast.StorageModStatic) {
		t.Errorf("modified storage = %d", got)
	}

	orig, err := m.Evaluate(t.Context(), ref(r, reflTy))
	if err != nil {
		t.Fatal(err)
	}

	if got := storage(orig); got != int64(ast.StorageModNone) {
		t.Errorf("original storage = %d", got)
	}

	if modified.Reflected().Decl() != ast.Decl(x) {
		t.Error("modified value lost its construct")
	}
}

func TestExecute_RecordsEffects(t *testing.T) {
	t.Parallel()

	u := ast.NewUnit("test")

	f := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: "f"}, Result: ast.Void}
	ast.Add(u.TU, f)

	cd := &ast.ConstexprDecl{}
	ast.Add(u.TU, cd)

	local := &ast.VarDecl{
		DeclBase: ast.DeclBase{Name: "r"},
		Type:     ast.Dependent,
		Init:     u.Reflect(ast.Loc{}, ast.DeclConstruct(f)),
	}
	ast.Add(cd, local)

	cd.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decls: []ast.Decl{local}},
		&ast.InjectionStmt{Reflection: ref(local, ast.Dependent)},
		&ast.PrintStmt{Reflection: ref(local, ast.Dependent)},
	}}

	effects, err := consteval.New(u).Execute(t.Context(), cd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var kinds []ast.EffectKind
	for _, e := range effects {
		kinds = append(kinds, e.Kind)

		if e.ReflectionType != u.Meta.ReflectionType(ast.DeclConstruct(f)) {
			t.Errorf("%v effect has type %v", e.Kind, e.ReflectionType)
		}

		if e.Reflection.Reflected().Decl() != ast.Decl(f) {
			t.Errorf("%v effect reflects %v", e.Kind, e.Reflection)
		}
	}

	if diff := cmp.Diff([]ast.EffectKind{ast.EffectInjection, ast.EffectDiagnostic}, kinds); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Canceled(t *testing.T) {
	t.Parallel()

	u := ast.NewUnit("test")
	cd := &ast.ConstexprDecl{Body: &ast.CompoundStmt{}}
	ast.Add(u.TU, cd)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := consteval.New(u).Execute(ctx, cd); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
