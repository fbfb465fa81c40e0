package sema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/consteval"
	"github.com/ardnew/splice/sema"
)

// function declares f in the translation unit of e, makes it current and
// opens its function scope.
func (e *env) function(t *testing.T, name string) *ast.FunctionDecl {
	t.Helper()

	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Name: name}, Result: ast.Void}
	ast.Add(e.u.TU, fn)

	restore := e.s.EnterContext(fn)
	e.s.PushScope(ast.ScopeFunction, fn)
	t.Cleanup(func() {
		e.s.PopScope()
		restore()
	})

	return fn
}

// local declares an int local variable of fn in the current scope.
func (e *env) local(fn *ast.FunctionDecl, name string, init ast.Expr) *ast.VarDecl {
	v := &ast.VarDecl{DeclBase: ast.DeclBase{Name: name}, Type: ast.Int, Init: init}
	ast.Add(fn, v)
	e.s.CurScope().Declare(v)

	return v
}

func TestFragment_PlaceholderPerCapture(t *testing.T) {
	e := newEnv(t)
	fn := e.function(t, "f")

	p := &ast.ParmDecl{DeclBase: ast.DeclBase{Name: "p", Owner: fn}, Type: ast.Int, Default: intLit(7)}
	fn.Params = append(fn.Params, p)
	e.s.CurScope().Declare(p)
	e.s.CurScope().Declare(&ast.ParmDecl{DeclBase: ast.DeclBase{Name: "q", Owner: fn}, Type: ast.Int})

	e.local(fn, "n", intLit(3))
	e.local(fn, "m", nil)

	// A nested block sees the enclosing locals.
	e.s.PushScope(ast.ScopeBlock, nil)
	t.Cleanup(e.s.PopScope)
	e.local(fn, "k", intLit(1))

	captures := e.s.ActOnFragmentCapture(at(2))

	var got []string
	for _, c := range captures {
		got = append(got, ast.IgnoreImplicit(c).(*ast.DeclRefExpr).Decl.Base().Name)
	}

	if diff := cmp.Diff([]string{"k", "p", "n"}, got); diff != "" {
		t.Fatalf("captures mismatch (-want +got):\n%s", diff)
	}

	fe := e.classFragment(t, captures, func(c *ast.RecordDecl, phs []*ast.VarDecl) {
		for _, ph := range phs {
			field(c, "x_"+ph.Name, ref(ph))
		}
	})

	frag := fe.(*ast.FragmentExpr).Fragment
	if n := len(frag.Placeholders()); n != len(captures) {
		t.Errorf("%d placeholders for %d captures", n, len(captures))
	}

	closure := ast.AsRecordDecl(fe.Type())
	if closure == nil || !closure.Fragment {
		t.Fatalf("fragment type %v is not a closure class", fe.Type())
	}

	var fields []string
	for _, f := range closure.Fields() {
		fields = append(fields, f.Name)
	}

	if diff := cmp.Diff([]string{"__captured_k", "__captured_p", "__captured_n"}, fields); diff != "" {
		t.Errorf("closure fields mismatch (-want +got):\n%s", diff)
	}

	if init := fe.(*ast.FragmentExpr).Init.(*ast.ConstructExpr); init.Style != ast.ConstructTemporary {
		t.Errorf("construction style = %v", init.Style)
	}
}

func TestFragment_DependentContextDefersClosure(t *testing.T) {
	e := newEnv(t)
	pattern := class(e.u.TU, "P")
	pattern.Dependent = true

	restore := e.s.EnterContext(pattern)
	defer restore()

	fe := e.classFragment(t, nil, func(c *ast.RecordDecl, _ []*ast.VarDecl) {
		field(c, "a", nil)
	})

	x := fe.(*ast.FragmentExpr)
	if x.Init != nil || x.Type() != ast.Type(ast.Dependent) {
		t.Errorf("dependent fragment was resolved: %v", x.Type())
	}
}

func TestInjectFragment_MemberOrder(t *testing.T) {
	e := newEnv(t)
	s := class(e.u.TU, "S")

	restore := e.s.EnterContext(s)
	defer restore()

	fe := e.classFragment(t, nil, func(c *ast.RecordDecl, _ []*ast.VarDecl) {
		field(c, "a", nil)
		m := method(c, "b")
		m.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{X: intLit(1)}}}
		field(c, "c", intLit(2))
	})

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(3), fe)
	if err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, names(s)); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	if len(decls) != 3 {
		t.Errorf("injected %d declarations", len(decls))
	}

	if got := s.Lookup("__content"); len(got) != 0 {
		t.Error("injected the fragment's injected-class-name")
	}

	m := s.Lookup("b")[0].(*ast.MethodDecl)
	if m.Body != nil {
		t.Error("member body instantiated before the class is complete")
	}

	if err := e.s.CompleteDefinition(t.Context(), s); err != nil {
		t.Fatalf("CompleteDefinition: %v", err)
	}

	if m.Body == nil {
		t.Error("member body not instantiated on completion")
	}
}

func TestInjectFragment_ContextMismatch(t *testing.T) {
	e := newEnv(t)
	ns := namespace(e.u.TU, "N")

	restore := e.s.EnterContext(ns)
	defer restore()

	fe := e.classFragment(t, nil, func(c *ast.RecordDecl, _ []*ast.VarDecl) {
		field(c, "a", nil)
	})

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(3), fe)

	d, ok := sema.AsDiagnostic(err)
	if !ok || d.Kind != sema.DiagInvalidInjection {
		t.Fatalf("err = %v, want invalid-injection", err)
	}

	if len(decls) != 0 || len(ns.Members()) != 0 {
		t.Errorf("namespace changed: %v", names(ns))
	}

	if want := "test:3:1: error: cannot inject a class member into a namespace"; d.Error() != want {
		t.Errorf("message = %q", d.Error())
	}
}

func TestInjectFragment_CompleteInjectee(t *testing.T) {
	e := newEnv(t)
	s := class(e.u.TU, "S")
	s.CompleteDefinition()

	restore := e.s.EnterContext(s)
	defer restore()

	fe := e.classFragment(t, nil, func(c *ast.RecordDecl, _ []*ast.VarDecl) {
		field(c, "a", nil)
	})

	_, err := e.s.ActOnInjectionDecl(t.Context(), at(3), fe)
	if d, ok := sema.AsDiagnostic(err); !ok || d.Kind != sema.DiagInjecteeNotBeingDefined {
		t.Fatalf("err = %v", err)
	}
}

func TestInjectFragment_CapturedValues(t *testing.T) {
	e := newEnv(t)
	s := class(e.u.TU, "S")
	fn := e.function(t, "f")
	eval := consteval.New(e.u)

	build := func(name string, v *ast.VarDecl) (ast.Expr, *ast.FragmentDecl) {
		captures := sema.ReferenceCaptures(at(2), []ast.Decl{v})
		fe := e.classFragment(t, captures, func(c *ast.RecordDecl, phs []*ast.VarDecl) {
			field(c, name, ref(phs[0]))
		})

		return fe, fe.(*ast.FragmentExpr).Fragment
	}

	first, firstFrag := build("first", e.local(fn, "n", intLit(1)))
	second, secondFrag := build("second", e.local(fn, "m", intLit(2)))

	for _, tt := range []struct {
		fe   ast.Expr
		frag *ast.FragmentDecl
	}{
		{first, firstFrag},
		{second, secondFrag},
	} {
		v, err := eval.Evaluate(t.Context(), tt.fe)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}

		if _, err := e.s.InjectFragment(t.Context(), at(4), tt.fe.Type(), v, s, tt.frag.Content); err != nil {
			t.Fatalf("InjectFragment: %v", err)
		}
	}

	for name, want := range map[string]int64{"first": 1, "second": 2} {
		f := s.Lookup(name)[0].(*ast.FieldDecl)

		got, err := eval.Evaluate(t.Context(), f.Init)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if got.Int != want {
			t.Errorf("%s = %d, want %d", name, got.Int, want)
		}
	}

	if e.s.Injections().Depth() != 0 {
		t.Error("injection context leaked")
	}
}

func TestInjectFragment_NestedCaptures(t *testing.T) {
	e := newEnv(t)
	s := class(e.u.TU, "S")
	fn := e.function(t, "f")
	eval := consteval.New(e.u)

	constant := func(name string, fe ast.Expr) *ast.VarDecl {
		v := &ast.VarDecl{DeclBase: ast.DeclBase{Name: name}, Constexpr: true, Type: fe.Type(), Init: fe}
		ast.Add(e.u.TU, v)

		return v
	}

	y := e.local(fn, "y", intLit(2))
	inner := constant("inner", e.classFragment(t, sema.ReferenceCaptures(at(2), []ast.Decl{y}),
		func(c *ast.RecordDecl, phs []*ast.VarDecl) {
			field(c, "b", ref(phs[0]))
		}))

	x := e.local(fn, "x", intLit(1))
	outer := constant("outer", e.classFragment(t, sema.ReferenceCaptures(at(3), []ast.Decl{x}),
		func(c *ast.RecordDecl, phs []*ast.VarDecl) {
			field(c, "a", ref(phs[0]))
			ast.Add(c, &ast.ConstexprDecl{
				DeclBase: ast.DeclBase{Pos: at(3)},
				Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
					&ast.InjectionStmt{StmtBase: ast.StmtBase{Pos: at(3)}, Reflection: ref(inner)},
				}},
			})
		}))

	restore := e.s.EnterContext(s)
	defer restore()

	if _, err := e.s.ActOnInjectionDecl(t.Context(), at(4), ref(outer)); err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, names(s)); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	for name, want := range map[string]int64{"a": 1, "b": 2} {
		f := s.Lookup(name)[0].(*ast.FieldDecl)

		got, err := eval.Evaluate(t.Context(), f.Init)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if got.Int != want {
			t.Errorf("%s = %d, want %d", name, got.Int, want)
		}
	}

	if e.s.Injections().Depth() != 0 {
		t.Error("injection context leaked")
	}
}

func TestInjectFragment_BestEffort(t *testing.T) {
	e := newEnv(t)
	s := class(e.u.TU, "S")

	restore := e.s.EnterContext(s)
	defer restore()

	fe := e.classFragment(t, nil, func(c *ast.RecordDecl, _ []*ast.VarDecl) {
		field(c, "a", nil)
		ast.Add(c, &ast.FieldDecl{
			DeclBase: ast.DeclBase{Name: "bad", Access: ast.AccessPublic},
			Type:     ast.Dependent,
		})
		field(c, "c", nil)
	})

	_, err := e.s.ActOnInjectionDecl(t.Context(), at(3), fe)
	if !errors.Is(err, sema.ErrIncompleteInjection) {
		t.Fatalf("err = %v, want incomplete injection", err)
	}

	if !e.s.Diagnostics().Has(sema.DiagUnresolvedDependentType) {
		t.Errorf("diagnostics = %v", e.s.Diagnostics().Kinds())
	}

	if diff := cmp.Diff([]string{"a", "c"}, names(s)); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	if !s.Invalid {
		t.Error("injectee not marked invalid")
	}
}
