package sema_test

import (
	"bytes"
	"testing"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/consteval"
	"github.com/ardnew/splice/sema"
)

type env struct {
	u   *ast.Unit
	s   *sema.Sema
	out *bytes.Buffer
}

func newEnv(t *testing.T, opts ...sema.Option) *env {
	t.Helper()

	u := ast.NewUnit("test")
	out := &bytes.Buffer{}
	opts = append([]sema.Option{
		sema.WithEvaluator(consteval.New(u)),
		sema.WithOutput(out),
	}, opts...)

	return &env{u: u, s: sema.New(u, opts...), out: out}
}

func at(line int) ast.Loc { return ast.Loc{File: "test", Line: line, Col: 1} }

func intLit(n int64) *ast.IntLit {
	return &ast.IntLit{ExprBase: ast.ExprBase{Ty: ast.Int}, Value: n}
}

func ref(d ast.Decl) *ast.DeclRefExpr {
	var t ast.Type

	switch x := d.(type) {
	case *ast.VarDecl:
		t = x.Type
	case *ast.ParmDecl:
		t = x.Type
	case *ast.FieldDecl:
		t = x.Type
	}

	return &ast.DeclRefExpr{ExprBase: ast.ExprBase{Ty: t}, Decl: d}
}

// class declares a class being defined in owner.
func class(owner ast.Context, name string) *ast.RecordDecl {
	r := &ast.RecordDecl{DeclBase: ast.DeclBase{Name: name}, Tag: ast.TagClass}
	ast.Add(owner, r)
	r.StartDefinition()

	return r
}

func namespace(owner ast.Context, name string) *ast.NamespaceDecl {
	ns := &ast.NamespaceDecl{DeclBase: ast.DeclBase{Name: name}}
	ast.Add(owner, ns)

	return ns
}

func field(owner ast.Context, name string, init ast.Expr) *ast.FieldDecl {
	f := &ast.FieldDecl{
		DeclBase: ast.DeclBase{Name: name, Access: ast.AccessPublic},
		Type:     ast.Int,
		Init:     init,
	}
	ast.Add(owner, f)

	return f
}

func method(owner ast.Context, name string) *ast.MethodDecl {
	m := &ast.MethodDecl{FunctionDecl: ast.FunctionDecl{
		DeclBase: ast.DeclBase{Name: name, Access: ast.AccessPublic},
		Result:   ast.Int,
	}}
	ast.Add(owner, m)

	return m
}

// names returns the names of the explicit named members of c.
func names(c ast.Context) []string {
	var out []string

	for _, m := range c.Members() {
		if b := m.Base(); !b.Implicit && b.Name != "" {
			out = append(out, m.Base().Name)
		}
	}

	return out
}

// classFragment builds a class fragment in the current context of e. The
// body function declares the content's members; it receives the
// placeholders.
func (e *env) classFragment(
	t *testing.T,
	captures []ast.Expr,
	body func(content *ast.RecordDecl, placeholders []*ast.VarDecl),
) ast.Expr {
	t.Helper()

	scope := e.s.PushScope(ast.ScopeFragment, nil)
	frag := e.s.ActOnStartFragment(scope, at(1), captures)

	content := &ast.RecordDecl{DeclBase: ast.DeclBase{Name: "__content", Pos: at(1)}, Tag: ast.TagStruct}
	content.Owner = frag
	content.StartDefinition()
	body(content, frag.Placeholders())
	content.CompleteDefinition()

	frag = e.s.ActOnFinishFragment(frag, content)
	e.s.PopScope()

	fe, err := e.s.BuildFragmentExpr(at(1), captures, frag)
	if err != nil {
		t.Fatalf("BuildFragmentExpr: %v", err)
	}

	return fe
}

// modify wraps a reflection of d with the given traits.
func (e *env) modify(d ast.Decl, traits map[ast.Trait]int64) ast.Expr {
	var x ast.Expr = e.u.Reflect(at(1), ast.DeclConstruct(d))

	for _, tr := range []ast.Trait{
		ast.TraitLinkage, ast.TraitAccess, ast.TraitStorage,
		ast.TraitConstexpr, ast.TraitVirtual, ast.TraitPure,
	} {
		if arg, ok := traits[tr]; ok {
			x = &ast.ModifyExpr{ExprBase: ast.ExprBase{Ty: x.Type()}, Trait: tr, Arg: arg, X: x}
		}
	}

	return x
}
