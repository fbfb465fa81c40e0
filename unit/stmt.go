package unit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/splice/ast"
)

// kind returns the key that selects the kind of st. A fragment written
// alone is injected.
func (st *Stmt) kind() (string, error) {
	var found []string

	for _, k := range []struct {
		name string
		set  bool
	}{
		{"let", st.Let != ""},
		{"expr", st.Expr != ""},
		{"inject", st.Inject != ""},
		{"extend", st.Extend != ""},
		{"print", st.Print != ""},
		{"return", st.Return != nil},
	} {
		if k.set {
			found = append(found, k.name)
		}
	}

	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) == 0 && st.Fragment != nil:
		return "inject", nil
	}

	reason := "no kind"
	if len(found) > 1 {
		reason = "conflicting kinds: " + strings.Join(found, ", ")
	}

	return "", ErrDocument.With(
		slog.String("loc", st.Pos.String()),
		slog.String("reason", reason),
	)
}

// block builds a statement list. Local variables are declared in the
// current scope and context.
func (l *Loader) block(ctx context.Context, pos ast.Loc, stmts []*Stmt) (*ast.CompoundStmt, error) {
	body := &ast.CompoundStmt{StmtBase: ast.StmtBase{Pos: pos}}

	for _, st := range stmts {
		if st == nil {
			continue
		}

		s, err := l.stmt(ctx, st)
		if err != nil {
			return nil, err
		}

		body.Stmts = append(body.Stmts, s)
	}

	return body, nil
}

// operand returns the fragment of st if it has one, otherwise the
// expression src.
func (l *Loader) operand(ctx context.Context, st *Stmt, src string) (ast.Expr, error) {
	if st.Fragment != nil {
		return l.fragment(ctx, st.Pos, st.Fragment)
	}

	return l.expr(st.Pos, src)
}

func (l *Loader) stmt(ctx context.Context, st *Stmt) (ast.Stmt, error) {
	kind, err := st.kind()
	if err != nil {
		return nil, err
	}

	base := ast.StmtBase{Pos: st.Pos}

	switch kind {
	case "let":
		return l.let(ctx, st)

	case "expr":
		x, err := l.expr(st.Pos, st.Expr)
		if err != nil {
			return nil, err
		}

		return &ast.ExprStmt{StmtBase: base, X: x}, nil

	case "inject":
		refl, err := l.operand(ctx, st, st.Inject)
		if err != nil {
			return nil, err
		}

		return l.sema.BuildInjectionStmt(st.Pos, refl)

	case "extend":
		target, err := l.expr(st.Pos, st.Extend)
		if err != nil {
			return nil, err
		}

		refl, err := l.operand(ctx, st, st.With)
		if err != nil {
			return nil, err
		}

		return l.sema.BuildExtensionStmt(st.Pos, target, refl)

	case "print":
		refl, err := l.expr(st.Pos, st.Print)
		if err != nil {
			return nil, err
		}

		return l.sema.BuildPrintStmt(st.Pos, refl)
	}

	x, err := l.expr(st.Pos, *st.Return)
	if err != nil {
		return nil, err
	}

	return &ast.ReturnStmt{StmtBase: base, X: x}, nil
}

func (l *Loader) let(ctx context.Context, st *Stmt) (ast.Stmt, error) {
	t, err := l.typ(st.Pos, st.Type, ast.Dependent)
	if err != nil {
		return nil, err
	}

	init, err := l.operand(ctx, st, st.Init)
	if err != nil {
		return nil, err
	}

	v := &ast.VarDecl{
		DeclBase: ast.DeclBase{Name: st.Let, Pos: st.Pos},
		Type:     settle(t, init),
		Init:     init,
	}
	l.declare(v)

	return &ast.DeclStmt{StmtBase: ast.StmtBase{Pos: st.Pos}, Decls: []ast.Decl{v}}, nil
}

// fragment builds a fragment expression. The fragment captures the local
// variables visible where it is written.
func (l *Loader) fragment(ctx context.Context, pos ast.Loc, f *Fragment) (ast.Expr, error) {
	captures := l.sema.ActOnFragmentCapture(pos)

	scope := l.sema.PushScope(ast.ScopeFragment, nil)
	frag := l.sema.ActOnStartFragment(scope, pos, captures)

	content, err := l.content(ctx, pos, frag, f)

	frag = l.sema.ActOnFinishFragment(frag, content)
	l.sema.PopScope()

	if err != nil {
		return nil, err
	}

	l.logger.TraceContext(ctx, "fragment",
		slog.String("loc", pos.String()),
		slog.String("kind", f.Kind),
		slog.Int("captures", len(captures)),
	)

	return l.sema.BuildFragmentExpr(pos, captures, frag)
}

// content builds the body of frag.
func (l *Loader) content(ctx context.Context, pos ast.Loc, frag *ast.FragmentDecl, f *Fragment) (ast.Context, error) {
	switch f.Kind {
	case "namespace":
		ns := &ast.NamespaceDecl{DeclBase: ast.DeclBase{Pos: pos}}
		ns.Owner = frag

		restore := l.sema.EnterContext(ns)
		l.sema.PushScope(ast.ScopeNamespace, ns)
		err := l.decls(ctx, f.Members)
		l.sema.PopScope()
		restore()

		return ns, err

	case "", "class", "struct":
		rec := &ast.RecordDecl{DeclBase: ast.DeclBase{Pos: pos}, Tag: tag(f.Kind)}
		rec.Owner = frag
		rec.StartDefinition()

		return rec, l.define(ctx, rec, f.Members)
	}

	return nil, ErrDocument.With(
		slog.String("loc", pos.String()),
		slog.String("kind", f.Kind),
		slog.String("reason", "unknown fragment kind"),
	)
}
