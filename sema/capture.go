package sema

import (
	"github.com/ardnew/splice/ast"
)

// FindCaptures returns the local variables visible from scope that a
// fragment written there captures: local variables with an initializer and
// parameters with a default argument. Scopes are searched from scope
// outward, stopping after the scope of the enclosing function fn;
// declarations within a scope keep their order.
func FindCaptures(scope *ast.Scope, fn ast.Context) []ast.Decl {
	var found []ast.Decl

	for sc := scope; sc != nil; sc = sc.Parent {
		for _, d := range sc.Decls() {
			if capturable(d) {
				found = append(found, d)
			}
		}

		if fn != nil && sc.Entity == fn {
			break
		}
	}

	return found
}

func capturable(d ast.Decl) bool {
	switch x := d.(type) {
	case *ast.VarDecl:
		return !x.Placeholder && x.LocalStorage() && x.Init != nil
	case *ast.ParmDecl:
		return x.Default != nil
	default:
		return false
	}
}

// ReferenceCaptures returns an rvalue reference expression for each
// captured declaration.
func ReferenceCaptures(pos ast.Loc, decls []ast.Decl) []ast.Expr {
	refs := make([]ast.Expr, 0, len(decls))

	for _, d := range decls {
		refs = append(refs, ast.RValueOf(&ast.DeclRefExpr{
			ExprBase: ast.ExprBase{Pos: pos, Ty: declType(d)},
			Decl:     d,
		}))
	}

	return refs
}

// ActOnFragmentCapture computes the captures of a fragment about to be
// written in the current scope.
func (s *Sema) ActOnFragmentCapture(pos ast.Loc) []ast.Expr {
	return ReferenceCaptures(pos, FindCaptures(s.scope, ast.EnclosingFunction(s.cur)))
}

// ActOnStartFragment creates a fragment and declares one placeholder in
// scope for each capture, with the captured variable's name. The fragment
// becomes the current context until [Sema.ActOnFinishFragment].
func (s *Sema) ActOnStartFragment(scope *ast.Scope, pos ast.Loc, captures []ast.Expr) *ast.FragmentDecl {
	frag := &ast.FragmentDecl{
		DeclBase: ast.DeclBase{Pos: pos, Owner: s.cur, Implicit: true},
	}

	for _, c := range captures {
		name := ""
		if ref, ok := ast.IgnoreImplicit(c).(*ast.DeclRefExpr); ok {
			name = ref.Decl.Base().Name
		}

		ph := &ast.VarDecl{
			DeclBase: ast.DeclBase{Name: name, Pos: c.Loc(), Implicit: true},
			Type:     ast.Dependent,
			Init: &ast.OpaqueValueExpr{
				ExprBase: ast.ExprBase{Pos: c.Loc(), Ty: ast.Dependent},
			},
			Storage:     ast.StorageStatic,
			Constexpr:   true,
			Placeholder: true,
		}
		ast.Add(frag, ph)

		if scope != nil {
			scope.Declare(ph)
		}
	}

	s.PushDeclContext(frag)

	return frag
}

// ActOnFinishFragment attaches content to frag and restores the context
// saved by [Sema.ActOnStartFragment]. A nil content reports a failed
// fragment body and yields nil.
func (s *Sema) ActOnFinishFragment(frag *ast.FragmentDecl, content ast.Context) *ast.FragmentDecl {
	s.PopDeclContext()

	if frag == nil || content == nil {
		return nil
	}

	frag.Content = content
	content.Base().Owner = frag

	return frag
}

// declType returns the type of a value declaration, or nil.
func declType(d ast.Decl) ast.Type {
	switch x := d.(type) {
	case *ast.VarDecl:
		return x.Type
	case *ast.ParmDecl:
		return x.Type
	case *ast.FieldDecl:
		return x.Type
	case ast.Function:
		return x.Func().Type()
	default:
		return nil
	}
}
