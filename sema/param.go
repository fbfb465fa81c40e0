package sema

import (
	"log/slog"

	"github.com/ardnew/splice/ast"
)

// BuildInjectedParmType returns the placeholder type of a parameter
// declared from a dependent reflection.
func (s *Sema) BuildInjectedParmType(refl ast.Expr) ast.Type {
	return &ast.InjectedParmType{Reflection: refl}
}

// ActOnInjectedParameter expands the reflection refl into parameters of the
// prototype being declared in the current scope and appends them to parms.
//
// A reflection of a whole parameter list contributes a copy of every
// parameter of the reflected function; a reflection of one parameter
// contributes a copy of it. A dependent reflection contributes a single
// parameter of injected-parameter type that is expanded on substitution.
func (s *Sema) ActOnInjectedParameter(
	pos ast.Loc,
	refl ast.Expr,
	parms []*ast.ParmDecl,
) ([]*ast.ParmDecl, error) {
	if ast.IsDependentExpr(refl) {
		p := &ast.ParmDecl{
			DeclBase: ast.DeclBase{Pos: pos},
			Type:     s.BuildInjectedParmType(refl),
			Depth:    s.scope.PrototypeDepth(),
			Index:    s.scope.NextPrototypeIndex(),
		}
		s.scope.Declare(p)

		return append(parms, p), nil
	}

	src, err := s.reflectedParms(pos, refl.Type())
	if err != nil {
		return parms, err
	}

	depth := s.scope.PrototypeDepth()

	for _, p := range src {
		clone := &ast.ParmDecl{
			DeclBase: ast.DeclBase{Name: p.Name, Pos: pos},
			Type:     p.Type,
			Default:  p.Default,
			Depth:    depth,
			Index:    s.scope.NextPrototypeIndex(),
			Injected: true,
		}
		s.scope.Declare(clone)
		parms = append(parms, clone)
	}

	s.logger.Trace("inject parameters",
		slog.Int("count", len(src)),
		slog.Int("depth", depth),
	)

	return parms, nil
}

// reflectedParms returns the parameters denoted by a reflection of type t.
func (s *Sema) reflectedParms(pos ast.Loc, t ast.Type) ([]*ast.ParmDecl, error) {
	if ft, ok := s.ReferencesFunction(t); ok {
		d, err := s.DeclFromReflectionType(pos, ft)
		if err != nil {
			return nil, err
		}

		if fn, ok := ast.AsFunction(d); ok {
			return fn.Params, nil
		}
	}

	if pt, ok := s.ReferencesParameter(t); ok {
		d, err := s.DeclFromReflectionType(pos, pt)
		if err != nil {
			return nil, err
		}

		if p, ok := d.(*ast.ParmDecl); ok {
			return []*ast.ParmDecl{p}, nil
		}
	}

	return nil, s.Diag(pos, DiagInvalidParameter, typeName(t))
}

func typeName(t ast.Type) string {
	if t == nil {
		return "<null>"
	}

	return t.String()
}
