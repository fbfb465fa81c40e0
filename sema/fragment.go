package sema

import (
	"log/slog"
	"strconv"

	"github.com/ardnew/splice/ast"
)

// Name prefixes of the closure class members synthesized for a fragment.
const (
	capturedFieldPrefix = "__captured_"
	capturedParmPrefix  = "__parm_"
)

// BuildFragmentExpr builds the expression for frag with the given captures.
//
// In a dependent context the expression stays unresolved. Otherwise a
// closure class is synthesized: it derives from the reflection of the
// fragment's content, holds one field per capture, and has a constexpr
// constructor initializing the fields from its arguments. The expression's
// value is a construction of that class from the captures.
func (s *Sema) BuildFragmentExpr(pos ast.Loc, captures []ast.Expr, frag *ast.FragmentDecl) (ast.Expr, error) {
	if ast.IsDependentContext(s.cur) {
		return &ast.FragmentExpr{
			ExprBase: ast.ExprBase{Pos: pos, Ty: ast.Dependent},
			Captures: captures,
			Fragment: frag,
		}, nil
	}

	if frag == nil || frag.Content == nil {
		return nil, s.Diag(pos, DiagReflectionNotDecl)
	}

	class, ctor := s.buildClosureClass(pos, captures, frag)

	init := &ast.ConstructExpr{
		ExprBase: ast.ExprBase{Pos: pos, Ty: class.Type()},
		Ctor:     ctor,
		Args:     captures,
		Style:    ast.ConstructTemporary,
	}
	if len(captures) == 1 {
		init.Style = ast.ConstructFunctionalCast
	}

	s.logger.Trace("fragment",
		slog.String("content", ast.QualifiedName(frag.Content)),
		slog.Int("captures", len(captures)),
	)

	return &ast.FragmentExpr{
		ExprBase: ast.ExprBase{Pos: pos, Ty: class.Type()},
		Captures: captures,
		Fragment: frag,
		Init:     init,
	}, nil
}

func (s *Sema) buildClosureClass(
	pos ast.Loc,
	captures []ast.Expr,
	frag *ast.FragmentDecl,
) (*ast.RecordDecl, *ast.ConstructorDecl) {
	base := s.Unit.Meta.ReflectionType(ast.DeclConstruct(frag.Content))

	class := &ast.RecordDecl{
		DeclBase: ast.DeclBase{Name: "__fragment", Pos: pos, Owner: s.cur, Implicit: true},
		Tag:      ast.TagStruct,
		Bases:    []ast.BaseSpec{{Type: base, Access: ast.AccessPublic}},
		Fragment: true,
	}
	class.StartDefinition()

	ctor := &ast.ConstructorDecl{
		MethodDecl: ast.MethodDecl{FunctionDecl: ast.FunctionDecl{
			DeclBase:  ast.DeclBase{Name: class.Name, Pos: pos, Access: ast.AccessPublic, Implicit: true},
			Result:    ast.Void,
			Body:      &ast.CompoundStmt{StmtBase: ast.StmtBase{Pos: pos}},
			Constexpr: true,
		}},
		Explicit: true,
	}
	ctor.Inits = []*ast.CtorInit{{
		Base: base,
		Init: &ast.ParenListExpr{ExprBase: ast.ExprBase{Pos: pos, Ty: base}},
	}}

	for i, c := range captures {
		name := captureName(c, i)

		field := &ast.FieldDecl{
			DeclBase: ast.DeclBase{Name: capturedFieldPrefix + name, Pos: c.Loc(), Access: ast.AccessPublic, Implicit: true},
			Type:     c.Type(),
		}
		ast.Add(class, field)

		parm := &ast.ParmDecl{
			DeclBase: ast.DeclBase{Name: capturedParmPrefix + name, Pos: c.Loc(), Owner: ctor},
			Type:     c.Type(),
			Index:    i,
		}
		ctor.Params = append(ctor.Params, parm)

		ctor.Inits = append(ctor.Inits, &ast.CtorInit{
			Member: field,
			Init: ast.RValueOf(&ast.DeclRefExpr{
				ExprBase: ast.ExprBase{Pos: c.Loc(), Ty: c.Type()},
				Decl:     parm,
			}),
		})
	}

	ast.Add(class, ctor)
	class.CompleteDefinition()

	return class, ctor
}

func captureName(c ast.Expr, i int) string {
	if ref, ok := ast.IgnoreImplicit(c).(*ast.DeclRefExpr); ok {
		if n := ref.Decl.Base().Name; n != "" {
			return n
		}
	}

	return "capture" + strconv.Itoa(i)
}
