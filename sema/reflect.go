package sema

import (
	"github.com/ardnew/splice/ast"
)

// IsReflectionType reports whether t is the type of a reflection: a
// specialization of a meta class template or a fragment closure class.
func (s *Sema) IsReflectionType(t ast.Type) bool {
	rec := ast.AsRecordDecl(t)
	if rec == nil {
		return false
	}

	if rec.Fragment {
		return true
	}

	return rec.Template != nil && s.Unit.Meta.Owns(rec)
}

// EvaluateReflection returns the construct a reflection of type t denotes.
// A fragment closure type denotes the content its base reflects. Types that
// are not reflections denote nothing.
func (s *Sema) EvaluateReflection(t ast.Type) ast.Construct {
	for {
		rec := ast.AsRecordDecl(t)
		if rec == nil {
			return ast.Construct{}
		}

		if rec.Fragment {
			if len(rec.Bases) == 0 {
				return ast.Construct{}
			}

			t = rec.Bases[0].Type

			continue
		}

		if rec.Template == nil || !s.Unit.Meta.Owns(rec) || len(rec.Template.Args) == 0 {
			return ast.Construct{}
		}

		arg := rec.Template.Args[0]
		if arg.Construct.IsValid() {
			return arg.Construct
		}

		if arg.Type != nil {
			return ast.TypeConstruct(arg.Type)
		}

		return ast.Construct{}
	}
}

// DeclFromReflectionType returns the declaration reflected by a value of
// type t. A reflected record type yields its declaration.
func (s *Sema) DeclFromReflectionType(pos ast.Loc, t ast.Type) (ast.Decl, error) {
	return s.declFromConstruct(pos, s.EvaluateReflection(t))
}

// DeclFromValue returns the declaration a reflection value denotes.
func (s *Sema) DeclFromValue(pos ast.Loc, v ast.Value) (ast.Decl, error) {
	return s.declFromConstruct(pos, v.Reflected())
}

func (s *Sema) declFromConstruct(pos ast.Loc, c ast.Construct) (ast.Decl, error) {
	if c.IsDecl() {
		return c.Decl(), nil
	}

	if c.IsType() {
		if rec := ast.AsRecordDecl(c.Type()); rec != nil {
			return rec, nil
		}
	}

	return nil, s.Diag(pos, DiagReflectionNotDecl)
}

// reflectionOf resolves the declaration denoted by a reflection of static
// type t and value v. The static type is preferred; the value decides when
// the type is not a reflection type.
func (s *Sema) reflectionOf(pos ast.Loc, t ast.Type, v ast.Value) (ast.Decl, error) {
	if s.IsReflectionType(t) {
		return s.DeclFromReflectionType(pos, t)
	}

	if v.Record != nil && s.IsReflectionType(v.Record.Type()) {
		return s.DeclFromReflectionType(pos, v.Record.Type())
	}

	return s.DeclFromValue(pos, v)
}

// ReferencesFunction reports whether t reflects the whole parameter list of
// a function. It matches function<X> and reflected_tuple<P> where P is the
// parm_info member of function<X> or method<X>, and returns the function's
// reflection type.
func (s *Sema) ReferencesFunction(t ast.Type) (ast.Type, bool) {
	rec := s.metaSpecialization(t)
	if rec == nil {
		return nil, false
	}

	switch rec.Template.Name {
	case ast.TemplateFunction:
		return rec.Type(), true
	case ast.TemplateTuple:
		if len(rec.Template.Args) != 1 || rec.Template.Args[0].Type == nil {
			return nil, false
		}

		info := ast.AsRecordDecl(rec.Template.Args[0].Type)
		if info == nil || info.Name != ast.ParmInfo {
			return nil, false
		}

		owner, ok := info.Owner.(*ast.RecordDecl)
		if !ok || s.metaSpecialization(owner.Type()) == nil {
			return nil, false
		}

		switch owner.Template.Name {
		case ast.TemplateFunction, ast.TemplateMethod:
			return owner.Type(), true
		}
	}

	return nil, false
}

// ReferencesParameter reports whether t reflects a single parameter.
func (s *Sema) ReferencesParameter(t ast.Type) (ast.Type, bool) {
	rec := s.metaSpecialization(t)
	if rec == nil || rec.Template.Name != ast.TemplateParameter {
		return nil, false
	}

	return rec.Type(), true
}

func (s *Sema) metaSpecialization(t ast.Type) *ast.RecordDecl {
	rec := ast.AsRecordDecl(t)
	if rec == nil || rec.Template == nil || !s.Unit.Meta.Owns(rec) {
		return nil
	}

	return rec
}

// BuildReflectedType returns the type denoted by the reflection refl.
func (s *Sema) BuildReflectedType(pos ast.Loc, refl ast.Expr) (ast.Type, error) {
	if ast.IsDependentExpr(refl) {
		return ast.Dependent, nil
	}

	c := s.EvaluateReflection(refl.Type())
	if t := c.Type(); t != nil {
		return t, nil
	}

	return nil, s.Diag(pos, DiagReflectionNotType)
}
