package sema

import (
	"log/slog"
	"maps"

	"github.com/ardnew/splice/ast"
)

// InjectionContext is the state of one injection: the declaration
// substitutions that map fragment or source declarations to their clones,
// and the values that replace a fragment's placeholders.
//
// An InjectionContext never overwrites an entry. It lives on an
// [InjectionStack] for the duration of one injection.
type InjectionContext struct {
	parent *InjectionContext

	// Injectee is the context receiving the injected declarations.
	Injectee ast.Context

	decls        map[ast.Decl]ast.Decl
	placeholders map[*ast.VarDecl]TypedValue
}

// TypedValue is a constant value together with its static type.
type TypedValue struct {
	Type  ast.Type
	Value ast.Value
}

func newInjectionContext(parent *InjectionContext, injectee ast.Context) *InjectionContext {
	return &InjectionContext{
		parent:       parent,
		Injectee:     injectee,
		decls:        make(map[ast.Decl]ast.Decl),
		placeholders: make(map[*ast.VarDecl]TypedValue),
	}
}

// Parent returns the injection context that was current when ic was pushed.
func (ic *InjectionContext) Parent() *InjectionContext { return ic.parent }

// AddDeclSubstitution maps orig to repl. It panics if orig is already
// mapped.
func (ic *InjectionContext) AddDeclSubstitution(orig, repl ast.Decl) {
	if _, ok := ic.decls[orig]; ok {
		panic(ErrOverwriteSubstitution.With(slog.String("decl", ast.QualifiedName(orig))))
	}

	ic.decls[orig] = repl
}

// AddPlaceholderSubstitution records that references to the placeholder
// orig are replaced by v of type t. It panics if orig is not a placeholder
// or is already mapped.
func (ic *InjectionContext) AddPlaceholderSubstitution(orig ast.Decl, t ast.Type, v ast.Value) {
	ph, ok := orig.(*ast.VarDecl)
	if !ok || !ph.Placeholder {
		panic(ErrNotPlaceholder.With(slog.String("decl", orig.Base().Name)))
	}

	if _, ok := ic.placeholders[ph]; ok {
		panic(ErrOverwriteSubstitution.With(slog.String("placeholder", ph.Name)))
	}

	ic.placeholders[ph] = TypedValue{Type: t, Value: v}
}

// AddPlaceholderSubstitutions pairs the placeholders of frag with the fields
// of its closure class and the captured values, positionally. It panics if
// the three counts differ.
func (ic *InjectionContext) AddPlaceholderSubstitutions(
	frag *ast.FragmentDecl,
	class *ast.RecordDecl,
	captures []ast.Value,
) {
	var placeholders []*ast.VarDecl
	if frag != nil {
		placeholders = frag.Placeholders()
	}

	var fields []*ast.FieldDecl
	if class != nil {
		fields = class.Fields()
	}

	if len(placeholders) != len(captures) || len(fields) != len(captures) {
		panic(ErrCaptureMismatch.With(
			slog.Int("placeholders", len(placeholders)),
			slog.Int("fields", len(fields)),
			slog.Int("captures", len(captures)),
		))
	}

	for i, ph := range placeholders {
		ic.AddPlaceholderSubstitution(ph, fields[i].Type, captures[i])
	}
}

// GetDeclReplacement returns the declaration d is mapped to.
func (ic *InjectionContext) GetDeclReplacement(d ast.Decl) (ast.Decl, bool) {
	r, ok := ic.decls[d]

	return r, ok
}

// GetPlaceholderReplacement returns the constant that replaces a reference
// to a placeholder, or nil if ref does not name a mapped placeholder.
func (ic *InjectionContext) GetPlaceholderReplacement(ref *ast.DeclRefExpr) ast.Expr {
	ph, ok := ref.Decl.(*ast.VarDecl)
	if !ok || !ph.Placeholder {
		return nil
	}

	tv, ok := ic.placeholders[ph]
	if !ok {
		return nil
	}

	return &ast.ConstantExpr{
		ExprBase: ast.ExprBase{Pos: ref.Pos, Ty: tv.Type},
		Sub: &ast.OpaqueValueExpr{
			ExprBase: ast.ExprBase{Pos: ref.Pos, Ty: tv.Type},
			Source:   ref,
		},
		Value: tv.Value.Clone(),
	}
}

// snapshot returns a detached copy of ic's substitutions for use after ic
// is released.
func (ic *InjectionContext) snapshot() *InjectionContext {
	c := newInjectionContext(nil, ic.Injectee)
	c.decls = maps.Clone(ic.decls)
	c.placeholders = maps.Clone(ic.placeholders)

	return c
}

// InjectionStack is the LIFO stack of active injection contexts. The zero
// value is empty.
type InjectionStack struct {
	top   *InjectionContext
	depth int
}

// Current returns the innermost active injection context, or nil.
func (st *InjectionStack) Current() *InjectionContext { return st.top }

// Depth returns the number of active injection contexts.
func (st *InjectionStack) Depth() int { return st.depth }

// Push activates a new injection context for injectee. The returned
// function releases it; contexts must be released in reverse order.
func (st *InjectionStack) Push(injectee ast.Context) (*InjectionContext, func()) {
	return st.push(newInjectionContext(st.top, injectee))
}

func (st *InjectionStack) push(ic *InjectionContext) (*InjectionContext, func()) {
	ic.parent = st.top
	st.top = ic
	st.depth++

	return ic, func() {
		if st.top != ic {
			panic(ErrUnbalancedInjection)
		}

		st.top = ic.parent
		st.depth--
	}
}
