package unit

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/splice/ast"
)

// visible reports whether name lookup may find d.
func visible(d ast.Decl) bool {
	if d.Base().Name == "" {
		return false
	}

	r, ok := d.(*ast.RecordDecl)

	return !ok || !r.InjectedClassName
}

// member returns the member of c named name, looking through inline
// namespaces.
func member(c ast.Context, name string) ast.Decl {
	for _, d := range c.Lookup(name) {
		if visible(d) {
			return d
		}
	}

	for _, m := range c.Members() {
		if ns, ok := m.(*ast.NamespaceDecl); ok && ns.Inline {
			if d := member(ns, name); d != nil {
				return d
			}
		}
	}

	return nil
}

// lookup resolves an unqualified name: lexical scopes first, then the
// members of every enclosing context.
func (l *Loader) lookup(pos ast.Loc, name string) (ast.Decl, error) {
	if d := l.sema.CurScope().Lookup(name); d != nil && visible(d) {
		return d, nil
	}

	for c := l.sema.CurContext(); c != nil; c = c.Base().Owner {
		if d := member(c, name); d != nil {
			return d, nil
		}
	}

	return nil, l.unknown(pos, name, l.candidates())
}

// qualified resolves a dotted name.
func (l *Loader) qualified(pos ast.Loc, path string) (ast.Decl, error) {
	parts := strings.Split(path, ".")

	d, err := l.lookup(pos, parts[0])
	if err != nil {
		return nil, err
	}

	for _, part := range parts[1:] {
		if d, err = l.within(pos, d, part); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// within resolves name as a member of the context d.
func (l *Loader) within(pos ast.Loc, d ast.Decl, name string) (ast.Decl, error) {
	c, ok := d.(ast.Context)
	if !ok {
		return nil, ErrUnknownName.With(
			slog.String("name", name),
			slog.String("scope", ast.QualifiedName(d)),
			slog.String("loc", pos.String()),
			slog.String("reason", "not a scope"),
		)
	}

	if m := member(c, name); m != nil {
		return m, nil
	}

	var names []string
	collect(c, &names)

	return nil, l.unknown(pos, name, names)
}

func collect(c ast.Context, names *[]string) {
	for _, m := range c.Members() {
		if visible(m) {
			*names = append(*names, m.Base().Name)
		}

		if ns, ok := m.(*ast.NamespaceDecl); ok && ns.Inline {
			collect(ns, names)
		}
	}
}

// candidates returns every name visible from the current position.
func (l *Loader) candidates() []string {
	var names []string

	for s := l.sema.CurScope(); s != nil; s = s.Parent {
		for _, d := range s.Decls() {
			if visible(d) {
				names = append(names, d.Base().Name)
			}
		}
	}

	for c := l.sema.CurContext(); c != nil; c = c.Base().Owner {
		collect(c, &names)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// unknown reports name as unresolved, suggesting the closest candidate.
func (l *Loader) unknown(pos ast.Loc, name string, candidates []string) error {
	err := ErrUnknownName.With(
		slog.String("name", name),
		slog.String("loc", pos.String()),
	)

	if s := suggest(name, candidates); s != "" {
		err = err.With(slog.String("suggestion", s))
	}

	return err
}

func suggest(name string, candidates []string) string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

// builtinTypes maps type names to builtin types.
//
//nolint:gochecknoglobals
var builtinTypes = map[string]ast.Type{
	"void":   ast.Void,
	"bool":   ast.Bool,
	"int":    ast.Int,
	"double": ast.Double,
	"string": ast.String,
	"auto":   ast.Dependent,
}

// typ resolves a type name. The empty name yields def.
func (l *Loader) typ(pos ast.Loc, name string, def ast.Type) (ast.Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return def, nil
	}

	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}

	d, err := l.qualified(pos, name)
	if err != nil {
		return nil, err
	}

	return declaredType(pos, d)
}

func declaredType(pos ast.Loc, d ast.Decl) (ast.Type, error) {
	switch x := d.(type) {
	case *ast.RecordDecl:
		return x.Type(), nil
	case *ast.TypeAliasDecl:
		return &ast.AliasType{Decl: x}, nil
	}

	return nil, ErrNotAType.With(
		slog.String("name", ast.QualifiedName(d)),
		slog.String("kind", d.Kind().String()),
		slog.String("loc", pos.String()),
	)
}
