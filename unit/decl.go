package unit

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// kinds are the keys that select a declaration's kind, in the order they
// are reported by error messages.
//
//nolint:gochecknoglobals
var kinds = []string{
	"namespace", "class", "struct", "field", "var", "function", "method",
	"constructor", "destructor", "alias", "inject", "constexpr", "fragment",
	"generate", "instantiate",
}

// kind returns the key that selects the kind of d.
func (d *Decl) kind() (string, error) {
	set := map[string]bool{
		"namespace":   d.Namespace != "",
		"class":       d.Class != "",
		"struct":      d.Struct != "",
		"field":       d.Field != "",
		"var":         d.Var != "",
		"function":    d.Function != "",
		"method":      d.Method != "",
		"constructor": d.Constructor,
		"destructor":  d.Destructor,
		"alias":       d.Alias != "",
		"inject":      d.Inject != "",
		"constexpr":   d.Constexpr != nil,
		"fragment":    d.Fragment != "",
		"generate":    d.Generate != "",
		"instantiate": d.Instantiate != "",
	}

	var found []string

	for _, k := range kinds {
		if set[k] {
			found = append(found, k)
		}
	}

	if len(found) == 1 {
		return found[0], nil
	}

	reason := "no kind"
	if len(found) > 1 {
		reason = "conflicting kinds: " + strings.Join(found, ", ")
	}

	return "", ErrDocument.With(
		slog.String("loc", d.Pos.String()),
		slog.String("reason", reason),
	)
}

// specifiers are the decl-specifiers a declaration may carry.
type specifiers struct {
	static, extern, constexpr, inline bool
	virtual, pure, constant, explicit bool
	defaulted, deleted                bool
}

//nolint:gochecknoglobals
var specifierNames = []string{
	"static", "extern", "constexpr", "inline", "virtual", "pure", "const",
	"explicit", "default", "delete",
}

func parseSpecifiers(pos ast.Loc, names []string) (specifiers, error) {
	var sp specifiers

	for _, name := range names {
		switch name {
		case "static":
			sp.static = true
		case "extern":
			sp.extern = true
		case "constexpr":
			sp.constexpr = true
		case "inline":
			sp.inline = true
		case "virtual":
			sp.virtual = true
		case "pure":
			sp.virtual, sp.pure = true, true
		case "const":
			sp.constant = true
		case "explicit":
			sp.explicit = true
		case "default":
			sp.defaulted = true
		case "delete":
			sp.deleted = true
		case "automatic", "thread_local":
			return sp, ErrStorage.With(
				slog.String("storage", name),
				slog.String("loc", pos.String()),
			)
		default:
			err := ErrSpecifier.With(
				slog.String("specifier", name),
				slog.String("loc", pos.String()),
			)
			if s := suggest(name, specifierNames); s != "" {
				err = err.With(slog.String("suggestion", s))
			}

			return sp, err
		}
	}

	return sp, nil
}

func (sp specifiers) storage() ast.StorageClass {
	switch {
	case sp.static:
		return ast.StorageStatic
	case sp.extern:
		return ast.StorageExtern
	default:
		return ast.StorageNone
	}
}

// access returns the member access written for d in the current context.
func (l *Loader) access(d *Decl) (ast.Access, error) {
	rec, ok := l.sema.CurContext().(*ast.RecordDecl)

	switch d.Access {
	case "":
		if ok {
			return rec.DefaultAccess(), nil
		}

		return ast.AccessNone, nil
	case "public":
		return ast.AccessPublic, nil
	case "protected":
		return ast.AccessProtected, nil
	case "private":
		return ast.AccessPrivate, nil
	}

	return ast.AccessNone, ErrSpecifier.With(
		slog.String("access", d.Access),
		slog.String("loc", d.Pos.String()),
	)
}

// record returns the class being defined, for declarations only valid
// inside one.
func (l *Loader) record(d *Decl, what string) (*ast.RecordDecl, error) {
	if rec, ok := l.sema.CurContext().(*ast.RecordDecl); ok {
		return rec, nil
	}

	return nil, ErrDocument.With(
		slog.String("loc", d.Pos.String()),
		slog.String("reason", what+" outside a class"),
	)
}

// declare adds d to the current context and makes it visible.
func (l *Loader) declare(d ast.Decl) {
	ast.Add(l.sema.CurContext(), d)
	l.sema.CurScope().Declare(d)
}

func (l *Loader) decl(ctx context.Context, d *Decl) error {
	kind, err := d.kind()
	if err != nil {
		return err
	}

	l.logger.TraceContext(ctx, "declaration",
		slog.String("kind", kind),
		slog.String("loc", d.Pos.String()),
	)

	switch kind {
	case "namespace":
		return l.namespace(ctx, d)
	case "class", "struct":
		return l.class(ctx, d)
	case "field":
		return l.field(d)
	case "var":
		return l.variable(d)
	case "function", "method", "constructor", "destructor":
		return l.function(ctx, d, kind)
	case "alias":
		return l.alias(d)
	case "inject":
		return l.inject(ctx, d)
	case "constexpr":
		return l.constexpr(ctx, d)
	case "fragment":
		return l.fragmentVar(ctx, d)
	case "generate":
		return l.generate(ctx, d)
	default:
		return l.instantiate(ctx, d)
	}
}

func (l *Loader) namespace(ctx context.Context, d *Decl) error {
	ns := &ast.NamespaceDecl{DeclBase: ast.DeclBase{Name: d.Namespace, Pos: d.Pos}, Inline: d.Inline}

	// Reopening a namespace extends it.
	if prev, ok := member(l.sema.CurContext(), d.Namespace).(*ast.NamespaceDecl); ok {
		ns = prev
	} else {
		l.declare(ns)
	}

	restore := l.sema.EnterContext(ns)
	l.sema.PushScope(ast.ScopeNamespace, ns)

	err := l.decls(ctx, d.Members)

	l.sema.PopScope()
	restore()

	return err
}

func (l *Loader) bases(d *Decl) ([]ast.BaseSpec, error) {
	var out []ast.BaseSpec

	for _, name := range d.Bases {
		t, err := l.typ(d.Pos, name, nil)
		if err != nil {
			return nil, err
		}

		out = append(out, ast.BaseSpec{Type: t, Access: ast.AccessPublic})
	}

	return out, nil
}

func (l *Loader) class(ctx context.Context, d *Decl) error {
	rec := &ast.RecordDecl{
		DeclBase:  ast.DeclBase{Name: d.Class, Pos: d.Pos},
		Tag:       ast.TagClass,
		Dependent: d.Dependent,
	}

	if d.Struct != "" {
		rec.Name, rec.Tag = d.Struct, ast.TagStruct
	}

	access, err := l.access(d)
	if err != nil {
		return err
	}

	rec.Access = access

	if rec.Bases, err = l.bases(d); err != nil {
		return err
	}

	l.declare(rec)
	l.sema.StartDefinition(rec)

	return l.define(ctx, rec, d.Members)
}

// define builds the members of rec and completes it.
func (l *Loader) define(ctx context.Context, rec *ast.RecordDecl, members []*Decl) error {
	restore := l.sema.EnterContext(rec)
	err := l.decls(ctx, members)
	restore()

	if rec.Owner != nil && ast.IsDependentContext(rec.Owner) {
		rec.CompleteDefinition()

		return err
	}

	return multierr.Append(err, l.sema.CompleteDefinition(ctx, rec))
}

// settle deduces an auto type from the initializer.
func settle(t ast.Type, init ast.Expr) ast.Type {
	if init != nil && ast.IsDependentType(t) && !ast.IsDependentType(init.Type()) {
		return init.Type()
	}

	return t
}

func (l *Loader) field(d *Decl) error {
	if _, err := l.record(d, "field"); err != nil {
		return err
	}

	sp, err := parseSpecifiers(d.Pos, d.Specifiers)
	if err != nil {
		return err
	}

	if sp.static {
		return l.variable(&Decl{
			Var: d.Field, Type: d.Type, Init: d.Init, Access: d.Access,
			Specifiers: d.Specifiers, Pos: d.Pos,
		})
	}

	access, err := l.access(d)
	if err != nil {
		return err
	}

	t, err := l.typ(d.Pos, d.Type, ast.Dependent)
	if err != nil {
		return err
	}

	init, err := l.expr(d.Pos, d.Init)
	if err != nil {
		return err
	}

	l.declare(&ast.FieldDecl{
		DeclBase: ast.DeclBase{Name: d.Field, Pos: d.Pos, Access: access},
		Type:     settle(t, init),
		Init:     init,
	})

	return nil
}

func (l *Loader) variable(d *Decl) error {
	sp, err := parseSpecifiers(d.Pos, d.Specifiers)
	if err != nil {
		return err
	}

	access, err := l.access(d)
	if err != nil {
		return err
	}

	t, err := l.typ(d.Pos, d.Type, ast.Dependent)
	if err != nil {
		return err
	}

	init, err := l.expr(d.Pos, d.Init)
	if err != nil {
		return err
	}

	v := &ast.VarDecl{
		DeclBase:  ast.DeclBase{Name: d.Var, Pos: d.Pos, Access: access},
		Type:      settle(t, init),
		Init:      init,
		Storage:   sp.storage(),
		Constexpr: sp.constexpr,
		Inline:    sp.inline,
	}

	if ast.IsRecord(l.sema.CurContext()) {
		v.Storage = ast.StorageStatic
	}

	l.declare(v)

	return nil
}

func (l *Loader) alias(d *Decl) error {
	access, err := l.access(d)
	if err != nil {
		return err
	}

	t, err := l.typ(d.Pos, d.Type, nil)
	if err != nil {
		return err
	}

	if t == nil {
		return ErrDocument.With(
			slog.String("loc", d.Pos.String()),
			slog.String("reason", "alias without a type"),
		)
	}

	l.declare(&ast.TypeAliasDecl{
		DeclBase:   ast.DeclBase{Name: d.Alias, Pos: d.Pos, Access: access},
		Underlying: t,
	})

	return nil
}

func (l *Loader) inject(ctx context.Context, d *Decl) error {
	refl, err := l.expr(d.Pos, d.Inject)
	if err != nil {
		return err
	}

	decls, err := l.sema.ActOnInjectionDecl(ctx, d.Pos, refl)

	for _, x := range decls {
		if x.Base().Name != "" {
			l.sema.CurScope().Declare(x)
		}
	}

	return err
}

func (l *Loader) constexpr(ctx context.Context, d *Decl) error {
	cd := l.sema.ActOnStartConstexprDecl(d.Pos)

	body, err := l.block(ctx, d.Pos, d.Constexpr)
	if err != nil {
		// Close the block and drop it unevaluated.
		l.sema.PopScope()
		l.sema.PopDeclContext()
		cd.Owner.RemoveMember(cd)

		return err
	}

	return l.sema.ActOnFinishConstexprDecl(ctx, cd, body)
}

// fragmentVar declares a constexpr variable holding a fragment.
func (l *Loader) fragmentVar(ctx context.Context, d *Decl) error {
	fe, err := l.fragment(ctx, d.Pos, &Fragment{Kind: d.Kind, Members: d.Members})
	if err != nil {
		return err
	}

	l.declare(&ast.VarDecl{
		DeclBase:  ast.DeclBase{Name: d.Fragment, Pos: d.Pos},
		Type:      fe.Type(),
		Init:      fe,
		Constexpr: true,
	})

	return nil
}

func tag(kind string) ast.TagKind {
	if kind == "struct" {
		return ast.TagStruct
	}

	return ast.TagClass
}

func (l *Loader) generate(ctx context.Context, d *Decl) error {
	gen, err := l.expr(d.Pos, d.Generator)
	if err != nil {
		return err
	}

	from, err := l.expr(d.Pos, d.From)
	if err != nil {
		return err
	}

	if gen == nil || from == nil {
		return ErrDocument.With(
			slog.String("loc", d.Pos.String()),
			slog.String("reason", "generate needs a generator and a source"),
		)
	}

	rec, err := l.sema.ActOnGeneratedTypeDecl(ctx, d.Pos, tag(d.Kind), d.Generate, gen, from)
	if rec != nil {
		l.sema.CurScope().Declare(rec)
	}

	return err
}

func (l *Loader) instantiate(ctx context.Context, d *Decl) error {
	p, err := l.qualified(d.Pos, d.Pattern)
	if err != nil {
		return err
	}

	pattern, ok := p.(*ast.RecordDecl)
	if !ok || !pattern.Dependent {
		return ErrDocument.With(
			slog.String("loc", d.Pos.String()),
			slog.String("pattern", d.Pattern),
			slog.String("reason", "not a dependent class"),
		)
	}

	inst, err := l.sema.InstantiateRecord(ctx, pattern, d.Instantiate)
	if inst != nil {
		l.sema.CurScope().Declare(inst)
	}

	return err
}

func (l *Loader) function(ctx context.Context, d *Decl, kind string) error {
	sp, err := parseSpecifiers(d.Pos, d.Specifiers)
	if err != nil {
		return err
	}

	access, err := l.access(d)
	if err != nil {
		return err
	}

	var (
		fn   ast.Function
		fd   *ast.FunctionDecl
		ctor *ast.ConstructorDecl
	)

	result := d.Result

	switch kind {
	case "function":
		f := &ast.FunctionDecl{Storage: sp.storage()}
		f.Name = d.Function
		fn, fd = f, f
	default:
		rec, err := l.record(d, kind)
		if err != nil {
			return err
		}

		m := &ast.MethodDecl{Virtual: sp.virtual, Pure: sp.pure, Static: sp.static, Const: sp.constant}

		switch kind {
		case "method":
			m.Name = d.Method
			fn = m
		case "constructor":
			ctor = &ast.ConstructorDecl{MethodDecl: *m, Explicit: sp.explicit}
			ctor.Name, result = rec.Name, "void"
			fn = ctor
		default:
			dtor := &ast.DestructorDecl{MethodDecl: *m}
			dtor.Name, result = "~"+rec.Name, "void"
			fn = dtor
		}

		fd = fn.Func()
	}

	fd.Pos, fd.Access = d.Pos, access
	fd.Constexpr, fd.Inline = sp.constexpr, sp.inline
	fd.Defaulted, fd.Deleted = sp.defaulted, sp.deleted

	if fd.Result, err = l.typ(d.Pos, result, ast.Void); err != nil {
		return err
	}

	l.declare(fn)

	restore := l.sema.EnterContext(fn)
	defer restore()

	scope := l.sema.PushScope(ast.ScopeFunction|ast.ScopePrototype, fn)
	defer l.sema.PopScope()

	if err := l.params(d, fd, scope); err != nil {
		return err
	}

	if ctor != nil {
		if ctor.Inits, err = l.ctorInits(d); err != nil {
			return err
		}
	}

	if d.Body != nil {
		if fd.Body, err = l.block(ctx, d.Pos, d.Body); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) params(d *Decl, fd *ast.FunctionDecl, scope *ast.Scope) error {
	for _, p := range d.Params {
		if p == nil {
			continue
		}

		if p.Inject != "" {
			refl, err := l.expr(d.Pos, p.Inject)
			if err != nil {
				return err
			}

			if fd.Params, err = l.sema.ActOnInjectedParameter(d.Pos, refl, fd.Params); err != nil {
				return err
			}

			continue
		}

		t, err := l.typ(d.Pos, p.Type, ast.Dependent)
		if err != nil {
			return err
		}

		def, err := l.expr(d.Pos, p.Default)
		if err != nil {
			return err
		}

		parm := &ast.ParmDecl{
			DeclBase: ast.DeclBase{Name: p.Name, Pos: d.Pos},
			Type:     settle(t, def),
			Default:  def,
			Depth:    scope.PrototypeDepth(),
			Index:    scope.NextPrototypeIndex(),
		}
		scope.Declare(parm)

		fd.Params = append(fd.Params, parm)
	}

	for _, p := range fd.Params {
		p.Owner = fd
	}

	return nil
}

func (l *Loader) ctorInits(d *Decl) ([]*ast.CtorInit, error) {
	rec := l.sema.CurContext().Base().Owner.(*ast.RecordDecl)

	var inits []*ast.CtorInit

	for _, in := range d.Inits {
		if in == nil {
			continue
		}

		init, err := l.expr(d.Pos, in.Init)
		if err != nil {
			return nil, err
		}

		ci := &ast.CtorInit{Init: init}

		switch {
		case in.Member != "":
			m, err := l.within(d.Pos, rec, in.Member)
			if err != nil {
				return nil, err
			}

			f, ok := m.(*ast.FieldDecl)
			if !ok {
				return nil, ErrNotAValue.With(
					slog.String("name", in.Member),
					slog.String("loc", d.Pos.String()),
					slog.String("reason", "not a field"),
				)
			}

			ci.Member = f
		case in.Base != "":
			if ci.Base, err = l.typ(d.Pos, in.Base, nil); err != nil {
				return nil, err
			}
		default:
			return nil, ErrDocument.With(
				slog.String("loc", d.Pos.String()),
				slog.String("reason", "initializer names neither member nor base"),
			)
		}

		inits = append(inits, ci)
	}

	return inits, nil
}
