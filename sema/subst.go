package sema

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// rewriter clones declarations, types, expressions, and statements through
// the substitutions of one injection context.
//
// Members of the contexts in cloning are cloned on first reference, so a
// member may refer to a sibling declared after it. References into any
// other replaced context are rebound by name.
type rewriter struct {
	s   *Sema
	ctx context.Context
	ic  *InjectionContext

	cloning map[ast.Context]bool

	// local receives cloned local variables.
	local ast.Context

	// deferBodies postpones the bodies of functions cloned directly into a
	// class being defined until the class is complete.
	deferBodies bool

	errs error
}

func (s *Sema) newRewriter(ctx context.Context, ic *InjectionContext) *rewriter {
	return &rewriter{
		s:           s,
		ctx:         ctx,
		ic:          ic,
		cloning:     make(map[ast.Context]bool),
		deferBodies: true,
	}
}

func (rw *rewriter) fail(err error) {
	if err != nil {
		rw.errs = multierr.Append(rw.errs, err)
	}
}

// replace returns the declaration that d is substituted by, or d itself.
func (rw *rewriter) replace(d ast.Decl) ast.Decl {
	if d == nil {
		return nil
	}

	if r, ok := rw.ic.GetDeclReplacement(d); ok {
		return r
	}

	owner := d.Base().Owner
	if owner == nil {
		return d
	}

	target, ok := rw.ic.GetDeclReplacement(owner)
	if !ok {
		return d
	}

	tc, ok := target.(ast.Context)
	if !ok {
		return d
	}

	if rw.cloning[owner] {
		r, err := rw.decl(d, tc)
		rw.fail(err)

		if r != nil {
			return r
		}

		return d
	}

	for _, m := range tc.Lookup(d.Base().Name) {
		if m.Kind() == d.Kind() {
			return m
		}
	}

	return d
}

func cloneBase(b *ast.DeclBase, owner ast.Context) ast.DeclBase {
	c := ast.DeclBase{
		Name:     b.Name,
		Pos:      b.Pos,
		Owner:    owner,
		Access:   b.Access,
		Implicit: b.Implicit,
		Invalid:  b.Invalid,
	}

	if owner == nil || !ast.IsRecord(owner) {
		c.Access = ast.AccessNone
	}

	return c
}

// decl clones d as a member of owner. It does not add the clone to owner.
// A declaration already substituted yields its substitute, and the
// injected-class-name yields nil.
func (rw *rewriter) decl(d ast.Decl, owner ast.Context) (ast.Decl, error) {
	if r, ok := rw.ic.GetDeclReplacement(d); ok {
		return r, nil
	}

	switch x := d.(type) {
	case *ast.FieldDecl:
		return rw.field(x, owner)
	case *ast.VarDecl:
		return rw.variable(x, owner)
	case ast.Function:
		return rw.function(x, owner)
	case *ast.RecordDecl:
		return rw.record(x, owner)
	case *ast.NamespaceDecl:
		return rw.namespace(x, owner)
	case *ast.TypeAliasDecl:
		a := &ast.TypeAliasDecl{DeclBase: cloneBase(&x.DeclBase, owner)}
		rw.ic.AddDeclSubstitution(x, a)
		a.Underlying = rw.typ(x.Underlying)

		return a, nil
	case *ast.InjectionDecl:
		return &ast.InjectionDecl{
			DeclBase:   cloneBase(&x.DeclBase, owner),
			Reflection: rw.expr(x.Reflection),
		}, nil
	case *ast.ConstexprDecl:
		return rw.constexpr(x, owner)
	}

	return nil, ErrUnsupportedDecl.With(
		slog.String("kind", d.Kind().String()),
		slog.String("decl", d.Base().Name),
	)
}

// settle resolves a dependent declared type from a non-dependent
// initializer. A type still dependent in a non-dependent owner is an error.
func (rw *rewriter) settle(b *ast.DeclBase, t ast.Type, init ast.Expr, owner ast.Context) (ast.Type, error) {
	if !ast.IsDependentType(t) {
		return t, nil
	}

	if init != nil && !ast.IsDependentExpr(init) {
		return init.Type(), nil
	}

	if owner != nil && !ast.IsDependentContext(owner) {
		b.Invalid = true

		return t, rw.s.Diag(b.Pos, DiagUnresolvedDependentType, b.Name)
	}

	return t, nil
}

func (rw *rewriter) field(x *ast.FieldDecl, owner ast.Context) (ast.Decl, error) {
	f := &ast.FieldDecl{DeclBase: cloneBase(&x.DeclBase, owner)}
	rw.ic.AddDeclSubstitution(x, f)

	f.Type = rw.typ(x.Type)
	f.Init = rw.expr(x.Init)

	var err error
	f.Type, err = rw.settle(&f.DeclBase, f.Type, f.Init, owner)

	return f, err
}

func (rw *rewriter) variable(x *ast.VarDecl, owner ast.Context) (ast.Decl, error) {
	v := &ast.VarDecl{
		DeclBase:  cloneBase(&x.DeclBase, owner),
		Storage:   x.Storage,
		Constexpr: x.Constexpr,
		Inline:    x.Inline,
	}
	rw.ic.AddDeclSubstitution(x, v)

	v.Type = rw.typ(x.Type)
	v.Init = rw.expr(x.Init)

	var err error
	v.Type, err = rw.settle(&v.DeclBase, v.Type, v.Init, owner)

	return v, err
}

// staticMember clones the field x as a static data member of owner. The
// initializer is substituted with owner as the current context.
func (rw *rewriter) staticMember(x *ast.FieldDecl, owner ast.Context) (*ast.VarDecl, error) {
	v := &ast.VarDecl{
		DeclBase: cloneBase(&x.DeclBase, owner),
		Storage:  ast.StorageStatic,
	}
	rw.ic.AddDeclSubstitution(x, v)

	restore := rw.s.EnterContext(owner)
	defer restore()

	v.Type = rw.typ(x.Type)
	v.Init = rw.expr(x.Init)

	var err error
	v.Type, err = rw.settle(&v.DeclBase, v.Type, v.Init, owner)

	return v, err
}

func shallowFunction(src *ast.FunctionDecl, owner ast.Context) ast.FunctionDecl {
	return ast.FunctionDecl{
		DeclBase:  cloneBase(&src.DeclBase, owner),
		Storage:   src.Storage,
		Constexpr: src.Constexpr,
		Inline:    src.Inline,
		Defaulted: src.Defaulted,
		Deleted:   src.Deleted,
	}
}

func shallowMethod(src *ast.MethodDecl, owner ast.Context) ast.MethodDecl {
	return ast.MethodDecl{
		FunctionDecl: shallowFunction(&src.FunctionDecl, owner),
		Virtual:      src.Virtual,
		Pure:         src.Pure,
		Static:       src.Static,
		Const:        src.Const,
	}
}

func (rw *rewriter) function(x ast.Function, owner ast.Context) (ast.Decl, error) {
	var clone ast.Function

	switch y := x.(type) {
	case *ast.ConstructorDecl:
		clone = &ast.ConstructorDecl{MethodDecl: shallowMethod(&y.MethodDecl, owner), Explicit: y.Explicit}
	case *ast.DestructorDecl:
		clone = &ast.DestructorDecl{MethodDecl: shallowMethod(&y.MethodDecl, owner)}
	case *ast.MethodDecl:
		m := shallowMethod(y, owner)
		clone = &m
	case *ast.FunctionDecl:
		f := shallowFunction(y, owner)
		clone = &f
	default:
		return nil, ErrUnsupportedDecl.With(slog.String("kind", x.Kind().String()))
	}

	rw.ic.AddDeclSubstitution(x, clone)

	src, fn := x.Func(), clone.Func()
	fn.Result = rw.typ(src.Result)

	params, err := rw.params(src.Params, clone)
	fn.Params = params

	if ctor, ok := x.(*ast.ConstructorDecl); ok {
		clone.(*ast.ConstructorDecl).Inits = rw.ctorInits(ctor.Inits)
	}

	if src.Body == nil {
		return clone, err
	}

	if rec, ok := owner.(*ast.RecordDecl); ok && rw.deferBodies && rec.BeingDefined &&
		ast.Context(rec) == rw.ic.Injectee {
		rw.s.deferBody(rec, pendingBody{clone: clone, src: x, ic: rw.ic, cloning: rw.cloning})

		return clone, err
	}

	return clone, multierr.Append(err, rw.body(clone, x))
}

func (rw *rewriter) params(src []*ast.ParmDecl, fn ast.Function) ([]*ast.ParmDecl, error) {
	var (
		out  []*ast.ParmDecl
		errs error
	)

	for _, p := range src {
		if ip, ok := p.Type.(*ast.InjectedParmType); ok {
			refl := rw.expr(ip.Reflection)
			if !ast.IsDependentExpr(refl) {
				parms, err := rw.s.reflectedParms(p.Pos, refl.Type())
				if err != nil {
					errs = multierr.Append(errs, err)

					continue
				}

				for _, q := range parms {
					out = append(out, &ast.ParmDecl{
						DeclBase: ast.DeclBase{Name: q.Name, Pos: p.Pos, Owner: fn},
						Type:     q.Type,
						Default:  q.Default,
						Depth:    p.Depth,
						Injected: true,
					})
				}

				continue
			}
		}

		np := &ast.ParmDecl{
			DeclBase: cloneBase(&p.DeclBase, fn),
			Depth:    p.Depth,
			Injected: p.Injected,
		}
		rw.ic.AddDeclSubstitution(p, np)

		np.Type = rw.typ(p.Type)
		np.Default = rw.expr(p.Default)

		var err error
		np.Type, err = rw.settle(&np.DeclBase, np.Type, np.Default, fn)
		errs = multierr.Append(errs, err)

		out = append(out, np)
	}

	for i, p := range out {
		p.Index = i
	}

	return out, errs
}

func (rw *rewriter) ctorInits(inits []*ast.CtorInit) []*ast.CtorInit {
	out := make([]*ast.CtorInit, 0, len(inits))

	for _, in := range inits {
		ni := &ast.CtorInit{Init: rw.expr(in.Init)}

		if in.Base != nil {
			ni.Base = rw.typ(in.Base)
		}

		if in.Member != nil {
			if f, ok := rw.replace(in.Member).(*ast.FieldDecl); ok {
				ni.Member = f
			} else {
				ni.Member = in.Member
			}
		}

		out = append(out, ni)
	}

	return out
}

// body substitutes the definition of src into clone.
func (rw *rewriter) body(clone, src ast.Function) error {
	before := rw.errs
	rw.errs = nil

	prev := rw.local
	rw.local = clone
	restore := rw.s.EnterContext(clone)

	fn := clone.Func()
	fn.Body = rw.compound(src.Func().Body)

	if ast.IsDependentType(fn.Result) {
		fn.Result = returnType(fn.Body, fn.Result)
	}

	restore()
	rw.local = prev

	err := rw.errs
	rw.errs = before

	return err
}

// returnType deduces a function's result from its first non-dependent
// return statement.
func returnType(body *ast.CompoundStmt, def ast.Type) ast.Type {
	if body == nil {
		return def
	}

	for _, st := range body.Stmts {
		if r, ok := st.(*ast.ReturnStmt); ok && r.X != nil && !ast.IsDependentExpr(r.X) {
			return r.X.Type()
		}
	}

	return def
}

func (rw *rewriter) record(x *ast.RecordDecl, owner ast.Context) (ast.Decl, error) {
	if x.InjectedClassName {
		return nil, nil
	}

	r := &ast.RecordDecl{DeclBase: cloneBase(&x.DeclBase, owner), Tag: x.Tag}
	rw.ic.AddDeclSubstitution(x, r)

	for _, b := range x.Bases {
		r.Bases = append(r.Bases, ast.BaseSpec{Type: rw.typ(b.Type), Access: b.Access, Virtual: b.Virtual})
	}

	if !x.BeingDefined && !x.Complete {
		return r, nil
	}

	r.StartDefinition()

	errs := rw.members(x, r)
	errs = multierr.Append(errs, rw.s.CompleteDefinition(rw.ctx, r))

	return r, errs
}

func (rw *rewriter) namespace(x *ast.NamespaceDecl, owner ast.Context) (ast.Decl, error) {
	ns := &ast.NamespaceDecl{DeclBase: cloneBase(&x.DeclBase, owner), Inline: x.Inline}
	rw.ic.AddDeclSubstitution(x, ns)

	return ns, rw.members(x, ns)
}

// members clones every member of src into dst, which replaces src.
func (rw *rewriter) members(src, dst ast.Context) error {
	rw.cloning[src] = true
	defer delete(rw.cloning, src)

	defer func(prev bool) { rw.deferBodies = prev }(rw.deferBodies)
	rw.deferBodies = false

	restore := rw.s.EnterContext(dst)
	defer restore()

	var errs error

	for _, m := range src.Members() {
		c, err := rw.decl(m, dst)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		if c == nil {
			continue
		}

		if _, err := rw.s.attach(rw.ctx, dst, c); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (rw *rewriter) constexpr(x *ast.ConstexprDecl, owner ast.Context) (ast.Decl, error) {
	cd := &ast.ConstexprDecl{DeclBase: cloneBase(&x.DeclBase, owner)}
	rw.ic.AddDeclSubstitution(x, cd)

	before := rw.errs
	rw.errs = nil

	prev := rw.local
	rw.local = cd
	cd.Body = rw.compound(x.Body)
	rw.local = prev

	err := rw.errs
	rw.errs = before

	return cd, err
}

func (rw *rewriter) typ(t ast.Type) ast.Type {
	switch x := t.(type) {
	case *ast.RecordType:
		if x.Decl.Template != nil && rw.s.Unit.Meta.Owns(x.Decl) {
			return rw.metaType(x.Decl)
		}

		if r, ok := rw.replace(x.Decl).(*ast.RecordDecl); ok {
			return r.Type()
		}
	case *ast.AliasType:
		if a, ok := rw.replace(x.Decl).(*ast.TypeAliasDecl); ok && a != x.Decl {
			return &ast.AliasType{Decl: a}
		}
	case *ast.FunctionType:
		ft := &ast.FunctionType{Result: rw.typ(x.Result)}
		for _, p := range x.Params {
			ft.Params = append(ft.Params, rw.typ(p))
		}

		return ft
	case *ast.InjectedParmType:
		return &ast.InjectedParmType{Reflection: rw.expr(x.Reflection)}
	}

	return t
}

// metaType rebinds a reflection type whose argument was substituted.
func (rw *rewriter) metaType(rec *ast.RecordDecl) ast.Type {
	meta := rw.s.Unit.Meta

	if len(rec.Template.Args) == 0 {
		return rec.Type()
	}

	arg := rec.Template.Args[0]

	if rec.Template.Name == ast.TemplateTuple {
		info := ast.AsRecordDecl(arg.Type)
		if info == nil {
			return rec.Type()
		}

		spec, ok := info.Owner.(*ast.RecordDecl)
		if !ok || spec.Template == nil || len(spec.Template.Args) == 0 {
			return rec.Type()
		}

		c := rw.construct(spec.Template.Args[0].Construct)
		if c == spec.Template.Args[0].Construct || !c.IsDecl() {
			return rec.Type()
		}

		return meta.ParmsType(c.Decl())
	}

	c := rw.construct(arg.Construct)
	if c == arg.Construct || !c.IsValid() {
		return rec.Type()
	}

	return meta.ReflectionType(c)
}

func (rw *rewriter) construct(c ast.Construct) ast.Construct {
	switch {
	case c.IsDecl():
		return ast.DeclConstruct(rw.replace(c.Decl()))
	case c.IsType():
		return ast.TypeConstruct(rw.typ(c.Type()))
	default:
		return c
	}
}

func (rw *rewriter) exprs(es []ast.Expr) []ast.Expr {
	if es == nil {
		return nil
	}

	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = rw.expr(e)
	}

	return out
}

//nolint:gocyclo,cyclop
func (rw *rewriter) expr(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ast.IntLit, *ast.BoolLit, *ast.FloatLit, *ast.StringLit, *ast.ConstantExpr:
		return e
	case *ast.DeclRefExpr:
		if r := rw.ic.GetPlaceholderReplacement(x); r != nil {
			return r
		}

		d := rw.replace(x.Decl)

		t := declType(d)
		if t == nil {
			t = rw.typ(x.Ty)
		}

		return &ast.DeclRefExpr{ExprBase: ast.ExprBase{Pos: x.Pos, Ty: t}, Decl: d}
	case *ast.MemberExpr:
		m := rw.replace(x.Member)

		t := declType(m)
		if t == nil {
			t = rw.typ(x.Ty)
		}

		return &ast.MemberExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: t},
			Object:   rw.expr(x.Object),
			Member:   m,
		}
	case *ast.ThisExpr:
		return &ast.ThisExpr{ExprBase: ast.ExprBase{Pos: x.Pos, Ty: rw.typ(x.Ty)}}
	case *ast.ImplicitCastExpr:
		sub := rw.expr(x.Sub)

		return &ast.ImplicitCastExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: sub.Type()},
			Cast:     x.Cast,
			Sub:      sub,
		}
	case *ast.OpaqueValueExpr:
		return &ast.OpaqueValueExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: rw.typ(x.Ty)},
			Source:   x.Source,
		}
	case *ast.UnaryExpr:
		sub := rw.expr(x.X)

		t := rw.typ(x.Ty)
		if ast.IsDependentType(t) {
			t = ast.UnaryResultType(x.Op, sub.Type())
		}

		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Pos: x.Pos, Ty: t}, Op: x.Op, X: sub}
	case *ast.BinaryExpr:
		lhs, rhs := rw.expr(x.LHS), rw.expr(x.RHS)

		t := rw.typ(x.Ty)
		if ast.IsDependentType(t) {
			t = ast.BinaryResultType(x.Op, lhs.Type(), rhs.Type())
		}

		return &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: x.Pos, Ty: t}, Op: x.Op, LHS: lhs, RHS: rhs}
	case *ast.CallExpr:
		callee := rw.expr(x.Callee)

		t := rw.typ(x.Ty)
		if ast.IsDependentType(t) {
			if ft, ok := ast.Canonical(callee.Type()).(*ast.FunctionType); ok && ft.Result != nil {
				t = ft.Result
			}
		}

		return &ast.CallExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: t},
			Callee:   callee,
			Args:     rw.exprs(x.Args),
		}
	case *ast.ReflectExpr:
		c := rw.construct(x.Construct)
		if c == x.Construct || !c.IsValid() {
			return x
		}

		return rw.s.Unit.Reflect(x.Pos, c)
	case *ast.ModifyExpr:
		sub := rw.expr(x.X)

		return &ast.ModifyExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: sub.Type()},
			Trait:    x.Trait,
			Arg:      x.Arg,
			X:        sub,
		}
	case *ast.FragmentExpr:
		return rw.fragment(x)
	case *ast.ConstructExpr:
		ctor := x.Ctor
		if ctor != nil {
			if c, ok := rw.replace(ctor).(*ast.ConstructorDecl); ok {
				ctor = c
			}
		}

		return &ast.ConstructExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: rw.typ(x.Ty)},
			Ctor:     ctor,
			Args:     rw.exprs(x.Args),
			Style:    x.Style,
		}
	case *ast.ParenListExpr:
		return &ast.ParenListExpr{
			ExprBase: ast.ExprBase{Pos: x.Pos, Ty: rw.typ(x.Ty)},
			Exprs:    rw.exprs(x.Exprs),
		}
	}

	return e
}

// fragment substitutes a fragment expression. One left dependent is built
// once its context is no longer dependent.
func (rw *rewriter) fragment(x *ast.FragmentExpr) ast.Expr {
	caps := rw.exprs(x.Captures)

	if x.Init == nil {
		if ast.IsDependentContext(rw.s.cur) {
			return &ast.FragmentExpr{ExprBase: x.ExprBase, Captures: caps, Fragment: x.Fragment}
		}

		e, err := rw.s.BuildFragmentExpr(x.Pos, caps, x.Fragment)
		if err != nil {
			rw.fail(err)

			return x
		}

		return e
	}

	return &ast.FragmentExpr{
		ExprBase: x.ExprBase,
		Captures: caps,
		Fragment: x.Fragment,
		Init:     rw.expr(x.Init),
	}
}

func (rw *rewriter) compound(c *ast.CompoundStmt) *ast.CompoundStmt {
	if c == nil {
		return nil
	}

	out := &ast.CompoundStmt{StmtBase: c.StmtBase, Stmts: make([]ast.Stmt, 0, len(c.Stmts))}
	for _, st := range c.Stmts {
		if n := rw.stmt(st); n != nil {
			out.Stmts = append(out.Stmts, n)
		}
	}

	return out
}

func (rw *rewriter) stmt(st ast.Stmt) ast.Stmt {
	switch x := st.(type) {
	case *ast.CompoundStmt:
		return rw.compound(x)
	case *ast.ExprStmt:
		return &ast.ExprStmt{StmtBase: x.StmtBase, X: rw.expr(x.X)}
	case *ast.ReturnStmt:
		return &ast.ReturnStmt{StmtBase: x.StmtBase, X: rw.expr(x.X)}
	case *ast.InjectionStmt:
		return &ast.InjectionStmt{StmtBase: x.StmtBase, Reflection: rw.expr(x.Reflection)}
	case *ast.ExtensionStmt:
		return &ast.ExtensionStmt{
			StmtBase:   x.StmtBase,
			Target:     rw.expr(x.Target),
			Reflection: rw.expr(x.Reflection),
		}
	case *ast.PrintStmt:
		return &ast.PrintStmt{StmtBase: x.StmtBase, Reflection: rw.expr(x.Reflection)}
	case *ast.DeclStmt:
		ds := &ast.DeclStmt{StmtBase: x.StmtBase}

		for _, d := range x.Decls {
			c, err := rw.decl(d, rw.local)
			rw.fail(err)

			if c == nil {
				continue
			}

			if rw.local != nil {
				ast.Add(rw.local, c)
			}

			ds.Decls = append(ds.Decls, c)
		}

		return ds
	}

	return st
}
