package consteval

import (
	"context"
	"log/slog"

	"github.com/ardnew/splice/ast"
)

//nolint:gocyclo,cyclop
func (m *Machine) eval(ctx context.Context, fr *frame, e ast.Expr) (ast.Value, error) {
	if err := ctx.Err(); err != nil {
		return ast.Value{}, err
	}

	switch x := e.(type) {
	case nil:
		return ast.Value{}, ErrNotConstant
	case *ast.IntLit:
		return ast.IntValue(x.Value), nil
	case *ast.BoolLit:
		return ast.BoolValue(x.Value), nil
	case *ast.FloatLit:
		return ast.FloatValue(x.Value), nil
	case *ast.StringLit:
		return ast.StringValue(x.Value), nil
	case *ast.ConstantExpr:
		return x.Value.Clone(), nil
	case *ast.ImplicitCastExpr:
		return m.eval(ctx, fr, x.Sub)
	case *ast.OpaqueValueExpr:
		if x.Source == nil {
			return ast.Value{}, ErrNotConstant.With(slog.String("loc", x.Pos.String()))
		}

		return m.eval(ctx, fr, x.Source)
	case *ast.DeclRefExpr:
		p, err := m.ref(ctx, fr, x.Decl)
		if err != nil {
			return ast.Value{}, err
		}

		return p.Clone(), nil
	case *ast.MemberExpr, *ast.ThisExpr:
		p, err := m.lvalue(ctx, fr, e)
		if err != nil {
			return ast.Value{}, err
		}

		return p.Clone(), nil
	case *ast.ReflectExpr:
		return m.unit.Meta.ReflectionValue(x.Construct), nil
	case *ast.ModifyExpr:
		return m.modify(ctx, fr, x)
	case *ast.FragmentExpr:
		if x.Init == nil {
			return ast.Value{}, ErrDependent.With(slog.String("loc", x.Pos.String()))
		}

		return m.eval(ctx, fr, x.Init)
	case *ast.ConstructExpr:
		return m.construct(ctx, fr, x)
	case *ast.ParenListExpr:
		var v ast.Value

		for _, sub := range x.Exprs {
			var err error
			if v, err = m.eval(ctx, fr, sub); err != nil {
				return ast.Value{}, err
			}
		}

		return v, nil
	case *ast.UnaryExpr:
		v, err := m.eval(ctx, fr, x.X)
		if err != nil {
			return ast.Value{}, err
		}

		if x.Op == "!" || x.Op == "not" {
			v = ast.BoolValue(v.Truthy())
		}

		return m.ops.unary(x.Op, v)
	case *ast.BinaryExpr:
		return m.binary(ctx, fr, x)
	case *ast.CallExpr:
		return m.call(ctx, fr, x)
	}

	return ast.Value{}, ErrNotConstant.With(slog.String("loc", e.Loc().String()))
}

// ref returns the storage of the value d names.
func (m *Machine) ref(ctx context.Context, fr *frame, d ast.Decl) (*ast.Value, error) {
	if p, ok := fr.vars[d]; ok {
		return p, nil
	}

	switch x := d.(type) {
	case *ast.VarDecl:
		if x.Placeholder {
			return nil, ErrPlaceholder.With(slog.String("name", x.Name))
		}

		v, err := m.global(ctx, x)
		if err != nil {
			return nil, err
		}

		return &v, nil
	case *ast.FieldDecl:
		if fr.this == nil {
			return nil, ErrUnbound.With(slog.String("name", x.Name))
		}

		p, _, ok := fr.this.Field(fr.this.Record, x.Name)
		if !ok {
			return nil, ErrUnbound.With(slog.String("name", x.Name))
		}

		return p, nil
	}

	return nil, ErrUnbound.With(slog.String("name", d.Base().Name))
}

// lvalue returns the storage e designates.
func (m *Machine) lvalue(ctx context.Context, fr *frame, e ast.Expr) (*ast.Value, error) {
	switch x := ast.IgnoreImplicit(e).(type) {
	case *ast.DeclRefExpr:
		return m.ref(ctx, fr, x.Decl)
	case *ast.ThisExpr:
		if fr.this == nil {
			return nil, ErrUnbound.With(slog.String("name", "this"))
		}

		return fr.this, nil
	case *ast.MemberExpr:
		obj, err := m.lvalue(ctx, fr, x.Object)
		if err != nil {
			return nil, err
		}

		rec := obj.Record
		if rec == nil {
			rec = ast.AsRecordDecl(x.Object.Type())
		}

		p, _, ok := obj.Field(rec, x.Member.Base().Name)
		if !ok {
			return nil, ErrUnbound.With(slog.String("member", x.Member.Base().Name))
		}

		return p, nil
	}

	v, err := m.eval(ctx, fr, e)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// modify returns a copy of a reflection with one modification trait set.
func (m *Machine) modify(ctx context.Context, fr *frame, x *ast.ModifyExpr) (ast.Value, error) {
	v, err := m.eval(ctx, fr, x.X)
	if err != nil {
		return ast.Value{}, err
	}

	v = v.Clone()

	rec := v.Record
	if rec == nil {
		rec = ast.AsRecordDecl(x.X.Type())
	}

	mods, field, ok := v.Field(rec, ast.ModsMember)
	if !ok {
		return ast.Value{}, ErrNoTraits.With(slog.String("reflection", v.String()))
	}

	t, _, ok := mods.Field(ast.AsRecordDecl(field.Type), x.Trait.Field())
	if !ok {
		return ast.Value{}, ErrNoTraits.With(slog.String("trait", x.Trait.Field()))
	}

	switch x.Trait {
	case ast.TraitConstexpr, ast.TraitVirtual, ast.TraitPure:
		*t = ast.BoolValue(x.Arg != 0)
	default:
		*t = ast.IntValue(x.Arg)
	}

	return v, nil
}

func (m *Machine) binary(ctx context.Context, fr *frame, x *ast.BinaryExpr) (ast.Value, error) {
	l, err := m.eval(ctx, fr, x.LHS)
	if err != nil {
		return ast.Value{}, err
	}

	switch x.Op {
	case "&&", "and":
		if !l.Truthy() {
			return ast.BoolValue(false), nil
		}
	case "||", "or":
		if l.Truthy() {
			return ast.BoolValue(true), nil
		}
	}

	r, err := m.eval(ctx, fr, x.RHS)
	if err != nil {
		return ast.Value{}, err
	}

	switch x.Op {
	case "&&", "and", "||", "or":
		return ast.BoolValue(r.Truthy()), nil
	}

	return m.ops.binary(x.Op, l, r)
}

// zero returns the default-initialized value of t.
func (m *Machine) zero(ctx context.Context, t ast.Type) (ast.Value, error) {
	switch x := ast.Canonical(t).(type) {
	case *ast.BuiltinType:
		switch x.Builtin {
		case ast.BuiltinInt:
			return ast.IntValue(0), nil
		case ast.BuiltinBool:
			return ast.BoolValue(false), nil
		case ast.BuiltinDouble:
			return ast.FloatValue(0), nil
		case ast.BuiltinString:
			return ast.StringValue(""), nil
		}
	case *ast.RecordType:
		return m.object(ctx, x.Decl)
	}

	return ast.Value{}, nil
}

// object returns a default-initialized object of rec. Reflection types
// default to the reflection they denote.
func (m *Machine) object(ctx context.Context, rec *ast.RecordDecl) (ast.Value, error) {
	if rec.Template != nil && len(rec.Template.Args) > 0 && rec.Template.Args[0].Construct.IsValid() {
		return m.unit.Meta.ReflectionValue(rec.Template.Args[0].Construct), nil
	}

	v := ast.StructValue(nil, nil)
	v.Record = rec

	for _, b := range rec.Bases {
		bv, err := m.zero(ctx, b.Type)
		if err != nil {
			return ast.Value{}, err
		}

		v.Bases = append(v.Bases, bv)
	}

	fr := newFrame(&run{})
	fr.this = &v

	for _, f := range rec.Fields() {
		fv, err := m.zero(ctx, f.Type)
		if err != nil {
			return ast.Value{}, err
		}

		if f.Init != nil {
			if fv, err = m.eval(ctx, fr, f.Init); err != nil {
				return ast.Value{}, err
			}
		}

		v.Fields = append(v.Fields, fv)
	}

	return v, nil
}

// construct evaluates the construction of an object: through its
// constructor when it has one, member-wise from the arguments otherwise.
func (m *Machine) construct(ctx context.Context, fr *frame, x *ast.ConstructExpr) (ast.Value, error) {
	rec := ast.AsRecordDecl(x.Ty)
	if rec == nil {
		if len(x.Args) == 1 {
			return m.eval(ctx, fr, x.Args[0])
		}

		return m.zero(ctx, x.Ty)
	}

	args, err := m.args(ctx, fr, x.Args)
	if err != nil {
		return ast.Value{}, err
	}

	obj, err := m.object(ctx, rec)
	if err != nil {
		return ast.Value{}, err
	}

	if x.Ctor == nil {
		for i := range obj.Fields {
			if i < len(args) {
				obj.Fields[i] = args[i]
			}
		}

		return obj, nil
	}

	if err := m.enter(fr); err != nil {
		return ast.Value{}, err
	}
	defer m.leave(fr)

	call, err := m.bind(ctx, fr, &x.Ctor.FunctionDecl, args)
	if err != nil {
		return ast.Value{}, err
	}

	call.this = &obj

	for _, in := range x.Ctor.Inits {
		if err := m.initialize(ctx, call, rec, &obj, in); err != nil {
			return ast.Value{}, err
		}
	}

	if x.Ctor.Body != nil {
		if _, _, err := m.exec(ctx, call, x.Ctor.Body); err != nil {
			return ast.Value{}, err
		}
	}

	return obj, nil
}

func (m *Machine) initialize(ctx context.Context, fr *frame, rec *ast.RecordDecl, obj *ast.Value, in *ast.CtorInit) error {
	if in.Base != nil {
		for i, b := range rec.Bases {
			if !ast.SameType(b.Type, in.Base) || i >= len(obj.Bases) {
				continue
			}

			if list, ok := in.Init.(*ast.ParenListExpr); ok && len(list.Exprs) == 0 {
				return nil
			}

			v, err := m.eval(ctx, fr, in.Init)
			if err != nil {
				return err
			}

			obj.Bases[i] = v
		}

		return nil
	}

	p, _, ok := obj.Field(rec, in.Member.Name)
	if !ok {
		return ErrUnbound.With(slog.String("member", in.Member.Name))
	}

	v, err := m.eval(ctx, fr, in.Init)
	if err != nil {
		return err
	}

	*p = v

	return nil
}

func (m *Machine) args(ctx context.Context, fr *frame, es []ast.Expr) ([]ast.Value, error) {
	out := make([]ast.Value, 0, len(es))

	for _, a := range es {
		v, err := m.eval(ctx, fr, a)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func (m *Machine) enter(fr *frame) error {
	if fr.run.depth >= m.maxDepth {
		return ErrCallDepth.With(slog.Int("depth", m.maxDepth))
	}

	fr.run.depth++

	return nil
}

func (m *Machine) leave(fr *frame) { fr.run.depth-- }

// bind returns a frame for a call of fn with args bound to its parameters.
// Missing trailing arguments take the parameters' default arguments.
func (m *Machine) bind(ctx context.Context, caller *frame, fn *ast.FunctionDecl, args []ast.Value) (*frame, error) {
	if len(args) > len(fn.Params) {
		return nil, ErrArity.With(slog.String("function", fn.Name), slog.Int("args", len(args)))
	}

	call := newFrame(caller.run)

	for i, p := range fn.Params {
		var v ast.Value

		switch {
		case i < len(args):
			v = args[i]
		case p.Default != nil:
			dv, err := m.eval(ctx, call, p.Default)
			if err != nil {
				return nil, err
			}

			v = dv
		default:
			return nil, ErrArity.With(slog.String("function", fn.Name), slog.Int("args", len(args)))
		}

		call.vars[p] = &v
	}

	return call, nil
}

func (m *Machine) call(ctx context.Context, fr *frame, x *ast.CallExpr) (ast.Value, error) {
	var (
		fn   *ast.FunctionDecl
		this *ast.Value
	)

	switch c := ast.IgnoreImplicit(x.Callee).(type) {
	case *ast.DeclRefExpr:
		f, ok := ast.AsFunction(c.Decl)
		if !ok {
			return ast.Value{}, ErrNotConstant.With(slog.String("callee", c.Decl.Base().Name))
		}

		fn, this = f, fr.this
	case *ast.MemberExpr:
		f, ok := ast.AsFunction(c.Member)
		if !ok {
			return ast.Value{}, ErrNotConstant.With(slog.String("callee", c.Member.Base().Name))
		}

		obj, err := m.lvalue(ctx, fr, c.Object)
		if err != nil {
			return ast.Value{}, err
		}

		fn, this = f, obj
	default:
		return ast.Value{}, ErrNotConstant.With(slog.String("loc", x.Pos.String()))
	}

	if fn.Body == nil {
		return ast.Value{}, ErrUndefined.With(slog.String("function", fn.Name))
	}

	args, err := m.args(ctx, fr, x.Args)
	if err != nil {
		return ast.Value{}, err
	}

	if err := m.enter(fr); err != nil {
		return ast.Value{}, err
	}
	defer m.leave(fr)

	call, err := m.bind(ctx, fr, fn, args)
	if err != nil {
		return ast.Value{}, err
	}

	call.this = this

	m.logger.TraceContext(ctx, "call",
		slog.String("function", ast.QualifiedName(fn)),
		slog.Int("depth", fr.run.depth),
	)

	ret, _, err := m.exec(ctx, call, fn.Body)

	return ret, err
}
