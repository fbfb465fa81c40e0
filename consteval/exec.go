package consteval

import (
	"context"
	"log/slog"

	"github.com/ardnew/splice/ast"
)

// exec runs st. It reports the returned value and whether a return
// statement was reached.
func (m *Machine) exec(ctx context.Context, fr *frame, st ast.Stmt) (ast.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return ast.Value{}, false, err
	}

	switch x := st.(type) {
	case nil:
		return ast.Value{}, false, nil
	case *ast.CompoundStmt:
		for _, sub := range x.Stmts {
			v, done, err := m.exec(ctx, fr, sub)
			if err != nil || done {
				return v, done, err
			}
		}
	case *ast.ExprStmt:
		_, err := m.eval(ctx, fr, x.X)

		return ast.Value{}, false, err
	case *ast.DeclStmt:
		for _, d := range x.Decls {
			if err := m.declare(ctx, fr, d); err != nil {
				return ast.Value{}, false, err
			}
		}
	case *ast.ReturnStmt:
		if x.X == nil {
			return ast.Value{}, true, nil
		}

		v, err := m.eval(ctx, fr, x.X)

		return v, true, err
	case *ast.InjectionStmt:
		e, err := m.effect(ctx, fr, ast.EffectInjection, x.Pos, x.Reflection)
		if err != nil {
			return ast.Value{}, false, err
		}

		fr.run.effects = append(fr.run.effects, e)
	case *ast.ExtensionStmt:
		e, err := m.effect(ctx, fr, ast.EffectInjection, x.Pos, x.Reflection)
		if err != nil {
			return ast.Value{}, false, err
		}

		target, err := m.eval(ctx, fr, x.Target)
		if err != nil {
			return ast.Value{}, false, err
		}

		e.Injectee = target
		e.InjecteeType = m.reflectionType(x.Target.Type(), target)
		fr.run.effects = append(fr.run.effects, e)
	case *ast.PrintStmt:
		e, err := m.effect(ctx, fr, ast.EffectDiagnostic, x.Pos, x.Reflection)
		if err != nil {
			return ast.Value{}, false, err
		}

		fr.run.effects = append(fr.run.effects, e)
	default:
		return ast.Value{}, false, ErrNotConstant.With(slog.String("loc", st.Loc().String()))
	}

	return ast.Value{}, false, nil
}

func (m *Machine) declare(ctx context.Context, fr *frame, d ast.Decl) error {
	v, ok := d.(*ast.VarDecl)
	if !ok {
		return nil
	}

	var (
		val ast.Value
		err error
	)

	if v.Init != nil {
		val, err = m.eval(ctx, fr, v.Init)
	} else {
		val, err = m.zero(ctx, v.Type)
	}

	if err != nil {
		return err
	}

	fr.vars[v] = &val

	return nil
}

func (m *Machine) effect(ctx context.Context, fr *frame, kind ast.EffectKind, pos ast.Loc, refl ast.Expr) (ast.Effect, error) {
	v, err := m.eval(ctx, fr, refl)
	if err != nil {
		return ast.Effect{}, err
	}

	return ast.Effect{
		Kind:           kind,
		Pos:            pos,
		ReflectionType: m.reflectionType(refl.Type(), v),
		Reflection:     v,
	}, nil
}

// reflectionType returns the type an effect records for the reflection v
// of static type t: t itself when it is a reflection type, otherwise the
// type the value was built with.
func (m *Machine) reflectionType(t ast.Type, v ast.Value) ast.Type {
	if rec := ast.AsRecordDecl(t); rec != nil && (rec.Fragment || rec.Template != nil && m.unit.Meta.Owns(rec)) {
		return t
	}

	if v.Record != nil {
		return v.Record.Type()
	}

	if c := v.Reflected(); c.IsValid() {
		return m.unit.Meta.ReflectionType(c)
	}

	return t
}
