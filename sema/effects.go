package sema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// ApplyEffects applies effects in order at the point of injection poi.
//
// Injection effects inject into the current context unless they name an
// injectee; diagnostic effects print the reflected entity. Every effect is
// attempted even after one fails, and the result combines all failures. A
// canceled ctx or a fatal error stops processing.
func (s *Sema) ApplyEffects(ctx context.Context, poi ast.Loc, effects []ast.Effect) error {
	var errs error

	for i, e := range effects {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		if s.fatal != nil {
			return multierr.Append(errs, s.fatal)
		}

		var err error

		switch e.Kind {
		case ast.EffectInjection:
			_, err = s.applyInjection(ctx, poi, e)
		case ast.EffectDiagnostic:
			err = s.applyDiagnostic(poi, e)
		}

		if err != nil {
			s.logger.DebugContext(ctx, "effect failed",
				slog.Int("index", i),
				slog.String("kind", e.Kind.String()),
				slog.String("error", err.Error()),
			)

			errs = multierr.Append(errs, err)

			if errors.Is(err, ErrInstantiationDepth) {
				return errs
			}
		}
	}

	return errs
}

func (s *Sema) applyInjection(ctx context.Context, poi ast.Loc, e ast.Effect) ([]ast.Decl, error) {
	injection, err := s.reflectionOf(poi, e.ReflectionType, e.Reflection)
	if err != nil {
		return nil, err
	}

	injectee := s.cur

	if e.HasInjectee() {
		d, err := s.reflectionOf(poi, e.InjecteeType, e.Injectee)
		if err != nil {
			return nil, err
		}

		c, ok := d.(ast.Context)
		if !ok {
			return nil, s.Diag(poi, DiagExtendingNonReflection, e.InjecteeType.String())
		}

		injectee = c
	}

	reflTy := e.ReflectionType
	if !s.IsReflectionType(reflTy) && e.Reflection.Record != nil {
		reflTy = e.Reflection.Record.Type()
	}

	if rec := ast.AsRecordDecl(reflTy); rec != nil && rec.Fragment {
		return s.InjectFragment(ctx, poi, reflTy, e.Reflection, injectee, injection)
	}

	return s.CopyDeclaration(ctx, poi, reflTy, e.Reflection, injectee, injection)
}

func (s *Sema) applyDiagnostic(poi ast.Loc, e ast.Effect) error {
	c := e.Reflection.Reflected()
	if !c.IsValid() {
		c = s.EvaluateReflection(e.ReflectionType)
	}

	switch {
	case c.IsDecl():
		return ast.Fprint(s.out, c.Decl())
	case c.IsType():
		if rec := ast.AsRecordDecl(c.Type()); rec != nil {
			return ast.Fprint(s.out, rec)
		}

		_, err := fmt.Fprintln(s.out, c.Type().String())

		return err
	default:
		return s.Diag(poi, DiagNotAReflection, typeName(e.ReflectionType))
	}
}
