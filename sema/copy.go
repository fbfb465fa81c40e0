package sema

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// CopyDeclaration injects a copy of the declaration injection, reflected by
// refl of type reflTy, into injectee.
//
// The modification traits carried by refl are applied to the copy. A field
// whose traits request static storage is copied as a static data member.
// Copying an injected-class-name does nothing and yields no declarations.
// A clone that fails or comes out invalid marks injectee invalid; a trait
// that cannot be applied is only diagnosed. On success the copy is the
// single injected declaration, unless it is an injection declaration that
// expands further.
func (s *Sema) CopyDeclaration(
	ctx context.Context,
	poi ast.Loc,
	reflTy ast.Type,
	refl ast.Value,
	injectee ast.Context,
	injection ast.Decl,
) ([]ast.Decl, error) {
	owner := injection.Base().Owner

	if err := s.checkInjectionContexts(poi, owner, injectee); err != nil {
		return nil, err
	}

	if err := s.checkInjectionKind(poi, injection, injectee); err != nil {
		return nil, err
	}

	if r, ok := injection.(*ast.RecordDecl); ok && r.InjectedClassName {
		return nil, nil
	}

	mods, err := s.decodeMods(reflTy, refl)
	if err != nil {
		return nil, err
	}

	done, err := s.beginInstantiation(poi, injection)
	if err != nil {
		return nil, err
	}
	defer done()

	ic, release := s.inject.Push(injectee)
	defer release()

	if owner != nil {
		ic.AddDeclSubstitution(owner, injectee)
	}

	restore := s.EnterContext(injectee)
	defer restore()

	rw := s.newRewriter(ctx, ic)

	var clone ast.Decl
	if f, ok := injection.(*ast.FieldDecl); ok && mods.Storage == ast.StorageModStatic {
		clone, err = rw.staticMember(f, injectee)
	} else {
		clone, err = rw.decl(injection, injectee)
	}

	err = multierr.Append(err, rw.errs)
	if err == nil && clone == nil {
		err = ErrUnsupportedDecl.With(slog.String("decl", injection.Base().Name))
	}

	if err == nil && clone.Base().Invalid {
		err = ErrInvalidClone.With(slog.String("decl", ast.QualifiedName(injection)))
	}

	if err != nil {
		if clone != nil {
			s.takePending(clone)
		}

		injectee.Base().Invalid = true

		return nil, err
	}

	if err := s.applyTraits(poi, clone, injectee, mods); err != nil {
		s.takePending(clone)

		return nil, err
	}

	if err := s.forceDefinition(ctx, injection, clone); err != nil {
		return nil, err
	}

	s.logger.Trace("copy declaration",
		slog.String("decl", ast.QualifiedName(injection)),
		slog.String("injectee", ast.QualifiedName(injectee)),
	)

	return s.attach(ctx, injectee, clone)
}

// forceDefinition instantiates the definition of clone now when src is a
// function definition and substitution left clone without one.
func (s *Sema) forceDefinition(ctx context.Context, src, clone ast.Decl) error {
	sf, ok := src.(ast.Function)
	if !ok || sf.Func().Body == nil {
		return nil
	}

	cf, ok := clone.(ast.Function)
	if !ok || cf.Func().Body != nil {
		return nil
	}

	pb, ok := s.takePending(clone)
	if !ok {
		pb = pendingBody{clone: cf, src: sf, ic: s.inject.Current(), cloning: nil}
	}

	return s.instantiateBody(ctx, pb)
}
