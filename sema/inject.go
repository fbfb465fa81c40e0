package sema

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// InjectFragment injects the members of a fragment's content into injectee.
//
// reflTy is the closure class of the fragment and refl its value; injection
// is the fragment content. Each member is substituted into injectee in
// order, with the fragment's placeholders bound to the captured values.
// The injected-class-name is skipped. A member that fails marks injectee
// invalid and the remaining members are still injected; the result is then
// an error wrapping every failure, returned with the members that were
// injected.
func (s *Sema) InjectFragment(
	ctx context.Context,
	poi ast.Loc,
	reflTy ast.Type,
	refl ast.Value,
	injectee ast.Context,
	injection ast.Decl,
) ([]ast.Decl, error) {
	content, ok := injection.(ast.Context)
	if !ok {
		return nil, ErrNotFragment.With(slog.String("kind", injection.Kind().String()))
	}

	if err := s.checkInjectionContexts(poi, content, injectee); err != nil {
		return nil, err
	}

	class := ast.AsRecordDecl(reflTy)
	if class == nil || !class.Fragment {
		class = refl.Record
	}

	frag, _ := content.Base().Owner.(*ast.FragmentDecl)

	done, err := s.beginInstantiation(poi, injection)
	if err != nil {
		return nil, err
	}
	defer done()

	ic, release := s.inject.Push(injectee)
	defer release()

	ic.AddDeclSubstitution(content, injectee)
	ic.AddPlaceholderSubstitutions(frag, class, refl.Fields)

	restore := s.EnterContext(injectee)
	defer restore()

	rw := s.newRewriter(ctx, ic)
	rw.cloning[content] = true

	var (
		out  []ast.Decl
		errs error
	)

	for _, m := range content.Members() {
		if r, ok := m.(*ast.RecordDecl); ok && r.InjectedClassName {
			continue
		}

		c, err := rw.decl(m, injectee)
		if err == nil && c != nil && c.Base().Invalid {
			err = ErrIncompleteInjection.With(slog.String("member", c.Base().Name))
		}

		if err != nil {
			injectee.Base().Invalid = true
			errs = multierr.Append(errs, err)

			continue
		}

		if c == nil {
			continue
		}

		added, err := s.attach(ctx, injectee, c)
		out = append(out, added...)

		if err != nil {
			injectee.Base().Invalid = true
			errs = multierr.Append(errs, err)
		}
	}

	if rw.errs != nil {
		injectee.Base().Invalid = true
		errs = multierr.Append(errs, rw.errs)
	}

	s.logger.Trace("inject fragment",
		slog.String("injectee", ast.QualifiedName(injectee)),
		slog.Int("members", len(out)),
		slog.Bool("ok", errs == nil),
	)

	if errs != nil {
		return out, ErrIncompleteInjection.Wrap(errs)
	}

	return out, nil
}

// checkInjectionContexts verifies that declarations owned by injectionDC
// may be injected into injecteeDC: class members only into classes and
// namespace members only into namespaces or the translation unit. A class
// injectee must be in the process of being defined.
func (s *Sema) checkInjectionContexts(pos ast.Loc, injectionDC, injecteeDC ast.Context) error {
	if injectionDC == nil || injecteeDC == nil {
		return nil
	}

	if (ast.IsRecord(injectionDC) && !ast.IsRecord(injecteeDC)) ||
		(ast.IsFileContext(injectionDC) && !ast.IsFileContext(injecteeDC)) {
		return s.Diag(pos, DiagInvalidInjection, describeMember(injectionDC), describeContext(injecteeDC))
	}

	if rec, ok := injecteeDC.(*ast.RecordDecl); ok && !rec.BeingDefined {
		return s.Diag(pos, DiagInjecteeNotBeingDefined, ast.QualifiedName(rec))
	}

	return nil
}

// checkInjectionKind rejects injecting a local variable or parameter
// anywhere but a function.
func (s *Sema) checkInjectionKind(pos ast.Loc, injection ast.Decl, injectee ast.Context) error {
	local := false

	switch x := injection.(type) {
	case *ast.VarDecl:
		local = x.LocalStorage()
	case *ast.ParmDecl:
		local = true
	}

	if local && !ast.IsFunctionOrMethod(injectee) {
		return s.Diag(pos, DiagInjectingLocalIntoInvalidScope, describeContext(injectee))
	}

	return nil
}

func describeMember(c ast.Context) string {
	switch {
	case ast.IsRecord(c):
		return "a class member"
	case ast.IsFileContext(c):
		return "a namespace member"
	default:
		return "a local declaration"
	}
}

func describeContext(c ast.Context) string {
	switch c.(type) {
	case *ast.TranslationUnitDecl:
		return "the translation unit"
	case *ast.NamespaceDecl:
		return "a namespace"
	case *ast.RecordDecl:
		return "a class"
	default:
		return "a function"
	}
}

// attach adds d, a substituted declaration, to owner. When owner is not
// dependent, an injection declaration is replaced by the declarations it
// injects and a constexpr block is evaluated after it is added. It returns
// the declarations added to owner.
func (s *Sema) attach(ctx context.Context, owner ast.Context, d ast.Decl) ([]ast.Decl, error) {
	switch x := d.(type) {
	case *ast.InjectionDecl:
		if ast.IsDependentContext(owner) || ast.IsDependentExpr(x.Reflection) {
			break
		}

		restore := s.EnterContext(owner)
		defer restore()

		return s.injectReflection(ctx, x.Pos, x.Reflection, owner)
	case *ast.ConstexprDecl:
		ast.Add(owner, x)

		if ast.IsDependentContext(owner) {
			return []ast.Decl{x}, nil
		}

		return []ast.Decl{x}, s.evaluateConstexprDecl(ctx, x)
	}

	ast.Add(owner, d)

	return []ast.Decl{d}, nil
}

// pendingBody is a member function definition postponed until its class is
// complete, with the substitutions it is instantiated under.
type pendingBody struct {
	clone   ast.Function
	src     ast.Function
	ic      *InjectionContext
	cloning map[ast.Context]bool
}

func (s *Sema) deferBody(rec *ast.RecordDecl, pb pendingBody) {
	s.pending[rec] = append(s.pending[rec], pb)
}

// takePending removes and returns the postponed definition of clone.
func (s *Sema) takePending(clone ast.Decl) (pendingBody, bool) {
	rec, ok := clone.Base().Owner.(*ast.RecordDecl)
	if !ok {
		return pendingBody{}, false
	}

	list := s.pending[rec]
	for i, pb := range list {
		if ast.Decl(pb.clone) == clone {
			s.pending[rec] = append(list[:i:i], list[i+1:]...)

			return pb, true
		}
	}

	return pendingBody{}, false
}

func (s *Sema) instantiateBody(ctx context.Context, pb pendingBody) error {
	if pb.clone.Func().Body != nil {
		return nil
	}

	done, err := s.beginInstantiation(pb.src.Base().Pos, pb.clone)
	if err != nil {
		return err
	}
	defer done()

	ic, release := s.inject.push(pb.ic.snapshot())
	defer release()

	rw := s.newRewriter(ctx, ic)
	for c := range pb.cloning {
		rw.cloning[c] = true
	}

	return rw.body(pb.clone, pb.src)
}

// StartDefinition begins the definition of r.
func (s *Sema) StartDefinition(r *ast.RecordDecl) {
	r.StartDefinition()
}

// CompleteDefinition completes the definition of r and instantiates the
// member function definitions postponed while it was being defined.
func (s *Sema) CompleteDefinition(ctx context.Context, r *ast.RecordDecl) error {
	r.CompleteDefinition()

	bodies := s.pending[r]
	delete(s.pending, r)

	var errs error
	for _, pb := range bodies {
		errs = multierr.Append(errs, s.instantiateBody(ctx, pb))
	}

	return errs
}
