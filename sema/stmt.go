package sema

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/splice/ast"
)

// checkReflection reports a non-dependent operand that is not a
// reflection.
func (s *Sema) checkReflection(pos ast.Loc, e ast.Expr) error {
	if e == nil {
		return s.Diag(pos, DiagNotAReflection, "<null>")
	}

	if ast.IsDependentExpr(e) || s.IsReflectionType(e.Type()) {
		return nil
	}

	return s.Diag(pos, DiagNotAReflection, typeName(e.Type()))
}

// BuildInjectionStmt builds a statement that injects refl where the
// enclosing constexpr block is applied.
func (s *Sema) BuildInjectionStmt(pos ast.Loc, refl ast.Expr) (*ast.InjectionStmt, error) {
	if err := s.checkReflection(pos, refl); err != nil {
		return nil, err
	}

	return &ast.InjectionStmt{StmtBase: ast.StmtBase{Pos: pos}, Reflection: ast.RValueOf(refl)}, nil
}

// BuildExtensionStmt builds a statement that injects refl into the
// declaration reflected by target.
func (s *Sema) BuildExtensionStmt(pos ast.Loc, target, refl ast.Expr) (*ast.ExtensionStmt, error) {
	if target == nil {
		return nil, s.Diag(pos, DiagExtendingNonReflection, "<null>")
	}

	if !ast.IsDependentExpr(target) && ast.AsRecordDecl(target.Type()) == nil {
		return nil, s.Diag(pos, DiagExtendingNonReflection, typeName(target.Type()))
	}

	if err := s.checkReflection(pos, refl); err != nil {
		return nil, err
	}

	return &ast.ExtensionStmt{
		StmtBase:   ast.StmtBase{Pos: pos},
		Target:     ast.RValueOf(target),
		Reflection: ast.RValueOf(refl),
	}, nil
}

// BuildPrintStmt builds a statement that prints the entity refl denotes.
func (s *Sema) BuildPrintStmt(pos ast.Loc, refl ast.Expr) (*ast.PrintStmt, error) {
	if err := s.checkReflection(pos, refl); err != nil {
		return nil, err
	}

	return &ast.PrintStmt{StmtBase: ast.StmtBase{Pos: pos}, Reflection: ast.RValueOf(refl)}, nil
}

// ActOnInjectionDecl handles an injection declaration of refl in the
// current context. In a dependent context, or for a dependent reflection,
// the declaration is kept for later substitution. Otherwise the reflected
// declaration or fragment is injected at once.
func (s *Sema) ActOnInjectionDecl(ctx context.Context, pos ast.Loc, refl ast.Expr) ([]ast.Decl, error) {
	if err := s.checkReflection(pos, refl); err != nil {
		return nil, err
	}

	if ast.IsDependentContext(s.cur) || ast.IsDependentExpr(refl) {
		d := &ast.InjectionDecl{DeclBase: ast.DeclBase{Pos: pos}, Reflection: refl}
		if ast.IsRecord(s.cur) {
			d.Access = ast.AccessPublic
		}

		ast.Add(s.cur, d)

		return []ast.Decl{d}, nil
	}

	return s.injectReflection(ctx, pos, refl, s.cur)
}

// injectReflection injects the declaration or fragment refl denotes into
// injectee.
func (s *Sema) injectReflection(ctx context.Context, pos ast.Loc, refl ast.Expr, injectee ast.Context) ([]ast.Decl, error) {
	if err := s.checkReflection(pos, refl); err != nil {
		return nil, err
	}

	refl = ast.RValueOf(refl)

	v, err := s.evaluate(ctx, refl)
	if err != nil {
		d := s.Diag(pos, DiagEvaluationFailed, err)
		d.Notes = append(d.Notes, "while evaluating the injected reflection")

		return nil, d
	}

	injection, err := s.reflectionOf(pos, refl.Type(), v)
	if err != nil {
		return nil, err
	}

	if rec := ast.AsRecordDecl(refl.Type()); rec != nil && rec.Fragment {
		return s.InjectFragment(ctx, pos, refl.Type(), v, injectee, injection)
	}

	return s.CopyDeclaration(ctx, pos, refl.Type(), v, injectee, injection)
}

// ActOnStartConstexprDecl declares a constexpr block in the current
// context and makes it current until [Sema.ActOnFinishConstexprDecl].
func (s *Sema) ActOnStartConstexprDecl(pos ast.Loc) *ast.ConstexprDecl {
	cd := &ast.ConstexprDecl{DeclBase: ast.DeclBase{Pos: pos}}
	if ast.IsRecord(s.cur) {
		cd.Access = ast.AccessPublic
	}

	ast.Add(s.cur, cd)
	s.PushDeclContext(cd)
	s.PushScope(ast.ScopeFunction|ast.ScopeConstexpr, cd)

	return cd
}

// ActOnFinishConstexprDecl attaches body to cd and, unless cd is
// dependent, evaluates it and applies its effects where cd is declared.
func (s *Sema) ActOnFinishConstexprDecl(ctx context.Context, cd *ast.ConstexprDecl, body *ast.CompoundStmt) error {
	s.PopScope()
	s.PopDeclContext()

	cd.Body = body

	if ast.IsDependentContext(cd) {
		return nil
	}

	return s.evaluateConstexprDecl(ctx, cd)
}

// ActOnConstexprDecl declares and evaluates a constexpr block whose body
// was built elsewhere.
func (s *Sema) ActOnConstexprDecl(ctx context.Context, pos ast.Loc, body *ast.CompoundStmt) (*ast.ConstexprDecl, error) {
	cd := s.ActOnStartConstexprDecl(pos)

	return cd, s.ActOnFinishConstexprDecl(ctx, cd, body)
}

func (s *Sema) evaluateConstexprDecl(ctx context.Context, cd *ast.ConstexprDecl) error {
	if s.eval == nil {
		return ErrNoEvaluator
	}

	if cd.Evaluated {
		return nil
	}

	done, err := s.beginInstantiation(cd.Pos, cd)
	if err != nil {
		return err
	}
	defer done()

	restore := s.EnterContext(cd.Owner)
	defer restore()

	effects, err := s.eval.Execute(ctx, cd)
	if err != nil {
		if _, ok := AsDiagnostic(err); ok {
			return err
		}

		return s.Diag(cd.Pos, DiagEvaluationFailed, err)
	}

	cd.Evaluated = true

	s.logger.TraceContext(ctx, "constexpr",
		slog.String("context", ast.QualifiedName(cd.Owner)),
		slog.Int("effects", len(effects)),
	)

	return s.ApplyEffects(ctx, cd.Pos, effects)
}

// ProtoTypeName is the name of the alias a generated class declares for
// the type it was generated from.
const ProtoTypeName = "prototype"

// ActOnGeneratedTypeDecl declares a class named name whose members are
// produced by calling generator with a reflection of the new class and
// with refl. The class first declares an alias, prototype, for the type
// refl denotes.
func (s *Sema) ActOnGeneratedTypeDecl(
	ctx context.Context,
	pos ast.Loc,
	tag ast.TagKind,
	name string,
	generator ast.Expr,
	refl ast.Expr,
) (*ast.RecordDecl, error) {
	class := &ast.RecordDecl{DeclBase: ast.DeclBase{Name: name, Pos: pos}, Tag: tag}
	ast.Add(s.cur, class)
	s.StartDefinition(class)

	restore := s.EnterContext(class)
	defer restore()

	proto, err := s.BuildReflectedType(pos, refl)
	if err != nil {
		class.Invalid = true

		return class, err
	}

	ast.Add(class, &ast.TypeAliasDecl{
		DeclBase:   ast.DeclBase{Name: ProtoTypeName, Pos: pos, Access: ast.AccessPublic, Implicit: true},
		Underlying: proto,
	})

	var result ast.Type = ast.Void
	if ft, ok := ast.Canonical(generator.Type()).(*ast.FunctionType); ok && ft.Result != nil {
		result = ft.Result
	}

	call := &ast.CallExpr{
		ExprBase: ast.ExprBase{Pos: pos, Ty: result},
		Callee:   generator,
		Args:     []ast.Expr{s.Unit.Reflect(pos, ast.DeclConstruct(class)), ast.RValueOf(refl)},
	}

	_, err = s.ActOnConstexprDecl(ctx, pos, &ast.CompoundStmt{
		StmtBase: ast.StmtBase{Pos: pos},
		Stmts:    []ast.Stmt{&ast.ExprStmt{StmtBase: ast.StmtBase{Pos: pos}, X: call}},
	})

	if cerr := s.CompleteDefinition(ctx, class); cerr != nil && err == nil {
		err = cerr
	}

	if err != nil {
		class.Invalid = true
	}

	return class, err
}

// InstantiateRecord instantiates the dependent class pattern as a class
// named name declared next to it. Injection declarations and constexpr
// blocks of the pattern are resolved in the instantiation.
func (s *Sema) InstantiateRecord(ctx context.Context, pattern *ast.RecordDecl, name string) (*ast.RecordDecl, error) {
	inst := &ast.RecordDecl{
		DeclBase: ast.DeclBase{Name: name, Pos: pattern.Pos, Access: pattern.Access},
		Tag:      pattern.Tag,
	}

	owner := pattern.Owner
	if owner == nil {
		owner = s.Unit.TU
	}

	ast.Add(owner, inst)

	done, err := s.beginInstantiation(pattern.Pos, pattern)
	if err != nil {
		return nil, err
	}
	defer done()

	ic, release := s.inject.Push(inst)
	defer release()

	ic.AddDeclSubstitution(pattern, inst)

	rw := s.newRewriter(ctx, ic)
	for _, b := range pattern.Bases {
		inst.Bases = append(inst.Bases, ast.BaseSpec{Type: rw.typ(b.Type), Access: b.Access, Virtual: b.Virtual})
	}

	s.StartDefinition(inst)

	restore := s.EnterContext(inst)
	defer restore()

	rw.cloning[pattern] = true

	var errs error

	for _, m := range pattern.Members() {
		if r, ok := m.(*ast.RecordDecl); ok && r.InjectedClassName {
			continue
		}

		c, err := rw.decl(m, inst)
		if err == nil && c != nil {
			_, err = s.attach(ctx, inst, c)
		}

		if err != nil {
			inst.Invalid = true
			errs = multierr.Append(errs, err)
		}
	}

	errs = multierr.Append(errs, rw.errs)
	errs = multierr.Append(errs, s.CompleteDefinition(ctx, inst))

	return inst, errs
}
