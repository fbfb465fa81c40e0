package sema

import (
	"log/slog"
	"slices"

	"github.com/ardnew/splice/ast"
)

// decodeMods reads the modification traits of a reflection value. The
// trait record is found by name through the reflection's bases; its layout
// and version are checked against [ast.ModsFields] once per record type.
// A reflection without a trait record has no modifications.
func (s *Sema) decodeMods(reflTy ast.Type, v ast.Value) (ast.Mods, error) {
	rec := ast.AsRecordDecl(reflTy)
	if rec == nil || !s.IsReflectionType(reflTy) {
		rec = v.Record
	}

	if rec == nil {
		return ast.Mods{}, nil
	}

	mv, field, ok := v.Field(rec, ast.ModsMember)
	if !ok {
		return ast.Mods{}, nil
	}

	mrec := ast.AsRecordDecl(field.Type)
	if err := s.checkModsSchema(mrec, *mv); err != nil {
		return ast.Mods{}, err
	}

	get := func(name string) ast.Value {
		fv, _, _ := mv.Field(mrec, name)

		return *fv
	}

	mods := ast.Mods{
		Linkage:   ast.LinkageMod(get(ast.ModsLinkage).Int),
		Access:    ast.AccessMod(get(ast.ModsAccess).Int),
		Storage:   ast.StorageMod(get(ast.ModsStorage).Int),
		Constexpr: get(ast.ModsConstexpr).Bool,
		Virtual:   get(ast.ModsVirtual).Bool,
		Pure:      get(ast.ModsPure).Bool,
	}

	if mods.Access < ast.AccessModNone || mods.Access > ast.AccessModDefault {
		return ast.Mods{}, ErrTraitSchema.With(slog.Int64("access", int64(mods.Access)))
	}

	switch mods.Storage {
	case ast.StorageModAutomatic, ast.StorageModThreadLocal:
		panic(ErrUnreachableStorage.With(slog.String("storage", mods.Storage.String())))
	case ast.StorageModNone, ast.StorageModStatic:
	default:
		return ast.Mods{}, ErrTraitSchema.With(slog.Int64("storage", int64(mods.Storage)))
	}

	return mods, nil
}

func (s *Sema) checkModsSchema(rec *ast.RecordDecl, v ast.Value) error {
	if rec == nil {
		return ErrTraitSchema.With(slog.String("reason", "trait member is not a record"))
	}

	if !s.schemas[rec] {
		names := make([]string, 0, len(ast.ModsFields))
		for _, f := range rec.Fields() {
			names = append(names, f.Name)
		}

		if !slices.Equal(names, ast.ModsFields) {
			return ErrTraitSchema.With(slog.Any("fields", names))
		}

		s.schemas[rec] = true
	}

	if len(v.Fields) != len(ast.ModsFields) {
		return ErrTraitSchema.With(slog.Int("values", len(v.Fields)))
	}

	if ver := v.Fields[0]; ver.Kind != ast.ValueInt || ver.Int != ast.ModsSchemaVersion {
		return ErrTraitSchema.With(slog.String("version", ver.String()))
	}

	return nil
}

// applyTraits applies mods to clone, a copy being injected into injectee,
// in order: access, constexpr, then virtual and pure. The first trait that
// cannot be applied fails the injection. Without an access trait, a copy
// injected into a class with no access yet becomes public.
func (s *Sema) applyTraits(pos ast.Loc, clone ast.Decl, injectee ast.Context, mods ast.Mods) error {
	if err := s.applyAccess(pos, clone, injectee, mods); err != nil {
		return err
	}

	if mods.Constexpr {
		if err := s.applyConstexpr(pos, clone); err != nil {
			return err
		}
	}

	if mods.Virtual {
		return s.applyVirtual(pos, clone, mods.Pure)
	}

	return nil
}

func (s *Sema) applyAccess(pos ast.Loc, d ast.Decl, injectee ast.Context, mods ast.Mods) error {
	b := d.Base()

	if mods.Access == ast.AccessModNone {
		if ast.IsRecord(injectee) && b.Access == ast.AccessNone {
			b.Access = ast.AccessPublic
		}

		return nil
	}

	rec, ok := injectee.(*ast.RecordDecl)
	if !ok {
		return s.Diag(pos, DiagModifiesMemSpecOfNonMember, b.Name)
	}

	switch mods.Access {
	case ast.AccessModPublic:
		b.Access = ast.AccessPublic
	case ast.AccessModPrivate:
		b.Access = ast.AccessPrivate
	case ast.AccessModProtected:
		b.Access = ast.AccessProtected
	case ast.AccessModDefault:
		b.Access = rec.DefaultAccess()
	}

	return nil
}

func (s *Sema) applyConstexpr(pos ast.Loc, d ast.Decl) error {
	switch x := d.(type) {
	case *ast.VarDecl:
		if x.Init == nil {
			return s.Diag(pos, DiagConstexprVarRequiresInit, x.Name)
		}

		x.Constexpr = true
	case *ast.DestructorDecl:
		return s.Diag(pos, DiagConstexprDestructor, x.Name)
	case ast.Function:
		if m, ok := ast.AsMethod(d); ok && m.Virtual {
			return s.Diag(pos, DiagConstexprVirtual, m.Name)
		}

		x.Func().Constexpr = true
	default:
		return s.Diag(pos, DiagConstexprInvalidKind, d.Kind().String(), d.Base().Name)
	}

	return nil
}

func (s *Sema) applyVirtual(pos ast.Loc, d ast.Decl, pure bool) error {
	m, ok := ast.AsMethod(d)
	if !ok || m.Static {
		return s.Diag(pos, DiagVirtualNonMethod, d.Kind().String(), d.Base().Name)
	}

	if m.Constexpr {
		return s.Diag(pos, DiagConstexprVirtual, m.Name)
	}

	if pure {
		switch {
		case m.Defaulted:
			return s.Diag(pos, DiagCannotMakePureVirtual, m.Name, "defaulted")
		case m.Deleted:
			return s.Diag(pos, DiagCannotMakePureVirtual, m.Name, "deleted")
		case m.IsDefined() || s.hasPending(d):
			return s.Diag(pos, DiagCannotMakePureVirtual, m.Name, "defined")
		}
	}

	m.Virtual = true
	m.Pure = pure

	return nil
}

// hasPending reports whether the definition of d was postponed.
func (s *Sema) hasPending(d ast.Decl) bool {
	rec, ok := d.Base().Owner.(*ast.RecordDecl)
	if !ok {
		return false
	}

	for _, pb := range s.pending[rec] {
		if ast.Decl(pb.clone) == d {
			return true
		}
	}

	return false
}
