package sema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/splice/ast"
	"github.com/ardnew/splice/consteval"
	"github.com/ardnew/splice/sema"
)

func returning(n int64) *ast.CompoundStmt {
	return &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{X: intLit(n)}}}
}

func TestCopyDeclaration_StaticField(t *testing.T) {
	e := newEnv(t)

	a := class(e.u.TU, "A")
	b := field(a, "b", intLit(2))
	a.CompleteDefinition()

	s := class(e.u.TU, "S")

	restore := e.s.EnterContext(s)
	defer restore()

	refl := e.modify(b, map[ast.Trait]int64{ast.TraitStorage: int64(ast.StorageModStatic)})

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), refl)
	if err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	v, ok := decls[0].(*ast.VarDecl)
	if !ok || !v.StaticMember() || v.Storage != ast.StorageStatic {
		t.Fatalf("injected %T, want a static data member", decls[0])
	}

	got, err := consteval.New(e.u).Evaluate(t.Context(), v.Init)
	if err != nil || got.Int != 2 {
		t.Errorf("initializer = %v, %v", got, err)
	}

	if len(s.Fields()) != 0 {
		t.Error("static member also injected as a field")
	}
}

func TestCopyDeclaration_Access(t *testing.T) {
	tests := []struct {
		name   string
		traits map[ast.Trait]int64
		tag    ast.TagKind
		want   ast.Access
	}{
		{"unchanged", nil, ast.TagClass, ast.AccessPublic},
		{"private", map[ast.Trait]int64{ast.TraitAccess: int64(ast.AccessModPrivate)}, ast.TagClass, ast.AccessPrivate},
		{"protected", map[ast.Trait]int64{ast.TraitAccess: int64(ast.AccessModProtected)}, ast.TagClass, ast.AccessProtected},
		{"class default", map[ast.Trait]int64{ast.TraitAccess: int64(ast.AccessModDefault)}, ast.TagClass, ast.AccessPrivate},
		{"struct default", map[ast.Trait]int64{ast.TraitAccess: int64(ast.AccessModDefault)}, ast.TagStruct, ast.AccessPublic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			a := class(e.u.TU, "A")
			m := method(a, "m")
			m.Body = returning(1)
			a.CompleteDefinition()

			s := &ast.RecordDecl{DeclBase: ast.DeclBase{Name: "S"}, Tag: tt.tag}
			ast.Add(e.u.TU, s)
			e.s.StartDefinition(s)

			restore := e.s.EnterContext(s)
			defer restore()

			decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), e.modify(m, tt.traits))
			if err != nil {
				t.Fatalf("ActOnInjectionDecl: %v", err)
			}

			clone := decls[0].(*ast.MethodDecl)
			if clone.Access != tt.want {
				t.Errorf("access = %v, want %v", clone.Access, tt.want)
			}

			if clone == m || clone.Body == nil {
				t.Error("copy is not a separate definition")
			}
		})
	}
}

func TestCopyDeclaration_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		decl   func(a *ast.RecordDecl) ast.Decl
		traits map[ast.Trait]int64
		inNS   bool
		want   sema.DiagKind
	}{
		{
			name: "pure defaulted",
			decl: func(a *ast.RecordDecl) ast.Decl {
				m := method(a, "m")
				m.Defaulted = true

				return m
			},
			traits: map[ast.Trait]int64{ast.TraitVirtual: 1, ast.TraitPure: 1},
			want:   sema.DiagCannotMakePureVirtual,
		},
		{
			name: "pure defined",
			decl: func(a *ast.RecordDecl) ast.Decl {
				m := method(a, "m")
				m.Body = returning(1)

				return m
			},
			traits: map[ast.Trait]int64{ast.TraitVirtual: 1, ast.TraitPure: 1},
			want:   sema.DiagCannotMakePureVirtual,
		},
		{
			name: "constexpr destructor",
			decl: func(a *ast.RecordDecl) ast.Decl {
				d := &ast.DestructorDecl{}
				d.Name, d.Access, d.Result = "~A", ast.AccessPublic, ast.Void
				ast.Add(a, d)

				return d
			},
			traits: map[ast.Trait]int64{ast.TraitConstexpr: 1},
			want:   sema.DiagConstexprDestructor,
		},
		{
			name:   "constexpr field",
			decl:   func(a *ast.RecordDecl) ast.Decl { return field(a, "f", nil) },
			traits: map[ast.Trait]int64{ast.TraitConstexpr: 1},
			want:   sema.DiagConstexprInvalidKind,
		},
		{
			name:   "virtual field",
			decl:   func(a *ast.RecordDecl) ast.Decl { return field(a, "f", nil) },
			traits: map[ast.Trait]int64{ast.TraitVirtual: 1},
			want:   sema.DiagVirtualNonMethod,
		},
		{
			name: "constexpr virtual",
			decl: func(a *ast.RecordDecl) ast.Decl {
				m := method(a, "m")
				m.Virtual = true

				return m
			},
			traits: map[ast.Trait]int64{ast.TraitConstexpr: 1},
			want:   sema.DiagConstexprVirtual,
		},
		{
			name: "access outside a class",
			decl: func(a *ast.RecordDecl) ast.Decl {
				v := &ast.VarDecl{DeclBase: ast.DeclBase{Name: "x"}, Type: ast.Int, Init: intLit(1)}
				ast.Add(a.Owner, v)

				return v
			},
			traits: map[ast.Trait]int64{ast.TraitAccess: int64(ast.AccessModPublic)},
			inNS:   true,
			want:   sema.DiagModifiesMemSpecOfNonMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			a := class(e.u.TU, "A")
			d := tt.decl(a)
			a.CompleteDefinition()

			var injectee ast.Context = class(e.u.TU, "S")
			if tt.inNS {
				injectee = namespace(e.u.TU, "N")
			}

			restore := e.s.EnterContext(injectee)
			defer restore()

			before := len(injectee.Members())

			decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), e.modify(d, tt.traits))

			if diag, ok := sema.AsDiagnostic(err); !ok || diag.Kind != tt.want {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if len(decls) != 0 || len(injectee.Members()) != before {
				t.Errorf("injectee changed: %v", names(injectee))
			}

			if injectee.Base().Invalid {
				t.Error("rejected trait marked injectee invalid")
			}
		})
	}
}

func TestCopyDeclaration_PureVirtual(t *testing.T) {
	e := newEnv(t)

	a := class(e.u.TU, "A")
	m := method(a, "m")
	a.CompleteDefinition()

	s := class(e.u.TU, "S")

	restore := e.s.EnterContext(s)
	defer restore()

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2),
		e.modify(m, map[ast.Trait]int64{ast.TraitVirtual: 1, ast.TraitPure: 1}))
	if err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	clone := decls[0].(*ast.MethodDecl)
	if !clone.Virtual || !clone.Pure {
		t.Errorf("virtual=%v pure=%v", clone.Virtual, clone.Pure)
	}

	if m.Virtual || m.Pure {
		t.Error("source declaration modified")
	}
}

func TestCopyDeclaration_InjectedClassName(t *testing.T) {
	e := newEnv(t)

	a := class(e.u.TU, "A")
	field(a, "x", intLit(1))
	a.CompleteDefinition()

	var icn *ast.RecordDecl

	for _, m := range a.Members() {
		if r, ok := m.(*ast.RecordDecl); ok && r.InjectedClassName {
			icn = r
		}
	}

	if icn == nil {
		t.Fatal("A has no injected-class-name")
	}

	s := class(e.u.TU, "S")
	before := len(s.Members())

	restore := e.s.EnterContext(s)
	defer restore()

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), e.modify(icn, nil))
	if err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	if len(decls) != 0 || len(s.Members()) != before {
		t.Errorf("injected %d declarations, members = %v", len(decls), names(s))
	}

	if s.Invalid {
		t.Error("injectee marked invalid")
	}
}

func TestCopyDeclaration_InvalidCopyMarksInjectee(t *testing.T) {
	e := newEnv(t)

	a := class(e.u.TU, "A")
	x := field(a, "x", nil)
	x.Type = ast.Dependent
	a.CompleteDefinition()

	s := class(e.u.TU, "S")

	restore := e.s.EnterContext(s)
	defer restore()

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), e.modify(x, nil))
	if err == nil {
		t.Fatal("copy of a field with a dependent type succeeded")
	}

	if !e.s.Diagnostics().Has(sema.DiagUnresolvedDependentType) {
		t.Errorf("diagnostics = %v", e.s.Diagnostics().Kinds())
	}

	if len(decls) != 0 || len(names(s)) != 0 {
		t.Errorf("injectee changed: %v", names(s))
	}

	if !s.Invalid {
		t.Error("injectee not marked invalid")
	}
}

func TestCopyDeclaration_LocalIntoNamespace(t *testing.T) {
	e := newEnv(t)
	fn := e.function(t, "f")
	x := e.local(fn, "x", intLit(1))

	ns := namespace(e.u.TU, "N")

	v := e.u.Meta.ReflectionValue(ast.DeclConstruct(x))

	_, err := e.s.CopyDeclaration(t.Context(), at(2), e.u.Meta.ReflectionType(ast.DeclConstruct(x)), v, ns, x)
	if d, ok := sema.AsDiagnostic(err); !ok || d.Kind != sema.DiagInjectingLocalIntoInvalidScope {
		t.Fatalf("err = %v", err)
	}
}

func TestCopyDeclaration_RoundTrip(t *testing.T) {
	e := newEnv(t)

	src := namespace(e.u.TU, "src")
	fn := &ast.FunctionDecl{
		DeclBase: ast.DeclBase{Name: "g"},
		Result:   ast.Int,
		Params:   []*ast.ParmDecl{{DeclBase: ast.DeclBase{Name: "a"}, Type: ast.Int}},
	}
	fn.Params[0].Owner = fn
	fn.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{X: ref(fn.Params[0])}}}
	ast.Add(src, fn)

	dst := namespace(e.u.TU, "dst")

	restore := e.s.EnterContext(dst)
	defer restore()

	decls, err := e.s.ActOnInjectionDecl(t.Context(), at(2), e.u.Reflect(at(2), ast.DeclConstruct(fn)))
	if err != nil {
		t.Fatalf("ActOnInjectionDecl: %v", err)
	}

	clone := decls[0].(*ast.FunctionDecl)
	if clone == fn || clone.Owner != ast.Context(dst) {
		t.Fatalf("copy is not owned by the injectee")
	}

	if diff := cmp.Diff(ast.Sprint(fn), ast.Sprint(clone)); diff != "" {
		t.Errorf("copy differs from source (-src +copy):\n%s", diff)
	}

	ret := clone.Body.Stmts[0].(*ast.ReturnStmt)
	if got := ast.IgnoreImplicit(ret.X).(*ast.DeclRefExpr).Decl; got != ast.Decl(clone.Params[0]) {
		t.Error("body still refers to the source parameter")
	}
}
