package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newClass(u *Unit, name string) *RecordDecl {
	r := &RecordDecl{DeclBase: DeclBase{Name: name}, Tag: TagClass}
	Add(u.TU, r)
	r.StartDefinition()

	return r
}

func TestRecord_StartDefinition_InjectedClassName(t *testing.T) {
	u := NewUnit("t")
	r := newClass(u, "S")

	r.StartDefinition() // idempotent

	var icn []*RecordDecl
	for _, m := range r.Members() {
		if x, ok := m.(*RecordDecl); ok && x.InjectedClassName {
			icn = append(icn, x)
		}
	}

	if len(icn) != 1 {
		t.Fatalf("expected one injected-class-name, got %d", len(icn))
	}

	if icn[0].Name != "S" || !icn[0].Implicit {
		t.Errorf("unexpected injected-class-name %+v", icn[0].DeclBase)
	}

	anon := &RecordDecl{Tag: TagStruct}
	anon.StartDefinition()

	if len(anon.Members()) != 0 {
		t.Error("anonymous record declared an injected-class-name")
	}
}

func TestContext_Predicates(t *testing.T) {
	u := NewUnit("t")
	ns := &NamespaceDecl{DeclBase: DeclBase{Name: "N"}}
	Add(u.TU, ns)

	r := newClass(u, "S")
	fn := &FunctionDecl{DeclBase: DeclBase{Name: "f"}}
	Add(ns, fn)

	m := &MethodDecl{FunctionDecl: FunctionDecl{DeclBase: DeclBase{Name: "g"}}}
	Add(r, m)

	frag := &FragmentDecl{}
	Add(fn, frag)

	content := &RecordDecl{Tag: TagClass}
	Add(frag, content)
	frag.Content = content

	tests := []struct {
		name                     string
		c                        Context
		record, file, fn, depend bool
	}{
		{"tu", u.TU, false, true, false, false},
		{"namespace", ns, false, true, false, false},
		{"record", r, true, false, false, false},
		{"function", fn, false, false, true, false},
		{"method", m, false, false, true, false},
		{"fragment content", content, true, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecord(tt.c); got != tt.record {
				t.Errorf("IsRecord = %v", got)
			}

			if got := IsFileContext(tt.c); got != tt.file {
				t.Errorf("IsFileContext = %v", got)
			}

			if got := IsFunctionOrMethod(tt.c); got != tt.fn {
				t.Errorf("IsFunctionOrMethod = %v", got)
			}

			if got := IsDependentContext(tt.c); got != tt.depend {
				t.Errorf("IsDependentContext = %v", got)
			}
		})
	}

	if EnclosingFunction(content) != Context(fn) {
		t.Error("EnclosingFunction did not find f")
	}

	if got := QualifiedName(m); got != "S::g" {
		t.Errorf("QualifiedName = %q", got)
	}
}

func TestVarDecl_LocalStorage(t *testing.T) {
	u := NewUnit("t")
	fn := &FunctionDecl{DeclBase: DeclBase{Name: "f"}}
	Add(u.TU, fn)

	local := &VarDecl{DeclBase: DeclBase{Name: "x"}, Type: Int}
	Add(fn, local)

	static := &VarDecl{DeclBase: DeclBase{Name: "y"}, Type: Int, Storage: StorageStatic}
	Add(fn, static)

	global := &VarDecl{DeclBase: DeclBase{Name: "z"}, Type: Int}
	Add(u.TU, global)

	if !local.LocalStorage() || static.LocalStorage() || global.LocalStorage() {
		t.Errorf("local=%v static=%v global=%v",
			local.LocalStorage(), static.LocalStorage(), global.LocalStorage())
	}
}

func TestAsFunction_CoversFamily(t *testing.T) {
	ctor := &ConstructorDecl{}
	ctor.Name = "S"

	f, ok := AsFunction(ctor)
	if !ok || f.Name != "S" {
		t.Fatalf("AsFunction(ctor) = %v, %v", f, ok)
	}

	if _, ok := AsMethod(&DestructorDecl{}); !ok {
		t.Error("destructor is not a method")
	}

	if _, ok := AsMethod(&FunctionDecl{}); ok {
		t.Error("free function reported as a method")
	}

	if _, ok := AsFunction(&VarDecl{}); ok {
		t.Error("variable reported as a function")
	}
}

func TestMeta_ReflectionTypes(t *testing.T) {
	u := NewUnit("t")
	fn := &FunctionDecl{DeclBase: DeclBase{Name: "f"}, Result: Int}
	Add(u.TU, fn)

	spec := u.Meta.Reflect(DeclConstruct(fn))
	if spec != u.Meta.Reflect(DeclConstruct(fn)) {
		t.Error("specializations are not unique")
	}

	if !u.Meta.Owns(spec) {
		t.Error("specialization not owned by meta")
	}

	if got := spec.Type().String(); got != "meta::function<f>" {
		t.Errorf("type = %q", got)
	}

	tuple := AsRecordDecl(u.Meta.ParmsType(fn))
	if tuple == nil || tuple.Template.Name != TemplateTuple {
		t.Fatalf("ParmsType = %v", tuple)
	}

	if got := tuple.Type().String(); got != "meta::reflected_tuple<meta::function<f>::parm_info>" {
		t.Errorf("tuple type = %q", got)
	}

	if got := TemplateFor(TypeConstruct(Int)); got != TemplateType {
		t.Errorf("TemplateFor(int) = %q", got)
	}
}

func TestValue_FieldThroughBases(t *testing.T) {
	u := NewUnit("t")

	x := &VarDecl{DeclBase: DeclBase{Name: "x"}, Type: Int}
	Add(u.TU, x)

	rv := u.Meta.ReflectionValue(DeclConstruct(x))
	spec := u.Meta.Reflect(DeclConstruct(x))

	mods, field, ok := rv.Field(spec, ModsMember)
	if !ok {
		t.Fatal("mods not found through base")
	}

	if AsRecordDecl(field.Type) != u.Meta.Mods {
		t.Errorf("mods field has type %v", field.Type)
	}

	storage, _, ok := mods.Field(u.Meta.Mods, ModsStorage)
	if !ok {
		t.Fatal("storage not found")
	}

	storage.Int = int64(StorageModStatic)

	again, _, _ := rv.Field(spec, ModsMember)
	got, _, _ := again.Field(u.Meta.Mods, ModsStorage)

	if got.Int != int64(StorageModStatic) {
		t.Error("Field does not alias the value")
	}

	clone := rv.Clone()
	cm, _, _ := clone.Field(spec, ModsMember)
	cs, _, _ := cm.Field(u.Meta.Mods, ModsStorage)
	cs.Int = 0

	if got.Int != int64(StorageModStatic) {
		t.Error("Clone shares storage with the original")
	}

	if rv.Reflected().Decl() != Decl(x) {
		t.Error("Reflected lost the construct")
	}
}

func TestPrint_Record(t *testing.T) {
	u := NewUnit("t")
	r := newClass(u, "S")

	Add(r, &FieldDecl{
		DeclBase: DeclBase{Name: "a", Access: AccessPublic},
		Type:     Int,
		Init:     &IntLit{ExprBase: ExprBase{Ty: Int}, Value: 1},
	})
	Add(r, &VarDecl{
		DeclBase: DeclBase{Name: "b", Access: AccessPublic},
		Type:     Int, Storage: StorageStatic, Constexpr: true,
		Init: &IntLit{ExprBase: ExprBase{Ty: Int}, Value: 2},
	})

	f := &MethodDecl{
		FunctionDecl: FunctionDecl{
			DeclBase: DeclBase{Name: "f", Access: AccessPrivate},
			Result:   Int,
		},
		Virtual: true,
		Pure:    true,
	}
	Add(r, f)
	r.CompleteDefinition()

	want := strings.Join([]string{
		"class S {",
		"public:",
		"  int a = 1;",
		"  static constexpr int b = 2;",
		"private:",
		"  virtual int f() = 0;",
		"};",
		"",
	}, "\n")

	if diff := cmp.Diff(want, Sprint(u.TU)); diff != "" {
		t.Errorf("printed output mismatch (-want +got):\n%s", diff)
	}
}

func TestToMap_OmitsImplicit(t *testing.T) {
	u := NewUnit("t")
	r := newClass(u, "S")
	Add(r, &FieldDecl{DeclBase: DeclBase{Name: "a", Access: AccessPublic}, Type: Int})
	r.CompleteDefinition()

	got := ToMap(u.TU, false)

	want := map[string]any{
		"kind": "translation-unit",
		"name": "t",
		"members": []any{
			map[string]any{
				"kind": "record",
				"name": "S",
				"tag":  "class",
				"members": []any{
					map[string]any{"kind": "field", "name": "a", "access": "public", "type": "int"},
				},
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToMap mismatch (-want +got):\n%s", diff)
	}
}
