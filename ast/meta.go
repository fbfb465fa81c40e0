package ast

// Names of the fields of the modification-trait record, in declaration
// order. The record is located in a reflection value by the field name
// [ModsMember] and decoded by these names.
const (
	ModsMember    = "mods"
	ModsVersion   = "version"
	ModsLinkage   = "linkage"
	ModsAccess    = "access"
	ModsStorage   = "storage"
	ModsConstexpr = "make_constexpr"
	ModsVirtual   = "make_virtual"
	ModsPure      = "make_pure"
)

// ModsSchemaVersion is the version of the modification-trait record layout.
const ModsSchemaVersion = 1

// ModsFields lists the modification-trait field names in declaration order.
//
//nolint:gochecknoglobals
var ModsFields = []string{
	ModsVersion,
	ModsLinkage,
	ModsAccess,
	ModsStorage,
	ModsConstexpr,
	ModsVirtual,
	ModsPure,
}

// LinkageMod is the requested linkage of an injected declaration.
type LinkageMod int64

const (
	LinkageNone LinkageMod = iota
	LinkageExternal
)

// AccessMod is the requested access of an injected declaration.
type AccessMod int64

const (
	AccessModNone AccessMod = iota
	AccessModPublic
	AccessModPrivate
	AccessModProtected
	AccessModDefault
)

func (a AccessMod) String() string {
	switch a {
	case AccessModPublic:
		return "public"
	case AccessModPrivate:
		return "private"
	case AccessModProtected:
		return "protected"
	case AccessModDefault:
		return "default"
	default:
		return "none"
	}
}

// StorageMod is the requested storage of an injected declaration.
type StorageMod int64

const (
	StorageModNone StorageMod = iota
	StorageModStatic
	StorageModAutomatic
	StorageModThreadLocal
)

func (s StorageMod) String() string {
	switch s {
	case StorageModStatic:
		return "static"
	case StorageModAutomatic:
		return "automatic"
	case StorageModThreadLocal:
		return "thread_local"
	default:
		return "none"
	}
}

// Mods is a decoded modification-trait record.
type Mods struct {
	Linkage   LinkageMod
	Access    AccessMod
	Storage   StorageMod
	Constexpr bool
	Virtual   bool
	Pure      bool
}

// IsZero reports whether no modification is requested.
func (m Mods) IsZero() bool { return m == Mods{} }

// Meta is the reflection library namespace, meta::v1 (inline), and the
// class templates that type reflection values.
type Meta struct {
	NS      *NamespaceDecl
	Version *NamespaceDecl

	// DeclInfo is the base of every declaration reflection. Its only field
	// is the trait record.
	DeclInfo *RecordDecl
	// Mods is the trait record type.
	Mods *RecordDecl

	specs map[specKey]*RecordDecl
}

type specKey struct {
	name string
	arg  any
}

// Template names.
const (
	TemplateVariable    = "variable"
	TemplateField       = "field"
	TemplateParameter   = "parameter"
	TemplateFunction    = "function"
	TemplateMethod      = "method"
	TemplateConstructor = "constructor"
	TemplateDestructor  = "destructor"
	TemplateClass       = "class_"
	TemplateNamespace   = "namespace_"
	TemplateTypeAlias   = "type_alias"
	TemplateFragment    = "fragment"
	TemplateType        = "type"
	TemplateTuple       = "reflected_tuple"

	// ParmInfo is the member of function and method specializations that
	// describes their parameter list.
	ParmInfo = "parm_info"
)

func newMeta(tu *TranslationUnitDecl) *Meta {
	ns := &NamespaceDecl{DeclBase: DeclBase{Name: "meta", Implicit: true}}
	Add(tu, ns)

	v1 := &NamespaceDecl{DeclBase: DeclBase{Name: "v1", Implicit: true}, Inline: true}
	Add(ns, v1)

	mods := &RecordDecl{
		DeclBase: DeclBase{Name: ModsMember, Implicit: true},
		Tag:      TagStruct,
	}
	Add(v1, mods)

	for _, name := range ModsFields {
		t := Type(Int)
		switch name {
		case ModsConstexpr, ModsVirtual, ModsPure:
			t = Bool
		}

		Add(mods, &FieldDecl{
			DeclBase: DeclBase{Name: name, Access: AccessPublic, Implicit: true},
			Type:     t,
		})
	}

	mods.CompleteDefinition()

	info := &RecordDecl{
		DeclBase: DeclBase{Name: "decl_info", Implicit: true},
		Tag:      TagStruct,
	}
	Add(v1, info)
	Add(info, &FieldDecl{
		DeclBase: DeclBase{Name: ModsMember, Access: AccessPublic, Implicit: true},
		Type:     mods.Type(),
	})
	info.CompleteDefinition()

	return &Meta{
		NS:       ns,
		Version:  v1,
		DeclInfo: info,
		Mods:     mods,
		specs:    make(map[specKey]*RecordDecl),
	}
}

// TemplateFor returns the name of the class template reflecting c.
func TemplateFor(c Construct) string {
	if c.IsType() {
		return TemplateType
	}

	switch c.Decl().(type) {
	case *VarDecl:
		return TemplateVariable
	case *FieldDecl:
		return TemplateField
	case *ParmDecl:
		return TemplateParameter
	case *ConstructorDecl:
		return TemplateConstructor
	case *DestructorDecl:
		return TemplateDestructor
	case *MethodDecl:
		return TemplateMethod
	case *FunctionDecl:
		return TemplateFunction
	case *RecordDecl:
		return TemplateClass
	case *NamespaceDecl, *TranslationUnitDecl:
		return TemplateNamespace
	case *TypeAliasDecl:
		return TemplateTypeAlias
	case *FragmentDecl:
		return TemplateFragment
	default:
		return TemplateType
	}
}

// Reflect returns the specialization of the class template reflecting c,
// creating it on first use.
func (m *Meta) Reflect(c Construct) *RecordDecl {
	name := TemplateFor(c)

	var key any = c.Decl()
	if c.IsType() {
		key = c.Type()
	}

	if r, ok := m.specs[specKey{name, key}]; ok {
		return r
	}

	r := &RecordDecl{
		DeclBase: DeclBase{Name: name, Implicit: true},
		Tag:      TagStruct,
		Template: &Specialization{Name: name, Args: []TemplateArg{{Construct: c}}},
	}

	if c.IsDecl() {
		r.Bases = []BaseSpec{{Type: m.DeclInfo.Type(), Access: AccessPublic}}
	}

	Add(m.Version, r)

	switch name {
	case TemplateFunction, TemplateMethod, TemplateConstructor, TemplateDestructor:
		pi := &RecordDecl{
			DeclBase: DeclBase{Name: ParmInfo, Access: AccessPublic, Implicit: true},
			Tag:      TagStruct,
		}
		Add(r, pi)
		pi.CompleteDefinition()
	}

	r.CompleteDefinition()
	m.specs[specKey{name, key}] = r

	return r
}

// ReflectionType returns the static type of a reflection of c.
func (m *Meta) ReflectionType(c Construct) Type { return m.Reflect(c).Type() }

// Tuple returns reflected_tuple<elem>.
func (m *Meta) Tuple(elem Type) *RecordDecl {
	if r, ok := m.specs[specKey{TemplateTuple, elem}]; ok {
		return r
	}

	r := &RecordDecl{
		DeclBase: DeclBase{Name: TemplateTuple, Implicit: true},
		Tag:      TagStruct,
		Template: &Specialization{Name: TemplateTuple, Args: []TemplateArg{{Type: elem}}},
	}
	Add(m.Version, r)
	r.CompleteDefinition()
	m.specs[specKey{TemplateTuple, elem}] = r

	return r
}

// ParmsType returns the type reflecting the whole parameter list of fn:
// reflected_tuple<function<fn>::parm_info>, or the method form for member
// functions.
func (m *Meta) ParmsType(fn Decl) Type {
	spec := m.Reflect(DeclConstruct(fn))

	for _, d := range spec.Lookup(ParmInfo) {
		if pi, ok := d.(*RecordDecl); ok {
			return m.Tuple(pi.Type()).Type()
		}
	}

	return spec.Type()
}

// Owns reports whether r is declared in the meta namespace, looking through
// inline namespaces.
func (m *Meta) Owns(r *RecordDecl) bool {
	return r != nil && r.Owner != nil && StripInlineNamespaces(r.Owner) == Context(m.NS)
}

// ModsValue encodes mods as a value of the trait record type.
func (m *Meta) ModsValue(mods Mods) Value {
	v := StructValue(nil, []Value{
		IntValue(ModsSchemaVersion),
		IntValue(int64(mods.Linkage)),
		IntValue(int64(mods.Access)),
		IntValue(int64(mods.Storage)),
		BoolValue(mods.Constexpr),
		BoolValue(mods.Virtual),
		BoolValue(mods.Pure),
	})
	v.Record = m.Mods

	return v
}

// ReflectionValue returns the value of an unmodified reflection of c.
func (m *Meta) ReflectionValue(c Construct) Value {
	v := StructValue(nil, nil)
	v.Construct = c
	v.Record = m.Reflect(c)

	if c.IsDecl() {
		info := StructValue(nil, []Value{m.ModsValue(Mods{})})
		info.Record = m.DeclInfo
		v.Bases = []Value{info}
	}

	return v
}

// Unit is a translation unit together with its reflection library.
type Unit struct {
	TU   *TranslationUnitDecl
	Meta *Meta
}

// NewUnit returns an empty translation unit named name.
func NewUnit(name string) *Unit {
	tu := &TranslationUnitDecl{DeclBase: DeclBase{Name: name}}

	return &Unit{TU: tu, Meta: newMeta(tu)}
}

// Reflect returns a reflection expression for c at pos.
func (u *Unit) Reflect(pos Loc, c Construct) *ReflectExpr {
	return &ReflectExpr{
		ExprBase:  ExprBase{Pos: pos, Ty: u.Meta.ReflectionType(c)},
		Construct: c,
	}
}
