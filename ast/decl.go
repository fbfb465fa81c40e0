package ast

// Kind enumerates the concrete declaration types.
type Kind uint8

const (
	KindTranslationUnit Kind = iota
	KindNamespace
	KindRecord
	KindFragment
	KindField
	KindVar
	KindParm
	KindFunction
	KindMethod
	KindConstructor
	KindDestructor
	KindTypeAlias
	KindInjection
	KindConstexpr
)

var kindName = [...]string{
	KindTranslationUnit: "translation-unit",
	KindNamespace:       "namespace",
	KindRecord:          "record",
	KindFragment:        "fragment",
	KindField:           "field",
	KindVar:             "var",
	KindParm:            "parm",
	KindFunction:        "function",
	KindMethod:          "method",
	KindConstructor:     "constructor",
	KindDestructor:      "destructor",
	KindTypeAlias:       "type-alias",
	KindInjection:       "injection",
	KindConstexpr:       "constexpr",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "unknown"
}

// Access is a member access specifier.
type Access uint8

const (
	AccessNone Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

// StorageClass is the declared storage class of a variable or function.
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
)

func (s StorageClass) String() string {
	switch s {
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	default:
		return ""
	}
}

// Decl is implemented by every declaration.
type Decl interface {
	Kind() Kind
	Base() *DeclBase
}

// DeclBase holds the state common to all declarations.
type DeclBase struct {
	Name     string
	Pos      Loc
	Owner    Context // semantic parent; nil for the translation unit
	Access   Access
	Implicit bool
	Invalid  bool
}

// Base returns b. It lets any declaration expose its common state.
func (b *DeclBase) Base() *DeclBase { return b }

// TranslationUnitDecl is the root of a unit's declaration tree.
type TranslationUnitDecl struct {
	DeclBase
	DeclContext
}

func (*TranslationUnitDecl) Kind() Kind { return KindTranslationUnit }

// NamespaceDecl is a named or inline namespace.
type NamespaceDecl struct {
	DeclBase
	DeclContext

	Inline bool
}

func (*NamespaceDecl) Kind() Kind { return KindNamespace }

// TagKind distinguishes class from struct records.
type TagKind uint8

const (
	TagClass TagKind = iota
	TagStruct
)

func (t TagKind) String() string {
	if t == TagStruct {
		return "struct"
	}

	return "class"
}

// BaseSpec is one entry of a record's base-specifier list.
type BaseSpec struct {
	Type    Type
	Access  Access
	Virtual bool
}

// TemplateArg is a single template argument: either a type or an encoded
// reflected construct.
type TemplateArg struct {
	Type      Type
	Construct Construct
}

// Specialization identifies a record as a specialization of a named class
// template.
type Specialization struct {
	Name string
	Args []TemplateArg
}

// RecordDecl is a class or struct.
type RecordDecl struct {
	DeclBase
	DeclContext

	Tag   TagKind
	Bases []BaseSpec

	BeingDefined bool
	Complete     bool

	// InjectedClassName marks the implicit self-referential member every
	// named class carries.
	InjectedClassName bool

	// Fragment marks the closure class synthesized for a fragment
	// expression.
	Fragment bool

	// Dependent marks an uninstantiated class pattern.
	Dependent bool

	// Template is set for specializations of class templates.
	Template *Specialization

	typ *RecordType
}

func (*RecordDecl) Kind() Kind { return KindRecord }

// Type returns the record's canonical type.
func (r *RecordDecl) Type() *RecordType {
	if r.typ == nil {
		r.typ = &RecordType{Decl: r}
	}

	return r.typ
}

// Fields returns the record's non-static data members in declaration order.
func (r *RecordDecl) Fields() []*FieldDecl {
	var fields []*FieldDecl

	for _, m := range r.members {
		if f, ok := m.(*FieldDecl); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

// DefaultAccess returns the access of members declared before any access
// specifier.
func (r *RecordDecl) DefaultAccess() Access {
	if r.Tag == TagStruct {
		return AccessPublic
	}

	return AccessPrivate
}

// StartDefinition marks r as being defined and declares its
// injected-class-name.
func (r *RecordDecl) StartDefinition() {
	r.BeingDefined = true

	if r.Name == "" || r.InjectedClassName {
		return
	}

	for _, m := range r.members {
		if icn, ok := m.(*RecordDecl); ok && icn.InjectedClassName {
			return
		}
	}

	Add(r, &RecordDecl{
		DeclBase: DeclBase{
			Name:     r.Name,
			Pos:      r.Pos,
			Access:   AccessPublic,
			Implicit: true,
		},
		Tag:               r.Tag,
		InjectedClassName: true,
	})
}

// CompleteDefinition marks r as complete.
func (r *RecordDecl) CompleteDefinition() {
	r.BeingDefined = false
	r.Complete = true
}

// FragmentDecl is an unattached fragment. Its own members are the
// placeholder variables, one per capture; Content holds the fragment body.
type FragmentDecl struct {
	DeclBase
	DeclContext

	Content Context
}

func (*FragmentDecl) Kind() Kind { return KindFragment }

// Placeholders returns the fragment's placeholder variables in capture
// order.
func (f *FragmentDecl) Placeholders() []*VarDecl {
	var out []*VarDecl

	for _, m := range f.members {
		if v, ok := m.(*VarDecl); ok && v.Placeholder {
			out = append(out, v)
		}
	}

	return out
}

// FieldDecl is a non-static data member.
type FieldDecl struct {
	DeclBase

	Type Type
	Init Expr // default member initializer
}

func (*FieldDecl) Kind() Kind { return KindField }

// VarDecl is a variable: namespace-scope, static member, local, or fragment
// placeholder.
type VarDecl struct {
	DeclBase

	Type      Type
	Init      Expr
	Storage   StorageClass
	Constexpr bool
	Inline    bool

	// Placeholder marks the stand-in for a captured value inside a
	// fragment.
	Placeholder bool
}

func (*VarDecl) Kind() Kind { return KindVar }

// LocalStorage reports whether v has automatic storage duration.
func (v *VarDecl) LocalStorage() bool {
	return v.Storage == StorageNone && v.Owner != nil && IsFunctionOrMethod(v.Owner)
}

// StaticMember reports whether v is a static data member.
func (v *VarDecl) StaticMember() bool {
	return v.Owner != nil && IsRecord(v.Owner)
}

// ParmDecl is a function parameter.
type ParmDecl struct {
	DeclBase

	Type    Type
	Default Expr

	// Depth and Index locate the parameter within nested prototypes.
	Depth int
	Index int

	// Injected marks parameters expanded from a reflection.
	Injected bool
}

func (*ParmDecl) Kind() Kind { return KindParm }

// FunctionDecl is a namespace-scope function. It is also embedded by the
// method family.
type FunctionDecl struct {
	DeclBase
	DeclContext

	Result  Type
	Params  []*ParmDecl
	Body    *CompoundStmt
	Storage StorageClass

	Constexpr bool
	Inline    bool
	Defaulted bool
	Deleted   bool
	Dependent bool
}

func (*FunctionDecl) Kind() Kind { return KindFunction }

// Func returns f. It gives every member of the function family access to
// its embedded FunctionDecl.
func (f *FunctionDecl) Func() *FunctionDecl { return f }

// Type returns the function's type.
func (f *FunctionDecl) Type() *FunctionType {
	params := make([]Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}

	return &FunctionType{Result: f.Result, Params: params}
}

// IsDefined reports whether f has a body.
func (f *FunctionDecl) IsDefined() bool { return f.Body != nil }

// IsDefinition reports whether this declaration of f is a definition,
// including defaulted and deleted definitions.
func (f *FunctionDecl) IsDefinition() bool {
	return f.Body != nil || f.Defaulted || f.Deleted
}

// MethodDecl is a member function.
type MethodDecl struct {
	FunctionDecl

	Virtual bool
	Pure    bool
	Static  bool
	Const   bool
}

func (*MethodDecl) Kind() Kind { return KindMethod }

// Meth returns m.
func (m *MethodDecl) Meth() *MethodDecl { return m }

// CtorInit is one entry of a constructor's member-initializer list. Exactly
// one of Base or Member is set.
type CtorInit struct {
	Base   Type
	Member *FieldDecl
	Init   Expr
}

// ConstructorDecl is a constructor.
type ConstructorDecl struct {
	MethodDecl

	Explicit bool
	Inits    []*CtorInit
}

func (*ConstructorDecl) Kind() Kind { return KindConstructor }

// DestructorDecl is a destructor.
type DestructorDecl struct {
	MethodDecl
}

func (*DestructorDecl) Kind() Kind { return KindDestructor }

// Function is implemented by every member of the function family.
type Function interface {
	Context
	Func() *FunctionDecl
}

// Method is implemented by every member function.
type Method interface {
	Function
	Meth() *MethodDecl
}

// AsFunction returns the embedded FunctionDecl of any function-family
// declaration.
func AsFunction(d Decl) (*FunctionDecl, bool) {
	f, ok := d.(Function)
	if !ok {
		return nil, false
	}

	return f.Func(), true
}

// AsMethod returns the embedded MethodDecl of any member function.
func AsMethod(d Decl) (*MethodDecl, bool) {
	m, ok := d.(Method)
	if !ok {
		return nil, false
	}

	return m.Meth(), true
}

// TypeAliasDecl is a type alias.
type TypeAliasDecl struct {
	DeclBase

	Underlying Type
}

func (*TypeAliasDecl) Kind() Kind { return KindTypeAlias }

// InjectionDecl is an injection declaration whose reflection could not be
// resolved because it is dependent. It is resolved when its context is
// instantiated.
type InjectionDecl struct {
	DeclBase

	Reflection Expr
}

func (*InjectionDecl) Kind() Kind { return KindInjection }

// ConstexprDecl is a constexpr block. Its local variables are its members.
type ConstexprDecl struct {
	DeclBase
	DeclContext

	Body *CompoundStmt

	// Evaluated is set once the block's effects were applied.
	Evaluated bool
}

func (*ConstexprDecl) Kind() Kind { return KindConstexpr }
