package ast

import "strings"

// Type is implemented by every type.
type Type interface {
	String() string
	isType()
}

// BuiltinKind enumerates the builtin types.
type BuiltinKind uint8

const (
	BuiltinVoid BuiltinKind = iota
	BuiltinBool
	BuiltinInt
	BuiltinDouble
	BuiltinString

	// BuiltinDependent is a type that is not known until substitution:
	// placeholder types and deduced (auto) types.
	BuiltinDependent
)

// BuiltinType is a builtin scalar type.
type BuiltinType struct {
	Builtin BuiltinKind
}

func (*BuiltinType) isType() {}

func (t *BuiltinType) String() string {
	switch t.Builtin {
	case BuiltinVoid:
		return "void"
	case BuiltinBool:
		return "bool"
	case BuiltinInt:
		return "int"
	case BuiltinDouble:
		return "double"
	case BuiltinString:
		return "string"
	default:
		return "auto"
	}
}

// Builtin type singletons.
//
//nolint:gochecknoglobals
var (
	Void      = &BuiltinType{BuiltinVoid}
	Bool      = &BuiltinType{BuiltinBool}
	Int       = &BuiltinType{BuiltinInt}
	Double    = &BuiltinType{BuiltinDouble}
	String    = &BuiltinType{BuiltinString}
	Dependent = &BuiltinType{BuiltinDependent}
)

// RecordType is the type of a class or struct.
type RecordType struct {
	Decl *RecordDecl
}

func (*RecordType) isType() {}

func (t *RecordType) String() string {
	if t.Decl.Template != nil {
		return specializationString(t.Decl)
	}

	if t.Decl.Name == "" {
		return "(anonymous " + t.Decl.Tag.String() + ")"
	}

	return QualifiedName(t.Decl)
}

func specializationString(r *RecordDecl) string {
	owner := ""

	if r.Owner != nil {
		c := StripInlineNamespaces(r.Owner)
		if _, tu := c.(*TranslationUnitDecl); !tu {
			owner = QualifiedName(c) + "::"
		}
	}

	args := make([]string, len(r.Template.Args))
	for i, a := range r.Template.Args {
		args[i] = a.String()
	}

	return owner + r.Template.Name + "<" + strings.Join(args, ", ") + ">"
}

func (a TemplateArg) String() string {
	if a.Type != nil {
		return a.Type.String()
	}

	return a.Construct.String()
}

// AliasType is a reference to a type alias.
type AliasType struct {
	Decl *TypeAliasDecl
}

func (*AliasType) isType() {}

func (t *AliasType) String() string { return QualifiedName(t.Decl) }

// FunctionType is the type of a function.
type FunctionType struct {
	Result Type
	Params []Type
}

func (*FunctionType) isType() {}

func (t *FunctionType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = typeString(p)
	}

	return typeString(t.Result) + "(" + strings.Join(params, ", ") + ")"
}

// InjectedParmType is the type of a parameter declared from a reflection
// that is still dependent. It is expanded into the reflected parameters at
// instantiation.
type InjectedParmType struct {
	Reflection Expr
}

func (*InjectedParmType) isType() {}

func (*InjectedParmType) String() string { return "__inject(...)" }

func typeString(t Type) string {
	if t == nil {
		return "<null>"
	}

	return t.String()
}

// Canonical strips type aliases from t.
func Canonical(t Type) Type {
	for {
		a, ok := t.(*AliasType)
		if !ok || a.Decl.Underlying == nil {
			return t
		}

		t = a.Decl.Underlying
	}
}

// IsDependentType reports whether t, or a type it is composed of, is not
// known until substitution.
func IsDependentType(t Type) bool {
	switch x := Canonical(t).(type) {
	case nil:
		return false
	case *BuiltinType:
		return x.Builtin == BuiltinDependent
	case *InjectedParmType:
		return true
	case *RecordType:
		return x.Decl.Dependent
	case *FunctionType:
		if IsDependentType(x.Result) {
			return true
		}

		for _, p := range x.Params {
			if IsDependentType(p) {
				return true
			}
		}
	}

	return false
}

// AsRecordDecl returns the record a type denotes, or nil.
func AsRecordDecl(t Type) *RecordDecl {
	if r, ok := Canonical(t).(*RecordType); ok {
		return r.Decl
	}

	return nil
}

// SameType reports whether a and b denote the same canonical type.
func SameType(a, b Type) bool {
	a, b = Canonical(a), Canonical(b)

	switch x := a.(type) {
	case *BuiltinType:
		y, ok := b.(*BuiltinType)

		return ok && x.Builtin == y.Builtin
	case *RecordType:
		y, ok := b.(*RecordType)

		return ok && x.Decl == y.Decl
	case *FunctionType:
		y, ok := b.(*FunctionType)
		if !ok || len(x.Params) != len(y.Params) || !SameType(x.Result, y.Result) {
			return false
		}

		for i := range x.Params {
			if !SameType(x.Params[i], y.Params[i]) {
				return false
			}
		}

		return true
	default:
		return a == b
	}
}
