package ast

// ValueCategory classifies expressions by whether they designate an object.
type ValueCategory uint8

const (
	RValue ValueCategory = iota
	LValue
)

// Expr is implemented by every expression.
type Expr interface {
	Type() Type
	Loc() Loc
	Category() ValueCategory
	isExpr()
}

// ExprBase holds the state common to all expressions.
type ExprBase struct {
	Pos Loc
	Ty  Type
}

func (e *ExprBase) Type() Type              { return e.Ty }
func (e *ExprBase) Loc() Loc                { return e.Pos }
func (e *ExprBase) Category() ValueCategory { return RValue }
func (*ExprBase) isExpr()                   {}

// IntLit is an integer literal.
type IntLit struct {
	ExprBase

	Value int64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	ExprBase

	Value bool
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	ExprBase

	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	ExprBase

	Value string
}

// DeclRefExpr names a declaration.
type DeclRefExpr struct {
	ExprBase

	Decl Decl
}

// Category reports LValue for references to objects.
func (e *DeclRefExpr) Category() ValueCategory {
	switch e.Decl.(type) {
	case *VarDecl, *ParmDecl, *FieldDecl:
		return LValue
	default:
		return RValue
	}
}

// MemberExpr accesses a member of an object.
type MemberExpr struct {
	ExprBase

	Object Expr
	Member Decl
}

func (*MemberExpr) Category() ValueCategory { return LValue }

// ThisExpr is the implicit object parameter.
type ThisExpr struct {
	ExprBase
}

// CastKind enumerates implicit conversions.
type CastKind uint8

const (
	CastNoOp CastKind = iota
	CastLValueToRValue
)

// ImplicitCastExpr is a conversion inserted by semantic analysis.
type ImplicitCastExpr struct {
	ExprBase

	Cast CastKind
	Sub  Expr
}

// OpaqueValueExpr stands for a value computed elsewhere. Source, if set, is
// the expression the value was computed from.
type OpaqueValueExpr struct {
	ExprBase

	Source Expr
}

// ConstantExpr is an expression together with its constant value.
type ConstantExpr struct {
	ExprBase

	Sub   Expr
	Value Value
}

// UnaryExpr applies a prefix operator.
type UnaryExpr struct {
	ExprBase

	Op string
	X  Expr
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	ExprBase

	Op       string
	LHS, RHS Expr
}

// CallExpr calls a function.
type CallExpr struct {
	ExprBase

	Callee Expr
	Args   []Expr
}

// ReflectExpr reflects a declaration or type. Its type is a specialization
// of a class template in the [Meta] namespace.
type ReflectExpr struct {
	ExprBase

	Construct Construct
}

// Trait names a declaration modification applied to a reflection.
type Trait uint8

const (
	TraitLinkage Trait = iota
	TraitAccess
	TraitStorage
	TraitConstexpr
	TraitVirtual
	TraitPure
)

// Field returns the name of the mods field the trait sets.
func (t Trait) Field() string {
	switch t {
	case TraitLinkage:
		return ModsLinkage
	case TraitAccess:
		return ModsAccess
	case TraitStorage:
		return ModsStorage
	case TraitConstexpr:
		return ModsConstexpr
	case TraitVirtual:
		return ModsVirtual
	default:
		return ModsPure
	}
}

// ModifyExpr yields a copy of the reflection X with one modification trait
// set to Arg.
type ModifyExpr struct {
	ExprBase

	Trait Trait
	Arg   int64
	X     Expr
}

// FragmentExpr is a fragment together with its captured values. Init builds
// the fragment's closure object; it is nil while the expression is
// dependent.
type FragmentExpr struct {
	ExprBase

	Captures []Expr
	Fragment *FragmentDecl
	Init     Expr
}

// ConstructStyle records the syntax a construction was written with.
type ConstructStyle uint8

const (
	ConstructTemporary ConstructStyle = iota
	ConstructFunctionalCast
)

// ConstructExpr constructs an object of a record type.
type ConstructExpr struct {
	ExprBase

	Ctor  *ConstructorDecl
	Args  []Expr
	Style ConstructStyle
}

// ParenListExpr is a parenthesized initializer list.
type ParenListExpr struct {
	ExprBase

	Exprs []Expr
}

// IgnoreImplicit strips implicit casts from e.
func IgnoreImplicit(e Expr) Expr {
	for {
		c, ok := e.(*ImplicitCastExpr)
		if !ok {
			return e
		}

		e = c.Sub
	}
}

// IsDependentExpr reports whether the type or value of e cannot be known
// until substitution.
func IsDependentExpr(e Expr) bool {
	if e == nil {
		return false
	}

	if IsDependentType(e.Type()) {
		return true
	}

	switch x := e.(type) {
	case *DeclRefExpr:
		switch d := x.Decl.(type) {
		case *VarDecl:
			return d.Placeholder || IsDependentType(d.Type)
		case *ParmDecl:
			return IsDependentType(d.Type)
		}
	case *ImplicitCastExpr:
		return IsDependentExpr(x.Sub)
	case *UnaryExpr:
		return IsDependentExpr(x.X)
	case *BinaryExpr:
		return IsDependentExpr(x.LHS) || IsDependentExpr(x.RHS)
	case *CallExpr:
		for _, a := range x.Args {
			if IsDependentExpr(a) {
				return true
			}
		}

		return IsDependentExpr(x.Callee)
	case *ModifyExpr:
		return IsDependentExpr(x.X)
	case *MemberExpr:
		return IsDependentExpr(x.Object)
	case *ReflectExpr:
		if x.Construct.IsType() {
			return IsDependentType(x.Construct.Type())
		}

		return isDependentDecl(x.Construct.Decl())
	}

	return false
}

// isDependentDecl reports whether d lives in an uninstantiated context. The
// content of a fragment is not itself dependent; its members are.
func isDependentDecl(d Decl) bool {
	if d == nil {
		return false
	}

	if c, ok := d.(Context); ok {
		if _, content := c.Base().Owner.(*FragmentDecl); content {
			return false
		}

		if IsDependentContext(c) {
			return true
		}
	}

	owner := d.Base().Owner

	return owner != nil && IsDependentContext(owner)
}

// RValueOf wraps a glvalue e in an lvalue-to-rvalue conversion.
func RValueOf(e Expr) Expr {
	if e == nil || e.Category() != LValue {
		return e
	}

	return &ImplicitCastExpr{
		ExprBase: ExprBase{Pos: e.Loc(), Ty: e.Type()},
		Cast:     CastLValueToRValue,
		Sub:      e,
	}
}

// UnaryResultType returns the type of op applied to an operand of type t.
func UnaryResultType(op string, t Type) Type {
	if op == "!" || op == "not" {
		return Bool
	}

	return t
}

// BinaryResultType returns the type of op applied to operands of types l
// and r.
func BinaryResultType(op string, l, r Type) Type {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||", "and", "or":
		return Bool
	}

	if IsDependentType(l) || IsDependentType(r) {
		return Dependent
	}

	lb, _ := Canonical(l).(*BuiltinType)
	rb, _ := Canonical(r).(*BuiltinType)

	switch {
	case lb == nil || rb == nil:
		return l
	case lb.Builtin == BuiltinString || rb.Builtin == BuiltinString:
		return String
	case lb.Builtin == BuiltinDouble || rb.Builtin == BuiltinDouble:
		return Double
	default:
		return Int
	}
}
