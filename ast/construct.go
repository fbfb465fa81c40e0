package ast

// Construct is the entity a reflection denotes: a declaration or a type.
// The zero value denotes nothing.
type Construct struct {
	decl Decl
	typ  Type
}

// DeclConstruct returns the construct denoting d.
func DeclConstruct(d Decl) Construct { return Construct{decl: d} }

// TypeConstruct returns the construct denoting t. Record types denote
// their declaration.
func TypeConstruct(t Type) Construct {
	if r := AsRecordDecl(t); r != nil && r.Template == nil {
		return Construct{decl: r}
	}

	return Construct{typ: t}
}

func (c Construct) IsValid() bool { return c.decl != nil || c.typ != nil }
func (c Construct) IsDecl() bool  { return c.decl != nil }
func (c Construct) IsType() bool  { return c.typ != nil }
func (c Construct) Decl() Decl    { return c.decl }

// Type returns the type the construct denotes. A record declaration denotes
// its type.
func (c Construct) Type() Type {
	if c.typ != nil {
		return c.typ
	}

	switch d := c.decl.(type) {
	case *RecordDecl:
		return d.Type()
	case *TypeAliasDecl:
		return &AliasType{Decl: d}
	}

	return nil
}

func (c Construct) String() string {
	switch {
	case c.decl != nil:
		if n := QualifiedName(c.decl); n != "" {
			return n
		}

		return "(anonymous " + c.decl.Kind().String() + ")"
	case c.typ != nil:
		return c.typ.String()
	default:
		return "<null>"
	}
}
