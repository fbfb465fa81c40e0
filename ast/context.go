package ast

import "slices"

// Context is a declaration context: a declaration that owns an ordered list
// of member declarations.
type Context interface {
	Decl
	Members() []Decl
	AddMember(Decl)
	RemoveMember(Decl) bool
	Lookup(name string) []Decl
}

// DeclContext implements the member list of a [Context].
type DeclContext struct {
	members []Decl
}

// Members returns the members in declaration order.
func (c *DeclContext) Members() []Decl { return c.members }

// AddMember appends d without changing its owner. Use [Add] to also set it.
func (c *DeclContext) AddMember(d Decl) { c.members = append(c.members, d) }

// RemoveMember removes d and reports whether it was present.
func (c *DeclContext) RemoveMember(d Decl) bool {
	i := slices.Index(c.members, d)
	if i < 0 {
		return false
	}

	c.members = slices.Delete(c.members, i, i+1)

	return true
}

// Lookup returns the members named name in declaration order.
func (c *DeclContext) Lookup(name string) []Decl {
	var found []Decl

	for _, m := range c.members {
		if m.Base().Name == name {
			found = append(found, m)
		}
	}

	return found
}

// Add makes d a member of c.
func Add(c Context, d Decl) {
	d.Base().Owner = c
	c.AddMember(d)
}

// IsRecord reports whether c is a class or struct.
func IsRecord(c Context) bool {
	_, ok := c.(*RecordDecl)

	return ok
}

// IsFileContext reports whether c is the translation unit or a namespace.
func IsFileContext(c Context) bool {
	switch c.(type) {
	case *TranslationUnitDecl, *NamespaceDecl:
		return true
	default:
		return false
	}
}

// IsFunctionOrMethod reports whether c is a function body. Constexpr blocks
// are evaluated as functions and count as such.
func IsFunctionOrMethod(c Context) bool {
	switch c.(type) {
	case *FunctionDecl, *MethodDecl, *ConstructorDecl, *DestructorDecl,
		*ConstexprDecl:
		return true
	default:
		return false
	}
}

// IsDependentContext reports whether c, or any context enclosing it, is an
// uninstantiated pattern. Fragments are always dependent.
func IsDependentContext(c Context) bool {
	for c != nil {
		switch x := c.(type) {
		case *FragmentDecl:
			return true
		case *RecordDecl:
			if x.Dependent {
				return true
			}
		case Function:
			if x.Func().Dependent {
				return true
			}
		}

		c = c.Base().Owner
	}

	return false
}

// EnclosingFunction returns the innermost function-like context containing
// c, or nil.
func EnclosingFunction(c Context) Context {
	for c != nil {
		if IsFunctionOrMethod(c) {
			return c
		}

		c = c.Base().Owner
	}

	return nil
}

// EnclosingRecord returns the innermost record containing c (including c
// itself), or nil.
func EnclosingRecord(c Context) *RecordDecl {
	for c != nil {
		if r, ok := c.(*RecordDecl); ok {
			return r
		}

		c = c.Base().Owner
	}

	return nil
}

// Encloses reports whether outer is c or one of its enclosing contexts.
func Encloses(outer, c Context) bool {
	for c != nil {
		if c == outer {
			return true
		}

		c = c.Base().Owner
	}

	return false
}

// StripInlineNamespaces returns the first enclosing context of c that is
// not an inline namespace.
func StripInlineNamespaces(c Context) Context {
	for {
		ns, ok := c.(*NamespaceDecl)
		if !ok || !ns.Inline {
			return c
		}

		c = ns.Owner
	}
}

// QualifiedName returns the name of d qualified by its enclosing named
// contexts, without inline namespaces.
func QualifiedName(d Decl) string {
	name := d.Base().Name

	for c := d.Base().Owner; c != nil; c = c.Base().Owner {
		switch x := c.(type) {
		case *TranslationUnitDecl, *FragmentDecl:
			return name
		case *NamespaceDecl:
			if x.Inline || x.Name == "" {
				continue
			}
		case *RecordDecl:
			if x.Template != nil {
				return specializationString(x) + "::" + name
			}
		}

		if n := c.Base().Name; n != "" {
			name = n + "::" + name
		}
	}

	return name
}
