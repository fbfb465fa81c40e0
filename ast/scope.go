package ast

// ScopeFlags classifies a lexical scope.
type ScopeFlags uint16

const (
	ScopeBlock ScopeFlags = 1 << iota
	ScopeFunction
	ScopeClass
	ScopeNamespace
	ScopePrototype
	ScopeFragment
	ScopeConstexpr
)

// Scope is a lexical scope. Scopes exist only while the declarations they
// contain are being built.
type Scope struct {
	Parent *Scope
	Flags  ScopeFlags

	// Entity is the declaration context the scope belongs to.
	Entity Context

	decls    []Decl
	nextParm int
}

// NewScope returns a scope nested in parent.
func NewScope(parent *Scope, flags ScopeFlags, entity Context) *Scope {
	return &Scope{Parent: parent, Flags: flags, Entity: entity}
}

// Is reports whether s has all of flags.
func (s *Scope) Is(flags ScopeFlags) bool { return s.Flags&flags == flags }

// Declare makes d visible in s.
func (s *Scope) Declare(d Decl) { s.decls = append(s.decls, d) }

// Decls returns the declarations of s in declaration order.
func (s *Scope) Decls() []Decl { return s.decls }

// Lookup returns the innermost visible declaration named name, or nil.
func (s *Scope) Lookup(name string) Decl {
	for ; s != nil; s = s.Parent {
		for i := len(s.decls) - 1; i >= 0; i-- {
			if s.decls[i].Base().Name == name {
				return s.decls[i]
			}
		}
	}

	return nil
}

// PrototypeDepth returns the nesting depth of the innermost function
// prototype scope enclosing s, counting from zero, or -1 outside any
// prototype.
func (s *Scope) PrototypeDepth() int {
	depth := -1

	for ; s != nil; s = s.Parent {
		if s.Flags&ScopePrototype != 0 {
			depth++
		}
	}

	return depth
}

// NextPrototypeIndex returns the index of the next parameter of the
// innermost prototype scope enclosing s and advances it.
func (s *Scope) NextPrototypeIndex() int {
	for ; s != nil; s = s.Parent {
		if s.Flags&ScopePrototype != 0 {
			i := s.nextParm
			s.nextParm++

			return i
		}
	}

	return 0
}
