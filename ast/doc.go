// Package ast models the declarations, types, expressions, statements, and
// compile-time values of the program under compilation.
//
// Declarations form a closed hierarchy: every concrete declaration type
// embeds [DeclBase] and reports its [Kind]. Consumers dispatch with type
// switches over the concrete types; [AsFunction] and [AsMethod] cover the
// function family, whose members embed one another.
//
// Declaration contexts ([Context]) own an ordered member list. The
// translation unit, namespaces, records, fragments, functions, and constexpr
// blocks are contexts.
//
// The [Meta] library namespace holds the reflection class templates that
// give reflection values their static types, and the modification-trait
// record schema ([ModsFields]) shared by the constant evaluator and the
// injection engine.
package ast
