// Package consteval evaluates compile-time expressions and executes the
// bodies of constexpr blocks.
//
// A [Machine] implements the evaluator used by package sema. Scalar
// operators run as compiled expr-lang programs; reflections, fragment
// closures, and modification traits are evaluated directly on [ast.Value].
// Executing a constexpr block records its injection and print statements as
// [ast.Effect] values in statement order, for the caller to apply.
package consteval
