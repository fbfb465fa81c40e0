// Package unit loads translation units from YAML documents.
//
// A document lists declarations the way a parser would encounter them.
// Each declaration is handed to [sema] as soon as it is read, so constexpr
// blocks run, and injections happen, in document order:
//
//	include: [common.yaml]
//	decls:
//	  - struct: S
//	    members:
//	      - field: x
//	        type: int
//	  - constexpr:
//	      - let: r
//	        init: reflexpr(S.x)
//	      - print: r
//
// Expressions are written in expr syntax and lowered to [ast.Expr].
// Qualified names use dots. The builtins reflexpr, parameters and the
// make_* modifiers denote reflections and trait modifications.
package unit
