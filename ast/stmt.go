package ast

// Stmt is implemented by every statement.
type Stmt interface {
	Loc() Loc
	isStmt()
}

// StmtBase holds the state common to all statements.
type StmtBase struct {
	Pos Loc
}

func (s *StmtBase) Loc() Loc { return s.Pos }
func (*StmtBase) isStmt()    {}

// CompoundStmt is a braced statement sequence.
type CompoundStmt struct {
	StmtBase

	Stmts []Stmt
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	StmtBase

	X Expr
}

// DeclStmt declares local variables.
type DeclStmt struct {
	StmtBase

	Decls []Decl
}

// ReturnStmt returns from a function.
type ReturnStmt struct {
	StmtBase

	X Expr // nil for a bare return
}

// InjectionStmt records an injection effect for Reflection into the context
// where the enclosing constexpr block is applied.
type InjectionStmt struct {
	StmtBase

	Reflection Expr
}

// ExtensionStmt records an injection effect for Reflection into the
// declaration reflected by Target.
type ExtensionStmt struct {
	StmtBase

	Target     Expr
	Reflection Expr
}

// PrintStmt records a diagnostic effect that prints the entity denoted by
// Reflection.
type PrintStmt struct {
	StmtBase

	Reflection Expr
}
