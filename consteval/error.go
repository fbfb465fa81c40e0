package consteval

import "github.com/ardnew/splice/pkg"

var (
	ErrNotConstant     = pkg.NewError("expression is not a constant")
	ErrUnbound         = pkg.NewError("reference to a declaration without a value")
	ErrPlaceholder     = pkg.NewError("reference to an unsubstituted placeholder")
	ErrDependent       = pkg.NewError("expression is dependent")
	ErrNoTraits        = pkg.NewError("reflection carries no modification traits")
	ErrUndefined       = pkg.NewError("call to a function without a definition")
	ErrArity           = pkg.NewError("wrong number of arguments")
	ErrCallDepth       = pkg.NewError("call depth exceeded")
	ErrDivideByZero    = pkg.NewError("division by zero")
	ErrOperator        = pkg.NewError("invalid operands to operator")
	ErrOperatorCompile = pkg.NewError("failed to compile operator program")
)
