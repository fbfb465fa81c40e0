package sema

import "github.com/ardnew/splice/pkg"

// Sentinel errors. Programming-error contracts panic with one of these as
// the panic value; the others are returned.
var (
	ErrInstantiationDepth    = pkg.NewError("instantiation depth exceeded")
	ErrOverwriteSubstitution = pkg.NewError("substitution already registered")
	ErrNotPlaceholder        = pkg.NewError("declaration is not a placeholder")
	ErrCaptureMismatch       = pkg.NewError("placeholder and capture counts differ")
	ErrUnbalancedInjection   = pkg.NewError("injection contexts released out of order")
	ErrUnreachableStorage    = pkg.NewError("storage class not supported by declaration copy")
	ErrTraitSchema           = pkg.NewError("malformed modification traits")
	ErrNoEvaluator           = pkg.NewError("no constant evaluator configured")
	ErrIncompleteInjection   = pkg.NewError("fragment injected partially")
	ErrUnsupportedDecl       = pkg.NewError("declaration cannot be substituted")
	ErrNotFragment           = pkg.NewError("injection is not fragment content")
	ErrInvalidClone          = pkg.NewError("copy of declaration is invalid")
)
