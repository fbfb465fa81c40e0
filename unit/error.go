package unit

import "github.com/ardnew/splice/pkg"

// Sentinel errors.
var (
	ErrReadInput    = pkg.NewError("failed to read input")
	ErrDocument     = pkg.NewError("malformed document")
	ErrInclude      = pkg.NewError("include not found")
	ErrIncludeCycle = pkg.NewError("include cycle")
	ErrSyntax       = pkg.NewError("invalid expression")
	ErrUnsupported  = pkg.NewError("unsupported expression")
	ErrUnknownName  = pkg.NewError("unknown name")
	ErrNotAType     = pkg.NewError("name does not denote a type")
	ErrNotAValue    = pkg.NewError("name does not denote a value")
	ErrSpecifier    = pkg.NewError("invalid specifier")
	ErrStorage      = pkg.NewError("storage class not permitted")
)
