package cmd

import "github.com/ardnew/splice/pkg"

var (
	ErrFailed      = pkg.NewError("translation failed")
	ErrJSONMarshal = pkg.NewError("marshal JSON")
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrWrite       = pkg.NewError("write output")
)
