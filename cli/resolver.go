package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/splice/log"
)

// resolve is a [kong.ConfigurationLoader] that reads YAML configuration
// files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Top-level keys name global flags. A key naming a command holds a mapping
// of that command's flags, which take precedence over top-level keys:
//
//	log-level: debug
//	include: [/usr/share/splice]
//	apply:
//	  indent: 4
//	dump:
//	  format: json
//
// Flag names with hyphens may also be written with underscores
// (log_level). Command-line flags override config file values.
//
// A file that cannot be parsed is ignored with a warning.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Warn("ignoring configuration",
			slog.String("error", yaml.FormatError(err, false, true)),
		)

		return config{}, nil
	}

	return config(raw), nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// No validation needed - the config was already parsed successfully
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	parent *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if parent != nil && parent.Command != nil {
		if sub, ok := r[parent.Command.Name].(map[string]any); ok {
			if v, ok := config(sub).lookup(flag.Name); ok {
				return v, nil
			}
		}
	}

	if v, ok := r.lookup(flag.Name); ok {
		return v, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// lookup returns the value of name, trying its underscore variant second.
func (r config) lookup(name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := r[key]; ok {
			if _, isMap := v.(map[string]any); isMap {
				return nil, false
			}

			return native(v), true
		}
	}

	return nil, false
}

// native converts a decoded YAML value to a form Kong accepts. Kong
// requires scalars as strings for parsing.
func native(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = native(e)
		}

		return out
	default:
		return fmt.Sprint(x)
	}
}
