// Package cli contains the command line interface for splice.
//
// # Usage
//
//	splice [flags] apply FILE...
//	splice [flags] dump [--format=yaml|json] FILE...
//
// apply is the default command. Both commands read every FILE (or stdin
// for "-") into one translation unit, performing injections as the
// declarations are processed, and report diagnostics on stderr.
//
// # Include Path
//
// Documents name other documents in their include list. Names are resolved
// relative to the including document, then along the search path formed by
// each --include (-I) flag followed by the directories in SPLICE_PATH.
//
// # Configuration
//
// Flag defaults are read from $XDG_CONFIG_HOME/splice/config.yaml (see
// [resolve] for the format) and from config.json in the same directory.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// The profiling flags are:
//
//   - --pprof-mode: Enable profiling (modes are listed by splice -h)
//   - --pprof-dir: Set profile output directory (default:
//     $XDG_CACHE_HOME/splice/pprof)
//
// # Examples
//
//	# Trace every injection step
//	splice --log-level=trace apply widget.yaml
//
//	# Dump the resulting translation unit as JSON
//	splice -I ./lib dump --format=json widget.yaml
package cli
