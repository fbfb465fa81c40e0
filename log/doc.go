// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options
// such as [WithLevel], [WithFormat], [WithTimeLayout], [WithCaller], and
// [WithPretty]. The zero value discards everything, so components accept a
// Logger by value and log unconditionally.
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelTrace))
//	logger.TraceContext(ctx, "inject", slog.String("member", "f"))
//
// In addition to the [slog] levels, [LevelTrace] is used for step-by-step
// tracing of injection and evaluation.
//
// Pretty text output renders keys, values, and levels with lipgloss styles
// bound to the output writer, so colors are dropped automatically when the
// writer is not a terminal.
package log
