// Package profile wraps [github.com/pkg/profile] for optional runtime
// profiling of splice.
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//
// Without the tag [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper].
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking (synchronization) profiling
//   - clock:     wall-clock profiling (fgprof)
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution tracing
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/splice"}
//	defer p.Start().Stop()
//
// Profiles are written under Dir with the name of the mode, for example
// cpu.pprof. Analyze them with go tool pprof:
//
//	splice --pprof-mode=cpu apply big.yaml
//	go tool pprof -http=: ~/.cache/splice/pprof/cpu.pprof
//
// The pprof build also registers the [net/http/pprof] handlers on
// [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
