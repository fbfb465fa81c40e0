package profile

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. The empty mode disables profiling.
	Mode string
	// Dir is the output directory. The empty string uses the working
	// directory.
	Dir string
	// Quiet suppresses the profiler's own log output.
	Quiet bool
}

// Enabled reports whether p names a supported mode.
func (p Profiler) Enabled() bool {
	if p.Mode == "" {
		return false
	}

	for _, m := range Modes() {
		if m == p.Mode {
			return true
		}
	}

	return false
}

// Start starts profiling. Start and the returned Stop are always safe to
// call; an unsupported mode yields a no-op.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
