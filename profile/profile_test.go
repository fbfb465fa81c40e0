package profile

import (
	"slices"
	"testing"
)

func TestProfiler_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Profiler
	}{
		{"empty mode", Profiler{}},
		{"unknown mode", Profiler{Mode: "nope", Dir: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.p.Enabled() {
				t.Fatalf("Enabled() = true for mode %q", tt.p.Mode)
			}

			s := tt.p.Start()
			if _, ok := s.(ignore); !ok {
				t.Errorf("Start() = %T, want no-op", s)
			}

			s.Stop()
		})
	}
}

func TestModes_Sorted(t *testing.T) {
	t.Parallel()

	m := Modes()
	if !slices.IsSorted(m) {
		t.Errorf("Modes() = %v, not sorted", m)
	}

	for _, mode := range m {
		if !(Profiler{Mode: mode}).Enabled() {
			t.Errorf("mode %q not enabled", mode)
		}
	}
}
