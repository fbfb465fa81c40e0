package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestUniqueSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.yaml"), "decls: []\n")
	b := writeFile(t, filepath.Join(dir, "b.yaml"), "decls: []\n")

	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.yaml")

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"order kept", []string{b, a}, []string{b, a}},
		{"duplicate path", []string{a, a, a}, []string{a}},
		{"symlink", []string{a, link, b}, []string{a, b}},
		{"relative", []string{a, filepath.Join(dir, ".", "a.yaml")}, []string{a}},
		{"stdin last", []string{"-", a, "-"}, []string{a, "-"}},
		{"missing kept", []string{missing, missing}, []string{missing, missing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, uniqueSources(tt.in)); diff != "" {
				t.Errorf("uniqueSources mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStreamsFrom_Defaults(t *testing.T) {
	t.Parallel()

	s := streamsFrom(t.Context())
	if s.In != os.Stdin || s.Out != os.Stdout || s.Err != os.Stderr {
		t.Errorf("streamsFrom(empty) = %+v, want process streams", s)
	}
}

func TestSearchPath_RoundTrip(t *testing.T) {
	t.Parallel()

	if got := searchPathFrom(t.Context()); got != nil {
		t.Errorf("searchPathFrom(empty) = %v, want nil", got)
	}

	want := []string{"/a", "/b"}
	if diff := cmp.Diff(want, searchPathFrom(WithSearchPath(t.Context(), want))); diff != "" {
		t.Errorf("search path mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"-":                "stdin",
		"main.yaml":        "main",
		"/x/y/lib.v2.yaml": "lib.v2",
		"noext":            "noext",
	}

	for in, want := range tests {
		if got := unitName(in); got != want {
			t.Errorf("unitName(%q) = %q, want %q", in, got, want)
		}
	}
}
