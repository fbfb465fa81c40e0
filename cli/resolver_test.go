package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func mustResolve(t *testing.T, src string) kong.Resolver {
	t.Helper()

	r, err := resolve(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	return r
}

func flag(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func command(name string) *kong.Path {
	return &kong.Path{Command: &kong.Node{Name: name}}
}

func TestResolve_Values(t *testing.T) {
	t.Parallel()

	r := mustResolve(t, `
log-level: debug
log_format: text
log-pretty: false
include: [/a, /b]
max-depth: 16
apply:
  indent: 4
  max-depth: 8
`)

	tests := []struct {
		name   string
		parent *kong.Path
		flag   string
		want   any
	}{
		{"string", nil, "log-level", "debug"},
		{"underscore key", nil, "log-format", "text"},
		{"bool as string", nil, "log-pretty", "false"},
		{"int as string", nil, "max-depth", "16"},
		{"list", nil, "include", []any{"/a", "/b"}},
		{"missing", nil, "nope", nil},
		{"command section", command("apply"), "indent", "4"},
		{"command overrides global", command("apply"), "max-depth", "8"},
		{"other command uses global", command("dump"), "max-depth", "16"},
		{"section is not a flag", nil, "apply", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Resolve(nil, tt.parent, flag(tt.flag))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%s) mismatch (-want +got):\n%s", tt.flag, diff)
			}
		})
	}
}

func TestResolve_MalformedIsEmpty(t *testing.T) {
	t.Parallel()

	r := mustResolve(t, "log-level: [unterminated\n")

	got, err := r.Resolve(nil, nil, flag("log-level"))
	if err != nil || got != nil {
		t.Errorf("Resolve = %v, %v; want nil, nil", got, err)
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestResolve_ReadError(t *testing.T) {
	t.Parallel()

	_, err := resolve(&errorReader{err: bytes.ErrTooLarge})
	if err == nil {
		t.Error("expected read error")
	}
}

// errorReader is a reader that always returns an error.
type errorReader struct {
	err error
}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, e.err
}

func TestIncludePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  string
		dirs []string
		want []string
	}{
		{"empty", "", nil, nil},
		{"flags only", "", []string{"/a", "/b"}, []string{"/a", "/b"}},
		{"env only", "/x:/y", nil, []string{"/x", "/y"}},
		{"flags first", "/x", []string{"/a"}, []string{"/a", "/x"}},
		{"flag order kept", "/x", []string{"/a", "/b", "/c"}, []string{"/a", "/b", "/c", "/x"}},
		{"duplicates dropped", "/a/:/x", []string{"/a"}, []string{"/a", "/x"}},
		{"empty entries dropped", "/x::", nil, []string{"/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, includePath(tt.env, tt.dirs...)); diff != "" {
				t.Errorf("includePath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
