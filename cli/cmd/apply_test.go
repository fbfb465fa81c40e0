package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

const injectDoc = `
decls:
  - struct: A
    members:
      - field: x
        type: int
        init: "1"
  - struct: S
    members:
      - field: y
        type: int
      - constexpr:
          - inject: reflexpr(A.x)
`

const badDoc = `
decls:
  - var: v
    init: missing + 1
`

type run struct {
	out, err bytes.Buffer
}

func (r *run) streams(in string) Streams {
	return Streams{In: strings.NewReader(in), Out: &r.out, Err: &r.err}
}

func input(files ...string) Input {
	return Input{Files: files, MaxDepth: 1024, MaxCalls: 256}
}

func TestApply_PrintsInjectedMembers(t *testing.T) {
	t.Parallel()

	var r run

	ctx := WithStreams(t.Context(), r.streams(injectDoc))

	a := Apply{Input: input("-"), Indent: 2}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v\n%s", err, r.err.String())
	}

	_, s, ok := strings.Cut(r.out.String(), "struct S {\n")
	if !ok {
		t.Fatalf("no struct S in output:\n%s", r.out.String())
	}

	for _, want := range []string{"  int y;\n", "  int x = 1;\n"} {
		if !strings.Contains(s, want) {
			t.Errorf("struct S missing %q:\n%s", want, s)
		}
	}

	if r.err.Len() != 0 {
		t.Errorf("unexpected diagnostics:\n%s", r.err.String())
	}
}

func TestApply_Print(t *testing.T) {
	t.Parallel()

	var r run

	ctx := WithStreams(t.Context(), r.streams(`
decls:
  - var: x
    type: int
    init: "1"
  - constexpr:
      - print: reflexpr(x)
`))

	a := Apply{Input: input("-"), Quiet: true}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff("int x = 1;\n", r.out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_ReportsErrors(t *testing.T) {
	t.Parallel()

	var r run

	ctx := WithStreams(t.Context(), r.streams(badDoc))

	a := Apply{Input: input("-"), Quiet: true}

	err := a.Run(ctx)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Run error = %v, want %v", err, ErrFailed)
	}

	got := r.err.String()
	for _, want := range []string{"<stdin>:3:5: error: ", "name=missing"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestApply_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "decls:\n  - {var: a, type: int, init: '2'}\n")
	main := writeFile(t, filepath.Join(dir, "main.yaml"),
		"include: [a.yaml]\ndecls:\n  - {var: b, type: int, init: 'a * 3'}\n")

	var r run

	ctx := WithStreams(t.Context(), r.streams(""))

	a := Apply{Input: input(main, main), Indent: 2}
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v\n%s", err, r.err.String())
	}

	if diff := cmp.Diff("int a = 2;\nint b = a * 3;\n", r.out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDump_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format    string
		unmarshal func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"yaml", yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var r run

			ctx := WithStreams(t.Context(), r.streams(injectDoc))

			d := Dump{Input: input("-"), Format: tt.format, Indent: 2}
			if err := d.Run(ctx); err != nil {
				t.Fatalf("Run: %v\n%s", err, r.err.String())
			}

			var tree struct {
				Kind    string `json:"kind"    yaml:"kind"`
				Name    string `json:"name"    yaml:"name"`
				Members []struct {
					Kind    string `json:"kind" yaml:"kind"`
					Name    string `json:"name" yaml:"name"`
					Members []struct {
						Kind string `json:"kind" yaml:"kind"`
						Name string `json:"name" yaml:"name"`
					} `json:"members" yaml:"members"`
				} `json:"members" yaml:"members"`
			}

			if err := tt.unmarshal(r.out.Bytes(), &tree); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, r.out.String())
			}

			if tree.Kind != "translation-unit" || tree.Name != "stdin" {
				t.Errorf("root = %s %q", tree.Kind, tree.Name)
			}

			var fields []string

			for _, m := range tree.Members {
				if m.Name != "S" {
					continue
				}

				for _, f := range m.Members {
					if f.Kind == "field" {
						fields = append(fields, f.Name)
					}
				}
			}

			if diff := cmp.Diff([]string{"y", "x"}, fields); diff != "" {
				t.Errorf("fields of S mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
