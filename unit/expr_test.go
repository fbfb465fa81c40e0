package unit_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/splice/ast"
)

func TestExpr_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want ast.Value
		typ  ast.Type
	}{
		{"precedence", "2 + 3 * 4", ast.IntValue(14), ast.Int},
		{"integer division", "7 / 2", ast.IntValue(3), ast.Int},
		{"float division", "7.0 / 2", ast.FloatValue(3.5), ast.Double},
		{"concatenate", `"ab" + "c"`, ast.StringValue("abc"), ast.String},
		{"not", "not true", ast.BoolValue(false), ast.Bool},
		{"and", "1 < 2 and 2 < 3", ast.BoolValue(true), ast.Bool},
		{"negate", "-(2 + 3)", ast.IntValue(-5), ast.Int},
		{"parentheses", "(1 + 2) * 3", ast.IntValue(9), ast.Int},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := mustLoad(t, "decls:\n  - var: v\n    specifiers: [constexpr]\n    init: '"+tt.src+"'\n")
			v := find(t, l, "v").(*ast.VarDecl)

			if !ast.SameType(v.Type, tt.typ) {
				t.Errorf("type = %v, want %v", v.Type, tt.typ)
			}

			if got := evaluate(t, l, v.Init); !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestExpr_Reflections(t *testing.T) {
	t.Parallel()

	l := mustLoad(t, `
decls:
  - struct: S
    members:
      - {field: x, type: int}
      - method: m
        result: int
        body:
          - return: this.x + 1
  - var: t
    init: reflexpr(int)
  - var: c
    init: reflexpr(S)
  - var: p
    init: make_pure(make_private(reflexpr(S.m)))
`)

	s := find(t, l, "S").(*ast.RecordDecl)

	t.Run("builtin type", func(t *testing.T) {
		r, ok := find(t, l, "t").(*ast.VarDecl).Init.(*ast.ReflectExpr)
		if !ok || !ast.SameType(r.Construct.Type(), ast.Int) {
			t.Errorf("init = %v", r)
		}
	})

	t.Run("class", func(t *testing.T) {
		r, ok := find(t, l, "c").(*ast.VarDecl).Init.(*ast.ReflectExpr)
		if !ok || r.Construct.Decl() != ast.Decl(s) {
			t.Errorf("init = %v", r)
		}
	})

	t.Run("modifiers", func(t *testing.T) {
		var traits []ast.Trait

		e := find(t, l, "p").(*ast.VarDecl).Init
		for {
			m, ok := e.(*ast.ModifyExpr)
			if !ok {
				break
			}

			traits = append(traits, m.Trait)
			e = m.X
		}

		want := []ast.Trait{ast.TraitPure, ast.TraitVirtual, ast.TraitAccess}
		if diff := cmp.Diff(want, traits); diff != "" {
			t.Errorf("traits mismatch (-want +got):\n%s", diff)
		}

		if r, ok := e.(*ast.ReflectExpr); !ok || r.Construct.Decl().Base().Name != "m" {
			t.Errorf("operand = %v", e)
		}
	})

	t.Run("this", func(t *testing.T) {
		m := find(t, l, "S.m").(*ast.MethodDecl)
		ret := m.Body.Stmts[0].(*ast.ReturnStmt)

		sum, ok := ret.X.(*ast.BinaryExpr)
		if !ok {
			t.Fatalf("return %T", ret.X)
		}

		x, ok := sum.LHS.(*ast.MemberExpr)
		if !ok {
			t.Fatalf("operand %T", sum.LHS)
		}

		if _, ok := x.Object.(*ast.ThisExpr); !ok || !ast.SameType(x.Object.Type(), s.Type()) {
			t.Errorf("object = %v", x.Object)
		}
	})
}
