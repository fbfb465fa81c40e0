package unit

import (
	"fmt"
	"log/slog"
	"strings"

	east "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/ardnew/splice/ast"
)

// modifier describes one make_* builtin.
type modifier struct {
	trait ast.Trait
	arg   int64
}

//nolint:gochecknoglobals
var modifiers = map[string][]modifier{
	"make_static":    {{ast.TraitStorage, int64(ast.StorageModStatic)}},
	"make_public":    {{ast.TraitAccess, int64(ast.AccessModPublic)}},
	"make_protected": {{ast.TraitAccess, int64(ast.AccessModProtected)}},
	"make_private":   {{ast.TraitAccess, int64(ast.AccessModPrivate)}},
	"make_default":   {{ast.TraitAccess, int64(ast.AccessModDefault)}},
	"make_constexpr": {{ast.TraitConstexpr, 1}},
	"make_virtual":   {{ast.TraitVirtual, 1}},
	"make_pure":      {{ast.TraitVirtual, 1}, {ast.TraitPure, 1}},
}

// expr parses and lowers src. The empty source yields nil.
func (l *Loader) expr(pos ast.Loc, src string) (ast.Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil //nolint:nilnil
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrSyntax.Wrap(err).With(
			slog.String("source", src),
			slog.String("loc", pos.String()),
		)
	}

	e, err := l.lower(pos, tree.Node)
	if err != nil {
		return nil, err
	}

	l.logger.Trace("lower expression",
		slog.String("source", src),
		slog.String("expr", ast.ExprString(e)),
	)

	return e, nil
}

func (l *Loader) lower(pos ast.Loc, n east.Node) (ast.Expr, error) {
	base := ast.ExprBase{Pos: pos}

	switch x := n.(type) {
	case *east.IntegerNode:
		base.Ty = ast.Int

		return &ast.IntLit{ExprBase: base, Value: int64(x.Value)}, nil

	case *east.FloatNode:
		base.Ty = ast.Double

		return &ast.FloatLit{ExprBase: base, Value: x.Value}, nil

	case *east.BoolNode:
		base.Ty = ast.Bool

		return &ast.BoolLit{ExprBase: base, Value: x.Value}, nil

	case *east.StringNode:
		base.Ty = ast.String

		return &ast.StringLit{ExprBase: base, Value: x.Value}, nil

	case *east.IdentifierNode:
		if x.Value == "this" {
			return l.this(pos)
		}

		d, err := l.lookup(pos, x.Value)
		if err != nil {
			return nil, err
		}

		return l.ref(pos, d)

	case *east.MemberNode:
		return l.member(pos, x)

	case *east.UnaryNode:
		sub, err := l.lower(pos, x.Node)
		if err != nil {
			return nil, err
		}

		base.Ty = ast.UnaryResultType(x.Operator, sub.Type())

		return &ast.UnaryExpr{ExprBase: base, Op: x.Operator, X: sub}, nil

	case *east.BinaryNode:
		lhs, err := l.lower(pos, x.Left)
		if err != nil {
			return nil, err
		}

		rhs, err := l.lower(pos, x.Right)
		if err != nil {
			return nil, err
		}

		base.Ty = ast.BinaryResultType(x.Operator, lhs.Type(), rhs.Type())

		return &ast.BinaryExpr{ExprBase: base, Op: x.Operator, LHS: lhs, RHS: rhs}, nil

	case *east.CallNode:
		return l.call(pos, x)
	}

	return nil, ErrUnsupported.With(
		slog.String("node", fmt.Sprintf("%T", n)),
		slog.String("source", n.String()),
		slog.String("loc", pos.String()),
	)
}

// ref returns a reference to the value declaration d.
func (l *Loader) ref(pos ast.Loc, d ast.Decl) (ast.Expr, error) {
	var t ast.Type

	switch x := d.(type) {
	case *ast.VarDecl:
		t = x.Type
	case *ast.ParmDecl:
		t = x.Type
	case *ast.FieldDecl:
		t = x.Type
	case ast.Function:
		t = x.Func().Type()
	default:
		return nil, ErrNotAValue.With(
			slog.String("name", ast.QualifiedName(d)),
			slog.String("kind", d.Kind().String()),
			slog.String("loc", pos.String()),
		)
	}

	if t == nil {
		t = ast.Dependent
	}

	return &ast.DeclRefExpr{ExprBase: ast.ExprBase{Pos: pos, Ty: t}, Decl: d}, nil
}

func (l *Loader) this(pos ast.Loc) (ast.Expr, error) {
	if fn := ast.EnclosingFunction(l.sema.CurContext()); fn != nil {
		if rec, ok := fn.Base().Owner.(*ast.RecordDecl); ok {
			return &ast.ThisExpr{ExprBase: ast.ExprBase{Pos: pos, Ty: rec.Type()}}, nil
		}
	}

	return nil, ErrNotAValue.With(
		slog.String("name", "this"),
		slog.String("loc", pos.String()),
		slog.String("reason", "outside a member function"),
	)
}

// dotted returns the name path of a chain of member accesses on an
// identifier.
func dotted(n east.Node) (string, bool) {
	switch x := n.(type) {
	case *east.IdentifierNode:
		return x.Value, true
	case *east.MemberNode:
		prop, ok := x.Property.(*east.StringNode)
		if !ok {
			return "", false
		}

		head, ok := dotted(x.Node)
		if !ok {
			return "", false
		}

		return head + "." + prop.Value, true
	}

	return "", false
}

// scoped reports whether the path starts at a namespace or class rather
// than at an object.
func (l *Loader) scoped(pos ast.Loc, path string) bool {
	head, _, _ := strings.Cut(path, ".")
	if head == "this" {
		return false
	}

	d, err := l.lookup(pos, head)
	if err != nil {
		return false
	}

	switch d.(type) {
	case *ast.NamespaceDecl, *ast.RecordDecl, *ast.TranslationUnitDecl:
		return true
	}

	return false
}

// named resolves a member chain that names a declaration.
func (l *Loader) named(pos ast.Loc, n east.Node) (ast.Decl, bool, error) {
	path, ok := dotted(n)
	if !ok || (strings.Contains(path, ".") && !l.scoped(pos, path)) {
		return nil, false, nil
	}

	d, err := l.qualified(pos, path)

	return d, true, err
}

func (l *Loader) member(pos ast.Loc, n *east.MemberNode) (ast.Expr, error) {
	if d, ok, err := l.named(pos, n); ok {
		if err != nil {
			return nil, err
		}

		return l.ref(pos, d)
	}

	prop, ok := n.Property.(*east.StringNode)
	if !ok {
		return nil, ErrUnsupported.With(
			slog.String("source", n.String()),
			slog.String("loc", pos.String()),
			slog.String("reason", "computed member"),
		)
	}

	obj, err := l.lower(pos, n.Node)
	if err != nil {
		return nil, err
	}

	rec := ast.AsRecordDecl(obj.Type())
	if rec == nil {
		return nil, ErrNotAValue.With(
			slog.String("name", prop.Value),
			slog.String("type", obj.Type().String()),
			slog.String("loc", pos.String()),
			slog.String("reason", "member of a non-class"),
		)
	}

	d, err := l.within(pos, rec, prop.Value)
	if err != nil {
		return nil, err
	}

	ref, err := l.ref(pos, d)
	if err != nil {
		return nil, err
	}

	return &ast.MemberExpr{ExprBase: ast.ExprBase{Pos: pos, Ty: ref.Type()}, Object: obj, Member: d}, nil
}

func (l *Loader) args(pos ast.Loc, ns []east.Node) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(ns))

	for _, n := range ns {
		e, err := l.lower(pos, n)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

func (l *Loader) call(pos ast.Loc, n *east.CallNode) (ast.Expr, error) {
	if id, ok := n.Callee.(*east.IdentifierNode); ok {
		switch id.Value {
		case "reflexpr":
			return l.reflexpr(pos, n.Arguments)
		case "parameters":
			return l.parameters(pos, n.Arguments)
		}

		if mods, ok := modifiers[id.Value]; ok {
			return l.modify(pos, id.Value, mods, n.Arguments)
		}
	}

	callee, err := l.lower(pos, n.Callee)
	if err != nil {
		return nil, err
	}

	var fn ast.Decl

	switch c := callee.(type) {
	case *ast.DeclRefExpr:
		fn = c.Decl
	case *ast.MemberExpr:
		fn = c.Member
	}

	f, ok := ast.AsFunction(fn)
	if !ok {
		return nil, ErrNotAValue.With(
			slog.String("callee", n.Callee.String()),
			slog.String("loc", pos.String()),
			slog.String("reason", "not a function"),
		)
	}

	args, err := l.args(pos, n.Arguments)
	if err != nil {
		return nil, err
	}

	result := f.Result
	if result == nil {
		result = ast.Void
	}

	return &ast.CallExpr{ExprBase: ast.ExprBase{Pos: pos, Ty: result}, Callee: callee, Args: args}, nil
}

func arity(pos ast.Loc, name string, args []east.Node, n int) error {
	if len(args) == n {
		return nil
	}

	return ErrSyntax.With(
		slog.String("builtin", name),
		slog.Int("want", n),
		slog.Int("got", len(args)),
		slog.String("loc", pos.String()),
	)
}

// reflexpr reflects the declaration or type named by its argument.
func (l *Loader) reflexpr(pos ast.Loc, args []east.Node) (ast.Expr, error) {
	if err := arity(pos, "reflexpr", args, 1); err != nil {
		return nil, err
	}

	path, ok := dotted(args[0])
	if !ok {
		return nil, ErrUnsupported.With(
			slog.String("source", args[0].String()),
			slog.String("loc", pos.String()),
			slog.String("reason", "reflexpr of an expression"),
		)
	}

	if t, ok := builtinTypes[path]; ok {
		return l.unit.Reflect(pos, ast.TypeConstruct(t)), nil
	}

	d, err := l.qualified(pos, path)
	if err != nil {
		return nil, err
	}

	return l.unit.Reflect(pos, ast.DeclConstruct(d)), nil
}

// parameters reflects the parameter list of a function.
func (l *Loader) parameters(pos ast.Loc, args []east.Node) (ast.Expr, error) {
	if err := arity(pos, "parameters", args, 1); err != nil {
		return nil, err
	}

	d, ok, err := l.named(pos, args[0])
	if !ok {
		err = ErrUnsupported.With(
			slog.String("source", args[0].String()),
			slog.String("loc", pos.String()),
		)
	}

	if err != nil {
		return nil, err
	}

	if _, ok := ast.AsFunction(d); !ok {
		return nil, ErrNotAValue.With(
			slog.String("name", ast.QualifiedName(d)),
			slog.String("loc", pos.String()),
			slog.String("reason", "not a function"),
		)
	}

	return &ast.ReflectExpr{
		ExprBase:  ast.ExprBase{Pos: pos, Ty: l.unit.Meta.ParmsType(d)},
		Construct: ast.DeclConstruct(d),
	}, nil
}

func (l *Loader) modify(pos ast.Loc, name string, mods []modifier, args []east.Node) (ast.Expr, error) {
	if err := arity(pos, name, args, 1); err != nil {
		return nil, err
	}

	e, err := l.lower(pos, args[0])
	if err != nil {
		return nil, err
	}

	for _, m := range mods {
		e = &ast.ModifyExpr{
			ExprBase: ast.ExprBase{Pos: pos, Ty: e.Type()},
			Trait:    m.trait,
			Arg:      m.arg,
			X:        e,
		}
	}

	return e, nil
}
