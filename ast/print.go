package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders declarations as C++-like source text.
type Printer struct {
	// Implicit includes implicit declarations in the output.
	Implicit bool
	// Indent is the indentation unit. The zero value uses two spaces.
	Indent string
}

// Fprint writes d to w using the default printer.
func Fprint(w io.Writer, d Decl) error { return Printer{}.Fprint(w, d) }

// Sprint returns d rendered by the default printer.
func Sprint(d Decl) string {
	var sb strings.Builder

	_ = Fprint(&sb, d)

	return sb.String()
}

// Fprint writes d to w.
func (p Printer) Fprint(w io.Writer, d Decl) error {
	if p.Indent == "" {
		p.Indent = "  "
	}

	var sb strings.Builder

	pp := printer{Printer: p, out: &sb}
	if tu, ok := d.(*TranslationUnitDecl); ok {
		pp.members(tu, AccessNone)
	} else {
		pp.decl(d)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

type printer struct {
	Printer

	out   *strings.Builder
	depth int
}

func (p *printer) line(format string, args ...any) {
	p.out.WriteString(strings.Repeat(p.Indent, p.depth))
	fmt.Fprintf(p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *printer) visible(d Decl) bool {
	if d.Base().Implicit && !p.Implicit {
		return false
	}

	if r, ok := d.(*RecordDecl); ok && r.InjectedClassName {
		return p.Implicit
	}

	return true
}

func (p *printer) members(c Context, def Access) {
	cur := def

	for _, m := range c.Members() {
		if !p.visible(m) {
			continue
		}

		if a := m.Base().Access; def != AccessNone && a != AccessNone && a != cur {
			p.depth--
			p.line("%s:", a)
			p.depth++
			cur = a
		}

		p.decl(m)
	}
}

func (p *printer) decl(d Decl) {
	invalid := ""
	if d.Base().Invalid {
		invalid = " // invalid"
	}

	switch x := d.(type) {
	case *TranslationUnitDecl:
		p.members(x, AccessNone)

	case *NamespaceDecl:
		kw := "namespace"
		if x.Inline {
			kw = "inline namespace"
		}

		p.line("%s %s {%s", kw, x.Name, invalid)
		p.depth++
		p.members(x, AccessNone)
		p.depth--
		p.line("}")

	case *RecordDecl:
		p.record(x, invalid)

	case *FragmentDecl:
		p.line("fragment {%s", invalid)
		p.depth++

		if x.Content != nil {
			p.decl(x.Content)
		}

		p.depth--
		p.line("}")

	case *FieldDecl:
		p.line("%s%s;%s", declarator(x.Type, x.Name), initializer(x.Init), invalid)

	case *VarDecl:
		p.line("%s%s%s;%s", varSpecifiers(x), declarator(x.Type, x.Name),
			initializer(x.Init), invalid)

	case *ParmDecl:
		p.line("%s;%s", parm(x), invalid)

	case Function:
		p.function(d, x.Func(), invalid)

	case *TypeAliasDecl:
		p.line("using %s = %s;%s", x.Name, typeString(x.Underlying), invalid)

	case *InjectionDecl:
		p.line("consteval -> %s;%s", ExprString(x.Reflection), invalid)

	case *ConstexprDecl:
		p.line("constexpr {%s", invalid)
		p.depth++
		p.stmts(x.Body)
		p.depth--
		p.line("}")
	}
}

func (p *printer) record(r *RecordDecl, invalid string) {
	head := r.Tag.String()
	if r.Name != "" {
		head += " " + r.Name
	}

	if len(r.Bases) > 0 {
		bases := make([]string, len(r.Bases))
		for i, b := range r.Bases {
			bases[i] = strings.TrimSpace(b.Access.String() + " " + typeString(b.Type))
		}

		head += " : " + strings.Join(bases, ", ")
	}

	if !r.Complete && !r.BeingDefined {
		p.line("%s;%s", head, invalid)

		return
	}

	p.line("%s {%s", head, invalid)
	p.depth++
	p.members(r, r.DefaultAccess())
	p.depth--
	p.line("};")
}

func (p *printer) function(d Decl, f *FunctionDecl, invalid string) {
	var spec []string

	m, isMethod := AsMethod(d)
	if isMethod && m.Static {
		spec = append(spec, "static")
	}

	if f.Storage == StorageStatic && !isMethod {
		spec = append(spec, "static")
	}

	if isMethod && m.Virtual {
		spec = append(spec, "virtual")
	}

	if f.Constexpr {
		spec = append(spec, "constexpr")
	}

	name := f.Name

	switch x := d.(type) {
	case *ConstructorDecl:
		if x.Explicit {
			spec = append(spec, "explicit")
		}
	case *DestructorDecl:
		name = "~" + strings.TrimPrefix(name, "~")
	default:
		spec = append(spec, typeString(f.Result))
	}

	params := make([]string, len(f.Params))
	for i, prm := range f.Params {
		params[i] = parm(prm)
	}

	sig := strings.TrimSpace(strings.Join(spec, " ") + " " + name +
		"(" + strings.Join(params, ", ") + ")")

	if isMethod && m.Const {
		sig += " const"
	}

	if c, ok := d.(*ConstructorDecl); ok && len(c.Inits) > 0 {
		inits := make([]string, len(c.Inits))
		for i, in := range c.Inits {
			inits[i] = ctorInit(in)
		}

		sig += " : " + strings.Join(inits, ", ")
	}

	switch {
	case isMethod && m.Pure:
		p.line("%s = 0;%s", sig, invalid)
	case f.Defaulted:
		p.line("%s = default;%s", sig, invalid)
	case f.Deleted:
		p.line("%s = delete;%s", sig, invalid)
	case f.Body == nil:
		p.line("%s;%s", sig, invalid)
	case len(f.Body.Stmts) == 0:
		p.line("%s {}%s", sig, invalid)
	default:
		p.line("%s {%s", sig, invalid)
		p.depth++
		p.stmts(f.Body)
		p.depth--
		p.line("}")
	}
}

func (p *printer) stmts(body *CompoundStmt) {
	if body == nil {
		return
	}

	for _, s := range body.Stmts {
		p.stmt(s)
	}
}

func (p *printer) stmt(s Stmt) {
	switch x := s.(type) {
	case *CompoundStmt:
		p.line("{")
		p.depth++
		p.stmts(x)
		p.depth--
		p.line("}")
	case *ExprStmt:
		p.line("%s;", ExprString(x.X))
	case *DeclStmt:
		for _, d := range x.Decls {
			p.decl(d)
		}
	case *ReturnStmt:
		if x.X == nil {
			p.line("return;")
		} else {
			p.line("return %s;", ExprString(x.X))
		}
	case *InjectionStmt:
		p.line("-> %s;", ExprString(x.Reflection))
	case *ExtensionStmt:
		p.line("-> %s -> %s;", ExprString(x.Reflection), ExprString(x.Target))
	case *PrintStmt:
		p.line("__print(%s);", ExprString(x.Reflection))
	}
}

func varSpecifiers(v *VarDecl) string {
	var spec []string

	if v.Storage == StorageStatic {
		spec = append(spec, "static")
	}

	if v.Inline {
		spec = append(spec, "inline")
	}

	if v.Constexpr {
		spec = append(spec, "constexpr")
	}

	if len(spec) == 0 {
		return ""
	}

	return strings.Join(spec, " ") + " "
}

func declarator(t Type, name string) string {
	return typeString(t) + " " + name
}

func initializer(e Expr) string {
	if e == nil {
		return ""
	}

	return " = " + ExprString(e)
}

func parm(p *ParmDecl) string {
	s := typeString(p.Type)
	if p.Name != "" {
		s += " " + p.Name
	}

	if p.Default != nil {
		s += " = " + ExprString(p.Default)
	}

	return s
}

func ctorInit(in *CtorInit) string {
	target := ""

	switch {
	case in.Member != nil:
		target = in.Member.Name
	case in.Base != nil:
		target = typeString(in.Base)
	}

	args := ""
	if pl, ok := in.Init.(*ParenListExpr); ok {
		parts := make([]string, len(pl.Exprs))
		for i, e := range pl.Exprs {
			parts[i] = ExprString(e)
		}

		args = strings.Join(parts, ", ")
	} else if in.Init != nil {
		args = ExprString(in.Init)
	}

	return target + "(" + args + ")"
}

// ExprString renders e as source text.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<null>"
	case *IntLit:
		return IntValue(x.Value).String()
	case *BoolLit:
		return BoolValue(x.Value).String()
	case *FloatLit:
		return FloatValue(x.Value).String()
	case *StringLit:
		return StringValue(x.Value).String()
	case *DeclRefExpr:
		return x.Decl.Base().Name
	case *MemberExpr:
		if _, ok := x.Object.(*ThisExpr); ok {
			return x.Member.Base().Name
		}

		return ExprString(x.Object) + "." + x.Member.Base().Name
	case *ThisExpr:
		return "this"
	case *ImplicitCastExpr:
		return ExprString(x.Sub)
	case *OpaqueValueExpr:
		if x.Source != nil {
			return ExprString(x.Source)
		}

		return "<opaque>"
	case *ConstantExpr:
		return x.Value.String()
	case *UnaryExpr:
		return x.Op + operand(x.X)
	case *BinaryExpr:
		return operand(x.LHS) + " " + x.Op + " " + operand(x.RHS)
	case *CallExpr:
		return ExprString(x.Callee) + "(" + exprList(x.Args) + ")"
	case *ReflectExpr:
		return "^" + x.Construct.String()
	case *ModifyExpr:
		return modifierName(x.Trait, x.Arg) + "(" + ExprString(x.X) + ")"
	case *FragmentExpr:
		return "__fragment(" + exprList(x.Captures) + ")"
	case *ConstructExpr:
		return typeString(x.Ty) + "(" + exprList(x.Args) + ")"
	case *ParenListExpr:
		return "(" + exprList(x.Exprs) + ")"
	default:
		return "<expr>"
	}
}

func operand(e Expr) string {
	switch IgnoreImplicit(e).(type) {
	case *BinaryExpr:
		return "(" + ExprString(e) + ")"
	default:
		return ExprString(e)
	}
}

func exprList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = ExprString(e)
	}

	return strings.Join(parts, ", ")
}

func modifierName(t Trait, arg int64) string {
	switch t {
	case TraitAccess:
		return "make_" + AccessMod(arg).String()
	case TraitStorage:
		return "make_" + StorageMod(arg).String()
	case TraitConstexpr:
		return "make_constexpr"
	case TraitVirtual:
		return "make_virtual"
	case TraitPure:
		return "make_pure"
	default:
		return "make_external"
	}
}
