package unit

import (
	"log/slog"

	"github.com/goccy/go-yaml"
	yast "github.com/goccy/go-yaml/ast"
	yparser "github.com/goccy/go-yaml/parser"

	"github.com/ardnew/splice/ast"
)

// Document is one decoded source file.
type Document struct {
	Include []string `yaml:"include"`
	Decls   []*Decl  `yaml:"decls"`
}

// Decl describes one declaration. Exactly one of the naming keys
// (namespace, class, struct, field, var, function, method, constructor,
// destructor, alias, inject, constexpr, fragment, generate, instantiate)
// selects its kind; the remaining keys refine it.
type Decl struct {
	Namespace   string   `yaml:"namespace"`
	Class       string   `yaml:"class"`
	Struct      string   `yaml:"struct"`
	Field       string   `yaml:"field"`
	Var         string   `yaml:"var"`
	Function    string   `yaml:"function"`
	Method      string   `yaml:"method"`
	Constructor bool     `yaml:"constructor"`
	Destructor  bool     `yaml:"destructor"`
	Alias       string   `yaml:"alias"`
	Inject      string   `yaml:"inject"`
	Constexpr   []*Stmt  `yaml:"constexpr"`
	Fragment    string   `yaml:"fragment"`
	Generate    string   `yaml:"generate"`
	Instantiate string   `yaml:"instantiate"`
	Inline      bool     `yaml:"inline"`
	Dependent   bool     `yaml:"dependent"`
	Bases       []string `yaml:"bases"`
	Access      string   `yaml:"access"`
	Specifiers  []string `yaml:"specifiers"`
	Type        string   `yaml:"type"`
	Init        string   `yaml:"init"`
	Result      string   `yaml:"result"`
	Params      []*Param `yaml:"params"`
	Inits       []*Init  `yaml:"inits"`
	Body        []*Stmt  `yaml:"body"`
	Members     []*Decl  `yaml:"members"`
	Kind        string   `yaml:"kind"`
	Generator   string   `yaml:"generator"`
	From        string   `yaml:"from"`
	Pattern     string   `yaml:"pattern"`

	Pos ast.Loc `yaml:"-"`
}

// Param is a function parameter, or with Inject set, the parameters a
// reflection denotes.
type Param struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`
	Inject  string `yaml:"inject"`
}

// Init is one constructor member or base initializer.
type Init struct {
	Member string `yaml:"member"`
	Base   string `yaml:"base"`
	Init   string `yaml:"init"`
}

// Stmt is one statement of a function body or constexpr block.
type Stmt struct {
	Let      string    `yaml:"let"`
	Type     string    `yaml:"type"`
	Init     string    `yaml:"init"`
	Expr     string    `yaml:"expr"`
	Inject   string    `yaml:"inject"`
	Extend   string    `yaml:"extend"`
	With     string    `yaml:"with"`
	Print    string    `yaml:"print"`
	Return   *string   `yaml:"return"`
	Fragment *Fragment `yaml:"fragment"`

	Pos ast.Loc `yaml:"-"`
}

// Fragment is a fragment body written inline in a statement.
type Fragment struct {
	Kind    string  `yaml:"kind"`
	Members []*Decl `yaml:"members"`
}

// Decode parses data as a document read from file.
func Decode(data []byte, file string) (*Document, error) {
	f, err := yparser.ParseBytes(data, 0)
	if err != nil {
		return nil, ErrDocument.Wrap(err).With(
			slog.String("file", file),
			slog.String("detail", yaml.FormatError(err, false, true)),
		)
	}

	doc := &Document{}

	if len(f.Docs) == 0 || f.Docs[0].Body == nil {
		return doc, nil
	}

	body := f.Docs[0].Body
	if err := yaml.NodeToValue(body, doc, yaml.DisallowUnknownField()); err != nil {
		return nil, ErrDocument.Wrap(err).With(
			slog.String("file", file),
			slog.String("detail", yaml.FormatError(err, false, true)),
		)
	}

	if seq, ok := value(body, "decls").(*yast.SequenceNode); ok {
		annotateDecls(seq, doc.Decls, file)
	}

	return doc, nil
}

// pairs returns the key/value pairs of a mapping node.
func pairs(n yast.Node) []*yast.MappingValueNode {
	switch m := n.(type) {
	case *yast.MappingNode:
		return m.Values
	case *yast.MappingValueNode:
		return []*yast.MappingValueNode{m}
	default:
		return nil
	}
}

func value(n yast.Node, key string) yast.Node {
	for _, p := range pairs(n) {
		if p.Key.GetToken().Value == key {
			return p.Value
		}
	}

	return nil
}

func position(n yast.Node, file string) ast.Loc {
	tk := n.GetToken()
	if tk == nil || tk.Position == nil {
		return ast.Loc{File: file}
	}

	return ast.Loc{File: file, Line: tk.Position.Line, Col: tk.Position.Column}
}

// annotateDecls records the source position of each declaration decoded
// from seq.
func annotateDecls(seq *yast.SequenceNode, decls []*Decl, file string) {
	for i, n := range seq.Values {
		if i >= len(decls) || decls[i] == nil {
			break
		}

		d := decls[i]
		d.Pos = position(n, file)

		if ps := pairs(n); len(ps) > 0 {
			d.Pos = position(ps[0].Key, file)
		}

		if s, ok := value(n, "members").(*yast.SequenceNode); ok {
			annotateDecls(s, d.Members, file)
		}

		if s, ok := value(n, "body").(*yast.SequenceNode); ok {
			annotateStmts(s, d.Body, file)
		}

		if s, ok := value(n, "constexpr").(*yast.SequenceNode); ok {
			annotateStmts(s, d.Constexpr, file)
		}
	}
}

func annotateStmts(seq *yast.SequenceNode, stmts []*Stmt, file string) {
	for i, n := range seq.Values {
		if i >= len(stmts) || stmts[i] == nil {
			break
		}

		st := stmts[i]
		st.Pos = position(n, file)

		if ps := pairs(n); len(ps) > 0 {
			st.Pos = position(ps[0].Key, file)
		}

		if st.Fragment == nil {
			continue
		}

		if s, ok := value(value(n, "fragment"), "members").(*yast.SequenceNode); ok {
			annotateDecls(s, st.Fragment.Members, file)
		}
	}
}
