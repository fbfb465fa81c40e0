package sema

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/splice/ast"
)

// DiagKind identifies a user diagnostic.
type DiagKind uint16

const (
	DiagNotAReflection DiagKind = iota
	DiagReflectionNotDecl
	DiagReflectionNotType
	DiagInvalidInjection
	DiagInjectingLocalIntoInvalidScope
	DiagInjecteeNotBeingDefined
	DiagExtendingNonReflection
	DiagModifiesMemSpecOfNonMember
	DiagConstexprDestructor
	DiagConstexprInvalidKind
	DiagConstexprVirtual
	DiagConstexprVarRequiresInit
	DiagVirtualNonMethod
	DiagCannotMakePureVirtual
	DiagInvalidParameter
	DiagUnresolvedDependentType
	DiagEvaluationFailed
	DiagInstantiationDepthExceeded
)

var diagFormat = [...]string{
	DiagNotAReflection:                 "expression of type %s is not a reflection",
	DiagReflectionNotDecl:              "reflection does not denote a declaration",
	DiagReflectionNotType:              "reflection does not denote a type",
	DiagInvalidInjection:               "cannot inject %s into %s",
	DiagInjectingLocalIntoInvalidScope: "cannot inject a local declaration into %s",
	DiagInjecteeNotBeingDefined:        "cannot inject into %s: its definition is complete",
	DiagExtendingNonReflection:         "cannot extend a value of non-class type %s",
	DiagModifiesMemSpecOfNonMember:     "cannot change the access of %s: it is not a class member",
	DiagConstexprDestructor:            "destructor %s cannot be made constexpr",
	DiagConstexprInvalidKind:           "%s %s cannot be made constexpr",
	DiagConstexprVirtual:               "virtual function %s cannot be constexpr",
	DiagConstexprVarRequiresInit:       "constexpr variable %s must be initialized",
	DiagVirtualNonMethod:               "%s %s cannot be virtual: it is not a member function",
	DiagCannotMakePureVirtual:          "cannot make %s pure virtual: it is %s",
	DiagInvalidParameter:               "reflection of type %s does not denote a function or parameter",
	DiagUnresolvedDependentType:        "type of %s is still dependent after substitution",
	DiagEvaluationFailed:               "constant evaluation failed: %v",
	DiagInstantiationDepthExceeded:     "recursive injection exceeded the maximum depth of %d",
}

func (k DiagKind) String() string {
	names := [...]string{
		"not-a-reflection", "reflection-not-decl", "reflection-not-type",
		"invalid-injection", "injecting-local-into-invalid-scope",
		"injectee-not-being-defined", "extending-non-reflection",
		"modifies-mem-spec-of-non-member", "constexpr-destructor",
		"constexpr-invalid-kind", "constexpr-virtual",
		"constexpr-var-requires-init", "virtual-non-method",
		"cannot-make-pure-virtual", "invalid-parameter",
		"unresolved-dependent-type", "evaluation-failed",
		"instantiation-depth-exceeded",
	}

	if int(k) < len(names) {
		return names[k]
	}

	return "unknown"
}

// Severity is the severity of a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal error"
	}

	return "error"
}

// Diagnostic is a user-facing error at a source location. It is recorded in
// [Diagnostics] and also returned to the caller as an error.
type Diagnostic struct {
	Pos      ast.Loc
	Kind     DiagKind
	Severity Severity
	Args     []any
	Notes    []string
}

// Message returns the diagnostic text without location or severity.
func (d *Diagnostic) Message() string {
	if int(d.Kind) >= len(diagFormat) {
		return d.Kind.String()
	}

	return fmt.Sprintf(diagFormat[d.Kind], d.Args...)
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder

	sb.WriteString(d.Pos.String())
	sb.WriteString(": ")
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message())

	for _, n := range d.Notes {
		sb.WriteString("\n  note: ")
		sb.WriteString(n)
	}

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (d *Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("loc", d.Pos.String()),
		slog.String("kind", d.Kind.String()),
		slog.String("severity", d.Severity.String()),
		slog.String("message", d.Message()),
	)
}

// AsDiagnostic returns the first diagnostic in err's tree.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}

	return nil, false
}

// Diagnostics collects the diagnostics of one compilation unit in emission
// order.
type Diagnostics struct {
	list    []*Diagnostic
	handler func(*Diagnostic)
}

// All returns the diagnostics in emission order.
func (ds *Diagnostics) All() []*Diagnostic { return ds.list }

// Len returns the number of diagnostics.
func (ds *Diagnostics) Len() int { return len(ds.list) }

// Count returns the number of diagnostics of kind k.
func (ds *Diagnostics) Count(k DiagKind) int {
	n := 0

	for _, d := range ds.list {
		if d.Kind == k {
			n++
		}
	}

	return n
}

// Has reports whether a diagnostic of kind k was emitted.
func (ds *Diagnostics) Has(k DiagKind) bool { return ds.Count(k) > 0 }

// Kinds returns the kinds of all diagnostics in emission order.
func (ds *Diagnostics) Kinds() []DiagKind {
	kinds := make([]DiagKind, len(ds.list))
	for i, d := range ds.list {
		kinds[i] = d.Kind
	}

	return kinds
}

func (ds *Diagnostics) add(d *Diagnostic) {
	ds.list = append(ds.list, d)

	if ds.handler != nil {
		ds.handler(d)
	}
}
