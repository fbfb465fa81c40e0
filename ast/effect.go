package ast

// EffectKind enumerates deferred effects.
type EffectKind uint8

const (
	EffectInjection EffectKind = iota
	EffectDiagnostic
)

func (k EffectKind) String() string {
	if k == EffectDiagnostic {
		return "diagnostic"
	}

	return "injection"
}

// Effect is one deferred unit of work recorded while evaluating a constexpr
// block, applied later at the block's point of injection.
type Effect struct {
	Kind EffectKind
	Pos  Loc

	// ReflectionType and Reflection are the static type and value of the
	// injected reflection, or of the printed reflection for diagnostics.
	ReflectionType Type
	Reflection     Value

	// InjecteeType and Injectee are set when the injection names an explicit
	// target.
	InjecteeType Type
	Injectee     Value
}

// HasInjectee reports whether e names an explicit injection target.
func (e Effect) HasInjectee() bool { return e.InjecteeType != nil }
