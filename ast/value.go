package ast

import (
	"strconv"
	"strings"
)

// ValueKind enumerates the shapes of compile-time values.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueInt
	ValueBool
	ValueFloat
	ValueString
	ValueStruct
)

// Value is the result of constant evaluation.
//
// Struct values hold their base-class subobjects and fields positionally, in
// the order declared by their record type. A reflection is a struct value
// whose Construct is set.
type Value struct {
	Kind      ValueKind
	Int       int64
	Float     float64
	Bool      bool
	Str       string
	Bases     []Value
	Fields    []Value
	Construct Construct

	// Record is the record type of a struct value, when known.
	Record *RecordDecl
}

func IntValue(n int64) Value     { return Value{Kind: ValueInt, Int: n} }
func BoolValue(b bool) Value     { return Value{Kind: ValueBool, Bool: b} }
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// StructValue returns a struct value with the given subobjects.
func StructValue(bases, fields []Value) Value {
	return Value{Kind: ValueStruct, Bases: bases, Fields: fields}
}

// IsReflection reports whether v is a reflection value.
func (v Value) IsReflection() bool { return v.Construct.IsValid() }

// Reflected returns the construct v denotes, searching through its first
// base subobject: a fragment closure value denotes its content.
func (v Value) Reflected() Construct {
	for {
		if v.Construct.IsValid() || len(v.Bases) == 0 {
			return v.Construct
		}

		v = v.Bases[0]
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	c := v
	if v.Bases != nil {
		c.Bases = make([]Value, len(v.Bases))
		for i, b := range v.Bases {
			c.Bases[i] = b.Clone()
		}
	}

	if v.Fields != nil {
		c.Fields = make([]Value, len(v.Fields))
		for i, f := range v.Fields {
			c.Fields[i] = f.Clone()
		}
	}

	return c
}

// Truthy reports whether v converts to true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValueInt:
		return v.Int != 0
	case ValueBool:
		return v.Bool
	case ValueFloat:
		return v.Float != 0
	case ValueString:
		return v.Str != ""
	case ValueStruct:
		return true
	default:
		return false
	}
}

// Native returns v as a Go value. Struct values become slices of their
// subobjects' native values, bases first.
func (v Value) Native() any {
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueBool:
		return v.Bool
	case ValueFloat:
		return v.Float
	case ValueString:
		return v.Str
	case ValueStruct:
		all := make([]any, 0, len(v.Bases)+len(v.Fields))
		for _, b := range v.Bases {
			all = append(all, b.Native())
		}

		for _, f := range v.Fields {
			all = append(all, f.Native())
		}

		return all
	default:
		return nil
	}
}

// Equal reports whether v and w are the same value.
func (v Value) Equal(w Value) bool {
	if v.Kind != w.Kind || v.Construct != w.Construct {
		return false
	}

	switch v.Kind {
	case ValueInt:
		return v.Int == w.Int
	case ValueBool:
		return v.Bool == w.Bool
	case ValueFloat:
		return v.Float == w.Float
	case ValueString:
		return v.Str == w.Str
	case ValueStruct:
		if len(v.Bases) != len(w.Bases) || len(v.Fields) != len(w.Fields) {
			return false
		}

		for i := range v.Bases {
			if !v.Bases[i].Equal(w.Bases[i]) {
				return false
			}
		}

		for i := range v.Fields {
			if !v.Fields[i].Equal(w.Fields[i]) {
				return false
			}
		}
	}

	return true
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueStruct:
		if v.Construct.IsValid() {
			return "^" + v.Construct.String()
		}

		parts := make([]string, 0, len(v.Bases)+len(v.Fields))
		for _, b := range v.Bases {
			parts = append(parts, b.String())
		}

		for _, f := range v.Fields {
			parts = append(parts, f.String())
		}

		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<indeterminate>"
	}
}

// Field returns the subobject of v, a value of record type rec, holding the
// field named name. Base subobjects are searched in order when the field is
// not declared by rec itself. The returned pointer aliases v.
func (v *Value) Field(rec *RecordDecl, name string) (*Value, *FieldDecl, bool) {
	if rec == nil || v.Kind != ValueStruct {
		return nil, nil, false
	}

	for i, f := range rec.Fields() {
		if f.Name == name {
			if i >= len(v.Fields) {
				return nil, nil, false
			}

			return &v.Fields[i], f, true
		}
	}

	for i, b := range rec.Bases {
		if i >= len(v.Bases) {
			break
		}

		if sub, f, ok := v.Bases[i].Field(AsRecordDecl(b.Type), name); ok {
			return sub, f, true
		}
	}

	return nil, nil, false
}
