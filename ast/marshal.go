package ast

// ToMap converts d into a tree of maps, slices, and scalars suitable for
// YAML or JSON encoding. Implicit declarations are omitted unless implicit
// is set.
func ToMap(d Decl, implicit bool) map[string]any {
	m := map[string]any{
		"kind": d.Kind().String(),
	}

	b := d.Base()
	if b.Name != "" {
		m["name"] = b.Name
	}

	if b.Access != AccessNone {
		m["access"] = b.Access.String()
	}

	if b.Invalid {
		m["invalid"] = true
	}

	if b.Implicit {
		m["implicit"] = true
	}

	if b.Pos.IsValid() {
		m["loc"] = b.Pos.String()
	}

	switch x := d.(type) {
	case *NamespaceDecl:
		if x.Inline {
			m["inline"] = true
		}
	case *RecordDecl:
		m["tag"] = x.Tag.String()

		if len(x.Bases) > 0 {
			bases := make([]any, len(x.Bases))
			for i, base := range x.Bases {
				bases[i] = typeString(base.Type)
			}

			m["bases"] = bases
		}

		if x.Dependent {
			m["dependent"] = true
		}
	case *FieldDecl:
		m["type"] = typeString(x.Type)
		setExpr(m, "init", x.Init)
	case *VarDecl:
		m["type"] = typeString(x.Type)
		setExpr(m, "init", x.Init)

		if x.Storage != StorageNone {
			m["storage"] = x.Storage.String()
		}

		setFlag(m, "constexpr", x.Constexpr)
		setFlag(m, "placeholder", x.Placeholder)
	case *ParmDecl:
		m["type"] = typeString(x.Type)
		setExpr(m, "default", x.Default)
		setFlag(m, "injected", x.Injected)
	case Function:
		f := x.Func()
		m["type"] = typeString(f.Type())

		parms := make([]any, len(f.Params))
		for i, p := range f.Params {
			parms[i] = ToMap(p, implicit)
		}

		if len(parms) > 0 {
			m["params"] = parms
		}

		setFlag(m, "constexpr", f.Constexpr)
		setFlag(m, "defaulted", f.Defaulted)
		setFlag(m, "deleted", f.Deleted)
		setFlag(m, "defined", f.IsDefined())

		if md, ok := AsMethod(d); ok {
			setFlag(m, "virtual", md.Virtual)
			setFlag(m, "pure", md.Pure)
			setFlag(m, "static", md.Static)
		}
	case *TypeAliasDecl:
		m["type"] = typeString(x.Underlying)
	case *InjectionDecl:
		setExpr(m, "reflection", x.Reflection)
	case *ConstexprDecl:
		setFlag(m, "evaluated", x.Evaluated)
	}

	if c, ok := d.(Context); ok {
		var members []any

		for _, sub := range c.Members() {
			if sub.Base().Implicit && !implicit {
				continue
			}

			if r, ok := sub.(*RecordDecl); ok && r.InjectedClassName && !implicit {
				continue
			}

			if _, ok := sub.(*ParmDecl); ok {
				continue
			}

			members = append(members, ToMap(sub, implicit))
		}

		if len(members) > 0 {
			m["members"] = members
		}
	}

	return m
}

func setExpr(m map[string]any, key string, e Expr) {
	if e != nil {
		m[key] = ExprString(e)
	}
}

func setFlag(m map[string]any, key string, v bool) {
	if v {
		m[key] = true
	}
}
