package types

import "strings"

// Equals returns whether two types are equal.
func Equals(a, b Type) bool {
	return a.equals(b)
}

// IsUnit returns whether the given type is the unit type.
func IsUnit(typ Type) bool {
	return Equals(typ, PrimTypeUnit)
}

// IsCopy returns whether values of the given type copy on assignment rather
// than move.  Only types transitively composed of Copy leaves are Copy: the
// scalar primitives and views.  Buffers, strings, tensors, channels, and
// vectors always move.
func IsCopy(typ Type) bool {
	switch v := typ.(type) {
	case PrimitiveType:
		return v == PrimTypeUnit || v == PrimTypeInt || v == PrimTypeBool
	case *ViewType:
		return true
	case *StructType:
		for _, field := range v.Fields {
			if !IsCopy(field.Type) {
				return false
			}
		}

		return true
	case *EnumType:
		for _, c := range v.Cases {
			for _, elem := range c.Elems {
				if !IsCopy(elem) {
					return false
				}
			}
		}

		return true
	default:
		return false
	}
}

// SpecializeName produces the specialized name of a generic definition
// applied to concrete type arguments.
func SpecializeName(base string, args []Type) string {
	if len(args) == 0 {
		return base
	}

	sb := strings.Builder{}
	sb.WriteString(base)
	for _, arg := range args {
		sb.WriteString("__")
		sb.WriteString(arg.Repr())
	}

	return sb.String()
}

// Substitute replaces generic parameter types within a type by the types
// bound to their names in the substitution map.  Types containing no
// parameters are returned unchanged.
func Substitute(typ Type, subs map[string]Type) Type {
	switch v := typ.(type) {
	case *ParamType:
		if bound, ok := subs[v.Name]; ok {
			return bound
		}

		return v
	case *VectorType:
		return &VectorType{ElemType: Substitute(v.ElemType, subs)}
	case *FuncType:
		params := make([]Type, len(v.ParamTypes))
		for i, p := range v.ParamTypes {
			params[i] = Substitute(p, subs)
		}

		return &FuncType{ParamTypes: params, ReturnType: Substitute(v.ReturnType, subs)}
	default:
		return typ
	}
}
