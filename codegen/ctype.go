package codegen

import (
	"strings"
	"unicode"

	"daisyc/types"
)

// cType maps a DAISY type onto the C type the runtime ABI passes it as.
// Scalars and unit are 64 bit integers; buffers, views, and tensors travel
// by value; channels and vectors travel as pointers.
func (g *Generator) cType(typ types.Type) string {
	switch v := typ.(type) {
	case types.PrimitiveType:
		switch v {
		case types.PrimTypeString:
			return "const char*"
		case types.PrimTypeBuffer:
			return "DaisyBuffer"
		case types.PrimTypeTensor:
			return "DaisyTensor"
		case types.PrimTypeChannel:
			return "DaisyChannel*"
		default:
			return "int64_t"
		}
	case *types.ViewType:
		return "DaisyView"
	case *types.VectorType:
		return "DaisyVec*"
	case *types.StructType:
		return g.structTypeName(v)
	case *types.EnumType:
		return g.enumTypeName(v)
	default:
		return "int64_t"
	}
}

// cDecl renders a declarator for a named variable.  Function types need the
// pointer form; everything else is `type name`.
func (g *Generator) cDecl(name string, typ types.Type) string {
	if ft, ok := typ.(*types.FuncType); ok {
		params := make([]string, len(ft.ParamTypes))
		for i, p := range ft.ParamTypes {
			params[i] = g.cType(p)
		}

		return g.cType(ft.ReturnType) + " (*" + name + ")(" + strings.Join(params, ", ") + ")"
	}

	return g.cType(typ) + " " + name
}

func (g *Generator) structTypeName(st *types.StructType) string {
	return "daisy_struct_" + g.typeOwner(st.ParentModule) + "__" + sanitizeTypeName(st.Name)
}

func (g *Generator) enumTypeName(et *types.EnumType) string {
	return "daisy_enum_" + g.typeOwner(et.ParentModule) + "__" + sanitizeTypeName(et.Name)
}

// typeOwner resolves the module a type name is attributed to.  The
// predeclared enums carry no parent module and attribute to the module being
// emitted.
func (g *Generator) typeOwner(parent string) string {
	if parent == "" {
		return g.cur.Name
	}

	return parent
}

func sanitizeTypeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}

		return '_'
	}, name)
}

// cName maps a MIR value name onto a C identifier.  Temporaries trade their
// `%` sigil for an underscore; named slots pass through.
func cName(name string) string {
	if strings.HasPrefix(name, "%") {
		return "_" + name[1:]
	}

	return name
}
