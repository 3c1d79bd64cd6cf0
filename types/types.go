package types

import "strings"

// Type represents a DAISY data type.
type Type interface {
	// Returns whether this type is equal to the other type.  This does not
	// account for type unwrapping: it should only be called within methods of
	// type instances.
	equals(other Type) bool

	// Returns the representative string for this type.
	Repr() string
}

// -----------------------------------------------------------------------------

// PrimitiveType represents a primitive type.  This must be one of the
// enumerated primitive type values below.
type PrimitiveType int

// Enumeration of the different primitive types.
const (
	PrimTypeUnit = PrimitiveType(iota)
	PrimTypeInt
	PrimTypeBool
	PrimTypeString
	PrimTypeBuffer
	PrimTypeTensor
	PrimTypeChannel
)

func (pt PrimitiveType) equals(other Type) bool {
	if opt, ok := other.(PrimitiveType); ok {
		return pt == opt
	}

	return false
}

func (pt PrimitiveType) Repr() string {
	switch pt {
	case PrimTypeUnit:
		return "nothing"
	case PrimTypeInt:
		return "int"
	case PrimTypeBool:
		return "bool"
	case PrimTypeString:
		return "string"
	case PrimTypeBuffer:
		return "buffer"
	case PrimTypeTensor:
		return "tensor"
	default:
		return "channel"
	}
}

// -----------------------------------------------------------------------------

// ViewType represents a borrowed view into a buffer.  Which buffer a view
// aliases is tracked by the borrow checker, not the type.
type ViewType struct {
	// Whether the view permits mutation of the underlying region.
	Mutable bool
}

func (vt *ViewType) equals(other Type) bool {
	if ovt, ok := other.(*ViewType); ok {
		return vt.Mutable == ovt.Mutable
	}

	return false
}

func (vt *ViewType) Repr() string {
	if vt.Mutable {
		return "view mut"
	}

	return "view"
}

// -----------------------------------------------------------------------------

// VectorType represents a growable vector of elements.
type VectorType struct {
	// The element type of the vector.
	ElemType Type
}

func (vt *VectorType) equals(other Type) bool {
	if ovt, ok := other.(*VectorType); ok {
		return Equals(vt.ElemType, ovt.ElemType)
	}

	return false
}

func (vt *VectorType) Repr() string {
	return "vec<" + vt.ElemType.Repr() + ">"
}

// -----------------------------------------------------------------------------

// FuncType represents a function type.
type FuncType struct {
	// The parameter types of the function.
	ParamTypes []Type

	// The return type of the function.
	ReturnType Type
}

func (ft *FuncType) equals(other Type) bool {
	if oft, ok := other.(*FuncType); ok {
		if len(ft.ParamTypes) != len(oft.ParamTypes) {
			return false
		}

		for i, paramtyp := range ft.ParamTypes {
			if !Equals(paramtyp, oft.ParamTypes[i]) {
				return false
			}
		}

		return Equals(ft.ReturnType, oft.ReturnType)
	}

	return false
}

func (ft *FuncType) Repr() string {
	sb := strings.Builder{}

	sb.WriteRune('(')
	for i, paramtyp := range ft.ParamTypes {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(paramtyp.Repr())
	}
	sb.WriteString(") -> ")
	sb.WriteString(ft.ReturnType.Repr())

	return sb.String()
}

// -----------------------------------------------------------------------------

// StructType represents a structure type.  Generic structs are specialized
// before a StructType is created, so the name carries any specialization.
type StructType struct {
	// The struct's fully specialized name.
	Name string

	// The module the struct is defined in.
	ParentModule string

	// The list of fields of the struct in order.
	Fields []StructField

	// A mapping between field names and their index within the struct.
	Indices map[string]int
}

// StructField represents a field of a structure type.
type StructField struct {
	Name string
	Type Type
}

func (st *StructType) equals(other Type) bool {
	if ost, ok := other.(*StructType); ok {
		return st.Name == ost.Name && st.ParentModule == ost.ParentModule
	}

	return false
}

func (st *StructType) Repr() string {
	return st.Name
}

// GetFieldByName returns the struct field corresponding to the given name if
// it exists in the struct.
func (st *StructType) GetFieldByName(name string) (StructField, bool) {
	if index, ok := st.Indices[name]; ok {
		return st.Fields[index], true
	}

	return StructField{}, false
}

// -----------------------------------------------------------------------------

// EnumType represents an enum type.  Generic enums, including the predeclared
// Result and Option enums, are specialized before an EnumType is created.
type EnumType struct {
	// The enum's fully specialized name.
	Name string

	// The module the enum is defined in.  Empty for the predeclared enums.
	ParentModule string

	// The list of constructors of the enum in order.  The declaration order
	// determines the runtime discriminant value.
	Cases []EnumCase
}

// EnumCase represents a single constructor of an enum type.
type EnumCase struct {
	Name string

	// The element types carried by the constructor, empty for bare cases.
	Elems []Type
}

func (et *EnumType) equals(other Type) bool {
	if oet, ok := other.(*EnumType); ok {
		return et.Name == oet.Name && et.ParentModule == oet.ParentModule
	}

	return false
}

func (et *EnumType) Repr() string {
	return et.Name
}

// GetCaseByName returns the constructor with the given name and its
// discriminant if it exists in the enum.
func (et *EnumType) GetCaseByName(name string) (EnumCase, int, bool) {
	for i, c := range et.Cases {
		if c.Name == name {
			return c, i, true
		}
	}

	return EnumCase{}, -1, false
}

// -----------------------------------------------------------------------------

// ParamType represents an unsubstituted generic type parameter.  These only
// exist while checking the body of a generic definition template: they never
// survive specialization.
type ParamType struct {
	// The name of the type parameter.
	Name string

	// The names of the traits the parameter is bounded by.
	Bounds []string
}

func (pt *ParamType) equals(other Type) bool {
	if opt, ok := other.(*ParamType); ok {
		return pt.Name == opt.Name
	}

	return false
}

func (pt *ParamType) Repr() string {
	return pt.Name
}
