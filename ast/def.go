package ast

// Def is the interface for all top level definitions.
type Def interface {
	ASTNode

	// DefName returns the name the definition introduces.  Definitions which
	// introduce no name (eg. impl blocks) return the empty string.
	DefName() string
}

// TypeRef is a syntactic reference to a type: a named type optionally applied
// to generic arguments.  A nil TypeRef denotes the unit type `nothing`.
type TypeRef struct {
	ASTBase

	// The name of the referenced type.
	Name string

	// The generic arguments applied to the type, if any.
	Args []*TypeRef
}

// TypeParam is a generic type parameter together with its trait bounds.
type TypeParam struct {
	ASTBase

	Name string

	// The names of the traits the parameter is bounded by.
	Bounds []string
}

// Param is a single function or method parameter.
type Param struct {
	ASTBase

	Name string
	Type *TypeRef
}

// -----------------------------------------------------------------------------

// ImportDef is an AST node for an import or use declaration.
type ImportDef struct {
	ASTBase

	// The dotted path being imported.  For a use declaration, the final
	// element names the symbol being pulled into scope.
	Path []string

	// The local alias the import is bound to, empty if none was given.
	Alias string

	// Whether this is a use declaration rather than a module import.
	IsUse bool
}

func (id *ImportDef) DefName() string {
	if id.Alias != "" {
		return id.Alias
	}

	return id.Path[len(id.Path)-1]
}

// -----------------------------------------------------------------------------

// FuncDef is an AST node for a function definition.
type FuncDef struct {
	ASTBase

	Name       string
	Public     bool
	TypeParams []*TypeParam
	Params     []*Param

	// The declared return type, nil if the function returns nothing.
	ReturnType *TypeRef

	Body []Stmt
}

func (fd *FuncDef) DefName() string {
	return fd.Name
}

// ExternDef is an AST node for an external function declaration.  Extern
// functions have no body and map directly onto raw C symbols of the same
// name.
type ExternDef struct {
	ASTBase

	Name       string
	Public     bool
	Params     []*Param
	ReturnType *TypeRef
}

func (ed *ExternDef) DefName() string {
	return ed.Name
}

// -----------------------------------------------------------------------------

// StructDef is an AST node for a struct definition.
type StructDef struct {
	ASTBase

	Name       string
	Public     bool
	TypeParams []*TypeParam
	Fields     []StructField
}

// StructField is a single field of a struct definition.
type StructField struct {
	Name string
	Type *TypeRef
	Pos  ASTBase
}

func (sd *StructDef) DefName() string {
	return sd.Name
}

// EnumDef is an AST node for an enum definition.
type EnumDef struct {
	ASTBase

	Name       string
	Public     bool
	TypeParams []*TypeParam
	Cases      []EnumCase
}

// EnumCase is a single constructor of an enum definition.
type EnumCase struct {
	Name string

	// The element types carried by the constructor, empty for bare cases.
	Elems []*TypeRef

	Pos ASTBase
}

func (ed *EnumDef) DefName() string {
	return ed.Name
}

// -----------------------------------------------------------------------------

// TraitDef is an AST node for a trait definition.
type TraitDef struct {
	ASTBase

	Name       string
	Public     bool
	TypeParams []*TypeParam
	Methods    []TraitMethod
}

// TraitMethod is a single required method signature of a trait.
type TraitMethod struct {
	Name       string
	Params     []*Param
	ReturnType *TypeRef
	Pos        ASTBase
}

func (td *TraitDef) DefName() string {
	return td.Name
}

// ImplDef is an AST node for an impl block attaching trait methods to a type.
type ImplDef struct {
	ASTBase

	// The name of the implemented trait, empty for inherent impls.
	TraitName string

	// The type the impl applies to.
	ForType *TypeRef

	Methods []*FuncDef
}

func (id *ImplDef) DefName() string {
	return ""
}
