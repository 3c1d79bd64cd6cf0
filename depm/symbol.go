package depm

import (
	"daisyc/ast"
	"daisyc/report"
	"daisyc/types"
)

// Symbol represents a top level named symbol of a module.
type Symbol struct {
	// The symbol's name.
	Name string

	// The ID of the module the symbol is defined in.
	ModID uint64

	// The span of the symbol's definition.
	DefSpan *report.TextSpan

	// The kind of definition that produced the symbol.  This must be one of
	// the enumerated definition kinds.
	DefKind int

	// Whether the symbol is visible outside its defining module.
	Public bool

	// The definition that produced the symbol.
	Def ast.Def

	// The symbol's type, filled in by the checker.  For generic symbols this
	// is the type of the template, not of any specialization.
	Type types.Type
}

// Enumeration of definition kinds.
const (
	DKFunc = iota
	DKExtern
	DKType
	DKTrait
)

// IsGeneric returns whether the symbol's definition declares type parameters.
func (sym *Symbol) IsGeneric() bool {
	switch def := sym.Def.(type) {
	case *ast.FuncDef:
		return len(def.TypeParams) > 0
	case *ast.StructDef:
		return len(def.TypeParams) > 0
	case *ast.EnumDef:
		return len(def.TypeParams) > 0
	case *ast.TraitDef:
		return len(def.TypeParams) > 0
	}

	return false
}
