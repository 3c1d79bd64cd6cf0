package walk

import (
	"daisyc/ast"
	"daisyc/depm"
	"daisyc/types"
)

// Env is the semantic environment shared by every walker of a compilation.
// It accumulates the resolved named types, traits, impls, and the flat list
// of function instances handed to lowering.  The namespace of type, trait,
// and impl names is program wide.
type Env struct {
	// Fully specialized struct and enum types keyed by specialized name.
	namedTypes map[string]types.Type

	// Registered traits keyed by name.
	traits map[string]*TraitInfo

	// Registered impls: type repr -> trait name -> impl.  Inherent impls are
	// keyed by the empty trait name.
	impls map[string]map[string]*ImplInfo

	// Non-generic struct and enum definitions awaiting lazy resolution,
	// keyed by name.
	typeDefs map[string]*typeDefEntry

	// The names of the type definitions currently being resolved.  A name
	// re-entered while resolving denotes an infinite type.
	resolving map[string]bool

	// Generic definition templates keyed by name.
	templates map[string]*Template

	// The signatures of functions that exist outside any symbol table: impl
	// methods and monomorphized specializations, keyed by mangled name.
	funcSigs map[string]*types.FuncType

	// The specialized instance names already produced, preventing duplicate
	// monomorphization of the same substitution.
	produced map[string]bool

	// The function instances to lower, in production order.  This includes
	// ordinary functions, impl methods, and monomorphized specializations:
	// nothing in this list retains a type parameter.
	Instances []*FuncInstance
}

// TraitInfo is a registered trait definition.
type TraitInfo struct {
	Name string
	Def  *ast.TraitDef
	Mod  *depm.Module
}

// ImplInfo is a registered impl block.
type ImplInfo struct {
	// The implemented trait's name, empty for inherent impls.
	Trait string

	// The repr of the type the impl applies to.
	TypeRepr string

	// The impl's methods by declared name.
	Methods map[string]*ast.FuncDef

	Mod *depm.Module
}

// typeDefEntry records where a struct or enum definition came from so it can
// be resolved lazily on first reference.
type typeDefEntry struct {
	def  ast.Def
	mod  *depm.Module
	file *depm.SourceFile
}

// Template is a generic definition awaiting specialization.
type Template struct {
	Name string
	Def  ast.Def
	Mod  *depm.Module
	File *depm.SourceFile
}

// FuncInstance is a single concrete function to lower: its fully specialized
// name, its definition, and where it came from.
type FuncInstance struct {
	Mod  *depm.Module
	File *depm.SourceFile
	Name string
	Def  *ast.FuncDef
}

// NewEnv creates a new empty environment.
func NewEnv() *Env {
	return &Env{
		namedTypes: make(map[string]types.Type),
		traits:     make(map[string]*TraitInfo),
		impls:      make(map[string]map[string]*ImplInfo),
		typeDefs:   make(map[string]*typeDefEntry),
		resolving:  make(map[string]bool),
		templates:  make(map[string]*Template),
		funcSigs:   make(map[string]*types.FuncType),
		produced:   make(map[string]bool),
	}
}

// addInstance appends a concrete function instance for lowering.
func (env *Env) addInstance(mod *depm.Module, file *depm.SourceFile, name string, def *ast.FuncDef) {
	env.Instances = append(env.Instances, &FuncInstance{Mod: mod, File: file, Name: name, Def: def})
}

// SignatureOf returns the checked signature of a function instance.  Impl
// methods and specializations live in the mangled signature table; ordinary
// functions carry their type on their module symbol.
func (env *Env) SignatureOf(inst *FuncInstance) (*types.FuncType, bool) {
	if sig, ok := env.funcSigs[inst.Name]; ok {
		return sig, true
	}

	if sym, ok := inst.Mod.SymTable.Lookup(inst.Name); ok {
		if sig, ok := sym.Type.(*types.FuncType); ok {
			return sig, true
		}
	}

	return nil, false
}

// implsFor returns the impl table of a type repr, creating it on first use.
func (env *Env) implsFor(typeRepr string) map[string]*ImplInfo {
	table, ok := env.impls[typeRepr]
	if !ok {
		table = make(map[string]*ImplInfo)
		env.impls[typeRepr] = table
	}

	return table
}

// implements returns whether the named type implements the named trait.
func (env *Env) implements(typeRepr, trait string) bool {
	_, ok := env.impls[typeRepr][trait]
	return ok
}
