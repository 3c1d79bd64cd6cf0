package walk

import (
	"daisyc/depm"
	"daisyc/report"
	"daisyc/types"
)

// Walker is responsible for walking source files and performing semantic
// analysis on their definitions.
type Walker struct {
	// The environment shared by all walkers of a compilation.
	env *Env

	// The module whose definitions are being walked.
	mod *depm.Module

	// The source file being walked.
	file *depm.SourceFile

	// The stack of local scopes used to look up local bindings.
	localScopes []map[string]*Local

	// The return type of the enclosing function.  If this is nil, there is no
	// enclosing function: return statements are not valid.
	enclosingReturnType types.Type

	// The number of loops enclosing the current statement within the
	// outermost function block.
	loopDepth int

	// The type `Self` refers to while walking impl methods, nil outside an
	// impl block.
	selfType types.Type

	// The substitution of generic parameter names in effect while walking a
	// specialized template body, nil outside template instantiation.
	subs map[string]types.Type
}

// Local is a local binding visible in some scope of a function body.
type Local struct {
	Name    string
	Type    types.Type
	DefSpan *report.TextSpan
}

// WalkProgram semantically analyzes a resolved module graph rooted at the
// given module.  Dependencies are walked before their dependents so imported
// symbols carry their types by the time they are referenced.
func WalkProgram(root *depm.Module) *Env {
	env := NewEnv()
	walkModuleGraph(env, root, make(map[uint64]bool))
	return env
}

func walkModuleGraph(env *Env, mod *depm.Module, visited map[uint64]bool) {
	if visited[mod.ID] {
		return
	}
	visited[mod.ID] = true

	for _, dep := range mod.Deps {
		walkModuleGraph(env, dep, visited)
	}

	WalkModule(env, mod)
}

// WalkModule semantically analyzes a single module in three phases: type and
// trait definitions are registered first, then function and impl signatures,
// and finally every function body is checked.  The phase split lets bodies and
// signatures refer to definitions that appear later in the module.
func WalkModule(env *Env, mod *depm.Module) {
	for _, file := range mod.Files {
		w := &Walker{env: env, mod: mod, file: file}
		w.registerDefs()
	}

	for _, file := range mod.Files {
		w := &Walker{env: env, mod: mod, file: file}
		w.registerSignatures()
	}

	for _, file := range mod.Files {
		w := &Walker{env: env, mod: mod, file: file}
		w.walkDefs()
	}
}

// -----------------------------------------------------------------------------

// lookup looks up a binding by name in all visible scopes: local scopes
// innermost first, then the module's symbol table, then symbols pulled in by
// use declarations.  The returned type is the binding's value type.
func (w *Walker) lookup(name string, span *report.TextSpan) types.Type {
	for i := len(w.localScopes) - 1; i > -1; i-- {
		if local, ok := w.localScopes[i][name]; ok {
			return local.Type
		}
	}

	if sym, ok := w.mod.SymTable.Lookup(name); ok {
		return w.symbolValueType(sym, span)
	}

	if sym, ok := w.file.Visible[name]; ok {
		return w.symbolValueType(sym, span)
	}

	if sig, ok := builtinSigs[name]; ok {
		return sig
	}

	w.error(span, report.KindUnknownSymbol, "undefined symbol: `%s`", name)
	return nil
}

// lookupLocal looks up a local binding only, without falling back to module
// scope.
func (w *Walker) lookupLocal(name string) (*Local, bool) {
	for i := len(w.localScopes) - 1; i > -1; i-- {
		if local, ok := w.localScopes[i][name]; ok {
			return local, true
		}
	}

	return nil, false
}

// symbolValueType produces the value type of a top level symbol, raising an
// error for symbols that are not usable as values without specialization.
func (w *Walker) symbolValueType(sym *depm.Symbol, span *report.TextSpan) types.Type {
	if sym.IsGeneric() {
		w.error(span, report.KindGenericArityMismatch,
			"generic symbol `%s` requires type arguments", sym.Name)
	}

	if sym.Type == nil {
		w.error(span, report.KindUnknownSymbol,
			"symbol `%s` is not usable as a value", sym.Name)
	}

	return sym.Type
}

// defineLocal defines a local binding in the current local scope, shadowing
// any binding of the same name in outer scopes.
func (w *Walker) defineLocal(local *Local) {
	w.localScopes[len(w.localScopes)-1][local.Name] = local
}

// pushScope pushes a new local scope onto the scope stack.
func (w *Walker) pushScope() {
	w.localScopes = append(w.localScopes, make(map[string]*Local))
}

// popScope removes the top local scope from the scope stack.
func (w *Walker) popScope() {
	w.localScopes = w.localScopes[:len(w.localScopes)-1]
}

// -----------------------------------------------------------------------------

// error reports an error on the given span that aborts walking of the current
// definition.
func (w *Walker) error(span *report.TextSpan, kind int, msg string, args ...interface{}) {
	panic(report.Raise(kind, span, msg, args...))
}

// mustEqual raises a type mismatch unless the two types are equal.
func (w *Walker) mustEqual(expected, actual types.Type, span *report.TextSpan) {
	if !types.Equals(expected, actual) {
		w.error(span, report.KindTypeMismatch,
			"expected type `%s`, found `%s`", reprOf(expected), reprOf(actual))
	}
}

// reprOf renders a possibly-unit type for diagnostics.
func reprOf(typ types.Type) string {
	if typ == nil {
		return "nothing"
	}

	return typ.Repr()
}
