package walk

import (
	"daisyc/ast"
	"daisyc/report"
	"daisyc/types"
)

// registerDefs is the first walk phase: it registers struct, enum, and trait
// definitions together with generic templates so later phases can reference
// them regardless of declaration order.
func (w *Walker) registerDefs() {
	for _, def := range w.file.Root.Defs {
		w.registerDef(def)
	}
}

func (w *Walker) registerDef(def ast.Def) {
	defer report.CatchErrors(w.file.AbsPath, w.file.ReprPath)

	switch v := def.(type) {
	case *ast.StructDef:
		w.registerTypeDef(v, v.Name, v.TypeParams)
	case *ast.EnumDef:
		w.registerTypeDef(v, v.Name, v.TypeParams)
	case *ast.TraitDef:
		if _, ok := w.env.traits[v.Name]; ok {
			w.error(v.Span(), report.KindSyntaxError,
				"multiple definitions of trait `%s`", v.Name)
		}

		w.env.traits[v.Name] = &TraitInfo{Name: v.Name, Def: v, Mod: w.mod}
	case *ast.FuncDef:
		if len(v.TypeParams) > 0 {
			if _, ok := w.env.templates[v.Name]; ok {
				w.error(v.Span(), report.KindSyntaxError,
					"multiple definitions of generic function `%s`", v.Name)
			}

			w.env.templates[v.Name] = &Template{Name: v.Name, Def: v, Mod: w.mod, File: w.file}
		}
	}
}

// registerTypeDef registers a struct or enum definition: generic definitions
// become templates, non-generic ones await lazy resolution.
func (w *Walker) registerTypeDef(def ast.Def, name string, typeParams []*ast.TypeParam) {
	if isReservedTypeName(name) {
		w.error(def.Span(), report.KindSyntaxError,
			"`%s` redefines a predeclared type", name)
	}

	if len(typeParams) > 0 {
		if _, ok := w.env.templates[name]; ok {
			w.error(def.Span(), report.KindSyntaxError,
				"multiple definitions of type `%s`", name)
		}

		w.env.templates[name] = &Template{Name: name, Def: def, Mod: w.mod, File: w.file}
		return
	}

	if _, ok := w.env.typeDefs[name]; ok {
		w.error(def.Span(), report.KindSyntaxError,
			"multiple definitions of type `%s`", name)
	}

	w.env.typeDefs[name] = &typeDefEntry{def: def, mod: w.mod, file: w.file}
}

// isReservedTypeName returns whether a name belongs to a predeclared type.
func isReservedTypeName(name string) bool {
	switch name {
	case "nothing", "unit", "int", "bool", "string", "buffer", "tensor",
		"channel", "view", "vec", "Self", "Result", "Option":
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// registerSignatures is the second walk phase: it resolves function and
// extern signatures onto their symbols and registers impl blocks, so bodies
// checked in the third phase can call in any order.
func (w *Walker) registerSignatures() {
	for _, def := range w.file.Root.Defs {
		w.registerSignature(def)
	}
}

func (w *Walker) registerSignature(def ast.Def) {
	defer report.CatchErrors(w.file.AbsPath, w.file.ReprPath)

	switch v := def.(type) {
	case *ast.FuncDef:
		if len(v.TypeParams) > 0 {
			return
		}

		w.bindSymbolType(v.Name, w.funcTypeOf(v.Params, v.ReturnType))
	case *ast.ExternDef:
		w.bindSymbolType(v.Name, w.funcTypeOf(v.Params, v.ReturnType))
	case *ast.ImplDef:
		w.registerImpl(v)
	}
}

// bindSymbolType fills in the resolved type of a module level symbol.
func (w *Walker) bindSymbolType(name string, typ types.Type) {
	if sym, ok := w.mod.SymTable.Lookup(name); ok {
		sym.Type = typ
	}
}

// funcTypeOf resolves a declared signature into a function type.
func (w *Walker) funcTypeOf(params []*ast.Param, ret *ast.TypeRef) *types.FuncType {
	paramTypes := make([]types.Type, len(params))
	for i, p := range params {
		paramTypes[i] = w.resolveTypeRef(p.Type)
	}

	return &types.FuncType{ParamTypes: paramTypes, ReturnType: w.resolveTypeRef(ret)}
}

// registerImpl registers an impl block: its methods become callable under
// their mangled names, and trait impls are checked for conformance.
func (w *Walker) registerImpl(impl *ast.ImplDef) {
	forType := w.resolveTypeRef(impl.ForType)
	typeRepr := forType.Repr()

	var trait *TraitInfo
	if impl.TraitName != "" {
		var ok bool
		if trait, ok = w.env.traits[impl.TraitName]; !ok {
			w.error(impl.Span(), report.KindUnknownSymbol,
				"undefined trait: `%s`", impl.TraitName)
		}
	}

	table := w.env.implsFor(typeRepr)
	if _, ok := table[impl.TraitName]; ok {
		if impl.TraitName == "" {
			w.error(impl.Span(), report.KindAmbiguousImpl,
				"conflicting inherent impls for type `%s`", typeRepr)
		}

		w.error(impl.Span(), report.KindAmbiguousImpl,
			"conflicting impls of trait `%s` for type `%s`", impl.TraitName, typeRepr)
	}

	info := &ImplInfo{
		Trait:    impl.TraitName,
		TypeRepr: typeRepr,
		Methods:  make(map[string]*ast.FuncDef),
		Mod:      w.mod,
	}

	iw := &Walker{env: w.env, mod: w.mod, file: w.file, selfType: forType}
	for _, method := range impl.Methods {
		if _, ok := info.Methods[method.Name]; ok {
			w.error(method.Span(), report.KindSyntaxError,
				"multiple definitions of method `%s`", method.Name)
		}

		info.Methods[method.Name] = method
		w.env.funcSigs[implMethodName(typeRepr, impl.TraitName, method.Name)] =
			iw.funcTypeOf(method.Params, method.ReturnType)
	}

	if trait != nil {
		iw.checkTraitConformance(impl, trait, info)
	}

	table[impl.TraitName] = info
}

// checkTraitConformance verifies that an impl provides every method the trait
// requires with a matching signature.  `Self` in the trait's signatures stands
// for the implementing type.
func (w *Walker) checkTraitConformance(impl *ast.ImplDef, trait *TraitInfo, info *ImplInfo) {
	for _, required := range trait.Def.Methods {
		method, ok := info.Methods[required.Name]
		if !ok {
			w.error(impl.Span(), report.KindUnknownSymbol,
				"impl of trait `%s` for `%s` is missing method `%s`",
				trait.Name, info.TypeRepr, required.Name)
		}

		want := w.funcTypeOf(required.Params, required.ReturnType)
		got := w.funcTypeOf(method.Params, method.ReturnType)
		if !types.Equals(want, got) {
			w.error(method.Span(), report.KindTypeMismatch,
				"method `%s` has type `%s`, trait `%s` requires `%s`",
				required.Name, got.Repr(), trait.Name, want.Repr())
		}
	}
}

// implMethodName mangles an impl method into its program wide function name.
func implMethodName(typeRepr, trait, method string) string {
	if trait == "" {
		return typeRepr + "__" + method
	}

	return typeRepr + "__" + trait + "__" + method
}

// -----------------------------------------------------------------------------

// walkDefs is the third walk phase: every non-generic function and impl
// method body is checked and queued for lowering.
func (w *Walker) walkDefs() {
	for _, def := range w.file.Root.Defs {
		w.walkDef(def)
	}
}

// walkDef checks one definition, trapping any compile error raised while
// walking it so later definitions are still checked.
func (w *Walker) walkDef(def ast.Def) {
	defer report.CatchErrors(w.file.AbsPath, w.file.ReprPath)
	defer func() {
		w.localScopes = nil
		w.enclosingReturnType = nil
		w.loopDepth = 0
		w.selfType = nil
	}()

	switch v := def.(type) {
	case *ast.FuncDef:
		if len(v.TypeParams) > 0 {
			return
		}

		w.walkFuncBody(v.Params, v.ReturnType, v.Body)
		w.env.addInstance(w.mod, w.file, v.Name, v)
	case *ast.ImplDef:
		forType := w.resolveTypeRef(v.ForType)
		for _, method := range v.Methods {
			w.selfType = forType
			w.walkFuncBody(method.Params, method.ReturnType, method.Body)
			w.env.addInstance(w.mod, w.file, implMethodName(forType.Repr(), v.TraitName, method.Name), method)
		}
	}
}

// walkFuncBody checks a function body against its declared signature.
func (w *Walker) walkFuncBody(params []*ast.Param, ret *ast.TypeRef, body []ast.Stmt) {
	w.pushScope()
	defer w.popScope()

	for _, p := range params {
		w.defineLocal(&Local{Name: p.Name, Type: w.resolveTypeRef(p.Type), DefSpan: p.Span()})
	}

	w.enclosingReturnType = w.resolveTypeRef(ret)
	w.walkStmts(body)
}
