package walk

import (
	"strings"

	"daisyc/ast"
	"daisyc/report"
	"daisyc/types"
)

// ensureFuncSpecialization monomorphizes a generic function for the concrete
// type arguments encoded in a mangled call name, producing the specialized
// instance exactly once.
func (w *Walker) ensureFuncSpecialization(mangled string, span *report.TextSpan) {
	if w.env.produced[mangled] {
		return
	}

	parts := strings.Split(mangled, "__")
	base := parts[0]

	tmpl, ok := w.env.templates[base]
	if !ok {
		w.error(span, report.KindUnknownSymbol, "undefined symbol: `%s`", base)
	}

	def, ok := tmpl.Def.(*ast.FuncDef)
	if !ok {
		w.error(span, report.KindTypeMismatch, "type `%s` is not callable", base)
	}

	args := make([]types.Type, len(parts)-1)
	for i, part := range parts[1:] {
		args[i] = w.resolveSimpleTypeName(part, span)
	}

	if len(args) != len(def.TypeParams) {
		w.error(span, report.KindGenericArityMismatch,
			"`%s` takes %d type arguments, found %d", base, len(def.TypeParams), len(args))
	}

	subs := make(map[string]types.Type)
	for i, tp := range def.TypeParams {
		w.checkBounds(tp, args[i], span)
		subs[tp.Name] = args[i]
	}

	// Marked before the body is walked so recursive generic calls terminate.
	w.env.produced[mangled] = true

	clone := cloneFuncDef(def, mangled, subs)

	iw := &Walker{env: w.env, mod: tmpl.Mod, file: tmpl.File}
	w.env.funcSigs[mangled] = iw.funcTypeOf(clone.Params, clone.ReturnType)

	// The instantiated body is checked in the template's own file context so
	// errors report against the definition.
	func() {
		defer report.CatchErrors(tmpl.File.AbsPath, tmpl.File.ReprPath)

		iw.walkFuncBody(clone.Params, clone.ReturnType, clone.Body)
		w.env.addInstance(tmpl.Mod, tmpl.File, mangled, clone)
	}()
}

// resolveSimpleTypeName resolves a bare type name segment of a mangled name.
func (w *Walker) resolveSimpleTypeName(name string, span *report.TextSpan) types.Type {
	return w.resolveTypeRef(&ast.TypeRef{ASTBase: ast.NewASTBaseOn(span), Name: name})
}

// typeFromSpecializedName resolves a flat, possibly mangled name into a named
// type.  Unlike resolveTypeRef it reports nothing on a miss: call checking
// uses it to probe whether a callee names a type.
func (w *Walker) typeFromSpecializedName(name string, span *report.TextSpan) (types.Type, bool) {
	if typ, ok := w.env.namedTypes[name]; ok {
		return typ, true
	}

	parts := strings.Split(name, "__")
	base := parts[0]

	if len(parts) == 1 {
		if entry, ok := w.env.typeDefs[base]; ok {
			return w.materializeTypeDef(base, entry, span), true
		}

		return nil, false
	}

	args := make([]types.Type, len(parts)-1)
	for i, part := range parts[1:] {
		args[i] = w.resolveSimpleTypeName(part, span)
	}

	if base == "Result" || base == "Option" {
		ref := &ast.TypeRef{ASTBase: ast.NewASTBaseOn(span), Name: base}
		for _, arg := range args {
			ref.Args = append(ref.Args, typeToRef(arg, span))
		}

		return w.resolvePredeclaredEnum(ref), true
	}

	if tmpl, ok := w.env.templates[base]; ok && templateTypeParams(tmpl.Def) != nil {
		return w.specializeTypeTemplate(tmpl, args, span), true
	}

	return nil, false
}
