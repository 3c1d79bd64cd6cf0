package walk

import (
	"daisyc/ast"
	"daisyc/report"
	"daisyc/types"
)

// resolveTypeRef resolves a syntactic type reference into a semantic type.  A
// nil reference denotes the unit type.
func (w *Walker) resolveTypeRef(ref *ast.TypeRef) types.Type {
	if ref == nil {
		return types.PrimTypeUnit
	}

	if len(ref.Args) == 0 {
		if bound, ok := w.subs[ref.Name]; ok {
			return bound
		}
	}

	switch ref.Name {
	case "nothing", "unit":
		return w.primType(ref, types.PrimTypeUnit)
	case "int":
		return w.primType(ref, types.PrimTypeInt)
	case "bool":
		return w.primType(ref, types.PrimTypeBool)
	case "string":
		return w.primType(ref, types.PrimTypeString)
	case "buffer":
		return w.primType(ref, types.PrimTypeBuffer)
	case "tensor":
		return w.primType(ref, types.PrimTypeTensor)
	case "channel":
		return w.primType(ref, types.PrimTypeChannel)
	case "view":
		return &types.ViewType{}
	case "vec":
		if len(ref.Args) != 1 {
			w.error(ref.Span(), report.KindGenericArityMismatch,
				"`vec` takes exactly one type argument")
		}

		return &types.VectorType{ElemType: w.resolveTypeRef(ref.Args[0])}
	case "Self":
		if w.selfType == nil {
			w.error(ref.Span(), report.KindUnknownSymbol,
				"`Self` is only meaningful inside an impl block")
		}

		return w.selfType
	case "Result", "Option":
		return w.resolvePredeclaredEnum(ref)
	}

	return w.resolveNamed(ref)
}

// primType asserts that a primitive type reference carries no type arguments.
func (w *Walker) primType(ref *ast.TypeRef, typ types.PrimitiveType) types.Type {
	if len(ref.Args) != 0 {
		w.error(ref.Span(), report.KindGenericArityMismatch,
			"type `%s` takes no type arguments", ref.Name)
	}

	return typ
}

// resolvePredeclaredEnum specializes the predeclared Result and Option enums
// on demand, caching each specialization under its mangled name.
func (w *Walker) resolvePredeclaredEnum(ref *ast.TypeRef) types.Type {
	args := w.resolveTypeArgs(ref)

	switch ref.Name {
	case "Result":
		if len(args) != 2 {
			w.error(ref.Span(), report.KindGenericArityMismatch,
				"`Result` takes exactly two type arguments")
		}
	default:
		if len(args) != 1 {
			w.error(ref.Span(), report.KindGenericArityMismatch,
				"`Option` takes exactly one type argument")
		}
	}

	name := types.SpecializeName(ref.Name, args)
	if typ, ok := w.env.namedTypes[name]; ok {
		return typ
	}

	var et *types.EnumType
	if ref.Name == "Result" {
		et = &types.EnumType{
			Name: name,
			Cases: []types.EnumCase{
				{Name: "Ok", Elems: []types.Type{args[0]}},
				{Name: "Err", Elems: []types.Type{args[1]}},
			},
		}
	} else {
		et = &types.EnumType{
			Name: name,
			Cases: []types.EnumCase{
				{Name: "Some", Elems: []types.Type{args[0]}},
				{Name: "None"},
			},
		}
	}

	w.env.namedTypes[name] = et
	return et
}

// resolveTypeArgs resolves the argument list of a type reference.
func (w *Walker) resolveTypeArgs(ref *ast.TypeRef) []types.Type {
	args := make([]types.Type, len(ref.Args))
	for i, arg := range ref.Args {
		args[i] = w.resolveTypeRef(arg)
	}

	return args
}

// resolveNamed resolves a reference to a user defined struct or enum,
// materializing the definition lazily on first reference.
func (w *Walker) resolveNamed(ref *ast.TypeRef) types.Type {
	args := w.resolveTypeArgs(ref)
	name := types.SpecializeName(ref.Name, args)

	if typ, ok := w.env.namedTypes[name]; ok {
		return typ
	}

	if len(args) == 0 {
		if entry, ok := w.env.typeDefs[ref.Name]; ok {
			return w.materializeTypeDef(name, entry, ref.Span())
		}
	}

	if tmpl, ok := w.env.templates[ref.Name]; ok {
		return w.specializeTypeTemplate(tmpl, args, ref.Span())
	}

	w.error(ref.Span(), report.KindUnknownSymbol, "undefined type: `%s`", ref.Name)
	return nil
}

// materializeTypeDef builds the semantic type of a non-generic struct or enum
// definition.  A definition re-entered while it is being resolved contains
// itself and cannot be laid out.
func (w *Walker) materializeTypeDef(name string, entry *typeDefEntry, span *report.TextSpan) types.Type {
	if w.env.resolving[name] {
		w.error(span, report.KindTypeMismatch,
			"type `%s` directly contains itself", name)
	}

	w.env.resolving[name] = true
	defer delete(w.env.resolving, name)

	dw := &Walker{env: w.env, mod: entry.mod, file: entry.file}
	typ := dw.buildNamedType(name, entry.def)

	w.env.namedTypes[name] = typ
	return typ
}

// specializeTypeTemplate specializes a generic struct or enum template with
// concrete type arguments, checking arity and trait bounds.
func (w *Walker) specializeTypeTemplate(tmpl *Template, args []types.Type, span *report.TextSpan) types.Type {
	typeParams := templateTypeParams(tmpl.Def)
	if typeParams == nil {
		w.error(span, report.KindUnknownSymbol, "`%s` is not a type", tmpl.Name)
	}

	if len(typeParams) != len(args) {
		w.error(span, report.KindGenericArityMismatch,
			"`%s` takes %d type arguments, found %d", tmpl.Name, len(typeParams), len(args))
	}

	subs := make(map[string]types.Type)
	for i, tp := range typeParams {
		w.checkBounds(tp, args[i], span)
		subs[tp.Name] = args[i]
	}

	name := types.SpecializeName(tmpl.Name, args)
	if typ, ok := w.env.namedTypes[name]; ok {
		return typ
	}

	if w.env.resolving[name] {
		w.error(span, report.KindTypeMismatch,
			"type `%s` directly contains itself", name)
	}

	w.env.resolving[name] = true
	defer delete(w.env.resolving, name)

	dw := &Walker{env: w.env, mod: tmpl.Mod, file: tmpl.File, subs: subs}
	typ := dw.buildNamedType(name, tmpl.Def)

	w.env.namedTypes[name] = typ
	return typ
}

// templateTypeParams returns the type parameters of a struct or enum template
// definition, nil for definitions that do not name a type.
func templateTypeParams(def ast.Def) []*ast.TypeParam {
	switch v := def.(type) {
	case *ast.StructDef:
		return v.TypeParams
	case *ast.EnumDef:
		return v.TypeParams
	default:
		return nil
	}
}

// buildNamedType constructs the semantic type of a struct or enum definition
// in the walker's current resolution context.
func (w *Walker) buildNamedType(name string, def ast.Def) types.Type {
	switch v := def.(type) {
	case *ast.StructDef:
		st := &types.StructType{
			Name:         name,
			ParentModule: w.mod.Name,
			Indices:      make(map[string]int),
		}

		for i, field := range v.Fields {
			if _, ok := st.Indices[field.Name]; ok {
				w.error(field.Pos.Span(), report.KindSyntaxError,
					"multiple fields named `%s`", field.Name)
			}

			st.Fields = append(st.Fields, types.StructField{
				Name: field.Name,
				Type: w.resolveTypeRef(field.Type),
			})
			st.Indices[field.Name] = i
		}

		return st
	case *ast.EnumDef:
		et := &types.EnumType{Name: name, ParentModule: w.mod.Name}

		for _, c := range v.Cases {
			elems := make([]types.Type, len(c.Elems))
			for i, elem := range c.Elems {
				elems[i] = w.resolveTypeRef(elem)
			}

			et.Cases = append(et.Cases, types.EnumCase{Name: c.Name, Elems: elems})
		}

		return et
	default:
		w.error(def.Span(), report.KindInternalError,
			"definition `%s` does not name a type", name)
		return nil
	}
}

// checkBounds verifies that a concrete type argument satisfies the trait
// bounds of the parameter it is bound to.
func (w *Walker) checkBounds(tp *ast.TypeParam, arg types.Type, span *report.TextSpan) {
	for _, bound := range tp.Bounds {
		if !w.env.implements(arg.Repr(), bound) {
			w.error(span, report.KindUnresolvedTraitBound,
				"type `%s` does not implement trait `%s`", arg.Repr(), bound)
		}
	}
}

// -----------------------------------------------------------------------------

// typeToRef renders a semantic type back into a syntactic reference.  This is
// used when instantiating generic templates: substituted parameter types must
// reappear as references inside the cloned body.
func typeToRef(typ types.Type, span *report.TextSpan) *ast.TypeRef {
	base := ast.NewASTBaseOn(span)

	switch v := typ.(type) {
	case *types.VectorType:
		return &ast.TypeRef{
			ASTBase: base,
			Name:    "vec",
			Args:    []*ast.TypeRef{typeToRef(v.ElemType, span)},
		}
	case *types.ViewType:
		return &ast.TypeRef{ASTBase: base, Name: "view"}
	default:
		return &ast.TypeRef{ASTBase: base, Name: typ.Repr()}
	}
}
