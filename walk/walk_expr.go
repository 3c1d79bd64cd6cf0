package walk

import (
	"strings"

	"daisyc/ast"
	"daisyc/report"
	"daisyc/syntax"
	"daisyc/types"
)

// checkExpr checks an expression, records its type on the node, and verifies
// it against the expected type when one is known.  Passing a nil expected type
// synthesizes the expression's type without constraint.
func (w *Walker) checkExpr(expr ast.Expr, expected types.Type) types.Type {
	typ := w.exprType(expr, expected)
	expr.SetType(typ)

	if expected != nil {
		w.mustCompatible(expected, typ, expr.Span())
	}

	return typ
}

// mustCompatible raises a type mismatch unless the actual type satisfies the
// expected one.  A mutable view satisfies an immutable view expectation.
func (w *Walker) mustCompatible(expected, actual types.Type, span *report.TextSpan) {
	if ev, ok := expected.(*types.ViewType); ok && !ev.Mutable {
		if _, ok := actual.(*types.ViewType); ok {
			return
		}
	}

	w.mustEqual(expected, actual, span)
}

func (w *Walker) exprType(expr ast.Expr, expected types.Type) types.Type {
	switch v := expr.(type) {
	case *ast.Literal:
		return literalType(v.Kind)
	case *ast.Identifier:
		return w.lookup(v.Name, v.Span())
	case *ast.Call:
		return w.checkCall(v, expected)
	case *ast.Dot:
		return w.checkDot(v)
	case *ast.BinaryOp:
		return w.checkBinaryOp(v)
	case *ast.LogicalOp:
		w.checkExpr(v.Lhs, types.PrimTypeBool)
		w.checkExpr(v.Rhs, types.PrimTypeBool)
		return types.PrimTypeBool
	case *ast.UnaryOp:
		if v.OpKind == syntax.TOK_NOT {
			w.checkExpr(v.Operand, types.PrimTypeBool)
			return types.PrimTypeBool
		}

		w.checkExpr(v.Operand, types.PrimTypeInt)
		return types.PrimTypeInt
	case *ast.TryExpr:
		return w.checkTry(v)
	case *ast.MoveExpr:
		return w.checkExpr(v.Operand, nil)
	case *ast.CopyExpr:
		return w.checkExpr(v.Operand, nil)
	case *ast.BufferCreate:
		w.checkExpr(v.Size, types.PrimTypeInt)
		return types.PrimTypeBuffer
	case *ast.BorrowExpr:
		w.checkExpr(v.Operand, types.PrimTypeBuffer)
		return &types.ViewType{Mutable: v.Mutable}
	case *ast.BorrowRange:
		w.checkExpr(v.Buffer, types.PrimTypeBuffer)
		w.checkExpr(v.Start, types.PrimTypeInt)
		w.checkExpr(v.End, types.PrimTypeInt)
		return &types.ViewType{Mutable: v.Mutable}
	default:
		w.error(expr.Span(), report.KindInternalError, "unsupported expression form")
		return nil
	}
}

// literalType maps a literal token kind onto its primitive type.
func literalType(kind int) types.Type {
	switch kind {
	case syntax.TOK_INTLIT:
		return types.PrimTypeInt
	case syntax.TOK_BOOLLIT:
		return types.PrimTypeBool
	default:
		return types.PrimTypeString
	}
}

// checkBinaryOp checks an arithmetic or comparison operator application.
// Arithmetic is integer only; string concatenation goes through `str_concat`.
// Equality applies to ints and bools, ordering to ints.
func (w *Walker) checkBinaryOp(op *ast.BinaryOp) types.Type {
	switch op.OpKind {
	case syntax.TOK_PLUS, syntax.TOK_MINUS, syntax.TOK_STAR, syntax.TOK_DIV:
		w.checkExpr(op.Lhs, types.PrimTypeInt)
		w.checkExpr(op.Rhs, types.PrimTypeInt)
		return types.PrimTypeInt
	case syntax.TOK_EQ, syntax.TOK_NEQ:
		lhs := w.checkExpr(op.Lhs, nil)
		if !types.Equals(lhs, types.PrimTypeInt) && !types.Equals(lhs, types.PrimTypeBool) {
			w.error(op.Lhs.Span(), report.KindTypeMismatch,
				"equality applies to `int` and `bool`, found `%s`", reprOf(lhs))
		}

		w.checkExpr(op.Rhs, lhs)
		return types.PrimTypeBool
	default:
		w.checkExpr(op.Lhs, types.PrimTypeInt)
		w.checkExpr(op.Rhs, types.PrimTypeInt)
		return types.PrimTypeBool
	}
}

// -----------------------------------------------------------------------------

// checkDot checks a member access: a struct field, a module qualified symbol,
// or a bare enum constructor reference.
func (w *Walker) checkDot(dot *ast.Dot) types.Type {
	if root, ok := dot.Root.(*ast.Identifier); ok {
		if _, isLocal := w.lookupLocal(root.Name); !isLocal {
			if imp, ok := w.file.Imports[root.Name]; ok {
				sym, ok := imp.Mod.SymTable.LookupPublic(dot.FieldName)
				if !ok {
					w.error(dot.Span(), report.KindUnknownSymbol,
						"module `%s` has no public symbol `%s`", imp.Mod.Name, dot.FieldName)
				}

				return w.symbolValueType(sym, dot.Span())
			}

			if typ, ok := w.typeFromSpecializedName(root.Name, root.Span()); ok {
				et, isEnum := typ.(*types.EnumType)
				if !isEnum {
					w.error(dot.Span(), report.KindTypeMismatch,
						"type `%s` has no member `%s`", root.Name, dot.FieldName)
				}

				c := w.enumCaseOf(et, dot.FieldName, dot.Span())
				if len(c.Elems) != 0 {
					w.error(dot.Span(), report.KindTypeMismatch,
						"case `%s` of enum `%s` carries a payload", c.Name, et.Name)
				}

				return et
			}
		}
	}

	rootType := w.checkExpr(dot.Root, nil)
	st, ok := rootType.(*types.StructType)
	if !ok {
		w.error(dot.Span(), report.KindTypeMismatch,
			"type `%s` has no fields", reprOf(rootType))
	}

	field, ok := st.GetFieldByName(dot.FieldName)
	if !ok {
		w.error(dot.Span(), report.KindUnknownSymbol,
			"struct `%s` has no field `%s`", st.Name, dot.FieldName)
	}

	return field.Type
}

// -----------------------------------------------------------------------------

// checkCall checks a call expression.  The callee form decides between a
// named call, a qualified or method call, and a call through a value.
func (w *Walker) checkCall(call *ast.Call, expected types.Type) types.Type {
	switch callee := call.Func.(type) {
	case *ast.Identifier:
		return w.checkNamedCall(call, callee, expected)
	case *ast.Dot:
		return w.checkDotCall(call, callee, expected)
	}

	fnType := w.checkExpr(call.Func, nil)
	ft, ok := fnType.(*types.FuncType)
	if !ok {
		w.error(call.Func.Span(), report.KindTypeMismatch,
			"type `%s` is not callable", reprOf(fnType))
	}

	return w.checkArgs(call, ft)
}

// checkNamedCall checks a call whose callee is a bare name: a builtin, a
// local function value, a specialized generic, a struct construction, or a
// module level function.
func (w *Walker) checkNamedCall(call *ast.Call, callee *ast.Identifier, expected types.Type) types.Type {
	name := callee.Name

	if name == "spawn" {
		return w.checkSpawn(call)
	}

	if sig, ok := builtinSigs[name]; ok {
		callee.SetType(sig)
		return w.checkArgs(call, sig)
	}

	if local, ok := w.lookupLocal(name); ok {
		ft, isFn := local.Type.(*types.FuncType)
		if !isFn {
			w.error(callee.Span(), report.KindTypeMismatch,
				"type `%s` is not callable", local.Type.Repr())
		}

		callee.SetType(ft)
		return w.checkArgs(call, ft)
	}

	if canon, ok := canonConstructor(name); ok && !w.nameBound(name) {
		return w.checkCtorCall(call, canon, expected)
	}

	if strings.Contains(name, "__") {
		if _, ok := w.env.funcSigs[name]; !ok {
			if typ, ok := w.typeFromSpecializedName(name, callee.Span()); ok {
				return w.checkConstruct(call, typ)
			}

			w.ensureFuncSpecialization(name, callee.Span())
		}
	}

	if sig, ok := w.env.funcSigs[name]; ok {
		callee.SetType(sig)
		return w.checkArgs(call, sig)
	}

	if typ, ok := w.typeFromSpecializedName(name, callee.Span()); ok {
		return w.checkConstruct(call, typ)
	}

	if _, ok := w.env.templates[name]; ok {
		w.error(callee.Span(), report.KindGenericArityMismatch,
			"generic symbol `%s` requires type arguments", name)
	}

	typ := w.lookup(name, callee.Span())
	ft, ok := typ.(*types.FuncType)
	if !ok {
		w.error(callee.Span(), report.KindTypeMismatch,
			"type `%s` is not callable", reprOf(typ))
	}

	callee.SetType(ft)
	return w.checkArgs(call, ft)
}

// checkDotCall checks a call whose callee is a member access: a module
// qualified function, an enum constructor, or receiver method sugar.
func (w *Walker) checkDotCall(call *ast.Call, dot *ast.Dot, expected types.Type) types.Type {
	if root, ok := dot.Root.(*ast.Identifier); ok {
		if _, isLocal := w.lookupLocal(root.Name); !isLocal {
			if imp, ok := w.file.Imports[root.Name]; ok {
				sym, ok := imp.Mod.SymTable.LookupPublic(dot.FieldName)
				if !ok {
					w.error(dot.Span(), report.KindUnknownSymbol,
						"module `%s` has no public symbol `%s`", imp.Mod.Name, dot.FieldName)
				}

				typ := w.symbolValueType(sym, dot.Span())
				ft, isFn := typ.(*types.FuncType)
				if !isFn {
					w.error(dot.Span(), report.KindTypeMismatch,
						"type `%s` is not callable", reprOf(typ))
				}

				return w.checkArgs(call, ft)
			}

			if typ, ok := w.typeFromSpecializedName(root.Name, root.Span()); ok {
				if et, isEnum := typ.(*types.EnumType); isEnum {
					return w.checkEnumCtor(call, et, dot.FieldName, dot.Span())
				}
			}

			if root.Name == "Result" || root.Name == "Option" {
				if canon, ok := canonConstructor(dot.FieldName); ok {
					return w.checkCtorCall(call, canon, expected)
				}
			}
		}
	}

	recvType := w.checkExpr(dot.Root, nil)
	mangled, sig := w.findMethod(recvType, dot.FieldName, dot.Span())

	// The sugar is resolved by rewriting the call in place: the callee
	// becomes the mangled impl function and the receiver its first argument.
	newCallee := &ast.Identifier{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(dot.Span())),
		Name:     mangled,
	}
	newCallee.SetType(sig)

	call.Func = newCallee
	call.Args = append([]ast.Expr{dot.Root}, call.Args...)

	return w.checkArgs(call, sig)
}

// findMethod resolves a method name against the impls registered for the
// receiver's type.  A name provided by more than one impl is ambiguous.
func (w *Walker) findMethod(recvType types.Type, name string, span *report.TextSpan) (string, *types.FuncType) {
	typeRepr := recvType.Repr()

	var mangled string
	matches := 0
	for trait, info := range w.env.impls[typeRepr] {
		if _, ok := info.Methods[name]; ok {
			mangled = implMethodName(typeRepr, trait, name)
			matches++
		}
	}

	switch matches {
	case 0:
		w.error(span, report.KindUnknownSymbol,
			"type `%s` has no method `%s`", typeRepr, name)
		return "", nil
	case 1:
		return mangled, w.env.funcSigs[mangled]
	default:
		w.error(span, report.KindAmbiguousImpl,
			"method `%s` is provided by multiple impls for type `%s`", name, typeRepr)
		return "", nil
	}
}

// checkArgs checks a call's arguments against a signature and yields the
// return type.
func (w *Walker) checkArgs(call *ast.Call, sig *types.FuncType) types.Type {
	if len(call.Args) != len(sig.ParamTypes) {
		w.error(call.Span(), report.KindTypeMismatch,
			"expected %d arguments, found %d", len(sig.ParamTypes), len(call.Args))
	}

	for i, arg := range call.Args {
		w.checkExpr(arg, sig.ParamTypes[i])
	}

	return sig.ReturnType
}

// checkSpawn checks a spawn call: a function value and an optional channel
// handed to the spawned task.
func (w *Walker) checkSpawn(call *ast.Call) types.Type {
	if len(call.Args) == 0 || len(call.Args) > 2 {
		w.error(call.Span(), report.KindTypeMismatch,
			"spawn takes a function and an optional channel")
	}

	fnType := w.checkExpr(call.Args[0], nil)
	if _, ok := fnType.(*types.FuncType); !ok {
		w.error(call.Args[0].Span(), report.KindTypeMismatch,
			"spawn target must be a function, found `%s`", reprOf(fnType))
	}

	if len(call.Args) == 2 {
		w.checkExpr(call.Args[1], types.PrimTypeChannel)
	}

	return types.PrimTypeUnit
}

// checkConstruct checks a positional struct construction.
func (w *Walker) checkConstruct(call *ast.Call, typ types.Type) types.Type {
	st, ok := typ.(*types.StructType)
	if !ok {
		w.error(call.Span(), report.KindTypeMismatch,
			"type `%s` cannot be constructed positionally", typ.Repr())
	}

	if len(call.Args) != len(st.Fields) {
		w.error(call.Span(), report.KindTypeMismatch,
			"struct `%s` has %d fields, found %d arguments",
			st.Name, len(st.Fields), len(call.Args))
	}

	for i, arg := range call.Args {
		w.checkExpr(arg, st.Fields[i].Type)
	}

	return st
}

// -----------------------------------------------------------------------------

// canonConstructor maps the surface spellings of the predeclared Result and
// Option constructors onto their canonical case names.
func canonConstructor(name string) (string, bool) {
	switch name {
	case "ok", "Ok":
		return "Ok", true
	case "err", "Err":
		return "Err", true
	case "some", "Some":
		return "Some", true
	case "none", "None":
		return "None", true
	default:
		return "", false
	}
}

// nameBound returns whether a name resolves to a module level symbol,
// shadowing the predeclared constructor spellings.
func (w *Walker) nameBound(name string) bool {
	if _, ok := w.mod.SymTable.Lookup(name); ok {
		return true
	}

	_, ok := w.file.Visible[name]
	return ok
}

// checkCtorCall checks a predeclared Result or Option constructor call.  The
// constructed enum's type arguments are inferred from the checking type, or
// failing that from the enclosing return type.
func (w *Walker) checkCtorCall(call *ast.Call, canon string, expected types.Type) types.Type {
	base := "Result"
	if canon == "Some" || canon == "None" {
		base = "Option"
	}

	et := enumTypeWithBase(expected, base)
	if et == nil {
		et = enumTypeWithBase(w.enclosingReturnType, base)
	}

	if et == nil {
		w.error(call.Span(), report.KindTypeMismatch,
			"cannot infer the `%s` type constructed by `%s` here", base, canon)
	}

	return w.checkEnumCtor(call, et, canon, call.Span())
}

// enumTypeWithBase returns the type as an enum if its specialized name stems
// from the given base, nil otherwise.
func enumTypeWithBase(typ types.Type, base string) *types.EnumType {
	if et, ok := typ.(*types.EnumType); ok && baseNameOf(et.Name) == base {
		return et
	}

	return nil
}

// baseNameOf strips the specialization suffix off a mangled type name.
func baseNameOf(name string) string {
	if idx := strings.Index(name, "__"); idx != -1 {
		return name[:idx]
	}

	return name
}

// checkEnumCtor checks an enum constructor application against its payload.
func (w *Walker) checkEnumCtor(call *ast.Call, et *types.EnumType, caseName string, span *report.TextSpan) types.Type {
	c := w.enumCaseOf(et, caseName, span)

	if len(call.Args) != len(c.Elems) {
		w.error(span, report.KindTypeMismatch,
			"case `%s` of enum `%s` takes %d values, found %d",
			c.Name, et.Name, len(c.Elems), len(call.Args))
	}

	for i, arg := range call.Args {
		w.checkExpr(arg, c.Elems[i])
	}

	return et
}

// enumCaseOf looks up an enum case, admitting the surface spellings of the
// predeclared constructors.
func (w *Walker) enumCaseOf(et *types.EnumType, name string, span *report.TextSpan) types.EnumCase {
	if c, _, ok := et.GetCaseByName(name); ok {
		return c
	}

	if canon, ok := canonConstructor(name); ok {
		if c, _, ok := et.GetCaseByName(canon); ok {
			return c
		}
	}

	w.error(span, report.KindUnknownSymbol,
		"enum `%s` has no case `%s`", et.Name, name)
	return types.EnumCase{}
}

// -----------------------------------------------------------------------------

// checkTry checks a try expression: the operand must be a Result or Option
// whose failure branch lifts to the enclosing return type, and the expression
// yields the success payload.
func (w *Walker) checkTry(try *ast.TryExpr) types.Type {
	opType := w.checkExpr(try.Operand, nil)

	et, ok := opType.(*types.EnumType)
	base := ""
	if ok {
		base = baseNameOf(et.Name)
	}

	if base != "Result" && base != "Option" {
		w.error(try.Operand.Span(), report.KindTypeMismatch,
			"`try` requires a `Result` or `Option` operand, found `%s`", reprOf(opType))
	}

	ret, ok := w.enclosingReturnType.(*types.EnumType)
	if !ok || baseNameOf(ret.Name) != base {
		w.error(try.Span(), report.KindTypeMismatch,
			"`try` requires the enclosing function to return a `%s`", base)
	}

	if base == "Result" {
		opErr := et.Cases[1].Elems[0]
		retErr := ret.Cases[1].Elems[0]
		if !types.Equals(opErr, retErr) {
			w.error(try.Span(), report.KindTypeMismatch,
				"`try` requires matching `Result` error types: `%s` vs `%s`",
				opErr.Repr(), retErr.Repr())
		}
	}

	return et.Cases[0].Elems[0]
}
