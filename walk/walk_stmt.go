package walk

import (
	"daisyc/ast"
	"daisyc/report"
	"daisyc/syntax"
	"daisyc/types"
)

// walkStmts checks a statement list in the current scope.
func (w *Walker) walkStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		w.walkStmt(stmt)
	}
}

// walkBody checks a nested statement block in a fresh scope.
func (w *Walker) walkBody(stmts []ast.Stmt) {
	w.pushScope()
	defer w.popScope()

	w.walkStmts(stmts)
}

func (w *Walker) walkStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		w.walkVarDecl(v)
	case *ast.Assign:
		w.walkAssign(v)
	case *ast.AddAssign:
		w.walkAddAssign(v)
	case *ast.IfStmt:
		for _, branch := range v.Branches {
			w.checkExpr(branch.Cond, types.PrimTypeBool)
			w.walkBody(branch.Body)
		}

		if v.ElseBody != nil {
			w.walkBody(v.ElseBody)
		}
	case *ast.RepeatStmt:
		w.checkExpr(v.Count, types.PrimTypeInt)
		w.walkLoopBody(v.Body)
	case *ast.WhileStmt:
		w.checkExpr(v.Cond, types.PrimTypeBool)
		w.walkLoopBody(v.Body)
	case *ast.MatchStmt:
		w.walkMatch(v)
	case *ast.PrintStmt:
		typ := w.checkExpr(v.Value, nil)
		if !types.Equals(typ, types.PrimTypeInt) && !types.Equals(typ, types.PrimTypeString) {
			w.error(v.Value.Span(), report.KindTypeMismatch,
				"print takes an `int` or `string`, found `%s`", reprOf(typ))
		}
	case *ast.ReturnStmt:
		w.walkReturn(v)
	case *ast.KeywordStmt:
		if w.loopDepth == 0 {
			switch v.Kind {
			case syntax.TOK_BREAK:
				w.error(v.Span(), report.KindSyntaxError, "`break` outside of a loop")
			case syntax.TOK_CONTINUE:
				w.error(v.Span(), report.KindSyntaxError, "`continue` outside of a loop")
			}
		}
	case *ast.ReleaseStmt:
		w.checkExpr(v.Target, types.PrimTypeBuffer)
	case *ast.UnsafeBlock:
		w.walkBody(v.Body)
	case *ast.ExprStmt:
		w.checkExpr(v.Expr, nil)
	}
}

// walkLoopBody checks a loop body with the loop depth raised for the
// duration.
func (w *Walker) walkLoopBody(body []ast.Stmt) {
	w.loopDepth++
	defer func() { w.loopDepth-- }()

	w.walkBody(body)
}

// walkVarDecl checks a let declaration and introduces its binding.
func (w *Walker) walkVarDecl(decl *ast.VarDecl) {
	var declared types.Type
	if decl.Type != nil {
		declared = w.resolveTypeRef(decl.Type)
	}

	typ := w.checkExpr(decl.Init, declared)
	if declared != nil {
		typ = declared
	}

	if types.IsUnit(typ) {
		w.error(decl.Init.Span(), report.KindTypeMismatch,
			"cannot bind a value of type `nothing`")
	}

	w.defineLocal(&Local{Name: decl.Name, Type: typ, DefSpan: decl.Span()})
}

// walkAssign checks a set statement.  A set rebinds an existing local at its
// type and introduces a fresh binding otherwise.
func (w *Walker) walkAssign(assign *ast.Assign) {
	if local, ok := w.lookupLocal(assign.Name); ok {
		w.checkExpr(assign.Value, local.Type)
		return
	}

	typ := w.checkExpr(assign.Value, nil)
	if types.IsUnit(typ) {
		w.error(assign.Value.Span(), report.KindTypeMismatch,
			"cannot bind a value of type `nothing`")
	}

	w.defineLocal(&Local{Name: assign.Name, Type: typ, DefSpan: assign.Span()})
}

// walkAddAssign checks an add-to statement.  Only integer accumulation is
// supported.
func (w *Walker) walkAddAssign(aa *ast.AddAssign) {
	local, ok := w.lookupLocal(aa.Name)
	if !ok {
		w.error(aa.Span(), report.KindUnknownSymbol, "undefined symbol: `%s`", aa.Name)
	}

	if !types.Equals(local.Type, types.PrimTypeInt) {
		w.error(aa.Span(), report.KindTypeMismatch,
			"cannot add to a binding of type `%s`", local.Type.Repr())
	}

	w.checkExpr(aa.Value, types.PrimTypeInt)
}

// walkReturn checks a return statement against the enclosing return type.
func (w *Walker) walkReturn(ret *ast.ReturnStmt) {
	if w.enclosingReturnType == nil {
		w.error(ret.Span(), report.KindSyntaxError, "`return` outside of a function")
	}

	if ret.Value == nil {
		if !types.IsUnit(w.enclosingReturnType) {
			w.error(ret.Span(), report.KindTypeMismatch,
				"expected a return value of type `%s`", w.enclosingReturnType.Repr())
		}

		return
	}

	w.checkExpr(ret.Value, w.enclosingReturnType)
}

// walkMatch checks a match statement: the scrutinee, every arm, and the
// exhaustiveness of the unguarded patterns.
func (w *Walker) walkMatch(match *ast.MatchStmt) {
	scrutType := w.checkExpr(match.Scrutinee, nil)

	for i := range match.Arms {
		arm := &match.Arms[i]

		w.pushScope()
		w.walkPattern(arm.Pattern, scrutType)

		if arm.Guard != nil {
			w.checkExpr(arm.Guard, types.PrimTypeBool)
		}

		w.walkStmts(arm.Body)
		w.popScope()
	}

	w.checkExhaustive(match, scrutType)
}
