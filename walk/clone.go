package walk

import (
	"strings"

	"daisyc/ast"
	"daisyc/types"
)

// cloneFuncDef instantiates a generic function template: the signature and
// body are deeply cloned with every reference to a type parameter replaced by
// its bound concrete type, and the clone carries the specialized name.
func cloneFuncDef(def *ast.FuncDef, name string, subs map[string]types.Type) *ast.FuncDef {
	c := &cloner{subs: subs}

	params := make([]*ast.Param, len(def.Params))
	for i, p := range def.Params {
		params[i] = &ast.Param{ASTBase: p.ASTBase, Name: p.Name, Type: c.typeRef(p.Type)}
	}

	return &ast.FuncDef{
		ASTBase:    def.ASTBase,
		Name:       name,
		Public:     def.Public,
		Params:     params,
		ReturnType: c.typeRef(def.ReturnType),
		Body:       c.stmts(def.Body),
	}
}

// cloner rebuilds AST subtrees while substituting generic parameter names.
type cloner struct {
	subs map[string]types.Type
}

// typeRef clones a type reference, replacing parameter names by references to
// their bound types.
func (c *cloner) typeRef(ref *ast.TypeRef) *ast.TypeRef {
	if ref == nil {
		return nil
	}

	if bound, ok := c.subs[ref.Name]; ok && len(ref.Args) == 0 {
		return typeToRef(bound, ref.Span())
	}

	args := make([]*ast.TypeRef, len(ref.Args))
	for i, arg := range ref.Args {
		args[i] = c.typeRef(arg)
	}

	return &ast.TypeRef{ASTBase: ref.ASTBase, Name: ref.Name, Args: args}
}

// mangle substitutes parameter names inside the specialization segments of a
// mangled callee name: `helper__T` becomes `helper__int` under T=int.
func (c *cloner) mangle(name string) string {
	if !strings.Contains(name, "__") {
		return name
	}

	parts := strings.Split(name, "__")
	for i := 1; i < len(parts); i++ {
		if bound, ok := c.subs[parts[i]]; ok {
			parts[i] = bound.Repr()
		}
	}

	return strings.Join(parts, "__")
}

func (c *cloner) stmts(stmts []ast.Stmt) []ast.Stmt {
	if stmts == nil {
		return nil
	}

	out := make([]ast.Stmt, len(stmts))
	for i, stmt := range stmts {
		out[i] = c.stmt(stmt)
	}

	return out
}

func (c *cloner) stmt(stmt ast.Stmt) ast.Stmt {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		return &ast.VarDecl{ASTBase: v.ASTBase, Name: v.Name, Type: c.typeRef(v.Type), Init: c.expr(v.Init)}
	case *ast.Assign:
		return &ast.Assign{ASTBase: v.ASTBase, Name: v.Name, Value: c.expr(v.Value)}
	case *ast.AddAssign:
		return &ast.AddAssign{ASTBase: v.ASTBase, Name: v.Name, Value: c.expr(v.Value)}
	case *ast.IfStmt:
		branches := make([]ast.CondBranch, len(v.Branches))
		for i, b := range v.Branches {
			branches[i] = ast.CondBranch{Cond: c.expr(b.Cond), Body: c.stmts(b.Body)}
		}

		return &ast.IfStmt{ASTBase: v.ASTBase, Branches: branches, ElseBody: c.stmts(v.ElseBody)}
	case *ast.RepeatStmt:
		return &ast.RepeatStmt{ASTBase: v.ASTBase, Count: c.expr(v.Count), Body: c.stmts(v.Body)}
	case *ast.WhileStmt:
		return &ast.WhileStmt{ASTBase: v.ASTBase, Cond: c.expr(v.Cond), Body: c.stmts(v.Body)}
	case *ast.MatchStmt:
		arms := make([]ast.MatchArm, len(v.Arms))
		for i, arm := range v.Arms {
			arms[i] = ast.MatchArm{
				Pattern: c.pattern(arm.Pattern),
				Guard:   c.exprOrNil(arm.Guard),
				Body:    c.stmts(arm.Body),
				Pos:     arm.Pos,
			}
		}

		return &ast.MatchStmt{ASTBase: v.ASTBase, Scrutinee: c.expr(v.Scrutinee), Arms: arms}
	case *ast.PrintStmt:
		return &ast.PrintStmt{ASTBase: v.ASTBase, Value: c.expr(v.Value)}
	case *ast.ReturnStmt:
		return &ast.ReturnStmt{ASTBase: v.ASTBase, Value: c.exprOrNil(v.Value)}
	case *ast.KeywordStmt:
		return &ast.KeywordStmt{ASTBase: v.ASTBase, Kind: v.Kind}
	case *ast.ReleaseStmt:
		return &ast.ReleaseStmt{ASTBase: v.ASTBase, Target: c.expr(v.Target)}
	case *ast.UnsafeBlock:
		return &ast.UnsafeBlock{ASTBase: v.ASTBase, Reason: v.Reason, Body: c.stmts(v.Body)}
	case *ast.ExprStmt:
		return &ast.ExprStmt{ASTBase: v.ASTBase, Expr: c.expr(v.Expr)}
	default:
		return stmt
	}
}

func (c *cloner) exprOrNil(expr ast.Expr) ast.Expr {
	if expr == nil {
		return nil
	}

	return c.expr(expr)
}

func (c *cloner) expr(expr ast.Expr) ast.Expr {
	switch v := expr.(type) {
	case *ast.Literal:
		return &ast.Literal{ExprBase: v.ExprBase, Kind: v.Kind, Value: v.Value}
	case *ast.Identifier:
		return &ast.Identifier{ExprBase: v.ExprBase, Name: c.mangle(v.Name)}
	case *ast.Call:
		args := make([]ast.Expr, len(v.Args))
		for i, arg := range v.Args {
			args[i] = c.expr(arg)
		}

		return &ast.Call{ExprBase: v.ExprBase, Func: c.expr(v.Func), Args: args}
	case *ast.Dot:
		return &ast.Dot{ExprBase: v.ExprBase, Root: c.expr(v.Root), FieldName: v.FieldName}
	case *ast.BinaryOp:
		return &ast.BinaryOp{ExprBase: v.ExprBase, OpKind: v.OpKind, Lhs: c.expr(v.Lhs), Rhs: c.expr(v.Rhs)}
	case *ast.LogicalOp:
		return &ast.LogicalOp{ExprBase: v.ExprBase, OpKind: v.OpKind, Lhs: c.expr(v.Lhs), Rhs: c.expr(v.Rhs)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{ExprBase: v.ExprBase, OpKind: v.OpKind, Operand: c.expr(v.Operand)}
	case *ast.TryExpr:
		return &ast.TryExpr{ExprBase: v.ExprBase, Operand: c.expr(v.Operand)}
	case *ast.MoveExpr:
		return &ast.MoveExpr{ExprBase: v.ExprBase, Operand: c.expr(v.Operand)}
	case *ast.CopyExpr:
		return &ast.CopyExpr{ExprBase: v.ExprBase, Operand: c.expr(v.Operand)}
	case *ast.BufferCreate:
		return &ast.BufferCreate{ExprBase: v.ExprBase, Size: c.expr(v.Size)}
	case *ast.BorrowExpr:
		return &ast.BorrowExpr{ExprBase: v.ExprBase, Mutable: v.Mutable, Operand: c.expr(v.Operand)}
	case *ast.BorrowRange:
		return &ast.BorrowRange{
			ExprBase: v.ExprBase,
			Buffer:   c.expr(v.Buffer),
			Start:    c.expr(v.Start),
			End:      c.expr(v.End),
			Mutable:  v.Mutable,
		}
	default:
		return expr
	}
}

func (c *cloner) pattern(pat ast.Pattern) ast.Pattern {
	switch v := pat.(type) {
	case *ast.WildcardPattern:
		return &ast.WildcardPattern{ASTBase: v.ASTBase}
	case *ast.LiteralPattern:
		return &ast.LiteralPattern{ASTBase: v.ASTBase, Kind: v.Kind, Value: v.Value}
	case *ast.BindPattern:
		return &ast.BindPattern{ASTBase: v.ASTBase, Name: v.Name}
	case *ast.EnumPattern:
		elems := make([]ast.Pattern, len(v.Elems))
		for i, elem := range v.Elems {
			elems[i] = c.pattern(elem)
		}

		return &ast.EnumPattern{
			ASTBase:  v.ASTBase,
			EnumName: c.mangle(v.EnumName),
			CaseName: v.CaseName,
			Elems:    elems,
		}
	case *ast.StructPattern:
		fields := make([]ast.PatternField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = ast.PatternField{Name: f.Name, Pattern: c.pattern(f.Pattern)}
		}

		return &ast.StructPattern{ASTBase: v.ASTBase, Name: c.mangle(v.Name), Fields: fields}
	default:
		return pat
	}
}
