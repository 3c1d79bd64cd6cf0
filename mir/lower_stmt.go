package mir

import (
	"daisyc/ast"
	"daisyc/syntax"
)

func (l *lowerer) lowerStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		l.lowerStmt(stmt)
	}
}

// lowerBody lowers a nested block in a fresh releasing scope.
func (l *lowerer) lowerBody(stmts []ast.Stmt) {
	l.pushScope(true)
	l.lowerStmts(stmts)
	l.popScope()
}

func (l *lowerer) lowerStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		l.lowerBind(v.Name, v.Init)
	case *ast.Assign:
		l.lowerBind(v.Name, v.Value)
	case *ast.AddAssign:
		val := l.lowerExpr(v.Value)
		typ, _ := l.lookup(v.Name)
		l.emit(&Instr{Op: OpAdd, Result: v.Name, Type: typ, Args: []string{v.Name, val}})
	case *ast.IfStmt:
		l.lowerIf(v)
	case *ast.RepeatStmt:
		l.lowerRepeat(v)
	case *ast.WhileStmt:
		l.lowerWhile(v)
	case *ast.MatchStmt:
		l.lowerMatch(v)
	case *ast.PrintStmt:
		val := l.lowerExpr(v.Value)
		l.emit(&Instr{Op: OpPrint, Args: []string{val}})
	case *ast.ReturnStmt:
		if v.Value == nil {
			l.emit(&Instr{Op: OpRet})
			return
		}

		val := l.lowerExpr(v.Value)
		l.emit(&Instr{Op: OpRet, Args: []string{val}})
	case *ast.KeywordStmt:
		if len(l.loops) == 0 {
			return
		}

		target := l.loops[len(l.loops)-1]
		if v.Kind == syntax.TOK_BREAK {
			l.emit(&Instr{Op: OpBr, Args: []string{target.brk}})
		} else {
			l.emit(&Instr{Op: OpBr, Args: []string{target.cont}})
		}
	case *ast.ReleaseStmt:
		val := l.lowerExpr(v.Target)
		l.emit(&Instr{Op: OpBufferRelease, Args: []string{val}, Unchecked: l.unsafes > 0})
	case *ast.UnsafeBlock:
		span := v.Span()
		l.m.Unsafes = append(l.m.Unsafes, UnsafeNote{
			Line:   span.StartLine,
			Col:    span.StartCol,
			Reason: v.Reason,
		})

		l.unsafes++
		l.lowerBody(v.Body)
		l.unsafes--
	case *ast.ExprStmt:
		l.lowerExpr(v.Expr)
	}
}

// lowerBind lowers a set or let statement into an assignment to a named slot,
// defining the slot on first binding.
func (l *lowerer) lowerBind(name string, value ast.Expr) {
	val := l.lowerExpr(value)

	typ, ok := l.lookup(name)
	if !ok {
		typ = value.Type()
		l.define(name, typ)
	}

	l.emit(&Instr{Op: OpAssign, Result: name, Type: typ, Args: []string{val}})
}

// -----------------------------------------------------------------------------

// lowerIf lowers an if chain into a cascade of conditional branches meeting
// at a single join block.
func (l *lowerer) lowerIf(stmt *ast.IfStmt) {
	join := l.newBlock()

	for i, branch := range stmt.Branches {
		cond := l.lowerExpr(branch.Cond)

		last := i == len(stmt.Branches)-1
		body := l.newBlock()

		var next *Block
		if last && stmt.ElseBody == nil {
			next = join
		} else {
			next = l.newBlock()
		}

		l.emit(&Instr{Op: OpCbr, Args: []string{cond, body.Label, next.Label}})

		l.setBlock(body)
		l.lowerBody(branch.Body)
		l.emit(&Instr{Op: OpBr, Args: []string{join.Label}})

		if next != join {
			l.setBlock(next)
		}
	}

	if stmt.ElseBody != nil {
		l.lowerBody(stmt.ElseBody)
		l.emit(&Instr{Op: OpBr, Args: []string{join.Label}})
	}

	l.setBlock(join)
}

// lowerRepeat lowers a bounded repeat into a counted loop.  The bound is
// evaluated once; a non-positive bound never enters the body.
func (l *lowerer) lowerRepeat(stmt *ast.RepeatStmt) {
	bound := l.lowerExpr(stmt.Count)

	counter := l.hiddenSlot("rep")
	zero := l.newTemp()
	l.emit(&Instr{Op: OpConst, Result: zero, Type: intType, Args: []string{"0"}})
	l.emit(&Instr{Op: OpAssign, Result: counter, Type: intType, Args: []string{zero}})

	head := l.newBlock()
	body := l.newBlock()
	latch := l.newBlock()
	exit := l.newBlock()

	l.emit(&Instr{Op: OpBr, Args: []string{head.Label}})

	l.setBlock(head)
	cond := l.newTemp()
	l.emit(&Instr{Op: OpLt, Result: cond, Type: boolType, Args: []string{counter, bound}})
	l.emit(&Instr{Op: OpCbr, Args: []string{cond, body.Label, exit.Label}})

	l.setBlock(body)
	l.loops = append(l.loops, loopTarget{cont: latch.Label, brk: exit.Label})
	l.lowerBody(stmt.Body)
	l.loops = l.loops[:len(l.loops)-1]
	l.emit(&Instr{Op: OpBr, Args: []string{latch.Label}})

	l.setBlock(latch)
	one := l.newTemp()
	l.emit(&Instr{Op: OpConst, Result: one, Type: intType, Args: []string{"1"}})
	l.emit(&Instr{Op: OpAdd, Result: counter, Type: intType, Args: []string{counter, one}})
	l.emit(&Instr{Op: OpBr, Args: []string{head.Label}})

	l.setBlock(exit)
}

// lowerWhile lowers a while loop, re-evaluating the condition in the header
// block on every iteration.
func (l *lowerer) lowerWhile(stmt *ast.WhileStmt) {
	head := l.newBlock()
	l.emit(&Instr{Op: OpBr, Args: []string{head.Label}})

	l.setBlock(head)
	cond := l.lowerExpr(stmt.Cond)

	body := l.newBlock()
	exit := l.newBlock()
	l.emit(&Instr{Op: OpCbr, Args: []string{cond, body.Label, exit.Label}})

	l.setBlock(body)
	l.loops = append(l.loops, loopTarget{cont: head.Label, brk: exit.Label})
	l.lowerBody(stmt.Body)
	l.loops = l.loops[:len(l.loops)-1]
	l.emit(&Instr{Op: OpBr, Args: []string{head.Label}})

	l.setBlock(exit)
}

// -----------------------------------------------------------------------------

// lowerMatch lowers a match statement into a chain of arm tests.  Each arm
// gets an entry block performing its pattern tests and bindings; a failed
// test or guard falls through to the next arm's test.
func (l *lowerer) lowerMatch(stmt *ast.MatchStmt) {
	scr := l.lowerExpr(stmt.Scrutinee)
	join := l.newBlock()

	for i := range stmt.Arms {
		arm := &stmt.Arms[i]

		entry := l.newBlock()
		var next *Block
		if i == len(stmt.Arms)-1 {
			next = join
		} else {
			next = l.newBlock()
		}

		l.emit(&Instr{Op: OpBr, Args: []string{entry.Label}})
		l.setBlock(entry)

		l.pushScope(true)
		l.lowerPattern(arm.Pattern, scr, stmt.Scrutinee.Type(), next)

		if arm.Guard != nil {
			g := l.lowerExpr(arm.Guard)
			l.branchUnless(g, next)
		}

		l.lowerStmts(arm.Body)
		l.popScope()
		l.emit(&Instr{Op: OpBr, Args: []string{join.Label}})

		if next != join {
			l.setBlock(next)
		}
	}

	l.setBlock(join)
}

// branchUnless continues in a fresh block when the condition holds and jumps
// to the fail block otherwise.
func (l *lowerer) branchUnless(cond string, fail *Block) {
	cont := l.newBlock()
	l.emit(&Instr{Op: OpCbr, Args: []string{cond, cont.Label, fail.Label}})
	l.setBlock(cont)
}
