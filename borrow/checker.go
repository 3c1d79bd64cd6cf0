package borrow

import (
	"strconv"

	"daisyc/ast"
	"daisyc/report"
	"daisyc/syntax"
	"daisyc/types"
	"daisyc/walk"
)

// Checker performs ownership analysis over one checked function: it tracks
// the move state of every local and the set of live borrows per region, and
// rejects use-after-move, aliasing violations, and releases of regions that
// still have live borrows.
type Checker struct {
	frames      []*frame
	unsafeDepth int
}

// CheckProgram runs ownership analysis over every function instance the type
// checker produced.  Analysis is per function: errors in one function do not
// suppress the checking of the others.
func CheckProgram(env *walk.Env) {
	for _, inst := range env.Instances {
		checkInstance(env, inst)
	}
}

func checkInstance(env *walk.Env, inst *walk.FuncInstance) {
	defer report.CatchErrors(inst.File.AbsPath, inst.File.ReprPath)

	sig, ok := env.SignatureOf(inst)
	if !ok {
		return
	}

	c := &Checker{}
	c.pushFrame()
	defer c.popFrame()

	for i, p := range inst.Def.Params {
		c.define(&binding{name: p.Name, typ: sig.ParamTypes[i]})
	}

	c.walkStmts(inst.Def.Body)
}

// -----------------------------------------------------------------------------

func (c *Checker) pushFrame() {
	c.frames = append(c.frames, newFrame())
}

// popFrame ends a lexical scope.  Borrows registered in the scope expire with
// it.
func (c *Checker) popFrame() {
	c.frames = c.frames[:len(c.frames)-1]
}

func (c *Checker) define(b *binding) {
	c.frames[len(c.frames)-1].bindings[b.name] = b
}

func (c *Checker) lookup(name string) (*binding, bool) {
	for i := len(c.frames) - 1; i > -1; i-- {
		if b, ok := c.frames[i].bindings[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// frameOf returns the frame that introduced a binding, falling back to the
// innermost frame.
func (c *Checker) frameOf(name string) *frame {
	for i := len(c.frames) - 1; i > -1; i-- {
		if _, ok := c.frames[i].bindings[name]; ok {
			return c.frames[i]
		}
	}

	return c.frames[len(c.frames)-1]
}

// -----------------------------------------------------------------------------

func (c *Checker) walkStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		c.walkStmt(stmt)
	}
}

// walkBlock checks a nested statement block in a fresh scope.
func (c *Checker) walkBlock(stmts []ast.Stmt) {
	c.pushFrame()
	defer c.popFrame()

	c.walkStmts(stmts)
}

func (c *Checker) walkStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.VarDecl:
		c.bindValue(v.Name, v.Init, v.Span())
	case *ast.Assign:
		c.bindValue(v.Name, v.Value, v.Span())
	case *ast.AddAssign:
		c.checkExpr(v.Value, false)
	case *ast.IfStmt:
		c.walkIf(v)
	case *ast.RepeatStmt:
		c.checkExpr(v.Count, false)
		c.walkBlock(v.Body)
	case *ast.WhileStmt:
		c.checkExpr(v.Cond, false)
		c.walkBlock(v.Body)
	case *ast.MatchStmt:
		c.walkMatch(v)
	case *ast.PrintStmt:
		c.checkExpr(v.Value, false)
	case *ast.ReturnStmt:
		if v.Value != nil {
			c.checkExpr(v.Value, true)
		}
	case *ast.ReleaseStmt:
		c.walkRelease(v)
	case *ast.UnsafeBlock:
		c.unsafeDepth++
		c.walkBlock(v.Body)
		c.unsafeDepth--
	case *ast.ExprStmt:
		c.checkExpr(v.Expr, false)
	}
}

// bindValue checks the right-hand side of a let or set and rebinds the target.
// Reassigning a binding drops the borrows it held and returns it to the owned
// state; binding a borrow registers the new borrow under the target's name.
func (c *Checker) bindValue(name string, value ast.Expr, span *report.TextSpan) {
	c.expireHolder(name)
	c.checkExpr(value, true)

	if b, ok := c.lookup(name); ok {
		b.state = stateOwned
		b.eventSpan = nil
		if value.Type() != nil {
			b.typ = value.Type()
		}
	} else {
		c.define(&binding{name: name, typ: value.Type()})
	}

	if rec, ok := c.borrowOperand(value); ok {
		rec.holder = name
		c.registerBorrow(rec)
	}
}

// walkIf checks the branches of a conditional independently from the state at
// the branch point and joins their exit states: a local moved on any branch is
// moved afterward, and the borrow sets are unioned and rechecked.
func (c *Checker) walkIf(stmt *ast.IfStmt) {
	base := cloneFrames(c.frames)
	var exits [][]*frame

	for _, branch := range stmt.Branches {
		c.frames = cloneFrames(base)
		c.checkExpr(branch.Cond, false)
		c.walkBlock(branch.Body)

		if !terminates(branch.Body) {
			exits = append(exits, c.frames)
		}
	}

	if stmt.ElseBody != nil {
		c.frames = cloneFrames(base)
		c.walkBlock(stmt.ElseBody)

		if !terminates(stmt.ElseBody) {
			exits = append(exits, c.frames)
		}
	} else {
		exits = append(exits, base)
	}

	c.joinExits(base, exits, stmt.Span())
}

func (c *Checker) walkMatch(stmt *ast.MatchStmt) {
	c.checkExpr(stmt.Scrutinee, false)

	base := cloneFrames(c.frames)
	var exits [][]*frame

	for i := range stmt.Arms {
		arm := &stmt.Arms[i]

		c.frames = cloneFrames(base)
		c.pushFrame()
		c.definePatternBindings(arm.Pattern)

		if arm.Guard != nil {
			c.checkExpr(arm.Guard, false)
		}

		c.walkStmts(arm.Body)
		c.popFrame()

		if !terminates(arm.Body) {
			exits = append(exits, c.frames)
		}
	}

	exits = append(exits, base)
	c.joinExits(base, exits, stmt.Span())
}

// joinExits merges branch exit states back into the checker and rechecks the
// unioned borrow sets for aliasing conflicts introduced by the join.
func (c *Checker) joinExits(base []*frame, exits [][]*frame, span *report.TextSpan) {
	if len(exits) == 0 {
		c.frames = base
		return
	}

	c.frames = joinFrames(exits)

	for _, f := range c.frames {
		for i, a := range f.borrows {
			for _, b := range f.borrows[i+1:] {
				if conflicts(a, b) {
					panic(report.Raise(report.KindBorrowAliasConflict, span,
						"%s borrow %s of `%s` conflicts with %s borrow %s after branching",
						a.kindName(), a.describe(), a.owner, b.kindName(), b.describe()).
						WithNote("first borrow here", a.span).
						WithNote("conflicting borrow here", b.span))
				}
			}
		}
	}
}

// definePatternBindings introduces the locals a match pattern binds.  Pattern
// payloads are copies of the scrutinee's fields and start owned.
func (c *Checker) definePatternBindings(pat ast.Pattern) {
	switch v := pat.(type) {
	case *ast.BindPattern:
		c.define(&binding{name: v.Name})
	case *ast.EnumPattern:
		for _, elem := range v.Elems {
			c.definePatternBindings(elem)
		}
	case *ast.StructPattern:
		for _, f := range v.Fields {
			c.definePatternBindings(f.Pattern)
		}
	}
}

// walkRelease enforces the release precondition: the region's borrow set must
// be empty.  Inside unsafe the check is waived, and only this check.  The
// released binding is consumed either way.
func (c *Checker) walkRelease(stmt *ast.ReleaseStmt) {
	c.checkExpr(stmt.Target, false)

	name, ok := identName(stmt.Target)
	if !ok {
		return
	}

	if live := c.borrowsOf(name); len(live) > 0 && c.unsafeDepth == 0 {
		panic(report.Raise(report.KindReleaseWithLiveBorrow, stmt.Span(),
			"cannot release `%s` while %s borrow %s is live",
			name, live[0].kindName(), live[0].describe()).
			WithNote("borrowed here", live[0].span))
	}

	c.dropBorrowsOf(name)

	if b, ok := c.lookup(name); ok {
		b.state = stateConsumed
		b.eventSpan = stmt.Span()
	}
}

// terminates reports whether a block always transfers control away from the
// statement after it.
func terminates(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}

	switch v := stmts[len(stmts)-1].(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.KeywordStmt:
		return v.Kind == syntax.TOK_BREAK || v.Kind == syntax.TOK_CONTINUE
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// borrowsOf collects the live borrows of a region across all open scopes.
func (c *Checker) borrowsOf(owner string) []*borrowRec {
	var out []*borrowRec
	for _, f := range c.frames {
		for _, rec := range f.borrows {
			if rec.owner == owner {
				out = append(out, rec)
			}
		}
	}

	return out
}

// dropBorrowsOf clears every live borrow of a region.
func (c *Checker) dropBorrowsOf(owner string) {
	for _, f := range c.frames {
		kept := f.borrows[:0]
		for _, rec := range f.borrows {
			if rec.owner != owner {
				kept = append(kept, rec)
			}
		}

		f.borrows = kept
	}
}

// expireHolder drops the borrows held under a view binding.  Overwriting the
// binding ends the borrow's lifetime.
func (c *Checker) expireHolder(holder string) {
	for _, f := range c.frames {
		kept := f.borrows[:0]
		for _, rec := range f.borrows {
			if rec.holder != holder {
				kept = append(kept, rec)
			}
		}

		f.borrows = kept
	}
}

// registerBorrow admits a new borrow after checking it against every live
// borrow of the same region: overlapping ranges conflict unless both sides
// are immutable.  The borrow lives in the frame of its holder binding.
func (c *Checker) registerBorrow(rec *borrowRec) {
	for _, live := range c.borrowsOf(rec.owner) {
		if conflicts(rec, live) {
			panic(report.Raise(report.KindBorrowAliasConflict, rec.span,
				"%s borrow %s of `%s` overlaps %s borrow %s",
				rec.kindName(), rec.describe(), rec.owner, live.kindName(), live.describe()).
				WithNote("previous borrow here", live.span))
		}
	}

	f := c.frames[len(c.frames)-1]
	if rec.holder != "" {
		f = c.frameOf(rec.holder)
	}

	f.borrows = append(f.borrows, rec)
}

// borrowOperand extracts the borrow an expression performs, if any.  The
// returned record has no holder; callers fill it in.
func (c *Checker) borrowOperand(expr ast.Expr) (*borrowRec, bool) {
	switch v := expr.(type) {
	case *ast.BorrowExpr:
		owner, ok := identName(v.Operand)
		if !ok {
			return nil, false
		}

		return &borrowRec{owner: owner, mutable: v.Mutable, start: -1, end: -1, span: v.Span()}, true
	case *ast.BorrowRange:
		owner, ok := identName(v.Buffer)
		if !ok {
			return nil, false
		}

		return &borrowRec{
			owner:   owner,
			mutable: v.Mutable,
			start:   staticBound(v.Start),
			end:     staticBound(v.End),
			span:    v.Span(),
		}, true
	default:
		return nil, false
	}
}

// staticBound evaluates a borrow range bound when it is an integer literal.
// Any other bound is unknown and widens the borrow to the whole region.
func staticBound(expr ast.Expr) int64 {
	lit, ok := expr.(*ast.Literal)
	if !ok || lit.Kind != syntax.TOK_INTLIT {
		return -1
	}

	n, err := strconv.ParseInt(lit.Value, 10, 64)
	if err != nil {
		return -1
	}

	return n
}

func identName(expr ast.Expr) (string, bool) {
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name, true
	}

	return "", false
}

// -----------------------------------------------------------------------------

// checkExpr checks the uses an expression makes.  When move is set, a bare
// reference to a non-Copy binding transfers ownership out of it.
func (c *Checker) checkExpr(expr ast.Expr, move bool) {
	switch v := expr.(type) {
	case *ast.Identifier:
		c.useBinding(v.Name, v.Span(), move)
	case *ast.MoveExpr:
		c.checkExpr(v.Operand, true)
	case *ast.CopyExpr:
		c.checkExpr(v.Operand, false)
	case *ast.BorrowExpr:
		c.checkExpr(v.Operand, false)
	case *ast.BorrowRange:
		c.checkExpr(v.Buffer, false)
		c.checkExpr(v.Start, false)
		c.checkExpr(v.End, false)
	case *ast.Call:
		c.checkCall(v)
	case *ast.Dot:
		c.checkExpr(v.Root, false)
	case *ast.BinaryOp:
		c.checkExpr(v.Lhs, false)
		c.checkExpr(v.Rhs, false)
	case *ast.LogicalOp:
		c.checkExpr(v.Lhs, false)
		c.checkExpr(v.Rhs, false)
	case *ast.UnaryOp:
		c.checkExpr(v.Operand, false)
	case *ast.TryExpr:
		c.checkExpr(v.Operand, move)
	case *ast.BufferCreate:
		c.checkExpr(v.Size, false)
	}
}

// checkCall checks a call's arguments.  Passing a non-Copy value moves it into
// the callee; a borrow written directly in argument position is registered for
// the duration of the call and expires with the statement.
func (c *Checker) checkCall(call *ast.Call) {
	c.checkExpr(call.Func, false)

	var temps []*borrowRec
	for _, arg := range call.Args {
		if rec, ok := c.borrowOperand(arg); ok {
			c.checkExpr(arg, false)
			c.registerBorrow(rec)
			temps = append(temps, rec)
			continue
		}

		c.checkExpr(arg, true)
	}

	f := c.frames[len(c.frames)-1]
	for _, temp := range temps {
		kept := f.borrows[:0]
		for _, rec := range f.borrows {
			if rec != temp {
				kept = append(kept, rec)
			}
		}

		f.borrows = kept
	}
}

// useBinding checks a read of a local: moved and released bindings reject all
// reads, and a moving read of a borrowed region is an aliasing error.
func (c *Checker) useBinding(name string, span *report.TextSpan, move bool) {
	b, ok := c.lookup(name)
	if !ok {
		return
	}

	switch b.state {
	case stateMoved:
		panic(report.Raise(report.KindUseAfterMove, span,
			"use of `%s` after move", name).WithNote("value moved here", b.eventSpan))
	case stateConsumed:
		panic(report.Raise(report.KindUseAfterMove, span,
			"use of `%s` after release", name).WithNote("released here", b.eventSpan))
	}

	if move && b.typ != nil && !types.IsCopy(b.typ) {
		if live := c.borrowsOf(name); len(live) > 0 {
			panic(report.Raise(report.KindBorrowAliasConflict, span,
				"cannot move `%s` while %s borrow %s is live",
				name, live[0].kindName(), live[0].describe()).
				WithNote("borrowed here", live[0].span))
		}

		b.state = stateMoved
		b.eventSpan = span
	}
}
