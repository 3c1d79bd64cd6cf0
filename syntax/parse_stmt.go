package syntax

import (
	"daisyc/ast"
	"daisyc/report"
)

// parseBlock parses the statements of an indented block.  The parser must be
// on the first token after the INDENT; the block's trailing DEDENT is
// consumed.  Statements that fail to parse are reported and skipped so that
// the rest of the block still checks.
func (p *Parser) parseBlock() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		if stmt := p.recoverStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	return stmts
}

// recoverStmt parses one statement, converting a syntax error into a report
// and a skip to the next statement boundary.
func (p *Parser) recoverStmt() (stmt ast.Stmt) {
	defer func() {
		if x := recover(); x != nil {
			cerr, ok := x.(*report.LocalCompileError)
			if !ok {
				panic(x)
			}

			report.ReportCompileError(p.absPath, p.reprPath, cerr)
			p.skipStatement()
			stmt = nil
		}
	}()

	return p.parseStmt()
}

// parseStmt parses a single statement line or block statement.  English
// statements lead with their keyword; Korean statements end in their verb, so
// the dispatch falls back to whole-line inspection when the first token does
// not decide the form.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok().Kind {
	case TOK_WHILE:
		return p.parseWhile()
	case TOK_BREAK, TOK_CONTINUE:
		return p.parseKeywordStmt()
	case TOK_UNSAFE:
		return p.parseUnsafe()
	case TOK_IF:
		return p.parseIf()
	case TOK_MATCH:
		return p.parseMatch()
	case TOK_REPEAT:
		return p.parseRepeat()
	case TOK_LET:
		return p.parseLet()
	case TOK_SET:
		return p.parseEnglishSet()
	case TOK_ADD:
		return p.parseEnglishAdd()
	case TOK_PRINT, TOK_RETURN, TOK_RELEASE:
		return p.parseTailExprStmt()
	}

	switch {
	case p.lineEndsWith(TOK_SET):
		return p.parseKoreanSet()
	case p.lineEndsWith(TOK_ADD):
		return p.parseKoreanAdd()
	case p.lineContains(TOK_MATCH):
		return p.parseMatch()
	case p.lineContains(TOK_REPEAT):
		return p.parseRepeat()
	case p.lineContains(TOK_WHILE):
		return p.parseWhile()
	case p.lineEndsWith(TOK_CREATE) && p.lineContains(TOK_BYTES):
		return p.parseKoreanBufferCreate()
	case p.lineEndsWith(TOK_MOVE):
		return p.parseKoreanMove()
	case p.lineEndsWith(TOK_BORROW):
		return p.parseKoreanBorrow()
	case p.lineEndsWith(TOK_PRINT), p.lineEndsWith(TOK_RETURN), p.lineEndsWith(TOK_RELEASE):
		return p.parseTailExprStmt()
	}

	// Anything else is an expression evaluated for its effects, typically a
	// call.
	toks := p.consumeLine()
	if len(toks) == 0 {
		p.reject("expected a statement")
	}

	expr := p.parseExprToks(toks)
	p.assertAndNext(TOK_NEWLINE)

	return &ast.ExprStmt{ASTBase: ast.NewASTBaseOn(spanOver(toks)), Expr: expr}
}

// -----------------------------------------------------------------------------

// parseKeywordStmt parses a single keyword statement: break or continue.
func (p *Parser) parseKeywordStmt() ast.Stmt {
	tok := p.tok()
	p.next()
	p.assertAndNext(TOK_NEWLINE)

	return &ast.KeywordStmt{ASTBase: ast.NewASTBaseOn(tok.Span), Kind: tok.Kind}
}

// parseTailExprStmt parses the statements whose only payload is an optional
// expression: print, return, and release in either surface.
//
//	print EXPR        EXPR를 출력한다
//	return [EXPR]     [EXPR를] 반환한다
//	release EXPR      EXPR를 해제한다
func (p *Parser) parseTailExprStmt() ast.Stmt {
	toks := p.consumeLine()

	kind := toks[0].Kind
	valueToks := toks[1:]
	if k := toks[len(toks)-1].Kind; k == TOK_PRINT || k == TOK_RETURN || k == TOK_RELEASE {
		kind = k
		valueToks = toks[:len(toks)-1]
	}

	var value ast.Expr
	if len(stripParticles(valueToks)) > 0 {
		value = p.parseExprToks(valueToks)
	}

	p.assertAndNext(TOK_NEWLINE)

	base := ast.NewASTBaseOn(spanOver(toks))
	switch kind {
	case TOK_PRINT:
		if value == nil {
			p.rejectOn(toks[0], "print requires a value")
		}

		return &ast.PrintStmt{ASTBase: base, Value: value}
	case TOK_RELEASE:
		if value == nil {
			p.rejectOn(toks[0], "release requires a target")
		}

		return &ast.ReleaseStmt{ASTBase: base, Target: value}
	default:
		return &ast.ReturnStmt{ASTBase: base, Value: value}
	}
}

// -----------------------------------------------------------------------------

// parseLet parses an English variable declaration.
//
//	let NAME [: TYPE] = EXPR
func (p *Parser) parseLet() *ast.VarDecl {
	start := p.tok()
	p.next()

	p.assert(TOK_IDENT)
	name := p.tok()
	p.next()

	var declType *ast.TypeRef
	if p.got(TOK_COLON) {
		p.next()
		declType = p.parseTypeRef()
	}

	p.assertAndNext(TOK_ASSIGN)

	toks := p.consumeLine()
	if len(toks) == 0 {
		p.reject("let requires an initializer")
	}

	init := p.parseExprToks(toks)
	p.assertAndNext(TOK_NEWLINE)

	return &ast.VarDecl{
		ASTBase: ast.NewASTBaseOver(start.Span, name.Span),
		Name:    name.Value,
		Type:    declType,
		Init:    init,
	}
}

// parseEnglishSet parses an English set statement.
//
//	set NAME = EXPR
func (p *Parser) parseEnglishSet() *ast.Assign {
	toks := p.consumeLine()

	if len(toks) < 4 || toks[1].Kind != TOK_IDENT || toks[2].Kind != TOK_ASSIGN {
		p.rejectOn(toks[0], "malformed set statement")
	}

	value := p.parseExprToks(toks[3:])
	p.assertAndNext(TOK_NEWLINE)

	return &ast.Assign{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Name:    toks[1].Value,
		Value:   value,
	}
}

// parseKoreanSet parses a Korean set statement.
//
//	NAME를 EXPR으로 설정한다
func (p *Parser) parseKoreanSet() *ast.Assign {
	toks := p.consumeLine()

	if len(toks) < 3 || toks[0].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed set statement")
	}

	value := p.parseExprToks(toks[1 : len(toks)-1])
	p.assertAndNext(TOK_NEWLINE)

	return &ast.Assign{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Name:    toks[0].Value,
		Value:   value,
	}
}

// parseEnglishAdd parses an English add statement.
//
//	add EXPR to NAME
func (p *Parser) parseEnglishAdd() *ast.AddAssign {
	toks := p.consumeLine()

	toIdx := -1
	for i := len(toks) - 1; i > 0; i-- {
		if toks[i].Kind == TOK_TO {
			toIdx = i
			break
		}
	}

	if toIdx < 2 || toIdx != len(toks)-2 || toks[len(toks)-1].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed add statement")
	}

	value := p.parseExprToks(toks[1:toIdx])
	p.assertAndNext(TOK_NEWLINE)

	return &ast.AddAssign{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Name:    toks[len(toks)-1].Value,
		Value:   value,
	}
}

// parseKoreanAdd parses a Korean add statement.
//
//	NAME에 EXPR를 더한다
func (p *Parser) parseKoreanAdd() *ast.AddAssign {
	toks := p.consumeLine()

	if len(toks) < 3 || toks[0].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed add statement")
	}

	value := p.parseExprToks(toks[1 : len(toks)-1])
	p.assertAndNext(TOK_NEWLINE)

	return &ast.AddAssign{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Name:    toks[0].Value,
		Value:   value,
	}
}

// -----------------------------------------------------------------------------

// parseKoreanBufferCreate parses a Korean buffer allocation statement.
//
//	NAME를 SIZE 바이트 버퍼로 생성한다
func (p *Parser) parseKoreanBufferCreate() *ast.Assign {
	toks := p.consumeLine()

	if len(toks) < 4 || toks[0].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed buffer creation")
	}

	bytesIdx := -1
	for i, tok := range toks {
		if tok.Kind == TOK_BYTES {
			bytesIdx = i
			break
		}
	}

	if bytesIdx < 2 {
		p.rejectOn(toks[0], "buffer creation missing a byte size")
	}

	size := p.parseExprToks(toks[1:bytesIdx])
	p.assertAndNext(TOK_NEWLINE)

	base := ast.NewASTBaseOn(spanOver(toks))
	return &ast.Assign{
		ASTBase: base,
		Name:    toks[0].Value,
		Value: &ast.BufferCreate{
			ExprBase: ast.NewExprBaseOn(base),
			Size:     size,
		},
	}
}

// parseKoreanMove parses a Korean ownership transfer statement.
//
//	SRC를 DST로 이동한다
func (p *Parser) parseKoreanMove() *ast.Assign {
	toks := p.consumeLine()

	if len(toks) < 3 || toks[0].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed move statement")
	}

	// The destination is the last identifier before the verb.
	dstIdx := -1
	for i := len(toks) - 2; i > 0; i-- {
		if toks[i].Kind == TOK_IDENT {
			dstIdx = i
			break
		}
	}

	if dstIdx < 1 {
		p.rejectOn(toks[0], "move requires a destination")
	}

	base := ast.NewASTBaseOn(spanOver(toks))
	src := &ast.Identifier{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(toks[0].Span)),
		Name:     toks[0].Value,
	}

	p.assertAndNext(TOK_NEWLINE)

	return &ast.Assign{
		ASTBase: base,
		Name:    toks[dstIdx].Value,
		Value: &ast.MoveExpr{
			ExprBase: ast.NewExprBaseOn(base),
			Operand:  src,
		},
	}
}

// parseKoreanBorrow parses a Korean borrow statement binding the produced
// view.  The ranged form names the half-open interval with the particles 부터
// and 까지.
//
//	NAME를 BUF를 가변으로 빌려온다
//	NAME를 BUF의 START부터 END까지 가변으로 빌려온다
func (p *Parser) parseKoreanBorrow() *ast.Assign {
	toks := p.consumeLine()

	if len(toks) < 3 || toks[0].Kind != TOK_IDENT {
		p.rejectOn(toks[0], "malformed borrow statement")
	}

	mutable := false
	for _, tok := range toks {
		if tok.Kind == TOK_MUT {
			mutable = true
			break
		}
	}

	fromIdx, untilIdx := -1, -1
	for i, tok := range toks {
		if tok.Kind != TOK_PARTICLE {
			continue
		}

		switch tok.Value {
		case "부터":
			fromIdx = i
		case "까지":
			untilIdx = i
		}
	}

	base := ast.NewASTBaseOn(spanOver(toks))
	var value ast.Expr

	if fromIdx >= 0 && untilIdx > fromIdx {
		ownerIdx := -1
		for i := 1; i < fromIdx; i++ {
			if toks[i].Kind == TOK_PARTICLE && toks[i].Value == "의" {
				ownerIdx = i
				break
			}
		}

		if ownerIdx < 0 {
			p.rejectOn(toks[0], "ranged borrow missing its buffer")
		}

		value = &ast.BorrowRange{
			ExprBase: ast.NewExprBaseOn(base),
			Buffer:   p.parseExprToks(toks[1:ownerIdx]),
			Start:    p.parseExprToks(toks[ownerIdx+1 : fromIdx]),
			End:      p.parseExprToks(toks[fromIdx+1 : untilIdx]),
			Mutable:  mutable,
		}
	} else {
		operand := dropKinds(toks[1:len(toks)-1], TOK_MUT, TOK_IMMUT)
		value = &ast.BorrowExpr{
			ExprBase: ast.NewExprBaseOn(base),
			Mutable:  mutable,
			Operand:  p.parseExprToks(operand),
		}
	}

	p.assertAndNext(TOK_NEWLINE)

	return &ast.Assign{
		ASTBase: base,
		Name:    toks[0].Value,
		Value:   value,
	}
}

// -----------------------------------------------------------------------------

// parseUnsafe parses an unsafe block.  The justification string is mandatory
// and its absence is its own error kind rather than a plain syntax error.
//
//	unsafe "reason":
//	위험 "reason":
func (p *Parser) parseUnsafe() *ast.UnsafeBlock {
	start := p.tok()
	p.next()

	if !p.got(TOK_STRINGLIT) {
		panic(report.Raise(
			report.KindUnsafeWithoutJustification, start.Span,
			"unsafe block requires a justification string",
		))
	}

	reason := p.tok().Value
	p.next()

	if p.got(TOK_PARTICLE) {
		p.next()
	}

	p.assertAndNext(TOK_COLON)
	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	body := p.parseBlock()

	return &ast.UnsafeBlock{
		ASTBase: ast.NewASTBaseOn(start.Span),
		Reason:  reason,
		Body:    body,
	}
}

// -----------------------------------------------------------------------------

// parseIf parses an if chain with its elif branches and optional else body.
// The Korean chain spells elif as 아니면 followed by a condition and else as a
// bare 아니면.
func (p *Parser) parseIf() *ast.IfStmt {
	start := p.tok()
	branches := []ast.CondBranch{p.parseCondBranch()}

	var elseBody []ast.Stmt
loop:
	for {
		switch p.tok().Kind {
		case TOK_ELIF:
			branches = append(branches, p.parseCondBranch())
		case TOK_ELSE:
			if len(p.lineToks()) <= 2 {
				p.consumeLine()
				p.assertAndNext(TOK_NEWLINE)
				p.assertAndNext(TOK_INDENT)
				elseBody = p.parseBlock()
				break loop
			}

			branches = append(branches, p.parseCondBranch())
		default:
			break loop
		}
	}

	return &ast.IfStmt{
		ASTBase:  ast.NewASTBaseOn(start.Span),
		Branches: branches,
		ElseBody: elseBody,
	}
}

// parseCondBranch parses one condition line and block of an if chain.  The
// parser must be on the leading if, elif, or else keyword.
func (p *Parser) parseCondBranch() ast.CondBranch {
	toks := p.consumeLine()
	condToks := trimKind(trimKind(toks, TOK_COLON), TOK_THEN)

	if len(condToks) < 2 {
		p.rejectOn(toks[0], "missing condition")
	}

	cond := p.parseExprToks(condToks[1:])

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	return ast.CondBranch{Cond: cond, Body: p.parseBlock()}
}

// -----------------------------------------------------------------------------

// parseWhile parses a while loop in either surface.
//
//	while COND:
//	동안 COND:
func (p *Parser) parseWhile() *ast.WhileStmt {
	toks := p.consumeLine()
	condToks := trimKind(trimKind(toks, TOK_COLON), TOK_THEN)

	if condToks[0].Kind == TOK_WHILE {
		condToks = condToks[1:]
	} else if condToks[len(condToks)-1].Kind == TOK_WHILE {
		condToks = condToks[:len(condToks)-1]
	}

	if len(stripParticles(condToks)) == 0 {
		p.rejectOn(toks[0], "while requires a condition")
	}

	cond := p.parseExprToks(condToks)

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	return &ast.WhileStmt{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Cond:    cond,
		Body:    p.parseBlock(),
	}
}

// parseRepeat parses a bounded repeat loop in either surface.  The count
// expression is mandatory.
//
//	repeat COUNT [times]:
//	COUNT번 반복한다:
func (p *Parser) parseRepeat() *ast.RepeatStmt {
	toks := p.consumeLine()
	lineToks := trimKind(toks, TOK_COLON)

	repIdx := -1
	for i, tok := range lineToks {
		if tok.Kind == TOK_REPEAT {
			repIdx = i
			break
		}
	}

	var countToks []*Token
	if repIdx == 0 {
		countToks = lineToks[1:]
	} else {
		countToks = lineToks[:repIdx]
	}
	countToks = trimKind(countToks, TOK_TIMES)

	if len(stripParticles(countToks)) == 0 {
		p.rejectOn(toks[0], "repeat requires a count")
	}

	count := p.parseExprToks(countToks)

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	return &ast.RepeatStmt{
		ASTBase: ast.NewASTBaseOn(spanOver(toks)),
		Count:   count,
		Body:    p.parseBlock(),
	}
}

// -----------------------------------------------------------------------------

// parseMatch parses a match statement and its case arms.
//
//	match EXPR:              EXPR를 맞춤:
//	  case PATTERN [if G]:     케이스 PATTERN [만약 G이면]:
//	  else:                    아니면:
func (p *Parser) parseMatch() *ast.MatchStmt {
	toks := p.consumeLine()
	headToks := trimKind(toks, TOK_COLON)

	var scrutToks []*Token
	if headToks[0].Kind == TOK_MATCH {
		scrutToks = headToks[1:]
	} else {
		scrutToks = headToks[:len(headToks)-1]
	}

	if len(stripParticles(scrutToks)) == 0 {
		p.rejectOn(toks[0], "match requires a scrutinee")
	}

	scrutinee := p.parseExprToks(scrutToks)

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	var arms []ast.MatchArm
	for !p.got(TOK_DEDENT) && !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		arms = append(arms, p.parseMatchArm())
	}

	if p.got(TOK_DEDENT) {
		p.next()
	}

	if len(arms) == 0 {
		p.rejectOn(toks[0], "match requires at least one case")
	}

	return &ast.MatchStmt{
		ASTBase:   ast.NewASTBaseOn(spanOver(toks)),
		Scrutinee: scrutinee,
		Arms:      arms,
	}
}

// parseMatchArm parses a single case arm line and its body block.
func (p *Parser) parseMatchArm() ast.MatchArm {
	toks := p.consumeLine()
	armToks := trimKind(toks, TOK_COLON)

	var pattern ast.Pattern
	var guard ast.Expr

	switch armToks[0].Kind {
	case TOK_ELSE:
		if len(armToks) > 1 {
			p.rejectOn(armToks[1], "default arm takes no pattern")
		}

		pattern = &ast.WildcardPattern{ASTBase: ast.NewASTBaseOn(armToks[0].Span)}
	case TOK_CASE:
		if len(armToks) < 2 {
			p.rejectOn(armToks[0], "case requires a pattern")
		}

		patToks := armToks[1:]

		ifIdx := findTopLevel(patToks, TOK_IF)
		if ifIdx >= 0 {
			guardToks := trimKind(patToks[ifIdx+1:], TOK_THEN)
			if len(stripParticles(guardToks)) == 0 {
				p.rejectOn(patToks[ifIdx], "guard requires a condition")
			}

			guard = p.parseExprToks(guardToks)
			patToks = patToks[:ifIdx]
		}

		pattern = p.parsePatternToks(patToks)
	default:
		p.rejectOn(armToks[0], "expected a case arm")
	}

	p.assertAndNext(TOK_NEWLINE)
	p.assertAndNext(TOK_INDENT)

	return ast.MatchArm{
		Pattern: pattern,
		Guard:   guard,
		Body:    p.parseBlock(),
		Pos:     ast.NewASTBaseOn(spanOver(toks)),
	}
}

// -----------------------------------------------------------------------------

// trimKind removes a single trailing token of the given kind, if present.
func trimKind(toks []*Token, kind int) []*Token {
	if len(toks) > 0 && toks[len(toks)-1].Kind == kind {
		return toks[:len(toks)-1]
	}

	return toks
}

// dropKinds removes every token of the given kinds from the slice.
func dropKinds(toks []*Token, kinds ...int) []*Token {
	var out []*Token
outer:
	for _, tok := range toks {
		for _, kind := range kinds {
			if tok.Kind == kind {
				continue outer
			}
		}

		out = append(out, tok)
	}

	return out
}
