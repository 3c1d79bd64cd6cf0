package syntax

import (
	"strings"

	"daisyc/ast"
)

// parseExprToks parses an expression from a token slice.  Expressions are
// parsed by precedence splitting: each level finds its rightmost operator
// outside any bracketing and recurses on the two halves.  Korean particles
// carry no expression meaning and are dropped, except where they delimit the
// operands of a Korean comparison.
func (p *Parser) parseExprToks(toks []*Token) ast.Expr {
	if len(toks) == 0 {
		p.reject("expected an expression")
	}

	// The Korean comparison form `X가 Y보다 크면` keys its operand split off
	// the subject particle, so it must be recognized before particles are
	// dropped.
	if expr := p.parseKoreanComparison(toks); expr != nil {
		return expr
	}

	// Likewise `X가 V` is an implicit equality test, as in `만약 x가 0이면`.
	if expr := p.parseKoreanEquality(toks); expr != nil {
		return expr
	}

	toks = stripParticles(toks)
	if len(toks) == 0 {
		p.reject("expected an expression")
	}

	base := ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks)))

	switch toks[0].Kind {
	case TOK_TRY:
		return &ast.TryExpr{ExprBase: base, Operand: p.parseExprToks(toks[1:])}
	case TOK_MOVE:
		return &ast.MoveExpr{ExprBase: base, Operand: p.parseExprToks(toks[1:])}
	case TOK_COPY:
		return &ast.CopyExpr{ExprBase: base, Operand: p.parseExprToks(toks[1:])}
	case TOK_BORROW:
		return p.parseBorrowExpr(base, toks)
	}

	return p.parseOr(toks)
}

// parseKoreanComparison recognizes the Korean comparison surface and returns
// nil when the tokens do not form one.
func (p *Parser) parseKoreanComparison(toks []*Token) ast.Expr {
	last := toks[len(toks)-1].Kind
	if last != TOK_GREATER && last != TOK_LESSER {
		return nil
	}

	thanIdx := -1
	for i, tok := range toks {
		if tok.Kind == TOK_THAN {
			thanIdx = i
			break
		}
	}

	subjIdx := -1
	for i, tok := range toks {
		if tok.Kind == TOK_PARTICLE {
			subjIdx = i
			break
		}
	}

	if thanIdx < 2 || subjIdx <= 0 || subjIdx >= thanIdx {
		return nil
	}

	op := TOK_GT
	if last == TOK_LESSER {
		op = TOK_LT
	}

	return &ast.BinaryOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   op,
		Lhs:      p.parseExprToks(toks[:subjIdx]),
		Rhs:      p.parseExprToks(toks[subjIdx+1 : thanIdx]),
	}
}

// parseKoreanEquality recognizes the Korean implicit equality surface: two
// operands joined by a subject particle, as in `x가 0`.  Returns nil when the
// tokens do not form one.
func (p *Parser) parseKoreanEquality(toks []*Token) ast.Expr {
	if len(toks) != 3 || toks[1].Kind != TOK_PARTICLE {
		return nil
	}

	switch toks[1].Value {
	case "이", "가", "은", "는":
	default:
		return nil
	}

	if !isOperandEnd(toks[0].Kind) || !isOperandEnd(toks[2].Kind) {
		return nil
	}

	return &ast.BinaryOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   TOK_EQ,
		Lhs:      p.parsePrimary(toks[:1]),
		Rhs:      p.parsePrimary(toks[2:]),
	}
}

// parseBorrowExpr parses an English borrow expression.  The ranged form
// borrows a view over a half-open buffer interval.
//
//	borrow [mut] EXPR
//	borrow [mut] BUF[START..END]
func (p *Parser) parseBorrowExpr(base ast.ExprBase, toks []*Token) ast.Expr {
	idx := 1
	mutable := false
	if idx < len(toks) && toks[idx].Kind == TOK_MUT {
		mutable = true
		idx++
	} else if idx < len(toks) && toks[idx].Kind == TOK_IMMUT {
		idx++
	}

	rest := toks[idx:]
	if len(rest) == 0 {
		p.rejectOn(toks[0], "borrow requires an operand")
	}

	if len(rest) >= 5 && rest[0].Kind == TOK_IDENT && rest[1].Kind == TOK_LBRACKET &&
		rest[len(rest)-1].Kind == TOK_RBRACKET {
		rtIdx := -1
		depth := 0
		for i := 1; i < len(rest); i++ {
			switch rest[i].Kind {
			case TOK_LBRACKET, TOK_LPAREN:
				depth++
			case TOK_RBRACKET, TOK_RPAREN:
				depth--
			case TOK_RANGETO:
				if depth == 1 {
					rtIdx = i
				}
			}
		}

		if rtIdx < 0 {
			p.rejectOn(rest[1], "ranged borrow requires `..`")
		}

		return &ast.BorrowRange{
			ExprBase: base,
			Buffer: &ast.Identifier{
				ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(rest[0].Span)),
				Name:     rest[0].Value,
			},
			Start:   p.parseExprToks(rest[2:rtIdx]),
			End:     p.parseExprToks(rest[rtIdx+1 : len(rest)-1]),
			Mutable: mutable,
		}
	}

	return &ast.BorrowExpr{ExprBase: base, Mutable: mutable, Operand: p.parseExprToks(rest)}
}

// -----------------------------------------------------------------------------

// parseOr parses the lowest precedence level: short-circuiting or.
func (p *Parser) parseOr(toks []*Token) ast.Expr {
	opIdx := findTopLevel(toks, TOK_OR)
	if opIdx < 0 {
		return p.parseAnd(toks)
	}

	return &ast.LogicalOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   TOK_OR,
		Lhs:      p.parseOr(toks[:opIdx]),
		Rhs:      p.parseAnd(toks[opIdx+1:]),
	}
}

// parseAnd parses short-circuiting and.
func (p *Parser) parseAnd(toks []*Token) ast.Expr {
	opIdx := findTopLevel(toks, TOK_AND)
	if opIdx < 0 {
		return p.parseComparison(toks)
	}

	return &ast.LogicalOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   TOK_AND,
		Lhs:      p.parseAnd(toks[:opIdx]),
		Rhs:      p.parseComparison(toks[opIdx+1:]),
	}
}

// parseComparison parses the comparison operators.  An angle bracket opening
// a generic call is skipped rather than treated as less-than.
func (p *Parser) parseComparison(toks []*Token) ast.Expr {
	opIdx := findTopLevel(toks, TOK_EQ, TOK_NEQ, TOK_LT, TOK_GT, TOK_LTEQ, TOK_GTEQ)
	if opIdx < 0 {
		return p.parseAdd(toks)
	}

	return &ast.BinaryOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   toks[opIdx].Kind,
		Lhs:      p.parseComparison(toks[:opIdx]),
		Rhs:      p.parseAdd(toks[opIdx+1:]),
	}
}

// parseAdd parses additive operators.  A plus or minus not preceded by an
// operand is a sign, not an operator.
func (p *Parser) parseAdd(toks []*Token) ast.Expr {
	opIdx := -1
	depth := 0
	for i := 0; i < len(toks); i++ {
		switch toks[i].Kind {
		case TOK_LPAREN, TOK_LBRACKET:
			depth++
		case TOK_RPAREN, TOK_RBRACKET:
			depth--
		case TOK_IDENT:
			if depth == 0 {
				if end := genericCallEnd(toks, i); end >= 0 {
					i = end
				}
			}
		case TOK_PLUS, TOK_MINUS:
			if depth == 0 && i > 0 && isOperandEnd(toks[i-1].Kind) {
				opIdx = i
			}
		}
	}

	if opIdx < 0 {
		return p.parseMul(toks)
	}

	return &ast.BinaryOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   toks[opIdx].Kind,
		Lhs:      p.parseAdd(toks[:opIdx]),
		Rhs:      p.parseMul(toks[opIdx+1:]),
	}
}

// parseMul parses multiplicative operators.
func (p *Parser) parseMul(toks []*Token) ast.Expr {
	opIdx := findTopLevel(toks, TOK_STAR, TOK_DIV)
	if opIdx < 0 {
		return p.parseUnary(toks)
	}

	return &ast.BinaryOp{
		ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
		OpKind:   toks[opIdx].Kind,
		Lhs:      p.parseMul(toks[:opIdx]),
		Rhs:      p.parseUnary(toks[opIdx+1:]),
	}
}

// parseUnary parses prefix operators.
func (p *Parser) parseUnary(toks []*Token) ast.Expr {
	if len(toks) == 0 {
		p.reject("expected an expression")
	}

	switch toks[0].Kind {
	case TOK_NOT, TOK_MINUS:
		return &ast.UnaryOp{
			ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks))),
			OpKind:   toks[0].Kind,
			Operand:  p.parseUnary(toks[1:]),
		}
	case TOK_PLUS:
		return p.parseUnary(toks[1:])
	}

	return p.parsePrimary(toks)
}

// -----------------------------------------------------------------------------

// parsePrimary parses atoms, calls, and member accesses.
func (p *Parser) parsePrimary(toks []*Token) ast.Expr {
	if len(toks) == 0 {
		p.reject("expected an expression")
	}

	base := ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks)))

	if toks[0].Kind == TOK_LPAREN && matchingParen(toks, 0) == len(toks)-1 {
		return p.parseExprToks(toks[1 : len(toks)-1])
	}

	if len(toks) == 1 {
		switch toks[0].Kind {
		case TOK_INTLIT, TOK_STRINGLIT, TOK_BOOLLIT:
			return &ast.Literal{ExprBase: base, Kind: toks[0].Kind, Value: toks[0].Value}
		case TOK_IDENT:
			return &ast.Identifier{ExprBase: base, Name: toks[0].Value}
		default:
			p.rejectOn(toks[0], "")
		}
	}

	// buffer(SIZE)
	if toks[0].Kind == TOK_BUFFER && len(toks) >= 3 && toks[1].Kind == TOK_LPAREN &&
		matchingParen(toks, 1) == len(toks)-1 {
		return &ast.BufferCreate{ExprBase: base, Size: p.parseExprToks(toks[2 : len(toks)-1])}
	}

	// name<T, ...>(args): generic calls carry their specialization in the
	// callee name.
	if toks[0].Kind == TOK_IDENT {
		if gtIdx := genericCallEnd(toks, 0); gtIdx >= 0 && matchingParen(toks, gtIdx+1) == len(toks)-1 {
			name := toks[0].Value + mangleTypeArgs(p, toks[1:gtIdx+1])

			return &ast.Call{
				ExprBase: base,
				Func: &ast.Identifier{
					ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(toks[0].Span)),
					Name:     name,
				},
				Args: p.parseCallArgs(toks[gtIdx+2 : len(toks)-1]),
			}
		}
	}

	// name(args)
	if toks[0].Kind == TOK_IDENT && toks[1].Kind == TOK_LPAREN && matchingParen(toks, 1) == len(toks)-1 {
		return &ast.Call{
			ExprBase: base,
			Func: &ast.Identifier{
				ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(toks[0].Span)),
				Name:     toks[0].Value,
			},
			Args: p.parseCallArgs(toks[2 : len(toks)-1]),
		}
	}

	// root.field and root.method(args)
	if dotIdx := findTopLevel(toks, TOK_DOT); dotIdx > 0 && dotIdx < len(toks)-1 {
		if toks[dotIdx+1].Kind != TOK_IDENT {
			p.rejectOn(toks[dotIdx+1], "expected a member name")
		}

		root := p.parsePrimary(toks[:dotIdx])
		dot := &ast.Dot{
			ExprBase: ast.NewExprBaseOn(ast.NewASTBaseOn(spanOver(toks[:dotIdx+2]))),
			Root:     root,
			FieldName: toks[dotIdx+1].Value,
		}

		if dotIdx+2 == len(toks) {
			return dot
		}

		if toks[dotIdx+2].Kind == TOK_LPAREN && matchingParen(toks, dotIdx+2) == len(toks)-1 {
			return &ast.Call{
				ExprBase: base,
				Func:     dot,
				Args:     p.parseCallArgs(toks[dotIdx+3 : len(toks)-1]),
			}
		}

		p.rejectOn(toks[dotIdx+2], "")
	}

	p.rejectOn(toks[0], "")
	return nil
}

// parseCallArgs parses a comma separated argument list from the tokens
// between the call parentheses.
func (p *Parser) parseCallArgs(toks []*Token) []ast.Expr {
	if len(toks) == 0 {
		return nil
	}

	var args []ast.Expr
	depth := 0
	start := 0
	for i := 0; i < len(toks); i++ {
		switch toks[i].Kind {
		case TOK_LPAREN, TOK_LBRACKET:
			depth++
		case TOK_RPAREN, TOK_RBRACKET:
			depth--
		case TOK_IDENT:
			if depth == 0 {
				if end := genericCallEnd(toks, i); end >= 0 {
					i = end
				}
			}
		case TOK_COMMA:
			if depth == 0 {
				args = append(args, p.parseExprToks(toks[start:i]))
				start = i + 1
			}
		}
	}

	args = append(args, p.parseExprToks(toks[start:]))
	return args
}

// mangleTypeArgs renders the angle-bracketed type argument tokens of a
// generic call into the name suffix of its specialization.
func mangleTypeArgs(p *Parser, toks []*Token) string {
	// toks spans the brackets themselves: < T, ... >
	inner := toks[1 : len(toks)-1]

	sb := strings.Builder{}
	idx := 0
	for idx < len(inner) {
		var arg *ast.TypeRef
		arg, idx = p.parseTypeRefToks(inner, idx)

		sb.WriteString("__")
		sb.WriteString(mangleTypeRef(arg))

		if idx < len(inner) && inner[idx].Kind == TOK_COMMA {
			idx++
			continue
		}

		break
	}

	return sb.String()
}

// mangleTypeRef renders one type reference for use in a specialized name.
func mangleTypeRef(tr *ast.TypeRef) string {
	repr := strings.ReplaceAll(tr.Name, ".", "__")
	for _, arg := range tr.Args {
		repr += "__" + mangleTypeRef(arg)
	}

	return repr
}

// -----------------------------------------------------------------------------

// parsePatternToks parses a match arm pattern from its token slice.
func (p *Parser) parsePatternToks(toks []*Token) ast.Pattern {
	toks = stripParticles(toks)
	if len(toks) == 0 {
		p.reject("expected a pattern")
	}

	base := ast.NewASTBaseOn(spanOver(toks))

	if len(toks) == 1 {
		switch toks[0].Kind {
		case TOK_IDENT:
			if toks[0].Value == "_" {
				return &ast.WildcardPattern{ASTBase: base}
			}

			return &ast.BindPattern{ASTBase: base, Name: toks[0].Value}
		case TOK_INTLIT, TOK_STRINGLIT, TOK_BOOLLIT:
			return &ast.LiteralPattern{ASTBase: base, Kind: toks[0].Kind, Value: toks[0].Value}
		default:
			p.rejectOn(toks[0], "unrecognized pattern")
		}
	}

	// Enum.Case and Enum.Case(subpatterns)
	if toks[0].Kind == TOK_IDENT && toks[1].Kind == TOK_DOT {
		if len(toks) < 3 || toks[2].Kind != TOK_IDENT {
			p.rejectOn(toks[1], "expected a case name")
		}

		var elems []ast.Pattern
		if len(toks) > 3 {
			if toks[3].Kind != TOK_LPAREN || toks[len(toks)-1].Kind != TOK_RPAREN {
				p.rejectOn(toks[3], "unrecognized pattern")
			}

			elems = p.parseSubPatterns(toks[4 : len(toks)-1])
		}

		return &ast.EnumPattern{
			ASTBase:  base,
			EnumName: toks[0].Value,
			CaseName: toks[2].Value,
			Elems:    elems,
		}
	}

	// Name(subpatterns): a struct destructuring when the parts are labeled
	// fields, an unqualified enum case otherwise.
	if toks[0].Kind == TOK_IDENT && toks[1].Kind == TOK_LPAREN && toks[len(toks)-1].Kind == TOK_RPAREN {
		inner := toks[2 : len(toks)-1]

		if findTopLevel(inner, TOK_COLON) >= 0 {
			return &ast.StructPattern{
				ASTBase: base,
				Name:    toks[0].Value,
				Fields:  p.parsePatternFields(inner),
			}
		}

		return &ast.EnumPattern{
			ASTBase:  base,
			CaseName: toks[0].Value,
			Elems:    p.parseSubPatterns(inner),
		}
	}

	p.rejectOn(toks[0], "unrecognized pattern")
	return nil
}

// parseSubPatterns parses the comma separated element patterns of an enum
// destructuring.
func (p *Parser) parseSubPatterns(toks []*Token) []ast.Pattern {
	var pats []ast.Pattern
	for _, part := range splitTopLevel(toks, TOK_COMMA) {
		pats = append(pats, p.parsePatternToks(part))
	}

	return pats
}

// parsePatternFields parses the labeled field sub-patterns of a struct
// destructuring.
func (p *Parser) parsePatternFields(toks []*Token) []ast.PatternField {
	var fields []ast.PatternField
	for _, part := range splitTopLevel(toks, TOK_COMMA) {
		if len(part) < 3 || part[0].Kind != TOK_IDENT || part[1].Kind != TOK_COLON {
			p.rejectOn(part[0], "expected `field: pattern`")
		}

		fields = append(fields, ast.PatternField{
			Name:    part[0].Value,
			Pattern: p.parsePatternToks(part[2:]),
		})
	}

	return fields
}

// -----------------------------------------------------------------------------

// stripParticles drops the Korean particle tokens from a slice.
func stripParticles(toks []*Token) []*Token {
	return dropKinds(toks, TOK_PARTICLE)
}

// findTopLevel returns the index of the last token of any given kind that
// sits outside all parentheses, brackets, and generic call type arguments, or
// -1 if there is none.
func findTopLevel(toks []*Token, kinds ...int) int {
	idx := -1
	depth := 0
	for i := 0; i < len(toks); i++ {
		switch toks[i].Kind {
		case TOK_LPAREN, TOK_LBRACKET:
			depth++
			continue
		case TOK_RPAREN, TOK_RBRACKET:
			depth--
			continue
		case TOK_IDENT:
			if depth == 0 {
				if end := genericCallEnd(toks, i); end >= 0 {
					i = end
					continue
				}
			}
		}

		if depth != 0 {
			continue
		}

		for _, kind := range kinds {
			if toks[i].Kind == kind {
				idx = i
				break
			}
		}
	}

	return idx
}

// splitTopLevel splits a token slice on every top level occurrence of a
// separator kind.
func splitTopLevel(toks []*Token, sep int) [][]*Token {
	var parts [][]*Token
	depth := 0
	start := 0
	for i := 0; i < len(toks); i++ {
		switch toks[i].Kind {
		case TOK_LPAREN, TOK_LBRACKET:
			depth++
		case TOK_RPAREN, TOK_RBRACKET:
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, toks[start:])
}

// genericCallEnd checks whether the identifier at index i opens a generic
// call `name<T, ...>(`.  It returns the index of the closing angle bracket,
// or -1 if the shape does not match.
func genericCallEnd(toks []*Token, i int) int {
	if toks[i].Kind != TOK_IDENT || i+1 >= len(toks) || toks[i+1].Kind != TOK_LT {
		return -1
	}

	depth := 0
	for j := i + 1; j < len(toks); j++ {
		switch toks[j].Kind {
		case TOK_LT:
			depth++
		case TOK_GT:
			depth--
			if depth == 0 {
				if j+1 < len(toks) && toks[j+1].Kind == TOK_LPAREN {
					return j
				}

				return -1
			}
		case TOK_IDENT, TOK_COMMA:
		default:
			return -1
		}
	}

	return -1
}

// matchingParen returns the index of the parenthesis closing the one at open,
// or -1 when the parens are unbalanced.
func matchingParen(toks []*Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Kind {
		case TOK_LPAREN:
			depth++
		case TOK_RPAREN:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// isOperandEnd returns whether a token kind can end an operand, which
// distinguishes binary plus and minus from signs.
func isOperandEnd(kind int) bool {
	switch kind {
	case TOK_IDENT, TOK_INTLIT, TOK_STRINGLIT, TOK_BOOLLIT, TOK_RPAREN, TOK_RBRACKET:
		return true
	default:
		return false
	}
}
