package syntax

import (
	"fmt"
	"strings"

	"daisyc/ast"
	"daisyc/report"
)

// Parser is the parser for a DAISY source file.  It is a recursive descent
// parser with a dual-surface dispatch head: every statement line is matched
// against the English surface and the Korean surface and both produce the
// same AST shapes.  The parser works over the full token slice of the file so
// that Korean pattern statements can be matched against whole lines.  All
// parsing functions assume that they begin with the parser centered on the
// first token of their production and must consume all tokens (including the
// last) of their production, leaving the parser on the next token.  Parsers
// are created once per file.
type Parser struct {
	// The absolute and representative paths of the file being parsed.
	absPath, reprPath string

	// The lexer used to tokenize the source file.  Retained for line surface
	// lookups during dispatch.
	lexer *Lexer

	// The token slice of the file.
	toks []*Token

	// The index of the current token.
	pos int
}

// NewParser creates a new parser for the given source text.
func NewParser(absPath, reprPath, text string) *Parser {
	return &Parser{
		absPath:  absPath,
		reprPath: reprPath,
		lexer:    NewLexer(text),
	}
}

// Parse parses the whole source file.  The returned file is non-nil whenever
// the module header line was valid; definitions that failed to parse are
// reported and skipped.  Parse returns false if the file could not be parsed
// at all.
func (p *Parser) Parse() (*ast.File, bool) {
	defer report.CatchErrors(p.absPath, p.reprPath)

	p.toks = p.lexer.Tokenize()

	p.skipNewlines()

	// The first meaningful line must declare the module.
	if !p.got(TOK_MODULE) {
		p.reject("first line must declare the module")
	}

	start := p.tok()
	p.next()

	name, nameEnd := p.parseModulePath()
	p.assertAndNext(TOK_NEWLINE)

	file := &ast.File{
		ASTBase:    ast.NewASTBaseOver(start.Span, nameEnd),
		ModuleName: name,
	}

	for !p.got(TOK_EOF) {
		if p.got(TOK_NEWLINE) {
			p.next()
			continue
		}

		if def := p.recoverDef(); def != nil {
			file.Defs = append(file.Defs, def)
		}
	}

	return file, true
}

// parseModulePath parses a dotted module path and returns it joined with the
// span of its final component.
func (p *Parser) parseModulePath() (string, *report.TextSpan) {
	p.assert(TOK_IDENT)

	parts := []string{p.tok().Value}
	end := p.tok().Span
	p.next()

	for p.got(TOK_DOT) {
		p.next()
		p.assert(TOK_IDENT)
		parts = append(parts, p.tok().Value)
		end = p.tok().Span
		p.next()
	}

	return strings.Join(parts, "."), end
}

// recoverDef parses one top level definition, converting a syntax error into
// a report and a skip to the next line at definition nesting.
func (p *Parser) recoverDef() (def ast.Def) {
	defer func() {
		if x := recover(); x != nil {
			cerr, ok := x.(*report.LocalCompileError)
			if !ok {
				panic(x)
			}

			report.ReportCompileError(p.absPath, p.reprPath, cerr)
			p.skipStatement()
			def = nil
		}
	}()

	return p.parseDef()
}

// skipStatement advances the parser past the current line and, if that line
// opened a block, past the whole block.  This is the statement boundary
// resynchronization point after a syntax error.
func (p *Parser) skipStatement() {
	for !p.got(TOK_NEWLINE) && !p.got(TOK_EOF) {
		p.next()
	}

	if p.got(TOK_NEWLINE) {
		p.next()
	}

	if p.got(TOK_INDENT) {
		depth := 0
		for !p.got(TOK_EOF) {
			if p.got(TOK_INDENT) {
				depth++
			} else if p.got(TOK_DEDENT) {
				depth--
				if depth == 0 {
					p.next()
					return
				}
			}

			p.next()
		}
	}
}

// -----------------------------------------------------------------------------

// tok returns the current token.
func (p *Parser) tok() *Token {
	return p.toks[p.pos]
}

// next moves the parser forward one token.  The parser never moves past the
// trailing EOF token.
func (p *Parser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

// got returns true if the parser is on a token of a given kind.
func (p *Parser) got(kind int) bool {
	return p.tok().Kind == kind
}

// gotOneOf returns if the parser's current token kind is one of given kinds.
func (p *Parser) gotOneOf(kinds ...int) bool {
	for _, kind := range kinds {
		if p.tok().Kind == kind {
			return true
		}
	}

	return false
}

// assert checks that the parser is on a token of a given kind and rejects the
// token if not.
func (p *Parser) assert(kind int) {
	if p.got(kind) {
		return
	}

	// EOF can stand in for a newline.
	if kind == TOK_NEWLINE && p.got(TOK_EOF) {
		return
	}

	p.reject("")
}

// assertAndNext performs an assert operation and moves the parser forward.
func (p *Parser) assertAndNext(kind int) {
	p.assert(kind)
	p.next()
}

// want moves the parser forward one token and asserts the token it moved to
// is of a given kind.
func (p *Parser) want(kind int) {
	p.next()
	p.assert(kind)
}

// skipNewlines moves the parser forward until a non-newline token is
// encountered.
func (p *Parser) skipNewlines() {
	for p.got(TOK_NEWLINE) {
		p.next()
	}
}

// -----------------------------------------------------------------------------

// lineToks returns the remaining tokens of the current line, excluding the
// trailing newline.
func (p *Parser) lineToks() []*Token {
	var toks []*Token
	for i := p.pos; i < len(p.toks); i++ {
		if p.toks[i].Kind == TOK_NEWLINE || p.toks[i].Kind == TOK_EOF {
			break
		}

		toks = append(toks, p.toks[i])
	}

	return toks
}

// consumeLine consumes and returns the remaining tokens of the current line,
// leaving the parser on the trailing newline.
func (p *Parser) consumeLine() []*Token {
	toks := p.lineToks()
	p.pos += len(toks)
	return toks
}

// lineEndsWith returns whether the last token of the current line has the
// given kind.
func (p *Parser) lineEndsWith(kind int) bool {
	toks := p.lineToks()
	return len(toks) > 0 && toks[len(toks)-1].Kind == kind
}

// lineContains returns whether every given kind occurs somewhere in the
// current line.
func (p *Parser) lineContains(kinds ...int) bool {
	toks := p.lineToks()

	for _, kind := range kinds {
		found := false
		for _, tok := range toks {
			if tok.Kind == kind {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// -----------------------------------------------------------------------------

// reject raises a syntax error on the current token.  If msg is empty, a
// generic unexpected token message is produced.
func (p *Parser) reject(msg string) {
	p.rejectOn(p.tok(), msg)
}

// rejectOn raises a syntax error on a given token.
func (p *Parser) rejectOn(tok *Token, msg string) {
	if msg == "" {
		switch tok.Kind {
		case TOK_NEWLINE:
			msg = "unexpected end of line"
		case TOK_INDENT:
			msg = "unexpected indent"
		case TOK_DEDENT:
			msg = "unexpected dedent"
		case TOK_EOF:
			msg = "unexpected end of file"
		default:
			msg = fmt.Sprintf("unexpected token: `%s`", tok.Value)
		}
	}

	panic(report.Raise(report.KindSyntaxError, tok.Span, "%s", msg))
}

// spanOver returns the span covering a non-empty token slice.
func spanOver(toks []*Token) *report.TextSpan {
	return report.NewSpanOver(toks[0].Span, toks[len(toks)-1].Span)
}
