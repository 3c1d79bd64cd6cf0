package syntax

import (
	"strings"

	"daisyc/report"
)

// Enumeration of line surfaces.  A line's surface is declared by a leading
// directive; lines without a directive are SurfaceNone and the parser infers
// the surface from the tokens themselves.
const (
	SurfaceNone = iota
	SurfaceEnglish
	SurfaceKorean
)

// Lexer tokenizes a single DAISY source file.  The lexer is line oriented: it
// produces the full token slice for the file in one pass so that the parser
// can pattern match over whole lines.
type Lexer struct {
	// The source lines of the file being tokenized.
	lines []string

	// The surfaces declared by line directives, keyed by line number.
	surfaces map[int]int

	// The tokens produced so far.
	toks []*Token

	// The stack of open indentation levels.  The bottom entry is always zero.
	indents []int

	// The line and column of the current scanning position.  Both are zero
	// indexed; columns count runes, not bytes.
	line, col int

	// The runes of the line currently being scanned.
	chars []rune
}

// NewLexer creates a new lexer for the given source text.
func NewLexer(text string) *Lexer {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &Lexer{
		lines:    strings.Split(text, "\n"),
		surfaces: make(map[int]int),
		indents:  []int{0},
	}
}

// LineSurface returns the surface declared for a line, or SurfaceNone if the
// line carried no directive.
func (l *Lexer) LineSurface(line int) int {
	return l.surfaces[line]
}

// Tokenize tokenizes the whole source file and returns the token slice.  The
// slice always ends with TOK_EOF.  Lexical errors are raised as panics and
// should be caught with report.CatchErrors.
func (l *Lexer) Tokenize() []*Token {
	for l.line = 0; l.line < len(l.lines); l.line++ {
		l.chars = []rune(l.lines[l.line])
		l.col = 0

		// Measure the leading indentation of the line.
		indent := 0
		for l.col < len(l.chars) && l.chars[l.col] == ' ' {
			indent++
			l.col++
		}

		// Strip a surface directive if the line carries one.
		l.stripDirective()

		// Skip lines that are blank or contain only a comment.
		if l.col >= len(l.chars) || l.chars[l.col] == '#' {
			continue
		}

		l.updateIndent(indent)
		l.tokenizeLine()

		l.emit(TOK_NEWLINE, "\n", l.spanAt(len(l.chars), 1))
	}

	// Close any indentation levels still open at the end of the file.
	l.chars = nil
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TOK_DEDENT, "", l.spanAt(0, 1))
	}

	l.emit(TOK_EOF, "", l.spanAt(0, 1))
	return l.toks
}

// stripDirective consumes a leading `영어:` or `한국어:` directive and records
// the declared surface for the current line.
func (l *Lexer) stripDirective() {
	rest := string(l.chars[l.col:])

	var directive string
	var surface int
	switch {
	case strings.HasPrefix(rest, "영어:"):
		directive, surface = "영어:", SurfaceEnglish
	case strings.HasPrefix(rest, "한국어:"):
		directive, surface = "한국어:", SurfaceKorean
	default:
		return
	}

	l.surfaces[l.line] = surface
	l.col += len([]rune(directive))

	// Skip a single space after the directive if present.
	if l.col < len(l.chars) && l.chars[l.col] == ' ' {
		l.col++
	}
}

// updateIndent compares a line's indentation against the indent stack and
// emits the INDENT and DEDENT tokens implied by the change.
func (l *Lexer) updateIndent(indent int) {
	if indent%2 != 0 {
		panic(report.Raise(
			report.KindLexicalError,
			l.spanAt(0, indent),
			"indentation must be a multiple of two spaces",
		))
	}

	top := l.indents[len(l.indents)-1]

	if indent > top {
		l.indents = append(l.indents, indent)
		l.emit(TOK_INDENT, "", l.spanAt(0, indent))
		return
	}

	for indent < top {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TOK_DEDENT, "", l.spanAt(0, 1))
		top = l.indents[len(l.indents)-1]
	}

	if indent != top {
		panic(report.Raise(
			report.KindLexicalError,
			l.spanAt(0, indent),
			"indentation does not match any open block",
		))
	}
}

// tokenizeLine tokenizes the remainder of the current line.
func (l *Lexer) tokenizeLine() {
	for l.col < len(l.chars) {
		c := l.chars[l.col]

		switch {
		case c == ' ':
			l.col++
		case c == '#':
			// Comments run to the end of the line.
			l.col = len(l.chars)
		case c == '"':
			l.lexString()
		case isDigit(c):
			l.lexNumber()
		case isWordChar(c):
			l.lexWord()
		default:
			l.lexSymbol()
		}
	}
}

// lexNumber lexes a decimal integer literal.
func (l *Lexer) lexNumber() {
	start := l.col
	for l.col < len(l.chars) && isDigit(l.chars[l.col]) {
		l.col++
	}

	value := string(l.chars[start:l.col])
	l.emit(TOK_INTLIT, value, l.spanAt(start, l.col-start))
}

// lexString lexes a double-quoted string literal, decoding escape sequences.
// The emitted token value has the quotes trimmed off and escapes decoded.
func (l *Lexer) lexString() {
	start := l.col
	l.col++

	var sb strings.Builder
	for l.col < len(l.chars) {
		c := l.chars[l.col]

		switch c {
		case '"':
			l.col++
			l.emit(TOK_STRINGLIT, sb.String(), l.spanAt(start, l.col-start))
			return
		case '\\':
			l.col++
			if l.col >= len(l.chars) {
				break
			}

			switch l.chars[l.col] {
			case 'n':
				sb.WriteRune('\n')
			case 'r':
				sb.WriteRune('\r')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				panic(report.Raise(
					report.KindLexicalError,
					l.spanAt(l.col-1, 2),
					"unknown escape sequence `\\%c`", l.chars[l.col],
				))
			}

			l.col++
		default:
			sb.WriteRune(c)
			l.col++
		}
	}

	panic(report.Raise(
		report.KindLexicalError,
		l.spanAt(start, l.col-start),
		"unterminated string literal",
	))
}

// lexWord lexes a word beginning with an identifier character.  The word is
// classified as a keyword, a boolean literal, an identifier, or an identifier
// followed by split-off particle or keyword-tail tokens.
func (l *Lexer) lexWord() {
	start := l.col
	for l.col < len(l.chars) && isWordChar(l.chars[l.col]) {
		l.col++
	}

	word := string(l.chars[start:l.col])

	// `add` directly followed by `(` names a function (`fn add(`, `add(1, 2)`)
	// rather than opening an add statement.
	if word == "add" && l.col < len(l.chars) && l.chars[l.col] == '(' {
		l.emit(TOK_IDENT, word, l.spanAt(start, l.col-start))
		return
	}

	l.classifyWord(word, start)
}

// classifyWord emits the token or tokens corresponding to a scanned word
// beginning at the given column.
func (l *Lexer) classifyWord(word string, start int) {
	wordLen := len([]rune(word))

	// Whole-word keyword matches take priority over particle splitting so
	// that keywords ending in a particle-shaped tail still lex as keywords.
	if kind, ok := keywordPatterns[word]; ok {
		l.emit(kind, word, l.spanAt(start, wordLen))
		return
	}

	// A particle scans as its own word when it follows a literal rather than
	// an identifier tail: eg. the `으로` in `5으로`.
	for _, particle := range koreanParticles {
		if word == particle {
			l.emit(TOK_PARTICLE, word, l.spanAt(start, wordLen))
			return
		}
	}

	// Try to split a keyword tail off the end of the word.
	for _, tail := range koreanKeywordTails {
		stem := strings.TrimSuffix(word, tail)
		if stem == word || stem == "" {
			continue
		}

		tailLen := len([]rune(tail))
		l.classifyWord(stem, start)
		l.emit(keywordPatterns[tail], tail, l.spanAt(start+wordLen-tailLen, tailLen))
		return
	}

	// Try to split a particle off the end of the word.
	for _, particle := range koreanParticles {
		stem := strings.TrimSuffix(word, particle)
		if stem == word || stem == "" {
			continue
		}

		particleLen := len([]rune(particle))
		l.classifyWord(stem, start)
		l.emit(TOK_PARTICLE, particle, l.spanAt(start+wordLen-particleLen, particleLen))
		return
	}

	l.emit(TOK_IDENT, word, l.spanAt(start, wordLen))
}

// symbolPatterns maps single-rune symbol lexemes onto token kinds.
var symbolPatterns = map[rune]int{
	'(': TOK_LPAREN,
	')': TOK_RPAREN,
	'[': TOK_LBRACKET,
	']': TOK_RBRACKET,
	',': TOK_COMMA,
	'.': TOK_DOT,
	':': TOK_COLON,
	'=': TOK_ASSIGN,
	'<': TOK_LT,
	'>': TOK_GT,
	'+': TOK_PLUS,
	'-': TOK_MINUS,
	'*': TOK_STAR,
	'/': TOK_DIV,
}

// doubleSymbolPatterns maps two-rune symbol lexemes onto token kinds.  These
// are always tried before the single-rune symbols.
var doubleSymbolPatterns = map[string]int{
	"==": TOK_EQ,
	"!=": TOK_NEQ,
	"<=": TOK_LTEQ,
	">=": TOK_GTEQ,
	"->": TOK_ARROW,
	"..": TOK_RANGETO,
	"&&": TOK_AND,
	"||": TOK_OR,
}

// lexSymbol lexes a punctuation or operator token.
func (l *Lexer) lexSymbol() {
	if l.col+1 < len(l.chars) {
		pair := string(l.chars[l.col : l.col+2])
		if kind, ok := doubleSymbolPatterns[pair]; ok {
			l.emit(kind, pair, l.spanAt(l.col, 2))
			l.col += 2
			return
		}
	}

	c := l.chars[l.col]
	if kind, ok := symbolPatterns[c]; ok {
		l.emit(kind, string(c), l.spanAt(l.col, 1))
		l.col++
		return
	}

	panic(report.Raise(
		report.KindLexicalError,
		l.spanAt(l.col, 1),
		"unknown character `%c`", c,
	))
}

// -----------------------------------------------------------------------------

// emit appends a token to the token slice.
func (l *Lexer) emit(kind int, value string, span *report.TextSpan) {
	l.toks = append(l.toks, &Token{Kind: kind, Value: value, Span: span})
}

// spanAt builds the span of a token on the current line beginning at the
// given column and extending over the given number of runes.
func (l *Lexer) spanAt(col, length int) *report.TextSpan {
	if length < 1 {
		length = 1
	}

	return &report.TextSpan{
		StartLine: l.line,
		StartCol:  col,
		EndLine:   l.line,
		EndCol:    col + length - 1,
	}
}

// isDigit returns whether a rune is an ASCII decimal digit.
func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isWordChar returns whether a rune may appear in an identifier or keyword.
// Both ASCII letters and Hangul syllables are word characters.
func isWordChar(c rune) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') ||
		isDigit(c) || ('가' <= c && c <= '힣')
}
