package syntax

import "daisyc/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The text span over which the token exists.  This may not directly
	// correspond to its value: eg. the value of a string token has the leading
	// quotes trimmed off for convenience.
	Span *report.TextSpan
}

// Enumeration of token kinds.  Keywords from both surfaces map onto shared
// kinds: eg. `fn` and `함수` both lex as TOK_FN.
const (
	TOK_MODULE = iota

	TOK_FN
	TOK_DEFINE
	TOK_STRUCT
	TOK_ENUM
	TOK_TRAIT
	TOK_IMPL
	TOK_FOR
	TOK_EXTERN

	TOK_LET
	TOK_SET
	TOK_ADD
	TOK_TO
	TOK_PRINT
	TOK_RETURN

	TOK_IF
	TOK_ELIF
	TOK_ELSE
	TOK_THEN
	TOK_MATCH
	TOK_CASE
	TOK_REPEAT
	TOK_TIMES
	TOK_WHILE
	TOK_BREAK
	TOK_CONTINUE

	TOK_IMPORT
	TOK_USE
	TOK_AS
	TOK_PUBLIC
	TOK_PRIVATE

	TOK_UNSAFE
	TOK_MOVE
	TOK_COPY
	TOK_BORROW
	TOK_MUT
	TOK_IMMUT
	TOK_RELEASE
	TOK_BUFFER
	TOK_CREATE
	TOK_BYTES
	TOK_TRY

	TOK_AND
	TOK_OR
	TOK_NOT

	TOK_RECEIVES
	TOK_NOTHING
	TOK_THAN
	TOK_GREATER
	TOK_LESSER

	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_DIV

	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_GT
	TOK_LTEQ
	TOK_GTEQ

	TOK_ASSIGN
	TOK_ARROW
	TOK_RANGETO

	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_COMMA
	TOK_DOT
	TOK_COLON

	TOK_IDENT
	TOK_PARTICLE
	TOK_INTLIT
	TOK_STRINGLIT
	TOK_BOOLLIT

	TOK_NEWLINE
	TOK_INDENT
	TOK_DEDENT
	TOK_EOF
)

// keywordPatterns maps keyword lexemes from both surfaces onto token kinds.
var keywordPatterns = map[string]int{
	"module": TOK_MODULE,
	"모듈":     TOK_MODULE,

	"fn":   TOK_FN,
	"함수":   TOK_FN,
	"정의":   TOK_DEFINE,
	"정의한다": TOK_DEFINE,

	"struct": TOK_STRUCT,
	"구조체":    TOK_STRUCT,
	"enum":   TOK_ENUM,
	"열거형":    TOK_ENUM,
	"trait":  TOK_TRAIT,
	"트레잇":    TOK_TRAIT,
	"impl":   TOK_IMPL,
	"구현":     TOK_IMPL,
	"for":    TOK_FOR,
	"extern": TOK_EXTERN,
	"외부":     TOK_EXTERN,

	"let":  TOK_LET,
	"set":  TOK_SET,
	"설정한다": TOK_SET,
	"add":  TOK_ADD,
	"더한다":  TOK_ADD,
	"to":   TOK_TO,

	"print": TOK_PRINT,
	"출력한다":  TOK_PRINT,

	"return": TOK_RETURN,
	"반환한다":   TOK_RETURN,

	"if":   TOK_IF,
	"만약":   TOK_IF,
	"elif": TOK_ELIF,
	"else": TOK_ELSE,
	"아니면":  TOK_ELSE,
	"이면":   TOK_THEN,

	"match":  TOK_MATCH,
	"맞춤":     TOK_MATCH,
	"case":   TOK_CASE,
	"케이스":    TOK_CASE,
	"repeat": TOK_REPEAT,
	"반복한다":   TOK_REPEAT,
	"times":  TOK_TIMES,
	"번":      TOK_TIMES,

	"while": TOK_WHILE,
	"동안":    TOK_WHILE,

	"break":    TOK_BREAK,
	"중단한다":     TOK_BREAK,
	"continue": TOK_CONTINUE,
	"계속한다":     TOK_CONTINUE,

	"import": TOK_IMPORT,
	"use":    TOK_USE,
	"사용":     TOK_USE,
	"사용한다":   TOK_USE,
	"as":     TOK_AS,
	"별칭":     TOK_AS,

	"export":  TOK_PUBLIC,
	"public":  TOK_PUBLIC,
	"공개":      TOK_PUBLIC,
	"private": TOK_PRIVATE,
	"비공개":     TOK_PRIVATE,

	"unsafe": TOK_UNSAFE,
	"위험":     TOK_UNSAFE,

	"move":    TOK_MOVE,
	"이동한다":    TOK_MOVE,
	"copy":    TOK_COPY,
	"복사한다":    TOK_COPY,
	"borrow":  TOK_BORROW,
	"빌려온다":    TOK_BORROW,
	"mut":     TOK_MUT,
	"가변":      TOK_MUT,
	"불변":      TOK_IMMUT,
	"release": TOK_RELEASE,
	"해제한다":    TOK_RELEASE,
	"buffer":  TOK_BUFFER,
	"생성한다":    TOK_CREATE,
	"바이트":     TOK_BYTES,

	"try":  TOK_TRY,
	"시도":   TOK_TRY,
	"시도한다": TOK_TRY,

	"and": TOK_AND,
	"그리고": TOK_AND,
	"or":  TOK_OR,
	"또는":  TOK_OR,
	"not": TOK_NOT,

	"받고":   TOK_RECEIVES,
	"아무것도": TOK_NOTHING,
	"보다":   TOK_THAN,
	"크면":   TOK_GREATER,
	"작으면":  TOK_LESSER,

	"true":  TOK_BOOLLIT,
	"false": TOK_BOOLLIT,
	"참":     TOK_BOOLLIT,
	"거짓":    TOK_BOOLLIT,
}

// koreanParticles is the table of particles split off identifier tails.  Order
// matters: longer particles must be tried before their suffixes.
var koreanParticles = []string{
	"부터", "까지", "으로", "을", "를", "에", "의", "은", "는", "이", "가", "로",
}

// koreanKeywordTails are keyword suffixes attached directly to a preceding word in
// Korean prose (eg. `참이면`).  They are split off like particles but lex as
// their keyword kinds.
var koreanKeywordTails = []string{"이면", "보다"}

// IsKeyword returns whether the token is any keyword token.
func (t *Token) IsKeyword() bool {
	_, ok := keywordPatterns[t.Value]
	return ok && t.Kind != TOK_IDENT
}
