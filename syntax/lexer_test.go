package syntax

import "testing"

// tokenizeSource runs the lexer over a source string, converting lexical
// error panics into test failures.
func tokenizeSource(t *testing.T, src string) []*Token {
	t.Helper()

	lexer := NewLexer(src)

	var toks []*Token
	func() {
		defer func() {
			if x := recover(); x != nil {
				t.Fatalf("unexpected lexical error: %s", x)
			}
		}()

		toks = lexer.Tokenize()
	}()

	return toks
}

// expectKinds asserts that the token slice has exactly the given kinds.
func expectKinds(t *testing.T, toks []*Token, kinds ...int) {
	t.Helper()

	if len(toks) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d", len(kinds), len(toks))
	}

	for i, kind := range kinds {
		if toks[i].Kind != kind {
			t.Errorf("token %d: expected kind %d, got %d (value %q)", i, kind, toks[i].Kind, toks[i].Value)
		}
	}
}

func TestTokenizeEnglishLine(t *testing.T) {
	toks := tokenizeSource(t, "set x = 5\n")

	expectKinds(t, toks, TOK_SET, TOK_IDENT, TOK_ASSIGN, TOK_INTLIT, TOK_NEWLINE, TOK_EOF)

	if toks[1].Value != "x" {
		t.Errorf("expected identifier `x`, got %q", toks[1].Value)
	}

	if toks[3].Value != "5" {
		t.Errorf("expected literal `5`, got %q", toks[3].Value)
	}
}

func TestTokenizeKoreanParticleSplit(t *testing.T) {
	toks := tokenizeSource(t, "x를 5으로 설정한다\n")

	expectKinds(t, toks,
		TOK_IDENT, TOK_PARTICLE, TOK_INTLIT, TOK_PARTICLE, TOK_SET,
		TOK_NEWLINE, TOK_EOF,
	)

	if toks[1].Value != "를" {
		t.Errorf("expected particle `를`, got %q", toks[1].Value)
	}

	if toks[3].Value != "으로" {
		t.Errorf("expected particle `으로`, got %q", toks[3].Value)
	}
}

func TestTokenizeKeywordBeatsParticleSplit(t *testing.T) {
	// `정의` ends in the particle `의` but must lex as a single keyword.
	toks := tokenizeSource(t, "정의\n")
	expectKinds(t, toks, TOK_DEFINE, TOK_NEWLINE, TOK_EOF)

	// Likewise `또는` ends in `는` but is the Korean `or`.
	toks = tokenizeSource(t, "또는\n")
	expectKinds(t, toks, TOK_OR, TOK_NEWLINE, TOK_EOF)
}

func TestTokenizeKeywordTailSplit(t *testing.T) {
	toks := tokenizeSource(t, "만약 x가 참이면:\n")

	expectKinds(t, toks,
		TOK_IF, TOK_IDENT, TOK_PARTICLE, TOK_BOOLLIT, TOK_THEN, TOK_COLON,
		TOK_NEWLINE, TOK_EOF,
	)

	if toks[3].Value != "참" {
		t.Errorf("expected literal `참`, got %q", toks[3].Value)
	}
}

func TestTokenizeKoreanComparisonTail(t *testing.T) {
	toks := tokenizeSource(t, "만약 x이 y보다 크면:\n")

	expectKinds(t, toks,
		TOK_IF, TOK_IDENT, TOK_PARTICLE, TOK_IDENT, TOK_THAN, TOK_GREATER,
		TOK_COLON, TOK_NEWLINE, TOK_EOF,
	)
}

func TestTokenizeIndentation(t *testing.T) {
	src := "fn main() -> int:\n  print \"hi\"\n  if true:\n    return\nfn other() -> int:\n"

	toks := tokenizeSource(t, src)

	expectKinds(t, toks,
		TOK_FN, TOK_IDENT, TOK_LPAREN, TOK_RPAREN, TOK_ARROW, TOK_IDENT, TOK_COLON, TOK_NEWLINE,
		TOK_INDENT, TOK_PRINT, TOK_STRINGLIT, TOK_NEWLINE,
		TOK_IF, TOK_BOOLLIT, TOK_COLON, TOK_NEWLINE,
		TOK_INDENT, TOK_RETURN, TOK_NEWLINE,
		TOK_DEDENT, TOK_DEDENT,
		TOK_FN, TOK_IDENT, TOK_LPAREN, TOK_RPAREN, TOK_ARROW, TOK_IDENT, TOK_COLON, TOK_NEWLINE,
		TOK_EOF,
	)
}

func TestTokenizeBlankAndCommentLines(t *testing.T) {
	src := "set x = 1\n\n# a comment line\nset y = 2  # trailing comment\n"

	toks := tokenizeSource(t, src)

	expectKinds(t, toks,
		TOK_SET, TOK_IDENT, TOK_ASSIGN, TOK_INTLIT, TOK_NEWLINE,
		TOK_SET, TOK_IDENT, TOK_ASSIGN, TOK_INTLIT, TOK_NEWLINE,
		TOK_EOF,
	)
}

func TestTokenizeSurfaceDirectives(t *testing.T) {
	src := "영어: set x to 5\n한국어: y를 3으로 설정한다\nset z to 1\n"

	lexer := NewLexer(src)
	lexer.Tokenize()

	if lexer.LineSurface(0) != SurfaceEnglish {
		t.Errorf("expected line 0 to be English surface")
	}

	if lexer.LineSurface(1) != SurfaceKorean {
		t.Errorf("expected line 1 to be Korean surface")
	}

	if lexer.LineSurface(2) != SurfaceNone {
		t.Errorf("expected line 2 to have no declared surface")
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks := tokenizeSource(t, "print \"a\\n\\\"b\\\"\\t\"\n")

	expectKinds(t, toks, TOK_PRINT, TOK_STRINGLIT, TOK_NEWLINE, TOK_EOF)

	if toks[1].Value != "a\n\"b\"\t" {
		t.Errorf("bad decoded string value: %q", toks[1].Value)
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks := tokenizeSource(t, "borrow mut buf[0..8]\n")

	expectKinds(t, toks,
		TOK_BORROW, TOK_MUT, TOK_IDENT, TOK_LBRACKET, TOK_INTLIT,
		TOK_RANGETO, TOK_INTLIT, TOK_RBRACKET, TOK_NEWLINE, TOK_EOF,
	)
}

func TestTokenizeLexicalErrors(t *testing.T) {
	badSources := map[string]string{
		"odd indent":     "fn main receives nothing:\n   print \"hi\"\n",
		"bad dedent":     "fn main receives nothing:\n    print \"a\"\n  print \"b\"\n",
		"bad escape":     "print \"\\q\"\n",
		"unterminated":   "print \"abc\n",
		"unknown symbol": "set x = 5 @ 3\n",
	}

	for name, src := range badSources {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected a lexical error", name)
				}
			}()

			NewLexer(src).Tokenize()
		}()
	}
}
