package walk

import (
	"daisyc/ast"
	"daisyc/report"
	"daisyc/types"
)

// walkPattern checks a match pattern against the type it destructures and
// introduces the bindings it makes into the current scope.
func (w *Walker) walkPattern(pattern ast.Pattern, expected types.Type) {
	switch v := pattern.(type) {
	case *ast.WildcardPattern:

	case *ast.LiteralPattern:
		w.mustEqual(expected, literalType(v.Kind), v.Span())
	case *ast.BindPattern:
		// A binding that names a bare case of the scrutinee's enum matches
		// that case instead of binding a variable.
		if bindMatchesCase(v.Name, expected) {
			return
		}

		w.defineLocal(&Local{Name: v.Name, Type: expected, DefSpan: v.Span()})
	case *ast.EnumPattern:
		w.walkEnumPattern(v, expected)
	case *ast.StructPattern:
		w.walkStructPattern(v, expected)
	}
}

// bindMatchesCase returns whether a binding name coincides with a payloadless
// case of the matched enum.
func bindMatchesCase(name string, expected types.Type) bool {
	et, ok := expected.(*types.EnumType)
	if !ok {
		return false
	}

	if c, _, ok := et.GetCaseByName(name); ok {
		return len(c.Elems) == 0
	}

	if canon, ok := canonConstructor(name); ok {
		if c, _, ok := et.GetCaseByName(canon); ok {
			return len(c.Elems) == 0
		}
	}

	return false
}

func (w *Walker) walkEnumPattern(pat *ast.EnumPattern, expected types.Type) {
	et, ok := expected.(*types.EnumType)
	if !ok {
		w.error(pat.Span(), report.KindTypeMismatch,
			"cannot match an enum pattern against `%s`", reprOf(expected))
	}

	if pat.EnumName != "" && pat.EnumName != et.Name && pat.EnumName != baseNameOf(et.Name) {
		w.error(pat.Span(), report.KindTypeMismatch,
			"pattern names enum `%s`, matching against `%s`", pat.EnumName, et.Name)
	}

	c := w.enumCaseOf(et, pat.CaseName, pat.Span())
	if len(pat.Elems) != len(c.Elems) {
		w.error(pat.Span(), report.KindTypeMismatch,
			"case `%s` carries %d values, pattern destructures %d",
			c.Name, len(c.Elems), len(pat.Elems))
	}

	for i, sub := range pat.Elems {
		w.walkPattern(sub, c.Elems[i])
	}
}

func (w *Walker) walkStructPattern(pat *ast.StructPattern, expected types.Type) {
	st, ok := expected.(*types.StructType)
	if !ok {
		w.error(pat.Span(), report.KindTypeMismatch,
			"cannot match a struct pattern against `%s`", reprOf(expected))
	}

	if pat.Name != "" && pat.Name != st.Name && pat.Name != baseNameOf(st.Name) {
		w.error(pat.Span(), report.KindTypeMismatch,
			"pattern names struct `%s`, matching against `%s`", pat.Name, st.Name)
	}

	seen := make(map[string]bool)
	for _, f := range pat.Fields {
		if seen[f.Name] {
			w.error(pat.Span(), report.KindSyntaxError,
				"field `%s` destructured twice", f.Name)
		}
		seen[f.Name] = true

		field, ok := st.GetFieldByName(f.Name)
		if !ok {
			w.error(pat.Span(), report.KindUnknownSymbol,
				"struct `%s` has no field `%s`", st.Name, f.Name)
		}

		w.walkPattern(f.Pattern, field.Type)
	}
}

// -----------------------------------------------------------------------------

// checkExhaustive verifies that a match's unguarded arms cover every value of
// the scrutinee's type.  Guarded arms never count toward coverage.
func (w *Walker) checkExhaustive(match *ast.MatchStmt, scrutType types.Type) {
	covered := make(map[string]bool)

	for i := range match.Arms {
		arm := &match.Arms[i]
		if arm.Guard != nil {
			continue
		}

		switch p := arm.Pattern.(type) {
		case *ast.WildcardPattern:
			return
		case *ast.BindPattern:
			if et, ok := scrutType.(*types.EnumType); ok {
				if bindMatchesCase(p.Name, et) {
					covered[canonCaseKey(et, p.Name)] = true
					continue
				}
			}

			return
		case *ast.LiteralPattern:
			covered[p.Value] = true
		case *ast.EnumPattern:
			if et, ok := scrutType.(*types.EnumType); ok && patternsIrrefutable(p.Elems) {
				covered[canonCaseKey(et, p.CaseName)] = true
			}
		case *ast.StructPattern:
			if patternFieldsIrrefutable(p.Fields) {
				return
			}
		}
	}

	switch v := scrutType.(type) {
	case types.PrimitiveType:
		if v == types.PrimTypeBool && coversBool(covered, true) && coversBool(covered, false) {
			return
		}
	case *types.EnumType:
		all := true
		for _, c := range v.Cases {
			if !covered[c.Name] {
				all = false
				break
			}
		}

		if all {
			return
		}
	}

	w.error(match.Span(), report.KindNonExhaustiveMatch,
		"match over `%s` is not exhaustive", reprOf(scrutType))
}

// canonCaseKey normalizes a case spelling to the declared case name of the
// enum, falling back to the spelling itself.
func canonCaseKey(et *types.EnumType, name string) string {
	if _, _, ok := et.GetCaseByName(name); ok {
		return name
	}

	if canon, ok := canonConstructor(name); ok {
		if _, _, ok := et.GetCaseByName(canon); ok {
			return canon
		}
	}

	return name
}

// patternsIrrefutable returns whether every sub-pattern matches
// unconditionally.
func patternsIrrefutable(pats []ast.Pattern) bool {
	for _, p := range pats {
		switch p.(type) {
		case *ast.WildcardPattern, *ast.BindPattern:
		default:
			return false
		}
	}

	return true
}

func patternFieldsIrrefutable(fields []ast.PatternField) bool {
	for _, f := range fields {
		switch f.Pattern.(type) {
		case *ast.WildcardPattern, *ast.BindPattern:
		default:
			return false
		}
	}

	return true
}

// coversBool reports whether a covered literal set includes the given boolean
// in either surface spelling.
func coversBool(covered map[string]bool, val bool) bool {
	if val {
		return covered["true"] || covered["참"]
	}

	return covered["false"] || covered["거짓"]
}
