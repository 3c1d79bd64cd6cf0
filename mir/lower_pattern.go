package mir

import (
	"strconv"

	"daisyc/ast"
	"daisyc/types"
)

// lowerPattern lowers the tests and bindings of a match pattern against a
// value.  Failed tests branch to the fail block; bindings land in the current
// scope.
func (l *lowerer) lowerPattern(pat ast.Pattern, val string, typ types.Type, fail *Block) {
	switch v := pat.(type) {
	case *ast.WildcardPattern:

	case *ast.LiteralPattern:
		lit := l.materializeLiteral(v.Kind, v.Value)
		cond := l.newTemp()
		l.emit(&Instr{Op: OpEq, Result: cond, Type: boolType, Args: []string{val, lit}})
		l.branchUnless(cond, fail)
	case *ast.BindPattern:
		// A binding naming a bare case of the matched enum tests the tag
		// instead of binding.
		if et, ok := typ.(*types.EnumType); ok {
			if c, idx, ok := caseIndexOf(et, v.Name); ok && len(c.Elems) == 0 {
				l.tagTest(val, idx, fail)
				return
			}
		}

		l.define(v.Name, typ)
		l.emit(&Instr{Op: OpAssign, Result: v.Name, Type: typ, Args: []string{val}})
	case *ast.EnumPattern:
		et, ok := typ.(*types.EnumType)
		if !ok {
			return
		}

		c, idx, ok := caseIndexOf(et, v.CaseName)
		if !ok {
			return
		}

		l.tagTest(val, idx, fail)
		for j, sub := range v.Elems {
			payload := l.newTemp()
			l.emit(&Instr{Op: OpEnumPayload, Result: payload, Type: c.Elems[j],
				Args: []string{val, strconv.Itoa(idx), strconv.Itoa(j)}})
			l.lowerPattern(sub, payload, c.Elems[j], fail)
		}
	case *ast.StructPattern:
		st, ok := typ.(*types.StructType)
		if !ok {
			return
		}

		for _, f := range v.Fields {
			field, ok := st.GetFieldByName(f.Name)
			if !ok {
				continue
			}

			fv := l.newTemp()
			l.emit(&Instr{Op: OpStructGet, Result: fv, Type: field.Type,
				Args: []string{val, strconv.Itoa(st.Indices[f.Name])}})
			l.lowerPattern(f.Pattern, fv, field.Type, fail)
		}
	}
}

// tagTest branches to the fail block unless the value's discriminant equals
// the expected case index.
func (l *lowerer) tagTest(val string, idx int, fail *Block) {
	tag := l.newTemp()
	l.emit(&Instr{Op: OpEnumTag, Result: tag, Type: intType, Args: []string{val}})

	want := l.newTemp()
	l.emit(&Instr{Op: OpConst, Result: want, Type: intType, Args: []string{strconv.Itoa(idx)}})

	cond := l.newTemp()
	l.emit(&Instr{Op: OpEq, Result: cond, Type: boolType, Args: []string{tag, want}})
	l.branchUnless(cond, fail)
}
