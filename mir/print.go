package mir

import (
	"strings"

	"daisyc/types"
)

// Repr renders the module in the textual dump format written to
// `<module>.ir.txt`.
func (m *Module) Repr() string {
	sb := strings.Builder{}

	sb.WriteString("module ")
	sb.WriteString(m.Name)
	sb.WriteRune('\n')

	for _, ext := range m.Externs {
		sb.WriteRune('\n')
		sb.WriteString("extern fn ")
		sb.WriteString(ext.Name)
		sb.WriteRune('(')
		for i, p := range ext.Sig.ParamTypes {
			if i != 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(p.Repr())
		}
		sb.WriteString(") -> ")
		sb.WriteString(ext.Sig.ReturnType.Repr())
		sb.WriteRune('\n')
	}

	for _, fn := range m.Funcs {
		sb.WriteRune('\n')
		fn.repr(&sb)
	}

	return sb.String()
}

func (fn *Function) repr(sb *strings.Builder) {
	sb.WriteString("fn ")
	sb.WriteString(fn.Name)
	sb.WriteRune('(')
	for i, p := range fn.Params {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(p.Name)
		sb.WriteRune(':')
		sb.WriteString(p.Type.Repr())
	}
	sb.WriteString(") -> ")
	sb.WriteString(fn.ReturnType.Repr())
	sb.WriteString(":\n")

	for _, block := range fn.Blocks {
		sb.WriteString(block.Label)
		sb.WriteString(":\n")

		for _, in := range block.Instrs {
			sb.WriteString("  ")
			sb.WriteString(in.repr())
			sb.WriteRune('\n')
		}
	}
}

// repr renders one instruction as `res:type = op args` or `op args`.
func (in *Instr) repr() string {
	sb := strings.Builder{}

	if in.Result != "" {
		sb.WriteString(in.Result)
		sb.WriteRune(':')
		sb.WriteString(typeRepr(in.Type))
		sb.WriteString(" = ")
	}

	sb.WriteString(string(in.Op))
	for _, arg := range in.Args {
		sb.WriteRune(' ')
		sb.WriteString(arg)
	}

	if in.Unchecked {
		sb.WriteString(" unchecked")
	}

	return sb.String()
}

func typeRepr(typ types.Type) string {
	if typ == nil {
		return "nothing"
	}

	return typ.Repr()
}
