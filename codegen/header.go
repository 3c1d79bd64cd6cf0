package codegen

import (
	"strings"

	"daisyc/mir"
	"daisyc/util"
)

// Header renders the public signature header for a module: the aggregate
// typedefs its signatures mention plus one prototype per function.
func (g *Generator) Header(m *mir.Module) string {
	g.cur = m
	sb := &strings.Builder{}

	sb.WriteString("#pragma once\n\n")
	sb.WriteString("#include <stdint.h>\n")
	sb.WriteString("#include \"rt.h\"\n\n")

	emitted := make(map[string]bool)
	for _, fn := range m.Funcs {
		for _, p := range fn.Params {
			g.emitAggregate(sb, p.Type, emitted)
		}
		if fn.ReturnType != nil {
			g.emitAggregate(sb, fn.ReturnType, emitted)
		}
	}
	if len(emitted) > 0 {
		sb.WriteRune('\n')
	}

	for _, fn := range m.Funcs {
		sb.WriteString(g.headerProto(m, fn) + ";\n")
	}

	return sb.String()
}

func (g *Generator) headerProto(m *mir.Module, fn *mir.Function) string {
	params := util.Map(fn.Params, func(p mir.Param) string {
		return g.cDecl(p.Name, p.Type)
	})

	name := Mangle(m.Name, fn.Name)
	if fn.Name == "main" {
		name = "main"
	}

	return g.returnCType(fn.ReturnType) + " " + name + "(" + strings.Join(params, ", ") + ")"
}
