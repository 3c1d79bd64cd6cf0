package codegen

import (
	"strconv"
	"strings"

	"daisyc/mir"
	"daisyc/types"
	"daisyc/util"
)

// Options are the compile-time feature toggles the emitter recognizes.
type Options struct {
	// RTChecks surrounds view, buffer, vector, channel, and socket accesses
	// with guards calling the runtime fail handler.
	RTChecks bool
}

// Generator emits one C11 translation unit per lowered module.  All runtime
// services are invoked through the fixed symbol table in rt.h; the generator
// never inlines runtime logic.
type Generator struct {
	// Every lowered module in the program, by name, for cross-module call
	// signature lookup.
	mods map[string]*mir.Module

	// The module being emitted.
	cur *mir.Module

	opts Options
}

// New creates a generator over a whole lowered program.
func New(mods []*mir.Module, opts Options) *Generator {
	g := &Generator{mods: make(map[string]*mir.Module, len(mods)), opts: opts}
	for _, m := range mods {
		g.mods[m.Name] = m
	}

	return g
}

// Generate emits the translation unit for one module.
func (g *Generator) Generate(m *mir.Module) string {
	g.cur = m
	sb := &strings.Builder{}

	if g.opts.RTChecks {
		sb.WriteString("#define DAISY_RT_CHECKS 1\n")
	}
	sb.WriteString("#include <stdint.h>\n")
	sb.WriteString("#include \"rt.h\"\n\n")

	g.emitTypedefs(sb, m)
	g.emitExternDecls(sb, m)
	g.emitForeignProtos(sb, m)
	g.emitOwnProtos(sb, m)

	for _, fn := range m.Funcs {
		g.emitFunction(sb, fn)
		sb.WriteRune('\n')
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// emitTypedefs writes the struct and enum typedefs the module references,
// dependencies first so every member type is complete at its use.
func (g *Generator) emitTypedefs(sb *strings.Builder, m *mir.Module) {
	emitted := make(map[string]bool)

	for _, st := range m.Structs {
		g.emitStructTypedef(sb, st, emitted)
	}
	for _, et := range m.Enums {
		g.emitEnumTypedef(sb, et, emitted)
	}

	if len(m.Structs) > 0 || len(m.Enums) > 0 {
		sb.WriteRune('\n')
	}
}

func (g *Generator) emitAggregate(sb *strings.Builder, typ types.Type, emitted map[string]bool) {
	switch v := typ.(type) {
	case *types.StructType:
		g.emitStructTypedef(sb, v, emitted)
	case *types.EnumType:
		g.emitEnumTypedef(sb, v, emitted)
	}
}

func (g *Generator) emitStructTypedef(sb *strings.Builder, st *types.StructType, emitted map[string]bool) {
	name := g.structTypeName(st)
	if emitted[name] {
		return
	}
	emitted[name] = true

	for _, field := range st.Fields {
		g.emitAggregate(sb, field.Type, emitted)
	}

	sb.WriteString("typedef struct " + name + " {\n")
	for _, field := range st.Fields {
		sb.WriteString("  " + g.cDecl(field.Name, field.Type) + ";\n")
	}
	sb.WriteString("} " + name + ";\n")
}

// emitEnumTypedef writes an enum as a tagged union.  Single payload cases
// store the payload directly; multi payload cases wrap their elements in a
// positional struct.
func (g *Generator) emitEnumTypedef(sb *strings.Builder, et *types.EnumType, emitted map[string]bool) {
	name := g.enumTypeName(et)
	if emitted[name] {
		return
	}
	emitted[name] = true

	for _, c := range et.Cases {
		for _, elem := range c.Elems {
			g.emitAggregate(sb, elem, emitted)
		}
	}

	sb.WriteString("typedef struct " + name + " {\n")
	sb.WriteString("  int64_t tag;\n")
	sb.WriteString("  union {\n")
	for _, c := range et.Cases {
		switch len(c.Elems) {
		case 0:
		case 1:
			sb.WriteString("    " + g.cDecl(sanitizeTypeName(c.Name), c.Elems[0]) + ";\n")
		default:
			sb.WriteString("    struct {\n")
			for j, elem := range c.Elems {
				sb.WriteString("      " + g.cDecl("_"+strconv.Itoa(j), elem) + ";\n")
			}
			sb.WriteString("    } " + sanitizeTypeName(c.Name) + ";\n")
		}
	}
	sb.WriteString("  } data;\n")
	sb.WriteString("} " + name + ";\n")
}

// -----------------------------------------------------------------------------

// emitExternDecls declares the raw C symbols the module bound with `extern`.
func (g *Generator) emitExternDecls(sb *strings.Builder, m *mir.Module) {
	for _, ext := range m.Externs {
		params := make([]string, len(ext.Sig.ParamTypes))
		for i, p := range ext.Sig.ParamTypes {
			params[i] = g.cDecl("a"+strconv.Itoa(i), p)
		}

		sb.WriteString("extern " + g.cType(ext.Sig.ReturnType) + " " + ext.Name +
			"(" + strings.Join(params, ", ") + ");\n")
	}

	if len(m.Externs) > 0 {
		sb.WriteRune('\n')
	}
}

// emitForeignProtos declares the cross-module functions the unit calls, in
// callee name order so the output is deterministic.
func (g *Generator) emitForeignProtos(sb *strings.Builder, m *mir.Module) {
	callees := make(map[string]bool)
	for _, fn := range m.Funcs {
		for _, block := range fn.Blocks {
			for _, in := range block.Instrs {
				if in.Op == mir.OpCall && len(in.Args) > 0 && strings.Contains(in.Args[0], ".") {
					callees[in.Args[0]] = true
				}
			}
		}
	}

	emitted := false
	for _, callee := range util.SortedKeys(callees) {
		modName, fnName, _ := strings.Cut(callee, ".")
		target, ok := g.lookupFunc(modName, fnName)
		if !ok {
			continue
		}

		params := make([]string, len(target.Params))
		for i, p := range target.Params {
			params[i] = g.cDecl("a"+strconv.Itoa(i), p.Type)
		}

		sb.WriteString("extern " + g.returnCType(target.ReturnType) + " " + Mangle(modName, fnName) +
			"(" + strings.Join(params, ", ") + ");\n")
		emitted = true
	}

	if emitted {
		sb.WriteRune('\n')
	}
}

// emitOwnProtos forward declares the module's own functions so emission
// order never matters.
func (g *Generator) emitOwnProtos(sb *strings.Builder, m *mir.Module) {
	emitted := false
	for _, fn := range m.Funcs {
		if fn.Name == "main" {
			continue
		}

		sb.WriteString(g.fnSignature(fn) + ";\n")
		emitted = true
	}

	if emitted {
		sb.WriteRune('\n')
	}
}

// fnSignature renders a function's C signature with its parameter names.
func (g *Generator) fnSignature(fn *mir.Function) string {
	params := util.Map(fn.Params, func(p mir.Param) string {
		return g.cDecl(p.Name, p.Type)
	})

	name := Mangle(g.cur.Name, fn.Name)
	if fn.Name == "main" {
		name = "main"
	}

	return g.returnCType(fn.ReturnType) + " " + name + "(" + strings.Join(params, ", ") + ")"
}

// returnCType maps a return type, treating the missing type as unit.
func (g *Generator) returnCType(typ types.Type) string {
	if typ == nil {
		return "int64_t"
	}

	return g.cType(typ)
}

// lookupFunc finds a lowered function by module and name.
func (g *Generator) lookupFunc(modName, fnName string) (*mir.Function, bool) {
	m, ok := g.mods[modName]
	if !ok {
		return nil, false
	}

	for _, fn := range m.Funcs {
		if fn.Name == fnName {
			return fn, true
		}
	}

	return nil, false
}
