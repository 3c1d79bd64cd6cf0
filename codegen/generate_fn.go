package codegen

import (
	"strconv"
	"strings"

	"daisyc/mir"
	"daisyc/types"
)

// fnEmitter carries the per-function emission state: variable types, the
// ownership bookkeeping for scope-end releases, and the moves that realize
// phi nodes on their incoming edges.
type fnEmitter struct {
	g  *Generator
	fn *mir.Function
	sb *strings.Builder

	// Value name -> DAISY type, params first, then every defined result.
	varTypes map[string]types.Type

	// Owned resources in definition order, with their release kinds.
	ownedOrder []string
	owned      map[string]string
	released   map[string]bool
	escaped    map[string]bool

	// Constant values, for the stack allocation of fixed-size buffers.
	constVals map[string]int64

	// Buffers chosen for stack allocation in the pre-scan.
	stackBufs map[string]int64

	// Phi assignments keyed by the predecessor block that performs them.
	phiMoves map[string][]phiMove

	// Block labels that are branch targets and need a C label.
	targets map[string]bool
}

type phiMove struct {
	dst, src string
}

// emitFunction emits one function: hoisted declarations first, then every
// block in order, with labels only where a branch lands.
func (g *Generator) emitFunction(sb *strings.Builder, fn *mir.Function) {
	e := &fnEmitter{
		g:         g,
		fn:        fn,
		sb:        sb,
		varTypes:  make(map[string]types.Type),
		owned:     make(map[string]string),
		released:  make(map[string]bool),
		escaped:   make(map[string]bool),
		constVals: make(map[string]int64),
		stackBufs: make(map[string]int64),
		phiMoves:  make(map[string][]phiMove),
		targets:   make(map[string]bool),
	}

	for _, p := range fn.Params {
		e.varTypes[p.Name] = p.Type
	}

	e.scan()

	sb.WriteString(g.fnSignature(fn) + " {\n")
	e.emitDecls()

	for _, block := range fn.Blocks {
		if e.targets[block.Label] {
			sb.WriteString(block.Label + ":;\n")
		}

		for _, in := range block.Instrs {
			e.emitInstr(block.Label, in)
		}
	}

	if isUnit(fn.ReturnType) && !endsInReturn(fn) {
		sb.WriteString("  return 0;\n")
	}
	sb.WriteString("}\n")
}

// -----------------------------------------------------------------------------

// scan runs the pre-pass over the whole body: constant values, branch
// targets, phi moves, and the escape analysis that decides which buffers can
// live on the stack.
func (e *fnEmitter) scan() {
	releaseTargets := make(map[string]bool)
	escapes := make(map[string]bool)
	var assigns [][2]string

	for _, block := range e.fn.Blocks {
		for _, in := range block.Instrs {
			switch in.Op {
			case mir.OpConst:
				if v, err := strconv.ParseInt(in.Args[0], 10, 64); err == nil {
					e.constVals[in.Result] = v
				}
			case mir.OpBufferRelease, mir.OpTensorRelease, mir.OpChannelRelease:
				releaseTargets[in.Args[0]] = true
			case mir.OpAssign:
				assigns = append(assigns, [2]string{in.Result, in.Args[0]})
			case mir.OpCall:
				for _, arg := range in.Args[1:] {
					escapes[arg] = true
				}
			case mir.OpSpawn, mir.OpChannelSend, mir.OpTensorMatmul, mir.OpStructNew, mir.OpEnumMake,
				mir.OpResultOk, mir.OpResultErr, mir.OpOptionSome:
				for _, arg := range in.Args {
					escapes[arg] = true
				}
			case mir.OpRet:
				if len(in.Args) > 0 {
					escapes[in.Args[0]] = true
				}
			case mir.OpBr:
				e.targets[in.Args[0]] = true
			case mir.OpCbr:
				e.targets[in.Args[1]] = true
				e.targets[in.Args[2]] = true
			case mir.OpPhi:
				for _, arg := range in.Args {
					label, value, _ := strings.Cut(arg, ":")
					e.phiMoves[label] = append(e.phiMoves[label], phiMove{dst: in.Result, src: value})
				}
			}
		}
	}

	// An assignment aliases its source: the source shares the fate of the
	// destination.  Iterate to a fixpoint over assignment chains.
	for changed := true; changed; {
		changed = false
		for _, a := range assigns {
			dst, src := a[0], a[1]
			if releaseTargets[dst] && !releaseTargets[src] {
				releaseTargets[src] = true
				changed = true
			}
			if escapes[dst] && !escapes[src] {
				escapes[src] = true
				changed = true
			}
		}
	}

	for _, block := range e.fn.Blocks {
		for _, in := range block.Instrs {
			if in.Op != mir.OpBufferCreate {
				continue
			}

			size, known := e.constVals[in.Args[0]]
			if known && size > 0 && !releaseTargets[in.Result] && !escapes[in.Result] {
				e.stackBufs[in.Result] = size
			}
		}
	}
}

// emitDecls hoists every defined value to a declaration at the top of the
// function body, so values crossing block boundaries stay in scope across
// the gotos.
func (e *fnEmitter) emitDecls() {
	declared := make(map[string]bool)
	for _, block := range e.fn.Blocks {
		for _, in := range block.Instrs {
			if in.Result == "" || in.Type == nil || declared[in.Result] {
				continue
			}
			declared[in.Result] = true
			e.varTypes[in.Result] = in.Type

			if size, ok := e.stackBufs[in.Result]; ok {
				e.line("uint8_t " + cName(in.Result) + "_stack[" + strconv.FormatInt(size, 10) + "];")
			}
			e.line(e.g.cDecl(cName(in.Result), in.Type) + ";")
		}
	}

	if len(declared) > 0 {
		e.sb.WriteRune('\n')
	}
}

// -----------------------------------------------------------------------------

func (e *fnEmitter) line(text string) {
	e.sb.WriteString("  " + text + "\n")
}

// operand renders a MIR operand as a C expression.  Bool spellings become
// 0 and 1, literals pass through, known module functions mangle, and
// everything else is a variable reference.
func (e *fnEmitter) operand(arg string) string {
	switch {
	case arg == "true":
		return "1"
	case arg == "false":
		return "0"
	case arg == "":
		return "0"
	}

	c := arg[0]
	if c == '"' || c == '-' || ('0' <= c && c <= '9') {
		return arg
	}

	if _, ok := e.varTypes[arg]; ok {
		return cName(arg)
	}

	if modName, fnName, ok := strings.Cut(arg, "."); ok {
		if _, found := e.g.lookupFunc(modName, fnName); found {
			return Mangle(modName, fnName)
		}
	}

	for _, ext := range e.g.cur.Externs {
		if ext.Name == arg {
			return arg
		}
	}

	if _, ok := e.g.lookupFunc(e.g.cur.Name, arg); ok {
		return Mangle(e.g.cur.Name, arg)
	}

	return cName(arg)
}

// assignTo renders the `name = ` prefix, or nothing when the instruction
// has no result.
func (e *fnEmitter) assignTo(in *mir.Instr) string {
	if in.Result == "" {
		return ""
	}

	return cName(in.Result) + " = "
}

// own registers a resource for scope-end cleanup.
func (e *fnEmitter) own(name, kind string) {
	if _, ok := e.owned[name]; !ok {
		e.ownedOrder = append(e.ownedOrder, name)
	}

	e.owned[name] = kind
}

// emitCleanup releases every owned, unreleased, unescaped resource.  Runs at
// each return; resources already handled stay handled.
func (e *fnEmitter) emitCleanup() {
	for _, name := range e.ownedOrder {
		kind, ok := e.owned[name]
		if !ok || e.released[name] || e.escaped[name] {
			continue
		}

		switch kind {
		case "buffer":
			e.line("daisy_buffer_release(&" + cName(name) + ");")
		case "buffer_stack":
		case "tensor":
			e.line("daisy_tensor_release(&" + cName(name) + ");")
		case "channel":
			e.line("daisy_channel_release(" + cName(name) + ");")
		case "string":
			e.line("daisy_str_release(" + cName(name) + ");")
		case "vec":
			e.line("daisy_vec_release(" + cName(name) + ");")
		}

		e.released[name] = true
	}
}

// ownKind classifies a type for cleanup purposes.  The empty kind means the
// value is not a releasable resource.
func ownKind(typ types.Type) string {
	switch v := typ.(type) {
	case types.PrimitiveType:
		switch v {
		case types.PrimTypeString:
			return "string"
		case types.PrimTypeBuffer:
			return "buffer"
		case types.PrimTypeTensor:
			return "tensor"
		case types.PrimTypeChannel:
			return "channel"
		}
	case *types.VectorType:
		return "vec"
	}

	return ""
}

func isUnit(typ types.Type) bool {
	return typ == nil || types.IsUnit(typ)
}

func endsInReturn(fn *mir.Function) bool {
	last := fn.Blocks[len(fn.Blocks)-1]
	return len(last.Instrs) > 0 && last.Instrs[len(last.Instrs)-1].Op == mir.OpRet
}
