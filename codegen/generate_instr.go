package codegen

import (
	"strconv"
	"strings"

	"daisyc/mir"
	"daisyc/types"
)

// binaryCOps maps the arithmetic and comparison ops onto their C operators.
var binaryCOps = map[mir.Op]string{
	mir.OpAdd: "+",
	mir.OpSub: "-",
	mir.OpMul: "*",
	mir.OpDiv: "/",
	mir.OpEq:  "==",
	mir.OpNe:  "!=",
	mir.OpLt:  "<",
	mir.OpGt:  ">",
	mir.OpLe:  "<=",
	mir.OpGe:  ">=",
}

// emitInstr emits one instruction inside the block with the given label.
func (e *fnEmitter) emitInstr(label string, in *mir.Instr) {
	if op, ok := binaryCOps[in.Op]; ok {
		lhs, rhs := e.operand(in.Args[0]), e.operand(in.Args[1])
		switch in.Op {
		case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv:
			e.line(e.assignTo(in) + lhs + " " + op + " " + rhs + ";")
		default:
			e.line(e.assignTo(in) + "(" + lhs + " " + op + " " + rhs + ");")
		}

		return
	}

	switch in.Op {
	case mir.OpConst, mir.OpConstStr:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ";")
	case mir.OpAssign:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ";")
		e.transferOwnership(in.Result, in.Args[0])
	case mir.OpNeg:
		e.line(e.assignTo(in) + "-" + e.operand(in.Args[0]) + ";")
	case mir.OpNot:
		e.line(e.assignTo(in) + "!" + e.operand(in.Args[0]) + ";")
	case mir.OpPhi:
		// Realized as assignments on the incoming edges.

	case mir.OpBr:
		e.emitPhiMoves(label)
		e.line("goto " + in.Args[0] + ";")
	case mir.OpCbr:
		e.emitPhiMoves(label)
		e.line("if (" + e.operand(in.Args[0]) + ") goto " + in.Args[1] + "; else goto " + in.Args[2] + ";")
	case mir.OpRet:
		if len(in.Args) > 0 {
			e.escaped[in.Args[0]] = true
		}
		e.emitCleanup()
		if len(in.Args) > 0 {
			e.line("return " + e.operand(in.Args[0]) + ";")
		} else {
			e.line("return 0;")
		}

	case mir.OpCall:
		e.emitCall(in)
	case mir.OpSpawn:
		e.emitSpawn(in)
	case mir.OpPrint:
		value := e.operand(in.Args[0])
		if e.varTypes[in.Args[0]] == types.PrimTypeString {
			e.line("daisy_print_str(" + value + ");")
		} else {
			e.line("daisy_print_int(" + value + ");")
		}

	case mir.OpBufferCreate:
		if size, ok := e.stackBufs[in.Result]; ok {
			e.line(cName(in.Result) + " = (DaisyBuffer){ " + cName(in.Result) + "_stack, " +
				strconv.FormatInt(size, 10) + " };")
			e.own(in.Result, "buffer_stack")
		} else {
			e.line(e.assignTo(in) + "daisy_buffer_create(" + e.operand(in.Args[0]) + ");")
			e.own(in.Result, "buffer")
		}
	case mir.OpBufferRelease:
		target := cName(in.Args[0])
		if e.g.opts.RTChecks && !in.Unchecked {
			e.line("DAISY_RT_ASSERT(" + target + ".data != 0, \"buffer.release\");")
		}
		e.line("daisy_buffer_release(&" + target + ");")
		e.markReleased(in.Args[0])
	case mir.OpViewBorrow:
		buf, start, end := e.operand(in.Args[0]), e.operand(in.Args[1]), e.operand(in.Args[2])
		flag := "0"
		if in.Args[3] == "mut" {
			flag = "1"
		}
		if e.g.opts.RTChecks {
			e.line("DAISY_RT_ASSERT(" + start + " >= 0 && (" + end + " < 0 || " + end + " <= " +
				buf + ".size), \"view.borrow\");")
		}
		e.line(e.assignTo(in) + "daisy_buffer_borrow(&" + buf + ", " + start + ", " + end + ", " + flag + ");")
	case mir.OpViewRelease:
		// Views borrow, they do not own: nothing to free.

	case mir.OpTensorCreate:
		e.line(e.assignTo(in) + "daisy_tensor_create(" + e.operand(in.Args[0]) + ", " + e.operand(in.Args[1]) + ");")
		e.own(in.Result, "tensor")
	case mir.OpTensorMatmul:
		e.line(e.assignTo(in) + "daisy_tensor_matmul(" + e.operand(in.Args[0]) + ", " + e.operand(in.Args[1]) + ");")
		e.own(in.Result, "tensor")
	case mir.OpTensorRelease:
		e.line("daisy_tensor_release(&" + cName(in.Args[0]) + ");")
		e.markReleased(in.Args[0])

	case mir.OpChannelCreate:
		e.line(e.assignTo(in) + "daisy_channel_create();")
		e.own(in.Result, "channel")
	case mir.OpChannelSend:
		ch := e.operand(in.Args[0])
		if e.g.opts.RTChecks {
			e.line("DAISY_RT_ASSERT(" + ch + " != 0, \"channel.send\");")
		}
		e.line("daisy_channel_send(" + ch + ", " + e.operand(in.Args[1]) + ");")
	case mir.OpChannelRecv:
		ch := e.operand(in.Args[0])
		if e.g.opts.RTChecks {
			e.line("DAISY_RT_ASSERT(" + ch + " != 0, \"channel.recv\");")
		}
		e.line(e.assignTo(in) + "daisy_channel_recv(" + ch + ");")
	case mir.OpChannelClose:
		e.line("daisy_channel_close(" + e.operand(in.Args[0]) + ");")
	case mir.OpChannelRelease:
		e.line("daisy_channel_release(" + e.operand(in.Args[0]) + ");")
		e.markReleased(in.Args[0])

	case mir.OpResultOk:
		e.emitEnumConstruct(in, "Ok", 0)
	case mir.OpResultErr:
		e.emitEnumConstruct(in, "Err", 1)
	case mir.OpOptionSome:
		e.emitEnumConstruct(in, "Some", 0)
	case mir.OpOptionNone:
		e.line(cName(in.Result) + ".tag = 1;")
	case mir.OpResultIsOk, mir.OpOptionIsSome:
		e.line(e.assignTo(in) + "(" + e.operand(in.Args[0]) + ".tag == 0);")
	case mir.OpResultUnwrap:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ".data.Ok;")
	case mir.OpResultUnwrapErr:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ".data.Err;")
	case mir.OpOptionUnwrap:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ".data.Some;")

	case mir.OpStructNew:
		st := in.Type.(*types.StructType)
		for i, arg := range in.Args {
			if i < len(st.Fields) {
				e.line(cName(in.Result) + "." + st.Fields[i].Name + " = " + e.operand(arg) + ";")
			}
		}
	case mir.OpStructGet:
		base := in.Args[0]
		idx, _ := strconv.Atoi(in.Args[1])
		st, ok := e.varTypes[base].(*types.StructType)
		if !ok || idx >= len(st.Fields) {
			return
		}
		e.line(e.assignTo(in) + e.operand(base) + "." + st.Fields[idx].Name + ";")
	case mir.OpEnumMake:
		et := in.Type.(*types.EnumType)
		idx, _ := strconv.Atoi(in.Args[0])
		e.line(cName(in.Result) + ".tag = " + in.Args[0] + ";")
		if idx < len(et.Cases) {
			e.emitPayloadStores(in.Result, et.Cases[idx], in.Args[1:])
		}
	case mir.OpEnumTag:
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ".tag;")
	case mir.OpEnumPayload:
		et, ok := e.varTypes[in.Args[0]].(*types.EnumType)
		if !ok {
			return
		}
		caseIdx, _ := strconv.Atoi(in.Args[1])
		elemIdx, _ := strconv.Atoi(in.Args[2])
		if caseIdx >= len(et.Cases) {
			return
		}
		e.line(e.assignTo(in) + e.operand(in.Args[0]) + ".data." +
			payloadMember(et.Cases[caseIdx], elemIdx) + ";")
	}
}

// -----------------------------------------------------------------------------

// emitPhiMoves writes the assignments that realize phi nodes whose value
// arrives over the edge leaving this block.
func (e *fnEmitter) emitPhiMoves(label string) {
	for _, move := range e.phiMoves[label] {
		e.line(cName(move.dst) + " = " + e.operand(move.src) + ";")
	}
}

// emitEnumConstruct builds a Result or Option value in place.
func (e *fnEmitter) emitEnumConstruct(in *mir.Instr, member string, tag int) {
	e.line(cName(in.Result) + ".tag = " + strconv.Itoa(tag) + ";")
	if len(in.Args) > 0 {
		e.line(cName(in.Result) + ".data." + member + " = " + e.operand(in.Args[0]) + ";")
	}
}

// emitPayloadStores assigns a constructed case's payload elements.
func (e *fnEmitter) emitPayloadStores(result string, c types.EnumCase, args []string) {
	for j, arg := range args {
		if j >= len(c.Elems) {
			break
		}

		e.line(cName(result) + ".data." + payloadMember(c, j) + " = " + e.operand(arg) + ";")
	}
}

// payloadMember names a case payload element: the bare case member for a
// single payload, a positional field inside the case struct otherwise.
func payloadMember(c types.EnumCase, elem int) string {
	if len(c.Elems) == 1 {
		return sanitizeTypeName(c.Name)
	}

	return sanitizeTypeName(c.Name) + "._" + strconv.Itoa(elem)
}

// -----------------------------------------------------------------------------

// emitCall emits a call instruction: a runtime builtin, an extern, a
// cross-module function, a local function value, or a module function.
func (e *fnEmitter) emitCall(in *mir.Instr) {
	callee := in.Args[0]
	args := make([]string, len(in.Args)-1)
	for i, arg := range in.Args[1:] {
		args[i] = e.operand(arg)
		if kind := ownKind(e.varTypes[arg]); kind != "" {
			e.escaped[arg] = true
		}
	}
	joined := strings.Join(args, ", ")

	if sym, ok := runtimeSymbols[callee]; ok {
		if e.g.opts.RTChecks {
			e.emitBuiltinGuard(callee, args)
		}

		e.line(e.assignTo(in) + sym + "(" + joined + ");")

		if releasingBuiltins[callee] && len(in.Args) > 1 {
			e.markReleased(in.Args[1])
		}
		if in.Result != "" && !unownedResults[callee] {
			if kind := ownKind(in.Type); kind != "" {
				e.own(in.Result, kind)
			}
		}

		return
	}

	e.line(e.assignTo(in) + e.calleeSymbol(callee) + "(" + joined + ");")

	if in.Result != "" {
		if kind := ownKind(in.Type); kind != "" {
			e.own(in.Result, kind)
		}
	}
}

// calleeSymbol resolves a MIR callee to the C symbol or expression invoked.
func (e *fnEmitter) calleeSymbol(callee string) string {
	if modName, fnName, ok := strings.Cut(callee, "."); ok {
		return Mangle(modName, fnName)
	}

	if _, ok := e.varTypes[callee]; ok {
		return cName(callee)
	}

	for _, ext := range e.g.cur.Externs {
		if ext.Name == callee {
			return callee
		}
	}

	return Mangle(e.g.cur.Name, callee)
}

// emitBuiltinGuard writes the runtime check in front of a guarded builtin.
func (e *fnEmitter) emitBuiltinGuard(callee string, args []string) {
	switch callee {
	case "vec_get":
		e.line("DAISY_RT_ASSERT(" + args[1] + " >= 0 && " + args[1] + " < daisy_vec_len(" +
			args[0] + "), \"vec.get\");")
	case "vec_push", "vec_len", "vec_release":
		e.line("DAISY_RT_ASSERT(" + args[0] + " != 0, \"vec\");")
	case "net_send", "net_recv", "net_close":
		e.line("DAISY_RT_ASSERT(" + args[0] + " >= 0, \"net\");")
	}
}

// emitSpawn emits a thread spawn, with or without its channel argument.
func (e *fnEmitter) emitSpawn(in *mir.Instr) {
	target := e.calleeSymbol(in.Args[0])
	if len(in.Args) == 2 {
		e.line("daisy_spawn_with_channel((void*)" + target + ", " + e.operand(in.Args[1]) + ");")
	} else {
		e.line("daisy_spawn((void*)" + target + ");")
	}
}

// -----------------------------------------------------------------------------

// transferOwnership moves a resource's cleanup obligation from the assigned
// source to the destination slot.
func (e *fnEmitter) transferOwnership(dst, src string) {
	kind, ok := e.owned[src]
	if !ok || dst == src {
		return
	}

	e.own(dst, kind)
	delete(e.owned, src)
}

// markReleased records that a resource was freed explicitly.
func (e *fnEmitter) markReleased(name string) {
	e.released[name] = true
	delete(e.owned, name)
}
