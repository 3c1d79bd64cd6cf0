package mir

import "daisyc/types"

// Op identifies a MIR instruction.  The constant's value is the op's spelling
// in the text dump.
type Op string

// Enumeration of the MIR ops.
const (
	// Constants and copies.
	OpConst    = Op("const")
	OpConstStr = Op("const_str")
	OpAssign   = Op("assign")

	// Integer arithmetic.
	OpAdd = Op("add")
	OpSub = Op("sub")
	OpMul = Op("mul")
	OpDiv = Op("div")
	OpNeg = Op("neg")

	// Comparisons and boolean negation.
	OpEq  = Op("eq")
	OpNe  = Op("ne")
	OpLt  = Op("lt")
	OpGt  = Op("gt")
	OpLe  = Op("le")
	OpGe  = Op("ge")
	OpNot = Op("not")

	// Calls and task spawning.
	OpCall  = Op("call")
	OpSpawn = Op("spawn")
	OpPrint = Op("print")

	// Control flow.  `br` and `cbr` take block labels, `phi` takes
	// `label:value` pairs, one per predecessor.
	OpBr  = Op("br")
	OpCbr = Op("cbr")
	OpRet = Op("ret")
	OpPhi = Op("phi")

	// Buffers and views.  A view borrow takes the buffer, the half-open
	// borrowed range with -1 standing for an unknown bound, and `mut` or
	// `imm`.
	OpBufferCreate  = Op("buffer.create")
	OpBufferRelease = Op("buffer.release")
	OpViewBorrow    = Op("view.borrow")
	OpViewRelease   = Op("view.release")

	// Tensors.  Matmul is a first-class intrinsic so the backend may fuse it.
	OpTensorCreate  = Op("tensor.create")
	OpTensorMatmul  = Op("tensor.matmul")
	OpTensorRelease = Op("tensor.release")

	// Channels.
	OpChannelCreate  = Op("channel.create")
	OpChannelSend    = Op("channel.send")
	OpChannelRecv    = Op("channel.recv")
	OpChannelClose   = Op("channel.close")
	OpChannelRelease = Op("channel.release")

	// The predeclared Result and Option enums.
	OpResultOk        = Op("result.ok")
	OpResultErr       = Op("result.err")
	OpResultIsOk      = Op("result.is_ok")
	OpResultUnwrap    = Op("result.unwrap")
	OpResultUnwrapErr = Op("result.unwrap_err")
	OpOptionSome      = Op("option.some")
	OpOptionNone      = Op("option.none")
	OpOptionIsSome    = Op("option.is_some")
	OpOptionUnwrap    = Op("option.unwrap")

	// User defined aggregates.  The instruction's result type names the
	// aggregate being built or inspected.
	OpStructNew   = Op("struct.new")
	OpStructGet   = Op("struct.get")
	OpEnumMake    = Op("enum.make")
	OpEnumTag     = Op("enum.tag")
	OpEnumPayload = Op("enum.payload")
)

// Instr is a single MIR instruction.  Operands are value names: `%t`-prefixed
// temporaries, named local slots, block labels for the branch ops, or literal
// immediates.
type Instr struct {
	Op Op

	// The temporary or slot the instruction defines, empty when the op
	// yields nothing.
	Result string

	// The type of the defined value, nil when the op yields nothing.
	Type types.Type

	Args []string

	// Unchecked marks a release covered by an unsafe waiver: the backend
	// must not guard it against live views.
	Unchecked bool
}

// IsTerminator returns whether the instruction ends its block.
func (in *Instr) IsTerminator() bool {
	switch in.Op {
	case OpBr, OpCbr, OpRet:
		return true
	default:
		return false
	}
}
