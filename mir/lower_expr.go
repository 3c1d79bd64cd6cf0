package mir

import (
	"strconv"
	"strings"

	"daisyc/ast"
	"daisyc/syntax"
	"daisyc/types"
	"daisyc/walk"
)

var (
	intType  = types.PrimTypeInt
	boolType = types.PrimTypeBool
)

// lowerExpr lowers an expression into the current block and returns the
// operand naming its value.
func (l *lowerer) lowerExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Literal:
		return l.materializeLiteral(v.Kind, v.Value)
	case *ast.Identifier:
		if _, ok := l.lookup(v.Name); ok {
			return v.Name
		}

		// A module level function used as a value.
		return l.calleeName(v.Name)
	case *ast.Call:
		return l.lowerCall(v)
	case *ast.Dot:
		return l.lowerDot(v)
	case *ast.BinaryOp:
		return l.lowerBinary(v)
	case *ast.LogicalOp:
		return l.lowerLogical(v)
	case *ast.UnaryOp:
		operand := l.lowerExpr(v.Operand)
		t := l.newTemp()
		if v.OpKind == syntax.TOK_NOT {
			l.emit(&Instr{Op: OpNot, Result: t, Type: boolType, Args: []string{operand}})
		} else {
			l.emit(&Instr{Op: OpNeg, Result: t, Type: intType, Args: []string{operand}})
		}

		return t
	case *ast.TryExpr:
		return l.lowerTry(v)
	case *ast.MoveExpr:
		return l.lowerExpr(v.Operand)
	case *ast.CopyExpr:
		val := l.lowerExpr(v.Operand)
		t := l.newTemp()
		l.emit(&Instr{Op: OpAssign, Result: t, Type: v.Type(), Args: []string{val}})
		return t
	case *ast.BufferCreate:
		size := l.lowerExpr(v.Size)
		t := l.newTemp()
		l.emit(&Instr{Op: OpBufferCreate, Result: t, Type: types.PrimTypeBuffer, Args: []string{size}})
		return t
	case *ast.BorrowExpr:
		buf := l.lowerExpr(v.Operand)
		return l.emitBorrow(buf, "0", "-1", v.Mutable, v.Type())
	case *ast.BorrowRange:
		buf := l.lowerExpr(v.Buffer)
		start := l.lowerExpr(v.Start)
		end := l.lowerExpr(v.End)
		return l.emitBorrow(buf, start, end, v.Mutable, v.Type())
	default:
		return ""
	}
}

// materializeLiteral emits a constant into a fresh temporary.  Boolean
// spellings from both surfaces normalize to `true`/`false` so the dump does
// not depend on the source surface.
func (l *lowerer) materializeLiteral(kind int, value string) string {
	t := l.newTemp()

	switch kind {
	case syntax.TOK_INTLIT:
		l.emit(&Instr{Op: OpConst, Result: t, Type: intType, Args: []string{value}})
	case syntax.TOK_BOOLLIT:
		l.emit(&Instr{Op: OpConst, Result: t, Type: boolType, Args: []string{normalizeBool(value)}})
	default:
		l.emit(&Instr{Op: OpConstStr, Result: t, Type: types.PrimTypeString, Args: []string{strconv.Quote(value)}})
	}

	return t
}

func normalizeBool(value string) string {
	if value == "true" || value == "참" {
		return "true"
	}

	return "false"
}

func (l *lowerer) emitBorrow(buf, start, end string, mutable bool, typ types.Type) string {
	kind := "imm"
	if mutable {
		kind = "mut"
	}

	t := l.newTemp()
	l.emit(&Instr{Op: OpViewBorrow, Result: t, Type: typ, Args: []string{buf, start, end, kind}})
	return t
}

// -----------------------------------------------------------------------------

// binaryOps maps operator token kinds onto MIR ops.
var binaryOps = map[int]Op{
	syntax.TOK_PLUS:  OpAdd,
	syntax.TOK_MINUS: OpSub,
	syntax.TOK_STAR:  OpMul,
	syntax.TOK_DIV:   OpDiv,
	syntax.TOK_EQ:    OpEq,
	syntax.TOK_NEQ:   OpNe,
	syntax.TOK_LT:    OpLt,
	syntax.TOK_GT:    OpGt,
	syntax.TOK_LTEQ:  OpLe,
	syntax.TOK_GTEQ:  OpGe,
}

func (l *lowerer) lowerBinary(v *ast.BinaryOp) string {
	lhs := l.lowerExpr(v.Lhs)
	rhs := l.lowerExpr(v.Rhs)

	t := l.newTemp()
	l.emit(&Instr{Op: binaryOps[v.OpKind], Result: t, Type: v.Type(), Args: []string{lhs, rhs}})
	return t
}

// lowerLogical lowers a short-circuiting `and` or `or` into branches joined
// by a phi over the short-circuit constant and the right operand.
func (l *lowerer) lowerLogical(v *ast.LogicalOp) string {
	lhs := l.lowerExpr(v.Lhs)
	lhsEnd := l.cur.Label

	rhsBlock := l.newBlock()
	join := l.newBlock()

	short := "false"
	if v.OpKind == syntax.TOK_AND {
		l.emit(&Instr{Op: OpCbr, Args: []string{lhs, rhsBlock.Label, join.Label}})
	} else {
		short = "true"
		l.emit(&Instr{Op: OpCbr, Args: []string{lhs, join.Label, rhsBlock.Label}})
	}

	l.setBlock(rhsBlock)
	rhs := l.lowerExpr(v.Rhs)
	rhsEnd := l.cur.Label
	l.emit(&Instr{Op: OpBr, Args: []string{join.Label}})

	l.setBlock(join)
	t := l.newTemp()
	l.emit(&Instr{Op: OpPhi, Result: t, Type: boolType, Args: []string{
		lhsEnd + ":" + short,
		rhsEnd + ":" + rhs,
	}})

	return t
}

// lowerTry lowers a try expression: branch on the operand's discriminant,
// early-return the failure lifted to the function's return type, and yield
// the success payload on the fall-through path.
func (l *lowerer) lowerTry(v *ast.TryExpr) string {
	operand := l.lowerExpr(v.Operand)

	et, ok := v.Operand.Type().(*types.EnumType)
	if !ok {
		return operand
	}
	isResult := baseName(et.Name) == "Result"

	okCond := l.newTemp()
	if isResult {
		l.emit(&Instr{Op: OpResultIsOk, Result: okCond, Type: boolType, Args: []string{operand}})
	} else {
		l.emit(&Instr{Op: OpOptionIsSome, Result: okCond, Type: boolType, Args: []string{operand}})
	}

	okBlock := l.newBlock()
	failBlock := l.newBlock()
	l.emit(&Instr{Op: OpCbr, Args: []string{okCond, okBlock.Label, failBlock.Label}})

	l.setBlock(failBlock)
	lifted := l.newTemp()
	if isResult {
		errVal := l.newTemp()
		l.emit(&Instr{Op: OpResultUnwrapErr, Result: errVal, Type: et.Cases[1].Elems[0], Args: []string{operand}})
		l.emit(&Instr{Op: OpResultErr, Result: lifted, Type: l.fn.ReturnType, Args: []string{errVal}})
	} else {
		l.emit(&Instr{Op: OpOptionNone, Result: lifted, Type: l.fn.ReturnType})
	}
	l.emit(&Instr{Op: OpRet, Args: []string{lifted}})

	l.setBlock(okBlock)
	payload := l.newTemp()
	if isResult {
		l.emit(&Instr{Op: OpResultUnwrap, Result: payload, Type: v.Type(), Args: []string{operand}})
	} else {
		l.emit(&Instr{Op: OpOptionUnwrap, Result: payload, Type: v.Type(), Args: []string{operand}})
	}

	return payload
}

// lowerDot lowers a member access: a bare enum constructor reference or a
// struct field projection.
func (l *lowerer) lowerDot(v *ast.Dot) string {
	if root, ok := v.Root.(*ast.Identifier); ok {
		if _, isLocal := l.lookup(root.Name); !isLocal {
			if et, ok := v.Type().(*types.EnumType); ok && namesEnum(root.Name, et) {
				if _, idx, ok := caseIndexOf(et, v.FieldName); ok {
					t := l.newTemp()
					l.emit(&Instr{Op: OpEnumMake, Result: t, Type: et, Args: []string{strconv.Itoa(idx)}})
					return t
				}
			}
		}
	}

	root := l.lowerExpr(v.Root)
	st, ok := v.Root.Type().(*types.StructType)
	if !ok {
		return root
	}

	idx := st.Indices[v.FieldName]
	t := l.newTemp()
	l.emit(&Instr{Op: OpStructGet, Result: t, Type: v.Type(), Args: []string{root, strconv.Itoa(idx)}})
	return t
}

// -----------------------------------------------------------------------------

// builtinOps gives the runtime builtins with
// first-class MIR ops; every other builtin lowers to a plain call the backend
// binds against the runtime symbol table.
var builtinOps = map[string]Op{
	"channel":         OpChannelCreate,
	"send":            OpChannelSend,
	"recv":            OpChannelRecv,
	"channel_close":   OpChannelClose,
	"channel_release": OpChannelRelease,
	"tensor_create":   OpTensorCreate,
	"tensor_matmul":   OpTensorMatmul,
	"tensor_release":  OpTensorRelease,
}

func (l *lowerer) lowerCall(call *ast.Call) string {
	switch callee := call.Func.(type) {
	case *ast.Identifier:
		return l.lowerNamedCall(call, callee)
	case *ast.Dot:
		return l.lowerDotCall(call, callee)
	}

	fn := l.lowerExpr(call.Func)
	return l.emitCall(fn, l.lowerArgs(call.Args), call.Type())
}

func (l *lowerer) lowerArgs(args []ast.Expr) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = l.lowerExpr(arg)
	}

	return out
}

// lowerNamedCall lowers a call through a bare name: a spawn, a runtime
// builtin, a predeclared constructor, a struct construction, or a function.
func (l *lowerer) lowerNamedCall(call *ast.Call, callee *ast.Identifier) string {
	name := callee.Name

	if name == "spawn" {
		return l.lowerSpawn(call)
	}

	if walk.IsBuiltin(name) {
		if op, ok := builtinOps[name]; ok {
			return l.emitOp(op, l.lowerArgs(call.Args), call.Type())
		}

		return l.emitCall(name, l.lowerArgs(call.Args), call.Type())
	}

	if callee.Type() == nil {
		switch rt := call.Type().(type) {
		case *types.EnumType:
			return l.lowerEnumCtor(call, rt, name)
		case *types.StructType:
			t := l.newTemp()
			l.emit(&Instr{Op: OpStructNew, Result: t, Type: rt, Args: l.lowerArgs(call.Args)})
			return t
		}
	}

	if _, isLocal := l.lookup(name); isLocal {
		return l.emitCall(name, l.lowerArgs(call.Args), call.Type())
	}

	return l.emitCall(l.calleeName(name), l.lowerArgs(call.Args), call.Type())
}

// lowerDotCall lowers a call through a member access: a qualified enum
// constructor or a module qualified function.
func (l *lowerer) lowerDotCall(call *ast.Call, dot *ast.Dot) string {
	if root, ok := dot.Root.(*ast.Identifier); ok {
		if _, isLocal := l.lookup(root.Name); !isLocal {
			if et, ok := call.Type().(*types.EnumType); ok && namesEnum(root.Name, et) {
				return l.lowerEnumCtor(call, et, dot.FieldName)
			}

			return l.emitCall(l.calleeName(dot.FieldName), l.lowerArgs(call.Args), call.Type())
		}
	}

	fn := l.lowerExpr(call.Func)
	return l.emitCall(fn, l.lowerArgs(call.Args), call.Type())
}

// lowerEnumCtor lowers an enum constructor application.  The predeclared
// Result and Option constructors use their dedicated ops.
func (l *lowerer) lowerEnumCtor(call *ast.Call, et *types.EnumType, caseName string) string {
	args := l.lowerArgs(call.Args)
	canon := canonCtorName(caseName)

	switch baseName(et.Name) {
	case "Result":
		if canon == "Ok" {
			return l.emitOp(OpResultOk, args, et)
		}
		if canon == "Err" {
			return l.emitOp(OpResultErr, args, et)
		}
	case "Option":
		if canon == "Some" {
			return l.emitOp(OpOptionSome, args, et)
		}
		if canon == "None" {
			return l.emitOp(OpOptionNone, args, et)
		}
	}

	_, idx, ok := caseIndexOf(et, caseName)
	if !ok {
		return ""
	}

	t := l.newTemp()
	l.emit(&Instr{Op: OpEnumMake, Result: t, Type: et, Args: append([]string{strconv.Itoa(idx)}, args...)})
	return t
}

// lowerSpawn lowers a spawn call: the target function and its optional
// channel argument.
func (l *lowerer) lowerSpawn(call *ast.Call) string {
	var target string
	if id, ok := call.Args[0].(*ast.Identifier); ok {
		if _, isLocal := l.lookup(id.Name); !isLocal {
			target = l.calleeName(id.Name)
		}
	}
	if target == "" {
		target = l.lowerExpr(call.Args[0])
	}

	args := []string{target}
	if len(call.Args) == 2 {
		args = append(args, l.lowerExpr(call.Args[1]))
	}

	l.emit(&Instr{Op: OpSpawn, Args: args})
	return ""
}

// emitCall emits a call, allocating a result temporary unless the callee
// returns nothing.
func (l *lowerer) emitCall(fn string, args []string, ret types.Type) string {
	operands := append([]string{fn}, args...)

	if ret == nil || types.IsUnit(ret) {
		l.emit(&Instr{Op: OpCall, Args: operands})
		return ""
	}

	t := l.newTemp()
	l.emit(&Instr{Op: OpCall, Result: t, Type: ret, Args: operands})
	return t
}

// emitOp emits a dedicated op in call position.
func (l *lowerer) emitOp(op Op, args []string, ret types.Type) string {
	if ret == nil || types.IsUnit(ret) {
		l.emit(&Instr{Op: op, Args: args})
		return ""
	}

	t := l.newTemp()
	l.emit(&Instr{Op: op, Result: t, Type: ret, Args: args})
	return t
}

// -----------------------------------------------------------------------------

// baseName strips the specialization suffix off a mangled type name.
func baseName(name string) string {
	if idx := strings.Index(name, "__"); idx != -1 {
		return name[:idx]
	}

	return name
}

// namesEnum returns whether a dotted root name refers to the enum itself
// rather than to a value or module.
func namesEnum(root string, et *types.EnumType) bool {
	return root == et.Name || root == baseName(et.Name) ||
		((root == "Result" || root == "Option") && baseName(et.Name) == root)
}

// canonCtorName maps the surface spellings of the predeclared constructors
// onto their canonical case names.
func canonCtorName(name string) string {
	switch name {
	case "ok", "Ok":
		return "Ok"
	case "err", "Err":
		return "Err"
	case "some", "Some":
		return "Some"
	case "none", "None":
		return "None"
	default:
		return name
	}
}

// caseIndexOf looks up an enum case and its discriminant, admitting the
// surface spellings of the predeclared constructors.
func caseIndexOf(et *types.EnumType, name string) (types.EnumCase, int, bool) {
	if c, i, ok := et.GetCaseByName(name); ok {
		return c, i, true
	}

	return et.GetCaseByName(canonCtorName(name))
}
