package ast

import "daisyc/types"

// Expr is the interface for all expression nodes.  Expression types start nil
// and are filled in by the checker.
type Expr interface {
	ASTNode

	// Type is the yielded type of the expression.
	Type() types.Type

	// SetType sets the yielded type of the expression.
	SetType(types.Type)
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	ASTBase

	typ types.Type
}

// NewExprBaseOn creates a new expression base with the given span.
func NewExprBaseOn(span ASTBase) ExprBase {
	return ExprBase{ASTBase: span}
}

func (eb *ExprBase) Type() types.Type {
	return eb.typ
}

func (eb *ExprBase) SetType(typ types.Type) {
	eb.typ = typ
}

// -----------------------------------------------------------------------------

// Literal represents a single literal value.  The kind is a token kind: one
// of TOK_INTLIT, TOK_STRINGLIT, or TOK_BOOLLIT.
type Literal struct {
	ExprBase

	Kind  int
	Value string
}

// Identifier represents a named value.
type Identifier struct {
	ExprBase

	Name string
}

// -----------------------------------------------------------------------------

// Call is a function, constructor, or builtin call expression.  Generic calls
// carry their specialization in the callee name itself.
type Call struct {
	ExprBase

	Func Expr
	Args []Expr
}

// Dot represents a member access (x.f).  Depending on the root, this is a
// struct field access, an enum constructor reference, a method call target,
// or a module-qualified name.
type Dot struct {
	ExprBase

	Root      Expr
	FieldName string
}

// -----------------------------------------------------------------------------

// BinaryOp represents a binary operator application.  The op kind is the
// token kind of the operator.
type BinaryOp struct {
	ExprBase

	OpKind   int
	Lhs, Rhs Expr
}

// LogicalOp represents a short-circuiting `and` or `or` application.  These
// are kept distinct from BinaryOp since they lower to branches.
type LogicalOp struct {
	ExprBase

	OpKind   int
	Lhs, Rhs Expr
}

// UnaryOp represents a unary operator application.
type UnaryOp struct {
	ExprBase

	OpKind  int
	Operand Expr
}

// -----------------------------------------------------------------------------

// TryExpr represents a try expression propagating the failure branch of a
// Result or Option to the enclosing function.
type TryExpr struct {
	ExprBase

	Operand Expr
}

// MoveExpr represents an explicit ownership transfer out of a binding.
type MoveExpr struct {
	ExprBase

	Operand Expr
}

// CopyExpr represents an explicit deep copy of a value.
type CopyExpr struct {
	ExprBase

	Operand Expr
}

// -----------------------------------------------------------------------------

// BufferCreate represents a buffer allocation of a byte size.
type BufferCreate struct {
	ExprBase

	Size Expr
}

// BorrowExpr represents a whole-value borrow of a buffer.
type BorrowExpr struct {
	ExprBase

	Mutable bool
	Operand Expr
}

// BorrowRange represents a ranged view borrow over the half-open interval
// [Start, End) of a buffer.
type BorrowRange struct {
	ExprBase

	Buffer     Expr
	Start, End Expr
	Mutable    bool
}
