package ast

// File is the parsed form of a single source file: its module header and its
// top level definitions in order.
type File struct {
	ASTBase

	// The dotted module name declared by the file's header line.
	ModuleName string

	Defs []Def
}
