package mir

import "daisyc/types"

// Module is the MIR of one DAISY module: its lowered function bodies together
// with the records the backend needs to emit declarations.
type Module struct {
	// The module's declared name.
	Name string

	// The lowered functions in production order.
	Funcs []*Function

	// The raw C symbols declared extern by the module.
	Externs []*Extern

	// The struct and enum types referenced anywhere in the module's MIR, in
	// first-use order.  Generic types appear only as specializations.
	Structs []*types.StructType
	Enums   []*types.EnumType

	// One note per unsafe block lowered in the module, in source order.
	Unsafes []UnsafeNote
}

// Function is one lowered function body as a list of basic blocks.  The entry
// block is always first.
type Function struct {
	Name       string
	Params     []Param
	ReturnType types.Type
	Blocks     []*Block
}

// Param is a named function parameter.
type Param struct {
	Name string
	Type types.Type
}

// Block is a labeled basic block.  A well-formed block ends with exactly one
// terminator instruction.
type Block struct {
	Label  string
	Instrs []*Instr
}

// Terminated returns whether the block already ends in a terminator.
func (b *Block) Terminated() bool {
	return len(b.Instrs) > 0 && b.Instrs[len(b.Instrs)-1].IsTerminator()
}

// Extern is a declared raw C symbol and its checked signature.
type Extern struct {
	Name string
	Sig  *types.FuncType
}

// UnsafeNote records where an unsafe block occurred and the justification its
// author gave, feeding the per-module unsafe log.
type UnsafeNote struct {
	Line, Col int
	Reason    string
}

// -----------------------------------------------------------------------------

// recordType registers any aggregate types reachable from a type so the
// backend can emit their definitions before use.
func (m *Module) recordType(typ types.Type) {
	switch v := typ.(type) {
	case *types.StructType:
		for _, s := range m.Structs {
			if s.Name == v.Name {
				return
			}
		}

		m.Structs = append(m.Structs, v)
		for _, field := range v.Fields {
			m.recordType(field.Type)
		}
	case *types.EnumType:
		for _, e := range m.Enums {
			if e.Name == v.Name {
				return
			}
		}

		m.Enums = append(m.Enums, v)
		for _, c := range v.Cases {
			for _, elem := range c.Elems {
				m.recordType(elem)
			}
		}
	}
}
