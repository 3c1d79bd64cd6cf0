package depm

import "sort"

// SymbolTable is the table of symbols defined at the top level of a module.
// All files of a module share one table: top level names are module scoped.
type SymbolTable struct {
	// The ID of the module the table belongs to.
	modID uint64

	// The name of the module the table belongs to.
	modName string

	// The defined symbols keyed by name.
	symbols map[string]*Symbol
}

// NewSymbolTable creates a new empty symbol table for a module.
func NewSymbolTable(modID uint64, modName string) *SymbolTable {
	return &SymbolTable{
		modID:   modID,
		modName: modName,
		symbols: make(map[string]*Symbol),
	}
}

// Define defines a new symbol in the table.  If a symbol of the same name
// already exists, the existing symbol is returned along with a false flag and
// the table is left unchanged.
func (st *SymbolTable) Define(sym *Symbol) (*Symbol, bool) {
	if prev, ok := st.symbols[sym.Name]; ok {
		return prev, false
	}

	st.symbols[sym.Name] = sym
	return sym, true
}

// Lookup looks up a symbol by name.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// LookupPublic looks up a symbol by name, succeeding only if the symbol is
// visible outside its module.
func (st *SymbolTable) LookupPublic(name string) (*Symbol, bool) {
	if sym, ok := st.symbols[name]; ok && sym.Public {
		return sym, true
	}

	return nil, false
}

// Exported returns the module's public symbols sorted by name.
func (st *SymbolTable) Exported() []*Symbol {
	var syms []*Symbol
	for _, sym := range st.symbols {
		if sym.Public {
			syms = append(syms, sym)
		}
	}

	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
	return syms
}

// All returns every symbol in the table sorted by name.
func (st *SymbolTable) All() []*Symbol {
	syms := make([]*Symbol, 0, len(st.symbols))
	for _, sym := range st.symbols {
		syms = append(syms, sym)
	}

	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
	return syms
}
