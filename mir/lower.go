package mir

import (
	"fmt"

	"daisyc/ast"
	"daisyc/depm"
	"daisyc/types"
	"daisyc/walk"
)

// Lower lowers every checked function instance of a module graph into MIR,
// producing one MIR module per source module in dependency-first order.
func Lower(env *walk.Env, root *depm.Module) []*Module {
	l := &lowerer{
		env:     env,
		owners:  make(map[string]string),
		externs: make(map[string]*types.FuncType),
	}

	for _, inst := range env.Instances {
		l.owners[inst.Name] = inst.Mod.Name
	}

	var mods []*depm.Module
	collectModules(root, make(map[uint64]bool), &mods)

	for _, mod := range mods {
		l.collectExterns(mod)
	}

	out := make([]*Module, 0, len(mods))
	for _, mod := range mods {
		out = append(out, l.lowerModule(mod))
	}

	return out
}

// collectModules flattens the module graph dependency-first, matching the
// order the checker produced instances in.
func collectModules(mod *depm.Module, visited map[uint64]bool, out *[]*depm.Module) {
	if visited[mod.ID] {
		return
	}
	visited[mod.ID] = true

	for _, dep := range mod.Deps {
		collectModules(dep, visited, out)
	}

	*out = append(*out, mod)
}

// -----------------------------------------------------------------------------

// lowerer carries the state of one lowering run.  The per-function fields are
// reset at every instance.
type lowerer struct {
	env *walk.Env

	// Function instance name -> defining module name, for call
	// qualification across modules.
	owners map[string]string

	// Raw extern symbols declared anywhere in the program.
	externs map[string]*types.FuncType

	m  *Module
	fn *Function

	// The block instructions are currently appended to.
	cur *Block

	// The lexical scope stack of named slots.  Scopes that track view slots
	// emit view releases when they end.
	scopes []*scope

	temps   int
	blocks  int
	hidden  int
	loops   []loopTarget
	unsafes int
}

// scope is one lexical scope of named slots, in definition order.
type scope struct {
	names []string
	vars  map[string]types.Type

	// Whether views defined in this scope are released when it ends.  The
	// parameter scope never releases: its views belong to the caller.
	releasing bool
}

// loopTarget is the pair of labels `continue` and `break` jump to inside the
// innermost enclosing loop.
type loopTarget struct {
	cont, brk string
}

// collectExterns records the raw C symbols a module declares.
func (l *lowerer) collectExterns(mod *depm.Module) {
	for _, file := range mod.Files {
		for _, def := range file.Root.Defs {
			ext, ok := def.(*ast.ExternDef)
			if !ok {
				continue
			}

			if sym, ok := mod.SymTable.Lookup(ext.Name); ok {
				if sig, ok := sym.Type.(*types.FuncType); ok {
					l.externs[ext.Name] = sig
				}
			}
		}
	}
}

// lowerModule lowers every instance belonging to one source module.
func (l *lowerer) lowerModule(mod *depm.Module) *Module {
	l.m = &Module{Name: mod.Name}

	for _, file := range mod.Files {
		for _, def := range file.Root.Defs {
			if ext, ok := def.(*ast.ExternDef); ok {
				if sig, ok := l.externs[ext.Name]; ok {
					l.m.Externs = append(l.m.Externs, &Extern{Name: ext.Name, Sig: sig})
				}
			}
		}
	}

	for _, inst := range l.env.Instances {
		if inst.Mod.ID == mod.ID {
			l.lowerInstance(inst)
		}
	}

	return l.m
}

// lowerInstance lowers one function instance into a block list.
func (l *lowerer) lowerInstance(inst *walk.FuncInstance) {
	sig, ok := l.env.SignatureOf(inst)
	if !ok {
		return
	}

	fn := &Function{Name: inst.Name, ReturnType: sig.ReturnType}
	for i, p := range inst.Def.Params {
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: sig.ParamTypes[i]})
		l.m.recordType(sig.ParamTypes[i])
	}
	l.m.recordType(sig.ReturnType)

	l.fn = fn
	l.temps = 0
	l.blocks = 0
	l.hidden = 0
	l.loops = nil
	l.scopes = nil

	entry := &Block{Label: "entry"}
	fn.Blocks = append(fn.Blocks, entry)
	l.cur = entry

	l.pushScope(false)
	for _, p := range fn.Params {
		l.define(p.Name, p.Type)
	}

	l.lowerBody(inst.Def.Body)
	l.popScope()

	if !l.cur.Terminated() {
		l.emit(&Instr{Op: OpRet})
	}

	l.m.Funcs = append(l.m.Funcs, fn)
}

// -----------------------------------------------------------------------------

// emit appends an instruction to the current block.  Instructions after a
// terminator are unreachable and dropped.
func (l *lowerer) emit(in *Instr) {
	if l.cur.Terminated() {
		return
	}

	if in.Type != nil {
		l.m.recordType(in.Type)
	}

	l.cur.Instrs = append(l.cur.Instrs, in)
}

// newTemp allocates a fresh temporary name.
func (l *lowerer) newTemp() string {
	t := fmt.Sprintf("%%t%d", l.temps)
	l.temps++
	return t
}

// newBlock allocates a labeled block without entering it.
func (l *lowerer) newBlock() *Block {
	l.blocks++
	return &Block{Label: fmt.Sprintf("b%d", l.blocks)}
}

// setBlock appends a block to the function and makes it current.
func (l *lowerer) setBlock(b *Block) {
	l.fn.Blocks = append(l.fn.Blocks, b)
	l.cur = b
}

// hiddenSlot allocates a compiler-introduced named slot, eg. a repeat
// counter.
func (l *lowerer) hiddenSlot(prefix string) string {
	name := fmt.Sprintf("__%s%d", prefix, l.hidden)
	l.hidden++
	return name
}

// -----------------------------------------------------------------------------

func (l *lowerer) pushScope(releasing bool) {
	l.scopes = append(l.scopes, &scope{vars: make(map[string]types.Type), releasing: releasing})
}

// popScope ends the innermost scope, releasing the view slots it introduced.
func (l *lowerer) popScope() {
	sc := l.scopes[len(l.scopes)-1]
	l.scopes = l.scopes[:len(l.scopes)-1]

	if !sc.releasing || l.cur.Terminated() {
		return
	}

	for _, name := range sc.names {
		if _, ok := sc.vars[name].(*types.ViewType); ok {
			l.emit(&Instr{Op: OpViewRelease, Args: []string{name}})
		}
	}
}

// define introduces a named slot into the innermost scope.
func (l *lowerer) define(name string, typ types.Type) {
	sc := l.scopes[len(l.scopes)-1]
	if _, ok := sc.vars[name]; !ok {
		sc.names = append(sc.names, name)
	}

	sc.vars[name] = typ
}

// lookup finds a named slot in the scope stack.
func (l *lowerer) lookup(name string) (types.Type, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if typ, ok := l.scopes[i].vars[name]; ok {
			return typ, true
		}
	}

	return nil, false
}

// calleeName qualifies a function name with its defining module when the call
// crosses a module boundary.  Extern symbols are never qualified.
func (l *lowerer) calleeName(name string) string {
	if _, ok := l.externs[name]; ok {
		return name
	}

	if owner, ok := l.owners[name]; ok && owner != l.m.Name {
		return owner + "." + name
	}

	return name
}
