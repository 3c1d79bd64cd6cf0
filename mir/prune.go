package mir

import "strings"

// pureOps are the ops without side effects: an instruction computing one of
// these into an unused temporary can be dropped.
var pureOps = map[Op]bool{
	OpConst:       true,
	OpConstStr:    true,
	OpAssign:      true,
	OpAdd:         true,
	OpSub:         true,
	OpMul:         true,
	OpDiv:         true,
	OpNeg:         true,
	OpNot:         true,
	OpEq:          true,
	OpNe:          true,
	OpLt:          true,
	OpGt:          true,
	OpLe:          true,
	OpGe:          true,
	OpPhi:         true,
	OpStructGet:   true,
	OpEnumTag:     true,
	OpEnumPayload: true,
}

// PruneDeadTemps removes pure instructions whose temporary result is never
// read.  Named slots are kept: their lifetime is the function's, not the
// dataflow's.  This is the only cleanup pass; optimizing rewrites stay out of
// the pipeline.
func PruneDeadTemps(m *Module) {
	for _, fn := range m.Funcs {
		for pruneFuncOnce(fn) {
		}
	}
}

func pruneFuncOnce(fn *Function) bool {
	used := make(map[string]bool)
	for _, block := range fn.Blocks {
		for _, in := range block.Instrs {
			for _, use := range valueUses(in) {
				used[use] = true
			}
		}
	}

	changed := false
	for _, block := range fn.Blocks {
		kept := block.Instrs[:0]
		for _, in := range block.Instrs {
			if pureOps[in.Op] && isTemp(in.Result) && !used[in.Result] {
				changed = true
				continue
			}

			kept = append(kept, in)
		}

		block.Instrs = kept
	}

	return changed
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, "%t")
}
