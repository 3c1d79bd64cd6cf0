package mir

import (
	"fmt"
	"strings"
)

// Validate sanity checks a lowered module before it is handed to the backend:
// every block ends in a terminator, every branch names a known block, and
// every value operand is defined before use in emission order.
func Validate(m *Module) error {
	for _, fn := range m.Funcs {
		if err := validateFunc(fn); err != nil {
			return fmt.Errorf("module %s: %w", m.Name, err)
		}
	}

	return nil
}

func validateFunc(fn *Function) error {
	labels := make(map[string]bool, len(fn.Blocks))
	for _, block := range fn.Blocks {
		if labels[block.Label] {
			return fmt.Errorf("fn %s: duplicate block label %s", fn.Name, block.Label)
		}

		labels[block.Label] = true
	}

	defined := make(map[string]bool)
	for _, p := range fn.Params {
		defined[p.Name] = true
	}

	for _, block := range fn.Blocks {
		if !block.Terminated() {
			return fmt.Errorf("fn %s: block %s does not end in a terminator", fn.Name, block.Label)
		}

		for _, in := range block.Instrs {
			for _, target := range branchTargets(in) {
				if !labels[target] {
					return fmt.Errorf("fn %s: branch to unknown block %s", fn.Name, target)
				}
			}

			for _, use := range valueUses(in) {
				if !defined[use] {
					return fmt.Errorf("fn %s: %s uses %s before definition", fn.Name, in.Op, use)
				}
			}

			if in.Result != "" {
				defined[in.Result] = true
			}
		}
	}

	return nil
}

// branchTargets returns the block labels an instruction jumps to.
func branchTargets(in *Instr) []string {
	switch in.Op {
	case OpBr:
		return in.Args
	case OpCbr:
		return in.Args[1:]
	case OpPhi:
		labels := make([]string, 0, len(in.Args))
		for _, arg := range in.Args {
			labels = append(labels, arg[:strings.IndexByte(arg, ':')])
		}
		return labels
	default:
		return nil
	}
}

// valueUses returns the value names an instruction reads.  Literals, labels,
// callee names, and immediate indices are not value uses.
func valueUses(in *Instr) []string {
	var uses []string
	add := func(arg string) {
		if isValueName(arg) {
			uses = append(uses, arg)
		}
	}

	switch in.Op {
	case OpConst, OpConstStr, OpBr, OpOptionNone:

	case OpCbr:
		add(in.Args[0])
	case OpPhi:
		for _, arg := range in.Args {
			add(arg[strings.IndexByte(arg, ':')+1:])
		}
	case OpCall, OpSpawn:
		for _, arg := range in.Args[1:] {
			add(arg)
		}
	case OpViewBorrow:
		// buffer, start, end, kind
		add(in.Args[0])
		add(in.Args[1])
		add(in.Args[2])
	case OpStructGet:
		add(in.Args[0])
	case OpEnumMake:
		for _, arg := range in.Args[1:] {
			add(arg)
		}
	case OpEnumPayload:
		add(in.Args[0])
	default:
		for _, arg := range in.Args {
			add(arg)
		}
	}

	return uses
}

// isValueName reports whether an operand names a temporary or slot rather
// than a literal immediate.
func isValueName(arg string) bool {
	if arg == "" || arg == "true" || arg == "false" {
		return false
	}

	c := arg[0]
	if c == '"' || c == '-' || ('0' <= c && c <= '9') {
		return false
	}

	return true
}
