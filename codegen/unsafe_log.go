package codegen

import (
	"fmt"
	"strings"

	"daisyc/mir"
)

// UnsafeLog renders the per-module audit log: one line per unsafe block with
// its position and the justification its author gave.
func UnsafeLog(m *mir.Module) string {
	sb := strings.Builder{}
	sb.WriteString("module: " + m.Name + "\n")

	for _, note := range m.Unsafes {
		fmt.Fprintf(&sb, "L%d:%d %s\n", note.Line, note.Col, note.Reason)
	}

	return sb.String()
}
