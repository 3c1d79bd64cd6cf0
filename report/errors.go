package report

import "fmt"

// Enumeration of compile error kinds.  Every diagnostic produced by the
// compiler carries exactly one of these.
const (
	KindLexicalError = iota
	KindSyntaxError
	KindUnknownSymbol
	KindTypeMismatch
	KindUnresolvedTraitBound
	KindAmbiguousImpl
	KindGenericArityMismatch
	KindNonExhaustiveMatch
	KindUseAfterMove
	KindBorrowAliasConflict
	KindReleaseWithLiveBorrow
	KindUnsafeWithoutJustification
	KindAbiIncompatible
	KindImportCycle
	KindInternalError
)

// kindStrings maps error kinds to their display names.
var kindStrings = map[int]string{
	KindLexicalError:               "LexicalError",
	KindSyntaxError:                "SyntaxError",
	KindUnknownSymbol:              "UnknownSymbol",
	KindTypeMismatch:               "TypeMismatch",
	KindUnresolvedTraitBound:       "UnresolvedTraitBound",
	KindAmbiguousImpl:              "AmbiguousImpl",
	KindGenericArityMismatch:       "GenericArityMismatch",
	KindNonExhaustiveMatch:         "NonExhaustiveMatch",
	KindUseAfterMove:               "UseAfterMove",
	KindBorrowAliasConflict:        "BorrowAliasConflict",
	KindReleaseWithLiveBorrow:      "ReleaseWithLiveBorrow",
	KindUnsafeWithoutJustification: "UnsafeWithoutJustification",
	KindAbiIncompatible:            "AbiIncompatible",
	KindImportCycle:                "ImportCycle",
	KindInternalError:              "InternalError",
}

// KindString returns the display name of an error kind.
func KindString(kind int) string {
	return kindStrings[kind]
}

// ErrorNote is a labeled secondary span attached to a compile error: eg. the
// origin of a move that a later use conflicts with.
type ErrorNote struct {
	// The label describing the significance of the span.
	Label string

	// The span the note points at.
	Span *TextSpan
}

// LocalCompileError is a compilation error that occurs in a context in which
// the file is known by the error handler and thus doesn't need to be passed
// along with the error.
type LocalCompileError struct {
	// The kind of the error.  This must be one of the enumerated error kinds.
	Kind int

	// The error message.
	Message string

	// The span over which the error occurs.
	Span *TextSpan

	// Any secondary spans attached to the error.
	Notes []ErrorNote
}

func (lce *LocalCompileError) Error() string {
	return lce.Message
}

// Raise creates a new local compile error of the given kind.
func Raise(kind int, span *TextSpan, msg string, args ...interface{}) *LocalCompileError {
	return &LocalCompileError{Kind: kind, Message: fmt.Sprintf(msg, args...), Span: span}
}

// WithNote attaches a labeled secondary span to the error and returns it.
func (lce *LocalCompileError) WithNote(label string, span *TextSpan) *LocalCompileError {
	lce.Notes = append(lce.Notes, ErrorNote{Label: label, Span: span})
	return lce
}
