package report

import (
	"fmt"
	"os"
)

// ShouldProceed indicates whether or not there have been any non-fatal errors
// that should cause compilation to stop at the current phase.
func ShouldProceed() bool {
	return rep.errorCount == 0
}

// AnyErrors returns whether or not any errors were detected.
func AnyErrors() bool {
	return rep.errorCount > 0
}

// ErrorCount returns the number of errors reported so far.
func ErrorCount() int {
	return rep.errorCount
}

// -----------------------------------------------------------------------------

// ReportICE reports an internal compiler error.  These are errors that
// specifically result from a bug or unexpected condition occurring within the
// compiler: they are not intended to ever happen.  These errors are always
// displayed regardless of log level.
func ReportICE(message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	displayICE(fmt.Sprintf(message, args...))

	os.Exit(2)
}

// ReportFatal reports a fatal error.  These are errors that should cause all
// compilation to stop immediately.  However, they are expected errors that
// generally result from invalid configuration of some form: missing manifest,
// unreadable source file, etc.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportCompileError reports a compilation error: ie. erroneous input code.
// The absPath is the absolute path to the erroneous source file.  The reprPath
// is the representative path to the source file as it should be displayed to
// the user.
func ReportCompileError(absPath, reprPath string, cerr *LocalCompileError) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayCompileMessage("error", KindString(cerr.Kind), absPath, reprPath, cerr.Span, cerr.Message)

		for _, note := range cerr.Notes {
			displayCompileNote(absPath, reprPath, note)
		}
	}
}

// ReportCompileWarning reports a compilation warning.  The arguments are of
// the same form as those to ReportCompileError.
func ReportCompileWarning(absPath, reprPath string, span *TextSpan, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++

	if rep.logLevel > LogLevelWarn {
		displayCompileMessage("warning", "", absPath, reprPath, span, fmt.Sprintf(message, args...))
	}
}

// ReportStdError reports a non-fatal, standard Go error.
func ReportStdError(reprPath string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayStdError(reprPath, err)
	}
}

// -----------------------------------------------------------------------------

// CatchErrors catches any errors thrown by a `panic` during a stage of
// compilation.  In effect, this handler determines when any errors
// "unrecoverable" within a given subsection of the compiler should stop
// bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(absPath, reprPath string) {
	if x := recover(); x != nil {
		if cerr, ok := x.(*LocalCompileError); ok {
			ReportCompileError(absPath, reprPath, cerr)
		} else if serr, ok := x.(error); ok {
			ReportStdError(reprPath, serr)
		} else {
			ReportFatal("%s", x)
		}
	}
}

// -----------------------------------------------------------------------------
// Below are the "aesthetic" reporting functions that only run if the log level
// is verbose.  These provide additional information about the compilation
// process so as to make the compiler more friendly.

// ReportCompileHeader reports the pre-compilation header: information about
// the compiler's current configuration (version, root module, caching).
func ReportCompileHeader(rootModule string, caching bool) {
	if rep.logLevel == LogLevelVerbose {
		displayCompileHeader(rootModule, caching)
	}
}

// ReportBeginPhase reports the beginning of a compilation phase.
func ReportBeginPhase(phase string) {
	if rep.logLevel == LogLevelVerbose {
		displayBeginPhase(phase)
	}
}

// ReportEndPhase reports the end of the current compilation phase.
func ReportEndPhase() {
	if rep.logLevel == LogLevelVerbose {
		displayEndPhase(ShouldProceed())
	}
}

// ReportCompilationFinished reports the concluding message for compilation.
func ReportCompilationFinished() {
	if rep.logLevel == LogLevelVerbose {
		displayCompilationFinished(ShouldProceed(), rep.errorCount, rep.warningCount)
	}
}
