package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
)

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("InternalError")
	ErrorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: please open an issue on the DAISY tracker\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + message)
}

// displayCompileMessage displays a compilation error or warning.  The label is
// the string to prefix the message with ("error" or "warning"); the kind is
// the structured error kind name, empty for warnings.
func displayCompileMessage(label, kind, absPath, reprPath string, span *TextSpan, message string) {
	if label == "error" {
		ErrorStyleBG.Print(kind)
	} else {
		WarnStyleBG.Print("warning")
	}

	if span == nil {
		fmt.Printf(" %s: %s\n\n", reprPath, message)
	} else {
		fmt.Printf(" %s:%d:%d: %s\n\n", reprPath, span.StartLine+1, span.StartCol+1, message)
		displaySourceText(absPath, span)
	}
}

// displayCompileNote displays a labeled secondary span attached to an error.
func displayCompileNote(absPath, reprPath string, note ErrorNote) {
	InfoColorFG.Print("note")
	fmt.Printf(" %s:%d:%d: %s\n\n", reprPath, note.Span.StartLine+1, note.Span.StartCol+1, note.Label)
	displaySourceText(absPath, note.Span)
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	ErrorStyleBG.Print("error")
	fmt.Printf(" %s: %s\n\n", reprPath, err)
}

// -----------------------------------------------------------------------------

// displaySourceText displays a segment of source text defined by a text span.
func displaySourceText(absPath string, span *TextSpan) {
	// Open the file so we can read the desired source text.
	file, err := os.Open(absPath)
	if err != nil {
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := 0
		for _, c := range line {
			if c == ' ' {
				lineIndent++
			} else {
				break
			}
		}

		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))

	// Generate the format string for line numbers.
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		// Print the line number and separator bar.
		InfoColorFG.Printf(lineNumFmtStr, i+span.StartLine+1)

		// Print the source text with the leading indent trimmed off.
		fmt.Println(line[minIndent:])

		// Print the line and bar used for carret underlining.
		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// The number of spaces before carret underlining begins.  For any line
		// which is not the starting line, this is always zero since the
		// underlining is continuing from the previous line.
		var carretPrefixCount int
		if i == 0 {
			carretPrefixCount = span.StartCol - minIndent
		}

		// The number of characters at the end of the source line that should
		// not be highlighted.  Non-zero only on the last line.
		var carretSuffixCount int
		if i == len(lines)-1 {
			carretSuffixCount = len(line) - span.EndCol - 1
		}

		fmt.Print(strings.Repeat(" ", carretPrefixCount))

		carretCount := len(line) - carretSuffixCount - carretPrefixCount - minIndent
		if carretCount < 1 {
			carretCount = 1
		}
		ErrorColorFG.Println(strings.Repeat("^", carretCount))
	}

	fmt.Println()
}

// -----------------------------------------------------------------------------

// displayCompileHeader displays the compiler information before starting
// compilation.
func displayCompileHeader(rootModule string, caching bool) {
	fmt.Print("daisyc ")
	InfoColorFG.Print("v" + compilerVersion)
	fmt.Print(" -- module: ")
	InfoColorFG.Println(rootModule)

	if caching {
		fmt.Println("compiling using cache")
	}
}

// compilerVersion is set by the driver before reporting begins so that the
// report package does not depend on the rest of the compiler.
var compilerVersion = "?"

// SetCompilerVersion records the compiler version for display purposes.
func SetCompilerVersion(v string) {
	compilerVersion = v
}

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Borrow Checking")

// displayBeginPhase displays the beginning of a compilation phase.
func displayBeginPhase(phase string) {
	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner, _ = phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of the current compilation phase.
func displayEndPhase(success bool) {
	if phaseSpinner != nil {
		if success {
			phaseSpinner.Success(
				currentPhase+strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2),
				fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
			)
		} else {
			phaseSpinner.Fail(currentPhase + strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2))
		}

		phaseSpinner = nil
	}
}

// displayCompilationFinished displays a compilation finished message.
func displayCompilationFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
