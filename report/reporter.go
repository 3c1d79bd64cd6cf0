package report

import (
	"sync"
	"time"
)

// reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.
type reporter struct {
	// The mutex used to synchronize different report calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors and warnings reported so far.
	errorCount   int
	warningCount int

	// The time compilation began.
	startTime time.Time
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// rep is a global reference to the shared reporter.
var rep reporter

// InitReporter initializes the global reporter with the provided log level.
func InitReporter(logLevel int) {
	rep = reporter{
		m:         &sync.Mutex{},
		logLevel:  logLevel,
		startTime: time.Now(),
	}
}
