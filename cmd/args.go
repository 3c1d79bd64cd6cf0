package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"daisyc/common"
	"daisyc/report"
)

const usage = `Usage: daisyc <command> [flags|options] <path to module directory or file>

Commands:
---------
build     Compiles the module rooted at the given path and its imports.
version   Displays the current compiler version.

Flags:
------
-h, --help       Displays usage information (ie. this text).
--emit-ir        Writes the IR dump for each module next to its C output.
--profile        Writes per-phase timing data to build/profile.json.
--rt-checks      Emits runtime guard assertions into the generated C.
--lto            Requests link-time optimization from the downstream C build.

Options:
--------
-o,  --outdir     Sets the directory for build artifacts.  Defaults to the
                  build/ directory inside the module root.
-ll, --loglevel   Sets the compiler's log-level.  Valid values are:
                    - "verbose" for outputting all messages (default)
                    - "warn" for outputting errors and warnings
                    - "error" for outputting errors only
                    - "silent" for no output
--sanitize        Selects a sanitizer for the downstream C build.  The only
                  valid value is "address".
`

// Prints the usage message and exits the compiler with the given exit code.
func printUsage(exitCode int) {
	fmt.Print(usage, "\n")
	os.Exit(exitCode)
}

// argParser is a command-line argument parser.
type argParser struct {
	// The arguments being parsed.
	args []string

	// The argument parser's position within those arguments.
	ndx int
}

// Set containing all the argument names that correspond to options.
var options = map[string]struct{}{
	"o":         {},
	"ll":        {},
	"-outdir":   {},
	"-loglevel": {},
	"-sanitize": {},
}

// argumentError displays an argument error and exits the program.
func argumentError(message string, args ...interface{}) {
	fmt.Print("argument error: ", fmt.Sprintf(message, args...), "\n\n")
	printUsage(1)
}

// nextArg parses the next command-line argument if one exists.  The first
// value is the name of the argument; it is empty for positionals.  The second
// value is the value of the argument; it is empty for flags.  The final value
// indicates whether there was an argument to parse.
func (ap *argParser) nextArg() (string, string, bool) {
	if ap.ndx < len(ap.args) {
		arg := ap.args[ap.ndx]
		ap.ndx++

		if strings.HasPrefix(arg, "-") { // flag or option
			name := arg[1:]

			if _, ok := options[name]; ok { // option
				// Make sure the option value exists.
				if ap.ndx < len(ap.args) && !strings.HasPrefix(ap.args[ap.ndx], "-") {
					value := ap.args[ap.ndx]
					ap.ndx++
					return name, value, true
				}

				argumentError("option %s requires an argument", strings.TrimLeft(name, "-"))
			}

			return name, "", true
		}

		// positional
		return "", arg, true
	}

	// No arguments to parse.
	return "", "", false
}

// useArg attempts to use a single command-line argument to initialize the
// build configuration.  If the argument is invalid, the program will exit.
func useArg(cfg *BuildConfig, name, value string) {
	switch name {
	case "h", "-help":
		printUsage(0)
	case "-emit-ir":
		cfg.EmitIR = true
	case "-profile":
		cfg.Profile = true
	case "-rt-checks":
		cfg.RTChecks = true
	case "-lto":
		cfg.LTO = true
	case "-sanitize":
		if value != "address" {
			argumentError("invalid sanitizer: %s", value)
		}

		cfg.Sanitize = value
	case "ll", "-loglevel":
		{
			var logLevel int
			switch value {
			case "silent":
				logLevel = report.LogLevelSilent
			case "error":
				logLevel = report.LogLevelError
			case "warn":
				logLevel = report.LogLevelWarn
			case "verbose":
				logLevel = report.LogLevelVerbose
			default:
				argumentError("invalid log level")
			}

			cfg.LogLevel = logLevel
		}
	case "o", "-outdir":
		{
			absPath, err := filepath.Abs(value)
			if err != nil {
				argumentError("invalid output directory: %s", value)
			}

			cfg.OutDir = absPath
		}
	case "":
		if cfg.RootPath == "" {
			absPath, err := filepath.Abs(value)
			if err != nil {
				argumentError("invalid root path: %s", value)
			}

			cfg.RootPath = absPath
		} else {
			argumentError("root path specified multiple times")
		}
	default:
		argumentError("unknown flag: -%s", name)
	}
}

// buildConfigFromArgs parses the arguments following the `build` subcommand
// into a build configuration if they are valid.
func buildConfigFromArgs(args []string) *BuildConfig {
	cfg := &BuildConfig{LogLevel: report.LogLevelVerbose}

	ap := argParser{args: args, ndx: 0}

	for {
		if name, value, ok := ap.nextArg(); ok {
			useArg(cfg, name, value)
		} else {
			break
		}
	}

	if cfg.RootPath == "" {
		argumentError("a root path must be specified")
	}

	// A file path builds the module that contains it.
	if finfo, err := os.Stat(cfg.RootPath); err == nil && !finfo.IsDir() {
		cfg.RootPath = filepath.Dir(cfg.RootPath)
	}

	if cfg.OutDir == "" {
		cfg.OutDir = filepath.Join(cfg.RootPath, common.BuildDirName)
	}

	return cfg
}
