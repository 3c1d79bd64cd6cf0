package cmd

import (
	"fmt"
	"os"
	"time"

	"daisyc/borrow"
	"daisyc/codegen"
	"daisyc/common"
	"daisyc/depm"
	"daisyc/mir"
	"daisyc/report"
	"daisyc/walk"
)

// BuildConfig carries the configuration of one `build` invocation as parsed
// from the command line.
type BuildConfig struct {
	// The absolute path to the root module directory.
	RootPath string

	// The directory build artifacts are written to.
	OutDir string

	EmitIR   bool
	Profile  bool
	RTChecks bool
	LTO      bool

	// The selected sanitizer, empty for none.
	Sanitize string

	LogLevel int
}

// Compiler represents the global state of one compilation.
type Compiler struct {
	cfg *BuildConfig

	// The root module of the project being compiled.
	rootModule *depm.Module

	// The resolver that loaded the module graph.
	resolver *depm.Resolver

	// Timing data collected when profiling is enabled.
	timings *buildTimings
}

// RunCompiler is the entry point for the `daisyc` command line.  It returns
// the process exit code: 0 on success, 1 when diagnostics were reported, and
// 2 on an internal compiler error.
func RunCompiler() int {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage(1)
	}

	switch args[0] {
	case "build":
		cfg := buildConfigFromArgs(args[1:])
		report.InitReporter(cfg.LogLevel)
		return NewCompiler(cfg).Build()
	case "version":
		fmt.Println("daisyc " + common.DaisyVersion)
		return 0
	case "test", "bench", "lsp":
		fmt.Fprintf(os.Stderr, "daisyc %s: this command is served by a separate tool; this binary only builds modules\n", args[0])
		return 1
	case "-h", "--help":
		printUsage(0)
	default:
		argumentError("unknown command: %s", args[0])
	}

	// unreachable
	return 2
}

// NewCompiler creates a new compiler for a build configuration.
func NewCompiler(cfg *BuildConfig) *Compiler {
	return &Compiler{cfg: cfg, timings: newBuildTimings()}
}

// Build runs the full compilation pipeline: resolution, checking, borrow
// analysis, lowering, and C emission with caching.  It returns the process
// exit code.
func (c *Compiler) Build() int {
	start := time.Now()

	report.ReportBeginPhase("Resolving")
	c.resolver = depm.NewResolver(nil)
	root, ok := c.resolver.ResolveRoot(c.cfg.RootPath)
	c.timings.phase("resolve", start)
	report.ReportEndPhase()
	if !ok {
		return 1
	}
	c.rootModule = root

	report.ReportCompileHeader(root.Name, true)

	checkStart := time.Now()
	report.ReportBeginPhase("Checking")
	env := walk.WalkProgram(root)
	c.timings.phase("check", checkStart)
	report.ReportEndPhase()
	if !report.ShouldProceed() {
		return 1
	}

	borrowStart := time.Now()
	report.ReportBeginPhase("Borrow checking")
	borrow.CheckProgram(env)
	c.timings.phase("borrow", borrowStart)
	report.ReportEndPhase()
	if !report.ShouldProceed() {
		return 1
	}

	lowerStart := time.Now()
	report.ReportBeginPhase("Lowering")
	mirMods := mir.Lower(env, root)
	for _, m := range mirMods {
		mir.PruneDeadTemps(m)
		if err := mir.Validate(m); err != nil {
			report.ReportICE("invalid IR for module `%s`: %s", m.Name, err)
		}
	}
	c.timings.phase("lower", lowerStart)
	report.ReportEndPhase()

	report.ReportBeginPhase("Generating")
	c.generate(mirMods)
	report.ReportEndPhase()
	if !report.ShouldProceed() {
		return 1
	}

	c.timings.total = time.Since(start)
	if c.cfg.Profile {
		c.writeProfile()
	}

	report.ReportCompilationFinished()
	return 0
}

// generate emits the build artifacts for every module, consulting the build
// cache so unchanged modules skip regeneration.
func (c *Compiler) generate(mirMods []*mir.Module) {
	hashes := c.moduleHashes()
	gen := codegen.New(mirMods, codegen.Options{RTChecks: c.cfg.RTChecks})

	for _, m := range mirMods {
		genStart := time.Now()
		hash := hashes[m.Name]

		if c.cacheHit(m.Name, hash) {
			c.timings.module(m.Name, genStart, true)
			continue
		}

		c.writeArtifacts(gen, m, hash)
		c.writeCache(m.Name, hash)
		c.timings.module(m.Name, genStart, false)
	}
}
