package cmd

import (
	"encoding/json"
	"path/filepath"
	"time"

	"daisyc/report"
)

// buildTimings accumulates per-phase and per-module durations for the
// profile.json artifact.  The front-end phases run whole-program, so their
// timings are recorded once; codegen runs per module.
type buildTimings struct {
	phases  map[string]float64
	modules map[string]*moduleTiming
	total   time.Duration
}

type moduleTiming struct {
	Codegen float64 `json:"codegen"`
	Cached  bool    `json:"cached"`
}

func newBuildTimings() *buildTimings {
	return &buildTimings{
		phases:  make(map[string]float64),
		modules: make(map[string]*moduleTiming),
	}
}

// phase records the elapsed time of a whole-program phase.
func (bt *buildTimings) phase(name string, start time.Time) {
	bt.phases[name] = time.Since(start).Seconds()
}

// module records the generation time of one module and whether the build
// cache satisfied it.
func (bt *buildTimings) module(name string, start time.Time, cached bool) {
	bt.modules[name] = &moduleTiming{
		Codegen: time.Since(start).Seconds(),
		Cached:  cached,
	}
}

// writeProfile writes the profile.json artifact into the build directory.
func (c *Compiler) writeProfile() {
	payload := struct {
		Total   float64                  `json:"total"`
		Phases  map[string]float64       `json:"phases"`
		Modules map[string]*moduleTiming `json:"modules"`
	}{
		Total:   c.timings.total.Seconds(),
		Phases:  c.timings.phases,
		Modules: c.timings.modules,
	}

	data, err := json.MarshalIndent(&payload, "", "  ")
	if err != nil {
		report.ReportICE("failed to encode profile data: %s", err)
	}

	writeOutputFile(filepath.Join(c.cfg.OutDir, "profile.json"), string(data)+"\n")
}
