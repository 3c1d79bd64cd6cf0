package cmd

import (
	"os"
	"path/filepath"

	"daisyc/codegen"
	"daisyc/mir"
	"daisyc/report"
)

// writeArtifacts emits every build artifact for one module: the C translation
// unit, its public header, the ABI manifest, the unsafe audit log when the
// module has unsafe blocks, and the IR dump when requested.
func (c *Compiler) writeArtifacts(gen *codegen.Generator, m *mir.Module, hash string) {
	if err := os.MkdirAll(c.cfg.OutDir, 0777); err != nil {
		report.ReportFatal("failed to create build directory: %s", err)
	}

	writeOutputFile(filepath.Join(c.cfg.OutDir, m.Name+".c"), gen.Generate(m))
	writeOutputFile(filepath.Join(c.cfg.OutDir, m.Name+".h"), gen.Header(m))

	manifest, err := codegen.BuildManifest(m, hash).Marshal()
	if err != nil {
		report.ReportICE("failed to encode ABI manifest for `%s`: %s", m.Name, err)
	}
	writeOutputFile(filepath.Join(c.cfg.OutDir, m.Name+".abi.json"), string(manifest)+"\n")

	if len(m.Unsafes) > 0 {
		writeOutputFile(filepath.Join(c.cfg.OutDir, m.Name+".unsafe.log"), codegen.UnsafeLog(m))
	}

	if c.cfg.EmitIR {
		writeOutputFile(filepath.Join(c.cfg.OutDir, m.Name+".ir.txt"), m.Repr())
	}
}

// writeOutputFile is used to quickly write an output file for the compiler.
func writeOutputFile(fpath, content string) {
	file, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		report.ReportFatal("failed to open output file `%s`: %s", fpath, err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		report.ReportFatal("failed to write output to file `%s`: %s", fpath, err)
	}
}
