package depm

import (
	"path/filepath"
	"testing"

	"daisyc/report"
)

// writeModule lays out a module directory: its manifest plus named source
// files.
func writeModule(t *testing.T, dir, manifest string, files map[string]string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, "daisy.toml"), manifest)
	for name, contents := range files {
		writeFile(t, filepath.Join(dir, name), contents)
	}
}

func TestResolvePathDependency(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "mathlib"), `
name = "mathlib"
version = "1.2.0"
abi-major = 1
`, map[string]string{
		"math.dsy": `module mathlib

public fn square(x: int) -> int:
  return x * x
`,
	})

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1

[dependencies]
mathlib = { path = "../mathlib", version = "^1.0.0" }
`, map[string]string{
		"main.dsy": `module app

import mathlib

fn main() -> int:
  return mathlib.square(3)
`,
	})

	r := NewResolver(nil)
	mod, ok := r.ResolveRoot(filepath.Join(root, "app"))
	if !ok {
		t.Fatalf("resolution failed with %d errors", report.ErrorCount())
	}

	dep, ok := mod.Deps["mathlib"]
	if !ok {
		t.Fatalf("expected `mathlib` among dependencies")
	}

	sym, ok := dep.SymTable.LookupPublic("square")
	if !ok {
		t.Fatalf("expected `square` exported by mathlib")
	}

	if sym.DefKind != DKFunc {
		t.Errorf("expected `square` to be a function symbol")
	}

	if len(mod.Files) != 1 {
		t.Fatalf("expected 1 source file, got %d", len(mod.Files))
	}

	imp, ok := mod.Files[0].Imports["mathlib"]
	if !ok {
		t.Fatalf("expected `mathlib` bound in file scope")
	}

	if imp.Mod != dep {
		t.Errorf("import binding does not reference the dependency module")
	}
}

func TestResolveUseDeclaration(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "mathlib"), `
name = "mathlib"
version = "1.0.0"
abi-major = 1
`, map[string]string{
		"math.dsy": `module mathlib

public fn sqrt(x: int) -> int:
  return x

fn helper() -> int:
  return 0
`,
	})

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1

[dependencies]
mathlib = { path = "../mathlib" }
`, map[string]string{
		"main.dsy": `module app

use mathlib.sqrt

fn main() -> int:
  return sqrt(9)
`,
	})

	r := NewResolver(nil)
	mod, ok := r.ResolveRoot(filepath.Join(root, "app"))
	if !ok {
		t.Fatalf("resolution failed with %d errors", report.ErrorCount())
	}

	sym, ok := mod.Files[0].Visible["sqrt"]
	if !ok {
		t.Fatalf("expected `sqrt` visible in file scope")
	}

	if sym.Name != "sqrt" || !sym.Public {
		t.Errorf("unexpected symbol bound by use declaration: %+v", sym)
	}
}

func TestResolveWorkspaceMember(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "app", "libs", "strutil"), `
name = "strutil"
version = "0.2.0"
abi-major = 1
`, map[string]string{
		"strutil.dsy": `module strutil

public fn greeting() -> string:
  return "hello"
`,
	})

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1

[workspace]
members = ["libs/*"]
`, map[string]string{
		"main.dsy": `module app

import strutil

fn main() -> nothing:
  print strutil.greeting()
`,
	})

	r := NewResolver(nil)
	mod, ok := r.ResolveRoot(filepath.Join(root, "app"))
	if !ok {
		t.Fatalf("resolution failed with %d errors", report.ErrorCount())
	}

	if _, ok := mod.Deps["strutil"]; !ok {
		t.Errorf("expected workspace member `strutil` resolved as dependency")
	}
}

func TestImportCycleDetected(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "alpha"), `
name = "alpha"
version = "0.1.0"
abi-major = 1

[dependencies]
beta = { path = "../beta" }
`, map[string]string{
		"alpha.dsy": `module alpha

import beta

public fn a() -> int:
  return 1
`,
	})

	writeModule(t, filepath.Join(root, "beta"), `
name = "beta"
version = "0.1.0"
abi-major = 1

[dependencies]
alpha = { path = "../alpha" }
`, map[string]string{
		"beta.dsy": `module beta

import alpha

public fn b() -> int:
  return 2
`,
	})

	r := NewResolver(nil)
	if _, ok := r.ResolveRoot(filepath.Join(root, "alpha")); ok {
		t.Errorf("expected cyclic import graph to fail resolution")
	}

	if !report.AnyErrors() {
		t.Errorf("expected an import cycle error to be reported")
	}
}

func TestAbiMajorGate(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "oldlib"), `
name = "oldlib"
version = "3.0.0"
abi-major = 2
`, map[string]string{
		"oldlib.dsy": `module oldlib

public fn old() -> int:
  return 0
`,
	})

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1

[dependencies]
oldlib = { path = "../oldlib" }
`, map[string]string{
		"main.dsy": `module app

import oldlib

fn main() -> int:
  return oldlib.old()
`,
	})

	r := NewResolver(nil)
	if _, ok := r.ResolveRoot(filepath.Join(root, "app")); ok {
		t.Errorf("expected ABI major mismatch to fail resolution")
	}

	if report.ErrorCount() == 0 {
		t.Errorf("expected an ABI incompatibility error to be reported")
	}
}

func TestVersionRequirementEnforced(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "mathlib"), `
name = "mathlib"
version = "1.2.0"
abi-major = 1
`, map[string]string{
		"math.dsy": `module mathlib

public fn square(x: int) -> int:
  return x * x
`,
	})

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1

[dependencies]
mathlib = { path = "../mathlib", version = "^2.0.0" }
`, map[string]string{
		"main.dsy": `module app

import mathlib

fn main() -> int:
  return mathlib.square(3)
`,
	})

	r := NewResolver(nil)
	if _, ok := r.ResolveRoot(filepath.Join(root, "app")); ok {
		t.Errorf("expected version requirement mismatch to fail resolution")
	}

	if report.ErrorCount() == 0 {
		t.Errorf("expected a version mismatch error to be reported")
	}
}

func TestDuplicateTopLevelSymbol(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1
`, map[string]string{
		"main.dsy": `module app

fn twice(x: int) -> int:
  return x + x

fn twice(x: int) -> int:
  return 2 * x
`,
	})

	r := NewResolver(nil)
	if _, ok := r.ResolveRoot(filepath.Join(root, "app")); ok {
		t.Errorf("expected duplicate definition to fail resolution")
	}

	if report.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount())
	}
}

func TestUnknownImportReported(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	root := t.TempDir()

	writeModule(t, filepath.Join(root, "app"), `
name = "app"
version = "0.1.0"
abi-major = 1
`, map[string]string{
		"main.dsy": `module app

import nosuchlib

fn main() -> nothing:
  return
`,
	})

	r := NewResolver(nil)
	if _, ok := r.ResolveRoot(filepath.Join(root, "app")); ok {
		t.Errorf("expected unresolvable import to fail resolution")
	}

	if report.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount())
	}
}
