package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daisyc/depm"
	"daisyc/mir"
	"daisyc/report"
	"daisyc/walk"
)

// compileModules runs a source tree through the full front and middle end,
// returning every lowered module.
func compileModules(t *testing.T, dir string) []*mir.Module {
	t.Helper()

	report.InitReporter(report.LogLevelSilent)

	mod, ok := depm.NewResolver(nil).ResolveRoot(dir)
	if !ok {
		t.Fatalf("resolution failed with %d errors", report.ErrorCount())
	}

	env := walk.WalkProgram(mod)
	if !report.ShouldProceed() {
		t.Fatalf("type checking failed with %d errors", report.ErrorCount())
	}

	mods := mir.Lower(env, mod)
	for _, m := range mods {
		if err := mir.Validate(m); err != nil {
			t.Fatalf("module %s does not validate: %v", m.Name, err)
		}
	}

	return mods
}

// emitProgram compiles a single-file program named `app` and emits its C.
func emitProgram(t *testing.T, src string, opts Options) string {
	t.Helper()

	mods := compileProgram(t, src)
	g := New(mods, opts)
	for _, m := range mods {
		if m.Name == "app" {
			return g.Generate(m)
		}
	}

	t.Fatal("root module was not lowered")
	return ""
}

func compileProgram(t *testing.T, src string) []*mir.Module {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "daisy.toml"), `
name = "app"
version = "0.1.0"
abi-major = 1
`)
	writeFile(t, filepath.Join(dir, "main.dsy"), src)

	return compileModules(t, dir)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func findModule(t *testing.T, mods []*mir.Module, name string) *mir.Module {
	t.Helper()

	for _, m := range mods {
		if m.Name == name {
			return m
		}
	}

	t.Fatalf("module `%s` was not lowered", name)
	return nil
}

// -----------------------------------------------------------------------------

func TestEmitSimpleFunction(t *testing.T) {
	c := emitProgram(t, `module app

fn add(a: int, b: int) -> int:
  return a + b

fn main() -> int:
  set total = add(1, 2)
  return total
`, Options{})

	if !strings.Contains(c, `#include "rt.h"`) {
		t.Errorf("expected the runtime header include")
	}

	if !strings.Contains(c, "int64_t daisy_app__add(int64_t a, int64_t b)") {
		t.Errorf("expected the mangled definition of add, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_app__add(") {
		t.Errorf("expected a call to the mangled symbol")
	}

	if !strings.Contains(c, "int64_t main(") {
		t.Errorf("expected main to stay unmangled")
	}

	if strings.Contains(c, "daisy_app__main") {
		t.Errorf("main must not be mangled")
	}
}

func TestSurfaceEquivalentProgramsEmitIdenticalC(t *testing.T) {
	english := emitProgram(t, `module app

fn main() -> int:
  set total = 0
  add 3 to total
  return total
`, Options{})

	korean := emitProgram(t, `모듈 app

함수 main은 int를 반환한다를 정의한다:
  total을 0으로 정한다
  total에 3을 더한다
  total을 반환한다
`, Options{})

	if english != korean {
		t.Errorf("surfaces diverged:\n--- english ---\n%s\n--- korean ---\n%s", english, korean)
	}
}

func TestBranchesLowerToGotos(t *testing.T) {
	c := emitProgram(t, `module app

fn main() -> int:
  set x = 3
  if x > 2:
    return 1
  return 0
`, Options{})

	if !strings.Contains(c, "goto ") {
		t.Errorf("expected gotos for the lowered branches, got:\n%s", c)
	}

	if !strings.Contains(c, "if (") {
		t.Errorf("expected a conditional branch")
	}
}

func TestStackAllocatesUnreleasedConstantBuffer(t *testing.T) {
	c := emitProgram(t, `module app

fn main() -> int:
  set b = buffer(8)
  return 0
`, Options{})

	if !strings.Contains(c, "_stack[8]") {
		t.Errorf("expected a stack backed buffer, got:\n%s", c)
	}

	if strings.Contains(c, "daisy_buffer_create") {
		t.Errorf("a constant, never escaping buffer must not hit the heap allocator")
	}
}

func TestReleasedBufferStaysOnHeap(t *testing.T) {
	c := emitProgram(t, `module app

fn main() -> int:
  set b = buffer(8)
  release b
  return 0
`, Options{})

	if !strings.Contains(c, "daisy_buffer_create(") {
		t.Errorf("expected a heap allocation for a released buffer, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_buffer_release(&b)") {
		t.Errorf("expected the explicit release call")
	}
}

func TestRTChecksEmitGuards(t *testing.T) {
	src := `module app

fn main() -> int:
  set b = buffer(16)
  set v = borrow b[0..8]
  release b
  return 0
`

	checked := emitProgram(t, src, Options{RTChecks: true})
	if !strings.Contains(checked, "#define DAISY_RT_CHECKS 1") {
		t.Errorf("expected the rt-checks define")
	}
	if !strings.Contains(checked, "DAISY_RT_ASSERT(") {
		t.Errorf("expected guards around the view borrow, got:\n%s", checked)
	}

	plain := emitProgram(t, src, Options{})
	if strings.Contains(plain, "DAISY_RT_ASSERT(") {
		t.Errorf("guards must not be emitted without --rt-checks")
	}
}

func TestUncheckedReleaseSkipsGuard(t *testing.T) {
	c := emitProgram(t, `module app

fn main() -> int:
  set b = buffer(16)
  set v = borrow b[0..8]
  unsafe "audited":
    release b
  return 0
`, Options{RTChecks: true})

	if strings.Contains(c, `"buffer.release"`) {
		t.Errorf("an unsafe release must not be guarded, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_buffer_release(&b)") {
		t.Errorf("expected the release call itself")
	}
}

func TestEnumTypedefAndTagDispatch(t *testing.T) {
	c := emitProgram(t, `module app

enum Shape:
  case Circle: int
  case Dot

fn area(s: Shape) -> int:
  match s:
    case Circle(r):
      return r * r
    case Dot:
      return 0

fn main() -> int:
  return area(Shape.Circle(3))
`, Options{})

	if !strings.Contains(c, "typedef struct daisy_enum_app__Shape {") {
		t.Errorf("expected the enum typedef, got:\n%s", c)
	}

	if !strings.Contains(c, "int64_t tag;") || !strings.Contains(c, "union {") {
		t.Errorf("expected the tagged union layout")
	}

	if !strings.Contains(c, ".data.Circle") {
		t.Errorf("expected payload access through the case member")
	}
}

func TestStructTypedefAndFieldAccess(t *testing.T) {
	c := emitProgram(t, `module app

struct Point:
  x: int
  y: int

fn main() -> int:
  set p = Point(1, 2)
  return p.x
`, Options{})

	if !strings.Contains(c, "typedef struct daisy_struct_app__Point {") {
		t.Errorf("expected the struct typedef, got:\n%s", c)
	}

	if !strings.Contains(c, ".x = ") {
		t.Errorf("expected fieldwise construction")
	}

	if !strings.Contains(c, ".x;") {
		t.Errorf("expected a field projection")
	}
}

func TestResultLowersToTagAndPayload(t *testing.T) {
	c := emitProgram(t, `module app

fn half(x: int) -> Result<int, int>:
  if x > 0:
    return ok(x / 2)
  return err(x)

fn run(x: int) -> Result<int, int>:
  set h = try half(x)
  return ok(h)

fn main() -> int:
  return 0
`, Options{})

	if !strings.Contains(c, ".tag == 0") {
		t.Errorf("expected a discriminant test, got:\n%s", c)
	}

	if !strings.Contains(c, ".data.Ok") || !strings.Contains(c, ".data.Err") {
		t.Errorf("expected payload access through the Ok and Err members")
	}
}

func TestChannelAndSpawnEmission(t *testing.T) {
	c := emitProgram(t, `module app

fn worker(ch: channel) -> nothing:
  send(ch, 42)

fn main() -> int:
  set ch = channel()
  spawn(worker, ch)
  return recv(ch)
`, Options{})

	if !strings.Contains(c, "daisy_channel_create()") {
		t.Errorf("expected channel creation, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_spawn_with_channel((void*)daisy_app__worker, ") {
		t.Errorf("expected the spawn helper with the mangled target")
	}

	if !strings.Contains(c, "daisy_channel_recv(") || !strings.Contains(c, "daisy_channel_send(") {
		t.Errorf("expected the channel send and recv calls")
	}
}

func TestRuntimeBuiltinsBindToSymbolTable(t *testing.T) {
	c := emitProgram(t, `module app

fn main() -> int:
  set s = int_to_str(42)
  set n = str_len(s)
  return n
`, Options{})

	if !strings.Contains(c, "daisy_int_to_str(") || !strings.Contains(c, "daisy_str_len(") {
		t.Errorf("expected runtime symbol calls, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_str_release(") {
		t.Errorf("expected the owned string to be released at scope end")
	}
}

func TestCrossModuleCallDeclaresAndMangles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "mathlib", "daisy.toml"), `
name = "mathlib"
version = "1.0.0"
abi-major = 1
`)
	writeFile(t, filepath.Join(dir, "mathlib", "math.dsy"), `module mathlib

public fn square(x: int) -> int:
  return x * x
`)

	writeFile(t, filepath.Join(dir, "app", "daisy.toml"), `
name = "app"
version = "0.1.0"
abi-major = 1

[dependencies]
mathlib = { path = "../mathlib", version = "1.0.0" }
`)
	writeFile(t, filepath.Join(dir, "app", "main.dsy"), `module app

import mathlib

fn main() -> int:
  return mathlib.square(3)
`)

	mods := compileModules(t, filepath.Join(dir, "app"))
	g := New(mods, Options{})
	c := g.Generate(findModule(t, mods, "app"))

	if !strings.Contains(c, "extern int64_t daisy_mathlib__square(int64_t a0);") {
		t.Errorf("expected the foreign prototype, got:\n%s", c)
	}

	if !strings.Contains(c, "daisy_mathlib__square(") {
		t.Errorf("expected the qualified call to mangle")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := `module app

fn add(a: int, b: int) -> int:
  return a + b

fn main() -> int:
  return add(20, 22)
`

	first := emitProgram(t, src, Options{})
	second := emitProgram(t, src, Options{})

	if first != second {
		t.Errorf("two emissions of the same program diverged")
	}
}

// -----------------------------------------------------------------------------

func TestManifestCarriesSymbolsAndAbi(t *testing.T) {
	mods := compileProgram(t, `module app

fn add(a: int, b: int) -> int:
  return a + b

fn main() -> int:
  return add(1, 2)
`)

	manifest := BuildManifest(findModule(t, mods, "app"), "deadbeef")
	if manifest.Module != "app" || manifest.AbiVersion != 1 {
		t.Errorf("unexpected manifest identity: %+v", manifest)
	}

	if manifest.SourceHash != "deadbeef" {
		t.Errorf("manifest must carry the source hash")
	}

	if _, ok := manifest.Functions["daisy_app__add"]; !ok {
		t.Errorf("expected `daisy_app__add` among exported symbols")
	}

	if hash, ok := manifest.Functions["main"]; !ok || len(hash) != 16 {
		t.Errorf("expected an unmangled `main` entry with a 16 digit signature hash")
	}

	first, err := manifest.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	second, _ := manifest.Marshal()
	if string(first) != string(second) {
		t.Errorf("manifest serialization is not deterministic")
	}
}

func TestHeaderListsPublicSignatures(t *testing.T) {
	mods := compileProgram(t, `module app

fn add(a: int, b: int) -> int:
  return a + b

fn main() -> int:
  return add(1, 2)
`)

	g := New(mods, Options{})
	h := g.Header(findModule(t, mods, "app"))

	if !strings.Contains(h, "#pragma once") {
		t.Errorf("expected an include guard")
	}

	if !strings.Contains(h, "int64_t daisy_app__add(int64_t a, int64_t b);") {
		t.Errorf("expected the add prototype, got:\n%s", h)
	}
}

func TestUnsafeLogFormat(t *testing.T) {
	mods := compileProgram(t, `module app

fn main() -> int:
  set b = buffer(16)
  set v = borrow b[0..8]
  unsafe "audited":
    release b
  return 0
`)

	log := UnsafeLog(findModule(t, mods, "app"))
	if !strings.HasPrefix(log, "module: app\n") {
		t.Errorf("expected the module header, got:\n%s", log)
	}

	if !strings.Contains(log, "audited") {
		t.Errorf("expected the justification in the log, got:\n%s", log)
	}

	if !strings.Contains(log, "L") || !strings.Contains(log, ":") {
		t.Errorf("expected a position prefix")
	}
}
