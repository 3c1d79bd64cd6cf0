package mir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daisyc/depm"
	"daisyc/report"
	"daisyc/types"
	"daisyc/walk"
)

// lowerProgram resolves, checks, and lowers a single-file program, returning
// the MIR of its root module.
func lowerProgram(t *testing.T, src string) *Module {
	t.Helper()

	report.InitReporter(report.LogLevelSilent)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "daisy.toml"), `
name = "app"
version = "0.1.0"
abi-major = 1
`)
	writeFile(t, filepath.Join(dir, "main.dsy"), src)

	mod, ok := depm.NewResolver(nil).ResolveRoot(dir)
	if !ok {
		t.Fatalf("resolution failed with %d errors", report.ErrorCount())
	}

	env := walk.WalkProgram(mod)
	if !report.ShouldProceed() {
		t.Fatalf("type checking failed with %d errors", report.ErrorCount())
	}

	for _, m := range Lower(env, mod) {
		if m.Name == "app" {
			if err := Validate(m); err != nil {
				t.Fatalf("lowered module does not validate: %v", err)
			}

			return m
		}
	}

	t.Fatal("root module was not lowered")
	return nil
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

func findFunc(t *testing.T, m *Module, name string) *Function {
	t.Helper()

	for _, fn := range m.Funcs {
		if fn.Name == name {
			return fn
		}
	}

	t.Fatalf("function `%s` was not lowered", name)
	return nil
}

func countOps(fn *Function, op Op) int {
	n := 0
	for _, block := range fn.Blocks {
		for _, in := range block.Instrs {
			if in.Op == op {
				n++
			}
		}
	}

	return n
}

// -----------------------------------------------------------------------------

func TestLowerSimpleFunction(t *testing.T) {
	m := lowerProgram(t, `module app

fn add(a: int, b: int) -> int:
  return a + b

fn main() -> int:
  set total = add(1, 2)
  return total
`)

	add := findFunc(t, m, "add")
	if len(add.Blocks) != 1 || add.Blocks[0].Label != "entry" {
		t.Errorf("expected a single entry block, got %d blocks", len(add.Blocks))
	}

	main := findFunc(t, m, "main")
	if countOps(main, OpCall) != 1 {
		t.Errorf("expected one call in main, got %d", countOps(main, OpCall))
	}

	dump := m.Repr()
	if !strings.Contains(dump, "fn add(a:int, b:int) -> int:") {
		t.Errorf("dump is missing the add signature:\n%s", dump)
	}
	if !strings.Contains(dump, "call add") {
		t.Errorf("dump is missing the call to add:\n%s", dump)
	}
}

func TestIfLowersToBranches(t *testing.T) {
	m := lowerProgram(t, `module app

fn main(flag: bool) -> int:
  set n = 0
  if flag:
    set n = 1
  return n
`)

	main := findFunc(t, m, "main")
	if countOps(main, OpCbr) != 1 {
		t.Errorf("expected one conditional branch, got %d", countOps(main, OpCbr))
	}

	if len(main.Blocks) < 3 {
		t.Errorf("expected entry, body, and join blocks, got %d", len(main.Blocks))
	}
}

func TestRepeatChecksBoundBeforeBody(t *testing.T) {
	m := lowerProgram(t, `module app

fn main(n: int) -> int:
  set total = 0
  repeat n:
    add 1 to total
  return total
`)

	main := findFunc(t, m, "main")
	if countOps(main, OpLt) != 1 {
		t.Fatalf("expected a bound comparison, got %d", countOps(main, OpLt))
	}

	// The comparison must appear before the body's accumulation so a
	// non-positive bound never runs the body.
	seenLt := false
	for _, block := range main.Blocks {
		for _, in := range block.Instrs {
			if in.Op == OpLt {
				seenLt = true
			}

			if in.Op == OpAdd && in.Result == "total" && !seenLt {
				t.Error("loop body accumulates before the bound check")
			}
		}
	}
}

func TestWhileReevaluatesCondition(t *testing.T) {
	m := lowerProgram(t, `module app

fn main() -> int:
  set n = 0
  while n < 3:
    add 1 to n
  return n
`)

	main := findFunc(t, m, "main")

	// The header holding the comparison must be a branch target so every
	// iteration re-evaluates the condition.
	var header string
	for _, block := range main.Blocks {
		for _, in := range block.Instrs {
			if in.Op == OpLt {
				header = block.Label
			}
		}
	}

	if header == "" {
		t.Fatal("no comparison block found")
	}

	backEdges := 0
	for _, block := range main.Blocks {
		for _, in := range block.Instrs {
			if in.Op == OpBr && in.Args[0] == header {
				backEdges++
			}
		}
	}

	if backEdges < 2 {
		t.Errorf("expected entry and back edges into %s, got %d", header, backEdges)
	}
}

func TestLogicalLowersToPhi(t *testing.T) {
	m := lowerProgram(t, `module app

fn main(a: bool, b: bool) -> int:
  if a and b:
    return 1
  return 0
`)

	main := findFunc(t, m, "main")
	if countOps(main, OpPhi) != 1 {
		t.Errorf("expected `and` to lower to a phi, got %d", countOps(main, OpPhi))
	}
}

func TestTryLowersToDiscriminantBranch(t *testing.T) {
	m := lowerProgram(t, `module app

fn half(n: int) -> Result<int, int>:
  if n == 0:
    return err(1)
  return ok(n / 2)

fn run(n: int) -> Result<int, int>:
  set v = try half(n)
  return ok(v)
`)

	run := findFunc(t, m, "run")
	for _, op := range []Op{OpResultIsOk, OpResultUnwrap, OpResultUnwrapErr, OpResultErr} {
		if countOps(run, op) != 1 {
			t.Errorf("expected one %s in run, got %d", op, countOps(run, op))
		}
	}

	// The failure path must return early: two rets, the early one carrying
	// the lifted error.
	if countOps(run, OpRet) != 2 {
		t.Errorf("expected an early return plus the normal one, got %d rets", countOps(run, OpRet))
	}
}

func TestMatchLowersToTagTests(t *testing.T) {
	m := lowerProgram(t, `module app

enum Shape:
  case Circle: int
  case Dot

fn area(s: Shape) -> int:
  match s:
    case Circle(r):
      return r
    case Dot:
      return 0
  return -1

fn main() -> int:
  return area(Shape.Circle(3))
`)

	area := findFunc(t, m, "area")
	if countOps(area, OpEnumTag) != 2 {
		t.Errorf("expected a tag test per arm, got %d", countOps(area, OpEnumTag))
	}

	if countOps(area, OpEnumPayload) != 1 {
		t.Errorf("expected one payload extraction, got %d", countOps(area, OpEnumPayload))
	}

	main := findFunc(t, m, "main")
	if countOps(main, OpEnumMake) != 1 {
		t.Errorf("expected one constructor application in main, got %d", countOps(main, OpEnumMake))
	}
}

func TestBufferAndViewOps(t *testing.T) {
	m := lowerProgram(t, `module app

fn main() -> int:
  set b = buffer(16)
  set v = borrow b[0..8]
  release b
  return 0
`)

	main := findFunc(t, m, "main")
	if countOps(main, OpBufferCreate) != 1 || countOps(main, OpBufferRelease) != 1 {
		t.Error("expected a buffer create and release")
	}

	borrows := 0
	for _, block := range main.Blocks {
		for _, in := range block.Instrs {
			if in.Op == OpViewBorrow {
				borrows++
				if len(in.Args) != 4 || in.Args[3] != "imm" {
					t.Errorf("unexpected borrow operands %v", in.Args)
				}
			}
		}
	}

	if borrows != 1 {
		t.Errorf("expected one view borrow, got %d", borrows)
	}
}

func TestChannelAndSpawnOps(t *testing.T) {
	m := lowerProgram(t, `module app

fn worker(ch: channel) -> nothing:
  send(ch, 1)

fn main() -> int:
  set ch = channel()
  spawn(worker, ch)
  set v = recv(ch)
  return v
`)

	main := findFunc(t, m, "main")
	for _, op := range []Op{OpChannelCreate, OpSpawn, OpChannelRecv} {
		if countOps(main, op) != 1 {
			t.Errorf("expected one %s in main, got %d", op, countOps(main, op))
		}
	}

	worker := findFunc(t, m, "worker")
	if countOps(worker, OpChannelSend) != 1 {
		t.Error("expected a channel send in worker")
	}
}

func TestUnsafeReleaseIsUnchecked(t *testing.T) {
	m := lowerProgram(t, `module app

fn main() -> int:
  set b = buffer(8)
  unsafe "audited":
    release b
  return 0
`)

	if len(m.Unsafes) != 1 || m.Unsafes[0].Reason != "audited" {
		t.Fatalf("expected one unsafe note with its justification, got %v", m.Unsafes)
	}

	main := findFunc(t, m, "main")
	releases := 0
	for _, block := range main.Blocks {
		for _, in := range block.Instrs {
			if in.Op == OpBufferRelease {
				releases++
				if !in.Unchecked {
					t.Error("release inside unsafe should carry the waiver")
				}
			}
		}
	}

	if releases != 1 {
		t.Errorf("expected one release, got %d", releases)
	}
}

func TestMonomorphizedInstancesCarryNoTypeParams(t *testing.T) {
	m := lowerProgram(t, `module app

fn ident<T>(x: T) -> T:
  return x

fn main() -> int:
  return ident<int>(5)
`)

	fn := findFunc(t, m, "ident__int")
	if len(fn.Params) != 1 || !types.Equals(fn.Params[0].Type, types.PrimTypeInt) {
		t.Error("specialized instance should take a concrete int")
	}

	for _, p := range fn.Params {
		if _, ok := p.Type.(*types.ParamType); ok {
			t.Error("a type parameter survived into MIR")
		}
	}
}

func TestStructTypesRecorded(t *testing.T) {
	m := lowerProgram(t, `module app

struct Point:
  x: int
  y: int

fn main() -> int:
  set p = Point(1, 2)
  return p.x
`)

	found := false
	for _, st := range m.Structs {
		if st.Name == "Point" {
			found = true
		}
	}

	if !found {
		t.Error("Point was not recorded for the backend")
	}

	main := findFunc(t, m, "main")
	if countOps(main, OpStructNew) != 1 || countOps(main, OpStructGet) != 1 {
		t.Error("expected a struct construction and field projection")
	}
}

func TestSurfaceEquivalentPrograms(t *testing.T) {
	english := lowerProgram(t, `module app

fn 더하기(a: int, b: int) -> int:
  add b to a
  return a
`)

	korean := lowerProgram(t, `모듈 app

함수 더하기는 a: int, b: int를 받고 int를 반환한다를 정의한다:
  a에 b를 더한다
  a를 반환한다
`)

	if english.Repr() != korean.Repr() {
		t.Errorf("surfaces lower differently:\n--- english ---\n%s\n--- korean ---\n%s",
			english.Repr(), korean.Repr())
	}
}

func TestPruneRemovesUnusedTempChain(t *testing.T) {
	fn := &Function{
		Name:       "f",
		ReturnType: types.PrimTypeInt,
		Blocks: []*Block{{
			Label: "entry",
			Instrs: []*Instr{
				{Op: OpConst, Result: "%t0", Type: types.PrimTypeInt, Args: []string{"1"}},
				{Op: OpConst, Result: "%t1", Type: types.PrimTypeInt, Args: []string{"2"}},
				{Op: OpAdd, Result: "%t2", Type: types.PrimTypeInt, Args: []string{"%t0", "%t1"}},
				{Op: OpConst, Result: "%t3", Type: types.PrimTypeInt, Args: []string{"0"}},
				{Op: OpRet, Args: []string{"%t3"}},
			},
		}},
	}
	m := &Module{Name: "app", Funcs: []*Function{fn}}

	PruneDeadTemps(m)
	if err := Validate(m); err != nil {
		t.Fatalf("pruned module does not validate: %v", err)
	}

	// The dead add and both constants feeding it go; the returned constant
	// stays.
	if len(fn.Blocks[0].Instrs) != 2 {
		t.Errorf("expected 2 instructions after pruning, got %d", len(fn.Blocks[0].Instrs))
	}
}

func TestPruneKeepsNamedSlots(t *testing.T) {
	m := lowerProgram(t, `module app

fn main() -> int:
  set unused = 1 + 2
  return 0
`)

	main := findFunc(t, m, "main")
	PruneDeadTemps(m)
	if err := Validate(m); err != nil {
		t.Fatalf("pruned module does not validate: %v", err)
	}

	if countOps(main, OpAssign) != 1 {
		t.Error("pruning removed an assignment to a named slot")
	}
}

func TestValidateRejectsUseBeforeDef(t *testing.T) {
	m := &Module{Name: "bad"}
	m.Funcs = append(m.Funcs, &Function{
		Name:       "f",
		ReturnType: types.PrimTypeInt,
		Blocks: []*Block{{
			Label: "entry",
			Instrs: []*Instr{
				{Op: OpAdd, Result: "%t0", Type: types.PrimTypeInt, Args: []string{"%t9", "%t9"}},
				{Op: OpRet, Args: []string{"%t0"}},
			},
		}},
	})

	if Validate(m) == nil {
		t.Error("expected a use-before-def error")
	}
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	m := &Module{Name: "bad"}
	m.Funcs = append(m.Funcs, &Function{
		Name:       "f",
		ReturnType: types.PrimTypeInt,
		Blocks: []*Block{{
			Label: "entry",
			Instrs: []*Instr{
				{Op: OpConst, Result: "%t0", Type: types.PrimTypeInt, Args: []string{"1"}},
			},
		}},
	})

	if Validate(m) == nil {
		t.Error("expected a missing-terminator error")
	}
}
