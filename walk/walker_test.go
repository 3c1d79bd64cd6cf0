package walk

import (
	"os"
	"path/filepath"
	"testing"

	"daisyc/depm"
	"daisyc/report"
	"daisyc/types"
)

// checkProgram resolves and walks a single-file program, returning the
// resulting environment and whether checking succeeded.
func checkProgram(t *testing.T, src string) (*Env, bool) {
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

	env := WalkProgram(mod)
	return env, report.ShouldProceed()
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

// instanceNamed reports whether a checked function instance with the given
// name was produced.
func instanceNamed(env *Env, name string) bool {
	for _, inst := range env.Instances {
		if inst.Name == name {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

func TestCheckSimpleFunction(t *testing.T) {
	env, ok := checkProgram(t, `module app

fn add(a: int, b: int) -> int:
  set total = a + b
  add 1 to total
  return total

fn main() -> int:
  return add(2, 3)
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}

	if !instanceNamed(env, "add") || !instanceNamed(env, "main") {
		t.Errorf("expected instances for add and main, got %d instances", len(env.Instances))
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn f() -> int:
  return true
`)
	if ok {
		t.Error("expected a type mismatch returning bool as int")
	}
}

func TestUndefinedSymbol(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn main() -> int:
  return missing(1)
`)
	if ok {
		t.Error("expected an unknown symbol error")
	}
}

func TestConditionMustBeBool(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn main() -> int:
  if 1:
    return 0
  return 1
`)
	if ok {
		t.Error("expected an error for a non-bool condition")
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn main() -> int:
  break
  return 0
`)
	if ok {
		t.Error("expected an error for break outside of a loop")
	}
}

func TestStructFieldAndMethodCall(t *testing.T) {
	env, ok := checkProgram(t, `module app

struct Point:
  x: int
  y: int

impl Point:
  fn sum(self: Self) -> int:
    return self.x + self.y

fn main() -> int:
  set p = Point(1, 2)
  return p.sum()
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}

	sig, found := env.funcSigs["Point__sum"]
	if !found {
		t.Fatal("expected a registered signature for Point__sum")
	}

	if len(sig.ParamTypes) != 1 || !types.Equals(sig.ReturnType, types.PrimTypeInt) {
		t.Errorf("unexpected signature for Point__sum: %s", sig.Repr())
	}

	if !instanceNamed(env, "Point__sum") {
		t.Error("expected an instance for Point__sum")
	}
}

func TestUnknownStructField(t *testing.T) {
	_, ok := checkProgram(t, `module app

struct Point:
  x: int
  y: int

fn main() -> int:
  set p = Point(1, 2)
  return p.z
`)
	if ok {
		t.Error("expected an unknown field error")
	}
}

func TestGenericSpecialization(t *testing.T) {
	env, ok := checkProgram(t, `module app

fn ident<T>(x: T) -> T:
  return x

fn main() -> int:
  set a = ident<int>(5)
  return a
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}

	if !env.produced["ident__int"] {
		t.Error("expected ident__int to be produced")
	}

	if !instanceNamed(env, "ident__int") {
		t.Error("expected an instance for ident__int")
	}

	sig, found := env.funcSigs["ident__int"]
	if !found {
		t.Fatal("expected a registered signature for ident__int")
	}

	if !types.Equals(sig.ReturnType, types.PrimTypeInt) {
		t.Errorf("ident__int should return int, got %s", sig.ReturnType.Repr())
	}
}

func TestTraitBoundEnforced(t *testing.T) {
	_, ok := checkProgram(t, `module app

trait Ord:
  fn cmp(self: Self, other: Self) -> int

fn largest<T: Ord>(a: T, b: T) -> T:
  return a

fn main() -> int:
  return largest<int>(1, 2)
`)
	if ok {
		t.Error("expected a trait bound failure for int without an Ord impl")
	}
}

func TestTraitImplSatisfiesBound(t *testing.T) {
	env, ok := checkProgram(t, `module app

struct Score:
  value: int

trait Ord:
  fn cmp(self: Self, other: Self) -> int

impl Ord for Score:
  fn cmp(self: Self, other: Self) -> int:
    return self.value - other.value

fn largest<T: Ord>(a: T, b: T) -> T:
  return a

fn main() -> int:
  set s = largest<Score>(Score(1), Score(2))
  return s.value
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}

	if !env.produced["largest__Score"] {
		t.Error("expected largest__Score to be produced")
	}
}

func TestResultConstructorAndTry(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn inner(flag: bool) -> Result<int, int>:
  if flag:
    return ok(1)
  return err(42)

fn outer(flag: bool) -> Result<int, int>:
  set x = try inner(flag)
  return ok(x + 1)
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}
}

func TestTryRequiresMatchingReturn(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn inner() -> Result<int, int>:
  return ok(1)

fn outer() -> int:
  set x = try inner()
  return x
`)
	if ok {
		t.Error("expected an error propagating a Result out of an int function")
	}
}

func TestMatchNotExhaustive(t *testing.T) {
	_, ok := checkProgram(t, `module app

enum Shape:
  case Circle: int
  case Dot

fn area(s: Shape) -> int:
  match s:
    case Circle(r):
      return r * r
  return 0
`)
	if ok {
		t.Error("expected a non-exhaustive match error")
	}
}

func TestMatchExhaustiveOverEnum(t *testing.T) {
	_, ok := checkProgram(t, `module app

enum Shape:
  case Circle: int
  case Dot

fn area(s: Shape) -> int:
  match s:
    case Circle(r):
      return r * r
    case Dot:
      return 0
  return 0
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}
}

func TestMatchGuardDoesNotCount(t *testing.T) {
	_, ok := checkProgram(t, `module app

enum Shape:
  case Circle: int
  case Dot

fn area(s: Shape) -> int:
  match s:
    case Circle(r) if r > 0:
      return r * r
    case Dot:
      return 0
  return 0
`)
	if ok {
		t.Error("expected a non-exhaustive match when Circle is only covered under a guard")
	}
}

func TestSpawnAndChannel(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn worker(ch: channel) -> nothing:
  send(ch, 1)

fn main() -> int:
  set ch = channel()
  spawn(worker, ch)
  return 0
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}
}

func TestBorrowYieldsView(t *testing.T) {
	_, ok := checkProgram(t, `module app

fn first(v: view) -> int:
  return 0

fn main() -> int:
  set b = buffer(16)
  set s = borrow b[0..8]
  set n = first(s)
  release b
  return n
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}
}

func TestKoreanFunctionChecks(t *testing.T) {
	_, ok := checkProgram(t, `모듈 app

함수 더하기는 a: int, b: int를 받고 int를 반환한다를 정의한다:
  a에 b를 더한다
  a를 반환한다
`)
	if !ok {
		t.Fatalf("checking failed with %d errors", report.ErrorCount())
	}
}
