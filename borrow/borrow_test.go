package borrow

import (
	"os"
	"path/filepath"
	"testing"

	"daisyc/depm"
	"daisyc/report"
	"daisyc/walk"
)

// checkOwnership resolves, type checks, and borrow checks a single-file
// program, reporting whether the whole pipeline accepted it.
func checkOwnership(t *testing.T, src string) bool {
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

	CheckProgram(env)
	return report.ShouldProceed()
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

// -----------------------------------------------------------------------------

func TestOwnedBufferLifecycle(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set b = buffer(8)
  release b
  return 0
`) {
		t.Errorf("create then release should be accepted, got %d errors", report.ErrorCount())
	}
}

func TestUseAfterMove(t *testing.T) {
	if checkOwnership(t, `module app

fn consume(b: buffer) -> nothing:
  release b

fn main() -> int:
  set b = buffer(8)
  set c = move b
  consume(c)
  consume(b)
  return 0
`) {
		t.Error("expected a use-after-move error")
	}
}

func TestUseAfterRelease(t *testing.T) {
	if checkOwnership(t, `module app

fn main() -> int:
  set b = buffer(8)
  release b
  set v = borrow b
  return 0
`) {
		t.Error("expected an error borrowing a released buffer")
	}
}

func TestRebindRestoresOwnership(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set b = buffer(8)
  set c = move b
  set b = buffer(16)
  release b
  release c
  return 0
`) {
		t.Errorf("rebinding a moved local should restore it, got %d errors", report.ErrorCount())
	}
}

func TestBorrowAliasConflict(t *testing.T) {
	if checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set v1 = borrow mut r[0..8]
  set v2 = borrow r[0..4]
  return 0
`) {
		t.Error("expected an aliasing conflict between overlapping borrows")
	}
}

func TestDisjointBorrowsCoexist(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set a = borrow mut r[0..4]
  set b = borrow mut r[4..8]
  return 0
`) {
		t.Errorf("disjoint mutable borrows should coexist, got %d errors", report.ErrorCount())
	}
}

func TestSharedBorrowsCoexist(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set a = borrow r[0..8]
  set b = borrow r[0..8]
  return 0
`) {
		t.Errorf("immutable borrows should coexist, got %d errors", report.ErrorCount())
	}
}

func TestReleaseWithLiveBorrow(t *testing.T) {
	if checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set v = borrow r[0..8]
  release r
  return 0
`) {
		t.Error("expected a release-with-live-borrow error")
	}
}

func TestUnsafeWaivesReleasePrecondition(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set v = borrow r[0..8]
  unsafe "audited":
    release r
  return 0
`) {
		t.Errorf("unsafe should waive the release precondition, got %d errors", report.ErrorCount())
	}
}

func TestUnsafeKeepsMoveChecking(t *testing.T) {
	if checkOwnership(t, `module app

fn main() -> int:
  set a = buffer(8)
  set b = move a
  unsafe "audited":
    release a
  release b
  return 0
`) {
		t.Error("use after move should stay an error inside unsafe")
	}
}

func TestBranchMoveJoins(t *testing.T) {
	if checkOwnership(t, `module app

fn consume(b: buffer) -> nothing:
  release b

fn main() -> int:
  set b = buffer(8)
  if true:
    consume(b)
  release b
  return 0
`) {
		t.Error("a local moved on one branch should be moved after the join")
	}
}

func TestTerminatedBranchExcludedFromJoin(t *testing.T) {
	if !checkOwnership(t, `module app

fn consume(b: buffer) -> nothing:
  release b

fn main(flag: bool) -> int:
  set b = buffer(8)
  if flag:
    consume(b)
    return 0
  release b
  return 1
`) {
		t.Errorf("a returning branch should not poison the join, got %d errors", report.ErrorCount())
	}
}

func TestBorrowExpiresWithBlock(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  if true:
    set v = borrow r[0..8]
    set n = 1
  release r
  return 0
`) {
		t.Errorf("a borrow should expire with its block, got %d errors", report.ErrorCount())
	}
}

func TestRebindingViewEndsBorrow(t *testing.T) {
	if !checkOwnership(t, `module app

fn main() -> int:
  set r = buffer(8)
  set other = buffer(8)
  set v = borrow r[0..8]
  set v = borrow other[0..8]
  release r
  return 0
`) {
		t.Errorf("overwriting the view binding should end the borrow, got %d errors", report.ErrorCount())
	}
}

func TestCallArgumentBorrowIsTemporary(t *testing.T) {
	if !checkOwnership(t, `module app

fn peek(v: view) -> int:
  return 0

fn main() -> int:
  set r = buffer(8)
  set n = peek(borrow r)
  release r
  return n
`) {
		t.Errorf("a borrow in argument position should expire with the call, got %d errors", report.ErrorCount())
	}
}
