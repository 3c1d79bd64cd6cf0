package syntax

import (
	"testing"

	"daisyc/ast"
	"daisyc/report"
)

// parseSource parses a source string, failing the test if parsing reported
// any error.
func parseSource(t *testing.T, src string) *ast.File {
	t.Helper()

	report.InitReporter(report.LogLevelSilent)

	file, ok := NewParser("/test/main.dy", "main.dy", src).Parse()
	if !ok || file == nil {
		t.Fatalf("parse failed")
	}

	if report.AnyErrors() {
		t.Fatalf("unexpected parse errors: %d", report.ErrorCount())
	}

	return file
}

// firstFuncBody returns the body of the first function definition in a file.
func firstFuncBody(t *testing.T, file *ast.File) []ast.Stmt {
	t.Helper()

	for _, def := range file.Defs {
		if fd, ok := def.(*ast.FuncDef); ok {
			return fd.Body
		}
	}

	t.Fatalf("no function definition found")
	return nil
}

// -----------------------------------------------------------------------------

func TestParseModuleHeader(t *testing.T) {
	file := parseSource(t, "module app.main\n")

	if file.ModuleName != "app.main" {
		t.Errorf("expected module name `app.main`, got %q", file.ModuleName)
	}

	if len(file.Defs) != 0 {
		t.Errorf("expected no definitions, got %d", len(file.Defs))
	}
}

func TestParseEnglishFunction(t *testing.T) {
	file := parseSource(t, `module app.main

fn add(a: int, b: int) -> int:
  return a + b
`)

	if len(file.Defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(file.Defs))
	}

	fd, ok := file.Defs[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected a function definition, got %T", file.Defs[0])
	}

	if fd.Name != "add" || len(fd.Params) != 2 {
		t.Errorf("bad function signature: %s/%d", fd.Name, len(fd.Params))
	}

	if fd.ReturnType == nil || fd.ReturnType.Name != "int" {
		t.Errorf("expected return type int")
	}

	ret, ok := fd.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected a return statement, got %T", fd.Body[0])
	}

	bin, ok := ret.Value.(*ast.BinaryOp)
	if !ok || bin.OpKind != TOK_PLUS {
		t.Errorf("expected `a + b` return value")
	}
}

func TestParseKoreanFunction(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 더하기는 a: int, b: int를 받고 int를 반환한다를 정의한다:
  a에 b를 더한다
  a를 반환한다
`)

	fd, ok := file.Defs[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected a function definition, got %T", file.Defs[0])
	}

	if fd.Name != "더하기" || len(fd.Params) != 2 {
		t.Fatalf("bad function signature: %s/%d", fd.Name, len(fd.Params))
	}

	if fd.Params[0].Name != "a" || fd.Params[0].Type.Name != "int" {
		t.Errorf("bad first parameter")
	}

	if fd.ReturnType == nil || fd.ReturnType.Name != "int" {
		t.Errorf("expected return type int")
	}

	if _, ok := fd.Body[0].(*ast.AddAssign); !ok {
		t.Errorf("expected an add statement, got %T", fd.Body[0])
	}

	if _, ok := fd.Body[1].(*ast.ReturnStmt); !ok {
		t.Errorf("expected a return statement, got %T", fd.Body[1])
	}
}

func TestParseShortKoreanFunction(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 메인 정의:
  1를 출력한다
`)

	fd := file.Defs[0].(*ast.FuncDef)
	if fd.Name != "메인" || len(fd.Params) != 0 || fd.ReturnType != nil {
		t.Errorf("expected a nullary function returning nothing")
	}
}

// -----------------------------------------------------------------------------

func TestParseSetBothSurfaces(t *testing.T) {
	english := parseSource(t, `module app.main

fn main() -> nothing:
  set x = 5
`)

	korean := parseSource(t, `모듈 app.main

함수 메인 정의:
  x를 5으로 설정한다
`)

	for _, file := range []*ast.File{english, korean} {
		body := firstFuncBody(t, file)

		assign, ok := body[0].(*ast.Assign)
		if !ok {
			t.Fatalf("expected an assignment, got %T", body[0])
		}

		if assign.Name != "x" {
			t.Errorf("expected target `x`, got %q", assign.Name)
		}

		lit, ok := assign.Value.(*ast.Literal)
		if !ok || lit.Kind != TOK_INTLIT || lit.Value != "5" {
			t.Errorf("expected literal value 5")
		}
	}
}

func TestParseAddBothSurfaces(t *testing.T) {
	english := parseSource(t, `module app.main

fn main() -> nothing:
  add 3 to total
`)

	korean := parseSource(t, `모듈 app.main

함수 메인 정의:
  total에 3를 더한다
`)

	for _, file := range []*ast.File{english, korean} {
		body := firstFuncBody(t, file)

		add, ok := body[0].(*ast.AddAssign)
		if !ok {
			t.Fatalf("expected an add statement, got %T", body[0])
		}

		if add.Name != "total" {
			t.Errorf("expected target `total`, got %q", add.Name)
		}
	}
}

// -----------------------------------------------------------------------------

func TestParseIfChain(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  if x > 1:
    print "big"
  elif x == 1:
    print "one"
  else:
    print "small"
`)

	stmt := firstFuncBody(t, file)[0].(*ast.IfStmt)

	if len(stmt.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(stmt.Branches))
	}

	if len(stmt.ElseBody) != 1 {
		t.Errorf("expected an else body")
	}

	cond, ok := stmt.Branches[0].Cond.(*ast.BinaryOp)
	if !ok || cond.OpKind != TOK_GT {
		t.Errorf("expected `x > 1` condition")
	}
}

func TestParseKoreanIf(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 메인 정의:
  만약 x가 0이면:
    x를 출력한다
  아니면:
    y를 출력한다
`)

	stmt := firstFuncBody(t, file)[0].(*ast.IfStmt)

	if len(stmt.Branches) != 1 || len(stmt.ElseBody) != 1 {
		t.Fatalf("bad if shape: %d branches", len(stmt.Branches))
	}

	cond, ok := stmt.Branches[0].Cond.(*ast.BinaryOp)
	if !ok || cond.OpKind != TOK_EQ {
		t.Errorf("expected the implicit equality condition")
	}
}

func TestParseKoreanComparisonCondition(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 메인 정의:
  만약 x이 y보다 크면:
    x를 출력한다
`)

	stmt := firstFuncBody(t, file)[0].(*ast.IfStmt)

	cond, ok := stmt.Branches[0].Cond.(*ast.BinaryOp)
	if !ok || cond.OpKind != TOK_GT {
		t.Fatalf("expected a greater-than condition")
	}

	if lhs, ok := cond.Lhs.(*ast.Identifier); !ok || lhs.Name != "x" {
		t.Errorf("expected left operand x")
	}

	if rhs, ok := cond.Rhs.(*ast.Identifier); !ok || rhs.Name != "y" {
		t.Errorf("expected right operand y")
	}
}

// -----------------------------------------------------------------------------

func TestParseLoops(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  repeat 3 times:
    print "x"
  while n > 0:
    add 1 to n
  3번 반복한다:
    print "y"
  동안 count가 0보다 크면:
    add 1 to count
`)

	body := firstFuncBody(t, file)
	if len(body) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(body))
	}

	rep := body[0].(*ast.RepeatStmt)
	if lit, ok := rep.Count.(*ast.Literal); !ok || lit.Value != "3" {
		t.Errorf("expected repeat count 3")
	}

	if _, ok := body[1].(*ast.WhileStmt); !ok {
		t.Errorf("expected a while loop, got %T", body[1])
	}

	krep := body[2].(*ast.RepeatStmt)
	if lit, ok := krep.Count.(*ast.Literal); !ok || lit.Value != "3" {
		t.Errorf("expected Korean repeat count 3")
	}

	kwhile := body[3].(*ast.WhileStmt)
	if cond, ok := kwhile.Cond.(*ast.BinaryOp); !ok || cond.OpKind != TOK_GT {
		t.Errorf("expected Korean while comparison condition")
	}
}

func TestParseMatch(t *testing.T) {
	file := parseSource(t, `module app.main

fn classify(o: Option<int>) -> int:
  match o:
    case Some(v) if v > 0:
      return 1
    case Some(v):
      return 2
    case None:
      return 3
    else:
      return 4
`)

	stmt := firstFuncBody(t, file)[0].(*ast.MatchStmt)

	if len(stmt.Arms) != 4 {
		t.Fatalf("expected 4 arms, got %d", len(stmt.Arms))
	}

	guarded := stmt.Arms[0]
	if guarded.Guard == nil {
		t.Errorf("expected a guard on the first arm")
	}

	ep, ok := guarded.Pattern.(*ast.EnumPattern)
	if !ok || ep.CaseName != "Some" || len(ep.Elems) != 1 {
		t.Errorf("expected `Some(v)` pattern")
	}

	if _, ok := ep.Elems[0].(*ast.BindPattern); !ok {
		t.Errorf("expected a binding element pattern")
	}

	if stmt.Arms[1].Guard != nil {
		t.Errorf("second arm must be unguarded")
	}

	if _, ok := stmt.Arms[2].Pattern.(*ast.BindPattern); !ok {
		t.Errorf("expected bare case name to parse as a binding")
	}

	if _, ok := stmt.Arms[3].Pattern.(*ast.WildcardPattern); !ok {
		t.Errorf("expected else arm to be a wildcard")
	}
}

func TestParseQualifiedEnumPattern(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  match r:
    case Result.Err(msg):
      print msg
    case Result.Ok(v):
      print v
`)

	stmt := firstFuncBody(t, file)[0].(*ast.MatchStmt)

	ep := stmt.Arms[0].Pattern.(*ast.EnumPattern)
	if ep.EnumName != "Result" || ep.CaseName != "Err" {
		t.Errorf("bad qualified pattern: %s.%s", ep.EnumName, ep.CaseName)
	}
}

// -----------------------------------------------------------------------------

func TestParseBorrowForms(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  set v = borrow mut b[0..8]
  set w = borrow b
`)

	body := firstFuncBody(t, file)

	br, ok := body[0].(*ast.Assign).Value.(*ast.BorrowRange)
	if !ok {
		t.Fatalf("expected a ranged borrow, got %T", body[0].(*ast.Assign).Value)
	}

	if !br.Mutable {
		t.Errorf("expected a mutable borrow")
	}

	if lit, ok := br.End.(*ast.Literal); !ok || lit.Value != "8" {
		t.Errorf("expected range end 8")
	}

	be, ok := body[1].(*ast.Assign).Value.(*ast.BorrowExpr)
	if !ok || be.Mutable {
		t.Errorf("expected an immutable whole borrow")
	}
}

func TestParseKoreanBorrow(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 메인 정의:
  v를 b의 0부터 8까지 가변으로 빌려온다
`)

	assign := firstFuncBody(t, file)[0].(*ast.Assign)
	if assign.Name != "v" {
		t.Errorf("expected binding name v")
	}

	br, ok := assign.Value.(*ast.BorrowRange)
	if !ok {
		t.Fatalf("expected a ranged borrow, got %T", assign.Value)
	}

	if !br.Mutable {
		t.Errorf("expected a mutable borrow")
	}

	if buf, ok := br.Buffer.(*ast.Identifier); !ok || buf.Name != "b" {
		t.Errorf("expected borrowed buffer b")
	}
}

func TestParseKoreanBufferLifecycle(t *testing.T) {
	file := parseSource(t, `모듈 app.main

함수 메인 정의:
  b를 16 바이트 버퍼로 생성한다
  c를 b로 이동한다
  b를 해제한다
`)

	body := firstFuncBody(t, file)

	create := body[0].(*ast.Assign)
	bc, ok := create.Value.(*ast.BufferCreate)
	if create.Name != "b" || !ok {
		t.Fatalf("expected a buffer creation bound to b")
	}

	if lit, ok := bc.Size.(*ast.Literal); !ok || lit.Value != "16" {
		t.Errorf("expected buffer size 16")
	}

	mv := body[1].(*ast.Assign)
	if mv.Name != "b" {
		t.Errorf("expected move destination b, got %q", mv.Name)
	}

	if _, ok := mv.Value.(*ast.MoveExpr); !ok {
		t.Errorf("expected a move expression, got %T", mv.Value)
	}

	rel, ok := body[2].(*ast.ReleaseStmt)
	if !ok {
		t.Fatalf("expected a release statement, got %T", body[2])
	}

	if id, ok := rel.Target.(*ast.Identifier); !ok || id.Name != "b" {
		t.Errorf("expected release target b")
	}
}

// -----------------------------------------------------------------------------

func TestParseStructEnumTraitImpl(t *testing.T) {
	file := parseSource(t, `module app.main

struct Point:
  x: int
  y: int

enum Shape:
  case Circle: int
  case Dot

trait Show:
  fn show(v: int) -> string

impl Show for Point:
  fn show(v: int) -> string:
    return "point"

impl Point:
  fn origin() -> Point:
    return make_point(0, 0)
`)

	if len(file.Defs) != 5 {
		t.Fatalf("expected 5 definitions, got %d", len(file.Defs))
	}

	sd := file.Defs[0].(*ast.StructDef)
	if sd.Name != "Point" || len(sd.Fields) != 2 {
		t.Errorf("bad struct definition")
	}

	ed := file.Defs[1].(*ast.EnumDef)
	if ed.Name != "Shape" || len(ed.Cases) != 2 {
		t.Errorf("bad enum definition")
	}

	if len(ed.Cases[0].Elems) != 1 || len(ed.Cases[1].Elems) != 0 {
		t.Errorf("bad enum case payloads")
	}

	td := file.Defs[2].(*ast.TraitDef)
	if td.Name != "Show" || len(td.Methods) != 1 {
		t.Errorf("bad trait definition")
	}

	id := file.Defs[3].(*ast.ImplDef)
	if id.TraitName != "Show" || id.ForType.Name != "Point" || len(id.Methods) != 1 {
		t.Errorf("bad trait impl")
	}

	inherent := file.Defs[4].(*ast.ImplDef)
	if inherent.TraitName != "" || inherent.ForType.Name != "Point" {
		t.Errorf("bad inherent impl")
	}
}

func TestParseGenericFunction(t *testing.T) {
	file := parseSource(t, `module app.main

fn max<T: Ord>(a: T, b: T) -> T:
  return a
`)

	fd := file.Defs[0].(*ast.FuncDef)
	if len(fd.TypeParams) != 1 {
		t.Fatalf("expected 1 type parameter, got %d", len(fd.TypeParams))
	}

	tp := fd.TypeParams[0]
	if tp.Name != "T" || len(tp.Bounds) != 1 || tp.Bounds[0] != "Ord" {
		t.Errorf("bad type parameter bounds")
	}
}

func TestParseGenericCallMangling(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  set m = max<int>(a, b)
`)

	assign := firstFuncBody(t, file)[0].(*ast.Assign)

	call, ok := assign.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected a call, got %T", assign.Value)
	}

	callee, ok := call.Func.(*ast.Identifier)
	if !ok || callee.Name != "max__int" {
		t.Errorf("expected specialized callee max__int, got %v", call.Func)
	}

	if len(call.Args) != 2 {
		t.Errorf("expected 2 arguments, got %d", len(call.Args))
	}
}

func TestParseImports(t *testing.T) {
	file := parseSource(t, `module app.main

import math.linear as lin
use math.sqrt
모듈을 utils를 사용한다
`)

	if len(file.Defs) != 3 {
		t.Fatalf("expected 3 imports, got %d", len(file.Defs))
	}

	imp := file.Defs[0].(*ast.ImportDef)
	if len(imp.Path) != 2 || imp.Path[1] != "linear" || imp.Alias != "lin" || imp.IsUse {
		t.Errorf("bad import")
	}

	use := file.Defs[1].(*ast.ImportDef)
	if !use.IsUse || len(use.Path) != 2 || use.Path[1] != "sqrt" {
		t.Errorf("bad use")
	}

	kimp := file.Defs[2].(*ast.ImportDef)
	if kimp.IsUse || len(kimp.Path) != 1 || kimp.Path[0] != "utils" {
		t.Errorf("bad Korean import")
	}
}

func TestParseExtern(t *testing.T) {
	file := parseSource(t, `module app.main

extern fn putchar(c: int) -> int
`)

	xd := file.Defs[0].(*ast.ExternDef)
	if xd.Name != "putchar" || len(xd.Params) != 1 {
		t.Errorf("bad extern definition")
	}
}

func TestParseUnsafeBlock(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  unsafe "raw ffi write":
    call_ffi()
`)

	ub := firstFuncBody(t, file)[0].(*ast.UnsafeBlock)
	if ub.Reason != "raw ffi write" {
		t.Errorf("bad justification: %q", ub.Reason)
	}

	es, ok := ub.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an expression statement, got %T", ub.Body[0])
	}

	if _, ok := es.Expr.(*ast.Call); !ok {
		t.Errorf("expected a call expression")
	}
}

// -----------------------------------------------------------------------------

func TestParseExpressionPrecedence(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  set r = a + b * c
  set s = (a + b) * c
  set q = x > 0 and y > 0 or z
`)

	body := firstFuncBody(t, file)

	r := body[0].(*ast.Assign).Value.(*ast.BinaryOp)
	if r.OpKind != TOK_PLUS {
		t.Errorf("expected + at the root")
	}

	if rhs, ok := r.Rhs.(*ast.BinaryOp); !ok || rhs.OpKind != TOK_STAR {
		t.Errorf("expected * to bind tighter than +")
	}

	s := body[1].(*ast.Assign).Value.(*ast.BinaryOp)
	if s.OpKind != TOK_STAR {
		t.Errorf("expected parenthesized sum under *")
	}

	q := body[2].(*ast.Assign).Value.(*ast.LogicalOp)
	if q.OpKind != TOK_OR {
		t.Errorf("expected or at the root")
	}

	if lhs, ok := q.Lhs.(*ast.LogicalOp); !ok || lhs.OpKind != TOK_AND {
		t.Errorf("expected and under or")
	}
}

func TestParseTryAndDotCalls(t *testing.T) {
	file := parseSource(t, `module app.main

fn main() -> nothing:
  set v = try parse(s)
  set n = m.sqrt(4)
  set f = p.x
`)

	body := firstFuncBody(t, file)

	if _, ok := body[0].(*ast.Assign).Value.(*ast.TryExpr); !ok {
		t.Errorf("expected a try expression")
	}

	call := body[1].(*ast.Assign).Value.(*ast.Call)
	dot, ok := call.Func.(*ast.Dot)
	if !ok || dot.FieldName != "sqrt" {
		t.Errorf("expected a qualified call target")
	}

	field, ok := body[2].(*ast.Assign).Value.(*ast.Dot)
	if !ok || field.FieldName != "x" {
		t.Errorf("expected a field access")
	}
}

// -----------------------------------------------------------------------------

func TestParseErrorRecovery(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)

	file, ok := NewParser("/test/main.dy", "main.dy", `module app.main

fn good() -> int:
  return 1

fn bad() -> int:
  set = 5

fn alsoGood() -> int:
  return 2
`).Parse()

	if !ok || file == nil {
		t.Fatalf("parse should recover")
	}

	if report.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount())
	}

	if len(file.Defs) != 3 {
		t.Errorf("expected all 3 definitions, got %d", len(file.Defs))
	}
}

func TestParseUnsafeRequiresJustification(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)

	_, ok := NewParser("/test/main.dy", "main.dy", `module app.main

fn main() -> nothing:
  unsafe:
    call_ffi()
`).Parse()

	if !ok {
		t.Fatalf("parse should recover")
	}

	if report.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount())
	}
}

func TestParseMissingModuleHeader(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)

	file, ok := NewParser("/test/main.dy", "main.dy", "fn main() -> int:\n  return 0\n").Parse()

	if ok || file != nil {
		t.Errorf("expected parse to fail without a module header")
	}

	if !report.AnyErrors() {
		t.Errorf("expected an error report")
	}
}
