// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
)

func intLit(v int64) ast.Literal {
	return ast.NewLiteral(claritype.Int(), claritype.IntValue{Bits: claritype.Int128{Lo: uint64(v)}})
}

func uintLit(v uint64) ast.Literal {
	return ast.NewLiteral(claritype.UInt(), claritype.UIntValue{Bits: claritype.Int128{Lo: v}})
}

func boolLit(v bool) ast.Literal {
	return ast.NewLiteral(claritype.Bool(), claritype.BoolValue(v))
}

func compileOne(t *testing.T, defs ...ast.TopLevel) *module.Module {
	t.Helper()
	contract := &ast.Contract{Name: "test", Definitions: defs}
	m, err := New(contract).Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return m
}

func findExport(m *module.Module, name string) (module.Export, bool) {
	for _, e := range m.Export.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return module.Export{}, false
}

func funcBody(t *testing.T, m *module.Module, exportName string) []instruction.Instruction {
	t.Helper()
	exp, ok := findExport(m, exportName)
	if !ok {
		t.Fatalf("no export named %q", exportName)
	}
	var importedFuncs uint32
	for _, imp := range m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			importedFuncs++
		}
	}
	return m.Code.Segments[exp.Descriptor.Index-importedFuncs].Func.Instrs
}

// TestCompileArithmeticFunction compiles `(define-public (sum) (+ 1 2 3))`
// and checks it's exported with a function type returning Int's two i64
// slots, folding left-associatively over stdlib's add-int.
func TestCompileArithmeticFunction(t *testing.T) {
	fn := ast.DefineFunction{
		Name:   "sum",
		Params: nil,
		Return: claritype.Int(),
		Body:   []ast.Expr{ast.NewCall(claritype.Int(), "+", intLit(1), intLit(2), intLit(3))},
		Public: true,
	}
	m := compileOne(t, fn)

	exp, ok := findExport(m, "sum")
	if !ok {
		t.Fatalf("sum not exported")
	}
	var importedFuncs uint32
	for _, imp := range m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			importedFuncs++
		}
	}
	typeIdx := m.Function.TypeIndices[exp.Descriptor.Index-importedFuncs]
	ft := m.Type.Functions[typeIdx]
	if len(ft.Results) != 2 {
		t.Fatalf("sum result slots = %d, want 2 (Int)", len(ft.Results))
	}

	body := funcBody(t, m, "sum")
	var calls int
	for _, in := range body {
		if _, ok := in.(instruction.Call); ok {
			calls++
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 folded add-int calls for 3 operands, got %d", calls)
	}
}

// TestCompileIfLet exercises `let` and `if` together: a bound variable
// feeding a conditional whose arms are themselves literals.
func TestCompileIfLet(t *testing.T) {
	body := ast.Let{
		Bindings: []ast.LetBinding{{Name: "x", Value: boolLit(true)}},
		Body: []ast.Expr{
			ast.NewIf(claritype.Int(), ast.NewVar(claritype.Bool(), "x"), intLit(1), intLit(0)),
		},
	}
	body.Type = claritype.Int()

	fn := ast.DefineFunction{
		Name:   "pick",
		Return: claritype.Int(),
		Body:   []ast.Expr{body},
		Public: true,
	}
	m := compileOne(t, fn)
	if _, ok := findExport(m, "pick"); !ok {
		t.Fatalf("pick not exported")
	}
}

// TestCompileMatchOptional checks that a match on an Optional compiles
// with the some-arm's bound identifier resolving (an unresolved name
// fails compilation).
func TestCompileMatchOptional(t *testing.T) {
	scrutinee := ast.NewLiteral(
		claritype.Optional(claritype.UInt()),
		claritype.OptionalValue{Def: claritype.Optional(claritype.UInt()), Some: claritype.UIntValue{Bits: claritype.Int128{Lo: 10}}},
	)
	m := ast.MatchOptional{
		Scrutinee: scrutinee,
		SomeName:  "v",
		SomeArm:   ast.NewVar(claritype.UInt(), "v"),
		NoneArm:   uintLit(0),
	}
	m.Type = claritype.UInt()

	fn := ast.DefineFunction{
		Name:   "unwrap-or-zero",
		Return: claritype.UInt(),
		Body:   []ast.Expr{m},
		Public: true,
	}
	mod := compileOne(t, fn)
	if _, ok := findExport(mod, "unwrap-or-zero"); !ok {
		t.Fatalf("unwrap-or-zero not exported")
	}
}

// TestCompileUnwrapPanicTraps checks that unwrap-panic over a None value
// routes through stdlib's runtime-error rather than emitting a bare
// Unreachable with no diagnostic.
func TestCompileUnwrapPanicTraps(t *testing.T) {
	scrutinee := ast.NewLiteral(
		claritype.Optional(claritype.UInt()),
		claritype.OptionalValue{Def: claritype.Optional(claritype.UInt())},
	)
	u := ast.Unwrap{Kind: ast.UnwrapPanic, Scrutinee: scrutinee}
	u.Type = claritype.UInt()

	fn := ast.DefineFunction{
		Name:   "must-get",
		Return: claritype.UInt(),
		Body:   []ast.Expr{u},
		Public: true,
	}
	m := compileOne(t, fn)
	body := funcBody(t, m, "must-get")

	var sawRuntimeErrorCall bool
	var walk func([]instruction.Instruction)
	walk = func(instrs []instruction.Instruction) {
		for _, in := range instrs {
			if iff, ok := in.(instruction.If); ok {
				walk(iff.Then)
				walk(iff.Else)
			}
			if _, ok := in.(instruction.Call); ok {
				sawRuntimeErrorCall = true
			}
		}
	}
	walk(body)
	if !sawRuntimeErrorCall {
		t.Errorf("expected a Call instruction (runtime-error) reachable from must-get's body")
	}
}

// TestCompileTryBangShortReturns checks that try! on a Response-typed
// scrutinee, when the enclosing function's own return type matches, emits
// an explicit Return rather than Unreachable on the failure path.
func TestCompileTryBangShortReturns(t *testing.T) {
	respType := claritype.Response(claritype.UInt(), claritype.UInt())
	scrutinee := ast.NewLiteral(respType, claritype.ResponseValue{
		Def: respType, Ok: false, Payload: claritype.UIntValue{Bits: claritype.Int128{Lo: 1}},
	})
	u := ast.Unwrap{Kind: ast.TryBang, Scrutinee: scrutinee}
	u.Type = claritype.UInt()

	fn := ast.DefineFunction{
		Name:   "propagate",
		Return: respType,
		Body:   []ast.Expr{u},
		Public: true,
	}
	m := compileOne(t, fn)
	body := funcBody(t, m, "propagate")

	var sawReturn bool
	var walk func([]instruction.Instruction)
	walk = func(instrs []instruction.Instruction) {
		for _, in := range instrs {
			if iff, ok := in.(instruction.If); ok {
				walk(iff.Then)
				walk(iff.Else)
			}
			if _, ok := in.(instruction.Return); ok {
				sawReturn = true
			}
		}
	}
	walk(body)
	if !sawReturn {
		t.Errorf("expected an explicit Return on try!'s failure path")
	}
}

// TestCompileFilter checks filter lowers against a user-defined predicate
// and that the predicate's own index is referenced from the loop body.
func TestCompileFilter(t *testing.T) {
	isPos := ast.DefineFunction{
		Name:   "is-positive",
		Params: []ast.Param{{Name: "n", Type: claritype.Int()}},
		Return: claritype.Bool(),
		Body: []ast.Expr{
			ast.NewCall(claritype.Bool(), "not", ast.NewCall(claritype.Bool(), "is-eq", ast.NewVar(claritype.Int(), "n"), intLit(0))),
		},
		Public: false,
	}

	listType := claritype.List(claritype.Int(), 4)
	listLit := ast.NewLiteral(listType, claritype.ListValue{
		ElemType: claritype.Int(), MaxLen: 4,
		Items: []claritype.Value{
			claritype.IntValue{Bits: claritype.Int128{Lo: 1}},
			claritype.IntValue{Bits: claritype.Int128{Lo: 0}},
		},
	})
	filterExpr := ast.Filter{PredicateName: "is-positive", List: listLit}
	filterExpr.Type = listType

	caller := ast.DefineFunction{
		Name:   "positives",
		Return: listType,
		Body:   []ast.Expr{filterExpr},
		Public: true,
	}

	m := compileOne(t, isPos, caller)
	if _, ok := findExport(m, "positives"); !ok {
		t.Fatalf("positives not exported")
	}
	if _, ok := findExport(m, "is-positive"); ok {
		t.Errorf("private predicate is-positive must not be exported")
	}
}

// TestCompileDefineConstant checks a computed (non-literal) constant is
// written into the static region during .top-level and read back
// correctly from a function referencing it.
func TestCompileDefineConstant(t *testing.T) {
	c := ast.DefineConstant{
		Name:  "the-answer",
		Value: ast.NewCall(claritype.Int(), "+", intLit(40), intLit(2)),
	}
	fn := ast.DefineFunction{
		Name:   "get-answer",
		Return: claritype.Int(),
		Body:   []ast.Expr{ast.NewVar(claritype.Int(), "the-answer")},
		Public: true,
	}
	m := compileOne(t, c, fn)

	if _, ok := findExport(m, ".top-level"); !ok {
		t.Fatalf(".top-level not exported")
	}
	body := funcBody(t, m, "get-answer")

	var sawGetGlobal bool
	for _, in := range body {
		if _, ok := in.(instruction.GetGlobal); ok {
			sawGetGlobal = true
		}
	}
	if !sawGetGlobal {
		t.Errorf("get-answer should resolve the-answer's address via $static-base (GetGlobal), not a baked-in immediate")
	}
}

// TestStaticAndStackGlobalsDoNotOverlap is the regression test for the
// static-region addressing bug: with a constant declared (forcing both
// literal interning and static allocation to interleave), the patched
// $stack-pointer initializer must land strictly past the static region,
// which itself must land strictly past the literal pool — never
// overlapping either.
func TestStaticAndStackGlobalsDoNotOverlap(t *testing.T) {
	c1 := ast.DefineConstant{Name: "a", Value: intLit(1)}
	c2 := ast.DefineConstant{Name: "b", Value: ast.NewCall(claritype.Int(), "+", intLit(1), intLit(2))}
	dv := ast.DefineDataVar{Name: "counter", Type: claritype.UInt(), Initial: uintLit(0)}

	m := compileOne(t, c1, c2, dv)

	// Global layout is fixed by construction order: 0 = stack-pointer,
	// 1-6 = stdlib's runtime-error-* globals, 7 = $static-base.
	if len(m.Global.Globals) < 8 {
		t.Fatalf("expected at least 8 globals (7 stdlib + $static-base), got %d", len(m.Global.Globals))
	}
	staticBase := constI32(t, m.Global.Globals[7].Init.Instrs)
	stackBase := constI32(t, m.Global.Globals[0].Init.Instrs)

	if len(m.Data.Segments) != 1 {
		t.Fatalf("expected exactly one data segment (the literal pool), got %d", len(m.Data.Segments))
	}
	poolEnd := literalPoolBase + uint32(len(m.Data.Segments[0].Init))

	if staticBase != poolEnd {
		t.Errorf("static region base = %d, want exactly %d (immediately after the literal pool)", staticBase, poolEnd)
	}
	if stackBase <= staticBase {
		t.Errorf("stack base %d must land strictly past the static region base %d", stackBase, staticBase)
	}
}

func constI32(t *testing.T, instrs []instruction.Instruction) uint32 {
	t.Helper()
	if len(instrs) != 1 {
		t.Fatalf("expected a single initializer instruction, got %d", len(instrs))
	}
	c, ok := instrs[0].(instruction.I32Const)
	if !ok {
		t.Fatalf("expected I32Const initializer, got %T", instrs[0])
	}
	return uint32(c.Value)
}

// TestCompileDataVar checks var-get/var-set! route through stdlib's
// get_variable/set_variable passthroughs.
func TestCompileDataVar(t *testing.T) {
	dv := ast.DefineDataVar{Name: "counter", Type: claritype.UInt(), Initial: uintLit(0)}
	vs := ast.VarSet{Name: "counter", Value: uintLit(5)}
	vs.Type = claritype.Bool()
	vg := ast.VarGet{Name: "counter"}
	vg.Type = claritype.UInt()

	fn := ast.DefineFunction{
		Name:   "bump",
		Return: claritype.UInt(),
		Body:   []ast.Expr{vs, vg},
		Public: true,
	}
	m := compileOne(t, dv, fn)
	if _, ok := findExport(m, "bump"); !ok {
		t.Fatalf("bump not exported")
	}
}

// TestCompileFtMintArgumentOrder checks ft-mint?'s wire-order permutation:
// the arguments are evaluated in Clarity's source order (name, amount,
// principal), then pushed before the call in wire order (name, principal,
// amount).
func TestCompileFtMintArgumentOrder(t *testing.T) {
	ft := ast.DefineFT{Name: "my-token", Supply: nil}
	principal := ast.NewLiteral(claritype.Principal(), claritype.PrincipalValue{Version: 26})
	mint := ast.NewCall(
		claritype.Response(claritype.UInt(), claritype.UInt()),
		"ft-mint?",
		ast.NewLiteral(claritype.StringAscii(8), claritype.StringAsciiValue{Cap: 8, Value: "my-token"}),
		uintLit(100),
		principal,
	)
	fn := ast.DefineFunction{
		Name:   "mint-some",
		Return: claritype.Response(claritype.UInt(), claritype.UInt()),
		Body:   []ast.Expr{mint},
		Public: true,
	}
	m := compileOne(t, ft, fn)
	if _, ok := findExport(m, "mint-some"); !ok {
		t.Fatalf("mint-some not exported")
	}
	// Locals are allocated in source order, so the principal's locals are
	// numbered above the amount's; in wire order the principal's two slots
	// (pushed slots 2-3) come before the amount's (pushed slots 4-5).
	body := funcBody(t, m, "mint-some")
	for i, in := range body {
		if _, ok := in.(instruction.Call); !ok || i < 6 {
			continue
		}
		var pushed [6]uint32
		for k := range pushed {
			g, ok := body[i-6+k].(instruction.GetLocal)
			if !ok {
				t.Fatalf("argument slot %d of the ft-mint? call is pushed by %T, want GetLocal", k, body[i-6+k])
			}
			pushed[k] = g.Index
		}
		if pushed[2] <= pushed[4] {
			t.Errorf("ft-mint? pushes locals %v: want the principal's slots before the amount's", pushed)
		}
		return
	}
	t.Fatalf("no ft-mint? Call found in mint-some's body")
}

// TestCompileNft checks nft-mint?/nft-get-owner? compile against a
// declared NFT without error.
func TestCompileNft(t *testing.T) {
	nft := ast.DefineNFT{Name: "my-nft", AssetType: claritype.UInt()}
	nameLit := ast.NewLiteral(claritype.StringAscii(6), claritype.StringAsciiValue{Cap: 6, Value: "my-nft"})
	principal := ast.NewLiteral(claritype.Principal(), claritype.PrincipalValue{Version: 26})

	mint := ast.NewCall(claritype.Response(claritype.UInt(), claritype.UInt()), "nft-mint?", nameLit, uintLit(1), principal)
	owner := ast.NewCall(claritype.Optional(claritype.Principal()), "nft-get-owner?", nameLit, uintLit(1))

	fn := ast.DefineFunction{
		Name:   "mint-and-check",
		Return: claritype.Optional(claritype.Principal()),
		Body:   []ast.Expr{mint, owner},
		Public: true,
	}
	m := compileOne(t, nft, fn)
	if _, ok := findExport(m, "mint-and-check"); !ok {
		t.Fatalf("mint-and-check not exported")
	}
}

// TestCompileMap checks map-set!/map-get? compile against a declared map,
// each naming the map with a literal.
func TestCompileMap(t *testing.T) {
	mapDef := ast.DefineMap{Name: "balances", KeyType: claritype.Principal(), ValueType: claritype.UInt()}
	mapNameLit := ast.NewLiteral(claritype.StringAscii(8), claritype.StringAsciiValue{Cap: 8, Value: "balances"})
	key := ast.NewLiteral(claritype.Principal(), claritype.PrincipalValue{Version: 26})

	set := ast.NewCall(claritype.Bool(), "map-set!", mapNameLit, key, uintLit(42))
	get := ast.NewCall(claritype.Optional(claritype.UInt()), "map-get?", mapNameLit, key)

	fn := ast.DefineFunction{
		Name:   "set-and-get",
		Return: claritype.Optional(claritype.UInt()),
		Body:   []ast.Expr{set, get},
		Public: true,
	}
	m := compileOne(t, mapDef, fn)
	if _, ok := findExport(m, "set-and-get"); !ok {
		t.Fatalf("set-and-get not exported")
	}
}

// TestDuplicateTopLevelNameRejected checks §4.6.4's duplicate-binding
// check fires across definition kinds, not just within one.
func TestDuplicateTopLevelNameRejected(t *testing.T) {
	c := ast.DefineConstant{Name: "dup", Value: intLit(1)}
	dv := ast.DefineDataVar{Name: "dup", Type: claritype.Int(), Initial: intLit(1)}
	contract := &ast.Contract{Name: "test", Definitions: []ast.TopLevel{c, dv}}
	if _, err := New(contract).Compile(); err == nil {
		t.Fatalf("expected an error for a duplicate top-level name")
	}
}

// TestReservedNameRejected checks a contract cannot bind a reserved
// special-form/builtin name at the top level.
func TestReservedNameRejected(t *testing.T) {
	c := ast.DefineConstant{Name: "if", Value: intLit(1)}
	contract := &ast.Contract{Name: "test", Definitions: []ast.TopLevel{c}}
	if _, err := New(contract).Compile(); err == nil {
		t.Fatalf("expected an error for binding a reserved name")
	}
}

// TestCompileUserCallMutualRecursion checks that a pair of mutually
// recursive functions, the first calling one defined later in source
// order, resolve through the pre-registration pass rather than needing
// forward declarations.
func TestCompileUserCallMutualRecursion(t *testing.T) {
	isEven := ast.DefineFunction{
		Name:   "is-even",
		Params: []ast.Param{{Name: "n", Type: claritype.UInt()}},
		Return: claritype.Bool(),
		Body: []ast.Expr{
			ast.NewIf(claritype.Bool(),
				ast.NewCall(claritype.Bool(), "is-eq", ast.NewVar(claritype.UInt(), "n"), uintLit(0)),
				boolLit(true),
				ast.NewCall(claritype.Bool(), "is-odd", ast.NewCall(claritype.UInt(), "-", ast.NewVar(claritype.UInt(), "n"), uintLit(1))),
			),
		},
		Public: false,
	}
	isOdd := ast.DefineFunction{
		Name:   "is-odd",
		Params: []ast.Param{{Name: "n", Type: claritype.UInt()}},
		Return: claritype.Bool(),
		Body: []ast.Expr{
			ast.NewIf(claritype.Bool(),
				ast.NewCall(claritype.Bool(), "is-eq", ast.NewVar(claritype.UInt(), "n"), uintLit(0)),
				boolLit(false),
				ast.NewCall(claritype.Bool(), "is-even", ast.NewCall(claritype.UInt(), "-", ast.NewVar(claritype.UInt(), "n"), uintLit(1))),
			),
		},
		Public: true,
	}
	m := compileOne(t, isEven, isOdd)
	if _, ok := findExport(m, "is-odd"); !ok {
		t.Fatalf("is-odd not exported")
	}
}

// TestCompileHashBuiltin checks keccak256 compiles against a Buffer
// argument inside a function declared to return Buffer(32).
func TestCompileHashBuiltin(t *testing.T) {
	arg := ast.NewLiteral(claritype.Buffer(4), claritype.BufferValue{Cap: 4, Bytes: []byte{1, 2, 3, 4}})
	hashCall := ast.NewCall(claritype.Buffer(32), "keccak256", arg)
	fn := ast.DefineFunction{
		Name:   "digest",
		Return: claritype.Buffer(32),
		Body:   []ast.Expr{hashCall},
		Public: true,
	}
	m := compileOne(t, fn)
	if _, ok := findExport(m, "digest"); !ok {
		t.Fatalf("digest not exported")
	}
}

// TestCompileSecp256k1Recover checks the Response(Buffer(33), UInt)
// reshaping compiles without error.
func TestCompileSecp256k1Recover(t *testing.T) {
	msg := ast.NewLiteral(claritype.Buffer(32), claritype.BufferValue{Cap: 32, Bytes: make([]byte, 32)})
	sig := ast.NewLiteral(claritype.Buffer(65), claritype.BufferValue{Cap: 65, Bytes: make([]byte, 65)})
	recover := ast.NewCall(
		claritype.Response(claritype.Buffer(33), claritype.UInt()),
		"secp256k1-recover?", msg, sig,
	)
	fn := ast.DefineFunction{
		Name:   "recover-key",
		Return: claritype.Response(claritype.Buffer(33), claritype.UInt()),
		Body:   []ast.Expr{recover},
		Public: true,
	}
	m := compileOne(t, fn)
	if _, ok := findExport(m, "recover-key"); !ok {
		t.Fatalf("recover-key not exported")
	}
}

// TestCompileCallToUndefinedFunctionFails checks an unresolved Call name
// (neither a builtin nor a registered user function) fails compilation
// rather than silently emitting a bogus call index.
func TestCompileCallToUndefinedFunctionFails(t *testing.T) {
	fn := ast.DefineFunction{
		Name:   "broken",
		Return: claritype.Int(),
		Body:   []ast.Expr{ast.NewCall(claritype.Int(), "does-not-exist")},
		Public: true,
	}
	contract := &ast.Contract{Name: "test", Definitions: []ast.TopLevel{fn}}
	if _, err := New(contract).Compile(); err == nil {
		t.Fatalf("expected an error calling an undefined function")
	}
}
