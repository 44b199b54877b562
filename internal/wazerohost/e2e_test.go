// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"context"
	"testing"

	clar2wasm "github.com/BowTiedWoo/clarity-wasm"
	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// These tests drive a compiled contract end to end — compile, load
// through a Runtime, call an exported function — whereas the other
// *_test.go files in this package exercise the Host or the table-sync
// helpers in isolation. They exist to run §8's seed scenarios for real,
// instead of only asserting on emitted instruction shapes.

func intLit(v int64) ast.Literal {
	return ast.NewLiteral(claritype.Int(), claritype.IntValue{Bits: claritype.Int128{Lo: uint64(v)}})
}

func uintLit(bits claritype.Int128) ast.Literal {
	return ast.NewLiteral(claritype.UInt(), claritype.UIntValue{Bits: bits})
}

func publicFunction(name string, ret claritype.Type, body ...ast.Expr) ast.DefineFunction {
	return ast.DefineFunction{Name: name, Return: ret, Body: body, Public: true}
}

// loadContract compiles contract, spins up a fresh Runtime against a
// default Host, and loads the result, failing the test on any error
// along the way.
func loadContract(t *testing.T, contract *ast.Contract) (*Runtime, context.Context) {
	t.Helper()
	wasm, err := clar2wasm.CompileAndEncode(contract)
	if err != nil {
		t.Fatalf("CompileAndEncode: %v", err)
	}

	ctx := context.Background()
	rt, err := NewRuntime(ctx, New())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close(ctx) })

	if err := rt.Load(ctx, wasm); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return rt, ctx
}

// TestEndToEndAddFoldsLeftAssociatively runs §8 scenario 1's first half:
// (+ 1 2 3) ⇒ Int 6.
func TestEndToEndAddFoldsLeftAssociatively(t *testing.T) {
	fn := publicFunction("add-three", claritype.Int(),
		ast.NewCall(claritype.Int(), "+", intLit(1), intLit(2), intLit(3)))
	contract := &ast.Contract{Name: "arith", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	result, err := rt.Call(ctx, "add-three", Signature{Return: claritype.Int()}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	iv, ok := result.(claritype.IntValue)
	if !ok {
		t.Fatalf("result is %T, want claritype.IntValue", result)
	}
	if iv.Bits.Lo != 6 || iv.Bits.Hi != 0 {
		t.Fatalf("(+ 1 2 3) = %+v, want {Lo:6 Hi:0}", iv.Bits)
	}
}

// TestEndToEndUintAddTrapsOnOverflow runs §8 scenario 1's second half:
// (+ UINT_MAX 1u) ⇒ trap code 0 (CodeArithmeticOverflow).
func TestEndToEndUintAddTrapsOnOverflow(t *testing.T) {
	uintMax := claritype.Int128{Lo: ^uint64(0), Hi: ^uint64(0)}
	fn := publicFunction("overflow-add", claritype.UInt(),
		ast.NewCall(claritype.UInt(), "+", uintLit(uintMax), uintLit(claritype.Int128{Lo: 1})))
	contract := &ast.Contract{Name: "arith-overflow", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	if _, err := rt.Call(ctx, "overflow-add", Signature{Return: claritype.UInt()}, nil); err == nil {
		t.Fatal("(UINT_MAX + 1u) should trap, got no error")
	}
}

// TestEndToEndMulUintComputesFullWidthProduct is the concrete failing
// example from the arithmetic overflow review: (* u4294967296 u4294967296)
// is 2^64, a perfectly in-range UInt that a low-64-bit-word-only multiply
// truncates to 0. A correct 128-bit multiply must return it exactly.
func TestEndToEndMulUintComputesFullWidthProduct(t *testing.T) {
	operand := claritype.Int128{Lo: 1 << 32}
	fn := publicFunction("mul-pow32", claritype.UInt(),
		ast.NewCall(claritype.UInt(), "*", uintLit(operand), uintLit(operand)))
	contract := &ast.Contract{Name: "mul-wide", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	result, err := rt.Call(ctx, "mul-pow32", Signature{Return: claritype.UInt()}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	uv, ok := result.(claritype.UIntValue)
	if !ok {
		t.Fatalf("result is %T, want claritype.UIntValue", result)
	}
	if uv.Bits.Lo != 0 || uv.Bits.Hi != 1 {
		t.Fatalf("(* 2^32 2^32) = %+v, want {Lo:0 Hi:1} (2^64)", uv.Bits)
	}
}

// TestEndToEndMulUintTrapsOnOverflow checks the other side of the same
// fix: a product that genuinely does not fit in 128 bits must trap
// rather than wrap.
func TestEndToEndMulUintTrapsOnOverflow(t *testing.T) {
	uintMax := claritype.Int128{Lo: ^uint64(0), Hi: ^uint64(0)}
	fn := publicFunction("mul-overflow", claritype.UInt(),
		ast.NewCall(claritype.UInt(), "*", uintLit(uintMax), uintLit(claritype.Int128{Lo: 2})))
	contract := &ast.Contract{Name: "mul-overflow", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	if _, err := rt.Call(ctx, "mul-overflow", Signature{Return: claritype.UInt()}, nil); err == nil {
		t.Fatal("(UINT_MAX * 2) should trap, got no error")
	}
}

// TestEndToEndMatchOptional runs §8 scenario 2's first half:
// (match (some 10) v v 1001) ⇒ Int 10.
func TestEndToEndMatchOptional(t *testing.T) {
	someTen := intLit(10)
	scrutinee := ast.NewLiteral(claritype.Optional(claritype.Int()), claritype.OptionalValue{
		Def:  claritype.Optional(claritype.Int()),
		Some: someTen.Value,
	})
	match := ast.MatchOptional{
		Scrutinee: scrutinee,
		SomeName:  "v",
		SomeArm:   ast.NewVar(claritype.Int(), "v"),
		NoneArm:   intLit(1001),
	}
	match.Type = claritype.Int()
	fn := publicFunction("match-some", claritype.Int(), match)
	contract := &ast.Contract{Name: "match-opt", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	result, err := rt.Call(ctx, "match-some", Signature{Return: claritype.Int()}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	iv, ok := result.(claritype.IntValue)
	if !ok {
		t.Fatalf("result is %T, want claritype.IntValue", result)
	}
	if iv.Bits.Lo != 10 {
		t.Fatalf("(match (some 10) v v 1001) = %+v, want 10", iv.Bits)
	}
}

// TestEndToEndToConsensusBuff runs §8 scenario 6:
// (to-consensus-buff? (err {a: 1})) ⇒ (some 0x080c0000000101610000000000000000000000000000000001).
func TestEndToEndToConsensusBuff(t *testing.T) {
	tupleType := claritype.Tuple(claritype.TupleField{Name: "a", Type: claritype.Int()})
	respType := claritype.Response(tupleType, tupleType)
	arg := ast.NewLiteral(respType, claritype.ResponseValue{
		Def: respType,
		Ok:  false,
		Payload: claritype.TupleValue{
			Def:    tupleType,
			Values: map[string]claritype.Value{"a": claritype.IntValue{Bits: claritype.Int128{Lo: 1}}},
		},
	})
	bufType := claritype.Buffer(64)
	resultType := claritype.Optional(bufType)
	call := ast.NewCall(resultType, "to-consensus-buff?", arg)
	fn := publicFunction("to-consensus", resultType, call)
	contract := &ast.Contract{Name: "consensus", Definitions: []ast.TopLevel{fn}}
	rt, ctx := loadContract(t, contract)

	result, err := rt.Call(ctx, "to-consensus", Signature{Return: resultType}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	ov, ok := result.(claritype.OptionalValue)
	if !ok {
		t.Fatalf("result is %T, want claritype.OptionalValue", result)
	}
	if ov.Some == nil {
		t.Fatal("(to-consensus-buff? (err {a: 1})) = none, want (some buffer)")
	}
	bv, ok := ov.Some.(claritype.BufferValue)
	if !ok {
		t.Fatalf("some arm is %T, want claritype.BufferValue", ov.Some)
	}

	want := []byte{
		0x08,                   // response err
		0x0c,                   // tuple
		0x00, 0x00, 0x00, 0x01, // field count
		0x01, 0x61, // name length 1, "a"
		0x00, // int tag
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	}
	if string(bv.Bytes) != string(want) {
		t.Fatalf("to-consensus-buff? bytes = % x, want % x", bv.Bytes, want)
	}
}
