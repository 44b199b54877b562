// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package clar2wasm

import (
	"bytes"
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

func intLit(v int64) ast.Literal {
	return ast.NewLiteral(claritype.Int(), claritype.IntValue{Bits: claritype.Int128{Lo: uint64(v)}})
}

func constantContract() *ast.Contract {
	fn := ast.DefineFunction{
		Name:   "get-answer",
		Return: claritype.Int(),
		Body:   []ast.Expr{intLit(42)},
		Public: true,
	}
	return &ast.Contract{Name: "answer", Definitions: []ast.TopLevel{fn}}
}

func TestCompileProducesAModule(t *testing.T) {
	m, err := Compile(constantContract())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if m == nil {
		t.Fatal("Compile returned a nil module with no error")
	}
}

func TestCompileRejectsNilContract(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Fatal("Compile(nil) should fail")
	}
}

func TestCompileAndEncodeProducesWasmMagic(t *testing.T) {
	wasm, err := CompileAndEncode(constantContract())
	if err != nil {
		t.Fatalf("CompileAndEncode: %v", err)
	}
	want := []byte{0x00, 0x61, 0x73, 0x6d}
	if !bytes.HasPrefix(wasm, want) {
		t.Fatalf("output does not start with the Wasm magic number: %x", wasm[:4])
	}
}

func TestCompileAndEncodeRejectsNilContract(t *testing.T) {
	if _, err := CompileAndEncode(nil); err == nil {
		t.Fatal("CompileAndEncode(nil) should fail")
	}
}
