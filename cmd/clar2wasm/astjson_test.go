// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

func TestDecodeContractDefineConstant(t *testing.T) {
	data := []byte(`{
		"name": "const-contract",
		"definitions": [
			{"kind": "define-constant", "name": "limit", "value":
				{"kind": "literal", "type": {"kind": 0}, "value": {"kind": "int", "lo": 100, "hi": 0}}
			}
		]
	}`)
	contract, err := decodeContract(data)
	if err != nil {
		t.Fatalf("decodeContract: %v", err)
	}
	if contract.Name != "const-contract" {
		t.Fatalf("Name = %q, want %q", contract.Name, "const-contract")
	}
	if len(contract.Definitions) != 1 {
		t.Fatalf("len(Definitions) = %d, want 1", len(contract.Definitions))
	}
	dc, ok := contract.Definitions[0].(ast.DefineConstant)
	if !ok {
		t.Fatalf("Definitions[0] is %T, want ast.DefineConstant", contract.Definitions[0])
	}
	if dc.Name != "limit" {
		t.Fatalf("DefineConstant.Name = %q, want %q", dc.Name, "limit")
	}
	lit, ok := dc.Value.(ast.Literal)
	if !ok {
		t.Fatalf("DefineConstant.Value is %T, want ast.Literal", dc.Value)
	}
	iv, ok := lit.Value.(claritype.IntValue)
	if !ok {
		t.Fatalf("Literal.Value is %T, want claritype.IntValue", lit.Value)
	}
	if iv.Bits.Lo != 100 {
		t.Fatalf("IntValue.Bits.Lo = %d, want 100", iv.Bits.Lo)
	}
}

func TestDecodeContractDefineFunctionWithIf(t *testing.T) {
	data := []byte(`{
		"name": "branching",
		"definitions": [
			{
				"kind": "define-function",
				"name": "pick",
				"params": [{"name": "flag", "type": {"kind": 2}}],
				"return": {"kind": 0},
				"public": true,
				"body": [
					{
						"kind": "if",
						"type": {"kind": 0},
						"cond": {"kind": "var", "type": {"kind": 2}, "name": "flag"},
						"then": {"kind": "literal", "type": {"kind": 0}, "value": {"kind": "int", "lo": 1, "hi": 0}},
						"else": {"kind": "literal", "type": {"kind": 0}, "value": {"kind": "int", "lo": 0, "hi": 0}}
					}
				]
			}
		]
	}`)
	contract, err := decodeContract(data)
	if err != nil {
		t.Fatalf("decodeContract: %v", err)
	}
	fn, ok := contract.Definitions[0].(ast.DefineFunction)
	if !ok {
		t.Fatalf("Definitions[0] is %T, want ast.DefineFunction", contract.Definitions[0])
	}
	if !fn.Public {
		t.Fatal("fn.Public = false, want true")
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "flag" {
		t.Fatalf("fn.Params = %+v, want one param named flag", fn.Params)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("len(fn.Body) = %d, want 1", len(fn.Body))
	}
	ifExpr, ok := fn.Body[0].(ast.If)
	if !ok {
		t.Fatalf("fn.Body[0] is %T, want ast.If", fn.Body[0])
	}
	if _, ok := ifExpr.Cond.(ast.Var); !ok {
		t.Fatalf("If.Cond is %T, want ast.Var", ifExpr.Cond)
	}
}

func TestDecodeContractUnknownTopLevelKind(t *testing.T) {
	data := []byte(`{"name": "bad", "definitions": [{"kind": "define-nonsense"}]}`)
	if _, err := decodeContract(data); err == nil {
		t.Fatal("decodeContract should reject an unknown top-level kind")
	}
}

func TestDecodeValuePrincipalRoundTrip(t *testing.T) {
	raw := []byte(`{"kind": "principal", "version": 26, "hash": "0102030405060708090a0b0c0d0e0f1011121314", "contract": "my-contract"}`)
	v, err := decodeValue(raw)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	pv, ok := v.(claritype.PrincipalValue)
	if !ok {
		t.Fatalf("decodeValue returned %T, want claritype.PrincipalValue", v)
	}
	if pv.Version != 26 {
		t.Fatalf("Version = %d, want 26", pv.Version)
	}
	if pv.Contract != "my-contract" {
		t.Fatalf("Contract = %q, want %q", pv.Contract, "my-contract")
	}
	if pv.Hash[0] != 0x01 || pv.Hash[19] != 0x14 {
		t.Fatalf("Hash = %x, unexpected prefix/suffix", pv.Hash)
	}
}

func TestDecodeValueOptionalNone(t *testing.T) {
	raw := []byte(`{"kind": "optional", "type": {"kind": 9, "some": {"kind": 0}}, "some": null}`)
	v, err := decodeValue(raw)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	ov, ok := v.(claritype.OptionalValue)
	if !ok {
		t.Fatalf("decodeValue returned %T, want claritype.OptionalValue", v)
	}
	if ov.Some != nil {
		t.Fatalf("Some = %v, want nil", ov.Some)
	}
}

func TestDecodeValueUnknownKind(t *testing.T) {
	if _, err := decodeValue([]byte(`{"kind": "not-a-value"}`)); err == nil {
		t.Fatal("decodeValue should reject an unknown kind")
	}
}
