// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

func TestSlots(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want []types.ValueType
	}{
		{"int", Int(), []types.ValueType{types.I64, types.I64}},
		{"uint", UInt(), []types.ValueType{types.I64, types.I64}},
		{"bool", Bool(), []types.ValueType{types.I32}},
		{"buffer", Buffer(32), []types.ValueType{types.I32, types.I32}},
		{"notype", NoType(), []types.ValueType{types.I32}},
		{
			"optional int",
			Optional(Int()),
			[]types.ValueType{types.I32, types.I64, types.I64},
		},
		{
			"response int,bool",
			Response(Int(), Bool()),
			[]types.ValueType{types.I32, types.I64, types.I64, types.I32},
		},
		{
			"tuple sorted by field name",
			Tuple(
				TupleField{Name: "z", Type: Bool()},
				TupleField{Name: "a", Type: Int()},
			),
			[]types.ValueType{types.I64, types.I64, types.I32},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.typ.Slots()
			if len(got) != len(tt.want) {
				t.Fatalf("Slots() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Slots()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTupleFieldOrdering(t *testing.T) {
	tup := Tuple(
		TupleField{Name: "b", Type: Int()},
		TupleField{Name: "a", Type: Bool()},
	)
	if tup.Fields[0].Name != "a" || tup.Fields[1].Name != "b" {
		t.Fatalf("Tuple() did not sort fields by name: %v", tup.Fields)
	}
}

func TestIsInMemory(t *testing.T) {
	inMemory := []Type{Buffer(1), StringAscii(1), StringUtf8(1), Principal(), List(Int(), 1)}
	for _, typ := range inMemory {
		if !typ.IsInMemory() {
			t.Errorf("%v: IsInMemory() = false, want true", typ)
		}
	}
	flat := []Type{Int(), UInt(), Bool(), NoType(), Optional(Bool()), Response(Int(), Bool()), Tuple()}
	for _, typ := range flat {
		if typ.IsInMemory() {
			t.Errorf("%v: IsInMemory() = true, want false", typ)
		}
	}
}

func TestFlatWordSize(t *testing.T) {
	tests := []struct {
		typ  Type
		want uint32
	}{
		{Int(), 16},
		{Bool(), 4},
		{Buffer(100), 8}, // offset + length, payload lives separately
		{Optional(Int()), 4 + 16},
		{Response(Int(), Bool()), 4 + 16 + 4},
		{Tuple(TupleField{Name: "a", Type: Int()}, TupleField{Name: "b", Type: Bool()}), 20},
	}
	for _, tt := range tests {
		if got := tt.typ.FlatWordSize(); got != tt.want {
			t.Errorf("%v: FlatWordSize() = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestPayloadSize(t *testing.T) {
	if n, ok := Buffer(10).PayloadSize(); !ok || n != 10 {
		t.Fatalf("Buffer(10).PayloadSize() = %d, %v, want 10, true", n, ok)
	}
	if n, ok := StringUtf8(10).PayloadSize(); !ok || n != 40 {
		t.Fatalf("StringUtf8(10).PayloadSize() = %d, %v, want 40, true", n, ok)
	}
	if n, ok := List(Int(), 4).PayloadSize(); !ok || n != 4*16 {
		t.Fatalf("List(Int, 4).PayloadSize() = %d, %v, want 64, true", n, ok)
	}
	if _, ok := Int().PayloadSize(); ok {
		t.Fatalf("Int().PayloadSize() ok = true, want false")
	}
}

func TestTypeEqual(t *testing.T) {
	a := Tuple(TupleField{Name: "x", Type: Int()})
	b := Tuple(TupleField{Name: "x", Type: Int()})
	c := Tuple(TupleField{Name: "x", Type: UInt()})
	if !a.Equal(b) {
		t.Errorf("a.Equal(b) = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("a.Equal(c) = true, want false")
	}
}
