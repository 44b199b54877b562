// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"reflect"
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// flatRoundTrip exercises encodeValue/decodeValue for types whose slots
// never indirect through linear memory, so a nil arena/api.Memory is
// safe: no in-memory-typed branch of encodeValue or decodeSlots runs.
func flatRoundTrip(t *testing.T, typ claritype.Type, v claritype.Value) {
	t.Helper()
	a := &arena{}
	slots, err := encodeValue(a, typ, v)
	if err != nil {
		t.Fatalf("encodeValue: %v", err)
	}
	got, err := decodeValue(nil, typ, slots)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("round trip mismatch: got %#v, want %#v", got, v)
	}
}

func TestEncodeDecodeInt(t *testing.T) {
	flatRoundTrip(t, claritype.Int(), claritype.IntValue{Bits: claritype.Int128{Lo: 1, Hi: 0}})
	flatRoundTrip(t, claritype.Int(), claritype.IntValue{Bits: claritype.Int128{Lo: 0, Hi: 0xffffffffffffffff}})
}

func TestEncodeDecodeUInt(t *testing.T) {
	flatRoundTrip(t, claritype.UInt(), claritype.UIntValue{Bits: claritype.Int128{Lo: 42}})
}

func TestEncodeDecodeBool(t *testing.T) {
	flatRoundTrip(t, claritype.Bool(), claritype.BoolValue(true))
	flatRoundTrip(t, claritype.Bool(), claritype.BoolValue(false))
}

func TestEncodeDecodeNoType(t *testing.T) {
	flatRoundTrip(t, claritype.NoType(), claritype.NoTypeValue{})
}

func TestEncodeDecodeTupleOfFlatFields(t *testing.T) {
	typ := claritype.Tuple(
		claritype.TupleField{Name: "amount", Type: claritype.UInt()},
		claritype.TupleField{Name: "ok", Type: claritype.Bool()},
	)
	v := claritype.TupleValue{Def: typ, Values: map[string]claritype.Value{
		"amount": claritype.UIntValue{Bits: claritype.Int128{Lo: 7}},
		"ok":     claritype.BoolValue(true),
	}}
	flatRoundTrip(t, typ, v)
}

func TestEncodeDecodeOptionalFlat(t *testing.T) {
	typ := claritype.Optional(claritype.Int())
	flatRoundTrip(t, typ, claritype.OptionalValue{Def: typ, Some: nil})
	flatRoundTrip(t, typ, claritype.OptionalValue{Def: typ, Some: claritype.IntValue{Bits: claritype.Int128{Lo: 9}}})
}

func TestEncodeDecodeResponseFlat(t *testing.T) {
	typ := claritype.Response(claritype.Int(), claritype.Bool())
	flatRoundTrip(t, typ, claritype.ResponseValue{Def: typ, Ok: true, Payload: claritype.IntValue{Bits: claritype.Int128{Lo: 1}}})
	flatRoundTrip(t, typ, claritype.ResponseValue{Def: typ, Ok: false, Payload: claritype.BoolValue(false)})
}

func TestAppendAndReadSlotWordsRoundTrip(t *testing.T) {
	vts := []types.ValueType{types.I32, types.I64, types.I32}
	slots := []uint64{7, 0x1122334455667788, 9}

	region := appendSlots(nil, vts, slots)
	if len(region) != 4+8+4 {
		t.Fatalf("region length = %d, want 16", len(region))
	}

	got := readSlotWords(region, vts)
	if !reflect.DeepEqual(got, slots) {
		t.Fatalf("readSlotWords = %v, want %v", got, slots)
	}
}

func TestZeroSlots(t *testing.T) {
	got := zeroSlots([]types.ValueType{types.I32, types.I64})
	want := []uint64{0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("zeroSlots = %v, want %v", got, want)
	}
}
