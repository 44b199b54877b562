// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

import (
	"testing"
)

func roundTrip(t *testing.T, v Value) {
	t.Helper()
	b, err := Serialize(v)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, n, err := Deserialize(b, v.Type())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if n != len(b) {
		t.Fatalf("Deserialize consumed %d bytes, want %d", n, len(b))
	}
	b2, err := Serialize(got)
	if err != nil {
		t.Fatalf("Serialize(round-tripped): %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("round trip mismatch: %x != %x", b, b2)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tup := Tuple(TupleField{Name: "a", Type: Int()}, TupleField{Name: "b", Type: Bool()})

	tests := []Value{
		IntValue{Bits: Int128{Lo: 1, Hi: 0}},
		UIntValue{Bits: Int128{Lo: 0xffffffffffffffff, Hi: 0x1}},
		BoolValue(true),
		BoolValue(false),
		PrincipalValue{Version: 26, Hash: [20]byte{1, 2, 3}},
		PrincipalValue{Version: 26, Hash: [20]byte{1, 2, 3}, Contract: "my-contract"},
		BufferValue{Cap: 4, Bytes: []byte{0xde, 0xad, 0xbe, 0xef}},
		StringAsciiValue{Cap: 5, Value: "hello"},
		StringUtf8Value{Cap: 2, CodePoints: []rune{'h', 'i'}},
		ListValue{ElemType: Int(), MaxLen: 3, Items: []Value{
			IntValue{Bits: Int128{Lo: 1}},
			IntValue{Bits: Int128{Lo: 2}},
		}},
		TupleValue{Def: tup, Values: map[string]Value{
			"a": IntValue{Bits: Int128{Lo: 7}},
			"b": BoolValue(true),
		}},
		OptionalValue{Def: Optional(Int())},
		OptionalValue{Def: Optional(Int()), Some: IntValue{Bits: Int128{Lo: 42}}},
		ResponseValue{Def: Response(Int(), Bool()), Ok: true, Payload: IntValue{Bits: Int128{Lo: 9}}},
		ResponseValue{Def: Response(Int(), Bool()), Ok: false, Payload: BoolValue(false)},
	}
	for _, v := range tests {
		roundTrip(t, v)
	}
}

func TestSerializeInt128LowHighOrder(t *testing.T) {
	v := UIntValue{Bits: Int128{Lo: 0x0102030405060708, Hi: 0x1112131415161718}}
	b, err := Serialize(v)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("len(b) = %d, want 16", len(b))
	}
	// Low word first, little-endian within each word.
	if b[0] != 0x08 || b[7] != 0x01 {
		t.Fatalf("low word not written first/little-endian: %x", b[:8])
	}
	if b[8] != 0x18 || b[15] != 0x11 {
		t.Fatalf("high word not written second/little-endian: %x", b[8:])
	}
}

func TestSerializeOptionalVariantTag(t *testing.T) {
	none, err := Serialize(OptionalValue{Def: Optional(Int())})
	if err != nil {
		t.Fatalf("Serialize(none): %v", err)
	}
	if len(none) != 4 || none[0] != 0 {
		t.Fatalf("none tag = %x, want [0,0,0,0]", none)
	}

	some, err := Serialize(OptionalValue{Def: Optional(Int()), Some: IntValue{Bits: Int128{Lo: 1}}})
	if err != nil {
		t.Fatalf("Serialize(some): %v", err)
	}
	if len(some) != 4+16 || some[0] != 1 {
		t.Fatalf("some tag/len = %x, want tag 1 and total length 20", some)
	}
}
