// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

// Int128 is the raw two's-complement bit pattern of a 128-bit Int or
// UInt value, split into low and high 64-bit words. Interpretation
// (signed vs. unsigned) is carried by the Value's Type, not by Int128
// itself.
type Int128 struct {
	Lo uint64
	Hi uint64
}

// Value is a fully-materialized Language value, used by the literal pool
// and the canonical serializer. It never appears on the Wasm side of the
// boundary, where values live as flat slots or memory regions instead.
type Value interface {
	Type() Type
}

type IntValue struct {
	Bits Int128
}

func (IntValue) Type() Type { return Int() }

type UIntValue struct {
	Bits Int128
}

func (UIntValue) Type() Type { return UInt() }

type BoolValue bool

func (BoolValue) Type() Type { return Bool() }

// PrincipalValue is a standard principal when Contract == "", and a
// contract principal otherwise.
type PrincipalValue struct {
	Version  byte
	Hash     [PrincipalHashLen]byte
	Contract string
}

func (PrincipalValue) Type() Type { return Principal() }

type BufferValue struct {
	Cap   uint32
	Bytes []byte
}

func (v BufferValue) Type() Type { return Buffer(v.Cap) }

type StringAsciiValue struct {
	Cap   uint32
	Value string
}

func (v StringAsciiValue) Type() Type { return StringAscii(v.Cap) }

// StringUtf8Value stores Unicode scalar values individually, matching the
// Language's in-memory representation of UTF-8 strings as 4-byte code
// points rather than packed UTF-8 bytes.
type StringUtf8Value struct {
	Cap        uint32
	CodePoints []rune
}

func (v StringUtf8Value) Type() Type { return StringUtf8(v.Cap) }

type ListValue struct {
	ElemType Type
	MaxLen   uint32
	Items    []Value
}

func (v ListValue) Type() Type { return List(v.ElemType, v.MaxLen) }

type TupleValue struct {
	Def    Type // a KindTuple Type; authoritative for field order
	Values map[string]Value
}

func (v TupleValue) Type() Type { return v.Def }

// OptionalValue is none when Some == nil.
type OptionalValue struct {
	Def  Type // a KindOptional Type
	Some Value
}

func (v OptionalValue) Type() Type { return v.Def }

type ResponseValue struct {
	Def Type // a KindResponse Type
	Ok  bool
	Payload Value
}

func (v ResponseValue) Type() Type { return v.Def }

type NoTypeValue struct{}

func (NoTypeValue) Type() Type { return NoType() }
