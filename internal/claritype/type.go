// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package claritype defines the Language's closed source type system and
// the layout rules the code generator and stdlib depend on: the flat Wasm
// slot sequence for a type, whether that flat form is an (offset, length)
// indirection into linear memory, the contiguous byte width of the flat
// form, and a canonical byte serializer for consensus-critical hashing.
package claritype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// Kind distinguishes the source type's shape.
type Kind int

const (
	KindInt Kind = iota
	KindUInt
	KindBool
	KindPrincipal
	KindBuffer
	KindStringAscii
	KindStringUtf8
	KindList
	KindTuple
	KindOptional
	KindResponse
	KindNoType
)

// Principal's declared shape: 1-byte version, 20-byte hash, 1-byte name
// length (0 for a standard principal), up to 128 ASCII name bytes.
const (
	PrincipalHashLen   = 20
	PrincipalMaxNameLen = 128
	PrincipalMaxSize   = 1 + PrincipalHashLen + 1 + PrincipalMaxNameLen
)

// TupleField is one named field of a Tuple type.
type TupleField struct {
	Name string
	Type Type
}

// Type is a value of the Language's source type system. The zero value is
// not a valid Type; use the constructors below.
type Type struct {
	Kind Kind

	// Length is the declared capacity: max bytes for Buffer/StringAscii,
	// max code units for StringUtf8, max element count for List.
	Length uint32

	Elem *Type // List element type

	Fields []TupleField // Tuple fields, always kept in ascending name order

	Some *Type // Optional inner type

	Ok  *Type // Response ok-arm type
	Err *Type // Response err-arm type
}

func Int() Type        { return Type{Kind: KindInt} }
func UInt() Type       { return Type{Kind: KindUInt} }
func Bool() Type       { return Type{Kind: KindBool} }
func Principal() Type  { return Type{Kind: KindPrincipal} }
func NoType() Type     { return Type{Kind: KindNoType} }

func Buffer(maxLen uint32) Type      { return Type{Kind: KindBuffer, Length: maxLen} }
func StringAscii(maxLen uint32) Type { return Type{Kind: KindStringAscii, Length: maxLen} }
func StringUtf8(maxLen uint32) Type  { return Type{Kind: KindStringUtf8, Length: maxLen} }

func List(elem Type, maxLen uint32) Type {
	e := elem
	return Type{Kind: KindList, Elem: &e, Length: maxLen}
}

// Tuple builds a Tuple type from fields in any order; it sorts them by
// name so that every Tuple value built from the same field set has one
// canonical layout.
func Tuple(fields ...TupleField) Type {
	sorted := make([]TupleField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Type{Kind: KindTuple, Fields: sorted}
}

func Optional(some Type) Type {
	s := some
	return Type{Kind: KindOptional, Some: &s}
}

func Response(ok, err Type) Type {
	o, e := ok, err
	return Type{Kind: KindResponse, Ok: &o, Err: &e}
}

// String renders t the way diagnostics and generated names reference it.
func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindBool:
		return "bool"
	case KindPrincipal:
		return "principal"
	case KindBuffer:
		return fmt.Sprintf("(buff %d)", t.Length)
	case KindStringAscii:
		return fmt.Sprintf("(string-ascii %d)", t.Length)
	case KindStringUtf8:
		return fmt.Sprintf("(string-utf8 %d)", t.Length)
	case KindList:
		return fmt.Sprintf("(list %d %v)", t.Length, t.Elem)
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %v", f.Name, f.Type)
		}
		return fmt.Sprintf("(tuple %s)", strings.Join(parts, ", "))
	case KindOptional:
		return fmt.Sprintf("(optional %v)", t.Some)
	case KindResponse:
		return fmt.Sprintf("(response %v %v)", t.Ok, t.Err)
	case KindNoType:
		return "notype"
	default:
		return "unknown"
	}
}

// Equal reports whether t and other describe the same source type.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindBuffer, KindStringAscii, KindStringUtf8:
		return t.Length == other.Length
	case KindList:
		return t.Length == other.Length && t.Elem.Equal(*other.Elem)
	case KindTuple:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != other.Fields[i].Name || !t.Fields[i].Type.Equal(other.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindOptional:
		return t.Some.Equal(*other.Some)
	case KindResponse:
		return t.Ok.Equal(*other.Ok) && t.Err.Equal(*other.Err)
	default:
		return true
	}
}

// IsInMemory reports whether t's flat representation is an
// (offset, length) indirection into linear memory, as opposed to values
// carried directly in Wasm slots.
func (t Type) IsInMemory() bool {
	switch t.Kind {
	case KindBuffer, KindStringAscii, KindStringUtf8, KindPrincipal, KindList:
		return true
	default:
		return false
	}
}

// Slots returns t's flat Wasm slot sequence, per the Type Layout table:
// Int/UInt are two i64 (low, high); Bool and NoType are a single i32;
// in-memory types are an (i32 offset, i32 length) pair; Optional prefixes
// its inner slots with a variant i32; Response prefixes both arms' slots
// with a variant i32; Tuple concatenates its fields' slots in sorted
// field order.
func (t Type) Slots() []types.ValueType {
	switch t.Kind {
	case KindInt, KindUInt:
		return []types.ValueType{types.I64, types.I64}
	case KindBool, KindNoType:
		return []types.ValueType{types.I32}
	case KindBuffer, KindStringAscii, KindStringUtf8, KindPrincipal, KindList:
		return []types.ValueType{types.I32, types.I32}
	case KindOptional:
		return append([]types.ValueType{types.I32}, t.Some.Slots()...)
	case KindResponse:
		out := []types.ValueType{types.I32}
		out = append(out, t.Ok.Slots()...)
		out = append(out, t.Err.Slots()...)
		return out
	case KindTuple:
		var out []types.ValueType
		for _, f := range t.Fields {
			out = append(out, f.Type.Slots()...)
		}
		return out
	default:
		return nil
	}
}

func slotWidth(vt types.ValueType) uint32 {
	switch vt {
	case types.I32, types.F32:
		return 4
	case types.I64, types.F64:
		return 8
	default:
		return 0
	}
}

// FlatWordSize is the contiguous byte width of t's flat slot region when
// laid out in linear memory: the width a tuple/list/optional/response
// reserves inline for a component of type t, before following any
// (offset, length) indirection to its payload.
func (t Type) FlatWordSize() uint32 {
	var size uint32
	for _, s := range t.Slots() {
		size += slotWidth(s)
	}
	return size
}

// PayloadSize returns the declared maximum byte size of t's
// separately-addressed payload, and whether t has one at all (only
// in-memory types do).
func (t Type) PayloadSize() (uint32, bool) {
	switch t.Kind {
	case KindBuffer, KindStringAscii:
		return t.Length, true
	case KindStringUtf8:
		// Stored as 4-byte Unicode scalar values, not UTF-8 bytes.
		return t.Length * 4, true
	case KindPrincipal:
		return PrincipalMaxSize, true
	case KindList:
		return t.Length * t.Elem.FlatWordSize(), true
	default:
		return 0, false
	}
}
