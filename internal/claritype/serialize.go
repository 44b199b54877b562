// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Serialize produces v's canonical byte image, consensus-critical and
// used both for the literal pool's interned content and for hashing
// primitives that need a reproducible byte form of a value. It follows
// the Type Layout rules exactly: little-endian 128-bit integers (low
// word first), raw buffer/string payload bytes, ascending-field-name
// tuple iteration, a 4-byte little-endian variant tag for Optional and
// Response (0 = none/err, 1 = some/ok) followed by the active arm's
// image, and a 4-byte element count for List followed by each element's
// image.
//
// Unlike the fixed-width in-memory layout the code generator reserves in
// linear memory (which pads the inactive arm of an Optional/Response so
// that recursive types have a statically-known size), Serialize emits a
// variable-length image containing only the active arm: nothing ever
// reads bytes skipped for layout purposes, so there is nothing canonical
// to say about their content.
func Serialize(v Value) ([]byte, error) {
	switch val := v.(type) {
	case IntValue:
		return serializeInt128(val.Bits), nil
	case UIntValue:
		return serializeInt128(val.Bits), nil
	case BoolValue:
		return serializeBool(bool(val)), nil
	case PrincipalValue:
		return serializePrincipal(val), nil
	case BufferValue:
		return append([]byte{}, val.Bytes...), nil
	case StringAsciiValue:
		return []byte(val.Value), nil
	case StringUtf8Value:
		return serializeStringUtf8(val.CodePoints), nil
	case ListValue:
		return serializeList(val)
	case TupleValue:
		return serializeTuple(val)
	case OptionalValue:
		return serializeOptional(val)
	case ResponseValue:
		return serializeResponse(val)
	case NoTypeValue:
		return nil, nil
	default:
		return nil, fmt.Errorf("claritype: serialize: unsupported value %T", v)
	}
}

func serializeInt128(b Int128) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], b.Lo)
	binary.LittleEndian.PutUint64(out[8:16], b.Hi)
	return out
}

func serializeBool(b bool) []byte {
	out := make([]byte, 4)
	if b {
		out[0] = 1
	}
	return out
}

func serializePrincipal(p PrincipalValue) []byte {
	out := make([]byte, 0, PrincipalMaxSize)
	out = append(out, p.Version)
	out = append(out, p.Hash[:]...)
	out = append(out, byte(len(p.Contract)))
	out = append(out, []byte(p.Contract)...)
	return out
}

func serializeStringUtf8(points []rune) []byte {
	out := make([]byte, 4*len(points))
	for i, r := range points {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], uint32(r))
	}
	return out
}

func serializeList(v ListValue) ([]byte, error) {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(v.Items)))
	for i, item := range v.Items {
		b, err := Serialize(item)
		if err != nil {
			return nil, errors.Wrapf(err, "list element %d", i)
		}
		out = append(out, b...)
	}
	return out, nil
}

func serializeTuple(v TupleValue) ([]byte, error) {
	var out []byte
	for _, f := range v.Def.Fields {
		fv, ok := v.Values[f.Name]
		if !ok {
			return nil, fmt.Errorf("claritype: serialize: tuple missing field %q", f.Name)
		}
		b, err := Serialize(fv)
		if err != nil {
			return nil, errors.Wrapf(err, "tuple field %q", f.Name)
		}
		out = append(out, b...)
	}
	return out, nil
}

func serializeOptional(v OptionalValue) ([]byte, error) {
	out := make([]byte, 4)
	if v.Some == nil {
		return out, nil
	}
	binary.LittleEndian.PutUint32(out, 1)
	b, err := Serialize(v.Some)
	if err != nil {
		return nil, errors.Wrap(err, "optional payload")
	}
	return append(out, b...), nil
}

func serializeResponse(v ResponseValue) ([]byte, error) {
	out := make([]byte, 4)
	if v.Ok {
		binary.LittleEndian.PutUint32(out, 1)
	}
	b, err := Serialize(v.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "response payload")
	}
	return append(out, b...), nil
}

// Deserialize reverses Serialize: given t and the bytes Serialize(v)
// produced for some v : t, it reconstructs v and reports how many bytes
// it consumed. Serialize writes no length for Buffer, StringAscii and
// StringUtf8 payloads, so Deserialize reads each at its type's full
// capacity; a payload shorter than its capacity does not round-trip.
func Deserialize(b []byte, t Type) (Value, int, error) {
	switch t.Kind {
	case KindInt:
		bits, n, err := deserializeInt128(b)
		return IntValue{Bits: bits}, n, err
	case KindUInt:
		bits, n, err := deserializeInt128(b)
		return UIntValue{Bits: bits}, n, err
	case KindBool:
		if len(b) < 4 {
			return nil, 0, fmt.Errorf("claritype: deserialize bool: short buffer")
		}
		return BoolValue(binary.LittleEndian.Uint32(b[:4]) != 0), 4, nil
	case KindPrincipal:
		return deserializePrincipal(b)
	case KindBuffer:
		if uint32(len(b)) < t.Length {
			return nil, 0, fmt.Errorf("claritype: deserialize buffer: short buffer")
		}
		return BufferValue{Cap: t.Length, Bytes: append([]byte{}, b[:t.Length]...)}, int(t.Length), nil
	case KindStringAscii:
		if uint32(len(b)) < t.Length {
			return nil, 0, fmt.Errorf("claritype: deserialize string-ascii: short buffer")
		}
		return StringAsciiValue{Cap: t.Length, Value: string(b[:t.Length])}, int(t.Length), nil
	case KindStringUtf8:
		n := int(t.Length) * 4
		if len(b) < n {
			return nil, 0, fmt.Errorf("claritype: deserialize string-utf8: short buffer")
		}
		points := make([]rune, t.Length)
		for i := range points {
			points[i] = rune(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
		}
		return StringUtf8Value{Cap: t.Length, CodePoints: points}, n, nil
	case KindList:
		return deserializeList(b, t)
	case KindTuple:
		return deserializeTuple(b, t)
	case KindOptional:
		return deserializeOptional(b, t)
	case KindResponse:
		return deserializeResponse(b, t)
	case KindNoType:
		return NoTypeValue{}, 0, nil
	default:
		return nil, 0, fmt.Errorf("claritype: deserialize: unsupported type %v", t)
	}
}

func deserializeInt128(b []byte) (Int128, int, error) {
	if len(b) < 16 {
		return Int128{}, 0, fmt.Errorf("claritype: deserialize int128: short buffer")
	}
	return Int128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}, 16, nil
}

func deserializePrincipal(b []byte) (Value, int, error) {
	if len(b) < 1+PrincipalHashLen+1 {
		return nil, 0, fmt.Errorf("claritype: deserialize principal: short buffer")
	}
	p := PrincipalValue{Version: b[0]}
	copy(p.Hash[:], b[1:1+PrincipalHashLen])
	nameLen := int(b[1+PrincipalHashLen])
	n := 1 + PrincipalHashLen + 1 + nameLen
	if len(b) < n {
		return nil, 0, fmt.Errorf("claritype: deserialize principal: short buffer")
	}
	p.Contract = string(b[1+PrincipalHashLen+1 : n])
	return p, n, nil
}

func deserializeList(b []byte, t Type) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: deserialize list: short buffer")
	}
	count := binary.LittleEndian.Uint32(b[:4])
	off := 4
	items := make([]Value, count)
	for i := range items {
		v, n, err := Deserialize(b[off:], *t.Elem)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "list element %d", i)
		}
		items[i] = v
		off += n
	}
	return ListValue{ElemType: *t.Elem, MaxLen: t.Length, Items: items}, off, nil
}

func deserializeTuple(b []byte, t Type) (Value, int, error) {
	vals := make(map[string]Value, len(t.Fields))
	off := 0
	for _, f := range t.Fields {
		v, n, err := Deserialize(b[off:], f.Type)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "tuple field %q", f.Name)
		}
		vals[f.Name] = v
		off += n
	}
	return TupleValue{Def: t, Values: vals}, off, nil
}

func deserializeOptional(b []byte, t Type) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: deserialize optional: short buffer")
	}
	tag := binary.LittleEndian.Uint32(b[:4])
	if tag == 0 {
		return OptionalValue{Def: t}, 4, nil
	}
	inner, n, err := Deserialize(b[4:], *t.Some)
	if err != nil {
		return nil, 0, errors.Wrap(err, "optional payload")
	}
	return OptionalValue{Def: t, Some: inner}, 4 + n, nil
}

func deserializeResponse(b []byte, t Type) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: deserialize response: short buffer")
	}
	tag := binary.LittleEndian.Uint32(b[:4])
	armType := t.Err
	if tag != 0 {
		armType = t.Ok
	}
	inner, n, err := Deserialize(b[4:], *armType)
	if err != nil {
		return nil, 0, errors.Wrap(err, "response payload")
	}
	return ResponseValue{Def: t, Ok: tag != 0, Payload: inner}, 4 + n, nil
}
