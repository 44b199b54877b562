// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Consensus type prefixes, one byte per value, as used by
// `to-consensus-buff?`/`from-consensus-buff?`. Unlike Serialize's
// untagged little-endian image (§4.1, used for the literal pool and
// hashing), this format is self-describing: every value, including
// every nested one, carries its own prefix, and integers are big-endian
// two's-complement. The two formats are deliberately different wire
// encodings of the same values and neither is derived from the other.
const (
	consensusInt byte = iota
	consensusUInt
	consensusBuffer
	consensusBoolTrue
	consensusBoolFalse
	consensusPrincipalStandard
	consensusPrincipalContract
	consensusResponseOk
	consensusResponseErr
	consensusOptionalNone
	consensusOptionalSome
	consensusList
	consensusTuple
	consensusStringAscii
	consensusStringUtf8
)

// ConsensusSerialize produces v's self-describing consensus buffer image,
// the byte form `to-consensus-buff?` returns and `from-consensus-buff?`
// parses back. Every value is prefixed with a one-byte type tag
// (including every nested value), so — unlike Serialize — the bytes
// alone are enough to reconstruct v with no external Type.
func ConsensusSerialize(v Value) ([]byte, error) {
	switch val := v.(type) {
	case IntValue:
		return append([]byte{consensusInt}, consensusInt128(val.Bits)...), nil
	case UIntValue:
		return append([]byte{consensusUInt}, consensusInt128(val.Bits)...), nil
	case BoolValue:
		if val {
			return []byte{consensusBoolTrue}, nil
		}
		return []byte{consensusBoolFalse}, nil
	case PrincipalValue:
		return consensusPrincipal(val), nil
	case BufferValue:
		out := []byte{consensusBuffer}
		out = consensusAppendLen(out, uint32(len(val.Bytes)))
		return append(out, val.Bytes...), nil
	case StringAsciiValue:
		out := []byte{consensusStringAscii}
		out = consensusAppendLen(out, uint32(len(val.Value)))
		return append(out, []byte(val.Value)...), nil
	case StringUtf8Value:
		raw := consensusUtf8Bytes(val.CodePoints)
		out := []byte{consensusStringUtf8}
		out = consensusAppendLen(out, uint32(len(raw)))
		return append(out, raw...), nil
	case ListValue:
		return consensusSerializeList(val)
	case TupleValue:
		return consensusSerializeTuple(val)
	case OptionalValue:
		return consensusSerializeOptional(val)
	case ResponseValue:
		return consensusSerializeResponse(val)
	default:
		return nil, fmt.Errorf("claritype: consensus serialize: unsupported value %T", v)
	}
}

func consensusInt128(b Int128) []byte {
	out := make([]byte, 16)
	binary.BigEndian.PutUint64(out[0:8], b.Hi)
	binary.BigEndian.PutUint64(out[8:16], b.Lo)
	return out
}

func consensusAppendLen(out []byte, n uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return append(out, buf[:]...)
}

func consensusUtf8Bytes(points []rune) []byte {
	out := make([]byte, 0, len(points)*utf8.UTFMax)
	var tmp [utf8.UTFMax]byte
	for _, r := range points {
		n := utf8.EncodeRune(tmp[:], r)
		out = append(out, tmp[:n]...)
	}
	return out
}

func consensusPrincipal(p PrincipalValue) []byte {
	if p.Contract == "" {
		out := []byte{consensusPrincipalStandard, p.Version}
		return append(out, p.Hash[:]...)
	}
	out := []byte{consensusPrincipalContract, p.Version}
	out = append(out, p.Hash[:]...)
	out = append(out, byte(len(p.Contract)))
	return append(out, []byte(p.Contract)...)
}

func consensusSerializeList(v ListValue) ([]byte, error) {
	out := []byte{consensusList}
	out = consensusAppendLen(out, uint32(len(v.Items)))
	for i, item := range v.Items {
		b, err := ConsensusSerialize(item)
		if err != nil {
			return nil, errors.Wrapf(err, "list element %d", i)
		}
		out = append(out, b...)
	}
	return out, nil
}

// consensusSerializeTuple iterates v.Def.Fields, which Tuple() always
// keeps in ascending name order, so the wire image's field order matches
// the real chain's canonical tuple ordering with no extra sort here.
func consensusSerializeTuple(v TupleValue) ([]byte, error) {
	out := []byte{consensusTuple}
	out = consensusAppendLen(out, uint32(len(v.Def.Fields)))
	for _, f := range v.Def.Fields {
		fv, ok := v.Values[f.Name]
		if !ok {
			return nil, fmt.Errorf("claritype: consensus serialize: tuple missing field %q", f.Name)
		}
		out = append(out, byte(len(f.Name)))
		out = append(out, []byte(f.Name)...)
		b, err := ConsensusSerialize(fv)
		if err != nil {
			return nil, errors.Wrapf(err, "tuple field %q", f.Name)
		}
		out = append(out, b...)
	}
	return out, nil
}

func consensusSerializeOptional(v OptionalValue) ([]byte, error) {
	if v.Some == nil {
		return []byte{consensusOptionalNone}, nil
	}
	b, err := ConsensusSerialize(v.Some)
	if err != nil {
		return nil, errors.Wrap(err, "optional payload")
	}
	return append([]byte{consensusOptionalSome}, b...), nil
}

func consensusSerializeResponse(v ResponseValue) ([]byte, error) {
	tag := byte(consensusResponseErr)
	if v.Ok {
		tag = consensusResponseOk
	}
	b, err := ConsensusSerialize(v.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "response payload")
	}
	return append([]byte{tag}, b...), nil
}

// ConsensusMaxSize returns the largest number of bytes ConsensusSerialize
// can produce for any value of type t, so a caller that must reserve
// output space ahead of time (the code generator, sizing a scratch
// buffer before `to-consensus-buff?` runs) can do so statically rather
// than computing the value's real size first.
func ConsensusMaxSize(t Type) uint32 {
	switch t.Kind {
	case KindInt, KindUInt:
		return 1 + 16
	case KindBool, KindNoType:
		return 1
	case KindPrincipal:
		return 1 + PrincipalMaxSize
	case KindBuffer:
		return 1 + 4 + t.Length
	case KindStringAscii:
		return 1 + 4 + t.Length
	case KindStringUtf8:
		return 1 + 4 + t.Length*4
	case KindList:
		return 1 + 4 + t.Length*ConsensusMaxSize(*t.Elem)
	case KindTuple:
		size := uint32(1 + 4)
		for _, f := range t.Fields {
			size += 1 + uint32(len(f.Name)) + ConsensusMaxSize(f.Type)
		}
		return size
	case KindOptional:
		return 1 + ConsensusMaxSize(*t.Some)
	case KindResponse:
		ok, err := ConsensusMaxSize(*t.Ok), ConsensusMaxSize(*t.Err)
		if err > ok {
			ok = err
		}
		return 1 + ok
	default:
		return 0
	}
}

// ConsensusDeserialize is ConsensusSerialize's exact inverse: it needs no
// Type argument, since every value (and every value nested inside it)
// carries its own prefix tag. It reports how many bytes it consumed so
// callers can validate that a buffer contains exactly one value.
func ConsensusDeserialize(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize: empty buffer")
	}
	switch b[0] {
	case consensusInt:
		bits, n, err := consensusDeserializeInt128(b[1:])
		return IntValue{Bits: bits}, 1 + n, err
	case consensusUInt:
		bits, n, err := consensusDeserializeInt128(b[1:])
		return UIntValue{Bits: bits}, 1 + n, err
	case consensusBoolTrue:
		return BoolValue(true), 1, nil
	case consensusBoolFalse:
		return BoolValue(false), 1, nil
	case consensusPrincipalStandard:
		return consensusDeserializeStandardPrincipal(b[1:])
	case consensusPrincipalContract:
		return consensusDeserializeContractPrincipal(b[1:])
	case consensusBuffer:
		return consensusDeserializeBuffer(b[1:])
	case consensusStringAscii:
		return consensusDeserializeStringAscii(b[1:])
	case consensusStringUtf8:
		return consensusDeserializeStringUtf8(b[1:])
	case consensusList:
		return consensusDeserializeList(b[1:])
	case consensusTuple:
		return consensusDeserializeTuple(b[1:])
	case consensusOptionalNone:
		return OptionalValue{Def: Optional(NoType())}, 1, nil
	case consensusOptionalSome:
		inner, n, err := ConsensusDeserialize(b[1:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "optional payload")
		}
		return OptionalValue{Def: Optional(inner.Type()), Some: inner}, 1 + n, nil
	case consensusResponseOk, consensusResponseErr:
		ok := b[0] == consensusResponseOk
		inner, n, err := ConsensusDeserialize(b[1:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "response payload")
		}
		def := Response(inner.Type(), NoType())
		if !ok {
			def = Response(NoType(), inner.Type())
		}
		return ResponseValue{Def: def, Ok: ok, Payload: inner}, 1 + n, nil
	default:
		return nil, 0, fmt.Errorf("claritype: consensus deserialize: unknown tag %d", b[0])
	}
}

func consensusDeserializeInt128(b []byte) (Int128, int, error) {
	if len(b) < 16 {
		return Int128{}, 0, fmt.Errorf("claritype: consensus deserialize int128: short buffer")
	}
	return Int128{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}, 16, nil
}

func consensusDeserializeStandardPrincipal(b []byte) (Value, int, error) {
	if len(b) < 1+PrincipalHashLen {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize principal: short buffer")
	}
	p := PrincipalValue{Version: b[0]}
	copy(p.Hash[:], b[1:1+PrincipalHashLen])
	return p, 1 + PrincipalHashLen, nil
}

func consensusDeserializeContractPrincipal(b []byte) (Value, int, error) {
	if len(b) < 1+PrincipalHashLen+1 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize principal: short buffer")
	}
	p := PrincipalValue{Version: b[0]}
	copy(p.Hash[:], b[1:1+PrincipalHashLen])
	nameLen := int(b[1+PrincipalHashLen])
	n := 1 + PrincipalHashLen + 1 + nameLen
	if len(b) < n {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize principal: short buffer")
	}
	p.Contract = string(b[1+PrincipalHashLen+1 : n])
	return p, n, nil
}

func consensusDeserializeBuffer(b []byte) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize buffer: short length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint32(len(b)-4) < n {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize buffer: short payload")
	}
	bytes := append([]byte{}, b[4:4+n]...)
	return BufferValue{Cap: n, Bytes: bytes}, 4 + int(n), nil
}

func consensusDeserializeStringAscii(b []byte) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize string-ascii: short length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint32(len(b)-4) < n {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize string-ascii: short payload")
	}
	s := string(b[4 : 4+n])
	return StringAsciiValue{Cap: n, Value: s}, 4 + int(n), nil
}

func consensusDeserializeStringUtf8(b []byte) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize string-utf8: short length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint32(len(b)-4) < n {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize string-utf8: short payload")
	}
	raw := b[4 : 4+n]
	points := make([]rune, 0, n)
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		points = append(points, r)
		raw = raw[size:]
	}
	return StringUtf8Value{Cap: uint32(len(points)), CodePoints: points}, 4 + int(n), nil
}

func consensusDeserializeList(b []byte) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize list: short length")
	}
	count := binary.BigEndian.Uint32(b[:4])
	off := 4
	items := make([]Value, count)
	elem := NoType()
	for i := range items {
		v, n, err := ConsensusDeserialize(b[off:])
		if err != nil {
			return nil, 0, errors.Wrapf(err, "list element %d", i)
		}
		items[i] = v
		off += n
		if i == 0 {
			elem = v.Type()
		}
	}
	return ListValue{ElemType: elem, MaxLen: count, Items: items}, off, nil
}

func consensusDeserializeTuple(b []byte) (Value, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("claritype: consensus deserialize tuple: short length")
	}
	count := binary.BigEndian.Uint32(b[:4])
	off := 4
	fields := make([]TupleField, count)
	values := make(map[string]Value, count)
	for i := range fields {
		if off >= len(b) {
			return nil, 0, fmt.Errorf("claritype: consensus deserialize tuple: short field")
		}
		nameLen := int(b[off])
		off++
		if off+nameLen > len(b) {
			return nil, 0, fmt.Errorf("claritype: consensus deserialize tuple: short field name")
		}
		name := string(b[off : off+nameLen])
		off += nameLen
		v, n, err := ConsensusDeserialize(b[off:])
		if err != nil {
			return nil, 0, errors.Wrapf(err, "tuple field %q", name)
		}
		fields[i] = TupleField{Name: name, Type: v.Type()}
		values[name] = v
		off += n
	}
	def := Type{Kind: KindTuple, Fields: fields}
	return TupleValue{Def: def, Values: values}, off, nil
}
