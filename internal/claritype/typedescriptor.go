// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package claritype

import (
	"encoding/binary"
	"fmt"
)

// Type descriptor tags. These are an internal wire format for carrying a
// Type alongside a trapped value (see internal/errormapping and
// internal/codegen's trap-site emission) — not part of the consensus
// canonical value serialization in serialize.go, and free to change
// without any compatibility concern beyond this module.
const (
	tdInt byte = iota
	tdUInt
	tdBool
	tdPrincipal
	tdBuffer
	tdStringAscii
	tdStringUtf8
	tdList
	tdTuple
	tdOptional
	tdResponse
	tdNoType
)

// EncodeTypeDescriptor serializes t's shape (not a value of t) so that a
// runtime trap handler can reconstruct t well enough to deserialize the
// value carried alongside it. The code generator interns the result of
// this call, once per distinct statically-reachable trap site, into the
// literal pool.
func EncodeTypeDescriptor(t Type) []byte {
	switch t.Kind {
	case KindInt:
		return []byte{tdInt}
	case KindUInt:
		return []byte{tdUInt}
	case KindBool:
		return []byte{tdBool}
	case KindPrincipal:
		return []byte{tdPrincipal}
	case KindBuffer:
		return encodeLenTagged(tdBuffer, t.Length)
	case KindStringAscii:
		return encodeLenTagged(tdStringAscii, t.Length)
	case KindStringUtf8:
		return encodeLenTagged(tdStringUtf8, t.Length)
	case KindList:
		out := encodeLenTagged(tdList, t.Length)
		return append(out, EncodeTypeDescriptor(*t.Elem)...)
	case KindTuple:
		out := []byte{tdTuple}
		var count [4]byte
		binary.LittleEndian.PutUint32(count[:], uint32(len(t.Fields)))
		out = append(out, count[:]...)
		for _, f := range t.Fields {
			out = append(out, byte(len(f.Name)))
			out = append(out, []byte(f.Name)...)
			out = append(out, EncodeTypeDescriptor(f.Type)...)
		}
		return out
	case KindOptional:
		out := []byte{tdOptional}
		return append(out, EncodeTypeDescriptor(*t.Some)...)
	case KindResponse:
		out := []byte{tdResponse}
		out = append(out, EncodeTypeDescriptor(*t.Ok)...)
		out = append(out, EncodeTypeDescriptor(*t.Err)...)
		return out
	case KindNoType:
		return []byte{tdNoType}
	default:
		return []byte{tdNoType}
	}
}

func encodeLenTagged(tag byte, n uint32) []byte {
	out := make([]byte, 5)
	out[0] = tag
	binary.LittleEndian.PutUint32(out[1:], n)
	return out
}

// DecodeTypeDescriptor is EncodeTypeDescriptor's inverse.
func DecodeTypeDescriptor(b []byte) (Type, error) {
	t, _, err := decodeTypeDescriptor(b)
	return t, err
}

func decodeTypeDescriptor(b []byte) (Type, int, error) {
	if len(b) == 0 {
		return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: empty buffer")
	}
	switch b[0] {
	case tdInt:
		return Int(), 1, nil
	case tdUInt:
		return UInt(), 1, nil
	case tdBool:
		return Bool(), 1, nil
	case tdPrincipal:
		return Principal(), 1, nil
	case tdNoType:
		return NoType(), 1, nil
	case tdBuffer, tdStringAscii, tdStringUtf8:
		if len(b) < 5 {
			return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: short length-tagged buffer")
		}
		n := binary.LittleEndian.Uint32(b[1:5])
		switch b[0] {
		case tdBuffer:
			return Buffer(n), 5, nil
		case tdStringAscii:
			return StringAscii(n), 5, nil
		default:
			return StringUtf8(n), 5, nil
		}
	case tdList:
		if len(b) < 5 {
			return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: short list header")
		}
		n := binary.LittleEndian.Uint32(b[1:5])
		elem, consumed, err := decodeTypeDescriptor(b[5:])
		if err != nil {
			return Type{}, 0, err
		}
		return List(elem, n), 5 + consumed, nil
	case tdTuple:
		if len(b) < 5 {
			return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: short tuple header")
		}
		count := binary.LittleEndian.Uint32(b[1:5])
		off := 5
		fields := make([]TupleField, count)
		for i := range fields {
			if off >= len(b) {
				return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: short tuple field")
			}
			nameLen := int(b[off])
			off++
			if off+nameLen > len(b) {
				return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: short tuple field name")
			}
			name := string(b[off : off+nameLen])
			off += nameLen
			ft, consumed, err := decodeTypeDescriptor(b[off:])
			if err != nil {
				return Type{}, 0, err
			}
			fields[i] = TupleField{Name: name, Type: ft}
			off += consumed
		}
		return Type{Kind: KindTuple, Fields: fields}, off, nil
	case tdOptional:
		some, consumed, err := decodeTypeDescriptor(b[1:])
		if err != nil {
			return Type{}, 0, err
		}
		return Optional(some), 1 + consumed, nil
	case tdResponse:
		ok, n1, err := decodeTypeDescriptor(b[1:])
		if err != nil {
			return Type{}, 0, err
		}
		errT, n2, err := decodeTypeDescriptor(b[1+n1:])
		if err != nil {
			return Type{}, 0, err
		}
		return Response(ok, errT), 1 + n1 + n2, nil
	default:
		return Type{}, 0, fmt.Errorf("claritype: decode type descriptor: unknown tag %d", b[0])
	}
}
