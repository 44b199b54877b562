// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero/api"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// arena is a simple bump allocator over a guest module's linear memory,
// used by the bridge to place host-produced bytes (principal results,
// hash digests, encoded arguments) somewhere the contract's own
// generated code never claims. internal/stackalloc's $stack-pointer
// global governs everything the contract allocates for itself and is
// reset on every function return, so the bridge cannot share it without
// risking a later call clobbering a value the host still needs; instead
// the bridge grows linear memory past whatever high-water mark the
// contract has used and bump-allocates there, mirroring the pattern
// open-policy-agent-opa/internal/wasm/sdk/internal/wazero/env.go uses to
// write into guest memory without a guest-exported allocator function.
type arena struct {
	mem api.Memory
	hwm uint32
}

func newArena(mem api.Memory, base uint32) *arena {
	return &arena{mem: mem, hwm: base}
}

// alloc reserves size bytes, growing memory in whole pages if needed,
// and returns the base offset of the reservation.
func (a *arena) alloc(size uint32) (uint32, error) {
	offset := a.hwm
	needed := offset + size
	const pageSize = 65536
	if currentBytes := a.mem.Size(); needed > currentBytes {
		extraBytes := needed - currentBytes
		extraPages := extraBytes / pageSize
		if extraBytes%pageSize != 0 {
			extraPages++
		}
		if _, ok := a.mem.Grow(extraPages); !ok {
			return 0, errors.Errorf("wazerohost: failed to grow guest memory by %d pages", extraPages)
		}
	}
	a.hwm = needed
	return offset, nil
}

func (a *arena) writeBytes(b []byte) (uint32, error) {
	offset, err := a.alloc(uint32(len(b)))
	if err != nil {
		return 0, err
	}
	if len(b) > 0 && !a.mem.Write(offset, b) {
		return 0, errors.New("wazerohost: memory write out of range")
	}
	return offset, nil
}

func readBytes(mem api.Memory, offset, length uint32) ([]byte, error) {
	b, ok := mem.Read(offset, length)
	if !ok {
		return nil, errors.Errorf("wazerohost: memory read out of range at %d, length %d", offset, length)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// encodeValue lowers v (of type t) into its flat Wasm stack slots,
// writing any in-memory payload into mem via arena a. It mirrors
// internal/marshal's instruction-emitting Write, but runs host-side
// against already-instantiated guest memory instead of emitting Wasm
// instructions for the guest to execute.
func encodeValue(a *arena, t claritype.Type, v claritype.Value) ([]uint64, error) {
	switch t.Kind {
	case claritype.KindInt:
		iv, ok := v.(claritype.IntValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected IntValue, got %T", v)
		}
		return []uint64{iv.Bits.Lo, iv.Bits.Hi}, nil
	case claritype.KindUInt:
		uv, ok := v.(claritype.UIntValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected UIntValue, got %T", v)
		}
		return []uint64{uv.Bits.Lo, uv.Bits.Hi}, nil
	case claritype.KindBool:
		bv, ok := v.(claritype.BoolValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected BoolValue, got %T", v)
		}
		if bv {
			return []uint64{1}, nil
		}
		return []uint64{0}, nil
	case claritype.KindNoType:
		return []uint64{0}, nil
	case claritype.KindBuffer:
		bv, ok := v.(claritype.BufferValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected BufferValue, got %T", v)
		}
		offset, err := a.writeBytes(bv.Bytes)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(offset), uint64(len(bv.Bytes))}, nil
	case claritype.KindStringAscii:
		sv, ok := v.(claritype.StringAsciiValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected StringAsciiValue, got %T", v)
		}
		offset, err := a.writeBytes([]byte(sv.Value))
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(offset), uint64(len(sv.Value))}, nil
	case claritype.KindStringUtf8:
		sv, ok := v.(claritype.StringUtf8Value)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected StringUtf8Value, got %T", v)
		}
		buf := make([]byte, len(sv.CodePoints)*4)
		for i, r := range sv.CodePoints {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(r))
		}
		offset, err := a.writeBytes(buf)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(offset), uint64(len(buf))}, nil
	case claritype.KindPrincipal:
		pv, ok := v.(claritype.PrincipalValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected PrincipalValue, got %T", v)
		}
		buf, err := claritype.Serialize(pv)
		if err != nil {
			return nil, err
		}
		offset, err := a.writeBytes(buf)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(offset), uint64(len(buf))}, nil
	case claritype.KindList:
		lv, ok := v.(claritype.ListValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected ListValue, got %T", v)
		}
		elemWidth := t.Elem.FlatWordSize()
		region := make([]byte, 0, uint32(len(lv.Items))*elemWidth)
		elemSlotTypes := t.Elem.Slots()
		for _, item := range lv.Items {
			slots, err := encodeValue(a, *t.Elem, item)
			if err != nil {
				return nil, err
			}
			region = appendSlots(region, elemSlotTypes, slots)
		}
		offset, err := a.writeBytes(region)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(offset), uint64(len(lv.Items))}, nil
	case claritype.KindOptional:
		ov, ok := v.(claritype.OptionalValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected OptionalValue, got %T", v)
		}
		if ov.Some == nil {
			out := []uint64{0}
			return append(out, zeroSlots(t.Some.Slots())...), nil
		}
		inner, err := encodeValue(a, *t.Some, ov.Some)
		if err != nil {
			return nil, err
		}
		return append([]uint64{1}, inner...), nil
	case claritype.KindResponse:
		rv, ok := v.(claritype.ResponseValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected ResponseValue, got %T", v)
		}
		variant := uint64(0)
		if rv.Ok {
			variant = 1
		}
		var okSlots, errSlots []uint64
		if rv.Ok {
			s, err := encodeValue(a, *t.Ok, rv.Payload)
			if err != nil {
				return nil, err
			}
			okSlots = s
			errSlots = zeroSlots(t.Err.Slots())
		} else {
			s, err := encodeValue(a, *t.Err, rv.Payload)
			if err != nil {
				return nil, err
			}
			errSlots = s
			okSlots = zeroSlots(t.Ok.Slots())
		}
		out := []uint64{variant}
		out = append(out, okSlots...)
		out = append(out, errSlots...)
		return out, nil
	case claritype.KindTuple:
		tv, ok := v.(claritype.TupleValue)
		if !ok {
			return nil, errors.Errorf("wazerohost: expected TupleValue, got %T", v)
		}
		var out []uint64
		for _, f := range t.Fields {
			slots, err := encodeValue(a, f.Type, tv.Values[f.Name])
			if err != nil {
				return nil, err
			}
			out = append(out, slots...)
		}
		return out, nil
	default:
		return nil, errors.Errorf("wazerohost: unsupported type kind %v", t.Kind)
	}
}

func zeroSlots(vts []types.ValueType) []uint64 {
	return make([]uint64, len(vts))
}

// appendSlots writes the values in slots, typed by vts, as raw
// little-endian bytes into region at its current end — the host-side
// mirror of internal/marshal.Write's per-slot store instructions, used
// when laying out a List's fixed-width element array.
func appendSlots(region []byte, vts []types.ValueType, slots []uint64) []byte {
	for i, vt := range vts {
		switch vt {
		case types.I32:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(slots[i]))
			region = append(region, b[:]...)
		case types.I64:
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], slots[i])
			region = append(region, b[:]...)
		default:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(slots[i]))
			region = append(region, b[:]...)
		}
	}
	return region
}

// decodeValue is encodeValue's inverse, reading a value of type t back
// out of the flat stack slots (and, for in-memory types, mem). It is the
// entry point; decodeSlots does the recursive work so composite types
// (Tuple, Optional, Response, List) can consume a variable number of
// slots from one shared, flat result/argument list.
func decodeValue(mem api.Memory, t claritype.Type, slots []uint64) (claritype.Value, error) {
	v, n, err := decodeSlots(mem, t, slots)
	if err != nil {
		return nil, err
	}
	if n != len(slots) {
		return nil, errors.Errorf("wazerohost: decoding %v consumed %d of %d slots", t.Kind, n, len(slots))
	}
	return v, nil
}

func decodeSlots(mem api.Memory, t claritype.Type, slots []uint64) (claritype.Value, int, error) {
	switch t.Kind {
	case claritype.KindInt:
		return claritype.IntValue{Bits: claritype.Int128{Lo: slots[0], Hi: slots[1]}}, 2, nil
	case claritype.KindUInt:
		return claritype.UIntValue{Bits: claritype.Int128{Lo: slots[0], Hi: slots[1]}}, 2, nil
	case claritype.KindBool:
		return claritype.BoolValue(slots[0] != 0), 1, nil
	case claritype.KindNoType:
		return claritype.NoTypeValue{}, 1, nil
	case claritype.KindBuffer:
		b, err := readBytes(mem, uint32(slots[0]), uint32(slots[1]))
		if err != nil {
			return nil, 0, err
		}
		return claritype.BufferValue{Cap: t.Length, Bytes: b}, 2, nil
	case claritype.KindStringAscii:
		b, err := readBytes(mem, uint32(slots[0]), uint32(slots[1]))
		if err != nil {
			return nil, 0, err
		}
		return claritype.StringAsciiValue{Cap: t.Length, Value: string(b)}, 2, nil
	case claritype.KindStringUtf8:
		b, err := readBytes(mem, uint32(slots[0]), uint32(slots[1]))
		if err != nil {
			return nil, 0, err
		}
		cps := make([]rune, 0, len(b)/4)
		for i := 0; i+4 <= len(b); i += 4 {
			cps = append(cps, rune(binary.LittleEndian.Uint32(b[i:])))
		}
		return claritype.StringUtf8Value{Cap: t.Length, CodePoints: cps}, 2, nil
	case claritype.KindPrincipal:
		b, err := readBytes(mem, uint32(slots[0]), uint32(slots[1]))
		if err != nil {
			return nil, 0, err
		}
		v, _, err := claritype.Deserialize(b, t)
		if err != nil {
			return nil, 0, err
		}
		return v, 2, nil
	case claritype.KindList:
		// See compileFilter's doc comment: a List's runtime
		// representation is a fixed-width marshal-layout array, not
		// canonical Serialize bytes, so this reads raw per-element
		// slots at t.Elem.FlatWordSize() stride rather than calling
		// claritype.Deserialize.
		offset, count := uint32(slots[0]), uint32(slots[1])
		elemWidth := t.Elem.FlatWordSize()
		region, err := readBytes(mem, offset, count*elemWidth)
		if err != nil {
			return nil, 0, err
		}
		elemSlotTypes := t.Elem.Slots()
		items := make([]claritype.Value, 0, count)
		for i := uint32(0); i < count; i++ {
			elemSlots := readSlotWords(region[i*elemWidth:(i+1)*elemWidth], elemSlotTypes)
			item, _, err := decodeSlots(mem, *t.Elem, elemSlots)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
		}
		return claritype.ListValue{ElemType: *t.Elem, MaxLen: t.Length, Items: items}, 2, nil
	case claritype.KindOptional:
		if slots[0] == 0 {
			n := 1 + len(t.Some.Slots())
			return claritype.OptionalValue{Def: t, Some: nil}, n, nil
		}
		inner, n, err := decodeSlots(mem, *t.Some, slots[1:])
		if err != nil {
			return nil, 0, err
		}
		return claritype.OptionalValue{Def: t, Some: inner}, 1 + n, nil
	case claritype.KindResponse:
		okSlotCount := len(t.Ok.Slots())
		ok := slots[0] != 0
		var payload claritype.Value
		var err error
		if ok {
			payload, _, err = decodeSlots(mem, *t.Ok, slots[1:1+okSlotCount])
		} else {
			payload, _, err = decodeSlots(mem, *t.Err, slots[1+okSlotCount:])
		}
		if err != nil {
			return nil, 0, err
		}
		return claritype.ResponseValue{Def: t, Ok: ok, Payload: payload}, len(t.Slots()), nil
	case claritype.KindTuple:
		values := make(map[string]claritype.Value, len(t.Fields))
		pos := 0
		for _, f := range t.Fields {
			n := len(f.Type.Slots())
			v, _, err := decodeSlots(mem, f.Type, slots[pos:pos+n])
			if err != nil {
				return nil, 0, err
			}
			values[f.Name] = v
			pos += n
		}
		return claritype.TupleValue{Def: t, Values: values}, pos, nil
	default:
		return nil, 0, errors.Errorf("wazerohost: unsupported result type kind %v", t.Kind)
	}
}

// decodeValueAt reads a value of type t out of guest memory at addr,
// where the generator wrote it with internal/marshal.Write's fixed-width
// slot layout (see trap.go and call.go's compileToConsensusBuff): it reads
// exactly t.FlatWordSize() bytes, splits them back into slot words with
// readSlotWords, and hands them to decodeValue the same way a function
// call's direct result words are.
func decodeValueAt(mem api.Memory, addr uint32, t claritype.Type) (claritype.Value, error) {
	region, err := readBytes(mem, addr, t.FlatWordSize())
	if err != nil {
		return nil, err
	}
	slots := readSlotWords(region, t.Slots())
	return decodeValue(mem, t, slots)
}

// readSlotWords is decodeSlots' counterpart to appendSlots: it reads a
// fixed-width marshal-layout record's bytes back into flat stack words.
func readSlotWords(region []byte, vts []types.ValueType) []uint64 {
	out := make([]uint64, len(vts))
	pos := 0
	for i, vt := range vts {
		switch vt {
		case types.I64, types.F64:
			out[i] = binary.LittleEndian.Uint64(region[pos:])
			pos += 8
		default:
			out[i] = uint64(binary.LittleEndian.Uint32(region[pos:]))
			pos += 4
		}
	}
	return out
}
