// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package errormapping

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

type fakeMemory struct {
	data []byte
}

func (m fakeMemory) Read(offset, length uint32) ([]byte, error) {
	if int(offset+length) > len(m.data) {
		return nil, errors.New("out of range")
	}
	return m.data[offset : offset+length], nil
}

func TestResolveArithmeticOverflow(t *testing.T) {
	cause := errors.New("wasm: unreachable")
	globals := TrapGlobals{Code: int32(CodeArithmeticOverflow)}
	re := Resolve(cause, globals, fakeMemory{}, nil)

	if re.Code != CodeArithmeticOverflow {
		t.Fatalf("Code = %v, want %v", re.Code, CodeArithmeticOverflow)
	}
	if !errors.Is(re, cause) && re.Unwrap() != cause {
		t.Fatalf("Cause not preserved")
	}
}

func TestResolveCarriesTypedValue(t *testing.T) {
	intType := claritype.Int()
	typeDesc := []byte("int") // stand-in encoding; decodeType below interprets it

	val := claritype.IntValue{Bits: claritype.Int128{Lo: 42}}
	valueBytes, err := claritype.Serialize(val)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	mem := fakeMemory{data: append(append([]byte{}, typeDesc...), valueBytes...)}

	globals := TrapGlobals{
		Code:          int32(CodeAssertionFailure),
		TypeSerOffset: 0,
		TypeSerLen:    uint32(len(typeDesc)),
		ValueOffset:   uint32(len(typeDesc)),
	}

	decodeType := func(b []byte) (claritype.Type, error) {
		if string(b) == "int" {
			return intType, nil
		}
		return claritype.Type{}, errors.New("unknown type descriptor")
	}

	re := Resolve(errors.New("trap"), globals, mem, decodeType)
	if re.Value == nil {
		t.Fatalf("expected carried value, got nil")
	}
	iv, ok := re.Value.(claritype.IntValue)
	if !ok || iv.Bits.Lo != 42 {
		t.Fatalf("carried value = %#v, want IntValue{42}", re.Value)
	}
}

func TestResolveCarriesArgBytes(t *testing.T) {
	arg := make([]byte, 8)
	binary.LittleEndian.PutUint32(arg[0:4], 2)
	binary.LittleEndian.PutUint32(arg[4:8], 3)
	mem := fakeMemory{data: arg}

	globals := TrapGlobals{Code: int32(CodeArgumentCountMismatch), ArgOffset: 0, ArgLen: 8}
	re := Resolve(errors.New("trap"), globals, mem, nil)
	if len(re.Arg) != 8 {
		t.Fatalf("Arg = %x, want 8 bytes", re.Arg)
	}
}

func TestAsRuntimeError(t *testing.T) {
	re := &RuntimeError{Code: CodeDivisionByZero, Cause: errors.New("trap")}
	wrapped := errors.New("host call failed")
	_ = wrapped

	got, ok := AsRuntimeError(re)
	if !ok || got.Code != CodeDivisionByZero {
		t.Fatalf("AsRuntimeError(re) = %v, %v", got, ok)
	}

	if _, ok := AsRuntimeError(errors.New("plain")); ok {
		t.Fatalf("AsRuntimeError(plain error) = true, want false")
	}
}
