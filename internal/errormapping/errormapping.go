// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package errormapping translates a Wasm unreachable trap into a typed
// Language runtime error, by reading the globals the stdlib module
// (internal/stdlib) sets immediately before trapping and reconstructing
// any carried value with claritype's canonical deserializer.
package errormapping

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// Code is the closed error code set trap resolution maps onto.
type Code int32

const (
	CodeNonLanguage              Code = -1
	CodeArithmeticOverflow       Code = 0
	CodeArithmeticUnderflow      Code = 1
	CodeDivisionByZero           Code = 2
	CodeLog2NonPositive          Code = 3
	CodeSqrtiNegative            Code = 4
	CodeBadTypeConstruction      Code = 5
	CodeDeliberatePanic          Code = 6
	CodeAssertionFailure         Code = 7
	CodePowOutOfRangeExponent    Code = 8
	CodeNameAlreadyUsed          Code = 9
	CodeShortReturnResponse      Code = 10
	CodeShortReturnOptional      Code = 11
	CodeShortReturnBare          Code = 12
	CodeArgumentCountMismatch    Code = 13
	CodeUnmapped                 Code = 99
)

var codeNames = map[Code]string{
	CodeNonLanguage:           "non-language error",
	CodeArithmeticOverflow:    "arithmetic overflow",
	CodeArithmeticUnderflow:   "arithmetic underflow",
	CodeDivisionByZero:        "division by zero",
	CodeLog2NonPositive:       "log2 of non-positive value",
	CodeSqrtiNegative:         "sqrti of negative value",
	CodeBadTypeConstruction:   "bad type construction",
	CodeDeliberatePanic:       "deliberate panic",
	CodeAssertionFailure:      "assertion failure",
	CodePowOutOfRangeExponent: "pow with out-of-range exponent",
	CodeNameAlreadyUsed:       "name already used",
	CodeShortReturnResponse:   "short-return expected value (response)",
	CodeShortReturnOptional:   "short-return expected value (optional)",
	CodeShortReturnBare:       "short-return expected value",
	CodeArgumentCountMismatch: "argument count mismatch",
	CodeUnmapped:              "unmapped runtime error",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("errormapping.Code(%d)", int32(c))
}

// RuntimeError is the structured error surfaced to callers of a compiled
// module, reconstructed from the globals the stdlib sets before trapping.
type RuntimeError struct {
	Code Code

	// Value is the carried payload, when the trapping code wrote one (a
	// trap site whose value is in-memory-typed writes none, and Value
	// stays nil). Its type
	// is reconstructed from the serialized type descriptor the stdlib
	// wrote alongside it.
	Value claritype.Value

	// Arg carries the extra bytes some codes attach: the offending
	// identifier for CodeNameAlreadyUsed, or the expected/got pair for
	// CodeArgumentCountMismatch.
	Arg []byte

	// Cause is the underlying host/runtime trap, always set. For
	// CodeNonLanguage it is the only information available.
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Value)
	}
	if len(e.Arg) > 0 {
		return fmt.Sprintf("%s: %x", e.Code, e.Arg)
	}
	return e.Code.String()
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// TrapGlobals is the set of global values the stdlib writes immediately
// before an unreachable trap, exactly as named in the globals
// `runtime-error-code`, `runtime-error-value-offset`,
// `runtime-error-type-ser-offset/len`, `runtime-error-arg-offset/len`.
type TrapGlobals struct {
	Code             int32
	ValueOffset      uint32
	TypeSerOffset    uint32
	TypeSerLen       uint32
	ArgOffset        uint32
	ArgLen           uint32
}

// MemoryReader is the minimal view of linear memory error resolution
// needs: reading a byte range to deserialize the carried type descriptor,
// the carried value, and any carried argument bytes.
type MemoryReader interface {
	Read(offset, length uint32) ([]byte, error)
}

// TypeDescriptorDecoder decodes the bytes of a serialized type descriptor
// (written by the generator into the literal pool for every statically
// reachable trap site) back into a claritype.Type.
type TypeDescriptorDecoder func([]byte) (claritype.Type, error)

// Resolve reconstructs a RuntimeError from an unreachable trap: cause is
// the Wasm runtime's own trap error (kept as Cause), and globals is
// the snapshot of the trap-carrying globals read immediately after the
// trap.
//
// Per spec: "Any downcastable 'already typed' error attached to the trap
// takes precedence; otherwise the trap itself is surfaced as a runtime
// error." Callers should check for an existing *RuntimeError in the trap
// error chain (e.g. a host call that itself failed with one) before
// calling Resolve.
func Resolve(cause error, globals TrapGlobals, mem MemoryReader, decodeType TypeDescriptorDecoder) *RuntimeError {
	re := &RuntimeError{Code: Code(globals.Code), Cause: cause}

	if globals.TypeSerLen > 0 {
		typeBytes, err := mem.Read(globals.TypeSerOffset, globals.TypeSerLen)
		if err == nil {
			if ty, err := decodeType(typeBytes); err == nil {
				if valueBytes, err := mem.Read(globals.ValueOffset, ty.FlatWordSize()+payloadBound(ty)); err == nil {
					if v, _, err := claritype.Deserialize(valueBytes, ty); err == nil {
						re.Value = v
					}
				}
			}
		}
	}

	if globals.ArgLen > 0 {
		if argBytes, err := mem.Read(globals.ArgOffset, globals.ArgLen); err == nil {
			re.Arg = argBytes
		}
	}

	return re
}

// payloadBound over-estimates the bytes Deserialize might need to read
// past a type's flat word region, for in-memory types whose payload
// trails the reference cell contiguously in the trap-carrying region.
func payloadBound(t claritype.Type) uint32 {
	if n, ok := t.PayloadSize(); ok {
		return n
	}
	return 0
}

// AsRuntimeError reports whether err (or something in its chain) is
// already a *RuntimeError, for callers implementing the "already typed
// error takes precedence" policy.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
