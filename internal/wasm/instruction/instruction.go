// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package instruction models every WebAssembly instruction the code
// generator and standard library module emit, as a small Go type per
// instruction. The encoding package turns a tree of these into the binary
// format; nothing outside this package and encoding needs to know the
// opcode bytes.
package instruction

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
)

// Instruction is satisfied by every instruction type in this package.
// ImmediateArgs returns the instruction's immediate operands in encoding
// order (e.g. an i32.const's constant, a br_if's label index); the
// encoding package type-switches each value to pick an LEB128 or raw
// encoding, so ImmediateArgs only ever returns int32, int64, float64,
// uint32, or []uint32.
type Instruction interface {
	Op() opcode.Opcode
	ImmediateArgs() []interface{}
}

// NoImmediateArgs is embedded by instructions that carry no operands.
type NoImmediateArgs struct{}

func (NoImmediateArgs) ImmediateArgs() []interface{} { return nil }

// StructuredInstruction is additionally satisfied by block/loop/if, whose
// bodies are nested instruction sequences rather than flat immediates.
type StructuredInstruction interface {
	Instruction
	Body() []Instruction
}
