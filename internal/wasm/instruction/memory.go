// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package instruction

import "github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"

// I32Load reads a 4-byte little-endian value at (top-of-stack address +
// Offset). Align is the expected alignment hint (2 = 4-byte aligned),
// purely advisory per the Wasm spec.
type I32Load struct {
	Offset uint32
	Align  uint32
}

func (I32Load) Op() opcode.Opcode { return opcode.I32Load }
func (i I32Load) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// I64Load reads an 8-byte little-endian value.
type I64Load struct {
	Offset uint32
	Align  uint32
}

func (I64Load) Op() opcode.Opcode { return opcode.I64Load }
func (i I64Load) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// I32Load8U reads a single byte, zero-extended to i32. Used for reading
// variant tags and ASCII/UTF-8 code units.
type I32Load8U struct {
	Offset uint32
	Align  uint32
}

func (I32Load8U) Op() opcode.Opcode { return opcode.I32Load8U }
func (i I32Load8U) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// I32Store writes a 4-byte little-endian value at (address + Offset).
type I32Store struct {
	Offset uint32
	Align  uint32
}

func (I32Store) Op() opcode.Opcode { return opcode.I32Store }
func (i I32Store) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// I64Store writes an 8-byte little-endian value.
type I64Store struct {
	Offset uint32
	Align  uint32
}

func (I64Store) Op() opcode.Opcode { return opcode.I64Store }
func (i I64Store) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// I32Store8 writes the low byte of an i32.
type I32Store8 struct {
	Offset uint32
	Align  uint32
}

func (I32Store8) Op() opcode.Opcode { return opcode.I32Store8 }
func (i I32Store8) ImmediateArgs() []interface{} {
	return []interface{}{i.Align, i.Offset}
}

// MemorySize pushes the current memory size in 64KiB pages.
type MemorySize struct{ NoImmediateArgs }

func (MemorySize) Op() opcode.Opcode { return opcode.MemorySize }

// MemoryGrow grows memory by the popped page count, pushing the previous
// size or -1 on failure. Neither generated code nor the stdlib emits it
// (the embedder sizes memory up front per spec §4.3's "embedder caps
// memory pages").
type MemoryGrow struct{ NoImmediateArgs }

func (MemoryGrow) Op() opcode.Opcode { return opcode.MemoryGrow }
