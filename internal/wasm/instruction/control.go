// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package instruction

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// Unreachable traps immediately. The trap handlers in internal/stdlib and
// internal/errormapping rely on this being the only way generated code
// aborts the module.
type Unreachable struct{ NoImmediateArgs }

func (Unreachable) Op() opcode.Opcode { return opcode.Unreachable }

// Nop is a no-op. The code generator does not emit it (a NoType position
// is filled with an i32.const 0 placeholder instead).
type Nop struct{ NoImmediateArgs }

func (Nop) Op() opcode.Opcode { return opcode.Nop }

// Block is a structured instruction whose body executes once; branching to
// label 0 from inside it jumps to just past its "end".
type Block struct {
	BlockType types.BlockType
	Instrs    []Instruction
}

func (Block) Op() opcode.Opcode             { return opcode.Block }
func (Block) ImmediateArgs() []interface{}  { return nil }
func (b Block) Body() []Instruction         { return b.Instrs }

// Loop is a structured instruction whose body executes once; branching to
// label 0 from inside it jumps back to the loop's start, unlike Block.
type Loop struct {
	BlockType types.BlockType
	Instrs    []Instruction
}

func (Loop) Op() opcode.Opcode            { return opcode.Loop }
func (Loop) ImmediateArgs() []interface{} { return nil }
func (l Loop) Body() []Instruction        { return l.Instrs }

// If pops a condition i32 and runs Then if non-zero, Else otherwise. Both
// arms are required to share BlockType's signature when Else is non-nil;
// the code generator always supplies both for conditionals that produce a
// value (see spec §4.6.2) and omits Else only for purely side-effecting
// conditionals.
type If struct {
	BlockType types.BlockType
	Then      []Instruction
	Else      []Instruction
}

func (If) Op() opcode.Opcode            { return opcode.If }
func (If) ImmediateArgs() []interface{} { return nil }
func (i If) Body() []Instruction        { return i.Then }

// Br branches unconditionally to the label Index levels out from the
// current instruction (0 = innermost enclosing block/loop).
type Br struct {
	Index uint32
}

func (Br) Op() opcode.Opcode                { return opcode.Br }
func (b Br) ImmediateArgs() []interface{}   { return []interface{}{b.Index} }

// BrIf pops a condition i32 and branches to label Index if it is non-zero.
type BrIf struct {
	Index uint32
}

func (BrIf) Op() opcode.Opcode              { return opcode.BrIf }
func (b BrIf) ImmediateArgs() []interface{} { return []interface{}{b.Index} }

// BrTable pops an i32 selector and branches to Targets[selector], or
// Default if the selector is out of range. The code generator and stdlib
// dispatch with if/else chains and br/br_if instead, and do not emit it.
type BrTable struct {
	Targets []uint32
	Default uint32
}

func (BrTable) Op() opcode.Opcode { return opcode.BrTable }
func (b BrTable) ImmediateArgs() []interface{} {
	return []interface{}{b.Targets, b.Default}
}

// Return exits the current function immediately, leaving the function's
// declared result slots on the stack.
type Return struct{ NoImmediateArgs }

func (Return) Op() opcode.Opcode { return opcode.Return }

// Call invokes a module-defined or imported function by index.
type Call struct {
	Index uint32
}

func (Call) Op() opcode.Opcode              { return opcode.Call }
func (c Call) ImmediateArgs() []interface{} { return []interface{}{c.Index} }

// CallIndirect invokes a function referenced through the table, checking
// its runtime signature against TypeIndex. Neither the code generator nor
// the standard library emits it; every call they make is a direct Call.
type CallIndirect struct {
	TypeIndex uint32
}

func (CallIndirect) Op() opcode.Opcode { return opcode.CallIndirect }
func (c CallIndirect) ImmediateArgs() []interface{} {
	return []interface{}{c.TypeIndex, uint32(0)} // table index is always 0
}

// Drop discards the top stack value without consuming it meaningfully,
// used when a sub-expression's result is evaluated purely for its side
// effects (e.g. every non-final expression of a function or let body).
type Drop struct{ NoImmediateArgs }

func (Drop) Op() opcode.Opcode { return opcode.Drop }
