// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package instruction

import "github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"

// GetLocal pushes the value of local Index.
type GetLocal struct {
	Index uint32
}

func (GetLocal) Op() opcode.Opcode              { return opcode.GetLocal }
func (g GetLocal) ImmediateArgs() []interface{} { return []interface{}{g.Index} }

// SetLocal pops a value and stores it into local Index.
type SetLocal struct {
	Index uint32
}

func (SetLocal) Op() opcode.Opcode              { return opcode.SetLocal }
func (s SetLocal) ImmediateArgs() []interface{} { return []interface{}{s.Index} }

// TeeLocal stores the top-of-stack value into local Index without popping
// it. The code generator and stdlib do not emit it; they pair SetLocal
// with GetLocal instead.
type TeeLocal struct {
	Index uint32
}

func (TeeLocal) Op() opcode.Opcode              { return opcode.TeeLocal }
func (t TeeLocal) ImmediateArgs() []interface{} { return []interface{}{t.Index} }

// GetGlobal pushes the value of global Index (e.g. $stack-pointer).
type GetGlobal struct {
	Index uint32
}

func (GetGlobal) Op() opcode.Opcode              { return opcode.GetGlobal }
func (g GetGlobal) ImmediateArgs() []interface{} { return []interface{}{g.Index} }

// SetGlobal pops a value and stores it into global Index.
type SetGlobal struct {
	Index uint32
}

func (SetGlobal) Op() opcode.Opcode              { return opcode.SetGlobal }
func (s SetGlobal) ImmediateArgs() []interface{} { return []interface{}{s.Index} }
