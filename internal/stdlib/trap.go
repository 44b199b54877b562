// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stdlib

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/errormapping"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// buildTrap defines "runtime-error", the one stdlib entry point that
// accepts a fully-populated diagnostic (a value and/or argument bytes
// already placed in memory by the caller) and sets every trap-carrying
// global (§4.5) before trapping. The code generator calls it directly
// wherever it has already materialized a typed value to carry (e.g. an
// assertion failure with the asserted value at hand); stdlib's own
// internal traps (arithmetic overflow and friends, see arithmetic.go) go
// through the narrower trapCode helper instead, which carries only the
// code: synthesizing a literal-pool type descriptor and a stack-allocated
// value region at every one of those call sites is not attempted at this
// scope (see DESIGN.md).
func (b *builder) buildTrap() {
	params := []types.ValueType{types.I32, types.I32, types.I32, types.I32, types.I32, types.I32}
	body := []instruction.Instruction{
		instruction.GetLocal{Index: 0},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorCode]},
		instruction.GetLocal{Index: 1},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorValOff]},
		instruction.GetLocal{Index: 2},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorTySOff]},
		instruction.GetLocal{Index: 3},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorTySLen]},
		instruction.GetLocal{Index: 4},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorArgOff]},
		instruction.GetLocal{Index: 5},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorArgLen]},
		instruction.Unreachable{},
	}
	b.defineFunction("runtime-error", params, nil, nil, body)
}

// trapCode emits the instruction sequence that sets runtime-error-code to
// code, zeroes the other trap-carrying globals (no value or argument
// bytes attached), and traps. Inlined at every stdlib-internal trap site
// rather than calling "runtime-error" by index, since the zero arguments
// would otherwise have to be pushed at every call site anyway.
func (b *builder) trapCode(code errormapping.Code) []instruction.Instruction {
	zero := func(global string) []instruction.Instruction {
		return []instruction.Instruction{
			instruction.I32Const{Value: 0},
			instruction.SetGlobal{Index: b.reg.Globals[global]},
		}
	}
	instrs := []instruction.Instruction{
		instruction.I32Const{Value: int32(code)},
		instruction.SetGlobal{Index: b.reg.Globals[GlobalRuntimeErrorCode]},
	}
	instrs = append(instrs, zero(GlobalRuntimeErrorValOff)...)
	instrs = append(instrs, zero(GlobalRuntimeErrorTySOff)...)
	instrs = append(instrs, zero(GlobalRuntimeErrorTySLen)...)
	instrs = append(instrs, zero(GlobalRuntimeErrorArgOff)...)
	instrs = append(instrs, zero(GlobalRuntimeErrorArgLen)...)
	instrs = append(instrs, instruction.Unreachable{})
	return instrs
}
