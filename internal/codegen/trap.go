// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/errormapping"
	"github.com/BowTiedWoo/clarity-wasm/internal/marshal"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

const codeDeliberatePanic = errormapping.CodeDeliberatePanic
const codeAssertionFailure = errormapping.CodeAssertionFailure

// typeDescriptorMarker is the dedup Kind under which encoded type
// descriptors are interned, distinct from any Kind a real literal value
// is ever interned under (no NoType value ever goes through the pool —
// flat NoType literals are pushed as an i32 placeholder immediate, never
// interned), so a type descriptor's bytes can never
// alias a value literal's dedup key even if the raw bytes happened to
// coincide.
const typeDescriptorMarker = claritype.KindNoType

// emitRuntimeErrorTrap calls stdlib's "runtime-error" to trap with code,
// carrying valueLocals (typed valueType) as the diagnostic payload when
// valueType is flat — Int, UInt and Bool are the only kinds whose
// in-register representation already matches their canonical Serialize
// image (128-bit little-endian / 4-byte bool), so marshal.Write doubles
// as their wire encoder with no extra instructions; NoType's placeholder
// slot is written as 4 bytes that its empty Serialize image never reads.
// For an in-memory valueType (Buffer, String*, List, Tuple, Optional,
// Response, Principal) no canonical-serializing Wasm code is emitted at
// this call site; the trap carries code alone, as it does when there are
// no valueLocals to carry (unwrap-panic on a none). Giving every such trap
// site its own runtime serializer would duplicate claritype.Serialize's
// logic as generated code for a diagnostic payload no caller this
// generator targets actually inspects beyond the code — see DESIGN.md.
func (c *Compiler) emitRuntimeErrorTrap(fb *funcBuilder, code errormapping.Code, valueType claritype.Type, valueLocals []uint32) ([]instruction.Instruction, error) {
	call, err := c.stdreg.FuncIndex("runtime-error")
	if err != nil {
		return nil, err
	}

	if valueType.IsInMemory() || len(valueLocals) == 0 {
		return []instruction.Instruction{
			instruction.I32Const{Value: int32(code)},
			instruction.I32Const{Value: 0},
			instruction.I32Const{Value: 0},
			instruction.I32Const{Value: 0},
			instruction.I32Const{Value: 0},
			instruction.I32Const{Value: 0},
			instruction.Call{Index: call},
		}, nil
	}

	size := marshal.Size(valueType)
	valueAddr := fb.newLocal(types.I32)
	var out []instruction.Instruction
	if size > 0 {
		out = append(out, c.allocScratch(fb, valueAddr, size)...)
		out = append(out, marshal.Write(valueAddr, valueLocals, valueType)...)
	} else {
		out = append(out, instruction.I32Const{Value: 0}, instruction.SetLocal{Index: valueAddr})
	}

	tyBytes := claritype.EncodeTypeDescriptor(valueType)
	tyLit := c.pool.Intern(typeDescriptorMarker, false, tyBytes)

	out = append(out,
		instruction.I32Const{Value: int32(code)},
		instruction.GetLocal{Index: valueAddr},
		instruction.I32Const{Value: int32(tyLit.Offset)},
		instruction.I32Const{Value: int32(tyLit.Length)},
		instruction.I32Const{Value: 0},
		instruction.I32Const{Value: 0},
		instruction.Call{Index: call},
	)
	return out, nil
}
