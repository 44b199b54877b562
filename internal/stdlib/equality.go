// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stdlib

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// buildEquality defines the two equality primitives the code generator's
// `is-eq` lowering calls (§4.6.5): is-eq-int for the flat 128-bit
// representation shared by Int and UInt, and is-eq-bytes for the
// (offset, length) representation of Buffer, the string types and
// Principal, which compares for structural equality byte by byte rather
// than by identity. Bool is compared with a plain i32.eq in the
// generator, and Tuple, Optional/Response and List equality are built by
// the code generator as a conjunction/dispatch/loop over per-field,
// per-arm or per-element comparisons, not as their own stdlib entries.
func (b *builder) buildEquality() {
	b.buildIsEqInt()
	b.buildIsEqBytes()
}

func (b *builder) buildIsEqInt() {
	body := []instruction.Instruction{
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64Eq{},
		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64Eq{},
		instruction.I32And{},
	}
	b.defineFunction("is-eq-int", i128Params, []types.ValueType{types.I32}, nil, body)
}

func (b *builder) buildIsEqBytes() {
	lb := newLocalBuilder(4) // a_offset, a_length, b_offset, b_length
	i := lb.add(types.I32)

	body := []instruction.Instruction{
		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I32Ne{},
		instruction.If{
			BlockType: types.BlockType{},
			Then:      []instruction.Instruction{instruction.I32Const{Value: 0}, instruction.Return{}},
		},

		instruction.I32Const{Value: 0}, instruction.SetLocal{Index: i},

		instruction.Block{
			BlockType: types.BlockType{},
			Instrs: []instruction.Instruction{
				instruction.Loop{
					BlockType: types.BlockType{},
					Instrs: []instruction.Instruction{
						instruction.GetLocal{Index: i}, instruction.GetLocal{Index: 1}, instruction.I32GeU{},
						instruction.BrIf{Index: 1},

						instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: i}, instruction.I32Add{},
						instruction.I32Load8U{},
						instruction.GetLocal{Index: 2}, instruction.GetLocal{Index: i}, instruction.I32Add{},
						instruction.I32Load8U{},
						instruction.I32Ne{},
						instruction.If{
							BlockType: types.BlockType{},
							Then:      []instruction.Instruction{instruction.I32Const{Value: 0}, instruction.Return{}},
						},

						instruction.GetLocal{Index: i}, instruction.I32Const{Value: 1}, instruction.I32Add{},
						instruction.SetLocal{Index: i},

						instruction.Br{Index: 0},
					},
				},
			},
		},

		instruction.I32Const{Value: 1},
	}

	b.defineFunction("is-eq-bytes",
		[]types.ValueType{types.I32, types.I32, types.I32, types.I32},
		[]types.ValueType{types.I32},
		lb.declarations(), body)
}
