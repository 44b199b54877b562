// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/marshal"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// compileFilter lowers `filter` (§4.6.2): PredicateName is applied to
// every element of List in order, and the elements for which it returns
// true are copied, in order, into a fresh output region sized for the
// worst case (every element passing) and allocated on the call stack —
// its actual element count is always <= the input's, so no reallocation
// is ever needed once copying starts.
func (c *Compiler) compileFilter(fb *funcBuilder, f ast.Filter) ([]instruction.Instruction, error) {
	listType := f.List.ResultType()
	elemType := *listType.Elem
	elemWidth := elemType.FlatWordSize()

	pred, ok := c.funcs[f.PredicateName]
	if !ok {
		return nil, errors.Errorf("codegen: filter predicate %q is not a user-defined function", f.PredicateName)
	}

	listInstrs, err := c.compileExpr(fb, f.List)
	if err != nil {
		return nil, err
	}
	listLocals := fb.newLocals(listType.Slots())
	listOffset, listCount := listLocals[0], listLocals[1]

	outOffset := fb.newLocal(types.I32)
	outCount := fb.newLocal(types.I32)
	idx := fb.newLocal(types.I32)
	srcAddr := fb.newLocal(types.I32)
	dstAddr := fb.newLocal(types.I32)
	elemLocals := fb.newLocals(elemType.Slots())

	var out []instruction.Instruction
	out = append(out, listInstrs...)
	out = append(out, saveToLocals(listLocals)...)

	capacityBytes := []instruction.Instruction{
		instruction.GetLocal{Index: listCount},
		instruction.I32Const{Value: int32(elemWidth)},
		instruction.I32Mul{},
	}
	out = append(out, c.alloc.AllocDynamic(outOffset, capacityBytes)...)
	out = append(out,
		instruction.I32Const{Value: 0}, instruction.SetLocal{Index: outCount},
		instruction.I32Const{Value: 0}, instruction.SetLocal{Index: idx},
	)

	// srcAddr = listOffset + idx*elemWidth
	computeSrcAddr := []instruction.Instruction{
		instruction.GetLocal{Index: listOffset},
		instruction.GetLocal{Index: idx},
		instruction.I32Const{Value: int32(elemWidth)},
		instruction.I32Mul{},
		instruction.I32Add{},
		instruction.SetLocal{Index: srcAddr},
	}

	callPred := []instruction.Instruction{instruction.Call{Index: pred.index}}

	// dstAddr = outOffset + outCount*elemWidth
	computeDstAddr := []instruction.Instruction{
		instruction.GetLocal{Index: outOffset},
		instruction.GetLocal{Index: outCount},
		instruction.I32Const{Value: int32(elemWidth)},
		instruction.I32Mul{},
		instruction.I32Add{},
		instruction.SetLocal{Index: dstAddr},
	}

	keepArm := append([]instruction.Instruction{}, computeDstAddr...)
	keepArm = append(keepArm, marshal.Write(dstAddr, elemLocals, elemType)...)
	keepArm = append(keepArm,
		instruction.GetLocal{Index: outCount},
		instruction.I32Const{Value: 1},
		instruction.I32Add{},
		instruction.SetLocal{Index: outCount},
	)

	body := append([]instruction.Instruction{}, computeSrcAddr...)
	body = append(body, marshal.Read(srcAddr, elemLocals, elemType)...)
	body = append(body, pushLocals(elemLocals)...)
	body = append(body, callPred...)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      keepArm,
		Else:      nil,
	})
	body = append(body,
		instruction.GetLocal{Index: idx},
		instruction.I32Const{Value: 1},
		instruction.I32Add{},
		instruction.SetLocal{Index: idx},
	)

	cond := []instruction.Instruction{
		instruction.GetLocal{Index: idx},
		instruction.GetLocal{Index: listCount},
		instruction.I32GeU{},
		instruction.BrIf{Index: 1},
	}
	loopBody := append([]instruction.Instruction{}, cond...)
	loopBody = append(loopBody, body...)
	loopBody = append(loopBody, instruction.Br{Index: 0})

	out = append(out, instruction.Block{
		BlockType: types.BlockType{},
		Instrs: []instruction.Instruction{
			instruction.Loop{BlockType: types.BlockType{}, Instrs: loopBody},
		},
	})

	out = append(out, instruction.GetLocal{Index: outOffset}, instruction.GetLocal{Index: outCount})
	return out, nil
}
