// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/marshal"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// compileIsEq lowers a variadic `is-eq` call (§4.6.5): every argument is
// materialized into locals once, then compared pairwise against the
// first; every comparison runs, and their results are ANDed together.
func (c *Compiler) compileIsEq(fb *funcBuilder, args []ast.Expr) ([]instruction.Instruction, error) {
	if len(args) < 2 {
		return nil, errors.Errorf("codegen: is-eq requires at least 2 arguments, got %d", len(args))
	}
	t := args[0].ResultType()

	var out []instruction.Instruction
	locals := make([][]uint32, len(args))
	for i, a := range args {
		instrs, err := c.compileExpr(fb, a)
		if err != nil {
			return nil, err
		}
		ls := fb.newLocals(t.Slots())
		out = append(out, instrs...)
		out = append(out, saveToLocals(ls)...)
		locals[i] = ls
	}

	resultLocal := fb.newLocal(types.I32)
	out = append(out, instruction.I32Const{Value: 1}, instruction.SetLocal{Index: resultLocal})
	for i := 1; i < len(locals); i++ {
		pairInstrs, err := c.compileValueEq(fb, t, locals[0], locals[i])
		if err != nil {
			return nil, err
		}
		out = append(out, pairInstrs...)
		out = append(out,
			instruction.GetLocal{Index: resultLocal}, instruction.I32And{},
			instruction.SetLocal{Index: resultLocal},
		)
	}
	out = append(out, instruction.GetLocal{Index: resultLocal})
	return out, nil
}

// compileValueEq recursively lowers structural equality of two values of
// type t, already materialized into aLocals/bLocals, leaving a single i32
// boolean on the stack. Int/UInt bottom out in stdlib's is-eq-int and
// Buffer/StringAscii/StringUtf8/Principal in is-eq-bytes (§4.6.5), while
// Bool compares its single i32 directly;
// Tuple/Optional/Response/List recurse structurally since they have no
// single flat byte image to compare (an in-memory field's slots are a
// pointer, not content, and Optional/Response additionally pad the
// inactive arm with unspecified content that must never be compared).
func (c *Compiler) compileValueEq(fb *funcBuilder, t claritype.Type, aLocals, bLocals []uint32) ([]instruction.Instruction, error) {
	switch t.Kind {
	case claritype.KindInt, claritype.KindUInt:
		call, err := c.stdreg.FuncIndex("is-eq-int")
		if err != nil {
			return nil, err
		}
		return append(append(pushLocals(aLocals), pushLocals(bLocals)...), instruction.Call{Index: call}), nil

	case claritype.KindBool:
		return []instruction.Instruction{
			instruction.GetLocal{Index: aLocals[0]},
			instruction.GetLocal{Index: bLocals[0]},
			instruction.I32Eq{},
		}, nil

	case claritype.KindNoType:
		return []instruction.Instruction{instruction.I32Const{Value: 1}}, nil

	case claritype.KindBuffer, claritype.KindStringAscii, claritype.KindStringUtf8, claritype.KindPrincipal:
		call, err := c.stdreg.FuncIndex("is-eq-bytes")
		if err != nil {
			return nil, err
		}
		return append(append(pushLocals(aLocals), pushLocals(bLocals)...), instruction.Call{Index: call}), nil

	case claritype.KindOptional:
		return c.compileOptionalEq(fb, t, aLocals, bLocals)

	case claritype.KindResponse:
		return c.compileResponseEq(fb, t, aLocals, bLocals)

	case claritype.KindTuple:
		return c.compileTupleEq(fb, t, aLocals, bLocals)

	case claritype.KindList:
		return c.compileListEq(fb, t, aLocals, bLocals)

	default:
		return nil, errors.Errorf("codegen: is-eq over unsupported type %v", t)
	}
}

func (c *Compiler) compileOptionalEq(fb *funcBuilder, t claritype.Type, aLocals, bLocals []uint32) ([]instruction.Instruction, error) {
	aVariant, bVariant := aLocals[0], bLocals[0]
	innerEq, err := c.compileValueEq(fb, *t.Some, aLocals[1:], bLocals[1:])
	if err != nil {
		return nil, err
	}

	variantsEqual := []instruction.Instruction{
		instruction.GetLocal{Index: aVariant}, instruction.GetLocal{Index: bVariant}, instruction.I32Eq{},
	}
	bothNone := []instruction.Instruction{instruction.GetLocal{Index: aVariant}, instruction.I32Eqz{}}

	out := append([]instruction.Instruction{}, variantsEqual...)
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
		Then: append(bothNone, instruction.If{
			BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
			Then:      []instruction.Instruction{instruction.I32Const{Value: 1}},
			Else:      innerEq,
		}),
		Else: []instruction.Instruction{instruction.I32Const{Value: 0}},
	})
	return out, nil
}

func (c *Compiler) compileResponseEq(fb *funcBuilder, t claritype.Type, aLocals, bLocals []uint32) ([]instruction.Instruction, error) {
	aVariant, bVariant := aLocals[0], bLocals[0]
	aOk, aErr := splitResponseLocals(aLocals[1:], *t.Ok, *t.Err)
	bOk, bErr := splitResponseLocals(bLocals[1:], *t.Ok, *t.Err)

	okEq, err := c.compileValueEq(fb, *t.Ok, aOk, bOk)
	if err != nil {
		return nil, err
	}
	errEq, err := c.compileValueEq(fb, *t.Err, aErr, bErr)
	if err != nil {
		return nil, err
	}

	variantsEqual := []instruction.Instruction{
		instruction.GetLocal{Index: aVariant}, instruction.GetLocal{Index: bVariant}, instruction.I32Eq{},
	}
	isOk := []instruction.Instruction{instruction.GetLocal{Index: aVariant}}

	out := append([]instruction.Instruction{}, variantsEqual...)
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
		Then: append(isOk, instruction.If{
			BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
			Then:      okEq,
			Else:      errEq,
		}),
		Else: []instruction.Instruction{instruction.I32Const{Value: 0}},
	})
	return out, nil
}

func (c *Compiler) compileTupleEq(fb *funcBuilder, t claritype.Type, aLocals, bLocals []uint32) ([]instruction.Instruction, error) {
	resultLocal := fb.newLocal(types.I32)
	out := []instruction.Instruction{instruction.I32Const{Value: 1}, instruction.SetLocal{Index: resultLocal}}

	off := 0
	for _, f := range t.Fields {
		n := len(f.Type.Slots())
		fieldEq, err := c.compileValueEq(fb, f.Type, aLocals[off:off+n], bLocals[off:off+n])
		if err != nil {
			return nil, err
		}
		off += n
		out = append(out, fieldEq...)
		out = append(out,
			instruction.GetLocal{Index: resultLocal}, instruction.I32And{},
			instruction.SetLocal{Index: resultLocal},
		)
	}
	out = append(out, instruction.GetLocal{Index: resultLocal})
	return out, nil
}

// compileListEq compares element counts, then every element pairwise in
// a loop, short-circuiting false on the first mismatch.
func (c *Compiler) compileListEq(fb *funcBuilder, t claritype.Type, aLocals, bLocals []uint32) ([]instruction.Instruction, error) {
	aOffset, aCount := aLocals[0], aLocals[1]
	bOffset, bCount := bLocals[0], bLocals[1]
	elemType := *t.Elem
	elemWidth := elemType.FlatWordSize()

	idx := fb.newLocal(types.I32)
	aAddr := fb.newLocal(types.I32)
	bAddr := fb.newLocal(types.I32)
	aElem := fb.newLocals(elemType.Slots())
	bElem := fb.newLocals(elemType.Slots())
	resultLocal := fb.newLocal(types.I32)

	elemEq, err := c.compileValueEq(fb, elemType, aElem, bElem)
	if err != nil {
		return nil, err
	}

	countsEqual := []instruction.Instruction{
		instruction.GetLocal{Index: aCount}, instruction.GetLocal{Index: bCount}, instruction.I32Eq{},
	}

	addrExpr := func(base, i uint32) []instruction.Instruction {
		return []instruction.Instruction{
			instruction.GetLocal{Index: base},
			instruction.GetLocal{Index: i},
			instruction.I32Const{Value: int32(elemWidth)},
			instruction.I32Mul{},
			instruction.I32Add{},
		}
	}

	loopBody := []instruction.Instruction{
		instruction.GetLocal{Index: idx}, instruction.GetLocal{Index: aCount}, instruction.I32GeU{},
		instruction.BrIf{Index: 1},
	}
	loopBody = append(loopBody, addrExpr(aOffset, idx)...)
	loopBody = append(loopBody, instruction.SetLocal{Index: aAddr})
	loopBody = append(loopBody, addrExpr(bOffset, idx)...)
	loopBody = append(loopBody, instruction.SetLocal{Index: bAddr})
	loopBody = append(loopBody, marshal.Read(aAddr, aElem, elemType)...)
	loopBody = append(loopBody, marshal.Read(bAddr, bElem, elemType)...)
	loopBody = append(loopBody, elemEq...)
	loopBody = append(loopBody, instruction.I32Eqz{})
	loopBody = append(loopBody, instruction.If{
		BlockType: types.BlockType{},
		Then: []instruction.Instruction{
			instruction.I32Const{Value: 0}, instruction.SetLocal{Index: resultLocal},
			instruction.Br{Index: 2},
		},
	})
	loopBody = append(loopBody,
		instruction.GetLocal{Index: idx}, instruction.I32Const{Value: 1}, instruction.I32Add{},
		instruction.SetLocal{Index: idx},
		instruction.Br{Index: 0},
	)

	out := append([]instruction.Instruction{}, countsEqual...)
	matchLoop := []instruction.Instruction{
		instruction.I32Const{Value: 0}, instruction.SetLocal{Index: idx},
		instruction.I32Const{Value: 1}, instruction.SetLocal{Index: resultLocal},
		instruction.Block{
			BlockType: types.BlockType{},
			Instrs: []instruction.Instruction{
				instruction.Loop{BlockType: types.BlockType{}, Instrs: loopBody},
			},
		},
		instruction.GetLocal{Index: resultLocal},
	}
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
		Then:      matchLoop,
		Else:      []instruction.Instruction{instruction.I32Const{Value: 0}},
	})
	return out, nil
}
