// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// compileMatchOptional lowers `match` on an Optional scrutinee (§4.6.2):
// save the scrutinee's slots to locals, bind SomeName to the inner
// slots for SomeArm only, restore the prior scope after each arm.
func (c *Compiler) compileMatchOptional(fb *funcBuilder, m ast.MatchOptional) ([]instruction.Instruction, error) {
	scrutType := m.Scrutinee.ResultType()
	scrutInstrs, err := c.compileExpr(fb, m.Scrutinee)
	if err != nil {
		return nil, err
	}
	all := fb.newLocals(scrutType.Slots())
	variantLocal := all[0]
	innerLocals := all[1:]

	fb.pushScope()
	fb.bind(m.SomeName, binding{locals: innerLocals, typ: *scrutType.Some})
	someInstrs, err := c.compileExpr(fb, m.SomeArm)
	fb.popScope()
	if err != nil {
		return nil, err
	}

	noneInstrs, err := c.compileExpr(fb, m.NoneArm)
	if err != nil {
		return nil, err
	}

	out := append([]instruction.Instruction{}, scrutInstrs...)
	out = append(out, saveToLocals(all)...)
	out = append(out, instruction.GetLocal{Index: variantLocal})
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: m.ResultType().Slots()},
		Then:      someInstrs,
		Else:      noneInstrs,
	})
	return out, nil
}

// compileMatchResponse lowers `match` on a Response scrutinee: both
// arms' payload slots are always present (the fixed-width layout pads
// the inactive arm), so both are saved up front and the appropriate
// half bound per arm.
func (c *Compiler) compileMatchResponse(fb *funcBuilder, m ast.MatchResponse) ([]instruction.Instruction, error) {
	scrutType := m.Scrutinee.ResultType()
	scrutInstrs, err := c.compileExpr(fb, m.Scrutinee)
	if err != nil {
		return nil, err
	}
	all := fb.newLocals(scrutType.Slots())
	variantLocal := all[0]
	okLocals, errLocals := splitResponseLocals(all[1:], *scrutType.Ok, *scrutType.Err)

	fb.pushScope()
	fb.bind(m.OkName, binding{locals: okLocals, typ: *scrutType.Ok})
	okInstrs, err := c.compileExpr(fb, m.OkArm)
	fb.popScope()
	if err != nil {
		return nil, err
	}

	fb.pushScope()
	fb.bind(m.ErrName, binding{locals: errLocals, typ: *scrutType.Err})
	errInstrs, err := c.compileExpr(fb, m.ErrArm)
	fb.popScope()
	if err != nil {
		return nil, err
	}

	out := append([]instruction.Instruction{}, scrutInstrs...)
	out = append(out, saveToLocals(all)...)
	out = append(out, instruction.GetLocal{Index: variantLocal})
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: m.ResultType().Slots()},
		Then:      okInstrs,
		Else:      errInstrs,
	})
	return out, nil
}

// splitResponseLocals divides a Response's post-variant locals between
// its ok and err arms, per claritype.Type.Slots' Response layout
// (ok slots concatenated before err slots).
func splitResponseLocals(armLocals []uint32, okType, errType claritype.Type) (ok, errs []uint32) {
	n := len(okType.Slots())
	return armLocals[:n], armLocals[n:]
}

// compileUnwrap lowers any of the four unwrap/try forms (§4.6.2, §9).
// Success pushes the active arm's payload; failure either traps
// (unwrap-panic/unwrap-err-panic) or short-returns from the enclosing
// function (unwrap!/try!) via an explicit early exit — never a Wasm
// trap, so a Response-typed caller can still observe the failure.
func (c *Compiler) compileUnwrap(fb *funcBuilder, u ast.Unwrap) ([]instruction.Instruction, error) {
	scrutType := u.Scrutinee.ResultType()
	scrutInstrs, err := c.compileExpr(fb, u.Scrutinee)
	if err != nil {
		return nil, err
	}
	all := fb.newLocals(scrutType.Slots())
	variantLocal := all[0]

	successVariant := int32(1)
	var successLocals, failureLocals []uint32
	var failureType claritype.Type

	switch scrutType.Kind {
	case claritype.KindOptional:
		successLocals = all[1:]
	case claritype.KindResponse:
		okLocals, errLocals := splitResponseLocals(all[1:], *scrutType.Ok, *scrutType.Err)
		if u.Kind == ast.UnwrapErrPanic {
			successVariant = 0
			successLocals, failureLocals = errLocals, okLocals
			failureType = *scrutType.Ok
		} else {
			successLocals, failureLocals = okLocals, errLocals
			failureType = *scrutType.Err
		}
	default:
		return nil, errors.Errorf("codegen: unwrap over non-Optional/Response type %v", scrutType)
	}

	successInstrs := pushLocals(successLocals)

	failureInstrs, err := c.compileUnwrapFailure(fb, u, all, failureLocals, failureType)
	if err != nil {
		return nil, err
	}

	cond := []instruction.Instruction{instruction.GetLocal{Index: variantLocal}}
	if successVariant == 0 {
		cond = append(cond, instruction.I32Eqz{})
	}

	out := append([]instruction.Instruction{}, scrutInstrs...)
	out = append(out, saveToLocals(all)...)
	out = append(out, cond...)
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: u.ResultType().Slots()},
		Then:      successInstrs,
		Else:      failureInstrs,
	})
	return out, nil
}

func (c *Compiler) compileUnwrapFailure(fb *funcBuilder, u ast.Unwrap, allLocals, failureLocals []uint32, failureType claritype.Type) ([]instruction.Instruction, error) {
	switch u.Kind {
	case ast.UnwrapPanic, ast.UnwrapErrPanic:
		return c.emitRuntimeErrorTrap(fb, codeDeliberatePanic, failureType, failureLocals)
	case ast.TryBang:
		var out []instruction.Instruction
		out = append(out, pushLocals(allLocals)...)
		out = append(out, c.alloc.ExitFunction(fb.savedSP)...)
		out = append(out, instruction.Return{})
		return out, nil
	case ast.UnwrapBang:
		fallbackInstrs, err := c.compileExpr(fb, u.Fallback)
		if err != nil {
			return nil, err
		}
		var out []instruction.Instruction
		out = append(out, fallbackInstrs...)
		out = append(out, c.alloc.ExitFunction(fb.savedSP)...)
		out = append(out, instruction.Return{})
		return out, nil
	default:
		return nil, errors.Errorf("codegen: unhandled unwrap kind %v", u.Kind)
	}
}
