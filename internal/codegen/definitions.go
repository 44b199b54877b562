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
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// unboundedFtSupply is the sentinel passed to define_ft's supply-cap
// parameter for a token declared without one: the host ABI has no
// separate "no cap" flag, so an all-ones 128-bit value stands in for
// "never binding in practice" (see DESIGN.md).
var unboundedFtSupply = claritype.UIntValue{Bits: claritype.Int128{Lo: ^uint64(0), Hi: ^uint64(0)}}

// compileDefineConstant lowers `define-constant` (§4.6.3). Every
// constant, literal or computed, is evaluated once into the static data
// region during ".top-level" and read back through internal/marshal on
// each reference (see compileVar/readFromStatic) — this treats literal
// and computed constants uniformly and needs no separate case for
// either.
func (c *Compiler) compileDefineConstant(d ast.DefineConstant) error {
	if err := c.reserveName(d.Name); err != nil {
		return err
	}
	fb := c.topLevelFB
	t := d.Value.ResultType()

	valInstrs, err := c.compileExpr(fb, d.Value)
	if err != nil {
		return err
	}
	valLocals := fb.newLocals(t.Slots())
	addr := c.allocStatic(marshal.Size(t))
	addrLocal := fb.newLocal(types.I32)

	c.initBody = append(c.initBody, valInstrs...)
	c.initBody = append(c.initBody, saveToLocals(valLocals)...)
	c.initBody = append(c.initBody, c.staticAddr(addrLocal, addr)...)
	c.initBody = append(c.initBody, marshal.Write(addrLocal, valLocals, t)...)

	c.constants[d.Name] = globalBinding{offset: addr, typ: t}
	return nil
}

// compileDefineDataVar lowers `define-data-var` (§4.6.3): registers the
// variable with the host via define_variable, seeded with Initial's
// value written to scratch first.
func (c *Compiler) compileDefineDataVar(d ast.DefineDataVar) error {
	if err := c.reserveName(d.Name); err != nil {
		return err
	}
	fb := c.topLevelFB
	nameLit, err := c.internName(d.Name)
	if err != nil {
		return err
	}

	initInstrs, err := c.compileExpr(fb, d.Initial)
	if err != nil {
		return err
	}
	initLocals := fb.newLocals(d.Type.Slots())
	scratchLocal := fb.newLocal(types.I32)

	idx, err := c.resolveBuiltinIndex("define_variable")
	if err != nil {
		return err
	}

	c.initBody = append(c.initBody, initInstrs...)
	c.initBody = append(c.initBody, saveToLocals(initLocals)...)
	c.initBody = append(c.initBody, c.allocScratch(fb, scratchLocal, marshal.Size(d.Type))...)
	c.initBody = append(c.initBody, marshal.Write(scratchLocal, initLocals, d.Type)...)
	c.initBody = append(c.initBody,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.GetLocal{Index: scratchLocal},
		instruction.I32Const{Value: int32(marshal.Size(d.Type))},
		instruction.Call{Index: idx},
	)

	c.dataVars[d.Name] = globalBinding{offset: 0, typ: d.Type}
	return nil
}

// compileDefineFT lowers `define-fungible-token` (§4.6.3). An unbounded
// token (Supply == nil) registers with unboundedFtSupply; a bounded one
// evaluates Supply, which the type checker already constrains to a
// compile-time-evaluable UInt expression.
func (c *Compiler) compileDefineFT(d ast.DefineFT) error {
	if err := c.reserveName(d.Name); err != nil {
		return err
	}
	fb := c.topLevelFB
	nameLit, err := c.internName(d.Name)
	if err != nil {
		return err
	}

	var supplyInstrs []instruction.Instruction
	if d.Supply == nil {
		supplyInstrs, err = flatConst(claritype.UInt(), unboundedFtSupply)
		if err != nil {
			return err
		}
	} else {
		supplyInstrs, err = c.compileExpr(fb, d.Supply)
		if err != nil {
			return err
		}
	}

	idx, err := c.resolveBuiltinIndex("define_ft")
	if err != nil {
		return err
	}

	c.initBody = append(c.initBody,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
	)
	c.initBody = append(c.initBody, supplyInstrs...)
	c.initBody = append(c.initBody, instruction.Call{Index: idx})

	c.fts[d.Name] = true
	return nil
}

// compileDefineNFT lowers `define-non-fungible-token` (§4.6.3):
// registers the token with the host by name; AssetType is tracked purely
// generator-side (every nft_* call serializes its identifier to a byte
// region per that type, see call.go's compileIdentifierRegion).
func (c *Compiler) compileDefineNFT(d ast.DefineNFT) error {
	if err := c.reserveName(d.Name); err != nil {
		return err
	}
	nameLit, err := c.internName(d.Name)
	if err != nil {
		return err
	}
	idx, err := c.resolveBuiltinIndex("define_nft")
	if err != nil {
		return err
	}
	c.initBody = append(c.initBody,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.Call{Index: idx},
	)
	c.nfts[d.Name] = d.AssetType
	return nil
}

// compileDefineMap lowers `define-map` (§4.6.3): hostabi has no define_map
// import — map storage is addressed purely by name at map_get/map_set/
// map_insert/map_delete time (see call.go), so this only records the
// key/value types those call sites need.
func (c *Compiler) compileDefineMap(d ast.DefineMap) error {
	if err := c.reserveName(d.Name); err != nil {
		return err
	}
	c.maps[d.Name] = mapDef{keyType: d.KeyType, valueType: d.ValueType}
	return nil
}

// compileFunction lowers one DefineFunction's body into the code entry
// registerFunctionSignatures already reserved (§4.6.4): parameters bind
// to locals 0..n-1 in order, the body runs between the call-stack
// allocator's entry/exit bracket, and falls through to an explicit
// Return so every path (including Unwrap's short-return, which emits its
// own exit+return) leaves the stack balanced.
func (c *Compiler) compileFunction(fn ast.DefineFunction) error {
	info, ok := c.funcs[fn.Name]
	if !ok {
		return errors.Errorf("codegen: function %q was not pre-registered", fn.Name)
	}

	fb := newFuncBuilder(c, fn.Return)
	fb.pushScope()

	// Parameters occupy locals 0..n-1 by Wasm convention, declared by the
	// function's type rather than its Locals section — bind them to
	// those indices directly rather than through newLocal, which would
	// otherwise also register them as declared locals.
	var paramIdx uint32
	for _, p := range fn.Params {
		slots := p.Type.Slots()
		locals := make([]uint32, len(slots))
		for i := range locals {
			locals[i] = paramIdx
			paramIdx++
		}
		fb.bind(p.Name, binding{locals: locals, typ: p.Type})
	}
	fb.setParamBase(paramIdx)

	savedSP := fb.newLocal(types.I32)
	fb.savedSP = savedSP

	bodyInstrs, err := c.compileBody(fb, fn.Body)
	if err != nil {
		return err
	}

	var out []instruction.Instruction
	out = append(out, c.alloc.EnterFunction(savedSP)...)
	out = append(out, bodyInstrs...)
	out = append(out, c.alloc.ExitFunction(savedSP)...)
	out = append(out, instruction.Return{})

	c.setCodeEntry(info.index, module.CodeEntry{Func: module.Func{
		Locals: fb.localDeclarations(),
		Instrs: out,
	}})
	return nil
}
