// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// binding is a name's flat-slot locals and source type, as introduced by
// a function parameter, a `let` binding, or a match/unwrap arm's bound
// identifier.
type binding struct {
	locals []uint32
	typ    claritype.Type
}

// funcBuilder accumulates one function's locals and lexical scope while
// its body is being lowered. Instructions themselves are threaded
// through compileExpr's return values rather than held here — funcBuilder
// only owns the mutable bookkeeping every expression lowering needs to
// share: the next free local index and the binding scope stack.
type funcBuilder struct {
	c *Compiler

	nextLocal  uint32
	localTypes []types.ValueType // locals beyond the parameters

	scopes []map[string]binding

	returnType claritype.Type
	savedSP    uint32 // local holding $stack-pointer on function entry
}

func newFuncBuilder(c *Compiler, returnType claritype.Type) *funcBuilder {
	return &funcBuilder{c: c, returnType: returnType}
}

// newLocal declares one fresh local of vt beyond the function's
// parameters and returns its index.
func (fb *funcBuilder) newLocal(vt types.ValueType) uint32 {
	idx := fb.nextLocal
	fb.localTypes = append(fb.localTypes, vt)
	fb.nextLocal++
	return idx
}

// newLocals declares one fresh local per entry of slots, in order.
func (fb *funcBuilder) newLocals(slots []types.ValueType) []uint32 {
	out := make([]uint32, len(slots))
	for i, s := range slots {
		out[i] = fb.newLocal(s)
	}
	return out
}

// setParamBase tells the builder how many locals the function's
// parameters already occupy (locals 0..n-1), so that newLocal starts
// numbering beyond them.
func (fb *funcBuilder) setParamBase(n uint32) {
	fb.nextLocal = n
}

func (fb *funcBuilder) pushScope() {
	fb.scopes = append(fb.scopes, make(map[string]binding))
}

func (fb *funcBuilder) popScope() {
	fb.scopes = fb.scopes[:len(fb.scopes)-1]
}

func (fb *funcBuilder) bind(name string, b binding) {
	fb.scopes[len(fb.scopes)-1][name] = b
}

// lookup resolves name against the lexical scope stack, innermost first.
func (fb *funcBuilder) lookup(name string) (binding, bool) {
	for i := len(fb.scopes) - 1; i >= 0; i-- {
		if b, ok := fb.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// localDeclarations run-length-encodes fb's locals beyond the
// parameters, as the binary format requires.
func (fb *funcBuilder) localDeclarations() []module.LocalDeclaration {
	var out []module.LocalDeclaration
	for _, vt := range fb.localTypes {
		if n := len(out); n > 0 && out[n-1].Type == vt {
			out[n-1].Count++
			continue
		}
		out = append(out, module.LocalDeclaration{Count: 1, Type: vt})
	}
	return out
}

// saveToLocals pops a freshly-evaluated expression's flat slots off the
// (conceptual) top of the Wasm stack into locals, one instruction per
// slot, from the last slot (the physical top of stack) down to the
// first — the exact inverse of the order pushLocals/compileExpr produce
// values in.
func saveToLocals(locals []uint32) []instruction.Instruction {
	out := make([]instruction.Instruction, len(locals))
	for i := len(locals) - 1; i >= 0; i-- {
		out[len(locals)-1-i] = instruction.SetLocal{Index: locals[i]}
	}
	return out
}

// pushLocals emits a GetLocal for every entry, in order, leaving their
// values on the stack as a value's flat slot sequence.
func pushLocals(locals []uint32) []instruction.Instruction {
	out := make([]instruction.Instruction, len(locals))
	for i, l := range locals {
		out[i] = instruction.GetLocal{Index: l}
	}
	return out
}
