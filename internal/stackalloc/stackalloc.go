// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package stackalloc implements the call stack allocator: a bump
// allocator over linear memory driven by a single Wasm global,
// `$stack-pointer`. It never frees individual allocations; instead, each
// function invocation saves the pointer on entry and restores it on
// exit, reclaiming everything it allocated in one step. This gives every
// in-memory value the lifetime of the Wasm call that created it, unless
// the generator copies it somewhere with a longer lifetime (the literal
// pool, or a host-owned data variable/asset).
package stackalloc

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
)

// Allocator emits the instruction sequences that implement the bump
// allocator's entry/exit/allocate operations against a given global
// index. It holds no mutable state itself — the actual high-water mark
// lives in the compiled module's global, and each call's saved pointer
// lives in a Wasm local the caller (the code generator) allocates.
type Allocator struct {
	// StackPointerGlobal is the index of the $stack-pointer global.
	StackPointerGlobal uint32
}

func New(stackPointerGlobal uint32) *Allocator {
	return &Allocator{StackPointerGlobal: stackPointerGlobal}
}

// EnterFunction saves the current stack pointer into savedLocal. Call
// this once, first, in every generated function that allocates in-memory
// scratch (directly or transitively, e.g. via a call to a function that
// does).
func (a *Allocator) EnterFunction(savedLocal uint32) []instruction.Instruction {
	return []instruction.Instruction{
		instruction.GetGlobal{Index: a.StackPointerGlobal},
		instruction.SetLocal{Index: savedLocal},
	}
}

// ExitFunction restores the stack pointer from savedLocal, reclaiming
// every allocation the function made (and everything any function it
// called made, transitively) in one step. Call this on every exit path,
// including early returns from Unwrap!/short-return forms.
func (a *Allocator) ExitFunction(savedLocal uint32) []instruction.Instruction {
	return []instruction.Instruction{
		instruction.GetLocal{Index: savedLocal},
		instruction.SetGlobal{Index: a.StackPointerGlobal},
	}
}

// Alloc reserves a fixed, compile-time-known number of bytes, leaving the
// base offset (the stack pointer's value before this allocation) in
// resultLocal. The stack pointer is then advanced by size.
func (a *Allocator) Alloc(resultLocal uint32, size uint32) []instruction.Instruction {
	return []instruction.Instruction{
		instruction.GetGlobal{Index: a.StackPointerGlobal},
		instruction.SetLocal{Index: resultLocal},
		instruction.GetGlobal{Index: a.StackPointerGlobal},
		instruction.I32Const{Value: int32(size)},
		instruction.I32Add{},
		instruction.SetGlobal{Index: a.StackPointerGlobal},
	}
}

// AllocDynamic is Alloc for a size only known at run time (e.g. Filter's
// output region, sized by a runtime element count). sizeInstrs must leave
// exactly one i32 — the byte size to reserve — on the stack.
func (a *Allocator) AllocDynamic(resultLocal uint32, sizeInstrs []instruction.Instruction) []instruction.Instruction {
	out := []instruction.Instruction{
		instruction.GetGlobal{Index: a.StackPointerGlobal},
		instruction.SetLocal{Index: resultLocal},
		instruction.GetGlobal{Index: a.StackPointerGlobal},
	}
	out = append(out, sizeInstrs...)
	out = append(out,
		instruction.I32Add{},
		instruction.SetGlobal{Index: a.StackPointerGlobal},
	)
	return out
}
