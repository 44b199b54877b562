// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stackalloc

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
)

func TestEnterExitSymmetry(t *testing.T) {
	a := New(3)
	enter := a.EnterFunction(10)
	exit := a.ExitFunction(10)

	if len(enter) != 2 || len(exit) != 2 {
		t.Fatalf("enter/exit should each be 2 instructions, got %d/%d", len(enter), len(exit))
	}
	if _, ok := enter[0].(instruction.GetGlobal); !ok {
		t.Fatalf("enter[0] = %T, want GetGlobal", enter[0])
	}
	if _, ok := exit[1].(instruction.SetGlobal); !ok {
		t.Fatalf("exit[1] = %T, want SetGlobal", exit[1])
	}
}

func TestAllocAdvancesBySize(t *testing.T) {
	a := New(3)
	instrs := a.Alloc(5, 32)
	last3 := instrs[len(instrs)-3:]
	constInstr, ok := last3[0].(instruction.I32Const)
	if !ok || constInstr.Value != 32 {
		t.Fatalf("expected I32Const{32} before the add/store, got %#v", last3[0])
	}
	if _, ok := last3[1].(instruction.I32Add); !ok {
		t.Fatalf("expected I32Add, got %T", last3[1])
	}
	if g, ok := last3[2].(instruction.SetGlobal); !ok || g.Index != 3 {
		t.Fatalf("expected SetGlobal{3}, got %#v", last3[2])
	}
}

func TestAllocDynamicSplicesSizeInstrs(t *testing.T) {
	a := New(0)
	size := []instruction.Instruction{instruction.GetLocal{Index: 7}}
	instrs := a.AllocDynamic(1, size)

	found := false
	for _, ins := range instrs {
		if gl, ok := ins.(instruction.GetLocal); ok && gl.Index == 7 {
			found = true
		}
	}
	if !found {
		t.Fatalf("AllocDynamic did not splice in the size instructions: %#v", instrs)
	}
}
