// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package marshal implements the two operations of Value Marshalling
// (§4.8): Write copies a value's flat slots from locals into linear
// memory at a fixed, statically-known layout; Read is its exact inverse.
//
// The layout Write/Read use is the fixed-width, pad-aware in-memory
// form: every slot of claritype.Type.Slots() occupies a fixed byte width
// (4 for i32, 8 for i64) at a statically-known running offset, in slot
// order. Because Slots() already flattens Optional/Response/Tuple into
// one ordered sequence (a variant tag slot followed by every arm's
// slots, for Optional/Response), this is also exactly how an inactive
// Optional/Response arm is padded: its slots still occupy their offset,
// holding whatever bytes were last written there (typically zero, from
// a fresh call-stack allocation), so every instance of a given type
// claims the same fixed region regardless of which arm is active. This
// is distinct from claritype.Serialize, which is consensus-critical and
// variable-length, emitting only the active arm.
package marshal

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

func slotWidth(vt types.ValueType) uint32 {
	if vt == types.I64 {
		return 8
	}
	return 4
}

// Write emits instructions storing t's flat slots (held in valueLocals,
// one local per entry of t.Slots(), in order) into linear memory at
// addrLocal + a running per-slot offset. It never touches an in-memory
// type's payload, only its (offset, length) pointer pair — callers that
// need a deep copy of a buffer/string/list/principal's payload must copy
// those bytes themselves (e.g. via internal/codegen's list construction
// and filter lowering, which already own the byte-for-byte copy loop).
func Write(addrLocal uint32, valueLocals []uint32, t claritype.Type) []instruction.Instruction {
	slots := t.Slots()
	var out []instruction.Instruction
	var offset uint32
	for i, slot := range slots {
		out = append(out, instruction.GetLocal{Index: addrLocal})
		out = append(out, instruction.GetLocal{Index: valueLocals[i]})
		if slot == types.I64 {
			out = append(out, instruction.I64Store{Offset: offset})
		} else {
			out = append(out, instruction.I32Store{Offset: offset})
		}
		offset += slotWidth(slot)
	}
	return out
}

// Read emits instructions loading t's flat slots from linear memory at
// addrLocal + a running per-slot offset, storing each into the matching
// entry of destLocals (one per entry of t.Slots(), in order, already
// allocated by the caller).
func Read(addrLocal uint32, destLocals []uint32, t claritype.Type) []instruction.Instruction {
	slots := t.Slots()
	var out []instruction.Instruction
	var offset uint32
	for i, slot := range slots {
		out = append(out, instruction.GetLocal{Index: addrLocal})
		if slot == types.I64 {
			out = append(out, instruction.I64Load{Offset: offset})
		} else {
			out = append(out, instruction.I32Load{Offset: offset})
		}
		out = append(out, instruction.SetLocal{Index: destLocals[i]})
		offset += slotWidth(slot)
	}
	return out
}

// Size is the fixed byte width Write/Read's layout occupies for t —
// the same value as claritype.Type.FlatWordSize, re-exported here since
// callers allocating a destination region for Write naturally reach for
// this package first.
func Size(t claritype.Type) uint32 {
	return t.FlatWordSize()
}
