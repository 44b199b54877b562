// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package marshal

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
)

func TestWriteEmitsOneStorePerSlot(t *testing.T) {
	ty := claritype.Int() // two i64 slots
	instrs := Write(0, []uint32{1, 2}, ty)

	var stores int
	for _, in := range instrs {
		if _, ok := in.(instruction.I64Store); ok {
			stores++
		}
	}
	if stores != 2 {
		t.Fatalf("got %d I64Store instructions, want 2", stores)
	}
}

func TestWriteReadOffsetsMatch(t *testing.T) {
	ty := claritype.Response(claritype.UInt(), claritype.Bool())
	writeInstrs := Write(0, []uint32{1, 2, 3, 4}, ty)
	readInstrs := Read(0, []uint32{5, 6, 7, 8}, ty)

	var writeOffsets, readOffsets []uint32
	for _, in := range writeInstrs {
		switch s := in.(type) {
		case instruction.I32Store:
			writeOffsets = append(writeOffsets, s.Offset)
		case instruction.I64Store:
			writeOffsets = append(writeOffsets, s.Offset)
		}
	}
	for _, in := range readInstrs {
		switch s := in.(type) {
		case instruction.I32Load:
			readOffsets = append(readOffsets, s.Offset)
		case instruction.I64Load:
			readOffsets = append(readOffsets, s.Offset)
		}
	}
	if len(writeOffsets) != len(readOffsets) {
		t.Fatalf("write touched %d offsets, read touched %d", len(writeOffsets), len(readOffsets))
	}
	for i := range writeOffsets {
		if writeOffsets[i] != readOffsets[i] {
			t.Errorf("offset %d: write=%d read=%d", i, writeOffsets[i], readOffsets[i])
		}
	}
}

func TestSizeMatchesFlatWordSize(t *testing.T) {
	ty := claritype.Tuple(
		claritype.TupleField{Name: "a", Type: claritype.UInt()},
		claritype.TupleField{Name: "b", Type: claritype.Bool()},
	)
	if Size(ty) != ty.FlatWordSize() {
		t.Fatalf("Size() = %d, want %d", Size(ty), ty.FlatWordSize())
	}
}
