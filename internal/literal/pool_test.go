// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package literal

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

func TestInternDedup(t *testing.T) {
	p := NewPool(4096)

	a := p.Intern(claritype.KindBuffer, true, []byte("hello"))
	b := p.Intern(claritype.KindBuffer, true, []byte("hello"))
	if a != b {
		t.Fatalf("identical (kind, content) interned twice produced different literals: %+v vs %+v", a, b)
	}

	c := p.Intern(claritype.KindStringAscii, true, []byte("hello"))
	if c.Offset == a.Offset {
		t.Fatalf("different kinds with identical bytes aliased at offset %d", a.Offset)
	}
}

func TestInternReferenceCell(t *testing.T) {
	p := NewPool(4096)
	lit := p.Intern(claritype.KindBuffer, true, []byte{1, 2, 3, 4})
	if !lit.HasRef {
		t.Fatalf("in-memory literal missing reference cell")
	}
	if lit.RefOffset != lit.Offset+lit.Length {
		t.Fatalf("reference cell not placed immediately after payload: offset=%d length=%d refOffset=%d",
			lit.Offset, lit.Length, lit.RefOffset)
	}
	if p.Size() != lit.Length+8 {
		t.Fatalf("pool size = %d, want %d", p.Size(), lit.Length+8)
	}
}

func TestInternNoReferenceCellForFlatTypes(t *testing.T) {
	p := NewPool(0)
	lit := p.Intern(claritype.KindInt, false, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0, 0, 0, 0, 0})
	if lit.HasRef {
		t.Fatalf("flat-typed literal unexpectedly got a reference cell")
	}
	if p.Size() != 16 {
		t.Fatalf("pool size = %d, want 16", p.Size())
	}
}

func TestInternValueRoundTrip(t *testing.T) {
	p := NewPool(4096)
	v := claritype.BufferValue{Cap: 3, Bytes: []byte{9, 8, 7}}
	lit, err := p.InternValue(v.Type(), v)
	if err != nil {
		t.Fatalf("InternValue: %v", err)
	}
	seg := p.DataSegment()
	got := seg.Init[lit.Offset-p.Base : lit.Offset-p.Base+lit.Length]
	if string(got) != string(v.Bytes) {
		t.Fatalf("data segment payload = %x, want %x", got, v.Bytes)
	}
}

func TestDataSegmentOffset(t *testing.T) {
	p := NewPool(8192)
	p.Intern(claritype.KindBuffer, false, []byte{1})
	seg := p.DataSegment()
	instrs := seg.Offset.Instrs
	if len(instrs) != 1 {
		t.Fatalf("expected a single offset instruction, got %d", len(instrs))
	}
}
