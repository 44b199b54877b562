// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package literal implements the literal pool: an ordered, de-duplicated
// set of constant byte regions placed in the module's data section, each
// returning an (offset, length) for the code generator to reference.
package literal

import (
	"bytes"
	"encoding/binary"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
)

// Literal is one interned constant: its payload's location, and, for an
// in-memory-typed literal, the location of the extra 8-byte (offset,
// length) reference cell that lets generated code treat it exactly like
// any other in-memory value's flat slots.
type Literal struct {
	Offset uint32
	Length uint32

	HasRef    bool
	RefOffset uint32
}

type dedupKey struct {
	kind    claritype.Kind
	content string
}

// Pool accumulates literal content starting at Base, the first free
// offset past the reserved low region and any earlier pool. Deduplication
// is keyed on content plus source type kind, so a buffer and a string
// with identical bytes never alias.
type Pool struct {
	Base uint32

	buf   bytes.Buffer
	index map[dedupKey]Literal
}

func NewPool(base uint32) *Pool {
	return &Pool{Base: base, index: make(map[dedupKey]Literal)}
}

// Intern reserves content in the pool (or returns the existing entry, if
// this exact (kind, content) pair was interned before). When inMemory is
// true, a second 8-byte reference cell is reserved immediately after the
// payload so the literal's flat representation is a plain (offset,
// length) pair, indistinguishable from a non-literal in-memory value.
func (p *Pool) Intern(kind claritype.Kind, inMemory bool, content []byte) Literal {
	key := dedupKey{kind: kind, content: string(content)}
	if lit, ok := p.index[key]; ok {
		return lit
	}

	offset := p.Base + uint32(p.buf.Len())
	p.buf.Write(content)

	lit := Literal{Offset: offset, Length: uint32(len(content))}
	if inMemory {
		lit.RefOffset = p.Base + uint32(p.buf.Len())
		lit.HasRef = true
		var cell [8]byte
		binary.LittleEndian.PutUint32(cell[0:4], offset)
		binary.LittleEndian.PutUint32(cell[4:8], lit.Length)
		p.buf.Write(cell[:])
	}

	p.index[key] = lit
	return lit
}

// InternValue serializes v per t's canonical Type Layout rules and
// interns the result.
func (p *Pool) InternValue(t claritype.Type, v claritype.Value) (Literal, error) {
	content, err := claritype.Serialize(v)
	if err != nil {
		return Literal{}, err
	}
	return p.Intern(t.Kind, t.IsInMemory(), content), nil
}

// Size reports the pool's current total size in bytes.
func (p *Pool) Size() uint32 {
	return uint32(p.buf.Len())
}

// DataSegment returns a module.DataSegment initializing the pool's region
// of linear memory, for the generator to append to the module under
// construction.
func (p *Pool) DataSegment() module.DataSegment {
	return module.DataSegment{
		Index: 0,
		Offset: module.Expr{
			Instrs: []instruction.Instruction{instruction.I32Const{Value: int32(p.Base)}},
		},
		Init: append([]byte{}, p.buf.Bytes()...),
	}
}
