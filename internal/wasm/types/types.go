// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package types defines the WebAssembly value and block types used to
// describe function signatures, locals, and globals.
package types

// ValueType is a WebAssembly value type.
type ValueType byte

const (
	I32 ValueType = 0x7f
	I64 ValueType = 0x7e
	F32 ValueType = 0x7d
	F64 ValueType = 0x7c
)

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// BlockType describes the result signature of a structured control
// instruction (block, loop, if). A Clarity value generally lowers to more
// than one Wasm slot (see claritype.Slots), so block results are encoded
// against the multi-value extension to the Wasm MVP: a block producing zero
// slots has an empty Results, a block producing one slot encodes its type
// inline, and a block producing two or more slots references a function
// type registered in the module's type section purely to describe the
// block's signature (no function of that type is ever called).
type BlockType struct {
	Results []ValueType
}

// Empty reports whether the block produces no result.
func (b BlockType) Empty() bool {
	return len(b.Results) == 0
}
