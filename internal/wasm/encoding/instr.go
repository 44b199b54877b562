// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

func f64FromLEBytes(buf [8]byte) float64 {
	bits := binary.LittleEndian.Uint64(buf[:])
	return math.Float64frombits(bits)
}

// writeBlockType encodes a BlockType. The empty and single-value forms
// inline their value per the Wasm spec (0x40 for empty, the value type
// byte otherwise); a multi-value result references typeIndex, resolved by
// the caller against the module's type section.
func writeBlockType(w io.ByteWriter, bt types.BlockType, typeIndexOf func(results []types.ValueType) (uint32, error)) error {
	switch len(bt.Results) {
	case 0:
		return w.WriteByte(0x40)
	case 1:
		return w.WriteByte(byte(bt.Results[0]))
	default:
		idx, err := typeIndexOf(bt.Results)
		if err != nil {
			return err
		}
		return writeVarint(w, int64(idx), 33)
	}
}

// encodeInstrs writes a flat sequence of instructions (without a
// terminating "end") to w.
func encodeInstrs(w io.ByteWriter, instrs []instruction.Instruction, typeIndexOf func([]types.ValueType) (uint32, error)) error {
	for _, instr := range instrs {
		if err := encodeInstr(w, instr, typeIndexOf); err != nil {
			return err
		}
	}
	return nil
}

func encodeInstr(w io.ByteWriter, instr instruction.Instruction, typeIndexOf func([]types.ValueType) (uint32, error)) error {
	switch ins := instr.(type) {
	case instruction.Block:
		if err := w.WriteByte(byte(opcode.Block)); err != nil {
			return err
		}
		if err := writeBlockType(w, ins.BlockType, typeIndexOf); err != nil {
			return err
		}
		if err := encodeInstrs(w, ins.Instrs, typeIndexOf); err != nil {
			return err
		}
		return w.WriteByte(byte(opcode.End))
	case instruction.Loop:
		if err := w.WriteByte(byte(opcode.Loop)); err != nil {
			return err
		}
		if err := writeBlockType(w, ins.BlockType, typeIndexOf); err != nil {
			return err
		}
		if err := encodeInstrs(w, ins.Instrs, typeIndexOf); err != nil {
			return err
		}
		return w.WriteByte(byte(opcode.End))
	case instruction.If:
		if err := w.WriteByte(byte(opcode.If)); err != nil {
			return err
		}
		if err := writeBlockType(w, ins.BlockType, typeIndexOf); err != nil {
			return err
		}
		if err := encodeInstrs(w, ins.Then, typeIndexOf); err != nil {
			return err
		}
		if len(ins.Else) > 0 {
			if err := w.WriteByte(byte(opcode.Else)); err != nil {
				return err
			}
			if err := encodeInstrs(w, ins.Else, typeIndexOf); err != nil {
				return err
			}
		}
		return w.WriteByte(byte(opcode.End))
	default:
		return encodeFlatInstr(w, instr)
	}
}

// encodeFlatInstr encodes any non-structured instruction by its opcode
// followed by its type-switched immediate arguments.
func encodeFlatInstr(w io.ByteWriter, instr instruction.Instruction) error {
	if err := w.WriteByte(byte(instr.Op())); err != nil {
		return err
	}
	for _, arg := range instr.ImmediateArgs() {
		switch v := arg.(type) {
		case int32:
			if err := writeVarint(w, int64(v), 32); err != nil {
				return err
			}
		case int64:
			if err := writeVarint(w, v, 64); err != nil {
				return err
			}
		case uint32:
			if err := writeUvarint(w, uint64(v)); err != nil {
				return err
			}
		case []uint32:
			if err := writeUvarint(w, uint64(len(v))); err != nil {
				return err
			}
			for _, t := range v {
				if err := writeUvarint(w, uint64(t)); err != nil {
					return err
				}
			}
		case float64:
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			for _, b := range buf {
				if err := w.WriteByte(b); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("encoding: unsupported immediate type %T for opcode %#x", arg, instr.Op())
		}
	}
	return nil
}
