// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package encoding

import (
	"fmt"
	"io"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// instrDecoder decodes instruction sequences against a module's type
// section, needed to resolve multi-value block type indices back into a
// BlockType's Results.
type instrDecoder struct {
	types []module.FunctionType
}

func (d *instrDecoder) readBlockType(r io.ByteReader) (types.BlockType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return types.BlockType{}, err
	}
	switch {
	case b == 0x40:
		return types.BlockType{}, nil
	case b == byte(types.I32) || b == byte(types.I64) || b == byte(types.F32) || b == byte(types.F64):
		return types.BlockType{Results: []types.ValueType{types.ValueType(b)}}, nil
	default:
		// signed LEB128 type index: b was the first byte, continue reading.
		idx, err := continueVarint(r, int64(int8(b&0x7f)), b)
		if err != nil {
			return types.BlockType{}, err
		}
		if idx < 0 || int(idx) >= len(d.types) {
			return types.BlockType{}, fmt.Errorf("encoding: block type index %d out of range", idx)
		}
		return types.BlockType{Results: d.types[idx].Results}, nil
	}
}

// continueVarint finishes decoding a signed LEB128 whose first byte has
// already been consumed (as firstByte, with firstVal its low 7 bits
// sign-extended as if it were the whole value).
func continueVarint(r io.ByteReader, firstVal int64, firstByte byte) (int64, error) {
	if firstByte&0x80 == 0 {
		return firstVal, nil
	}
	result := int64(firstByte & 0x7f)
	shift := uint(7)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
}

// decodeInstrs reads instructions until it encounters End (0x0b) or Else
// (0x05) at the current nesting depth, consuming that terminator and
// returning it so callers (If) can tell which one ended the sequence.
func (d *instrDecoder) decodeInstrs(r io.ByteReader) ([]instruction.Instruction, byte, error) {
	var out []instruction.Instruction
	for {
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, 0, err
		}
		if opByte == byte(opcode.End) || opByte == byte(opcode.Else) {
			return out, opByte, nil
		}
		instr, err := d.decodeOne(opByte, r)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, instr)
	}
}

func (d *instrDecoder) decodeOne(opByte byte, r io.ByteReader) (instruction.Instruction, error) {
	op := opcode.Opcode(opByte)
	switch op {
	case opcode.Block, opcode.Loop:
		bt, err := d.readBlockType(r)
		if err != nil {
			return nil, err
		}
		body, term, err := d.decodeInstrs(r)
		if err != nil {
			return nil, err
		}
		if term != byte(opcode.End) {
			return nil, fmt.Errorf("encoding: block/loop terminated by else")
		}
		if op == opcode.Block {
			return instruction.Block{BlockType: bt, Instrs: body}, nil
		}
		return instruction.Loop{BlockType: bt, Instrs: body}, nil
	case opcode.If:
		bt, err := d.readBlockType(r)
		if err != nil {
			return nil, err
		}
		then, term, err := d.decodeInstrs(r)
		if err != nil {
			return nil, err
		}
		var els []instruction.Instruction
		if term == byte(opcode.Else) {
			els, term, err = d.decodeInstrs(r)
			if err != nil {
				return nil, err
			}
		}
		if term != byte(opcode.End) {
			return nil, fmt.Errorf("encoding: if not terminated by end")
		}
		return instruction.If{BlockType: bt, Then: then, Else: els}, nil
	}
	return decodeFlat(op, r)
}

func u32(r io.ByteReader) (uint32, error) {
	v, err := readUvarint(r)
	return uint32(v), err
}

// decodeFlat decodes any non-structured instruction: an already-consumed
// opcode plus its immediates, read back in the exact shapes encodeFlatInstr
// wrote them.
func decodeFlat(op opcode.Opcode, r io.ByteReader) (instruction.Instruction, error) {
	switch op {
	case opcode.Unreachable:
		return instruction.Unreachable{}, nil
	case opcode.Nop:
		return instruction.Nop{}, nil
	case opcode.Return:
		return instruction.Return{}, nil
	case opcode.Drop:
		return instruction.Drop{}, nil
	case opcode.Br:
		idx, err := u32(r)
		return instruction.Br{Index: idx}, err
	case opcode.BrIf:
		idx, err := u32(r)
		return instruction.BrIf{Index: idx}, err
	case opcode.BrTable:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		targets := make([]uint32, n)
		for i := range targets {
			if targets[i], err = u32(r); err != nil {
				return nil, err
			}
		}
		def, err := u32(r)
		return instruction.BrTable{Targets: targets, Default: def}, err
	case opcode.Call:
		idx, err := u32(r)
		return instruction.Call{Index: idx}, err
	case opcode.CallIndirect:
		typeIdx, err := u32(r)
		if err != nil {
			return nil, err
		}
		if _, err := u32(r); err != nil { // table index, always 0
			return nil, err
		}
		return instruction.CallIndirect{TypeIndex: typeIdx}, nil
	case opcode.GetLocal:
		idx, err := u32(r)
		return instruction.GetLocal{Index: idx}, err
	case opcode.SetLocal:
		idx, err := u32(r)
		return instruction.SetLocal{Index: idx}, err
	case opcode.TeeLocal:
		idx, err := u32(r)
		return instruction.TeeLocal{Index: idx}, err
	case opcode.GetGlobal:
		idx, err := u32(r)
		return instruction.GetGlobal{Index: idx}, err
	case opcode.SetGlobal:
		idx, err := u32(r)
		return instruction.SetGlobal{Index: idx}, err
	case opcode.I32Load:
		align, offset, err := readMemArg(r)
		return instruction.I32Load{Align: align, Offset: offset}, err
	case opcode.I64Load:
		align, offset, err := readMemArg(r)
		return instruction.I64Load{Align: align, Offset: offset}, err
	case opcode.I32Load8U:
		align, offset, err := readMemArg(r)
		return instruction.I32Load8U{Align: align, Offset: offset}, err
	case opcode.I32Store:
		align, offset, err := readMemArg(r)
		return instruction.I32Store{Align: align, Offset: offset}, err
	case opcode.I64Store:
		align, offset, err := readMemArg(r)
		return instruction.I64Store{Align: align, Offset: offset}, err
	case opcode.I32Store8:
		align, offset, err := readMemArg(r)
		return instruction.I32Store8{Align: align, Offset: offset}, err
	case opcode.MemorySize:
		if _, err := r.ReadByte(); err != nil { // reserved byte
			return nil, err
		}
		return instruction.MemorySize{}, nil
	case opcode.MemoryGrow:
		if _, err := r.ReadByte(); err != nil {
			return nil, err
		}
		return instruction.MemoryGrow{}, nil
	case opcode.I32Const:
		v, err := readVarint(r, 32)
		return instruction.I32Const{Value: int32(v)}, err
	case opcode.I64Const:
		v, err := readVarint(r, 64)
		return instruction.I64Const{Value: v}, err
	case opcode.F64Const:
		v, err := readF64(r)
		return instruction.F64Const{Value: v}, err
	case opcode.I32Eqz:
		return instruction.I32Eqz{}, nil
	case opcode.I32Eq:
		return instruction.I32Eq{}, nil
	case opcode.I32Ne:
		return instruction.I32Ne{}, nil
	case opcode.I32LtS:
		return instruction.I32LtS{}, nil
	case opcode.I32GtS:
		return instruction.I32GtS{}, nil
	case opcode.I32LeS:
		return instruction.I32LeS{}, nil
	case opcode.I32GeS:
		return instruction.I32GeS{}, nil
	case opcode.I32LtU:
		return instruction.I32LtU{}, nil
	case opcode.I32GeU:
		return instruction.I32GeU{}, nil
	case opcode.I64Eqz:
		return instruction.I64Eqz{}, nil
	case opcode.I64Eq:
		return instruction.I64Eq{}, nil
	case opcode.I64Ne:
		return instruction.I64Ne{}, nil
	case opcode.I64LtS:
		return instruction.I64LtS{}, nil
	case opcode.I64LtU:
		return instruction.I64LtU{}, nil
	case opcode.I64GeU:
		return instruction.I64GeU{}, nil
	case opcode.I32Add:
		return instruction.I32Add{}, nil
	case opcode.I32Sub:
		return instruction.I32Sub{}, nil
	case opcode.I32Mul:
		return instruction.I32Mul{}, nil
	case opcode.I32And:
		return instruction.I32And{}, nil
	case opcode.I32Or:
		return instruction.I32Or{}, nil
	case opcode.I32Xor:
		return instruction.I32Xor{}, nil
	case opcode.I32ShrU:
		return instruction.I32ShrU{}, nil
	case opcode.I32Shl:
		return instruction.I32Shl{}, nil
	case opcode.I64Add:
		return instruction.I64Add{}, nil
	case opcode.I64Sub:
		return instruction.I64Sub{}, nil
	case opcode.I64Mul:
		return instruction.I64Mul{}, nil
	case opcode.I64DivU:
		return instruction.I64DivU{}, nil
	case opcode.I64DivS:
		return instruction.I64DivS{}, nil
	case opcode.I64RemU:
		return instruction.I64RemU{}, nil
	case opcode.I64RemS:
		return instruction.I64RemS{}, nil
	case opcode.I64LeU:
		return instruction.I64LeU{}, nil
	case opcode.I64GtU:
		return instruction.I64GtU{}, nil
	case opcode.I64LeS:
		return instruction.I64LeS{}, nil
	case opcode.I64GtS:
		return instruction.I64GtS{}, nil
	case opcode.I64And:
		return instruction.I64And{}, nil
	case opcode.I64Or:
		return instruction.I64Or{}, nil
	case opcode.I64Xor:
		return instruction.I64Xor{}, nil
	case opcode.I64ShrU:
		return instruction.I64ShrU{}, nil
	case opcode.I64Shl:
		return instruction.I64Shl{}, nil
	case opcode.I64ShrS:
		return instruction.I64ShrS{}, nil
	case opcode.I32WrapI64:
		return instruction.I32WrapI64{}, nil
	case opcode.I64ExtendI32S:
		return instruction.I64ExtendI32S{}, nil
	case opcode.I64ExtendI32U:
		return instruction.I64ExtendI32U{}, nil
	case opcode.F64ConvertI64S:
		return instruction.F64ConvertI64S{}, nil
	case opcode.I64TruncF64S:
		return instruction.I64TruncF64S{}, nil
	case opcode.F64Sqrt:
		return instruction.F64Sqrt{}, nil
	case opcode.F64Mul:
		return instruction.F64Mul{}, nil
	case opcode.F64Div:
		return instruction.F64Div{}, nil
	default:
		return nil, fmt.Errorf("encoding: unsupported opcode %#x", byte(op))
	}
}

func readMemArg(r io.ByteReader) (align, offset uint32, err error) {
	align, err = u32(r)
	if err != nil {
		return 0, 0, err
	}
	offset, err = u32(r)
	return align, offset, err
}

func readF64(r io.ByteReader) (float64, error) {
	var buf [8]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return f64FromLEBytes(buf), nil
}
