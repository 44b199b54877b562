// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package instruction

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
)

// I32Const represents the WASM i32.const instruction.
type I32Const struct {
	Value int32
}

func (I32Const) Op() opcode.Opcode { return opcode.I32Const }

func (i I32Const) ImmediateArgs() []interface{} { return []interface{}{i.Value} }

// I64Const represents the WASM i64.const instruction.
type I64Const struct {
	Value int64
}

func (I64Const) Op() opcode.Opcode { return opcode.I64Const }

func (i I64Const) ImmediateArgs() []interface{} { return []interface{}{i.Value} }

// F64Const represents the WASM f64.const instruction. The standard
// library's sqrti/log2 helpers compute in integers and do not emit it.
type F64Const struct {
	Value float64
}

func (F64Const) Op() opcode.Opcode { return opcode.F64Const }

func (i F64Const) ImmediateArgs() []interface{} { return []interface{}{i.Value} }

// Comparison and equality-to-zero.
type I32Eqz struct{ NoImmediateArgs }

func (I32Eqz) Op() opcode.Opcode { return opcode.I32Eqz }

type I32Eq struct{ NoImmediateArgs }

func (I32Eq) Op() opcode.Opcode { return opcode.I32Eq }

type I32Ne struct{ NoImmediateArgs }

func (I32Ne) Op() opcode.Opcode { return opcode.I32Ne }

type I32LtS struct{ NoImmediateArgs }

func (I32LtS) Op() opcode.Opcode { return opcode.I32LtS }

type I32GtS struct{ NoImmediateArgs }

func (I32GtS) Op() opcode.Opcode { return opcode.I32GtS }

type I32LeS struct{ NoImmediateArgs }

func (I32LeS) Op() opcode.Opcode { return opcode.I32LeS }

type I32GeS struct{ NoImmediateArgs }

func (I32GeS) Op() opcode.Opcode { return opcode.I32GeS }

type I32LtU struct{ NoImmediateArgs }

func (I32LtU) Op() opcode.Opcode { return opcode.I32LtU }

type I32GeU struct{ NoImmediateArgs }

func (I32GeU) Op() opcode.Opcode { return opcode.I32GeU }

type I64Eqz struct{ NoImmediateArgs }

func (I64Eqz) Op() opcode.Opcode { return opcode.I64Eqz }

type I64Eq struct{ NoImmediateArgs }

func (I64Eq) Op() opcode.Opcode { return opcode.I64Eq }

type I64Ne struct{ NoImmediateArgs }

func (I64Ne) Op() opcode.Opcode { return opcode.I64Ne }

type I64LtS struct{ NoImmediateArgs }

func (I64LtS) Op() opcode.Opcode { return opcode.I64LtS }

type I64LtU struct{ NoImmediateArgs }

func (I64LtU) Op() opcode.Opcode { return opcode.I64LtU }

type I64GeU struct{ NoImmediateArgs }

func (I64GeU) Op() opcode.Opcode { return opcode.I64GeU }

// Arithmetic and bitwise, i32.
type I32Add struct{ NoImmediateArgs }

func (I32Add) Op() opcode.Opcode { return opcode.I32Add }

type I32Sub struct{ NoImmediateArgs }

func (I32Sub) Op() opcode.Opcode { return opcode.I32Sub }

type I32Mul struct{ NoImmediateArgs }

func (I32Mul) Op() opcode.Opcode { return opcode.I32Mul }

type I32And struct{ NoImmediateArgs }

func (I32And) Op() opcode.Opcode { return opcode.I32And }

type I32Or struct{ NoImmediateArgs }

func (I32Or) Op() opcode.Opcode { return opcode.I32Or }

type I32Xor struct{ NoImmediateArgs }

func (I32Xor) Op() opcode.Opcode { return opcode.I32Xor }

type I32ShrU struct{ NoImmediateArgs }

func (I32ShrU) Op() opcode.Opcode { return opcode.I32ShrU }

type I32Shl struct{ NoImmediateArgs }

func (I32Shl) Op() opcode.Opcode { return opcode.I32Shl }

// Arithmetic and bitwise, i64.
type I64Add struct{ NoImmediateArgs }

func (I64Add) Op() opcode.Opcode { return opcode.I64Add }

type I64Sub struct{ NoImmediateArgs }

func (I64Sub) Op() opcode.Opcode { return opcode.I64Sub }

type I64Mul struct{ NoImmediateArgs }

func (I64Mul) Op() opcode.Opcode { return opcode.I64Mul }

type I64DivU struct{ NoImmediateArgs }

func (I64DivU) Op() opcode.Opcode { return opcode.I64DivU }

type I64DivS struct{ NoImmediateArgs }

func (I64DivS) Op() opcode.Opcode { return opcode.I64DivS }

type I64RemU struct{ NoImmediateArgs }

func (I64RemU) Op() opcode.Opcode { return opcode.I64RemU }

type I64RemS struct{ NoImmediateArgs }

func (I64RemS) Op() opcode.Opcode { return opcode.I64RemS }

type I64LeU struct{ NoImmediateArgs }

func (I64LeU) Op() opcode.Opcode { return opcode.I64LeU }

type I64GtU struct{ NoImmediateArgs }

func (I64GtU) Op() opcode.Opcode { return opcode.I64GtU }

type I64LeS struct{ NoImmediateArgs }

func (I64LeS) Op() opcode.Opcode { return opcode.I64LeS }

type I64GtS struct{ NoImmediateArgs }

func (I64GtS) Op() opcode.Opcode { return opcode.I64GtS }

type I64And struct{ NoImmediateArgs }

func (I64And) Op() opcode.Opcode { return opcode.I64And }

type I64Or struct{ NoImmediateArgs }

func (I64Or) Op() opcode.Opcode { return opcode.I64Or }

type I64Xor struct{ NoImmediateArgs }

func (I64Xor) Op() opcode.Opcode { return opcode.I64Xor }

type I64ShrU struct{ NoImmediateArgs }

func (I64ShrU) Op() opcode.Opcode { return opcode.I64ShrU }

type I64Shl struct{ NoImmediateArgs }

func (I64Shl) Op() opcode.Opcode { return opcode.I64Shl }

type I64ShrS struct{ NoImmediateArgs }

func (I64ShrS) Op() opcode.Opcode { return opcode.I64ShrS }

// Conversions. The stdlib's add/sub helpers use I64ExtendI32U to widen a
// carry or borrow flag; the others are not emitted.
type I32WrapI64 struct{ NoImmediateArgs }

func (I32WrapI64) Op() opcode.Opcode { return opcode.I32WrapI64 }

type I64ExtendI32S struct{ NoImmediateArgs }

func (I64ExtendI32S) Op() opcode.Opcode { return opcode.I64ExtendI32S }

type I64ExtendI32U struct{ NoImmediateArgs }

func (I64ExtendI32U) Op() opcode.Opcode { return opcode.I64ExtendI32U }

type F64ConvertI64S struct{ NoImmediateArgs }

func (F64ConvertI64S) Op() opcode.Opcode { return opcode.F64ConvertI64S }

type I64TruncF64S struct{ NoImmediateArgs }

func (I64TruncF64S) Op() opcode.Opcode { return opcode.I64TruncF64S }

type F64Sqrt struct{ NoImmediateArgs }

func (F64Sqrt) Op() opcode.Opcode { return opcode.F64Sqrt }

type F64Mul struct{ NoImmediateArgs }

func (F64Mul) Op() opcode.Opcode { return opcode.F64Mul }

type F64Div struct{ NoImmediateArgs }

func (F64Div) Op() opcode.Opcode { return opcode.F64Div }
