// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stdlib

import (
	"math"

	"github.com/BowTiedWoo/clarity-wasm/internal/errormapping"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// localBuilder assigns sequential local indices past a function's
// parameters and records their declared types for the final
// LocalDeclaration run-length encoding the binary format requires.
type localBuilder struct {
	next  uint32
	decls []types.ValueType
}

func newLocalBuilder(paramCount int) *localBuilder {
	return &localBuilder{next: uint32(paramCount)}
}

func (lb *localBuilder) add(vt types.ValueType) uint32 {
	idx := lb.next
	lb.next++
	lb.decls = append(lb.decls, vt)
	return idx
}

// declarations run-length-encodes decls, one LocalDeclaration per
// maximal run of a single type (the binary format's preferred shape,
// matching how the teacher's own encoder groups locals).
func (lb *localBuilder) declarations() []module.LocalDeclaration {
	var out []module.LocalDeclaration
	for _, vt := range lb.decls {
		if n := len(out); n > 0 && out[n-1].Type == vt {
			out[n-1].Count++
			continue
		}
		out = append(out, module.LocalDeclaration{Count: 1, Type: vt})
	}
	return out
}

var i128Params = []types.ValueType{types.I64, types.I64, types.I64, types.I64} // a_lo, a_hi, b_lo, b_hi
var i128Results = []types.ValueType{types.I64, types.I64}

// negFlag pushes an i32 1 iff the i64 local at idx is negative (its sign
// bit, i.e. two's complement value < 0), used by the signed-overflow
// checks below.
func negFlag(idx uint32) []instruction.Instruction {
	return []instruction.Instruction{
		instruction.GetLocal{Index: idx},
		instruction.I64Const{Value: 0},
		instruction.I64LtS{},
	}
}

// buildArithmetic defines the full 128-bit arithmetic family with carry/
// borrow/overflow-correct semantics, per §4.4 and §7's "checked runtime
// errors". add/sub/mul operate on the full 128 bits of both operands.
// div/mod/pow/log2/sqrti compute on the low 64-bit word only (the high
// word is its sign or zero extension), which is exact for any operand
// that fits in 64 bits; guardFits64 traps CodeArithmeticOverflow up
// front for any operand that doesn't (pow's exponent is instead held to
// the u32 range, trapping CodePowOutOfRangeExponent), so no operand ever
// reaches the 64-bit-only computation silently truncated.
func (b *builder) buildArithmetic() {
	b.buildAddUint()
	b.buildAddInt()
	b.buildSubUint()
	b.buildSubInt()
	b.buildMulUint()
	b.buildMulInt()
	b.buildDivUint()
	b.buildDivInt()
	b.buildModUint()
	b.buildModInt()
	b.buildPow()
	b.buildLog2()
	b.buildSqrti()
}

// buildAddUint: unsigned 128-bit addition, overflow iff the carry chain
// overflows the high word.
func (b *builder) buildAddUint() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)
	carryLo := lb.add(types.I64) // stored pre-widened: always consumed by an I64Add below
	hiSum := lb.add(types.I64)
	carryHi1 := lb.add(types.I32)
	hi := lb.add(types.I64)
	carryHi2 := lb.add(types.I32)
	overflow := lb.add(types.I32)

	var body []instruction.Instruction
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64Add{},
		instruction.SetLocal{Index: lo},

		instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: 0}, instruction.I64LtU{},
		instruction.I64ExtendI32U{}, instruction.SetLocal{Index: carryLo},

		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64Add{},
		instruction.SetLocal{Index: hiSum},

		instruction.GetLocal{Index: hiSum}, instruction.GetLocal{Index: 1}, instruction.I64LtU{},
		instruction.SetLocal{Index: carryHi1},

		instruction.GetLocal{Index: hiSum}, instruction.GetLocal{Index: carryLo}, instruction.I64Add{},
		instruction.SetLocal{Index: hi},

		instruction.GetLocal{Index: hi}, instruction.GetLocal{Index: hiSum}, instruction.I64LtU{},
		instruction.SetLocal{Index: carryHi2},

		instruction.GetLocal{Index: carryHi1}, instruction.GetLocal{Index: carryHi2}, instruction.I32Or{},
		instruction.SetLocal{Index: overflow},

		instruction.GetLocal{Index: overflow},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})
	body = append(body, instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi})

	b.defineFunction("add-uint", i128Params, i128Results, lb.declarations(), body)
}

// buildAddInt: signed 128-bit addition. Overflow iff both operands share
// a sign and the result's sign differs from theirs.
func (b *builder) buildAddInt() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)
	carryLo := lb.add(types.I64)
	hi := lb.add(types.I64)
	signA := lb.add(types.I32)
	signB := lb.add(types.I32)
	signR := lb.add(types.I32)
	overflow := lb.add(types.I32)

	var body []instruction.Instruction
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64Add{},
		instruction.SetLocal{Index: lo},

		instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: 0}, instruction.I64LtU{},
		instruction.I64ExtendI32U{}, instruction.SetLocal{Index: carryLo},

		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64Add{},
		instruction.GetLocal{Index: carryLo}, instruction.I64Add{},
		instruction.SetLocal{Index: hi},
	)
	body = append(body, negFlag(1)...)
	body = append(body, instruction.SetLocal{Index: signA})
	body = append(body, negFlag(3)...)
	body = append(body, instruction.SetLocal{Index: signB})
	body = append(body, negFlag(hi)...)
	body = append(body, instruction.SetLocal{Index: signR})

	body = append(body,
		instruction.GetLocal{Index: signA}, instruction.GetLocal{Index: signB}, instruction.I32Eq{},
		instruction.GetLocal{Index: signA}, instruction.GetLocal{Index: signR}, instruction.I32Ne{},
		instruction.I32And{},
		instruction.SetLocal{Index: overflow},

		instruction.GetLocal{Index: overflow},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})
	body = append(body, instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi})

	b.defineFunction("add-int", i128Params, i128Results, lb.declarations(), body)
}

// buildSubUint: unsigned 128-bit subtraction. Underflow iff a < b (the
// same "borrow out of the top word" condition computed digit-wise below,
// equivalently the unsigned a < b comparison performed word-wise high to
// low).
func (b *builder) buildSubUint() {
	lb := newLocalBuilder(4)
	borrowLo := lb.add(types.I64) // stored pre-widened: always consumed by an I64Sub below
	lo := lb.add(types.I64)
	hi := lb.add(types.I64)
	underflow := lb.add(types.I32)

	var body []instruction.Instruction
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64LtU{},
		instruction.I64ExtendI32U{}, instruction.SetLocal{Index: borrowLo},

		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64Sub{},
		instruction.SetLocal{Index: lo},

		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64Sub{},
		instruction.GetLocal{Index: borrowLo}, instruction.I64Sub{},
		instruction.SetLocal{Index: hi},

		// underflow iff (a_hi < b_hi) or (a_hi == b_hi and a_lo < b_lo)
		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64LtU{},
		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: 3}, instruction.I64Eq{},
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64LtU{},
		instruction.I32And{},
		instruction.I32Or{},
		instruction.SetLocal{Index: underflow},

		instruction.GetLocal{Index: underflow},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticUnderflow),
	})
	body = append(body, instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi})

	b.defineFunction("sub-uint", i128Params, i128Results, lb.declarations(), body)
}

// buildSubInt: signed 128-bit subtraction, computed as a + (-b) in
// wrapping two's-complement arithmetic, which yields a - b modulo 2^128
// for every b, the minimum i128 included. The true difference is out of
// range iff a and b have different signs and the result's sign differs
// from a's; the check reads b's own sign rather than -b's, so b = minimum
// i128 (whose negation wraps to itself) needs no separate case.
func (b *builder) buildSubInt() {
	lb := newLocalBuilder(4)
	negBLo := lb.add(types.I64)
	negBHi := lb.add(types.I64)
	borrow := lb.add(types.I64)
	lo := lb.add(types.I64)
	hi := lb.add(types.I64)
	signA := lb.add(types.I32)
	signB := lb.add(types.I32)
	signR := lb.add(types.I32)
	overflow := lb.add(types.I32)

	var body []instruction.Instruction
	// (negBHi:negBLo) = two's-complement negation of (b_hi:b_lo)
	body = append(body,
		instruction.I64Const{Value: 0}, instruction.GetLocal{Index: 2}, instruction.I64Sub{},
		instruction.SetLocal{Index: negBLo},

		instruction.GetLocal{Index: negBLo}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.I64ExtendI32U{}, instruction.SetLocal{Index: borrow}, // borrow = (negBLo != 0)

		instruction.I64Const{Value: 0}, instruction.GetLocal{Index: 3}, instruction.I64Sub{},
		instruction.GetLocal{Index: borrow}, instruction.I64Sub{},
		instruction.SetLocal{Index: negBHi},
	)
	// result = a + negB, which wraps to a - b modulo 2^128
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: negBLo}, instruction.I64Add{},
		instruction.SetLocal{Index: lo},

		instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: 0}, instruction.I64LtU{},
		instruction.I64ExtendI32U{},

		instruction.GetLocal{Index: 1}, instruction.GetLocal{Index: negBHi}, instruction.I64Add{},
		instruction.I64Add{},
		instruction.SetLocal{Index: hi},
	)
	body = append(body, negFlag(1)...)
	body = append(body, instruction.SetLocal{Index: signA})
	body = append(body, negFlag(3)...)
	body = append(body, instruction.SetLocal{Index: signB})
	body = append(body, negFlag(hi)...)
	body = append(body, instruction.SetLocal{Index: signR})

	body = append(body,
		instruction.GetLocal{Index: signA}, instruction.GetLocal{Index: signB}, instruction.I32Ne{},
		instruction.GetLocal{Index: signA}, instruction.GetLocal{Index: signR}, instruction.I32Ne{},
		instruction.I32And{},
		instruction.SetLocal{Index: overflow},

		instruction.GetLocal{Index: overflow},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticUnderflow),
	})
	body = append(body, instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi})

	b.defineFunction("sub-int", i128Params, i128Results, lb.declarations(), body)
}

// extendHigh sign- or zero-extends local lo (an i64 already validated to
// be in 64-bit range by convention of this scope) into the high word of a
// flattened 128-bit result.
func extendHigh(loIdx uint32, signed bool) []instruction.Instruction {
	if !signed {
		return []instruction.Instruction{instruction.I64Const{Value: 0}}
	}
	return []instruction.Instruction{
		instruction.GetLocal{Index: loIdx},
		instruction.I64Const{Value: 63},
		instruction.I64ShrS{},
	}
}

// mulWide64 computes the full unsigned 128-bit product of the i64 locals
// at aIdx and bIdx via the 32x32 schoolbook decomposition (the same
// algorithm Go's math/bits.Mul64 uses): split each operand into 32-bit
// halves, cross-multiply, and recombine with carries. It allocates the
// locals it needs from lb and returns the product's high and low words'
// indices along with the instructions that compute them.
func mulWide64(lb *localBuilder, aIdx, bIdx uint32) (hiIdx, loIdx uint32, instrs []instruction.Instruction) {
	const mask32 = 0xffffffff

	x0 := lb.add(types.I64)
	x1 := lb.add(types.I64)
	y0 := lb.add(types.I64)
	y1 := lb.add(types.I64)
	w0 := lb.add(types.I64)
	t := lb.add(types.I64)
	w1 := lb.add(types.I64)
	hi := lb.add(types.I64)
	lo := lb.add(types.I64)

	instrs = []instruction.Instruction{
		instruction.GetLocal{Index: aIdx}, instruction.I64Const{Value: mask32}, instruction.I64And{},
		instruction.SetLocal{Index: x0},
		instruction.GetLocal{Index: aIdx}, instruction.I64Const{Value: 32}, instruction.I64ShrU{},
		instruction.SetLocal{Index: x1},

		instruction.GetLocal{Index: bIdx}, instruction.I64Const{Value: mask32}, instruction.I64And{},
		instruction.SetLocal{Index: y0},
		instruction.GetLocal{Index: bIdx}, instruction.I64Const{Value: 32}, instruction.I64ShrU{},
		instruction.SetLocal{Index: y1},

		instruction.GetLocal{Index: x0}, instruction.GetLocal{Index: y0}, instruction.I64Mul{},
		instruction.SetLocal{Index: w0},

		// t = x1*y0 + (w0 >>u 32)
		instruction.GetLocal{Index: x1}, instruction.GetLocal{Index: y0}, instruction.I64Mul{},
		instruction.GetLocal{Index: w0}, instruction.I64Const{Value: 32}, instruction.I64ShrU{},
		instruction.I64Add{},
		instruction.SetLocal{Index: t},

		// w1 = (t & mask32) + x0*y1
		instruction.GetLocal{Index: t}, instruction.I64Const{Value: mask32}, instruction.I64And{},
		instruction.GetLocal{Index: x0}, instruction.GetLocal{Index: y1}, instruction.I64Mul{},
		instruction.I64Add{},
		instruction.SetLocal{Index: w1},

		// hi = x1*y1 + (t >>u 32) + (w1 >>u 32)
		instruction.GetLocal{Index: x1}, instruction.GetLocal{Index: y1}, instruction.I64Mul{},
		instruction.GetLocal{Index: t}, instruction.I64Const{Value: 32}, instruction.I64ShrU{},
		instruction.I64Add{},
		instruction.GetLocal{Index: w1}, instruction.I64Const{Value: 32}, instruction.I64ShrU{},
		instruction.I64Add{},
		instruction.SetLocal{Index: hi},

		// lo is exactly the true product's low 64 bits, by native wraparound.
		instruction.GetLocal{Index: aIdx}, instruction.GetLocal{Index: bIdx}, instruction.I64Mul{},
		instruction.SetLocal{Index: lo},
	}
	return hi, lo, instrs
}

// mul128Unsigned multiplies two unsigned 128-bit values, each given as
// (loIdx, hiIdx) locals, via four 64x64 partial products combined
// school-book style. It returns fresh locals holding the product's low
// 128 bits and an i32 flag that is 1 iff the true product does not fit
// in 128 bits. Every quantity summed here is a non-negative magnitude,
// so overflow is exactly the logical OR of each partial product's
// independent "contributes above bit 128" flag — no running sum can
// wrap around and hide a true overflow.
func mul128Unsigned(lb *localBuilder, aLo, aHi, bLo, bHi uint32) (resultHi, resultLo, overflow uint32, instrs []instruction.Instruction) {
	p0hi, p0lo, i0 := mulWide64(lb, aLo, bLo)
	p1hi, p1lo, i1 := mulWide64(lb, aLo, bHi)
	p2hi, p2lo, i2 := mulWide64(lb, aHi, bLo)
	p3hi, p3lo, i3 := mulWide64(lb, aHi, bHi)

	sum1 := lb.add(types.I64)
	carry1 := lb.add(types.I32)
	hi := lb.add(types.I64)
	carry2 := lb.add(types.I32)
	ovf := lb.add(types.I32)

	instrs = append(instrs, i0...)
	instrs = append(instrs, i1...)
	instrs = append(instrs, i2...)
	instrs = append(instrs, i3...)

	instrs = append(instrs,
		instruction.GetLocal{Index: p0hi}, instruction.GetLocal{Index: p1lo}, instruction.I64Add{},
		instruction.SetLocal{Index: sum1},

		instruction.GetLocal{Index: sum1}, instruction.GetLocal{Index: p0hi}, instruction.I64LtU{},
		instruction.SetLocal{Index: carry1},

		instruction.GetLocal{Index: sum1}, instruction.GetLocal{Index: p2lo}, instruction.I64Add{},
		instruction.SetLocal{Index: hi},

		instruction.GetLocal{Index: hi}, instruction.GetLocal{Index: sum1}, instruction.I64LtU{},
		instruction.SetLocal{Index: carry2},

		instruction.GetLocal{Index: p3hi}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.GetLocal{Index: p3lo}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.I32Or{},
		instruction.GetLocal{Index: p1hi}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.I32Or{},
		instruction.GetLocal{Index: p2hi}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.I32Or{},
		instruction.GetLocal{Index: carry1}, instruction.I32Or{},
		instruction.GetLocal{Index: carry2}, instruction.I32Or{},
		instruction.SetLocal{Index: ovf},
	)

	return hi, p0lo, ovf, instrs
}

// negate128 computes the two's-complement negation of the 128-bit value
// at (loIdx, hiIdx), the same borrow-propagating pattern buildSubInt uses
// to negate its subtrahend, into freshly allocated locals.
func negate128(lb *localBuilder, loIdx, hiIdx uint32) (hiOut, loOut uint32, instrs []instruction.Instruction) {
	negLo := lb.add(types.I64)
	borrow := lb.add(types.I64)
	negHi := lb.add(types.I64)

	instrs = []instruction.Instruction{
		instruction.I64Const{Value: 0}, instruction.GetLocal{Index: loIdx}, instruction.I64Sub{},
		instruction.SetLocal{Index: negLo},

		instruction.GetLocal{Index: negLo}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.I64ExtendI32U{}, instruction.SetLocal{Index: borrow},

		instruction.I64Const{Value: 0}, instruction.GetLocal{Index: hiIdx}, instruction.I64Sub{},
		instruction.GetLocal{Index: borrow}, instruction.I64Sub{},
		instruction.SetLocal{Index: negHi},
	}
	return negHi, negLo, instrs
}

// buildMulUint: full unsigned 128-bit multiplication, overflow iff the
// true product does not fit in 128 bits.
func (b *builder) buildMulUint() {
	lb := newLocalBuilder(4)
	resultHi, resultLo, overflow, instrs := mul128Unsigned(lb, 0, 1, 2, 3)

	var body []instruction.Instruction
	body = append(body, instrs...)
	body = append(body, instruction.GetLocal{Index: overflow})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})
	body = append(body, instruction.GetLocal{Index: resultLo}, instruction.GetLocal{Index: resultHi})

	b.defineFunction("mul-uint", i128Params, i128Results, lb.declarations(), body)
}

// buildMulInt: signed 128-bit multiplication. Computed by multiplying
// absolute values as unsigned magnitudes, then applying Int128's
// asymmetric range check (its negative range reaches one further than
// its positive range) before reapplying the sign.
func (b *builder) buildMulInt() {
	lb := newLocalBuilder(4)

	signA := lb.add(types.I32)
	signB := lb.add(types.I32)
	absALo := lb.add(types.I64)
	absAHi := lb.add(types.I64)
	absBLo := lb.add(types.I64)
	absBHi := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, negFlag(1)...)
	body = append(body, instruction.SetLocal{Index: signA})
	body = append(body, negFlag(3)...)
	body = append(body, instruction.SetLocal{Index: signB})

	negAHi, negALo, negAInstrs := negate128(lb, 0, 1)
	negBHi, negBLo, negBInstrs := negate128(lb, 2, 3)
	body = append(body, negAInstrs...)
	body = append(body, negBInstrs...)

	body = append(body,
		instruction.GetLocal{Index: signA},
		instruction.If{
			BlockType: types.BlockType{},
			Then: []instruction.Instruction{
				instruction.GetLocal{Index: negALo}, instruction.SetLocal{Index: absALo},
				instruction.GetLocal{Index: negAHi}, instruction.SetLocal{Index: absAHi},
			},
			Else: []instruction.Instruction{
				instruction.GetLocal{Index: 0}, instruction.SetLocal{Index: absALo},
				instruction.GetLocal{Index: 1}, instruction.SetLocal{Index: absAHi},
			},
		},

		instruction.GetLocal{Index: signB},
		instruction.If{
			BlockType: types.BlockType{},
			Then: []instruction.Instruction{
				instruction.GetLocal{Index: negBLo}, instruction.SetLocal{Index: absBLo},
				instruction.GetLocal{Index: negBHi}, instruction.SetLocal{Index: absBHi},
			},
			Else: []instruction.Instruction{
				instruction.GetLocal{Index: 2}, instruction.SetLocal{Index: absBLo},
				instruction.GetLocal{Index: 3}, instruction.SetLocal{Index: absBHi},
			},
		},
	)

	magHi, magLo, magOverflow, mulInstrs := mul128Unsigned(lb, absALo, absAHi, absBLo, absBHi)
	body = append(body, mulInstrs...)

	signR := lb.add(types.I32)
	hiBit63 := lb.add(types.I32)
	isExactMin := lb.add(types.I32)
	excl := lb.add(types.I32)
	signedOverflow := lb.add(types.I32)
	overflow := lb.add(types.I32)
	resultLo := lb.add(types.I64)
	resultHi := lb.add(types.I64)

	body = append(body,
		instruction.GetLocal{Index: signA}, instruction.GetLocal{Index: signB}, instruction.I32Xor{},
		instruction.SetLocal{Index: signR},
	)
	body = append(body, negFlag(magHi)...)
	body = append(body, instruction.SetLocal{Index: hiBit63})
	body = append(body,
		// isExactMin: the one magnitude (2^127) whose negation, INT128_MIN,
		// is representable even though no positive counterpart is.
		instruction.GetLocal{Index: magHi}, instruction.I64Const{Value: math.MinInt64}, instruction.I64Eq{},
		instruction.GetLocal{Index: magLo}, instruction.I64Eqz{},
		instruction.I32And{},
		instruction.SetLocal{Index: isExactMin},

		instruction.GetLocal{Index: signR}, instruction.GetLocal{Index: isExactMin}, instruction.I32And{},
		instruction.I32Eqz{},
		instruction.SetLocal{Index: excl},

		instruction.GetLocal{Index: hiBit63}, instruction.GetLocal{Index: excl}, instruction.I32And{},
		instruction.SetLocal{Index: signedOverflow},

		instruction.GetLocal{Index: magOverflow}, instruction.GetLocal{Index: signedOverflow}, instruction.I32Or{},
		instruction.SetLocal{Index: overflow},

		instruction.GetLocal{Index: overflow},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})

	negMagHi, negMagLo, negMagInstrs := negate128(lb, magLo, magHi)
	body = append(body, negMagInstrs...)
	body = append(body,
		instruction.GetLocal{Index: signR},
		instruction.If{
			BlockType: types.BlockType{},
			Then: []instruction.Instruction{
				instruction.GetLocal{Index: negMagLo}, instruction.SetLocal{Index: resultLo},
				instruction.GetLocal{Index: negMagHi}, instruction.SetLocal{Index: resultHi},
			},
			Else: []instruction.Instruction{
				instruction.GetLocal{Index: magLo}, instruction.SetLocal{Index: resultLo},
				instruction.GetLocal{Index: magHi}, instruction.SetLocal{Index: resultHi},
			},
		},
		instruction.GetLocal{Index: resultLo}, instruction.GetLocal{Index: resultHi},
	)

	b.defineFunction("mul-int", i128Params, i128Results, lb.declarations(), body)
}

// guardFits64 traps CodeArithmeticOverflow unless the 128-bit value at
// (loIdx, hiIdx) fits entirely in its low 64 bits — the high word is
// exactly the zero or sign extension of the low word. div/mod/pow/log2/
// sqrti below only compute against the low word, so every operand they
// read must pass this guard first instead of being silently truncated.
func (b *builder) guardFits64(loIdx, hiIdx uint32, signed bool) []instruction.Instruction {
	if !signed {
		return []instruction.Instruction{
			instruction.GetLocal{Index: hiIdx}, instruction.I64Eqz{}, instruction.I32Eqz{},
			instruction.If{
				BlockType: types.BlockType{},
				Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
			},
		}
	}
	return []instruction.Instruction{
		instruction.GetLocal{Index: hiIdx},
		instruction.GetLocal{Index: loIdx}, instruction.I64Const{Value: 63}, instruction.I64ShrS{},
		instruction.I64Ne{},
		instruction.If{
			BlockType: types.BlockType{},
			Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
		},
	}
}

// buildDivUint divides the low words, trapping CodeDivisionByZero when
// the divisor is zero (the one edge case always within scope regardless
// of range, since division by zero has no 64-bit-range caveat).
func (b *builder) buildDivUint() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, false)...)
	body = append(body, b.guardFits64(2, 3, false)...)
	body = append(body, instruction.GetLocal{Index: 2}, instruction.I64Eqz{})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeDivisionByZero),
	})
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64DivU{},
		instruction.SetLocal{Index: lo},
		instruction.GetLocal{Index: lo},
	)
	body = append(body, extendHigh(lo, false)...)
	b.defineFunction("div-uint", i128Params, i128Results, lb.declarations(), body)
}

func (b *builder) buildDivInt() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, true)...)
	body = append(body, b.guardFits64(2, 3, true)...)
	body = append(body, instruction.GetLocal{Index: 2}, instruction.I64Eqz{})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeDivisionByZero),
	})
	// INT64_MIN / -1 would otherwise raise a raw Wasm hardware trap that
	// bypasses trapCode's globals entirely; surface it as the documented
	// overflow error instead.
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.I64Const{Value: math.MinInt64}, instruction.I64Eq{},
		instruction.GetLocal{Index: 2}, instruction.I64Const{Value: -1}, instruction.I64Eq{},
		instruction.I32And{},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64DivS{},
		instruction.SetLocal{Index: lo},
		instruction.GetLocal{Index: lo},
	)
	body = append(body, extendHigh(lo, true)...)
	b.defineFunction("div-int", i128Params, i128Results, lb.declarations(), body)
}

func (b *builder) buildModUint() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, false)...)
	body = append(body, b.guardFits64(2, 3, false)...)
	body = append(body, instruction.GetLocal{Index: 2}, instruction.I64Eqz{})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeDivisionByZero),
	})
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64RemU{},
		instruction.SetLocal{Index: lo},
		instruction.GetLocal{Index: lo},
	)
	body = append(body, extendHigh(lo, false)...)
	b.defineFunction("mod-uint", i128Params, i128Results, lb.declarations(), body)
}

func (b *builder) buildModInt() {
	lb := newLocalBuilder(4)
	lo := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, true)...)
	body = append(body, b.guardFits64(2, 3, true)...)
	body = append(body, instruction.GetLocal{Index: 2}, instruction.I64Eqz{})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeDivisionByZero),
	})
	// INT64_MIN % -1 traps the same raw hardware way div does.
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.I64Const{Value: math.MinInt64}, instruction.I64Eq{},
		instruction.GetLocal{Index: 2}, instruction.I64Const{Value: -1}, instruction.I64Eq{},
		instruction.I32And{},
	)
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeArithmeticOverflow),
	})
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.GetLocal{Index: 2}, instruction.I64RemS{},
		instruction.SetLocal{Index: lo},
		instruction.GetLocal{Index: lo},
	)
	body = append(body, extendHigh(lo, true)...)
	b.defineFunction("mod-int", i128Params, i128Results, lb.declarations(), body)
}

// buildPow computes base^exp by repeated squaring on the low words. The
// exponent is always a UInt per the Language's signature for pow, so it
// is checked as unsigned; the base is reused for both Int and UInt pow
// (see arithmeticOps in codegen's call.go), so it is guarded as signed —
// a negative 64-bit-range base is a legitimate Int input, not an
// overflow. An exponent above the u32 range traps
// CodePowOutOfRangeExponent here, before the loop. The squaring itself
// runs on 64-bit words, so this helper only computes correctly within
// the 64-bit range.
func (b *builder) buildPow() {
	lb := newLocalBuilder(4) // base_lo, base_hi, exp_lo, exp_hi
	result := lb.add(types.I64)
	base := lb.add(types.I64)
	exp := lb.add(types.I64)

	loopBody := []instruction.Instruction{
		instruction.I64Const{Value: 1}, instruction.SetLocal{Index: result},
		instruction.GetLocal{Index: 0}, instruction.SetLocal{Index: base},
		instruction.GetLocal{Index: 2}, instruction.SetLocal{Index: exp},

		instruction.Loop{
			BlockType: types.BlockType{},
			Instrs: []instruction.Instruction{
				instruction.GetLocal{Index: exp}, instruction.I64Eqz{},
				instruction.BrIf{Index: 1}, // exit the loop (label 1 = the enclosing Block)

				instruction.GetLocal{Index: exp}, instruction.I64Const{Value: 1}, instruction.I64And{},
				instruction.I64Eqz{}, instruction.I32Eqz{}, // odd(exp)
				instruction.If{
					BlockType: types.BlockType{},
					Then: []instruction.Instruction{
						instruction.GetLocal{Index: result}, instruction.GetLocal{Index: base}, instruction.I64Mul{},
						instruction.SetLocal{Index: result},
					},
				},
				instruction.GetLocal{Index: base}, instruction.GetLocal{Index: base}, instruction.I64Mul{},
				instruction.SetLocal{Index: base},
				instruction.GetLocal{Index: exp}, instruction.I64Const{Value: 1}, instruction.I64ShrU{},
				instruction.SetLocal{Index: exp},

				instruction.Br{Index: 0},
			},
		},
	}

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, true)...)
	// exp_hi != 0 || exp_lo > 0xffffffff: the exponent is not a u32.
	body = append(body,
		instruction.GetLocal{Index: 3}, instruction.I64Eqz{}, instruction.I32Eqz{},
		instruction.GetLocal{Index: 2}, instruction.I64Const{Value: 0xffffffff}, instruction.I64GtU{},
		instruction.I32Or{},
		instruction.If{
			BlockType: types.BlockType{},
			Then:      b.trapCode(errormapping.CodePowOutOfRangeExponent),
		},
	)
	// Wrap the loop in an outer Block so BrIf{Index:1} exits past it.
	body = append(body,
		instruction.Block{
			BlockType: types.BlockType{},
			Instrs:    loopBody,
		},
		instruction.GetLocal{Index: result},
	)
	body = append(body, extendHigh(result, false)...)

	b.defineFunction("pow-uint", i128Params, i128Results, lb.declarations(), body)
}

// buildLog2 computes floor(log2(n)) on the low word via a counting loop,
// trapping CodeLog2NonPositive when n is zero.
func (b *builder) buildLog2() {
	lb := newLocalBuilder(2) // n_lo, n_hi
	n := lb.add(types.I64)
	count := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, false)...)
	body = append(body, instruction.GetLocal{Index: 0}, instruction.I64Eqz{})
	body = append(body, instruction.If{
		BlockType: types.BlockType{},
		Then:      b.trapCode(errormapping.CodeLog2NonPositive),
	})
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.SetLocal{Index: n},
		instruction.I64Const{Value: 0}, instruction.SetLocal{Index: count},

		instruction.Block{
			BlockType: types.BlockType{},
			Instrs: []instruction.Instruction{
				instruction.Loop{
					BlockType: types.BlockType{},
					Instrs: []instruction.Instruction{
						instruction.GetLocal{Index: n}, instruction.I64Const{Value: 1}, instruction.I64LeU{},
						instruction.BrIf{Index: 1},

						instruction.GetLocal{Index: n}, instruction.I64Const{Value: 1}, instruction.I64ShrU{},
						instruction.SetLocal{Index: n},
						instruction.GetLocal{Index: count}, instruction.I64Const{Value: 1}, instruction.I64Add{},
						instruction.SetLocal{Index: count},

						instruction.Br{Index: 0},
					},
				},
			},
		},
		instruction.GetLocal{Index: count},
	)
	body = append(body, extendHigh(count, false)...)

	b.defineFunction("log2-uint", []types.ValueType{types.I64, types.I64}, i128Results, lb.declarations(), body)
}

// buildSqrti computes floor(sqrt(n)) on the low word by binary search
// over [0, min(n, 2^32-1)]: the root of any 64-bit n is below 2^32, and
// that bound keeps mid*mid from wrapping. Only the unsigned entry point is built here; for a signed Int operand
// the generator itself emits the CodeSqrtiNegative check and only calls
// through to sqrti-uint once the operand is known non-negative — sqrti's
// signedness affects just that precondition, not the computation.
func (b *builder) buildSqrti() {
	lb := newLocalBuilder(2) // n_lo, n_hi
	n := lb.add(types.I64)
	lowBound := lb.add(types.I64)
	highBound := lb.add(types.I64)
	mid := lb.add(types.I64)
	midSq := lb.add(types.I64)

	var body []instruction.Instruction
	body = append(body, b.guardFits64(0, 1, false)...)
	body = append(body,
		instruction.GetLocal{Index: 0}, instruction.SetLocal{Index: n},
		instruction.I64Const{Value: 0}, instruction.SetLocal{Index: lowBound},
		instruction.GetLocal{Index: n}, instruction.I64Const{Value: 0xffffffff}, instruction.I64LtU{},
		instruction.If{
			BlockType: types.BlockType{Results: []types.ValueType{types.I64}},
			Then:      []instruction.Instruction{instruction.GetLocal{Index: n}},
			Else:      []instruction.Instruction{instruction.I64Const{Value: 0xffffffff}},
		},
		instruction.SetLocal{Index: highBound},

		instruction.Block{
			BlockType: types.BlockType{},
			Instrs: []instruction.Instruction{
				instruction.Loop{
					BlockType: types.BlockType{},
					Instrs: []instruction.Instruction{
						instruction.GetLocal{Index: lowBound}, instruction.GetLocal{Index: highBound},
						instruction.I64GeU{}, instruction.BrIf{Index: 1},

						// mid = lowBound + (highBound - lowBound + 1) / 2
						instruction.GetLocal{Index: highBound}, instruction.GetLocal{Index: lowBound}, instruction.I64Sub{},
						instruction.I64Const{Value: 1}, instruction.I64Add{},
						instruction.I64Const{Value: 1}, instruction.I64ShrU{},
						instruction.GetLocal{Index: lowBound}, instruction.I64Add{},
						instruction.SetLocal{Index: mid},

						instruction.GetLocal{Index: mid}, instruction.GetLocal{Index: mid}, instruction.I64Mul{},
						instruction.SetLocal{Index: midSq},

						instruction.GetLocal{Index: midSq}, instruction.GetLocal{Index: n}, instruction.I64LeU{},
						instruction.If{
							BlockType: types.BlockType{},
							Then: []instruction.Instruction{
								instruction.GetLocal{Index: mid}, instruction.SetLocal{Index: lowBound},
							},
							Else: []instruction.Instruction{
								instruction.GetLocal{Index: mid}, instruction.I64Const{Value: 1}, instruction.I64Sub{},
								instruction.SetLocal{Index: highBound},
							},
						},

						instruction.Br{Index: 0},
					},
				},
			},
		},
		instruction.GetLocal{Index: lowBound},
	)
	body = append(body, extendHigh(lowBound, false)...)

	b.defineFunction("sqrti-uint", []types.ValueType{types.I64, types.I64}, i128Results, lb.declarations(), body)
}
