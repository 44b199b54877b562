// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/errormapping"
	"github.com/BowTiedWoo/clarity-wasm/internal/marshal"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// arithmeticOps maps a variadic arithmetic operator to the stdlib
// function name family it folds over, by result kind. pow only exists as
// pow-uint (see internal/stdlib's arithmetic.go): its exponent is always
// UInt, and the repeated-squaring helper operates identically on an Int
// base's bit pattern, so an Int-result pow reuses it too.
var arithmeticOps = map[string]struct{ intName, uintName string }{
	"+":   {"add-int", "add-uint"},
	"-":   {"sub-int", "sub-uint"},
	"*":   {"mul-int", "mul-uint"},
	"/":   {"div-int", "div-uint"},
	"mod": {"mod-int", "mod-uint"},
	"pow": {"pow-uint", "pow-uint"},
}

// hostOnlyBuiltins are source names whose host import already returns a
// result in exactly the flat slot shape the Call's declared result type
// expects, so they need nothing beyond "push args, call, done".
var hostOnlyBuiltins = map[string]string{
	"tx-sender":         "tx_sender",
	"contract-caller":   "contract_caller",
	"tx-sponsor?":       "tx_sponsor",
	"block-height":      "block_height",
	"burn-block-height": "burn_block_height",
	"stx-liquid-supply": "stx_liquid_supply",
	"is-in-regtest":     "is_in_regtest",
	"is-in-mainnet":     "is_in_mainnet",
	"chain-id":          "chain_id",
}

// hashDigestSize is each hash builtin's fixed output length in bytes —
// the host writes exactly this many bytes into the caller-provided
// out_offset (§4.7), so the result Buffer's length is known at compile
// time without reading anything back from the host.
var hashDigestSize = map[string]struct {
	hostName string
	size     uint32
}{
	"keccak256":  {"keccak256", 32},
	"sha512":     {"sha512", 64},
	"sha512-256": {"sha512_256", 32},
}

// uintPassthroughs are asset/storage builtins whose stdlib passthrough
// result already matches a UInt or Bool Call result directly.
var uintPassthroughs = map[string]string{
	"ft-get-supply":   "ft_get_supply",
	"ft-get-balance":  "ft_get_balance",
	"stx-get-balance": "stx_get_balance",
}

var boolPassthroughs = map[string]string{
	"map-insert?": "map_insert",
	"map-delete!": "map_delete",
}

// stxAssetResultOps are the two STX mutation builtins whose Clarity
// argument order already matches hostabi's wire order (amount, then
// principal(s)) with no name argument and no in-memory identifier to
// serialize, so they route through the generic reshaping passthrough
// directly.
var stxAssetResultOps = map[string]string{
	"stx-burn?":     "stx_burn",
	"stx-transfer?": "stx_transfer",
}

// compileCall dispatches a Call node (§4.6.5): arithmetic operators fold
// left-associatively, is-eq and not get their own recursive/bitwise
// lowering, asset/storage/host builtins route through the tables above,
// and anything left over must name a user-defined function.
func (c *Compiler) compileCall(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if ops, ok := arithmeticOps[call.Name]; ok {
		return c.compileArithmetic(fb, call, ops)
	}
	switch call.Name {
	case "is-eq":
		return c.compileIsEq(fb, call.Args)
	case "not":
		return c.compileNot(fb, call)
	case "asserts!":
		return c.compileAsserts(fb, call)
	case "print":
		return c.compilePrint(fb, call)
	case "sqrti":
		return c.compileUnaryStdlib(fb, call, "sqrti-uint")
	case "log2":
		return c.compileUnaryStdlib(fb, call, "log2-uint")
	case "var-get", "var-set!":
		return nil, errors.Errorf("codegen: %q is compiled as its own AST node, not a Call", call.Name)
	case "map-get?":
		return c.compileMapGet(fb, call)
	case "map-set!":
		return c.compileMapSet(fb, call)
	case "stx-account":
		return c.compileStxAccount(fb, call)
	case "nft-get-owner?":
		return c.compileNftGetOwner(fb, call)
	case "ft-mint?":
		return c.compileFtMint(fb, call)
	case "ft-burn?":
		return c.compileFtBurn(fb, call)
	case "ft-transfer?":
		return c.compileFtTransfer(fb, call)
	case "nft-mint?":
		return c.compileNftMint(fb, call)
	case "nft-burn?":
		return c.compileNftBurn(fb, call)
	case "nft-transfer?":
		return c.compileNftTransfer(fb, call)
	case "secp256k1-recover?":
		return c.compileSecp256k1Recover(fb, call)
	case "secp256k1-verify?":
		return c.compileSecp256k1Verify(fb, call)
	case "principal-of?":
		return c.compilePrincipalOf(fb, call)
	case "to-consensus-buff?":
		return c.compileToConsensusBuff(fb, call)
	}

	if hash, ok := hashDigestSize[call.Name]; ok {
		return c.compileHash(fb, call, hash.hostName, hash.size)
	}

	if hostName, ok := hostOnlyBuiltins[call.Name]; ok {
		return c.compilePassthroughDirect(fb, call, hostName)
	}
	if stdName, ok := uintPassthroughs[call.Name]; ok {
		return c.compilePassthroughDirect(fb, call, stdName)
	}
	if stdName, ok := boolPassthroughs[call.Name]; ok {
		return c.compilePassthroughDirect(fb, call, stdName)
	}
	if stdName, ok := stxAssetResultOps[call.Name]; ok {
		return c.compileAssetResultCall(fb, call, stdName, call.Args)
	}

	fn, ok := c.funcs[call.Name]
	if !ok {
		return nil, errors.Errorf("codegen: call to undefined function %q", call.Name)
	}
	return c.compileUserCall(fb, call, fn)
}

// compileArithmetic left-folds a variadic operator over its arguments
// via the stdlib function matching the call's declared result kind.
func (c *Compiler) compileArithmetic(fb *funcBuilder, call ast.Call, ops struct{ intName, uintName string }) ([]instruction.Instruction, error) {
	name := ops.uintName
	if call.ResultType().Kind == claritype.KindInt {
		name = ops.intName
	}
	fnIdx, err := c.stdreg.FuncIndex(name)
	if err != nil {
		return nil, err
	}

	if len(call.Args) == 0 {
		return nil, errors.Errorf("codegen: %q with no arguments", call.Name)
	}
	accInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	accLocals := fb.newLocals(call.ResultType().Slots())
	out := append([]instruction.Instruction{}, accInstrs...)
	out = append(out, saveToLocals(accLocals)...)

	for _, arg := range call.Args[1:] {
		argInstrs, err := c.compileExpr(fb, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, pushLocals(accLocals)...)
		out = append(out, argInstrs...)
		out = append(out, instruction.Call{Index: fnIdx})
		out = append(out, saveToLocals(accLocals)...)
	}
	out = append(out, pushLocals(accLocals)...)
	return out, nil
}

func (c *Compiler) compileUnaryStdlib(fb *funcBuilder, call ast.Call, stdName string) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: %q takes exactly one argument", call.Name)
	}
	argInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	fnIdx, err := c.stdreg.FuncIndex(stdName)
	if err != nil {
		return nil, err
	}
	out := append([]instruction.Instruction{}, argInstrs...)
	if argType := call.Args[0].ResultType(); stdName == "sqrti-uint" && argType.Kind == claritype.KindInt {
		// A negative Int operand traps CodeSqrtiNegative before sqrti-uint runs.
		ls := fb.newLocals(argType.Slots())
		trap, err := c.emitRuntimeErrorTrap(fb, errormapping.CodeSqrtiNegative, argType, ls)
		if err != nil {
			return nil, err
		}
		out = append(out, saveToLocals(ls)...)
		out = append(out, instruction.GetLocal{Index: ls[1]}, instruction.I64Const{Value: 0}, instruction.I64LtS{},
			instruction.If{BlockType: types.BlockType{}, Then: trap})
		out = append(out, pushLocals(ls)...)
	}
	return append(out, instruction.Call{Index: fnIdx}), nil
}

func (c *Compiler) compileNot(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: not takes exactly one argument")
	}
	argInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	return append(append([]instruction.Instruction{}, argInstrs...), instruction.I32Eqz{}), nil
}

// compileAsserts lowers `asserts!` (§9): on a false condition, the whole
// call traps with CodeAssertionFailure carrying the thrown-value
// expression; on true, it evaluates to Bool true.
func (c *Compiler) compileAsserts(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 2 {
		return nil, errors.Errorf("codegen: asserts! takes exactly 2 arguments")
	}
	condInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	thrownType := call.Args[1].ResultType()
	thrownInstrs, err := c.compileExpr(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	thrownLocals := fb.newLocals(thrownType.Slots())
	trapInstrs, err := c.emitRuntimeErrorTrap(fb, codeAssertionFailure, thrownType, thrownLocals)
	if err != nil {
		return nil, err
	}

	failArm := append([]instruction.Instruction{}, thrownInstrs...)
	failArm = append(failArm, saveToLocals(thrownLocals)...)
	failArm = append(failArm, trapInstrs...)
	failArm = append(failArm, instruction.Unreachable{})

	out := append([]instruction.Instruction{}, condInstrs...)
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: []types.ValueType{types.I32}},
		Then:      []instruction.Instruction{instruction.I32Const{Value: 1}},
		Else:      failArm,
	})
	return out, nil
}

// compilePrint lowers `print` (§4.7): the host's print import takes an
// (offset, length) byte range, so an in-memory argument's own slots are
// forwarded directly; a flat argument (Int/UInt/Bool) is first written
// to scratch memory via internal/marshal, whose output equals that
// type's canonical Serialize image (see trap.go). print evaluates to its
// argument unchanged.
func (c *Compiler) compilePrint(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: print takes exactly one argument")
	}
	argType := call.Args[0].ResultType()
	argInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	argLocals := fb.newLocals(argType.Slots())
	out := append([]instruction.Instruction{}, argInstrs...)
	out = append(out, saveToLocals(argLocals)...)

	printIdx, ok := c.host["print"]
	if !ok {
		return nil, errors.New("codegen: host import \"print\" not declared")
	}

	byteRegion, err := c.compileByteRegion(fb, argType, argLocals)
	if err != nil {
		return nil, err
	}
	out = append(out, byteRegion...)
	out = append(out, instruction.Call{Index: printIdx})
	out = append(out, pushLocals(argLocals)...)
	return out, nil
}

// compileByteRegion leaves (i32 offset, i32 length) on the stack for a
// value of type t already materialized into locals. An in-memory value's
// own slots already are such a pair, forwarded directly; a flat value
// (Int/UInt/Bool) is written to scratch memory via internal/marshal
// first, whose output equals t's canonical Serialize image (see trap.go)
// — the same trick emitRuntimeErrorTrap and print rely on to hand a flat
// value to a host import that only understands byte regions.
func (c *Compiler) compileByteRegion(fb *funcBuilder, t claritype.Type, locals []uint32) ([]instruction.Instruction, error) {
	if t.IsInMemory() {
		return pushLocals(locals), nil
	}
	size := marshal.Size(t)
	addr := fb.newLocal(types.I32)
	var out []instruction.Instruction
	out = append(out, c.allocScratch(fb, addr, size)...)
	out = append(out, marshal.Write(addr, locals, t)...)
	out = append(out, instruction.GetLocal{Index: addr}, instruction.I32Const{Value: int32(size)})
	return out, nil
}

// compileHash lowers keccak256/sha512/sha512-256 (§4.7): unlike the other
// host imports, these take (in_offset, in_len, out_offset) and write the
// digest into the caller-supplied out_offset rather than returning it on
// the value stack, so a fixed-size output buffer is allocated up front
// and the result is the (out_offset, outputSize) Buffer it was written to.
func (c *Compiler) compileHash(fb *funcBuilder, call ast.Call, hostName string, outputSize uint32) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: %q takes exactly one argument", call.Name)
	}
	argType := call.Args[0].ResultType()
	argInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	argLocals := fb.newLocals(argType.Slots())
	out := append([]instruction.Instruction{}, argInstrs...)
	out = append(out, saveToLocals(argLocals)...)

	inRegion, err := c.compileByteRegion(fb, argType, argLocals)
	if err != nil {
		return nil, err
	}
	out = append(out, inRegion...)

	outAddr := fb.newLocal(types.I32)
	out = append(out, c.allocScratch(fb, outAddr, outputSize)...)
	out = append(out, instruction.GetLocal{Index: outAddr})

	hostIdx, ok := c.host[hostName]
	if !ok {
		return nil, errors.Errorf("codegen: host import %q not declared", hostName)
	}
	out = append(out, instruction.Call{Index: hostIdx})
	out = append(out, instruction.GetLocal{Index: outAddr}, instruction.I32Const{Value: int32(outputSize)})
	return out, nil
}

// secp256k1RecoveredPubkeyLen is the length of a compressed secp256k1
// public key, the shape the host's secp256k1_recover writes into its
// out_offset buffer.
const secp256k1RecoveredPubkeyLen = 33

// standardPrincipalLen is a principal_of result's serialized length: a
// standard principal (no contract name) per claritype.serializePrincipal
// always encodes as 1 version byte + PrincipalHashLen + a zero name-length
// byte.
const standardPrincipalLen = 1 + claritype.PrincipalHashLen + 1

// compileSecp256k1Recover lowers `secp256k1-recover?` (msg, signature),
// evaluating both to byte regions, allocating a fixed-size output buffer
// for the recovered compressed public key, and reshaping the host's
// success flag into Response(Buffer(33), UInt) — on failure the err arm
// is UInt 0, since the host exposes no specific error code.
func (c *Compiler) compileSecp256k1Recover(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 2 {
		return nil, errors.Errorf("codegen: secp256k1-recover? takes exactly 2 arguments (message, signature)")
	}
	msgRegion, err := c.evalByteRegionArg(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	sigRegion, err := c.evalByteRegionArg(fb, call.Args[1])
	if err != nil {
		return nil, err
	}

	out := append([]instruction.Instruction{}, msgRegion...)
	out = append(out, sigRegion...)

	outAddr := fb.newLocal(types.I32)
	out = append(out, c.allocScratch(fb, outAddr, secp256k1RecoveredPubkeyLen)...)
	out = append(out, instruction.GetLocal{Index: outAddr})

	hostIdx, ok := c.host["secp256k1_recover"]
	if !ok {
		return nil, errors.New("codegen: host import \"secp256k1_recover\" not declared")
	}
	out = append(out, instruction.Call{Index: hostIdx})

	success := fb.newLocal(types.I32)
	out = append(out, instruction.SetLocal{Index: success})
	out = append(out,
		instruction.GetLocal{Index: success},
		instruction.GetLocal{Index: outAddr}, instruction.I32Const{Value: secp256k1RecoveredPubkeyLen},
		instruction.I64Const{Value: 0}, instruction.I64Const{Value: 0},
	)
	return out, nil
}

// compileSecp256k1Verify lowers `secp256k1-verify?` (message, signature,
// public-key): the host returns the boolean result directly, no output
// buffer involved.
func (c *Compiler) compileSecp256k1Verify(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: secp256k1-verify? takes exactly 3 arguments (message, signature, public-key)")
	}
	var out []instruction.Instruction
	for _, arg := range call.Args {
		region, err := c.evalByteRegionArg(fb, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, region...)
	}
	hostIdx, ok := c.host["secp256k1_verify"]
	if !ok {
		return nil, errors.New("codegen: host import \"secp256k1_verify\" not declared")
	}
	out = append(out, instruction.Call{Index: hostIdx})
	return out, nil
}

// compilePrincipalOf lowers `principal-of?` (public-key): the host writes
// the standard principal encoding of the derived address into out_offset
// and returns a success flag, reshaped into Response(Principal, UInt) the
// same way as compileSecp256k1Recover.
func (c *Compiler) compilePrincipalOf(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: principal-of? takes exactly one argument (public-key)")
	}
	keyRegion, err := c.evalByteRegionArg(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	out := append([]instruction.Instruction{}, keyRegion...)

	outAddr := fb.newLocal(types.I32)
	out = append(out, c.allocScratch(fb, outAddr, standardPrincipalLen)...)
	out = append(out, instruction.GetLocal{Index: outAddr})

	hostIdx, ok := c.host["principal_of"]
	if !ok {
		return nil, errors.New("codegen: host import \"principal_of\" not declared")
	}
	out = append(out, instruction.Call{Index: hostIdx})

	success := fb.newLocal(types.I32)
	out = append(out, instruction.SetLocal{Index: success})
	out = append(out,
		instruction.GetLocal{Index: success},
		instruction.GetLocal{Index: outAddr}, instruction.I32Const{Value: standardPrincipalLen},
		instruction.I64Const{Value: 0}, instruction.I64Const{Value: 0},
	)
	return out, nil
}

// compileToConsensusBuff lowers `to-consensus-buff?` (§8 scenario 6): the
// argument is written to scratch memory in marshal's fixed-width layout
// (the same trick emitRuntimeErrorTrap uses for a trapped value), its
// static type is interned as a type descriptor alongside it exactly as a
// trap site does, and the host reconstructs the value from those two
// byte regions, runs claritype.ConsensusSerialize on it, and writes the
// result into a second scratch buffer sized to the argument type's
// worst-case consensus image. The result is always `(some buffer)`: the
// host can only fail here on a malformed argument, which a correctly
// type-checked caller never produces, so there is no error arm to model.
func (c *Compiler) compileToConsensusBuff(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: to-consensus-buff? takes exactly one argument")
	}
	argType := call.Args[0].ResultType()
	argInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	argLocals := fb.newLocals(argType.Slots())
	out := append([]instruction.Instruction{}, argInstrs...)
	out = append(out, saveToLocals(argLocals)...)

	valueAddr := fb.newLocal(types.I32)
	size := marshal.Size(argType)
	if size > 0 {
		out = append(out, c.allocScratch(fb, valueAddr, size)...)
		out = append(out, marshal.Write(valueAddr, argLocals, argType)...)
	} else {
		out = append(out, instruction.I32Const{Value: 0}, instruction.SetLocal{Index: valueAddr})
	}

	tyBytes := claritype.EncodeTypeDescriptor(argType)
	tyLit := c.pool.Intern(typeDescriptorMarker, false, tyBytes)

	outAddr := fb.newLocal(types.I32)
	outMax := claritype.ConsensusMaxSize(argType)
	out = append(out, c.allocScratch(fb, outAddr, outMax)...)

	out = append(out,
		instruction.GetLocal{Index: valueAddr},
		instruction.I32Const{Value: int32(tyLit.Offset)},
		instruction.I32Const{Value: int32(tyLit.Length)},
		instruction.GetLocal{Index: outAddr},
	)

	hostIdx, ok := c.host["to_consensus_buff"]
	if !ok {
		return nil, errors.New("codegen: host import \"to_consensus_buff\" not declared")
	}
	out = append(out, instruction.Call{Index: hostIdx})

	outLen := fb.newLocal(types.I32)
	out = append(out, instruction.SetLocal{Index: outLen})
	out = append(out,
		instruction.I32Const{Value: 1},
		instruction.GetLocal{Index: outAddr},
		instruction.GetLocal{Index: outLen},
	)
	return out, nil
}

// evalByteRegionArg evaluates e and leaves its (offset, length) byte
// region on the stack, materializing through scratch memory for flat
// types (see compileByteRegion).
func (c *Compiler) evalByteRegionArg(fb *funcBuilder, e ast.Expr) ([]instruction.Instruction, error) {
	t := e.ResultType()
	instrs, err := c.compileExpr(fb, e)
	if err != nil {
		return nil, err
	}
	locals := fb.newLocals(t.Slots())
	out := append([]instruction.Instruction{}, instrs...)
	out = append(out, saveToLocals(locals)...)
	region, err := c.compileByteRegion(fb, t, locals)
	if err != nil {
		return nil, err
	}
	out = append(out, region...)
	return out, nil
}

// compileDropValue evaluates e for any side effects and discards its
// result — used where a builtin source position has no observable
// effect on the host call (see compileNftBurn).
func (c *Compiler) compileDropValue(fb *funcBuilder, e ast.Expr) ([]instruction.Instruction, error) {
	instrs, err := c.compileExpr(fb, e)
	if err != nil {
		return nil, err
	}
	n := len(e.ResultType().Slots())
	out := append([]instruction.Instruction{}, instrs...)
	for i := 0; i < n; i++ {
		out = append(out, instruction.Drop{})
	}
	return out, nil
}

// compilePassthroughDirect evaluates call's arguments, pushes their flat
// slots in order, and calls the named host or stdlib entry point whose
// result shape already matches call's declared result type — used for
// every builtin that needs no reshaping between the ABI and claritype's
// flat layout.
func (c *Compiler) compilePassthroughDirect(fb *funcBuilder, call ast.Call, name string) ([]instruction.Instruction, error) {
	var out []instruction.Instruction
	for _, arg := range call.Args {
		instrs, err := c.compileExpr(fb, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	idx, err := c.resolveBuiltinIndex(name)
	if err != nil {
		return nil, err
	}
	out = append(out, instruction.Call{Index: idx})
	return out, nil
}

// resolveBuiltinIndex resolves name against the stdlib registry first
// (every asset/storage host entry is exposed through a stdlib
// passthrough of the same underscore-spelled name, see
// internal/stdlib/assets.go), falling back to a direct host import for
// the handful of builtins stdlib does not wrap (the pure chain-context
// accessors and crypto primitives).
func (c *Compiler) resolveBuiltinIndex(name string) (uint32, error) {
	if idx, err := c.stdreg.FuncIndex(name); err == nil {
		return idx, nil
	}
	if idx, ok := c.host[name]; ok {
		return idx, nil
	}
	return 0, errors.Errorf("codegen: no stdlib or host entry named %q", name)
}

// compileAssetResultCall evaluates orderedArgs (already arranged in the
// wire order stdName's host import expects), calls it, and expands its
// compact (variant, lo, hi) result into claritype's general 5-slot
// Response(UInt, UInt) shape by reusing the single payload for both arms
// — never read when inactive, so duplicating it is exact, not an
// approximation.
func (c *Compiler) compileAssetResultCall(fb *funcBuilder, call ast.Call, stdName string, orderedArgs []ast.Expr) ([]instruction.Instruction, error) {
	var out []instruction.Instruction
	for _, arg := range orderedArgs {
		instrs, err := c.compileExpr(fb, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	idx, err := c.resolveBuiltinIndex(stdName)
	if err != nil {
		return nil, err
	}
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// reshapeAssetResult pops a stdlib asset call's compact (variant, lo, hi)
// result and pushes claritype's general 5-slot Response(UInt, UInt)
// shape: variant, ok_lo, ok_hi, err_lo, err_hi.
func (c *Compiler) reshapeAssetResult(fb *funcBuilder) []instruction.Instruction {
	variant := fb.newLocal(types.I32)
	lo := fb.newLocal(types.I64)
	hi := fb.newLocal(types.I64)
	return []instruction.Instruction{
		instruction.SetLocal{Index: hi},
		instruction.SetLocal{Index: lo},
		instruction.SetLocal{Index: variant},
		instruction.GetLocal{Index: variant},
		instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi},
		instruction.GetLocal{Index: lo}, instruction.GetLocal{Index: hi},
	}
}

// compileIdentifierRegion evaluates a non-fungible asset identifier
// expression and leaves its (offset, length) byte region on the stack
// (see compileByteRegion) — the host's nft_* imports are generic over
// AssetType and so always address the identifier by byte region,
// regardless of whether its Clarity type is flat or in-memory.
func (c *Compiler) compileIdentifierRegion(fb *funcBuilder, e ast.Expr) ([]instruction.Instruction, error) {
	return c.evalByteRegionArg(fb, e)
}

// compileFtMint lowers `ft-mint?` (args: token name, amount, recipient).
// ft_mint's wire order is (name, principal, amount) — recipient before
// amount — so arguments are evaluated in source order into locals first
// (preserving any evaluation side effects left to right), then
// re-pushed in wire order.
func (c *Compiler) compileFtMint(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: ft-mint? takes exactly 3 arguments (token, amount, recipient)")
	}
	return c.compileFtAssetCall(fb, "ft_mint", call.Args[0], call.Args[1], call.Args[2])
}

// compileFtBurn lowers `ft-burn?` (args: token name, amount, sender).
// Same wire permutation as ft-mint?.
func (c *Compiler) compileFtBurn(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: ft-burn? takes exactly 3 arguments (token, amount, sender)")
	}
	return c.compileFtAssetCall(fb, "ft_burn", call.Args[0], call.Args[1], call.Args[2])
}

// compileFtAssetCall evaluates name, amount, principal in that (source)
// order into locals, then pushes them in ft_mint/ft_burn's wire order
// (name, principal, amount) before calling stdName.
func (c *Compiler) compileFtAssetCall(fb *funcBuilder, stdName string, name, amount, principal ast.Expr) ([]instruction.Instruction, error) {
	nameInstrs, err := c.compileExpr(fb, name)
	if err != nil {
		return nil, err
	}
	nameLocals := fb.newLocals(name.ResultType().Slots())

	amountInstrs, err := c.compileExpr(fb, amount)
	if err != nil {
		return nil, err
	}
	amountLocals := fb.newLocals(amount.ResultType().Slots())

	principalInstrs, err := c.compileExpr(fb, principal)
	if err != nil {
		return nil, err
	}
	principalLocals := fb.newLocals(principal.ResultType().Slots())

	idx, err := c.resolveBuiltinIndex(stdName)
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, saveToLocals(nameLocals)...)
	out = append(out, amountInstrs...)
	out = append(out, saveToLocals(amountLocals)...)
	out = append(out, principalInstrs...)
	out = append(out, saveToLocals(principalLocals)...)

	out = append(out, pushLocals(nameLocals)...)
	out = append(out, pushLocals(principalLocals)...)
	out = append(out, pushLocals(amountLocals)...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// compileFtTransfer lowers `ft-transfer?` (args: token name, amount,
// sender, recipient). ft_transfer's wire order is (name, sender, amount,
// recipient).
func (c *Compiler) compileFtTransfer(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 4 {
		return nil, errors.Errorf("codegen: ft-transfer? takes exactly 4 arguments (token, amount, sender, recipient)")
	}
	name, amount, sender, recipient := call.Args[0], call.Args[1], call.Args[2], call.Args[3]

	nameInstrs, err := c.compileExpr(fb, name)
	if err != nil {
		return nil, err
	}
	nameLocals := fb.newLocals(name.ResultType().Slots())

	amountInstrs, err := c.compileExpr(fb, amount)
	if err != nil {
		return nil, err
	}
	amountLocals := fb.newLocals(amount.ResultType().Slots())

	senderInstrs, err := c.compileExpr(fb, sender)
	if err != nil {
		return nil, err
	}
	senderLocals := fb.newLocals(sender.ResultType().Slots())

	recipientInstrs, err := c.compileExpr(fb, recipient)
	if err != nil {
		return nil, err
	}
	recipientLocals := fb.newLocals(recipient.ResultType().Slots())

	idx, err := c.resolveBuiltinIndex("ft_transfer")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, saveToLocals(nameLocals)...)
	out = append(out, amountInstrs...)
	out = append(out, saveToLocals(amountLocals)...)
	out = append(out, senderInstrs...)
	out = append(out, saveToLocals(senderLocals)...)
	out = append(out, recipientInstrs...)
	out = append(out, saveToLocals(recipientLocals)...)

	out = append(out, pushLocals(nameLocals)...)
	out = append(out, pushLocals(senderLocals)...)
	out = append(out, pushLocals(amountLocals)...)
	out = append(out, pushLocals(recipientLocals)...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// compileNftMint lowers `nft-mint?` (args: token name, identifier,
// recipient); wire order matches Clarity order exactly, but identifier
// must be serialized to a byte region first.
func (c *Compiler) compileNftMint(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: nft-mint? takes exactly 3 arguments (token, identifier, recipient)")
	}
	return c.compileNftAssetCall(fb, call, "nft_mint", call.Args[0], call.Args[1], call.Args[2])
}

// compileNftBurn lowers `nft-burn?` (args: token name, identifier,
// sender). hostabi's nft_burn import takes only (name, identifier) —
// ownership is not independently re-checked by the host at this call
// site, so sender is still evaluated (for any side effects) but its
// result is discarded rather than forwarded.
func (c *Compiler) compileNftBurn(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: nft-burn? takes exactly 3 arguments (token, identifier, sender)")
	}
	nameInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	identRegion, err := c.compileIdentifierRegion(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	senderInstrs, err := c.compileDropValue(fb, call.Args[2])
	if err != nil {
		return nil, err
	}

	idx, err := c.resolveBuiltinIndex("nft_burn")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, identRegion...)
	out = append(out, senderInstrs...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// compileNftTransfer lowers `nft-transfer?` (args: token name,
// identifier, sender, recipient); wire order matches Clarity order
// exactly once identifier is serialized to a byte region.
func (c *Compiler) compileNftTransfer(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 4 {
		return nil, errors.Errorf("codegen: nft-transfer? takes exactly 4 arguments (token, identifier, sender, recipient)")
	}
	nameInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	identRegion, err := c.compileIdentifierRegion(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	senderInstrs, err := c.compileExpr(fb, call.Args[2])
	if err != nil {
		return nil, err
	}
	recipientInstrs, err := c.compileExpr(fb, call.Args[3])
	if err != nil {
		return nil, err
	}

	idx, err := c.resolveBuiltinIndex("nft_transfer")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, identRegion...)
	out = append(out, senderInstrs...)
	out = append(out, recipientInstrs...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// compileNftGetOwner lowers `nft-get-owner?` (args: token name,
// identifier); its result already matches Optional(Principal).Slots()
// exactly, no reshaping needed.
func (c *Compiler) compileNftGetOwner(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 2 {
		return nil, errors.Errorf("codegen: nft-get-owner? takes exactly 2 arguments (token, identifier)")
	}
	nameInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	identRegion, err := c.compileIdentifierRegion(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	idx, err := c.resolveBuiltinIndex("nft_get_owner")
	if err != nil {
		return nil, err
	}
	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, identRegion...)
	out = append(out, instruction.Call{Index: idx})
	return out, nil
}

// compileNftAssetCall evaluates name, serializes identifier to a byte
// region, evaluates principalArg, and calls stdName in that wire order —
// shared by nft-mint? (recipient) since their Clarity argument order
// already matches the host's.
func (c *Compiler) compileNftAssetCall(fb *funcBuilder, call ast.Call, stdName string, name, identifier, principalArg ast.Expr) ([]instruction.Instruction, error) {
	nameInstrs, err := c.compileExpr(fb, name)
	if err != nil {
		return nil, err
	}
	identRegion, err := c.compileIdentifierRegion(fb, identifier)
	if err != nil {
		return nil, err
	}
	principalInstrs, err := c.compileExpr(fb, principalArg)
	if err != nil {
		return nil, err
	}

	idx, err := c.resolveBuiltinIndex(stdName)
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, nameInstrs...)
	out = append(out, identRegion...)
	out = append(out, principalInstrs...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out, c.reshapeAssetResult(fb)...)
	return out, nil
}

// compileMapGet lowers `map-get?`: like var-get, the host writes the
// found value into caller-provided scratch and returns a found flag,
// which becomes the Optional variant directly.
func (c *Compiler) compileMapGet(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 2 {
		return nil, errors.Errorf("codegen: map-get? takes exactly 2 arguments (map name, key)")
	}
	mapNameLit, ok := call.Args[0].(ast.Literal)
	if !ok {
		return nil, errors.Errorf("codegen: map-get?'s map name must be a literal")
	}
	name, ok := mapNameLit.Value.(claritype.StringAsciiValue)
	if !ok {
		return nil, errors.Errorf("codegen: map-get?'s map name must be a string-ascii literal")
	}
	def, ok := c.maps[name.Value]
	if !ok {
		return nil, errors.Errorf("codegen: undefined map %q", name.Value)
	}
	nameLit, err := c.internName(name.Value)
	if err != nil {
		return nil, err
	}

	keyInstrs, err := c.compileExpr(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	keyLocals := fb.newLocals(def.keyType.Slots())
	keyAddr := fb.newLocal(types.I32)
	valueAddr := fb.newLocal(types.I32)
	valueLocals := fb.newLocals(def.valueType.Slots())

	idx, err := c.resolveBuiltinIndex("map_get")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, keyInstrs...)
	out = append(out, saveToLocals(keyLocals)...)
	out = append(out, c.allocScratch(fb, keyAddr, marshal.Size(def.keyType))...)
	out = append(out, marshal.Write(keyAddr, keyLocals, def.keyType)...)
	out = append(out, c.allocScratch(fb, valueAddr, marshal.Size(def.valueType))...)
	out = append(out,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.GetLocal{Index: keyAddr},
		instruction.I32Const{Value: int32(marshal.Size(def.keyType))},
		instruction.GetLocal{Index: valueAddr},
		instruction.Call{Index: idx},
	)
	foundLocal := fb.newLocal(types.I32)
	out = append(out, instruction.SetLocal{Index: foundLocal})
	out = append(out, marshal.Read(valueAddr, valueLocals, def.valueType)...)
	out = append(out, instruction.GetLocal{Index: foundLocal})
	out = append(out, pushLocals(valueLocals)...)
	return out, nil
}

// compileMapSet lowers `map-set!`: always succeeds and evaluates to true.
func (c *Compiler) compileMapSet(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 3 {
		return nil, errors.Errorf("codegen: map-set! takes exactly 3 arguments (map name, key, value)")
	}
	mapNameLit, ok := call.Args[0].(ast.Literal)
	if !ok {
		return nil, errors.Errorf("codegen: map-set!'s map name must be a literal")
	}
	name, ok := mapNameLit.Value.(claritype.StringAsciiValue)
	if !ok {
		return nil, errors.Errorf("codegen: map-set!'s map name must be a string-ascii literal")
	}
	def, ok := c.maps[name.Value]
	if !ok {
		return nil, errors.Errorf("codegen: undefined map %q", name.Value)
	}
	nameLit, err := c.internName(name.Value)
	if err != nil {
		return nil, err
	}

	keyInstrs, err := c.compileExpr(fb, call.Args[1])
	if err != nil {
		return nil, err
	}
	keyLocals := fb.newLocals(def.keyType.Slots())
	keyAddr := fb.newLocal(types.I32)

	valueInstrs, err := c.compileExpr(fb, call.Args[2])
	if err != nil {
		return nil, err
	}
	valueLocals := fb.newLocals(def.valueType.Slots())
	valueAddr := fb.newLocal(types.I32)

	idx, err := c.resolveBuiltinIndex("map_set")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, keyInstrs...)
	out = append(out, saveToLocals(keyLocals)...)
	out = append(out, c.allocScratch(fb, keyAddr, marshal.Size(def.keyType))...)
	out = append(out, marshal.Write(keyAddr, keyLocals, def.keyType)...)

	out = append(out, valueInstrs...)
	out = append(out, saveToLocals(valueLocals)...)
	out = append(out, c.allocScratch(fb, valueAddr, marshal.Size(def.valueType))...)
	out = append(out, marshal.Write(valueAddr, valueLocals, def.valueType)...)

	out = append(out,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.GetLocal{Index: keyAddr},
		instruction.I32Const{Value: int32(marshal.Size(def.keyType))},
		instruction.GetLocal{Index: valueAddr},
		instruction.I32Const{Value: int32(marshal.Size(def.valueType))},
		instruction.Call{Index: idx},
		instruction.I32Const{Value: 1},
	)
	return out, nil
}

// compileStxAccount lowers `stx-account`: the host returns three UInt
// chunks in (locked, unlocked, unlock-height) declaration order, but
// claritype.Tuple sorts fields alphabetically ("locked", "unlock-height",
// "unlocked"), so the unlocked/unlock-height pair is swapped on the way
// out.
func (c *Compiler) compileStxAccount(fb *funcBuilder, call ast.Call) ([]instruction.Instruction, error) {
	if len(call.Args) != 1 {
		return nil, errors.Errorf("codegen: stx-account takes exactly one argument (owner principal)")
	}
	ownerInstrs, err := c.compileExpr(fb, call.Args[0])
	if err != nil {
		return nil, err
	}
	idx, err := c.resolveBuiltinIndex("stx_account")
	if err != nil {
		return nil, err
	}

	lockedLo, lockedHi := fb.newLocal(types.I64), fb.newLocal(types.I64)
	unlockedLo, unlockedHi := fb.newLocal(types.I64), fb.newLocal(types.I64)
	unlockHeightLo, unlockHeightHi := fb.newLocal(types.I64), fb.newLocal(types.I64)

	out := append([]instruction.Instruction{}, ownerInstrs...)
	out = append(out, instruction.Call{Index: idx})
	out = append(out,
		instruction.SetLocal{Index: unlockHeightHi}, instruction.SetLocal{Index: unlockHeightLo},
		instruction.SetLocal{Index: unlockedHi}, instruction.SetLocal{Index: unlockedLo},
		instruction.SetLocal{Index: lockedHi}, instruction.SetLocal{Index: lockedLo},
	)
	out = append(out,
		instruction.GetLocal{Index: lockedLo}, instruction.GetLocal{Index: lockedHi},
		instruction.GetLocal{Index: unlockHeightLo}, instruction.GetLocal{Index: unlockHeightHi},
		instruction.GetLocal{Index: unlockedLo}, instruction.GetLocal{Index: unlockedHi},
	)
	return out, nil
}

// compileUserCall evaluates every argument in order and calls fn by its
// reserved function index (§4.6.4) — the same index whether fn was
// defined earlier or later in source order, or calls itself.
func (c *Compiler) compileUserCall(fb *funcBuilder, call ast.Call, fn funcInfo) ([]instruction.Instruction, error) {
	if len(call.Args) != len(fn.params) {
		return nil, errors.Errorf("codegen: %q called with %d arguments, expected %d", call.Name, len(call.Args), len(fn.params))
	}
	var out []instruction.Instruction
	for _, arg := range call.Args {
		instrs, err := c.compileExpr(fb, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	out = append(out, instruction.Call{Index: fn.index})
	return out, nil
}
