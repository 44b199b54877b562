// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/marshal"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// compileExpr lowers e per the expression lowering contract (§4.6.1):
// on return, the emitted instructions, once executed, leave e's flat
// slots on the evaluation stack in declared order.
func (c *Compiler) compileExpr(fb *funcBuilder, e ast.Expr) ([]instruction.Instruction, error) {
	switch x := e.(type) {
	case ast.Literal:
		return c.compileLiteral(x)
	case ast.Var:
		return c.compileVar(fb, x)
	case ast.VarGet:
		return c.compileVarGet(fb, x)
	case ast.VarSet:
		return c.compileVarSet(fb, x)
	case ast.Let:
		return c.compileLet(fb, x)
	case ast.If:
		return c.compileIf(fb, x)
	case ast.And:
		return c.compileAnd(fb, x)
	case ast.Or:
		return c.compileOr(fb, x)
	case ast.MatchOptional:
		return c.compileMatchOptional(fb, x)
	case ast.MatchResponse:
		return c.compileMatchResponse(fb, x)
	case ast.Unwrap:
		return c.compileUnwrap(fb, x)
	case ast.Filter:
		return c.compileFilter(fb, x)
	case ast.Call:
		return c.compileCall(fb, x)
	default:
		return nil, errors.Errorf("codegen: unhandled expression %T", e)
	}
}

// compileLiteral pushes a constant's flat slots. Flat (non-in-memory)
// types are pushed as immediates directly — no memory round trip is
// needed since their whole value already fits in Wasm locals/stack
// slots. In-memory types are interned into the literal pool and pushed
// as an (offset, length) pair.
func (c *Compiler) compileLiteral(lit ast.Literal) ([]instruction.Instruction, error) {
	t := lit.ResultType()
	if !t.IsInMemory() {
		return flatConst(t, lit.Value)
	}
	l, err := c.pool.InternValue(t, lit.Value)
	if err != nil {
		return nil, errors.Wrap(err, "codegen: interning literal")
	}
	return []instruction.Instruction{
		instruction.I32Const{Value: int32(l.Offset)},
		instruction.I32Const{Value: int32(l.Length)},
	}, nil
}

// flatConst pushes a flat-typed value's slots as immediates.
func flatConst(t claritype.Type, v claritype.Value) ([]instruction.Instruction, error) {
	switch t.Kind {
	case claritype.KindInt:
		iv := v.(claritype.IntValue)
		return []instruction.Instruction{
			instruction.I64Const{Value: int64(iv.Bits.Lo)},
			instruction.I64Const{Value: int64(iv.Bits.Hi)},
		}, nil
	case claritype.KindUInt:
		uv := v.(claritype.UIntValue)
		return []instruction.Instruction{
			instruction.I64Const{Value: int64(uv.Bits.Lo)},
			instruction.I64Const{Value: int64(uv.Bits.Hi)},
		}, nil
	case claritype.KindBool:
		bv := v.(claritype.BoolValue)
		var iv int32
		if bv {
			iv = 1
		}
		return []instruction.Instruction{instruction.I32Const{Value: iv}}, nil
	case claritype.KindNoType:
		return []instruction.Instruction{instruction.I32Const{Value: 0}}, nil
	default:
		return nil, errors.Errorf("codegen: %v is not a flat literal type", t)
	}
}

func (c *Compiler) compileVar(fb *funcBuilder, v ast.Var) ([]instruction.Instruction, error) {
	if b, ok := fb.lookup(v.Name); ok {
		return pushLocals(b.locals), nil
	}
	if gb, ok := c.constants[v.Name]; ok {
		return c.readFromStatic(fb, gb)
	}
	return nil, errors.Errorf("codegen: unresolved identifier %q", v.Name)
}

// readFromStatic loads a global binding's value out of the static data
// region into fresh locals and pushes them. gb.offset is relative to
// $static-base (see staticAddr), not an absolute address.
func (c *Compiler) readFromStatic(fb *funcBuilder, gb globalBinding) ([]instruction.Instruction, error) {
	addrLocal := fb.newLocal(types.I32)
	destLocals := fb.newLocals(gb.typ.Slots())
	var out []instruction.Instruction
	out = append(out, c.staticAddr(addrLocal, gb.offset)...)
	out = append(out, marshal.Read(addrLocal, destLocals, gb.typ)...)
	out = append(out, pushLocals(destLocals)...)
	return out, nil
}

// compileVarGet lowers a data-variable read through stdlib's
// `get_variable` passthrough: the host writes the current value into a
// caller-provided scratch region, which is then read back via
// internal/marshal.
func (c *Compiler) compileVarGet(fb *funcBuilder, vg ast.VarGet) ([]instruction.Instruction, error) {
	gb, ok := c.dataVars[vg.Name]
	if !ok {
		return nil, errors.Errorf("codegen: undefined data variable %q", vg.Name)
	}
	nameLit, err := c.internName(vg.Name)
	if err != nil {
		return nil, err
	}

	scratchLocal := fb.newLocal(types.I32)
	destLocals := fb.newLocals(gb.typ.Slots())

	call, err := c.stdreg.FuncIndex("get_variable")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, c.allocScratch(fb, scratchLocal, marshal.Size(gb.typ))...)
	out = append(out,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.GetLocal{Index: scratchLocal},
		instruction.Call{Index: call},
		instruction.Drop{}, // discard the found/not-found flag; an undeclared var is a compile-time error already
	)
	out = append(out, marshal.Read(scratchLocal, destLocals, gb.typ)...)
	out = append(out, pushLocals(destLocals)...)
	return out, nil
}

// compileVarSet lowers a data-variable write: evaluate the new value,
// write it to scratch memory, call `set_variable`, and push `true`
// (var-set's result is always true per §9).
func (c *Compiler) compileVarSet(fb *funcBuilder, vs ast.VarSet) ([]instruction.Instruction, error) {
	gb, ok := c.dataVars[vs.Name]
	if !ok {
		return nil, errors.Errorf("codegen: undefined data variable %q", vs.Name)
	}
	nameLit, err := c.internName(vs.Name)
	if err != nil {
		return nil, err
	}

	valInstrs, err := c.compileExpr(fb, vs.Value)
	if err != nil {
		return nil, err
	}
	valLocals := fb.newLocals(gb.typ.Slots())
	scratchLocal := fb.newLocal(types.I32)

	call, err := c.stdreg.FuncIndex("set_variable")
	if err != nil {
		return nil, err
	}

	var out []instruction.Instruction
	out = append(out, valInstrs...)
	out = append(out, saveToLocals(valLocals)...)
	out = append(out, c.allocScratch(fb, scratchLocal, marshal.Size(gb.typ))...)
	out = append(out, marshal.Write(scratchLocal, valLocals, gb.typ)...)
	out = append(out,
		instruction.I32Const{Value: int32(nameLit.Offset)},
		instruction.I32Const{Value: int32(nameLit.Length)},
		instruction.GetLocal{Index: scratchLocal},
		instruction.I32Const{Value: int32(marshal.Size(gb.typ))},
		instruction.Call{Index: call},
		instruction.I32Const{Value: 1},
	)
	return out, nil
}

// allocScratch reserves size bytes from the call stack allocator,
// leaving the base address in addrLocal.
func (c *Compiler) allocScratch(fb *funcBuilder, addrLocal uint32, size uint32) []instruction.Instruction {
	return c.alloc.Alloc(addrLocal, size)
}

func (c *Compiler) compileLet(fb *funcBuilder, l ast.Let) ([]instruction.Instruction, error) {
	var out []instruction.Instruction
	fb.pushScope()
	defer fb.popScope()

	for _, bnd := range l.Bindings {
		valInstrs, err := c.compileExpr(fb, bnd.Value)
		if err != nil {
			return nil, err
		}
		locals := fb.newLocals(bnd.Value.ResultType().Slots())
		out = append(out, valInstrs...)
		out = append(out, saveToLocals(locals)...)
		fb.bind(bnd.Name, binding{locals: locals, typ: bnd.Value.ResultType()})
	}

	bodyInstrs, err := c.compileBody(fb, l.Body)
	if err != nil {
		return nil, err
	}
	out = append(out, bodyInstrs...)
	return out, nil
}

// compileBody lowers a sequence of expressions evaluated for side
// effects except the last, whose value is the sequence's result —
// shared by Let and DefineFunction bodies.
func (c *Compiler) compileBody(fb *funcBuilder, body []ast.Expr) ([]instruction.Instruction, error) {
	var out []instruction.Instruction
	for i, e := range body {
		instrs, err := c.compileExpr(fb, e)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
		if i < len(body)-1 {
			for range e.ResultType().Slots() {
				out = append(out, instruction.Drop{})
			}
		}
	}
	return out, nil
}

func (c *Compiler) compileIf(fb *funcBuilder, i ast.If) ([]instruction.Instruction, error) {
	condInstrs, err := c.compileExpr(fb, i.Cond)
	if err != nil {
		return nil, err
	}
	thenInstrs, err := c.compileExpr(fb, i.Then)
	if err != nil {
		return nil, err
	}
	elseInstrs, err := c.compileExpr(fb, i.Else)
	if err != nil {
		return nil, err
	}
	out := append([]instruction.Instruction{}, condInstrs...)
	out = append(out, instruction.If{
		BlockType: types.BlockType{Results: i.ResultType().Slots()},
		Then:      thenInstrs,
		Else:      elseInstrs,
	})
	return out, nil
}

// compileAnd lowers a short-circuiting chain of i32 clauses as nested
// if/else, per §4.6.2: the first false clause stops evaluation, and
// unreached clauses' side effects never execute.
func (c *Compiler) compileAnd(fb *funcBuilder, a ast.And) ([]instruction.Instruction, error) {
	return c.compileShortCircuit(fb, a.Clauses, false)
}

func (c *Compiler) compileOr(fb *funcBuilder, o ast.Or) ([]instruction.Instruction, error) {
	return c.compileShortCircuit(fb, o.Clauses, true)
}

// compileShortCircuit builds the and/or chain. deciding is the boolean
// value that stops evaluation early (false for and, true for or).
func (c *Compiler) compileShortCircuit(fb *funcBuilder, clauses []ast.Expr, deciding bool) ([]instruction.Instruction, error) {
	if len(clauses) == 0 {
		return nil, errors.New("codegen: and/or with no clauses")
	}
	headInstrs, err := c.compileExpr(fb, clauses[0])
	if err != nil {
		return nil, err
	}
	if len(clauses) == 1 {
		return headInstrs, nil
	}
	rest, err := c.compileShortCircuit(fb, clauses[1:], deciding)
	if err != nil {
		return nil, err
	}

	decided := []instruction.Instruction{boolConst(deciding)}
	blockType := types.BlockType{Results: []types.ValueType{types.I32}}

	out := append([]instruction.Instruction{}, headInstrs...)
	if deciding {
		// or: a true clause decides immediately; otherwise keep evaluating.
		out = append(out, instruction.If{BlockType: blockType, Then: decided, Else: rest})
	} else {
		// and: a false clause decides immediately; otherwise keep evaluating.
		out = append(out, instruction.If{BlockType: blockType, Then: rest, Else: decided})
	}
	return out, nil
}

func boolConst(b bool) instruction.Instruction {
	if b {
		return instruction.I32Const{Value: 1}
	}
	return instruction.I32Const{Value: 0}
}

