// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package stdlib builds the standard library (§4.4): a fixed set of
// module-internal functions the code generator calls for 128-bit
// arithmetic, equality, the runtime-error trap, and every asset/variable
// primitive that delegates to a host import. Unlike a conventional
// Wasm dependency, stdlib has no module-linking boundary of its own —
// Wasm's MVP has no way to link two modules without an embedder acting
// as go-between, so Build emits these functions directly into the same
// module the code generator is populating, and "stdlib." is a debug
// naming convention (carried in the module's name section) rather than
// an import namespace.
package stdlib

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/stackalloc"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// Registry maps every stdlib entry point to its function index (and the
// trap-carrying error globals to their global indices), for
// internal/codegen to call against.
type Registry struct {
	Functions map[string]uint32
	Globals   map[string]uint32
}

func (r *Registry) FuncIndex(name string) (uint32, error) {
	idx, ok := r.Functions[name]
	if !ok {
		return 0, errors.Errorf("stdlib: no function named %q", name)
	}
	return idx, nil
}

func (r *Registry) GlobalIndex(name string) (uint32, error) {
	idx, ok := r.Globals[name]
	if !ok {
		return 0, errors.Errorf("stdlib: no global named %q", name)
	}
	return idx, nil
}

// Names of the trap-carrying globals (§4.5), in the order errormapping's
// TrapGlobals expects them.
const (
	GlobalStackPointer       = "stack-pointer"
	GlobalRuntimeErrorCode   = "runtime-error-code"
	GlobalRuntimeErrorValOff = "runtime-error-value-offset"
	GlobalRuntimeErrorTySOff = "runtime-error-type-ser-offset"
	GlobalRuntimeErrorTySLen = "runtime-error-type-ser-len"
	GlobalRuntimeErrorArgOff = "runtime-error-arg-offset"
	GlobalRuntimeErrorArgLen = "runtime-error-arg-len"
)

// builder accumulates stdlib's functions and globals into m, tracking the
// name -> index registry as it goes. It mirrors the teacher's
// `compileStrings`-style pattern of building up module sections directly
// rather than through an intermediate IR, generalized with a handful of
// small helpers (declareType/defineFunction/declareGlobal) the teacher's
// single-purpose compiler pass didn't need.
type builder struct {
	m        *module.Module
	host     map[string]uint32
	reg      *Registry
	alloc    *stackalloc.Allocator
	stackPtr uint32
}

// Build appends every standard library function and global to m and
// returns the resulting registry. host is the name -> function index map
// internal/hostabi.Declare produced for the same module; stdlib's
// asset/variable helpers call through it.
func Build(m *module.Module, host map[string]uint32) (*Registry, error) {
	b := &builder{
		m:    m,
		host: host,
		reg: &Registry{
			Functions: make(map[string]uint32),
			Globals:   make(map[string]uint32),
		},
	}

	b.declareGlobals()
	b.alloc = stackalloc.New(b.stackPtr)

	b.buildTrap()
	b.buildArithmetic()
	b.buildEquality()
	if err := b.buildAssets(); err != nil {
		return nil, err
	}

	return b.reg, nil
}

// declareGlobals declares $stack-pointer (mutable, initialized past the
// literal pool by the caller rewriting its init expression once the pool's
// final size is known) and the six runtime-error-* globals (§4.5), all
// i32, all initialized to zero.
func (b *builder) declareGlobals() {
	add := func(name string, vt types.ValueType, init int64) uint32 {
		idx := uint32(len(b.m.Global.Globals))
		var initInstr instruction.Instruction
		if vt == types.I64 {
			initInstr = instruction.I64Const{Value: init}
		} else {
			initInstr = instruction.I32Const{Value: int32(init)}
		}
		b.m.Global.Globals = append(b.m.Global.Globals, module.Global{
			Type:    vt,
			Mutable: true,
			Init:    module.Expr{Instrs: []instruction.Instruction{initInstr}},
		})
		b.reg.Globals[name] = idx
		return idx
	}

	b.stackPtr = add(GlobalStackPointer, types.I32, 0)
	add(GlobalRuntimeErrorCode, types.I32, 0)
	add(GlobalRuntimeErrorValOff, types.I32, 0)
	add(GlobalRuntimeErrorTySOff, types.I32, 0)
	add(GlobalRuntimeErrorTySLen, types.I32, 0)
	add(GlobalRuntimeErrorArgOff, types.I32, 0)
	add(GlobalRuntimeErrorArgLen, types.I32, 0)
}

// internType registers ft in the type section, deduplicating against any
// identical existing entry (the same policy internal/hostabi.Declare and
// internal/wasm/encoding's section codecs use).
func (b *builder) internType(ft module.FunctionType) uint32 {
	for i, t := range b.m.Type.Functions {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	b.m.Type.Functions = append(b.m.Type.Functions, ft)
	return uint32(len(b.m.Type.Functions) - 1)
}

// defineFunction appends a module-defined function body, registers its
// debug name, and records it in the registry under "stdlib.<name>".
func (b *builder) defineFunction(name string, params, results []types.ValueType, locals []module.LocalDeclaration, body []instruction.Instruction) uint32 {
	typeIdx := b.internType(module.FunctionType{Params: params, Results: results})

	// The function index space is shared with imports, which always
	// occupy the low indices; count only function imports already
	// declared (host imports are declared before Build runs).
	var importedFuncs uint32
	for _, imp := range b.m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			importedFuncs++
		}
	}
	idx := importedFuncs + uint32(len(b.m.Function.TypeIndices))

	b.m.Function.TypeIndices = append(b.m.Function.TypeIndices, typeIdx)
	b.m.Code.Segments = append(b.m.Code.Segments, module.CodeEntry{
		Func: module.Func{Locals: locals, Instrs: body},
	})
	b.m.Names.Functions = append(b.m.Names.Functions, module.NameMap{
		Index: idx,
		Name:  "stdlib." + name,
	})

	b.reg.Functions[name] = idx
	return idx
}

// callHost emits a call to a host import previously declared by
// internal/hostabi.Declare, trusting that host[name] exists (Build's
// caller is responsible for declaring every import stdlib depends on
// before calling Build).
func (b *builder) callHost(name string) (instruction.Instruction, error) {
	idx, ok := b.host[name]
	if !ok {
		return nil, errors.Errorf("stdlib: host import %q not declared", name)
	}
	return instruction.Call{Index: idx}, nil
}
