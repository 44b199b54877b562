// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package codegen implements the code generator (§4.6): it lowers a
// type-annotated internal/ast.Contract into a WebAssembly
// internal/wasm/module.Module, wiring in internal/hostabi's imports and
// internal/stdlib's arithmetic/equality/asset helpers along the way.
//
// The generator trusts the AST's type annotations completely — a
// separate type checker, outside this module's scope, is assumed to
// have rejected anything statically invalid before the AST reaches
// here. What this package re-validates is only what a type checker
// cannot: name reservation and duplicate top-level binding (§4.6.4).
package codegen

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/hostabi"
	"github.com/BowTiedWoo/clarity-wasm/internal/literal"
	"github.com/BowTiedWoo/clarity-wasm/internal/stackalloc"
	"github.com/BowTiedWoo/clarity-wasm/internal/stdlib"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// literalPoolBase is the first free byte of linear memory, past a small
// reserved low region (offset 0 is deliberately left unused so that a
// null/zero (offset, length) pair is never confused with a valid
// interned literal).
const literalPoolBase = 8

// funcInfo records a top-level function's Wasm-level shape, registered
// before any function body is compiled so that forward and mutually
// recursive calls resolve.
type funcInfo struct {
	index  uint32
	params []claritype.Type
	ret    claritype.Type
	public bool
}

// globalBinding is a top-level name bound to a fixed memory address
// (a constant, or — see DESIGN.md's "static data region" decision — a
// non-literal constant's computed value), persisting for the module's
// entire lifetime rather than one call's.
type globalBinding struct {
	offset uint32
	typ    claritype.Type
}

// mapDef records a declared map's key/value types for map-get?/map-set!
// argument shape checks the type checker didn't already enforce.
type mapDef struct {
	keyType, valueType claritype.Type
}

// Compiler lowers one Contract into one Module, following the staged
// pipeline shape (mirrored, generalized from a single-purpose compiler
// pass to a multi-definition-kind one, on the teacher's
// `stages []func() error` convention).
type Compiler struct {
	stages []func() error
	errs   []error

	contract *ast.Contract
	m        *module.Module

	pool   *literal.Pool
	host   map[string]uint32
	stdreg *stdlib.Registry
	alloc  *stackalloc.Allocator

	staticNext       uint32 // bump pointer for the static data region, relative to $static-base
	staticBaseGlobal uint32 // index of $static-base, patched in finalize once the literal pool's final size is known

	names     map[string]bool // every top-level name bound so far, for duplicate detection
	constants map[string]globalBinding
	dataVars  map[string]globalBinding
	fts       map[string]bool
	nfts      map[string]claritype.Type
	maps      map[string]mapDef
	funcs     map[string]funcInfo

	initBody   []instruction.Instruction // accumulated ".top-level" body, in source order
	topLevelFB *funcBuilder              // shared builder backing every top-level definition's scratch locals

	epoch int // reserved-name epoch; see reserved.go
}

// New returns a compiler for contract, targeting the latest reserved-name
// epoch.
func New(contract *ast.Contract) *Compiler {
	c := &Compiler{
		contract:  contract,
		names:     make(map[string]bool),
		constants: make(map[string]globalBinding),
		dataVars:  make(map[string]globalBinding),
		fts:       make(map[string]bool),
		nfts:      make(map[string]claritype.Type),
		maps:      make(map[string]mapDef),
		funcs:     make(map[string]funcInfo),
		epoch:     currentEpoch,
	}
	c.stages = []func() error{
		c.initModule,
		c.registerFunctionSignatures,
		c.compileNonFunctionDefinitions,
		c.compileFunctionBodies,
		c.finalize,
	}
	return c
}

// Compile runs every stage in order, stopping at the first error (never
// returning a partial artifact, per §7's compile-time error policy).
func (c *Compiler) Compile() (*module.Module, error) {
	for _, stage := range c.stages {
		if err := stage(); err != nil {
			return nil, err
		}
		if len(c.errs) > 0 {
			return nil, c.errs[0]
		}
	}
	return c.m, nil
}

func (c *Compiler) fail(err error) {
	c.errs = append(c.errs, err)
}

// initModule creates the module shell and wires in the Host Interface
// Contract and standard library, exactly as any embedder must before a
// single byte of user code is generated.
func (c *Compiler) initModule() error {
	c.m = module.New()
	c.pool = literal.NewPool(literalPoolBase)

	host, err := hostabi.Declare(c.m)
	if err != nil {
		return errors.Wrap(err, "codegen: declaring host imports")
	}
	c.host = host

	reg, err := stdlib.Build(c.m, host)
	if err != nil {
		return errors.Wrap(err, "codegen: building stdlib")
	}
	c.stdreg = reg

	spIdx, err := reg.GlobalIndex(stdlib.GlobalStackPointer)
	if err != nil {
		return err
	}
	c.alloc = stackalloc.New(spIdx)

	c.staticBaseGlobal = uint32(len(c.m.Global.Globals))
	c.m.Global.Globals = append(c.m.Global.Globals, module.Global{
		Type:    types.I32,
		Mutable: true,
		Init:    module.Expr{Instrs: []instruction.Instruction{instruction.I32Const{Value: 0}}},
	})

	c.topLevelFB = newFuncBuilder(c, claritype.NoType())
	c.topLevelFB.pushScope()

	return nil
}

// registerFunctionSignatures reserves a function index, type, and code
// entry for every DefineFunction up front (§4.6.4's duplicate-name check
// runs here too), so later passes may compile calls to a function
// defined later in source order or to itself.
func (c *Compiler) registerFunctionSignatures() error {
	for _, def := range c.contract.Definitions {
		fn, ok := def.(ast.DefineFunction)
		if !ok {
			continue
		}
		if err := c.reserveName(fn.Name); err != nil {
			return err
		}

		var paramTypes []claritype.Type
		var wasmParams []types.ValueType
		for _, p := range fn.Params {
			paramTypes = append(paramTypes, p.Type)
			wasmParams = append(wasmParams, p.Type.Slots()...)
		}
		wasmResults := fn.Return.Slots()

		typeIdx := c.internType(module.FunctionType{Params: wasmParams, Results: wasmResults})
		idx := c.declareFunctionSlot(typeIdx)

		c.funcs[fn.Name] = funcInfo{index: idx, params: paramTypes, ret: fn.Return, public: fn.Public}
		c.m.Names.Functions = append(c.m.Names.Functions, module.NameMap{Index: idx, Name: fn.Name})

		if fn.Public {
			c.m.Export.Exports = exportFunction(c.m, fn.Name, idx)
		}
	}
	return nil
}

// exportFunction appends a function export and returns the (unchanged)
// export list, mirroring the shape of module.ExportSection's single
// slice field — a tiny helper so registerFunctionSignatures reads
// linearly instead of reaching into the section struct twice.
func exportFunction(m *module.Module, name string, idx uint32) []module.Export {
	return append(m.Export.Exports, module.Export{
		Name:       name,
		Descriptor: module.ExportDescriptor{Type: module.FunctionExportType, Index: idx},
	})
}

// declareFunctionSlot reserves the next module-defined function index
// against typeIdx, appending a placeholder code entry compileFunctionBodies
// overwrites in place.
func (c *Compiler) declareFunctionSlot(typeIdx uint32) uint32 {
	var importedFuncs uint32
	for _, imp := range c.m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			importedFuncs++
		}
	}
	idx := importedFuncs + uint32(len(c.m.Function.TypeIndices))
	c.m.Function.TypeIndices = append(c.m.Function.TypeIndices, typeIdx)
	c.m.Code.Segments = append(c.m.Code.Segments, module.CodeEntry{})
	return idx
}

// internName interns name as a StringAscii literal, the byte form every
// host import taking a "name" argument (define_variable, ft_mint, map_*,
// …) expects.
func (c *Compiler) internName(name string) (literal.Literal, error) {
	return c.pool.InternValue(claritype.StringAscii(uint32(len(name))), claritype.StringAsciiValue{Cap: uint32(len(name)), Value: name})
}

func (c *Compiler) internType(ft module.FunctionType) uint32 {
	for i, t := range c.m.Type.Functions {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	c.m.Type.Functions = append(c.m.Type.Functions, ft)
	return uint32(len(c.m.Type.Functions) - 1)
}

// compileNonFunctionDefinitions processes every constant, data variable,
// FT, NFT, and map declaration in source order, in one pass (see
// definitions.go), accumulating their host-initialization calls into
// c.initBody.
func (c *Compiler) compileNonFunctionDefinitions() error {
	for _, def := range c.contract.Definitions {
		switch d := def.(type) {
		case ast.DefineFunction:
			continue
		case ast.DefineConstant:
			if err := c.compileDefineConstant(d); err != nil {
				return err
			}
		case ast.DefineDataVar:
			if err := c.compileDefineDataVar(d); err != nil {
				return err
			}
		case ast.DefineFT:
			if err := c.compileDefineFT(d); err != nil {
				return err
			}
		case ast.DefineNFT:
			if err := c.compileDefineNFT(d); err != nil {
				return err
			}
		case ast.DefineMap:
			if err := c.compileDefineMap(d); err != nil {
				return err
			}
		default:
			return errors.Errorf("codegen: unhandled top-level definition %T", def)
		}
	}
	return nil
}

// compileFunctionBodies generates every DefineFunction's body and fills
// in the placeholder code entry registerFunctionSignatures reserved.
func (c *Compiler) compileFunctionBodies() error {
	for _, def := range c.contract.Definitions {
		fn, ok := def.(ast.DefineFunction)
		if !ok {
			continue
		}
		if err := c.compileFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// finalize appends the literal pool's data segment, builds and exports
// the ".top-level" initializer, and rewrites the $stack-pointer and
// $static-base globals' initializers now that the pool's and static
// region's final sizes are known. Both regions grow throughout every
// earlier stage (literal interning happens alongside static allocation,
// not before it), so neither region's absolute base can be baked into an
// instruction immediate at allocation time — allocStatic instead hands
// out region-relative offsets, and every read of one resolves the
// absolute address at run time via $static-base (see staticAddr),
// exactly as $stack-pointer's own initial value is deferred here.
func (c *Compiler) finalize() error {
	c.m.Data.Segments = append(c.m.Data.Segments, c.pool.DataSegment())

	staticBase := c.staticRegionBase()
	c.m.Global.Globals[c.staticBaseGlobal].Init = module.Expr{
		Instrs: []instruction.Instruction{instruction.I32Const{Value: int32(staticBase)}},
	}

	stackBase := staticBase + c.staticRegionSize()
	spIdx, err := c.stdreg.GlobalIndex(stdlib.GlobalStackPointer)
	if err != nil {
		return err
	}
	c.m.Global.Globals[spIdx].Init = module.Expr{
		Instrs: []instruction.Instruction{instruction.I32Const{Value: int32(stackBase)}},
	}

	return c.buildTopLevel()
}

func (c *Compiler) staticRegionBase() uint32 {
	return literalPoolBase + c.pool.Size()
}

func (c *Compiler) staticRegionSize() uint32 {
	return c.staticNext
}

// allocStatic reserves size bytes in the static data region (a second,
// never-reclaimed bump region living right after the literal pool;
// unlike internal/stackalloc's region, nothing here is ever reset,
// matching the whole-module lifetime of a constant, data variable, or
// asset descriptor's backing storage) and returns its region-relative
// offset — resolve it to an absolute address via staticAddr.
func (c *Compiler) allocStatic(size uint32) uint32 {
	offset := c.staticNext
	c.staticNext += size
	return offset
}

// staticAddr computes a static-region-relative offset's absolute address
// into addrLocal, reading $static-base at run time rather than baking in
// an immediate — see finalize's doc comment.
func (c *Compiler) staticAddr(addrLocal, relOffset uint32) []instruction.Instruction {
	return []instruction.Instruction{
		instruction.GetGlobal{Index: c.staticBaseGlobal},
		instruction.I32Const{Value: int32(relOffset)},
		instruction.I32Add{},
		instruction.SetLocal{Index: addrLocal},
	}
}

// buildTopLevel emits the ".top-level" function: it runs every
// accumulated initialization call in source order, then returns.
func (c *Compiler) buildTopLevel() error {
	body := append(append([]instruction.Instruction{}, c.initBody...), instruction.Return{})
	typeIdx := c.internType(module.FunctionType{})
	idx := c.declareFunctionSlot(typeIdx)
	c.setCodeEntry(idx, module.CodeEntry{Func: module.Func{
		Locals: c.topLevelFB.localDeclarations(),
		Instrs: body,
	}})
	c.m.Names.Functions = append(c.m.Names.Functions, module.NameMap{Index: idx, Name: ".top-level"})
	c.m.Export.Exports = append(c.m.Export.Exports, module.Export{
		Name:       ".top-level",
		Descriptor: module.ExportDescriptor{Type: module.FunctionExportType, Index: idx},
	})
	return nil
}

// setCodeEntry fills in the code section slot a module-defined function
// index maps to, translating from the shared function index space (which
// imports occupy the low end of) back to Code.Segments' own
// module-defined-only indexing.
func (c *Compiler) setCodeEntry(idx uint32, entry module.CodeEntry) {
	c.m.Code.Segments[idx-c.importedFuncCount()] = entry
}

func (c *Compiler) importedFuncCount() uint32 {
	var n uint32
	for _, imp := range c.m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			n++
		}
	}
	return n
}
