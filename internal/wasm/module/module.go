// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package module defines an in-memory representation of a WebAssembly
// module, structured the way the binary format is: one section per
// concern. The code generator builds a Module by appending to these
// sections directly; the encoding package turns a Module into (and back
// from) the binary format.
package module

import (
	"fmt"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// Module is the root of the in-memory WebAssembly module representation.
type Module struct {
	Version uint32

	Type     TypeSection
	Import   ImportSection
	Function FunctionSection
	Table    TableSection
	Memory   MemorySection
	Global   GlobalSection
	Export   ExportSection
	Start    StartSection
	Element  ElementSection
	Code     CodeSection
	Data     DataSection

	// Names carries function debug names: the compiler records every
	// function it defines here (stdlib helpers, user functions,
	// ".top-level"), and ReadModule fills it from a "name" custom section.
	// Lookups by name go through stdlib's Registry instead, and
	// encoding.WriteModule does not emit this section.
	Names Names

	// Customs carries every other custom section verbatim (e.g.
	// "producers"), preserved across a read/write round trip.
	Customs []CustomSection
}

// TypeSection lists every distinct function signature referenced by the
// module, by index.
type TypeSection struct {
	Functions []FunctionType
}

// FunctionType is a function signature: an ordered list of parameter types
// and an ordered list of result types. Clarity values with more than one
// flat slot produce FunctionTypes (and BlockTypes) with more than one
// result, relying on the Wasm multi-value extension.
type FunctionType struct {
	Params  []types.ValueType
	Results []types.ValueType
}

func (f FunctionType) String() string {
	return fmt.Sprintf("(func (param %v) (result %v))", f.Params, f.Results)
}

// Equal reports whether two function types have identical signatures.
func (f FunctionType) Equal(other FunctionType) bool {
	if len(f.Params) != len(other.Params) || len(f.Results) != len(other.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// ImportDescriptorType distinguishes the four kinds of importable entity.
type ImportDescriptorType byte

const (
	FunctionImportType ImportDescriptorType = iota
	TableImportType
	MemoryImportType
	GlobalImportType
)

// ImportDescriptor is the typed payload of an Import.
type ImportDescriptor struct {
	Type  ImportDescriptorType
	Index uint32 // for FunctionImportType: index into the type section
	Table Table
	Mem   Memory
	Glob  GlobalType
}

func (d ImportDescriptor) Kind() ImportDescriptorType { return d.Type }

// Import describes a single imported entity, named by a two-level
// "module.name" namespace per the Wasm spec (e.g. "host.tx_sender").
type Import struct {
	Module     string
	Name       string
	Descriptor ImportDescriptor
}

func (i Import) String() string {
	return fmt.Sprintf("%s.%s", i.Module, i.Name)
}

// ImportSection lists every imported entity, in declaration order; the
// index space for each entity kind is shared between imported and
// module-defined entities, imports always occupying the low indices.
type ImportSection struct {
	Imports []Import
}

// FunctionSection maps each module-defined function (by position) to its
// signature's index in the type section.
type FunctionSection struct {
	TypeIndices []uint32
}

// Limits bounds a table or memory's size, in table-elements or 64KiB pages
// respectively.
type Limits struct {
	Min uint32
	Max *uint32
}

// Table is a module-defined table, used here exclusively to hold function
// references for indirect calls.
type Table struct {
	Lim Limits
}

type TableSection struct {
	Tables []Table
}

// Memory is a module-defined linear memory, declared in units of 64KiB
// pages.
type Memory struct {
	Lim Limits
}

type MemorySection struct {
	Memories []Memory
}

// GlobalType describes a global's value type and mutability, without an
// initializer; used for import descriptors.
type GlobalType struct {
	Type    types.ValueType
	Mutable bool
}

// Global is a module-defined global variable with a constant initializer
// expression.
type Global struct {
	Type    types.ValueType
	Mutable bool
	Init    Expr
}

type GlobalSection struct {
	Globals []Global
}

// ExportDescriptorType distinguishes the four kinds of exportable entity.
type ExportDescriptorType byte

const (
	FunctionExportType ExportDescriptorType = iota
	TableExportType
	MemoryExportType
	GlobalExportType
)

type ExportDescriptor struct {
	Type  ExportDescriptorType
	Index uint32
}

// Export names a module-defined (or re-exported imported) entity so the
// embedder can look it up by name.
type Export struct {
	Name       string
	Descriptor ExportDescriptor
}

func (e Export) String() string {
	return fmt.Sprintf("%s -> %v[%d]", e.Name, e.Descriptor.Type, e.Descriptor.Index)
}

type ExportSection struct {
	Exports []Export
}

// StartSection names the function, if any, to run automatically at
// instantiation. Clarity modules do not use this: constant/data-variable
// initialization is driven explicitly by the embedder invoking
// ".top-level" (see internal/codegen), giving the embedder control over
// when host calls first occur.
type StartSection struct {
	Present bool
	Index   uint32
}

// ElementSegment populates a range of a table with function indices,
// starting at a constant offset.
type ElementSegment struct {
	Index   uint32
	Offset  Expr
	Indices []uint32
}

type ElementSection struct {
	Segments []ElementSegment
}

// LocalDeclaration run-length-encodes a group of locals sharing a type, as
// the binary format requires.
type LocalDeclaration struct {
	Count uint32
	Type  types.ValueType
}

// Func is the instruction-level body of a function: its locals (beyond its
// parameters, which are implicitly locals 0..len(params)-1) followed by its
// instructions.
type Func struct {
	Locals []LocalDeclaration
	Instrs []instruction.Instruction
}

// CodeEntry is one entry of the code section: a function body, matched by
// position to the function section / type section.
type CodeEntry struct {
	Func Func
}

// RawCodeSegment holds a code entry that failed to decode into
// instructions (or was never decoded), keeping its original bytes intact
// for a byte-exact round trip.
type RawCodeSegment struct {
	Code []byte
}

type CodeSection struct {
	Segments []CodeEntry
	// Raw, when non-nil at index i, overrides Segments[i] as the
	// authoritative encoding for that entry.
	Raw []*RawCodeSegment
}

// DataSegment initializes a range of linear memory at a constant offset.
type DataSegment struct {
	Index  uint32
	Offset Expr
	Init   []byte
}

type DataSection struct {
	Segments []DataSegment
}

// Expr is a constant initializer expression: in practice always a single
// instruction (I32Const or I64Const) followed by an implicit "end", which
// the encoder appends.
type Expr struct {
	Instrs []instruction.Instruction
}

// NameMap associates an index space (here, functions) with human-readable
// names, carried in the "name" custom section.
type NameMap struct {
	Index uint32
	Name  string
}

// Names carries the parsed "name" custom section. Only the module name and
// function names are modeled.
type Names struct {
	ModuleName string
	Functions  []NameMap
}

// CustomSection is an opaque, named region of the module preserved
// verbatim across decode/encode (e.g. "producers").
type CustomSection struct {
	Name     string
	Contents []byte
}

// New returns an empty module with the standard preamble version and a
// single linear memory and table already declared, matching every Clarity
// module's fixed shape (spec: "a single linear memory named `memory`").
func New() *Module {
	max := uint32(0)
	return &Module{
		Version: 1,
		Memory: MemorySection{
			Memories: []Memory{{Lim: Limits{Min: 16}}},
		},
		Table: TableSection{
			Tables: []Table{{Lim: Limits{Min: 0, Max: &max}}},
		},
		Export: ExportSection{
			Exports: []Export{
				{Name: "memory", Descriptor: ExportDescriptor{Type: MemoryExportType, Index: 0}},
			},
		},
	}
}
