// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stdlib

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/hostabi"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

func buildTestModule(t *testing.T) (*module.Module, *Registry) {
	t.Helper()
	m := module.New()
	host, err := hostabi.Declare(m)
	if err != nil {
		t.Fatalf("hostabi.Declare: %v", err)
	}
	reg, err := Build(m, host)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m, reg
}

func TestBuildRegistersEveryEntryPoint(t *testing.T) {
	_, reg := buildTestModule(t)

	want := []string{
		"runtime-error",
		"add-uint", "add-int", "sub-uint", "sub-int",
		"mul-uint", "mul-int", "div-uint", "div-int", "mod-uint", "mod-int",
		"pow-uint", "log2-uint", "sqrti-uint",
		"is-eq-int", "is-eq-bytes",
	}
	for _, name := range want {
		if _, ok := reg.Functions[name]; !ok {
			t.Errorf("missing registered function %q", name)
		}
	}
	for _, name := range assetPassthroughs {
		if _, ok := reg.Functions[name]; !ok {
			t.Errorf("missing registered passthrough %q", name)
		}
	}
}

func TestBuildRegistersTrapGlobals(t *testing.T) {
	_, reg := buildTestModule(t)

	for _, name := range []string{
		GlobalStackPointer,
		GlobalRuntimeErrorCode,
		GlobalRuntimeErrorValOff,
		GlobalRuntimeErrorTySOff,
		GlobalRuntimeErrorTySLen,
		GlobalRuntimeErrorArgOff,
		GlobalRuntimeErrorArgLen,
	} {
		if _, ok := reg.Globals[name]; !ok {
			t.Errorf("missing registered global %q", name)
		}
	}
}

func TestFunctionIndicesAreUniqueAndAfterImports(t *testing.T) {
	m, reg := buildTestModule(t)

	importedFuncs := 0
	for _, imp := range m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			importedFuncs++
		}
	}

	seen := make(map[uint32]bool)
	for name, idx := range reg.Functions {
		if idx < uint32(importedFuncs) {
			t.Errorf("function %q index %d overlaps the import space (< %d)", name, idx, importedFuncs)
		}
		if seen[idx] {
			t.Errorf("duplicate function index %d", idx)
		}
		seen[idx] = true
	}

	if len(m.Code.Segments) != len(m.Function.TypeIndices) {
		t.Errorf("code section has %d entries, function section has %d", len(m.Code.Segments), len(m.Function.TypeIndices))
	}
}

func TestLocalDeclarationsRunLengthEncode(t *testing.T) {
	lb := newLocalBuilder(0)
	lb.add(types.I32)
	lb.add(types.I32)
	lb.add(types.I64)
	lb.add(types.I32)

	decls := lb.declarations()
	if len(decls) != 3 {
		t.Fatalf("declarations() = %d runs, want 3", len(decls))
	}
	if decls[0].Count != 2 {
		t.Errorf("first run count = %d, want 2", decls[0].Count)
	}
	if decls[1].Count != 1 {
		t.Errorf("second run count = %d, want 1", decls[1].Count)
	}
	if decls[2].Count != 1 {
		t.Errorf("third run count = %d, want 1", decls[2].Count)
	}
}

func TestRegistryLookupErrors(t *testing.T) {
	reg := &Registry{Functions: map[string]uint32{"add-uint": 3}, Globals: map[string]uint32{}}

	if idx, err := reg.FuncIndex("add-uint"); err != nil || idx != 3 {
		t.Fatalf("FuncIndex(add-uint) = %d, %v", idx, err)
	}
	if _, err := reg.FuncIndex("does-not-exist"); err == nil {
		t.Fatalf("expected error for unknown function")
	}
	if _, err := reg.GlobalIndex("does-not-exist"); err == nil {
		t.Fatalf("expected error for unknown global")
	}
}
