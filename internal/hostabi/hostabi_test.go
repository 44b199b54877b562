// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package hostabi

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
)

func TestDeclareAssignsSequentialIndices(t *testing.T) {
	m := &module.Module{}
	indices, err := Declare(m)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}

	if len(indices) != len(Imports) {
		t.Fatalf("len(indices) = %d, want %d", len(indices), len(Imports))
	}

	seen := make(map[uint32]bool)
	for _, spec := range Imports {
		idx, ok := indices[spec.Name]
		if !ok {
			t.Fatalf("missing index for %q", spec.Name)
		}
		if seen[idx] {
			t.Fatalf("duplicate function index %d", idx)
		}
		seen[idx] = true
	}

	if len(m.Import.Imports) != len(Imports) {
		t.Fatalf("len(m.Import.Imports) = %d, want %d", len(m.Import.Imports), len(Imports))
	}
	for _, imp := range m.Import.Imports {
		if imp.Module != "host" {
			t.Fatalf("import %q has module %q, want \"host\"", imp.Name, imp.Module)
		}
	}
}

func TestDeclareDedupesIdenticalSignatures(t *testing.T) {
	m := &module.Module{}
	if _, err := Declare(m); err != nil {
		t.Fatalf("Declare: %v", err)
	}

	// exit_as_contract, exit_at_block, begin_public_call, begin_read_only_call,
	// commit_call, and roll_back_call all share the nullary () -> () signature;
	// the type section should carry exactly one entry for it.
	nullary := 0
	for _, ft := range m.Type.Functions {
		if len(ft.Params) == 0 && len(ft.Results) == 0 {
			nullary++
		}
	}
	if nullary != 1 {
		t.Fatalf("nullary function types = %d, want 1", nullary)
	}
}

func TestDeclareAppendsAfterExistingImports(t *testing.T) {
	m := &module.Module{}
	m.Type.Functions = append(m.Type.Functions, module.FunctionType{})
	m.Import.Imports = append(m.Import.Imports, module.Import{
		Module: "env",
		Name:   "preexisting",
		Descriptor: module.ImportDescriptor{
			Type:  module.FunctionImportType,
			Index: 0,
		},
	})

	indices, err := Declare(m)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if indices["tx_sender"] != 1 {
		t.Fatalf("tx_sender index = %d, want 1 (after the preexisting import)", indices["tx_sender"])
	}
}
