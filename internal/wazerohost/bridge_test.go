// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/hostabi"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

func TestToAPITypes(t *testing.T) {
	got := toAPITypes([]types.ValueType{types.I32, types.I64, types.F32, types.F64})
	want := []api.ValueType{api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("toAPITypes = %v, want %v", got, want)
	}
}

func TestBoolU64(t *testing.T) {
	if boolU64(true) != 1 {
		t.Fatalf("boolU64(true) = %d, want 1", boolU64(true))
	}
	if boolU64(false) != 0 {
		t.Fatalf("boolU64(false) = %d, want 0", boolU64(false))
	}
}

func TestAssetResultStack(t *testing.T) {
	got := assetResultStack(true, claritype.Int128{Lo: 5, Hi: 6})
	want := []uint64{1, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("assetResultStack(true, ...) = %v, want %v", got, want)
	}
	got = assetResultStack(false, claritype.Int128{})
	want = []uint64{0, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("assetResultStack(false, ...) = %v, want %v", got, want)
	}
}

// Every hostabi.Imports entry must resolve to a concrete bridge closure:
// hostFunc returning nil for any of them would make buildHostModule fail
// at runtime, so this guards the two tables staying in sync.
func TestHostFuncCoversEveryImport(t *testing.T) {
	h := New()
	for _, spec := range hostabi.Imports {
		if hostFunc(h, spec.Name) == nil {
			t.Errorf("hostFunc has no implementation for import %q", spec.Name)
		}
	}
}

func TestHostFuncUnknownNameReturnsNil(t *testing.T) {
	h := New()
	if hostFunc(h, "not_a_real_import") != nil {
		t.Fatalf("hostFunc should return nil for an unrecognized import name")
	}
}
