// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package hostabi defines the Host Interface Contract (§4.7): the fixed
// set of functions every generated module imports under the "host"
// namespace, and the Go-side Host interface a runtime embedder
// implements to serve them.
//
// Every import's Wasm-level signature flattens its source-level
// arguments and results per claritype's Slots, with in-memory results
// written by the host into a caller-provided (offset, length) region
// rather than returned by value — the same convention
// internal/marshal's Write/Read use on the generated-code side of the
// boundary.
package hostabi

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// ImportSpec describes one host import's stable name and flattened Wasm
// signature.
type ImportSpec struct {
	Name    string
	Params  []types.ValueType
	Results []types.ValueType
}

var i32 = types.I32
var i64 = types.I64

func slots(n int, vt types.ValueType) []types.ValueType {
	out := make([]types.ValueType, n)
	for i := range out {
		out[i] = vt
	}
	return out
}

// principalResult is the flattened shape of a Principal return value:
// (offset, length) into host-written memory.
var principalResult = []types.ValueType{i32, i32}

// uintResult is the flattened shape of a UInt return value: low, high.
var uintResult = []types.ValueType{i64, i64}

// Imports is the full Host Interface Contract import table, grouped as
// in §4.7.
var Imports = []ImportSpec{
	// Chain context accessors.
	{Name: "tx_sender", Results: principalResult},
	{Name: "contract_caller", Results: principalResult},
	{Name: "tx_sponsor", Results: append([]types.ValueType{i32}, principalResult...)}, // variant + principal
	{Name: "block_height", Results: uintResult},
	{Name: "burn_block_height", Results: uintResult},
	{Name: "stx_liquid_supply", Results: uintResult},
	{Name: "is_in_regtest", Results: []types.ValueType{i32}},
	{Name: "is_in_mainnet", Results: []types.ValueType{i32}},
	{Name: "chain_id", Results: uintResult},

	// Context scoping.
	{Name: "enter_as_contract", Params: []types.ValueType{i32, i32}},
	{Name: "exit_as_contract"},
	{Name: "enter_at_block", Params: []types.ValueType{i64, i64}},
	{Name: "exit_at_block"},
	{Name: "begin_public_call"},
	{Name: "begin_read_only_call"},
	{Name: "commit_call"},
	{Name: "roll_back_call"},

	// Storage.
	{Name: "define_variable", Params: []types.ValueType{i32, i32, i32, i32}},
	{Name: "get_variable", Params: []types.ValueType{i32, i32, i32}, Results: []types.ValueType{i32}},
	{Name: "set_variable", Params: []types.ValueType{i32, i32, i32, i32}},
	{Name: "map_get", Params: []types.ValueType{i32, i32, i32, i32, i32}, Results: []types.ValueType{i32}},
	{Name: "map_set", Params: []types.ValueType{i32, i32, i32, i32, i32, i32}},
	{Name: "map_insert", Params: []types.ValueType{i32, i32, i32, i32, i32, i32}, Results: []types.ValueType{i32}},
	{Name: "map_delete", Params: []types.ValueType{i32, i32, i32, i32}, Results: []types.ValueType{i32}},

	// Assets. Uniform shape: (name_offset, name_length, principal_offset,
	// principal_length, amount_lo, amount_hi) -> (result_variant,
	// payload_lo, payload_hi), a Response(UInt, UInt)-shaped result.
	{Name: "define_ft", Params: []types.ValueType{i32, i32, i64, i64}},
	{Name: "ft_mint", Params: assetParams(), Results: assetResult()},
	{Name: "ft_burn", Params: assetParams(), Results: assetResult()},
	{Name: "ft_transfer", Params: append(assetParams(), i32, i32), Results: assetResult()}, // + recipient (offset,len)
	{Name: "ft_get_supply", Params: []types.ValueType{i32, i32}, Results: uintResult},
	{Name: "ft_get_balance", Params: []types.ValueType{i32, i32, i32, i32}, Results: uintResult},
	{Name: "define_nft", Params: []types.ValueType{i32, i32}},
	{Name: "nft_mint", Params: []types.ValueType{i32, i32, i32, i32, i32, i32}, Results: assetResult()},
	{Name: "nft_burn", Params: []types.ValueType{i32, i32, i32, i32}, Results: assetResult()},
	{Name: "nft_transfer", Params: []types.ValueType{i32, i32, i32, i32, i32, i32, i32, i32}, Results: assetResult()},
	{Name: "nft_get_owner", Params: []types.ValueType{i32, i32, i32, i32}, Results: append([]types.ValueType{i32}, principalResult...)},
	{Name: "stx_burn", Params: []types.ValueType{i64, i64, i32, i32}, Results: assetResult()},
	{Name: "stx_transfer", Params: []types.ValueType{i64, i64, i32, i32, i32, i32}, Results: assetResult()},
	{Name: "stx_get_balance", Params: []types.ValueType{i32, i32}, Results: uintResult},
	{Name: "stx_account", Params: []types.ValueType{i32, i32}, Results: slots(6, i64)}, // locked/unlocked/unlock-height

	// Observability.
	{Name: "print", Params: []types.ValueType{i32, i32}},

	// Cryptographic primitives. Digest/signature outputs are written by
	// the host into the caller-provided out_offset.
	{Name: "keccak256", Params: []types.ValueType{i32, i32, i32}},
	{Name: "sha512", Params: []types.ValueType{i32, i32, i32}},
	{Name: "sha512_256", Params: []types.ValueType{i32, i32, i32}},
	{Name: "secp256k1_recover", Params: []types.ValueType{i32, i32, i32, i32, i32}, Results: []types.ValueType{i32}},
	{Name: "secp256k1_verify", Params: []types.ValueType{i32, i32, i32, i32, i32, i32}, Results: []types.ValueType{i32}},
	{Name: "principal_of", Params: []types.ValueType{i32, i32, i32}, Results: []types.ValueType{i32}},

	// Cross-contract invocation.
	{Name: "contract_call", Params: []types.ValueType{i32, i32, i32, i32, i32, i32, i32}, Results: []types.ValueType{i32}},

	// Block context accessors.
	{Name: "get_block_info", Params: []types.ValueType{i32, i64, i64, i32}, Results: []types.ValueType{i32}},
	{Name: "get_burn_block_info", Params: []types.ValueType{i32, i64, i64, i32}, Results: []types.ValueType{i32}},

	// Consensus value serialization (`to-consensus-buff?`). value_addr
	// points at the argument's marshal-layout slots (already written to
	// scratch memory by the generator, exactly as emitRuntimeErrorTrap
	// does for a trap's carried value); the type descriptor alongside it
	// lets the host reconstruct the argument regardless of its shape.
	// The host writes the consensus image into out_offset and returns
	// its length.
	{Name: "to_consensus_buff", Params: []types.ValueType{i32, i32, i32, i32}, Results: []types.ValueType{i32}},
}

func assetParams() []types.ValueType {
	return []types.ValueType{i32, i32, i32, i32, i64, i64}
}

func assetResult() []types.ValueType {
	return []types.ValueType{i32, i64, i64}
}

// Declare appends every entry of Imports to m's import section under the
// "host" module namespace, registering (and deduplicating) each entry's
// function type, and returns a name -> function index map for the code
// generator and stdlib builder to resolve calls against.
func Declare(m *module.Module) (map[string]uint32, error) {
	indices := make(map[string]uint32, len(Imports))

	var nextFuncIdx uint32
	for _, imp := range m.Import.Imports {
		if imp.Descriptor.Type == module.FunctionImportType {
			nextFuncIdx++
		}
	}

	for _, spec := range Imports {
		if _, exists := indices[spec.Name]; exists {
			return nil, errors.Errorf("hostabi: duplicate import %q", spec.Name)
		}
		ft := module.FunctionType{Params: spec.Params, Results: spec.Results}
		typeIdx := internType(m, ft)

		m.Import.Imports = append(m.Import.Imports, module.Import{
			Module: "host",
			Name:   spec.Name,
			Descriptor: module.ImportDescriptor{
				Type:  module.FunctionImportType,
				Index: typeIdx,
			},
		})
		indices[spec.Name] = nextFuncIdx
		nextFuncIdx++
	}
	return indices, nil
}

func internType(m *module.Module, ft module.FunctionType) uint32 {
	for i, t := range m.Type.Functions {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.Type.Functions = append(m.Type.Functions, ft)
	return uint32(len(m.Type.Functions) - 1)
}
