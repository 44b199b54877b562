// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/hostabi"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// buildHostModule wires every internal/hostabi.Imports entry to h,
// following the current tetratelabs/wazero API (NewHostModuleBuilder /
// api.GoModuleFunc), not the older NewModuleBuilder style
// open-policy-agent-opa/internal/wasm/sdk/internal/wazero/env.go uses —
// that package predates the wazero major version this module is pinned
// to. The malloc-free, memory-growing write pattern env.go and VM.go use
// to move bytes across the boundary is what this package follows; the
// concrete api.Module/api.Memory calls are modeled on
// moonrockz-gherkin/examples/go/gherkin/cabi.go's current-API style.
func buildHostModule(ctx context.Context, r wazero.Runtime, h *Host) (api.Module, error) {
	builder := r.NewHostModuleBuilder("host")

	for _, spec := range hostabi.Imports {
		fn := hostFunc(h, spec.Name)
		if fn == nil {
			return nil, errors.Errorf("wazerohost: no bridge implementation for host import %q", spec.Name)
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(fn), toAPITypes(spec.Params), toAPITypes(spec.Results)).
			Export(spec.Name)
	}

	return builder.Instantiate(ctx)
}

// toAPITypes converts internal/wasm/types.ValueType (this module's own
// value-type representation, used throughout the code generator) to
// wazero's api.ValueType. Both alias the Wasm binary format's type
// opcodes (0x7f for i32, and so on), so this is a plain element-wise
// byte conversion, not a lookup table.
func toAPITypes(vts []types.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(vts))
	for i, vt := range vts {
		out[i] = api.ValueType(vt)
	}
	return out
}

func mem(mod api.Module) api.Memory { return mod.Memory() }

func readName(mod api.Module, off, length uint64) (string, error) {
	b, err := readBytes(mem(mod), uint32(off), uint32(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// resolveStorageBytes reads the bytes a map key/value argument carries.
// define_variable/set_variable do not go through it: they pass the same
// marshal.Size-wide bytes and the bridge stores them as they are.
// map_get/map_set/map_insert/map_delete size every key/value by its flat
// width alone (internal/marshal.Size),
// which for an in-memory type is just its 8-byte (offset, length)
// pointer pair, not the payload. Since every flat kind is 4 or 16 bytes
// wide and no in-memory kind is, an 8-byte argument unambiguously means
// "follow this pointer" — dereferencing it here recovers real
// content-based key equality without needing a type tag on the wire.
func resolveStorageBytes(mod api.Module, addr, size uint32) ([]byte, error) {
	raw, err := readBytes(mem(mod), addr, size)
	if err != nil {
		return nil, err
	}
	if size != 8 {
		return raw, nil
	}
	innerOffset := binary.LittleEndian.Uint32(raw[0:4])
	innerLength := binary.LittleEndian.Uint32(raw[4:8])
	return readBytes(mem(mod), innerOffset, innerLength)
}

func writeResultBytes(mod api.Module, out uint32, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if !mem(mod).Write(out, b) {
		return errors.New("wazerohost: memory write out of range")
	}
	return nil
}

// writePrincipalResult writes p's canonical encoding into guest memory
// via a, returning the (offset, length) pair as stack results.
func writePrincipalResult(a *arena, p claritype.PrincipalValue) ([]uint64, error) {
	buf, err := claritype.Serialize(p)
	if err != nil {
		return nil, err
	}
	offset, err := a.writeBytes(buf)
	if err != nil {
		return nil, err
	}
	return []uint64{uint64(offset), uint64(len(buf))}, nil
}

func assetResultStack(ok bool, payload claritype.Int128) []uint64 {
	variant := uint64(0)
	if ok {
		variant = 1
	}
	return []uint64{variant, payload.Lo, payload.Hi}
}

// hostFunc returns the Go closure implementing a named host import, or
// nil if name is unrecognized. stack indices below follow
// internal/hostabi.Imports' declared parameter order exactly.
func hostFunc(h *Host, name string) func(context.Context, api.Module, []uint64) {
	switch name {

	// --- Chain context accessors ---

	case "tx_sender":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			res, err := writePrincipalResult(newArena(mem(mod), guestArenaBase(mod)), h.TxSender())
			mustWriteStack(stack, res, err)
		}
	case "contract_caller":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			res, err := writePrincipalResult(newArena(mem(mod), guestArenaBase(mod)), h.ContractCaller())
			mustWriteStack(stack, res, err)
		}
	case "tx_sponsor":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			p, ok := h.TxSponsor()
			variant := uint64(0)
			var principalSlots []uint64
			if ok {
				variant = 1
				res, err := writePrincipalResult(newArena(mem(mod), guestArenaBase(mod)), p)
				if err != nil {
					panic(err)
				}
				principalSlots = res
			} else {
				principalSlots = []uint64{0, 0}
			}
			copy(stack, append([]uint64{variant}, principalSlots...))
		}
	case "block_height":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			v := h.BlockHeight()
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "burn_block_height":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			v := h.BurnBlockHeight()
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "stx_liquid_supply":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			v := h.StxLiquidSupply()
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "is_in_regtest":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = boolU64(h.IsInRegtest())
		}
	case "is_in_mainnet":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = boolU64(h.IsInMainnet())
		}
	case "chain_id":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			v := h.ChainID()
			copy(stack, []uint64{v.Lo, v.Hi})
		}

	// --- Context scoping ---

	case "enter_as_contract":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			p := readPrincipalArg(mod, stack[0], stack[1])
			h.EnterAsContract(p)
		}
	case "exit_as_contract":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.ExitAsContract() }
	case "enter_at_block":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			h.EnterAtBlock(claritype.Int128{Lo: stack[0], Hi: stack[1]})
		}
	case "exit_at_block":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.ExitAtBlock() }
	case "begin_public_call":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.BeginPublicCall() }
	case "begin_read_only_call":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.BeginReadOnlyCall() }
	case "commit_call":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.CommitCall() }
	case "roll_back_call":
		return func(ctx context.Context, mod api.Module, stack []uint64) { h.RollBackCall() }

	// --- Storage ---

	case "define_variable":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			blob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			if err := h.DefineVariable(name, blobValue(blob)); err != nil {
				panic(err)
			}
		}
	case "get_variable":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			v, err := h.GetVariable(name, claritype.NoType())
			if err != nil {
				stack[0] = 0
				return
			}
			blob, _ := blobOf(v)
			if err := writeResultBytes(mod, uint32(stack[2]), blob); err != nil {
				panic(err)
			}
			stack[0] = 1
		}
	case "set_variable":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			blob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			if err := h.SetVariable(name, blobValue(blob)); err != nil {
				panic(err)
			}
		}
	case "map_get":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			keyBlob, err := resolveStorageBytes(mod, uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			v, found, err := h.MapGet(name, blobValue(keyBlob))
			if err != nil || !found {
				stack[0] = 0
				return
			}
			blob, _ := blobOf(v)
			if err := writeResultBytes(mod, uint32(stack[4]), blob); err != nil {
				panic(err)
			}
			stack[0] = 1
		}
	case "map_set":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			keyBlob, err := resolveStorageBytes(mod, uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			valBlob, err := resolveStorageBytes(mod, uint32(stack[4]), uint32(stack[5]))
			if err != nil {
				panic(err)
			}
			if err := h.MapSet(name, blobValue(keyBlob), blobValue(valBlob)); err != nil {
				panic(err)
			}
		}
	case "map_insert":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			keyBlob, err := resolveStorageBytes(mod, uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			valBlob, err := resolveStorageBytes(mod, uint32(stack[4]), uint32(stack[5]))
			if err != nil {
				panic(err)
			}
			inserted, err := h.MapInsert(name, blobValue(keyBlob), blobValue(valBlob))
			if err != nil {
				panic(err)
			}
			stack[0] = boolU64(inserted)
		}
	case "map_delete":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			keyBlob, err := resolveStorageBytes(mod, uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			deleted, err := h.MapDelete(name, blobValue(keyBlob))
			if err != nil {
				panic(err)
			}
			stack[0] = boolU64(deleted)
		}

	// --- Assets ---

	case "define_ft":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			var cap *claritype.Int128
			if stack[2] != 0 || stack[3] != 0 {
				c := claritype.Int128{Lo: stack[2], Hi: stack[3]}
				cap = &c
			}
			if err := h.DefineFT(name, cap); err != nil {
				panic(err)
			}
		}
	case "ft_mint":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name := readAssetArgName(mod, stack)
			principal := readPrincipalArg(mod, stack[2], stack[3])
			amount := claritype.Int128{Lo: stack[4], Hi: stack[5]}
			err := h.FTMint(name, amount, principal)
			copy(stack, assetResultStack(err == nil, amount))
		}
	case "ft_burn":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name := readAssetArgName(mod, stack)
			principal := readPrincipalArg(mod, stack[2], stack[3])
			amount := claritype.Int128{Lo: stack[4], Hi: stack[5]}
			err := h.FTBurn(name, amount, principal)
			copy(stack, assetResultStack(err == nil, amount))
		}
	case "ft_transfer":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name := readAssetArgName(mod, stack)
			sender := readPrincipalArg(mod, stack[2], stack[3])
			amount := claritype.Int128{Lo: stack[4], Hi: stack[5]}
			recipient := readPrincipalArg(mod, stack[6], stack[7])
			err := h.FTTransfer(name, amount, sender, recipient)
			copy(stack, assetResultStack(err == nil, amount))
		}
	case "ft_get_supply":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			v, err := h.FTGetSupply(name)
			if err != nil {
				panic(err)
			}
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "ft_get_balance":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			owner := readPrincipalArg(mod, stack[2], stack[3])
			v, err := h.FTGetBalance(name, owner)
			if err != nil {
				panic(err)
			}
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "define_nft":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			if err := h.DefineNFT(name, claritype.NoType()); err != nil {
				panic(err)
			}
		}
	case "nft_mint":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			idBlob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			owner := readPrincipalArg(mod, stack[4], stack[5])
			err = h.NFTMint(name, blobValue(idBlob), owner)
			copy(stack, assetResultStack(err == nil, zeroInt128))
		}
	case "nft_burn":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			idBlob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			err = h.NFTBurn(name, blobValue(idBlob))
			copy(stack, assetResultStack(err == nil, zeroInt128))
		}
	case "nft_transfer":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			idBlob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			sender := readPrincipalArg(mod, stack[4], stack[5])
			recipient := readPrincipalArg(mod, stack[6], stack[7])
			err = h.NFTTransfer(name, blobValue(idBlob), sender, recipient)
			copy(stack, assetResultStack(err == nil, zeroInt128))
		}
	case "nft_get_owner":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			name, err := readName(mod, stack[0], stack[1])
			if err != nil {
				panic(err)
			}
			idBlob, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			owner, found, err := h.NFTGetOwner(name, blobValue(idBlob))
			if err != nil || !found {
				stack[0] = 0
				return
			}
			res, err := writePrincipalResult(newArena(mem(mod), guestArenaBase(mod)), owner)
			if err != nil {
				panic(err)
			}
			copy(stack, append([]uint64{1}, res...))
		}
	case "stx_burn":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			amount := claritype.Int128{Lo: stack[0], Hi: stack[1]}
			owner := readPrincipalArg(mod, stack[2], stack[3])
			err := h.StxBurn(amount, owner)
			copy(stack, assetResultStack(err == nil, amount))
		}
	case "stx_transfer":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			amount := claritype.Int128{Lo: stack[0], Hi: stack[1]}
			sender := readPrincipalArg(mod, stack[2], stack[3])
			recipient := readPrincipalArg(mod, stack[4], stack[5])
			err := h.StxTransfer(amount, sender, recipient)
			copy(stack, assetResultStack(err == nil, amount))
		}
	case "stx_get_balance":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			owner := readPrincipalArg(mod, stack[0], stack[1])
			v, err := h.StxGetBalance(owner)
			if err != nil {
				panic(err)
			}
			copy(stack, []uint64{v.Lo, v.Hi})
		}
	case "stx_account":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			owner := readPrincipalArg(mod, stack[0], stack[1])
			locked, unlocked, unlockHeight, err := h.StxAccount(owner)
			if err != nil {
				panic(err)
			}
			// Wire order is (locked, unlocked, unlock-height); see
			// internal/codegen's local-pair swap for the Tuple
			// field-order mismatch this corresponds to.
			copy(stack, []uint64{locked.Lo, locked.Hi, unlocked.Lo, unlocked.Hi, unlockHeight.Lo, unlockHeight.Hi})
		}

	// --- Observability ---

	case "print":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			b, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			h.Print(blobValue(b))
		}

	// --- Cryptographic primitives ---

	case "keccak256":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			in, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			out := h.Keccak256(in)
			if err := writeResultBytes(mod, uint32(stack[2]), out[:]); err != nil {
				panic(err)
			}
		}
	case "sha512":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			in, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			out := h.Sha512(in)
			if err := writeResultBytes(mod, uint32(stack[2]), out[:]); err != nil {
				panic(err)
			}
		}
	case "sha512_256":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			in, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			out := h.Sha512_256(in)
			if err := writeResultBytes(mod, uint32(stack[2]), out[:]); err != nil {
				panic(err)
			}
		}
	case "secp256k1_recover":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			msg, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			sig, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			var hash [32]byte
			copy(hash[:], msg)
			pub, err := h.Secp256k1Recover(hash, sig)
			if err != nil {
				stack[0] = 0
				return
			}
			if err := writeResultBytes(mod, uint32(stack[4]), pub[:]); err != nil {
				panic(err)
			}
			stack[0] = 1
		}
	case "secp256k1_verify":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			msg, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			sig, err := readBytes(mem(mod), uint32(stack[2]), uint32(stack[3]))
			if err != nil {
				panic(err)
			}
			pub, err := readBytes(mem(mod), uint32(stack[4]), uint32(stack[5]))
			if err != nil {
				panic(err)
			}
			var hash [32]byte
			copy(hash[:], msg)
			stack[0] = boolU64(h.Secp256k1Verify(hash, sig, pub))
		}
	case "principal_of":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			pub, err := readBytes(mem(mod), uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				panic(err)
			}
			p, err := h.PrincipalOf(pub)
			if err != nil {
				stack[0] = 0
				return
			}
			buf, err := claritype.Serialize(p)
			if err != nil {
				panic(err)
			}
			if err := writeResultBytes(mod, uint32(stack[2]), buf); err != nil {
				panic(err)
			}
			stack[0] = 1
		}

	// --- Cross-contract invocation ---

	case "contract_call":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			// Dynamic dispatch at the Wasm level is a stated Non-goal;
			// the generated code never emits this import.
			stack[0] = 0
		}

	// --- Block context accessors ---

	case "get_block_info":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = blockInfoLookup(h.GetBlockInfo, mod, stack)
		}
	case "get_burn_block_info":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = blockInfoLookup(h.GetBurnBlockInfo, mod, stack)
		}

	// --- Consensus value serialization ---

	case "to_consensus_buff":
		return func(ctx context.Context, mod api.Module, stack []uint64) {
			tyBytes, err := readBytes(mem(mod), uint32(stack[1]), uint32(stack[2]))
			if err != nil {
				panic(err)
			}
			ty, err := claritype.DecodeTypeDescriptor(tyBytes)
			if err != nil {
				panic(err)
			}
			v, err := decodeValueAt(mem(mod), uint32(stack[0]), ty)
			if err != nil {
				panic(err)
			}
			buf, err := claritype.ConsensusSerialize(v)
			if err != nil {
				panic(err)
			}
			if err := writeResultBytes(mod, uint32(stack[3]), buf); err != nil {
				panic(err)
			}
			stack[0] = uint64(len(buf))
		}
	}
	return nil
}

// blockInfoLookup backs get_block_info/get_burn_block_info: the
// property argument is a small integer code rather than a name-pointer
// pair (there is no length parameter alongside it), so the bridge maps
// it onto a fixed property-name table; the generated code never emits
// either import (no REDESIGN FLAG or supplemented feature reaches block
// introspection), so this exists only to satisfy the interface.
func blockInfoLookup(lookup func(string, claritype.Int128) (claritype.Value, bool), mod api.Module, stack []uint64) uint64 {
	property, ok := blockInfoProperties[uint32(stack[0])]
	if !ok {
		return 0
	}
	height := claritype.Int128{Lo: stack[1], Hi: stack[2]}
	v, found := lookup(property, height)
	if !found {
		return 0
	}
	blob, err := blobOf(v)
	if err != nil {
		return 0
	}
	if err := writeResultBytes(mod, uint32(stack[3]), blob); err != nil {
		return 0
	}
	return 1
}

var blockInfoProperties = map[uint32]string{
	0: "time",
	1: "header-hash",
	2: "burnchain-header-hash",
	3: "vrf-seed",
	4: "miner-address",
}

func readPrincipalArg(mod api.Module, off, length uint64) claritype.PrincipalValue {
	b, err := readBytes(mem(mod), uint32(off), uint32(length))
	if err != nil {
		panic(err)
	}
	v, _, err := claritype.Deserialize(b, claritype.Principal())
	if err != nil {
		panic(err)
	}
	p, ok := v.(claritype.PrincipalValue)
	if !ok {
		panic(errors.New("wazerohost: expected principal"))
	}
	return p
}

func readAssetArgName(mod api.Module, stack []uint64) string {
	name, err := readName(mod, stack[0], stack[1])
	if err != nil {
		panic(err)
	}
	return name
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func mustWriteStack(stack []uint64, values []uint64, err error) {
	if err != nil {
		panic(err)
	}
	copy(stack, values)
}

// guestArenaBase reserves the bridge's scratch region past whatever the
// guest's current memory size is at call time: since every call takes
// this reading fresh, back-to-back host calls within one guest function
// invocation stack additively rather than overlapping.
func guestArenaBase(mod api.Module) uint32 {
	return mem(mod).Size()
}
