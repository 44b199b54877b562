// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 requires this exact, deprecated-but-standard primitive.
	"golang.org/x/crypto/sha3"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// standardPrincipalVersion is the version byte this reference host
// stamps onto principals it derives from a public key. The real chain's
// version scheme (mainnet/testnet, single/multisig) is consensus policy
// this module does not model; a single constant keeps principal_of
// self-consistent for contracts exercising it against its own ledger.
const standardPrincipalVersion = 0x16

// Keccak256 implements hostabi.Host.
func (h *Host) Keccak256(input []byte) [32]byte {
	d := sha3.NewLegacyKeccak256()
	d.Write(input)
	var out [32]byte
	copy(out[:], d.Sum(nil))
	return out
}

// Sha512 implements hostabi.Host. The exact algorithm is fixed by name
// (SHA-512), so this uses the standard library directly rather than a
// third-party hash package: crypto/sha512 is the ecosystem-standard
// implementation and nothing in the retrieval pack does this differently.
func (h *Host) Sha512(input []byte) [64]byte {
	return sha512.Sum512(input)
}

// Sha512_256 implements hostabi.Host, for the same reason as Sha512.
func (h *Host) Sha512_256(input []byte) [32]byte {
	return sha512.Sum512_256(input)
}

// Secp256k1Recover implements hostabi.Host. signature is the 65-byte
// compact form (1-byte recovery id followed by r and s), matching what
// the generated code's secp256k1-recover? lowering hands the bridge.
func (h *Host) Secp256k1Recover(messageHash [32]byte, signature []byte) ([33]byte, error) {
	if len(signature) != 65 {
		return [33]byte{}, errors.Errorf("wazerohost: secp256k1 signature must be 65 bytes, got %d", len(signature))
	}
	pub, _, err := ecdsa.RecoverCompact(signature, messageHash[:])
	if err != nil {
		return [33]byte{}, errors.Wrap(err, "wazerohost: secp256k1 recover")
	}
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out, nil
}

// Secp256k1Verify implements hostabi.Host: it recovers the signer from
// the compact signature and compares against the supplied public key,
// which is how a compact (recovery-id-carrying) signature is verified
// without a second, DER-format code path.
func (h *Host) Secp256k1Verify(messageHash [32]byte, signature, publicKey []byte) bool {
	recovered, err := h.Secp256k1Recover(messageHash, signature)
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	var compressed [33]byte
	copy(compressed[:], pub.SerializeCompressed())
	return compressed == recovered
}

// PrincipalOf implements hostabi.Host, deriving a standard principal
// from a public key via hash160 (RIPEMD160(SHA256(pubkey))), the
// convention real Bitcoin- and Stacks-style address schemes use; the
// specification and the original implementation leave the exact
// derivation unspecified, so this reference host follows that ecosystem
// standard.
func (h *Host) PrincipalOf(publicKey []byte) (claritype.PrincipalValue, error) {
	sha := sha256.Sum256(publicKey)
	r := ripemd160.New()
	r.Write(sha[:])
	digest := r.Sum(nil)

	var hash [claritype.PrincipalHashLen]byte
	copy(hash[:], digest)
	return claritype.PrincipalValue{Version: standardPrincipalVersion, Hash: hash}, nil
}

// ContractCall implements hostabi.Host. Cross-contract invocation
// requires a multi-module linker and is out of scope for this
// single-module reference host (see SPEC_FULL.md §10's scaffolding
// note); the generated code never emits contract_call (dynamic dispatch
// at the Wasm level is a stated Non-goal), so this is unreachable in
// practice and exists only to satisfy the interface.
func (h *Host) ContractCall(contract claritype.PrincipalValue, function string, args []claritype.Value) (claritype.Value, error) {
	return nil, errors.New("wazerohost: cross-contract calls are not supported by the reference host")
}

// GetBlockInfo implements hostabi.Host.
func (h *Host) GetBlockInfo(property string, height claritype.Int128) (claritype.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byHeight, ok := h.blockInfo[height.Lo]
	if !ok {
		return nil, false
	}
	v, ok := byHeight[property]
	return v, ok
}

// GetBurnBlockInfo implements hostabi.Host.
func (h *Host) GetBurnBlockInfo(property string, height claritype.Int128) (claritype.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byHeight, ok := h.burnBlockInfo[height.Lo]
	if !ok {
		return nil, false
	}
	v, ok := byHeight[property]
	return v, ok
}

// SetBlockInfo is reference-host scaffolding for seeding block metadata
// a test wants get-block-info? to observe.
func (h *Host) SetBlockInfo(height claritype.Int128, property string, value claritype.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byHeight, ok := h.blockInfo[height.Lo]
	if !ok {
		byHeight = make(map[string]claritype.Value)
		h.blockInfo[height.Lo] = byHeight
	}
	byHeight[property] = value
}

// SetBurnBlockInfo is the burn-chain counterpart of SetBlockInfo.
func (h *Host) SetBurnBlockInfo(height claritype.Int128, property string, value claritype.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byHeight, ok := h.burnBlockInfo[height.Lo]
	if !ok {
		byHeight = make(map[string]claritype.Value)
		h.burnBlockInfo[height.Lo] = byHeight
	}
	byHeight[property] = value
}
