// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package hostabi

import "github.com/BowTiedWoo/clarity-wasm/internal/claritype"

// Host is the Go-side contract a runtime embedder implements to serve
// every import in Imports. internal/wazerohost's in-memory reference
// implementation, and any production embedder, satisfy this interface;
// the generated Wasm module never calls these methods directly — it
// calls the Wasm-level imports, which a host bridge (wazero's
// HostModuleBuilder, for instance) wires onto these methods.
//
// Principal, Buffer, and other in-memory-typed arguments/results cross
// this boundary as claritype.Value, not raw (offset, length) pairs: the
// Wasm-level flattening in Imports exists for the generated caller, and
// a bridge is responsible for marshalling across it with
// internal/marshal before reaching Host.
type Host interface {
	// Chain context accessors.
	TxSender() claritype.PrincipalValue
	ContractCaller() claritype.PrincipalValue
	TxSponsor() (claritype.PrincipalValue, bool)
	BlockHeight() claritype.Int128
	BurnBlockHeight() claritype.Int128
	StxLiquidSupply() claritype.Int128
	IsInRegtest() bool
	IsInMainnet() bool
	ChainID() claritype.Int128

	// Context scoping.
	EnterAsContract(principal claritype.PrincipalValue)
	ExitAsContract()
	EnterAtBlock(height claritype.Int128)
	ExitAtBlock()
	BeginPublicCall()
	BeginReadOnlyCall()
	CommitCall()
	RollBackCall()

	// Storage.
	DefineVariable(name string, initial claritype.Value) error
	GetVariable(name string, valueType claritype.Type) (claritype.Value, error)
	SetVariable(name string, value claritype.Value) error
	MapGet(name string, key claritype.Value) (claritype.Value, bool, error)
	MapSet(name string, key, value claritype.Value) error
	MapInsert(name string, key, value claritype.Value) (bool, error)
	MapDelete(name string, key claritype.Value) (bool, error)

	// Assets.
	DefineFT(name string, supply *claritype.Int128) error
	FTMint(token string, amount claritype.Int128, recipient claritype.PrincipalValue) error
	FTBurn(token string, amount claritype.Int128, owner claritype.PrincipalValue) error
	FTTransfer(token string, amount claritype.Int128, sender, recipient claritype.PrincipalValue) error
	FTGetSupply(token string) (claritype.Int128, error)
	FTGetBalance(token string, owner claritype.PrincipalValue) (claritype.Int128, error)
	DefineNFT(name string, assetType claritype.Type) error
	NFTMint(asset string, id claritype.Value, owner claritype.PrincipalValue) error
	NFTBurn(asset string, id claritype.Value) error
	NFTTransfer(asset string, id claritype.Value, sender, recipient claritype.PrincipalValue) error
	NFTGetOwner(asset string, id claritype.Value) (claritype.PrincipalValue, bool, error)
	StxBurn(amount claritype.Int128, owner claritype.PrincipalValue) error
	StxTransfer(amount claritype.Int128, sender, recipient claritype.PrincipalValue) error
	StxGetBalance(owner claritype.PrincipalValue) (claritype.Int128, error)
	StxAccount(owner claritype.PrincipalValue) (locked, unlocked, unlockHeight claritype.Int128, err error)

	// Observability.
	Print(v claritype.Value)

	// Cryptographic primitives.
	Keccak256(input []byte) [32]byte
	Sha512(input []byte) [64]byte
	Sha512_256(input []byte) [32]byte
	Secp256k1Recover(messageHash [32]byte, signature []byte) ([33]byte, error)
	Secp256k1Verify(messageHash [32]byte, signature, publicKey []byte) bool
	PrincipalOf(publicKey []byte) (claritype.PrincipalValue, error)

	// Cross-contract invocation.
	ContractCall(contract claritype.PrincipalValue, function string, args []claritype.Value) (claritype.Value, error)

	// Block context accessors.
	GetBlockInfo(property string, height claritype.Int128) (claritype.Value, bool)
	GetBurnBlockInfo(property string, height claritype.Int128) (claritype.Value, bool)
}
