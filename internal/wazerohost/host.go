// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package wazerohost is a from-scratch, in-memory reference
// implementation of internal/hostabi.Host, wired to drive a compiled
// module through tetratelabs/wazero. It exists to prove the Host
// Interface Contract is satisfiable end to end and to exercise the
// wazero dependency — it is scaffolding, not a production chain state
// backend (persistence is explicitly out of scope, see SPEC_FULL.md §10).
package wazerohost

import (
	"sync"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/log"
)

// lockInfo is the STX lock-up state behind stx-account's locked/unlocked
// split.
type lockInfo struct {
	locked       claritype.Int128
	unlockHeight claritype.Int128
}

// scopeFrame is one entry of the enter_as_contract/enter_at_block nesting
// stack; Begin/Commit/RollBack snapshot storage and ledger state
// separately (see the snapshot type below).
type scopeFrame struct {
	contractCaller claritype.PrincipalValue
	blockHeight    *claritype.Int128 // non-nil while inside enter_at_block
}

// Host is the in-memory reference embedder. All mutable state is
// protected by mu since a compiled module may, in principle, be driven
// from multiple goroutines against the same Host (the Host Interface
// Contract itself is synchronous per call, but nothing else in this
// package assumes single-threaded use).
type Host struct {
	mu sync.Mutex

	log log.Logger

	// Chain context.
	txSender        claritype.PrincipalValue
	contractCaller  claritype.PrincipalValue
	txSponsor       *claritype.PrincipalValue
	blockHeight     claritype.Int128
	burnBlockHeight claritype.Int128
	chainID         claritype.Int128
	regtest         bool
	mainnet         bool

	scopes    []scopeFrame
	snapshots []snapshot

	// Storage. Keys and values cross the Host Interface Contract with no
	// type tag (define_variable carries none, and define-map has no
	// corresponding host import — see DESIGN.md), so they are stored as opaque byte blobs
	// wrapped in claritype.BufferValue, which here is a byte carrier, not
	// a claim about the contract-level Clarity type.
	dataVars map[string][]byte
	maps     map[string]map[string][]byte

	// Assets.
	ftSupply     map[string]*claritype.Int128 // nil cap == unbounded
	ftMinted     map[string]claritype.Int128
	ftBalances   map[string]map[claritype.PrincipalValue]claritype.Int128
	nftAssets    map[string]bool
	nftOwners    map[string]map[string]claritype.PrincipalValue // asset -> identifier bytes -> owner
	stxBalances  map[claritype.PrincipalValue]claritype.Int128
	stxLocks     map[claritype.PrincipalValue]lockInfo
	liquidSupply claritype.Int128

	// Block context, keyed by height then property name.
	blockInfo     map[uint64]map[string]claritype.Value
	burnBlockInfo map[uint64]map[string]claritype.Value
}

// Option configures a new Host.
type Option func(*Host)

// WithLogger overrides the default logger.
func WithLogger(l log.Logger) Option {
	return func(h *Host) { h.log = l }
}

// WithTxSender sets the transaction sender chain-context value returned
// by tx_sender for the lifetime of the Host (a fresh Host is typically
// constructed per simulated transaction).
func WithTxSender(p claritype.PrincipalValue) Option {
	return func(h *Host) { h.txSender = p; h.contractCaller = p }
}

// WithMainnet marks the simulated chain as mainnet (the default is
// regtest, matching a typical local development/test setup).
func WithMainnet() Option {
	return func(h *Host) { h.mainnet = true; h.regtest = false }
}

// New constructs a Host with empty storage and a zeroed chain context,
// suitable for driving one compiled contract module through wazero.
func New(opts ...Option) *Host {
	h := &Host{
		log:     log.Global(),
		regtest: true,

		dataVars: make(map[string][]byte),
		maps:     make(map[string]map[string][]byte),

		ftSupply:    make(map[string]*claritype.Int128),
		ftMinted:    make(map[string]claritype.Int128),
		ftBalances:  make(map[string]map[claritype.PrincipalValue]claritype.Int128),
		nftAssets:   make(map[string]bool),
		nftOwners:   make(map[string]map[string]claritype.PrincipalValue),
		stxBalances: make(map[claritype.PrincipalValue]claritype.Int128),
		stxLocks:    make(map[claritype.PrincipalValue]lockInfo),

		blockInfo:     make(map[uint64]map[string]claritype.Value),
		burnBlockInfo: make(map[uint64]map[string]claritype.Value),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// --- Chain context accessors ---

func (h *Host) TxSender() claritype.PrincipalValue { return h.txSender }

func (h *Host) ContractCaller() claritype.PrincipalValue {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.scopes); n > 0 {
		return h.scopes[n-1].contractCaller
	}
	return h.contractCaller
}

func (h *Host) TxSponsor() (claritype.PrincipalValue, bool) {
	if h.txSponsor == nil {
		return claritype.PrincipalValue{}, false
	}
	return *h.txSponsor, true
}

func (h *Host) BlockHeight() claritype.Int128 {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.scopes) - 1; i >= 0; i-- {
		if h.scopes[i].blockHeight != nil {
			return *h.scopes[i].blockHeight
		}
	}
	return h.blockHeight
}

func (h *Host) BurnBlockHeight() claritype.Int128 { return h.burnBlockHeight }

func (h *Host) StxLiquidSupply() claritype.Int128 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.liquidSupply
}

func (h *Host) IsInRegtest() bool { return h.regtest }

func (h *Host) IsInMainnet() bool { return h.mainnet }

func (h *Host) ChainID() claritype.Int128 { return h.chainID }

// --- Context scoping ---

func (h *Host) EnterAsContract(principal claritype.PrincipalValue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scopes = append(h.scopes, scopeFrame{contractCaller: principal})
}

func (h *Host) ExitAsContract() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popScope()
}

func (h *Host) EnterAtBlock(height claritype.Int128) {
	h.mu.Lock()
	defer h.mu.Unlock()
	caller := h.contractCaller
	if n := len(h.scopes); n > 0 {
		caller = h.scopes[n-1].contractCaller
	}
	h.scopes = append(h.scopes, scopeFrame{contractCaller: caller, blockHeight: &height})
}

func (h *Host) ExitAtBlock() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popScope()
}

// popScope must be called with mu held.
func (h *Host) popScope() {
	if len(h.scopes) == 0 {
		h.log.Warn("wazerohost: scope exit with no matching entry")
		return
	}
	h.scopes = h.scopes[:len(h.scopes)-1]
}

// snapshot and takeSnapshot implement BeginPublicCall/BeginReadOnlyCall,
// and RollBackCall restores the latest snapshot inline: a plain
// call-stack is enough here since nothing in
// this reference host reenters concurrently within one simulated
// transaction (see §5, unchanged from spec.md: execution is single
// goroutine per evaluation).
type snapshot struct {
	dataVars   map[string][]byte
	maps       map[string]map[string][]byte
	ftMinted   map[string]claritype.Int128
	ftBalances map[string]map[claritype.PrincipalValue]claritype.Int128
	nftOwners  map[string]map[string]claritype.PrincipalValue
	stxBalances map[claritype.PrincipalValue]claritype.Int128
	stxLocks    map[claritype.PrincipalValue]lockInfo
}

func (h *Host) takeSnapshot() snapshot {
	return snapshot{
		dataVars:    cloneBytesMap(h.dataVars),
		maps:        cloneNestedBytesMap(h.maps),
		ftMinted:    cloneInt128Map(h.ftMinted),
		ftBalances:  clonePrincipalInt128NestedMap(h.ftBalances),
		nftOwners:   clonePrincipalNestedMap(h.nftOwners),
		stxBalances: clonePrincipalInt128Map(h.stxBalances),
		stxLocks:    clonePrincipalLockMap(h.stxLocks),
	}
}

func (h *Host) BeginPublicCall() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = append(h.snapshots, h.takeSnapshot())
}

func (h *Host) BeginReadOnlyCall() {
	h.BeginPublicCall()
}

func (h *Host) CommitCall() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.snapshots); n > 0 {
		h.snapshots = h.snapshots[:n-1]
	}
}

func (h *Host) RollBackCall() {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.snapshots)
	if n == 0 {
		h.log.Warn("wazerohost: rollback with no matching begin")
		return
	}
	snap := h.snapshots[n-1]
	h.snapshots = h.snapshots[:n-1]
	h.dataVars = snap.dataVars
	h.maps = snap.maps
	h.ftMinted = snap.ftMinted
	h.ftBalances = snap.ftBalances
	h.nftOwners = snap.nftOwners
	h.stxBalances = snap.stxBalances
	h.stxLocks = snap.stxLocks
}

// --- Observability ---

// Print logs v at Info level, tagged so a caller collecting contract
// output can distinguish it from the module's own diagnostics.
func (h *Host) Print(v claritype.Value) {
	h.log.WithField("source", "contract").Info(v)
}
