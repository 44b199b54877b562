// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

var zeroInt128 claritype.Int128

func addInt128(a, b claritype.Int128) claritype.Int128 {
	lo := a.Lo + b.Lo
	carry := uint64(0)
	if lo < a.Lo {
		carry = 1
	}
	return claritype.Int128{Lo: lo, Hi: a.Hi + b.Hi + carry}
}

func subInt128(a, b claritype.Int128) (claritype.Int128, bool) {
	if a.Hi < b.Hi || (a.Hi == b.Hi && a.Lo < b.Lo) {
		return claritype.Int128{}, false
	}
	lo := a.Lo - b.Lo
	borrow := uint64(0)
	if a.Lo < b.Lo {
		borrow = 1
	}
	return claritype.Int128{Lo: lo, Hi: a.Hi - b.Hi - borrow}, true
}

// DefineFT implements hostabi.Host. supply is nil for an unbounded token.
func (h *Host) DefineFT(name string, supply *claritype.Int128) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.ftSupply[name]; exists {
		return errors.Errorf("wazerohost: fungible token %q already defined", name)
	}
	h.ftSupply[name] = supply
	h.ftMinted[name] = zeroInt128
	h.ftBalances[name] = make(map[claritype.PrincipalValue]claritype.Int128)
	return nil
}

func (h *Host) ftLedger(token string) (map[claritype.PrincipalValue]claritype.Int128, error) {
	bal, ok := h.ftBalances[token]
	if !ok {
		return nil, errors.Errorf("wazerohost: fungible token %q not defined", token)
	}
	return bal, nil
}

// FTMint implements hostabi.Host.
func (h *Host) FTMint(token string, amount claritype.Int128, recipient claritype.PrincipalValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, err := h.ftLedger(token)
	if err != nil {
		return err
	}
	if cap := h.ftSupply[token]; cap != nil {
		if minted := addInt128(h.ftMinted[token], amount); minted.Hi > cap.Hi || (minted.Hi == cap.Hi && minted.Lo > cap.Lo) {
			return errors.Errorf("wazerohost: minting %q would exceed its defined supply cap", token)
		}
	}
	h.ftMinted[token] = addInt128(h.ftMinted[token], amount)
	bal[recipient] = addInt128(bal[recipient], amount)
	return nil
}

// FTBurn implements hostabi.Host.
func (h *Host) FTBurn(token string, amount claritype.Int128, owner claritype.PrincipalValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, err := h.ftLedger(token)
	if err != nil {
		return err
	}
	remaining, ok := subInt128(bal[owner], amount)
	if !ok {
		return errors.Errorf("wazerohost: insufficient %q balance to burn", token)
	}
	bal[owner] = remaining
	return nil
}

// FTTransfer implements hostabi.Host.
func (h *Host) FTTransfer(token string, amount claritype.Int128, sender, recipient claritype.PrincipalValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, err := h.ftLedger(token)
	if err != nil {
		return err
	}
	remaining, ok := subInt128(bal[sender], amount)
	if !ok {
		return errors.Errorf("wazerohost: insufficient %q balance to transfer", token)
	}
	bal[sender] = remaining
	bal[recipient] = addInt128(bal[recipient], amount)
	return nil
}

// FTGetSupply implements hostabi.Host.
func (h *Host) FTGetSupply(token string) (claritype.Int128, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.ftBalances[token]; !ok {
		return claritype.Int128{}, errors.Errorf("wazerohost: fungible token %q not defined", token)
	}
	return h.ftMinted[token], nil
}

// FTGetBalance implements hostabi.Host.
func (h *Host) FTGetBalance(token string, owner claritype.PrincipalValue) (claritype.Int128, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, err := h.ftLedger(token)
	if err != nil {
		return claritype.Int128{}, err
	}
	return bal[owner], nil
}

// DefineNFT implements hostabi.Host. assetType is unused for ledger
// bookkeeping: identifiers cross the boundary as opaque bytes already
// capturing their full payload (see blobOf), so no decode is needed here.
func (h *Host) DefineNFT(name string, assetType claritype.Type) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.nftAssets[name] {
		return errors.Errorf("wazerohost: non-fungible token %q already defined", name)
	}
	h.nftAssets[name] = true
	h.nftOwners[name] = make(map[string]claritype.PrincipalValue)
	return nil
}

func (h *Host) nftLedger(asset string) (map[string]claritype.PrincipalValue, error) {
	owners, ok := h.nftOwners[asset]
	if !ok {
		return nil, errors.Errorf("wazerohost: non-fungible token %q not defined", asset)
	}
	return owners, nil
}

// NFTMint implements hostabi.Host.
func (h *Host) NFTMint(asset string, id claritype.Value, owner claritype.PrincipalValue) error {
	idBlob, err := blobOf(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	owners, err := h.nftLedger(asset)
	if err != nil {
		return err
	}
	if _, exists := owners[string(idBlob)]; exists {
		return errors.Errorf("wazerohost: asset already exists in %q", asset)
	}
	owners[string(idBlob)] = owner
	return nil
}

// NFTBurn implements hostabi.Host.
func (h *Host) NFTBurn(asset string, id claritype.Value) error {
	idBlob, err := blobOf(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	owners, err := h.nftLedger(asset)
	if err != nil {
		return err
	}
	if _, exists := owners[string(idBlob)]; !exists {
		return errors.Errorf("wazerohost: no such asset in %q", asset)
	}
	delete(owners, string(idBlob))
	return nil
}

// NFTTransfer implements hostabi.Host.
func (h *Host) NFTTransfer(asset string, id claritype.Value, sender, recipient claritype.PrincipalValue) error {
	idBlob, err := blobOf(id)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	owners, err := h.nftLedger(asset)
	if err != nil {
		return err
	}
	current, exists := owners[string(idBlob)]
	if !exists {
		return errors.Errorf("wazerohost: no such asset in %q", asset)
	}
	if current != sender {
		return errors.Errorf("wazerohost: sender does not own the asset in %q", asset)
	}
	owners[string(idBlob)] = recipient
	return nil
}

// NFTGetOwner implements hostabi.Host.
func (h *Host) NFTGetOwner(asset string, id claritype.Value) (claritype.PrincipalValue, bool, error) {
	idBlob, err := blobOf(id)
	if err != nil {
		return claritype.PrincipalValue{}, false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	owners, err := h.nftLedger(asset)
	if err != nil {
		return claritype.PrincipalValue{}, false, err
	}
	owner, ok := owners[string(idBlob)]
	return owner, ok, nil
}

// StxBurn implements hostabi.Host.
func (h *Host) StxBurn(amount claritype.Int128, owner claritype.PrincipalValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	remaining, ok := subInt128(h.stxBalances[owner], amount)
	if !ok {
		return errors.New("wazerohost: insufficient STX balance to burn")
	}
	h.stxBalances[owner] = remaining
	h.liquidSupply, _ = subInt128(h.liquidSupply, amount)
	return nil
}

// StxTransfer implements hostabi.Host.
func (h *Host) StxTransfer(amount claritype.Int128, sender, recipient claritype.PrincipalValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	remaining, ok := subInt128(h.stxBalances[sender], amount)
	if !ok {
		return errors.New("wazerohost: insufficient STX balance to transfer")
	}
	h.stxBalances[sender] = remaining
	h.stxBalances[recipient] = addInt128(h.stxBalances[recipient], amount)
	return nil
}

// StxGetBalance implements hostabi.Host.
func (h *Host) StxGetBalance(owner claritype.PrincipalValue) (claritype.Int128, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stxBalances[owner], nil
}

// StxAccount implements hostabi.Host.
func (h *Host) StxAccount(owner claritype.PrincipalValue) (locked, unlocked, unlockHeight claritype.Int128, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock := h.stxLocks[owner]
	total := h.stxBalances[owner]
	u, _ := subInt128(total, lock.locked)
	return lock.locked, u, lock.unlockHeight, nil
}

// CreditStx is reference-host scaffolding (not part of the Host Interface
// Contract) for seeding an account's STX balance before running a
// contract, mirroring how a chain's genesis block would.
func (h *Host) CreditStx(owner claritype.PrincipalValue, amount claritype.Int128) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stxBalances[owner] = addInt128(h.stxBalances[owner], amount)
	h.liquidSupply = addInt128(h.liquidSupply, amount)
}
