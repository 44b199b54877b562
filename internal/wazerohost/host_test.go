// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

func principal(b byte) claritype.PrincipalValue {
	var hash [claritype.PrincipalHashLen]byte
	hash[0] = b
	return claritype.PrincipalValue{Version: 0x16, Hash: hash}
}

func TestChainContextAccessors(t *testing.T) {
	sender := principal(1)
	h := New(WithTxSender(sender))

	if h.TxSender() != sender {
		t.Fatalf("TxSender() = %v, want %v", h.TxSender(), sender)
	}
	if h.ContractCaller() != sender {
		t.Fatalf("ContractCaller() = %v, want %v", h.ContractCaller(), sender)
	}
	if !h.IsInRegtest() || h.IsInMainnet() {
		t.Fatalf("a fresh Host should default to regtest")
	}
	if _, ok := h.TxSponsor(); ok {
		t.Fatalf("TxSponsor() reported present with none set")
	}
}

func TestEnterAsContractScoping(t *testing.T) {
	outer := principal(1)
	inner := principal(2)
	h := New(WithTxSender(outer))

	if h.ContractCaller() != outer {
		t.Fatalf("ContractCaller() = %v, want outer %v", h.ContractCaller(), outer)
	}

	h.EnterAsContract(inner)
	if h.ContractCaller() != inner {
		t.Fatalf("ContractCaller() = %v, want inner %v", h.ContractCaller(), inner)
	}

	h.ExitAsContract()
	if h.ContractCaller() != outer {
		t.Fatalf("ContractCaller() after exit = %v, want outer %v", h.ContractCaller(), outer)
	}

	// An unmatched exit must not panic or underflow the scope stack.
	h.ExitAsContract()
	if h.ContractCaller() != outer {
		t.Fatalf("ContractCaller() after unmatched exit = %v, want outer %v", h.ContractCaller(), outer)
	}
}

func TestEnterAtBlockScoping(t *testing.T) {
	h := New()
	h.blockHeight = claritype.Int128{Lo: 10}

	if h.BlockHeight().Lo != 10 {
		t.Fatalf("BlockHeight().Lo = %d, want 10", h.BlockHeight().Lo)
	}

	h.EnterAtBlock(claritype.Int128{Lo: 5})
	if h.BlockHeight().Lo != 5 {
		t.Fatalf("BlockHeight().Lo inside enter-at-block = %d, want 5", h.BlockHeight().Lo)
	}

	h.ExitAtBlock()
	if h.BlockHeight().Lo != 10 {
		t.Fatalf("BlockHeight().Lo after exit = %d, want 10", h.BlockHeight().Lo)
	}
}

func TestBeginCommitRollBack(t *testing.T) {
	h := New()
	if err := h.DefineVariable("x", blobValue([]byte("a"))); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}

	h.BeginPublicCall()
	if err := h.SetVariable("x", blobValue([]byte("b"))); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	h.CommitCall()

	v, err := h.GetVariable("x", claritype.NoType())
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if b, _ := blobOf(v); string(b) != "b" {
		t.Fatalf("after commit, x = %q, want %q", b, "b")
	}

	h.BeginPublicCall()
	if err := h.SetVariable("x", blobValue([]byte("c"))); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	h.RollBackCall()

	v, err = h.GetVariable("x", claritype.NoType())
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if b, _ := blobOf(v); string(b) != "b" {
		t.Fatalf("after rollback, x = %q, want %q", b, "b")
	}
}

func TestDataVarStorage(t *testing.T) {
	h := New()
	if err := h.DefineVariable("counter", blobValue([]byte{0, 0, 0, 0})); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}

	if _, err := h.GetVariable("missing", claritype.NoType()); err == nil {
		t.Fatalf("GetVariable on an undefined name should fail")
	}

	if err := h.DefineVariable("counter", blobValue(nil)); err == nil {
		t.Fatalf("redefining a data var should fail")
	}

	if err := h.SetVariable("counter", blobValue([]byte{1, 0, 0, 0})); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	v, err := h.GetVariable("counter", claritype.NoType())
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if b, _ := blobOf(v); string(b) != string([]byte{1, 0, 0, 0}) {
		t.Fatalf("counter = %x, want %x", b, []byte{1, 0, 0, 0})
	}

	if err := h.SetVariable("nosuch", blobValue(nil)); err == nil {
		t.Fatalf("SetVariable on an undefined name should fail")
	}
}

func TestMapStorage(t *testing.T) {
	h := New()
	h.defineMap("balances")

	key := blobValue([]byte("alice"))
	val := blobValue([]byte{42})

	if _, found, err := h.MapGet("balances", key); err != nil || found {
		t.Fatalf("MapGet on an empty map = (found=%v, err=%v), want (false, nil)", found, err)
	}

	inserted, err := h.MapInsert("balances", key, val)
	if err != nil || !inserted {
		t.Fatalf("MapInsert = (%v, %v), want (true, nil)", inserted, err)
	}

	inserted, err = h.MapInsert("balances", key, val)
	if err != nil || inserted {
		t.Fatalf("MapInsert must not overwrite an existing key, got (%v, %v)", inserted, err)
	}

	got, found, err := h.MapGet("balances", key)
	if err != nil || !found {
		t.Fatalf("MapGet = (found=%v, err=%v), want (true, nil)", found, err)
	}
	if b, _ := blobOf(got); string(b) != string([]byte{42}) {
		t.Fatalf("MapGet value = %x, want %x", b, []byte{42})
	}

	if err := h.MapSet("balances", key, blobValue([]byte{7})); err != nil {
		t.Fatalf("MapSet: %v", err)
	}
	got, _, _ = h.MapGet("balances", key)
	if b, _ := blobOf(got); string(b) != string([]byte{7}) {
		t.Fatalf("MapGet value after MapSet = %x, want %x", b, []byte{7})
	}

	deleted, err := h.MapDelete("balances", key)
	if err != nil || !deleted {
		t.Fatalf("MapDelete = (%v, %v), want (true, nil)", deleted, err)
	}
	deleted, err = h.MapDelete("balances", key)
	if err != nil || deleted {
		t.Fatalf("MapDelete of an already-deleted key = (%v, %v), want (false, nil)", deleted, err)
	}

	if _, _, err := h.MapGet("nosuch", key); err == nil {
		t.Fatalf("MapGet against an undefined map should fail")
	}
}

func TestFungibleTokenLedger(t *testing.T) {
	h := New()
	supplyCap := claritype.Int128{Lo: 100}
	if err := h.DefineFT("gold", &supplyCap); err != nil {
		t.Fatalf("DefineFT: %v", err)
	}

	alice := principal(1)
	bob := principal(2)

	if err := h.FTMint("gold", claritype.Int128{Lo: 60}, alice); err != nil {
		t.Fatalf("FTMint: %v", err)
	}
	bal, err := h.FTGetBalance("gold", alice)
	if err != nil || bal.Lo != 60 {
		t.Fatalf("FTGetBalance(alice) = (%v, %v), want (60, nil)", bal.Lo, err)
	}

	if err := h.FTMint("gold", claritype.Int128{Lo: 50}, alice); err == nil {
		t.Fatalf("minting past the supply cap should fail")
	}

	if err := h.FTTransfer("gold", claritype.Int128{Lo: 20}, alice, bob); err != nil {
		t.Fatalf("FTTransfer: %v", err)
	}
	aliceBal, _ := h.FTGetBalance("gold", alice)
	bobBal, _ := h.FTGetBalance("gold", bob)
	if aliceBal.Lo != 40 || bobBal.Lo != 20 {
		t.Fatalf("post-transfer balances = (alice=%d, bob=%d), want (40, 20)", aliceBal.Lo, bobBal.Lo)
	}

	if err := h.FTTransfer("gold", claritype.Int128{Lo: 1000}, alice, bob); err == nil {
		t.Fatalf("transferring more than the balance should fail")
	}

	if err := h.FTBurn("gold", claritype.Int128{Lo: 10}, bob); err != nil {
		t.Fatalf("FTBurn: %v", err)
	}
	bobBal, _ = h.FTGetBalance("gold", bob)
	if bobBal.Lo != 10 {
		t.Fatalf("bob balance after burn = %d, want 10", bobBal.Lo)
	}

	supply, err := h.FTGetSupply("gold")
	if err != nil || supply.Lo != 60 {
		t.Fatalf("FTGetSupply = (%d, %v), want (60, nil)", supply.Lo, err)
	}

	if err := h.DefineFT("gold", nil); err == nil {
		t.Fatalf("redefining a fungible token should fail")
	}
}

func TestFungibleTokenUnbounded(t *testing.T) {
	h := New()
	if err := h.DefineFT("token", nil); err != nil {
		t.Fatalf("DefineFT: %v", err)
	}
	alice := principal(1)
	if err := h.FTMint("token", claritype.Int128{Hi: 1}, alice); err != nil {
		t.Fatalf("minting a token with no supply cap should succeed, got %v", err)
	}
}

func TestNonFungibleTokenLedger(t *testing.T) {
	h := New()
	if err := h.DefineNFT("widgets", claritype.UInt()); err != nil {
		t.Fatalf("DefineNFT: %v", err)
	}

	alice := principal(1)
	bob := principal(2)
	id := blobValue([]byte{1})

	if err := h.NFTMint("widgets", id, alice); err != nil {
		t.Fatalf("NFTMint: %v", err)
	}
	if err := h.NFTMint("widgets", id, bob); err == nil {
		t.Fatalf("minting a duplicate asset id should fail")
	}

	owner, found, err := h.NFTGetOwner("widgets", id)
	if err != nil || !found || owner != alice {
		t.Fatalf("NFTGetOwner = (%v, %v, %v), want (alice, true, nil)", owner, found, err)
	}

	if err := h.NFTTransfer("widgets", id, bob, alice); err == nil {
		t.Fatalf("transfer from a non-owner should fail")
	}
	if err := h.NFTTransfer("widgets", id, alice, bob); err != nil {
		t.Fatalf("NFTTransfer: %v", err)
	}

	owner, _, _ = h.NFTGetOwner("widgets", id)
	if owner != bob {
		t.Fatalf("owner after transfer = %v, want bob", owner)
	}

	if err := h.NFTBurn("widgets", id); err != nil {
		t.Fatalf("NFTBurn: %v", err)
	}
	if _, found, _ := h.NFTGetOwner("widgets", id); found {
		t.Fatalf("asset should no longer exist after burn")
	}
	if err := h.NFTBurn("widgets", id); err == nil {
		t.Fatalf("burning a non-existent asset should fail")
	}
}

func TestStxLedger(t *testing.T) {
	h := New()
	alice := principal(1)
	bob := principal(2)

	h.CreditStx(alice, claritype.Int128{Lo: 100})
	if h.StxLiquidSupply().Lo != 100 {
		t.Fatalf("StxLiquidSupply() = %d, want 100", h.StxLiquidSupply().Lo)
	}

	if err := h.StxTransfer(claritype.Int128{Lo: 30}, alice, bob); err != nil {
		t.Fatalf("StxTransfer: %v", err)
	}
	aliceBal, _ := h.StxGetBalance(alice)
	bobBal, _ := h.StxGetBalance(bob)
	if aliceBal.Lo != 70 || bobBal.Lo != 30 {
		t.Fatalf("post-transfer balances = (alice=%d, bob=%d), want (70, 30)", aliceBal.Lo, bobBal.Lo)
	}

	if err := h.StxTransfer(claritype.Int128{Lo: 1000}, alice, bob); err == nil {
		t.Fatalf("transferring more than the balance should fail")
	}

	if err := h.StxBurn(claritype.Int128{Lo: 20}, bob); err != nil {
		t.Fatalf("StxBurn: %v", err)
	}
	bobBal, _ = h.StxGetBalance(bob)
	if bobBal.Lo != 10 {
		t.Fatalf("bob balance after burn = %d, want 10", bobBal.Lo)
	}
	if h.StxLiquidSupply().Lo != 80 {
		t.Fatalf("StxLiquidSupply() after burn = %d, want 80", h.StxLiquidSupply().Lo)
	}

	locked, unlocked, _, err := h.StxAccount(alice)
	if err != nil || locked.Lo != 0 || unlocked.Lo != 70 {
		t.Fatalf("StxAccount(alice) = (locked=%d, unlocked=%d, err=%v), want (0, 70, nil)", locked.Lo, unlocked.Lo, err)
	}
}

func TestPrintDoesNotPanic(t *testing.T) {
	h := New()
	h.Print(claritype.IntValue{Bits: claritype.Int128{Lo: 1}})
}
