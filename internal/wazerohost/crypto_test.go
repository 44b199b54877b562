// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

func TestKeccak256EmptyInput(t *testing.T) {
	h := New()
	got := h.Keccak256(nil)
	want, _ := hex.DecodeString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if hex.EncodeToString(got[:]) != hex.EncodeToString(want) {
		t.Fatalf("Keccak256(nil) = %x, want %x", got, want)
	}
}

func TestSha512KnownVector(t *testing.T) {
	h := New()
	got := h.Sha512([]byte("abc"))
	want, _ := hex.DecodeString("ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f")
	if hex.EncodeToString(got[:]) != hex.EncodeToString(want) {
		t.Fatalf("Sha512(\"abc\") = %x, want %x", got, want)
	}
}

func TestSha512_256KnownVector(t *testing.T) {
	h := New()
	got := h.Sha512_256([]byte("abc"))
	want, _ := hex.DecodeString("53048e2681941ef99b2e29b76b4c7dabe4c2d0c634fc6d46e0e2f13107e7af9")
	if hex.EncodeToString(got[:]) != hex.EncodeToString(want) {
		t.Fatalf("Sha512_256(\"abc\") = %x, want %x", got, want)
	}
}

func TestSecp256k1RecoverAndVerifyRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	var msgHash [32]byte
	copy(msgHash[:], []byte("0123456789abcdef0123456789abcdef"))

	sig := ecdsa.SignCompact(priv, msgHash[:], true)

	h := New()
	recovered, err := h.Secp256k1Recover(msgHash, sig)
	if err != nil {
		t.Fatalf("Secp256k1Recover: %v", err)
	}

	pub := priv.PubKey().SerializeCompressed()
	if hex.EncodeToString(recovered[:]) != hex.EncodeToString(pub) {
		t.Fatalf("recovered pubkey = %x, want %x", recovered, pub)
	}

	if !h.Secp256k1Verify(msgHash, sig, pub) {
		t.Fatalf("Secp256k1Verify should succeed against the signing key")
	}

	other, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	if h.Secp256k1Verify(msgHash, sig, other.PubKey().SerializeCompressed()) {
		t.Fatalf("Secp256k1Verify should fail against an unrelated key")
	}
}

func TestSecp256k1RecoverRejectsShortSignature(t *testing.T) {
	h := New()
	var msgHash [32]byte
	if _, err := h.Secp256k1Recover(msgHash, []byte{1, 2, 3}); err == nil {
		t.Fatalf("Secp256k1Recover should reject a signature that is not 65 bytes")
	}
}

func TestPrincipalOfIsDeterministic(t *testing.T) {
	h := New()
	pub := []byte{2, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}

	p1, err := h.PrincipalOf(pub)
	if err != nil {
		t.Fatalf("PrincipalOf: %v", err)
	}
	p2, err := h.PrincipalOf(pub)
	if err != nil {
		t.Fatalf("PrincipalOf: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("PrincipalOf is not deterministic: %v != %v", p1, p2)
	}
	if p1.Version != standardPrincipalVersion {
		t.Fatalf("PrincipalOf version = %x, want %x", p1.Version, standardPrincipalVersion)
	}
}
