// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BowTiedWoo/clarity-wasm/internal/log"
)

const fixtureContract = `{
	"name": "answer",
	"definitions": [
		{
			"kind": "define-function",
			"name": "get-answer",
			"params": [],
			"return": {"kind": 0},
			"public": true,
			"body": [
				{"kind": "literal", "type": {"kind": 0}, "value": {"kind": "int", "lo": 42, "hi": 0}}
			]
		}
	]
}`

func TestRunCompilesFixtureToWasmFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "contract.json")
	output := filepath.Join(dir, "contract.wasm")
	if err := os.WriteFile(input, []byte(fixtureContract), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := run(params{Input: input, Output: output}, log.New()); err != nil {
		t.Fatalf("run: %v", err)
	}

	wasm, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.HasPrefix(wasm, []byte{0x00, 0x61, 0x73, 0x6d}) {
		t.Fatalf("output does not start with the Wasm magic number: %x", wasm[:4])
	}
}

func TestRunRequiresInputAndOutput(t *testing.T) {
	logger := log.New()
	if err := run(params{}, logger); err == nil {
		t.Fatal("run with no flags should fail")
	}
	if err := run(params{Input: "x.json"}, logger); err == nil {
		t.Fatal("run with no --output should fail")
	}
}

func TestRunFailsOnMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	err := run(params{Input: filepath.Join(dir, "missing.json"), Output: filepath.Join(dir, "out.wasm")}, log.New())
	if err == nil {
		t.Fatal("run should fail when the input file does not exist")
	}
}
