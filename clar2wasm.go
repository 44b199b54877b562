// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package clar2wasm is the top-level entry point: it pairs
// internal/codegen's Compiler with internal/wasm/encoding's binary
// writer, mirroring how open-policy-agent-opa's
// internal/compiler/wasm.Compiler and internal/wasm/encoding.WriteModule
// are paired behind rego.Rego.Compile.
package clar2wasm

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/codegen"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/encoding"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
)

// Compile lowers a type-annotated contract into a Wasm module, ready for
// internal/wasm/encoding to serialize or internal/wazerohost to drive
// directly.
func Compile(contract *ast.Contract) (*module.Module, error) {
	if contract == nil {
		return nil, errors.New("clar2wasm: nil contract")
	}
	c := codegen.New(contract)
	m, err := c.Compile()
	if err != nil {
		return nil, errors.Wrapf(err, "clar2wasm: compiling %q", contract.Name)
	}
	return m, nil
}

// CompileAndEncode compiles contract and serializes the result to the
// Wasm binary format in one step, the pairing cmd/clar2wasm drives.
func CompileAndEncode(contract *ast.Contract) ([]byte, error) {
	m, err := Compile(contract)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encoding.WriteModule(&buf, m); err != nil {
		return nil, errors.Wrapf(err, "clar2wasm: encoding %q", contract.Name)
	}
	return buf.Bytes(), nil
}
