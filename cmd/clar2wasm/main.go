// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command clar2wasm reads a type-annotated contract AST as JSON and
// writes the compiled Wasm module to a file, the way
// wasm-rego-testgen reads YAML test fixtures and writes a compiled
// bundle.
package main

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/BowTiedWoo/clarity-wasm"
	"github.com/BowTiedWoo/clarity-wasm/internal/log"
)

type params struct {
	Input  string
	Output string
}

func run(p params, logger log.Logger) error {
	if p.Input == "" {
		return errors.New("--input is required")
	}
	if p.Output == "" {
		return errors.New("--output is required")
	}

	data, err := os.ReadFile(p.Input)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	contract, err := decodeContract(data)
	if err != nil {
		return errors.Wrap(err, "decoding contract")
	}

	wasm, err := clar2wasm.CompileAndEncode(contract)
	if err != nil {
		return errors.Wrap(err, "compiling contract")
	}

	if err := os.WriteFile(p.Output, wasm, 0o644); err != nil {
		return errors.Wrap(err, "writing output")
	}

	logger.WithField("contract", contract.Name).Infof("compiled %d bytes to %s", len(wasm), p.Output)
	return nil
}

func main() {
	var p params
	logger := log.New()

	executable := path.Base(os.Args[0])
	command := &cobra.Command{
		Use:   executable,
		Short: "compile a type-annotated Clarity contract AST to Wasm",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(p, logger)
		},
	}
	command.Flags().StringVarP(&p.Input, "input", "i", "", "path to the JSON-encoded contract AST")
	command.Flags().StringVarP(&p.Output, "output", "o", "", "path to write the compiled Wasm module")

	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
