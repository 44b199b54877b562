// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package stdlib

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/hostabi"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/instruction"
)

// assetPassthroughs lists every storage/asset host import stdlib exposes
// under its own name, as a direct forwarding wrapper: the code generator
// always calls through stdlib rather than an import index directly, the
// same way it reaches arithmetic and equality, so a future revision can
// insert bookkeeping (e.g. bounds assertions) at this layer without
// touching the generator.
var assetPassthroughs = []string{
	"define_variable", "get_variable", "set_variable",
	"map_get", "map_set", "map_insert", "map_delete",
	"define_ft", "ft_mint", "ft_burn", "ft_transfer", "ft_get_supply", "ft_get_balance",
	"define_nft", "nft_mint", "nft_burn", "nft_transfer", "nft_get_owner",
	"stx_burn", "stx_transfer", "stx_get_balance", "stx_account",
}

// buildAssets defines one pass-through wrapper per name in
// assetPassthroughs, each forwarding its parameters to the matching host
// import unchanged and returning its results unchanged.
func (b *builder) buildAssets() error {
	specs := make(map[string]hostabi.ImportSpec, len(hostabi.Imports))
	for _, spec := range hostabi.Imports {
		specs[spec.Name] = spec
	}

	for _, name := range assetPassthroughs {
		spec, ok := specs[name]
		if !ok {
			return errors.Errorf("stdlib: no host import named %q", name)
		}
		if err := b.buildPassthrough(name, spec); err != nil {
			return errors.Wrapf(err, "stdlib: building passthrough for %q", name)
		}
	}
	return nil
}

func (b *builder) buildPassthrough(name string, spec hostabi.ImportSpec) error {
	call, err := b.callHost(name)
	if err != nil {
		return err
	}

	var body []instruction.Instruction
	for i := range spec.Params {
		body = append(body, instruction.GetLocal{Index: uint32(i)})
	}
	body = append(body, call)

	b.defineFunction(name, spec.Params, spec.Results, nil, body)
	return nil
}
