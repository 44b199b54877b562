// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package codegen

import "github.com/pkg/errors"

// currentEpoch is the reserved-name epoch New() compiles against when
// the caller has not specified one. Per §4.6.4, reserved names are
// epoch-dependent; only one epoch's reserved set is modeled here since
// the type checker (outside this module's scope) is the party that
// actually knows which epoch a contract targets and is expected to
// reject anything this generator's single fixed epoch would miss.
const currentEpoch = 0

// reservedNames is every identifier a contract may never bind at the top
// level: special forms, built-in functions the generator itself
// dispatches Call nodes against, and the stdlib/host namespaces those
// dispatch tables reach into.
var reservedNames = map[string]bool{
	"let": true, "if": true, "and": true, "or": true, "match": true,
	"unwrap!": true, "unwrap-panic": true, "unwrap-err!": true, "unwrap-err-panic": true,
	"try!": true, "filter": true, "asserts!": true,
	"var-get": true, "var-set!": true,
	"+": true, "-": true, "*": true, "/": true, "mod": true, "pow": true,
	"sqrti": true, "log2": true, "is-eq": true,
	"define-constant": true, "define-data-var": true, "define-fungible-token": true,
	"define-non-fungible-token": true, "define-map": true,
	"define-public": true, "define-private": true, "define-read-only": true,
	"tx-sender": true, "contract-caller": true, "tx-sponsor?": true,
	"block-height": true, "burn-block-height": true, "stx-liquid-supply": true,
	"is-in-regtest": true, "is-in-mainnet": true, "chain-id": true,
}

// reserveName fails compilation if name is reserved or already bound by
// an earlier top-level definition (§4.6.4); otherwise it records name as
// bound and succeeds.
func (c *Compiler) reserveName(name string) error {
	if reservedNames[name] {
		return errors.Errorf("codegen: %q is a reserved name", name)
	}
	if c.names[name] {
		return errors.Errorf("codegen: %q is already bound", name)
	}
	c.names[name] = true
	return nil
}
