// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
	"github.com/BowTiedWoo/clarity-wasm/internal/log"
)

// Runtime drives one compiled contract module through wazero against a
// Host, providing Compile → Instantiate → Call the way a CLI or test
// harness exercising a contract end to end would. It is the "wired to
// drive a compiled module via wazero" half of this package; the Host
// type (host.go) is the embedder half.
type Runtime struct {
	log log.Logger

	rt     wazero.Runtime
	host   *Host
	guest  api.Module
	closed bool
}

// NewRuntime constructs a wazero runtime and instantiates the host
// module (every internal/hostabi.Imports entry) against h, ready for a
// guest module to import from under the "host" namespace.
func NewRuntime(ctx context.Context, h *Host) (*Runtime, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := buildHostModule(ctx, rt, h); err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(err, "wazerohost: building host module")
	}
	return &Runtime{log: log.Global(), rt: rt, host: h}, nil
}

// Load compiles and instantiates a guest module from wasmBytes (as
// produced by internal/wasm/encoding.WriteModule), then runs its
// ".top-level" initializer, mirroring
// open-policy-agent-opa/internal/wasm/sdk/internal/wazero/VM.go's
// newVM/SetPolicyData sequence: compile once, instantiate, then run
// whatever one-time setup the module declares before any entrypoint is
// callable.
func (r *Runtime) Load(ctx context.Context, wasmBytes []byte) error {
	guest, err := r.rt.Instantiate(ctx, wasmBytes)
	if err != nil {
		return errors.Wrap(err, "wazerohost: instantiating guest module")
	}
	r.guest = guest

	topLevel := guest.ExportedFunction(".top-level")
	if topLevel == nil {
		return errors.New("wazerohost: guest module has no \".top-level\" export")
	}
	if _, err := topLevel.Call(ctx); err != nil {
		return errors.Wrap(err, "wazerohost: running contract initializer")
	}
	return nil
}

// Close releases the underlying wazero runtime and every module it
// instantiated.
func (r *Runtime) Close(ctx context.Context) error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rt.Close(ctx)
}

// Signature describes an exported contract function's source-level
// shape, since a compiled Wasm export carries only flat Wasm value
// types — Call needs the Clarity-level types back to encode arguments
// and decode the result.
type Signature struct {
	Params []claritype.Type
	Return claritype.Type
}

// Call invokes a public contract function by name, encoding args per
// sig.Params and decoding the flat result per sig.Return.
func (r *Runtime) Call(ctx context.Context, name string, sig Signature, args []claritype.Value) (claritype.Value, error) {
	if r.guest == nil {
		return nil, errors.New("wazerohost: no guest module loaded")
	}
	if len(args) != len(sig.Params) {
		return nil, errors.Errorf("wazerohost: %s expects %d arguments, got %d", name, len(sig.Params), len(args))
	}

	fn := r.guest.ExportedFunction(name)
	if fn == nil {
		return nil, errors.Errorf("wazerohost: no exported function %q", name)
	}

	a := newArena(mem(r.guest), guestArenaBase(r.guest))

	var params []uint64
	for i, t := range sig.Params {
		slots, err := encodeValue(a, t, args[i])
		if err != nil {
			return nil, errors.Wrapf(err, "wazerohost: encoding argument %d to %s", i, name)
		}
		params = append(params, slots...)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "wazerohost: calling %s", name)
	}

	return decodeValue(mem(r.guest), sig.Return, results)
}

// Host returns the Host backing this runtime, for a caller that wants to
// inspect or seed state (balances, block info) before or after a call.
func (r *Runtime) Host() *Host { return r.host }
