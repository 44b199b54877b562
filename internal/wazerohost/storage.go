// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import (
	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// The define_variable/get_variable/set_variable/map_* host imports carry
// no type tag over the wire — a key or value is just (addr, size), where
// size is the flat-slot width of the contract-level type, not its
// payload. This Host therefore treats every key and value crossing the
// boundary as an opaque byte blob: the bridge wraps whatever bytes it
// read out of guest memory in a claritype.BufferValue before calling in,
// and unwraps the same way on the way back out. For flat-typed values
// (int, uint, bool) this is exactly correct. For in-memory-typed values
// (buffer, string, principal, list) the ABI hands the bridge the
// (offset, length) pointer pair's bytes, not the payload. Data vars are
// stored with those pointer bytes as they are, so two data vars holding
// different buffer contents behind identically-shaped pointers cannot be
// told apart at this layer. The map_* imports go through the bridge's
// resolveStorageBytes, which follows an 8-byte pointer pair, so map keys
// and values reach this Host as payload bytes.
func blobOf(v claritype.Value) ([]byte, error) {
	b, ok := v.(claritype.BufferValue)
	if !ok {
		return nil, errors.Errorf("wazerohost: storage value must cross the host boundary as a buffer, got %T", v)
	}
	return b.Bytes, nil
}

func blobValue(b []byte) claritype.Value {
	return claritype.BufferValue{Cap: uint32(len(b)), Bytes: append([]byte(nil), b...)}
}

// DefineVariable implements hostabi.Host.
func (h *Host) DefineVariable(name string, initial claritype.Value) error {
	blob, err := blobOf(initial)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.dataVars[name]; exists {
		return errors.Errorf("wazerohost: data var %q already defined", name)
	}
	h.dataVars[name] = blob
	return nil
}

// GetVariable implements hostabi.Host. valueType is unused: storage is
// type-erased at this layer, see the package-level note above.
func (h *Host) GetVariable(name string, valueType claritype.Type) (claritype.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	blob, ok := h.dataVars[name]
	if !ok {
		return nil, errors.Errorf("wazerohost: data var %q not defined", name)
	}
	return blobValue(blob), nil
}

// SetVariable implements hostabi.Host.
func (h *Host) SetVariable(name string, value claritype.Value) error {
	blob, err := blobOf(value)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.dataVars[name]; !ok {
		return errors.Errorf("wazerohost: data var %q not defined", name)
	}
	h.dataVars[name] = blob
	return nil
}

func (h *Host) mapBucket(name string) (map[string][]byte, error) {
	bucket, ok := h.maps[name]
	if !ok {
		return nil, errors.Errorf("wazerohost: map %q not defined", name)
	}
	return bucket, nil
}

// defineMap registers a map's storage bucket. define-map is compiled away
// entirely and has no host import (see DESIGN.md), so a compiled module
// never reaches this; within this package only tests call it, and
// Runtime.Load does not register a contract's maps, so a map_* import
// against a map that was never registered finds no bucket.
func (h *Host) defineMap(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.maps[name]; !ok {
		h.maps[name] = make(map[string][]byte)
	}
}

// MapGet implements hostabi.Host.
func (h *Host) MapGet(name string, key claritype.Value) (claritype.Value, bool, error) {
	keyBlob, err := blobOf(key)
	if err != nil {
		return nil, false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, err := h.mapBucket(name)
	if err != nil {
		return nil, false, err
	}
	blob, ok := bucket[string(keyBlob)]
	if !ok {
		return nil, false, nil
	}
	return blobValue(blob), true, nil
}

// MapSet implements hostabi.Host.
func (h *Host) MapSet(name string, key, value claritype.Value) error {
	keyBlob, err := blobOf(key)
	if err != nil {
		return err
	}
	valBlob, err := blobOf(value)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, err := h.mapBucket(name)
	if err != nil {
		return err
	}
	bucket[string(keyBlob)] = valBlob
	return nil
}

// MapInsert implements hostabi.Host: it only writes if the key is
// absent, returning whether it inserted.
func (h *Host) MapInsert(name string, key, value claritype.Value) (bool, error) {
	keyBlob, err := blobOf(key)
	if err != nil {
		return false, err
	}
	valBlob, err := blobOf(value)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, err := h.mapBucket(name)
	if err != nil {
		return false, err
	}
	if _, exists := bucket[string(keyBlob)]; exists {
		return false, nil
	}
	bucket[string(keyBlob)] = valBlob
	return true, nil
}

// MapDelete implements hostabi.Host, returning whether an entry existed.
func (h *Host) MapDelete(name string, key claritype.Value) (bool, error) {
	keyBlob, err := blobOf(key)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, err := h.mapBucket(name)
	if err != nil {
		return false, err
	}
	if _, exists := bucket[string(keyBlob)]; !exists {
		return false, nil
	}
	delete(bucket, string(keyBlob))
	return true, nil
}
