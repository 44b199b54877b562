// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package encoding

import (
	"bufio"
	"fmt"
	"io"
)

// writeUvarint writes x as an unsigned LEB128 integer, the encoding the
// Wasm binary format uses for every index, count, and offset.
func writeUvarint(w io.ByteWriter, x uint64) error {
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if x == 0 {
			return nil
		}
	}
}

// writeVarint writes x as a signed LEB128 integer, the encoding the Wasm
// binary format uses for i32.const/i64.const immediates.
func writeVarint(w io.ByteWriter, x int64, bits int) error {
	more := true
	for more {
		b := byte(x & 0x7f)
		x >>= 7
		signBitSet := b&0x40 != 0
		if (x == 0 && !signBitSet) || (x == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	_ = bits
	return nil
}

func readUvarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("leb128: uvarint overflow")
		}
	}
}

func readVarint(r io.ByteReader, bits int) (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < uint(bits) && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// byteReader adapts a *bufio.Reader (or anything with ReadByte) to the
// io.ByteReader this package needs without re-wrapping an already-buffered
// reader.
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
