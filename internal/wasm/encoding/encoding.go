// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package encoding reads and writes the binary WebAssembly module format,
// translating to and from the internal/wasm/module representation. It is
// the single place that knows the byte layout of sections, LEB128
// integers, and instructions.
package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/opcode"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

// WriteModule serializes m to w in the binary WebAssembly format.
func WriteModule(w io.Writer, m *module.Module) error {
	if _, err := w.Write(opcode.Magic[:]); err != nil {
		return err
	}
	if _, err := w.Write(opcode.Version[:]); err != nil {
		return err
	}

	typeIndexOf := makeTypeIndexer(m)

	sections := []struct {
		id  byte
		buf func() ([]byte, error)
	}{
		{opcode.SectionType, func() ([]byte, error) { return encodeTypeSection(m.Type) }},
		{opcode.SectionImport, func() ([]byte, error) { return encodeImportSection(m.Import) }},
		{opcode.SectionFunction, func() ([]byte, error) { return encodeFunctionSection(m.Function) }},
		{opcode.SectionTable, func() ([]byte, error) { return encodeTableSection(m.Table) }},
		{opcode.SectionMemory, func() ([]byte, error) { return encodeMemorySection(m.Memory) }},
		{opcode.SectionGlobal, func() ([]byte, error) { return encodeGlobalSection(m.Global, typeIndexOf) }},
		{opcode.SectionExport, func() ([]byte, error) { return encodeExportSection(m.Export) }},
		{opcode.SectionStart, func() ([]byte, error) { return encodeStartSection(m.Start) }},
		{opcode.SectionElement, func() ([]byte, error) { return encodeElementSection(m.Element, typeIndexOf) }},
		{opcode.SectionCode, func() ([]byte, error) { return encodeCodeSection(m.Code, typeIndexOf) }},
		{opcode.SectionData, func() ([]byte, error) { return encodeDataSection(m.Data, typeIndexOf) }},
	}

	// Encode back to front so the type section comes last: the global,
	// element, code and data sections may register new multi-value block
	// signatures through typeIndexOf, and the type section must hold them.
	bodies := make([][]byte, len(sections))
	for i := len(sections) - 1; i >= 0; i-- {
		body, err := sections[i].buf()
		if err != nil {
			return errors.Wrapf(err, "section %d", sections[i].id)
		}
		bodies[i] = body
	}

	for i, s := range sections {
		body := bodies[i]
		if len(body) == 0 && s.id != opcode.SectionMemory {
			continue
		}
		bw := asByteWriter(w)
		if err := bw.WriteByte(s.id); err != nil {
			return err
		}
		if err := writeUvarint(bw, uint64(len(body))); err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
	}

	for _, c := range m.Customs {
		bw := asByteWriter(w)
		var buf bytes.Buffer
		if err := writeName(&buf, c.Name); err != nil {
			return err
		}
		buf.Write(c.Contents)
		if err := bw.WriteByte(opcode.SectionCustom); err != nil {
			return err
		}
		if err := writeUvarint(bw, uint64(buf.Len())); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	return nil
}

type byteWriter struct{ io.Writer }

func (b byteWriter) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

func asByteWriter(w io.Writer) io.ByteWriter {
	if bw, ok := w.(io.ByteWriter); ok {
		return bw
	}
	return byteWriter{w}
}

func writeName(w io.Writer, name string) error {
	bw := asByteWriter(w)
	if err := writeUvarint(bw, uint64(len(name))); err != nil {
		return err
	}
	_, err := w.Write([]byte(name))
	return err
}

// ReadModule parses the binary WebAssembly format from r into a Module.
// Code section entries are decoded eagerly into instruction trees; callers
// needing the original bytes for diffing can use CodeEntries/WriteCodeEntry
// to round-trip deliberately.
func ReadModule(r io.Reader) (*module.Module, error) {
	br := byteReader(r)

	var magic, version [4]byte
	for i := range magic {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		magic[i] = b
	}
	if magic != opcode.Magic {
		return nil, fmt.Errorf("encoding: bad magic %x", magic)
	}
	for i := range version {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		version[i] = b
	}

	m := &module.Module{Version: 1}

	for {
		id, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		size, err := readUvarint(br)
		if err != nil {
			return nil, err
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		sr := byteReader(bytes.NewReader(body))

		switch id {
		case opcode.SectionType:
			if m.Type, err = decodeTypeSection(sr); err != nil {
				return nil, errors.Wrap(err, "type section")
			}
		case opcode.SectionImport:
			if m.Import, err = decodeImportSection(sr); err != nil {
				return nil, errors.Wrap(err, "import section")
			}
		case opcode.SectionFunction:
			if m.Function, err = decodeFunctionSection(sr); err != nil {
				return nil, errors.Wrap(err, "function section")
			}
		case opcode.SectionTable:
			if m.Table, err = decodeTableSection(sr); err != nil {
				return nil, errors.Wrap(err, "table section")
			}
		case opcode.SectionMemory:
			if m.Memory, err = decodeMemorySection(sr); err != nil {
				return nil, errors.Wrap(err, "memory section")
			}
		case opcode.SectionGlobal:
			if m.Global, err = decodeGlobalSection(sr, m); err != nil {
				return nil, errors.Wrap(err, "global section")
			}
		case opcode.SectionExport:
			if m.Export, err = decodeExportSection(sr); err != nil {
				return nil, errors.Wrap(err, "export section")
			}
		case opcode.SectionStart:
			if m.Start, err = decodeStartSection(sr); err != nil {
				return nil, errors.Wrap(err, "start section")
			}
		case opcode.SectionElement:
			if m.Element, err = decodeElementSection(sr, m); err != nil {
				return nil, errors.Wrap(err, "element section")
			}
		case opcode.SectionCode:
			if m.Code, err = decodeCodeSection(sr, m); err != nil {
				return nil, errors.Wrap(err, "code section")
			}
		case opcode.SectionData:
			if m.Data, err = decodeDataSection(sr, m); err != nil {
				return nil, errors.Wrap(err, "data section")
			}
		case opcode.SectionCustom:
			name, contents, err := decodeCustomSection(body)
			if err != nil {
				return nil, errors.Wrap(err, "custom section")
			}
			if name == "name" {
				if m.Names, err = decodeNames(contents); err != nil {
					return nil, errors.Wrap(err, "name section")
				}
			} else {
				m.Customs = append(m.Customs, module.CustomSection{Name: name, Contents: contents})
			}
		default:
			return nil, fmt.Errorf("encoding: unknown section id %d", id)
		}
	}

	return m, nil
}

// CodeEntries returns m's instruction-level code entries as they stand
// (ReadModule has already decoded them), for callers that need to inspect
// or rewrite function bodies (e.g. differential testing against a
// disassembly). Raw overrides in m.Code.Raw are not consulted.
func CodeEntries(m *module.Module) ([]module.CodeEntry, error) {
	return m.Code.Segments, nil
}

// WriteCodeEntry encodes a single function body (locals + instructions +
// implicit end) to w, in the shape the code section expects per entry.
func WriteCodeEntry(w io.Writer, e module.CodeEntry) error {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(e.Func.Locals))); err != nil {
		return err
	}
	for _, l := range e.Func.Locals {
		if err := writeUvarint(&buf, uint64(l.Count)); err != nil {
			return err
		}
		buf.WriteByte(byte(l.Type))
	}
	if err := encodeInstrs(&buf, e.Func.Instrs, noTypeIndexer); err != nil {
		return err
	}
	buf.WriteByte(byte(opcode.End))

	if err := writeUvarint(asByteWriter(w), uint64(buf.Len())); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func noTypeIndexer([]types.ValueType) (uint32, error) {
	return 0, fmt.Errorf("encoding: multi-value block type used outside a module context")
}

// makeTypeIndexer returns a function resolving a multi-value result
// signature to its index in m's type section, registering a fresh entry
// (appended to m.Type.Functions) the first time a given signature appears.
// This lets the compiler declare a Block/If/Loop with a multi-slot Clarity
// result (see claritype.Slots) without manually managing type indices.
func makeTypeIndexer(m *module.Module) func([]types.ValueType) (uint32, error) {
	return func(results []types.ValueType) (uint32, error) {
		want := module.FunctionType{Results: results}
		for i, t := range m.Type.Functions {
			if t.Equal(want) {
				return uint32(i), nil
			}
		}
		m.Type.Functions = append(m.Type.Functions, want)
		return uint32(len(m.Type.Functions) - 1), nil
	}
}
