// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/module"
	"github.com/BowTiedWoo/clarity-wasm/internal/wasm/types"
)

type typeIndexer = func([]types.ValueType) (uint32, error)

// ---- type section ----

func encodeTypeSection(s module.TypeSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Functions))); err != nil {
		return nil, err
	}
	for _, fn := range s.Functions {
		buf.WriteByte(0x60) // func type tag
		if err := writeUvarint(&buf, uint64(len(fn.Params))); err != nil {
			return nil, err
		}
		for _, p := range fn.Params {
			buf.WriteByte(byte(p))
		}
		if err := writeUvarint(&buf, uint64(len(fn.Results))); err != nil {
			return nil, err
		}
		for _, r := range fn.Results {
			buf.WriteByte(byte(r))
		}
	}
	return buf.Bytes(), nil
}

func decodeTypeSection(r io.ByteReader) (module.TypeSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.TypeSection{}, err
	}
	s := module.TypeSection{Functions: make([]module.FunctionType, n)}
	for i := range s.Functions {
		tag, err := r.ReadByte()
		if err != nil {
			return module.TypeSection{}, err
		}
		if tag != 0x60 {
			return module.TypeSection{}, fmt.Errorf("encoding: bad func type tag %#x", tag)
		}
		s.Functions[i].Params, err = readValueTypes(r)
		if err != nil {
			return module.TypeSection{}, err
		}
		s.Functions[i].Results, err = readValueTypes(r)
		if err != nil {
			return module.TypeSection{}, err
		}
	}
	return s, nil
}

func readValueTypes(r io.ByteReader) ([]types.ValueType, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.ValueType, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = types.ValueType(b)
	}
	return out, nil
}

// ---- import section ----

func encodeImportSection(s module.ImportSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Imports))); err != nil {
		return nil, err
	}
	for _, imp := range s.Imports {
		if err := writeName(&buf, imp.Module); err != nil {
			return nil, err
		}
		if err := writeName(&buf, imp.Name); err != nil {
			return nil, err
		}
		switch imp.Descriptor.Type {
		case module.FunctionImportType:
			buf.WriteByte(0x00)
			if err := writeUvarint(&buf, uint64(imp.Descriptor.Index)); err != nil {
				return nil, err
			}
		case module.TableImportType:
			buf.WriteByte(0x01)
			if err := writeLimits(&buf, imp.Descriptor.Table.Lim); err != nil {
				return nil, err
			}
		case module.MemoryImportType:
			buf.WriteByte(0x02)
			if err := writeLimits(&buf, imp.Descriptor.Mem.Lim); err != nil {
				return nil, err
			}
		case module.GlobalImportType:
			buf.WriteByte(0x03)
			buf.WriteByte(byte(imp.Descriptor.Glob.Type))
			if imp.Descriptor.Glob.Mutable {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		}
	}
	return buf.Bytes(), nil
}

func decodeImportSection(r io.ByteReader) (module.ImportSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.ImportSection{}, err
	}
	s := module.ImportSection{Imports: make([]module.Import, n)}
	for i := range s.Imports {
		mod, err := readName(r)
		if err != nil {
			return module.ImportSection{}, err
		}
		name, err := readName(r)
		if err != nil {
			return module.ImportSection{}, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return module.ImportSection{}, err
		}
		desc := module.ImportDescriptor{}
		switch kind {
		case 0x00:
			desc.Type = module.FunctionImportType
			idx, err := u32(r)
			if err != nil {
				return module.ImportSection{}, err
			}
			desc.Index = idx
		case 0x01:
			desc.Type = module.TableImportType
			lim, err := readLimits(r)
			if err != nil {
				return module.ImportSection{}, err
			}
			desc.Table = module.Table{Lim: lim}
		case 0x02:
			desc.Type = module.MemoryImportType
			lim, err := readLimits(r)
			if err != nil {
				return module.ImportSection{}, err
			}
			desc.Mem = module.Memory{Lim: lim}
		case 0x03:
			desc.Type = module.GlobalImportType
			vt, err := r.ReadByte()
			if err != nil {
				return module.ImportSection{}, err
			}
			mut, err := r.ReadByte()
			if err != nil {
				return module.ImportSection{}, err
			}
			desc.Glob = module.GlobalType{Type: types.ValueType(vt), Mutable: mut == 1}
		default:
			return module.ImportSection{}, fmt.Errorf("encoding: unknown import kind %d", kind)
		}
		s.Imports[i] = module.Import{Module: mod, Name: name, Descriptor: desc}
	}
	return s, nil
}

func readName(r io.ByteReader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		buf[i] = b
	}
	return string(buf), nil
}

func writeLimits(w io.ByteWriter, l module.Limits) error {
	if l.Max != nil {
		if err := w.WriteByte(1); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(l.Min)); err != nil {
			return err
		}
		return writeUvarint(w, uint64(*l.Max))
	}
	if err := w.WriteByte(0); err != nil {
		return err
	}
	return writeUvarint(w, uint64(l.Min))
}

func readLimits(r io.ByteReader) (module.Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return module.Limits{}, err
	}
	min, err := u32(r)
	if err != nil {
		return module.Limits{}, err
	}
	if flag == 1 {
		max, err := u32(r)
		if err != nil {
			return module.Limits{}, err
		}
		return module.Limits{Min: min, Max: &max}, nil
	}
	return module.Limits{Min: min}, nil
}

// ---- function section ----

func encodeFunctionSection(s module.FunctionSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.TypeIndices))); err != nil {
		return nil, err
	}
	for _, idx := range s.TypeIndices {
		if err := writeUvarint(&buf, uint64(idx)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeFunctionSection(r io.ByteReader) (module.FunctionSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.FunctionSection{}, err
	}
	s := module.FunctionSection{TypeIndices: make([]uint32, n)}
	for i := range s.TypeIndices {
		if s.TypeIndices[i], err = u32(r); err != nil {
			return module.FunctionSection{}, err
		}
	}
	return s, nil
}

// ---- table / memory sections ----

func encodeTableSection(s module.TableSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Tables))); err != nil {
		return nil, err
	}
	for _, t := range s.Tables {
		buf.WriteByte(0x70) // funcref
		if err := writeLimits(&buf, t.Lim); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeTableSection(r io.ByteReader) (module.TableSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.TableSection{}, err
	}
	s := module.TableSection{Tables: make([]module.Table, n)}
	for i := range s.Tables {
		if _, err := r.ReadByte(); err != nil { // elem type
			return module.TableSection{}, err
		}
		lim, err := readLimits(r)
		if err != nil {
			return module.TableSection{}, err
		}
		s.Tables[i] = module.Table{Lim: lim}
	}
	return s, nil
}

func encodeMemorySection(s module.MemorySection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Memories))); err != nil {
		return nil, err
	}
	for _, m := range s.Memories {
		if err := writeLimits(&buf, m.Lim); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeMemorySection(r io.ByteReader) (module.MemorySection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.MemorySection{}, err
	}
	s := module.MemorySection{Memories: make([]module.Memory, n)}
	for i := range s.Memories {
		lim, err := readLimits(r)
		if err != nil {
			return module.MemorySection{}, err
		}
		s.Memories[i] = module.Memory{Lim: lim}
	}
	return s, nil
}

// ---- global section ----

func encodeGlobalSection(s module.GlobalSection, ti typeIndexer) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Globals))); err != nil {
		return nil, err
	}
	for _, g := range s.Globals {
		buf.WriteByte(byte(g.Type))
		if g.Mutable {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		if err := encodeInstrs(&buf, g.Init.Instrs, ti); err != nil {
			return nil, err
		}
		buf.WriteByte(0x0b) // end
	}
	return buf.Bytes(), nil
}

func decodeGlobalSection(r io.ByteReader, m *module.Module) (module.GlobalSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.GlobalSection{}, err
	}
	dec := &instrDecoder{types: m.Type.Functions}
	s := module.GlobalSection{Globals: make([]module.Global, n)}
	for i := range s.Globals {
		vt, err := r.ReadByte()
		if err != nil {
			return module.GlobalSection{}, err
		}
		mut, err := r.ReadByte()
		if err != nil {
			return module.GlobalSection{}, err
		}
		instrs, _, err := dec.decodeInstrs(r)
		if err != nil {
			return module.GlobalSection{}, err
		}
		s.Globals[i] = module.Global{
			Type:    types.ValueType(vt),
			Mutable: mut == 1,
			Init:    module.Expr{Instrs: instrs},
		}
	}
	return s, nil
}

// ---- export section ----

func encodeExportSection(s module.ExportSection) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Exports))); err != nil {
		return nil, err
	}
	for _, e := range s.Exports {
		if err := writeName(&buf, e.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(byte(e.Descriptor.Type))
		if err := writeUvarint(&buf, uint64(e.Descriptor.Index)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeExportSection(r io.ByteReader) (module.ExportSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.ExportSection{}, err
	}
	s := module.ExportSection{Exports: make([]module.Export, n)}
	for i := range s.Exports {
		name, err := readName(r)
		if err != nil {
			return module.ExportSection{}, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return module.ExportSection{}, err
		}
		idx, err := u32(r)
		if err != nil {
			return module.ExportSection{}, err
		}
		s.Exports[i] = module.Export{
			Name:       name,
			Descriptor: module.ExportDescriptor{Type: module.ExportDescriptorType(kind), Index: idx},
		}
	}
	return s, nil
}

// ---- start section ----

func encodeStartSection(s module.StartSection) ([]byte, error) {
	if !s.Present {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(s.Index)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStartSection(r io.ByteReader) (module.StartSection, error) {
	idx, err := u32(r)
	if err != nil {
		return module.StartSection{}, err
	}
	return module.StartSection{Present: true, Index: idx}, nil
}

// ---- element section ----

func encodeElementSection(s module.ElementSection, ti typeIndexer) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Segments))); err != nil {
		return nil, err
	}
	for _, seg := range s.Segments {
		if err := writeUvarint(&buf, uint64(seg.Index)); err != nil {
			return nil, err
		}
		if err := encodeInstrs(&buf, seg.Offset.Instrs, ti); err != nil {
			return nil, err
		}
		buf.WriteByte(0x0b)
		if err := writeUvarint(&buf, uint64(len(seg.Indices))); err != nil {
			return nil, err
		}
		for _, idx := range seg.Indices {
			if err := writeUvarint(&buf, uint64(idx)); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func decodeElementSection(r io.ByteReader, m *module.Module) (module.ElementSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.ElementSection{}, err
	}
	dec := &instrDecoder{types: m.Type.Functions}
	s := module.ElementSection{Segments: make([]module.ElementSegment, n)}
	for i := range s.Segments {
		tblIdx, err := u32(r)
		if err != nil {
			return module.ElementSection{}, err
		}
		offset, _, err := dec.decodeInstrs(r)
		if err != nil {
			return module.ElementSection{}, err
		}
		cnt, err := readUvarint(r)
		if err != nil {
			return module.ElementSection{}, err
		}
		indices := make([]uint32, cnt)
		for j := range indices {
			if indices[j], err = u32(r); err != nil {
				return module.ElementSection{}, err
			}
		}
		s.Segments[i] = module.ElementSegment{Index: tblIdx, Offset: module.Expr{Instrs: offset}, Indices: indices}
	}
	return s, nil
}

// ---- code section ----

func encodeCodeSection(s module.CodeSection, ti typeIndexer) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Segments))); err != nil {
		return nil, err
	}
	for i, entry := range s.Segments {
		if i < len(s.Raw) && s.Raw[i] != nil {
			if err := writeUvarint(&buf, uint64(len(s.Raw[i].Code))); err != nil {
				return nil, err
			}
			buf.Write(s.Raw[i].Code)
			continue
		}
		if err := encodeCodeEntry(&buf, entry, ti); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeCodeEntry(w *bytes.Buffer, e module.CodeEntry, ti typeIndexer) error {
	var body bytes.Buffer
	if err := writeUvarint(&body, uint64(len(e.Func.Locals))); err != nil {
		return err
	}
	for _, l := range e.Func.Locals {
		if err := writeUvarint(&body, uint64(l.Count)); err != nil {
			return err
		}
		body.WriteByte(byte(l.Type))
	}
	if err := encodeInstrs(&body, e.Func.Instrs, ti); err != nil {
		return err
	}
	body.WriteByte(0x0b)

	if err := writeUvarint(w, uint64(body.Len())); err != nil {
		return err
	}
	w.Write(body.Bytes())
	return nil
}

func decodeCodeSection(r io.ByteReader, m *module.Module) (module.CodeSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.CodeSection{}, err
	}
	dec := &instrDecoder{types: m.Type.Functions}
	s := module.CodeSection{Segments: make([]module.CodeEntry, n)}
	for i := range s.Segments {
		size, err := readUvarint(r)
		if err != nil {
			return module.CodeSection{}, err
		}
		body := make([]byte, size)
		for j := range body {
			b, err := r.ReadByte()
			if err != nil {
				return module.CodeSection{}, err
			}
			body[j] = b
		}
		br := byteReader(bytes.NewReader(body))
		nlocals, err := readUvarint(br)
		if err != nil {
			return module.CodeSection{}, err
		}
		locals := make([]module.LocalDeclaration, nlocals)
		for j := range locals {
			cnt, err := readUvarint(br)
			if err != nil {
				return module.CodeSection{}, err
			}
			vt, err := br.ReadByte()
			if err != nil {
				return module.CodeSection{}, err
			}
			locals[j] = module.LocalDeclaration{Count: uint32(cnt), Type: types.ValueType(vt)}
		}
		instrs, _, err := dec.decodeInstrs(br)
		if err != nil {
			return module.CodeSection{}, err
		}
		s.Segments[i] = module.CodeEntry{Func: module.Func{Locals: locals, Instrs: instrs}}
	}
	return s, nil
}

// ---- data section ----

func encodeDataSection(s module.DataSection, ti typeIndexer) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUvarint(&buf, uint64(len(s.Segments))); err != nil {
		return nil, err
	}
	for _, seg := range s.Segments {
		if err := writeUvarint(&buf, uint64(seg.Index)); err != nil {
			return nil, err
		}
		if err := encodeInstrs(&buf, seg.Offset.Instrs, ti); err != nil {
			return nil, err
		}
		buf.WriteByte(0x0b)
		if err := writeUvarint(&buf, uint64(len(seg.Init))); err != nil {
			return nil, err
		}
		buf.Write(seg.Init)
	}
	return buf.Bytes(), nil
}

func decodeDataSection(r io.ByteReader, m *module.Module) (module.DataSection, error) {
	n, err := readUvarint(r)
	if err != nil {
		return module.DataSection{}, err
	}
	dec := &instrDecoder{types: m.Type.Functions}
	s := module.DataSection{Segments: make([]module.DataSegment, n)}
	for i := range s.Segments {
		idx, err := u32(r)
		if err != nil {
			return module.DataSection{}, err
		}
		offset, _, err := dec.decodeInstrs(r)
		if err != nil {
			return module.DataSection{}, err
		}
		size, err := readUvarint(r)
		if err != nil {
			return module.DataSection{}, err
		}
		init := make([]byte, size)
		for j := range init {
			b, err := r.ReadByte()
			if err != nil {
				return module.DataSection{}, err
			}
			init[j] = b
		}
		s.Segments[i] = module.DataSegment{Index: idx, Offset: module.Expr{Instrs: offset}, Init: init}
	}
	return s, nil
}

// ---- custom / name sections ----

func decodeCustomSection(body []byte) (string, []byte, error) {
	r := byteReader(bytes.NewReader(body))
	name, err := readName(r)
	if err != nil {
		return "", nil, err
	}
	// The remaining bytes are whatever is left of body after the name;
	// easiest computed by re-slicing rather than draining r further.
	consumed := len(body) - remaining(r, body)
	return name, body[consumed:], nil
}

// remaining is a small helper used only by decodeCustomSection to figure
// out how many bytes the name consumed, since io.ByteReader does not
// expose a position. It re-reads from a fresh reader sized the same as
// body's tail candidates is overkill; instead we just drain r and count.
func remaining(r io.ByteReader, body []byte) int {
	n := 0
	for {
		if _, err := r.ReadByte(); err != nil {
			break
		}
		n++
	}
	return n
}

func decodeNames(contents []byte) (module.Names, error) {
	r := byteReader(bytes.NewReader(contents))
	var names module.Names
	for {
		subID, err := r.ReadByte()
		if err != nil {
			break
		}
		size, err := readUvarint(r)
		if err != nil {
			return names, err
		}
		sub := make([]byte, size)
		for i := range sub {
			b, err := r.ReadByte()
			if err != nil {
				return names, err
			}
			sub[i] = b
		}
		sr := byteReader(bytes.NewReader(sub))
		switch subID {
		case 0: // module name
			names.ModuleName, _ = readName(sr)
		case 1: // function names
			cnt, err := readUvarint(sr)
			if err != nil {
				return names, err
			}
			for i := uint64(0); i < cnt; i++ {
				idx, err := u32(sr)
				if err != nil {
					return names, err
				}
				nm, err := readName(sr)
				if err != nil {
					return names, err
				}
				names.Functions = append(names.Functions, module.NameMap{Index: idx, Name: nm})
			}
		}
	}
	return names, nil
}
