// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package module

import (
	"encoding/hex"
	"fmt"
	"io"
)

// PrettyOption controls how much detail Pretty includes.
type PrettyOption struct {
	// Contents, when set, dumps the raw bytes of the data and code
	// sections in addition to the structural summary.
	Contents bool
}

// Pretty writes a human-readable summary of m to w, for debugging a
// compiled module without a disassembler on hand.
func Pretty(w io.Writer, m *Module, opts ...PrettyOption) {
	fmt.Fprintln(w, "version:", m.Version)
	fmt.Fprintln(w, "types:")
	for _, fn := range m.Type.Functions {
		fmt.Fprintln(w, "  -", fn)
	}
	fmt.Fprintln(w, "imports:")
	for i, imp := range m.Import.Imports {
		fmt.Fprintf(w, "  - [%d] %v\n", i, imp)
	}
	fmt.Fprintln(w, "functions:")
	for _, idx := range m.Function.TypeIndices {
		if int(idx) >= len(m.Type.Functions) {
			fmt.Fprintln(w, "  -", "???")
			continue
		}
		fmt.Fprintln(w, "  -", m.Type.Functions[idx])
	}
	fmt.Fprintln(w, "exports:")
	for _, exp := range m.Export.Exports {
		fmt.Fprintln(w, "  -", exp)
	}
	fmt.Fprintln(w, "globals:")
	for i, g := range m.Global.Globals {
		fmt.Fprintf(w, "  - [%d] %v mutable=%v\n", i, g.Type, g.Mutable)
	}
	fmt.Fprintln(w, "code:")
	for i := range m.Code.Segments {
		fmt.Fprintf(w, "  - [%d] %d locals, %d instrs\n", i,
			len(m.Code.Segments[i].Func.Locals), len(m.Code.Segments[i].Func.Instrs))
	}
	fmt.Fprintln(w, "data:")
	for _, seg := range m.Data.Segments {
		fmt.Fprintf(w, "  - %d bytes at segment %d\n", len(seg.Init), seg.Index)
	}

	for _, opt := range opts {
		if !opt.Contents {
			continue
		}
		if len(m.Data.Segments) > 0 {
			fmt.Fprintln(w, "data section:")
			for _, seg := range m.Data.Segments {
				fmt.Fprintln(w, hex.Dump(seg.Init))
			}
		}
	}
}
