// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wazerohost

import "github.com/BowTiedWoo/clarity-wasm/internal/claritype"

func cloneBytesMap(m map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func cloneNestedBytesMap(m map[string]map[string][]byte) map[string]map[string][]byte {
	out := make(map[string]map[string][]byte, len(m))
	for k, v := range m {
		out[k] = cloneBytesMap(v)
	}
	return out
}

func cloneInt128Map(m map[string]claritype.Int128) map[string]claritype.Int128 {
	out := make(map[string]claritype.Int128, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePrincipalInt128Map(m map[claritype.PrincipalValue]claritype.Int128) map[claritype.PrincipalValue]claritype.Int128 {
	out := make(map[claritype.PrincipalValue]claritype.Int128, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePrincipalInt128NestedMap(m map[string]map[claritype.PrincipalValue]claritype.Int128) map[string]map[claritype.PrincipalValue]claritype.Int128 {
	out := make(map[string]map[claritype.PrincipalValue]claritype.Int128, len(m))
	for k, v := range m {
		out[k] = clonePrincipalInt128Map(v)
	}
	return out
}

func clonePrincipalNestedMap(m map[string]map[string]claritype.PrincipalValue) map[string]map[string]claritype.PrincipalValue {
	out := make(map[string]map[string]claritype.PrincipalValue, len(m))
	for k, v := range m {
		inner := make(map[string]claritype.PrincipalValue, len(v))
		for ik, iv := range v {
			inner[ik] = iv
		}
		out[k] = inner
	}
	return out
}

func clonePrincipalLockMap(m map[claritype.PrincipalValue]lockInfo) map[claritype.PrincipalValue]lockInfo {
	out := make(map[claritype.PrincipalValue]lockInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
