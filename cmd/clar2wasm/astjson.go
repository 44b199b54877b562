// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/BowTiedWoo/clarity-wasm/internal/ast"
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// This file is the CLI's own JSON wire format for a type-annotated
// contract: internal/ast.Expr, internal/ast.TopLevel, and
// claritype.Value are all interfaces, so each concrete node is tagged
// with a "kind" discriminator on the way in and out. claritype.Type
// needs no such wrapper: every field on it is already a plain,
// JSON-marshalable struct, so it round-trips through encoding/json
// unassisted.

// decodeContract parses a JSON-encoded contract into its Go AST.
func decodeContract(data []byte) (*ast.Contract, error) {
	var wire struct {
		Name        string            `json:"name"`
		Definitions []json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, "decoding contract")
	}
	contract := &ast.Contract{Name: wire.Name}
	for i, raw := range wire.Definitions {
		def, err := decodeTopLevel(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "definition %d", i)
		}
		contract.Definitions = append(contract.Definitions, def)
	}
	return contract, nil
}

func kindOf(raw json.RawMessage) (string, error) {
	var tagged struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return "", err
	}
	if tagged.Kind == "" {
		return "", errors.New("missing \"kind\" field")
	}
	return tagged.Kind, nil
}

func decodeTopLevel(raw json.RawMessage) (ast.TopLevel, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "define-constant":
		var w struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		value, err := decodeExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return ast.DefineConstant{Name: w.Name, Value: value}, nil
	case "define-data-var":
		var w struct {
			Name    string          `json:"name"`
			Type    claritype.Type  `json:"type"`
			Initial json.RawMessage `json:"initial"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		initial, err := decodeExpr(w.Initial)
		if err != nil {
			return nil, err
		}
		return ast.DefineDataVar{Name: w.Name, Type: w.Type, Initial: initial}, nil
	case "define-ft":
		var w struct {
			Name   string          `json:"name"`
			Supply json.RawMessage `json:"supply"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		var supply ast.Expr
		if len(w.Supply) > 0 && string(w.Supply) != "null" {
			supply, err = decodeExpr(w.Supply)
			if err != nil {
				return nil, err
			}
		}
		return ast.DefineFT{Name: w.Name, Supply: supply}, nil
	case "define-nft":
		var w struct {
			Name      string         `json:"name"`
			AssetType claritype.Type `json:"asset_type"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return ast.DefineNFT{Name: w.Name, AssetType: w.AssetType}, nil
	case "define-map":
		var w struct {
			Name      string         `json:"name"`
			KeyType   claritype.Type `json:"key_type"`
			ValueType claritype.Type `json:"value_type"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return ast.DefineMap{Name: w.Name, KeyType: w.KeyType, ValueType: w.ValueType}, nil
	case "define-function":
		var w struct {
			Name   string `json:"name"`
			Params []struct {
				Name string         `json:"name"`
				Type claritype.Type `json:"type"`
			} `json:"params"`
			Return json.RawMessage   `json:"return"`
			Body   []json.RawMessage `json:"body"`
			Public bool              `json:"public"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		var ret claritype.Type
		if err := json.Unmarshal(w.Return, &ret); err != nil {
			return nil, errors.Wrap(err, "return type")
		}
		params := make([]ast.Param, len(w.Params))
		for i, p := range w.Params {
			params[i] = ast.Param{Name: p.Name, Type: p.Type}
		}
		body := make([]ast.Expr, len(w.Body))
		for i, raw := range w.Body {
			e, err := decodeExpr(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "body[%d]", i)
			}
			body[i] = e
		}
		return ast.DefineFunction{Name: w.Name, Params: params, Return: ret, Body: body, Public: w.Public}, nil
	default:
		return nil, errors.Errorf("unknown top-level kind %q", kind)
	}
}

func decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "literal":
		var w struct {
			Type  claritype.Type  `json:"type"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		v, err := decodeValue(w.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(w.Type, v), nil
	case "var":
		var w struct {
			Type claritype.Type `json:"type"`
			Name string         `json:"name"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return ast.NewVar(w.Type, w.Name), nil
	case "var-get":
		var w struct {
			Type claritype.Type `json:"type"`
			Name string         `json:"name"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		vg := ast.VarGet{Name: w.Name}
		vg.Type = w.Type
		return vg, nil
	case "var-set":
		var w struct {
			Type  claritype.Type  `json:"type"`
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		value, err := decodeExpr(w.Value)
		if err != nil {
			return nil, err
		}
		vs := ast.VarSet{Name: w.Name, Value: value}
		vs.Type = w.Type
		return vs, nil
	case "let":
		var w struct {
			Type     claritype.Type `json:"type"`
			Bindings []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"bindings"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		bindings := make([]ast.LetBinding, len(w.Bindings))
		for i, b := range w.Bindings {
			v, err := decodeExpr(b.Value)
			if err != nil {
				return nil, err
			}
			bindings[i] = ast.LetBinding{Name: b.Name, Value: v}
		}
		body, err := decodeExprSlice(w.Body)
		if err != nil {
			return nil, err
		}
		let := ast.Let{Bindings: bindings, Body: body}
		let.Type = w.Type
		return let, nil
	case "if":
		var w struct {
			Type claritype.Type  `json:"type"`
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeExpr(w.Else)
		if err != nil {
			return nil, err
		}
		return ast.NewIf(w.Type, cond, then, els), nil
	case "and":
		var w struct {
			Type    claritype.Type    `json:"type"`
			Clauses []json.RawMessage `json:"clauses"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		clauses, err := decodeExprSlice(w.Clauses)
		if err != nil {
			return nil, err
		}
		and := ast.And{Clauses: clauses}
		and.Type = w.Type
		return and, nil
	case "or":
		var w struct {
			Type    claritype.Type    `json:"type"`
			Clauses []json.RawMessage `json:"clauses"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		clauses, err := decodeExprSlice(w.Clauses)
		if err != nil {
			return nil, err
		}
		or := ast.Or{Clauses: clauses}
		or.Type = w.Type
		return or, nil
	case "match-optional":
		var w struct {
			Type      claritype.Type  `json:"type"`
			Scrutinee json.RawMessage `json:"scrutinee"`
			SomeName  string          `json:"some_name"`
			SomeArm   json.RawMessage `json:"some_arm"`
			NoneArm   json.RawMessage `json:"none_arm"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		scrutinee, err := decodeExpr(w.Scrutinee)
		if err != nil {
			return nil, err
		}
		someArm, err := decodeExpr(w.SomeArm)
		if err != nil {
			return nil, err
		}
		noneArm, err := decodeExpr(w.NoneArm)
		if err != nil {
			return nil, err
		}
		mo := ast.MatchOptional{Scrutinee: scrutinee, SomeName: w.SomeName, SomeArm: someArm, NoneArm: noneArm}
		mo.Type = w.Type
		return mo, nil
	case "match-response":
		var w struct {
			Type      claritype.Type  `json:"type"`
			Scrutinee json.RawMessage `json:"scrutinee"`
			OkName    string          `json:"ok_name"`
			OkArm     json.RawMessage `json:"ok_arm"`
			ErrName   string          `json:"err_name"`
			ErrArm    json.RawMessage `json:"err_arm"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		scrutinee, err := decodeExpr(w.Scrutinee)
		if err != nil {
			return nil, err
		}
		okArm, err := decodeExpr(w.OkArm)
		if err != nil {
			return nil, err
		}
		errArm, err := decodeExpr(w.ErrArm)
		if err != nil {
			return nil, err
		}
		mr := ast.MatchResponse{Scrutinee: scrutinee, OkName: w.OkName, OkArm: okArm, ErrName: w.ErrName, ErrArm: errArm}
		mr.Type = w.Type
		return mr, nil
	case "unwrap":
		var w struct {
			Type       claritype.Type  `json:"type"`
			UnwrapKind string          `json:"unwrap_kind"`
			Scrutinee  json.RawMessage `json:"scrutinee"`
			Fallback   json.RawMessage `json:"fallback"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		uk, err := decodeUnwrapKind(w.UnwrapKind)
		if err != nil {
			return nil, err
		}
		scrutinee, err := decodeExpr(w.Scrutinee)
		if err != nil {
			return nil, err
		}
		fallback, err := decodeExpr(w.Fallback)
		if err != nil {
			return nil, err
		}
		uw := ast.Unwrap{Kind: uk, Scrutinee: scrutinee, Fallback: fallback}
		uw.Type = w.Type
		return uw, nil
	case "filter":
		var w struct {
			Type          claritype.Type  `json:"type"`
			PredicateName string          `json:"predicate_name"`
			List          json.RawMessage `json:"list"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		list, err := decodeExpr(w.List)
		if err != nil {
			return nil, err
		}
		f := ast.Filter{PredicateName: w.PredicateName, List: list}
		f.Type = w.Type
		return f, nil
	case "call":
		var w struct {
			Type claritype.Type    `json:"type"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		args, err := decodeExprSlice(w.Args)
		if err != nil {
			return nil, err
		}
		return ast.NewCall(w.Type, w.Name, args...), nil
	default:
		return nil, errors.Errorf("unknown expression kind %q", kind)
	}
}

func decodeExprSlice(raws []json.RawMessage) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(raws))
	for i, raw := range raws {
		e, err := decodeExpr(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "[%d]", i)
		}
		out[i] = e
	}
	return out, nil
}

func decodeUnwrapKind(s string) (ast.UnwrapKind, error) {
	switch s {
	case "unwrap-bang":
		return ast.UnwrapBang, nil
	case "try-bang":
		return ast.TryBang, nil
	case "unwrap-panic":
		return ast.UnwrapPanic, nil
	case "unwrap-err-panic":
		return ast.UnwrapErrPanic, nil
	default:
		return 0, errors.Errorf("unknown unwrap kind %q", s)
	}
}

func decodeValue(raw json.RawMessage) (claritype.Value, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "int":
		var w struct {
			Lo uint64 `json:"lo"`
			Hi uint64 `json:"hi"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return claritype.IntValue{Bits: claritype.Int128{Lo: w.Lo, Hi: w.Hi}}, nil
	case "uint":
		var w struct {
			Lo uint64 `json:"lo"`
			Hi uint64 `json:"hi"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return claritype.UIntValue{Bits: claritype.Int128{Lo: w.Lo, Hi: w.Hi}}, nil
	case "bool":
		var w struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return claritype.BoolValue(w.Value), nil
	case "notype":
		return claritype.NoTypeValue{}, nil
	case "principal":
		var w struct {
			Version  byte   `json:"version"`
			Hash     string `json:"hash"`
			Contract string `json:"contract"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(w.Hash)
		if err != nil {
			return nil, errors.Wrap(err, "principal hash")
		}
		var hash [claritype.PrincipalHashLen]byte
		copy(hash[:], b)
		return claritype.PrincipalValue{Version: w.Version, Hash: hash, Contract: w.Contract}, nil
	case "buffer":
		var w struct {
			Cap   uint32 `json:"cap"`
			Bytes string `json:"bytes"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(w.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "buffer bytes")
		}
		return claritype.BufferValue{Cap: w.Cap, Bytes: b}, nil
	case "string-ascii":
		var w struct {
			Cap   uint32 `json:"cap"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return claritype.StringAsciiValue{Cap: w.Cap, Value: w.Value}, nil
	case "string-utf8":
		var w struct {
			Cap        uint32 `json:"cap"`
			CodePoints []rune `json:"codepoints"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return claritype.StringUtf8Value{Cap: w.Cap, CodePoints: w.CodePoints}, nil
	case "list":
		var w struct {
			ElemType claritype.Type    `json:"elem_type"`
			MaxLen   uint32            `json:"max_len"`
			Items    []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		items := make([]claritype.Value, len(w.Items))
		for i, raw := range w.Items {
			v, err := decodeValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "items[%d]", i)
			}
			items[i] = v
		}
		return claritype.ListValue{ElemType: w.ElemType, MaxLen: w.MaxLen, Items: items}, nil
	case "tuple":
		var w struct {
			Type   claritype.Type             `json:"type"`
			Values map[string]json.RawMessage `json:"values"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		values := make(map[string]claritype.Value, len(w.Values))
		for name, raw := range w.Values {
			v, err := decodeValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "values[%q]", name)
			}
			values[name] = v
		}
		return claritype.TupleValue{Def: w.Type, Values: values}, nil
	case "optional":
		var w struct {
			Type claritype.Type  `json:"type"`
			Some json.RawMessage `json:"some"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		var some claritype.Value
		if len(w.Some) > 0 && string(w.Some) != "null" {
			some, err = decodeValue(w.Some)
			if err != nil {
				return nil, err
			}
		}
		return claritype.OptionalValue{Def: w.Type, Some: some}, nil
	case "response":
		var w struct {
			Type    claritype.Type  `json:"type"`
			Ok      bool            `json:"ok"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		payload, err := decodeValue(w.Payload)
		if err != nil {
			return nil, err
		}
		return claritype.ResponseValue{Def: w.Type, Ok: w.Ok, Payload: payload}, nil
	default:
		return nil, errors.Errorf("unknown value kind %q", kind)
	}
}
