// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ast defines the type-annotated abstract syntax tree the code
// generator consumes. A separate type checker (outside this module's
// scope) is expected to have already resolved every Expr's Type field and
// rejected anything statically invalid; the generator trusts these
// annotations and only re-validates what the type checker cannot (name
// reservation, runtime arity of polymorphic forms, and so on).
package ast

import (
	"github.com/BowTiedWoo/clarity-wasm/internal/claritype"
)

// Expr is any type-annotated expression node. Every concrete node type
// embeds base for its annotation; the generator type-switches on them.
type Expr interface {
	ResultType() claritype.Type
}

// base carries the type annotation every node needs; embed it in each
// concrete node and implement ResultType by promotion.
type base struct {
	Type claritype.Type
}

func (b base) ResultType() claritype.Type { return b.Type }

// Literal is a constant value, eligible for literal-pool interning.
type Literal struct {
	base
	Value claritype.Value
}

// Var is a reference to a let-bound, function-parameter, or match-arm
// bound identifier.
type Var struct {
	base
	Name string
}

// VarGet reads a data variable's current value via the host.
type VarGet struct {
	base
	Name string
}

// VarSet writes a data variable's value via the host. Its result type is
// Bool (the Language's var-set always evaluates to true).
type VarSet struct {
	base
	Name  string
	Value Expr
}

// Let introduces one or more sequentially-visible bindings, scoped to
// Body.
type Let struct {
	base
	Bindings []LetBinding
	Body     []Expr // all but the last are evaluated for side effects only
}

type LetBinding struct {
	Name  string
	Value Expr
}

// If is the conditional control form (§4.6.2).
type If struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

// And/Or are short-circuiting boolean chains (§4.6.2). Clauses is
// evaluated left to right; evaluation stops at the first clause that
// decides the result (false for And, true for Or).
type And struct {
	base
	Clauses []Expr
}

type Or struct {
	base
	Clauses []Expr
}

// MatchOptional compiles `match` on an Optional(T) scrutinee (§4.6.2).
type MatchOptional struct {
	base
	Scrutinee Expr
	SomeName  string // bound to the inner value within SomeArm
	SomeArm   Expr
	NoneArm   Expr
}

// MatchResponse compiles `match` on a Response(O, E) scrutinee.
type MatchResponse struct {
	base
	Scrutinee Expr
	OkName    string
	OkArm     Expr
	ErrName   string
	ErrArm    Expr
}

// UnwrapKind distinguishes the four short-return/panic forms sharing
// Unwrap!'s compilation shape (§4.6.2, §7, §9).
type UnwrapKind int

const (
	// UnwrapBang is `unwrap!`: on failure, evaluate Fallback and
	// short-return it from the enclosing function (no trap).
	UnwrapBang UnwrapKind = iota
	// TryBang is `try!`: on failure, short-return the failure variant
	// itself (no trap).
	TryBang
	// UnwrapPanic is `unwrap-panic`: on failure, trap with
	// CodeDeliberatePanic (see errormapping; resolves spec's "panic
	// semantics" Open Question).
	UnwrapPanic
	// UnwrapErrPanic is `unwrap-err-panic`: like UnwrapPanic but for the
	// err arm of a Response (returns the err payload on success).
	UnwrapErrPanic
)

// Unwrap compiles any of the four unwrap/try forms over an Optional or
// Response scrutinee.
type Unwrap struct {
	base
	Kind      UnwrapKind
	Scrutinee Expr
	// Fallback is only used by UnwrapBang; nil for the other kinds.
	Fallback Expr
}

// Filter compiles the `filter` form over a List(T, n) (§4.6.2).
type Filter struct {
	base
	PredicateName string // a user- or built-in function taking one T, returning Bool
	List          Expr
}

// Call is any function application: a built-in (arithmetic, equality,
// asset/variable helpers) or a user-defined function. The generator
// resolves Name against its constants/functions tables and the reserved
// built-in set.
type Call struct {
	base
	Name string
	Args []Expr
}

// DefineConstant binds Name to Value at the top level (§4.6.3).
type DefineConstant struct {
	Name  string
	Value Expr
}

// DefineDataVar declares a host-backed data variable (§4.6.3).
type DefineDataVar struct {
	Name    string
	Type    claritype.Type
	Initial Expr
}

// DefineFT declares a fungible token, with an optional fixed supply cap.
type DefineFT struct {
	Name   string
	Supply Expr // nil for an unbounded token
}

// DefineNFT declares a non-fungible token keyed by AssetType.
type DefineNFT struct {
	Name      string
	AssetType claritype.Type
}

// DefineMap declares a host-backed map keyed by KeyType with values of
// ValueType.
type DefineMap struct {
	Name      string
	KeyType   claritype.Type
	ValueType claritype.Type
}

// Param is one parameter of a user-defined function.
type Param struct {
	Name string
	Type claritype.Type
}

// DefineFunction declares a user-defined function, private (callable only
// from within the module) or public (exported per §6).
type DefineFunction struct {
	Name   string
	Params []Param
	Return claritype.Type
	Body   []Expr // all but the last are evaluated for side effects only
	Public bool
}

// Contract is the top-level compilation unit: a sequence of top-level
// definitions in source order, matching the order spec's ".top-level"
// initializer (§6) must run them in.
type Contract struct {
	Name        string
	Definitions []TopLevel
}

// TopLevel is any of the Define* forms.
type TopLevel interface {
	topLevel()
}

func (DefineConstant) topLevel() {}
func (DefineDataVar) topLevel()  {}
func (DefineFT) topLevel()       {}
func (DefineNFT) topLevel()      {}
func (DefineMap) topLevel()      {}
func (DefineFunction) topLevel() {}

// NewLiteral is a convenience constructor setting both the value and its
// (already type-checked) type.
func NewLiteral(t claritype.Type, v claritype.Value) Literal {
	return Literal{base: base{Type: t}, Value: v}
}

// NewVar, NewIf, and friends below mirror NewLiteral for the remaining
// node kinds the generator constructs most often in tests.
func NewVar(t claritype.Type, name string) Var { return Var{base: base{Type: t}, Name: name} }

func NewIf(t claritype.Type, cond, then, els Expr) If {
	return If{base: base{Type: t}, Cond: cond, Then: then, Else: els}
}

func NewCall(t claritype.Type, name string, args ...Expr) Call {
	return Call{base: base{Type: t}, Name: name, Args: args}
}
