/*
Copyright 2024 The Tanuki Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scanquery implements the Scan Query DSL (C9): a boolean
// search language over individual assets, used when the structured
// Query Planner (C8) is insufficient. The lexer/parser/evaluator split
// follows the teacher's pkg/search/lexer.go + pkg/search/expr.go +
// pkg/search/predicate.go three-file shape: a channel-based stateFn
// lexer feeds a recursive-descent parser that builds a tree of
// predicate closures.
package scanquery

import "github.com/nlfiedler/tanuki/internal/asset"

// Node is one node of a parsed query's AST.
type Node interface {
	// Eval reports whether a matches this node.
	Eval(a *asset.Asset) bool
}

// Empty is the AST for the empty query string; it matches nothing, per
// spec.md §4.8 ("Empty matches nothing (returns [])").
type Empty struct{}

func (Empty) Eval(*asset.Asset) bool { return false }

// And is true iff both operands are true.
type And struct {
	Left, Right Node
}

func (n And) Eval(a *asset.Asset) bool { return n.Left.Eval(a) && n.Right.Eval(a) }

// Or is true iff either operand is true.
type Or struct {
	Left, Right Node
}

func (n Or) Eval(a *asset.Asset) bool { return n.Left.Eval(a) || n.Right.Eval(a) }

// Not negates its operand.
type Not struct {
	Operand Node
}

func (n Not) Eval(a *asset.Asset) bool { return !n.Operand.Eval(a) }

// Predicate is the evaluation closure for one Leaf, built by the
// parser at parse time so Eval does no further keyword dispatch.
type Predicate func(a *asset.Asset) bool

// Leaf wraps one keyword:arg predicate.
type Leaf struct {
	Keyword string
	Args    []string
	Pred    Predicate
}

func (n Leaf) Eval(a *asset.Asset) bool { return n.Pred(a) }
