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

// Package kvstore wraps an embedded ordered key-value engine (C2) behind
// a small interface, the way the teacher's pkg/sorted wraps several
// engines behind sorted.KeyValue. Only one engine (goleveldb) is
// implemented, since spec.md §4.2 names a single embedded store; the
// interface is kept narrow so a different engine could be swapped in the
// way the teacher swaps leveldb/kvfile/mysql/postgres behind the same
// sorted.KeyValue contract.
package kvstore

import "errors"

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// KeyValue is an ordered, byte-string keyed store with prefix and range
// scans. All read operations are safe for concurrent use from multiple
// goroutines; writes serialize internally.
type KeyValue interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error

	// PrefixScan returns an iterator over keys with the given prefix, in
	// ascending key order.
	PrefixScan(prefix string) Iterator

	// RangeScan returns an iterator over the half-open range [low, high).
	RangeScan(low, high string) Iterator

	// Seek returns up to limit (key,value) pairs starting at the first
	// key >= from, plus the key to resume from (empty if exhausted).
	Seek(from string, limit int) (pairs []KV, next string, err error)

	// WriteBatch atomically commits a single record together with its
	// index deltas.
	WriteBatch(b *Batch) error

	Close() error
}

// KV is a single key/value pair, used by Seek's paged results.
type KV struct {
	Key, Value string
}

// Iterator iterates over a KeyValue's pairs in key order. It must be
// closed after use.
type Iterator interface {
	Next() bool
	Key() string
	Value() string
	Close() error
}

// Batch accumulates a set of puts/deletes to commit atomically.
type Batch struct {
	ops []batchOp
}

type batchOp struct {
	key      string
	value    string
	isDelete bool
}

func NewBatch() *Batch { return &Batch{} }

func (b *Batch) Put(key, value string) { b.ops = append(b.ops, batchOp{key: key, value: value}) }
func (b *Batch) Delete(key string)     { b.ops = append(b.ops, batchOp{key: key, isDelete: true}) }
func (b *Batch) Len() int              { return len(b.ops) }
