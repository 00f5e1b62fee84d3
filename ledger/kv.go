// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

// Order selects the iteration direction of a prefix scan.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Cursor walks the key/value pairs produced by a Tx.Scan call. A
// Cursor is only valid for the lifetime of the Tx that created it.
type Cursor interface {
	// Next advances the cursor and reports whether a pair is available.
	Next() bool
	Key() []byte
	Value() []byte
	// Err returns the first error encountered during iteration, if any.
	Err() error
	Close() error
}

// Tx is a single transaction over a KV store. Every mutating Engine
// operation runs inside exactly one Tx (spec.md §5): returning a
// non-nil error from the callback passed to KV.Update aborts the
// transaction and every write made through it is rolled back.
type Tx interface {
	Get(key []byte) (value []byte, ok bool, err error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Scan returns a Cursor over all keys sharing prefix, in the
	// requested order.
	Scan(prefix []byte, order Order) (Cursor, error)

	// DequePushBack/DequePushFront/DequePopFront implement a durable
	// double-ended queue over a reserved key prefix (MEMO_QUEUE,
	// spec.md §3/§6.3).
	DequePushBack(prefix []byte, value []byte) error
	DequePushFront(prefix []byte, value []byte) error
	DequePopFront(prefix []byte) (value []byte, ok bool, err error)
}

// KV is an ordered byte-key map with atomic per-message transactions
// (spec.md §6.1). Implementations must make every write inside Update
// visible atomically on success and invisible entirely on error.
type KV interface {
	Update(fn func(tx Tx) error) error
	View(fn func(tx Tx) error) error
}
