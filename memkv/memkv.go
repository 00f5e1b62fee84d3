// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memkv is an in-memory, copy-on-write implementation of
// ledger.KV: each Update clones the current key space into a working
// map, runs the callback against it, and only swaps it in if the
// callback returns nil — giving the all-or-nothing transaction
// semantics spec.md §5 requires without a real storage engine. It
// exists for tests and the cmd/poolstakectl smoke harness; boltkv is
// the durable counterpart.
package memkv

import (
	"encoding/binary"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/luxfi/poolstake/ledger"
)

var errReadOnly = errors.New("memkv: write attempted inside a read-only view")

// DB is a single in-memory key space guarded by a mutex; every Update
// or View call holds it for the callback's duration, matching the
// engine's single-threaded execution model (spec.md §5).
type DB struct {
	mu   sync.Mutex
	data map[string][]byte
}

// New returns an empty DB.
func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (d *DB) Update(fn func(ledger.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	working := make(map[string][]byte, len(d.data))
	for k, v := range d.data {
		working[k] = v
	}
	tx := &txn{data: working}
	if err := fn(tx); err != nil {
		return err
	}
	d.data = working
	return nil
}

func (d *DB) View(fn func(ledger.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := &txn{data: d.data, readOnly: true}
	return fn(tx)
}

type txn struct {
	data     map[string][]byte
	readOnly bool
}

func (t *txn) Get(key []byte) ([]byte, bool, error) {
	v, ok := t.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (t *txn) Put(key, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	t.data[string(key)] = cp
	return nil
}

func (t *txn) Delete(key []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	delete(t.data, string(key))
	return nil
}

func (t *txn) Scan(prefix []byte, order ledger.Order) (ledger.Cursor, error) {
	p := string(prefix)
	keys := make([]string, 0)
	for k := range t.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if order == ledger.Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return &cursor{data: t.data, keys: keys, pos: -1}, nil
}

// Deque keys live under prefix with an internal byte tag so they
// never collide with a point-scan over the same prefix: 0x00 marks the
// head/tail header, 0x01 marks an item at a given position. Positions
// are looked up directly by the header's counters, never scanned, so
// the uint64 head/tail arithmetic wrapping around zero (which happens
// whenever PushFront is called while head is 0, e.g. on a deque that
// has never been popped; the amortizer only pushes to the front right
// after a pop) is harmless.
const (
	dequeHeaderTag byte = 0x00
	dequeItemTag   byte = 0x01
)

func dequeHeaderKey(prefix []byte) []byte {
	return append(append([]byte{}, prefix...), dequeHeaderTag)
}

func dequeItemKey(prefix []byte, pos uint64) []byte {
	k := append(append([]byte{}, prefix...), dequeItemTag)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], pos)
	return append(k, b[:]...)
}

func (t *txn) dequeHeader(prefix []byte) (head, tail uint64) {
	v, ok := t.data[string(dequeHeaderKey(prefix))]
	if !ok {
		return 0, 0
	}
	return binary.BigEndian.Uint64(v[:8]), binary.BigEndian.Uint64(v[8:16])
}

func (t *txn) saveDequeHeader(prefix []byte, head, tail uint64) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], head)
	binary.BigEndian.PutUint64(b[8:16], tail)
	t.data[string(dequeHeaderKey(prefix))] = b
}

func (t *txn) DequePushBack(prefix, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	t.data[string(dequeItemKey(prefix, tail))] = append([]byte{}, value...)
	t.saveDequeHeader(prefix, head, tail+1)
	return nil
}

func (t *txn) DequePushFront(prefix, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	head--
	t.data[string(dequeItemKey(prefix, head))] = append([]byte{}, value...)
	t.saveDequeHeader(prefix, head, tail)
	return nil
}

func (t *txn) DequePopFront(prefix []byte) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	if head == tail {
		return nil, false, nil
	}
	key := string(dequeItemKey(prefix, head))
	v, ok := t.data[key]
	if !ok {
		return nil, false, nil
	}
	delete(t.data, key)
	t.saveDequeHeader(prefix, head+1, tail)
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

type cursor struct {
	data map[string][]byte
	keys []string
	pos  int
}

func (c *cursor) Next() bool {
	c.pos++
	return c.pos < len(c.keys)
}

func (c *cursor) Key() []byte   { return []byte(c.keys[c.pos]) }
func (c *cursor) Value() []byte { return c.data[c.keys[c.pos]] }
func (c *cursor) Err() error    { return nil }
func (c *cursor) Close() error  { return nil }
