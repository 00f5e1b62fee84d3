// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package boltkv is the durable ledger.KV backend, a single
// go.etcd.io/bbolt bucket under one file. bbolt's own transactions
// already give the all-or-nothing commit semantics spec.md §5 asks
// for; this package only adapts its Bucket/Cursor API to the ledger
// package's ordered byte-key Tx/Cursor/deque shape.
package boltkv

import (
	"bytes"
	"encoding/binary"
	"errors"

	bolt "go.etcd.io/bbolt"

	"github.com/luxfi/poolstake/ledger"
)

var (
	bucketName  = []byte("ledger")
	errReadOnly = errors.New("boltkv: write attempted inside a read-only view")
)

// DB wraps a single bbolt database file.
type DB struct {
	bdb *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at path and
// ensures the ledger bucket exists.
func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		bdb.Close()
		return nil, err
	}
	return &DB{bdb: bdb}, nil
}

func (d *DB) Close() error { return d.bdb.Close() }

func (d *DB) Update(fn func(ledger.Tx) error) error {
	return d.bdb.Update(func(btx *bolt.Tx) error {
		return fn(&tx{bucket: btx.Bucket(bucketName)})
	})
}

func (d *DB) View(fn func(ledger.Tx) error) error {
	return d.bdb.View(func(btx *bolt.Tx) error {
		return fn(&tx{bucket: btx.Bucket(bucketName), readOnly: true})
	})
}

type tx struct {
	bucket   *bolt.Bucket
	readOnly bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	v := t.bucket.Get(key)
	if v == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (t *tx) Put(key, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	return t.bucket.Put(key, value)
}

func (t *tx) Delete(key []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	return t.bucket.Delete(key)
}

// prefixSuccessor returns the smallest key that is greater than every
// key sharing prefix, or nil if prefix is all 0xFF bytes (no such key
// exists, meaning "scan to the end of the bucket").
func prefixSuccessor(prefix []byte) []byte {
	succ := append([]byte{}, prefix...)
	for i := len(succ) - 1; i >= 0; i-- {
		if succ[i] < 0xFF {
			succ[i]++
			return succ[:i+1]
		}
	}
	return nil
}

func (t *tx) Scan(prefix []byte, order ledger.Order) (ledger.Cursor, error) {
	c := t.bucket.Cursor()
	var pairs []kvPair

	if order == ledger.Ascending {
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			pairs = append(pairs, kvPair{append([]byte{}, k...), append([]byte{}, v...)})
		}
	} else {
		var k, v []byte
		if succ := prefixSuccessor(prefix); succ != nil {
			if k, v = c.Seek(succ); k == nil {
				k, v = c.Last()
			} else {
				k, v = c.Prev()
			}
		} else {
			k, v = c.Last()
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			pairs = append(pairs, kvPair{append([]byte{}, k...), append([]byte{}, v...)})
			k, v = c.Prev()
		}
	}

	return &cursor{pairs: pairs, pos: -1}, nil
}

// Deque item keys are tagged distinctly from the head/tail header so
// a Scan over the bare prefix (never done by the ledger package
// itself) would not see deque internals mixed in with point lookups.
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

func (t *tx) dequeHeader(prefix []byte) (head, tail uint64) {
	v := t.bucket.Get(dequeHeaderKey(prefix))
	if v == nil {
		return 0, 0
	}
	return binary.BigEndian.Uint64(v[:8]), binary.BigEndian.Uint64(v[8:16])
}

func (t *tx) saveDequeHeader(prefix []byte, head, tail uint64) error {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], head)
	binary.BigEndian.PutUint64(b[8:16], tail)
	return t.bucket.Put(dequeHeaderKey(prefix), b)
}

func (t *tx) DequePushBack(prefix, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	if err := t.bucket.Put(dequeItemKey(prefix, tail), value); err != nil {
		return err
	}
	return t.saveDequeHeader(prefix, head, tail+1)
}

func (t *tx) DequePushFront(prefix, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	head--
	if err := t.bucket.Put(dequeItemKey(prefix, head), value); err != nil {
		return err
	}
	return t.saveDequeHeader(prefix, head, tail)
}

func (t *tx) DequePopFront(prefix []byte) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, errReadOnly
	}
	head, tail := t.dequeHeader(prefix)
	if head == tail {
		return nil, false, nil
	}
	key := dequeItemKey(prefix, head)
	v := t.bucket.Get(key)
	if v == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	if err := t.bucket.Delete(key); err != nil {
		return nil, false, err
	}
	if err := t.saveDequeHeader(prefix, head+1, tail); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type kvPair struct {
	key, value []byte
}

type cursor struct {
	pairs []kvPair
	pos   int
}

func (c *cursor) Next() bool {
	c.pos++
	return c.pos < len(c.pairs)
}

func (c *cursor) Key() []byte   { return c.pairs[c.pos].key }
func (c *cursor) Value() []byte { return c.pairs[c.pos].value }
func (c *cursor) Err() error    { return nil }
func (c *cursor) Close() error  { return nil }
