// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
)

var be = binary.BigEndian

// Low-level load/save helpers over a Tx. Every other file in this
// package reaches storage exclusively through these, mirroring the
// teacher's own save*/get* helper-method pairs in dex/lending.go and
// dex/liquid.go (e.g. a.saveAccount/a.getAccount) kept alongside the
// domain methods that use them.

func loadTotals(tx Tx) (*Totals, error) {
	data, ok, err := tx.Get(keyTotals)
	if err != nil {
		return nil, err
	}
	if !ok {
		return zeroTotals(), nil
	}
	return decodeTotals(data)
}

func saveTotals(tx Tx, t *Totals) error {
	return tx.Put(keyTotals, encodeTotals(t))
}

func loadSnapshot(tx Tx, i uint64) (*Snapshot, bool, error) {
	data, ok, err := tx.Get(snapshotKey(i))
	if err != nil || !ok {
		return nil, ok, err
	}
	s, err := decodeSnapshot(data)
	return s, true, err
}

func saveSnapshot(tx Tx, i uint64, s *Snapshot) error {
	return tx.Put(snapshotKey(i), encodeSnapshot(s))
}

func deleteSnapshot(tx Tx, i uint64) error {
	return tx.Delete(snapshotKey(i))
}

func loadDelegationAccount(tx Tx, owner common.Address) (*DelegationAccount, bool, error) {
	data, ok, err := tx.Get(delegationAccountKey(owner))
	if err != nil || !ok {
		return nil, ok, err
	}
	a, err := decodeDelegationAccount(data)
	return a, true, err
}

func saveDelegationAccount(tx Tx, a *DelegationAccount) error {
	return tx.Put(delegationAccountKey(a.Owner), encodeDelegationAccount(a))
}

func deleteDelegationAccount(tx Tx, owner common.Address) error {
	return tx.Delete(delegationAccountKey(owner))
}

func loadClientAccount(tx Tx, owner common.Address) (*ClientAccount, bool, error) {
	data, ok, err := tx.Get(clientAccountKey(owner))
	if err != nil || !ok {
		return nil, ok, err
	}
	c, err := decodeClientAccount(data)
	return c, true, err
}

func saveClientAccount(tx Tx, c *ClientAccount) error {
	return tx.Put(clientAccountKey(c.Owner), encodeClientAccount(c))
}

// delegationSeq is the per-owner, per-pool cursor recording the index
// of that owner's most recent (possibly still-open) Delegation
// checkpoint.
func loadDelegationSeq(tx Tx, pool Pool, owner common.Address) (uint64, bool, error) {
	data, ok, err := tx.Get(delegationSeqKey(pool, owner))
	if err != nil || !ok {
		return 0, ok, err
	}
	return decodeSeq(data), true, nil
}

func saveDelegationSeq(tx Tx, pool Pool, owner common.Address, idx uint64) error {
	return tx.Put(delegationSeqKey(pool, owner), encodeSeq(idx))
}

func deleteDelegationSeq(tx Tx, pool Pool, owner common.Address) error {
	return tx.Delete(delegationSeqKey(pool, owner))
}

func loadDelegation(tx Tx, pool Pool, owner common.Address, idx uint64) (*Delegation, bool, error) {
	data, ok, err := tx.Get(delegationKey(pool, owner, idx))
	if err != nil || !ok {
		return nil, ok, err
	}
	d, err := decodeDelegation(data)
	return d, true, err
}

func saveDelegation(tx Tx, pool Pool, owner common.Address, idx uint64, d *Delegation) error {
	return tx.Put(delegationKey(pool, owner, idx), encodeDelegation(d))
}

func deleteDelegation(tx Tx, pool Pool, owner common.Address, idx uint64) error {
	return tx.Delete(delegationKey(pool, owner, idx))
}

// loadLatestDelegation returns the owner's open checkpoint in pool, if any.
func loadLatestDelegation(tx Tx, pool Pool, owner common.Address) (idx uint64, d *Delegation, ok bool, err error) {
	idx, ok, err = loadDelegationSeq(tx, pool, owner)
	if err != nil || !ok {
		return 0, nil, ok, err
	}
	d, ok, err = loadDelegation(tx, pool, owner, idx)
	return idx, d, ok, err
}

// delegationEntry pairs a checkpoint with its index for ordered folding.
type delegationEntry struct {
	Index uint64
	Deleg *Delegation
}

// listDelegations returns every checkpoint the owner holds in pool,
// ordered ascending by index (spec.md §4.3's "ordered Delegation
// list"), via a prefix scan over the owner's key range.
func listDelegations(tx Tx, pool Pool, owner common.Address) ([]delegationEntry, error) {
	prefix := delegationOwnerPrefix(pool, owner)
	cur, err := tx.Scan(prefix, Ascending)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var out []delegationEntry
	for cur.Next() {
		d, err := decodeDelegation(cur.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, delegationEntry{Index: decodeDelegationIndex(cur.Key()), Deleg: d})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// hasDelegation reports whether owner holds any checkpoint in pool.
func hasDelegation(tx Tx, pool Pool, owner common.Address) (bool, error) {
	_, ok, err := loadDelegationSeq(tx, pool, owner)
	return ok, err
}

func encodeSeq(idx uint64) []byte {
	var buf [8]byte
	be.PutUint64(buf[:], idx)
	return buf[:]
}

func decodeSeq(data []byte) uint64 {
	return be.Uint64(data)
}
