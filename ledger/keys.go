// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
)

// Key-space layout (spec.md §6.3). Totals are consolidated into a
// single record rather than exploded into one KV entry per field: every
// operation that touches more than one counter does so inside the same
// KV.Update transaction anyway, so a single get/modify/put round trip
// is both simpler and strictly stronger than the spec's "reads must not
// be reordered across Snapshot.upsert" requirement (spec.md §5) — there
// is nothing to reorder when every counter lives behind one key.
var (
	keyTotals = []byte("ledger/totals")

	prefixSnapshot          = []byte("ledger/snap/")
	prefixDelegationAccount = []byte("ledger/dacct/")
	prefixClientAccount     = []byte("ledger/cacct/")
	prefixGrowthDeleg       = []byte("ledger/gdeleg/")
	prefixProfitDeleg       = []byte("ledger/pdeleg/")
	prefixGrowthDelegSeq    = []byte("ledger/gdelegseq/")
	prefixProfitDelegSeq    = []byte("ledger/pdelegseq/")

	// PrefixMemoQueue is exported so KV implementations can recognize
	// and durably persist the amortizer's round-robin deque.
	PrefixMemoQueue = []byte("ledger/memoq/")
)

func delegationPrefixes(pool Pool) (delegPrefix, seqPrefix []byte) {
	if pool == PoolGrowth {
		return prefixGrowthDeleg, prefixGrowthDelegSeq
	}
	return prefixProfitDeleg, prefixProfitDelegSeq
}

func snapshotKey(i uint64) []byte {
	k := make([]byte, len(prefixSnapshot)+8)
	n := copy(k, prefixSnapshot)
	binary.BigEndian.PutUint64(k[n:], i)
	return k
}

func delegationAccountKey(owner common.Address) []byte {
	return append(append([]byte{}, prefixDelegationAccount...), owner.Bytes()...)
}

func clientAccountKey(owner common.Address) []byte {
	return append(append([]byte{}, prefixClientAccount...), owner.Bytes()...)
}

// delegationKey is shaped so that the owner's bytes form a literal
// prefix and the index is appended big-endian: lexicographic byte
// order over keys sharing that prefix then equals numeric index
// order, which is what claim()'s ascending prefix scan (spec.md §4.3)
// depends on.
func delegationKey(pool Pool, owner common.Address, idx uint64) []byte {
	delegPrefix, _ := delegationPrefixes(pool)
	k := make([]byte, 0, len(delegPrefix)+common.AddressLength+8)
	k = append(k, delegPrefix...)
	k = append(k, owner.Bytes()...)
	idxBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idxBytes, idx)
	return append(k, idxBytes...)
}

func delegationOwnerPrefix(pool Pool, owner common.Address) []byte {
	delegPrefix, _ := delegationPrefixes(pool)
	return append(append([]byte{}, delegPrefix...), owner.Bytes()...)
}

func delegationSeqKey(pool Pool, owner common.Address) []byte {
	_, seqPrefix := delegationPrefixes(pool)
	return append(append([]byte{}, seqPrefix...), owner.Bytes()...)
}

// decodeDelegationIndex extracts the trailing 8-byte big-endian index
// from a key produced by delegationKey.
func decodeDelegationIndex(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
