// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Storage values are encoded by hand with encoding/binary, the same
// approach the teacher repo uses for on-chain numeric encoding
// (dex/types.go's PoolKey/selector decoding) rather than a generic
// struct-serialization library: none of the example repos reach for
// one to encode their own domain structs for a KV store, only for
// wire formats at a different layer (RLP/CBOR at the network edge).

func putAmount(buf *bytes.Buffer, v *uint256.Int) {
	b := v.Bytes32()
	buf.Write(b[:])
}

func getAmount(r *bytes.Reader) (*uint256.Int, error) {
	var b [32]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b[:]), nil
}

func putAddress(buf *bytes.Buffer, a common.Address) {
	buf.Write(a.Bytes())
}

func getAddress(r *bytes.Reader) (common.Address, error) {
	var b [common.AddressLength]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b[:]), nil
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func getUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func getUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func putInt64(buf *bytes.Buffer, v int64) {
	putUint64(buf, uint64(v))
}

func getInt64(r *bytes.Reader) (int64, error) {
	v, err := getUint64(r)
	return int64(v), err
}

func encodeTotals(t *Totals) []byte {
	var buf bytes.Buffer
	putAmount(&buf, t.NetGrowthDeleg)
	putAmount(&buf, t.NetProfitDeleg)
	putAmount(&buf, t.NetLiquidity)
	putAmount(&buf, t.NetProfit)
	putUint32(&buf, t.PctAllocated)
	putUint32(&buf, t.GrowthDelegators)
	putUint32(&buf, t.ProfitDelegators)
	putUint64(&buf, t.SnapshotsIndex)
	putUint64(&buf, t.SnapshotsLen)
	putUint64(&buf, t.SnapshotSeqNo)
	return buf.Bytes()
}

func decodeTotals(data []byte) (*Totals, error) {
	r := bytes.NewReader(data)
	t := &Totals{}
	var err error
	if t.NetGrowthDeleg, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.NetProfitDeleg, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.NetLiquidity, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.NetProfit, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.PctAllocated, err = getUint32(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.GrowthDelegators, err = getUint32(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.ProfitDelegators, err = getUint32(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.SnapshotsIndex, err = getUint64(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.SnapshotsLen, err = getUint64(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	if t.SnapshotSeqNo, err = getUint64(r); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	return t, nil
}

func encodeSnapshot(s *Snapshot) []byte {
	var buf bytes.Buffer
	putUint64(&buf, s.SeqNo)
	putUint32(&buf, s.ClaimsRemaining)
	putAmount(&buf, s.GrowthDelegation)
	putAmount(&buf, s.ProfitDelegation)
	putAmount(&buf, s.Income)
	putAmount(&buf, s.Outlay)
	return buf.Bytes()
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	r := bytes.NewReader(data)
	s := &Snapshot{}
	var err error
	if s.SeqNo, err = getUint64(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.ClaimsRemaining, err = getUint32(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.GrowthDelegation, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.ProfitDelegation, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Income, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Outlay, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

func encodeDelegation(d *Delegation) []byte {
	var buf bytes.Buffer
	putAddress(&buf, d.Owner)
	putAmount(&buf, d.Amount)
	putUint64(&buf, d.ISnapshot)
	return buf.Bytes()
}

func decodeDelegation(data []byte) (*Delegation, error) {
	r := bytes.NewReader(data)
	d := &Delegation{}
	var err error
	if d.Owner, err = getAddress(r); err != nil {
		return nil, fmt.Errorf("decode delegation: %w", err)
	}
	if d.Amount, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode delegation: %w", err)
	}
	if d.ISnapshot, err = getUint64(r); err != nil {
		return nil, fmt.Errorf("decode delegation: %w", err)
	}
	return d, nil
}

func encodeDelegationAccount(a *DelegationAccount) []byte {
	var buf bytes.Buffer
	putAddress(&buf, a.Owner)
	putInt64(&buf, a.CreatedAt)
	putAmount(&buf, a.MemoizedGain)
	putAmount(&buf, a.MemoizedLoss)
	putAmount(&buf, a.MemoizedProfit)
	return buf.Bytes()
}

func decodeDelegationAccount(data []byte) (*DelegationAccount, error) {
	r := bytes.NewReader(data)
	a := &DelegationAccount{}
	var err error
	if a.Owner, err = getAddress(r); err != nil {
		return nil, fmt.Errorf("decode delegation account: %w", err)
	}
	if a.CreatedAt, err = getInt64(r); err != nil {
		return nil, fmt.Errorf("decode delegation account: %w", err)
	}
	if a.MemoizedGain, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode delegation account: %w", err)
	}
	if a.MemoizedLoss, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode delegation account: %w", err)
	}
	if a.MemoizedProfit, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode delegation account: %w", err)
	}
	return a, nil
}

func encodeClientAccount(c *ClientAccount) []byte {
	var buf bytes.Buffer
	putAddress(&buf, c.Owner)
	putUint32(&buf, c.PctLiquidity)
	putInt64(&buf, c.CreatedAt)
	putAmount(&buf, c.AmountReceived)
	putAmount(&buf, c.AmountSpent)
	return buf.Bytes()
}

func decodeClientAccount(data []byte) (*ClientAccount, error) {
	r := bytes.NewReader(data)
	c := &ClientAccount{}
	var err error
	if c.Owner, err = getAddress(r); err != nil {
		return nil, fmt.Errorf("decode client account: %w", err)
	}
	if c.PctLiquidity, err = getUint32(r); err != nil {
		return nil, fmt.Errorf("decode client account: %w", err)
	}
	if c.CreatedAt, err = getInt64(r); err != nil {
		return nil, fmt.Errorf("decode client account: %w", err)
	}
	if c.AmountReceived, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode client account: %w", err)
	}
	if c.AmountSpent, err = getAmount(r); err != nil {
		return nil, fmt.Errorf("decode client account: %w", err)
	}
	return c, nil
}
