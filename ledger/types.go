// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the snapshot-based incremental settlement
// engine for a two-pool (Growth / Profit) staking and revenue-sharing
// ledger: delegators stake into either pool and receive a pro-rata
// share of incoming and outgoing cash flows, settled lazily via a
// reference-counted snapshot log so that per-event cost stays O(1)
// and per-claim cost stays O(k) in the number of snapshots spanned.
package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Pool identifies which of the two delegation pools a checkpoint or
// cash flow belongs to.
type Pool uint8

const (
	// PoolGrowth absorbs both income and outlay and backs NET_LIQUIDITY.
	PoolGrowth Pool = iota
	// PoolProfit receives only its pro-rata share of income.
	PoolProfit
)

func (p Pool) String() string {
	switch p {
	case PoolGrowth:
		return "growth"
	case PoolProfit:
		return "profit"
	default:
		return "unknown"
	}
}

// zero returns a fresh zero-valued amount. Every Totals/account field is
// allocated through this helper rather than a shared zero sentinel so
// that in-place Add/Sub on one field can never alias another.
func zero() *uint256.Int {
	return new(uint256.Int)
}

// Totals holds the single-instance ledger counters of spec.md §3. They
// are not cached in memory: every read/write goes through the bound KV
// so that a single message's mutations commit or roll back atomically
// together with everything else it touched.
type Totals struct {
	NetGrowthDeleg   *uint256.Int
	NetProfitDeleg   *uint256.Int
	NetLiquidity     *uint256.Int
	NetProfit        *uint256.Int
	PctAllocated     uint32 // thousandths, invariant <= 1000
	GrowthDelegators uint32
	ProfitDelegators uint32
	SnapshotsIndex   uint64 // monotonic next-index; u128 in spec.md, narrowed to u64 here (2^64 cash-flow events exhausts any real deployment long before overflow)
	SnapshotsLen     uint64
	SnapshotSeqNo    uint64
}

func zeroTotals() *Totals {
	return &Totals{
		NetGrowthDeleg: zero(),
		NetProfitDeleg: zero(),
		NetLiquidity:   zero(),
		NetProfit:      zero(),
	}
}

// DelegationAccount is the per-owner record carrying amortized claim
// memoization (spec.md §3). It exists from a delegator's first Stake
// until their Withdraw.
type DelegationAccount struct {
	Owner          common.Address
	CreatedAt      int64
	MemoizedGain   *uint256.Int
	MemoizedLoss   *uint256.Int
	MemoizedProfit *uint256.Int
}

func newDelegationAccount(owner common.Address, createdAt int64) *DelegationAccount {
	return &DelegationAccount{
		Owner:          owner,
		CreatedAt:      createdAt,
		MemoizedGain:   zero(),
		MemoizedLoss:   zero(),
		MemoizedProfit: zero(),
	}
}

// ClientAccount is the per-owner record for an authorized payment
// client (spec.md §3).
type ClientAccount struct {
	Owner          common.Address
	PctLiquidity   uint32 // 0..=1000
	CreatedAt      int64
	AmountReceived *uint256.Int
	AmountSpent    *uint256.Int
}

// Snapshot is an epoch record of pool totals and per-epoch cash flow,
// reference-counted by ClaimsRemaining (spec.md §3).
type Snapshot struct {
	SeqNo            uint64
	ClaimsRemaining  uint32
	GrowthDelegation *uint256.Int
	ProfitDelegation *uint256.Int
	Income           *uint256.Int
	Outlay           *uint256.Int
}

// TotalDelegation returns GrowthDelegation + ProfitDelegation.
func (s *Snapshot) TotalDelegation() *uint256.Int {
	return new(uint256.Int).Add(s.GrowthDelegation, s.ProfitDelegation)
}

// Delegation is a per-owner, per-pool checkpoint: the owner held
// Amount in the pool starting at snapshot index ISnapshot, until the
// next checkpoint (or the current frontier, for the open checkpoint).
type Delegation struct {
	Owner     common.Address
	Amount    *uint256.Int
	ISnapshot uint64
}
