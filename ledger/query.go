// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Field selects one projection of a Select call (spec.md §6.2).
type Field string

const (
	FieldLiquidity Field = "liquidity"
	FieldProfit    Field = "profit"
	FieldPools     Field = "pools"
	FieldSnapshots Field = "snapshots"
	FieldStats     Field = "stats"
	FieldAccount   Field = "account"
)

// PoolsView reports the two pools' net delegation and current
// delegator counts.
type PoolsView struct {
	GrowthDelegation *uint256.Int
	ProfitDelegation *uint256.Int
	GrowthDelegators uint32
	ProfitDelegators uint32
}

// StatsView reports log-growth-relevant cardinalities (spec.md §9's
// supplemented original-source fields).
type StatsView struct {
	NDelegationAccounts uint64
	NClientAccounts     uint64
	NSnapshots          uint64
}

// AccountView is the per-wallet projection, meaningful as a
// delegator view (growth/profit delegation and claimable amounts),
// a client view (lifetime spend/receipt), or both.
type AccountView struct {
	IsDelegator bool
	IsClient    bool

	GrowthDelegation *uint256.Int
	ProfitDelegation *uint256.Int
	ClaimableGain    *uint256.Int
	ClaimableLoss    *uint256.Int
	ClaimableProfit  *uint256.Int

	AmountReceived *uint256.Int
	AmountSpent    *uint256.Int
}

// ReportView is Select's result (spec.md §6.2); every field other
// than the one(s) named in Fields is left nil/zero.
type ReportView struct {
	Liquidity *uint256.Int
	Profit    *uint256.Int
	Pools     *PoolsView
	Snapshots []Snapshot
	Stats     *StatsView
	Account   *AccountView
}

// Select implements the select() read-only message (spec.md §6.2). It
// runs inside a KV.View so it never observes a partially-committed
// transaction and never schedules TokenSink effects.
func (e *Engine) Select(fields []Field, wallet *common.Address) (*ReportView, error) {
	want := make(map[Field]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	if want[FieldAccount] && wallet == nil {
		return nil, ErrInvalidAddress
	}

	view := &ReportView{}
	err := e.kv.View(func(tx Tx) error {
		totals, err := loadTotals(tx)
		if err != nil {
			return err
		}

		if want[FieldLiquidity] {
			view.Liquidity = totals.NetLiquidity
		}
		if want[FieldProfit] {
			view.Profit = totals.NetProfit
		}
		if want[FieldPools] {
			view.Pools = &PoolsView{
				GrowthDelegation: totals.NetGrowthDeleg,
				ProfitDelegation: totals.NetProfitDeleg,
				GrowthDelegators: totals.GrowthDelegators,
				ProfitDelegators: totals.ProfitDelegators,
			}
		}
		if want[FieldSnapshots] {
			snaps, err := listAllSnapshots(tx, totals)
			if err != nil {
				return err
			}
			view.Snapshots = snaps
		}
		if want[FieldStats] {
			nAccounts, err := countPrefix(tx, prefixDelegationAccount)
			if err != nil {
				return err
			}
			nClients, err := countPrefix(tx, prefixClientAccount)
			if err != nil {
				return err
			}
			view.Stats = &StatsView{
				NDelegationAccounts: nAccounts,
				NClientAccounts:     nClients,
				NSnapshots:          totals.SnapshotsLen,
			}
		}
		if want[FieldAccount] {
			av, err := accountView(tx, totals, *wallet)
			if err != nil {
				return err
			}
			view.Account = av
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func accountView(tx Tx, totals *Totals, owner common.Address) (*AccountView, error) {
	av := &AccountView{}

	if account, ok, err := loadDelegationAccount(tx, owner); err != nil {
		return nil, err
	} else if ok {
		av.IsDelegator = true

		growthAmt, _, err := currentCheckpointAmount(tx, PoolGrowth, owner)
		if err != nil {
			return nil, err
		}
		profitAmt, _, err := currentCheckpointAmount(tx, PoolProfit, owner)
		if err != nil {
			return nil, err
		}
		av.GrowthDelegation = growthAmt
		av.ProfitDelegation = profitAmt

		gGain, gLoss, err := claimReadonly(tx, totals, owner, PoolGrowth)
		if err != nil {
			return nil, err
		}
		pGain, _, err := claimReadonly(tx, totals, owner, PoolProfit)
		if err != nil {
			return nil, err
		}
		av.ClaimableGain = new(uint256.Int).Add(gGain, account.MemoizedGain)
		av.ClaimableLoss = new(uint256.Int).Add(gLoss, account.MemoizedLoss)
		av.ClaimableProfit = new(uint256.Int).Add(pGain, account.MemoizedProfit)
	}

	if client, ok, err := loadClientAccount(tx, owner); err != nil {
		return nil, err
	} else if ok {
		av.IsClient = true
		av.AmountReceived = client.AmountReceived
		av.AmountSpent = client.AmountSpent
	}

	return av, nil
}

func listAllSnapshots(tx Tx, totals *Totals) ([]Snapshot, error) {
	cur, err := tx.Scan(prefixSnapshot, Ascending)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	out := make([]Snapshot, 0, totals.SnapshotsLen)
	for cur.Next() {
		s, err := decodeSnapshot(cur.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, cur.Err()
}

func countPrefix(tx Tx, prefix []byte) (uint64, error) {
	cur, err := tx.Scan(prefix, Ascending)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	var n uint64
	for cur.Next() {
		n++
	}
	return n, cur.Err()
}
