// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// stakeCheckpoint implements spec.md §4.1 for a single pool: it bumps
// the pool's net delegation total and the coalescing epoch, then
// either extends the caller's still-open checkpoint or appends a new
// one. It returns the caller's new total stake in pool.
func stakeCheckpoint(tx Tx, totals *Totals, owner common.Address, pool Pool, delta *uint256.Int) (*uint256.Int, error) {
	if pool == PoolGrowth {
		totals.NetGrowthDeleg = new(uint256.Int).Add(totals.NetGrowthDeleg, delta)
	} else {
		totals.NetProfitDeleg = new(uint256.Int).Add(totals.NetProfitDeleg, delta)
	}
	totals.SnapshotSeqNo++

	iNextSnapshot := totals.SnapshotsIndex
	prevIdx, prev, hasPrev, err := loadLatestDelegation(tx, pool, owner)
	if err != nil {
		return nil, err
	}

	if hasPrev && prev.ISnapshot == iNextSnapshot {
		prev.Amount = new(uint256.Int).Add(prev.Amount, delta)
		if err := saveDelegation(tx, pool, owner, prevIdx, prev); err != nil {
			return nil, err
		}
		return prev.Amount, nil
	}

	amount := new(uint256.Int).Set(delta)
	if hasPrev {
		amount.Add(amount, prev.Amount)
	} else {
		if pool == PoolGrowth {
			totals.GrowthDelegators++
		} else {
			totals.ProfitDelegators++
		}
	}

	nextIdx := prevIdx
	if hasPrev {
		nextIdx = prevIdx + 1
	}
	d := &Delegation{Owner: owner, Amount: amount, ISnapshot: iNextSnapshot}
	if err := saveDelegation(tx, pool, owner, nextIdx, d); err != nil {
		return nil, err
	}
	if err := saveDelegationSeq(tx, pool, owner, nextIdx); err != nil {
		return nil, err
	}
	return amount, nil
}

// Stake implements the stake() message (spec.md §4.1/§6.2). growth
// and profit may each be nil, meaning zero. Token funding is expected
// to have already been arranged by the caller's transport layer
// (spec.md §4.1 point 4); this method only touches ledger state.
func (e *Engine) Stake(owner common.Address, growth, profit *uint256.Int) (growthTotal, profitTotal *uint256.Int, err error) {
	if owner == (common.Address{}) {
		return nil, nil, ErrInvalidAddress
	}
	if growth == nil {
		growth = zero()
	}
	if profit == nil {
		profit = zero()
	}

	err = e.transact(func(tx Tx) ([]Transfer, error) {
		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		account, found, err := loadDelegationAccount(tx, owner)
		if err != nil {
			return nil, err
		}
		isNewAccount := !found
		if isNewAccount {
			account = newDelegationAccount(owner, e.cfg.Clock())
		}

		if !growth.IsZero() {
			growthTotal, err = stakeCheckpoint(tx, totals, owner, PoolGrowth, growth)
			if err != nil {
				return nil, err
			}
			// A Growth-pool stake is itself spendable liquidity (spec.md
			// §8 scenario S2: NET_LIQUIDITY = stakes' growth portion +
			// growth's share of subsequent income); a Profit-pool stake
			// is not.
			totals.NetLiquidity = new(uint256.Int).Add(totals.NetLiquidity, growth)
		} else {
			growthTotal, _, err = currentCheckpointAmount(tx, PoolGrowth, owner)
			if err != nil {
				return nil, err
			}
		}
		if !profit.IsZero() {
			profitTotal, err = stakeCheckpoint(tx, totals, owner, PoolProfit, profit)
			if err != nil {
				return nil, err
			}
		} else {
			profitTotal, _, err = currentCheckpointAmount(tx, PoolProfit, owner)
			if err != nil {
				return nil, err
			}
		}

		if isNewAccount && (!growth.IsZero() || !profit.IsZero()) {
			if err := saveDelegationAccount(tx, account); err != nil {
				return nil, err
			}
			if err := tx.DequePushBack(PrefixMemoQueue, owner.Bytes()); err != nil {
				return nil, err
			}
		}

		if err := saveTotals(tx, totals); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return growthTotal, profitTotal, nil
}

// currentCheckpointAmount returns the owner's open checkpoint amount
// in pool, or zero if the owner has never staked there.
func currentCheckpointAmount(tx Tx, pool Pool, owner common.Address) (*uint256.Int, bool, error) {
	_, d, ok, err := loadLatestDelegation(tx, pool, owner)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return zero(), false, nil
	}
	return d.Amount, true, nil
}
