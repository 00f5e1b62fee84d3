// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// pctOf computes v * pct / 1000, the fixed-point thousandths used
// throughout the ledger for pct_liquidity and NET_PCT_ALLOCATED.
func pctOf(v *uint256.Int, pct uint32) *uint256.Int {
	return new(uint256.Int).Div(new(uint256.Int).Mul(v, uint256.NewInt(uint64(pct))), uint256.NewInt(1000))
}

// saturatingSub returns max(a-b, 0).
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// ReceivePayment implements the receive_payment() message (spec.md
// §4.4): income from an authorized client is split pro-rata between
// the two pools and folded into the snapshot log.
func (e *Engine) ReceivePayment(client common.Address, payment *uint256.Int) error {
	if payment == nil || payment.IsZero() {
		return ErrMissingAmount
	}
	return e.transact(func(tx Tx) ([]Transfer, error) {
		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		clientAcct, ok, err := loadClientAccount(tx, client)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotAuthorized
		}

		if err := e.cfg.TokenSink.VerifyFunds(client, payment); err != nil {
			return nil, err
		}

		clientAcct.AmountReceived = new(uint256.Int).Add(clientAcct.AmountReceived, payment)
		if err := saveClientAccount(tx, clientAcct); err != nil {
			return nil, err
		}

		net := new(uint256.Int).Add(totals.NetGrowthDeleg, totals.NetProfitDeleg)
		var growthDelta *uint256.Int
		if !net.IsZero() {
			growthDelta = new(uint256.Int).Div(new(uint256.Int).Mul(payment, totals.NetGrowthDeleg), net)
		} else {
			growthDelta = new(uint256.Int).Set(payment)
		}
		profitDelta := new(uint256.Int).Sub(payment, growthDelta)

		totals.NetLiquidity = new(uint256.Int).Add(totals.NetLiquidity, growthDelta)
		totals.NetProfit = new(uint256.Int).Add(totals.NetProfit, profitDelta)

		if err := upsertSnapshot(tx, totals, payment, zero()); err != nil {
			return nil, err
		}
		if err := amortize(tx, totals, e.cfg.AmortizeCount, e.cfg.AmortizeRetries, e.cfg.Logger); err != nil {
			return nil, err
		}

		return nil, saveTotals(tx, totals)
	})
}

// SendPayment implements the send_payment() message (spec.md §4.4):
// an authorized client disburses Growth-pool liquidity, bounded by
// its pct_liquidity allowance.
func (e *Engine) SendPayment(client, recipient common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrMissingAmount
	}
	if recipient == (common.Address{}) {
		return ErrInvalidAddress
	}

	var transfer Transfer
	err := e.transact(func(tx Tx) ([]Transfer, error) {
		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		clientAcct, ok, err := loadClientAccount(tx, client)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotAuthorized
		}

		ceiling := pctOf(totals.NetLiquidity, clientAcct.PctLiquidity)
		if amount.Cmp(ceiling) > 0 {
			return nil, ErrInsufficientAllowance
		}

		clientAcct.AmountSpent = new(uint256.Int).Add(clientAcct.AmountSpent, amount)
		if err := saveClientAccount(tx, clientAcct); err != nil {
			return nil, err
		}

		if err := upsertSnapshot(tx, totals, zero(), amount); err != nil {
			return nil, err
		}

		totals.NetLiquidity = new(uint256.Int).Sub(totals.NetLiquidity, amount)

		if err := amortize(tx, totals, e.cfg.AmortizeCount, e.cfg.AmortizeRetries, e.cfg.Logger); err != nil {
			return nil, err
		}

		if err := saveTotals(tx, totals); err != nil {
			return nil, err
		}
		transfer = Transfer{To: recipient, Amount: new(uint256.Int).Set(amount)}
		return []Transfer{transfer}, nil
	})
	return err
}

// TakeProfit implements the take_profit() message (spec.md §4.6).
func (e *Engine) TakeProfit(owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrInvalidAddress
	}

	var transfer Transfer
	err := e.transact(func(tx Tx) ([]Transfer, error) {
		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		account, ok, err := loadDelegationAccount(tx, owner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}

		hasProfit, err := hasDelegation(tx, PoolProfit, owner)
		if err != nil {
			return nil, err
		}

		gain, _, err := claim(tx, totals, owner, PoolProfit, false)
		if err != nil {
			return nil, err
		}
		amount := new(uint256.Int).Add(gain, account.MemoizedProfit)

		account.MemoizedProfit = zero()
		if err := saveDelegationAccount(tx, account); err != nil {
			return nil, err
		}

		if hasProfit && totals.ProfitDelegators == 1 {
			// owner is the last remaining Profit-pool claimant: nobody
			// else will ever claim from NET_PROFIT again, so sweep the
			// whole residual pot rather than strand truncation dust in
			// it (spec.md §9, the same rule Withdraw applies when it is
			// the last delegator).
			amount = new(uint256.Int).Set(totals.NetProfit)
		} else if amount.Cmp(totals.NetProfit) > 0 {
			amount = new(uint256.Int).Set(totals.NetProfit)
		}
		totals.NetProfit = new(uint256.Int).Sub(totals.NetProfit, amount)
		totals.SnapshotSeqNo++

		if err := saveTotals(tx, totals); err != nil {
			return nil, err
		}
		if amount.IsZero() {
			return nil, nil
		}
		transfer = Transfer{To: owner, Amount: amount}
		return []Transfer{transfer}, nil
	})
	return err
}

// Withdraw implements the withdraw() message (spec.md §4.6): it
// closes the account out entirely, settling both pools and applying
// dust reconciliation if the owner is the last delegator standing.
func (e *Engine) Withdraw(owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrInvalidAddress
	}

	var transfer Transfer
	err := e.transact(func(tx Tx) ([]Transfer, error) {
		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		account, ok, err := loadDelegationAccount(tx, owner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}

		hasGrowth, err := hasDelegation(tx, PoolGrowth, owner)
		if err != nil {
			return nil, err
		}
		hasProfit, err := hasDelegation(tx, PoolProfit, owner)
		if err != nil {
			return nil, err
		}

		xGD, xPD := zero(), zero()
		if hasGrowth {
			xGD, _, err = currentCheckpointAmount(tx, PoolGrowth, owner)
			if err != nil {
				return nil, err
			}
			totals.GrowthDelegators--
		}
		if hasProfit {
			xPD, _, err = currentCheckpointAmount(tx, PoolProfit, owner)
			if err != nil {
				return nil, err
			}
			totals.ProfitDelegators--
		}

		totals.SnapshotSeqNo++

		xGain, xLoss, err := claim(tx, totals, owner, PoolGrowth, false)
		if err != nil {
			return nil, err
		}
		xProfitGain, _, err := claim(tx, totals, owner, PoolProfit, false)
		if err != nil {
			return nil, err
		}
		xProfit := new(uint256.Int).Add(xProfitGain, account.MemoizedProfit)

		// Growth-only portion of the balance (spec.md §9 open question
		// 3): Growth-pool principal plus accrued gain, less accrued loss,
		// saturated at zero rather than allowed to go negative. The
		// Profit-pool principal xPD never entered NET_LIQUIDITY, so it is
		// paid back separately below rather than drawn from it.
		growthBalance := new(uint256.Int).Set(xGD)
		growthBalance.Add(growthBalance, xGain)
		growthBalance.Add(growthBalance, account.MemoizedGain)
		totalLoss := new(uint256.Int).Add(xLoss, account.MemoizedLoss)
		growthBalance = saturatingSub(growthBalance, totalLoss)

		profitDelta := xProfit
		if profitDelta.Cmp(totals.NetProfit) > 0 {
			profitDelta = new(uint256.Int).Set(totals.NetProfit)
		}
		totals.NetProfit = new(uint256.Int).Sub(totals.NetProfit, profitDelta)

		liquidityDelta := growthBalance
		if liquidityDelta.Cmp(totals.NetLiquidity) > 0 {
			// The growth pool itself can never go negative (spec.md §1
			// non-goals): any shortfall against NET_LIQUIDITY is dropped
			// from the payout rather than overdrawing the pool.
			liquidityDelta = new(uint256.Int).Set(totals.NetLiquidity)
		}
		balance := new(uint256.Int).Add(liquidityDelta, profitDelta)
		balance.Add(balance, xPD)
		totals.NetLiquidity = new(uint256.Int).Sub(totals.NetLiquidity, liquidityDelta)

		totals.NetGrowthDeleg = saturatingSub(totals.NetGrowthDeleg, xGD)
		totals.NetProfitDeleg = saturatingSub(totals.NetProfitDeleg, xPD)

		if hasGrowth {
			if err := closeCheckpoint(tx, PoolGrowth, owner); err != nil {
				return nil, err
			}
		}
		if hasProfit {
			if err := closeCheckpoint(tx, PoolProfit, owner); err != nil {
				return nil, err
			}
		}
		if err := deleteDelegationAccount(tx, owner); err != nil {
			return nil, err
		}

		if totals.GrowthDelegators == 0 && totals.ProfitDelegators == 0 {
			balance = new(uint256.Int).Add(balance, totals.NetProfit)
			balance = new(uint256.Int).Add(balance, totals.NetLiquidity)
			totals.NetProfit = zero()
			totals.NetLiquidity = zero()
		}

		if err := saveTotals(tx, totals); err != nil {
			return nil, err
		}
		if balance.IsZero() {
			return nil, nil
		}
		transfer = Transfer{To: owner, Amount: balance}
		return []Transfer{transfer}, nil
	})
	return err
}

// closeCheckpoint deletes an owner's remaining (reopened) checkpoint
// and sequence cursor in pool, left behind by the non-amortizing
// claim path's reopen-at-frontier step.
func closeCheckpoint(tx Tx, pool Pool, owner common.Address) error {
	idx, ok, err := loadDelegationSeq(tx, pool, owner)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := deleteDelegation(tx, pool, owner, idx); err != nil {
		return err
	}
	return deleteDelegationSeq(tx, pool, owner)
}
