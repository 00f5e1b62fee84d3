// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// amortize implements spec.md §4.5: it advances up to count accounts
// round-robin through MEMO_QUEUE, tolerating up to retries stale
// (already-withdrawn) entries per step before giving up on that step.
func amortize(tx Tx, totals *Totals, count, retries uint32, logger Logger) error {
	visited := make(map[common.Address]bool, count)

	for i := uint32(0); i < count; i++ {
		for r := uint32(0); r < retries; r++ {
			ownerBytes, ok, err := tx.DequePopFront(PrefixMemoQueue)
			if err != nil {
				return err
			}
			if !ok {
				return nil // queue empty; nothing more to amortize
			}
			owner := common.BytesToAddress(ownerBytes)

			if visited[owner] {
				// Every live account has been advanced once this call;
				// stop before double-amortizing the first one seen.
				if err := tx.DequePushFront(PrefixMemoQueue, ownerBytes); err != nil {
					return err
				}
				return nil
			}

			account, found, err := loadDelegationAccount(tx, owner)
			if err != nil {
				return err
			}
			if !found {
				// Stale queue entry left by a withdraw that raced
				// ahead of this owner's turn; drop it and retry.
				continue
			}

			gainGrowth, lossGrowth, err := claim(tx, totals, owner, PoolGrowth, true)
			if err != nil {
				return err
			}
			gainProfit, _, err := claim(tx, totals, owner, PoolProfit, true)
			if err != nil {
				return err
			}

			account.MemoizedGain = new(uint256.Int).Add(account.MemoizedGain, gainGrowth)
			account.MemoizedLoss = new(uint256.Int).Add(account.MemoizedLoss, lossGrowth)
			account.MemoizedProfit = new(uint256.Int).Add(account.MemoizedProfit, gainProfit)

			visited[owner] = true
			if err := tx.DequePushBack(PrefixMemoQueue, ownerBytes); err != nil {
				return err
			}
			if err := saveDelegationAccount(tx, account); err != nil {
				return err
			}
			logger.Debugf("amortize: owner=%s gain=%s loss=%s profit=%s", owner.Hex(), gainGrowth, lossGrowth, gainProfit)
			break
		}
	}
	return nil
}
