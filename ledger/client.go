// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/luxfi/geth/common"

// SetClient implements the set_client() message (spec.md §4.7): an
// admin-only upsert of the payment-client registry, maintaining the
// NET_PCT_ALLOCATED invariant that the sum of every client's
// pct_liquidity never exceeds 1000 thousandths.
func (e *Engine) SetClient(caller, address common.Address, pctLiquidity uint32) error {
	if address == (common.Address{}) {
		return ErrInvalidAddress
	}
	if pctLiquidity > 1000 {
		return ErrInsufficientLiquidity
	}

	return e.transact(func(tx Tx) ([]Transfer, error) {
		allowed, err := e.cfg.Authority.IsAllowed(caller, "set_client")
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrNotAuthorized
		}

		totals, err := loadTotals(tx)
		if err != nil {
			return nil, err
		}
		existing, found, err := loadClientAccount(tx, address)
		if err != nil {
			return nil, err
		}

		prevPct := uint32(0)
		if found {
			prevPct = existing.PctLiquidity
		}
		newTotal := totals.PctAllocated - prevPct + pctLiquidity
		if newTotal > 1000 {
			return nil, ErrInsufficientLiquidity
		}
		totals.PctAllocated = newTotal

		client := existing
		if !found {
			client = &ClientAccount{
				Owner:          address,
				CreatedAt:      e.cfg.Clock(),
				AmountReceived: zero(),
				AmountSpent:    zero(),
			}
		}
		client.PctLiquidity = pctLiquidity

		if err := saveClientAccount(tx, client); err != nil {
			return nil, err
		}
		return nil, saveTotals(tx, totals)
	})
}
