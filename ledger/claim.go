// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// snapshotShare computes one delegator's pro-rata gain/loss share of a
// single snapshot (spec.md §4.3's per-snapshot formula), without
// mutating anything. Growth-pool callers also accrue outlay loss;
// Profit-pool callers never do (loss is always zero for that pool).
func snapshotShare(s *Snapshot, pool Pool, amount *uint256.Int) (gain, loss *uint256.Int, err error) {
	total := s.TotalDelegation()
	if total.IsZero() {
		return nil, nil, fmt.Errorf("%w: snapshot has claims_remaining=%d but zero total delegation", ErrInvariantViolation, s.ClaimsRemaining)
	}
	gain = new(uint256.Int).Div(new(uint256.Int).Mul(s.Income, amount), total)
	loss = zero()
	if pool == PoolGrowth && !s.Outlay.IsZero() {
		if s.GrowthDelegation.IsZero() {
			return nil, nil, fmt.Errorf("%w: growth snapshot has outlay but zero growth delegation", ErrInvariantViolation)
		}
		loss = new(uint256.Int).Div(new(uint256.Int).Mul(s.Outlay, amount), s.GrowthDelegation)
	}
	return gain, loss, nil
}

// processSegment folds every still-existing snapshot in
// [d0.ISnapshot, upperBound) into gain/loss, decrementing (and
// garbage-collecting) each snapshot's claims_remaining as it goes.
func processSegment(tx Tx, totals *Totals, pool Pool, d0 *Delegation, upperBound uint64) (*uint256.Int, *uint256.Int, error) {
	gain, loss := zero(), zero()
	for i := d0.ISnapshot; i < upperBound; i++ {
		s, ok, err := loadSnapshot(tx, i)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		g, l, err := snapshotShare(s, pool, d0.Amount)
		if err != nil {
			return nil, nil, err
		}
		gain.Add(gain, g)
		loss.Add(loss, l)

		s.ClaimsRemaining--
		if s.ClaimsRemaining == 0 {
			if err := deleteSnapshot(tx, i); err != nil {
				return nil, nil, err
			}
			totals.SnapshotsLen--
		} else if err := saveSnapshot(tx, i, s); err != nil {
			return nil, nil, err
		}
	}
	return gain, loss, nil
}

// processSegmentReadonly mirrors processSegment's math without
// mutating any snapshot or totals counter; used by claimReadonly.
func processSegmentReadonly(tx Tx, pool Pool, d0 *Delegation, upperBound uint64) (*uint256.Int, *uint256.Int, error) {
	gain, loss := zero(), zero()
	for i := d0.ISnapshot; i < upperBound; i++ {
		s, ok, err := loadSnapshot(tx, i)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		g, l, err := snapshotShare(s, pool, d0.Amount)
		if err != nil {
			return nil, nil, err
		}
		gain.Add(gain, g)
		loss.Add(loss, l)
	}
	return gain, loss, nil
}

// claim implements spec.md §4.3: it folds a delegator's ordered
// checkpoint list over the snapshot log, consuming every checkpoint
// except the final one (which stays open unless isAmortizing is
// false, in which case it is processed up to the current frontier and
// reopened there). totals is mutated in place by any snapshot deleted
// along the way; the caller persists it once.
func claim(tx Tx, totals *Totals, owner common.Address, pool Pool, isAmortizing bool) (gain, loss *uint256.Int, err error) {
	entries, err := listDelegations(tx, pool, owner)
	if err != nil {
		return nil, nil, err
	}
	gain, loss = zero(), zero()
	if len(entries) == 0 {
		return gain, loss, nil
	}

	for i := 0; i < len(entries)-1; i++ {
		d0, d1 := entries[i].Deleg, entries[i+1].Deleg
		if d0.ISnapshot < d1.ISnapshot {
			g, l, err := processSegment(tx, totals, pool, d0, d1.ISnapshot)
			if err != nil {
				return nil, nil, err
			}
			gain.Add(gain, g)
			loss.Add(loss, l)
		}
		if err := deleteDelegation(tx, pool, owner, entries[i].Index); err != nil {
			return nil, nil, err
		}
	}

	last := entries[len(entries)-1]
	if !isAmortizing {
		g, l, err := processSegment(tx, totals, pool, last.Deleg, totals.SnapshotsIndex+1)
		if err != nil {
			return nil, nil, err
		}
		gain.Add(gain, g)
		loss.Add(loss, l)
		last.Deleg.ISnapshot = totals.SnapshotsIndex
		if err := saveDelegation(tx, pool, owner, last.Index, last.Deleg); err != nil {
			return nil, nil, err
		}
	}

	return gain, loss, nil
}

// claimReadonly mirrors claim's amounts for the non-amortizing path
// without deleting or saving anything, for use by the query
// collaborator (spec.md §4.3).
func claimReadonly(tx Tx, totals *Totals, owner common.Address, pool Pool) (gain, loss *uint256.Int, err error) {
	entries, err := listDelegations(tx, pool, owner)
	if err != nil {
		return nil, nil, err
	}
	gain, loss = zero(), zero()
	if len(entries) == 0 {
		return gain, loss, nil
	}

	for i, e := range entries {
		var upperBound uint64
		if i+1 < len(entries) {
			next := entries[i+1].Deleg
			if e.Deleg.ISnapshot >= next.ISnapshot {
				continue
			}
			upperBound = next.ISnapshot
		} else {
			upperBound = totals.SnapshotsIndex + 1
		}
		g, l, err := processSegmentReadonly(tx, pool, e.Deleg, upperBound)
		if err != nil {
			return nil, nil, err
		}
		gain.Add(gain, g)
		loss.Add(loss, l)
	}
	return gain, loss, nil
}
