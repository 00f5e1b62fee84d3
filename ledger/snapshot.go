// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/holiman/uint256"

// upsertSnapshot implements spec.md §4.2. It either coalesces into the
// still-open snapshot of the current epoch or opens a new one,
// mutating totals in place; the caller is responsible for persisting
// totals once its whole operation has finished.
func upsertSnapshot(tx Tx, totals *Totals, income, outlay *uint256.Int) error {
	if totals.SnapshotsLen > 0 {
		latestIdx := totals.SnapshotsIndex - 1
		latest, ok, err := loadSnapshot(tx, latestIdx)
		if err != nil {
			return err
		}
		if ok && latest.SeqNo == totals.SnapshotSeqNo {
			latest.Income = new(uint256.Int).Add(latest.Income, income)
			latest.Outlay = new(uint256.Int).Add(latest.Outlay, outlay)
			return saveSnapshot(tx, latestIdx, latest)
		}
	}

	idx := totals.SnapshotsIndex
	totals.SnapshotsIndex++
	claimsRemaining := totals.GrowthDelegators + totals.ProfitDelegators

	if claimsRemaining == 0 {
		// No entitled delegator will ever claim or amortize this epoch
		// into existence. Rather than leave a permanently dangling
		// claims_remaining=0 record, consume the index and stop: the
		// log never grows for an epoch nobody can reference (spec.md
		// §9 open question 1).
		return nil
	}

	snap := &Snapshot{
		SeqNo:            totals.SnapshotSeqNo,
		ClaimsRemaining:  claimsRemaining,
		GrowthDelegation: new(uint256.Int).Set(totals.NetGrowthDeleg),
		ProfitDelegation: new(uint256.Int).Set(totals.NetProfitDeleg),
		Income:           new(uint256.Int).Set(income),
		Outlay:           new(uint256.Int).Set(outlay),
	}
	if err := saveSnapshot(tx, idx, snap); err != nil {
		return err
	}
	totals.SnapshotsLen++
	return nil
}
