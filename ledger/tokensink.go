// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Transfer is a scheduled side effect produced by a mutating
// operation. Per spec.md §5, a transfer failure must revert the whole
// message: Engine invokes every Transfer from inside the same
// KV.Update callback that made the accompanying state changes, so a
// failing Transfer aborts and rolls back that same transaction rather
// than leaving already-committed ledger state stranded against a
// payment that never went out.
type Transfer struct {
	To     common.Address
	Amount *uint256.Int
}

// TokenSink is the engine's token-agnostic payment collaborator
// (spec.md §6.1). Implementations choose between a native-denominated
// pathway (VerifyFunds checks funds attached to the call) and a
// fungible-token-allowance pathway (Pull schedules an allowance pull).
type TokenSink interface {
	// VerifyFunds checks that `amount` of funds from `from` are
	// available to cover a cash-flow event. Implementations of the
	// fungible-token-allowance pathway may treat this as a no-op.
	VerifyFunds(from common.Address, amount *uint256.Int) error

	// Transfer moves `amount` to `to`. Invoked from inside the
	// triggering KV transaction; returning an error aborts that
	// transaction instead of leaving it committed.
	Transfer(to common.Address, amount *uint256.Int) error

	// Pull schedules a custodial pull transfer of `amount` from `from`
	// into `self`'s custody (the fungible-token-allowance pathway). No
	// Engine operation calls Pull.
	Pull(from, self common.Address, amount *uint256.Int) error
}
