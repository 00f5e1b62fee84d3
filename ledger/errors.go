// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

// Error kinds surfaced to callers (spec.md §7). Every one aborts and
// reverts the in-flight message; none is recovered locally.
var (
	ErrNotAuthorized         = errors.New("not authorized")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrMissingAmount         = errors.New("missing amount")
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrNotFound              = errors.New("not found")

	// ErrValueOverflow names the "values fit in 128 bits" assumption of
	// spec.md §1. No operation in this package returns it: amount
	// arithmetic uses uint256 Add/Mul, which wrap rather than fail.
	ErrValueOverflow = errors.New("ledger: value overflow")

	// ErrInvariantViolation signals that stored state violated an
	// invariant the claim algorithm depends on (spec.md §4.3's
	// division-by-zero precondition). It never originates from caller
	// input; seeing it means committed state is already inconsistent.
	ErrInvariantViolation = errors.New("ledger: invariant violation")
)
