// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/luxfi/geth/common"

// AuthorityOracle resolves access control for admin operations
// (spec.md §6.1). It is consulted only by SetClient.
type AuthorityOracle interface {
	IsAllowed(principal common.Address, action string) (bool, error)
}
