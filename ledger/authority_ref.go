// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/luxfi/geth/common"

// StaticAuthority is a fixed allow-list AuthorityOracle: a principal
// is allowed to perform an action iff it appears in that action's set.
// This is the reference adapter for spec.md §6.1's AuthorityOracle —
// most deployments gate admin actions on a small, rarely-changing set
// of addresses, so a static map is the common case rather than a
// special one.
type StaticAuthority struct {
	allow map[string]map[common.Address]bool
}

// NewStaticAuthority builds an authority with no actions granted.
func NewStaticAuthority() *StaticAuthority {
	return &StaticAuthority{allow: make(map[string]map[common.Address]bool)}
}

// Grant authorizes principal to perform action.
func (a *StaticAuthority) Grant(principal common.Address, action string) {
	set, ok := a.allow[action]
	if !ok {
		set = make(map[common.Address]bool)
		a.allow[action] = set
	}
	set[principal] = true
}

// Revoke withdraws a previously granted authorization.
func (a *StaticAuthority) Revoke(principal common.Address, action string) {
	if set, ok := a.allow[action]; ok {
		delete(set, principal)
	}
}

func (a *StaticAuthority) IsAllowed(principal common.Address, action string) (bool, error) {
	set, ok := a.allow[action]
	if !ok {
		return false, nil
	}
	return set[principal], nil
}
