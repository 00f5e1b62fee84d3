// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/poolstake/memkv"
)

var errTransferRejected = errors.New("engine_test: transfer rejected")

// failingSink wraps a LedgerTokenSink but fails every Transfer to a
// chosen recipient, to exercise transact's rollback path.
type failingSink struct {
	*LedgerTokenSink
	rejectTo common.Address
}

func (s *failingSink) Transfer(to common.Address, amount *uint256.Int) error {
	if to == s.rejectTo {
		return errTransferRejected
	}
	return s.LedgerTokenSink.Transfer(to, amount)
}

// TestTransact_FailedTransferRollsBackLedgerState covers the review
// fix to transact: a Transfer failure must abort the whole message
// (spec.md §5), leaving no partial commit observable.
func TestTransact_FailedTransferRollsBackLedgerState(t *testing.T) {
	kv := memkv.New()
	recipient := addr(9)
	sink := &failingSink{LedgerTokenSink: NewLedgerTokenSink(), rejectTo: recipient}
	auth := NewStaticAuthority()
	admin := addr(0xAD)
	auth.Grant(admin, "set_client")

	e, err := NewEngine(kv, Config{TokenSink: sink, Authority: auth, Clock: func() int64 { return 0 }})
	require.NoError(t, err)

	c, a := addr(1), addr(2)
	require.NoError(t, e.SetClient(admin, c, 1000))
	_, _, err = e.Stake(a, u(500), nil)
	require.NoError(t, err)

	before, berr := e.Select([]Field{FieldLiquidity, FieldAccount}, &c)
	require.NoError(t, berr)

	err = e.SendPayment(c, recipient, u(100))
	require.ErrorIs(t, err, errTransferRejected)

	after, aerr := e.Select([]Field{FieldLiquidity, FieldAccount}, &c)
	require.NoError(t, aerr)

	require.Equal(t, before.Liquidity, after.Liquidity)
	require.Equal(t, before.Account.AmountSpent, after.Account.AmountSpent)
	require.True(t, sink.Balance(recipient).IsZero())
}

func TestTransact_SuccessfulTransferCommitsLedgerState(t *testing.T) {
	kv := memkv.New()
	recipient := addr(9)
	sink := NewLedgerTokenSink()
	auth := NewStaticAuthority()
	admin := addr(0xAD)
	auth.Grant(admin, "set_client")

	e, err := NewEngine(kv, Config{TokenSink: sink, Authority: auth, Clock: func() int64 { return 0 }})
	require.NoError(t, err)

	c, a := addr(1), addr(2)
	require.NoError(t, e.SetClient(admin, c, 1000))
	_, _, err = e.Stake(a, u(500), nil)
	require.NoError(t, err)

	require.NoError(t, e.SendPayment(c, recipient, u(100)))
	require.Equal(t, u(100), sink.Balance(recipient))

	view, err := e.Select([]Field{FieldLiquidity}, nil)
	require.NoError(t, err)
	require.Equal(t, u(400), view.Liquidity)
}
