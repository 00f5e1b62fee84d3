// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/poolstake/memkv"
)

func addr(b byte) common.Address {
	var a common.Address
	a[len(a)-1] = b
	return a
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// harness bundles an Engine with the test-visible state of its
// collaborators, for scenario-style assertions.
type harness struct {
	t     *testing.T
	kv    KV
	e     *Engine
	sink  *LedgerTokenSink
	auth  *StaticAuthority
	admin common.Address
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := memkv.New()
	sink := NewLedgerTokenSink()
	auth := NewStaticAuthority()
	admin := addr(0xAD)
	auth.Grant(admin, "set_client")

	e, err := NewEngine(kv, Config{
		TokenSink: sink,
		Authority: auth,
		Clock:     func() int64 { return 0 },
	})
	require.NoError(t, err)

	return &harness{t: t, kv: kv, e: e, sink: sink, auth: auth, admin: admin}
}

func (h *harness) setClient(client common.Address, pct uint32) {
	h.t.Helper()
	require.NoError(h.t, h.e.SetClient(h.admin, client, pct))
}

func (h *harness) stake(owner common.Address, growth, profit uint64) {
	h.t.Helper()
	_, _, err := h.e.Stake(owner, u(growth), u(profit))
	require.NoError(h.t, err)
}

// --- spec.md §8 concrete scenarios ---

func TestScenario_S1(t *testing.T) {
	h := newHarness(t)
	c, a := addr(1), addr(2)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(50))
	h.stake(a, 100, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(50)))
	require.NoError(t, h.e.TakeProfit(a))
	require.True(t, h.sink.Balance(a).IsZero())
	require.NoError(t, h.e.Withdraw(a))
	require.Equal(t, u(150), h.sink.Balance(a))
}

func TestScenario_S2(t *testing.T) {
	h := newHarness(t)
	c, a, b := addr(1), addr(2), addr(3)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(100))
	h.stake(a, 50, 50)
	h.stake(b, 50, 50)
	require.NoError(t, h.e.ReceivePayment(c, u(100)))
	require.NoError(t, h.e.TakeProfit(a))
	require.NoError(t, h.e.TakeProfit(b))
	require.Equal(t, u(25), h.sink.Balance(a))
	require.Equal(t, u(25), h.sink.Balance(b))

	view, err := h.e.Select([]Field{FieldLiquidity}, nil)
	require.NoError(t, err)
	require.Equal(t, u(150), view.Liquidity)
}

func TestScenario_S3(t *testing.T) {
	h := newHarness(t)
	c, a, b := addr(1), addr(2), addr(3)
	h.setClient(c, 1000)
	h.stake(a, 100, 0)
	h.stake(b, 300, 0)
	require.NoError(t, h.e.SendPayment(c, addr(9), u(40)))
	require.NoError(t, h.e.Withdraw(a))
	require.NoError(t, h.e.Withdraw(b))
	require.Equal(t, u(90), h.sink.Balance(a))
	require.Equal(t, u(270), h.sink.Balance(b))
}

func TestScenario_S4(t *testing.T) {
	h := newHarness(t)
	c, a, b := addr(1), addr(2), addr(3)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(200))
	h.stake(a, 100, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(100)))
	h.stake(b, 100, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(100)))
	require.NoError(t, h.e.TakeProfit(a))
	require.True(t, h.sink.Balance(a).IsZero())
	require.NoError(t, h.e.Withdraw(a))
	require.Equal(t, u(250), h.sink.Balance(a))
	require.NoError(t, h.e.Withdraw(b))
	require.Equal(t, u(150), h.sink.Balance(b))
}

func TestScenario_S5(t *testing.T) {
	h := newHarness(t)
	c, a := addr(1), addr(2)
	h.setClient(c, 200)
	h.stake(a, 1000, 0)
	err := h.e.SendPayment(c, addr(9), u(201))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	require.NoError(t, h.e.SendPayment(c, addr(9), u(200)))
}

func TestScenario_S6(t *testing.T) {
	h := newHarness(t)
	c1, c2 := addr(1), addr(2)
	h.setClient(c1, 600)
	err := h.e.SetClient(h.admin, c2, 500)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

// --- boundary behaviors ---

func TestReceivePayment_ZeroDelegationRoutesToLiquidity(t *testing.T) {
	h := newHarness(t)
	c := addr(1)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(10))
	require.NoError(t, h.e.ReceivePayment(c, u(10)))

	view, err := h.e.Select([]Field{FieldLiquidity, FieldProfit, FieldStats}, nil)
	require.NoError(t, err)
	require.Equal(t, u(10), view.Liquidity)
	require.True(t, view.Profit.IsZero())
	// No delegator exists to ever amortize the zero-claims-remaining
	// snapshot into existence, so it must never persist.
	require.EqualValues(t, 0, view.Stats.NSnapshots)
}

func TestCashFlow_ZeroAmountRejected(t *testing.T) {
	h := newHarness(t)
	c := addr(1)
	h.setClient(c, 1000)
	require.ErrorIs(t, h.e.ReceivePayment(c, u(0)), ErrMissingAmount)
	require.ErrorIs(t, h.e.SendPayment(c, addr(9), u(0)), ErrMissingAmount)
}

func TestSendPayment_FullLiquidityDrainsToZero(t *testing.T) {
	h := newHarness(t)
	c, a := addr(1), addr(2)
	h.setClient(c, 1000)
	h.stake(a, 500, 0)
	require.NoError(t, h.e.SendPayment(c, addr(9), u(500)))

	view, err := h.e.Select([]Field{FieldLiquidity}, nil)
	require.NoError(t, err)
	require.True(t, view.Liquidity.IsZero())
}

// --- round-trip / idempotence ---

func TestTakeProfit_TwiceBackToBackIsIdempotent(t *testing.T) {
	h := newHarness(t)
	c, a := addr(1), addr(2)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(100))
	h.stake(a, 0, 100)
	require.NoError(t, h.e.ReceivePayment(c, u(100)))

	require.NoError(t, h.e.TakeProfit(a))
	first := h.sink.Balance(a)
	require.Equal(t, u(100), first)

	require.NoError(t, h.e.TakeProfit(a))
	require.Equal(t, first, h.sink.Balance(a)) // unchanged: second call paid out zero
}

func TestStake_ZeroZeroIsNoOp(t *testing.T) {
	h := newHarness(t)
	a := addr(1)
	h.stake(a, 100, 0)

	view1, err := h.e.Select([]Field{FieldPools}, nil)
	require.NoError(t, err)

	g, p, err := h.e.Stake(a, nil, nil)
	require.NoError(t, err)
	require.Equal(t, u(100), g)
	require.True(t, p.IsZero())

	view2, err := h.e.Select([]Field{FieldPools}, nil)
	require.NoError(t, err)
	require.Equal(t, view1.Pools.GrowthDelegation, view2.Pools.GrowthDelegation)
	require.Equal(t, view1.Pools.GrowthDelegators, view2.Pools.GrowthDelegators)
}

// --- claim_readonly / claim parity (P7) ---

func TestClaimReadonly_MatchesDestructiveClaim(t *testing.T) {
	h := newHarness(t)
	c, a, b := addr(1), addr(2), addr(3)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(100))
	h.stake(a, 100, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(50)))
	h.stake(b, 100, 0) // bumps the coalescing epoch
	require.NoError(t, h.e.ReceivePayment(c, u(50)))

	var roGain, roLoss, gain, loss *uint256.Int
	require.NoError(t, h.kv.View(func(tx Tx) error {
		totals, err := loadTotals(tx)
		if err != nil {
			return err
		}
		roGain, roLoss, err = claimReadonly(tx, totals, a, PoolGrowth)
		return err
	}))
	require.NoError(t, h.kv.Update(func(tx Tx) error {
		totals, err := loadTotals(tx)
		if err != nil {
			return err
		}
		gain, loss, err = claim(tx, totals, a, PoolGrowth, false)
		if err != nil {
			return err
		}
		return saveTotals(tx, totals)
	}))

	require.Equal(t, roGain, gain)
	require.Equal(t, roLoss, loss)
}

// --- invariants (P1-P4, P6) ---

func TestInvariants_AfterMixedActivity(t *testing.T) {
	h := newHarness(t)
	c, a, b := addr(1), addr(2), addr(3)
	h.setClient(c, 700)
	h.sink.Credit(c, u(1000))
	h.stake(a, 200, 100)
	h.stake(b, 100, 300)
	require.NoError(t, h.e.ReceivePayment(c, u(90)))
	require.NoError(t, h.e.SendPayment(c, addr(9), u(50)))
	h.stake(a, 50, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(30)))

	view, err := h.e.Select([]Field{FieldPools, FieldSnapshots}, nil)
	require.NoError(t, err)

	require.True(t, view.Pools.GrowthDelegation.Cmp(zero()) > 0)
	require.EqualValues(t, 2, view.Pools.GrowthDelegators)
	require.EqualValues(t, 2, view.Pools.ProfitDelegators)

	for _, s := range view.Snapshots { // P4
		require.Greater(t, s.ClaimsRemaining, uint32(0))
		require.True(t, s.TotalDelegation().Cmp(zero()) > 0)
	}

	statsView, err := h.e.Select([]Field{FieldStats}, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, statsView.Stats.NDelegationAccounts)
	require.EqualValues(t, 1, statsView.Stats.NClientAccounts)
}

func TestSetClient_PctAllocatedNeverExceedsOneThousand(t *testing.T) {
	h := newHarness(t)
	h.setClient(addr(1), 1000)
	err := h.e.SetClient(h.admin, addr(2), 1)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	// Updating an existing client's pct replaces, not adds, its share.
	h.setClient(addr(1), 400)
	h.setClient(addr(2), 600)
}

func TestSetClient_RequiresAuthorization(t *testing.T) {
	h := newHarness(t)
	err := h.e.SetClient(addr(0xBE), addr(1), 100)
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestReceivePayment_RequiresRegisteredClient(t *testing.T) {
	h := newHarness(t)
	err := h.e.ReceivePayment(addr(1), u(10))
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestWithdraw_LastDelegatorReconcilesDust(t *testing.T) {
	h := newHarness(t)
	c, a := addr(1), addr(2)
	h.setClient(c, 1000)
	h.sink.Credit(c, u(10))
	h.stake(a, 30, 0)
	require.NoError(t, h.e.ReceivePayment(c, u(10)))
	require.NoError(t, h.e.Withdraw(a))

	view, err := h.e.Select([]Field{FieldLiquidity, FieldProfit}, nil)
	require.NoError(t, err)
	require.True(t, view.Liquidity.IsZero())
	require.True(t, view.Profit.IsZero())
}

func TestWithdraw_UnknownOwnerNotFound(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.e.Withdraw(addr(77)), ErrNotFound)
}
