// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"
	"time"
)

// Config are the constructor parameters for an Engine, equivalent to
// the original contract's InstantiateMsg (see SPEC_FULL.md §3).
type Config struct {
	// TokenSink is required: ReceivePayment verifies funds through it,
	// and SendPayment, TakeProfit and Withdraw schedule their payouts
	// as transfers through it.
	TokenSink TokenSink
	// Authority is required: consulted by SetClient.
	Authority AuthorityOracle
	// Logger defaults to a no-op implementation.
	Logger Logger
	// Clock supplies CreatedAt timestamps; defaults to time.Now().Unix.
	// Settlement itself is event-driven, not time-based (spec.md §1),
	// so Clock never influences accounting math.
	Clock func() int64
	// AmortizeCount is how many accounts each cash-flow event advances
	// through the amortization queue (spec.md §4.5, default 5).
	AmortizeCount uint32
	// AmortizeRetries bounds the no-op retries per amortize step
	// (spec.md §4.5, default 5).
	AmortizeRetries uint32
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	if c.Clock == nil {
		c.Clock = func() int64 { return time.Now().Unix() }
	}
	if c.AmortizeCount == 0 {
		c.AmortizeCount = 5
	}
	if c.AmortizeRetries == 0 {
		c.AmortizeRetries = 5
	}
}

// Engine is the core accounting engine: the bound KV, TokenSink and
// AuthorityOracle collaborators plus the message surface of spec.md §6.2.
type Engine struct {
	kv  KV
	cfg Config
}

// NewEngine wires kv/cfg into a ready Engine.
func NewEngine(kv KV, cfg Config) (*Engine, error) {
	if kv == nil {
		return nil, fmt.Errorf("ledger: kv is required")
	}
	if cfg.TokenSink == nil {
		return nil, fmt.Errorf("ledger: token sink is required")
	}
	if cfg.Authority == nil {
		return nil, fmt.Errorf("ledger: authority oracle is required")
	}
	cfg.setDefaults()
	return &Engine{kv: kv, cfg: cfg}, nil
}

// transact runs fn and every Transfer it schedules inside the same KV
// transaction (spec.md §5: "a failure of any scheduled transfer must
// revert the entire message"). A failing Transfer returns its error
// from the Update callback, so memkv discards its working map and
// boltkv aborts its bbolt transaction exactly as if the ledger state
// change itself had failed — no partial commit is ever observable.
func (e *Engine) transact(fn func(tx Tx) ([]Transfer, error)) error {
	return e.kv.Update(func(tx Tx) error {
		transfers, err := fn(tx)
		if err != nil {
			return err
		}
		for _, t := range transfers {
			if err := e.cfg.TokenSink.Transfer(t.To, t.Amount); err != nil {
				return fmt.Errorf("ledger: scheduled transfer to %s failed: %w", t.To, err)
			}
		}
		return nil
	})
}
