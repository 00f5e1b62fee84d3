// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command poolstakectl is a smoke-test harness for the ledger engine:
// it wires memkv/boltkv plus the package's reference TokenSink and
// AuthorityOracle adapters into an Engine and drives fixed scenarios
// through it, without any wire protocol or persistence migration
// concerns of its own.
package main

import (
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/poolstake/boltkv"
	"github.com/luxfi/poolstake/ledger"
	"github.com/luxfi/poolstake/memkv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scenarios":
		runScenarios()
	case "boltdemo":
		runBoltDemo()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "poolstakectl: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: poolstakectl <scenarios|boltdemo|help>")
}

func newAddr(seed byte) common.Address {
	var a common.Address
	a[len(a)-1] = seed
	return a
}

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newEngine(tlog ledger.Logger) (*ledger.Engine, ledger.KV, *ledger.LedgerTokenSink, *ledger.StaticAuthority) {
	kv := memkv.New()
	sink := ledger.NewLedgerTokenSink()
	auth := ledger.NewStaticAuthority()
	admin := newAddr(0xAD)
	auth.Grant(admin, "set_client")

	e, err := ledger.NewEngine(kv, ledger.Config{
		TokenSink: sink,
		Authority: auth,
		Logger:    tlog,
		Clock:     func() int64 { return 0 },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "newEngine: %v\n", err)
		os.Exit(1)
	}
	return e, kv, sink, auth
}

func check(name string, got, want *uint256.Int) bool {
	if got.Cmp(want) != 0 {
		fmt.Printf("FAIL %s: got %s, want %s\n", name, got, want)
		return false
	}
	fmt.Printf("ok   %s: %s\n", name, got)
	return true
}

// runScenarios replays spec.md §8's literal concrete scenarios S1-S6,
// one Engine per scenario so each starts from a clean ledger.
func runScenarios() {
	admin := newAddr(0xAD)
	tlog := ledger.PrintLogger{Write: func(s string) { fmt.Println(s) }}
	ok := true

	{ // S1
		fmt.Println("--- S1 ---")
		e, _, sink, _ := newEngine(tlog)
		c := newAddr(1)
		a := newAddr(2)
		must(e.SetClient(admin, c, 1000))
		sink.Credit(c, amt(50))
		must2(e.Stake(a, amt(100), amt(0)))
		must(e.ReceivePayment(c, amt(50)))
		must(e.TakeProfit(a))
		ok = check("S1 A balance after take_profit", sink.Balance(a), amt(0)) && ok
		must(e.Withdraw(a))
		ok = check("S1 A balance after withdraw", sink.Balance(a), amt(150)) && ok
	}

	{ // S2
		fmt.Println("--- S2 ---")
		e, _, sink, _ := newEngine(tlog)
		c := newAddr(1)
		a, b := newAddr(2), newAddr(3)
		must(e.SetClient(admin, c, 1000))
		sink.Credit(c, amt(100))
		must2(e.Stake(a, amt(50), amt(50)))
		must2(e.Stake(b, amt(50), amt(50)))
		must(e.ReceivePayment(c, amt(100)))
		must(e.TakeProfit(a))
		must(e.TakeProfit(b))
		ok = check("S2 A profit", sink.Balance(a), amt(25)) && ok
		ok = check("S2 B profit", sink.Balance(b), amt(25)) && ok
		view, err := e.Select([]ledger.Field{ledger.FieldLiquidity}, nil)
		must(err)
		ok = check("S2 NET_LIQUIDITY", view.Liquidity, amt(150)) && ok
	}

	{ // S3
		fmt.Println("--- S3 ---")
		e, _, sink, _ := newEngine(tlog)
		c := newAddr(1)
		a, b := newAddr(2), newAddr(3)
		must(e.SetClient(admin, c, 1000))
		must2(e.Stake(a, amt(100), amt(0)))
		must2(e.Stake(b, amt(300), amt(0)))
		must(e.SendPayment(c, newAddr(9), amt(40)))
		must(e.Withdraw(a))
		must(e.Withdraw(b))
		ok = check("S3 A withdrawal", sink.Balance(a), amt(90)) && ok
		ok = check("S3 B withdrawal", sink.Balance(b), amt(270)) && ok
	}

	{ // S4
		fmt.Println("--- S4 ---")
		e, _, sink, _ := newEngine(tlog)
		c := newAddr(1)
		a, b := newAddr(2), newAddr(3)
		must(e.SetClient(admin, c, 1000))
		sink.Credit(c, amt(200))
		must2(e.Stake(a, amt(100), amt(0)))
		must(e.ReceivePayment(c, amt(100)))
		must2(e.Stake(b, amt(100), amt(0)))
		must(e.ReceivePayment(c, amt(100)))
		must(e.TakeProfit(a))
		ok = check("S4 A profit", sink.Balance(a), amt(0)) && ok
		must(e.Withdraw(a))
		ok = check("S4 A withdrawal", sink.Balance(a), amt(250)) && ok
		must(e.Withdraw(b))
		ok = check("S4 B withdrawal", sink.Balance(b), amt(150)) && ok
	}

	{ // S5
		fmt.Println("--- S5 ---")
		e, _, _, _ := newEngine(tlog)
		c := newAddr(1)
		a := newAddr(2)
		must(e.SetClient(admin, c, 200))
		must2(e.Stake(a, amt(1000), amt(0)))
		if err := e.SendPayment(c, newAddr(9), amt(201)); err != ledger.ErrInsufficientAllowance {
			fmt.Printf("FAIL S5: expected InsufficientAllowance, got %v\n", err)
			ok = false
		} else {
			fmt.Println("ok   S5 send_payment(201) rejected")
		}
		must(e.SendPayment(c, newAddr(9), amt(200)))
		fmt.Println("ok   S5 send_payment(200) accepted")
	}

	{ // S6
		fmt.Println("--- S6 ---")
		e, _, _, _ := newEngine(tlog)
		c1, c2 := newAddr(1), newAddr(2)
		must(e.SetClient(admin, c1, 600))
		if err := e.SetClient(admin, c2, 500); err != ledger.ErrInsufficientLiquidity {
			fmt.Printf("FAIL S6: expected InsufficientLiquidity, got %v\n", err)
			ok = false
		} else {
			fmt.Println("ok   S6 set_client(C2, 500) rejected")
		}
	}

	if !ok {
		os.Exit(1)
	}
}

// runBoltDemo exercises the durable backend end to end in a temp file.
func runBoltDemo() {
	path, err := os.CreateTemp("", "poolstake-*.db")
	must(err)
	path.Close()
	defer os.Remove(path.Name())

	db, err := boltkv.Open(path.Name())
	must(err)
	defer db.Close()

	sink := ledger.NewLedgerTokenSink()
	auth := ledger.NewStaticAuthority()
	admin := newAddr(0xAD)
	auth.Grant(admin, "set_client")

	e, err := ledger.NewEngine(db, ledger.Config{TokenSink: sink, Authority: auth})
	must(err)

	c := newAddr(1)
	a := newAddr(2)
	must(e.SetClient(admin, c, 1000))
	sink.Credit(c, amt(50))
	must2(e.Stake(a, amt(100), amt(0)))
	must(e.ReceivePayment(c, amt(50)))

	view, err := e.Select([]ledger.Field{ledger.FieldLiquidity, ledger.FieldStats}, nil)
	must(err)
	fmt.Printf("boltdemo: NET_LIQUIDITY=%s accounts=%d snapshots=%d\n",
		view.Liquidity, view.Stats.NDelegationAccounts, view.Stats.NSnapshots)
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "poolstakectl: %v\n", err)
		os.Exit(1)
	}
}

func must2(_, _ *uint256.Int, err error) {
	must(err)
}
