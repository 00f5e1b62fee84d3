// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memkv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/poolstake/ledger"
)

var errSentinel = errors.New("memkv_test: sentinel")

func TestGetPutDelete_RoundTrip(t *testing.T) {
	db := New()
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		return tx.Put([]byte("a"), []byte("1"))
	}))

	require.NoError(t, db.View(func(tx ledger.Tx) error {
		v, ok, err := tx.Get([]byte("a"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte("1"), v)
		return nil
	}))

	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		return tx.Delete([]byte("a"))
	}))

	require.NoError(t, db.View(func(tx ledger.Tx) error {
		_, ok, err := tx.Get([]byte("a"))
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	db := New()
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		return tx.Put([]byte("a"), []byte("1"))
	}))

	err := db.Update(func(tx ledger.Tx) error {
		if putErr := tx.Put([]byte("a"), []byte("2")); putErr != nil {
			return putErr
		}
		if putErr := tx.Put([]byte("b"), []byte("new")); putErr != nil {
			return putErr
		}
		return errSentinel
	})
	require.ErrorIs(t, err, errSentinel)

	require.NoError(t, db.View(func(tx ledger.Tx) error {
		v, ok, getErr := tx.Get([]byte("a"))
		require.NoError(t, getErr)
		require.True(t, ok)
		require.Equal(t, []byte("1"), v) // unchanged: the failed Update never committed

		_, ok, getErr = tx.Get([]byte("b"))
		require.NoError(t, getErr)
		require.False(t, ok)
		return nil
	}))
}

func TestView_RejectsWrites(t *testing.T) {
	db := New()
	err := db.View(func(tx ledger.Tx) error {
		return tx.Put([]byte("a"), []byte("1"))
	})
	require.Error(t, err)
}

func TestScan_OrderingAndPrefixFilter(t *testing.T) {
	db := New()
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		for _, k := range []string{"p:a", "p:b", "p:c", "q:z"} {
			if err := tx.Put([]byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, db.View(func(tx ledger.Tx) error {
		cur, err := tx.Scan([]byte("p:"), ledger.Ascending)
		require.NoError(t, err)
		defer cur.Close()
		var got []string
		for cur.Next() {
			got = append(got, string(cur.Key()))
		}
		require.Equal(t, []string{"p:a", "p:b", "p:c"}, got)
		return nil
	}))

	require.NoError(t, db.View(func(tx ledger.Tx) error {
		cur, err := tx.Scan([]byte("p:"), ledger.Descending)
		require.NoError(t, err)
		defer cur.Close()
		var got []string
		for cur.Next() {
			got = append(got, string(cur.Key()))
		}
		require.Equal(t, []string{"p:c", "p:b", "p:a"}, got)
		return nil
	}))
}

func TestDeque_FIFOOrder(t *testing.T) {
	db := New()
	prefix := []byte("q:")
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		require.NoError(t, tx.DequePushBack(prefix, []byte("1")))
		require.NoError(t, tx.DequePushBack(prefix, []byte("2")))
		require.NoError(t, tx.DequePushBack(prefix, []byte("3")))
		return nil
	}))

	var popped []string
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		for {
			v, ok, err := tx.DequePopFront(prefix)
			require.NoError(t, err)
			if !ok {
				break
			}
			popped = append(popped, string(v))
		}
		return nil
	}))
	require.Equal(t, []string{"1", "2", "3"}, popped)
}

func TestDeque_PushFrontThenPopFrontIsMostRecentFirst(t *testing.T) {
	db := New()
	prefix := []byte("q:")
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		require.NoError(t, tx.DequePushBack(prefix, []byte("1")))
		require.NoError(t, tx.DequePushFront(prefix, []byte("0")))
		return nil
	}))

	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		v, ok, err := tx.DequePopFront(prefix)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "0", string(v))

		v, ok, err = tx.DequePopFront(prefix)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "1", string(v))
		return nil
	}))
}

func TestDeque_PopFrontOnEmptyReturnsFalse(t *testing.T) {
	db := New()
	require.NoError(t, db.Update(func(tx ledger.Tx) error {
		_, ok, err := tx.DequePopFront([]byte("q:"))
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}
