// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-core-stack/slowmode/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func Test_LockTable(t *testing.T) {
	t.Run("same_key_is_exclusive", func(t *testing.T) {
		tbl := NewLockTable[string]()
		l1 := tbl.Acquire("c-1")

		_, err := tbl.TryAcquire("c-1")
		require.Error(t, err)
		assert.True(t, errors.IsAlreadyExists(err))

		require.NoError(t, l1.Close())

		l2, err := tbl.TryAcquire("c-1")
		require.NoError(t, err)
		require.NoError(t, l2.Close())
		assert.Equal(t, 0, tbl.Len())
	})

	t.Run("different_keys_do_not_contend", func(t *testing.T) {
		tbl := NewLockTable[string]()
		l1 := tbl.Acquire("c-1")
		defer l1.Close()

		l2, err := tbl.TryAcquire("c-2")
		require.NoError(t, err)
		require.NoError(t, l2.Close())
	})

	t.Run("double_close_fails", func(t *testing.T) {
		tbl := NewLockTable[string]()
		l := tbl.Acquire("c-1")
		require.NoError(t, l.Close())
		assert.True(t, errors.IsInvalidArgument(l.Close()))
	})

	t.Run("serialises_holders", func(t *testing.T) {
		tbl := NewLockTable[int]()
		counter := 0
		var wg gosync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l := tbl.Acquire(7)
				defer l.Close()
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
		assert.Equal(t, 0, tbl.Len())
	})

	t.Run("acquire_context_times_out", func(t *testing.T) {
		tbl := NewLockTable[string]()
		l := tbl.Acquire("c-1")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := tbl.AcquireContext(ctx, "c-1")
		require.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, l.Close())

		// the abandoned waiter hands the lock back once it gets it
		require.Eventually(t, func() bool {
			l, err := tbl.TryAcquire("c-1")
			if err != nil {
				return false
			}
			_ = l.Close()
			return true
		}, time.Second, time.Millisecond)
	})
}
