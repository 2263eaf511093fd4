package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_BoundedAndSettlesAll(t *testing.T) {
	const limit = 5
	var active, peak int32

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (Candidate, error) {
			n := atomic.AddInt32(&active, 1)
			defer atomic.AddInt32(&active, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			if i == 3 {
				return Candidate{}, errors.New("always fails")
			}
			return Candidate{Name: fmt.Sprintf("file-%d.jpg", i)}, nil
		}
	}

	outcomes := NewScheduler(limit, zap.NewNop(), nil).Run(context.Background(), tasks)
	require.Len(t, outcomes, 10)

	ok := 0
	for i, o := range outcomes {
		if i == 3 {
			require.False(t, o.OK())
			continue
		}
		require.True(t, o.OK())
		require.Equal(t, fmt.Sprintf("file-%d.jpg", i), o.Candidate.Name)
		ok++
	}
	require.Equal(t, 9, ok)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
	require.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestScheduler_RecoversPanics(t *testing.T) {
	tasks := []Task{
		func(ctx context.Context) (Candidate, error) { panic("bad task") },
		func(ctx context.Context) (Candidate, error) { return Candidate{Name: "ok"}, nil },
	}
	outcomes := NewScheduler(1, zap.NewNop(), nil).Run(context.Background(), tasks)
	require.Error(t, outcomes[0].Err)
	require.True(t, outcomes[1].OK())
}

func TestScheduler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	outcomes := NewScheduler(2, zap.NewNop(), nil).Run(ctx, []Task{
		func(ctx context.Context) (Candidate, error) { called = true; return Candidate{}, nil },
	})
	require.False(t, called)
	require.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

func TestScheduler_Empty(t *testing.T) {
	require.Empty(t, NewScheduler(5, zap.NewNop(), nil).Run(context.Background(), nil))
}
