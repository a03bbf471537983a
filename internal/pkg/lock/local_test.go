package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, ProductKey("p1"))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	r2, err := l.Acquire(ctx, "b")
	require.NoError(t, err)

	r1()
	r2()
	assert.Equal(t, 0, l.size())
}

func TestLocal_Fail_ContextCanceledWhileWaiting(t *testing.T) {
	l := NewLocal()

	release, err := l.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.size())
}

func TestLocal_ReleaseIsIdempotent(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "p1")
	require.NoError(t, err)

	release()
	release()

	again, err := l.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	again()
}
