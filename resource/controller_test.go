package resource

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.MaxWorkers())

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.Equal(t, 2, c.ActiveWorkers())

	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWorker(ctx), context.DeadlineExceeded)

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	c.ReleaseWorker()
	assert.Equal(t, 0, c.ActiveWorkers())
}

func TestController_DefaultWorkers(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, runtime.GOMAXPROCS(0), c.MaxWorkers())
}

func TestController_WorkerBound(t *testing.T) {
	c := NewController(Config{MaxWorkers: 3})

	var (
		mu   sync.Mutex
		peak int
		wg   sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.AcquireWorker(context.Background()); err != nil {
				return
			}
			defer c.ReleaseWorker()

			mu.Lock()
			if n := c.ActiveWorkers(); n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 0, c.ActiveWorkers())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	assert.Equal(t, 0, c.IOChunk())
	assert.Equal(t, int64(0), c.IOBytes())
	assert.Equal(t, 0, c.ActiveWorkers())
}

func TestController_IOUnlimited(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, int64(1<<20), c.IOBytes())
	assert.Equal(t, 0, c.IOChunk())
}

func TestController_IOLimited(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 100})
	assert.Equal(t, 100, c.IOChunk())

	// The first burst is free.
	require.NoError(t, c.AcquireIO(context.Background(), 100))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 100))
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	payload := strings.Repeat("glyph", 1000)

	r := NewRateLimitedReader(context.Background(), strings.NewReader(payload), c)
	var out bytes.Buffer
	_, err := io.Copy(&out, r)
	require.NoError(t, err)
	assert.Equal(t, payload, out.String())
	assert.Equal(t, int64(len(payload)), c.IOBytes())
}

func TestRateLimitedReader_ChunksLargeReads(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 64})
	r := NewRateLimitedReader(context.Background(), bytes.NewReader(make([]byte, 1000)), c)

	buf := make([]byte, 1000)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
}
