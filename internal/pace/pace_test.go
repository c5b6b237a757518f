package pace_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gallerytools/artcrawl/internal/pace"
)

func TestFirstWaitIsImmediate(t *testing.T) {
	p := pace.New(500*time.Millisecond, 0)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestEnforcesFloorBetweenWaits(t *testing.T) {
	p := pace.New(80*time.Millisecond, 0)
	require.NoError(t, p.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond, "second wait should honor the floor")
}

func TestWaitHonorsCancellation(t *testing.T) {
	p := pace.New(5*time.Second, 0)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := p.Wait(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "canceled wait should exit immediately")
}

func TestZeroConfigNeverBlocks(t *testing.T) {
	p := pace.New(0, 0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestJitterStaysWithinWindow(t *testing.T) {
	p := pace.New(0, 30*time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
