package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())
	assert.Equal(t, int64(50), c.Free())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	err = c.AcquireMemory(20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.Equal(t, int64(math.MaxInt64), c.Free())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
	assert.Empty(t, c.Name())
}

func TestAllocator_PriorityOrder(t *testing.T) {
	pools := NewPools(100, 50)
	alloc := pools.Allocator()

	l1, err := alloc.Reserve(80)
	require.NoError(t, err)
	assert.Equal(t, PoolAuxiliary, l1.Pool())

	// Auxiliary has 20 left, so 40 spills to primary.
	l2, err := alloc.Reserve(40)
	require.NoError(t, err)
	assert.Equal(t, PoolPrimary, l2.Pool())

	_, err = alloc.Reserve(30)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)

	assert.Equal(t, int64(120), pools.Used())
	assert.Equal(t, int64(20), pools.FreeAuxiliary())
	assert.Equal(t, int64(10), pools.FreePrimary())

	l1.Release()
	l1.Release()
	l2.Release()
	assert.Zero(t, pools.Used())
}

func TestAllocator_Nil(t *testing.T) {
	var alloc *Allocator

	lease, err := alloc.Reserve(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), lease.Bytes())
	lease.Release()

	var nilLease *Lease
	nilLease.Release()
	assert.Zero(t, nilLease.Bytes())
}
