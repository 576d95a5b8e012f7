package sysmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbe(t *testing.T) {
	p := New(0)
	assert.Positive(t, p.FreeAuxiliary())
	assert.Zero(t, p.FreePrimary())

	capped := New(1 << 10)
	assert.LessOrEqual(t, capped.FreeAuxiliary(), int64(1<<10))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int64(42), clamp(42))
	assert.Equal(t, int64(1<<63-1), clamp(1<<63))
}
