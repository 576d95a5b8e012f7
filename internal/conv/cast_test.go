//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	tests := []struct {
		in      int
		want    uint32
		wantErr bool
	}{
		{0, 0, false},
		{4500, 4500, false},
		{math.MaxUint32, math.MaxUint32, false},
		{-1, 0, true},
		{math.MaxUint32 + 1, 0, true},
	}

	for _, tt := range tests {
		got, err := IntToUint32(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
