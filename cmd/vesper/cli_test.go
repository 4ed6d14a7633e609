package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBtcToSats(t *testing.T) {
	tests := []struct {
		amount   string
		expected uint64
		wantErr  bool
	}{
		{"0.001", 100000, false},
		{"1", 100000000, false},
		{"0.00000001", 1, false},
		{"21000000", 2100000000000000, false},
		{"0.000000001", 0, true},
		{"-1", 0, true},
		{"0", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			sats, err := btcToSats(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sats)
		})
	}
}

func TestSatsToBTC(t *testing.T) {
	assert.Equal(t, "0.00100000", satsToBTC(100000))
	assert.Equal(t, "1.00000000", satsToBTC(100000000))
	assert.Equal(t, "0.00000000", satsToBTC(0))
}

func TestMergeState(t *testing.T) {
	merged := merge(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": "4"},
	)
	assert.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, merged)
}
