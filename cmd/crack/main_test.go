package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{
			name:     "zero duration",
			duration: 0,
			want:     "0s",
		},
		{
			name:     "one second",
			duration: 1 * time.Second,
			want:     "1s",
		},
		{
			name:     "index build rounds to nearest second",
			duration: 1500 * time.Millisecond,
			want:     "2s",
		},
		{
			name:     "29 minutes 59 seconds",
			duration: 29*time.Minute + 59*time.Second,
			want:     "29m59s",
		},
		{
			name:     "159 minutes 59 seconds",
			duration: 159*time.Minute + 59*time.Second,
			want:     "159m59s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatElapsed(tt.duration)
			assert.Equal(t, tt.want, got, "formatElapsed should return expected format for %v", tt.duration)
		})
	}
}

func TestBenchCases(t *testing.T) {
	cases := benchCases(rand.New(rand.NewPCG(1, 1)), 500)
	require.Len(t, cases, 500)

	lengths := make(map[int]bool)
	for _, c := range cases {
		require.GreaterOrEqual(t, len(c), 1)
		require.LessOrEqual(t, len(c), 8)
		lengths[len(c)] = true

		seen := make(map[rune]bool)
		for _, r := range c {
			assert.Contains(t, hexDigits, string(r))
			assert.False(t, seen[r], "case %q repeats %q", c, r)
			seen[r] = true
		}
	}
	assert.Len(t, lengths, 8, "every length from 1 to 8 should occur")

	again := benchCases(rand.New(rand.NewPCG(1, 1)), 500)
	assert.Equal(t, cases, again, "cases should be reproducible from the seed")
}
