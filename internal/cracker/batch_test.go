package cracker

import (
	"context"
	"hash/crc32"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrackAll(t *testing.T) {
	t.Parallel()

	e := defaultEngine()
	hashes := []string{
		fieldHash(42, 2),
		fieldHash(123456789, 9),
		fieldHash(7, 1),
		fieldHash(99999, 5),
	}

	results, err := CrackAll(context.Background(), e, hashes, &BatchOptions{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, len(hashes))

	want := []Match{{42, 2}, {123456789, 9}, {7, 1}, {99999, 5}}
	for i, r := range results {
		assert.Equal(t, hashes[i], r.Hash, "results should keep input order")
		assert.Equal(t, ParseHash(hashes[i]), r.Sum)
		assert.NoError(t, r.Err)
		assert.Contains(t, r.Matches, want[i])
	}
}

func TestCrackAll_Strict(t *testing.T) {
	t.Parallel()

	e := defaultEngine()
	hashes := []string{"not-a-hash", fieldHash(31337, 5), "123456789"}

	results, err := CrackAll(context.Background(), e, hashes, &BatchOptions{Strict: true})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, ErrInvalidHash)
	assert.Empty(t, results[0].Matches)
	assert.NoError(t, results[1].Err)
	assert.Contains(t, results[1].Matches, Match{31337, 5})
	assert.ErrorIs(t, results[2].Err, ErrInvalidHash)
}

func TestCrackAll_Verify(t *testing.T) {
	t.Parallel()

	e := defaultEngine()
	sum := crc32.ChecksumIEEE([]byte("271828182"))
	hash := FormatHash(sum)

	results, err := CrackAll(context.Background(), e, []string{hash}, &BatchOptions{Verify: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Contains(t, results[0].Matches, Match{271828182, 9})
	for _, m := range results[0].Matches {
		assert.True(t, e.Verify(m, sum), "unverified match %+v", m)
	}
}

func TestCrackAll_Progress(t *testing.T) {
	t.Parallel()

	e := MustNew(&Options{MaxWidth: 5})
	hashes := make([]string, 250)
	for i := range hashes {
		hashes[i] = fieldHash(uint32(i), 5)
	}

	var mu sync.Mutex
	var messages []string
	_, err := CrackAll(context.Background(), e, hashes, &BatchOptions{
		Workers: 4,
		Progress: func(msg string) {
			mu.Lock()
			defer mu.Unlock()
			messages = append(messages, msg)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Cracked 100/250 hashes",
		"Cracked 200/250 hashes",
		"Cracked 250/250 hashes",
	}, messages)
}

func TestCrackAll_Empty(t *testing.T) {
	t.Parallel()

	results, err := CrackAll(context.Background(), defaultEngine(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCrackAll_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := CrackAll(ctx, defaultEngine(), []string{"11", "22"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}
