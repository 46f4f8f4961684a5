// Package precompute builds the reverse index from CRC digests of
// 5-digit values back to the values themselves.
package precompute

import (
	"context"
	"fmt"
	"hash/crc32"
	"runtime"

	"crc32-rainbow/internal/checksum"

	"golang.org/x/sync/errgroup"
)

const (
	// DomainSize is the number of payload values (0..99,999) indexed.
	DomainSize = 100_000

	// DomainDigits is the decimal width covered by the index.
	DomainDigits = 5

	// Number of buckets, keyed by the upper 16 bits of a digest
	numBuckets = 1 << 16

	// Values per digest job handed to a worker
	chunkSize = 4096
)

// Index is a reverse-lookup table from digest to domain value. Entries are
// sorted by bucket; bucket k occupies [starts[k], starts[k+1]) of the
// parallel hashes and values arrays. An Index is immutable once built and is
// safe for concurrent use.
type Index struct {
	hashes []uint32 // digests, grouped by bucket
	values []uint32 // domain value paired with each digest
	starts []uint32 // numBuckets+1 bucket start offsets
}

// Options control how an Index is built.
type Options struct {
	// Workers is the number of goroutines computing digests.
	// If 0 or negative, runtime.NumCPU() is used.
	Workers int

	// Progress, if set, receives a message as each phase completes.
	Progress func(string)
}

// Build computes the digest of every domain value with tab and sorts the
// results into buckets with a counting sort. Build fails only if ctx ends
// before the digest pass completes.
func Build(ctx context.Context, tab *crc32.Table, opts *Options) (*Index, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	progress := func(msg string) {
		if o.Progress != nil {
			o.Progress(msg)
		}
	}

	// Phase 1: digest every value in the domain
	digests, err := computeDigests(ctx, tab, o.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digests: %w", err)
	}
	progress(fmt.Sprintf("Computed %d digests", len(digests)))

	// Phase 2: histogram by bucket, then an inclusive running sum so that
	// each slot holds the offset one past the end of its bucket.
	starts := make([]uint32, numBuckets+1)
	for _, d := range digests {
		starts[d>>16]++
	}
	for k := 1; k < len(starts); k++ {
		starts[k] += starts[k-1]
	}

	// Phase 3: place each entry by decrementing its bucket slot. Afterwards
	// every slot holds the start of its bucket and the sentinel holds the
	// total entry count.
	idx := &Index{
		hashes: make([]uint32, DomainSize),
		values: make([]uint32, DomainSize),
		starts: starts,
	}
	for n, d := range digests {
		k := d >> 16
		starts[k]--
		pos := starts[k]
		idx.hashes[pos] = d
		idx.values[pos] = uint32(n)
	}
	progress(fmt.Sprintf("Placed %d entries into %d buckets", DomainSize, numBuckets))

	return idx, nil
}

// computeDigests fills a slice with the unpadded digest of every domain
// value, splitting the domain into chunks processed by a worker pool.
func computeDigests(ctx context.Context, tab *crc32.Table, workers int) ([]uint32, error) {
	// Use runtime.NumCPU() if workers is 0 or negative
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	digests := make([]uint32, DomainSize)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for lo := 0; lo < DomainSize; lo += chunkSize {
		hi := min(lo+chunkSize, DomainSize)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for n := lo; n < hi; n++ {
				digests[n] = checksum.Digest(uint32(n), false, tab)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// Lookup returns every domain value whose digest equals digest. The result
// is empty if there is no preimage in the domain.
func (x *Index) Lookup(digest uint32) []uint32 {
	return x.AppendLookup(nil, digest)
}

// AppendLookup appends every domain value whose digest equals digest to dst
// and returns the extended slice.
func (x *Index) AppendLookup(dst []uint32, digest uint32) []uint32 {
	k := digest >> 16
	for i := x.starts[k]; i < x.starts[k+1]; i++ {
		if x.hashes[i] == digest {
			dst = append(dst, x.values[i])
		}
	}
	return dst
}

// Bucket reports the range of entries whose digests have upper bits k.
func (x *Index) Bucket(k uint16) (start, end int) {
	return int(x.starts[k]), int(x.starts[int(k)+1])
}

// Len reports the number of entries in the index.
func (x *Index) Len() int { return len(x.hashes) }
