package cracker

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Progress reporting interval for batch cracking
const batchReportInterval = 100

// BatchOptions control CrackAll.
type BatchOptions struct {
	// Workers is the number of concurrent queries.
	// If 0 or negative, runtime.NumCPU() is used.
	Workers int

	// Strict rejects hashes that ParseHashStrict does not accept. The error
	// is recorded on the affected Result and the batch continues.
	Strict bool

	// Verify drops matches that do not reproduce the checksum.
	Verify bool

	// Progress, if set, receives periodic status messages.
	Progress func(string)
}

// Result is the outcome of cracking one hash in a batch.
type Result struct {
	Hash    string
	Sum     uint32
	Matches []Match
	Err     error
}

// CrackAll cracks every hash in hashes using a worker pool. Results are
// returned in input order. CrackAll reports an error only if ctx ends; parse
// failures under Strict are reported per Result.
func CrackAll(ctx context.Context, e *Engine, hashes []string, opts *BatchOptions) ([]Result, error) {
	var o BatchOptions
	if opts != nil {
		o = *opts
	}
	workerPoolSize := o.Workers
	if workerPoolSize <= 0 {
		workerPoolSize = runtime.NumCPU()
	}

	results := make([]Result, len(hashes))
	done := make(chan int, workerPoolSize)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workerPoolSize)

	// Report progress from a single collector so messages stay ordered
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		count := 0
		for range done {
			count++
			if o.Progress != nil && (count%batchReportInterval == 0 || count == len(hashes)) {
				o.Progress(fmt.Sprintf("Cracked %d/%d hashes", count, len(hashes)))
			}
		}
	}()

	for i, h := range hashes {
		eg.Go(func() error {
			res, err := crackOne(ctx, e, h, o)
			if err != nil {
				return err
			}
			results[i] = res
			done <- i
			return nil
		})
	}

	err := eg.Wait()
	close(done)
	<-collected
	if err != nil {
		return nil, err
	}
	return results, nil
}

// crackOne cracks a single hash for CrackAll. Only context errors are
// returned; parse errors are recorded on the Result.
func crackOne(ctx context.Context, e *Engine, hash string, o BatchOptions) (Result, error) {
	res := Result{Hash: hash}
	if o.Strict {
		sum, err := ParseHashStrict(hash)
		if err != nil {
			res.Err = err
			return res, nil
		}
		res.Sum = sum
	} else {
		res.Sum = ParseHash(hash)
	}

	ms, err := e.Matches(ctx, res.Sum)
	if err != nil {
		return Result{}, err
	}
	if o.Verify {
		ms = e.Verified(ms, res.Sum)
	}
	res.Matches = ms
	return res, nil
}

// Verified returns the subset of ms that reproduce sum.
func (e *Engine) Verified(ms []Match, sum uint32) []Match {
	var out []Match
	for _, m := range ms {
		if e.Verify(m, sum) {
			out = append(out, m)
		}
	}
	return out
}
