// Package cracker recovers numeric preimages of the digit-wise CRC-32 scheme.
//
// An Engine precomputes the digest of every 5-digit payload once, then
// answers queries by hypothesizing the width of the zero-padded decimal field
// the checksum was computed over. Widths up to 5 reduce to a single index
// lookup; wider fields enumerate the high-order digits and look up the low
// five. An Engine is immutable after New and safe for concurrent use.
package cracker

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"time"

	"crc32-rainbow/internal/checksum"
	"crc32-rainbow/internal/precompute"

	"go.uber.org/zap"
)

const (
	// DefaultMaxWidth is the widest field hypothesis tried by default.
	DefaultMaxWidth = checksum.MaxWidth

	// Padding character assumed to precede the payload
	padChar = '0'

	// Conventional CRC-32 initial register and final complement
	register = 0xFFFFFFFF

	// Prefixes enumerated between cancellation checks
	cancelCheckInterval = 1024
)

// ErrInvalidWidth is reported by New for a MaxWidth outside 1..9.
var ErrInvalidWidth = errors.New("invalid max width")

// Options configure an Engine. A nil *Options is ready for use and selects
// the IEEE polynomial with every field width from 1 to 9.
type Options struct {
	// Polynomial is the reversed CRC-32 polynomial; nil means checksum.IEEE.
	// Any value is accepted, including zero.
	Polynomial *uint32

	// MaxWidth bounds the field-width hypotheses; zero means DefaultMaxWidth.
	MaxWidth int

	// Workers is the parallelism of the index build (see precompute.Options).
	Workers int

	// Logger receives diagnostics; nil discards them.
	Logger *zap.Logger

	// Progress, if set, receives index build phase messages.
	Progress func(string)
}

// Engine answers crack queries against a precomputed index.
type Engine struct {
	poly     uint32
	table    *crc32.Table
	index    *precompute.Index
	maxWidth int
	log      *zap.Logger
}

// Match is a single candidate preimage together with the field width
// hypothesis that produced it.
type Match struct {
	Value uint32 `json:"value"`
	Width int    `json:"width"`
}

// Field renders m as a zero-padded decimal field of its width.
func (m Match) Field() string { return fmt.Sprintf("%0*d", m.Width, m.Value) }

// New constructs an Engine, building its lookup table and index.
func New(opts *Options) (*Engine, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	poly := uint32(checksum.IEEE)
	if o.Polynomial != nil {
		poly = *o.Polynomial
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxWidth < 1 || o.MaxWidth > checksum.MaxWidth {
		return nil, fmt.Errorf("%w: %d (want 1 to %d)", ErrInvalidWidth, o.MaxWidth, checksum.MaxWidth)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	start := time.Now()
	tab := checksum.MakeTable(poly)
	idx, err := precompute.Build(context.Background(), tab, &precompute.Options{
		Workers:  o.Workers,
		Progress: o.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	elapsed := time.Since(start)
	buildDuration.Observe(elapsed.Seconds())

	o.Logger.Info("index built",
		zap.String("polynomial", FormatHash(poly)),
		zap.Int("entries", idx.Len()),
		zap.Int("max_width", o.MaxWidth),
		zap.Duration("elapsed", elapsed),
	)
	return &Engine{
		poly:     poly,
		table:    tab,
		index:    idx,
		maxWidth: o.MaxWidth,
		log:      o.Logger,
	}, nil
}

// MustNew is as New, but panics on error.
func MustNew(opts *Options) *Engine {
	e, err := New(opts)
	if err != nil {
		panic(err)
	}
	return e
}

// Polynomial reports the reversed polynomial the engine was built with.
func (e *Engine) Polynomial() uint32 { return e.poly }

// MaxWidth reports the widest field hypothesis the engine tries.
func (e *Engine) MaxWidth() int { return e.maxWidth }

// Entries reports the number of indexed domain values.
func (e *Engine) Entries() int { return e.index.Len() }

// Crack returns every candidate whose checksum matches hash under some field
// width hypothesis, in order of width and then lookup order. Candidates found
// under more than one width are reported once per width. The hash is parsed
// leniently (see ParseHash).
func (e *Engine) Crack(hash string) []uint32 {
	// Matches fails only when its context ends, and Background never does.
	ms, err := e.Matches(context.Background(), ParseHash(hash))
	if err != nil {
		panic(err)
	}
	out := make([]uint32, len(ms))
	for i, m := range ms {
		out[i] = m.Value
	}
	return out
}

// CrackContext is as Crack, but reports the width of each match and stops
// early with ctx's error if ctx ends.
func (e *Engine) CrackContext(ctx context.Context, hash string) ([]Match, error) {
	return e.Matches(ctx, ParseHash(hash))
}

// Matches searches for preimages of the finalized checksum sum.
func (e *Engine) Matches(ctx context.Context, sum uint32) ([]Match, error) {
	start := time.Now()
	var out []Match
	err := e.search(ctx, sum^register, func(m Match) { out = append(out, m) })
	crackDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		cracksTotal.WithLabelValues("canceled").Inc()
		return nil, err
	case len(out) == 0:
		cracksTotal.WithLabelValues("empty").Inc()
	default:
		cracksTotal.WithLabelValues("found").Inc()
		candidatesTotal.Add(float64(len(out)))
	}
	e.log.Debug("crack complete",
		zap.String("checksum", FormatHash(sum)),
		zap.Int("candidates", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// search feeds emit every match for the un-finalized register target.
//
// The rolling prefix register models the padding characters of a field of
// the current width. Widths within the index domain need one lookup; wider
// fields fix each high-order prefix p without a leading zero, cancel its
// contribution with a padded digest, and look up the low five digits.
func (e *Engine) search(ctx context.Context, target uint32, emit func(Match)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := uint32(register)
	lo := uint32(1) // smallest high-order prefix for the current width
	var buf []uint32
	for width := 1; width <= e.maxWidth; width++ {
		prefix = checksum.Update(prefix, e.table, padChar)
		if width <= precompute.DomainDigits {
			buf = e.index.AppendLookup(buf[:0], target^prefix)
			for _, v := range buf {
				emit(Match{Value: v, Width: width})
			}
			continue
		}

		hi := lo * 10
		for p := lo; p < hi; p++ {
			if (p-lo)%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			aux := checksum.Digest(p, true, e.table)
			buf = e.index.AppendLookup(buf[:0], target^prefix^aux)
			for _, v := range buf {
				emit(Match{Value: p*precompute.DomainSize + v, Width: width})
			}
		}
		lo = hi
	}
	return nil
}

// Checksum computes the externally visible checksum of value written as a
// zero-padded field of the given width.
func (e *Engine) Checksum(value uint32, width int) (uint32, error) {
	return checksum.FieldChecksum(value, width, e.table)
}

// Verify reports whether m reproduces the checksum sum when written as a
// field of its width. Matches from narrow hypotheses whose value has more
// digits than the width do not verify.
func (e *Engine) Verify(m Match, sum uint32) bool {
	got, err := e.Checksum(m.Value, m.Width)
	return err == nil && got == sum
}
