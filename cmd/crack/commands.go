package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"crc32-rainbow/internal/cracker"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/mds/value"
)

var commands = []*command.C{
	{
		Name:  "crack",
		Usage: "[hash ...]",
		Help: `Find candidate preimages for each hash.

Hashes are read from the command line and from --input, one per line.
Blank lines and lines starting with '#' in the input file are ignored.
Each result is printed as the hash, a tab, and the comma-separated
candidates. Use --fields to print candidates as zero-padded fields.

Hashes are parsed leniently unless --strict is set or the configuration
enables strict parsing: characters that are not hex digits count as 0.`,
		SetFlags: command.Flags(flax.MustBind, &crackFlags),
		Run:      command.Adapt(runCrack),
	},
	{
		Name:  "digest",
		Usage: "<value> ...",
		Help: `Print the checksum of each value written as a decimal field.

By default the field is the value as written on the command line,
so "042" is checksummed with its leading zero. Use --width to pad
every value to a fixed field width instead.`,
		SetFlags: command.Flags(flax.MustBind, &digestFlags),
		Run:      command.Adapt(runDigest),
	},
	{
		Name: "bench",
		Help: `Crack random hex strings and report the elapsed time.

Each case is 1 to 8 distinct hex digits, matching the shape of the
checksums the engine was first benchmarked against.`,
		SetFlags: command.Flags(flax.MustBind, &benchFlags),
		Run:      command.Adapt(runBench),
	},
}

var crackFlags struct {
	Input   string `flag:"input,Read hashes from this file"`
	Output  string `flag:"output,Write results to this file instead of stdout"`
	Workers int    `flag:"workers,Number of concurrent queries (0 uses the configured value)"`
	Strict  bool   `flag:"strict,Reject hashes that are not 1 to 8 hex digits"`
	Verify  bool   `flag:"verify,Keep only candidates that reproduce the checksum"`
	Fields  bool   `flag:"fields,Print candidates as zero-padded fields"`
}

// runCrack implements the "crack" subcommand.
func runCrack(env *command.Env, args ...string) error {
	hashes := args
	if crackFlags.Input != "" {
		loaded, err := cracker.LoadHashes(crackFlags.Input)
		if err != nil {
			return err
		}
		hashes = append(hashes, loaded...)
	}
	if len(hashes) == 0 {
		return env.Usagef("no hashes to crack; provide arguments or --input")
	}

	start := time.Now()
	progress := progressPrinter(start)
	e, s, err := newEngine(env, progress)
	if err != nil {
		return err
	}

	workers := value.Cond(crackFlags.Workers > 0, crackFlags.Workers, s.cfg.Engine.Workers)
	results, err := cracker.CrackAll(env.Context(), e, hashes, &cracker.BatchOptions{
		Workers:  workers,
		Strict:   crackFlags.Strict || s.cfg.Engine.Strict,
		Verify:   crackFlags.Verify,
		Progress: value.Cond[func(string)](crackFlags.Output != "", progress, nil),
	})
	if err != nil {
		return err
	}

	if crackFlags.Output != "" {
		if err := cracker.WriteResults(results, crackFlags.Output, crackFlags.Fields); err != nil {
			return err
		}
		progress(fmt.Sprintf("Wrote %d results to %s", len(results), crackFlags.Output))
		return nil
	}
	for _, r := range results {
		fmt.Println(cracker.FormatResult(r, crackFlags.Fields))
	}
	return nil
}

var digestFlags struct {
	Width int `flag:"width,Pad each value to this field width"`
}

// runDigest implements the "digest" subcommand.
func runDigest(env *command.Env, values ...string) error {
	if len(values) == 0 {
		return env.Usagef("no values to digest")
	}
	e, _, err := newEngine(env, nil)
	if err != nil {
		return err
	}
	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", v, err)
		}
		width := value.Cond(digestFlags.Width > 0, digestFlags.Width, len(v))
		sum, err := e.Checksum(uint32(n), width)
		if err != nil {
			return fmt.Errorf("value %q: %w", v, err)
		}
		fmt.Printf("%0*d\t%s\n", width, n, cracker.FormatHash(sum))
	}
	return nil
}

var benchFlags struct {
	N    int    `flag:"n,default=100,Number of random hashes to crack"`
	Seed uint64 `flag:"seed,Random seed (0 picks one from the clock)"`
}

const hexDigits = "0123456789abcdef"

// runBench implements the "bench" subcommand.
func runBench(env *command.Env) error {
	if benchFlags.N <= 0 {
		return env.Usagef("--n must be positive")
	}
	seed := value.Cond(benchFlags.Seed != 0, benchFlags.Seed, uint64(time.Now().UnixNano()))
	cases := benchCases(rand.New(rand.NewPCG(seed, seed)), benchFlags.N)

	start := time.Now()
	e, _, err := newEngine(env, progressPrinter(start))
	if err != nil {
		return err
	}
	buildTime := time.Since(start)

	fmt.Printf("cracking %d cases (seed %d)\n", len(cases), seed)
	start = time.Now()
	var candidates int
	for _, c := range cases {
		candidates += len(e.Crack(c))
	}
	crackTime := time.Since(start)

	fmt.Printf("  index build: %v\n", buildTime.Round(time.Millisecond))
	fmt.Printf("  cracking:    %v (%v per hash)\n",
		crackTime.Round(time.Millisecond), (crackTime / time.Duration(len(cases))).Round(time.Microsecond))
	fmt.Printf("  candidates:  %d\n", candidates)
	return nil
}

// benchCases generates n strings of 1 to 8 distinct hex digits.
func benchCases(r *rand.Rand, n int) []string {
	cases := make([]string, n)
	for i := range cases {
		digits := []byte(hexDigits)
		r.Shuffle(len(digits), func(a, b int) { digits[a], digits[b] = digits[b], digits[a] })
		cases[i] = string(digits[:1+r.IntN(8)])
	}
	return cases
}
