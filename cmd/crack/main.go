// Program crack recovers numeric preimages of digit-wise CRC-32 checksums.
package main

import (
	"fmt"
	"os"
	"time"

	"crc32-rainbow/internal/config"
	"crc32-rainbow/internal/cracker"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"go.uber.org/zap"
)

// settings is the shared state handed to subcommands through env.Config.
type settings struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	var flags struct {
		Config string `flag:"config,default=$CRC32RAINBOW_CONFIG,Configuration file path"`
		Debug  bool   `flag:"debug,Enable debug logging"`
	}
	root := &command.C{
		Name: command.ProgramName(),
		Help: `Recover numeric preimages of digit-wise CRC-32 checksums.

A checksum is assumed to cover a non-negative integer below 10^9 written
as a zero-padded decimal field of 1 to 9 characters. Each query reports
every candidate value under every field width, so results may include
false positives. Use --verify on the crack subcommand to keep only the
candidates that reproduce the checksum.

Use --config to name a YAML configuration file, or set the
CRC32RAINBOW_CONFIG environment variable.`,

		SetFlags: command.Flags(flax.MustBind, &flags),

		Init: func(env *command.Env) error {
			cfg, err := config.Load(flags.Config)
			if err != nil {
				return err
			}
			if flags.Debug {
				cfg.Log.Level = "debug"
				cfg.Log.Development = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := cfg.Log.Build()
			if err != nil {
				return err
			}
			env.Config = &settings{cfg: cfg, log: logger}
			return nil
		},

		Commands: append(commands,
			command.HelpCommand(nil),
			command.VersionCommand(),
		),
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

// newEngine builds an engine from the configured engine settings, reporting
// index build progress through progress if it is set.
func newEngine(env *command.Env, progress func(string)) (*cracker.Engine, *settings, error) {
	s := env.Config.(*settings)
	poly, err := s.cfg.Engine.PolynomialValue()
	if err != nil {
		return nil, nil, err
	}
	e, err := cracker.New(&cracker.Options{
		Polynomial: &poly,
		MaxWidth:   s.cfg.Engine.MaxWidth,
		Workers:    s.cfg.Engine.Workers,
		Logger:     s.log,
		Progress:   progress,
	})
	if err != nil {
		return nil, nil, err
	}
	return e, s, nil
}

// progressPrinter returns a callback that prints msg prefixed by the time
// elapsed since start.
func progressPrinter(start time.Time) func(string) {
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", formatElapsed(time.Since(start)), msg)
	}
}

// formatElapsed formats a duration into a human-readable elapsed time string
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes > 0 {
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
