package cracker

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadHashes reads one hash per line from a file. Each line is trimmed of
// whitespace; blank lines and lines starting with '#' are skipped.
func LoadHashes(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer f.Close()

	var hashes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hashes = append(hashes, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}

	return hashes, nil
}

// FormatResult renders a result as a single line: the hash, a tab, and the
// comma-separated candidates. When fields is true each candidate is written
// as its zero-padded field instead of a bare integer. A failed result is
// written with its error.
func FormatResult(r Result, fields bool) string {
	if r.Err != nil {
		return r.Hash + "\terror: " + r.Err.Error()
	}
	parts := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		if fields {
			parts[i] = m.Field()
		} else {
			parts[i] = strconv.FormatUint(uint64(m.Value), 10)
		}
	}
	return r.Hash + "\t" + strings.Join(parts, ",")
}

// WriteResults writes results to a plain text file, one per line.
func WriteResults(results []Result, outputPath string, fields bool) error {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(FormatResult(r, fields))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	return nil
}
