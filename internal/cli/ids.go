package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// parseIDs splits a comma or whitespace separated list.
func parseIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// readIDs reads one id per line. Blank lines and lines starting with # are
// skipped; anything after the first comma or whitespace is ignored.
func readIDs(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if fields := parseIDs(line); len(fields) > 0 {
			ids = append(ids, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ids: %w", err)
	}
	return ids, nil
}

// collectIDs merges --ids and --ids-file, dropping duplicates. A file of
// "-" reads stdin.
func collectIDs(list, file string) ([]string, error) {
	ids := parseIDs(list)

	if file != "" {
		var r io.Reader = os.Stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, fmt.Errorf("open ids file: %w", err)
			}
			defer f.Close()
			r = f
		}
		fromFile, err := readIDs(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}

	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
