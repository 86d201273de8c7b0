package brute

import (
	"bufio"
	"os"
	"strings"
)

// LoadList resolves a user/password specification: a path to an existing
// file yields its non-empty lines in order, anything else yields the spec
// itself as a single-element list. An empty spec yields nil, which in turn
// generates zero pairs.
func LoadList(spec string) ([]string, error) {
	if spec == "" {
		return nil, nil
	}

	info, err := os.Stat(spec)
	if err != nil || info.IsDir() {
		return []string{spec}, nil
	}

	f, err := os.Open(spec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	return entries, scanner.Err()
}
