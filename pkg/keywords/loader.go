package keywords

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrNoKeywordSource = errors.New("keyword source not found")
	ErrNoKeywords      = errors.New("no keywords loaded")
)

// Load reads one keyword per line. Blank lines are skipped and every entry is
// trimmed and lowercased.
func Load(r io.Reader) ([]string, error) {
	var keywords []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		kw := strings.ToLower(strings.TrimSpace(line))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading keywords: %w", err)
	}

	return keywords, nil
}

// LoadFile reads a keyword file. A missing file is reported as
// ErrNoKeywordSource so callers can stop before processing any document.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoKeywordSource, path)
		}
		return nil, fmt.Errorf("error opening keywords file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// NewFromFile loads path and builds a Matcher. It fails with ErrNoKeywords
// when the file holds no usable entries.
func NewFromFile(path string) (*Matcher, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	m := New(raw)
	if m.Len() == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoKeywords, path)
	}

	return m, nil
}

// WriteFile writes keywords one per line, creating or truncating path.
func WriteFile(path string, keywords []string) error {
	content := strings.Join(keywords, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("error writing keywords file: %w", err)
	}
	return nil
}
