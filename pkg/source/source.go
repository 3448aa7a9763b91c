// Package source discovers input documents on disk and reads them as text.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/xhad/projfilter/internal/models"
)

// ErrUnsupported is returned for files whose text cannot be read.
var ErrUnsupported = errors.New("unsupported document format")

// DefaultExtensions are the file types picked up when walking a directory.
var DefaultExtensions = []string{".txt", ".text", ".md", ".html", ".htm"}

// Discover expands paths into a sorted list of files. Directories are walked
// and filtered by extension; files named explicitly are always kept.
func Discover(paths []string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !info.IsDir() {
			add(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasExtension(path, extensions) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// ReadFile loads a document from disk. Plain text and markdown are read as-is
// and HTML is reduced to its text.
func ReadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var content string
	switch ext {
	case ".txt", ".text", ".md", "":
		content = decodeText(data)
	case ".html", ".htm":
		content, err = HTMLText(bytes.NewReader(data))
		if err != nil {
			return models.Document{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return models.Document{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	return models.Document{
		ID:      uuid.NewString(),
		Name:    filepath.Base(path),
		Source:  path,
		Content: content,
		Metadata: map[string]interface{}{
			"extension": ext,
			"size":      len(data),
		},
	}, nil
}

// decodeText strips a UTF-8 BOM and replaces invalid byte sequences with
// U+FFFD.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
