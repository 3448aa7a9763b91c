package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xhad/projfilter/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

type WriterConfig struct {
	Dir     string
	Formats []string
	Now     func() time.Time
}

// Writer saves one file per format for every processed document. Documents
// that share a base name get numbered names (_2, _3, ...) so no report
// replaces another.
type Writer struct {
	config WriterConfig

	mu   sync.Mutex
	used map[string]bool
}

func NewWriter(config WriterConfig) (*Writer, error) {
	if config.Dir == "" {
		config.Dir = "output"
	}
	if len(config.Formats) == 0 {
		config.Formats = []string{FormatCSV, FormatXLSX}
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	for _, format := range config.Formats {
		if format != FormatCSV && format != FormatXLSX {
			return nil, fmt.Errorf("unsupported output format: %s", format)
		}
	}

	return &Writer{config: config, used: make(map[string]bool)}, nil
}

// Write saves the records of result and returns the paths written.
func (w *Writer) Write(result models.DocumentResult) ([]string, error) {
	if err := os.MkdirAll(w.config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	now := w.config.Now()
	base := strings.TrimSuffix(filepath.Base(result.Document.Name), filepath.Ext(result.Document.Name))
	if base == "" || base == "." {
		base = "document"
	}
	stem := w.reserve(fmt.Sprintf("%s_keyword_analysis_%s", base, now.Format("20060102_150405")))

	var paths []string
	for _, format := range w.config.Formats {
		path := filepath.Join(w.config.Dir, stem+"."+format)

		err := writeFile(path, func(out io.Writer) error {
			if format == FormatCSV {
				return WriteCSV(out, result.Records)
			}
			return WriteXLSX(out, result.Records, NewSummary(result, now))
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// reserve returns the first free variant of stem: stem itself, then stem_2,
// stem_3 and so on. A variant is taken when this writer handed it out before
// or a file for any configured format already exists.
func (w *Writer) reserve(stem string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	candidate := stem
	for n := 2; w.taken(candidate); n++ {
		candidate = fmt.Sprintf("%s_%d", stem, n)
	}
	w.used[candidate] = true
	return candidate
}

func (w *Writer) taken(stem string) bool {
	if w.used[stem] {
		return true
	}
	for _, format := range w.config.Formats {
		if _, err := os.Stat(filepath.Join(w.config.Dir, stem+"."+format)); err == nil {
			return true
		}
	}
	return false
}

// writeFile creates path exclusively; an existing file is an error, never
// overwritten.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}
