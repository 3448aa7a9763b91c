package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xhad/projfilter/internal/models"
)

// WriteCSV writes a header line followed by one line per record.
func WriteCSV(w io.Writer, records []models.AnnotatedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range NewRows(records) {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
