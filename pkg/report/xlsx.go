package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xhad/projfilter/internal/models"
)

const (
	SheetAll     = "All Projects"
	SheetMatched = "Matched Projects"
	SheetSummary = "Summary"
)

// WriteXLSX writes a workbook with every record, the matched records (only
// when there are any) and the summary.
func WriteXLSX(w io.Writer, records []models.AnnotatedRecord, summary Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAll); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRecordSheet(f, SheetAll, records); err != nil {
		return err
	}

	if matched := Filter(records, FilterAny); len(matched) > 0 {
		if _, err := f.NewSheet(SheetMatched); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := writeRecordSheet(f, SheetMatched, matched); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := setRow(f, SheetSummary, 1, []interface{}{"Metric", "Value"}); err != nil {
		return err
	}
	for i, pair := range summary.Pairs() {
		if err := setRow(f, SheetSummary, i+2, []interface{}{pair[0], pair[1]}); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecordSheet(f *excelize.File, sheet string, records []models.AnnotatedRecord) error {
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, row := range NewRows(records) {
		values := []interface{}{row.Name, row.Description, row.NameKeywords, row.DescriptionKeywords}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
