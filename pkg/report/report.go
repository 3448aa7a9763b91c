// Package report renders annotated records as rows and writes them to CSV
// and XLSX files.
package report

import (
	"strings"
	"time"

	"github.com/xhad/projfilter/internal/models"
)

// NoneMarker is written in a keyword column when nothing matched.
const NoneMarker = "None"

const (
	ColumnName                = "Project Name"
	ColumnDescription         = "Project Description"
	ColumnNameKeywords        = "Keywords Found in Project Name"
	ColumnDescriptionKeywords = "Keywords Found in Project Description"
)

var Header = []string{
	ColumnName,
	ColumnDescription,
	ColumnNameKeywords,
	ColumnDescriptionKeywords,
}

// Row is the exported shape of an annotated record.
type Row struct {
	Name                string `json:"project_name"`
	Description         string `json:"project_description"`
	NameKeywords        string `json:"keywords_in_name"`
	DescriptionKeywords string `json:"keywords_in_description"`
}

func NewRow(record models.AnnotatedRecord) Row {
	return Row{
		Name:                record.Name,
		Description:         record.Description,
		NameKeywords:        RenderKeywords(record.NameKeywords),
		DescriptionKeywords: RenderKeywords(record.DescriptionKeywords),
	}
}

func NewRows(records []models.AnnotatedRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewRow(r))
	}
	return rows
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{r.Name, r.Description, r.NameKeywords, r.DescriptionKeywords}
}

// RenderKeywords joins the set with ", " or returns NoneMarker when empty.
func RenderKeywords(set models.KeywordSet) string {
	if !set.Present() {
		return NoneMarker
	}
	return strings.Join(set, ", ")
}

type FilterMode string

const (
	FilterAll         FilterMode = "all"
	FilterName        FilterMode = "name"
	FilterDescription FilterMode = "description"
	FilterAny         FilterMode = "any"
)

// Filter keeps the records matching mode. Unknown modes keep everything.
func Filter(records []models.AnnotatedRecord, mode FilterMode) []models.AnnotatedRecord {
	if mode == FilterAll || mode == "" {
		return records
	}

	var out []models.AnnotatedRecord
	for _, r := range records {
		switch mode {
		case FilterName:
			if r.NameKeywords.Present() {
				out = append(out, r)
			}
		case FilterDescription:
			if r.DescriptionKeywords.Present() {
				out = append(out, r)
			}
		case FilterAny:
			if r.Matched() {
				out = append(out, r)
			}
		default:
			out = append(out, r)
		}
	}
	return out
}

// Summary is the per-document overview written next to the records.
type Summary struct {
	models.Stats
	ProcessedAt time.Time
	Source      string
}

func NewSummary(result models.DocumentResult, at time.Time) Summary {
	return Summary{
		Stats:       result.Stats(),
		ProcessedAt: at,
		Source:      result.Document.Name,
	}
}

// Pairs returns the summary as metric/value pairs.
func (s Summary) Pairs() [][2]interface{} {
	return [][2]interface{}{
		{"Total Projects", s.Total},
		{"Projects with Name Matches", s.NameMatches},
		{"Projects with Description Matches", s.DescriptionMatches},
		{"Projects with Any Matches", s.AnyMatches},
		{"Processing Date", s.ProcessedAt.Format("2006-01-02 15:04:05")},
		{"Source File", s.Source},
	}
}
