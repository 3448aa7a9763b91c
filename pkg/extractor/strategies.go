package extractor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xhad/projfilter/internal/models"
)

var (
	nameLabels = []string{
		"project:",
		"project name:",
		"project title:",
		"title:",
		"nombre del proyecto:",
	}

	descriptionLabels = []string{
		"description:",
		"project description:",
		"summary:",
		"descripción:",
		"descripcion:",
		"resumen:",
	}

	// Field labels that end a multi-line description.
	fieldLabels = []string{
		"budget:",
		"cost:",
		"date:",
		"presupuesto:",
		"costo:",
		"fecha:",
	}
)

// labeledStrategy reads "Project: ..." / "Description: ..." style fields.
type labeledStrategy struct {
	nameLabels        []string
	descriptionLabels []string
	stopLabels        []string
}

func newLabeledStrategy() labeledStrategy {
	stop := make([]string, 0, len(nameLabels)+len(fieldLabels))
	stop = append(stop, nameLabels...)
	stop = append(stop, fieldLabels...)

	return labeledStrategy{
		nameLabels:        nameLabels,
		descriptionLabels: descriptionLabels,
		stopLabels:        stop,
	}
}

func (labeledStrategy) Name() StrategyName {
	return StrategyLabeled
}

func (s labeledStrategy) Extract(lines []string) []models.ProjectRecord {
	var records []models.ProjectRecord
	var current *models.ProjectRecord

	for i, line := range lines {
		if hasLabel(line, s.nameLabels) {
			if current != nil {
				records = append(records, *current)
			}
			current = &models.ProjectRecord{Name: labelValue(line)}
			continue
		}

		if current == nil || !hasLabel(line, s.descriptionLabels) {
			continue
		}

		parts := []string{labelValue(line)}
		for _, next := range lines[i+1:] {
			if hasLabel(next, s.stopLabels) {
				break
			}
			parts = append(parts, next)
		}
		current.Description = strings.TrimSpace(strings.Join(parts, " "))
	}

	if current != nil {
		records = append(records, *current)
	}

	return records
}

// hasLabel reports whether line starts with one of labels, ignoring case.
func hasLabel(line string, labels []string) bool {
	lower := strings.ToLower(line)
	for _, label := range labels {
		if strings.HasPrefix(lower, label) {
			return true
		}
	}
	return false
}

// labelValue returns the trimmed text after the first colon.
func labelValue(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(value)
}

// tableStrategy treats the lines after a "Project Name" style header as rows
// of "<name> <description>".
type tableStrategy struct{}

func (tableStrategy) Name() StrategyName {
	return StrategyTable
}

func (tableStrategy) Extract(lines []string) []models.ProjectRecord {
	header := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "project") &&
			(strings.Contains(lower, "name") || strings.Contains(lower, "title")) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}

	var records []models.ProjectRecord
	for _, line := range lines[header+1:] {
		line = strings.TrimSpace(line)
		split := strings.IndexFunc(line, unicode.IsSpace)
		if split < 0 {
			continue
		}
		records = append(records, models.ProjectRecord{
			Name:        line[:split],
			Description: strings.TrimSpace(line[split:]),
		})
	}

	return records
}

// chunkStrategy groups runs of long lines into sections.
type chunkStrategy struct {
	minLineLength  int
	minChunkLength int
	maxChunks      int
	maxTitleLength int
}

func (chunkStrategy) Name() StrategyName {
	return StrategyChunks
}

func (s chunkStrategy) Extract(lines []string) []models.ProjectRecord {
	var chunks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, " ")
		if utf8.RuneCountInString(joined) > s.minChunkLength {
			chunks = append(chunks, joined)
		}
		current = nil
	}

	for _, line := range lines {
		if utf8.RuneCountInString(line) > s.minLineLength {
			current = append(current, line)
			continue
		}
		flush()
	}
	flush()

	if len(chunks) > s.maxChunks {
		chunks = chunks[:s.maxChunks]
	}

	records := make([]models.ProjectRecord, 0, len(chunks))
	for i, chunk := range chunks {
		sentence, _, _ := strings.Cut(chunk, ".")
		title := truncate(strings.TrimSpace(sentence), s.maxTitleLength)
		records = append(records, models.ProjectRecord{
			Name:        fmt.Sprintf("Section %d: %s", i+1, title),
			Description: chunk,
		})
	}

	return records
}
