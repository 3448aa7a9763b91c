package enricher

import (
	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/keywords"
)

// Enricher tags project records with the keywords found in their name and
// description.
type Enricher struct {
	matcher *keywords.Matcher
}

func New(matcher *keywords.Matcher) *Enricher {
	if matcher == nil {
		matcher = keywords.New(nil)
	}
	return &Enricher{matcher: matcher}
}

// Enrich returns a new annotated record; the input is left untouched.
// Both keyword sets are always non-nil.
func (e *Enricher) Enrich(record models.ProjectRecord) models.AnnotatedRecord {
	return models.AnnotatedRecord{
		ProjectRecord:       record,
		NameKeywords:        models.KeywordSet(e.matcher.Find(record.Name)),
		DescriptionKeywords: models.KeywordSet(e.matcher.Find(record.Description)),
	}
}

func (e *Enricher) EnrichAll(records []models.ProjectRecord) []models.AnnotatedRecord {
	annotated := make([]models.AnnotatedRecord, 0, len(records))
	for _, record := range records {
		annotated = append(annotated, e.Enrich(record))
	}
	return annotated
}
