package enricher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/enricher"
	"github.com/xhad/projfilter/pkg/extractor"
	"github.com/xhad/projfilter/pkg/keywords"
)

func TestEnrich(t *testing.T) {
	e := enricher.New(keywords.New([]string{"dairy", "cattle"}))

	record := models.ProjectRecord{Name: "Dairy Farm", Description: "Improving cattle health."}
	annotated := e.Enrich(record)

	assert.Equal(t, record, annotated.ProjectRecord)
	assert.Equal(t, models.KeywordSet{"dairy"}, annotated.NameKeywords)
	assert.Equal(t, models.KeywordSet{"cattle"}, annotated.DescriptionKeywords)
	assert.True(t, annotated.Matched())
}

func TestEnrich_EndToEnd(t *testing.T) {
	e := enricher.New(keywords.New([]string{"dairy", "cattle"}))
	x := extractor.New()

	result := x.Extract([]string{
		"Project: Dairy Farm",
		"Description: Improving cattle health.",
	}, "scenario.txt")

	records := e.EnrichAll(result.Records)
	require.Len(t, records, 1)
	assert.Equal(t, "Dairy Farm", records[0].Name)
	assert.Equal(t, "Improving cattle health.", records[0].Description)
	assert.Equal(t, models.KeywordSet{"dairy"}, records[0].NameKeywords)
	assert.Equal(t, models.KeywordSet{"cattle"}, records[0].DescriptionKeywords)
}

func TestEnrich_NoKeywords(t *testing.T) {
	e := enricher.New(keywords.New(nil))

	records := e.EnrichAll([]models.ProjectRecord{
		{Name: "Dairy Farm", Description: "Improving cattle health."},
		{Name: "", Description: ""},
	})

	require.Len(t, records, 2)
	for _, r := range records {
		assert.NotNil(t, r.NameKeywords)
		assert.NotNil(t, r.DescriptionKeywords)
		assert.False(t, r.Matched())
	}
}

func TestEnrich_NilMatcher(t *testing.T) {
	e := enricher.New(nil)
	annotated := e.Enrich(models.ProjectRecord{Name: "dairy"})
	assert.Empty(t, annotated.NameKeywords)
	assert.NotNil(t, annotated.NameKeywords)
}
