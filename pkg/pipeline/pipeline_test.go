package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/keywords"
	"github.com/xhad/projfilter/pkg/metrics"
	"github.com/xhad/projfilter/pkg/pipeline"
)

func TestProcessDocument(t *testing.T) {
	p := pipeline.NewWithConfig(pipeline.PipelineConfig{}, keywords.New([]string{"dairy", "cattle"}))

	result := p.ProcessDocument(models.Document{
		Name:    "scenario-a.txt",
		Content: "Project: Dairy Farm\nDescription: Improving cattle health.\n",
	})

	require.NoError(t, result.Err)
	assert.Equal(t, "labeled", result.Strategy)
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.KeywordSet{"dairy"}, result.Records[0].NameKeywords)
	assert.Equal(t, models.KeywordSet{"cattle"}, result.Records[0].DescriptionKeywords)
}

func TestProcessDocument_NoText(t *testing.T) {
	p := pipeline.NewWithConfig(pipeline.PipelineConfig{}, keywords.New([]string{"dairy"}))

	result := p.ProcessDocument(models.Document{Name: "blank.txt", Content: " \n\t "})
	assert.ErrorIs(t, result.Err, pipeline.ErrNoText)
	assert.Empty(t, result.Records)
}

func TestProcessDocument_Fallback(t *testing.T) {
	p := pipeline.NewWithConfig(pipeline.PipelineConfig{}, keywords.New(nil))

	content := strings.Repeat(strings.Repeat("m", 40)+"\n", 5)
	result := p.ProcessDocument(models.Document{Name: "short.txt", Content: content})

	require.NoError(t, result.Err)
	assert.Equal(t, "fallback", result.Strategy)
	require.Len(t, result.Records, 1)
	assert.Equal(t, content, result.Records[0].Description)
	assert.Empty(t, result.Records[0].NameKeywords)
	assert.Empty(t, result.Records[0].DescriptionKeywords)
}

func TestProcess_OrderAndFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	recorder, err := metrics.New(reg)
	require.NoError(t, err)

	var mu sync.Mutex
	var progressed []string

	p := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Workers: 3,
		Logger:  zap.New(core),
		Metrics: recorder,
		OnProgress: func(result models.DocumentResult) {
			mu.Lock()
			defer mu.Unlock()
			progressed = append(progressed, result.Document.Name)
		},
	}, keywords.New([]string{"milk"}))

	var docs []models.Document
	for i := 0; i < 10; i++ {
		content := fmt.Sprintf("Project: Farm %d\nDescription: milk collection", i)
		if i == 4 {
			content = ""
		}
		docs = append(docs, models.Document{Name: fmt.Sprintf("doc-%d", i), Content: content})
	}

	results := p.Process(context.Background(), docs)
	require.Len(t, results, 10)

	for i, r := range results {
		assert.Equal(t, docs[i].Name, r.Document.Name)
		if i == 4 {
			assert.ErrorIs(t, r.Err, pipeline.ErrNoText)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("Farm %d", i), r.Records[0].Name)
		assert.Equal(t, models.KeywordSet{"milk"}, r.Records[0].DescriptionKeywords)
	}

	assert.Len(t, progressed, 10)
	assert.Equal(t, 9, logs.FilterMessage("document processed").Len())
	assert.Equal(t, 1, logs.FilterMessage("document failed").Len())
}

func TestProcess_Cancelled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	recorder, err := metrics.New(reg)
	require.NoError(t, err)

	var mu sync.Mutex
	var progressed []string

	p := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Workers: 1,
		Logger:  zap.New(core),
		Metrics: recorder,
		OnProgress: func(result models.DocumentResult) {
			mu.Lock()
			defer mu.Unlock()
			progressed = append(progressed, result.Document.Name)
		},
	}, keywords.New(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []models.Document{{Name: "a", Content: "x"}, {Name: "b", Content: "y"}, {Name: "c", Content: "z"}}
	results := p.Process(ctx, docs)

	require.Len(t, results, 3)
	failed := 0
	for i, r := range results {
		assert.Equal(t, docs[i].Name, r.Document.Name)
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
			failed++
		}
	}

	// A worker may still win the race for some documents; either way every
	// document is reported exactly once.
	assert.ElementsMatch(t, []string{"a", "b", "c"}, progressed)
	assert.Equal(t, failed, logs.FilterMessage("document failed").Len())
	assert.Equal(t, 3-failed, logs.FilterMessage("document processed").Len())

	expected := "# HELP projfilter_documents_total Documents processed by outcome\n" +
		"# TYPE projfilter_documents_total counter\n"
	if failed > 0 {
		expected += fmt.Sprintf("projfilter_documents_total{outcome=\"failed\"} %d\n", failed)
	}
	if failed < 3 {
		expected += fmt.Sprintf("projfilter_documents_total{outcome=\"processed\"} %d\n", 3-failed)
	}
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "projfilter_documents_total"))
}
