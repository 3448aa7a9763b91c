package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xhad/projfilter/internal/models"
)

// Recorder counts pipeline outcomes. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	documents *prometheus.CounterVec
	records   *prometheus.CounterVec
	matches   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projfilter_documents_total",
			Help: "Documents processed by outcome",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projfilter_records_total",
			Help: "Project records extracted by strategy",
		}, []string{"strategy"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projfilter_keyword_matches_total",
			Help: "Keyword matches by keyword and field",
		}, []string{"keyword", "field"}),
	}

	for _, c := range []prometheus.Collector{r.documents, r.records, r.matches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ObserveResult records one processed document.
func (r *Recorder) ObserveResult(result models.DocumentResult) {
	if r == nil {
		return
	}

	if result.Err != nil {
		r.documents.WithLabelValues("failed").Inc()
		return
	}
	r.documents.WithLabelValues("processed").Inc()
	r.records.WithLabelValues(result.Strategy).Add(float64(len(result.Records)))

	for _, rec := range result.Records {
		for _, kw := range rec.NameKeywords {
			r.matches.WithLabelValues(kw, "name").Inc()
		}
		for _, kw := range rec.DescriptionKeywords {
			r.matches.WithLabelValues(kw, "description").Inc()
		}
	}
}
