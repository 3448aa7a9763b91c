package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/keywords"
	"github.com/xhad/projfilter/pkg/metrics"
	"github.com/xhad/projfilter/pkg/pipeline"
	"github.com/xhad/projfilter/pkg/store"
)

type reply struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data"`
}

type fakeSearcher struct {
	records []store.StoredRecord
	err     error
}

func (f fakeSearcher) Similar(_ context.Context, _ string, _ int) ([]store.StoredRecord, error) {
	return f.records, f.err
}

func newTestServer(t *testing.T, searcher Searcher) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	matcher := keywords.New([]string{"cattle", "dairy", "goat"})
	p := pipeline.NewWithConfig(pipeline.PipelineConfig{Workers: 2, Metrics: rec}, matcher)

	s := NewWSServer(Config{Searcher: searcher, Gatherer: reg}, p, matcher)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg interface{}) reply {
	t.Helper()

	require.NoError(t, conn.WriteJSON(msg))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) reply {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var r reply
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestAnalyze(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, map[string]interface{}{
		"type":    "analyze",
		"content": "Project: Dairy Farm\nDescription: Improving cattle health.\nProject: Roads\nDescription: Paving",
		"data":    map[string]string{"source": "portfolio.txt"},
	})
	require.Equal(t, TypeResult, r.Type)

	var result AnalysisResult
	require.NoError(t, json.Unmarshal(r.Data, &result))
	assert.Equal(t, "portfolio.txt", result.Source)
	assert.Equal(t, "labeled", result.Strategy)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Dairy Farm", result.Records[0].Name)
	assert.Equal(t, "dairy", result.Records[0].NameKeywords)
	assert.Equal(t, "cattle", result.Records[0].DescriptionKeywords)
	assert.Equal(t, "None", result.Records[1].NameKeywords)
	assert.Equal(t, models.Stats{Total: 2, NameMatches: 1, DescriptionMatches: 1, AnyMatches: 1}, result.Stats)
}

func TestAnalyze_Filter(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, map[string]interface{}{
		"type":    "analyze",
		"content": "Project: Dairy Farm\nDescription: cattle\nProject: Roads\nDescription: Paving",
		"data":    map[string]string{"filter": "any"},
	})
	require.Equal(t, TypeResult, r.Type)

	var result AnalysisResult
	require.NoError(t, json.Unmarshal(r.Data, &result))
	assert.Equal(t, "message", result.Source)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 2, result.Stats.Total)
}

func TestAnalyze_Blank(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeAnalyze, Content: "   "})
	assert.Equal(t, TypeError, r.Type)
	assert.Contains(t, r.Content, pipeline.ErrNoText.Error())
}

func TestAnalyze_URL(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>Project: Goat Shelter</p><p>Description: Housing for goat herds</p></body></html>`))
	}))
	defer site.Close()

	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeAnalyze, Content: site.URL + "/"})
	assert.Equal(t, TypeProgress, r.Type)
	assert.Equal(t, site.URL+"/", r.Content)

	r = read(t, conn)
	require.Equal(t, TypeResult, r.Type)

	var result AnalysisResult
	require.NoError(t, json.Unmarshal(r.Data, &result))
	assert.Equal(t, site.URL+"/", result.Source)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "goat", result.Records[0].NameKeywords)
}

func TestKeywords(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeKeywords})
	require.Equal(t, TypeKeywords, r.Type)

	var list []string
	require.NoError(t, json.Unmarshal(r.Data, &list))
	assert.Equal(t, []string{"cattle", "dairy", "goat"}, list)
}

func TestSearch(t *testing.T) {
	searcher := fakeSearcher{records: []store.StoredRecord{{
		AnnotatedRecord: models.AnnotatedRecord{
			ProjectRecord:       models.ProjectRecord{Name: "Dairy Farm", Description: "cattle"},
			NameKeywords:        models.KeywordSet{"dairy"},
			DescriptionKeywords: models.KeywordSet{"cattle"},
		},
	}}}

	ts, _ := newTestServer(t, searcher)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeSearch, Content: "cows"})
	require.Equal(t, TypeMatches, r.Type)
	assert.Contains(t, string(r.Data), `"project_name":"Dairy Farm"`)
}

func TestSearch_Unavailable(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeSearch, Content: "cows"})
	assert.Equal(t, TypeError, r.Type)

	ts2, _ := newTestServer(t, fakeSearcher{err: errors.New("db down")})
	conn2 := dial(t, ts2)

	r = roundTrip(t, conn2, Message{Type: TypeSearch, Content: "cows"})
	assert.Equal(t, TypeError, r.Type)
	assert.Contains(t, r.Content, "db down")
}

func TestUnknownAndInvalidMessages(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: "chat"})
	assert.Equal(t, TypeError, r.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	r = read(t, conn)
	assert.Equal(t, TypeError, r.Type)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	conn := dial(t, ts)

	r := roundTrip(t, conn, Message{Type: TypeAnalyze, Content: "Project: Dairy\nDescription: cattle"})
	require.Equal(t, TypeResult, r.Type)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `projfilter_documents_total{outcome="processed"} 1`)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	matcher := keywords.New(nil)
	s := NewWSServer(Config{Addr: "127.0.0.1:0", Gatherer: prometheus.NewRegistry()},
		pipeline.NewWithConfig(pipeline.PipelineConfig{}, matcher), matcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
