package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/keywords"
	"github.com/xhad/projfilter/pkg/logging"
	"github.com/xhad/projfilter/pkg/pipeline"
	"github.com/xhad/projfilter/pkg/report"
	"github.com/xhad/projfilter/pkg/scraper"
	"github.com/xhad/projfilter/pkg/store"
)

const (
	TypeAnalyze  = "analyze"
	TypeKeywords = "keywords"
	TypeSearch   = "search"

	TypeResult   = "result"
	TypeProgress = "progress"
	TypeMatches  = "matches"
	TypeError    = "error"
)

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type analyzeOptions struct {
	Source string            `json:"source"`
	Filter report.FilterMode `json:"filter"`
}

// AnalysisResult is the payload of a result message.
type AnalysisResult struct {
	Source   string       `json:"source"`
	Strategy string       `json:"strategy"`
	Records  []report.Row `json:"records"`
	Stats    models.Stats `json:"stats"`
}

// Searcher looks up stored records by description similarity.
type Searcher interface {
	Similar(ctx context.Context, text string, limit int) ([]store.StoredRecord, error)
}

type Config struct {
	Addr     string
	Scraper  scraper.ScraperConfig // BaseURL is set per request
	Searcher Searcher
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type WSServer struct {
	config   Config
	pipeline *pipeline.Pipeline
	matcher  *keywords.Matcher
	logger   *zap.Logger
}

func NewWSServer(config Config, p *pipeline.Pipeline, matcher *keywords.Matcher) *WSServer {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	return &WSServer{
		config:   config,
		pipeline: p,
		matcher:  matcher,
		logger:   logging.OrNop(config.Logger),
	}
}

func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *WSServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting websocket server", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	s.logger.Debug("websocket connected", zap.String("session", session))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("error reading message", zap.String("session", session), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendError(conn, fmt.Sprintf("invalid message: %v", err))
			continue
		}

		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case TypeAnalyze:
		s.handleAnalyze(ctx, conn, msg)
	case TypeKeywords:
		s.send(conn, outgoing{Type: TypeKeywords, Data: s.matcher.Keywords()})
	case TypeSearch:
		s.handleSearch(ctx, conn, msg)
	default:
		s.sendError(conn, fmt.Sprintf("unknown message type: %q", msg.Type))
	}
}

func (s *WSServer) handleAnalyze(ctx context.Context, conn *websocket.Conn, msg Message) {
	var opts analyzeOptions
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &opts); err != nil {
			s.sendError(conn, fmt.Sprintf("invalid analyze options: %v", err))
			return
		}
	}

	content := strings.TrimSpace(msg.Content)
	if urlPattern.MatchString(content) {
		s.analyzeURL(ctx, conn, content, opts)
		return
	}

	if opts.Source == "" {
		opts.Source = "message"
	}
	doc := models.Document{
		ID:      uuid.NewString(),
		Name:    opts.Source,
		Source:  "websocket",
		Content: msg.Content,
	}
	s.sendResult(conn, s.pipeline.ProcessDocument(doc), opts.Filter)
}

func (s *WSServer) analyzeURL(ctx context.Context, conn *websocket.Conn, url string, opts analyzeOptions) {
	config := s.config.Scraper
	config.BaseURL = url
	config.Logger = s.logger
	config.OnProgress = func(page string) {
		s.send(conn, outgoing{Type: TypeProgress, Content: page})
	}

	sc, err := scraper.NewWithConfig(config)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("failed to initialize scraper: %v", err))
		return
	}

	docs, err := sc.Scrape(ctx, url)
	if err != nil && len(docs) == 0 {
		s.sendError(conn, fmt.Sprintf("failed to scrape url: %v", err))
		return
	}

	for _, result := range s.pipeline.Process(ctx, docs) {
		s.sendResult(conn, result, opts.Filter)
	}
}

func (s *WSServer) sendResult(conn *websocket.Conn, result models.DocumentResult, filter report.FilterMode) {
	if result.Err != nil {
		s.sendError(conn, fmt.Sprintf("%s: %v", result.Document.Name, result.Err))
		return
	}

	s.send(conn, outgoing{
		Type: TypeResult,
		Data: AnalysisResult{
			Source:   result.Document.Name,
			Strategy: result.Strategy,
			Records:  report.NewRows(report.Filter(result.Records, filter)),
			Stats:    result.Stats(),
		},
	})
}

func (s *WSServer) handleSearch(ctx context.Context, conn *websocket.Conn, msg Message) {
	if s.config.Searcher == nil {
		s.sendError(conn, "search is not available without a database")
		return
	}

	records, err := s.config.Searcher.Similar(ctx, msg.Content, 0)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("search failed: %v", err))
		return
	}

	matches := make([]report.Row, 0, len(records))
	for _, r := range records {
		matches = append(matches, report.NewRow(r.AnnotatedRecord))
	}
	s.send(conn, outgoing{Type: TypeMatches, Data: matches})
}

func (s *WSServer) sendError(conn *websocket.Conn, content string) {
	s.send(conn, outgoing{Type: TypeError, Content: content})
}

func (s *WSServer) send(conn *websocket.Conn, msg outgoing) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("error sending message", zap.String("type", msg.Type), zap.Error(err))
	}
}
