package scraper

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/source"
)

type ScraperConfig struct {
	BaseURL           string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	Logger            *zap.Logger
	OnProgress        func(url string)
}

type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
	logger   *zap.Logger
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 1
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", ".txt", "/"}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q has no host", config.BaseURL)
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
		logger:   config.Logger,
	}, nil
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}
	if parsedURL.Host != s.baseHost {
		return false
	}

	path := strings.ToLower(parsedURL.Path)
	if path == "" {
		path = "/"
	}
	validExt := false
	for _, allowedExt := range s.config.AllowedExtensions {
		if strings.HasSuffix(path, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

// Scrape fetches the page at urlStr and follows same-host links up to
// MaxDepth, returning one document per page in crawl order.
func (s *Scraper) Scrape(ctx context.Context, urlStr string) ([]models.Document, error) {
	var documents []models.Document
	err := s.scrapeRecursive(ctx, urlStr, 0, &documents)
	return documents, err
}

func (s *Scraper) scrapeRecursive(ctx context.Context, urlStr string, depth int, documents *[]models.Document) error {
	urlStr = stripFragment(urlStr)
	if depth > s.config.MaxDepth || s.visited[urlStr] {
		return nil
	}
	if !s.shouldProcessURL(urlStr) {
		return nil
	}

	s.visited[urlStr] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	document, links, err := s.fetch(ctx, urlStr)
	if err != nil {
		return err
	}
	document.Metadata["depth"] = depth
	*documents = append(*documents, document)

	base, err := url.Parse(urlStr)
	if err != nil {
		return err
	}

	for _, href := range links {
		ref, err := url.Parse(href)
		if err != nil {
			s.logger.Debug("skipping unparsable link", zap.String("href", href), zap.Error(err))
			continue
		}

		next := base.ResolveReference(ref).String()
		if err := s.scrapeRecursive(ctx, next, depth+1, documents); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("failed to scrape linked page", zap.String("url", next), zap.Error(err))
		}
	}

	return nil
}

func (s *Scraper) fetch(ctx context.Context, urlStr string) (models.Document, []string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Document{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return models.Document{}, nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Document{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Document{}, nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var title, content string
	var links []string

	switch {
	case mediaType == "text/plain":
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return models.Document{}, nil, err
		}
		content = strings.ToValidUTF8(string(body), "\uFFFD")
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		page, err := source.ParseHTML(resp.Body)
		if err != nil {
			return models.Document{}, nil, err
		}
		title, content, links = page.Title, page.Text, page.Links
	default:
		return models.Document{}, nil, fmt.Errorf("%s (%s): %w", urlStr, mediaType, source.ErrUnsupported)
	}

	s.logger.Debug("fetched page",
		zap.String("url", urlStr),
		zap.Int("bytes", len(content)),
		zap.Int("links", len(links)),
	)

	return models.Document{
		ID:      uuid.NewString(),
		Name:    urlStr,
		Source:  urlStr,
		Content: content,
		Metadata: map[string]interface{}{
			"title":        title,
			"time":         time.Now(),
			"contentType":  contentType,
			"lastModified": resp.Header.Get("Last-Modified"),
		},
	}, links, nil
}

func stripFragment(urlStr string) string {
	if i := strings.IndexByte(urlStr, '#'); i >= 0 {
		return urlStr[:i]
	}
	return urlStr
}
