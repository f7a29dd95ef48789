package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-creds/config"
	"github.com/aluiziolira/go-scrape-creds/models"
	"github.com/aluiziolira/go-scrape-creds/parser"
	"github.com/aluiziolira/go-scrape-creds/pipeline"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	kindModels      = "models"
	kindCredentials = "credentials"

	ctxBody   = "body"
	ctxStatus = "status"
	ctxStart  = "start"
)

// credentialEntry caches a detail page outcome; cred is nil for pages
// without a usable table.
type credentialEntry struct {
	cred *models.CredentialRecord
}

// Scraper walks manufacturers, their models and each model's credential
// page, one request at a time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	retry     *retrier
	cache     *lru.Cache[int, credentialEntry]
	Metrics   *Metrics

	mu           sync.Mutex
	requestCount int
	errorCount   int
	cacheHits    int
	errorsByType map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("endpoint url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	s := &Scraper{
		cfg:          cfg,
		collector:    collector,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[int, credentialEntry](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create credential cache: %w", err)
		}
		s.cache = cache
	}
	s.retry = newRetrier(cfg, s.Metrics)
	s.configureHandlers()
	return s, nil
}

func (s *Scraper) configureHandlers() {
	s.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
	})

	s.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxBody, r.Body)
		r.Ctx.Put(ctxStatus, r.StatusCode)
		if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		r.Ctx.Put(ctxStatus, r.StatusCode)
		if start, ok := r.Ctx.GetAny(ctxStart).(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})
}

// Run walks manufacturers in order and writes one row per model whose
// credential page parsed. A cancelled ctx stops the walk between requests
// and returns the partial result with ctx's error.
func (s *Scraper) Run(ctx context.Context, manufacturers []models.Manufacturer, sink pipeline.RowWriter) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.ScrapeResult{StartTime: time.Now()}
	finish := func(err error) (*models.ScrapeResult, error) {
		result.EndTime = time.Now()
		result.RequestCount, result.ErrorCount, result.CacheHits, result.ErrorsByType = s.snapshot()
		result.RetryCount = s.retry.TotalRetries()
		return result, err
	}

	for _, m := range manufacturers {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		result.ManufacturerCount++

		modelList := s.FetchModels(ctx, m.BrandID)
		slog.Debug("fetched models",
			slog.Int("brand_id", m.BrandID),
			slog.String("brand_name", m.BrandName),
			slog.Int("models", len(modelList)),
		)

		for _, model := range modelList {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
			result.ModelCount++

			cred := s.FetchCredentials(ctx, model.ModelID)
			if cred == nil {
				result.MissingCredentials++
				s.Metrics.IncMissing()
				continue
			}

			row := models.NewScrapedRow(m, model, *cred)
			if err := sink.WriteRow(row); err != nil {
				return finish(fmt.Errorf("write row for model %d: %w", model.ModelID, err))
			}
			result.RowCount++
			s.Metrics.IncRows()
		}

		slog.Info("manufacturer done",
			slog.Int("brand_id", m.BrandID),
			slog.String("brand_name", m.BrandName),
			slog.Int("rows", result.RowCount),
		)
	}

	return finish(nil)
}

// FetchModels returns the models listed for brandID. Failures yield an
// empty slice.
func (s *Scraper) FetchModels(ctx context.Context, brandID int) []models.Model {
	body, err := s.post(ctx, kindModels, "brand_id", brandID)
	if err != nil {
		slog.Warn("fetch models failed", slog.Int("brand_id", brandID), slog.Any("error", err))
		return nil
	}
	return parser.ParseModels(body)
}

// FetchCredentials returns the default credentials for modelID, or nil when
// the request fails or the page does not have the expected table.
func (s *Scraper) FetchCredentials(ctx context.Context, modelID int) *models.CredentialRecord {
	if s.cache != nil {
		if entry, ok := s.cache.Get(modelID); ok {
			s.mu.Lock()
			s.cacheHits++
			s.mu.Unlock()
			s.Metrics.IncCacheHit()
			return copyCredential(entry.cred)
		}
	}

	body, err := s.post(ctx, kindCredentials, "model_id", modelID)
	if err != nil {
		slog.Warn("fetch credentials failed", slog.Int("model_id", modelID), slog.Any("error", err))
		return nil
	}

	cred := parser.ParseCredentials(body)
	if cred == nil {
		slog.Debug("no credential table", slog.Int("model_id", modelID))
	}
	if s.cache != nil {
		s.cache.Add(modelID, credentialEntry{cred: copyCredential(cred)})
	}
	return cred
}

func copyCredential(cred *models.CredentialRecord) *models.CredentialRecord {
	if cred == nil {
		return nil
	}
	c := *cred
	return &c
}

// post issues one form POST with a single integer field, retrying
// transient failures.
func (s *Scraper) post(ctx context.Context, kind, field string, id int) ([]byte, error) {
	form := url.Values{field: {strconv.Itoa(id)}}.Encode()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.cfg.Delay > 0 {
			if err := sleepContext(ctx, s.cfg.Delay); err != nil {
				return nil, err
			}
		}

		body, status, err := s.do(kind, form)
		if err == nil {
			return body, nil
		}

		classified := classifyError(err, status)
		category := errorTypeLabel(classified)
		s.recordError(category)
		slog.Debug("request error",
			slog.String("kind", kind),
			slog.String(field, strconv.Itoa(id)),
			slog.String("category", category),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)

		if !isRetryable(classified) {
			return nil, &RequestError{Kind: kind, Field: field, ID: id, Err: classified}
		}
		delay, ok := s.retry.Next(attempt + 1)
		if !ok {
			return nil, &RequestError{Kind: kind, Field: field, ID: id, Err: classified}
		}
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (s *Scraper) do(kind, form string) ([]byte, int, error) {
	s.mu.Lock()
	s.requestCount++
	s.mu.Unlock()
	s.Metrics.IncRequest(kind)

	reqCtx := colly.NewContext()
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	hdr.Set("Accept", "*/*")
	hdr.Set("X-Requested-With", "XMLHttpRequest")
	if s.cfg.Referer != "" {
		hdr.Set("Referer", s.cfg.Referer)
		if ref, err := url.Parse(s.cfg.Referer); err == nil && ref.Host != "" {
			hdr.Set("Origin", ref.Scheme+"://"+ref.Host)
		}
	}

	err := s.collector.Request(http.MethodPost, s.cfg.EndpointURL, strings.NewReader(form), reqCtx, hdr)
	status, _ := reqCtx.GetAny(ctxStatus).(int)
	if err != nil {
		return nil, status, err
	}

	body, ok := reqCtx.GetAny(ctxBody).([]byte)
	if !ok {
		return nil, status, errors.New("no response body captured")
	}
	return body, status, nil
}

func (s *Scraper) recordError(category string) {
	s.mu.Lock()
	s.errorCount++
	s.errorsByType[category]++
	s.mu.Unlock()
	s.Metrics.IncError(category)
}

func (s *Scraper) snapshot() (requests, errs, cacheHits int, byType map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return s.requestCount, s.errorCount, s.cacheHits, out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case statusCode == http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode >= http.StatusInternalServerError:
			return ErrServerError{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
