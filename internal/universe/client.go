// Package universe scrapes index compositions into ticker lists.
package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
	"github.com/hal2001/BatchGetSymbols/pkg/redis"
)

// DefaultBaseURL is the Wikipedia host the composition tables live on
const DefaultBaseURL = "https://en.wikipedia.org"

// Constituent is one index member
type Constituent struct {
	Ticker      string `json:"ticker"` // ticker as Yahoo Finance spells it
	Symbol      string `json:"symbol"` // ticker as the exchange lists it
	Company     string `json:"company"`
	Sector      string `json:"sector"`
	SubIndustry string `json:"sub_industry,omitempty"`
}

// CompositionCache stores scraped compositions (*redis.Cache)
type CompositionCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Client fetches index compositions
// ⭐ SSOT: index composition scraping happens only here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	cache      CompositionCache
	cacheTTL   time.Duration
}

// NewClient creates a new composition client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("universe"),
		baseURL:    baseURL,
	}
}

// WithCache makes Fetch reuse compositions for ttl
func (c *Client) WithCache(store CompositionCache, ttl time.Duration) *Client {
	c.cache = store
	c.cacheTTL = ttl
	return c
}

// FetchSP500 returns the current S&P 500 members
func (c *Client) FetchSP500(ctx context.Context) ([]Constituent, error) {
	doc, err := c.fetchDocument(ctx, "/wiki/List_of_S%26P_500_companies")
	if err != nil {
		return nil, err
	}

	members := parseSP500(doc)
	if len(members) == 0 {
		return nil, fmt.Errorf("sp500: constituents table not found")
	}

	c.logger.WithField("count", len(members)).Debug("Fetched S&P 500 composition")
	return members, nil
}

// FetchFTSE100 returns the current FTSE 100 members
func (c *Client) FetchFTSE100(ctx context.Context) ([]Constituent, error) {
	doc, err := c.fetchDocument(ctx, "/wiki/FTSE_100_Index")
	if err != nil {
		return nil, err
	}

	members := parseFTSE100(doc)
	if len(members) == 0 {
		return nil, fmt.Errorf("ftse100: constituents table not found")
	}

	c.logger.WithField("count", len(members)).Debug("Fetched FTSE 100 composition")
	return members, nil
}

// Index names accepted by Fetch
const (
	IndexSP500   = "sp500"
	IndexFTSE100 = "ftse100"
)

// Fetch resolves an index name (sp500, ftse100), going through the cache when set
func (c *Client) Fetch(ctx context.Context, index string) ([]Constituent, error) {
	name := strings.ToLower(strings.TrimSpace(index))

	var scrape func(context.Context) ([]Constituent, error)
	switch name {
	case IndexSP500:
		scrape = c.FetchSP500
	case IndexFTSE100:
		scrape = c.FetchFTSE100
	default:
		return nil, fmt.Errorf("unknown index %q (valid: sp500, ftse100)", index)
	}

	if c.cache == nil {
		return scrape(ctx)
	}

	key := redis.UniverseKey(name)
	var cached []Constituent
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).Warn("Composition cache read failed")
	} else if found && len(cached) > 0 {
		c.logger.WithField("index", name).Debug("Composition cache hit")
		return cached, nil
	}

	members, err := scrape(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, members, c.cacheTTL); err != nil {
		c.logger.WithError(err).Warn("Composition cache write failed")
	}
	return members, nil
}

// Tickers extracts the Yahoo tickers of members
func Tickers(members []Constituent) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Ticker
	}
	return out
}

func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	resp, err := c.httpClient.Get(ctx, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	return doc, nil
}
