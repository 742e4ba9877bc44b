package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// CrawlResult holds the crawled content of a brand website.
type CrawlResult struct {
	URL      string            `json:"url"`
	Markdown string            `json:"markdown"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Domain extracts the hostname of the crawled page, falling back to the
// raw URL if it does not parse.
func (r *CrawlResult) Domain() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Hostname() == "" {
		return r.URL
	}
	return u.Hostname()
}

// Crawler fetches website content for analysis.
type Crawler interface {
	Crawl(ctx context.Context, websiteURL string) (*CrawlResult, error)
}

// FirecrawlClient crawls via a firecrawl-compatible scrape endpoint.
type FirecrawlClient struct {
	baseURL string
	http    *http.Client
}

// NewFirecrawlClient creates a crawler client against the given base URL.
func NewFirecrawlClient(baseURL string) *FirecrawlClient {
	return &FirecrawlClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string            `json:"markdown"`
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Crawl scrapes the website and returns its markdown content.
func (c *FirecrawlClient) Crawl(ctx context.Context, websiteURL string) (*CrawlResult, error) {
	start := time.Now()

	body, _ := json.Marshal(scrapeRequest{URL: websiteURL, Formats: []string{"markdown"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", websiteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("scrape %s: status %d: %s", websiteURL, resp.StatusCode, string(msg))
	}

	var scrape scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&scrape); err != nil {
		return nil, fmt.Errorf("decode scrape response: %w", err)
	}
	if !scrape.Success {
		return nil, fmt.Errorf("scrape %s: %s", websiteURL, scrape.Error)
	}

	return &CrawlResult{
		URL:      websiteURL,
		Markdown: scrape.Data.Markdown,
		Metadata: scrape.Data.Metadata,
		Duration: time.Since(start),
	}, nil
}

// MockCrawler returns canned content without touching the network. Used
// when no crawler endpoint is configured.
type MockCrawler struct{}

// Crawl returns a small synthetic page for the URL.
func (MockCrawler) Crawl(_ context.Context, websiteURL string) (*CrawlResult, error) {
	return &CrawlResult{
		URL: websiteURL,
		Markdown: "# Example Brand\n\n" +
			"We make sustainable outdoor gear for serious hikers.\n\n" +
			"## Our Mission\nGet more people outside with gear that lasts.\n",
		Metadata: map[string]string{"title": "Example Brand"},
		Duration: 50 * time.Millisecond,
	}, nil
}
