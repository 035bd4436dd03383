// Package visual assembles mood boards and art direction notes for a
// pitch, pulling reference imagery from a stock photo API when one is
// configured and degrading to placeholders when it is not.
package visual

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultSearchURL = "https://api.pexels.com/v1/search"

// ImageSource finds reference image URLs for a search query.
type ImageSource interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// StockClient talks to a Pexels-compatible stock photo search API.
type StockClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewStockClient(baseURL, apiKey string) *StockClient {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &StockClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Search returns image URLs matching the query, best first.
func (c *StockClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no stock image api key configured")
	}
	if limit <= 0 {
		limit = 5
	}

	u := fmt.Sprintf("%s?query=%s&per_page=%d", c.baseURL, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Pexels wants the bare key, no Bearer prefix.
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("stock search %q: status %d: %s", query, resp.StatusCode, string(respBody))
	}

	var result struct {
		Photos []struct {
			Src struct {
				Original string `json:"original"`
				Large    string `json:"large"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stock results: %w", err)
	}

	var urls []string
	for _, p := range result.Photos {
		switch {
		case p.Src.Original != "":
			urls = append(urls, p.Src.Original)
		case p.Src.Large != "":
			urls = append(urls, p.Src.Large)
		}
	}
	return urls, nil
}
