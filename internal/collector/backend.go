package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/model"
)

// BackendFetcher implements Fetcher against the chart data backend:
// GET {BaseURL}/{dataType}/{resultType}/{symbol} returning a JSON array.
type BackendFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	log     *logrus.Entry
}

// NewBackendFetcher creates a new fetcher with optional proxy support.
func NewBackendFetcher(baseURL, apiKey, proxyURL string, logger *logrus.Logger) *BackendFetcher {
	return &BackendFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newTransport(proxyURL),
		},
		log: logger.WithField("component", "backend_fetcher"),
	}
}

func newTransport(proxyURL string) *http.Transport {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return transport
}

func (f *BackendFetcher) Name() string { return "backend" }

func (f *BackendFetcher) endpoint(dt model.DataType, rt model.ResultType, symbol string) string {
	return fmt.Sprintf("%s/%s/%s/%s", f.BaseURL, dt, rt, url.PathEscape(symbol))
}

func (f *BackendFetcher) Fetch(ctx context.Context, dt model.DataType, rt model.ResultType, symbol string) ([]model.RawRecord, error) {
	endpoint := f.endpoint(dt, rt, symbol)
	f.log.WithField("url", endpoint).Debug("requesting series")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fetchError(dt, rt, symbol, 0, err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fetchError(dt, rt, symbol, 0, err.Error(), fmt.Errorf("backend fetch: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, networkError,
			fmt.Errorf("backend: status %d for %s", resp.StatusCode, endpoint))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var records []model.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, fmt.Sprintf("invalid response from data source: %v", err),
			fmt.Errorf("backend decode: %w", err))
	}
	if records == nil {
		records = []model.RawRecord{}
	}
	return records, nil
}
