package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
// It serves stock and index series; market breadth is not available there.
type YahooFetcher struct {
	BaseURL   string
	Range     string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	log       *logrus.Entry
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, logger *logrus.Logger) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Range:   "2y",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newTransport(proxyURL),
		},
		SymbolMap: map[string]string{
			"SPX": "^GSPC",
			"NDX": "^NDX",
			"DJI": "^DJI",
		},
		log: logger.WithField("component", "yahoo_fetcher"),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func (f *YahooFetcher) Fetch(ctx context.Context, dt model.DataType, rt model.ResultType, symbol string) ([]model.RawRecord, error) {
	if dt == model.DataMarket {
		return nil, fetchError(dt, rt, symbol, 0, "market breadth is not available from yahoo", nil)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), f.Range)
	f.log.WithField("url", u).Debug("requesting series")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fetchError(dt, rt, symbol, 0, err.Error(), err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fetchError(dt, rt, symbol, 0, err.Error(), fmt.Errorf("yahoo fetch: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, err.Error(), fmt.Errorf("yahoo read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, networkError,
			fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, "invalid response from yahoo", fmt.Errorf("yahoo decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return nil, fetchError(dt, rt, symbol, resp.StatusCode, chart.Chart.Error.Description, nil)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return []model.RawRecord{}, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []model.RawRecord{}, nil
	}
	quote := result.Indicators.Quote[0]

	type row struct {
		ts  int64
		rec model.RawRecord
	}
	rows := make([]row, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if c == nil {
			continue // null bars (holidays etc.)
		}
		rec := model.RawRecord{Time: ts}
		if rt == model.ResultSingle {
			rec.Value = c
		} else {
			rec.Open, rec.High, rec.Low, rec.Close = o, h, l, c
			rec.Volume = at(quote.Volume, i)
		}
		rows = append(rows, row{ts: ts, rec: rec})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ts < rows[j].ts })
	out := make([]model.RawRecord, len(rows))
	withVolume := 0
	for i, r := range rows {
		out[i] = r.rec
		if r.rec.Volume != nil {
			withVolume++
		}
	}
	// Yahoo occasionally nulls a single day's volume; keep presence uniform.
	if withVolume > 0 && withVolume < len(out) {
		for i := range out {
			if out[i].Volume == nil {
				out[i].Volume = model.Float(0)
			}
		}
	}
	return out, nil
}
