package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/model"
)

// RESTFetcher implements IntradayFetcher against an intraday bar REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the intraday API.
type restBar struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchIntraday(ctx context.Context, symbol, month, interval string) (model.TimeSeries, error) {
	if f.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return nil, fmt.Errorf("%w: malformed month %q", ErrNoData, month)
		}
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	if month != "" {
		q.Set("month", month)
	}
	endpoint := fmt.Sprintf("%s/api/v1/intraday?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNoData, err)
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Warnf("intraday fetch %s %s: status %d, body: %s", symbol, month, resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
	}

	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNoData, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty series for %s %s", ErrNoData, symbol, month)
	}

	series := make(model.TimeSeries, len(bars))
	for _, b := range bars {
		series[b.Timestamp] = model.PriceTick{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return series, nil
}
