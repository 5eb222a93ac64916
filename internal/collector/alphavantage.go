package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TickerCard/internal/model"
)

// DefaultBaseURL is the public Alpha Vantage endpoint.
const DefaultBaseURL = "https://www.alphavantage.co"

const providerDateLayout = "2006-01-02 15:04:05"

// AlphaVantageFetcher implements Fetcher using the TIME_SERIES_INTRADAY endpoint.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AlphaVantageFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avMeta mirrors the "Meta Data" object.
type avMeta struct {
	Information   string `json:"1. Information"`
	Symbol        string `json:"2. Symbol"`
	LastRefreshed string `json:"3. Last Refreshed"`
	Interval      string `json:"4. Interval"`
	OutputSize    string `json:"5. Output Size"`
	TimeZone      string `json:"6. Time Zone"`
}

// avBar mirrors one entry of "Time Series (<interval>)". Values are decimal strings.
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

func (f *AlphaVantageFetcher) FetchIntraday(ctx context.Context, symbol, interval, outputSize string) (model.SeriesMeta, []model.OHLCV, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", outputSize)
	q.Set("datatype", "json")
	q.Set("apikey", f.APIKey)
	endpoint := f.BaseURL + "/query?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.SeriesMeta{}, nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: %v", ErrNetwork, redact(err.Error(), f.APIKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: status %d, body: %s", ErrNetwork, resp.StatusCode, truncate(body))
	}
	return parseIntraday(body, interval)
}

func parseIntraday(body []byte, interval string) (model.SeriesMeta, []model.OHLCV, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return model.SeriesMeta{}, nil, fmt.Errorf("%w: %s", ErrRateLimited, unquote(msg))
		}
	}
	if msg, ok := raw["Error Message"]; ok {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: %s", ErrMalformed, unquote(msg))
	}

	var meta avMeta
	metaRaw, ok := raw["Meta Data"]
	if !ok {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: missing meta data", ErrMalformed)
	}
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: decode meta: %v", ErrMalformed, err)
	}

	seriesKey := fmt.Sprintf("Time Series (%s)", interval)
	seriesRaw, ok := raw[seriesKey]
	if !ok {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: missing %q", ErrMalformed, seriesKey)
	}
	var series map[string]avBar
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: decode series: %v", ErrMalformed, err)
	}
	if len(series) == 0 {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: empty series", ErrMalformed)
	}

	loc := time.UTC
	if meta.TimeZone != "" {
		if l, err := time.LoadLocation(meta.TimeZone); err == nil {
			loc = l
		}
	}

	bars := make([]model.OHLCV, 0, len(series))
	for stamp, b := range series {
		t, err := time.ParseInLocation(providerDateLayout, stamp, loc)
		if err != nil {
			return model.SeriesMeta{}, nil, fmt.Errorf("%w: timestamp %q: %v", ErrMalformed, stamp, err)
		}
		bar := model.OHLCV{Time: t}
		fields := []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"open", b.Open, &bar.Open},
			{"high", b.High, &bar.High},
			{"low", b.Low, &bar.Low},
			{"close", b.Close, &bar.Close},
			{"volume", b.Volume, &bar.Volume},
		}
		for _, fld := range fields {
			if fld.name == "volume" && fld.raw == "" {
				continue
			}
			d, err := decimal.NewFromString(fld.raw)
			if err != nil {
				return model.SeriesMeta{}, nil, fmt.Errorf("%w: %s %s=%q", ErrMalformed, stamp, fld.name, fld.raw)
			}
			*fld.dst, _ = d.Float64()
		}
		bars = append(bars, bar)
	}

	// Provider order is newest first; JSON objects carry no order, so restore it.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.After(bars[j].Time) })

	sm := model.SeriesMeta{
		Symbol:     meta.Symbol,
		Interval:   meta.Interval,
		OutputSize: meta.OutputSize,
		TimeZone:   loc.String(),
	}
	if t, err := time.ParseInLocation(providerDateLayout, meta.LastRefreshed, loc); err == nil {
		sm.LastRefreshed = t
	}
	return sm, bars, nil
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
