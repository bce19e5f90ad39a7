// Package yahoo implements the upstream market data client. Every request is
// routed through a fetch coordinator so callers share cached results, rate
// pacing and retry behavior.
package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/marketdata"
)

// Config carries the upstream endpoint and the cache lifetimes used for the
// two request classes.
type Config struct {
	BaseURL    string
	QuoteTTL   time.Duration
	HistoryTTL time.Duration
}

// Client fetches Yahoo-style chart and quote summary data. Quotes and
// history go through separate coordinators because they have different
// pacing and freshness requirements.
type Client struct {
	http   *resty.Client
	quotes *marketdata.Coordinator
	data   *marketdata.Coordinator
	cfg    Config
	log    zerolog.Logger
}

func NewClient(cfg Config, quotes, data *marketdata.Coordinator, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", "quantfolio/1.0")

	return &Client{
		http:   httpClient,
		quotes: quotes,
		data:   data,
		cfg:    cfg,
		log:    log.With().Str("component", "yahoo").Logger(),
	}
}

// History returns the daily price history of a ticker for a range string
// such as "1mo", "6mo" or "1y". Results are cached under the history TTL.
func (c *Client) History(ctx context.Context, ticker, rng string) ([]PricePoint, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	key := fmt.Sprintf("history:%s:%s", ticker, rng)

	value, err := c.data.GetOrFetch(ctx, key, c.cfg.HistoryTTL, func() (any, error) {
		return c.fetchChart(ticker, rng)
	})
	if err != nil {
		return nil, err
	}
	history, ok := value.([]PricePoint)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value for %s: %T", key, value)
	}
	return history, nil
}

// Info returns the current quote snapshot of a ticker. Results are cached
// under the quote TTL.
func (c *Client) Info(ctx context.Context, ticker string) (*InfoRecord, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	key := "info:" + ticker

	value, err := c.quotes.GetOrFetch(ctx, key, c.cfg.QuoteTTL, func() (any, error) {
		return c.fetchInfo(ticker)
	})
	if err != nil {
		return nil, err
	}
	info, ok := value.(*InfoRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value for %s: %T", key, value)
	}
	return info, nil
}

// CurrentPrice is a convenience wrapper over Info.
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	info, err := c.Info(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if info.CurrentPrice == nil {
		return 0, fmt.Errorf("no current price for %s", ticker)
	}
	return *info.CurrentPrice, nil
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ticker, rng string) ([]PricePoint, error) {
	var chart yahooChart
	resp, err := c.http.R().
		SetPathParam("ticker", ticker).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    rng,
		}).
		SetResult(&chart).
		// Upstream sometimes mislabels responses; decode as JSON regardless.
		ForceContentType("application/json").
		Get("/v8/finance/chart/{ticker}")
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request for %s: status %d %s", ticker, resp.StatusCode(), resp.Status())
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", ticker)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	points := make([]PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closeVal, ok := toFloat(quote.Close, i)
		if !ok {
			// Null bar (holiday or partial day) — skip it.
			continue
		}
		p := PricePoint{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: closeVal,
		}
		if v, ok := toFloat(quote.Open, i); ok {
			p.Open = v
		}
		if v, ok := toFloat(quote.High, i); ok {
			p.High = v
		}
		if v, ok := toFloat(quote.Low, i); ok {
			p.Low = v
		}
		if v, ok := toFloat(quote.Volume, i); ok {
			p.Volume = int64(v)
		}
		points = append(points, p)
	}

	return normalizeHistory(points), nil
}

// normalizeHistory sorts bars by date and drops duplicate dates, keeping the
// last bar for each date so the returned series is strictly increasing.
func normalizeHistory(points []PricePoint) []PricePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	out := points[:0]
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].Date.Equal(p.Date) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice         rawValue `json:"regularMarketPrice"`
				RegularMarketPreviousClose rawValue `json:"regularMarketPreviousClose"`
				RegularMarketVolume        rawValue `json:"regularMarketVolume"`
				MarketCap                  rawValue `json:"marketCap"`
			} `json:"price"`
			FinancialData struct {
				CurrentPrice rawValue `json:"currentPrice"`
			} `json:"financialData"`
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				PreviousClose rawValue `json:"previousClose"`
			} `json:"summaryDetail"`
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) fetchInfo(ticker string) (*InfoRecord, error) {
	var summary quoteSummary
	resp, err := c.http.R().
		SetPathParam("ticker", ticker).
		SetQueryParam("modules", "price,financialData,summaryDetail,assetProfile").
		SetResult(&summary).
		ForceContentType("application/json").
		Get("/v10/finance/quoteSummary/{ticker}")
	if err != nil {
		return nil, fmt.Errorf("quote request for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote request for %s: status %d %s", ticker, resp.StatusCode(), resp.Status())
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote error for %s: %s", ticker, summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("empty quote result for %s", ticker)
	}

	result := summary.QuoteSummary.Result[0]
	info := &InfoRecord{
		Ticker: ticker,
		Sector: result.AssetProfile.Sector,
	}

	// Prefer the financialData price, fall back to the regular market price.
	if result.FinancialData.CurrentPrice.Raw != nil {
		info.CurrentPrice = result.FinancialData.CurrentPrice.Raw
	} else {
		info.CurrentPrice = result.Price.RegularMarketPrice.Raw
	}
	if result.SummaryDetail.PreviousClose.Raw != nil {
		info.PreviousClose = result.SummaryDetail.PreviousClose.Raw
	} else {
		info.PreviousClose = result.Price.RegularMarketPreviousClose.Raw
	}
	if result.Price.RegularMarketVolume.Raw != nil {
		vol := int64(*result.Price.RegularMarketVolume.Raw)
		info.Volume = &vol
	}
	info.MarketCap = result.Price.MarketCap.Raw
	info.TrailingPE = result.SummaryDetail.TrailingPE.Raw

	return info, nil
}

func toFloat(values []interface{}, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	f, ok := values[i].(float64)
	return f, ok
}
