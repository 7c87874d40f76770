// Package yahoo downloads daily price history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// DefaultBaseURL is the Yahoo Finance chart host
const DefaultBaseURL = "https://query2.finance.yahoo.com"

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance API calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// chartResponse is the response structure of the v8 chart API
// Quote arrays hold nulls on non-trading slots, so they decode into pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrices fetches daily bars for ticker within [from, to]
func (c *Client) FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", contracts.NormalizeDate(from).Unix()))
	// period2 is exclusive
	params.Set("period2", fmt.Sprintf("%d", contracts.NormalizeDate(to).AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")
	params.Set("includeAdjustedClose", "true")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var chart chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &chart); err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}

	prices, err := parseChart(ticker, &chart)
	if err != nil {
		return nil, err
	}

	c.logger.WithTicker(ticker, "yahoo").WithField("count", len(prices)).Debug("Fetched prices")

	return prices, nil
}

// parseChart converts the chart payload into observations
// Bars whose OHLC are all null (holidays) are dropped; partial nulls stay nil.
func parseChart(ticker string, chart *chartResponse) ([]contracts.PriceObservation, error) {
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no result for %s", ticker)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote block for %s", ticker)
	}

	quote := result.Indicators.Quote[0]
	var adjusted []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjusted = result.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]contracts.PriceObservation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		obs := contracts.PriceObservation{
			Ticker:        ticker,
			RefDate:       contracts.NormalizeDate(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
			PriceOpen:     at(quote.Open, i),
			PriceHigh:     at(quote.High, i),
			PriceLow:      at(quote.Low, i),
			PriceClose:    at(quote.Close, i),
			PriceAdjusted: at(adjusted, i),
			Volume:        at(quote.Volume, i),
		}
		if obs.PriceOpen == nil && obs.PriceHigh == nil && obs.PriceLow == nil && obs.PriceClose == nil {
			continue
		}
		prices = append(prices, obs)
	}

	return prices, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
