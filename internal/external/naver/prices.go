package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

var (
	trailingComma = regexp.MustCompile(`,\s*\]`)
	rowPattern    = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)
)

// FetchPrices fetches daily OHLCV for a six-digit KRX code
// Naver publishes no adjusted series, so adjusted = close.
// ⭐ SSOT: Naver Finance price API calls happen only here
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]contracts.PriceObservation, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	fullURL := fmt.Sprintf("%s/siseJson.naver?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	prices, err := parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	for i := range prices {
		prices[i].Ticker = stockCode
	}

	c.logger.WithTicker(stockCode, "naver").WithField("count", len(prices)).Debug("Fetched prices")

	return prices, nil
}

// parsePriceResponse parses the single-quoted, trailing-comma JSON Naver returns
func parsePriceResponse(body string) ([]contracts.PriceObservation, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	body = strings.ReplaceAll(body, "'", "\"")
	body = trailingComma.ReplaceAllString(body, "]")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData), nil
	}

	prices := parsePriceRegex(body)
	if len(prices) == 0 {
		return nil, fmt.Errorf("unrecognised response: %.80s", body)
	}
	return prices, nil
}

// parsePriceJSON parses the array-of-arrays format; row 0 is the header
func parsePriceJSON(rawData [][]interface{}) []contracts.PriceObservation {
	var prices []contracts.PriceObservation
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}

		tradeDate, err := parseCompactDate(dateStr)
		if err != nil {
			continue
		}

		prices = append(prices, newObservation(tradeDate,
			toFloat(row[1]), toFloat(row[2]), toFloat(row[3]), toFloat(row[4]), toFloat(row[5])))
	}
	return prices
}

// parsePriceRegex scans rows out of a body that is not valid JSON
func parsePriceRegex(body string) []contracts.PriceObservation {
	var prices []contracts.PriceObservation
	for _, match := range rowPattern.FindAllStringSubmatch(body, -1) {
		tradeDate, err := parseCompactDate(match[1])
		if err != nil {
			continue
		}

		values := make([]*float64, 5)
		for j := range values {
			values[j] = toFloat(match[j+2])
		}

		prices = append(prices, newObservation(tradeDate, values[0], values[1], values[2], values[3], values[4]))
	}
	return prices
}

func newObservation(date time.Time, open, high, low, closePrice, volume *float64) contracts.PriceObservation {
	var adjusted *float64
	if closePrice != nil {
		adjusted = contracts.Float(*closePrice)
	}
	return contracts.PriceObservation{
		RefDate:       date,
		PriceOpen:     open,
		PriceHigh:     high,
		PriceLow:      low,
		PriceClose:    closePrice,
		PriceAdjusted: adjusted,
		Volume:        volume,
	}
}

func parseCompactDate(s string) (time.Time, error) {
	return time.Parse("20060102", strings.TrimSpace(strings.Trim(s, "\"")))
}

// toFloat converts the loosely typed cells Naver emits; unparseable = nil
func toFloat(v interface{}) *float64 {
	switch val := v.(type) {
	case float64:
		return contracts.Float(val)
	case int64:
		return contracts.Float(float64(val))
	case int:
		return contracts.Float(float64(val))
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		return contracts.Float(n)
	default:
		return nil
	}
}
