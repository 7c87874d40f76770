package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func TestResample_WeeklyTwoBuckets(t *testing.T) {
	var rows []contracts.PriceObservation
	for d := 1; d <= 10; d++ {
		row := closeRow("A", date(2020, 1, d), float64(100+d))
		row.Volume = f(float64(d))
		rows = append(rows, row)
	}

	out := Resample(rows, contracts.FrequencyWeekly)

	require.Len(t, out, 2)
	assert.Equal(t, date(2020, 1, 1), out[0].RefDate)
	assert.Equal(t, date(2020, 1, 8), out[1].RefDate)
	assert.Equal(t, float64(1+2+3+4+5+6+7), *out[0].Volume)
	assert.Equal(t, float64(8+9+10), *out[1].Volume)
}

func TestResample_AggregationRules(t *testing.T) {
	rows := []contracts.PriceObservation{
		{Ticker: "A", RefDate: date(2021, 3, 2), PriceOpen: f(10), PriceHigh: f(99), PriceLow: f(1), PriceClose: f(11), PriceAdjusted: f(10.5), Volume: f(100)},
		{Ticker: "A", RefDate: date(2021, 3, 15), PriceOpen: f(12), PriceClose: f(15), PriceAdjusted: f(14.5)},
		{Ticker: "A", RefDate: date(2021, 3, 31), PriceOpen: f(13), PriceClose: f(9), PriceAdjusted: f(8.5), Volume: f(50)},
	}

	out := Resample(rows, contracts.FrequencyMonthly)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, date(2021, 3, 2), got.RefDate)
	assert.Equal(t, 10.0, *got.PriceOpen)
	assert.Equal(t, 11.0, *got.PriceClose, "close is the first close of the bucket")
	assert.Equal(t, 10.5, *got.PriceAdjusted)
	assert.Equal(t, 15.0, *got.PriceHigh, "high is the max close")
	assert.Equal(t, 9.0, *got.PriceLow, "low is the min close")
	assert.Equal(t, 150.0, *got.Volume)
}

func TestResample_Monthly(t *testing.T) {
	rows := []contracts.PriceObservation{
		closeRow("A", date(2021, 1, 29), 1),
		closeRow("A", date(2021, 2, 1), 2),
		closeRow("A", date(2021, 2, 26), 3),
		closeRow("A", date(2021, 3, 1), 4),
	}

	out := Resample(rows, contracts.FrequencyMonthly)

	require.Len(t, out, 3)
	assert.Equal(t, []time.Time{date(2021, 1, 29), date(2021, 2, 1), date(2021, 3, 1)}, datesOf(out, "A"))
}

func TestResample_Yearly(t *testing.T) {
	rows := []contracts.PriceObservation{
		closeRow("A", date(2019, 12, 31), 1),
		closeRow("A", date(2020, 1, 2), 2),
		closeRow("A", date(2020, 12, 31), 3),
		closeRow("B", date(2020, 6, 1), 4),
	}

	out := Resample(rows, contracts.FrequencyYearly)

	require.Len(t, out, 3)
	assert.Equal(t, "A", out[0].Ticker)
	assert.Equal(t, date(2019, 12, 31), out[0].RefDate)
	assert.Equal(t, date(2020, 1, 2), out[1].RefDate)
	assert.Equal(t, "B", out[2].Ticker)
}

func TestResample_WeeklyAnchorSpansYears(t *testing.T) {
	// anchor is 2019-01-01: bin 52 covers 2019-12-31 through 2020-01-06
	rows := []contracts.PriceObservation{
		closeRow("A", date(2019, 12, 31), 1),
		closeRow("A", date(2020, 1, 1), 2),
		closeRow("A", date(2020, 1, 6), 3),
		closeRow("A", date(2020, 1, 7), 4),
	}

	out := Resample(rows, contracts.FrequencyWeekly)

	require.Len(t, out, 2)
	assert.Equal(t, date(2019, 12, 31), out[0].RefDate)
	assert.Equal(t, 3.0, *out[0].Volume)
	assert.Equal(t, date(2020, 1, 7), out[1].RefDate)
}

func TestResample_UniquePerTickerBucket(t *testing.T) {
	var rows []contracts.PriceObservation
	for _, ticker := range []string{"B", "A"} {
		for d := 0; d < 60; d++ {
			rows = append(rows, closeRow(ticker, date(2022, 1, 1).AddDate(0, 0, d), float64(d)))
		}
	}

	out := Resample(rows, contracts.FrequencyWeekly)

	seen := make(map[string]bool)
	for i, row := range out {
		key := row.Ticker + row.RefDate.String()
		assert.False(t, seen[key])
		seen[key] = true
		if i > 0 && out[i-1].Ticker == row.Ticker {
			assert.True(t, out[i-1].RefDate.Before(row.RefDate))
		}
	}
	assert.Equal(t, "A", out[0].Ticker)
}

func TestResample_NullVolumeCountsAsZero(t *testing.T) {
	rows := []contracts.PriceObservation{
		{Ticker: "A", RefDate: date(2021, 5, 3), PriceClose: f(1)},
		{Ticker: "A", RefDate: date(2021, 5, 4), PriceClose: f(2), Volume: f(7)},
	}

	out := Resample(rows, contracts.FrequencyMonthly)

	require.Len(t, out, 1)
	assert.Equal(t, 7.0, *out[0].Volume)
}

func TestResample_DailyIsSortedCopy(t *testing.T) {
	rows := []contracts.PriceObservation{
		closeRow("B", date(2021, 5, 4), 1),
		closeRow("A", date(2021, 5, 3), 2),
	}

	out := Resample(rows, contracts.FrequencyDaily)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Ticker)
	assert.Equal(t, "B", rows[0].Ticker, "input untouched")
}
