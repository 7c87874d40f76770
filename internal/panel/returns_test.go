package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func adjustedSeries(ticker string, prices ...float64) []contracts.PriceObservation {
	rows := make([]contracts.PriceObservation, 0, len(prices))
	for i, p := range prices {
		rows = append(rows, closeRow(ticker, date(2024, 1, 1+i), p))
	}
	return rows
}

func TestComputeReturns_Arithmetic(t *testing.T) {
	out := ComputeReturns(adjustedSeries("A", 100, 110, 99), contracts.ReturnArithmetic)

	require.Len(t, out, 3)
	assert.Nil(t, out[0].ReturnAdjusted)
	assert.Nil(t, out[0].ReturnClosing)
	assert.InDelta(t, 0.10, *out[1].ReturnAdjusted, 1e-12)
	assert.InDelta(t, -0.10, *out[2].ReturnAdjusted, 1e-12)
	assert.InDelta(t, 0.10, *out[1].ReturnClosing, 1e-12)
}

func TestComputeReturns_Log(t *testing.T) {
	out := ComputeReturns(adjustedSeries("A", 100, 110, 99), contracts.ReturnLog)

	require.Len(t, out, 3)
	assert.Nil(t, out[0].ReturnAdjusted)
	assert.InDelta(t, 0.09531, *out[1].ReturnAdjusted, 1e-5)
	assert.InDelta(t, -0.10536, *out[2].ReturnAdjusted, 1e-5)
	assert.InDelta(t, math.Log(110.0/100.0), *out[1].ReturnClosing, 1e-12)
}

func TestComputeReturns_PerTicker(t *testing.T) {
	rows := append(adjustedSeries("B", 50, 55), adjustedSeries("A", 10, 20)...)

	out := ComputeReturns(rows, contracts.ReturnArithmetic)

	require.Len(t, out, 4)
	assert.Equal(t, "A", out[0].Ticker)
	assert.Nil(t, out[0].ReturnAdjusted)
	assert.InDelta(t, 1.0, *out[1].ReturnAdjusted, 1e-12)
	assert.Equal(t, "B", out[2].Ticker)
	assert.Nil(t, out[2].ReturnAdjusted, "first row of each ticker is null")
	assert.InDelta(t, 0.1, *out[3].ReturnAdjusted, 1e-12)
}

func TestComputeReturns_UnsortedInput(t *testing.T) {
	rows := adjustedSeries("A", 100, 110, 99)
	rows[0], rows[2] = rows[2], rows[0]

	out := ComputeReturns(rows, contracts.ReturnArithmetic)

	assert.Nil(t, out[0].ReturnAdjusted)
	assert.InDelta(t, 0.10, *out[1].ReturnAdjusted, 1e-12)
}

func TestComputeReturns_NullPropagates(t *testing.T) {
	rows := adjustedSeries("A", 100, 110, 120)
	rows[1].PriceAdjusted = nil

	out := ComputeReturns(rows, contracts.ReturnArithmetic)

	assert.Nil(t, out[1].ReturnAdjusted)
	assert.Nil(t, out[2].ReturnAdjusted)
	assert.NotNil(t, out[1].ReturnClosing, "closing series is independent")
}

func TestReturn_Undefined(t *testing.T) {
	tests := []struct {
		name string
		prev *float64
		cur  *float64
		rt   contracts.ReturnType
	}{
		{"nil prev", nil, f(1), contracts.ReturnArithmetic},
		{"nil cur", f(1), nil, contracts.ReturnLog},
		{"zero base arithmetic", f(0), f(1), contracts.ReturnArithmetic},
		{"zero base log", f(0), f(1), contracts.ReturnLog},
		{"negative log", f(-1), f(1), contracts.ReturnLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Return(tt.prev, tt.cur, tt.rt))
		})
	}
}
