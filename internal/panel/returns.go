package panel

import (
	"math"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// ComputeReturns fills ReturnAdjusted and ReturnClosing per ticker
// ⭐ SSOT: type.return
//
// Rows are sorted by ticker then date. The first row of each ticker has nil
// returns; a nil price on either side of a step yields a nil return.
func ComputeReturns(rows []contracts.PriceObservation, rt contracts.ReturnType) []contracts.PriceObservation {
	out := make([]contracts.PriceObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Clone())
	}
	contracts.SortPanel(out)

	for i := range out {
		out[i].ReturnAdjusted = nil
		out[i].ReturnClosing = nil
		if i == 0 || out[i].Ticker != out[i-1].Ticker {
			continue
		}
		out[i].ReturnAdjusted = Return(out[i-1].PriceAdjusted, out[i].PriceAdjusted, rt)
		out[i].ReturnClosing = Return(out[i-1].PriceClose, out[i].PriceClose, rt)
	}

	return out
}

// Return computes a single-step return from prev to cur
// Undefined steps (nil inputs, zero base, non-positive log inputs) return nil.
func Return(prev, cur *float64, rt contracts.ReturnType) *float64 {
	if prev == nil || cur == nil {
		return nil
	}
	p, c := *prev, *cur

	var r float64
	switch rt {
	case contracts.ReturnLog:
		if p <= 0 || c <= 0 {
			return nil
		}
		r = math.Log(c / p)
	default:
		if p == 0 {
			return nil
		}
		r = (c - p) / p
	}

	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return contracts.Float(r)
}
