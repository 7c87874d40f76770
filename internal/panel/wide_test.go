package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func TestWide(t *testing.T) {
	rows := []contracts.PriceObservation{
		closeRow("B", date(2024, 1, 2), 20),
		closeRow("A", date(2024, 1, 2), 10),
		closeRow("A", date(2024, 1, 3), 11),
	}

	table := Wide(rows, string(contracts.FieldClose))

	require.Equal(t, []string{"A", "B"}, table.Tickers)
	require.Len(t, table.Dates, 2)
	assert.Equal(t, 10.0, *table.Values[0][0])
	assert.Equal(t, 20.0, *table.Values[0][1])
	assert.Equal(t, 11.0, *table.Values[1][0])
	assert.Nil(t, table.Values[1][1])
}

func TestWide_Volume(t *testing.T) {
	rows := []contracts.PriceObservation{closeRow("A", date(2024, 1, 2), 20)}

	table := Wide(rows, ColumnVolume)

	assert.Equal(t, 1.0, *table.Values[0][0])
}
