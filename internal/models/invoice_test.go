package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalJSON(t *testing.T) {
	fields := ExtractedFields{
		ExpenseType: ExpensePower,
		AmountTotal: Some(decimal.RequireFromString("125.50")),
		MeterCode:   Some("Q22EA038022"),
	}

	data, err := json.Marshal(fields)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Power", raw["expenseType"])
	assert.Equal(t, "125.5", raw["amountTotal"])
	assert.Equal(t, "Q22EA038022", raw["meterCode"])
	assert.Nil(t, raw["address"])
	assert.Contains(t, raw, "address")

	var back ExtractedFields
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.Address.Found)
	amount, ok := back.AmountTotal.Get()
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("125.50")))
}

func TestOptionalOrElse(t *testing.T) {
	assert.Equal(t, "x", None[string]().OrElse("x"))
	assert.Equal(t, "y", Some("y").OrElse("x"))
}

func TestConfidenceRank(t *testing.T) {
	assert.Less(t, ConfidenceLow.Rank(), ConfidenceMedium.Rank())
	assert.Less(t, ConfidenceMedium.Rank(), ConfidenceHigh.Rank())
}

func TestResolutionTierSpecific(t *testing.T) {
	assert.True(t, TierIdentifier.Specific())
	assert.True(t, TierMeter.Specific())
	assert.False(t, TierTypeDefault.Specific())
	assert.Equal(t, "routing_code", TierRoutingCode.String())
}

func TestAccountDescription(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
		ok   bool
	}{
		{"exact", "628", "Suministros", true},
		{"sub-account", "6281111", "Suministros", true},
		{"four digits first", "47210001", "Hacienda Pública, IVA soportado", true},
		{"unknown", "999", "", false},
		{"too short", "62", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AccountDescription(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractionDefaults(t *testing.T) {
	cfg := ExtractionConfig{MaxYear: 2035}.WithDefaults()
	assert.Equal(t, 2020, cfg.MinYear)
	assert.Equal(t, 2035, cfg.MaxYear)
	assert.Equal(t, []string{"TOLEDO"}, cfg.Cities)
	assert.Equal(t, "EUR", cfg.CurrencySuffix)

	// an explicit empty list disables city stripping
	cfg = ExtractionConfig{Cities: []string{}}.WithDefaults()
	assert.Empty(t, cfg.Cities)
}
