package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddmr2811/Facturas/internal/models"
)

const tablesYAML = `
identifiers:
  - key: ES0021000012345678AB
    community: RECONQUISTA 14
    account: "6282014"
    reference_address: Avda. Reconquista 14
  - key: CNT-1
    community: BUENAVISTA
    account: "6281022"
    codes: ["POL 4455"]
  - key: CNT-1
    community: LATER
    account: "6281099"
addresses:
  - type: Water
    address: AVDA RECONQUISTA 14 A
    community: RECONQUISTA AGUA
    account: "6281014"
defaults:
  Water:
    community: AGUA GENERAL
    account: "6281000"
`

func TestParseTables(t *testing.T) {
	tables, err := ParseTables([]byte(tablesYAML))
	require.NoError(t, err)

	ids, addrs := tables.Len()
	assert.Equal(t, 3, ids)
	assert.Equal(t, 1, addrs)
	assert.Equal(t, []string{"Avda. Reconquista 14"}, tables.ReferenceAddresses())

	r := tables.Resolve(models.ExtractedFields{
		ExpenseType: models.ExpenseWater,
		MeterCode:   models.Some("CNT-1"),
	})
	assert.Equal(t, "BUENAVISTA", r.CommunityName)
	assert.Equal(t, models.TierMeter, r.Tier)

	r = tables.Resolve(models.ExtractedFields{ExpenseType: models.ExpenseWater})
	assert.Equal(t, "AGUA GENERAL", r.CommunityName)
	assert.Equal(t, "6281000", r.LedgerAccountCode)

	r = tables.Resolve(models.ExtractedFields{ExpenseType: models.ExpensePower})
	assert.Equal(t, "COMUNIDAD LUZ", r.CommunityName)
}

func TestParseTablesValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty key",
			yaml: "identifiers:\n  - key: ''\n    account: '628'\n",
			want: "identifiers[0]: empty key",
		},
		{
			name: "empty account",
			yaml: "identifiers:\n  - key: X1\n    community: A\n",
			want: `identifiers[0] "X1": empty account`,
		},
		{
			name: "unknown address type",
			yaml: "addresses:\n  - type: Gas\n    address: Calle Sol 7\n    account: '628'\n",
			want: `addresses[0]: unknown type "Gas"`,
		},
		{
			name: "unknown default type",
			yaml: "defaults:\n  Gas:\n    account: '628'\n",
			want: `defaults: unknown type "Gas"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidTables)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables(writeFile(t, "tables.yaml", tablesYAML))
	require.NoError(t, err)
	assert.Contains(t, tables.Keys(), "CNT-1")

	_, err = LoadTables(writeFile(t, "broken.yaml", "identifiers: {"))
	assert.Error(t, err)
}
