package parse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"thousands and decimal comma", "1.234,56", "1234.56", true},
		{"decimal comma", "50,76", "50.76", true},
		{"decimal point", "50.76", "50.76", true},
		{"integer", "125", "125", true},
		{"currency suffix", "125,50 €", "125.5", true},
		{"eur suffix", "99,90 EUR", "99.9", true},
		{"millions", "1.234.567,89", "1234567.89", true},
		{"rounded to cents", "10,555", "10.56", true},
		{"two dots only", "1.234.567", "", false},
		{"letters", "abc", "", false},
		{"empty", "", "", false},
		{"negative", "-5,00", "", false},
		{"exponent", "1e5", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Money(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1234,56", FormatMoney(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "125,50", FormatMoney(decimal.RequireFromString("125.5")))
	assert.Equal(t, "0,00", FormatMoney(decimal.Zero))
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, s := range []string{"0,01", "50,76", "1234,56", "99999,99"} {
		d, ok := Money(s)
		assert.True(t, ok)
		assert.Equal(t, s, FormatMoney(d))
	}
}

func TestDateWindowNormalize(t *testing.T) {
	w := DateWindow{MinYear: 2020, MaxYear: 2030}

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"slashes", "15/03/2024", "15/03/2024", true},
		{"zero padding", "5/3/2024", "05/03/2024", true},
		{"dashes", "15-03-2024", "15/03/2024", true},
		{"dots", "15.03.2024", "15/03/2024", true},
		{"two digit year", "15/03/24", "15/03/2024", true},
		{"leap day", "29/02/2024", "29/02/2024", true},
		{"not a leap year", "29/02/2023", "", false},
		{"month 13", "01/13/2024", "", false},
		{"day zero", "00/01/2024", "", false},
		{"before window", "15/03/2019", "", false},
		{"after window", "15/03/2031", "", false},
		{"three digit year", "15/03/202", "", false},
		{"garbage", "hello", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.Normalize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateWindowConfigurable(t *testing.T) {
	w := DateWindow{MinYear: 2010, MaxYear: 2019}
	got, ok := w.Normalize("01/06/2015")
	assert.True(t, ok)
	assert.Equal(t, "01/06/2015", got)

	_, ok = w.Normalize("01/06/2024")
	assert.False(t, ok)
}
