package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transfer-status-backend/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestDigits(t *testing.T) {
	assert.Equal(t, 2, Digits("USD"))
	assert.Equal(t, 2, Digits(" eur "))
	assert.Equal(t, 0, Digits("JPY"))
	assert.Equal(t, 2, Digits("NOPE"))
}

func TestMoney(t *testing.T) {
	tests := []struct {
		value float64
		code  string
		want  string
	}{
		{1234.5, "USD", "$1,234.50"},
		{0, "", "$0.00"},
		{150.5, "usd", "$150.50"},
		{1000000, "EUR", "€1,000,000.00"},
		{19.99, "GBP", "£19.99"},
		{1500, "JPY", "¥1,500"},
		{-5, "EUR", "-€5.00"},
		{12, "CHF", "CHF 12.00"},
		{1, "XYZ", "XYZ 1.00"},
		{999, "USD", "$999.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(tt.value, tt.code))
		})
	}
}

func TestCryptoAmount(t *testing.T) {
	assert.Equal(t, "0.015 BTC", CryptoAmount(0.015, "btc"))
	assert.Equal(t, "1.5 ETH", CryptoAmount(1.5, " ETH "))
	assert.Equal(t, "0.12345679", CryptoAmount(0.123456789, ""))
}

func TestFeeLine(t *testing.T) {
	assert.Empty(t, FeeLine(models.Fees{Currency: "USD"}))
	assert.Equal(t, "$2.50 fee", FeeLine(models.Fees{App: ptr(2.5), Currency: "USD"}))
	assert.Equal(t, "$2.50 fee + $0.50 network fee",
		FeeLine(models.Fees{App: ptr(2.5), Network: ptr(0.5), Currency: "USD"}))
	assert.Equal(t, "€0.00 network fee", FeeLine(models.Fees{Network: ptr(0), Currency: "EUR"}))
}

func TestTotal(t *testing.T) {
	s := models.TransferSummary{Amount: models.Amount{Value: 100, Currency: "USD"}}

	total, ok := Total(s)
	assert.True(t, ok)
	assert.Equal(t, "$100.00", total)

	s.Fees = models.Fees{App: ptr(2.5), Network: ptr(0.5), Currency: "USD"}
	total, ok = Total(s)
	assert.True(t, ok)
	assert.Equal(t, "$103.00", total)

	s.Fees.Currency = "BTC"
	_, ok = Total(s)
	assert.False(t, ok)
}
