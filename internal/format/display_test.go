package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"transfer-status-backend/internal/models"
)

func TestDisplayOf(t *testing.T) {
	s := models.TransferSummary{
		Status:      models.StatusCompleted,
		Type:        models.RailWise,
		CreatedAt:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ETAText:     "Within minutes",
		Amount:      models.Amount{Value: 19.99, Currency: "GBP"},
		Fees:        models.Fees{App: ptr(1), Currency: "GBP"},
		Sender:      models.Party{Name: "Sam", Label: "Sam"},
		Recipient:   models.Party{Name: "Priya", Label: "Priya"},
		ReferenceID: models.AuthoritativeRef("W-1"),
	}

	d := DisplayOf(s)
	assert.Equal(t, "success", d.Page)
	assert.Equal(t, "Completed", d.StatusLabel)
	assert.Equal(t, "£19.99", d.Amount)
	assert.Equal(t, "£1.00 fee", d.Fees)
	assert.Equal(t, "£20.99", d.Total)
	assert.Equal(t, "Priya", d.Recipient)
	assert.Equal(t, "Sam", d.Sender)
	assert.Equal(t, "Within minutes", d.ETA)
	assert.Equal(t, "Fri, 01 Mar 2024 09:30:00 UTC", d.CreatedAt)
	assert.Equal(t, "W-1", d.Reference)
	assert.Empty(t, d.CryptoAmount)
}

func TestDisplayOfWithoutFeesOmitsTotal(t *testing.T) {
	s := models.TransferSummary{
		Status:       models.StatusOTPRequired,
		Type:         models.RailCrypto,
		Amount:       models.Amount{Value: 900, Currency: "USD"},
		Fees:         models.Fees{Currency: "USD"},
		CryptoAmount: ptr(0.015),
		CryptoSymbol: "BTC",
		ReferenceID:  models.PlaceholderRef("US-ABCDEFGH"),
	}

	d := DisplayOf(s)
	assert.Equal(t, "pending", d.Page)
	assert.Equal(t, "Verification required", d.StatusLabel)
	assert.Empty(t, d.Fees)
	assert.Empty(t, d.Total)
	assert.Equal(t, "0.015 BTC", d.CryptoAmount)
	assert.Equal(t, "US-ABCDEFGH", d.Reference)
}
