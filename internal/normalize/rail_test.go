package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transfer-status-backend/internal/models"
)

func TestClassifyRail(t *testing.T) {
	tests := []struct {
		raw  string
		rail models.Rail
		kind models.CryptoKind
	}{
		{"", models.RailACH, ""},
		{"  ", models.RailACH, ""},
		{"ACH_SAME_DAY", models.RailACHSameDay, ""},
		{" Wire_International ", models.RailWireInternational, ""},
		{"crypto", models.RailCrypto, ""},
		{"crypto_buy", models.RailCrypto, models.CryptoBuy},
		{"Crypto-Swap", models.RailCrypto, models.CryptoSwap},
		{"crypto_send", models.RailCrypto, models.CryptoSend},
		{"crypto_buy_and_send", models.RailCrypto, models.CryptoBuy},
		{"crypto_send_then_swap", models.RailCrypto, models.CryptoSwap},
		{"buy_crypto", models.Rail("buy_crypto"), ""},
		{"SEPA", models.Rail("sepa"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rail, kind := ClassifyRail(tt.raw)
			assert.Equal(t, tt.rail, rail)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestClassifyRailIdempotentOnKnownRails(t *testing.T) {
	for _, r := range models.KnownRails {
		first, _ := ClassifyRail(string(r))
		second, _ := ClassifyRail(string(first))
		assert.Equal(t, first, second, r)
		assert.Equal(t, r, first)
	}
}

func TestETAFor(t *testing.T) {
	for _, r := range models.KnownRails {
		assert.NotEmpty(t, ETAFor(r), r)
	}
	assert.Equal(t, "Same business day", ETAFor(models.RailACHSameDay))
	assert.Equal(t, "Within minutes", ETAFor(models.RailVenmo))
	assert.Empty(t, ETAFor(models.Rail("sepa")))
}
