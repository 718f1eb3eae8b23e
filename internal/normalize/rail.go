package normalize

import (
	"strings"

	"transfer-status-backend/internal/models"
)

// cryptoKindOrder is the substring precedence for crypto sub-kinds.
var cryptoKindOrder = []models.CryptoKind{models.CryptoBuy, models.CryptoSwap, models.CryptoSend}

// ClassifyRail maps a raw rail identifier onto a rail category.
//
// Anything starting with "crypto" is the crypto rail, and only then is a kind derived
// (first of buy, swap, send found in the string). Known rails map to themselves,
// unknown ones pass through lower-cased, and an empty value falls back to ach.
func ClassifyRail(raw string) (models.Rail, models.CryptoKind) {
	r := strings.ToLower(strings.TrimSpace(raw))
	if r == "" {
		return models.RailACH, ""
	}
	if strings.HasPrefix(r, "crypto") {
		return models.RailCrypto, cryptoKindOf(r)
	}
	return models.Rail(r), ""
}

func cryptoKindOf(lowered string) models.CryptoKind {
	for _, kind := range cryptoKindOrder {
		if strings.Contains(lowered, string(kind)) {
			return kind
		}
	}
	return ""
}

// railETA holds the delivery estimate shown when the source has none.
var railETA = map[models.Rail]string{
	models.RailACH:               "1–3 business days",
	models.RailACHSameDay:        "Same business day",
	models.RailACHNextDay:        "Next business day",
	models.RailWireDomestic:      "Same business day",
	models.RailWireInternational: "1–5 business days",
	models.RailInstantCard:       "Instant",
	models.RailCrypto:            "Depends on network confirmations",
	models.RailPayPal:            "Within minutes",
	models.RailWise:              "Within minutes",
	models.RailRevolut:           "Within minutes",
	models.RailVenmo:             "Within minutes",
	models.RailZelle:             "Within minutes",
	models.RailCashApp:           "Within minutes",
	models.RailWeChat:            "Within minutes",
	models.RailAlipay:            "Within minutes",
}

// ETAFor returns the default estimate for a rail, or "" for unknown rails.
func ETAFor(rail models.Rail) string {
	return railETA[rail]
}
