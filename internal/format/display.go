package format

import (
	"time"

	"transfer-status-backend/internal/models"
)

// Display holds the strings a pending or success page renders.
type Display struct {
	Page         string `json:"page"`
	StatusLabel  string `json:"statusLabel"`
	Amount       string `json:"amount"`
	Fees         string `json:"fees,omitempty"`
	Total        string `json:"total,omitempty"`
	CryptoAmount string `json:"cryptoAmount,omitempty"`
	Recipient    string `json:"recipient,omitempty"`
	Sender       string `json:"sender,omitempty"`
	ETA          string `json:"eta,omitempty"`
	CreatedAt    string `json:"createdAt"`
	Reference    string `json:"reference"`
}

// DisplayOf renders s.
func DisplayOf(s models.TransferSummary) Display {
	d := Display{
		Page:        s.Status.Page(),
		StatusLabel: s.Status.Label(),
		Amount:      Money(s.Amount.Value, s.Amount.Currency),
		Fees:        FeeLine(s.Fees),
		Recipient:   s.Recipient.Label,
		Sender:      s.Sender.Label,
		ETA:         s.ETAText,
		CreatedAt:   s.CreatedAt.Format(time.RFC1123),
		Reference:   s.ReferenceID.Value,
	}
	if total, ok := Total(s); ok && d.Fees != "" {
		d.Total = total
	}
	if s.CryptoAmount != nil {
		d.CryptoAmount = CryptoAmount(*s.CryptoAmount, s.CryptoSymbol)
	}
	return d
}
