package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

// Status is the normalized state of a transfer.
type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusScheduled   Status = "scheduled"
	StatusOTPRequired Status = "otp_required"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
)

// Statuses lists every valid Status.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusScheduled,
	StatusOTPRequired,
	StatusCompleted,
	StatusRejected,
}

// IsValid reports whether s is one of the six known statuses.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the transfer will not change again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Page names the presentation a summary belongs on.
func (s Status) Page() string {
	switch s {
	case StatusCompleted:
		return "success"
	case StatusRejected:
		return "failed"
	default:
		return "pending"
	}
}

// Label is the human-readable status.
func (s Status) Label() string {
	switch s {
	case StatusProcessing:
		return "Processing"
	case StatusScheduled:
		return "Scheduled"
	case StatusOTPRequired:
		return "Verification required"
	case StatusCompleted:
		return "Completed"
	case StatusRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// Rail is the transfer rail category. Unknown backend rails are carried through
// lower-cased, so a Rail is not restricted to the constants below.
type Rail string

const (
	RailACH               Rail = "ach"
	RailACHSameDay        Rail = "ach_same_day"
	RailACHNextDay        Rail = "ach_next_day"
	RailWireDomestic      Rail = "wire_domestic"
	RailWireInternational Rail = "wire_international"
	RailInstantCard       Rail = "instant_card"
	RailCrypto            Rail = "crypto"
	RailPayPal            Rail = "paypal"
	RailWise              Rail = "wise"
	RailRevolut           Rail = "revolut"
	RailVenmo             Rail = "venmo"
	RailZelle             Rail = "zelle"
	RailCashApp           Rail = "cashapp"
	RailWeChat            Rail = "wechat"
	RailAlipay            Rail = "alipay"
)

// KnownRails is the closed enumeration of named rails.
var KnownRails = []Rail{
	RailACH, RailACHSameDay, RailACHNextDay,
	RailWireDomestic, RailWireInternational,
	RailInstantCard, RailCrypto,
	RailPayPal, RailWise, RailRevolut, RailVenmo, RailZelle, RailCashApp, RailWeChat, RailAlipay,
}

// IsKnown reports whether r is one of the named rails.
func (r Rail) IsKnown() bool {
	for _, known := range KnownRails {
		if r == known {
			return true
		}
	}
	return false
}

// IsWallet reports whether r is a wallet or P2P rail.
func (r Rail) IsWallet() bool {
	switch r {
	case RailPayPal, RailWise, RailRevolut, RailVenmo, RailZelle, RailCashApp, RailWeChat, RailAlipay:
		return true
	}
	return false
}

// CryptoKind sub-classifies crypto transfers.
type CryptoKind string

const (
	CryptoBuy  CryptoKind = "buy"
	CryptoSwap CryptoKind = "swap"
	CryptoSend CryptoKind = "send"
)

// IsValid reports whether k is a known crypto kind.
func (k CryptoKind) IsValid() bool {
	return k == CryptoBuy || k == CryptoSwap || k == CryptoSend
}

// Amount is a value in a currency. Value is always finite.
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Fees holds the optional application and network fees.
type Fees struct {
	App      *float64 `json:"app,omitempty"`
	Network  *float64 `json:"network,omitempty"`
	Currency string   `json:"currency"`
}

// Total returns the sum of the present fees.
func (f Fees) Total() float64 {
	var total float64
	if f.App != nil {
		total += *f.App
	}
	if f.Network != nil {
		total += *f.Network
	}
	return total
}

// Party describes a sender or recipient. Every field is optional.
type Party struct {
	Name          string `json:"name,omitempty"`
	Mask          string `json:"mask,omitempty"`
	Email         string `json:"email,omitempty"`
	Tag           string `json:"tag,omitempty"`
	CryptoAddress string `json:"cryptoAddress,omitempty"`
	Network       string `json:"network,omitempty"`
	Label         string `json:"label,omitempty"`
}

// ReferenceID identifies a transfer. A placeholder was generated locally for
// display and is unknown to the backend.
type ReferenceID struct {
	Value       string
	Placeholder bool
}

// AuthoritativeRef wraps a reference that came from the backend or the caller.
func AuthoritativeRef(v string) ReferenceID {
	return ReferenceID{Value: v}
}

// PlaceholderRef wraps a locally generated reference.
func PlaceholderRef(v string) ReferenceID {
	return ReferenceID{Value: v, Placeholder: true}
}

// Queryable reports whether the reference can be sent back to the backend.
func (r ReferenceID) Queryable() bool {
	return r.Value != "" && !r.Placeholder
}

func (r ReferenceID) String() string {
	return r.Value
}

// TransferSummary is the canonical view model for pending and success pages.
// A summary is never mutated after construction; updates replace it wholesale.
type TransferSummary struct {
	Status       Status      `json:"status"`
	Type         Rail        `json:"type"`
	RailRaw      string      `json:"railRaw,omitempty"`
	CryptoKind   CryptoKind  `json:"cryptoKind,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	ETAText      string      `json:"etaText,omitempty"`
	Amount       Amount      `json:"amount"`
	Fees         Fees        `json:"fees"`
	Sender       Party       `json:"sender"`
	Recipient    Party       `json:"recipient"`
	ReferenceID  ReferenceID `json:"-"`
	Cancelable   bool        `json:"cancelable"`
	Note         string      `json:"note,omitempty"`
	TraceID      string      `json:"traceId,omitempty"`
	CryptoAmount *float64    `json:"cryptoAmount,omitempty"`
	CryptoSymbol string      `json:"cryptoSymbol,omitempty"`
}

type summaryAlias TransferSummary

type summaryJSON struct {
	summaryAlias
	ReferenceID            string `json:"referenceId"`
	ReferenceIDPlaceholder bool   `json:"referenceIdPlaceholder,omitempty"`
}

// MarshalJSON flattens the tagged reference into referenceId/referenceIdPlaceholder.
func (s TransferSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		summaryAlias:           summaryAlias(s),
		ReferenceID:            s.ReferenceID.Value,
		ReferenceIDPlaceholder: s.ReferenceID.Placeholder,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *TransferSummary) UnmarshalJSON(data []byte) error {
	var v summaryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = TransferSummary(v.summaryAlias)
	s.ReferenceID = ReferenceID{Value: v.ReferenceID, Placeholder: v.ReferenceIDPlaceholder}
	return nil
}

// Equal compares two summaries structurally through their canonical encoding.
func (s *TransferSummary) Equal(other *TransferSummary) bool {
	if s == nil || other == nil {
		return s == other
	}
	a, errA := json.Marshal(s)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(*s, *other)
	}
	return bytes.Equal(a, b)
}
