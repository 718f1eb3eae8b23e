package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHelpers(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("done").IsValid())

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusOTPRequired.IsTerminal())

	assert.Equal(t, "success", StatusCompleted.Page())
	assert.Equal(t, "failed", StatusRejected.Page())
	assert.Equal(t, "pending", StatusScheduled.Page())
	assert.Equal(t, "Pending", Status("").Label())
}

func TestRailHelpers(t *testing.T) {
	assert.True(t, RailZelle.IsKnown())
	assert.True(t, RailZelle.IsWallet())
	assert.False(t, RailWireDomestic.IsWallet())
	assert.False(t, Rail("sepa").IsKnown())
	assert.True(t, CryptoSwap.IsValid())
	assert.False(t, CryptoKind("stake").IsValid())
}

func TestReferenceIDQueryable(t *testing.T) {
	assert.True(t, AuthoritativeRef("T-1").Queryable())
	assert.False(t, PlaceholderRef("US-ABCDEFGH").Queryable())
	assert.False(t, AuthoritativeRef("").Queryable())
}

func TestSummaryJSONCarriesPlaceholderFlag(t *testing.T) {
	app := 1.5
	s := TransferSummary{
		Status:      StatusPending,
		Type:        RailACH,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Amount:      Amount{Value: 10, Currency: "USD"},
		Fees:        Fees{App: &app, Currency: "USD"},
		ReferenceID: PlaceholderRef("US-ABCDEFGH"),
		Cancelable:  true,
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"referenceId":"US-ABCDEFGH"`)
	assert.Contains(t, string(raw), `"referenceIdPlaceholder":true`)

	var decoded TransferSummary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, s.ReferenceID, decoded.ReferenceID)
	assert.True(t, s.Equal(&decoded))

	raw, err = json.Marshal(TransferSummary{ReferenceID: AuthoritativeRef("T-1")})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "referenceIdPlaceholder")
}

func TestSummaryEqual(t *testing.T) {
	a := &TransferSummary{Status: StatusPending, ReferenceID: AuthoritativeRef("T-1")}
	b := &TransferSummary{Status: StatusPending, ReferenceID: AuthoritativeRef("T-1")}
	assert.True(t, a.Equal(b))

	b.ReferenceID = PlaceholderRef("T-1")
	assert.False(t, a.Equal(b))

	var none *TransferSummary
	assert.True(t, none.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestSummaryEqualWhenUnencodable(t *testing.T) {
	far := time.Date(9999, 12, 31, 23, 0, 0, 0, time.UTC).Add(48 * time.Hour)
	a := &TransferSummary{CreatedAt: far, ReferenceID: AuthoritativeRef("T-1")}
	b := &TransferSummary{CreatedAt: far, ReferenceID: AuthoritativeRef("T-1")}

	_, err := json.Marshal(a)
	require.Error(t, err)
	assert.True(t, a.Equal(b))

	b.ReferenceID = AuthoritativeRef("T-2")
	assert.False(t, a.Equal(b))
}
