package normalize

import (
	"net/url"
	"strings"

	"transfer-status-backend/internal/models"
)

// QueryParams are the query-string names accepted for reconstructing a transfer.
// Each one is also a top-level alias in the normalizer's chains.
var QueryParams = []string{
	"type", "amount", "ccy", "status", "fee", "netFee", "feeCcy",
	"fromName", "fromMask", "to", "email", "tag", "addr", "acct", "net",
	"ref", "cancelable", "note", "cryptoAmount", "cryptoSymbol", "cryptoKind", "eta",
}

// QueryObject collects the recognised, non-empty query parameters into a flat
// object suitable for NormalizeMap.
func QueryObject(q url.Values) map[string]any {
	obj := make(map[string]any, len(QueryParams))
	for _, name := range QueryParams {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			obj[name] = v
		}
	}
	return obj
}

// HasTransferFields reports whether q carries anything beyond a reference.
func HasTransferFields(q url.Values) bool {
	for _, name := range QueryParams {
		if name == "ref" {
			continue
		}
		if strings.TrimSpace(q.Get(name)) != "" {
			return true
		}
	}
	return false
}

// FromQuery reconstructs a summary from query parameters.
func (n *Normalizer) FromQuery(q url.Values) models.TransferSummary {
	return n.NormalizeMap(QueryObject(q))
}
