package normalize

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// MaskAddress shortens a crypto address to its first and last six characters.
// Addresses too short to shorten are returned unchanged.
func MaskAddress(addr string) string {
	r := []rune(strings.TrimSpace(addr))
	if len(r) <= 12 {
		return string(r)
	}
	return string(r[:6]) + "…" + string(r[len(r)-6:])
}

// bech32Networks maps human-readable parts to network names.
var bech32Networks = map[string]string{
	"bc":       "bitcoin",
	"tb":       "bitcoin-testnet",
	"ltc":      "litecoin",
	"cosmos":   "cosmos",
	"osmo":     "osmosis",
	"celestia": "celestia",
}

// DetectNetwork guesses the network of an address from its encoding. It returns ""
// when the address format is not recognised.
func DetectNetwork(addr string) string {
	a := strings.TrimSpace(addr)
	if a == "" {
		return ""
	}
	if isEVMAddress(a) {
		return "ethereum"
	}
	hrp, _, err := bech32.Decode(strings.ToLower(a))
	if err != nil {
		return ""
	}
	if network, ok := bech32Networks[hrp]; ok {
		return network
	}
	return hrp
}

func isEVMAddress(a string) bool {
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		return false
	}
	h := a[2:]
	if len(h) != 40 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}
