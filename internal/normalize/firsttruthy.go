// Package normalize maps loosely shaped transfer payloads onto models.TransferSummary.
//
// Backend records, the last_transfer hand-off written by initiation pages and
// query-string reconstructions all describe the same transfer with different field
// names. Every field is resolved through an ordered alias list and ends in a default,
// so normalization is total: it never fails and never panics.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Named is implemented by values that expose a display name.
type Named interface {
	Name() string
}

// FirstTruthy returns the first candidate that is meaningfully present, as a string.
//
// Strings are trimmed and skipped when empty. Numbers, booleans and times are always
// accepted, so 0 yields "0". Objects count only through a non-empty name. Anything
// else is skipped.
func FirstTruthy(candidates ...any) (string, bool) {
	for _, c := range candidates {
		if s, ok := truthy(c); ok {
			return s, true
		}
	}
	return "", false
}

// FirstTruthyOr is FirstTruthy with a fallback.
func FirstTruthyOr(fallback string, candidates ...any) string {
	if s, ok := FirstTruthy(candidates...); ok {
		return s
	}
	return fallback
}

func truthy(c any) (string, bool) {
	switch v := c.(type) {
	case nil:
		return "", false
	case string:
		return nonEmpty(v)
	case *string:
		if v == nil {
			return "", false
		}
		return nonEmpty(*v)
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	case float32:
		return formatFloat(float64(v)), true
	case float64:
		return formatFloat(v), true
	case *float64:
		if v == nil {
			return "", false
		}
		return formatFloat(*v), true
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), true
	case gjson.Result:
		return truthyJSON(v)
	case Named:
		return nonEmpty(v.Name())
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return nonEmpty(name)
		}
		return "", false
	case map[string]string:
		return nonEmpty(v["name"])
	default:
		return "", false
	}
}

func truthyJSON(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return nonEmpty(r.Str)
	case gjson.Number:
		return formatFloat(r.Num), true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	case gjson.JSON:
		if !r.IsObject() {
			return "", false
		}
		name := r.Get("name")
		if name.Type != gjson.String {
			return "", false
		}
		return nonEmpty(name.Str)
	default:
		return "", false
	}
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// formatFloat prints the shortest representation, matching how the pages print
// numbers: 0.015 stays "0.015", 150 stays "150".
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
