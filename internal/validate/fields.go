package validate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// datePattern is deliberately loose: 2024-13-99 passes.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// object returns v as a JSON object, or an empty one.
func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return map[string]any{}, false
	}
	return m, true
}

// text returns m[key] when it is a non-blank string.
func text(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// number returns m[key] when it holds a JSON number.
func number(m map[string]any, key string) (decimal.Decimal, bool) {
	return Number(m[key])
}

// Number converts a decoded JSON number into a decimal. It accepts
// json.Number (decoders using UseNumber) as well as float64 and int.
func Number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}

// present reports whether key holds something other than null.
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}
