package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumber coerces v to a float. Strings may use either "," or "." as the decimal
// separator ("1,6", "1.6", "R$ 1.234,56"). A lone dot is always a decimal point.
// ok is false for nil, empty, unparsable or non-finite input.
func ParseNumber(v any) (float64, bool) {
	return parse(v, false)
}

// ParseAmount coerces a currency or odometer value. It differs from ParseNumber
// in treating a lone separator followed by exactly three digits as a thousands
// separator, so "50.000" is fifty thousand rather than fifty.
func ParseAmount(v any) (float64, bool) {
	return parse(v, true)
}

// ParseInt coerces v to an integer by truncating ParseNumber's result.
func ParseInt(v any) (int, bool) {
	f, ok := ParseNumber(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func parse(v any, groupedThousands bool) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return parseString(string(n), groupedThousands)
		}
		return finite(f)
	case bool:
		return 0, false
	case string:
		return parseString(n, groupedThousands)
	default:
		return 0, false
	}
}

func parseString(s string, groupedThousands bool) (float64, bool) {
	cleaned := strings.Trim(firstNumericRun(s), ".,")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	cleaned = canonicalDecimal(cleaned, groupedThousands)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// firstNumericRun returns the first run of digits and separators in s, keeping a
// directly preceding minus sign. "2.0 Flex 16V" yields "2.0".
func firstNumericRun(s string) string {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == ',' || c == '.' {
			end++
			continue
		}
		break
	}
	if start > 0 && s[start-1] == '-' {
		start--
	}
	return s[start:end]
}

// canonicalDecimal rewrites s so that "." is the only (optional) decimal separator.
func canonicalDecimal(s string, groupedThousands bool) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return singleSeparator(s, ",", groupedThousands)
	case lastDot >= 0:
		return singleSeparator(s, ".", groupedThousands)
	}
	return s
}

func singleSeparator(s, sep string, groupedThousands bool) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if groupedThousands && len(s)-idx-1 == 3 && strings.Trim(s[:idx], "-0") != "" {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Cents rounds a currency amount to an integer number of cents.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
