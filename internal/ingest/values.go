package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// pick returns the first value under keys that is neither missing, nil nor blank.
func pick(item map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// text renders a scalar feed value as trimmed text. XML elements carrying
// attributes contribute their "#text".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return models.Record{"v": t}.String("v")
	case bool:
		return ""
	case map[string]any:
		return text(t["#text"])
	case []any:
		if len(t) > 0 {
			return text(t[0])
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// amount coerces a price or odometer value.
func amount(v any) (float64, bool) {
	if m, ok := v.(map[string]any); ok {
		v = pick(m, "value", "#text")
	}
	return utils.ParseAmount(v)
}

// measure coerces a quantity where a lone separator is always decimal ("0.350" kg).
func measure(v any) (float64, bool) {
	if m, ok := v.(map[string]any); ok {
		v = m["#text"]
	}
	return utils.ParseNumber(v)
}

// integer coerces a year, door count or similar whole number.
func integer(v any) (int, bool) {
	if m, ok := v.(map[string]any); ok {
		v = m["#text"]
	}
	return utils.ParseInt(v)
}

// asList normalizes a value that may be a single item or a list.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// optionsText joins an options value into one comma-separated string. Lists of
// objects contribute their name.
func optionsText(v any) string {
	var parts []string
	for _, item := range asList(v) {
		var s string
		if m, ok := item.(map[string]any); ok {
			s = text(pick(m, "nome", "name", "descricao", "description", "#text"))
			if s == "" && len(m) == 1 {
				s = optionsText(firstValue(m))
			}
		} else {
			s = text(item)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func firstValue(m map[string]any) any {
	for _, v := range m {
		return v
	}
	return nil
}

// setText stores a non-empty string.
func setText(rec models.Record, field, value string) {
	if value != "" {
		rec[field] = value
	}
}

// setNumber stores a parsed number as float64.
func setNumber(rec models.Record, field string, value float64, ok bool) {
	if ok {
		rec[field] = value
	}
}

// capitalize lower-cases s and upper-cases its first letter ("PRETO" gives "Preto").
func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
