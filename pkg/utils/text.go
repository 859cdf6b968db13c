// Package utils provides shared utilities for text folding, numeric coercion, and logging.
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics, keeping whitespace so the result can still be tokenized.
// "São Paulo" becomes "sao paulo".
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = stripMarks(s)
	}
	return strings.TrimSpace(folded)
}

// Normalize returns the canonical comparison form of s: folded, with all whitespace
// and dashes removed. Normalize is total and idempotent; "São Paulo" and "sao-paulo"
// both become "saopaulo".
func Normalize(s string) string {
	folded := Fold(s)
	if folded == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits s on whitespace and normalizes each token. Empty tokens are dropped.
func Tokens(s string) []string {
	fields := strings.Fields(Fold(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := Normalize(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// SplitMultiValue splits a comma-separated filter value into trimmed, non-empty alternatives.
func SplitMultiValue(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func stripMarks(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}
