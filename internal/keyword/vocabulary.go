package keyword

import (
	"sort"

	"github.com/hyperjump/vitrine/pkg/utils"
)

// Vocabulary is an immutable term dictionary built from record text.
// It satisfies TermDictionary.
type Vocabulary struct {
	freq  map[string]int
	terms []string
}

// NewVocabulary counts, for every normalized token of texts, how many texts
// contain it. Each element of texts is typically one record's searchable text.
func NewVocabulary(texts []string) *Vocabulary {
	freq := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range utils.Tokens(text) {
			if len([]rune(tok)) < 2 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			freq[tok]++
		}
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return &Vocabulary{freq: freq, terms: terms}
}

// GetAllTerms returns every term in sorted order.
func (v *Vocabulary) GetAllTerms() ([]string, error) {
	return append([]string(nil), v.terms...), nil
}

// GetTermFrequency returns the number of texts containing term.
func (v *Vocabulary) GetTermFrequency(term string) (int, error) {
	return v.freq[utils.Normalize(term)], nil
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}
