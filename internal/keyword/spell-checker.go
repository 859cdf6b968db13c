package keyword

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/vitrine/pkg/utils"
)

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// GetAllTerms returns all unique terms.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of records containing term.
	GetTermFrequency(term string) (int, error)
}

// Suggestion represents a spelling suggestion with its score.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Record frequency (popularity)
	Score     float64 // Combined score for ranking
}

// SpellCheckResult contains the result of spell checking a query.
type SpellCheckResult struct {
	OriginalQuery   string       // The original query
	CorrectedQuery  string       // The suggested corrected query
	Suggestions     []Suggestion // Suggestions for each misspelled term
	HasCorrections  bool         // True if any corrections were made
	MisspelledTerms []string     // Terms that were detected as misspelled
}

// SpellChecker suggests catalog terms close to misspelled query words.
// Terms are compared in normalized form, so "Corolá" and "corola" are the same word.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
	minTermLength  int

	termsCache []string
	termSet    map[string]struct{}
	cacheMu    sync.RWMutex
	cacheValid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum record frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions to return per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithMinTermLength sets the shortest query word that is spell checked.
// Shorter words are always kept as typed.
func WithMinTermLength(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.minTermLength = n
		}
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		minTermLength:  3,
		termSet:        make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RefreshCache reloads the term cache from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	sort.Strings(terms)

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.termsCache = terms
	s.termSet = make(map[string]struct{}, len(terms))
	for _, t := range terms {
		s.termSet[utils.Normalize(t)] = struct{}{}
	}
	s.cacheValid = true

	return nil
}

func (s *SpellChecker) ensureCache() error {
	s.cacheMu.RLock()
	valid := s.cacheValid
	s.cacheMu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Check checks a query for spelling errors and returns suggestions.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	terms := utils.Tokens(query)
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     make([]Suggestion, 0),
		MisspelledTerms: make([]string, 0),
	}

	correctedTerms := make([]string, 0, len(terms))
	for _, term := range terms {
		if !s.IsMisspelled(term) || len([]rune(term)) < s.minTermLength {
			correctedTerms = append(correctedTerms, term)
			continue
		}

		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			correctedTerms = append(correctedTerms, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		correctedTerms = append(correctedTerms, suggestions[0].Term)
	}

	result.CorrectedQuery = strings.Join(correctedTerms, " ")
	return result, nil
}

// Suggest returns spelling suggestions for a single term, best first.
// Ties are broken alphabetically so the output is stable.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}

	normalized := utils.Normalize(term)
	termLen := len([]rune(normalized))
	suggestions := make([]Suggestion, 0)

	s.cacheMu.RLock()
	terms := s.termsCache
	s.cacheMu.RUnlock()

	for _, dictTerm := range terms {
		candidate := utils.Normalize(dictTerm)
		if candidate == normalized {
			continue
		}

		// Length difference is a lower bound on the distance.
		lenDiff := len([]rune(candidate)) - termLen
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}

		distance := LevenshteinDistance(normalized, candidate)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}

		// Lower distance is better, higher frequency is better.
		score := (1.0 / float64(distance+1)) * float64(freq)
		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     score,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})

	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term is absent from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}

	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	_, exists := s.termSet[utils.Normalize(term)]
	return !exists
}

// GetTopSuggestions returns up to n alternative queries, best first. The first
// entry is the fully corrected query; the rest swap in runner-up corrections
// for the first misspelled word.
func (s *SpellChecker) GetTopSuggestions(query string, n int) []string {
	if n <= 0 {
		return nil
	}
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return nil
	}

	suggestions := []string{result.CorrectedQuery}
	seen := map[string]struct{}{result.CorrectedQuery: {}}

	first := result.MisspelledTerms[0]
	corrected := strings.Fields(result.CorrectedQuery)
	original := utils.Tokens(query)
	for _, alt := range s.Suggest(first) {
		if len(suggestions) >= n {
			break
		}
		words := append([]string(nil), corrected...)
		for i, w := range original {
			if w == first && i < len(words) {
				words[i] = alt.Term
			}
		}
		q := strings.Join(words, " ")
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		suggestions = append(suggestions, q)
	}
	return suggestions
}
