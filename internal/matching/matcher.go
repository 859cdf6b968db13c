package matching

import (
	"strings"

	"github.com/hyperjump/vitrine/internal/keyword"
	"github.com/hyperjump/vitrine/pkg/utils"
)

const (
	minWordLength    = 2
	minSubwordLength = 3
)

// Options tunes a single Match call.
type Options struct {
	Mode      Mode
	Threshold float64
	// MaxFuzzyComparisons caps similarity computations for the call; 0 means no cap.
	// Once exhausted, remaining words skip the fuzzy tier.
	MaxFuzzyComparisons int
}

// Match runs the cascade for every query word against fieldText.
// Words shorter than two normalized characters are ignored: they never block
// and never force a match. All words are evaluated so MatchedWords and Score
// can feed relevance ranking.
func Match(words []string, fieldText string, opts Options) Result {
	if len(words) == 0 || strings.TrimSpace(fieldText) == "" {
		return Result{Reason: ReasonEmptyInput}
	}

	f := newField(fieldText)
	budget := opts.MaxFuzzyComparisons
	res := Result{Words: make([]WordMatch, 0, len(words))}
	eligible := 0

	for _, w := range words {
		nw := utils.Normalize(w)
		if len([]rune(nw)) < minWordLength {
			res.Words = append(res.Words, WordMatch{Word: nw, Ignored: true})
			continue
		}
		eligible++

		wm := f.matchWord(nw, opts.Threshold, &budget, opts.MaxFuzzyComparisons > 0)
		res.Words = append(res.Words, wm)
		if wm.Tier == TierNone {
			continue
		}
		res.MatchedWords++
		res.Score += wm.Score
		if res.Reason == "" {
			res.Reason = wm.Tier.String()
		}
	}

	switch {
	case eligible == 0:
		res.Reason = ReasonNoEligible
	case opts.Mode == ModeStrict && res.MatchedWords < eligible:
		if res.MatchedWords == 0 {
			res.Reason = ReasonNoMatch
		} else {
			res.Reason = ReasonStrictPartial
		}
	case res.MatchedWords > 0:
		res.Matched = true
	default:
		res.Reason = ReasonNoMatch
	}
	return res
}

// field caches the normalized forms of a field's text.
type field struct {
	text   string
	tokens []string
}

func newField(raw string) field {
	return field{text: utils.Normalize(raw), tokens: utils.Tokens(raw)}
}

// locate returns the first non-fuzzy tier at which word occurs. Any occurrence
// in the normalized text is exact, whatever its position or length.
func (f field) locate(word string) Tier {
	if strings.Contains(f.text, word) {
		return TierExact
	}
	for _, tok := range f.tokens {
		if strings.HasPrefix(tok, word) {
			return TierPrefix
		}
	}
	if len([]rune(word)) >= minSubwordLength {
		for _, tok := range f.tokens {
			if strings.Contains(tok, word) {
				return TierSubword
			}
		}
	}
	return TierNone
}

func (f field) matchWord(word string, threshold float64, budget *int, capped bool) WordMatch {
	switch tier := f.locate(word); tier {
	case TierExact:
		return WordMatch{Word: word, Tier: tier, Score: ExactScore}
	case TierPrefix:
		return WordMatch{Word: word, Tier: tier, Score: PrefixScore}
	case TierSubword:
		return WordMatch{Word: word, Tier: tier, Score: SubwordScore}
	}
	if len([]rune(word)) < minSubwordLength {
		return WordMatch{Word: word}
	}

	score, ok := f.similarity(word, budget, capped)
	if ok && score >= threshold {
		return WordMatch{Word: word, Tier: TierFuzzy, Score: score}
	}
	return WordMatch{Word: word, Score: score}
}

// similarity returns the best of partial and full ratio against the whole text,
// and full ratio against each token. ok is false when the budget ran out.
func (f field) similarity(word string, budget *int, capped bool) (float64, bool) {
	spend := func() bool {
		if !capped {
			return true
		}
		if *budget <= 0 {
			return false
		}
		*budget--
		return true
	}

	if !spend() {
		return 0, false
	}
	best := max(keyword.PartialRatio(f.text, word), keyword.Ratio(f.text, word))
	if len(f.tokens) > 1 {
		for _, tok := range f.tokens {
			if !spend() {
				break
			}
			best = max(best, keyword.Ratio(tok, word))
		}
	}
	return best, true
}
