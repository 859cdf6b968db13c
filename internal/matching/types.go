// Package matching decides whether query words match a record field using a
// four-tier cascade. A word that occurs in the normalized field text always
// matches before the fuzzy tier is consulted.
package matching

// Mode selects how per-word results are aggregated.
type Mode int

const (
	// ModeFlexible succeeds when at least one eligible word matches.
	ModeFlexible Mode = iota
	// ModeStrict succeeds only when every eligible word matches.
	ModeStrict
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFlexible:
		return "flexible"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// Tier is the cascade level at which a word matched.
type Tier int

const (
	// TierNone indicates the word did not match.
	TierNone Tier = iota
	// TierExact indicates the word is a substring of the normalized field text.
	TierExact
	// TierPrefix indicates the word is a prefix of a field token.
	TierPrefix
	// TierSubword indicates the word is a substring of a field token.
	TierSubword
	// TierFuzzy indicates the similarity score reached the threshold.
	TierFuzzy
)

// String returns a string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierExact:
		return "exact_substring"
	case TierPrefix:
		return "word_prefix"
	case TierSubword:
		return "subword_substring"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Diagnostic reasons reported by Match.
const (
	ReasonEmptyInput    = "empty_input"
	ReasonNoEligible    = "no_eligible_words"
	ReasonNoMatch       = "no_match"
	ReasonStrictPartial = "strict_partial"
)

// Tier scores. Fuzzy matches score their similarity instead.
const (
	ExactScore   = 100.0
	PrefixScore  = 90.0
	SubwordScore = 80.0
)

// WordMatch is the outcome for one query word.
type WordMatch struct {
	Word    string  `json:"word"`
	Tier    Tier    `json:"tier"`
	Score   float64 `json:"score"`
	Ignored bool    `json:"ignored,omitempty"`
}

// Result is the outcome of matching a word list against one field.
type Result struct {
	Matched bool
	// Reason names the tier of the first matching word, or why nothing matched.
	Reason string
	Words  []WordMatch
	// MatchedWords counts eligible words that matched at any tier.
	MatchedWords int
	// Score sums the scores of matched words.
	Score float64
}
