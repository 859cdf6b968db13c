package keyword

import (
	"errors"
	"testing"
)

// mockTermDictionary is a mock implementation of TermDictionary for testing.
type mockTermDictionary struct {
	terms       map[string]int // term -> frequency
	getAllError error
}

func newMockTermDictionary(terms map[string]int) *mockTermDictionary {
	return &mockTermDictionary{terms: terms}
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	if m.getAllError != nil {
		return nil, m.getAllError
	}
	result := make([]string, 0, len(m.terms))
	for term := range m.terms {
		result = append(result, term)
	}
	return result, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	return m.terms[term], nil
}

func TestSpellChecker_NewSpellChecker(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"onix": 10}))
	if sc.maxDistance != 2 {
		t.Errorf("default maxDistance = %d, want 2", sc.maxDistance)
	}
	if sc.minFreq != 1 {
		t.Errorf("default minFreq = %d, want 1", sc.minFreq)
	}
	if sc.maxSuggestions != 5 {
		t.Errorf("default maxSuggestions = %d, want 5", sc.maxSuggestions)
	}
	if sc.minTermLength != 3 {
		t.Errorf("default minTermLength = %d, want 3", sc.minTermLength)
	}
}

func TestSpellChecker_NewSpellChecker_WithOptions(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(nil),
		WithMaxDistance(3),
		WithMinFrequency(5),
		WithMaxSuggestions(10),
		WithMinTermLength(4),
	)
	if sc.maxDistance != 3 || sc.minFreq != 5 || sc.maxSuggestions != 10 || sc.minTermLength != 4 {
		t.Errorf("options not applied: %+v", sc)
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{
		"corolla": 100,
		"civic":   80,
		"compass": 60,
		"hilux":   50,
		"sandero": 40,
	})
	sc := NewSpellChecker(dict, WithMaxDistance(2))
	if err := sc.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}

	tests := []struct {
		name      string
		term      string
		wantFirst string
	}{
		{"corola -> corolla", "corola", "corolla"},
		{"civc -> civic", "civc", "civic"},
		{"accented input", "Hílux", ""},
		{"sandeiro -> sandero", "sandeiro", "sandero"},
		{"no match", "xyzxyz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestions := sc.Suggest(tt.term)
			if tt.wantFirst == "" {
				if len(suggestions) != 0 {
					t.Errorf("Suggest(%q) = %v, want none", tt.term, suggestions)
				}
				return
			}
			if len(suggestions) == 0 || suggestions[0].Term != tt.wantFirst {
				t.Errorf("Suggest(%q) = %v, want first %q", tt.term, suggestions, tt.wantFirst)
			}
		})
	}
}

func TestSpellChecker_Check(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{
		"toyota":  100,
		"corolla": 80,
		"honda":   60,
		"civic":   50,
		"flex":    40,
	})
	sc := NewSpellChecker(dict, WithMaxDistance(2))

	tests := []struct {
		name           string
		query          string
		wantCorrected  string
		wantHasCorrect bool
		wantMisspelled int
	}{
		{"valid query", "toyota corolla", "toyota corolla", false, 0},
		{"single typo", "corola", "corolla", true, 1},
		{"multiple typos", "tooyta civc", "toyota civic", true, 2},
		{"mixed valid and typo", "honda civc", "honda civic", true, 1},
		{"short words kept", "hb", "hb", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sc.Check(tt.query)
			if err != nil {
				t.Fatalf("Check(%q): %v", tt.query, err)
			}
			if result.CorrectedQuery != tt.wantCorrected {
				t.Errorf("CorrectedQuery = %q, want %q", result.CorrectedQuery, tt.wantCorrected)
			}
			if result.HasCorrections != tt.wantHasCorrect {
				t.Errorf("HasCorrections = %v, want %v", result.HasCorrections, tt.wantHasCorrect)
			}
			if len(result.MisspelledTerms) != tt.wantMisspelled {
				t.Errorf("MisspelledTerms = %v, want %d", result.MisspelledTerms, tt.wantMisspelled)
			}
		})
	}
}

func TestSpellChecker_CheckPropagatesDictionaryError(t *testing.T) {
	dict := &mockTermDictionary{getAllError: errors.New("boom")}
	sc := NewSpellChecker(dict)
	if _, err := sc.Check("corola"); err == nil {
		t.Error("expected error from dictionary")
	}
	if sc.IsMisspelled("corola") {
		t.Error("IsMisspelled should be false when the dictionary is unavailable")
	}
}

func TestSpellChecker_IsMisspelled(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"sao": 10, "onix": 20}))
	tests := []struct {
		term string
		want bool
	}{
		{"onix", false},
		{"ONIX", false},
		{"São", false},
		{"onyx", true},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := sc.IsMisspelled(tt.term); got != tt.want {
				t.Errorf("IsMisspelled(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestSpellChecker_CorrectedQuery(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"corolla": 100, "toyota": 80}))
	tests := []struct {
		query string
		want  []string
	}{
		{"toyota corolla", nil},
		{"corola", []string{"corolla"}},
		{"tooyta corola", []string{"toyota corolla"}},
		{"xyzxyz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := sc.GetTopSuggestions(tt.query, 1)
			if len(got) != len(tt.want) || (len(got) == 1 && got[0] != tt.want[0]) {
				t.Errorf("GetTopSuggestions(%q, 1) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSpellChecker_GetTopSuggestions(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"onix": 100, "unix": 1}))
	got := sc.GetTopSuggestions("onex", 5)
	if len(got) != 2 {
		t.Fatalf("GetTopSuggestions = %v, want 2 entries", got)
	}
	if got[0] != "onix" || got[1] != "unix" {
		t.Errorf("GetTopSuggestions = %v", got)
	}
	if sc.GetTopSuggestions("onix", 5) != nil {
		t.Error("correct query should yield no suggestions")
	}
}

func TestSpellChecker_Suggest_RanksByFrequency(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{
		"gol":  100,
		"sol":  10,
		"rol":  50,
	})
	sc := NewSpellChecker(dict, WithMaxDistance(1))

	suggestions := sc.Suggest("gel")
	if len(suggestions) == 0 || suggestions[0].Term != "gol" {
		t.Fatalf("highest frequency term should be first, got %v", suggestions)
	}
}

func TestSpellChecker_Suggest_TieBreakIsStable(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{"kwid": 5, "kwik": 5})
	sc := NewSpellChecker(dict, WithMaxDistance(1))
	for i := 0; i < 5; i++ {
		s := sc.Suggest("kwix")
		if len(s) != 2 || s[0].Term != "kwid" {
			t.Fatalf("unstable order: %v", s)
		}
	}
}

func TestSpellChecker_Suggest_RespectsMinFrequency(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{"fiat": 5, "fiap": 1}), WithMinFrequency(3))
	for _, s := range sc.Suggest("fiet") {
		if s.Frequency < 3 {
			t.Errorf("suggestion %q has frequency %d, below minFreq 3", s.Term, s.Frequency)
		}
	}
}

func TestSpellChecker_Suggest_LimitsResults(t *testing.T) {
	terms := make(map[string]int)
	for i := 0; i < 20; i++ {
		terms["uno"+string(rune('a'+i))] = 10
	}
	sc := NewSpellChecker(newMockTermDictionary(terms), WithMaxSuggestions(3))
	if got := sc.Suggest("uno"); len(got) > 3 {
		t.Errorf("got %d suggestions, want at most 3", len(got))
	}
}
