// Package reference holds the immutable lookup tables used to infer vehicle
// categories and motorcycle displacement from free-text model names.
package reference

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/vitrine/pkg/utils"
)

//go:embed default.yaml
var defaultTable []byte

// minSubstringKey is the shortest key allowed to match inside a longer word.
// Shorter keys ("up", "ka", "tt") only match whole tokens.
const minSubstringKey = 4

// MatchKind reports how a lookup resolved.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchToken
	MatchSubstring
)

// String returns a string representation of the match kind.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchExact:
		return "exact"
	case MatchToken:
		return "token"
	case MatchSubstring:
		return "substring"
	default:
		return "unknown"
	}
}

// File is the YAML layout of a reference table.
type File struct {
	// HatchHint is an option text whose presence turns an ambiguous
	// "hatch,sedan" model into a hatch.
	HatchHint   string            `yaml:"hatch_hint"`
	Categories  []CategoryGroup   `yaml:"categories"`
	Motorcycles []MotorcycleEntry `yaml:"motorcycles"`
}

// CategoryGroup lists the models belonging to one category.
type CategoryGroup struct {
	Name   string   `yaml:"name"`
	Models []string `yaml:"models"`
}

// MotorcycleEntry maps a motorcycle model to its displacement and category.
type MotorcycleEntry struct {
	Model    string `yaml:"model"`
	CC       int    `yaml:"cc"`
	Category string `yaml:"category"`
}

// Motorcycle is the resolved motorcycle data for a model.
type Motorcycle struct {
	CC       int
	Category string
}

type entry struct {
	key    string   // normalized
	tokens []string // normalized tokens of the original key
}

// Table is an immutable reference table. It is safe for concurrent use.
type Table struct {
	categories map[string]string
	catKeys    []entry
	motos      map[string]Motorcycle
	motoKeys   []entry
	hatchHint  string
	// pairs holds the leading two tokens of multi-word keys ("grand siena").
	pairs map[string]bool
}

// New builds a Table from f. Later entries override earlier ones for the same key.
func New(f File) *Table {
	t := &Table{
		categories: make(map[string]string),
		motos:      make(map[string]Motorcycle),
		hatchHint:  utils.Normalize(f.HatchHint),
		pairs:      make(map[string]bool),
	}
	seen := make(map[string]bool)
	for _, g := range f.Categories {
		for _, m := range g.Models {
			key := utils.Normalize(m)
			if key == "" {
				continue
			}
			t.categories[key] = g.Name
			if !seen[key] {
				seen[key] = true
				t.catKeys = append(t.catKeys, entry{key: key, tokens: utils.Tokens(m)})
			}
		}
	}
	seen = make(map[string]bool)
	for _, e := range f.Motorcycles {
		key := utils.Normalize(e.Model)
		if key == "" {
			continue
		}
		t.motos[key] = Motorcycle{CC: e.CC, Category: e.Category}
		if !seen[key] {
			seen[key] = true
			t.motoKeys = append(t.motoKeys, entry{key: key, tokens: utils.Tokens(e.Model)})
		}
	}
	sortEntries(t.catKeys)
	sortEntries(t.motoKeys)
	for _, es := range [][]entry{t.catKeys, t.motoKeys} {
		for _, e := range es {
			if len(e.tokens) >= 2 {
				t.pairs[e.tokens[0]+" "+e.tokens[1]] = true
			}
		}
	}
	return t
}

// sortEntries orders keys longest first, then lexically, so the first hit in a
// scan is the preferred one.
func sortEntries(es []entry) {
	sort.Slice(es, func(i, j int) bool {
		if len(es[i].key) != len(es[j].key) {
			return len(es[i].key) > len(es[j].key)
		}
		return es[i].key < es[j].key
	})
}

// Parse decodes a YAML reference table.
func Parse(data []byte) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference table: %w", err)
	}
	return New(f), nil
}

// Load reads a YAML reference table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("built-in reference table is invalid: %v", err))
	}
	return t
}

// LoadOrDefault loads path, or returns the built-in table when path is empty.
func LoadOrDefault(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Len returns the number of category keys.
func (t *Table) Len() int {
	return len(t.catKeys)
}

// ResolveCategory maps a model name to its category. Resolution tries, in
// order: exact key, a key whose tokens appear consecutively in the model, and a
// key contained in the normalized model. Within a level the longest key wins,
// ties broken lexically.
func (t *Table) ResolveCategory(model string) (string, MatchKind) {
	key, kind := resolve(model, t.catKeys)
	if kind == MatchNone {
		return "", MatchNone
	}
	return t.categories[key], kind
}

// ResolveMotorcycle maps a motorcycle model to its displacement and category.
func (t *Table) ResolveMotorcycle(model string) (Motorcycle, MatchKind) {
	key, kind := resolve(model, t.motoKeys)
	if kind == MatchNone {
		return Motorcycle{}, MatchNone
	}
	return t.motos[key], kind
}

func resolve(text string, keys []entry) (string, MatchKind) {
	norm := utils.Normalize(text)
	if norm == "" {
		return "", MatchNone
	}
	tokens := utils.Tokens(text)

	for _, e := range keys {
		if e.key == norm {
			return e.key, MatchExact
		}
	}
	for _, e := range keys {
		if containsRun(tokens, e.tokens) {
			return e.key, MatchToken
		}
	}
	for _, e := range keys {
		if len(e.key) >= minSubstringKey && strings.Contains(norm, e.key) {
			return e.key, MatchSubstring
		}
	}
	return "", MatchNone
}

// containsRun reports whether needle appears as consecutive elements of hay.
func containsRun(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// BaseModel extracts the base model name from a full model description:
// "ONIX LTZ 1.4 MPFI" gives "ONIX", while "GRAND SIENA 1.4 EL" keeps both words
// because a known model starts with them and "grand" alone is not a model.
func (t *Table) BaseModel(full string) string {
	words := strings.Fields(full)
	if len(words) == 0 {
		return ""
	}
	if len(words) >= 2 {
		first, second := utils.Tokens(words[0]), utils.Tokens(words[1])
		if len(first) == 1 && len(second) == 1 && !t.known(first[0]) &&
			hasLetter(second[0]) && t.pairs[first[0]+" "+second[0]] {
			return words[0] + " " + words[1]
		}
	}
	return words[0]
}

func (t *Table) known(key string) bool {
	if _, ok := t.categories[key]; ok {
		return true
	}
	_, ok := t.motos[key]
	return ok
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Categorize infers the category stored on an ingested car record. An ambiguous
// "hatch,sedan" model becomes "Hatch" when options mention the hatch hint.
func (t *Table) Categorize(model, options string) string {
	cat, kind := t.ResolveCategory(model)
	if kind == MatchNone {
		return ""
	}
	if len(utils.SplitMultiValue(cat)) > 1 && t.hatchHint != "" &&
		strings.Contains(utils.Normalize(options), t.hatchHint) {
		return "Hatch"
	}
	return cat
}

var (
	litersPattern = regexp.MustCompile(`\b(\d)[.,](\d)\b`)
	ccPattern     = regexp.MustCompile(`(?:^|\D)(\d{2,4})(?:\D|$)`)
)

// InferDisplacement guesses a car's displacement in cc from its model or
// version text ("1.6 16V" gives 1600).
func InferDisplacement(texts ...string) (float64, bool) {
	for _, s := range texts {
		if m := litersPattern.FindStringSubmatch(s); m != nil {
			v, err := strconv.ParseFloat(m[1]+"."+m[2], 64)
			if err == nil && v > 0 {
				return math.Round(v * 1000), true
			}
		}
	}
	return 0, false
}

// InferMotorcycle resolves displacement and category for a motorcycle. The table
// is consulted with model and version combined, then model alone; failing both,
// a plausible cc number in the text ("CB 500F") is used with no category.
func (t *Table) InferMotorcycle(model, version string) (Motorcycle, bool) {
	candidates := []string{strings.TrimSpace(model + " " + version), model}
	for _, c := range candidates {
		if m, kind := t.ResolveMotorcycle(c); kind != MatchNone {
			return m, true
		}
	}
	for _, s := range candidates {
		for _, m := range ccPattern.FindAllStringSubmatch(s, -1) {
			if cc, err := strconv.Atoi(m[1]); err == nil && cc >= 50 && cc <= 2500 {
				return Motorcycle{CC: cc}, true
			}
		}
	}
	return Motorcycle{}, false
}
