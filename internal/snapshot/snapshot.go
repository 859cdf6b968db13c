// Package snapshot holds the immutable record collection the engine searches
// and the store that swaps it atomically on refresh.
package snapshot

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/vitrine/internal/keyword"
	"github.com/hyperjump/vitrine/internal/models"
)

// ErrNoData is returned when no snapshot has been loaded yet.
var ErrNoData = errors.New("no data available")

// versionSpace namespaces content-derived snapshot versions.
var versionSpace = uuid.MustParse("6f1c2a8e-4b7d-5e39-9a0c-3d5b8e7f1a24")

// vocabularyFields feed the did-you-mean dictionary.
var vocabularyFields = []string{
	models.FieldModelo,
	models.FieldNome,
	models.FieldMarca,
	models.FieldTitulo,
	models.FieldVersao,
	models.FieldCategoria,
}

// Snapshot is one loaded record collection. It is never mutated after New.
type Snapshot struct {
	Records  []models.Record
	Version  string
	LoadedAt time.Time

	byID   map[string]int
	byCode map[string]int
	vocab  *keyword.Vocabulary

	spellOnce sync.Once
	spell     *keyword.SpellChecker
}

// New builds a snapshot over records. The version is derived from the record
// content, so identical collections share a version across restarts.
func New(records []models.Record, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		Records:  records,
		LoadedAt: loadedAt,
		byID:     make(map[string]int, len(records)),
		byCode:   make(map[string]int),
	}
	texts := make([]string, 0, len(records))
	for i, rec := range records {
		if id := rec.ID(); id != "" {
			if _, dup := s.byID[id]; !dup {
				s.byID[id] = i
			}
		}
		if code := rec.String(models.FieldCodigo); code != "" {
			if _, dup := s.byCode[code]; !dup {
				s.byCode[code] = i
			}
		}
		parts := make([]string, 0, len(vocabularyFields))
		for _, f := range vocabularyFields {
			if v := rec.String(f); v != "" {
				parts = append(parts, v)
			}
		}
		texts = append(texts, strings.Join(parts, " "))
	}
	s.vocab = keyword.NewVocabulary(texts)
	s.Version = contentVersion(records)
	return s
}

func contentVersion(records []models.Record) string {
	data, err := json.Marshal(records)
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(versionSpace, data).String()
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// Vocabulary returns the term dictionary over model, name and brand text.
func (s *Snapshot) Vocabulary() *keyword.Vocabulary {
	return s.vocab
}

// SpellChecker returns the did-you-mean checker over Vocabulary, built on
// first use. opts apply only to that first call.
func (s *Snapshot) SpellChecker(opts ...keyword.SpellCheckerOption) *keyword.SpellChecker {
	s.spellOnce.Do(func() {
		s.spell = keyword.NewSpellChecker(s.vocab, opts...)
	})
	return s.spell
}

// Lookup returns a copy of the first record whose id equals key, falling back
// to the first record whose codigo equals key.
func (s *Snapshot) Lookup(key string) (models.Record, bool) {
	key = strings.TrimSpace(key)
	i, ok := s.byID[key]
	if !ok {
		if i, ok = s.byCode[key]; !ok {
			return nil, false
		}
	}
	return s.Records[i].Clone(), true
}

// Store publishes the current snapshot. Readers never block writers.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the active snapshot or ErrNoData.
func (st *Store) Current() (*Snapshot, error) {
	s := st.current.Load()
	if s == nil {
		return nil, ErrNoData
	}
	return s, nil
}

// Swap publishes next and returns the previous snapshot, if any.
func (st *Store) Swap(next *Snapshot) *Snapshot {
	return st.current.Swap(next)
}
