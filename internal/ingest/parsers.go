package ingest

import (
	"strings"

	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/reference"
)

// Env carries what a parser needs besides the document itself.
type Env struct {
	Source string
	Table  *reference.Table
}

// Parser converts one decoded feed document into records. Match reports
// whether the parser understands doc fetched from source.
type Parser struct {
	Name      string
	Match     func(doc any, source string) bool
	Transform func(doc any, env *Env) []models.Record
}

// Registry selects the parser for a feed: the first registered parser whose
// Match accepts it, otherwise the fallback.
type Registry struct {
	parsers  []Parser
	fallback Parser
}

// NewRegistry returns a registry trying parsers in order before fallback.
func NewRegistry(fallback Parser, parsers ...Parser) *Registry {
	return &Registry{parsers: parsers, fallback: fallback}
}

// DefaultRegistry knows the listing and product feeds and falls back to the
// generic vehicle parser.
func DefaultRegistry() *Registry {
	return NewRegistry(VehicleParser(), ListingParser(), ProductParser())
}

// Register adds p ahead of the fallback, after the parsers already known.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Select returns the parser for doc.
func (r *Registry) Select(doc any, source string) Parser {
	for _, p := range r.parsers {
		if p.Match != nil && p.Match(doc, source) {
			return p
		}
	}
	return r.fallback
}

// Parse converts doc with the selected parser and fills in the ids that the
// feed did not provide.
func (r *Registry) Parse(doc any, env *Env) (string, []models.Record) {
	p := r.Select(doc, env.Source)
	records := p.Transform(doc, env)
	for i, rec := range records {
		if rec.ID() != "" {
			continue
		}
		label := rec.String(models.FieldTitulo)
		if label == "" {
			label = rec.String(models.FieldModelo) + " " + rec.String(models.FieldNome)
		}
		rec[models.FieldID] = SyntheticID(env.Source, i, label)
	}
	return p.Name, records
}

// containerKeys hold the item list in generic feeds, in lookup order.
var containerKeys = []string{
	"veiculos", "vehicles", "data", "items", "results", "content",
	"veiculo", "vehicle", "produtos", "products", "ads", "ad", "estoque",
}

// itemMarkers identify a map that is itself an inventory item.
var itemMarkers = []string{"modelo", "model", "MODEL", "marca", "brand", "MAKE", "preco", "price", "PRICE", "ano", "year", "YEAR"}

// collectItems finds the item maps inside a generic document: a list (nested
// lists are flattened), a map under one of containerKeys, a single-key wrapper
// such as an XML root, or a map that looks like one item.
func collectItems(doc any) []map[string]any {
	switch t := doc.(type) {
	case []any:
		var out []map[string]any
		for _, v := range t {
			switch item := v.(type) {
			case map[string]any:
				out = append(out, item)
			case []any:
				out = append(out, collectItems(item)...)
			}
		}
		return out
	case map[string]any:
		if looksLikeItem(t) {
			return []map[string]any{t}
		}
		for _, k := range containerKeys {
			if v, ok := t[k]; ok {
				if items := collectItems(v); len(items) > 0 {
					return items
				}
			}
		}
		if len(t) == 1 {
			return collectItems(firstValue(t))
		}
	}
	return nil
}

func looksLikeItem(m map[string]any) bool {
	for _, k := range itemMarkers {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func tableOf(env *Env) *reference.Table {
	if env.Table == nil {
		return reference.Default()
	}
	return env.Table
}

func isMotorcycle(kind string) bool {
	k := strings.ToLower(kind)
	for _, term := range []string{"moto", "motocicleta", "motorcycle", "bike"} {
		if strings.Contains(k, term) {
			return true
		}
	}
	return false
}

// classify fills tipo, categoria and cilindrada. Motorcycles are resolved
// through the motorcycle table; cars get a category from the model and a
// displacement from the model, version or engine text. Values present in the
// feed win over inferred ones.
func classify(rec models.Record, table *reference.Table, moto bool, model, version, options string) {
	if moto {
		rec[models.FieldTipo] = "moto"
		if m, ok := table.InferMotorcycle(model, version); ok {
			if _, has := rec[models.FieldCilindrada]; !has {
				rec[models.FieldCilindrada] = float64(m.CC)
			}
			if _, has := rec[models.FieldCategoria]; !has {
				setText(rec, models.FieldCategoria, m.Category)
			}
		}
		return
	}
	rec[models.FieldTipo] = "carro"
	if _, has := rec[models.FieldCategoria]; !has {
		setText(rec, models.FieldCategoria, table.Categorize(model, options))
	}
	if _, has := rec[models.FieldCilindrada]; !has {
		cc, ok := reference.InferDisplacement(model, version, rec.String(models.FieldMotor))
		setNumber(rec, models.FieldCilindrada, cc, ok)
	}
}
