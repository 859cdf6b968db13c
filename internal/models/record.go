// Package models defines core data structures for records, queries, and search results.
package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/vitrine/pkg/utils"
)

// Attribute names shared by the ingestion pipeline and the search engine.
const (
	FieldID            = "id"
	FieldTipo          = "tipo"
	FieldMarca         = "marca"
	FieldModelo        = "modelo"
	FieldCategoria     = "categoria"
	FieldCategorias    = "categorias"
	FieldCambio        = "cambio"
	FieldCombustivel   = "combustivel"
	FieldMotor         = "motor"
	FieldPortas        = "portas"
	FieldCodigo        = "codigo"
	FieldGTIN          = "gtin"
	FieldTitulo        = "titulo"
	FieldVersao        = "versao"
	FieldNome          = "nome"
	FieldCor           = "cor"
	FieldOpcionais     = "opcionais"
	FieldObservacao    = "observacao"
	FieldComplemento   = "complemento"
	FieldPreco         = "preco"
	FieldAno           = "ano"
	FieldAnoFabricacao = "ano_fabricacao"
	FieldKm            = "km"
	FieldCilindrada    = "cilindrada"
	FieldEstoque       = "estoque"
	FieldFotos         = "fotos"
	FieldImagens       = "imagens"
)

// Record is one sellable item (vehicle or product) as a mapping of named attributes.
// Values are strings, numbers, string slices, or nil. Records handed to the engine
// are read-only; derive copies with Clone.
type Record map[string]any

// ID returns the record identifier as a string, or "" when absent.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns the attribute as display text. Numbers are formatted without
// a trailing ".0"; slices are joined with ", "; nil yields "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if item != nil {
				parts = append(parts, fmt.Sprint(item))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Price returns the coerced price; ok is false when missing or unparsable.
func (r Record) Price() (float64, bool) {
	return utils.ParseAmount(r[FieldPreco])
}

// Year returns the model year; ok is false when missing or unparsable.
func (r Record) Year() (int, bool) {
	return utils.ParseInt(r[FieldAno])
}

// Mileage returns the odometer reading; ok is false when missing or unparsable.
func (r Record) Mileage() (float64, bool) {
	return utils.ParseAmount(r[FieldKm])
}

// Stock returns the stock quantity; ok is false when missing or unparsable.
func (r Record) Stock() (float64, bool) {
	return utils.ParseNumber(r[FieldEstoque])
}

// Displacement returns the engine displacement in cc. Values below 10 are
// liters and are scaled by 1000.
func (r Record) Displacement() (float64, bool) {
	v, ok := utils.ParseNumber(r[FieldCilindrada])
	if !ok || v <= 0 {
		return 0, false
	}
	return NormalizeDisplacement(v), true
}

// NormalizeDisplacement converts liter values (below 10) to cc.
func NormalizeDisplacement(v float64) float64 {
	if v < 10 {
		return v * 1000
	}
	return v
}

// Photos returns the photo list stored under field as strings.
func (r Record) Photos(field string) []string {
	switch v := r[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Clone returns a shallow copy of r. Photo slices are copied so the clone can be
// trimmed without touching the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch s := v.(type) {
		case []string:
			out[k] = append([]string(nil), s...)
		case []any:
			out[k] = append([]any(nil), s...)
		default:
			out[k] = v
		}
	}
	return out
}

// Simplified returns a copy of r for "simple mode" output: at most one photo per
// photo field and the options list dropped.
func (r Record) Simplified() Record {
	out := r.Clone()
	for _, field := range []string{FieldFotos, FieldImagens} {
		if _, ok := out[field]; !ok {
			continue
		}
		photos := r.Photos(field)
		if len(photos) > 1 {
			photos = photos[:1]
		}
		out[field] = append([]string{}, photos...)
	}
	delete(out, FieldOpcionais)
	return out
}
