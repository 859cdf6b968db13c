package models

import (
	"strconv"
	"strings"
)

// Reserved parameter names of the search surfaces.
const (
	ParamID      = "id"
	ParamSimple  = "simples"
	ParamExclude = "excluir"
	ParamLimit   = "limit"
)

// FilterKeys lists the attributes accepted as filters.
var FilterKeys = []string{
	FieldTipo, FieldMarca, FieldModelo, FieldCategoria, FieldCategorias, FieldCambio,
	FieldCombustivel, FieldMotor, FieldPortas, FieldCodigo, FieldGTIN, FieldTitulo,
	FieldVersao, FieldNome, FieldCor, FieldOpcionais, FieldObservacao, FieldComplemento,
}

var filterKeySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FilterKeys))
	for _, k := range FilterKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsFilterKey reports whether name (case-insensitive) is a filter attribute.
func IsFilterKey(name string) bool {
	_, ok := filterKeySet[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// QueryFromParams builds a query from flat key/value parameters as sent to
// the HTTP API or given on the command line. Unknown names are ignored.
// "simples=1" selects simple mode and "excluir" takes a comma-separated id list.
func QueryFromParams(params map[string]string) *SearchQuery {
	q := &SearchQuery{Filters: Filters{}, Ranges: map[string]string{}}
	for name, value := range params {
		key := strings.ToLower(strings.TrimSpace(name))
		switch {
		case key == ParamID:
			q.ID = strings.TrimSpace(value)
		case key == ParamSimple:
			q.Simple = strings.TrimSpace(value) == "1"
		case key == ParamExclude:
			q.Exclude = ParseExclusions(value)
		case key == ParamLimit:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				q.Limit = n
			}
		case CanonicalRangeKey(key) != "":
			q.Ranges[name] = value
		case IsFilterKey(key):
			if strings.TrimSpace(value) != "" {
				q.Filters[key] = value
			}
		}
	}
	return q
}
