package ingest

import (
	"strings"

	"github.com/hyperjump/vitrine/internal/models"
)

// productMarkers are attributes only product catalog exports carry.
var productMarkers = []string{"pro_cod", "codigo_integracao", "gtin", "inativar_itens"}

// ProductParser handles product catalog exports: a list of items with codigo,
// nome, preco and imagens, where deleted items are flagged with excluido.
func ProductParser() Parser {
	return Parser{
		Name: "products",
		Match: func(doc any, source string) bool {
			if strings.Contains(strings.ToLower(source), "zettabrasil.com.br") {
				return true
			}
			items := collectItems(doc)
			if len(items) == 0 {
				return false
			}
			for _, k := range productMarkers {
				if _, ok := items[0][k]; ok {
					return true
				}
			}
			return false
		},
		Transform: transformProducts,
	}
}

func transformProducts(doc any, env *Env) []models.Record {
	items := collectItems(doc)
	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		if deleted(item["excluido"]) {
			continue
		}
		rec := models.Record{}
		code := text(pick(item, "codigo", "pro_cod"))
		setText(rec, models.FieldID, text(pick(item, "id", "pro_cod")))
		if rec.ID() == "" {
			setText(rec, models.FieldID, code)
		}
		setText(rec, models.FieldCodigo, code)
		setText(rec, models.FieldGTIN, text(item["gtin"]))
		setText(rec, models.FieldNome, text(item["nome"]))
		setText(rec, models.FieldComplemento, text(item["complemento"]))
		setText(rec, models.FieldMarca, text(item["marca"]))
		setText(rec, models.FieldModelo, text(item["modelo"]))
		setText(rec, models.FieldObservacao, text(item["observacao"]))
		setText(rec, models.FieldCategorias, optionsText(item["categorias"]))

		price, ok := amount(item["preco"])
		if !ok {
			price = 0
		}
		rec[models.FieldPreco] = price
		if stock, ok := measure(pick(item, "estoque", "saldo", "quantidade")); ok {
			rec[models.FieldEstoque] = stock
		}
		for _, dim := range []string{"peso", "altura", "largura", "comprimento"} {
			v, ok := measure(item[dim])
			if !ok {
				v = 0
			}
			rec[dim] = v
		}
		rec[models.FieldImagens] = NormalizeImages(item["imagens"])
		out = append(out, rec)
	}
	return out
}

func deleted(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "s" || s == "sim"
	}
	n, ok := integer(v)
	return ok && n != 0
}
