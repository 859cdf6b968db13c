package ingest

import (
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/models"
)

const topBrandLimit = 10

// Stats summarizes one ingested collection.
type Stats struct {
	Total        int            `json:"total"`
	WithPhotos   int            `json:"com_imagem"`
	MissingPrice int            `json:"sem_preco"`
	ByType       map[string]int `json:"por_tipo"`
	ByCategory   map[string]int `json:"por_categoria"`
	TopBrands    []BrandCount   `json:"top_marcas"`
	PriceBands   map[string]int `json:"faixa_preco"`
	// MotoDisplacement buckets motorcycles by engine size in cc.
	MotoDisplacement map[string]int `json:"cilindradas_motos"`
}

// BrandCount is one entry of the brand ranking.
type BrandCount struct {
	Brand string `json:"marca"`
	Count int    `json:"total"`
}

// NewStats computes statistics over records.
func NewStats(records []models.Record) Stats {
	st := Stats{
		Total:            len(records),
		ByType:           make(map[string]int),
		ByCategory:       make(map[string]int),
		PriceBands:       make(map[string]int),
		MotoDisplacement: make(map[string]int),
	}
	brands := make(map[string]int)
	for _, rec := range records {
		if len(rec.Photos(models.FieldFotos)) > 0 || len(rec.Photos(models.FieldImagens)) > 0 {
			st.WithPhotos++
		}
		price, ok := rec.Price()
		if !ok || price <= 0 {
			st.MissingPrice++
		} else {
			st.PriceBands[priceBand(price)]++
		}
		kind := rec.String(models.FieldTipo)
		if kind != "" {
			st.ByType[kind]++
		}
		if cat := rec.String(models.FieldCategoria); cat != "" {
			st.ByCategory[cat]++
		}
		if brand := rec.String(models.FieldMarca); brand != "" {
			brands[brand]++
		}
		if kind == "moto" {
			if cc, ok := rec.Displacement(); ok {
				st.MotoDisplacement[displacementBand(cc)]++
			}
		}
	}
	st.TopBrands = topBrands(brands, topBrandLimit)
	return st
}

func priceBand(p float64) string {
	switch {
	case p <= 10:
		return "ate_10"
	case p <= 50:
		return "10_50"
	case p <= 100:
		return "50_100"
	case p <= 50000:
		return "100_50mil"
	case p <= 100000:
		return "50mil_100mil"
	default:
		return "acima_100mil"
	}
}

func displacementBand(cc float64) string {
	switch {
	case cc <= 125:
		return "ate_125"
	case cc <= 250:
		return "126_250"
	case cc <= 500:
		return "251_500"
	case cc <= 1000:
		return "501_1000"
	default:
		return "acima_1000"
	}
}

func topBrands(counts map[string]int, n int) []BrandCount {
	out := make([]BrandCount, 0, len(counts))
	for b, c := range counts {
		out = append(out, BrandCount{Brand: b, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Brand < out[j].Brand
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Fields renders the statistics as structured log fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("with_photos", s.WithPhotos),
		zap.Int("missing_price", s.MissingPrice),
		zap.Any("by_type", s.ByType),
		zap.Any("by_category", s.ByCategory),
		zap.Any("top_brands", s.TopBrands),
		zap.Any("price_bands", s.PriceBands),
		zap.Any("moto_displacement", s.MotoDisplacement),
	}
}
