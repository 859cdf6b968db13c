package ingest

import (
	"testing"

	"github.com/hyperjump/vitrine/internal/models"
)

func TestNewStats(t *testing.T) {
	recs := []models.Record{
		{"tipo": "carro", "marca": "Toyota", "preco": 120000.0, "fotos": []string{"a.jpg"}, "categoria": "Sedan"},
		{"tipo": "carro", "marca": "Toyota", "preco": 90000.0},
		{"tipo": "moto", "marca": "Honda", "preco": 15000.0, "cilindrada": 160.0},
		{"tipo": "moto", "marca": "Honda", "cilindrada": 0.65},
		{"nome": "Filtro", "preco": 12.5, "imagens": []string{"p.jpg"}},
	}
	st := NewStats(recs)
	if st.Total != 5 || st.WithPhotos != 2 || st.MissingPrice != 1 {
		t.Errorf("totals = %+v", st)
	}
	if st.ByType["carro"] != 2 || st.ByType["moto"] != 2 {
		t.Errorf("by type = %v", st.ByType)
	}
	if st.MotoDisplacement["126_250"] != 1 || st.MotoDisplacement["501_1000"] != 1 {
		t.Errorf("moto displacement = %v", st.MotoDisplacement)
	}
	if st.PriceBands["acima_100mil"] != 1 || st.PriceBands["50mil_100mil"] != 1 || st.PriceBands["10_50"] != 1 {
		t.Errorf("price bands = %v", st.PriceBands)
	}
	if len(st.TopBrands) != 2 || st.TopBrands[0].Brand != "Honda" || st.TopBrands[0].Count != 2 {
		t.Errorf("top brands = %v", st.TopBrands)
	}
	if len(st.Fields()) != 8 {
		t.Errorf("fields = %d", len(st.Fields()))
	}
}
