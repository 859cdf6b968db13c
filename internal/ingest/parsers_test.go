package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/reference"
)

func testTable() *reference.Table {
	return reference.New(reference.File{
		HatchHint: "limpador traseiro",
		Categories: []reference.CategoryGroup{
			{Name: "Sedan", Models: []string{"corolla"}},
			{Name: "SUV", Models: []string{"compass"}},
			{Name: "hatch,sedan", Models: []string{"onix"}},
		},
		Motorcycles: []reference.MotorcycleEntry{
			{Model: "cg 160 titan", CC: 160, Category: "street"},
		},
	})
}

func decodeOrFail(t *testing.T, content, location string) any {
	t.Helper()
	doc, _, err := NewDecoder().Decode([]byte(content), location)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func TestListingParser(t *testing.T) {
	doc := decodeOrFail(t, `{"listings":{"listing":[
		{"vehicle_id":"SV1","title":"Chevrolet Onix LTZ","make":"Chevrolet","model":"ONIX LTZ 1.4 MPFI",
		 "year":"2019","mileage":{"value":"95.528","unit":"KM"},"price":"65.990,00","fuel_type":"Flex",
		 "transmission":"Automatic","exterior_color":"PRATA","body_style":"Hatchback","vehicle_type":"car_truck",
		 "image":[{"url":"https://cdn/1.jpg?w=1"},"https://app.simplesveiculo.com.br/"]},
		{"vehicle_id":"SV2","make":"Honda","model":"CG 160 TITAN","year":2022,"vehicle_type":"motorcycle","price":15000}
	]}}`, "https://feeds.example/stock.json")

	reg := DefaultRegistry()
	env := &Env{Source: "https://feeds.example/stock.json", Table: testTable()}
	name, recs := reg.Parse(doc, env)
	if name != "listings" {
		t.Fatalf("parser = %s, want listings", name)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}

	car := recs[0]
	want := map[string]string{
		"id": "SV1", "tipo": "carro", "marca": "Chevrolet", "modelo": "ONIX", "versao": "LTZ 1.4 MPFI",
		"motor": "1.4", "cambio": "automatico", "combustivel": "flex", "cor": "Prata",
		"categoria": "Hatch", "ano": "2019", "km": "95528", "preco": "65990", "cilindrada": "1400",
	}
	for field, v := range want {
		if got := car.String(field); got != v {
			t.Errorf("car %s = %q, want %q", field, got, v)
		}
	}
	if photos := car.Photos("fotos"); !reflect.DeepEqual(photos, []string{"https://cdn/1.jpg"}) {
		t.Errorf("photos = %v", photos)
	}

	moto := recs[1]
	if moto.String("tipo") != "moto" || moto.String("modelo") != "CG" {
		t.Errorf("moto = %v", moto)
	}
	if moto.String("cilindrada") != "160" || moto.String("categoria") != "street" {
		t.Errorf("moto displacement/category = %s/%s", moto.String("cilindrada"), moto.String("categoria"))
	}
}

func TestProductParser(t *testing.T) {
	doc := decodeOrFail(t, `[
		{"codigo":"P1","nome":"Filtro de oleo","preco":"12,50","gtin":"789","peso":"0.350",
		 "estoque":"4","categorias":["Filtros","Motor"],"imagens":["https://cdn/p.jpg?v=2"]},
		{"codigo":"P2","nome":"Removido","excluido":true}
	]`, "catalog.json")

	name, recs := DefaultRegistry().Parse(doc, &Env{Source: "catalog.json", Table: testTable()})
	if name != "products" {
		t.Fatalf("parser = %s, want products", name)
	}
	if len(recs) != 1 {
		t.Fatalf("deleted products should be skipped, got %d", len(recs))
	}
	p := recs[0]
	checks := map[string]string{
		"id": "P1", "codigo": "P1", "gtin": "789", "preco": "12.5", "peso": "0.35",
		"estoque": "4", "categorias": "Filtros, Motor", "altura": "0",
	}
	for field, v := range checks {
		if got := p.String(field); got != v {
			t.Errorf("product %s = %q, want %q", field, got, v)
		}
	}
	if imgs := p.Photos("imagens"); !reflect.DeepEqual(imgs, []string{"https://cdn/p.jpg"}) {
		t.Errorf("imagens = %v", imgs)
	}
}

func TestVehicleParser_GenericXML(t *testing.T) {
	doc := decodeOrFail(t, `<estoque>
  <veiculo>
    <id>7</id><marca>Jeep</marca><modelo>Compass</modelo><ano_mod>2021</ano_mod>
    <km>30.000</km><valor>150000</valor>
    <opcionais><opcional>Ar</opcional><opcional>Teto</opcional></opcionais>
    <fotos><foto>a.jpg</foto></fotos>
  </veiculo>
  <veiculo>
    <tipo>Moto</tipo><marca>Honda</marca><modelo>CG 160 Titan</modelo><cilindrada>162</cilindrada>
  </veiculo>
  <veiculo>
    <marca>Chevrolet</marca><modelo>Onix</modelo><opcionais>Limpador traseiro, Alarme</opcionais>
  </veiculo>
</estoque>`, "/feeds/dealer.xml")

	name, recs := DefaultRegistry().Parse(doc, &Env{Source: "/feeds/dealer.xml", Table: testTable()})
	if name != "vehicles" {
		t.Fatalf("parser = %s, want vehicles", name)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records", len(recs))
	}

	suv := recs[0]
	for field, v := range map[string]string{
		"id": "7", "tipo": "carro", "categoria": "SUV", "ano": "2021", "km": "30000",
		"preco": "150000", "opcionais": "Ar, Teto",
	} {
		if got := suv.String(field); got != v {
			t.Errorf("suv %s = %q, want %q", field, got, v)
		}
	}
	if !reflect.DeepEqual(suv.Photos("fotos"), []string{"a.jpg"}) {
		t.Errorf("photos = %v", suv.Photos("fotos"))
	}

	moto := recs[1]
	if moto.String("tipo") != "moto" || moto.String("cilindrada") != "162" || moto.String("categoria") != "street" {
		t.Errorf("moto = %v", moto)
	}
	if !strings.HasPrefix(moto.ID(), "gen:") {
		t.Errorf("missing id should be synthesized, got %q", moto.ID())
	}

	if got := recs[2].String("categoria"); got != "Hatch" {
		t.Errorf("hatch hint should resolve ambiguous category, got %q", got)
	}
}

func TestVehicleParser_SynthesizedIDsStable(t *testing.T) {
	content := `{"vehicles":[{"model":"Corolla","price":"100000"},{"model":"Corolla","price":"110000"}]}`
	parse := func() []models.Record {
		_, recs := DefaultRegistry().Parse(decodeOrFail(t, content, "a.json"), &Env{Source: "a.json", Table: testTable()})
		return recs
	}
	first, second := parse(), parse()
	if first[0].ID() != second[0].ID() || first[1].ID() != second[1].ID() {
		t.Error("ids should be stable across runs")
	}
	if first[0].ID() == first[1].ID() {
		t.Error("items at different positions should get different ids")
	}
	if first[0].String("categoria") != "Sedan" {
		t.Errorf("categoria = %q", first[0].String("categoria"))
	}
}

func TestRegistry_Select(t *testing.T) {
	reg := DefaultRegistry()
	tests := []struct {
		name   string
		doc    any
		source string
		want   string
	}{
		{"listing by url", map[string]any{}, "https://app.simplesveiculo.com.br/feed/1", "listings"},
		{"listing by shape", map[string]any{"listings": map[string]any{"listing": []any{}}}, "feed.json", "listings"},
		{"product by url", []any{}, "https://api.zettabrasil.com.br/produtos", "products"},
		{"product by marker", []any{map[string]any{"pro_cod": "1", "nome": "x"}}, "feed.json", "products"},
		{"fallback", []any{map[string]any{"modelo": "Onix"}}, "feed.json", "vehicles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Select(tt.doc, tt.source).Name; got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := DefaultRegistry()
	reg.Register(Parser{
		Name:      "custom",
		Match:     func(_ any, source string) bool { return strings.HasSuffix(source, ".custom.json") },
		Transform: func(any, *Env) []models.Record { return []models.Record{{"id": "c1"}} },
	})
	name, recs := reg.Parse([]any{}, &Env{Source: "x.custom.json"})
	if name != "custom" || len(recs) != 1 || recs[0].ID() != "c1" {
		t.Errorf("custom parser not used: %s %v", name, recs)
	}
}
