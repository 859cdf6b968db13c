// Package e2e provides end-to-end tests: a generated inventory is written as
// feed files, ingested, and searched with query cases of known answers.
package e2e

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Vehicle is one inventory entry of the corpus, in feed field names.
type Vehicle struct {
	ID     string
	Marca  string
	Modelo string
	Versao string
	Ano    int
	Km     int
	Preco  int
	Cambio string
	Cor    string
}

// QueryTestCase defines search parameters and the vehicle IDs that must appear
// in the results. At least one of ExpectedIDs must be returned.
type QueryTestCase struct {
	Params      map[string]string
	ExpectedIDs []string
	Description string
}

// Corpus holds the inventory and query test cases for E2E tests.
type Corpus struct {
	Vehicles     []Vehicle
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a deterministic inventory of 100 vehicles and the query
// test cases derived from it.
func BuildCorpus() *Corpus {
	vehicles := buildVehicles(100)
	cases := buildQueryTestCases(vehicles)
	return &Corpus{
		Vehicles:     vehicles,
		TestCases:    cases,
		TotalDocs:    len(vehicles),
		TotalQueries: len(cases),
	}
}

var lineup = []struct {
	marca     string
	modelo    string
	versao    string
	basePreco int
}{
	{"Toyota", "Corolla", "XEi 2.0", 118000},
	{"Toyota", "Hilux", "SRV 2.8 4x4", 245000},
	{"Honda", "Civic", "EXL 2.0", 112000},
	{"Chevrolet", "Onix", "LTZ 1.0 Turbo", 72000},
	{"Jeep", "Compass", "Longitude 1.3", 139000},
	{"Fiat", "Strada", "Volcano 1.3", 98000},
	{"Volkswagen", "Gol", "MPI 1.0", 48000},
	{"Jeep", "Renegade", "Sport 1.3", 105000},
	{"Hyundai", "HB20", "Comfort 1.0", 64000},
	{"Renault", "Kwid", "Zen 1.0", 52000},
}

var (
	colors       = []string{"Prata", "Branco", "Preto", "Cinza", "Vermelho"}
	transmission = []string{"Automatico", "Manual"}
)

func buildVehicles(n int) []Vehicle {
	out := make([]Vehicle, 0, n)
	for i := 0; i < n; i++ {
		l := lineup[i%len(lineup)]
		age := (i / len(lineup)) % 6
		out = append(out, Vehicle{
			ID:     fmt.Sprintf("v%03d", i+1),
			Marca:  l.marca,
			Modelo: l.modelo,
			Versao: l.versao,
			Ano:    2024 - age,
			Km:     age*18000 + (i%7)*1000,
			Preco:  l.basePreco - age*6000 + (i%5)*500,
			Cambio: transmission[(i/3)%len(transmission)],
			Cor:    colors[i%len(colors)],
		})
	}
	return out
}

func buildQueryTestCases(vehicles []Vehicle) []QueryTestCase {
	var cases []QueryTestCase
	seen := make(map[string]bool)
	for _, l := range lineup {
		if seen[l.modelo] {
			continue
		}
		seen[l.modelo] = true
		model := strings.ToLower(l.modelo)
		cases = append(cases, QueryTestCase{
			Params:      map[string]string{"modelo": model},
			ExpectedIDs: idsWhere(vehicles, func(v Vehicle) bool { return strings.EqualFold(v.Modelo, l.modelo) }),
			Description: "model " + model,
		})
	}

	brands := make(map[string]bool)
	for _, l := range lineup {
		brands[l.marca] = true
	}
	names := make([]string, 0, len(brands))
	for b := range brands {
		names = append(names, b)
	}
	sort.Strings(names)
	for _, b := range names {
		brand := b
		cases = append(cases, QueryTestCase{
			Params:      map[string]string{"marca": strings.ToLower(brand)},
			ExpectedIDs: idsWhere(vehicles, func(v Vehicle) bool { return v.Marca == brand }),
			Description: "brand " + strings.ToLower(brand),
		})
	}

	cases = append(cases,
		QueryTestCase{
			Params:      map[string]string{"marca": "toyota", "ValorMax": "120000"},
			ExpectedIDs: idsWhere(vehicles, func(v Vehicle) bool { return v.Marca == "Toyota" && v.Preco <= 120000 }),
			Description: "brand under price ceiling",
		},
		QueryTestCase{
			Params:      map[string]string{"modelo": "onix,hb20", "cambio": "automatico"},
			ExpectedIDs: idsWhere(vehicles, func(v Vehicle) bool { return (v.Modelo == "Onix" || v.Modelo == "HB20") && v.Cambio == "Automatico" }),
			Description: "model alternatives with transmission",
		},
		QueryTestCase{
			Params:      map[string]string{"marca": "jeep", "KmMax": "20000"},
			ExpectedIDs: idsWhere(vehicles, func(v Vehicle) bool { return v.Marca == "Jeep" && v.Km <= 20000 }),
			Description: "brand under mileage ceiling",
		},
	)
	return cases
}

func idsWhere(vehicles []Vehicle, keep func(Vehicle) bool) []string {
	var ids []string
	for _, v := range vehicles {
		if keep(v) {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Fields returns the vehicle as an ordered list of feed columns and values.
func (v Vehicle) Fields() ([]string, []string) {
	return []string{"id", "marca", "modelo", "versao", "ano", "km", "preco", "cambio", "cor"},
		[]string{v.ID, v.Marca, v.Modelo, v.Versao, strconv.Itoa(v.Ano), strconv.Itoa(v.Km), strconv.Itoa(v.Preco), v.Cambio, v.Cor}
}

// matchesParams reports whether v satisfies the filter parameters of a test
// case without any relaxation.
func matchesParams(v Vehicle, params map[string]string) bool {
	for key, value := range params {
		switch key {
		case "marca":
			if !anyEqualFold(v.Marca, value) {
				return false
			}
		case "modelo":
			if !anyEqualFold(v.Modelo, value) {
				return false
			}
		case "cambio":
			if !anyEqualFold(v.Cambio, value) {
				return false
			}
		case "ValorMax":
			limit, _ := strconv.Atoi(value)
			if v.Preco > limit {
				return false
			}
		case "KmMax":
			limit, _ := strconv.Atoi(value)
			if v.Km > limit {
				return false
			}
		}
	}
	return true
}

func anyEqualFold(field, value string) bool {
	for _, alt := range strings.Split(value, ",") {
		if strings.EqualFold(field, strings.TrimSpace(alt)) {
			return true
		}
	}
	return false
}
