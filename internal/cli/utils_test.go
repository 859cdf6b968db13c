package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/vitrine/internal/ingest"
	"github.com/hyperjump/vitrine/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Items: []models.Record{
			{"id": "1", "marca": "Toyota", "modelo": "Corolla", "versao": "XEi 2.0", "preco": 120000.0,
				"ano": 2021.0, "km": 35000.0, "opcionais": "Ar condicionado, Direcao eletrica"},
		},
		TotalFound:         1,
		RelaxationsApplied: []string{"cor"},
		State:              models.StateSuccess,
		QueryTime:          42,
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TotalFound != 1 || decoded.QueryTime != 42 || decoded.State != models.StateSuccess {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Items) != 1 || decoded.Items[0].ID() != "1" {
		t.Errorf("decoded items = %v", decoded.Items)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 results", "42ms", "Relaxed: cor", "1. Toyota Corolla XEi 2.0", "ID: 1", "Price: 120000.00", "Year: 2021", "Km: 35000", "Ar condicionado"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_textExhausted(t *testing.T) {
	response := &models.SearchResponse{
		State:         models.StateExhausted,
		Suggestions:   []string{"hilux"},
		CategoryRemap: &models.CategoryRemap{Original: "virtus", Mapped: "Sedan"},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 0 results", "exhausted", "Did you mean: hilux", `"virtus" searched as category "Sedan"`} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, &models.SearchResponse{}, OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteSearchResults(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Found") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		rec  models.Record
		want string
	}{
		{"title wins", models.Record{"titulo": "Onix LTZ", "marca": "Chevrolet"}, "Onix LTZ"},
		{"vehicle", models.Record{"marca": "Honda", "modelo": "CG 160"}, "Honda CG 160"},
		{"product", models.Record{"id": "9", "nome": "Parafuso"}, "Parafuso"},
		{"id only", models.Record{"id": "9"}, "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.rec); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteIngestReport(t *testing.T) {
	report := &ingest.Report{
		Sources: []ingest.SourceReport{
			{Source: "feeds/stock.json", Parser: "vehicles", Format: ingest.FormatJSON, Records: 2},
			{Source: "https://example.com/x.xml", Error: "status 500"},
		},
		Records: 2,
		Stats: ingest.Stats{
			Total:      2,
			WithPhotos: 1,
			TopBrands:  []ingest.BrandCount{{Brand: "Toyota", Count: 2}},
		},
		Elapsed: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := WriteIngestReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Ingested 2 records from 2 feeds in 1.5s (1 failed)", "feeds/stock.json: 2 records (json, vehicles)", "status 500", "Toyota"} {
		if !strings.Contains(out, sub) {
			t.Errorf("report output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteIngestReport(&buf, report, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report JSON: %v", err)
	}
	if decoded["records"].(float64) != 2 {
		t.Errorf("records = %v", decoded["records"])
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
