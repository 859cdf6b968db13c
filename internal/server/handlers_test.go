package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/reference"
	"github.com/hyperjump/vitrine/internal/search"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
)

func inventory() []models.Record {
	return []models.Record{
		{"id": "1", "tipo": "carro", "marca": "Toyota", "modelo": "Corolla", "categoria": "Sedan", "preco": 120000.0,
			"fotos": []string{"a.jpg", "b.jpg"}, "opcionais": "Ar"},
		{"id": "2", "tipo": "carro", "marca": "Toyota", "modelo": "Hilux", "categoria": "Caminhonete", "preco": 250000.0},
		{"id": "3", "tipo": "carro", "marca": "Honda", "modelo": "Civic", "categoria": "Sedan", "preco": 110000.0},
	}
}

type testEnv struct {
	srv     *Server
	store   *snapshot.Store
	storage *storage.SQLiteStorage
}

type triggerCounter struct{ n int }

func (c *triggerCounter) Trigger() { c.n++ }

func newTestServer(t *testing.T, records []models.Record, opts ...Option) *testEnv {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "records.db")

	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	store := snapshot.NewStore()
	if records != nil {
		store.Swap(snapshot.New(records, time.Now()))
	}
	table := reference.New(reference.File{Categories: []reference.CategoryGroup{
		{Name: "Sedan", Models: []string{"corolla", "civic", "virtus"}},
	}})
	engine, err := search.NewEngineFromConfig(&cfg.Engine, store, table)
	if err != nil {
		t.Fatalf("NewEngineFromConfig: %v", err)
	}
	return &testEnv{srv: NewServer(engine, st, store, cfg, nil, opts...), store: store, storage: st}
}

func (e *testEnv) get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return w, body
}

func resultIDs(body map[string]any) []string {
	var ids []string
	for _, r := range body["resultados"].([]any) {
		ids = append(ids, r.(map[string]any)["id"].(string))
	}
	return ids
}

func TestHandleData_NoData(t *testing.T) {
	env := newTestServer(t, nil)
	w, body := env.get(t, "/api/data?marca=toyota")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}
	if body["error"] != "no data available" || body["total_encontrado"].(float64) != 0 {
		t.Errorf("body = %v", body)
	}
}

func TestHandleData_Catalog(t *testing.T) {
	env := newTestServer(t, inventory())
	w, body := env.get(t, "/api/data?excluir=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if body["info"] != infoCatalog {
		t.Errorf("info = %v", body["info"])
	}
	if got := resultIDs(body); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("results = %v", got)
	}
	if _, ok := body["fallback"]; ok {
		t.Error("catalog responses carry no fallback block")
	}
}

func TestHandleData_Fallback(t *testing.T) {
	env := newTestServer(t, inventory())
	_, body := env.get(t, "/api/data?marca=toyota&cor=azul&PrecoMax=130000")
	fb, ok := body["fallback"].(map[string]any)
	if !ok {
		t.Fatalf("expected fallback block, body = %v", body)
	}
	removed := fb["removed_filters"].([]any)
	if len(removed) != 1 || removed[0] != "cor" {
		t.Errorf("removed_filters = %v", removed)
	}
	if got := resultIDs(body); len(got) != 1 || got[0] != "1" {
		t.Errorf("results = %v", got)
	}
}

func TestHandleData_CategoryRemap(t *testing.T) {
	env := newTestServer(t, inventory())
	_, body := env.get(t, "/api/data?modelo=virtus")
	fb := body["fallback"].(map[string]any)
	remap := fb["category_remap"].(map[string]any)
	if remap["original"] != "virtus" || remap["mapped"] != "Sedan" {
		t.Errorf("category_remap = %v", remap)
	}
}

func TestHandleData_NothingFound(t *testing.T) {
	env := newTestServer(t, inventory())
	_, body := env.get(t, "/api/data?modelo=hulix")
	if body["total_encontrado"].(float64) != 0 {
		t.Errorf("total = %v", body["total_encontrado"])
	}
	if body["instrucao_ia"] != instructionNil {
		t.Errorf("instrucao_ia = %v", body["instrucao_ia"])
	}
	sugg, _ := body["sugestoes"].([]any)
	if len(sugg) == 0 || sugg[0] != "hilux" {
		t.Errorf("sugestoes = %v", sugg)
	}
}

func TestHandleData_LookupSimple(t *testing.T) {
	env := newTestServer(t, inventory())
	_, body := env.get(t, "/api/data?id=1&simples=1")
	if body["info"] != "Produto encontrado por ID: 1" {
		t.Errorf("info = %v", body["info"])
	}
	item := body["resultados"].([]any)[0].(map[string]any)
	if photos := item["fotos"].([]any); len(photos) != 1 {
		t.Errorf("simple mode should keep one photo, got %v", photos)
	}
	if _, ok := item["opcionais"]; ok {
		t.Error("simple mode should drop opcionais")
	}

	_, body = env.get(t, "/api/data?id=404")
	if body["error"] != "Produto com ID 404 não encontrado" || len(body["resultados"].([]any)) != 0 {
		t.Errorf("missing id body = %v", body)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestServer(t, nil)
	w, body := env.get(t, "/api/health")
	if w.Code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: %d %v", w.Code, body)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestServer(t, inventory())
	ctx := context.Background()
	if err := env.storage.ReplaceRecords(ctx, inventory()); err != nil {
		t.Fatal(err)
	}
	if err := env.storage.SaveStatus(ctx, &models.UpdateStatus{
		Timestamp: time.Now().UTC(), Success: true, Message: "3 records from 1 feeds", RecordCount: 3,
	}); err != nil {
		t.Fatal(err)
	}

	w, body := env.get(t, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	last := body["last_update"].(map[string]any)
	if last["success"] != true || last["record_count"].(float64) != 3 {
		t.Errorf("last_update = %v", last)
	}
	if body["stored_records"].(float64) != 3 {
		t.Errorf("stored_records = %v", body["stored_records"])
	}
	snap := body["snapshot"].(map[string]any)
	if snap["records"].(float64) != 3 || snap["version"] == "" {
		t.Errorf("snapshot = %v", snap)
	}
	if df, ok := body["data_file"].(map[string]any); !ok || df["size_bytes"].(float64) <= 0 {
		t.Errorf("data_file = %v", body["data_file"])
	}
}

func TestHandleStatus_NoUpdatesYet(t *testing.T) {
	env := newTestServer(t, nil)
	w, body := env.get(t, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if body["last_update"] != nil || body["snapshot"] != nil {
		t.Errorf("body = %v", body)
	}
}

func TestHandleRefresh(t *testing.T) {
	env := newTestServer(t, nil)
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("without refresher: got %d", w.Code)
	}

	counter := &triggerCounter{}
	env = newTestServer(t, nil, WithRefresher(counter))
	w = httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if w.Code != http.StatusAccepted || counter.n != 1 {
		t.Errorf("refresh: code %d, triggers %d", w.Code, counter.n)
	}
}

func TestMetricsRoute(t *testing.T) {
	env := newTestServer(t, inventory(), WithMetrics(observability.NewMetrics()))
	env.get(t, "/api/data?marca=honda")
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output should include the Go collector")
	}
}
