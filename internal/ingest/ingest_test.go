package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
)

const listingFeed = `{"listings":{"listing":{"vehicle_id":"L1","make":"Toyota","model":"COROLLA XEI 2.0","year":"2020","price":"98000"}}}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func openStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/listing.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(listingFeed))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngester_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stock.json"), `{"veiculos":[{"id":"V1","marca":"Jeep","modelo":"Compass","valor":"150000"}]}`)
	writeFile(t, filepath.Join(dir, "sub", "moto.xml"), `<estoque><veiculo><id>M1</id><tipo>moto</tipo><modelo>CG 160 Titan</modelo></veiculo></estoque>`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	srv := feedServer(t)

	st := openStorage(t)
	store := snapshot.NewStore()
	metrics := observability.NewMetrics()
	cfg := &config.FeedsConfig{
		URLs:        []string{srv.URL + "/listing.json", srv.URL + "/broken.json"},
		Directories: []string{dir},
		Extensions:  []string{".json", ".xml"},
	}
	in := NewIngester(cfg, st, store, testTable(), WithMetrics(metrics))

	report, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Sources) != 4 {
		t.Fatalf("sources = %+v", report.Sources)
	}
	if report.Failed() != 1 || report.Records != 3 {
		t.Errorf("failed = %d, records = %d", report.Failed(), report.Records)
	}
	if report.Stats.ByType["moto"] != 1 || report.Stats.ByType["carro"] != 2 {
		t.Errorf("stats by type = %v", report.Stats.ByType)
	}

	snap, err := store.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Len() != 3 {
		t.Errorf("snapshot has %d records", snap.Len())
	}
	if rec, ok := snap.Lookup("L1"); !ok || rec.String(models.FieldModelo) != "COROLLA" {
		t.Errorf("listing record = %v", rec)
	}

	ctx := context.Background()
	if n, _ := st.CountRecords(ctx); n != 3 {
		t.Errorf("stored %d records", n)
	}
	status, err := st.LatestStatus(ctx)
	if err != nil {
		t.Fatalf("LatestStatus: %v", err)
	}
	if !status.Success || status.RecordCount != 3 || !strings.Contains(status.Message, "1 failed") {
		t.Errorf("status = %+v", status)
	}
}

func TestIngester_AllFeedsFailKeepsSnapshot(t *testing.T) {
	srv := feedServer(t)
	st := openStorage(t)
	store := snapshot.NewStore()
	previous := snapshot.New([]models.Record{{"id": "old"}}, time.Now())
	store.Swap(previous)

	cfg := &config.FeedsConfig{URLs: []string{srv.URL + "/a.json", srv.URL + "/b.xml"}}
	in := NewIngester(cfg, st, store, testTable())
	report, err := in.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when every feed fails")
	}
	if report == nil || report.Failed() != 2 {
		t.Errorf("report = %+v", report)
	}
	if got, _ := store.Current(); got != previous {
		t.Error("previous snapshot should stay published")
	}
	status, err := st.LatestStatus(context.Background())
	if err != nil {
		t.Fatalf("LatestStatus: %v", err)
	}
	if status.Success {
		t.Errorf("status should record the failure: %+v", status)
	}
}

func TestIngester_NoSources(t *testing.T) {
	in := NewIngester(&config.FeedsConfig{}, nil, snapshot.NewStore(), testTable())
	_, err := in.Run(context.Background())
	if !errors.Is(err, ErrNoSources) {
		t.Errorf("err = %v, want ErrNoSources", err)
	}
}

func TestIngester_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.json"), `[{"id":"1","modelo":"Onix"}]`)
	writeFile(t, filepath.Join(dir, "nested", "deep.json"), `[{"id":"2","modelo":"Onix"}]`)
	no := false
	in := NewIngester(&config.FeedsConfig{Directories: []string{dir}, Recursive: &no}, nil, snapshot.NewStore(), testTable())
	sources := in.Sources()
	if len(sources) != 1 || filepath.Base(sources[0]) != "top.json" {
		t.Errorf("sources = %v", sources)
	}
}

func TestIngester_LoadStored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stock.json"), `{"veiculos":[{"id":"V1","modelo":"Compass","fotos":["a.jpg"],"valor":"1.500"}]}`)
	st := openStorage(t)
	cfg := &config.FeedsConfig{Directories: []string{dir}}

	first := snapshot.NewStore()
	if _, err := NewIngester(cfg, st, first, testTable()).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	restarted := snapshot.NewStore()
	n, err := NewIngester(cfg, st, restarted, testTable()).LoadStored(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("LoadStored = %d, %v", n, err)
	}
	a, _ := first.Current()
	b, _ := restarted.Current()
	if a.Version != b.Version {
		t.Errorf("reloaded snapshot version %s differs from %s", b.Version, a.Version)
	}
	if price, _ := b.Records[0].Price(); price != 1500 {
		t.Errorf("price = %v", price)
	}
}

func TestIngester_LoadStoredEmpty(t *testing.T) {
	store := snapshot.NewStore()
	n, err := NewIngester(&config.FeedsConfig{}, openStorage(t), store, testTable()).LoadStored(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("LoadStored = %d, %v", n, err)
	}
	if _, err := store.Current(); !errors.Is(err, snapshot.ErrNoData) {
		t.Errorf("store should stay empty, err = %v", err)
	}
}

func TestMatchExtension(t *testing.T) {
	if !MatchExtension("/a/B.JSON", []string{"json"}) {
		t.Error("extension match should ignore case and leading dot")
	}
	if MatchExtension("/a/b.txt", []string{".json", ".xml"}) {
		t.Error("txt should not match")
	}
	if !MatchExtension("/a/b", nil) {
		t.Error("empty list should match everything")
	}
}
