// Package cli provides output helpers for the vitrine command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/vitrine/internal/ingest"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes a search response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSearchResultsText(w, response)
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%s)\n", response.TotalFound, response.QueryTime, response.State)
	if len(response.RelaxationsApplied) > 0 {
		fmt.Fprintf(w, "Relaxed: %s\n", strings.Join(response.RelaxationsApplied, ", "))
	}
	if remap := response.CategoryRemap; remap != nil {
		fmt.Fprintf(w, "Model %q searched as category %q\n", remap.Original, remap.Mapped)
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(response.Suggestions, ", "))
	}
	fmt.Fprintln(w)
	for i, rec := range response.Items {
		writeOneRecord(w, i+1, rec)
	}
}

func writeOneRecord(w io.Writer, rank int, rec models.Record) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s\n", rank, utils.Truncate(Title(rec), 80))
	fmt.Fprintf(w, "ID: %s", rec.ID())
	if price, ok := rec.Price(); ok {
		fmt.Fprintf(w, " | Price: %.2f", price)
	}
	if year, ok := rec.Year(); ok {
		fmt.Fprintf(w, " | Year: %d", year)
	}
	if km, ok := rec.Mileage(); ok {
		fmt.Fprintf(w, " | Km: %.0f", km)
	}
	fmt.Fprintln(w)
	if opts := rec.String(models.FieldOpcionais); opts != "" {
		fmt.Fprintf(w, "%s\n", TruncateWords(opts, 20))
	}
	fmt.Fprintln(w)
}

// Title returns the display name of a record: its title, or brand, model and
// version, or the product name.
func Title(rec models.Record) string {
	if t := rec.String(models.FieldTitulo); t != "" {
		return t
	}
	var parts []string
	for _, field := range []string{models.FieldMarca, models.FieldModelo, models.FieldVersao} {
		if v := rec.String(field); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if n := rec.String(models.FieldNome); n != "" {
		return n
	}
	return rec.ID()
}

// WriteIngestReport writes an ingestion report to w in the given format.
func WriteIngestReport(w io.Writer, report *ingest.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Ingested %d records from %d feeds in %s (%d failed)\n",
		report.Records, len(report.Sources), report.Elapsed.Round(time.Millisecond), report.Failed())
	for _, src := range report.Sources {
		if src.Error != "" {
			fmt.Fprintf(w, "  ✗ %s: %s\n", src.Source, src.Error)
			continue
		}
		fmt.Fprintf(w, "  ✓ %s: %d records (%s, %s)\n", src.Source, src.Records, src.Format, src.Parser)
	}
	st := report.Stats
	fmt.Fprintf(w, "With photos: %d | Missing price: %d\n", st.WithPhotos, st.MissingPrice)
	for _, b := range st.TopBrands {
		fmt.Fprintf(w, "  %-20s %d\n", b.Brand, b.Count)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
