// Package ingest fetches inventory feeds, decodes them into generic documents,
// converts them to records with a registry of feed parsers and publishes the
// result to storage and the live snapshot.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Format is the wire format of a decoded feed.
type Format string

const (
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatSheet Format = "xlsx"
)

// Decoder turns raw feed bytes into a generic document: maps, slices, strings
// and numbers.
type Decoder struct{}

// NewDecoder returns a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes content fetched from location. The extension of location picks
// the format; unknown extensions are sniffed, trying JSON before XML.
func (d *Decoder) Decode(content []byte, location string) (any, Format, error) {
	switch extension(location) {
	case ".json":
		doc, err := decodeJSON(content)
		return doc, FormatJSON, err
	case ".xml":
		doc, err := decodeXML(content)
		return doc, FormatXML, err
	case ".xlsx":
		doc, err := decodeSheet(content)
		return doc, FormatSheet, err
	}
	return d.sniff(content)
}

func (d *Decoder) sniff(content []byte) (any, Format, error) {
	trimmed := bytes.TrimLeft(content, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("empty feed")
	}
	if bytes.HasPrefix(trimmed, []byte("PK")) {
		doc, err := decodeSheet(content)
		return doc, FormatSheet, err
	}
	if doc, err := decodeJSON(trimmed); err == nil {
		return doc, FormatJSON, nil
	}
	if trimmed[0] == '<' {
		doc, err := decodeXML(content)
		return doc, FormatXML, err
	}
	return nil, "", fmt.Errorf("unrecognized feed format")
}

// extension returns the lower-cased extension of a URL path or file path,
// ignoring any query string.
func extension(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}

func decodeJSON(content []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(content, []byte("\ufeff"))))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return doc, nil
}
