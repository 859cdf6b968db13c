package e2e

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SupportedFeedExtensions is the list of feed file extensions used in E2E tests.
var SupportedFeedExtensions = []string{".json", ".xml", ".xlsx"}

// WriteFeed renders vehicles as a feed file of the given extension.
func WriteFeed(ext string, vehicles []Vehicle) ([]byte, error) {
	switch ext {
	case ".json":
		return jsonFeed(vehicles)
	case ".xml":
		return xmlFeed(vehicles)
	case ".xlsx":
		return sheetFeed(vehicles)
	default:
		return nil, fmt.Errorf("unsupported feed extension %q", ext)
	}
}

func jsonFeed(vehicles []Vehicle) ([]byte, error) {
	items := make([]map[string]any, 0, len(vehicles))
	for _, v := range vehicles {
		items = append(items, map[string]any{
			"id":     v.ID,
			"marca":  v.Marca,
			"modelo": v.Modelo,
			"versao": v.Versao,
			"ano":    v.Ano,
			"km":     v.Km,
			"preco":  v.Preco,
			"cambio": v.Cambio,
			"cor":    v.Cor,
		})
	}
	return json.Marshal(map[string]any{"veiculos": items})
}

func xmlFeed(vehicles []Vehicle) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<estoque>\n")
	for _, v := range vehicles {
		cols, vals := v.Fields()
		buf.WriteString("  <veiculo>")
		for i, c := range cols {
			fmt.Fprintf(&buf, "<%s>", c)
			if err := xml.EscapeText(&buf, []byte(vals[i])); err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "</%s>", c)
		}
		buf.WriteString("</veiculo>\n")
	}
	buf.WriteString("</estoque>\n")
	return buf.Bytes(), nil
}

func sheetFeed(vehicles []Vehicle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	for i, v := range vehicles {
		cols, vals := v.Fields()
		if i == 0 {
			if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
				return nil, err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
