package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// xmlNode collects one element while its children are decoded.
type xmlNode struct {
	name   string
	fields map[string]any
	text   strings.Builder
}

// add stores a child value. A repeated child name turns into a list.
func (n *xmlNode) add(name string, v any) {
	prev, ok := n.fields[name]
	if !ok {
		n.fields[name] = v
		return
	}
	if list, isList := prev.([]any); isList {
		n.fields[name] = append(list, v)
		return
	}
	n.fields[name] = []any{prev, v}
}

// value is the element's text when it has neither attributes nor children,
// otherwise a map where attributes are prefixed with "@" and mixed text is
// kept under "#text".
func (n *xmlNode) value() any {
	text := strings.TrimSpace(n.text.String())
	if len(n.fields) == 0 {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		n.fields["#text"] = text
	}
	return n.fields
}

// decodeXML converts a feed document into nested maps keyed by element name,
// with the root element as the single top-level key.
func decodeXML(content []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charsetReader

	var stack []*xmlNode
	var root map[string]any
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, fields: make(map[string]any)}
			for _, a := range t.Attr {
				n.fields["@"+a.Name.Local] = a.Value
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = map[string]any{n.name: n.value()}
				continue
			}
			stack[len(stack)-1].add(n.name, n.value())
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decode XML: no root element")
	}
	return root, nil
}

// charsetReader transcodes legacy encodings declared by dealer feeds
// (ISO-8859-1, windows-1252) to UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
