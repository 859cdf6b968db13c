package ingest

import (
	"reflect"
	"testing"
)

func TestNormalizeImages(t *testing.T) {
	tests := []struct {
		name         string
		in           any
		placeholders []string
		want         []string
	}{
		{"nil", nil, nil, []string{}},
		{"string", " https://cdn/a.jpg?w=800 ", nil, []string{"https://cdn/a.jpg"}},
		{"list dedupe", []any{"https://cdn/a.JPG?x=1", "https://cdn/a.JPG", "https://cdn/b.png"}, nil,
			[]string{"https://cdn/a.JPG", "https://cdn/b.png"}},
		{"objects", []any{map[string]any{"url": "https://cdn/a.webp"}, map[string]any{"IMAGE_URL": "https://cdn/b.jpg"}}, nil,
			[]string{"https://cdn/a.webp", "https://cdn/b.jpg"}},
		{"xml wrapper", map[string]any{"foto": []any{"a.jpg", "b.jpg"}}, nil, []string{"a.jpg", "b.jpg"}},
		{"non image query kept", "https://cdn/img?id=5", nil, []string{"https://cdn/img?id=5"}},
		{"placeholder", []any{"https://app.simplesveiculo.com.br/", "https://cdn/a.jpg"}, []string{listingPlaceholder},
			[]string{"https://cdn/a.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeImages(tt.in, tt.placeholders...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyntheticID(t *testing.T) {
	a := SyntheticID("https://x.example/feed.json", 3, "Onix LT")
	b := SyntheticID("https://x.example/feed.json", 3, " Onix LT ")
	c := SyntheticID("https://x.example/feed.json", 4, "Onix LT")
	if a != b {
		t.Errorf("same item should get the same id: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different positions should get different ids")
	}
	if len(a) != len("gen:")+36 {
		t.Errorf("unexpected id %q", a)
	}
}
