package ingest

import (
	"regexp"
	"strings"
)

var imageSuffix = regexp.MustCompile(`(?i)(\.(?:png|jpg|jpeg|gif|webp|bmp|svg))\?.*$`)

// imageKeys are tried in order when an image is given as an object.
var imageKeys = []string{"url", "URL", "src", "IMAGE_URL", "path", "link", "href"}

// NormalizeImages flattens an image value (string, list, or object with a URL
// key) into a de-duplicated list. Query strings after an image extension are
// dropped and any URL in placeholders is skipped.
func NormalizeImages(v any, placeholders ...string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	skip := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		skip[p] = struct{}{}
	}
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			u := cleanImageURL(t)
			if u == "" {
				return
			}
			if _, bad := skip[u]; bad {
				return
			}
			if _, dup := seen[u]; dup {
				return
			}
			seen[u] = struct{}{}
			out = append(out, u)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case []string:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			for _, k := range imageKeys {
				if s, ok := t[k].(string); ok && s != "" {
					walk(s)
					return
				}
			}
			// XML galleries nest the list one level down, e.g. <fotos><foto>.
			if len(t) == 1 {
				for _, inner := range t {
					walk(inner)
				}
			}
		}
	}
	walk(v)
	return out
}

func cleanImageURL(u string) string {
	return imageSuffix.ReplaceAllString(strings.TrimSpace(u), "$1")
}
