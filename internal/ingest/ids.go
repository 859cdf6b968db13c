package ingest

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// recordSpace namespaces synthesized record ids.
var recordSpace = uuid.MustParse("3b8d7c52-1e4f-5a60-8c2d-9f0e1a7b6c45")

// SourceKey returns the canonical form of a feed location: local paths are
// cleaned and made absolute, URLs are kept as given.
func SourceKey(location string) string {
	if isRemote(location) {
		return strings.TrimSpace(location)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return filepath.Clean(location)
	}
	return abs
}

// SyntheticID returns a stable id for a feed item that carries none. The same
// item (source, position in the feed and title) always receives the same id.
func SyntheticID(source string, position int, title string) string {
	key := SourceKey(source) + "\x00" + strconv.Itoa(position) + "\x00" + strings.TrimSpace(title)
	return "gen:" + uuid.NewSHA1(recordSpace, []byte(key)).String()
}
