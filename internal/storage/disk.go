package storage

import (
	"fmt"
	"os"
)

// sidecarSuffixes are the files SQLite keeps next to a database in WAL mode.
var sidecarSuffixes = []string{"-wal", "-shm"}

// DatabaseSize returns the bytes used by the SQLite database at path,
// including its WAL and shared-memory files when present. It returns an
// error wrapping ErrNotFound when the database file itself does not exist.
func DatabaseSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("database %s: %w", path, ErrNotFound)
		}
		return 0, err
	}
	total := info.Size()
	for _, suffix := range sidecarSuffixes {
		side, err := os.Stat(path + suffix)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += side.Size()
	}
	return total, nil
}
