package storage

import (
	"path/filepath"
	"strings"
)

func localStorageFullpath(baseDir, key string) string {
	return filepath.Join(baseDir, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}
