package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// partialSuffixes mark files the engine is still writing or left behind after a failure
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// EnsureDir creates dir and any missing parents
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ClearFolder removes everything inside folderPath but keeps the folder itself
func ClearFolder(folderPath string) error {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryPath := filepath.Join(folderPath, entry.Name())

		// Remove file or directory (including its contents if it's a directory)
		err = os.RemoveAll(entryPath)
		if err != nil {
			return err
		}
	}

	return nil
}

// SingleFile returns the only complete regular file in dir.
// Partial downloads are ignored; zero or several candidates is an error.
func SingleFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var found []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || isPartial(entry.Name()) {
			continue
		}
		found = append(found, filepath.Join(dir, entry.Name()))
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("no file found in %s", dir)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%d files found in %s, expected one", len(found), dir)
	}
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
