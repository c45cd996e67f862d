// Package persist writes screenshot descriptions next to their images.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrFilesystem reports that a description file could not be written.
var ErrFilesystem = errors.New("persist: filesystem error")

// DescriptionFilename derives the text filename for an image by replacing its
// extension with ".txt", e.g. "20240131_093000_screenshot.png" becomes
// "20240131_093000_screenshot.txt".
func DescriptionFilename(imageFilename string) string {
	return strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename)) + ".txt"
}

// Compose builds the text that is persisted. When windowBlock is non-empty it
// precedes the description under a "Description:" heading.
func Compose(windowBlock, description string) string {
	if windowBlock == "" {
		return description
	}
	return windowBlock + "\n\nDescription:\n" + description
}

// Store writes description files into a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes text to the description file belonging to imageFilename and
// returns its path. Existing files are overwritten.
func (s *Store) Save(imageFilename, text string) (string, error) {
	path := filepath.Join(s.dir, DescriptionFilename(filepath.Base(imageFilename)))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	return path, nil
}
