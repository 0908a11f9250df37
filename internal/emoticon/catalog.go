// Package emoticon lets a chat model use preloaded emoticon images through textual
// markers such as %smile% or [:smile].
//
// A Catalog maps emoticon names to image files found in one directory. The prompt
// augmenter tells the model which names exist, and Resolve strips recognized markers
// from text, producing image parts for a Sender.
package emoticon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions lists the accepted file extensions, lowercased and with the dot.
var imageExtensions = map[string]bool{
	".gif":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Entry is one catalog item.
type Entry struct {
	Name string // base name without extension
	File string // bare filename inside the images directory
	Path string // images directory joined with File
}

// Catalog is an immutable name -> image file mapping built from one directory scan.
type Catalog struct {
	dir     string
	entries map[string]Entry
	names   []string
}

// NewCatalog builds a catalog from filenames as if they were listed in dir, in order.
// Filenames with unrecognized extensions are ignored.
func NewCatalog(dir string, filenames []string) *Catalog {
	c := &Catalog{
		dir:     dir,
		entries: make(map[string]Entry, len(filenames)),
	}
	for _, file := range filenames {
		name, ok := emoticonName(file)
		if !ok {
			continue
		}
		if _, exists := c.entries[name]; !exists {
			c.names = append(c.names, name)
		}
		c.entries[name] = Entry{Name: name, File: file, Path: filepath.Join(dir, file)}
	}
	return c
}

// LoadCatalog scans imagesDir, creating it when missing. An empty directory yields an
// empty catalog. Subdirectories are ignored.
func LoadCatalog(imagesDir string) (*Catalog, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("creating images directory %s: %w", imagesDir, err)
	}

	dirEntries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("listing images directory %s: %w", imagesDir, err)
	}

	filenames := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		filenames = append(filenames, de.Name())
	}
	return NewCatalog(imagesDir, filenames), nil
}

// emoticonName splits file into base name and extension and reports whether the
// extension is an accepted image type. Dotfiles such as ".png" have no name.
func emoticonName(file string) (string, bool) {
	ext := filepath.Ext(file)
	name := strings.TrimSuffix(file, ext)
	if name == "" || !imageExtensions[strings.ToLower(ext)] {
		return "", false
	}
	return name, true
}

// Dir returns the scanned directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Len returns the number of emoticons.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the emoticon names in first-seen order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}
