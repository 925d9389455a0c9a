package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// DirectoryRetriever serves candidates from a local dataset laid out as {root}/{query}/*.
// Folder names are matched exactly first, then by FoldTerm, so "jiri-novak" serves "Jiří Novák".
type DirectoryRetriever struct {
	root string
}

var separatorFolder = strings.NewReplacer("/", " ", `\`, " ")

// NewDirectoryRetriever creates a retriever rooted at dir.
func NewDirectoryRetriever(dir string) *DirectoryRetriever {
	return &DirectoryRetriever{root: dir}
}

func (d *DirectoryRetriever) Name() string { return "local" }

// Retrieve lists image files for the query, sorted by name. A missing query directory is not an error.
func (d *DirectoryRetriever) Retrieve(ctx context.Context, query string, maxCount int) ([]CandidateImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Path separators are part of the name, never a path into the dataset.
	name := strings.TrimSpace(separatorFolder.Replace(query))
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid query %q", query)
	}
	dir, err := d.resolveDir(name)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return []CandidateImage{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	images := []CandidateImage{}
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		images = append(images, CandidateImage{
			Locator:     filepath.Join(dir, e.Name()),
			Title:       e.Name(),
			SourceLabel: "local",
		})
		if maxCount > 0 && len(images) >= maxCount {
			break
		}
	}
	return images, nil
}

// resolveDir finds the dataset folder for name. It returns "" when there is none.
func (d *DirectoryRetriever) resolveDir(name string) (string, error) {
	exact := filepath.Join(d.root, name)
	if info, err := os.Stat(exact); err == nil && info.IsDir() {
		return exact, nil
	}

	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading dataset root: %w", err)
	}
	key := FoldTerm(name)
	for _, e := range entries {
		if e.IsDir() && FoldTerm(e.Name()) == key {
			return filepath.Join(d.root, e.Name()), nil
		}
	}
	return "", nil
}
