package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type FileType string

const (
	FileTypeText FileType = "text"
	FileTypeHTML FileType = "html"
)

// CorpusFile is one document of a corpus directory. Index is the position of
// the file in the sorted directory listing and becomes the document index.
type CorpusFile struct {
	Index int
	Path  string
	Type  FileType
}

// TextLoader defines the interface for loading the text of a CorpusFile.
// Implementations may read from disk or post-process the raw bytes of
// another loader.
type TextLoader interface {
	GetText(ctx context.Context, file CorpusFile) ([]byte, error)
}

// FileTypeFor maps a file extension to its FileType. Unsupported extensions
// report false.
func FileTypeFor(path string) (FileType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text":
		return FileTypeText, true
	case ".html", ".htm":
		return FileTypeHTML, true
	default:
		return "", false
	}
}

// ListCorpus returns the supported files directly inside dir sorted by file
// name. Subdirectories and unsupported files are ignored.
func ListCorpus(dir string) ([]CorpusFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FileTypeFor(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	files := make([]CorpusFile, len(names))
	for i, name := range names {
		ft, _ := FileTypeFor(name)
		files[i] = CorpusFile{
			Index: i,
			Path:  filepath.Join(dir, name),
			Type:  ft,
		}
	}
	return files, nil
}

// LoadTexts loads the text of every file with l. The i-th text belongs to
// files[i].
//
// Example:
//
//	files, err := loader.ListCorpus("./corpus")
//	if err != nil {
//		log.Fatal(err)
//	}
//	texts, err := loader.LoadTexts(ctx, files, html.NewHTMLLoader(io.NewIOLoader()))
func LoadTexts(ctx context.Context, files []CorpusFile, l TextLoader) ([]string, error) {
	texts := make([]string, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := l.GetText(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f.Path, err)
		}
		texts[i] = string(data)
	}
	return texts, nil
}

// CacheKey returns the key loaders cache the content of file under.
func CacheKey(file CorpusFile) string {
	return string(file.Type) + ":" + file.Path
}
