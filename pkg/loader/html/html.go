package html

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/semgraph/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
)

// HTMLLoader extracts the readable article text of HTML corpus files.
// Other files are passed through from the wrapped loader unchanged.
type HTMLLoader struct {
	loader loader.TextLoader
}

func NewHTMLLoader(l loader.TextLoader) *HTMLLoader {
	return &HTMLLoader{loader: l}
}

func (l *HTMLLoader) GetText(ctx context.Context, file loader.CorpusFile) ([]byte, error) {
	raw, err := l.loader.GetText(ctx, file)
	if err != nil {
		return nil, err
	}
	if file.Type != loader.FileTypeHTML {
		return raw, nil
	}

	abs, err := filepath.Abs(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return nil, fmt.Errorf("failed to render article text: %w", err)
	}

	return []byte(builder.String()), nil
}
