package io

import (
	"context"
	"os"
	"sync"

	"github.com/OFFIS-RIT/semgraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// IOLoader loads files directly from the local filesystem with caching.
type IOLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOLoader creates a new filesystem-based loader.
func NewIOLoader() *IOLoader {
	return &IOLoader{
		cache: make(map[string][]byte),
	}
}

// GetText reads the file content from the filesystem. Results are cached and
// concurrent reads of the same file share one read.
func (l *IOLoader) GetText(ctx context.Context, file loader.CorpusFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
