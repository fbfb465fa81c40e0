package unit

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// Cache holds decoded documents keyed by the hash of their file name and
// content. Documents are never modified after decoding, so one cache may be
// shared by loaders on different goroutines.
type Cache struct {
	docs sync.Map // uint64 -> *Document
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{} }

// globalCache is used by loaders not given a cache of their own.
//
//nolint:gochecknoglobals
var globalCache = NewCache()

func cacheKey(data []byte, file string) uint64 {
	return xxh3.Hash(data) ^ xxh3.HashString(file)
}

// Document returns the decoded document for data read from file, decoding
// it on first use.
func (c *Cache) Document(data []byte, file string) (*Document, bool, error) {
	key := cacheKey(data, file)

	if doc, ok := c.docs.Load(key); ok {
		return doc.(*Document), true, nil
	}

	doc, err := Decode(data, file)
	if err != nil {
		return nil, false, err
	}

	actual, _ := c.docs.LoadOrStore(key, doc)

	return actual.(*Document), false, nil
}

// Len reports the number of cached documents.
func (c *Cache) Len() int {
	n := 0

	c.docs.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// read drains r through a read-ahead buffer.
func read(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	return io.ReadAll(ra)
}

// document reads and decodes the document in r.
func (l *Loader) document(ctx context.Context, r io.Reader, file string) (*Document, error) {
	data, err := read(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", file))
	}

	doc, hit, err := l.cache.Document(data, file)
	if err != nil {
		return nil, err
	}

	l.logger.TraceContext(ctx, "read document",
		slog.String("file", file),
		slog.Int("bytes", len(data)),
		slog.Bool("cached", hit),
	)

	return doc, nil
}

// resolve locates an included file. Relative names are tried against the
// directory of the including file, then along the search path.
func (l *Loader) resolve(name, from string) (string, error) {
	if filepath.IsAbs(name) {
		return name, exists(name)
	}

	dirs := make([]string, 0, len(l.paths)+1)
	if from != "" {
		dirs = append(dirs, filepath.Dir(from))
	}

	dirs = append(dirs, l.paths...)

	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if exists(path) == nil {
			return path, nil
		}
	}

	return "", ErrInclude.With(
		slog.String("name", name),
		slog.String("from", from),
		slog.Any("path", l.paths),
	)
}

func exists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrInclude.Wrap(err).With(slog.String("name", path))
		}

		return ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	if info.IsDir() {
		return ErrInclude.With(slog.String("name", path), slog.String("reason", "is a directory"))
	}

	return nil
}
