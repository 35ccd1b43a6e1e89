package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// ErrNotApplicable is returned by an Enricher that has nothing to add for
// a record. It is not a failure.
var ErrNotApplicable = errors.New("enricher: not applicable")

// Enricher derives extra metadata for a record during a scan. Returned
// keys are merged into the record's Meta map. Errors never abort a scan;
// the record is indexed without the extra metadata.
type Enricher interface {
	Enrich(ctx context.Context, rec *models.FileRecord) (map[string]string, error)
}

var categories = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image",
	"bmp": "image", "webp": "image", "svg": "image", "tiff": "image",
	"heic": "image", "raw": "image",

	"mp4": "video", "mkv": "video", "avi": "video", "mov": "video",
	"wmv": "video", "webm": "video", "flv": "video", "m4v": "video",

	"mp3": "audio", "flac": "audio", "wav": "audio", "aac": "audio",
	"ogg": "audio", "m4a": "audio", "wma": "audio", "opus": "audio",

	"pdf": "document", "doc": "document", "docx": "document",
	"xls": "document", "xlsx": "document", "ppt": "document",
	"pptx": "document", "odt": "document", "txt": "document",
	"md": "document", "rtf": "document", "epub": "document",

	"zip": "archive", "tar": "archive", "gz": "archive", "bz2": "archive",
	"xz": "archive", "rar": "archive", "7z": "archive", "iso": "archive",

	"go": "code", "py": "code", "js": "code", "ts": "code", "c": "code",
	"h": "code", "cpp": "code", "rs": "code", "java": "code",
	"rb": "code", "sh": "code", "sql": "code", "html": "code",
	"css": "code", "json": "code", "yaml": "code", "yml": "code",
	"xml": "code", "toml": "code",
}

// CategoryEnricher tags files with a coarse media category derived from
// the extension.
type CategoryEnricher struct{}

func (CategoryEnricher) Enrich(_ context.Context, rec *models.FileRecord) (map[string]string, error) {
	if rec.IsDir || rec.Ext == "" {
		return nil, ErrNotApplicable
	}
	cat, ok := categories[rec.Ext]
	if !ok {
		return nil, ErrNotApplicable
	}
	return map[string]string{"category": cat}, nil
}

// CachingEnricher memoizes another enricher. Entries are keyed by path,
// size and mtime, so an unchanged file seen on a rescan skips the inner
// enricher entirely.
type CachingEnricher struct {
	inner Enricher
	cache *expirable.LRU[string, map[string]string]
}

func NewCachingEnricher(inner Enricher, size int, ttl time.Duration) *CachingEnricher {
	return &CachingEnricher{
		inner: inner,
		cache: expirable.NewLRU[string, map[string]string](size, nil, ttl),
	}
}

func (c *CachingEnricher) Enrich(ctx context.Context, rec *models.FileRecord) (map[string]string, error) {
	key := cacheKey(rec)
	if meta, ok := c.cache.Get(key); ok {
		if meta == nil {
			return nil, ErrNotApplicable
		}
		return meta, nil
	}

	meta, err := c.inner.Enrich(ctx, rec)
	switch {
	case err == nil:
		c.cache.Add(key, meta)
		return meta, nil
	case errors.Is(err, ErrNotApplicable):
		c.cache.Add(key, nil)
		return nil, err
	default:
		return nil, err
	}
}

func cacheKey(rec *models.FileRecord) string {
	var b strings.Builder
	b.WriteString(rec.Root)
	b.WriteByte('/')
	b.WriteString(rec.Path)
	b.WriteByte('#')
	fmt.Fprintf(&b, "%d:%d", rec.Size, rec.ModTime.UnixNano())
	return b.String()
}
