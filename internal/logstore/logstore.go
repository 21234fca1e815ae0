package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/browserlog/browserlog/internal/metrics"
)

// Category identifies one append-only log stream. Each category has its own
// active file, rotation state, and serializing lock.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryTransport   Category = "transport"
	CategoryDatabase    Category = "database"
)

// rotatedSuffixLayout is the UTC compact timestamp appended to rotated files.
const rotatedSuffixLayout = "20060102150405"

type categoryFile struct {
	mu   sync.Mutex
	path string
}

// Store is the durable, size-bounded, append-only log store. Appends within
// a category are totally ordered; the per-category lock covers the
// rotate-check-then-append sequence so no two entries interleave and no
// entry straddles a rotation.
type Store struct {
	maxBytes   int64
	now        func() time.Time
	categories map[Category]*categoryFile
}

// New builds a Store writing to dir, one active file per category. The
// directory is created if missing; active files are created lazily on first
// append.
func New(dir string, maxBytes int64, files map[Category]string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	categories := make(map[Category]*categoryFile, len(files))
	for cat, name := range files {
		categories[cat] = &categoryFile{path: filepath.Join(dir, name)}
	}
	return &Store{
		maxBytes:   maxBytes,
		now:        time.Now,
		categories: categories,
	}, nil
}

// Append writes one fully formatted entry to the category's active file,
// rotating first if the file is over the size ceiling.
func (s *Store) Append(cat Category, entry string) error {
	cf, ok := s.categories[cat]
	if !ok {
		return fmt.Errorf("unknown log category: %s", cat)
	}
	cf.mu.Lock()
	defer cf.mu.Unlock()

	if err := s.rotateIfOversize(cat, cf); err != nil {
		return err
	}

	f, err := os.OpenFile(cf.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s log: %w", cat, err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append %s log: %w", cat, err)
	}
	metrics.EntriesAppended.WithLabelValues(string(cat)).Inc()
	return nil
}

// rotateIfOversize renames the active file to <name>.<UTC timestamp>.old and
// lets the next append start a fresh file. Caller holds the category lock.
func (s *Store) rotateIfOversize(cat Category, cf *categoryFile) error {
	info, err := os.Stat(cf.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s log: %w", cat, err)
	}
	if info.Size() <= s.maxBytes {
		return nil
	}
	rotated := fmt.Sprintf("%s.%s.old", cf.path, s.now().UTC().Format(rotatedSuffixLayout))
	if err := os.Rename(cf.path, rotated); err != nil {
		return fmt.Errorf("rotate %s log: %w", cat, err)
	}
	metrics.Rotations.WithLabelValues(string(cat)).Inc()
	return nil
}

// ActivePath returns the active file path for a category, or "" if the
// category is not configured.
func (s *Store) ActivePath(cat Category) string {
	if cf, ok := s.categories[cat]; ok {
		return cf.path
	}
	return ""
}
