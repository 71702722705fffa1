// Package cache is a namespaced, file-backed store with TTL expiry and
// count-based eviction. It memoizes whole gather runs as well as upstream
// reasoning-service responses.
//
// Every record is one file named "{namespace}__{hash}.json" in a flat directory;
// listing the directory is the only index. There is no locking: concurrent
// writers sharing a directory get last-write-wins semantics.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 100

	separator = "__"
	recordExt = ".json"
)

// Config configures a Store.
type Config struct {
	Dir        string           // Directory holding the records; created if missing.
	TTL        time.Duration    // Maximum record age; <= 0 means DefaultTTL.
	MaxEntries int              // Record budget across all namespaces; <= 0 means DefaultMaxEntries.
	Now        func() time.Time // Clock; nil means time.Now.
}

// Store is the shared cache handle. A nil *Store is a disabled cache: every
// lookup misses and every write is dropped.
type Store struct {
	dir        string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *zap.Logger
}

// record is the on-disk shape of an entry.
type record struct {
	Value     json.RawMessage `json:"value"`
	Timestamp int64           `json:"timestamp"` // Write time, epoch milliseconds.
}

// recordFile describes one record found by listing the directory.
type recordFile struct {
	name      string
	namespace string
	size      int64
	written   time.Time
}

// Stats summarizes the records of one namespace, or of the whole store.
type Stats struct {
	Entries    int       `json:"entries" yaml:"entries"`
	TotalBytes int64     `json:"totalBytes" yaml:"totalBytes"`
	Oldest     time.Time `json:"oldest" yaml:"oldest"`
	Newest     time.Time `json:"newest" yaml:"newest"`
}

// DefaultDir returns the per-user cache directory for ctxgather.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(base, "ctxgather"), nil
}

// New opens (and creates if needed) a store rooted at cfg.Dir.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	logger.Debug("Opened cache",
		zap.String("dir", dir),
		zap.Duration("ttl", cfg.TTL),
		zap.Int("maxEntries", cfg.MaxEntries))
	return &Store{
		dir:        dir,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        cfg.Now,
		logger:     logger,
	}, nil
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *Store) path(namespace, key string) string {
	return filepath.Join(s.dir, namespace+separator+fileKey(key)+recordExt)
}

// get returns the raw value, deleting the record if it has expired.
func (s *Store) get(namespace, key string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	p := s.path(namespace, key)
	raw, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Cache read failed", zap.String("file", p), zap.Error(err))
		}
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Debug("Discarding corrupt cache record", zap.String("file", p), zap.Error(err))
		_ = os.Remove(p)
		return nil, false
	}
	if s.now().Sub(time.UnixMilli(rec.Timestamp)) > s.ttl {
		s.logger.Debug("Cache record expired", zap.String("namespace", namespace), zap.String("key", key))
		_ = os.Remove(p)
		return nil, false
	}
	return rec.Value, true
}

// set writes the record and prunes the store. Failures are logged and dropped.
func (s *Store) set(namespace, key string, value any) {
	if s == nil {
		return
	}
	if err := s.write(namespace, key, value); err != nil {
		s.logger.Debug("Cache write failed", zap.String("namespace", namespace), zap.Error(err))
		return
	}
	if err := s.prune(); err != nil {
		s.logger.Debug("Cache prune failed", zap.Error(err))
	}
}

func (s *Store) write(namespace, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	written := time.UnixMilli(s.now().UnixMilli())
	raw, err := json.Marshal(record{Value: encoded, Timestamp: written.UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to encode cache record: %w", err)
	}

	p := s.path(namespace, key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	// The file mtime mirrors the record timestamp so listing never decodes records.
	if err := os.Chtimes(tmp, written, written); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

// Delete removes one record. Missing records are not an error.
func (s *Store) Delete(namespace, key string) error {
	if s == nil {
		return nil
	}
	if err := os.Remove(s.path(namespace, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every record, or only those of namespace when it is non-empty.
func (s *Store) Clear(namespace string) error {
	if s == nil {
		return nil
	}
	files, err := s.list(namespace)
	if err != nil {
		return err
	}
	var errs error
	for _, f := range files {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	s.logger.Debug("Cleared cache", zap.String("namespace", namespace), zap.Int("records", len(files)))
	return errs
}

// Stats reports the records of namespace, or of the whole store when it is empty.
func (s *Store) Stats(namespace string) (Stats, error) {
	var st Stats
	if s == nil {
		return st, nil
	}
	files, err := s.list(namespace)
	if err != nil {
		return st, err
	}
	for _, f := range files {
		st.Entries++
		st.TotalBytes += f.size
		if st.Oldest.IsZero() || f.written.Before(st.Oldest) {
			st.Oldest = f.written
		}
		if f.written.After(st.Newest) {
			st.Newest = f.written
		}
	}
	return st, nil
}

// prune deletes the oldest records until the store is within its entry budget.
// The budget is global: writes to one namespace can evict another's records.
func (s *Store) prune() error {
	files, err := s.list("")
	if err != nil {
		return err
	}
	excess := len(files) - s.maxEntries
	if excess <= 0 {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].written.Equal(files[j].written) {
			return files[i].name < files[j].name
		}
		return files[i].written.Before(files[j].written)
	})

	var errs error
	for _, f := range files[:excess] {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
			continue
		}
		s.logger.Debug("Evicted cache record", zap.String("file", f.name))
	}
	return errs
}

// list enumerates records, optionally restricted to one namespace.
func (s *Store) list(namespace string) ([]recordFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	var files []recordFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		ns, _, ok := strings.Cut(name, separator)
		if !ok || (namespace != "" && ns != namespace) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, recordFile{
			name:      name,
			namespace: ns,
			size:      info.Size(),
			written:   info.ModTime(),
		})
	}
	return files, nil
}
