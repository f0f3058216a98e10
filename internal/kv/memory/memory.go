package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cashbook/internal/kv"
)

// Store keeps blobs in a map. It is the test double of the persistence
// port and the "memory" backend.
type Store struct {
	mu    sync.Mutex
	items map[string]string
	// limit caps the total size of stored values; 0 disables it.
	limit int
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Batcher = (*Store)(nil)
)

func New() *Store {
	return &Store{items: map[string]string{}}
}

// NewWithLimit returns a store that rejects writes growing the total value
// size past limit bytes, like a browser storage quota.
func NewWithLimit(limit int) *Store {
	s := New()
	s.limit = limit
	return s
}

// NewFromFiles seeds the store with one blob per file found in base.
// The file name is the key; blank and unreadable files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		value := readAll(filepath.Join(base, e.Name()))
		if value == "" {
			continue
		}
		s.items[e.Name()] = value
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exceeds(map[string]*string{key: &value}) {
		return kv.ErrQuotaExceeded
	}
	s.items[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// SetMany applies all writes or none of them.
func (s *Store) SetMany(_ context.Context, values map[string]*string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exceeds(values) {
		return kv.ErrQuotaExceeded
	}
	for k, v := range values {
		if v == nil {
			delete(s.items, k)
			continue
		}
		s.items[k] = *v
	}
	return nil
}

// Keys returns the stored keys; used by tests.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

func (s *Store) exceeds(values map[string]*string) bool {
	if s.limit <= 0 {
		return false
	}
	total := 0
	for k, v := range s.items {
		if _, replaced := values[k]; replaced {
			continue
		}
		total += len(v)
	}
	for _, v := range values {
		if v != nil {
			total += len(*v)
		}
	}
	return total > s.limit
}

func readAll(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	var b strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(sc.Text())
	}
	return strings.TrimSpace(b.String())
}
