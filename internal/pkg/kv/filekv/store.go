// Package filekv stores each key as a file in a directory. Writes go through
// renameio, which syncs a temporary file in the same directory and renames it
// over the target. The directory is synced after the rename, so a crash
// mid-write leaves the previous value in place.
//
// TTLs are not supported; expiring keys are kept until deleted.
package filekv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
)

type Store struct {
	dir string
}

var _ kv.Store = (*Store)(nil)

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filekv: create %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if err := renameio.WriteFile(s.path(key), value, 0o644, renameio.WithTempDir(s.dir)); err != nil {
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	// The rename is only durable once the directory entry is synced.
	if err := s.syncDir(); err != nil {
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) syncDir() error {
	d, err := os.Open(s.dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filekv: get %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := os.Remove(s.path(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("filekv: delete %q: %w", k, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.syncDir(); err != nil {
		return fmt.Errorf("filekv: delete: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
