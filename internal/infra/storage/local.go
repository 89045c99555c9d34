package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tmpSuffix = ".tmp"

// LocalBucket keeps one file per key in a single directory.
type LocalBucket struct {
	dir string
}

func NewLocal(dir string) (*LocalBucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &LocalBucket{dir: dir}, nil
}

// Put writes to a temp file in the same directory, fsyncs it, then links
// it into place. The link fails if the key already exists, so an existing
// object is never replaced and readers never see a partial file. Racing
// puts on one key need no lock: exactly one link wins.
func (b *LocalBucket) Put(_ context.Context, key string, data []byte, _ string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}

	tmp, err := os.CreateTemp(b.dir, key+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Link(tmpPath, filepath.Join(b.dir, key)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrObjectExists
		}
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (b *LocalBucket) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *LocalBucket) Exists(_ context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, ErrInvalidKey
	}
	info, err := os.Stat(filepath.Join(b.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Keys lists regular files in the directory, skipping in-flight temp files.
func (b *LocalBucket) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", b.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

func (b *LocalBucket) Check(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}
