package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	tmpPrefix = ".tmp-"
	// metaDir holds one file per object recording its declared content type.
	metaDir = ".meta"
)

// LocalStorage implements Storage on the local filesystem: one directory per
// container under baseDir. It is intended for development and testing; the
// API serves baseDir so that publicBase resolves.
type LocalStorage struct {
	baseDir    string
	publicBase string
}

// NewLocalStorage creates baseDir if needed.
func NewLocalStorage(baseDir, publicBase string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrNotConfigured
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicBase: publicBase}, nil
}

// BaseDir is the directory holding all containers.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) EnsureContainer(ctx context.Context, container string) error {
	dir, err := s.containerDir(container)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create container dir: %w", err)
	}
	return nil
}

// Put writes to a temp file and renames it into place so readers never see partial objects.
func (s *LocalStorage) Put(ctx context.Context, container, key string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(container, key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	tmpPath := f.Name()
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close object: %w", err)
	}
	if err := s.writeContentType(container, key, contentType); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename object: %w", err)
	}
	return nil
}

func (s *LocalStorage) Remove(ctx context.Context, container, key string) error {
	path, err := s.objectPath(container, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("remove object: %w", err)
	}
	_ = os.Remove(s.metaPath(container, key))
	return nil
}

// Keys lists regular files in lexical order, which is the directory's native order here.
func (s *LocalStorage) Keys(ctx context.Context, container string, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}
	dir, err := s.containerDir(container)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list container %q: %w", container, err)
	}

	keys := make([]string, 0, max)
	for _, e := range entries {
		if len(keys) >= max {
			break
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// Stat reports the content type recorded by Put, sniffing the file header
// for objects written without one.
func (s *LocalStorage) Stat(ctx context.Context, container, key string) (ObjectInfo, error) {
	path, err := s.objectPath(container, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if ct, err := os.ReadFile(s.metaPath(container, key)); err == nil && len(ct) > 0 {
		return ObjectInfo{Key: key, ContentType: string(ct), Size: fi.Size()}, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("detect content type: %w", err)
	}
	return ObjectInfo{Key: key, ContentType: mt.String(), Size: fi.Size()}, nil
}

// writeContentType records contentType for key, or clears a stale record when
// it is empty.
func (s *LocalStorage) writeContentType(container, key, contentType string) error {
	path := s.metaPath(container, key)
	if contentType == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear content type: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create meta dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("write content type: %w", err)
	}
	return nil
}

// metaPath expects container and key already validated by objectPath.
func (s *LocalStorage) metaPath(container, key string) string {
	return filepath.Join(s.baseDir, container, metaDir, key)
}

func (s *LocalStorage) ObjectURL(container, key string) string {
	return objectURL(s.publicBase, container, key)
}

func (s *LocalStorage) containerDir(container string) (string, error) {
	if !validSegment(container) {
		return "", fmt.Errorf("invalid container name %q", container)
	}
	return filepath.Join(s.baseDir, container), nil
}

func (s *LocalStorage) objectPath(container, key string) (string, error) {
	dir, err := s.containerDir(container)
	if err != nil {
		return "", err
	}
	if !validSegment(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(dir, key), nil
}

// validSegment rejects empty names, separators and traversal.
func validSegment(name string) bool {
	return name != "" && name != "." && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

var _ Storage = (*LocalStorage)(nil)
