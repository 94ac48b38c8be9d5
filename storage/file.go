package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

const fileFormatVersion = 1

// fileImage is the on-disk shape. Version lets a later release migrate the
// layout without guessing.
type fileImage struct {
	Version int               `cbor:"v"`
	Entries map[string][]byte `cbor:"e"`
}

var fileEncMode cbor.EncMode

func init() {
	var err error
	// Core deterministic encoding: identical contents produce identical bytes.
	fileEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("storage: CBOR encoder initialization failed: " + err.Error())
	}
}

// FileStore persists all keys of one installation into a single file.
//
// The whole image is held in memory and rewritten through a temp file plus
// rename on every mutation, so a crash leaves either the old or the new image.
type FileStore struct {
	path string
	perm fs.FileMode

	mu   sync.RWMutex
	data map[string][]byte
}

// OpenFileStore loads path, creating an empty store when the file does not
// exist yet. The parent directory is created with 0700.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("storage: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := &FileStore{
		path: path,
		perm: 0o600,
		data: make(map[string][]byte),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var img fileImage
	if err := cbor.Unmarshal(raw, &img); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	if img.Version != fileFormatVersion {
		return nil, fmt.Errorf("storage: unsupported file format version %d", img.Version)
	}
	if img.Entries != nil {
		s.data = img.Entries
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = cloneBytes(value)
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if err := validKey(prefix); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := matchingKeys(s.data, prefix)
	if len(keys) == 0 {
		return 0, nil
	}
	removed := make(map[string][]byte, len(keys))
	for _, k := range keys {
		removed[k] = s.data[k]
		delete(s.data, k)
	}
	if err := s.flushLocked(); err != nil {
		for k, v := range removed {
			s.data[k] = v
		}
		return 0, err
	}
	return len(keys), nil
}

func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return matchingKeys(s.data, prefix), nil
}

func (s *FileStore) flushLocked() error {
	encoded, err := fileEncMode.Marshal(fileImage{
		Version: fileFormatVersion,
		Entries: s.data,
	})
	if err != nil {
		return fmt.Errorf("storage: encode image: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
