// ABOUTME: Filesystem upload store
// ABOUTME: Writes photos under a root directory with a content-type sidecar

package uploads

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore writes uploads below root
type FSStore struct {
	root string
}

// NewFSStore creates root if needed
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Driver() Driver { return DriverFilesystem }

func (s *FSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if err := os.WriteFile(dataPath+".type", []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("write upload type: %w", err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	contentType, _ := os.ReadFile(dataPath + ".type")
	return data, string(contentType), nil
}

func (s *FSStore) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
