package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

// FileStore keeps one JSON file per cotation under a directory per profile
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, c *StoredCotation) error {
	if err := c.prepare(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profileDir := filepath.Join(s.basePath, c.ProfileID)
	if err := os.MkdirAll(profileDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cotation: %w", err)
	}

	// write then rename so readers never see a partial file
	final := filepath.Join(profileDir, c.ID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cotation: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to commit cotation: %w", err)
	}

	logging.Debug("cotation stored",
		zap.String("id", c.ID),
		logging.Profile(c.ProfileID),
		zap.String("path", final))
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*StoredCotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// find locates the file of an ID in any profile directory
func (s *FileStore) find(id string) (string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read storage: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name(), id+".json")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.NotFound("cotation", id)
}

func readFile(path string) (*StoredCotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cotation: %w", err)
	}
	var c StoredCotation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cotation %s: %w", path, err)
	}
	return &c, nil
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*StoredCotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := s.basePath
	if filter != nil && filter.ProfileID != "" {
		root = filepath.Join(s.basePath, filter.ProfileID)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			return nil, nil
		}
	}

	var results []*StoredCotation
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		c, err := readFile(path)
		if err != nil {
			logging.Warn("skipping unreadable cotation", zap.String("path", path), zap.Error(err))
			return nil
		}
		if filter.match(c) {
			results = append(results, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filter.page(results), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *FileStore) GetLatest(ctx context.Context, profileID string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{ProfileID: profileID}, profileID)
}

func (s *FileStore) FindByFingerprint(ctx context.Context, fingerprint string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{Fingerprint: fingerprint}, fingerprint)
}

func (s *FileStore) Close() error {
	return nil
}
