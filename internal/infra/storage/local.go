package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ローカルディスク保存。MEDIA_URL配下の相対URLを返す。
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir string, baseURL string) *LocalStorage {
	return &LocalStorage{
		baseDir: filepath.Join(baseDir, "files"),
		baseURL: baseURL,
	}
}

func (s *LocalStorage) SaveBytes(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", err
	}

	// 衝突しないようにUUIDを前置
	name := fmt.Sprintf("%s_%s", uuid.NewString(), filename)
	dest := filepath.Join(s.baseDir, name)

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/files/%s", s.baseURL, name), nil
}
