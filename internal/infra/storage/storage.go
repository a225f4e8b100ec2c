package storage

import (
	"context"
	"fmt"

	"app/internal/config"
)

// 生成ファイルを保存してURLを返す約束。
// URLの形（ローカルパス・署名付きURLなど）は呼び出し側は気にしない。
type Storage interface {
	SaveBytes(ctx context.Context, data []byte, filename string, contentType string) (string, error)
}

// STORAGE_BACKENDに応じて実装を選ぶ
func New(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "LOCAL":
		return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL), nil
	case "S3":
		return NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3BasePath, cfg.S3PresignTTL)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
