package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3保存。PUTしたあと期限付きのGET URLを返す。
type S3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	basePath   string
	presignTTL time.Duration
}

func NewS3Storage(ctx context.Context, bucket string, region string, basePath string, presignTTL time.Duration) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     bucket,
		basePath:   strings.TrimRight(basePath, "/"),
		presignTTL: presignTTL,
	}, nil
}

func (s *S3Storage) SaveBytes(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s_%s", s.basePath, uuid.NewString(), filename)

	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	return presigned.URL, nil
}
