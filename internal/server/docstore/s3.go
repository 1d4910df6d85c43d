// Package docstore хранит содержимое документов сотрудников в
// S3-совместимом объектном хранилище. В БД остаются только метаданные
// и ключ объекта.
package docstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/peopledesk/hrms/internal/server/config"
)

// Срок действия presigned ссылок на скачивание
const presignTTL = 15 * time.Minute

// Store provides document blob storage backed by S3
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New creates an S3 document store. A non-empty endpoint switches the
// client to path-style addressing (MinIO and friends).
func New(ctx context.Context, cfg config.S3) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// RandomKey возвращает ключ объекта, партиционированный по дате загрузки
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("documents/%d/%d/%d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Put загружает содержимое документа по ключу
func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

// PresignGet возвращает временную ссылку на скачивание документа и ее TTL
func (s *Store) PresignGet(ctx context.Context, key string) (string, time.Duration, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign get: %w", err)
	}

	return req.URL, presignTTL, nil
}
