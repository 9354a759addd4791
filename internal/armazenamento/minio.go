package armazenamento

import (
	"context"
	"fmt"
	"io"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type Minio struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewMinio(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (*Minio, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("criar cliente minio: %w", err)
	}
	s := &Minio{client: client, bucket: cfg.MinioBucket, log: log}
	if err := s.garantirBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Minio) garantirBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("verificar bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("criar bucket: %w", err)
	}
	s.log.Info("bucket criado", zap.String("bucket", s.bucket))
	return nil
}

// Upload envia em stream; tamanho -1 deixa o cliente usar multipart.
func (s *Minio) Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, int64, error) {
	name := nomeObjeto(filename)
	info, err := s.client.PutObject(ctx, s.bucket, name, data, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", 0, fmt.Errorf("enviar objeto: %w", err)
	}
	return name, info.Size, nil
}

func (s *Minio) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, storagePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("baixar objeto: %w", err)
	}
	return obj, nil
}

func (s *Minio) Delete(ctx context.Context, storagePath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, storagePath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remover objeto: %w", err)
	}
	return nil
}
