package armazenamento

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"
)

type Azure struct {
	client    *azblob.Client
	container string
	log       *zap.Logger
}

func NewAzure(ctx context.Context, connectionString, container string, log *zap.Logger) (*Azure, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("criar cliente blob: %w", err)
	}
	_, err = client.CreateContainer(ctx, container, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("criar container: %w", err)
	}
	log.Info("armazenamento azure pronto", zap.String("container", container))
	return &Azure{client: client, container: container, log: log}, nil
}

func (s *Azure) Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, int64, error) {
	name := nomeObjeto(filename)
	reader := &countingReader{r: data}

	_, err := s.client.UploadStream(ctx, s.container, name, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", 0, fmt.Errorf("enviar blob: %w", err)
	}
	s.log.Info("anexo enviado",
		zap.String("blob", name),
		zap.String("original", filename),
		zap.Int64("size", reader.count),
	)
	return name, reader.count, nil
}

// countingReader conta os bytes lidos pelo upload em stream.
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

func (s *Azure) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, storagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("baixar blob: %w", err)
	}
	return resp.Body, nil
}

func (s *Azure) Delete(ctx context.Context, storagePath string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, storagePath, nil)
	if err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil
		}
		return fmt.Errorf("remover blob: %w", err)
	}
	return nil
}
