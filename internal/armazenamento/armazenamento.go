package armazenamento

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage guarda os arquivos originais das faturas.
type Storage interface {
	Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error)
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// New escolhe a implementação conforme STORAGE_MODE.
func New(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocal(cfg.LocalBasePath)
	case "minio":
		return NewMinio(ctx, cfg, log)
	case "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("STORAGE_CLOUD_CONNECTION_STRING é obrigatório no modo azure")
		}
		return NewAzure(ctx, cfg.CloudConnectionString, cfg.CloudContainer, log)
	default:
		return nil, fmt.Errorf("modo de armazenamento não suportado: %s", cfg.Mode)
	}
}

// nomeObjeto gera um nome único preservando a extensão original.
func nomeObjeto(filename string) string {
	id := uuid.New().String()
	return filepath.ToSlash(filepath.Join(id[:2], id[2:4], id+filepath.Ext(filename)))
}

type Local struct {
	basePath string
}

func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de armazenamento: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

func (s *Local) Upload(ctx context.Context, filename, contentType string, data io.Reader) (string, int64, error) {
	path := nomeObjeto(filename)
	full := filepath.Join(s.basePath, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("criar diretório: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("criar arquivo: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, data)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("gravar arquivo: %w", err)
	}
	return path, size, nil
}

func (s *Local) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(storagePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("arquivo não encontrado: %s", storagePath)
		}
		return nil, fmt.Errorf("abrir arquivo: %w", err)
	}
	return f, nil
}

func (s *Local) Delete(ctx context.Context, storagePath string) error {
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(storagePath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remover arquivo: %w", err)
	}
	return nil
}
