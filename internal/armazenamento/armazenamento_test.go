package armazenamento

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocal_UploadDownloadDelete(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, size, err := s.Upload(ctx, "fatura.pdf", "application/pdf", strings.NewReader("%PDF-1.4 conteudo"))
	require.NoError(t, err)
	assert.Equal(t, int64(17), size)
	assert.Equal(t, ".pdf", filepath.Ext(path))

	rc, err := s.Download(ctx, path)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4 conteudo", string(b))

	require.NoError(t, s.Delete(ctx, path))
	require.NoError(t, s.Delete(ctx, path))

	_, err = s.Download(ctx, path)
	assert.ErrorContains(t, err, "não encontrado")
}

func TestNew_ModoInvalido(t *testing.T) {
	_, err := New(context.Background(), &config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "não suportado")

	_, err = New(context.Background(), &config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNomeObjeto_Unico(t *testing.T) {
	a, b := nomeObjeto("x.png"), nomeObjeto("x.png")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".png"))
}
