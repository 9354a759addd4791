package resiliencia

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errServico = errors.New("503")

func TestExecute_AbreCircuito(t *testing.T) {
	e := NovoExecutor(Config{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: time.Minute}, zap.NewNop())
	chamadas := 0
	fn := func(context.Context) error {
		chamadas++
		return errServico
	}

	for i := 0; i < 3; i++ {
		err := e.Execute(context.Background(), "ocr", fn, nil)
		require.ErrorIs(t, err, errServico)
	}
	assert.Equal(t, "open", e.Estado("ocr"))

	err := e.Execute(context.Background(), "ocr", fn, nil)
	assert.ErrorIs(t, err, ErrCircuitoAberto)
	assert.Equal(t, 3, chamadas, "com o circuito aberto a chamada não acontece")

	assert.Equal(t, "closed", e.Estado("matching"))
}

func TestExecute_SemRetry(t *testing.T) {
	e := NovoExecutor(Config{}, zap.NewNop())
	chamadas := 0
	err := e.Execute(context.Background(), "matching", func(context.Context) error {
		chamadas++
		return errServico
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, chamadas)
}

func TestExecute_ClassificadorIgnoraErroDoCliente(t *testing.T) {
	errValidacao := errors.New("422")
	e := NovoExecutor(Config{MinRequests: 1, FailureRatio: 0.1, OpenTimeout: time.Minute}, zap.NewNop())
	soServidor := func(err error) bool { return !errors.Is(err, errValidacao) }

	for i := 0; i < 5; i++ {
		err := e.Execute(context.Background(), "gateway", func(context.Context) error { return errValidacao }, soServidor)
		require.ErrorIs(t, err, errValidacao)
	}
	assert.Equal(t, "closed", e.Estado("gateway"))
}

func TestFalhaPadrao(t *testing.T) {
	assert.False(t, FalhaPadrao(context.Canceled))
	assert.True(t, FalhaPadrao(context.DeadlineExceeded))
}
