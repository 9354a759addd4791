package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess = sessao.Sessao{Token: "tok-1", Role: "agent", UserID: 3, GroupID: 1}

func TestMensagemDeErro(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Invoice not found","error":"x"}`, "Invoice not found"},
		{"error", `{"error":"No active plan"}`, "No active plan"},
		{"texto puro", "Erro ao salvar fatura\n", "Erro ao salvar fatura"},
		{"json sem mensagem", `{"foo":1}`, "Request failed with status 500"},
		{"vazio", "", "Request failed with status 500"},
		{"html", "<html>502</html>", "Request failed with status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MensagemDeErro(500, []byte(tt.body)))
		})
	}
}

func TestDo_BearerEResposta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/api/agent/invoices", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"invoice":42,"message":"ok"}`))
	}))
	defer srv.Close()

	c := Novo(srv.URL+"/", srv.Client(), sessao.NovaMemoria(sess))
	id, err := c.CriarFatura(context.Background(), "agent", map[string]any{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestDo_401CentralizadoUmaVezPorResposta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Token inválido", http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := sessao.NovaMemoria(sess)
	var destinos []string
	c := Novo(srv.URL, srv.Client(), store, ComRedirecionamento(func(d string) { destinos = append(destinos, d) }))

	_, err := c.Faturas(context.Background(), "agent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNaoAutorizado)
	assert.Equal(t, "Token inválido", err.Error())
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, []string{RotaLogin}, destinos)

	_, ok := store.Carregar()
	assert.False(t, ok, "a sessão é limpa no 401")

	_, err = c.Clientes(context.Background(), "agent")
	require.Error(t, err)
	assert.Len(t, destinos, 2, "cada resposta 401 dispara um redirecionamento")
}

func TestDo_ErroNaoAutorizaNaoLimpaSessao(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Start date must be before closure date!"}`))
	}))
	defer srv.Close()

	store := sessao.NovaMemoria(sess)
	chamado := false
	c := Novo(srv.URL, srv.Client(), store, ComRedirecionamento(func(string) { chamado = true }))

	_, err := c.CriarContrato(context.Background(), map[string]any{})
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "Start date must be before closure date!", he.Message)
	assert.False(t, chamado)
	_, ok := store.Carregar()
	assert.True(t, ok)
}

func TestPlanoAtivo(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		erro   string
	}{
		{"ativo", 200, `{"plan":{"name":"pro"}}`, ""},
		{"402", 402, `{"error":"No active plan. Please purchase a plan to submit invoices."}`, "No active plan. Please purchase a plan to submit invoices."},
		{"200 com error", 200, `{"error":"expired"}`, "expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := Novo(srv.URL, srv.Client(), sessao.NovaMemoria(sess)).PlanoAtivo(context.Background())
			if tt.erro == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.erro)
		})
	}
}

func TestFalhaDeServidor(t *testing.T) {
	assert.False(t, FalhaDeServidor(&HTTPError{Status: 422}))
	assert.True(t, FalhaDeServidor(&HTTPError{Status: 503}))
	assert.True(t, FalhaDeServidor(&HTTPError{Status: 429}))
	assert.True(t, FalhaDeServidor(errors.New("connection refused")))
	assert.False(t, FalhaDeServidor(context.Canceled))
}

func TestErroDeServico_401NaoExpiraSessao(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	he := ErroDeServico("ocr", resp)

	assert.Equal(t, "ocr", he.Servico)
	assert.Equal(t, "invalid api key", he.Message)
	assert.NotErrorIs(t, he, ErrNaoAutorizado)
	assert.NotErrorIs(t, &HTTPError{Status: http.StatusUnauthorized}, ErrNaoAutorizado)
}
