package portal

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxofatura"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type extratorFalso struct {
	campos map[string]any
	erro   error
}

func (e extratorFalso) Extrair(context.Context, string, []byte) (map[string]any, error) {
	return e.campos, e.erro
}

type matcherFalso struct{}

func (matcherFalso) Ofertas(_ context.Context, campos map[string]any, _ uint) ([]map[string]any, error) {
	return []map[string]any{{"supplier": "Acme", "price": 0.12}}, nil
}

// backendFalso faz o papel da API interna.
type backendFalso struct {
	mu        sync.Mutex
	semSessao bool
	escolhida bool
	chamadas  []string
}

func (b *backendFalso) registrar(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chamadas = append(b.chamadas, r.Method+" "+r.URL.Path)
	return b.semSessao
}

func (b *backendFalso) lista() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.chamadas...)
}

func (b *backendFalso) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.registrar(r) {
		http.Error(w, `{"message":"Token expired"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /api/plan/info":
		_, _ = w.Write([]byte(`{"plan":{"name":"basic"}}`))
	case "POST /api/agent/invoices":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"invoice":42,"message":"Invoice created successfully"}`))
	case "POST /api/member/offers":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"offers":[{"id":1,"invoice_id":42,"supplier":"Acme","price":0.12}]}`))
	case "POST /api/agent/invoice/offers", "POST /api/group/invoice/offers":
		_, _ = w.Write([]byte(`{"offers":[{"id":1,"invoice_id":42,"supplier":"Acme","price":0.12}]}`))
	case "GET /api/agent/invoices/42", "GET /api/group/invoices/42":
		b.mu.Lock()
		escolhida := b.escolhida
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"invoice": map[string]any{"id": 42, "is_offer_selected": escolhida}})
	default:
		http.NotFound(w, r)
	}
}

type ambiente struct {
	srv     *Servidor
	router  http.Handler
	backend *backendFalso
	chaves  *auth.Chaves
}

func novoAmbiente(t *testing.T) *ambiente {
	t.Helper()
	return novoAmbienteCom(t, extratorFalso{campos: map[string]any{"provider": "Acme", "amount": "120", "id": 7.0}})
}

func novoAmbienteCom(t *testing.T, extrator fluxofatura.Extrator) *ambiente {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	chaves := auth.NovasChaves(priv, "kid-1", "api", "portal", time.Minute)

	b := &backendFalso{}
	back := httptest.NewServer(b)
	t.Cleanup(back.Close)

	cfg := &config.Config{
		Backend:  config.BackendConfig{URL: back.URL, Timeout: time.Second},
		Storage:  config.StorageConfig{MaxUploadSizeMB: 5},
		Server:   config.ServerConfig{PipelineIdle: time.Minute},
		Whatsapp: config.WhatsappConfig{PollInterval: time.Hour},
	}
	exec := resiliencia.NovoExecutor(resiliencia.Config{}, zap.NewNop())
	m := metricas.New("portal-test")
	s := NovoServidor(Dependencias{
		Config:    cfg,
		Log:       zap.NewNop(),
		Metricas:  m,
		Validador: chaves,
		Extrator:  extrator,
		Matcher:   matcherFalso{},
		Gateway:   whatsapp.NovoGateway(cfg.Whatsapp, exec, m),
	})
	t.Cleanup(s.Fechar)
	return &ambiente{srv: s, router: s.Router(), backend: b, chaves: chaves}
}

func (a *ambiente) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := a.chaves.GenerateAccessToken(auth.Identidade{UserID: 7, Role: role, GroupID: 3, Email: "ana@kroma.com"})
	require.NoError(t, err)
	return tok
}

func (a *ambiente) fazer(t *testing.T, role, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+a.token(t, role))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func multipartArquivo(t *testing.T, nome string, dados []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", nome)
	require.NoError(t, err)
	_, err = fw.Write(dados)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestFluxoCompletoDeFatura(t *testing.T) {
	a := novoAmbiente(t)

	body, ct := multipartArquivo(t, "invoice.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))
	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoice/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var up struct {
		Step   string `json:"step"`
		Fields []struct {
			Key string `json:"key"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, "verification", up.Step)
	require.Len(t, up.Fields, 3)
	assert.Equal(t, "id", up.Fields[1].Key)

	rec = a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoice/submit", jsonBody(t, map[string]any{"fields": map[string]string{}}), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sub struct {
		InvoiceID uint `json:"invoice_id"`
		Offers    []struct {
			Fields []struct {
				Key string `json:"key"`
			} `json:"fields"`
		} `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, uint(42), sub.InvoiceID)
	require.Len(t, sub.Offers, 1)
	assert.Len(t, sub.Offers[0].Fields, 2)

	rec = a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/invoice", nil, "")
	assert.Contains(t, rec.Body.String(), `"step":"offers"`)

	assert.Equal(t, []string{
		"GET /api/plan/info",
		"POST /api/agent/invoices",
		"POST /api/member/offers",
	}, a.backend.lista())
}

func TestUpload_TipoInvalido(t *testing.T) {
	a := novoAmbiente(t)
	body, ct := multipartArquivo(t, "notas.txt", []byte("texto simples"))

	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoice/upload", body, ct)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, a.backend.lista())
}

func TestSegmentoDiferenteDoPapel(t *testing.T) {
	a := novoAmbiente(t)

	rec := a.fazer(t, auth.RoleAgent, http.MethodGet, "/client/invoice", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBackend401RedirecionaEDescarta(t *testing.T) {
	a := novoAmbiente(t)
	a.backend.semSessao = true
	body, ct := multipartArquivo(t, "invoice.pdf", []byte("%PDF-1.4\n"))

	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoice/upload", body, ct)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/login"`)
	assert.Equal(t, 0, a.srv.faturas.Tamanho())
}

func TestServicoExterno401NaoRedireciona(t *testing.T) {
	a := novoAmbienteCom(t, extratorFalso{erro: &api.HTTPError{
		Status: http.StatusUnauthorized, Message: "invalid OCR api key", Servico: "ocr",
	}})
	body, ct := multipartArquivo(t, "invoice.pdf", []byte("%PDF-1.4\n"))

	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoice/upload", body, ct)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redirect")
	assert.Equal(t, 1, a.srv.faturas.Tamanho(), "o envio do usuário continua vivo")

	rec = a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/invoice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"step":"upload"`)
}

func TestExportarCSV(t *testing.T) {
	a := novoAmbiente(t)

	rec := a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/invoices/42/offers/export/csv", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "offers-invoice-42.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"id","invoice_id","price","supplier"`))
}

func TestExportarPDF_ContaPaginas(t *testing.T) {
	a := novoAmbiente(t)

	rec := a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/invoices/42/offers/export/pdf", nil, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Page-Count"))
}

func TestListarOfertas_AcordoSoParaGroupAdmin(t *testing.T) {
	a := novoAmbiente(t)

	rec := a.fazer(t, auth.RoleGroupAdmin, http.MethodGet, "/group_admin/invoices/42/offers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"can_create_agreement":true`)

	rec = a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/invoices/42/offers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_create_agreement":false`)
}

func TestContrato(t *testing.T) {
	a := novoAmbiente(t)
	form := map[string]any{
		"offer_id": 1, "invoice_id": 42, "client_id": 2, "start_date": "2026-01-01", "closure_date": "2025-01-01",
		"requires_document": "no",
	}

	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/contracts", jsonBody(t, form), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.fazer(t, auth.RoleGroupAdmin, http.MethodPost, "/group_admin/contracts", jsonBody(t, form), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start date must be before closure date!")
	assert.Empty(t, a.backend.lista())
}

func TestContrato_FaturaComOfertaEscolhida(t *testing.T) {
	a := novoAmbiente(t)
	a.backend.escolhida = true
	form := map[string]any{
		"offer_id": 1, "invoice_id": 42, "client_id": 2, "start_date": "2025-01-01", "closure_date": "2026-01-01",
		"requires_document": "no",
	}

	rec := a.fazer(t, auth.RoleGroupAdmin, http.MethodPost, "/group_admin/contracts", jsonBody(t, form), "application/json")

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "already selected")
	assert.Equal(t, []string{"GET /api/group/invoices/42"}, a.backend.lista())
}

func TestLimparOciosos_DescartaLojas(t *testing.T) {
	a := novoAmbiente(t)
	agora := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a.srv.Agora = func() time.Time { return agora }

	rec := a.fazer(t, auth.RoleAgent, http.MethodGet, "/agent/whatsapp", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.srv.lojas, 1)

	a.srv.LimparOciosos()
	assert.Len(t, a.srv.lojas, 1, "ainda dentro do tempo ocioso")

	agora = agora.Add(2 * time.Minute)
	a.srv.LimparOciosos()
	assert.Empty(t, a.srv.lojas)
}

func TestEnviarWhatsapp_SemNumero(t *testing.T) {
	a := novoAmbiente(t)

	rec := a.fazer(t, auth.RoleAgent, http.MethodPost, "/agent/invoices/42/offers/whatsapp", jsonBody(t, map[string]string{}), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "number is required")
}
