package contrato

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/cliente"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/historico"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"github.com/KromaEnergia/portal-ofertas/internal/utils/db/dbtest"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var groupAdmin = auth.Identidade{UserID: 1, Role: auth.RoleGroupAdmin, GroupID: 1}

type ambiente struct {
	h       *Handler
	oferta  oferta.Oferta
	cliente cliente.Cliente
}

func novoAmbiente(t *testing.T) ambiente {
	t.Helper()
	db := dbtest.Novo(t, &Contrato{}, &fatura.Fatura{}, &oferta.Oferta{}, &cliente.Cliente{}, &historico.Entrada{})

	require.NoError(t, db.Create(&fatura.Fatura{ID: 5, UserID: 2, GroupID: 1}).Error)
	o := oferta.Oferta{InvoiceID: 5, UserID: 2, GroupID: 1, ProviderName: "Acme"}
	require.NoError(t, db.Create(&o).Error)
	cl := cliente.Cliente{Nome: "Maria", UserID: 2, GroupID: 1}
	require.NoError(t, db.Create(&cl).Error)

	return ambiente{h: NewHandler(db, notificacao.Nop{}, zap.NewNop()), oferta: o, cliente: cl}
}

func (a ambiente) criar(body map[string]any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(http.MethodPost, "/api/group/contracts", bytes.NewReader(b))
	r = r.WithContext(auth.ComIdentidade(r.Context(), groupAdmin))
	w := httptest.NewRecorder()
	a.h.Criar(w, r)
	return w
}

func (a ambiente) corpo(extra map[string]any) map[string]any {
	m := map[string]any{
		"client_id":         a.cliente.ID,
		"offer_id":          a.oferta.ID,
		"start_date":        "2024-05-01",
		"closure_date":      "2025-05-01",
		"requires_document": "no",
		"note":              "assinado no escritório",
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestCriar_StatusDerivado(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]any
		want  string
	}{
		{"sem documentos fica ativo", nil, StatusActive},
		{"com documentos fica pendente", map[string]any{
			"requires_document":  "yes",
			"required_documents": []string{DocIDCardFront, DocBankReceipt},
			"status":             "active",
		}, StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := novoAmbiente(t)
			w := a.criar(a.corpo(tt.extra))
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			var resp struct {
				Contract Contrato `json:"contract"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Contract.Status)
			assert.Equal(t, uint(5), resp.Contract.InvoiceID)

			hist, err := historico.NewRepository().ListarPorFatura(a.h.DB, 5)
			require.NoError(t, err)
			require.Len(t, hist, 1)
			assert.Contains(t, hist[0].Texto, "Maria")
		})
	}
}

func TestCriar_Rejeicoes(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]any
		want  int
		msg   string
	}{
		{"datas invertidas", map[string]any{"start_date": "2024-05-10", "closure_date": "2024-05-01"},
			http.StatusBadRequest, "Start date must be before closure date!"},
		{"datas iguais", map[string]any{"closure_date": "2024-05-01"},
			http.StatusBadRequest, "Start date must be before closure date!"},
		{"yes sem documentos", map[string]any{"requires_document": "yes"},
			http.StatusBadRequest, "Select at least one required document"},
		{"documento fora do vocabulário", map[string]any{"requires_document": "yes", "required_documents": []string{"passport"}},
			http.StatusBadRequest, "must be one of"},
		{"requires_document inválido", map[string]any{"requires_document": "maybe"},
			http.StatusBadRequest, "requires_document must be one of"},
		{"data mal formada", map[string]any{"start_date": "01/05/2024"},
			http.StatusBadRequest, "start_date is invalid"},
		{"oferta inexistente", map[string]any{"offer_id": 999}, http.StatusNotFound, "Offer not found"},
		{"cliente inexistente", map[string]any{"client_id": 999}, http.StatusNotFound, "Client not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := novoAmbiente(t)
			w := a.criar(a.corpo(tt.extra))
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)

			var n int64
			a.h.DB.Model(&Contrato{}).Count(&n)
			assert.Zero(t, n)
		})
	}
}

func TestCriar_FaturaComOfertaEscolhida(t *testing.T) {
	a := novoAmbiente(t)
	require.NoError(t, fatura.NewRepository().MarcarOfertaSelecionada(a.h.DB, 5))

	w := a.criar(a.corpo(nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already selected")
	var n int64
	a.h.DB.Model(&Contrato{}).Count(&n)
	assert.Zero(t, n)
}

func TestListarEAtualizarStatus(t *testing.T) {
	a := novoAmbiente(t)
	w := a.criar(a.corpo(map[string]any{"requires_document": "yes", "required_documents": []string{DocLeaseAgreement}}))
	require.Equal(t, http.StatusCreated, w.Code)

	r := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"status":"active"}`))
	r = r.WithContext(auth.ComIdentidade(r.Context(), groupAdmin))
	r = mux.SetURLVars(r, map[string]string{"id": strconv.Itoa(1)})
	w = httptest.NewRecorder()
	a.h.AtualizarStatus(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	agente := auth.Identidade{UserID: 2, Role: auth.RoleAgent, GroupID: 1}
	r = httptest.NewRequest(http.MethodGet, "/api/agent/contracts", nil)
	r = r.WithContext(auth.ComIdentidade(r.Context(), agente))
	w = httptest.NewRecorder()
	a.h.Listar(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Contracts []Contrato `json:"contracts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Contracts, "o agente só vê contratos criados por ele")

	r = httptest.NewRequest(http.MethodGet, "/api/group/contracts", nil)
	r = r.WithContext(auth.ComIdentidade(r.Context(), groupAdmin))
	w = httptest.NewRecorder()
	a.h.Listar(w, r)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Contracts, 1)
	assert.Equal(t, StatusActive, resp.Contracts[0].Status)
	assert.Equal(t, []string{DocLeaseAgreement}, resp.Contracts[0].RequiredDocuments)
}

func TestDerivarStatus(t *testing.T) {
	assert.Equal(t, StatusPending, DerivarStatus("yes"))
	assert.Equal(t, StatusActive, DerivarStatus("no"))
	assert.True(t, DocumentoValido(DocBankAccountCertificate))
	assert.False(t, DocumentoValido("passport"))
}
