package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/contrato"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"github.com/KromaEnergia/portal-ofertas/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var agora = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dia(s string) time.Time {
	t, _ := time.Parse(contrato.LayoutData, s)
	return t
}

func TestMontarResumo(t *testing.T) {
	faturas := []fatura.Fatura{{IsOfferSelected: true}, {}}
	ofertas := []oferta.Oferta{
		{Saving: 10, SalesCommission: 2, IsSelected: true},
		{Saving: 20, SalesCommission: 4},
		{Saving: 15, SalesCommission: 3.5, IsSelected: true},
	}
	contratos := []contrato.Contrato{
		{Status: contrato.StatusActive, StartDate: dia("2024-01-01"), ClosureDate: dia("2025-01-01")},
		{Status: contrato.StatusPending, StartDate: dia("2024-07-01"), ClosureDate: dia("2025-07-01")},
		{Status: contrato.StatusActive, StartDate: dia("2023-01-01"), ClosureDate: dia("2024-01-01")},
	}

	r := MontarResumo(faturas, ofertas, contratos, agora)
	assert.Equal(t, ResumoDTO{
		Faturas:              2,
		FaturasComEscolha:    1,
		Ofertas:              3,
		OfertasEscolhidas:    2,
		Contratos:            3,
		ContratosAtivos:      2,
		ContratosPendentes:   1,
		ContratosVigentes:    1,
		EconomiaMedia:        15,
		ComissaoMediaEscolha: 2.75,
	}, r)
}

func TestMontarResumo_Vazio(t *testing.T) {
	assert.Equal(t, ResumoDTO{}, MontarResumo(nil, nil, nil, agora))
}

func TestHandlerResumo_Escopo(t *testing.T) {
	db := dbtest.Novo(t, &fatura.Fatura{}, &oferta.Oferta{}, &contrato.Contrato{})
	require.NoError(t, db.Create(&[]fatura.Fatura{
		{UserID: 1, GroupID: 1},
		{UserID: 2, GroupID: 1, IsOfferSelected: true},
		{UserID: 3, GroupID: 9},
	}).Error)
	require.NoError(t, db.Create(&[]oferta.Oferta{
		{InvoiceID: 2, UserID: 2, GroupID: 1, Saving: 8, IsSelected: true},
	}).Error)

	h := NewHandler(db, zap.NewNop())
	h.Agora = func() time.Time { return agora }

	tests := []struct {
		name    string
		id      auth.Identidade
		faturas int
		ofertas int
	}{
		{"agente", auth.Identidade{UserID: 1, Role: auth.RoleAgent, GroupID: 1}, 1, 0},
		{"supervisor", auth.Identidade{UserID: 5, Role: auth.RoleSupervisor, GroupID: 1}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/x/dashboard", nil)
			r = r.WithContext(auth.ComIdentidade(r.Context(), tt.id))
			w := httptest.NewRecorder()
			h.Resumo(w, r)
			require.Equal(t, http.StatusOK, w.Code)

			var got ResumoDTO
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.faturas, got.Faturas)
			assert.Equal(t, tt.ofertas, got.Ofertas)
		})
	}
}
