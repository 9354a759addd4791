package portal

import (
	"encoding/json"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxocontrato"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
)

func (s *Servidor) servicoContrato(r *http.Request) *fluxocontrato.Servico {
	cli, ses := s.backendDe(r)
	return fluxocontrato.NovoServico(cli, auth.Segmento(ses.Role), s.log)
}

// POST /{role}/contracts/new
// Recebe a navegação vinda do card da oferta e devolve os dados do formulário.
func (s *Servidor) NovoContrato(w http.ResponseWriter, r *http.Request) {
	var nav fluxocontrato.Navegacao
	if err := json.NewDecoder(r.Body).Decode(&nav); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	tela, err := s.servicoContrato(r).Preparar(r.Context(), nav)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, tela)
}

// POST /{role}/contracts
func (s *Servidor) CriarContrato(w http.ResponseWriter, r *http.Request) {
	var f fluxocontrato.Formulario
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	resp, err := s.servicoContrato(r).Criar(r.Context(), f)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, resp)
}
