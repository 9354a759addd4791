package portal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/exportacao"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxocontrato"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Card é a oferta como aparece na tela: o objeto original e os campos visíveis.
type Card struct {
	Oferta map[string]any   `json:"offer"`
	Campos []exportacao.Par `json:"fields"`
}

func comCards(ofertas []map[string]any) []Card {
	out := make([]Card, 0, len(ofertas))
	for _, o := range ofertas {
		out = append(out, Card{Oferta: o, Campos: exportacao.CamposVisiveis(o)})
	}
	return out
}

// GET /{role}/invoices
func (s *Servidor) ListarFaturas(w http.ResponseWriter, r *http.Request) {
	cli, ses := s.backendDe(r)
	faturas, err := cli.Faturas(r.Context(), auth.Segmento(ses.Role))
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"invoices": faturas})
}

// GET /{role}/invoices/{id}/offers
func (s *Servidor) ListarOfertas(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := utils.ParseID(r, "id")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	cli, ses := s.backendDe(r)
	seg := auth.Segmento(ses.Role)

	fatura, err := cli.Fatura(r.Context(), seg, invoiceID)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	ofertas, err := cli.ListarOfertas(r.Context(), seg, invoiceID)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"invoice_id":           invoiceID,
		"offers":               comCards(ofertas),
		"can_create_agreement": ses.Role == auth.RoleGroupAdmin && fluxocontrato.PodeCriar(fatura),
	})
}

// GET /{role}/invoices/{id}/offers/export/{formato}
func (s *Servidor) ExportarOfertas(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := utils.ParseID(r, "id")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	cli, ses := s.backendDe(r)
	ofertas, err := cli.ListarOfertas(r.Context(), auth.Segmento(ses.Role), invoiceID)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}

	formato := exportacao.Formato(mux.Vars(r)["formato"])
	arq, err := exportacao.Gerar(formato, nomeArquivo(invoiceID), tituloOfertas(invoiceID), ofertas, s.Agora())
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", arq.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, arq.Nome))
	w.Header().Set("Content-Length", strconv.Itoa(len(arq.Dados)))
	if arq.Paginas > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(arq.Paginas))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(arq.Dados)
}

func nomeArquivo(invoiceID uint) string {
	return fmt.Sprintf("offers-invoice-%d", invoiceID)
}

func tituloOfertas(invoiceID uint) string {
	return fmt.Sprintf("Offers for invoice #%d", invoiceID)
}

type enviarWhatsappRequest struct {
	Number  string `json:"number" validate:"required"`
	Caption string `json:"caption"`
}

// POST /{role}/invoices/{id}/offers/whatsapp
// Gera o PDF das ofertas e envia pela sessão de WhatsApp do usuário.
func (s *Servidor) EnviarOfertasWhatsapp(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := utils.ParseID(r, "id")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var req enviarWhatsappRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	cli, ses := s.backendDe(r)
	ofertas, err := cli.ListarOfertas(r.Context(), auth.Segmento(ses.Role), invoiceID)
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	arq, err := exportacao.Gerar(exportacao.FormatoPDF, nomeArquivo(invoiceID), tituloOfertas(invoiceID), ofertas, s.Agora())
	if err != nil {
		s.responderErro(w, r, err)
		return
	}

	legenda := req.Caption
	if legenda == "" {
		legenda = tituloOfertas(invoiceID)
	}
	if err := s.remetente.EnviarPDF(r.Context(), whatsapp.NomeSessao(ses.Email), req.Number, legenda, arq.Nome, arq.Dados); err != nil {
		s.responderErro(w, r, err)
		return
	}
	s.log.Info("ofertas enviadas por whatsapp",
		zap.Uint("invoice_id", invoiceID),
		zap.Uint("user_id", ses.UserID),
		zap.Int("paginas", arq.Paginas),
	)
	utils.RespondJSON(w, http.StatusOK, map[string]any{"message": "Offers sent via WhatsApp", "pages": arq.Paginas})
}

// PUT /{role}/offers/{id}/select
func (s *Servidor) SelecionarOferta(w http.ResponseWriter, r *http.Request) {
	offerID, err := utils.ParseID(r, "id")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	cli, ses := s.backendDe(r)
	if err := cli.SelecionarOferta(r.Context(), auth.Segmento(ses.Role), offerID); err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Offer selected")
}
