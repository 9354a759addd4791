package oferta

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/historico"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Faturas é o que este pacote precisa saber sobre as faturas.
type Faturas interface {
	Dono(db *gorm.DB, invoiceID uint) (userID, groupID uint, err error)
	MarcarOfertaSelecionada(db *gorm.DB, invoiceID uint) error
}

type Handler struct {
	Repo    *Repository
	Faturas Faturas
	Eventos notificacao.Publisher
	Log     *zap.Logger
}

func NewHandler(repo *Repository, faturas Faturas, eventos notificacao.Publisher, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Faturas: faturas, Eventos: eventos, Log: log}
}

type criarOfertasRequest struct {
	Offers    []map[string]any `json:"offers"`
	InvoiceID uint             `json:"invoice_id"`
	GroupID   uint             `json:"group_id"`
}

type ofertasResponse struct {
	Offers []Oferta `json:"offers"`
}

// verificarFatura confere se a fatura existe e é visível para a identidade.
func (h *Handler) verificarFatura(w http.ResponseWriter, id auth.Identidade, invoiceID uint) (groupID uint, ok bool) {
	userID, groupID, err := h.Faturas.Dono(h.Repo.DB, invoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondMessage(w, http.StatusNotFound, "Invoice not found")
		return 0, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar fatura", http.StatusInternalServerError)
		return 0, false
	}
	if !auth.PodeVer(id, userID, groupID) {
		utils.RespondMessage(w, http.StatusForbidden, "acesso negado")
		return 0, false
	}
	return groupID, true
}

// POST /api/member/offers
func (h *Handler) CreateOfertas(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var body criarOfertasRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "JSON mal formado")
		return
	}
	if body.InvoiceID == 0 {
		utils.RespondMessage(w, http.StatusBadRequest, "invoice_id is required")
		return
	}

	groupID, ok := h.verificarFatura(w, id, body.InvoiceID)
	if !ok {
		return
	}

	ofertas := make([]Oferta, 0, len(body.Offers))
	for _, m := range body.Offers {
		o := DeMapa(m)
		o.InvoiceID = body.InvoiceID
		o.UserID = id.UserID
		o.GroupID = groupID
		ofertas = append(ofertas, o)
	}

	err := h.Repo.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Repo.WithTx(tx).CreateMany(ofertas); err != nil {
			return err
		}
		return historico.RegistrarSistema(tx, body.InvoiceID, fmt.Sprintf("%d offers generated", len(ofertas)))
	})
	if err != nil {
		h.Log.Error("erro ao inserir ofertas", zap.Uint("invoice_id", body.InvoiceID), zap.Error(err))
		utils.RespondMessage(w, http.StatusInternalServerError, "Erro ao inserir ofertas")
		return
	}

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:      notificacao.EventoOfertasCriadas,
		InvoiceID: body.InvoiceID,
		UserID:    id.UserID,
		GroupID:   groupID,
		Dados:     map[string]any{"total": len(ofertas)},
	})
	utils.RespondJSON(w, http.StatusCreated, ofertasResponse{Offers: ofertas})
}

// POST /api/{role}/invoice/offers
func (h *Handler) ListOfertas(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var body struct {
		InvoiceID uint `json:"invoice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.InvoiceID == 0 {
		utils.RespondMessage(w, http.StatusBadRequest, "invoice_id is required")
		return
	}
	if _, ok := h.verificarFatura(w, id, body.InvoiceID); !ok {
		return
	}

	ofertas, err := h.Repo.FindByInvoice(body.InvoiceID)
	if err != nil {
		utils.RespondMessage(w, http.StatusInternalServerError, "Erro ao buscar ofertas")
		return
	}
	utils.RespondJSON(w, http.StatusOK, ofertasResponse{Offers: ofertas})
}

// PUT /api/{role}/offers/{id}/select
func (h *Handler) SelectOferta(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	oid, err := utils.ParseID(r, "id")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "ID de oferta inválido")
		return
	}
	o, err := h.Repo.FindByID(oid)
	if err != nil {
		utils.RespondMessage(w, http.StatusNotFound, "Offer not found")
		return
	}
	if _, ok := h.verificarFatura(w, id, o.InvoiceID); !ok {
		return
	}

	err = h.Repo.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Repo.WithTx(tx).MarkSelected(o.ID); err != nil {
			return err
		}
		if err := h.Faturas.MarcarOfertaSelecionada(tx, o.InvoiceID); err != nil {
			return err
		}
		return historico.RegistrarSistema(tx, o.InvoiceID,
			fmt.Sprintf("Offer selected: %s %s", o.ProviderName, o.ProductName))
	})
	if err != nil {
		utils.RespondMessage(w, http.StatusInternalServerError, "Erro ao selecionar oferta")
		return
	}
	o.IsSelected = true

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:      notificacao.EventoOfertaEscolhida,
		InvoiceID: o.InvoiceID,
		UserID:    id.UserID,
		GroupID:   o.GroupID,
		Dados:     map[string]any{"offer_id": o.ID},
	})
	utils.RespondJSON(w, http.StatusOK, map[string]any{"offer": o, "message": "Offer selected"})
}
