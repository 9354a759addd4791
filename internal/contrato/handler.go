package contrato

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/cliente"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/historico"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrDatas           = errors.New("Start date must be before closure date!")
	ErrSemDocumentos   = errors.New("Select at least one required document")
	ErrDocumentoIgnora = errors.New("required_documents must be empty when requires_document is no")
	ErrOfertaEscolhida = errors.New("An offer was already selected for this invoice")
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Ofertas    *oferta.Repository
	Faturas    fatura.Repository
	Clientes   cliente.Repository
	Eventos    notificacao.Publisher
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, eventos notificacao.Publisher, log *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Ofertas:    oferta.NewRepository(db),
		Faturas:    fatura.NewRepository(),
		Clientes:   cliente.NewRepository(),
		Eventos:    eventos,
		Log:        log,
	}
}

type criarContratoRequest struct {
	ClientID          uint     `json:"client_id" validate:"required"`
	OfferID           uint     `json:"offer_id" validate:"required"`
	Status            string   `json:"status" validate:"omitempty,oneof=pending active"`
	StartDate         string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	ClosureDate       string   `json:"closure_date" validate:"required,datetime=2006-01-02"`
	RequiresDocument  string   `json:"requires_document" validate:"required,oneof=yes no"`
	RequiredDocuments []string `json:"required_documents" validate:"dive,oneof=id_card_front id_card_back bank_receipt last_service_invoice lease_agreement bank_account_certificate"`
	Note              string   `json:"note"`
}

// periodo valida a ordem das datas e a lista de documentos.
func (req criarContratoRequest) periodo() (inicio, fim time.Time, err error) {
	inicio, _ = time.Parse(LayoutData, req.StartDate)
	fim, _ = time.Parse(LayoutData, req.ClosureDate)
	if !inicio.Before(fim) {
		return inicio, fim, ErrDatas
	}
	switch {
	case req.RequiresDocument == "yes" && len(req.RequiredDocuments) == 0:
		return inicio, fim, ErrSemDocumentos
	case req.RequiresDocument == "no" && len(req.RequiredDocuments) > 0:
		return inicio, fim, ErrDocumentoIgnora
	}
	return inicio, fim, nil
}

// POST /api/group/contracts
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var req criarContratoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}
	inicio, fim, err := req.periodo()
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.Ofertas.FindByID(req.OfferID)
	if err != nil || o.GroupID != id.GroupID {
		utils.RespondMessage(w, http.StatusNotFound, "Offer not found")
		return
	}
	f, err := h.Faturas.BuscarPorID(h.DB, o.InvoiceID)
	if err != nil || f.GroupID != id.GroupID {
		utils.RespondMessage(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if f.IsOfferSelected {
		utils.RespondMessage(w, http.StatusConflict, ErrOfertaEscolhida.Error())
		return
	}
	cl, err := h.Clientes.BuscarPorID(h.DB, req.ClientID)
	if err != nil || cl.GroupID != id.GroupID {
		utils.RespondMessage(w, http.StatusNotFound, "Client not found")
		return
	}

	c := Contrato{
		ClientID:          cl.ID,
		OfferID:           o.ID,
		InvoiceID:         o.InvoiceID,
		UserID:            id.UserID,
		GroupID:           id.GroupID,
		Status:            DerivarStatus(req.RequiresDocument),
		StartDate:         inicio,
		ClosureDate:       fim,
		RequiresDocument:  req.RequiresDocument,
		RequiredDocuments: req.RequiredDocuments,
		Note:              req.Note,
	}
	if req.Status != "" && req.Status != c.Status {
		h.Log.Warn("status divergente ignorado",
			zap.String("recebido", req.Status), zap.String("derivado", c.Status))
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Criar(tx, &c); err != nil {
			return err
		}
		return historico.RegistrarSistema(tx, c.InvoiceID,
			fmt.Sprintf("Contract created for %s (%s)", cl.Nome, c.Status))
	})
	if err != nil {
		h.Log.Error("erro ao salvar contrato", zap.Uint("offer_id", o.ID), zap.Error(err))
		utils.RespondMessage(w, http.StatusInternalServerError, "Erro ao salvar contrato")
		return
	}

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:      notificacao.EventoContratoCriado,
		InvoiceID: c.InvoiceID,
		UserID:    c.UserID,
		GroupID:   c.GroupID,
		Dados:     map[string]any{"contract_id": c.ID, "status": c.Status},
	})
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"contract": c,
		"message":  "Contract created successfully",
	})
}

// GET /api/{role}/contracts
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	list, err := h.Repository.Listar(h.DB, id)
	if err != nil {
		http.Error(w, "Erro ao listar contratos", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"contracts": list})
}

// PUT /api/group/contracts/{id}/status
// Usado quando o cliente entrega os documentos e o contrato é ativado.
func (h *Handler) AtualizarStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	cid, err := utils.ParseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status" validate:"required,oneof=pending active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(body); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	c, err := h.Repository.BuscarPorID(h.DB, cid)
	if err != nil || c.GroupID != id.GroupID {
		utils.RespondMessage(w, http.StatusNotFound, "Contract not found")
		return
	}
	if err := h.Repository.AtualizarStatus(h.DB, c.ID, body.Status); err != nil {
		http.Error(w, "Erro ao atualizar contrato", http.StatusInternalServerError)
		return
	}
	c.Status = body.Status
	utils.RespondJSON(w, http.StatusOK, map[string]any{"contract": c})
}
