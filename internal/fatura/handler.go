package fatura

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/armazenamento"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/historico"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TiposAceitos são os formatos de fatura que o OCR entende.
var TiposAceitos = []string{"image/jpeg", "image/png", "application/pdf"}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Storage    armazenamento.Storage
	Eventos    notificacao.Publisher
	Log        *zap.Logger
	MaxUpload  int64
}

func NewHandler(db *gorm.DB, storage armazenamento.Storage, eventos notificacao.Publisher, log *zap.Logger, maxUploadMB int64) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Storage:    storage,
		Eventos:    eventos,
		Log:        log,
		MaxUpload:  maxUploadMB << 20,
	}
}

type criarFaturaResponse struct {
	Invoice uint   `json:"invoice"`
	Message string `json:"message"`
}

// chaves de roteamento que não fazem parte dos campos da fatura
var chavesControle = []string{"group_id", "app_mode", "client_id", "Client_id"}

// DeCampos monta a fatura a partir do mapa verificado pelo usuário.
func DeCampos(campos map[string]any) Fatura {
	f := Fatura{
		BillType:      textoCampo(campos, "bill_type", "billType"),
		Address:       textoCampo(campos, "address", "endereco"),
		BillingPeriod: textoCampo(campos, "billing_period", "billingPeriod"),
		AppMode:       textoCampo(campos, "app_mode"),
		Fields:        make(map[string]any, len(campos)),
	}
	for _, k := range []string{"client_id", "Client_id"} {
		if id, ok := idCampo(campos[k]); ok {
			f.ClientID = &id
			break
		}
	}
	for k, v := range campos {
		f.Fields[k] = v
	}
	for _, k := range chavesControle {
		delete(f.Fields, k)
	}
	return f
}

func textoCampo(m map[string]any, chaves ...string) string {
	for _, k := range chaves {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func idCampo(v any) (uint, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// POST /api/{role}/invoices
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var campos map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&campos); err != nil || len(campos) == 0 {
		utils.RespondMessage(w, http.StatusBadRequest, "Invoice fields are required")
		return
	}

	f := DeCampos(campos)
	f.UserID = id.UserID
	f.GroupID = id.GroupID

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Salvar(tx, &f); err != nil {
			return err
		}
		return historico.RegistrarSistema(tx, f.ID, "Invoice submitted")
	})
	if err != nil {
		h.Log.Error("erro ao salvar fatura", zap.Uint("user_id", id.UserID), zap.Error(err))
		utils.RespondMessage(w, http.StatusInternalServerError, "Erro ao salvar fatura")
		return
	}

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:      notificacao.EventoFaturaCriada,
		InvoiceID: f.ID,
		UserID:    f.UserID,
		GroupID:   f.GroupID,
		Dados:     map[string]any{"bill_type": f.BillType, "app_mode": f.AppMode},
	})
	utils.RespondJSON(w, http.StatusCreated, criarFaturaResponse{Invoice: f.ID, Message: "Invoice created successfully"})
}

// GET /api/{role}/invoices
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	list, err := h.Repository.Listar(h.DB, id)
	if err != nil {
		http.Error(w, "Erro ao listar faturas", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"invoices": list})
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Fatura, bool) {
	fid, err := utils.ParseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	f, err := h.Repository.BuscarPorID(h.DB, fid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondMessage(w, http.StatusNotFound, "Invoice not found")
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar fatura", http.StatusInternalServerError)
		return nil, false
	}
	id, _ := auth.IdentidadeDe(r.Context())
	if !auth.PodeVer(id, f.UserID, f.GroupID) {
		utils.RespondMessage(w, http.StatusForbidden, "acesso negado")
		return nil, false
	}
	return f, true
}

// GET /api/{role}/invoices/{id}
func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	f, ok := h.carregar(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"invoice": f})
}

// POST /api/{role}/invoices/{id}/attachments
// Guarda o arquivo original da fatura no armazenamento configurado.
func (h *Handler) AdicionarAnexo(w http.ResponseWriter, r *http.Request) {
	f, ok := h.carregar(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.RespondMessage(w, http.StatusRequestEntityTooLarge, "Arquivo muito grande")
			return
		}
		utils.RespondMessage(w, http.StatusBadRequest, "multipart/form-data esperado")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Erro ao ler arquivo")
		return
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), TiposAceitos...) {
		utils.RespondMessage(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("Only JPEG, PNG or PDF files are accepted (got %s)", mt.String()))
		return
	}

	path, size, err := h.Storage.Upload(r.Context(), header.Filename, mt.String(), bytes.NewReader(data))
	if err != nil {
		h.Log.Error("erro ao enviar anexo", zap.Uint("invoice_id", f.ID), zap.Error(err))
		utils.RespondMessage(w, http.StatusBadGateway, "Erro ao armazenar arquivo")
		return
	}

	anexo := Anexo{
		Path:        path,
		Nome:        header.Filename,
		ContentType: mt.String(),
		Tamanho:     size,
		EnviadoEm:   time.Now(),
	}
	f.Anexos = append(f.Anexos, anexo)
	f.Ofertas = nil
	if err := h.Repository.Atualizar(h.DB, f); err != nil {
		_ = h.Storage.Delete(r.Context(), path)
		http.Error(w, "Erro ao salvar anexo", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, anexo)
}
