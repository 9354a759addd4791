package plano

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Agora      func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Agora: time.Now}
}

// GET /api/plan/info
// Sem plano vigente responde 402 com {"error": ...}; o portal bloqueia o envio de faturas.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	p, err := h.Repository.BuscarVigente(h.DB, id.GroupID, h.Agora())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondJSON(w, http.StatusPaymentRequired, map[string]string{
			"error": "No active plan. Please purchase a plan to submit invoices.",
		})
		return
	}
	if err != nil {
		http.Error(w, "Erro ao consultar plano", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"plan": p})
}

type ativarPlanoRequest struct {
	Name string `json:"name" validate:"required"`
	Days int    `json:"days" validate:"required,min=1"`
}

// POST /api/group/plan
// Ativação manual usada pelo group_admin após a confirmação do pagamento.
func (h *Handler) Ativar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var req ativarPlanoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	p := Plano{
		GroupID:   id.GroupID,
		Nome:      req.Name,
		Ativo:     true,
		ValidoAte: h.Agora().AddDate(0, 0, req.Days),
	}
	if err := h.Repository.Salvar(h.DB, &p); err != nil {
		http.Error(w, "Erro ao salvar plano", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{"plan": p})
}
