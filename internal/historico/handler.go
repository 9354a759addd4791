package historico

import (
	"encoding/json"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"gorm.io/gorm"
)

// DonoFatura resolve o dono de uma fatura para o controle de acesso.
type DonoFatura func(db *gorm.DB, invoiceID uint) (userID, groupID uint, err error)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Dono       DonoFatura
}

func NewHandler(db *gorm.DB, dono DonoFatura) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Dono: dono}
}

// ListarPorFatura trata GET /api/{role}/invoices/{id}/history
func (h *Handler) ListarPorFatura(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := utils.ParseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, _ := auth.IdentidadeDe(r.Context())
	userID, groupID, err := h.Dono(h.DB, invoiceID)
	if err != nil {
		http.Error(w, "Fatura não encontrada", http.StatusNotFound)
		return
	}
	if !auth.PodeVer(id, userID, groupID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}

	list, err := h.Repository.ListarPorFatura(h.DB, invoiceID)
	if err != nil {
		http.Error(w, "Erro ao listar histórico", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTOs(list))
}
