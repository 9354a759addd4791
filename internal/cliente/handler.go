package cliente

import (
	"encoding/json"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

type criarClienteRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Address  string `json:"address"`
}

// POST /api/{role}/clients
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var req criarClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	c := Cliente{
		Nome:      req.Name,
		Email:     req.Email,
		Telefone:  req.Phone,
		Documento: req.Document,
		Endereco:  req.Address,
		UserID:    id.UserID,
		GroupID:   id.GroupID,
	}
	if err := h.Repository.Criar(h.DB, &c); err != nil {
		http.Error(w, "Erro ao salvar cliente", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, c)
}

// GET /api/{role}/clients
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	list, err := h.Repository.Listar(h.DB, id)
	if err != nil {
		http.Error(w, "Erro ao listar clientes", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"clients": list})
}
