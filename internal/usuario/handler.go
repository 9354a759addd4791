package usuario

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Sessoes    *auth.Sessoes
	Eventos    notificacao.Publisher
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, sessoes *auth.Sessoes, eventos notificacao.Publisher, log *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Sessoes:    sessoes,
		Eventos:    eventos,
		Log:        log,
	}
}

func identidade(u *Usuario) auth.Identidade {
	return auth.Identidade{UserID: u.ID, Role: u.Role, GroupID: u.GroupID, Email: u.Email}
}

// POST /auth/login
// Valida email/senha, emite access token RS256 e seta o refresh token em cookie httpOnly.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	user, err := h.Repository.FindByEmail(h.DB, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		http.Error(w, "credenciais inválidas", http.StatusUnauthorized)
		return
	}
	if !utils.VerificarSenha(user.Senha, req.Password) {
		http.Error(w, "credenciais inválidas", http.StatusUnauthorized)
		return
	}

	resp, err := h.Sessoes.IssueTokensOnLogin(w, identidade(user))
	if err != nil {
		h.Log.Error("erro ao gerar tokens", zap.Uint("user_id", user.ID), zap.Error(err))
		http.Error(w, "erro ao gerar tokens", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// POST /auth/register
// Cria um group_admin dono de um grupo novo (o id do grupo é o id do próprio usuário).
func (h *Handler) Registrar(w http.ResponseWriter, r *http.Request) {
	var req CreateUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	req.Role = auth.RoleGroupAdmin

	u, ok := h.novoUsuario(w, req, 0)
	if !ok {
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.Save(tx, u); err != nil {
			return err
		}
		u.GroupID = u.ID
		return h.Repository.Save(tx, u)
	})
	if err != nil {
		http.Error(w, "erro ao salvar usuário", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, u)
}

// POST /api/group/users
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.IdentidadeDe(r.Context())

	var req CreateUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleAgent
	}
	var temporaria string
	if req.Senha == "" {
		s, err := utils.GerarSenhaTemporaria()
		if err != nil {
			http.Error(w, "erro ao gerar senha", http.StatusInternalServerError)
			return
		}
		req.Senha, temporaria = s, s
	}

	u, ok := h.novoUsuario(w, req, admin.GroupID)
	if !ok {
		return
	}
	u.PrecisaRedefinirSenha = temporaria != ""
	if err := h.Repository.Save(h.DB, u); err != nil {
		http.Error(w, "erro ao salvar usuário", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, UsuarioCriadoResponse{Usuario: u, SenhaTemporaria: temporaria})
}

func (h *Handler) novoUsuario(w http.ResponseWriter, req CreateUsuarioRequest, groupID uint) (*Usuario, bool) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return nil, false
	}
	if _, err := h.Repository.FindByEmail(h.DB, req.Email); err == nil {
		utils.RespondMessage(w, http.StatusConflict, "email já cadastrado")
		return nil, false
	}

	hash, err := utils.HashSenha(req.Senha)
	if err != nil {
		http.Error(w, "erro ao processar senha", http.StatusInternalServerError)
		return nil, false
	}
	return &Usuario{
		Nome:      req.Nome,
		Sobrenome: req.Sobrenome,
		Email:     req.Email,
		Telefone:  req.Telefone,
		Senha:     hash,
		Role:      req.Role,
		GroupID:   groupID,
	}, true
}

// GET /api/group/users
func (h *Handler) ListarGrupo(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	list, err := h.Repository.ListByGroup(h.DB, id.GroupID)
	if err != nil {
		http.Error(w, "erro ao listar usuários", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

// GET /api/{role}/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	u, err := h.Repository.FindByID(h.DB, id.UserID)
	if err != nil {
		http.Error(w, "usuário não encontrado", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

// PUT /api/{role}/me
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var req UpdateUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Update(h.DB, id.UserID, &req); err != nil {
		http.Error(w, "erro ao atualizar usuário", http.StatusInternalServerError)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "usuário atualizado com sucesso")
}

// POST /api/{role}/whatsapp/link
func (h *Handler) VincularWhatsapp(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())

	var req VinculoWhatsappRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondValidationError(w, err)
		return
	}
	if err := h.Repository.LinkWhatsapp(h.DB, id.UserID, req.Session, req.Number); err != nil {
		http.Error(w, "erro ao vincular WhatsApp", http.StatusInternalServerError)
		return
	}

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:    notificacao.EventoWhatsappVinculo,
		UserID:  id.UserID,
		GroupID: id.GroupID,
		Dados:   map[string]any{"session": req.Session},
	})
	utils.RespondMessage(w, http.StatusOK, "WhatsApp linked")
}

// POST /api/{role}/whatsapp/unlink
func (h *Handler) DesvincularWhatsapp(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	if err := h.Repository.UnlinkWhatsapp(h.DB, id.UserID); err != nil {
		http.Error(w, "erro ao desvincular WhatsApp", http.StatusInternalServerError)
		return
	}

	notificacao.Disparar(h.Eventos, h.Log, notificacao.Evento{
		Tipo:    notificacao.EventoWhatsappDesfeito,
		UserID:  id.UserID,
		GroupID: id.GroupID,
	})
	utils.RespondMessage(w, http.StatusOK, "WhatsApp unlinked")
}
