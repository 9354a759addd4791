package dashboard

import (
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/contrato"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Agora func() time.Time
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{DB: db, Log: log, Agora: time.Now}
}

// GET /api/{role}/dashboard
func (h *Handler) Resumo(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentidadeDe(r.Context())
	escopo := auth.Escopo(id)

	var (
		faturas   []fatura.Fatura
		ofertas   []oferta.Oferta
		contratos []contrato.Contrato
	)
	err := h.DB.Scopes(escopo).Select("id", "is_offer_selected").Find(&faturas).Error
	if err == nil {
		err = h.DB.Scopes(escopo).Select("id", "saving", "sales_commission", "is_selected").Find(&ofertas).Error
	}
	if err == nil {
		err = h.DB.Scopes(escopo).Select("id", "status", "start_date", "closure_date").Find(&contratos).Error
	}
	if err != nil {
		h.Log.Error("erro ao montar painel", zap.Uint("user_id", id.UserID), zap.Error(err))
		http.Error(w, "Erro ao montar painel", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, MontarResumo(faturas, ofertas, contratos, h.Agora()))
}
