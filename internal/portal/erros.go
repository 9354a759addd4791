package portal

import (
	"errors"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxocontrato"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxofatura"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var statusPorErro = []struct {
	erro   error
	status int
}{
	{fluxofatura.ErrTipoArquivo, http.StatusUnsupportedMediaType},
	{fluxofatura.ErrArquivoPendente, http.StatusConflict},
	{fluxofatura.ErrEtapa, http.StatusConflict},
	{fluxofatura.ErrSemPlano, http.StatusPaymentRequired},
	{fluxofatura.ErrCampoObrigatorio, http.StatusBadRequest},
	{whatsapp.ErrAnexoGrande, http.StatusRequestEntityTooLarge},
	{whatsapp.ErrSemQR, http.StatusConflict},
	{fluxocontrato.ErrOfertaJaEscolhida, http.StatusConflict},
	{resiliencia.ErrCircuitoAberto, http.StatusServiceUnavailable},
}

// responderErro escolhe o status pelo tipo do erro. O 401 do backend volta
// como 401 com o destino do login; os demais erros do backend mantêm o status
// e a mensagem original. 401 e 403 de serviços externos viram 502.
func (s *Servidor) responderErro(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, api.ErrNaoAutorizado) {
		utils.RespondJSON(w, http.StatusUnauthorized, map[string]string{
			"message":  err.Error(),
			"redirect": api.RotaLogin,
		})
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		utils.RespondValidationError(w, ve)
		return
	}
	if fluxocontrato.ErroDeValidacao(err) {
		utils.RespondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, e := range statusPorErro {
		if errors.Is(err, e.erro) {
			utils.RespondMessage(w, e.status, err.Error())
			return
		}
	}

	var he *api.HTTPError
	if errors.As(err, &he) {
		status := he.Status
		switch {
		case status >= 500:
			status = http.StatusBadGateway
		case he.Servico != "" && (status == http.StatusUnauthorized || status == http.StatusForbidden):
			s.log.Error("serviço externo recusou a credencial do portal",
				zap.String("servico", he.Servico),
				zap.Int("status", he.Status),
				zap.String("message", he.Message),
			)
			status = http.StatusBadGateway
		}
		utils.RespondMessage(w, status, he.Message)
		return
	}

	s.log.Error("falha no portal",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	utils.RespondMessage(w, http.StatusBadGateway, err.Error())
}
