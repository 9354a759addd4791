package portal

import (
	"context"
	"net/http"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
	"go.uber.org/zap"
)

// notificadorBackend registra o vínculo do número no cadastro do usuário.
type notificadorBackend struct {
	cliente  *api.Client
	segmento string
}

func (n notificadorBackend) Vincular(ctx context.Context, numero, sessaoWA string) error {
	return n.cliente.VincularWhatsapp(ctx, n.segmento, numero, sessaoWA)
}

func (n notificadorBackend) Desvincular(ctx context.Context) error {
	return n.cliente.DesvincularWhatsapp(ctx, n.segmento)
}

func (s *Servidor) vinculador(r *http.Request) *whatsapp.Vinculador {
	ses := sessaoDe(r)
	store := s.loja(ses)
	return s.vinculos.Obter(ses.UserID, func() *whatsapp.Vinculador {
		n := notificadorBackend{cliente: s.backend(store, ses.UserID), segmento: auth.Segmento(ses.Role)}
		log := s.log.With(zap.Uint("user_id", ses.UserID))
		return whatsapp.NovoVinculador(s.gateway, whatsapp.NomeSessao(ses.Email), n, s.cfg.Whatsapp.PollInterval, log)
	})
}

// GET /{role}/whatsapp
func (s *Servidor) EstadoWhatsapp(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, s.vinculador(r).Foto())
}

// POST /{role}/whatsapp/start
func (s *Servidor) IniciarWhatsapp(w http.ResponseWriter, r *http.Request) {
	v := s.vinculador(r)
	if err := v.Iniciar(r.Context()); err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, v.Foto())
}

// POST /{role}/whatsapp/status força uma verificação fora do ticker.
func (s *Servidor) VerificarWhatsapp(w http.ResponseWriter, r *http.Request) {
	v := s.vinculador(r)
	if err := v.Verificar(r.Context()); err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, v.Foto())
}

// GET /{role}/whatsapp/qr
func (s *Servidor) QRWhatsapp(w http.ResponseWriter, r *http.Request) {
	qr, err := s.vinculador(r).QR(r.Context())
	if err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, qr)
}

// POST /{role}/whatsapp/stop
func (s *Servidor) PararWhatsapp(w http.ResponseWriter, r *http.Request) {
	v := s.vinculador(r)
	if err := v.Parar(r.Context()); err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, v.Foto())
}

// DELETE /{role}/whatsapp
func (s *Servidor) ExcluirWhatsapp(w http.ResponseWriter, r *http.Request) {
	v := s.vinculador(r)
	if err := v.Excluir(r.Context()); err != nil {
		s.responderErro(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, v.Foto())
}
