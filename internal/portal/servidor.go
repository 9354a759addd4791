// Package portal expõe as telas de envio de fatura, ofertas, contrato e
// WhatsApp para cada papel em /{role}/*, conversando com a API interna.
package portal

import (
	"net/http"
	"sync"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/fluxofatura"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Dependencias struct {
	Config    *config.Config
	Log       *zap.Logger
	Metricas  *metricas.Metricas
	Validador auth.Validador
	Extrator  fluxofatura.Extrator
	Matcher   fluxofatura.Matcher
	Gateway   *whatsapp.Gateway
	HTTP      *http.Client
}

type Servidor struct {
	cfg       *config.Config
	log       *zap.Logger
	metricas  *metricas.Metricas
	validador auth.Validador
	extrator  fluxofatura.Extrator
	matcher   fluxofatura.Matcher
	gateway   *whatsapp.Gateway
	remetente *whatsapp.Remetente
	http      *http.Client

	faturas  *fluxofatura.Registry
	vinculos *whatsapp.Vinculadores

	mu    sync.Mutex
	lojas map[uint]*loja
	Agora func() time.Time
}

// loja é o store de longa duração do usuário, usado pelo vinculador de WhatsApp.
type loja struct {
	store *sessao.Memoria
	usado time.Time
}

func NovoServidor(d Dependencias) *Servidor {
	httpClient := d.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: d.Config.Backend.Timeout}
	}
	s := &Servidor{
		cfg:       d.Config,
		log:       d.Log,
		metricas:  d.Metricas,
		validador: d.Validador,
		extrator:  d.Extrator,
		matcher:   d.Matcher,
		gateway:   d.Gateway,
		remetente: whatsapp.NovoRemetente(d.Gateway),
		http:      httpClient,
		vinculos:  whatsapp.NovosVinculadores(),
		lojas:     make(map[uint]*loja),
		Agora:     time.Now,
	}
	s.faturas = fluxofatura.NovoRegistry(s.novoPipeline, d.Config.Server.PipelineIdle)
	return s
}

// Router monta as rotas do portal. O {role} da URL precisa ser o papel do token.
func (s *Servidor) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricas.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", s.metricas.Handler()).Methods(http.MethodGet)

	p := r.PathPrefix("/{role}").Subrouter()
	p.Use(auth.MiddlewareAutenticacao(s.validador))
	p.Use(auth.RequireSegmento(func(role string) string { return role }))

	// Fatura: upload → verificação → ofertas
	p.HandleFunc("/invoice", s.EstadoFatura).Methods(http.MethodGet)
	p.HandleFunc("/invoice/upload", s.UploadFatura).Methods(http.MethodPost)
	p.HandleFunc("/invoice/submit", s.SubmitFatura).Methods(http.MethodPost)
	p.HandleFunc("/invoice/reset", s.ResetFatura).Methods(http.MethodPost)

	// Ofertas
	p.HandleFunc("/invoices", s.ListarFaturas).Methods(http.MethodGet)
	p.HandleFunc("/invoices/{id}/offers", s.ListarOfertas).Methods(http.MethodGet)
	p.HandleFunc("/invoices/{id}/offers/export/{formato}", s.ExportarOfertas).Methods(http.MethodGet)
	p.HandleFunc("/invoices/{id}/offers/whatsapp", s.EnviarOfertasWhatsapp).Methods(http.MethodPost)
	p.HandleFunc("/offers/{id}/select", s.SelecionarOferta).Methods(http.MethodPut)

	// WhatsApp
	p.HandleFunc("/whatsapp", s.EstadoWhatsapp).Methods(http.MethodGet)
	p.HandleFunc("/whatsapp/start", s.IniciarWhatsapp).Methods(http.MethodPost)
	p.HandleFunc("/whatsapp/status", s.VerificarWhatsapp).Methods(http.MethodPost)
	p.HandleFunc("/whatsapp/qr", s.QRWhatsapp).Methods(http.MethodGet)
	p.HandleFunc("/whatsapp/stop", s.PararWhatsapp).Methods(http.MethodPost)
	p.HandleFunc("/whatsapp", s.ExcluirWhatsapp).Methods(http.MethodDelete)

	// Contratos (só group_admin)
	soGrupo := auth.RequireRole(auth.RoleGroupAdmin)
	p.Handle("/contracts/new", soGrupo(http.HandlerFunc(s.NovoContrato))).Methods(http.MethodPost)
	p.Handle("/contracts", soGrupo(http.HandlerFunc(s.CriarContrato))).Methods(http.MethodPost)

	return r
}

// sessaoDe monta a sessão do portal a partir do token já validado.
func sessaoDe(r *http.Request) sessao.Sessao {
	id, _ := auth.IdentidadeDe(r.Context())
	return sessao.Sessao{
		Token:   auth.TokenDe(r.Context()),
		Role:    id.Role,
		UserID:  id.UserID,
		Email:   id.Email,
		GroupID: id.GroupID,
	}
}

// loja devolve o store de longa duração do usuário com o token mais recente.
func (s *Servidor) loja(ses sessao.Sessao) *sessao.Memoria {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lojas[ses.UserID]
	if !ok {
		l = &loja{store: sessao.NovaMemoria(ses)}
		s.lojas[ses.UserID] = l
	} else {
		_ = l.store.Salvar(ses)
	}
	l.usado = s.Agora()
	return l.store
}

func (s *Servidor) backend(store sessao.Store, userID uint) *api.Client {
	return api.Novo(s.cfg.Backend.URL, s.http, store, api.ComRedirecionamento(func(destino string) {
		s.log.Info("sessão expirada no backend", zap.Uint("user_id", userID), zap.String("redirect", destino))
		s.faturas.Descartar(userID)
	}))
}

// backendDe cria um cliente preso ao token desta requisição.
func (s *Servidor) backendDe(r *http.Request) (*api.Client, sessao.Sessao) {
	ses := sessaoDe(r)
	return s.backend(sessao.NovaMemoria(ses), ses.UserID), ses
}

func (s *Servidor) novoPipeline(ses sessao.Sessao, store sessao.Store) (*fluxofatura.Pipeline, error) {
	v, err := fluxofatura.VariantePara(ses.Role)
	if err != nil {
		return nil, err
	}
	deps := fluxofatura.Dependencias{
		Backend:  s.backend(store, ses.UserID),
		Extrator: s.extrator,
		Matcher:  s.matcher,
	}
	log := s.log.With(zap.Uint("user_id", ses.UserID), zap.String("role", ses.Role))
	return fluxofatura.Novo(v, store, deps, log, s.metricas), nil
}

// LimparOciosos descarta envios abandonados e os stores de quem sumiu sem
// sessão de WhatsApp em andamento. Chamado pelo agendador.
func (s *Servidor) LimparOciosos() int {
	n := s.faturas.Limpar()
	if n > 0 {
		s.log.Info("envios ociosos descartados", zap.Int("quantidade", n))
	}

	idle := s.cfg.Server.PipelineIdle
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	limite := s.Agora().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.lojas {
		if l.usado.Before(limite) && s.vinculos.RemoverInativo(id) {
			delete(s.lojas, id)
		}
	}
	return n
}

// Fechar para o polling de todas as sessões de WhatsApp.
func (s *Servidor) Fechar() {
	s.vinculos.FecharTodos()
}
