package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/armazenamento"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/cliente"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/contrato"
	"github.com/KromaEnergia/portal-ofertas/internal/dashboard"
	"github.com/KromaEnergia/portal-ofertas/internal/fatura"
	"github.com/KromaEnergia/portal-ofertas/internal/historico"
	"github.com/KromaEnergia/portal-ofertas/internal/logger"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/notificacao"
	"github.com/KromaEnergia/portal-ofertas/internal/oferta"
	"github.com/KromaEnergia/portal-ofertas/internal/plano"
	"github.com/KromaEnergia/portal-ofertas/internal/tarefas"
	"github.com/KromaEnergia/portal-ofertas/internal/usuario"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/KromaEnergia/portal-ofertas/internal/utils/db"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("carregar config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("criar logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Conectar(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	// AutoMigrate para todos os modelos
	if err := database.AutoMigrate(
		&usuario.Usuario{},
		&auth.RefreshToken{},
		&cliente.Cliente{},
		&plano.Plano{},
		&fatura.Fatura{},
		&oferta.Oferta{},
		&contrato.Contrato{},
		&historico.Entrada{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	chaves, err := auth.CarregarChaves(&cfg.Auth)
	if err != nil {
		return err
	}
	sessoes := auth.NovasSessoes(database, chaves, cfg.Auth.RefreshTTL, cfg.Auth.CookieSecure)

	eventos, fecharEventos := publicadores(cfg.Eventos, log)
	defer fecharEventos()

	storage, err := armazenamento.New(ctx, &cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("armazenamento: %w", err)
	}

	m := metricas.New(cfg.App.Name)
	faturas := fatura.NewRepository()

	// Handlers
	usuarioHandler := usuario.NewHandler(database, sessoes, eventos, log)
	clienteHandler := cliente.NewHandler(database)
	planoHandler := plano.NewHandler(database)
	faturaHandler := fatura.NewHandler(database, storage, eventos, log, cfg.Storage.MaxUploadSizeMB)
	ofertaHandler := oferta.NewHandler(oferta.NewRepository(database), faturas, eventos, log)
	contratoHandler := contrato.NewHandler(database, eventos, log)
	historicoHandler := historico.NewHandler(database, faturas.Dono)
	dashboardHandler := dashboard.NewHandler(database, log)

	// Router
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.Use(utils.LimitePorIP(cfg.RateLimit, log))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", chaves.JWKSHandler).Methods(http.MethodGet)

	// Rotas públicas de autenticação
	r.HandleFunc("/auth/login", usuarioHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", usuarioHandler.Registrar).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", sessoes.RefreshHTTPHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", sessoes.LogoutHTTPHandler).Methods(http.MethodPost)

	autenticado := auth.MiddlewareAutenticacao(chaves)

	// Rotas sem {role}: qualquer papel autenticado
	membro := r.PathPrefix("/api").Subrouter()
	membro.Use(autenticado)
	membro.HandleFunc("/plan/info", planoHandler.Info).Methods(http.MethodGet)
	membro.HandleFunc("/member/offers", ofertaHandler.CreateOfertas).Methods(http.MethodPost)

	// Rotas por papel: o {role} precisa bater com o token (group_admin usa "group")
	api := r.PathPrefix("/api/{role}").Subrouter()
	api.Use(autenticado, auth.RequireSegmento(auth.Segmento))
	api.HandleFunc("/me", usuarioHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/me", usuarioHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/whatsapp/link", usuarioHandler.VincularWhatsapp).Methods(http.MethodPost)
	api.HandleFunc("/whatsapp/unlink", usuarioHandler.DesvincularWhatsapp).Methods(http.MethodPost)
	api.HandleFunc("/clients", clienteHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/clients", clienteHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/invoices", faturaHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/invoices", faturaHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", faturaHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/attachments", faturaHandler.AdicionarAnexo).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}/history", historicoHandler.ListarPorFatura).Methods(http.MethodGet)
	api.HandleFunc("/invoice/offers", ofertaHandler.ListOfertas).Methods(http.MethodPost)
	api.HandleFunc("/offers/{id}/select", ofertaHandler.SelectOferta).Methods(http.MethodPut)
	api.HandleFunc("/contracts", contratoHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", dashboardHandler.Resumo).Methods(http.MethodGet)

	// Exclusivas do group_admin
	soGrupo := auth.RequireRole(auth.RoleGroupAdmin)
	api.Handle("/contracts", soGrupo(http.HandlerFunc(contratoHandler.Criar))).Methods(http.MethodPost)
	api.Handle("/contracts/{id}/status", soGrupo(http.HandlerFunc(contratoHandler.AtualizarStatus))).Methods(http.MethodPut)
	api.Handle("/users", soGrupo(http.HandlerFunc(usuarioHandler.Criar))).Methods(http.MethodPost)
	api.Handle("/users", soGrupo(http.HandlerFunc(usuarioHandler.ListarGrupo))).Methods(http.MethodGet)
	api.Handle("/plan", soGrupo(http.HandlerFunc(planoHandler.Ativar))).Methods(http.MethodPost)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           300,
	}).Handler(r)

	// Limpeza diária dos refresh tokens vencidos ou revogados
	agendador := tarefas.NovoAgendador(log)
	if err := agendador.AddJob("purgar-refresh-tokens", "@daily", func() {
		n, err := auth.PurgarRefreshTokens(database, time.Now().Add(-24*time.Hour))
		if err != nil {
			log.Error("falha ao purgar refresh tokens", zap.Error(err))
			return
		}
		log.Info("refresh tokens purgados", zap.Int64("quantidade", n))
	}); err != nil {
		return err
	}
	agendador.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return servir(srv, cfg.Server.ShutdownTimeout, log, func() {
		<-agendador.Stop().Done()
	})
}

// publicadores liga NATS e webhook quando configurados.
func publicadores(cfg config.EventosConfig, log *zap.Logger) (notificacao.Publisher, func()) {
	var destinos notificacao.Multi
	fechar := func() {}

	if cfg.NatsURL != "" {
		n, err := notificacao.NovoNats(cfg.NatsURL, cfg.NatsSubject, log)
		if err != nil {
			log.Warn("nats indisponível, seguindo sem eventos no barramento", zap.Error(err))
		} else {
			destinos = append(destinos, n)
			fechar = n.Close
		}
	}
	if cfg.WebhookURL != "" {
		destinos = append(destinos, notificacao.NovoWebhook(cfg.WebhookURL))
	}
	if len(destinos) == 0 {
		return notificacao.Nop{}, fechar
	}
	return destinos, fechar
}

func servir(srv *http.Server, timeout time.Duration, log *zap.Logger, antesDeParar func()) error {
	erros := make(chan error, 1)
	go func() {
		log.Info("servidor iniciado", zap.String("addr", srv.Addr))
		erros <- srv.ListenAndServe()
	}()

	sinal := make(chan os.Signal, 1)
	signal.Notify(sinal, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-erros:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("servidor: %w", err)
	case s := <-sinal:
		log.Info("sinal de desligamento recebido", zap.String("sinal", s.String()))
		antesDeParar()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("desligar servidor: %w", err)
		}
		log.Info("servidor parado")
	}
	return nil
}
