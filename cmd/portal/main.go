package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/KromaEnergia/portal-ofertas/internal/logger"
	"github.com/KromaEnergia/portal-ofertas/internal/matching"
	"github.com/KromaEnergia/portal-ofertas/internal/metricas"
	"github.com/KromaEnergia/portal-ofertas/internal/ocr"
	"github.com/KromaEnergia/portal-ofertas/internal/portal"
	"github.com/KromaEnergia/portal-ofertas/internal/resiliencia"
	"github.com/KromaEnergia/portal-ofertas/internal/tarefas"
	"github.com/KromaEnergia/portal-ofertas/internal/utils"
	"github.com/KromaEnergia/portal-ofertas/internal/whatsapp"
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("carregar config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("criar logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("processo", "portal"))

	validador, err := auth.NovoValidadorRemoto(cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience, log)
	if err != nil {
		return err
	}
	defer validador.Fechar()

	m := metricas.New(cfg.App.Name + "-portal")
	exec := resiliencia.NovoExecutor(resiliencia.DeConfig(cfg.Breaker), log)

	srv := portal.NovoServidor(portal.Dependencias{
		Config:    cfg,
		Log:       log,
		Metricas:  m,
		Validador: validador,
		Extrator:  ocr.Novo(cfg.OCR, exec, m),
		Matcher:   matching.Novo(cfg.Matching, exec, m),
		Gateway:   whatsapp.NovoGateway(cfg.Whatsapp, exec, m),
	})
	defer srv.Fechar()

	agendador := tarefas.NovoAgendador(log)
	if err := agendador.AddJob("limpar-envios-ociosos", cfg.Server.CleanupCron, func() {
		srv.LimparOciosos()
	}); err != nil {
		return err
	}
	agendador.Start()

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           300,
	}).Handler(utils.LimitePorIP(cfg.RateLimit, log)(srv.Router()))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.PortalPort),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	erros := make(chan error, 1)
	go func() {
		log.Info("portal iniciado", zap.String("addr", httpSrv.Addr), zap.String("backend", cfg.Backend.URL))
		erros <- httpSrv.ListenAndServe()
	}()

	sinal := make(chan os.Signal, 1)
	signal.Notify(sinal, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-erros:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("portal: %w", err)
	case s := <-sinal:
		log.Info("sinal de desligamento recebido", zap.String("sinal", s.String()))
		<-agendador.Stop().Done()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("desligar portal: %w", err)
		}
		log.Info("portal parado")
	}
	return nil
}
