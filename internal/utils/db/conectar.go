package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Conectar abre o PostgreSQL. Sem DB_USERNAME/DB_PASSWORD as credenciais
// vêm do AWS Secrets Manager (DB_SECRET_ID).
func Conectar(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.User == "" || cfg.Password == "" {
		if cfg.SecretID == "" {
			return nil, fmt.Errorf("credenciais do banco ausentes: defina DB_USERNAME/DB_PASSWORD ou DB_SECRET_ID")
		}
		sm, err := novoSecretsClient(ctx)
		if err != nil {
			return nil, err
		}
		cred, err := buscarCredenciais(ctx, sm, cfg.SecretID)
		if err != nil {
			return nil, err
		}
		cfg.User, cfg.Password = cred.Username, cred.Password
		log.Info("credenciais do banco obtidas do Secrets Manager", zap.String("secret_id", cfg.SecretID))
	}

	database, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("conectar postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("banco conectado", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return database, nil
}
